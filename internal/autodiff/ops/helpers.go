package ops

import (
	"github.com/gomlx/exceptions"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// reduceBroadcast reduces a gradient tensor to match the target shape.
// This is necessary when broadcasting was used in the forward pass.
//
// Example:
//
//	Forward: a[3,1] + b[3,4] -> c[3,4]  (a was broadcast along dim 1)
//	Backward: grad_c[3,4] -> grad_a[3,1] (sum along dim 1)
func reduceBroadcast(grad *tensor.RawTensor, targetShape tensor.Shape, backend tensor.Backend) *tensor.RawTensor {
	gradShape := grad.Shape()
	if gradShape.Equal(targetShape) {
		return grad
	}

	// Leading dimensions missing from the target are summed away.
	result := grad
	for i := 0; i < len(gradShape)-len(targetShape); i++ {
		result = backend.SumDim(result, 0, false)
	}

	// Dimensions where the target is 1 are summed with keepDim.
	for i, d := range targetShape {
		if d == 1 && result.Shape()[i] > 1 {
			result = backend.SumDim(result, i, true)
		}
	}

	if !result.Shape().Equal(targetShape) {
		result = backend.Reshape(result, targetShape)
	}
	return result
}

// scalarFor converts v to the Go type matching dt, as the backend's scalar
// kernels require.
func scalarFor(dt tensor.DataType, v float64) any {
	switch dt {
	case tensor.Float32:
		return float32(v)
	case tensor.Float64:
		return v
	default:
		exceptions.Panicf("gradient of %s tensor is not supported", dt)
		return nil
	}
}

// filled returns a tensor of shape filled with v.
func filled(shape tensor.Shape, dt tensor.DataType, device tensor.Device, v float64) *tensor.RawTensor {
	out := tensor.MustNewRaw(shape, dt, device)
	switch dt {
	case tensor.Float32:
		data := out.AsFloat32()
		for i := range data {
			data[i] = float32(v)
		}
	case tensor.Float64:
		data := out.AsFloat64()
		for i := range data {
			data[i] = v
		}
	default:
		exceptions.Panicf("gradient of %s tensor is not supported", dt)
	}
	return out
}

// zeroScalar returns a [1] zero that broadcasts against anything.
func zeroScalar(like *tensor.RawTensor) *tensor.RawTensor {
	return filled(tensor.Shape{1}, like.DType(), like.Device(), 0)
}
