package cpu

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// SumDim sums x along dim. With keepDim the reduced axis stays with size 1,
// otherwise it is removed.
//
// Example:
//
//	x: [2, 3, 4], dim=1, keepDim=true  -> [2, 1, 4]
//	x: [2, 3, 4], dim=1, keepDim=false -> [2, 4]
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim("sumDim", x, dim, keepDim, false)
}

// MeanDim averages x along dim.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim("meanDim", x, dim, keepDim, true)
}

func (cpu *CPUBackend) reduceDim(name string, x *tensor.RawTensor, dim int, keepDim, mean bool) *tensor.RawTensor {
	shape := x.Shape()
	axis, err := shape.NormalizeAxis(dim)
	if err != nil {
		panic(errors.WithMessage(err, name))
	}
	outer, n, inner := splitAxis(shape, axis)

	result := tensor.MustNewRaw(reducedShape(shape, axis, keepDim), x.DType(), cpu.device)
	switch x.DType() {
	case tensor.Float32:
		sumAxis(result.AsFloat32(), x.AsFloat32(), outer, n, inner, mean)
	case tensor.Float64:
		sumAxis(result.AsFloat64(), x.AsFloat64(), outer, n, inner, mean)
	case tensor.Int32:
		sumAxis(result.AsInt32(), x.AsInt32(), outer, n, inner, mean)
	case tensor.Int64:
		sumAxis(result.AsInt64(), x.AsInt64(), outer, n, inner, mean)
	default:
		exceptions.Panicf("%s: unsupported dtype %s", name, x.DType())
	}
	return result
}

func reducedShape(shape tensor.Shape, axis int, keepDim bool) tensor.Shape {
	out := make(tensor.Shape, 0, len(shape))
	for i, d := range shape {
		switch {
		case i != axis:
			out = append(out, d)
		case keepDim:
			out = append(out, 1)
		}
	}
	return out
}

func sumAxis[T number](out, x []T, outer, n, inner int, mean bool) {
	for o := 0; o < outer; o++ {
		for i := 0; i < inner; i++ {
			base := o*n*inner + i
			var sum T
			for j := 0; j < n; j++ {
				sum += x[base+j*inner]
			}
			if mean {
				sum /= T(n)
			}
			out[o*inner+i] = sum
		}
	}
}
