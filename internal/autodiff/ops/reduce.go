package ops

import "github.com/born-ml/seq2seq/internal/tensor"

// SumDimOp represents a sum along dim. The gradient is broadcast back over
// the reduced axis.
type SumDimOp struct {
	node
	dim     int
	keepDim bool
}

// NewSumDimOp creates a new SumDimOp.
func NewSumDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *SumDimOp {
	return &SumDimOp{node: node{inputs: []*tensor.RawTensor{x}, output: output}, dim: dim, keepDim: keepDim}
}

// Backward broadcasts the gradient to the input shape.
func (op *SumDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{expandReduced(outputGrad, op.inputs[0], op.dim, op.keepDim, 1, backend)}
}

// MeanDimOp represents a mean along dim: like SumDimOp scaled by 1/n.
type MeanDimOp struct {
	node
	dim     int
	keepDim bool
}

// NewMeanDimOp creates a new MeanDimOp.
func NewMeanDimOp(x, output *tensor.RawTensor, dim int, keepDim bool) *MeanDimOp {
	return &MeanDimOp{node: node{inputs: []*tensor.RawTensor{x}, output: output}, dim: dim, keepDim: keepDim}
}

// Backward broadcasts grad / n to the input shape.
func (op *MeanDimOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	axis, err := x.Shape().NormalizeAxis(op.dim)
	if err != nil {
		panic(err)
	}
	scale := 1 / float64(x.Shape()[axis])
	return []*tensor.RawTensor{expandReduced(outputGrad, x, op.dim, op.keepDim, scale, backend)}
}

// expandReduced restores the reduced axis of grad and broadcasts it to the
// shape of x, multiplied by scale.
func expandReduced(grad, x *tensor.RawTensor, dim int, keepDim bool, scale float64, backend tensor.Backend) *tensor.RawTensor {
	shape := x.Shape()
	axis, err := shape.NormalizeAxis(dim)
	if err != nil {
		panic(err)
	}
	if !keepDim {
		kept := shape.Clone()
		kept[axis] = 1
		grad = backend.Reshape(grad, kept)
	}
	return backend.Mul(filled(shape, grad.DType(), grad.Device(), scale), grad)
}
