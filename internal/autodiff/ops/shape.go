package ops

import "github.com/born-ml/seq2seq/internal/tensor"

// ReshapeOp represents a reshape: the gradient is reshaped back.
type ReshapeOp struct{ node }

// NewReshapeOp creates a new ReshapeOp.
func NewReshapeOp(x, output *tensor.RawTensor) *ReshapeOp {
	return &ReshapeOp{node{inputs: []*tensor.RawTensor{x}, output: output}}
}

// Backward reshapes the output gradient to the input shape.
func (op *ReshapeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Reshape(outputGrad, op.inputs[0].Shape())}
}

// TransposeOp represents an axis permutation. The gradient is permuted by the
// inverse permutation.
type TransposeOp struct {
	node
	axes []int
}

// NewTransposeOp creates a new TransposeOp. Empty axes means reversed order.
func NewTransposeOp(x, output *tensor.RawTensor, axes []int) *TransposeOp {
	rank := len(x.Shape())
	perm := make([]int, rank)
	for i := range perm {
		if len(axes) == 0 {
			perm[i] = rank - 1 - i
			continue
		}
		perm[i] = axes[i]
		if perm[i] < 0 {
			perm[i] += rank
		}
	}
	return &TransposeOp{node: node{inputs: []*tensor.RawTensor{x}, output: output}, axes: perm}
}

// Backward applies the inverse permutation to the output gradient.
func (op *TransposeOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	inverse := make([]int, len(op.axes))
	for i, ax := range op.axes {
		inverse[ax] = i
	}
	return []*tensor.RawTensor{backend.Transpose(outputGrad, inverse...)}
}
