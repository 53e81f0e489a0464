package ops

import "github.com/born-ml/seq2seq/internal/tensor"

// MatMulOp represents matrix multiplication: output = a @ b.
//
// Backward pass:
//   - grad_a = outputGrad @ bᵀ
//   - grad_b = aᵀ @ outputGrad
type MatMulOp struct{ node }

// NewMatMulOp creates a new MatMulOp.
func NewMatMulOp(a, b, output *tensor.RawTensor) *MatMulOp {
	return &MatMulOp{node{inputs: []*tensor.RawTensor{a, b}, output: output}}
}

// Backward computes input gradients for matrix multiplication.
func (op *MatMulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	return []*tensor.RawTensor{
		backend.MatMul(outputGrad, backend.Transpose(b)),
		backend.MatMul(backend.Transpose(a), outputGrad),
	}
}

// BatchMatMulOp represents batched matrix multiplication over the last two
// dimensions: [..., m, k] @ [..., k, n].
type BatchMatMulOp struct{ node }

// NewBatchMatMulOp creates a new BatchMatMulOp.
func NewBatchMatMulOp(a, b, output *tensor.RawTensor) *BatchMatMulOp {
	return &BatchMatMulOp{node{inputs: []*tensor.RawTensor{a, b}, output: output}}
}

// Backward computes grad_a = grad @ bᵀ and grad_b = aᵀ @ grad per batch.
func (op *BatchMatMulOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	a, b := op.inputs[0], op.inputs[1]
	return []*tensor.RawTensor{
		backend.BatchMatMul(outputGrad, swapLastTwo(b, backend)),
		backend.BatchMatMul(swapLastTwo(a, backend), outputGrad),
	}
}

func swapLastTwo(t *tensor.RawTensor, backend tensor.Backend) *tensor.RawTensor {
	rank := len(t.Shape())
	axes := make([]int, rank)
	for i := range axes {
		axes[i] = i
	}
	axes[rank-2], axes[rank-1] = rank-1, rank-2
	return backend.Transpose(t, axes...)
}
