package ops

import "github.com/born-ml/seq2seq/internal/tensor"

// SoftmaxOp represents softmax along dim.
//
// Backward:
//
//	∂L/∂x_j = softmax_j * (∂L/∂softmax_j - Σ_i ∂L/∂softmax_i * softmax_i)
type SoftmaxOp struct {
	node
	dim int
}

// NewSoftmaxOp creates a new softmax operation.
func NewSoftmaxOp(x, output *tensor.RawTensor, dim int) *SoftmaxOp {
	return &SoftmaxOp{node: node{inputs: []*tensor.RawTensor{x}, output: output}, dim: dim}
}

// Backward computes the softmax vector-Jacobian product.
func (op *SoftmaxOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	s := op.output
	dot := backend.SumDim(backend.Mul(outputGrad, s), op.dim, true)
	return []*tensor.RawTensor{backend.Mul(s, backend.Sub(outputGrad, dot))}
}

// LogSoftmaxOp represents log-softmax along dim.
//
// Backward:
//
//	∂L/∂x_j = ∂L/∂log_softmax_j - softmax_j * Σ_i ∂L/∂log_softmax_i
type LogSoftmaxOp struct {
	node
	dim int
}

// NewLogSoftmaxOp creates a new log-softmax operation.
func NewLogSoftmaxOp(x, output *tensor.RawTensor, dim int) *LogSoftmaxOp {
	return &LogSoftmaxOp{node: node{inputs: []*tensor.RawTensor{x}, output: output}, dim: dim}
}

// Backward computes the log-softmax vector-Jacobian product.
func (op *LogSoftmaxOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	softmax := backend.Exp(op.output)
	sum := backend.SumDim(outputGrad, op.dim, true)
	return []*tensor.RawTensor{backend.Sub(outputGrad, backend.Mul(softmax, sum))}
}
