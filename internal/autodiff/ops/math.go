package ops

import "github.com/born-ml/seq2seq/internal/tensor"

// ExpOp represents output = e^x. Backward: grad_x = grad * output.
type ExpOp struct{ node }

// NewExpOp creates a new ExpOp.
func NewExpOp(x, output *tensor.RawTensor) *ExpOp {
	return &ExpOp{node{inputs: []*tensor.RawTensor{x}, output: output}}
}

// Backward computes grad * e^x.
func (op *ExpOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Mul(outputGrad, op.output)}
}

// LogOp represents output = ln(x). Backward: grad_x = grad / x.
type LogOp struct{ node }

// NewLogOp creates a new LogOp.
func NewLogOp(x, output *tensor.RawTensor) *LogOp {
	return &LogOp{node{inputs: []*tensor.RawTensor{x}, output: output}}
}

// Backward computes grad / x.
func (op *LogOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Div(outputGrad, op.inputs[0])}
}

// SqrtOp represents output = √x. Backward: grad_x = grad / (2√x), and 0
// where √x is 0.
type SqrtOp struct{ node }

// NewSqrtOp creates a new SqrtOp.
func NewSqrtOp(x, output *tensor.RawTensor) *SqrtOp {
	return &SqrtOp{node{inputs: []*tensor.RawTensor{x}, output: output}}
}

// Backward computes grad * 0.5 / √x.
func (op *SqrtOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	half := backend.MulScalar(outputGrad, scalarFor(outputGrad.DType(), 0.5))
	grad := backend.Div(half, op.output)
	return []*tensor.RawTensor{backend.Where(op.output, grad, zeroScalar(grad))}
}

// ReLUOp represents output = max(0, x).
// Backward: grad flows where x > 0, which is exactly where output != 0.
type ReLUOp struct{ node }

// NewReLUOp creates a new ReLUOp.
func NewReLUOp(x, output *tensor.RawTensor) *ReLUOp {
	return &ReLUOp{node{inputs: []*tensor.RawTensor{x}, output: output}}
}

// Backward masks the gradient by the positive part of the input.
func (op *ReLUOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	return []*tensor.RawTensor{backend.Where(op.output, outputGrad, zeroScalar(outputGrad))}
}
