// Package ops defines the differentiable operations recorded on a gradient tape.
//
// Each operation keeps its inputs and output from the forward pass and
// computes input gradients from the output gradient:
//   - AddOp, SubOp, MulOp, DivOp: element-wise arithmetic with broadcasting
//   - MatMulOp, BatchMatMulOp: (batched) matrix products
//   - ReshapeOp, TransposeOp: layout changes
//   - MulScalarOp, AddScalarOp: scalar arithmetic
//   - ExpOp, LogOp, SqrtOp, ReLUOp: element-wise math
//   - SoftmaxOp, LogSoftmaxOp: normalizations along one dimension
//   - SumDimOp, MeanDimOp: reductions
//   - WhereOp, GatherOp, EmbeddingOp: indexing
package ops

import "github.com/born-ml/seq2seq/internal/tensor"

// Operation represents a differentiable operation in the computation graph.
type Operation interface {
	// Backward computes gradients for Inputs() given the output gradient.
	// A nil entry means no gradient flows to that input.
	Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor

	// Inputs returns the differentiable input tensors for this operation.
	Inputs() []*tensor.RawTensor

	// Output returns the output tensor produced by this operation.
	Output() *tensor.RawTensor
}

// node holds the tensors every operation records.
type node struct {
	inputs []*tensor.RawTensor
	output *tensor.RawTensor
}

// Inputs returns the differentiable input tensors.
func (n *node) Inputs() []*tensor.RawTensor {
	return n.inputs
}

// Output returns the output tensor.
func (n *node) Output() *tensor.RawTensor {
	return n.output
}
