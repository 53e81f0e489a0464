package ops

import (
	"github.com/gomlx/exceptions"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// WhereOp represents a conditional selection: output = where(cond, x, y).
//
// Backward:
//
//	grad_x = where(cond, grad_out, 0)
//	grad_y = where(cond, 0, grad_out)
//
// The condition has no gradient and is not listed in Inputs.
type WhereOp struct {
	node
	condition *tensor.RawTensor
}

// NewWhereOp creates a new where operation.
func NewWhereOp(condition, x, y, output *tensor.RawTensor) *WhereOp {
	return &WhereOp{node: node{inputs: []*tensor.RawTensor{x, y}, output: output}, condition: condition}
}

// Backward computes gradients for x and y.
func (op *WhereOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	x, y := op.inputs[0], op.inputs[1]
	zero := zeroScalar(outputGrad)
	gradX := backend.Where(op.condition, outputGrad, zero)
	gradY := backend.Where(op.condition, zero, outputGrad)
	return []*tensor.RawTensor{
		reduceBroadcast(gradX, x.Shape(), backend),
		reduceBroadcast(gradY, y.Shape(), backend),
	}
}

// GatherOp represents output = gather(x, dim, index).
//
// Backward scatter-adds the output gradient into the positions it was
// gathered from. The index has no gradient and is not listed in Inputs.
type GatherOp struct {
	node
	dim   int
	index *tensor.RawTensor
}

// NewGatherOp creates a new gather operation.
func NewGatherOp(x, index, output *tensor.RawTensor, dim int) *GatherOp {
	return &GatherOp{node: node{inputs: []*tensor.RawTensor{x}, output: output}, dim: dim, index: index}
}

// Backward scatter-adds the gradient along dim.
func (op *GatherOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	x := op.inputs[0]
	shape := x.Shape()
	axis, err := shape.NormalizeAxis(op.dim)
	if err != nil {
		panic(err)
	}
	requireFloat32("gather", outputGrad)

	grad := tensor.MustNewRaw(shape, x.DType(), x.Device())
	gradData := grad.AsFloat32()
	outData := outputGrad.AsFloat32()
	indices := op.index.AsInt32()

	n := shape[axis]
	inner := 1
	for _, d := range shape[axis+1:] {
		inner *= d
	}
	m := op.index.Shape()[axis]
	for i, g := range outData {
		o := i / (m * inner)
		in := i % inner
		gradData[o*n*inner+int(indices[i])*inner+in] += g
	}
	return []*tensor.RawTensor{grad}
}

// EmbeddingOp represents an embedding lookup: output[i] = weight[indices[i]].
//
// Backward accumulates grad_output[i] into grad_weight[indices[i]]; rows
// looked up several times receive the sum.
type EmbeddingOp struct {
	node
	indices *tensor.RawTensor
}

// NewEmbeddingOp creates a new embedding operation.
func NewEmbeddingOp(weight, indices, output *tensor.RawTensor) *EmbeddingOp {
	return &EmbeddingOp{node: node{inputs: []*tensor.RawTensor{weight}, output: output}, indices: indices}
}

// Backward scatter-adds gradient rows into the weight gradient.
func (op *EmbeddingOp) Backward(outputGrad *tensor.RawTensor, _ tensor.Backend) []*tensor.RawTensor {
	weight := op.inputs[0]
	requireFloat32("embedding", outputGrad)
	dim := weight.Shape()[1]

	grad := tensor.MustNewRaw(weight.Shape(), weight.DType(), weight.Device())
	gradData := grad.AsFloat32()
	outData := outputGrad.AsFloat32()
	for i, id := range op.indices.AsInt32() {
		row := gradData[int(id)*dim : (int(id)+1)*dim]
		for j, g := range outData[i*dim : (i+1)*dim] {
			row[j] += g
		}
	}
	return []*tensor.RawTensor{grad}
}

func requireFloat32(name string, grad *tensor.RawTensor) {
	if grad.DType() != tensor.Float32 {
		exceptions.Panicf("%s backward: only float32 supported, got %s", name, grad.DType())
	}
}
