package cpu

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// Gather selects elements along dim using an int32 index tensor.
// Similar to torch.gather(input, dim, index).
//
// The index shape must match the input shape except at dim.
//
// Example:
//
//	input: [3, 4, 5], index: [3, 4, 2], dim: 2
//	output: [3, 4, 2] where output[i,j,k] = input[i,j,index[i,j,k]]
func (cpu *CPUBackend) Gather(x *tensor.RawTensor, dim int, index *tensor.RawTensor) *tensor.RawTensor {
	if index.DType() != tensor.Int32 {
		exceptions.Panicf("gather: index tensor must have dtype int32, got %s", index.DType())
	}
	shape := x.Shape()
	axis, err := shape.NormalizeAxis(dim)
	if err != nil {
		panic(errors.WithMessage(err, "gather"))
	}
	indexShape := index.Shape()
	if len(indexShape) != len(shape) {
		panic(errors.Wrapf(tensor.ErrShapeMismatch, "gather: index rank %d != input rank %d",
			len(indexShape), len(shape)))
	}
	for i := range shape {
		if i != axis && indexShape[i] != shape[i] {
			panic(errors.Wrapf(tensor.ErrShapeMismatch, "gather: index shape mismatch at dim %d: %d != %d",
				i, indexShape[i], shape[i]))
		}
	}

	result := tensor.MustNewRaw(indexShape, x.DType(), cpu.device)
	indices := index.AsInt32()
	switch x.DType() {
	case tensor.Float32:
		gatherAxis(result.AsFloat32(), x.AsFloat32(), indices, shape, indexShape, axis)
	case tensor.Float64:
		gatherAxis(result.AsFloat64(), x.AsFloat64(), indices, shape, indexShape, axis)
	case tensor.Int32:
		gatherAxis(result.AsInt32(), x.AsInt32(), indices, shape, indexShape, axis)
	case tensor.Int64:
		gatherAxis(result.AsInt64(), x.AsInt64(), indices, shape, indexShape, axis)
	default:
		exceptions.Panicf("gather: unsupported dtype %s", x.DType())
	}
	return result
}

func gatherAxis[T number](dst, src []T, indices []int32, srcShape, dstShape tensor.Shape, axis int) {
	_, n, inner := splitAxis(srcShape, axis)
	_, m, _ := splitAxis(dstShape, axis)
	for i := range dst {
		o := i / (m * inner)
		in := i % inner
		idx := int(indices[i])
		if idx < 0 || idx >= n {
			panic(errors.Wrapf(tensor.ErrIndexOutOfRange, "gather: index %d out of bounds [0, %d) at position %d",
				idx, n, i))
		}
		dst[i] = src[o*n*inner+idx*inner+in]
	}
}

// Embedding looks up rows of weight [vocab, dim] for every int32 id in
// indices: [...] -> [..., dim].
func (cpu *CPUBackend) Embedding(weight, indices *tensor.RawTensor) *tensor.RawTensor {
	if indices.DType() != tensor.Int32 {
		exceptions.Panicf("embedding: indices must have dtype int32, got %s", indices.DType())
	}
	wShape := weight.Shape()
	if len(wShape) != 2 {
		panic(errors.Wrapf(tensor.ErrShapeMismatch, "embedding: weight must be 2D, got %v", wShape))
	}
	vocab, dim := wShape[0], wShape[1]

	outShape := append(indices.Shape().Clone(), dim)
	result := tensor.MustNewRaw(outShape, weight.DType(), cpu.device)
	switch weight.DType() {
	case tensor.Float32:
		embeddingRows(result.AsFloat32(), weight.AsFloat32(), indices.AsInt32(), vocab, dim)
	case tensor.Float64:
		embeddingRows(result.AsFloat64(), weight.AsFloat64(), indices.AsInt32(), vocab, dim)
	default:
		exceptions.Panicf("embedding: unsupported dtype %s", weight.DType())
	}
	return result
}

func embeddingRows[T number](dst, weight []T, ids []int32, vocab, dim int) {
	for i, id := range ids {
		if id < 0 || int(id) >= vocab {
			panic(errors.Wrapf(tensor.ErrIndexOutOfRange, "embedding: id %d at position %d outside [0, %d)",
				id, i, vocab))
		}
		copy(dst[i*dim:(i+1)*dim], weight[int(id)*dim:(int(id)+1)*dim])
	}
}

// Where selects x where condition is non-zero (true) and y elsewhere.
// All three tensors broadcast to a common shape.
func (cpu *CPUBackend) Where(condition, x, y *tensor.RawTensor) *tensor.RawTensor {
	if x.DType() != y.DType() {
		exceptions.Panicf("where: x and y must have same dtype, got %s and %s", x.DType(), y.DType())
	}
	outShape1, _, err := tensor.BroadcastShapes(condition.Shape(), x.Shape())
	if err != nil {
		panic(errors.WithMessage(err, "where: condition and x"))
	}
	outShape, _, err := tensor.BroadcastShapes(outShape1, y.Shape())
	if err != nil {
		panic(errors.WithMessage(err, "where: y"))
	}

	result := tensor.MustNewRaw(outShape, x.DType(), cpu.device)
	cond := conditionMask(condition)
	switch x.DType() {
	case tensor.Float32:
		whereTyped(result.AsFloat32(), cond, x.AsFloat32(), y.AsFloat32(), outShape, condition.Shape(), x.Shape(), y.Shape())
	case tensor.Float64:
		whereTyped(result.AsFloat64(), cond, x.AsFloat64(), y.AsFloat64(), outShape, condition.Shape(), x.Shape(), y.Shape())
	case tensor.Int32:
		whereTyped(result.AsInt32(), cond, x.AsInt32(), y.AsInt32(), outShape, condition.Shape(), x.Shape(), y.Shape())
	case tensor.Int64:
		whereTyped(result.AsInt64(), cond, x.AsInt64(), y.AsInt64(), outShape, condition.Shape(), x.Shape(), y.Shape())
	default:
		exceptions.Panicf("where: unsupported dtype %s", x.DType())
	}
	return result
}

func whereTyped[T number](dst []T, cond []bool, xData, yData []T, outShape, condShape, xShape, yShape tensor.Shape) {
	outStrides := outShape.ComputeStrides()
	cStrides := computeBroadcastStridesForShape(condShape, outShape)
	xStrides := computeBroadcastStridesForShape(xShape, outShape)
	yStrides := computeBroadcastStridesForShape(yShape, outShape)
	for i := range dst {
		if cond[computeFlatIndex(i, outStrides, cStrides)] {
			dst[i] = xData[computeFlatIndex(i, outStrides, xStrides)]
		} else {
			dst[i] = yData[computeFlatIndex(i, outStrides, yStrides)]
		}
	}
}

// conditionMask reads a condition tensor of any dtype as non-zero flags.
func conditionMask(condition *tensor.RawTensor) []bool {
	if condition.DType() == tensor.Bool {
		return condition.AsBool()
	}
	out := make([]bool, condition.NumElements())
	switch condition.DType() {
	case tensor.Float32:
		for i, v := range condition.AsFloat32() {
			out[i] = v != 0
		}
	case tensor.Float64:
		for i, v := range condition.AsFloat64() {
			out[i] = v != 0
		}
	case tensor.Int32:
		for i, v := range condition.AsInt32() {
			out[i] = v != 0
		}
	case tensor.Int64:
		for i, v := range condition.AsInt64() {
			out[i] = v != 0
		}
	case tensor.Uint8:
		for i, v := range condition.AsUint8() {
			out[i] = v != 0
		}
	}
	return out
}
