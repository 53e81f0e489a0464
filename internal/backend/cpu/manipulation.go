package cpu

import (
	"github.com/pkg/errors"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// Reshape returns a copy of t with a new shape and the same element count.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(errors.WithMessage(err, "reshape"))
	}
	if t.NumElements() != newShape.NumElements() {
		panic(errors.Wrapf(tensor.ErrShapeMismatch, "reshape: incompatible shapes: %v -> %v", t.Shape(), newShape))
	}
	result := tensor.MustNewRaw(newShape, t.DType(), cpu.device)
	copyRaw(result, t)
	return result
}

// Transpose permutes the dimensions of t. With no axes the order is reversed.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		panic(errors.Wrapf(tensor.ErrInvalidAxis, "transpose: axes length %d != ndim %d", len(axes), ndim))
	}

	perm := make([]int, ndim)
	seen := make([]bool, ndim)
	for i, ax := range axes {
		a, err := shape.NormalizeAxis(ax)
		if err != nil {
			panic(errors.WithMessage(err, "transpose"))
		}
		if seen[a] {
			panic(errors.Wrapf(tensor.ErrInvalidAxis, "transpose: duplicate axis %d", ax))
		}
		seen[a] = true
		perm[i] = a
	}

	newShape := make(tensor.Shape, ndim)
	for i, ax := range perm {
		newShape[i] = shape[ax]
	}
	result := tensor.MustNewRaw(newShape, t.DType(), cpu.device)

	switch t.DType() {
	case tensor.Float32:
		transposeData(result.AsFloat32(), t.AsFloat32(), shape, newShape, perm)
	case tensor.Float64:
		transposeData(result.AsFloat64(), t.AsFloat64(), shape, newShape, perm)
	case tensor.Int32:
		transposeData(result.AsInt32(), t.AsInt32(), shape, newShape, perm)
	case tensor.Int64:
		transposeData(result.AsInt64(), t.AsInt64(), shape, newShape, perm)
	case tensor.Uint8:
		transposeData(result.AsUint8(), t.AsUint8(), shape, newShape, perm)
	case tensor.Bool:
		transposeData(result.AsBool(), t.AsBool(), shape, newShape, perm)
	}
	return result
}

// transposeData writes dst[i...] = src[i permuted back] for every output index.
func transposeData[T tensor.DType](dst, src []T, srcShape, dstShape tensor.Shape, perm []int) {
	srcStrides := srcShape.ComputeStrides()
	dstStrides := dstShape.ComputeStrides()
	// Source stride of each output axis.
	permStrides := make([]int, len(perm))
	for i, ax := range perm {
		permStrides[i] = srcStrides[ax]
	}
	for i := range dst {
		dst[i] = src[computeFlatIndex(i, dstStrides, permStrides)]
	}
}

func copyRaw(dst, src *tensor.RawTensor) {
	switch src.DType() {
	case tensor.Float32:
		copy(dst.AsFloat32(), src.AsFloat32())
	case tensor.Float64:
		copy(dst.AsFloat64(), src.AsFloat64())
	case tensor.Int32:
		copy(dst.AsInt32(), src.AsInt32())
	case tensor.Int64:
		copy(dst.AsInt64(), src.AsInt64())
	case tensor.Uint8:
		copy(dst.AsUint8(), src.AsUint8())
	case tensor.Bool:
		copy(dst.AsBool(), src.AsBool())
	}
}
