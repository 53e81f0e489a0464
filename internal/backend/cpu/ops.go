package cpu

import (
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// number covers the element types arithmetic kernels are instantiated for.
type number interface {
	~float32 | ~float64 | ~int32 | ~int64
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("add", a, b, addKernel)
}

// Sub performs element-wise subtraction with broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("sub", a, b, subKernel)
}

// Mul performs element-wise multiplication with broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("mul", a, b, mulKernel)
}

// Div performs element-wise division with broadcasting.
func (cpu *CPUBackend) Div(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binary("div", a, b, divKernel)
}

type binaryKind int

const (
	addKernel binaryKind = iota
	subKernel
	mulKernel
	divKernel
)

func (cpu *CPUBackend) binary(name string, a, b *tensor.RawTensor, kind binaryKind) *tensor.RawTensor {
	if a.DType() != b.DType() {
		panic(errors.Wrapf(tensor.ErrShapeMismatch, "%s: dtype mismatch %s vs %s", name, a.DType(), b.DType()))
	}
	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(errors.WithMessage(err, name))
	}
	result := tensor.MustNewRaw(outShape, a.DType(), cpu.device)

	switch a.DType() {
	case tensor.Float32:
		binaryTyped(kind, result.AsFloat32(), a.AsFloat32(), b.AsFloat32(), a.Shape(), b.Shape(), outShape, needsBroadcast)
	case tensor.Float64:
		binaryTyped(kind, result.AsFloat64(), a.AsFloat64(), b.AsFloat64(), a.Shape(), b.Shape(), outShape, needsBroadcast)
	case tensor.Int32:
		binaryTyped(kind, result.AsInt32(), a.AsInt32(), b.AsInt32(), a.Shape(), b.Shape(), outShape, needsBroadcast)
	case tensor.Int64:
		binaryTyped(kind, result.AsInt64(), a.AsInt64(), b.AsInt64(), a.Shape(), b.Shape(), outShape, needsBroadcast)
	default:
		exceptions.Panicf("%s: unsupported dtype %s", name, a.DType())
	}
	return result
}

func binaryTyped[T number](kind binaryKind, out, a, b []T, aShape, bShape, outShape tensor.Shape, needsBroadcast bool) {
	op := binaryFunc[T](kind)
	if !needsBroadcast {
		for i := range out {
			out[i] = op(a[i], b[i])
		}
		return
	}
	outStrides := outShape.ComputeStrides()
	aStrides := computeBroadcastStridesForShape(aShape, outShape)
	bStrides := computeBroadcastStridesForShape(bShape, outShape)
	for i := range out {
		out[i] = op(a[computeFlatIndex(i, outStrides, aStrides)], b[computeFlatIndex(i, outStrides, bStrides)])
	}
}

func binaryFunc[T number](kind binaryKind) func(x, y T) T {
	switch kind {
	case addKernel:
		return func(x, y T) T { return x + y }
	case subKernel:
		return func(x, y T) T { return x - y }
	case mulKernel:
		return func(x, y T) T { return x * y }
	default:
		return func(x, y T) T { return x / y }
	}
}
