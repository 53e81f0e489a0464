package cpu

import (
	"github.com/gomlx/exceptions"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// Scalar operations - element-wise operations with a scalar value.
// The scalar's Go type must match the tensor dtype.

// MulScalar multiplies each element of the tensor by a scalar value.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("mulScalar", x, scalar, mulKernel)
}

// AddScalar adds a scalar value to each element of the tensor.
func (cpu *CPUBackend) AddScalar(x *tensor.RawTensor, scalar any) *tensor.RawTensor {
	return cpu.scalarOp("addScalar", x, scalar, addKernel)
}

func (cpu *CPUBackend) scalarOp(name string, x *tensor.RawTensor, scalar any, kind binaryKind) *tensor.RawTensor {
	result := tensor.MustNewRaw(x.Shape(), x.DType(), cpu.device)
	switch x.DType() {
	case tensor.Float32:
		scalarTyped(kind, result.AsFloat32(), x.AsFloat32(), scalarAs[float32](name, scalar))
	case tensor.Float64:
		scalarTyped(kind, result.AsFloat64(), x.AsFloat64(), scalarAs[float64](name, scalar))
	case tensor.Int32:
		scalarTyped(kind, result.AsInt32(), x.AsInt32(), scalarAs[int32](name, scalar))
	case tensor.Int64:
		scalarTyped(kind, result.AsInt64(), x.AsInt64(), scalarAs[int64](name, scalar))
	default:
		exceptions.Panicf("%s: unsupported dtype %s", name, x.DType())
	}
	return result
}

func scalarAs[T number](name string, scalar any) T {
	v, ok := scalar.(T)
	if !ok {
		var zero T
		exceptions.Panicf("%s: scalar %v (%T) does not match tensor element type %T", name, scalar, scalar, zero)
	}
	return v
}

func scalarTyped[T number](kind binaryKind, out, x []T, s T) {
	op := binaryFunc[T](kind)
	for i, v := range x {
		out[i] = op(v, s)
	}
}
