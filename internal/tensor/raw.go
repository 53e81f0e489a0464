package tensor

import (
	"unsafe"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// Device identifies where tensor storage lives.
type Device int

// CPU is the host device, the only one this module computes on.
const CPU Device = iota

// String returns a human-readable device name.
func (d Device) String() string {
	if d == CPU {
		return "CPU"
	}
	return "Unknown"
}

// RawTensor is the untyped storage a Tensor wraps and a Backend computes on.
//
// The buffer is contiguous and row-major. Backends never write into their
// inputs: every operation allocates its result, so a RawTensor pointer is a
// stable identity for the gradient tape.
type RawTensor struct {
	data   []byte
	shape  Shape
	stride []int
	dtype  DataType
	device Device
}

// NewRaw allocates a zero-filled RawTensor.
//
// Returns an error if any dimension is not positive.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, errors.WithMessage(err, "invalid shape")
	}
	return &RawTensor{
		data:   make([]byte, shape.NumElements()*dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}, nil
}

// MustNewRaw is NewRaw for kernels: an invalid shape panics with the error.
func MustNewRaw(shape Shape, dtype DataType, device Device) *RawTensor {
	r, err := NewRaw(shape, dtype, device)
	if err != nil {
		panic(err)
	}
	return r
}

// Shape returns the tensor's shape. Callers must not modify it.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the row-major strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// DType returns the element type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the storage device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the storage size in bytes.
func (r *RawTensor) ByteSize() int {
	return len(r.data)
}

// AsFloat32 views the storage as []float32 without copying.
// Panics if the dtype is not Float32.
func (r *RawTensor) AsFloat32() []float32 {
	r.requireDType(Float32)
	//nolint:gosec // Zero-copy view; length bounded by NumElements.
	return unsafe.Slice((*float32)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsFloat64 views the storage as []float64 without copying.
func (r *RawTensor) AsFloat64() []float64 {
	r.requireDType(Float64)
	//nolint:gosec // Zero-copy view; length bounded by NumElements.
	return unsafe.Slice((*float64)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsInt32 views the storage as []int32 without copying.
func (r *RawTensor) AsInt32() []int32 {
	r.requireDType(Int32)
	//nolint:gosec // Zero-copy view; length bounded by NumElements.
	return unsafe.Slice((*int32)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsInt64 views the storage as []int64 without copying.
func (r *RawTensor) AsInt64() []int64 {
	r.requireDType(Int64)
	//nolint:gosec // Zero-copy view; length bounded by NumElements.
	return unsafe.Slice((*int64)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// AsUint8 returns the storage bytes.
func (r *RawTensor) AsUint8() []uint8 {
	r.requireDType(Uint8)
	return r.data
}

// AsBool views the storage as []bool without copying.
func (r *RawTensor) AsBool() []bool {
	r.requireDType(Bool)
	//nolint:gosec // Zero-copy view; length bounded by NumElements.
	return unsafe.Slice((*bool)(unsafe.Pointer(&r.data[0])), r.NumElements())
}

// Clone returns a deep copy with its own storage.
func (r *RawTensor) Clone() *RawTensor {
	data := make([]byte, len(r.data))
	copy(data, r.data)
	return &RawTensor{
		data:   data,
		shape:  r.shape.Clone(),
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: r.device,
	}
}

func (r *RawTensor) requireDType(dt DataType) {
	if r.dtype != dt {
		exceptions.Panicf("tensor dtype is %s, not %s", r.dtype, dt)
	}
}
