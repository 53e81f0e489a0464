// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"math/rand"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// Type aliases for public API

// DType is a constraint for tensor element types.
// Supported types: float32, float64, int32, int64, uint8, bool.
type DType = tensor.DType

// DataType represents the runtime element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int32   DataType = tensor.Int32
	Int64   DataType = tensor.Int64
	Uint8   DataType = tensor.Uint8
	Bool    DataType = tensor.Bool
)

// Device represents where tensor storage lives.
type Device = tensor.Device

// CPU is the host device.
const CPU Device = tensor.CPU

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// RawTensor is the untyped storage a Tensor wraps. Gradient maps are keyed by it.
type RawTensor = tensor.RawTensor

// Backend defines the kernels a compute backend implements.
//
// Implementations:
//   - backend/cpu: pure Go kernels
//   - autodiff: decorator that records operations for backpropagation
type Backend = tensor.Backend

// Tensor is a generic type-safe tensor.
//
// T is the element type, B the backend that computes on it.
//
// Example:
//
//	backend := cpu.New()
//	x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	z := x.Add(y)
type Tensor[T DType, B Backend] = tensor.Tensor[T, B]

// Errors returned or raised by tensor operations.
var (
	ErrShapeMismatch   = tensor.ErrShapeMismatch
	ErrIndexOutOfRange = tensor.ErrIndexOutOfRange
	ErrInvalidAxis     = tensor.ErrInvalidAxis
)

// Constructors

// New wraps a RawTensor.
func New[T DType, B Backend](raw *RawTensor, b B) *Tensor[T, B] {
	return tensor.New[T](raw, b)
}

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Zeros[T](shape, b)
}

// Ones creates a tensor filled with ones.
func Ones[T ~float32 | ~float64 | ~int32 | ~int64, B Backend](shape Shape, b B) *Tensor[T, B] {
	return tensor.Ones[T](shape, b)
}

// Full creates a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	return tensor.Full(shape, value, b)
}

// FromSlice creates a tensor holding a copy of data.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	return tensor.FromSlice(data, shape, b)
}

// FromRows creates a [len(rows), len(rows[0])] tensor. Rows must have equal length.
func FromRows[T DType, B Backend](rows [][]T, b B) (*Tensor[T, B], error) {
	return tensor.FromRows(rows, b)
}

// RandUniform creates a float32 tensor with values drawn from U(lo, hi).
func RandUniform[B Backend](shape Shape, lo, hi float32, rng *rand.Rand, b B) *Tensor[float32, B] {
	return tensor.RandUniform(shape, lo, hi, rng, b)
}

// Randn creates a float32 tensor with values drawn from N(0, 1).
func Randn[B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[float32, B] {
	return tensor.Randn(shape, rng, b)
}

// Where selects x where condition is non-zero and y elsewhere, with broadcasting.
func Where[T DType, C DType, B Backend](condition *Tensor[C, B], x, y *Tensor[T, B]) *Tensor[T, B] {
	return tensor.Where(condition, x, y)
}

// BroadcastShapes computes the broadcast shape of a and b.
// The boolean reports whether any broadcasting was needed.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}
