package tensor

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Zeros creates a tensor filled with zeros.
func Zeros[T DType, B Backend](shape Shape, b B) *Tensor[T, B] {
	return New[T, B](MustNewRaw(shape, inferDataType[T](), b.Device()), b)
}

// Ones creates a tensor filled with ones.
func Ones[T ~float32 | ~float64 | ~int32 | ~int64, B Backend](shape Shape, b B) *Tensor[T, B] {
	return Full[T](shape, 1, b)
}

// Full creates a tensor filled with value.
func Full[T DType, B Backend](shape Shape, value T, b B) *Tensor[T, B] {
	t := Zeros[T](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = value
	}
	return t
}

// FromSlice creates a tensor from a copy of data.
func FromSlice[T DType, B Backend](data []T, shape Shape, b B) (*Tensor[T, B], error) {
	if shape.NumElements() != len(data) {
		return nil, errors.Wrapf(ErrShapeMismatch, "shape %v requires %d elements, but got %d",
			shape, shape.NumElements(), len(data))
	}
	raw, err := NewRaw(shape, inferDataType[T](), b.Device())
	if err != nil {
		return nil, err
	}
	t := New[T, B](raw, b)
	copy(t.Data(), data)
	return t, nil
}

// FromRows creates a [len(rows), len(rows[0])] tensor. All rows must have the
// same length.
//
// Example:
//
//	ids, err := tensor.FromRows([][]int32{{1, 5, 9, 0}, {1, 7, 0, 0}}, backend) // [2, 4]
func FromRows[T DType, B Backend](rows [][]T, b B) (*Tensor[T, B], error) {
	if len(rows) == 0 {
		return nil, errors.Wrap(ErrShapeMismatch, "FromRows: no rows")
	}
	width := len(rows[0])
	data := make([]T, 0, len(rows)*width)
	for i, r := range rows {
		if len(r) != width {
			return nil, errors.Wrapf(ErrShapeMismatch, "FromRows: row %d has %d values, row 0 has %d",
				i, len(r), width)
		}
		data = append(data, r...)
	}
	return FromSlice(data, Shape{len(rows), width}, b)
}

// RandUniform creates a float32 tensor with values drawn uniformly from [lo, hi).
//
// The caller owns rng; passing a seeded source makes the result reproducible.
func RandUniform[B Backend](shape Shape, lo, hi float32, rng *rand.Rand, b B) *Tensor[float32, B] {
	t := Zeros[float32](shape, b)
	data := t.Data()
	span := float64(hi - lo)
	for i := range data {
		data[i] = lo + float32(rng.Float64()*span)
	}
	return t
}

// Randn creates a float32 tensor with values from the standard normal distribution.
func Randn[B Backend](shape Shape, rng *rand.Rand, b B) *Tensor[float32, B] {
	t := Zeros[float32](shape, b)
	data := t.Data()
	for i := range data {
		data[i] = float32(rng.NormFloat64())
	}
	return t
}
