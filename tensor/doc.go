// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the public API for the typed tensors used by the
// seq2seq model.
//
// The package exposes:
//   - Tensor[T, B]: generic row-major tensor computed on backend B
//   - RawTensor: untyped storage, the key of gradient maps
//   - Backend: interface implemented by backend/cpu and wrapped by autodiff
//   - Shape, DataType, Device: core type definitions
//
// Every operation returns a new tensor and leaves its operands untouched.
//
// # Basic Usage
//
//	backend := cpu.New()
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend)
//	y := x.Add(tensor.Ones[float32](tensor.Shape{3}, backend)) // broadcast over rows
//	p := y.Softmax(-1)
//
// Token ids for the model are int32 tensors built from rows:
//
//	ids, err := tensor.FromRows([][]int32{{5, 9, 2, 0}}, backend)
//
// # Errors
//
// Constructors return errors. Operations on tensors of incompatible shapes
// panic with an error wrapping ErrShapeMismatch; nn.Transformer converts such
// panics into returned errors.
package tensor
