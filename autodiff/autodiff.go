// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation.
//
// It wraps any backend: every operation run through the wrapper while its tape
// is recording can later be differentiated.
//
// Example:
//
//	import (
//	    "github.com/born-ml/seq2seq/autodiff"
//	    "github.com/born-ml/seq2seq/backend/cpu"
//	    "github.com/born-ml/seq2seq/nn"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//	    model, _ := nn.Build(cfg, backend)
//
//	    backend.Tape().StartRecording()
//	    // ... Encode, Decode, Project, NLLLoss ...
//	    grads := autodiff.Backward(loss, backend)
//	    nn.CollectGradients(model.Parameters(), grads, backend)
//	}
package autodiff

import (
	"github.com/born-ml/seq2seq/internal/autodiff"
	"github.com/born-ml/seq2seq/internal/tensor"
)

// Backend is the autodiff-enabled backend.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// New creates a new autodiff backend wrapping the given backend.
func New[B tensor.Backend](backend B) *Backend[B] {
	return autodiff.New(backend)
}

// GradientTape records operations for automatic differentiation.
type GradientTape = autodiff.GradientTape

// BackwardCapable is implemented by backends that support backpropagation.
type BackwardCapable = autodiff.BackwardCapable

// Backward computes the gradient of t with respect to every tensor it was
// computed from, keyed by RawTensor.
func Backward[T tensor.DType, B BackwardCapable](t *tensor.Tensor[T, B], backend B) map[*tensor.RawTensor]*tensor.RawTensor {
	return autodiff.Backward(t, backend)
}
