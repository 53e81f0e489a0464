// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go CPU backend for tensor operations.
//
// Matrix products fan out over goroutines according to a ParallelConfig;
// results are identical for every configuration.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/seq2seq/backend/cpu"
//	    "github.com/born-ml/seq2seq/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    backend.SetParallelConfig(cpu.Sequential())
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	}
package cpu

import (
	internalcpu "github.com/born-ml/seq2seq/internal/backend/cpu"
	"github.com/born-ml/seq2seq/internal/parallel"
	"github.com/born-ml/seq2seq/tensor"
)

// Backend represents the CPU backend implementation.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// ParallelConfig controls how matrix kernels split work across goroutines.
type ParallelConfig = parallel.Config

// New creates a new CPU backend using every available CPU.
func New() *Backend {
	return internalcpu.New()
}

// DefaultParallelConfig returns a config using every available CPU.
func DefaultParallelConfig() ParallelConfig {
	return parallel.DefaultConfig()
}

// Sequential returns a config that never spawns goroutines.
func Sequential() ParallelConfig {
	return parallel.Sequential()
}
