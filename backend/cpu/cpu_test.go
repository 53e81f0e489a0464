// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/born-ml/seq2seq/backend/cpu"
	"github.com/born-ml/seq2seq/tensor"
)

// TestParallelConfig verifies results do not depend on the worker split.
func TestParallelConfig(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(3))
	a := tensor.Randn(tensor.Shape{4, 64, 32}, rng, backend)
	b := tensor.Randn(tensor.Shape{4, 32, 16}, rng, backend)

	want := a.BatchMatMul(b)

	backend.SetParallelConfig(cpu.Sequential())
	assert.Equal(t, cpu.Sequential(), backend.ParallelConfig())
	assert.Equal(t, want.Data(), a.BatchMatMul(b).Data())
}
