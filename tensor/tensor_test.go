// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/seq2seq/backend/cpu"
	"github.com/born-ml/seq2seq/tensor"
)

// TestPublicAPI exercises the facade end to end.
func TestPublicAPI(t *testing.T) {
	backend := cpu.New()
	x := must.M1(tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend))
	y := x.Add(tensor.Ones[float32](tensor.Shape{3}, backend))
	assert.Equal(t, []float32{2, 3, 4, 5, 6, 7}, y.Data())
	assert.Equal(t, tensor.Float32, y.DType())
	assert.Equal(t, tensor.CPU, y.Device())

	p := y.Softmax(-1)
	for _, s := range p.SumDim(-1, false).Data() {
		assert.InDelta(t, 1, s, 1e-6)
	}

	ids := must.M1(tensor.FromRows([][]int32{{1, 0, 2}, {0, 3, 4}}, backend))
	assert.Equal(t, tensor.Shape{2, 3}, ids.Shape())
	assert.Equal(t, tensor.Int32, ids.DType())

	_, err := tensor.FromRows([][]int32{{1, 2}, {3}}, backend)
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)

	fill := tensor.Full[float32](tensor.Shape{1}, -1, backend)
	assert.Equal(t, []float32{1, -1, 3, -1, 5, 6}, tensor.Where(ids, x, fill).Data())
}

func TestBroadcastShapes(t *testing.T) {
	shape, broadcast, err := tensor.BroadcastShapes(tensor.Shape{2, 1, 4}, tensor.Shape{3, 1})
	require.NoError(t, err)
	assert.True(t, broadcast)
	assert.Equal(t, tensor.Shape{2, 3, 4}, shape)

	_, _, err = tensor.BroadcastShapes(tensor.Shape{2, 3}, tensor.Shape{4})
	assert.ErrorIs(t, err, tensor.ErrShapeMismatch)
}
