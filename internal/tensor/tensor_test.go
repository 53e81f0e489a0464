package tensor_test

import (
	"math/rand"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/seq2seq/internal/backend/cpu"
	"github.com/born-ml/seq2seq/internal/tensor"
)

func TestFromSlice(t *testing.T) {
	backend := cpu.New()
	src := []float32{1, 2, 3, 4, 5, 6}
	x, err := tensor.FromSlice(src, tensor.Shape{2, 3}, backend)
	require.NoError(t, err)
	src[0] = 100
	assert.Equal(t, float32(1), x.At(0, 0), "FromSlice must copy")
	assert.Equal(t, float32(6), x.At(1, 2))
	assert.Equal(t, tensor.Float32, x.DType())

	_, err = tensor.FromSlice(src, tensor.Shape{4, 2}, backend)
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))

	_, err = tensor.FromSlice([]float32{}, tensor.Shape{0, 3}, backend)
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch), "zero-size dimensions are rejected")
}

func TestFromRows(t *testing.T) {
	backend := cpu.New()
	ids := must.M1(tensor.FromRows([][]int32{{1, 5, 9}, {1, 7, 0}}, backend))
	assert.Equal(t, tensor.Shape{2, 3}, ids.Shape())
	assert.Equal(t, tensor.Int32, ids.DType())
	assert.Equal(t, int32(7), ids.At(1, 1))

	_, err := tensor.FromRows([][]int32{{1, 2}, {3}}, backend)
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))
	_, err = tensor.FromRows([][]int32{}, backend)
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))
}

func TestBroadcastShapes(t *testing.T) {
	tests := []struct {
		name    string
		a, b    tensor.Shape
		want    tensor.Shape
		wantErr bool
	}{
		{"same", tensor.Shape{3, 5}, tensor.Shape{3, 5}, tensor.Shape{3, 5}, false},
		{"column", tensor.Shape{3, 1}, tensor.Shape{3, 5}, tensor.Shape{3, 5}, false},
		{"missing leading", tensor.Shape{5}, tensor.Shape{2, 3, 5}, tensor.Shape{2, 3, 5}, false},
		{"mask", tensor.Shape{2, 1, 1, 7}, tensor.Shape{2, 4, 7, 7}, tensor.Shape{2, 4, 7, 7}, false},
		{"incompatible", tensor.Shape{3, 4}, tensor.Shape{3, 5}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, err := tensor.BroadcastShapes(tt.a, tt.b)
			if tt.wantErr {
				assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.True(t, tensor.Shape{1, 4, 4}.BroadcastsTo(tensor.Shape{3, 2, 4, 4}))
	assert.False(t, tensor.Shape{3, 1, 4}.BroadcastsTo(tensor.Shape{3, 2, 4, 4}))
}

func TestInferShape(t *testing.T) {
	s, err := tensor.InferShape([]int{2, -1, 4}, 24)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3, 4}, s)

	_, err = tensor.InferShape([]int{-1, -1}, 4)
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))
	_, err = tensor.InferShape([]int{5, -1}, 24)
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))
	_, err = tensor.InferShape([]int{5, 5}, 24)
	assert.True(t, errors.Is(err, tensor.ErrShapeMismatch))
}

func TestTensorOps(t *testing.T) {
	backend := cpu.New()
	x := must.M1(tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend))
	b := must.M1(tensor.FromSlice([]float32{10, 20, 30}, tensor.Shape{3}, backend))

	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, x.Add(b).Data())
	assert.Equal(t, []float32{2, 4, 6, 8, 10, 12}, x.MulScalar(2).Data())
	assert.Equal(t, tensor.Shape{3, 2}, x.Transpose().Shape())
	assert.Equal(t, tensor.Shape{3, 2}, x.Reshape(-1, 2).Shape())
	assert.Equal(t, tensor.Shape{2, 1, 3}, x.Unsqueeze(1).Shape())
	assert.Equal(t, tensor.Shape{2, 3, 1}, x.Unsqueeze(-1).Shape())
	assert.Equal(t, tensor.Shape{2, 2}, x.MatMul(x.Transpose()).Shape())
	assert.Equal(t, []float32{2, 5}, x.MeanDim(-1, false).Data())
	assert.Equal(t, 3, x.Dim(-1))
	assert.Equal(t, 2, x.Rank())

	assert.Panics(t, func() { x.Unsqueeze(4) })
	assert.Panics(t, func() { x.At(2, 0) })
}

func TestWhere(t *testing.T) {
	backend := cpu.New()
	mask := must.M1(tensor.FromSlice([]float32{1, 0, 1}, tensor.Shape{3}, backend))
	x := must.M1(tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, backend))
	fill := tensor.Full[float32](tensor.Shape{1}, -1, backend)
	out := tensor.Where(mask, x, fill)
	assert.Equal(t, []float32{1, -1, 3, 4, -1, 6}, out.Data())
}

func TestRandomCreation_Reproducible(t *testing.T) {
	backend := cpu.New()
	a := tensor.Randn(tensor.Shape{4, 4}, rand.New(rand.NewSource(5)), backend)
	b := tensor.Randn(tensor.Shape{4, 4}, rand.New(rand.NewSource(5)), backend)
	assert.Equal(t, a.Data(), b.Data())

	u := tensor.RandUniform(tensor.Shape{100}, -0.5, 0.5, rand.New(rand.NewSource(6)), backend)
	for _, v := range u.Data() {
		assert.GreaterOrEqual(t, v, float32(-0.5))
		assert.Less(t, v, float32(0.5))
	}
}

func TestClone_IsDeep(t *testing.T) {
	backend := cpu.New()
	x := tensor.Ones[float32](tensor.Shape{2, 2}, backend)
	y := x.Clone()
	y.Set(5, 0, 0)
	assert.Equal(t, float32(1), x.At(0, 0))
	assert.NotSame(t, x.Raw(), y.Raw())
}
