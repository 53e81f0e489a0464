package nn

import (
	"math"
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/seq2seq/internal/tensor"
)

func TestLinear_Forward(t *testing.T) {
	layer := NewLinear(3, 2, newRNG(), testCPU)
	copy(layer.Weight().Tensor().Data(), []float32{
		1, 0, -1,
		2, 1, 0,
	})
	copy(layer.Bias().Tensor().Data(), []float32{0.5, -0.5})

	x := fromSlice([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
	y := layer.Forward(x)
	assert.Equal(t, tensor.Shape{2, 2}, y.Shape())
	assert.InDeltaSlice(t, []float32{-1.5, 3.5, -1.5, 12.5}, y.Data(), 1e-6)
}

func TestLinear_LeadingDims(t *testing.T) {
	rng := newRNG()
	layer := NewLinear(4, 6, rng, testCPU)
	x := randn(rng, 2, 3, 4)

	y := layer.Forward(x)
	require.Equal(t, tensor.Shape{2, 3, 6}, y.Shape())

	flat := layer.Forward(x.Reshape(6, 4))
	assert.Equal(t, flat.Data(), y.Data())

	err := exceptions.TryCatch[error](func() { layer.Forward(tensor.Zeros[float32](tensor.Shape{2, 5}, testCPU)) })
	assert.ErrorIs(t, err, ErrInputShape)
}

func TestLinear_Parameters(t *testing.T) {
	layer := NewLinear(8, 4, newRNG(), testCPU)
	params := layer.Parameters()
	require.Len(t, params, 2)
	assert.Equal(t, "weight", params[0].Name())
	assert.Equal(t, tensor.Shape{4, 8}, params[0].Tensor().Shape())
	assert.Equal(t, "bias", params[1].Name())
	assert.Equal(t, make([]float32, 4), params[1].Tensor().Data())
	assert.Nil(t, params[0].Grad())
	assert.Equal(t, 8, layer.InFeatures())
	assert.Equal(t, 4, layer.OutFeatures())
}

func TestXavierUniform_Bounds(t *testing.T) {
	w := tensor.Zeros[float32](tensor.Shape{30, 50}, testCPU)
	XavierUniform(w, newRNG())

	bound := float32(math.Sqrt(6.0 / 80.0))
	var sum float64
	for _, v := range w.Data() {
		assert.LessOrEqual(t, v, bound)
		assert.GreaterOrEqual(t, v, -bound)
		sum += float64(v)
	}
	assert.InDelta(t, 0, sum/float64(w.NumElements()), 0.02)

	err := exceptions.TryCatch[error](func() {
		XavierUniform(tensor.Zeros[float32](tensor.Shape{5}, testCPU), newRNG())
	})
	assert.Error(t, err)
}

func TestInitXavier_SkipsVectors(t *testing.T) {
	weight := NewParameter("w", tensor.Zeros[float32](tensor.Shape{4, 4}, testCPU))
	bias := NewParameter("b", tensor.Full[float32](tensor.Shape{4}, 3, testCPU))
	InitXavier([]*Parameter[cpuB]{weight, bias}, newRNG())

	assert.NotEqual(t, make([]float32, 16), weight.Tensor().Data())
	assert.Equal(t, []float32{3, 3, 3, 3}, bias.Tensor().Data())
}
