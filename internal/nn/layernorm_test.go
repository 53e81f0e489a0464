package nn

import (
	"math"
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/stretchr/testify/assert"

	"github.com/born-ml/seq2seq/internal/tensor"
)

func TestLayerNorm_ZeroMeanUnitStd(t *testing.T) {
	rng := newRNG()
	norm := NewLayerNorm(32, DefaultNormEps, testCPU)
	x := randn(rng, 3, 5, 32).MulScalar(7).AddScalar(3)

	out := norm.Forward(x)
	assert.Equal(t, x.Shape(), out.Shape())
	for _, m := range out.MeanDim(-1, false).Data() {
		assert.InDelta(t, 0, m, 1e-5)
	}
	centered := out.Sub(out.MeanDim(-1, true))
	variance := centered.Mul(centered).SumDim(-1, false).MulScalar(1.0 / 31)
	for _, v := range variance.Data() {
		assert.InDelta(t, 1, math.Sqrt(float64(v)), 1e-4)
	}
}

func TestLayerNorm_KnownValues(t *testing.T) {
	norm := NewLayerNorm(3, DefaultNormEps, testCPU)
	x := fromSlice([]float32{1, 2, 3}, 1, 3)

	// mean = 2, unbiased std = 1
	assert.InDeltaSlice(t, []float32{-1, 0, 1}, norm.Forward(x).Data(), 1e-5)

	copy(norm.Alpha.Tensor().Data(), []float32{2, 3, 4})
	copy(norm.Beta.Tensor().Data(), []float32{0.5, 1, 1.5})
	assert.InDeltaSlice(t, []float32{-1.5, 1, 5.5}, norm.Forward(x).Data(), 1e-5)
}

func TestLayerNorm_ConstantInput(t *testing.T) {
	norm := NewLayerNorm(4, DefaultNormEps, testCPU)
	out := norm.Forward(tensor.Full[float32](tensor.Shape{2, 4}, 5, testCPU))
	for _, v := range out.Data() {
		assert.False(t, math.IsNaN(float64(v)))
		assert.Equal(t, float32(0), v)
	}
}

func TestLayerNorm_SingleFeature(t *testing.T) {
	norm := NewLayerNorm(1, DefaultNormEps, testCPU)
	copy(norm.Beta.Tensor().Data(), []float32{0.25})
	out := norm.Forward(fromSlice([]float32{3, -2}, 2, 1))
	assert.Equal(t, []float32{0.25, 0.25}, out.Data())
}

func TestLayerNorm_InvalidEps(t *testing.T) {
	err := exceptions.TryCatch[error](func() { NewLayerNorm(4, 0, testCPU) })
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
