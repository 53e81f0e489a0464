package nn

import (
	"math"
	"math/rand"

	"github.com/gomlx/exceptions"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// XavierUniform fills a 2-D tensor in place with values from
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out))).
//
// For a [rows, cols] tensor fan_in is cols and fan_out is rows, which matches the
// [out_features, in_features] layout of Linear weights and the [vocab, d_model]
// layout of embedding tables.
func XavierUniform[B tensor.Backend](t *tensor.Tensor[float32, B], rng *rand.Rand) {
	shape := t.Shape()
	if len(shape) < 2 {
		exceptions.Panicf("XavierUniform: need at least 2 dimensions, got shape %v", shape)
	}
	receptive := 1
	for _, d := range shape[2:] {
		receptive *= d
	}
	fanIn := shape[1] * receptive
	fanOut := shape[0] * receptive
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))

	data := t.Data()
	for i := range data {
		//nolint:gosec // Using math/rand for weight initialization (not security-critical)
		data[i] = float32((rng.Float64()*2.0 - 1.0) * bound)
	}
}

// InitXavier applies XavierUniform to every parameter with more than one
// dimension. Bias vectors and normalization scale/shift keep their values.
func InitXavier[B tensor.Backend](params []*Parameter[B], rng *rand.Rand) {
	for _, p := range params {
		if p.Rank() > 1 {
			XavierUniform(p.Tensor(), rng)
		}
	}
}
