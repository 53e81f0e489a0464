package nn

import (
	"sync"
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/seq2seq/internal/tensor"
)

func TestScaledDotProductAttention_KnownValues(t *testing.T) {
	q := fromSlice([]float32{1, 0}, 1, 1, 1, 2)
	k := fromSlice([]float32{1, 0, 0, 1}, 1, 1, 2, 2)
	v := fromSlice([]float32{1, 2, 3, 4}, 1, 1, 2, 2)

	// scores = [1/sqrt(2), 0] -> softmax ≈ [0.6698, 0.3302]
	out, weights := ScaledDotProductAttention(q, k, v, nil, nil)
	assert.InDeltaSlice(t, []float32{0.6698, 0.3302}, weights.Data(), 1e-3)
	assert.InDeltaSlice(t, []float32{1.6604, 2.6604}, out.Data(), 1e-3)

	// Masking the first key leaves all weight on the second.
	mask := fromSlice([]float32{0, 1}, 1, 2)
	out, weights = ScaledDotProductAttention(q, k, v, mask, nil)
	assert.InDeltaSlice(t, []float32{0, 1}, weights.Data(), 1e-6)
	assert.InDeltaSlice(t, []float32{3, 4}, out.Data(), 1e-6)
}

func TestScaledDotProductAttention_RowsSumToOne(t *testing.T) {
	rng := newRNG()
	batch, heads, seqQ, seqK, dK := 2, 3, 5, 7, 4
	q := randn(rng, batch, heads, seqQ, dK)
	k := randn(rng, batch, heads, seqK, dK)
	v := randn(rng, batch, heads, seqK, dK)

	// Batch 0 hides the last two keys, batch 1 hides the first one.
	pad := fromSlice([]float32{
		1, 1, 1, 1, 1, 0, 0,
		0, 1, 1, 1, 1, 1, 1,
	}, batch, 1, 1, seqK)

	out, weights := ScaledDotProductAttention(q, k, v, pad, nil)
	require.Equal(t, tensor.Shape{batch, heads, seqQ, dK}, out.Shape())
	require.Equal(t, tensor.Shape{batch, heads, seqQ, seqK}, weights.Shape())

	for b := 0; b < batch; b++ {
		for h := 0; h < heads; h++ {
			for i := 0; i < seqQ; i++ {
				var sum float32
				for j := 0; j < seqK; j++ {
					w := weights.At(b, h, i, j)
					sum += w
					if pad.At(b, 0, 0, j) == 0 {
						assert.InDeltaf(t, 0, w, 1e-7, "masked weight [%d,%d,%d,%d]", b, h, i, j)
					}
				}
				assert.InDelta(t, 1, sum, 1e-5)
			}
		}
	}
}

func TestScaledDotProductAttention_BadMask(t *testing.T) {
	rng := newRNG()
	q := randn(rng, 2, 2, 3, 4)
	tests := []struct {
		name  string
		shape []int
	}{
		{"wrong key length", []int{2, 1, 1, 5}},
		{"wrong batch", []int{3, 1, 1, 3}},
		{"rank 3 leading axis is heads", []int{2, 1, 3}},
		{"rank 1", []int{3}},
		{"rank 5", []int{1, 2, 1, 3, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := exceptions.TryCatch[error](func() {
				ScaledDotProductAttention(q, q, q, ones(tt.shape...), nil)
			})
			assert.ErrorIs(t, err, ErrMaskShape)
		})
	}
}

// A [batch, 1, seq_k] mask must not be read as per-batch: rank-3 masks align
// with [heads, seq_q, seq_k].
func TestScaledDotProductAttention_Rank3MaskIsRightAligned(t *testing.T) {
	rng := newRNG()
	q := randn(rng, 3, 2, 4, 4) // scores [3, 2, 4, 4]

	err := exceptions.TryCatch[error](func() {
		ScaledDotProductAttention(q, q, q, ones(3, 1, 4), nil)
	})
	assert.ErrorIs(t, err, ErrMaskShape)

	// A per-head mask of matching width is accepted.
	err = exceptions.TryCatch[error](func() {
		ScaledDotProductAttention(q, q, q, ones(2, 1, 4), nil)
	})
	assert.NoError(t, err)
}

func TestExpandMask(t *testing.T) {
	assert.Equal(t, tensor.Shape{1, 1, 4, 5}, ExpandMask(ones(4, 5)).Shape())
	assert.Equal(t, tensor.Shape{1, 2, 1, 5}, ExpandMask(ones(2, 1, 5)).Shape())
	assert.Equal(t, tensor.Shape{2, 1, 4, 5}, ExpandMask(ones(2, 1, 4, 5)).Shape())
}

func TestMultiHeadAttention_OutputShape(t *testing.T) {
	tests := []struct {
		dModel, heads int
	}{
		{16, 1},
		{16, 4},
		{16, 16},
		{12, 3},
	}
	for _, tt := range tests {
		rng := newRNG()
		mha := NewMultiHeadAttention[cpuB](tt.dModel, tt.heads, nil, rng, testCPU)
		assert.Equal(t, tt.dModel/tt.heads, mha.DK)

		query := randn(rng, 2, 5, tt.dModel)
		memory := randn(rng, 2, 9, tt.dModel)

		out, weights := mha.Forward(query, query, query, nil)
		assert.Equal(t, query.Shape(), out.Shape())
		assert.Equal(t, tensor.Shape{2, tt.heads, 5, 5}, weights.Shape())

		out, weights = mha.Forward(query, memory, memory, nil)
		assert.Equal(t, query.Shape(), out.Shape(), "cross-attention follows the query length")
		assert.Equal(t, tensor.Shape{2, tt.heads, 5, 9}, weights.Shape())
	}
}

func TestMultiHeadAttention_ConstructionErrors(t *testing.T) {
	err := exceptions.TryCatch[error](func() { NewMultiHeadAttention[cpuB](10, 3, nil, newRNG(), testCPU) })
	assert.ErrorIs(t, err, ErrHeadsNotDivisible)

	err = exceptions.TryCatch[error](func() { NewMultiHeadAttention[cpuB](0, 2, nil, newRNG(), testCPU) })
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestMultiHeadAttention_InputShapeErrors(t *testing.T) {
	rng := newRNG()
	mha := NewMultiHeadAttention[cpuB](8, 2, nil, rng, testCPU)
	good := randn(rng, 1, 3, 8)

	err := exceptions.TryCatch[error](func() {
		mha.Forward(randn(rng, 1, 3, 6), good, good, nil)
	})
	assert.ErrorIs(t, err, ErrInputShape)

	err = exceptions.TryCatch[error](func() {
		mha.Forward(good, good, randn(rng, 1, 4, 8), nil)
	})
	assert.ErrorIs(t, err, ErrInputShape)
}

func TestMultiHeadAttention_ConcurrentForward(t *testing.T) {
	rng := newRNG()
	mha := NewMultiHeadAttention(16, 4, NewDropout[cpuB](0.5, 1), rng, testCPU)
	x := randn(rng, 2, 6, 16)
	want, _ := mha.Forward(x, x, x, nil)

	var wg sync.WaitGroup
	results := make([]*tensor.Tensor[float32, cpuB], 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], _ = mha.Forward(x, x, x, nil)
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want.Data(), got.Data())
	}
}
