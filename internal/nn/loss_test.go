package nn

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/seq2seq/internal/tensor"
)

func TestNLLLoss(t *testing.T) {
	logits := fromSlice([]float32{
		2, 1, 0,
		0, 3, 1,
	}, 1, 2, 3)
	logProbs := logits.LogSoftmax(-1)

	loss, err := NLLLoss(logProbs, idRows([]int32{0, 1}), -1)
	require.NoError(t, err)
	assert.Equal(t, 0, loss.Rank())
	want := -(logProbs.At(0, 0, 0) + logProbs.At(0, 1, 1)) / 2
	assert.InDelta(t, want, loss.Item(), 1e-6)

	// Ignored positions drop out of the mean.
	loss, err = NLLLoss(logProbs, idRows([]int32{0, 2}), 2)
	require.NoError(t, err)
	assert.InDelta(t, -logProbs.At(0, 0, 0), loss.Item(), 1e-6)

	loss, err = NLLLoss(logProbs, idRows([]int32{2, 2}), 2)
	require.NoError(t, err)
	assert.Equal(t, float32(0), loss.Item())
}

func TestNLLLoss_Uniform(t *testing.T) {
	logProbs := tensor.Zeros[float32](tensor.Shape{2, 3, 8}, testCPU).LogSoftmax(-1)
	loss, err := NLLLoss(logProbs, idRows([]int32{1, 2, 3}, []int32{4, 5, 6}), 0)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(8), loss.Item(), 1e-5)
}

func TestNLLLoss_Errors(t *testing.T) {
	logProbs := tensor.Zeros[float32](tensor.Shape{1, 2, 3}, testCPU)

	_, err := NLLLoss(logProbs, idRows([]int32{0, 1, 2}), -1)
	assert.ErrorIs(t, err, ErrInputShape)

	_, err = NLLLoss(logProbs, idRows([]int32{0, 3}), -1)
	assert.ErrorIs(t, err, ErrTokenOutOfRange)
}
