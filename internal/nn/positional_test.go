package nn

import (
	"math"
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/seq2seq/internal/tensor"
)

func TestPositionalEncoding_ClosedForm(t *testing.T) {
	for _, dModel := range []int{4, 16, 7} {
		pe := NewPositionalEncoding[cpuB](dModel, 50, nil, testCPU)
		table := pe.Table()
		require.Equal(t, tensor.Shape{50, dModel}, table.Shape())

		for _, pos := range []int{0, 1, 7, 49} {
			for i := 0; 2*i < dModel; i++ {
				freq := math.Exp(-float64(2*i) * math.Log(10000) / float64(dModel))
				assert.InDeltaf(t, math.Sin(float64(pos)*freq), table.At(pos, 2*i), 1e-6,
					"sin at pos=%d i=%d d=%d", pos, i, dModel)
				if 2*i+1 < dModel {
					assert.InDeltaf(t, math.Cos(float64(pos)*freq), table.At(pos, 2*i+1), 1e-6,
						"cos at pos=%d i=%d d=%d", pos, i, dModel)
				}
			}
		}
	}
}

func TestPositionalEncoding_Forward(t *testing.T) {
	pe := NewPositionalEncoding(4, 10, NewDropout[cpuB](0.5, 1), testCPU)
	x := ones(2, 3, 4)

	// Dropout is inactive until training is enabled.
	out := pe.Forward(x)
	table := pe.Table()
	for b := 0; b < 2; b++ {
		for s := 0; s < 3; s++ {
			for d := 0; d < 4; d++ {
				assert.InDelta(t, 1+table.At(s, d), out.At(b, s, d), 1e-6)
			}
		}
	}
	assert.Empty(t, pe.Parameters(), "the table is not trainable")
	assert.Equal(t, float32(1), x.Data()[0], "input must not change")
}

func TestPositionalEncoding_SequenceTooLong(t *testing.T) {
	pe := NewPositionalEncoding[cpuB](4, 3, nil, testCPU)
	zeros := func(dims ...int) *tensor.Tensor[float32, cpuB] {
		return tensor.Zeros[float32](tensor.Shape(dims), testCPU)
	}
	assert.NotPanics(t, func() { pe.Forward(zeros(1, 3, 4)) })

	err := exceptions.TryCatch[error](func() { pe.Forward(zeros(1, 4, 4)) })
	assert.ErrorIs(t, err, ErrSequenceTooLong)

	err = exceptions.TryCatch[error](func() { pe.Forward(zeros(1, 2, 5)) })
	assert.ErrorIs(t, err, ErrInputShape)
}
