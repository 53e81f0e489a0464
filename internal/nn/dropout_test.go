package nn

import (
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/stretchr/testify/assert"
)

func TestDropout_EvalIsIdentity(t *testing.T) {
	d := NewDropout[cpuB](0.5, 1)
	x := ones(4, 8)
	assert.False(t, d.Training())
	assert.Equal(t, x.Data(), d.Forward(x).Data())

	var nilDropout *Dropout[cpuB]
	assert.Same(t, x, nilDropout.Forward(x))
	assert.Equal(t, float32(0), nilDropout.P())
}

func TestDropout_Training(t *testing.T) {
	d := NewDropout[cpuB](0.25, 7)
	d.SetTraining(true)
	x := ones(100, 100)

	out := d.Forward(x)
	zeros := 0
	for _, v := range out.Data() {
		if v == 0 {
			zeros++
			continue
		}
		assert.InDelta(t, 1/0.75, v, 1e-6)
	}
	frac := float64(zeros) / float64(x.NumElements())
	assert.InDelta(t, 0.25, frac, 0.03)
	assert.Equal(t, float32(1), x.Data()[0], "input must not change")

	// Each call draws a fresh mask.
	assert.NotEqual(t, out.Data(), d.Forward(x).Data())
}

func TestDropout_Edges(t *testing.T) {
	x := ones(3, 3)

	zero := NewDropout[cpuB](0, 1)
	zero.SetTraining(true)
	assert.Equal(t, x.Data(), zero.Forward(x).Data())

	all := NewDropout[cpuB](1, 1)
	all.SetTraining(true)
	assert.Equal(t, make([]float32, 9), all.Forward(x).Data())

	err := exceptions.TryCatch[error](func() { NewDropout[cpuB](1.5, 1) })
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
