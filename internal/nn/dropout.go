package nn

import (
	"math/rand"
	"sync"

	"github.com/pkg/errors"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// Dropout randomly zeroes elements with probability p while training and scales
// the survivors by 1/(1-p) (inverted dropout). Outside training it is the
// identity.
//
// The mask is applied as a multiplication, so gradients flow through the
// kept elements only.
//
// A nil *Dropout is valid and behaves as the identity.
//
// Dropout starts in evaluation mode. SetTraining must not race with Forward.
type Dropout[B tensor.Backend] struct {
	p        float32
	training bool

	mu  sync.Mutex // guards rng
	rng *rand.Rand
}

// NewDropout creates a Dropout with drop probability p in [0, 1].
func NewDropout[B tensor.Backend](p float32, seed int64) *Dropout[B] {
	if p < 0 || p > 1 {
		panic(errors.Wrapf(ErrInvalidConfig, "Dropout: probability must be in [0, 1], got %g", p))
	}
	return &Dropout[B]{
		p:   p,
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // Not security-critical
	}
}

// P returns the drop probability.
func (d *Dropout[B]) P() float32 {
	if d == nil {
		return 0
	}
	return d.p
}

// SetTraining switches between training (stochastic) and evaluation (identity) mode.
func (d *Dropout[B]) SetTraining(training bool) {
	if d != nil {
		d.training = training
	}
}

// Training reports whether dropout is active.
func (d *Dropout[B]) Training() bool {
	return d != nil && d.training
}

// Forward applies dropout. In evaluation mode x itself is returned.
func (d *Dropout[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	if d == nil || !d.training || d.p == 0 {
		return x
	}

	mask := tensor.Zeros[float32](x.Shape(), x.Backend())
	if d.p < 1 {
		scale := 1 / (1 - d.p)
		data := mask.Data()

		d.mu.Lock()
		for i := range data {
			if d.rng.Float32() >= d.p {
				data[i] = scale
			}
		}
		d.mu.Unlock()
	}
	return x.Mul(mask)
}

// Parameters returns nil: dropout has no trainable state.
func (d *Dropout[B]) Parameters() []*Parameter[B] {
	return nil
}
