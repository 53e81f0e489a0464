package nn

import (
	"math/rand"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// FeedForward is the position-wise two-layer MLP of a transformer layer.
//
//	FFN(x) = Linear2(Dropout(ReLU(Linear1(x))))
//
// Linear1 expands d_model to d_ff, Linear2 projects back.
type FeedForward[B tensor.Backend] struct {
	Linear1 *Linear[B] // [d_model → d_ff]
	Linear2 *Linear[B] // [d_ff → d_model]
	Dropout *Dropout[B]
}

// NewFeedForward creates the block. dropout may be nil.
func NewFeedForward[B tensor.Backend](dModel, dFF int, dropout *Dropout[B], rng *rand.Rand, backend B) *FeedForward[B] {
	f := &FeedForward[B]{
		Linear1: NewLinear(dModel, dFF, rng, backend),
		Linear2: NewLinear(dFF, dModel, rng, backend),
		Dropout: dropout,
	}
	qualify("linear1", f.Linear1.Parameters())
	qualify("linear2", f.Linear2.Parameters())
	return f
}

// Forward maps [..., d_model] to [..., d_model].
func (f *FeedForward[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return f.Linear2.Forward(f.Dropout.Forward(f.Linear1.Forward(x).ReLU()))
}

// Parameters returns Linear1 then Linear2 parameters.
func (f *FeedForward[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 4)
	params = append(params, f.Linear1.Parameters()...)
	params = append(params, f.Linear2.Parameters()...)
	return params
}
