package nn

import (
	"math/rand"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// Projection maps decoder output to log-probabilities over the target vocabulary:
//
//	log_softmax(Linear(x))
type Projection[B tensor.Backend] struct {
	Linear *Linear[B] // [d_model → vocab]
}

// NewProjection creates the output layer.
func NewProjection[B tensor.Backend](dModel, vocabSize int, rng *rand.Rand, backend B) *Projection[B] {
	p := &Projection[B]{Linear: NewLinear(dModel, vocabSize, rng, backend)}
	qualify("linear", p.Linear.Parameters())
	return p
}

// Forward maps [..., d_model] to [..., vocab]; exp of each row sums to 1.
func (p *Projection[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return p.Linear.Forward(x).LogSoftmax(-1)
}

// Parameters returns the linear layer's weight and bias.
func (p *Projection[B]) Parameters() []*Parameter[B] {
	return p.Linear.Parameters()
}
