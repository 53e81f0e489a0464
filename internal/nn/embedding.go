package nn

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// InputEmbedding maps token ids to dense vectors scaled by sqrt(d_model).
//
// Architecture:
//   - Weight: [VocabSize, DModel] learnable parameter
//   - Forward: ids [batch, seq] -> Weight[ids] * sqrt(DModel) [batch, seq, DModel]
//
// Example:
//
//	embed := nn.NewInputEmbedding(32000, 512, rng, backend)
//	ids, _ := tensor.FromRows([][]int32{{4, 17, 9}}, backend)
//	x := embed.Forward(ids) // [1, 3, 512]
type InputEmbedding[B tensor.Backend] struct {
	Weight    *Parameter[B] // [VocabSize, DModel]
	VocabSize int
	DModel    int
	scale     float32
}

// NewInputEmbedding creates an embedding table initialized from N(0, 1).
func NewInputEmbedding[B tensor.Backend](vocabSize, dModel int, rng *rand.Rand, backend B) *InputEmbedding[B] {
	if vocabSize <= 0 || dModel <= 0 {
		panic(errors.Wrapf(ErrInvalidConfig, "InputEmbedding: sizes must be positive, got vocab=%d d_model=%d",
			vocabSize, dModel))
	}
	return &InputEmbedding[B]{
		Weight:    NewParameter("embedding.weight", tensor.Randn(tensor.Shape{vocabSize, dModel}, rng, backend)),
		VocabSize: vocabSize,
		DModel:    dModel,
		scale:     float32(math.Sqrt(float64(dModel))),
	}
}

// Forward looks up ids and scales the vectors.
//
// Panics with ErrTokenOutOfRange if any id lies outside [0, VocabSize).
func (e *InputEmbedding[B]) Forward(ids *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	for i, id := range ids.Data() {
		if id < 0 || int(id) >= e.VocabSize {
			panic(errors.Wrapf(ErrTokenOutOfRange, "InputEmbedding.Forward: id %d at position %d, vocabulary size %d",
				id, i, e.VocabSize))
		}
	}
	return e.Weight.Tensor().Embedding(ids).MulScalar(e.scale)
}

// Parameters returns the embedding table.
func (e *InputEmbedding[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{e.Weight}
}
