package nn

import (
	"math"

	"github.com/pkg/errors"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// PositionalEncoding adds fixed sinusoidal position signals to embeddings and
// applies dropout.
//
// Mathematical formulation:
//
//	PE(pos, 2i)   = sin(pos * exp(-2i * ln(10000) / d))
//	PE(pos, 2i+1) = cos(pos * exp(-2i * ln(10000) / d))
//
// The table is computed once at construction and is not a Parameter: it is
// never returned by Parameters, and Forward adds a fresh copy of the needed
// rows, so a backward pass never produces a gradient for it.
//
// Example:
//
//	pe := nn.NewPositionalEncoding(512, 350, nn.NewDropout[B](0.1, seed), backend)
//	x = pe.Forward(x) // [batch, seq<=350, 512]
type PositionalEncoding[B tensor.Backend] struct {
	table   *tensor.Tensor[float32, B] // [MaxLen, DModel]
	MaxLen  int
	DModel  int
	Dropout *Dropout[B]
}

// NewPositionalEncoding precomputes the table for positions [0, maxLen).
// dropout may be nil.
func NewPositionalEncoding[B tensor.Backend](dModel, maxLen int, dropout *Dropout[B], backend B) *PositionalEncoding[B] {
	if maxLen <= 0 || dModel <= 0 {
		panic(errors.Wrapf(ErrInvalidConfig, "PositionalEncoding: sizes must be positive, got d_model=%d max_len=%d",
			dModel, maxLen))
	}

	table := tensor.Zeros[float32](tensor.Shape{maxLen, dModel}, backend)
	data := table.Data()
	logBase := math.Log(10000.0)
	for pos := 0; pos < maxLen; pos++ {
		for j := 0; j < dModel; j++ {
			even := j - j%2
			angle := float64(pos) * math.Exp(-float64(even)*logBase/float64(dModel))
			if j%2 == 0 {
				data[pos*dModel+j] = float32(math.Sin(angle))
			} else {
				data[pos*dModel+j] = float32(math.Cos(angle))
			}
		}
	}

	return &PositionalEncoding[B]{
		table:   table,
		MaxLen:  maxLen,
		DModel:  dModel,
		Dropout: dropout,
	}
}

// Table returns the precomputed [MaxLen, DModel] table. Callers must not modify it.
func (p *PositionalEncoding[B]) Table() *tensor.Tensor[float32, B] {
	return p.table
}

// Forward returns dropout(x + PE[0:seq]) for x of shape [batch, seq, DModel].
//
// Panics with ErrSequenceTooLong when seq exceeds MaxLen.
func (p *PositionalEncoding[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	shape := x.Shape()
	if len(shape) != 3 || shape[2] != p.DModel {
		panic(errors.Wrapf(ErrInputShape, "PositionalEncoding.Forward: expected [batch, seq, %d], got %v",
			p.DModel, shape))
	}
	seqLen := shape[1]
	if seqLen > p.MaxLen {
		panic(errors.Wrapf(ErrSequenceTooLong, "PositionalEncoding.Forward: length %d exceeds maximum %d",
			seqLen, p.MaxLen))
	}
	rows, err := tensor.FromSlice(p.table.Data()[:seqLen*p.DModel], tensor.Shape{seqLen, p.DModel}, x.Backend())
	if err != nil {
		panic(err)
	}
	return p.Dropout.Forward(x.Add(rows))
}

// Parameters returns nil: the table is a constant.
func (p *PositionalEncoding[B]) Parameters() []*Parameter[B] {
	return nil
}
