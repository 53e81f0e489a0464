package nn

import (
	"github.com/born-ml/seq2seq/internal/tensor"
)

// ResidualConnection wraps a sublayer with pre-normalization, dropout and a skip
// connection:
//
//	x + Dropout(sublayer(Norm(x)))
//
// Normalization happens before the sublayer (pre-norm). Every wrap owns its own
// LayerNorm and Dropout; instances are never shared between sublayers.
type ResidualConnection[B tensor.Backend] struct {
	Norm    *LayerNorm[B]
	Dropout *Dropout[B]
}

// NewResidualConnection creates a wrap for d_model-wide activations. dropout may be nil.
func NewResidualConnection[B tensor.Backend](dModel int, eps float32, dropout *Dropout[B], backend B) *ResidualConnection[B] {
	r := &ResidualConnection[B]{
		Norm:    NewLayerNorm(dModel, eps, backend),
		Dropout: dropout,
	}
	qualify("norm", r.Norm.Parameters())
	return r
}

// Forward returns x + dropout(sublayer(norm(x))).
func (r *ResidualConnection[B]) Forward(x *tensor.Tensor[float32, B], sublayer Sublayer[B]) *tensor.Tensor[float32, B] {
	return x.Add(r.Dropout.Forward(sublayer(r.Norm.Forward(x))))
}

// Parameters returns the normalization parameters.
func (r *ResidualConnection[B]) Parameters() []*Parameter[B] {
	return r.Norm.Parameters()
}
