package nn

import (
	"fmt"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// LayerAttention holds the attention weights a layer produced during one
// forward pass. Cross is nil for encoder layers.
type LayerAttention[B tensor.Backend] struct {
	Self  *tensor.Tensor[float32, B] // [batch, heads, seq_q, seq_q]
	Cross *tensor.Tensor[float32, B] // [batch, heads, seq_q, seq_src]
}

// EncoderLayer is one self-attention sublayer followed by one feed-forward
// sublayer, each wrapped in its own ResidualConnection.
type EncoderLayer[B tensor.Backend] struct {
	SelfAttention *MultiHeadAttention[B]
	FeedForward   *FeedForward[B]
	Residuals     [2]*ResidualConnection[B]
}

// NewEncoderLayer assembles a layer from its parts.
func NewEncoderLayer[B tensor.Backend](
	selfAttention *MultiHeadAttention[B],
	feedForward *FeedForward[B],
	residuals [2]*ResidualConnection[B],
) *EncoderLayer[B] {
	qualify("self_attn", selfAttention.Parameters())
	qualify("feed_forward", feedForward.Parameters())
	for i, r := range residuals {
		qualify(fmt.Sprintf("residual.%d", i), r.Parameters())
	}
	return &EncoderLayer[B]{
		SelfAttention: selfAttention,
		FeedForward:   feedForward,
		Residuals:     residuals,
	}
}

// Forward maps x [batch, seq, d_model] to the same shape and returns the
// self-attention weights.
func (l *EncoderLayer[B]) Forward(x, mask *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	var weights *tensor.Tensor[float32, B]
	x = l.Residuals[0].Forward(x, func(h *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
		var out *tensor.Tensor[float32, B]
		out, weights = l.SelfAttention.Forward(h, h, h, mask)
		return out
	})
	x = l.Residuals[1].Forward(x, l.FeedForward.Forward)
	return x, weights
}

// Parameters returns attention, feed-forward and residual norm parameters.
func (l *EncoderLayer[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 16)
	params = append(params, l.SelfAttention.Parameters()...)
	params = append(params, l.FeedForward.Parameters()...)
	for _, r := range l.Residuals {
		params = append(params, r.Parameters()...)
	}
	return params
}

// Encoder is a stack of independent EncoderLayers followed by a final LayerNorm.
type Encoder[B tensor.Backend] struct {
	Layers []*EncoderLayer[B]
	Norm   *LayerNorm[B]
}

// NewEncoder stacks layers and adds the final normalization.
func NewEncoder[B tensor.Backend](layers []*EncoderLayer[B], norm *LayerNorm[B]) *Encoder[B] {
	for i, l := range layers {
		qualify(fmt.Sprintf("layers.%d", i), l.Parameters())
	}
	qualify("norm", norm.Parameters())
	return &Encoder[B]{Layers: layers, Norm: norm}
}

// Forward runs x [batch, seq, d_model] through every layer and the final norm.
func (e *Encoder[B]) Forward(x, mask *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out, _ := e.forward(x, mask, false)
	return out
}

// ForwardWithAttention is Forward that also returns each layer's attention weights.
func (e *Encoder[B]) ForwardWithAttention(x, mask *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], []LayerAttention[B]) {
	return e.forward(x, mask, true)
}

func (e *Encoder[B]) forward(x, mask *tensor.Tensor[float32, B], keep bool) (*tensor.Tensor[float32, B], []LayerAttention[B]) {
	var trace []LayerAttention[B]
	if keep {
		trace = make([]LayerAttention[B], 0, len(e.Layers))
	}
	for _, layer := range e.Layers {
		var w *tensor.Tensor[float32, B]
		x, w = layer.Forward(x, mask)
		if keep {
			trace = append(trace, LayerAttention[B]{Self: w})
		}
	}
	return e.Norm.Forward(x), trace
}

// Parameters returns every layer's parameters followed by the final norm.
func (e *Encoder[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, l := range e.Layers {
		params = append(params, l.Parameters()...)
	}
	return append(params, e.Norm.Parameters()...)
}
