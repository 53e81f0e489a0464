package nn

import (
	"fmt"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// DecoderLayer is masked self-attention, cross-attention over the encoder
// output and a feed-forward block, each wrapped in its own ResidualConnection.
type DecoderLayer[B tensor.Backend] struct {
	SelfAttention  *MultiHeadAttention[B]
	CrossAttention *MultiHeadAttention[B]
	FeedForward    *FeedForward[B]
	Residuals      [3]*ResidualConnection[B]
}

// NewDecoderLayer assembles a layer from its parts.
func NewDecoderLayer[B tensor.Backend](
	selfAttention, crossAttention *MultiHeadAttention[B],
	feedForward *FeedForward[B],
	residuals [3]*ResidualConnection[B],
) *DecoderLayer[B] {
	qualify("self_attn", selfAttention.Parameters())
	qualify("cross_attn", crossAttention.Parameters())
	qualify("feed_forward", feedForward.Parameters())
	for i, r := range residuals {
		qualify(fmt.Sprintf("residual.%d", i), r.Parameters())
	}
	return &DecoderLayer[B]{
		SelfAttention:  selfAttention,
		CrossAttention: crossAttention,
		FeedForward:    feedForward,
		Residuals:      residuals,
	}
}

// Forward maps x [batch, seq_tgt, d_model] to the same shape.
//
// encOut is [batch, seq_src, d_model]. tgtMask should combine padding and causal
// masking (see DecoderMask); srcMask hides source padding from cross-attention.
// Returns the output and the self- and cross-attention weights.
func (l *DecoderLayer[B]) Forward(
	x, encOut, srcMask, tgtMask *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	var selfWeights, crossWeights *tensor.Tensor[float32, B]
	x = l.Residuals[0].Forward(x, func(h *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
		var out *tensor.Tensor[float32, B]
		out, selfWeights = l.SelfAttention.Forward(h, h, h, tgtMask)
		return out
	})
	x = l.Residuals[1].Forward(x, func(h *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
		var out *tensor.Tensor[float32, B]
		out, crossWeights = l.CrossAttention.Forward(h, encOut, encOut, srcMask)
		return out
	})
	x = l.Residuals[2].Forward(x, l.FeedForward.Forward)
	return x, selfWeights, crossWeights
}

// Parameters returns attention, feed-forward and residual norm parameters.
func (l *DecoderLayer[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 26)
	params = append(params, l.SelfAttention.Parameters()...)
	params = append(params, l.CrossAttention.Parameters()...)
	params = append(params, l.FeedForward.Parameters()...)
	for _, r := range l.Residuals {
		params = append(params, r.Parameters()...)
	}
	return params
}

// Decoder is a stack of independent DecoderLayers followed by a final LayerNorm.
type Decoder[B tensor.Backend] struct {
	Layers []*DecoderLayer[B]
	Norm   *LayerNorm[B]
}

// NewDecoder stacks layers and adds the final normalization.
func NewDecoder[B tensor.Backend](layers []*DecoderLayer[B], norm *LayerNorm[B]) *Decoder[B] {
	for i, l := range layers {
		qualify(fmt.Sprintf("layers.%d", i), l.Parameters())
	}
	qualify("norm", norm.Parameters())
	return &Decoder[B]{Layers: layers, Norm: norm}
}

// Forward runs x through every layer and the final norm.
func (d *Decoder[B]) Forward(x, encOut, srcMask, tgtMask *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	out, _ := d.forward(x, encOut, srcMask, tgtMask, false)
	return out
}

// ForwardWithAttention is Forward that also returns each layer's attention weights.
func (d *Decoder[B]) ForwardWithAttention(
	x, encOut, srcMask, tgtMask *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], []LayerAttention[B]) {
	return d.forward(x, encOut, srcMask, tgtMask, true)
}

func (d *Decoder[B]) forward(
	x, encOut, srcMask, tgtMask *tensor.Tensor[float32, B], keep bool,
) (*tensor.Tensor[float32, B], []LayerAttention[B]) {
	var trace []LayerAttention[B]
	if keep {
		trace = make([]LayerAttention[B], 0, len(d.Layers))
	}
	for _, layer := range d.Layers {
		var self, cross *tensor.Tensor[float32, B]
		x, self, cross = layer.Forward(x, encOut, srcMask, tgtMask)
		if keep {
			trace = append(trace, LayerAttention[B]{Self: self, Cross: cross})
		}
	}
	return d.Norm.Forward(x), trace
}

// Parameters returns every layer's parameters followed by the final norm.
func (d *Decoder[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, l := range d.Layers {
		params = append(params, l.Parameters()...)
	}
	return append(params, d.Norm.Parameters()...)
}
