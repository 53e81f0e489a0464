package nn

import (
	"fmt"
	"math/rand"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// Transformer is the encoder-decoder composition root.
//
// Data flow:
//
//	src ids → SrcEmbed → SrcPos → Encoder → encoder output
//	tgt ids → TgtEmbed → TgtPos → Decoder(encoder output, masks) → Projection → log-probs
//
// The encoder output depends only on the source, so an autoregressive decoding
// loop encodes once and calls Decode for every step.
//
// Example:
//
//	cfg := nn.DefaultConfig()
//	cfg.SrcVocabSize, cfg.TgtVocabSize = 32000, 32000
//	model, err := nn.Build(cfg, cpu.New())
//	enc, err := model.Encode(src, nn.PaddingMask(src, pad))
//	dec, err := model.Decode(enc, nn.PaddingMask(src, pad), tgt, nn.DecoderMask(tgt, pad))
//	logProbs, err := model.Project(dec)
type Transformer[B tensor.Backend] struct {
	SrcEmbed   *InputEmbedding[B]
	TgtEmbed   *InputEmbedding[B]
	SrcPos     *PositionalEncoding[B]
	TgtPos     *PositionalEncoding[B]
	Encoder    *Encoder[B]
	Decoder    *Decoder[B]
	Projection *Projection[B]

	config   Config
	backend  B
	dropouts []*Dropout[B]
}

// Build validates cfg, assembles every module and initializes all parameters
// with more than one dimension using Xavier uniform.
//
// Construction is deterministic for a given cfg.Seed. The model starts in
// evaluation mode (dropout disabled). Parameters live on backend; pass an
// autodiff backend to compute gradients.
func Build[B tensor.Backend](cfg Config, backend B) (*Transformer[B], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var t *Transformer[B]
	err := exceptions.TryCatch[error](func() {
		t = build(cfg, backend)
	})
	if err != nil {
		return nil, errors.WithMessage(err, "building transformer")
	}

	klog.V(1).Infof("built transformer on %s: d_model=%d heads=%d d_ff=%d layers=%d, %d parameters in %d tensors",
		backend.Name(), cfg.DModel, cfg.Heads, cfg.DFF, cfg.Layers, t.NumParameters(), len(t.Parameters()))
	return t, nil
}

func build[B tensor.Backend](cfg Config, backend B) *Transformer[B] {
	rng := rand.New(rand.NewSource(cfg.Seed)) //nolint:gosec // Weight initialization is not security-critical
	t := &Transformer[B]{config: cfg, backend: backend}

	newDropout := func() *Dropout[B] {
		d := NewDropout[B](cfg.Dropout, rng.Int63())
		t.dropouts = append(t.dropouts, d)
		return d
	}
	newResidual := func() *ResidualConnection[B] {
		return NewResidualConnection(cfg.DModel, cfg.NormEps, newDropout(), backend)
	}
	newAttention := func() *MultiHeadAttention[B] {
		return NewMultiHeadAttention(cfg.DModel, cfg.Heads, newDropout(), rng, backend)
	}
	newFeedForward := func() *FeedForward[B] {
		return NewFeedForward(cfg.DModel, cfg.DFF, newDropout(), rng, backend)
	}

	t.SrcEmbed = NewInputEmbedding(cfg.SrcVocabSize, cfg.DModel, rng, backend)
	t.TgtEmbed = NewInputEmbedding(cfg.TgtVocabSize, cfg.DModel, rng, backend)
	t.SrcPos = NewPositionalEncoding(cfg.DModel, cfg.SrcSeqLen, newDropout(), backend)
	t.TgtPos = NewPositionalEncoding(cfg.DModel, cfg.TgtSeqLen, newDropout(), backend)

	encLayers := make([]*EncoderLayer[B], cfg.Layers)
	for i := range encLayers {
		encLayers[i] = NewEncoderLayer(newAttention(), newFeedForward(),
			[2]*ResidualConnection[B]{newResidual(), newResidual()})
	}
	decLayers := make([]*DecoderLayer[B], cfg.Layers)
	for i := range decLayers {
		decLayers[i] = NewDecoderLayer(newAttention(), newAttention(), newFeedForward(),
			[3]*ResidualConnection[B]{newResidual(), newResidual(), newResidual()})
	}
	t.Encoder = NewEncoder(encLayers, NewLayerNorm(cfg.DModel, cfg.NormEps, backend))
	t.Decoder = NewDecoder(decLayers, NewLayerNorm(cfg.DModel, cfg.NormEps, backend))
	t.Projection = NewProjection(cfg.DModel, cfg.TgtVocabSize, rng, backend)

	qualify("src_embed", t.SrcEmbed.Parameters())
	qualify("tgt_embed", t.TgtEmbed.Parameters())
	qualify("encoder", t.Encoder.Parameters())
	qualify("decoder", t.Decoder.Parameters())
	qualify("projection", t.Projection.Parameters())

	InitXavier(t.Parameters(), rng)
	return t
}

// Config returns the configuration the model was built with.
func (t *Transformer[B]) Config() Config {
	return t.config
}

// Backend returns the backend the parameters live on.
func (t *Transformer[B]) Backend() B {
	return t.backend
}

// SetTraining enables or disables every dropout in the model.
// It must not be called while forward passes are running.
func (t *Transformer[B]) SetTraining(training bool) {
	for _, d := range t.dropouts {
		d.SetTraining(training)
	}
	klog.V(2).Infof("transformer training mode: %v", training)
}

// Encode embeds src [batch, seq_src] and runs the encoder.
//
// srcMask is nil (attend everywhere) or a 0/1 mask broadcastable to
// [batch, heads, seq_src, seq_src], typically PaddingMask(src, pad).
// Returns the encoder output [batch, seq_src, d_model].
func (t *Transformer[B]) Encode(src *tensor.Tensor[int32, B], srcMask *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	var out *tensor.Tensor[float32, B]
	err := exceptions.TryCatch[error](func() {
		out = t.Encoder.Forward(t.embedSource(src), srcMask)
	})
	if err != nil {
		return nil, errors.WithMessage(err, "encode")
	}
	return out, nil
}

// EncodeWithAttention is Encode that also returns every encoder layer's
// self-attention weights.
func (t *Transformer[B]) EncodeWithAttention(
	src *tensor.Tensor[int32, B],
	srcMask *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], []LayerAttention[B], error) {
	var (
		out   *tensor.Tensor[float32, B]
		trace []LayerAttention[B]
	)
	err := exceptions.TryCatch[error](func() {
		out, trace = t.Encoder.ForwardWithAttention(t.embedSource(src), srcMask)
	})
	if err != nil {
		return nil, nil, errors.WithMessage(err, "encode")
	}
	return out, trace, nil
}

// Decode embeds tgt [batch, seq_tgt] and runs the decoder against encOut.
//
// tgtMask should combine padding and causal masking (DecoderMask). Returns the
// decoder output [batch, seq_tgt, d_model].
func (t *Transformer[B]) Decode(
	encOut, srcMask *tensor.Tensor[float32, B],
	tgt *tensor.Tensor[int32, B],
	tgtMask *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], error) {
	var out *tensor.Tensor[float32, B]
	err := exceptions.TryCatch[error](func() {
		out = t.Decoder.Forward(t.embedTarget(tgt, encOut), encOut, srcMask, tgtMask)
	})
	if err != nil {
		return nil, errors.WithMessage(err, "decode")
	}
	return out, nil
}

// DecodeWithAttention is Decode that also returns every decoder layer's self-
// and cross-attention weights.
func (t *Transformer[B]) DecodeWithAttention(
	encOut, srcMask *tensor.Tensor[float32, B],
	tgt *tensor.Tensor[int32, B],
	tgtMask *tensor.Tensor[float32, B],
) (*tensor.Tensor[float32, B], []LayerAttention[B], error) {
	var (
		out   *tensor.Tensor[float32, B]
		trace []LayerAttention[B]
	)
	err := exceptions.TryCatch[error](func() {
		out, trace = t.Decoder.ForwardWithAttention(t.embedTarget(tgt, encOut), encOut, srcMask, tgtMask)
	})
	if err != nil {
		return nil, nil, errors.WithMessage(err, "decode")
	}
	return out, trace, nil
}

// Project maps decoder output [batch, seq, d_model] to log-probabilities
// [batch, seq, tgt_vocab].
func (t *Transformer[B]) Project(x *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], error) {
	var out *tensor.Tensor[float32, B]
	err := exceptions.TryCatch[error](func() {
		out = t.Projection.Forward(x)
	})
	if err != nil {
		return nil, errors.WithMessage(err, "project")
	}
	return out, nil
}

func (t *Transformer[B]) embedSource(src *tensor.Tensor[int32, B]) *tensor.Tensor[float32, B] {
	requireTokenMatrix("source", src)
	return t.SrcPos.Forward(t.SrcEmbed.Forward(src))
}

func (t *Transformer[B]) embedTarget(
	tgt *tensor.Tensor[int32, B],
	encOut *tensor.Tensor[float32, B],
) *tensor.Tensor[float32, B] {
	requireTokenMatrix("target", tgt)
	if encOut.Rank() != 3 || encOut.Dim(0) != tgt.Dim(0) || encOut.Dim(2) != t.config.DModel {
		panic(errors.Wrapf(ErrInputShape, "encoder output %v does not match target batch %v and d_model %d",
			encOut.Shape(), tgt.Shape(), t.config.DModel))
	}
	return t.TgtPos.Forward(t.TgtEmbed.Forward(tgt))
}

func requireTokenMatrix[B tensor.Backend](what string, ids *tensor.Tensor[int32, B]) {
	if ids == nil || ids.Rank() != 2 {
		var shape tensor.Shape
		if ids != nil {
			shape = ids.Shape()
		}
		panic(errors.Wrapf(ErrInputShape, "%s ids must be [batch, seq], got %v", what, shape))
	}
}

// Parameters returns all trainable parameters in construction order.
func (t *Transformer[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	params = append(params, t.SrcEmbed.Parameters()...)
	params = append(params, t.TgtEmbed.Parameters()...)
	params = append(params, t.Encoder.Parameters()...)
	params = append(params, t.Decoder.Parameters()...)
	params = append(params, t.Projection.Parameters()...)
	return params
}

// NumParameters returns the total number of trainable scalars.
func (t *Transformer[B]) NumParameters() int {
	return countParameters(t.Parameters())
}

// String implements fmt.Stringer.
func (t *Transformer[B]) String() string {
	c := t.config
	return fmt.Sprintf("Transformer(d_model=%d, heads=%d, d_ff=%d, layers=%d, src_vocab=%d, tgt_vocab=%d)",
		c.DModel, c.Heads, c.DFF, c.Layers, c.SrcVocabSize, c.TgtVocabSize)
}
