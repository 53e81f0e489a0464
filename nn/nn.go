// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/born-ml/seq2seq/internal/config"
	"github.com/born-ml/seq2seq/internal/nn"
	"github.com/born-ml/seq2seq/internal/tensor"
)

// Module is implemented by every block that owns parameters.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter is a named trainable tensor with an optional gradient.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// Sublayer is a function wrapped by a ResidualConnection.
type Sublayer[B tensor.Backend] = nn.Sublayer[B]

// Errors returned by model construction and forward passes.
var (
	ErrInvalidConfig     = nn.ErrInvalidConfig
	ErrHeadsNotDivisible = nn.ErrHeadsNotDivisible
	ErrSequenceTooLong   = nn.ErrSequenceTooLong
	ErrMaskShape         = nn.ErrMaskShape
	ErrTokenOutOfRange   = nn.ErrTokenOutOfRange
	ErrInputShape        = nn.ErrInputShape
	ErrStateDict         = nn.ErrStateDict
)

// Model

// Config holds every construction parameter of a Transformer.
type Config = nn.Config

// Transformer is the encoder-decoder model.
type Transformer[B tensor.Backend] = nn.Transformer[B]

// LayerAttention holds the attention weights of one layer.
type LayerAttention[B tensor.Backend] = nn.LayerAttention[B]

// DefaultConfig returns the base model configuration (d_model 512, 8 heads, 6 layers).
func DefaultConfig() Config {
	return nn.DefaultConfig()
}

// LoadConfig reads a YAML config file over DefaultConfig and validates it.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// Build assembles and initializes a Transformer whose parameters live on backend.
//
// Example:
//
//	cfg := nn.DefaultConfig()
//	cfg.SrcVocabSize, cfg.TgtVocabSize = 32000, 32000
//	model, err := nn.Build(cfg, cpu.New())
func Build[B tensor.Backend](cfg Config, backend B) (*Transformer[B], error) {
	return nn.Build(cfg, backend)
}

// CollectGradients stores the gradients returned by autodiff.Backward on the
// parameters and returns how many received one.
func CollectGradients[B tensor.Backend](
	params []*Parameter[B],
	grads map[*tensor.RawTensor]*tensor.RawTensor,
	backend B,
) int {
	return nn.CollectGradients(params, grads, backend)
}

// Blocks

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer with Xavier initialization.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, rng *rand.Rand, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, rng, backend)
}

// Dropout is inverted dropout, inactive until SetTraining(true).
type Dropout[B tensor.Backend] = nn.Dropout[B]

// NewDropout creates a dropout with probability p in [0, 1].
func NewDropout[B tensor.Backend](p float32, seed int64) *Dropout[B] {
	return nn.NewDropout[B](p, seed)
}

// InputEmbedding maps token ids to vectors scaled by sqrt(d_model).
type InputEmbedding[B tensor.Backend] = nn.InputEmbedding[B]

// NewInputEmbedding creates an embedding table.
func NewInputEmbedding[B tensor.Backend](vocabSize, dModel int, rng *rand.Rand, backend B) *InputEmbedding[B] {
	return nn.NewInputEmbedding(vocabSize, dModel, rng, backend)
}

// PositionalEncoding adds fixed sinusoidal position signals.
type PositionalEncoding[B tensor.Backend] = nn.PositionalEncoding[B]

// NewPositionalEncoding precomputes the table for positions [0, maxLen).
func NewPositionalEncoding[B tensor.Backend](dModel, maxLen int, dropout *Dropout[B], backend B) *PositionalEncoding[B] {
	return nn.NewPositionalEncoding(dModel, maxLen, dropout, backend)
}

// LayerNorm normalizes the last axis.
type LayerNorm[B tensor.Backend] = nn.LayerNorm[B]

// NewLayerNorm creates a LayerNorm with unit scale and zero shift.
func NewLayerNorm[B tensor.Backend](dModel int, epsilon float32, backend B) *LayerNorm[B] {
	return nn.NewLayerNorm(dModel, epsilon, backend)
}

// FeedForward is the position-wise two-layer network.
type FeedForward[B tensor.Backend] = nn.FeedForward[B]

// NewFeedForward creates a feed-forward block.
func NewFeedForward[B tensor.Backend](dModel, dFF int, dropout *Dropout[B], rng *rand.Rand, backend B) *FeedForward[B] {
	return nn.NewFeedForward(dModel, dFF, dropout, rng, backend)
}

// MultiHeadAttention implements multi-head attention.
type MultiHeadAttention[B tensor.Backend] = nn.MultiHeadAttention[B]

// NewMultiHeadAttention creates an attention block; heads must divide dModel.
func NewMultiHeadAttention[B tensor.Backend](
	dModel, heads int,
	dropout *Dropout[B],
	rng *rand.Rand,
	backend B,
) *MultiHeadAttention[B] {
	return nn.NewMultiHeadAttention(dModel, heads, dropout, rng, backend)
}

// ScaledDotProductAttention computes softmax(q·kᵀ/√d_k)·v and returns the output
// and the attention weights.
func ScaledDotProductAttention[B tensor.Backend](
	q, k, v, mask *tensor.Tensor[float32, B],
	dropout *Dropout[B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	return nn.ScaledDotProductAttention(q, k, v, mask, dropout)
}

// ResidualConnection computes x + dropout(sublayer(norm(x))).
type ResidualConnection[B tensor.Backend] = nn.ResidualConnection[B]

// NewResidualConnection creates a pre-norm residual wrap.
func NewResidualConnection[B tensor.Backend](dModel int, epsilon float32, dropout *Dropout[B], backend B) *ResidualConnection[B] {
	return nn.NewResidualConnection(dModel, epsilon, dropout, backend)
}

// EncoderLayer is self-attention followed by feed-forward.
type EncoderLayer[B tensor.Backend] = nn.EncoderLayer[B]

// DecoderLayer is masked self-attention, cross-attention and feed-forward.
type DecoderLayer[B tensor.Backend] = nn.DecoderLayer[B]

// Encoder is a stack of encoder layers with a final LayerNorm.
type Encoder[B tensor.Backend] = nn.Encoder[B]

// Decoder is a stack of decoder layers with a final LayerNorm.
type Decoder[B tensor.Backend] = nn.Decoder[B]

// Projection maps hidden states to log-probabilities over the vocabulary.
type Projection[B tensor.Backend] = nn.Projection[B]

// NewProjection creates a projection layer.
func NewProjection[B tensor.Backend](dModel, vocabSize int, rng *rand.Rand, backend B) *Projection[B] {
	return nn.NewProjection(dModel, vocabSize, rng, backend)
}

// Masks

// PaddingMask returns a [batch, 1, 1, seq] mask with 1 where ids != padID.
func PaddingMask[B tensor.Backend](ids *tensor.Tensor[int32, B], padID int32) *tensor.Tensor[float32, B] {
	return nn.PaddingMask(ids, padID)
}

// CausalMask returns a [1, 1, size, size] lower-triangular mask.
func CausalMask[B tensor.Backend](size int, backend B) *tensor.Tensor[float32, B] {
	return nn.CausalMask(size, backend)
}

// DecoderMask combines PaddingMask and CausalMask into [batch, 1, seq, seq].
func DecoderMask[B tensor.Backend](ids *tensor.Tensor[int32, B], padID int32) *tensor.Tensor[float32, B] {
	return nn.DecoderMask(ids, padID)
}

// Loss and initialization

// NLLLoss returns the mean negative log-likelihood of targets as a scalar
// tensor, skipping ignoreIndex.
func NLLLoss[B tensor.Backend](
	logProbs *tensor.Tensor[float32, B],
	targets *tensor.Tensor[int32, B],
	ignoreIndex int32,
) (*tensor.Tensor[float32, B], error) {
	return nn.NLLLoss(logProbs, targets, ignoreIndex)
}

// XavierUniform fills t in place with Glorot uniform values.
func XavierUniform[B tensor.Backend](t *tensor.Tensor[float32, B], rng *rand.Rand) {
	nn.XavierUniform(t, rng)
}
