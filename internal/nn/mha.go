package nn

import (
	"math/rand"

	"github.com/pkg/errors"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// MultiHeadAttention implements the multi-head attention mechanism.
//
// Architecture:
//
//	MHA(Q, K, V) = Concat(head_1, ..., head_h) * W_O
//	head_i = SDPA(Q*W_Q_i, K*W_K_i, V*W_V_i)
//
// Each head sees a d_k = d_model / h slice of the projected width, so the
// parameter count matches single-head attention of the same width.
//
// Example:
//
//	mha := nn.NewMultiHeadAttention(512, 8, dropout, rng, backend)
//	out, weights := mha.Forward(x, x, x, mask)        // Self-attention
//	out, weights = mha.Forward(y, enc, enc, srcMask) // Cross-attention
type MultiHeadAttention[B tensor.Backend] struct {
	WQ      *Linear[B] // Query projection [d_model, d_model]
	WK      *Linear[B] // Key projection [d_model, d_model]
	WV      *Linear[B] // Value projection [d_model, d_model]
	WO      *Linear[B] // Output projection [d_model, d_model]
	Dropout *Dropout[B]
	Heads   int
	DK      int
	DModel  int
}

// NewMultiHeadAttention creates a new multi-head attention module.
//
// Panics with ErrHeadsNotDivisible when dModel is not a multiple of heads and
// ErrInvalidConfig for non-positive sizes. dropout may be nil.
func NewMultiHeadAttention[B tensor.Backend](dModel, heads int, dropout *Dropout[B], rng *rand.Rand, backend B) *MultiHeadAttention[B] {
	if dModel <= 0 || heads <= 0 {
		panic(errors.Wrapf(ErrInvalidConfig, "MultiHeadAttention: d_model=%d and heads=%d must be positive",
			dModel, heads))
	}
	if dModel%heads != 0 {
		panic(errors.Wrapf(ErrHeadsNotDivisible, "MultiHeadAttention: d_model %d, heads %d", dModel, heads))
	}

	m := &MultiHeadAttention[B]{
		WQ:      NewLinear(dModel, dModel, rng, backend),
		WK:      NewLinear(dModel, dModel, rng, backend),
		WV:      NewLinear(dModel, dModel, rng, backend),
		WO:      NewLinear(dModel, dModel, rng, backend),
		Dropout: dropout,
		Heads:   heads,
		DK:      dModel / heads,
		DModel:  dModel,
	}
	qualify("w_q", m.WQ.Parameters())
	qualify("w_k", m.WK.Parameters())
	qualify("w_v", m.WV.Parameters())
	qualify("w_o", m.WO.Parameters())
	return m
}

// Forward computes multi-head attention.
//
// Args:
//   - query: [batch, seq_q, d_model]
//   - key, value: [batch, seq_k, d_model]
//   - mask: nil or a 0/1 mask accepted by ExpandMask
//
// Returns:
//   - output: [batch, seq_q, d_model]
//   - weights: [batch, heads, seq_q, seq_k]
//
// The weights are returned rather than kept on the module, so concurrent calls
// do not interfere.
func (m *MultiHeadAttention[B]) Forward(query, key, value, mask *tensor.Tensor[float32, B]) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	m.validate(query, key, value)
	batch, seqQ, seqK := query.Dim(0), query.Dim(1), key.Dim(1)

	// 1. Project, then split the width into heads: [batch, seq, h, d_k] -> [batch, h, seq, d_k]
	q := m.WQ.Forward(query).Reshape(batch, seqQ, m.Heads, m.DK).Transpose(0, 2, 1, 3)
	k := m.WK.Forward(key).Reshape(batch, seqK, m.Heads, m.DK).Transpose(0, 2, 1, 3)
	v := m.WV.Forward(value).Reshape(batch, seqK, m.Heads, m.DK).Transpose(0, 2, 1, 3)

	// 2. Attention per head.
	attnOut, weights := ScaledDotProductAttention(q, k, v, mask, m.Dropout)

	// 3. Merge heads back to token-major [batch, seq_q, d_model] and project.
	merged := attnOut.Transpose(0, 2, 1, 3).Reshape(batch, seqQ, m.DModel)
	return m.WO.Forward(merged), weights
}

func (m *MultiHeadAttention[B]) validate(query, key, value *tensor.Tensor[float32, B]) {
	for _, x := range []*tensor.Tensor[float32, B]{query, key, value} {
		if x.Rank() != 3 || x.Dim(2) != m.DModel {
			panic(errors.Wrapf(ErrInputShape, "MultiHeadAttention.Forward: expected [batch, seq, %d], got %v",
				m.DModel, x.Shape()))
		}
	}
	if query.Dim(0) != key.Dim(0) || key.Dim(0) != value.Dim(0) {
		panic(errors.Wrapf(ErrInputShape, "MultiHeadAttention.Forward: batch sizes differ: %v, %v, %v",
			query.Shape(), key.Shape(), value.Shape()))
	}
	if key.Dim(1) != value.Dim(1) {
		panic(errors.Wrapf(ErrInputShape, "MultiHeadAttention.Forward: key %v and value %v lengths differ",
			key.Shape(), value.Shape()))
	}
}

// Parameters returns all trainable parameters (WQ, WK, WV, WO weights and biases).
func (m *MultiHeadAttention[B]) Parameters() []*Parameter[B] {
	params := make([]*Parameter[B], 0, 8)
	params = append(params, m.WQ.Parameters()...)
	params = append(params, m.WK.Parameters()...)
	params = append(params, m.WV.Parameters()...)
	params = append(params, m.WO.Parameters()...)
	return params
}
