package nn

import (
	"math"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// MaskFillValue replaces attention scores at masked positions before softmax.
// It is large enough that exp underflows to 0 but stays finite, so a fully
// masked row degrades to a uniform distribution instead of NaN.
const MaskFillValue = -1e9

// ScaledDotProductAttention computes attention with an optional 0/1 mask.
//
//	Attention(Q, K, V) = softmax(mask(QK^T / sqrt(d_k))) * V
//
// Where:
//   - Q (query): [batch, heads, seq_q, d_k]
//   - K (key): [batch, heads, seq_k, d_k]
//   - V (value): [batch, heads, seq_k, d_k]
//   - mask: nil, or a 0/1 tensor broadcastable to [batch, heads, seq_q, seq_k]
//     (see ExpandMask); positions with 0 receive MaskFillValue
//   - dropout: applied to the attention probabilities, may be nil
//
// Returns:
//   - output: [batch, heads, seq_q, d_k]
//   - weights: [batch, heads, seq_q, seq_k], the probabilities multiplied with V
//
// Panics with ErrMaskShape if the mask does not broadcast to the score shape.
func ScaledDotProductAttention[B tensor.Backend](
	query, key, value *tensor.Tensor[float32, B],
	mask *tensor.Tensor[float32, B],
	dropout *Dropout[B],
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	validateAttentionInputs(query, key, value)

	dK := query.Dim(-1)
	scale := float32(1 / math.Sqrt(float64(dK)))
	scores := query.BatchMatMul(key.Transpose(0, 1, 3, 2)).MulScalar(scale)

	if mask != nil {
		m := ExpandMask(mask)
		if !m.Shape().BroadcastsTo(scores.Shape()) {
			panic(errors.Wrapf(ErrMaskShape, "mask %v vs scores %v", mask.Shape(), scores.Shape()))
		}
		fill := tensor.Full[float32](tensor.Shape{1}, MaskFillValue, scores.Backend())
		scores = tensor.Where(m, scores, fill)
	}

	weights := dropout.Forward(scores.Softmax(-1))
	return weights.BatchMatMul(value), weights
}

// ExpandMask lifts a mask to rank 4 by prepending size-1 axes, so its trailing
// axes line up with [batch, heads, seq_q, seq_k]:
//   - [seq_q, seq_k] -> [1, 1, seq_q, seq_k]
//   - [heads, seq_q, seq_k] -> [1, heads, seq_q, seq_k]
//   - rank 4 is returned unchanged
//
// Any dimension may be 1 for broadcasting. A per-batch mask must be rank 4,
// e.g. a padding mask [batch, 1, 1, seq_k].
// Panics with ErrMaskShape for other ranks.
func ExpandMask[B tensor.Backend](mask *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	switch mask.Rank() {
	case 2:
		return mask.Unsqueeze(0).Unsqueeze(0)
	case 3:
		return mask.Unsqueeze(0)
	case 4:
		return mask
	default:
		panic(errors.Wrapf(ErrMaskShape, "mask must have rank 2, 3 or 4, got shape %v", mask.Shape()))
	}
}

// validateAttentionInputs validates the input tensors for attention.
func validateAttentionInputs[B tensor.Backend](query, key, value *tensor.Tensor[float32, B]) {
	if query.Rank() != 4 || key.Rank() != 4 || value.Rank() != 4 {
		exceptions.Panicf("ScaledDotProductAttention: query, key and value must be 4D [batch, heads, seq, d_k], got %v, %v, %v",
			query.Shape(), key.Shape(), value.Shape())
	}
	if query.Dim(-1) != key.Dim(-1) {
		panic(errors.Wrapf(ErrInputShape, "ScaledDotProductAttention: query and key must have same d_k, got %v and %v",
			query.Shape(), key.Shape()))
	}
	if key.Dim(2) != value.Dim(2) {
		panic(errors.Wrapf(ErrInputShape, "ScaledDotProductAttention: key and value must have same seq length, got %v and %v",
			key.Shape(), value.Shape()))
	}
}
