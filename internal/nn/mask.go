package nn

import (
	"github.com/gomlx/exceptions"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// PaddingMask marks non-padding positions of ids [batch, seq] with 1.
//
// Shape: [batch, 1, 1, seq], broadcastable over heads and query positions.
func PaddingMask[B tensor.Backend](ids *tensor.Tensor[int32, B], padID int32) *tensor.Tensor[float32, B] {
	if ids.Rank() != 2 {
		exceptions.Panicf("PaddingMask: ids must be [batch, seq], got %v", ids.Shape())
	}
	batch, seq := ids.Dim(0), ids.Dim(1)
	mask := tensor.Zeros[float32](tensor.Shape{batch, 1, 1, seq}, ids.Backend())
	data := mask.Data()
	for i, id := range ids.Data() {
		if id != padID {
			data[i] = 1
		}
	}
	return mask
}

// CausalMask creates a lower-triangular mask: position i may attend to j <= i.
//
// Shape: [1, 1, size, size] (broadcastable to [batch, heads, seq, seq])
//
// Example:
//
//	// For size=4:
//	// [[1, 0, 0, 0],
//	//  [1, 1, 0, 0],
//	//  [1, 1, 1, 0],
//	//  [1, 1, 1, 1]]
func CausalMask[B tensor.Backend](size int, backend B) *tensor.Tensor[float32, B] {
	mask := tensor.Zeros[float32](tensor.Shape{1, 1, size, size}, backend)
	data := mask.Data()
	for i := 0; i < size; i++ {
		for j := 0; j <= i; j++ {
			data[i*size+j] = 1
		}
	}
	return mask
}

// DecoderMask combines target padding and causal masking.
//
// Shape: [batch, 1, seq, seq].
func DecoderMask[B tensor.Backend](ids *tensor.Tensor[int32, B], padID int32) *tensor.Tensor[float32, B] {
	return PaddingMask(ids, padID).Mul(CausalMask(ids.Dim(1), ids.Backend()))
}
