// Package nn implements the encoder-decoder Transformer module graph:
// embeddings, sinusoidal positions, multi-head attention, feed-forward
// sublayers, pre-norm residual wrapping, the encoder/decoder stacks and the
// log-softmax projection.
//
// Modules are generic over the compute backend. With the plain CPU backend
// they run inference; wrapped in autodiff.New the same forward pass records
// a gradient tape, and autodiff.Backward yields a gradient for every
// Parameter.
//
// Forward passes only read parameters, so one model can serve concurrent
// forward calls while dropout is disabled and no tape is recording.
//
// Module constructors and Forward methods panic on misuse, the way the tensor
// kernels do. Transformer (the composition root) converts those panics into
// returned errors.
package nn

import (
	"github.com/born-ml/seq2seq/internal/tensor"
)

// Module is the base interface for all neural network components.
type Module[B tensor.Backend] interface {
	// Parameters returns all trainable parameters, nested ones included, in a
	// stable order. Modules without parameters return an empty slice.
	Parameters() []*Parameter[B]
}

// Sublayer is a transformation wrapped by a ResidualConnection, typically a
// closure over an attention or feed-forward module.
type Sublayer[B tensor.Backend] func(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]
