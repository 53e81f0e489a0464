package nn

import (
	"github.com/born-ml/seq2seq/internal/tensor"
)

// Parameter represents a trainable parameter in a neural network.
//
// Names are dotted paths assigned while the module graph is assembled, e.g.
// "encoder.layers.0.self_attn.w_q.weight". An external optimizer or checkpoint
// store addresses parameters by these names.
//
// Example:
//
//	weight := nn.NewParameter("weight", weightTensor)
//	w := weight.Tensor()
//
//	// After a backward pass and CollectGradients:
//	grad := weight.Grad()
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
	grad   *tensor.Tensor[float32, B] // nil until a backward pass reaches it
}

// NewParameter creates a new trainable parameter.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{name: name, tensor: t}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}

// Rank returns the number of dimensions of the parameter tensor.
func (p *Parameter[B]) Rank() int {
	return p.tensor.Rank()
}

// Grad returns the gradient tensor, or nil before a backward pass.
func (p *Parameter[B]) Grad() *tensor.Tensor[float32, B] {
	return p.grad
}

// SetGrad sets the gradient tensor.
func (p *Parameter[B]) SetGrad(grad *tensor.Tensor[float32, B]) {
	p.grad = grad
}

// ZeroGrad clears the gradient tensor.
func (p *Parameter[B]) ZeroGrad() {
	p.grad = nil
}

// CollectGradients stores the gradient computed for each parameter tensor,
// as returned by autodiff.Backward, on the parameter. Parameters the backward
// pass did not reach get a nil gradient. Returns how many received one.
//
// Example:
//
//	grads := autodiff.Backward(loss, backend)
//	nn.CollectGradients(model.Parameters(), grads, backend)
func CollectGradients[B tensor.Backend](
	params []*Parameter[B],
	grads map[*tensor.RawTensor]*tensor.RawTensor,
	backend B,
) int {
	n := 0
	for _, p := range params {
		g, ok := grads[p.tensor.Raw()]
		if !ok {
			p.ZeroGrad()
			continue
		}
		p.SetGrad(tensor.New[float32](g, backend))
		n++
	}
	return n
}

// qualify prefixes the names of params with scope.
func qualify[B tensor.Backend](scope string, params []*Parameter[B]) {
	for _, p := range params {
		p.name = scope + "." + p.name
	}
}

// countParameters sums the element counts of params.
func countParameters[B tensor.Backend](params []*Parameter[B]) int {
	n := 0
	for _, p := range params {
		n += p.tensor.NumElements()
	}
	return n
}
