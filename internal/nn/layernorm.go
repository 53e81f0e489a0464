package nn

import (
	"github.com/pkg/errors"

	"github.com/born-ml/seq2seq/internal/tensor"
)

// DefaultNormEps is the epsilon added to the standard deviation.
const DefaultNormEps = 1e-6

// LayerNorm normalizes each token's features along the last dimension.
//
// Formula: Y = alpha * (X - mean(X)) / (std(X) + eps) + beta
//
// std is the unbiased (n-1) sample standard deviation and eps is added to it,
// not to the variance. Pretrained weights produced with this formulation load
// without drift. With a single feature std is 0.
type LayerNorm[B tensor.Backend] struct {
	Alpha   *Parameter[B] // learnable scale [d_model], ones
	Beta    *Parameter[B] // learnable shift [d_model], zeros
	Epsilon float32
}

// NewLayerNorm creates a LayerNorm over a feature axis of size dModel.
// epsilon must be positive.
func NewLayerNorm[B tensor.Backend](dModel int, epsilon float32, backend B) *LayerNorm[B] {
	if dModel <= 0 {
		panic(errors.Wrapf(ErrInvalidConfig, "LayerNorm: d_model must be positive, got %d", dModel))
	}
	if epsilon <= 0 {
		panic(errors.Wrapf(ErrInvalidConfig, "LayerNorm: epsilon must be positive, got %g", epsilon))
	}
	return &LayerNorm[B]{
		Alpha:   NewParameter("alpha", tensor.Ones[float32](tensor.Shape{dModel}, backend)),
		Beta:    NewParameter("beta", tensor.Zeros[float32](tensor.Shape{dModel}, backend)),
		Epsilon: epsilon,
	}
}

// Forward applies the normalization. Shape is preserved: [..., d_model].
func (l *LayerNorm[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	dModel := l.Alpha.Tensor().NumElements()
	if x.Rank() == 0 || x.Dim(-1) != dModel {
		panic(errors.Wrapf(ErrInputShape, "LayerNorm.Forward: expected [..., %d], got %v", dModel, x.Shape()))
	}

	centered := x.Sub(x.MeanDim(-1, true))
	dof := max(dModel-1, 1)
	variance := centered.Mul(centered).SumDim(-1, true).MulScalar(1 / float32(dof))
	denom := variance.Sqrt().AddScalar(l.Epsilon)
	return centered.Div(denom).Mul(l.Alpha.Tensor()).Add(l.Beta.Tensor())
}

// Parameters returns [alpha, beta].
func (l *LayerNorm[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.Alpha, l.Beta}
}
