package nn

import (
	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// LayerNorm applies layer normalization over the last dimension:
//
//	Y = gamma * (X - mean(X)) / sqrt(var(X) + eps) + beta
//
// gamma is initialized to ones and beta to zeros; mean and variance are
// computed along the feature (last) dimension.
type LayerNorm[B tensor.Backend] struct {
	Gamma   *Parameter[B] // learnable scale [d_model]
	Beta    *Parameter[B] // learnable shift [d_model]
	Epsilon float32
	backend B
}

// NewLayerNorm creates a new LayerNorm layer.
//
// Parameters:
//   - normalizedShape: size of the last (feature) dimension
//   - epsilon: small constant for numerical stability (typically 1e-5)
func NewLayerNorm[B tensor.Backend](normalizedShape int, epsilon float32, backend B) *LayerNorm[B] {
	gamma := Ones(tensor.Shape{normalizedShape}, backend)
	beta := Zeros(tensor.Shape{normalizedShape}, backend)

	return &LayerNorm[B]{
		Gamma:   NewParameter("gamma", gamma),
		Beta:    NewParameter("beta", beta),
		Epsilon: epsilon,
		backend: backend,
	}
}

// Forward applies LayerNorm to the input tensor.
//
// Shapes: [..., d_model] -> [..., d_model].
func (l *LayerNorm[B]) Forward(x *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	mean := x.MeanDim(-1, true)
	centered := x.Sub(mean)

	variance := centered.Mul(centered).MeanDim(-1, true)
	eps := tensor.Full[float32](variance.Shape(), l.Epsilon, l.backend)
	rstd := variance.Add(eps).Rsqrt()

	norm := centered.Mul(rstd)

	// gamma and beta are [d_model]; unsqueeze to broadcast over the
	// leading dimensions of x.
	gamma := l.Gamma.Tensor()
	beta := l.Beta.Tensor()
	for i := 0; i < len(x.Shape())-1; i++ {
		gamma = gamma.Unsqueeze(0)
		beta = beta.Unsqueeze(0)
	}

	return norm.Mul(gamma).Add(beta)
}

// Parameters returns the learnable parameters (gamma and beta).
func (l *LayerNorm[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.Gamma, l.Beta}
}
