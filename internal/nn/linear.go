package nn

import (
	"math/rand"

	"github.com/gomlx/exceptions"

	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// Linear implements a fully connected (dense) layer: y = x @ W.T + b.
//
// Shapes:
//   - x: [batch_size, in_features]
//   - W: [out_features, in_features]
//   - b: [out_features]
//   - y: [batch_size, out_features]
//
// Weights are initialized from a truncated normal distribution drawn from
// the supplied rng; biases are initialized to zeros.
type Linear[B tensor.Backend] struct {
	inFeatures  int
	outFeatures int
	weight      *Parameter[B] // [out_features, in_features]
	bias        *Parameter[B] // [out_features]
	backend     B
}

// NewLinear creates a new Linear layer.
//
// The rng carries the owning layer's seed so that construction is
// deterministic and a layer rebuilt from its configuration produces
// identical weights.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, rng *rand.Rand, backend B) *Linear[B] {
	if inFeatures <= 0 || outFeatures <= 0 {
		exceptions.Panicf("Linear: features must be positive, got in=%d out=%d", inFeatures, outFeatures)
	}

	weight := NewParameter("weight", TruncatedNormal(rng, tensor.Shape{outFeatures, inFeatures}, backend))
	bias := NewParameter("bias", Zeros(tensor.Shape{outFeatures}, backend))

	return &Linear[B]{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      weight,
		bias:        bias,
		backend:     backend,
	}
}

// Forward computes y = x @ W.T + b.
//
// Input shape: [batch_size, in_features]
// Output shape: [batch_size, out_features]
func (l *Linear[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	inputShape := input.Shape()
	if len(inputShape) != 2 {
		exceptions.Panicf("Linear.Forward: expected 2D input [batch, features], got shape %v", inputShape)
	}
	if inputShape[1] != l.inFeatures {
		exceptions.Panicf("Linear.Forward: expected input with %d features, got %d", l.inFeatures, inputShape[1])
	}

	w := l.weight.Tensor() // [out_features, in_features]
	output := input.MatMul(w.T())

	b := l.bias.Tensor().Reshape(1, l.outFeatures)
	return output.Add(b)
}

// Parameters returns the trainable parameters of this layer.
func (l *Linear[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{l.weight, l.bias}
}

// Weight returns the weight parameter.
func (l *Linear[B]) Weight() *Parameter[B] {
	return l.weight
}

// Bias returns the bias parameter.
func (l *Linear[B]) Bias() *Parameter[B] {
	return l.bias
}

// InFeatures returns the number of input features.
func (l *Linear[B]) InFeatures() int {
	return l.inFeatures
}

// OutFeatures returns the number of output features.
func (l *Linear[B]) OutFeatures() int {
	return l.outFeatures
}
