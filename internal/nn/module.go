// Package nn provides the attention building blocks used inside sequential
// recommendation models: masked softmax weighted sums, score functions,
// attention sequence pooling, self and multi-head self-attention, user
// attention, additive attention and a NARM-style recurrent sequence encoder.
package nn

import (
	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// Module is the base interface for components with a single tensor input.
//
// Attention layers take several inputs (query, keys, lengths) and define
// their own Forward signatures; Module covers the single-input building
// blocks (Linear, activations) that compose into them.
type Module[B tensor.Backend] interface {
	// Forward computes the output of the module given an input tensor.
	Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns all trainable parameters of this module.
	// Returns an empty slice for modules without trainable parameters.
	Parameters() []*Parameter[B]
}
