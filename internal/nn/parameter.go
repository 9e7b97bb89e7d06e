package nn

import (
	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// Parameter represents a learned weight owned by a layer instance.
//
// Parameters are created once at layer construction (deterministically,
// from the layer's seed) and are only read during a forward pass; mutation
// belongs to an external training procedure.
type Parameter[B tensor.Backend] struct {
	name   string
	tensor *tensor.Tensor[float32, B]
}

// NewParameter creates a new parameter.
//
// Parameters:
//   - name: Descriptive name for this parameter (e.g., "query_weight")
//   - t: The initialized parameter tensor
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return &Parameter[B]{
		name:   name,
		tensor: t,
	}
}

// Name returns the parameter name.
func (p *Parameter[B]) Name() string {
	return p.name
}

// Tensor returns the parameter tensor.
func (p *Parameter[B]) Tensor() *tensor.Tensor[float32, B] {
	return p.tensor
}
