package nn

import (
	"github.com/gomlx/exceptions"

	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// Tanh is a hyperbolic tangent activation module.
//
// Squashes values to the range (-1, 1).
type Tanh[B tensor.Backend] struct{}

// NewTanh creates a new Tanh activation module.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return &Tanh[B]{}
}

// Forward applies Tanh activation element-wise.
func (t *Tanh[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.Tanh()
}

// Parameters returns an empty slice (Tanh has no trainable parameters).
func (t *Tanh[B]) Parameters() []*Parameter[B] {
	return nil
}

// Sigmoid is a logistic activation module.
//
// Squashes values to the range (0, 1); used for the gates of recurrent
// cells and for the additive attention inside the sequence encoder.
type Sigmoid[B tensor.Backend] struct{}

// NewSigmoid creates a new Sigmoid activation module.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return &Sigmoid[B]{}
}

// Forward applies Sigmoid activation element-wise.
func (s *Sigmoid[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.Sigmoid()
}

// Parameters returns an empty slice (Sigmoid has no trainable parameters).
func (s *Sigmoid[B]) Parameters() []*Parameter[B] {
	return nil
}

// ReLU is a rectified linear activation module: f(x) = max(0, x).
type ReLU[B tensor.Backend] struct{}

// NewReLU creates a new ReLU activation module.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return &ReLU[B]{}
}

// Forward applies ReLU activation element-wise.
func (r *ReLU[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input.ReLU()
}

// Parameters returns an empty slice (ReLU has no trainable parameters).
func (r *ReLU[B]) Parameters() []*Parameter[B] {
	return nil
}

// Identity passes its input through unchanged. It backs the "linear"
// activation name.
type Identity[B tensor.Backend] struct{}

// NewIdentity creates a new Identity module.
func NewIdentity[B tensor.Backend]() *Identity[B] {
	return &Identity[B]{}
}

// Forward returns the input unchanged.
func (i *Identity[B]) Forward(input *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	return input
}

// Parameters returns an empty slice.
func (i *Identity[B]) Parameters() []*Parameter[B] {
	return nil
}

// ActivationByName resolves a supported nonlinearity name to a module.
//
// Supported names: "tanh", "sigmoid", "relu", "linear".
// Panics on an unrecognized name.
func ActivationByName[B tensor.Backend](name string) Module[B] {
	switch name {
	case "tanh":
		return NewTanh[B]()
	case "sigmoid":
		return NewSigmoid[B]()
	case "relu":
		return NewReLU[B]()
	case "linear", "":
		return NewIdentity[B]()
	default:
		exceptions.Panicf("ActivationByName: unsupported activation %q (want tanh, sigmoid, relu or linear)", name)
		return nil
	}
}
