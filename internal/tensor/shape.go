package tensor

import "github.com/pkg/errors"

// Shape represents the dimensions of a tensor.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return errors.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// ComputeStrides calculates row-major strides for the shape.
// Strides define memory layout: stride[i] = product of all dimensions after i.
func (s Shape) ComputeStrides() []int {
	strides := make([]int, len(s))
	if len(s) == 0 {
		return strides
	}

	strides[len(s)-1] = 1
	for i := len(s) - 2; i >= 0; i-- {
		strides[i] = strides[i+1] * s[i+1]
	}
	return strides
}

// BroadcastShapes implements NumPy-style broadcasting rules.
//
// Shapes are compared element-wise from right to left; dimensions are
// compatible when they are equal or one of them is 1, and missing
// dimensions are treated as 1.
//
// Returns the broadcasted shape, a flag indicating whether broadcasting is
// needed, and an error if the shapes are incompatible.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	outDim := len(a)
	if len(b) > outDim {
		outDim = len(b)
	}

	out := make(Shape, outDim)
	needsBroadcast := len(a) != len(b)

	for i := 0; i < outDim; i++ {
		dimA, dimB := 1, 1
		if idx := len(a) - outDim + i; idx >= 0 {
			dimA = a[idx]
		}
		if idx := len(b) - outDim + i; idx >= 0 {
			dimB = b[idx]
		}

		switch {
		case dimA == dimB:
			out[i] = dimA
		case dimA == 1:
			out[i] = dimB
			needsBroadcast = true
		case dimB == 1:
			out[i] = dimA
			needsBroadcast = true
		default:
			return nil, false, errors.Errorf("shapes %v and %v are not broadcastable at dimension %d", a, b, i)
		}
	}

	return out, needsBroadcast, nil
}
