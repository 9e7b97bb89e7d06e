// Package cpu implements the CPU compute backend for the SeqRec tensor engine.
package cpu

import (
	"github.com/gomlx/exceptions"

	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// CPUBackend implements tensor operations on CPU.
type CPUBackend struct {
	device tensor.Device
}

// New creates a new CPU backend.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
	}
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// Add performs element-wise addition with NumPy-style broadcasting.
func (cpu *CPUBackend) Add(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("add", a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with NumPy-style broadcasting.
func (cpu *CPUBackend) Sub(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("sub", a, b, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with NumPy-style broadcasting.
func (cpu *CPUBackend) Mul(a, b *tensor.RawTensor) *tensor.RawTensor {
	return cpu.binaryOp("mul", a, b, func(x, y float32) float32 { return x * y })
}

// binaryOp applies op element-wise over broadcasted operands.
func (cpu *CPUBackend) binaryOp(name string, a, b *tensor.RawTensor, op func(x, y float32) float32) *tensor.RawTensor {
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		exceptions.Panicf("%s: requires float32 tensors, got %s and %s", name, a.DType(), b.DType())
	}

	outShape, needsBroadcast, err := tensor.BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		exceptions.Panicf("%s: %v", name, err)
	}

	result, err := tensor.NewRaw(outShape, tensor.Float32, cpu.device)
	if err != nil {
		exceptions.Panicf("%s: failed to create result tensor: %v", name, err)
	}

	aData := a.AsFloat32()
	bData := b.AsFloat32()
	outData := result.AsFloat32()

	if !needsBroadcast {
		for i := range outData {
			outData[i] = op(aData[i], bData[i])
		}
		return result
	}

	outStrides := outShape.ComputeStrides()
	aStrides := computeBroadcastStridesForShape(a.Shape(), outShape)
	bStrides := computeBroadcastStridesForShape(b.Shape(), outShape)

	for i := range outData {
		aIdx := computeFlatIndex(i, outStrides, aStrides)
		bIdx := computeFlatIndex(i, outStrides, bStrides)
		outData[i] = op(aData[aIdx], bData[bIdx])
	}

	return result
}

// Reshape returns a view of the tensor under a new shape.
func (cpu *CPUBackend) Reshape(t *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	return t.WithShape(newShape)
}

// Transpose permutes the tensor's dimensions.
//
// If axes is empty, reverses all dimensions. Otherwise axes[i] names the
// input dimension that becomes output dimension i.
func (cpu *CPUBackend) Transpose(t *tensor.RawTensor, axes ...int) *tensor.RawTensor {
	shape := t.Shape()
	ndim := len(shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}
	if len(axes) != ndim {
		exceptions.Panicf("transpose: expected %d axes for shape %v, got %d", ndim, shape, len(axes))
	}

	seen := make([]bool, ndim)
	outShape := make(tensor.Shape, ndim)
	for i, axis := range axes {
		if axis < 0 || axis >= ndim || seen[axis] {
			exceptions.Panicf("transpose: invalid axes permutation %v for shape %v", axes, shape)
		}
		seen[axis] = true
		outShape[i] = shape[axis]
	}

	result, err := tensor.NewRaw(outShape, t.DType(), cpu.device)
	if err != nil {
		exceptions.Panicf("transpose: failed to create result tensor: %v", err)
	}

	inStrides := shape.ComputeStrides()
	outStrides := outShape.ComputeStrides()
	elemSize := t.DType().Size()
	inData := t.Data()
	outData := result.Data()

	for i := 0; i < outShape.NumElements(); i++ {
		// Decompose output index into coordinates and map back to input.
		rem := i
		inIdx := 0
		for d := 0; d < ndim; d++ {
			coord := rem / outStrides[d]
			rem %= outStrides[d]
			inIdx += coord * inStrides[axes[d]]
		}
		copy(outData[i*elemSize:(i+1)*elemSize], inData[inIdx*elemSize:(inIdx+1)*elemSize])
	}

	return result
}
