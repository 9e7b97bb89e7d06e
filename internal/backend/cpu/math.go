package cpu

import (
	"math"

	"github.com/gomlx/exceptions"

	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// Tanh computes the hyperbolic tangent element-wise.
func (cpu *CPUBackend) Tanh(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("tanh", x, func(v float32) float32 {
		return float32(math.Tanh(float64(v)))
	})
}

// Sigmoid computes the logistic function element-wise.
func (cpu *CPUBackend) Sigmoid(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("sigmoid", x, func(v float32) float32 {
		return float32(1.0 / (1.0 + math.Exp(float64(-v))))
	})
}

// ReLU computes max(0, x) element-wise.
func (cpu *CPUBackend) ReLU(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("relu", x, func(v float32) float32 {
		if v < 0 {
			return 0
		}
		return v
	})
}

// Rsqrt computes the reciprocal square root element-wise.
func (cpu *CPUBackend) Rsqrt(x *tensor.RawTensor) *tensor.RawTensor {
	return cpu.unaryOp("rsqrt", x, func(v float32) float32 {
		return float32(1.0 / math.Sqrt(float64(v)))
	})
}

// MulScalar multiplies every element by a scalar.
func (cpu *CPUBackend) MulScalar(x *tensor.RawTensor, scalar float32) *tensor.RawTensor {
	return cpu.unaryOp("mulscalar", x, func(v float32) float32 {
		return v * scalar
	})
}

// unaryOp applies op element-wise to a float32 tensor.
func (cpu *CPUBackend) unaryOp(name string, x *tensor.RawTensor, op func(v float32) float32) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		exceptions.Panicf("%s: requires a float32 tensor, got %s", name, x.DType())
	}

	result, err := tensor.NewRaw(x.Shape(), tensor.Float32, cpu.device)
	if err != nil {
		exceptions.Panicf("%s: failed to create result tensor: %v", name, err)
	}

	inData := x.AsFloat32()
	outData := result.AsFloat32()
	for i, v := range inData {
		outData[i] = op(v)
	}

	return result
}
