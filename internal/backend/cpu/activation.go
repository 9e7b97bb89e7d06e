package cpu

import (
	"math"

	"github.com/gomlx/exceptions"

	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// Softmax computes a numerically stable softmax along the given dimension.
// Negative dims count from the end. The row maximum is subtracted before
// exponentiation.
func (cpu *CPUBackend) Softmax(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		exceptions.Panicf("softmax: requires a float32 tensor, got %s", x.DType())
	}

	shape := x.Shape()
	ndim := len(shape)
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		exceptions.Panicf("softmax: dimension %d out of range for shape %v", dim, shape)
	}

	result, err := tensor.NewRaw(shape, tensor.Float32, cpu.device)
	if err != nil {
		exceptions.Panicf("softmax: failed to create result tensor: %v", err)
	}

	// View the tensor as [outer, dimSize, inner].
	dimSize := shape[dim]
	outer, inner := 1, 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}
	for i := dim + 1; i < ndim; i++ {
		inner *= shape[i]
	}

	inData := x.AsFloat32()
	outData := result.AsFloat32()

	for o := 0; o < outer; o++ {
		for in := 0; in < inner; in++ {
			base := o*dimSize*inner + in

			maxVal := inData[base]
			for d := 1; d < dimSize; d++ {
				if v := inData[base+d*inner]; v > maxVal {
					maxVal = v
				}
			}

			sum := float32(0)
			for d := 0; d < dimSize; d++ {
				e := float32(math.Exp(float64(inData[base+d*inner] - maxVal)))
				outData[base+d*inner] = e
				sum += e
			}

			for d := 0; d < dimSize; d++ {
				outData[base+d*inner] /= sum
			}
		}
	}

	return result
}
