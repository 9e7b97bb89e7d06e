package cpu

import (
	"github.com/gomlx/exceptions"

	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// SumDim sums along a dimension. Negative dims count from the end.
func (cpu *CPUBackend) SumDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim("sumdim", x, dim, keepDim, false)
}

// MeanDim averages along a dimension. Negative dims count from the end.
func (cpu *CPUBackend) MeanDim(x *tensor.RawTensor, dim int, keepDim bool) *tensor.RawTensor {
	return cpu.reduceDim("meandim", x, dim, keepDim, true)
}

func (cpu *CPUBackend) reduceDim(name string, x *tensor.RawTensor, dim int, keepDim, mean bool) *tensor.RawTensor {
	if x.DType() != tensor.Float32 {
		exceptions.Panicf("%s: requires a float32 tensor, got %s", name, x.DType())
	}

	shape := x.Shape()
	ndim := len(shape)
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		exceptions.Panicf("%s: dimension %d out of range for shape %v", name, dim, shape)
	}

	outShape := make(tensor.Shape, 0, ndim)
	for i, d := range shape {
		switch {
		case i != dim:
			outShape = append(outShape, d)
		case keepDim:
			outShape = append(outShape, 1)
		}
	}
	if len(outShape) == 0 {
		outShape = tensor.Shape{1}
	}

	result, err := tensor.NewRaw(outShape, tensor.Float32, cpu.device)
	if err != nil {
		exceptions.Panicf("%s: failed to create result tensor: %v", name, err)
	}

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
			sum := float32(0)
			for d := 0; d < dimSize; d++ {
				sum += inData[o*dimSize*inner+d*inner+in]
			}
			if mean {
				sum /= float32(dimSize)
			}
			outData[o*inner+in] = sum
		}
	}

	return result
}
