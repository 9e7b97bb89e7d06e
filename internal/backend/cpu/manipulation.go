package cpu

import (
	"github.com/gomlx/exceptions"

	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// Cat concatenates tensors along a dimension. All tensors must share the
// same dtype and the same shape outside the concatenation dimension.
func (cpu *CPUBackend) Cat(tensors []*tensor.RawTensor, dim int) *tensor.RawTensor {
	if len(tensors) == 0 {
		exceptions.Panicf("cat: no tensors to concatenate")
	}

	first := tensors[0]
	ndim := len(first.Shape())
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		exceptions.Panicf("cat: dimension %d out of range for shape %v", dim, first.Shape())
	}

	catSize := 0
	for _, t := range tensors {
		shape := t.Shape()
		if len(shape) != ndim || t.DType() != first.DType() {
			exceptions.Panicf("cat: mismatched tensor shapes %v and %v", first.Shape(), shape)
		}
		for i := range shape {
			if i != dim && shape[i] != first.Shape()[i] {
				exceptions.Panicf("cat: shapes %v and %v differ outside dimension %d", first.Shape(), shape, dim)
			}
		}
		catSize += shape[dim]
	}

	outShape := first.Shape().Clone()
	outShape[dim] = catSize

	result, err := tensor.NewRaw(outShape, first.DType(), cpu.device)
	if err != nil {
		exceptions.Panicf("cat: failed to create result tensor: %v", err)
	}

	// Copy block-wise: each tensor contributes contiguous rows of
	// dimSize*inner elements per outer slice.
	elemSize := first.DType().Size()
	inner := 1
	for i := dim + 1; i < ndim; i++ {
		inner *= outShape[i]
	}
	outer := 1
	for i := 0; i < dim; i++ {
		outer *= outShape[i]
	}

	outData := result.Data()
	outRow := catSize * inner * elemSize

	offset := 0
	for _, t := range tensors {
		inData := t.Data()
		dimSize := t.Shape()[dim]
		inRow := dimSize * inner * elemSize
		for o := 0; o < outer; o++ {
			dst := o*outRow + offset
			copy(outData[dst:dst+inRow], inData[o*inRow:(o+1)*inRow])
		}
		offset += inRow
	}

	return result
}

// Chunk splits a tensor into n equal parts along a dimension.
// The dimension size must be divisible by n.
func (cpu *CPUBackend) Chunk(x *tensor.RawTensor, n, dim int) []*tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		exceptions.Panicf("chunk: dimension %d out of range for shape %v", dim, shape)
	}
	if n <= 0 || shape[dim]%n != 0 {
		exceptions.Panicf("chunk: cannot split dimension %d (size %d) into %d equal parts", dim, shape[dim], n)
	}

	chunkSize := shape[dim] / n
	outShape := shape.Clone()
	outShape[dim] = chunkSize

	elemSize := x.DType().Size()
	inner := 1
	for i := dim + 1; i < ndim; i++ {
		inner *= shape[i]
	}
	outer := 1
	for i := 0; i < dim; i++ {
		outer *= shape[i]
	}

	inData := x.Data()
	inRow := shape[dim] * inner * elemSize
	outRow := chunkSize * inner * elemSize

	chunks := make([]*tensor.RawTensor, n)
	for c := 0; c < n; c++ {
		result, err := tensor.NewRaw(outShape, x.DType(), cpu.device)
		if err != nil {
			exceptions.Panicf("chunk: failed to create result tensor: %v", err)
		}
		outData := result.Data()
		for o := 0; o < outer; o++ {
			src := o*inRow + c*outRow
			copy(outData[o*outRow:(o+1)*outRow], inData[src:src+outRow])
		}
		chunks[c] = result
	}

	return chunks
}

// Unsqueeze inserts a dimension of size 1 at the given position.
func (cpu *CPUBackend) Unsqueeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)
	if dim < 0 {
		dim += ndim + 1
	}
	if dim < 0 || dim > ndim {
		exceptions.Panicf("unsqueeze: dimension %d out of range for shape %v", dim, shape)
	}

	newShape := make(tensor.Shape, 0, ndim+1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, 1)
	newShape = append(newShape, shape[dim:]...)

	return x.WithShape(newShape)
}

// Squeeze removes a dimension of size 1 at the given position.
func (cpu *CPUBackend) Squeeze(x *tensor.RawTensor, dim int) *tensor.RawTensor {
	shape := x.Shape()
	ndim := len(shape)
	if dim < 0 {
		dim += ndim
	}
	if dim < 0 || dim >= ndim {
		exceptions.Panicf("squeeze: dimension %d out of range for shape %v", dim, shape)
	}
	if shape[dim] != 1 {
		exceptions.Panicf("squeeze: dimension %d has size %d, expected 1", dim, shape[dim])
	}

	newShape := make(tensor.Shape, 0, ndim-1)
	newShape = append(newShape, shape[:dim]...)
	newShape = append(newShape, shape[dim+1:]...)
	if len(newShape) == 0 {
		newShape = tensor.Shape{1}
	}

	return x.WithShape(newShape)
}
