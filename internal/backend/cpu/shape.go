package cpu

import (
	"github.com/gomlx/exceptions"

	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// Expand broadcasts a tensor to a larger shape. Dimensions of size 1 are
// repeated; other dimensions must match the target shape. The target may
// have more leading dimensions than the input.
func (cpu *CPUBackend) Expand(x *tensor.RawTensor, newShape tensor.Shape) *tensor.RawTensor {
	inShape := x.Shape()
	if len(newShape) < len(inShape) {
		exceptions.Panicf("expand: target shape %v has fewer dimensions than input %v", newShape, inShape)
	}

	offset := len(newShape) - len(inShape)
	for i, d := range inShape {
		if d != 1 && d != newShape[offset+i] {
			exceptions.Panicf("expand: cannot expand shape %v to %v at dimension %d", inShape, newShape, i)
		}
	}

	result, err := tensor.NewRaw(newShape, x.DType(), cpu.device)
	if err != nil {
		exceptions.Panicf("expand: failed to create result tensor: %v", err)
	}

	outStrides := newShape.ComputeStrides()
	inStrides := computeBroadcastStridesForShape(inShape, newShape)
	elemSize := x.DType().Size()
	inData := x.Data()
	outData := result.Data()

	for i := 0; i < newShape.NumElements(); i++ {
		inIdx := computeFlatIndex(i, outStrides, inStrides)
		copy(outData[i*elemSize:(i+1)*elemSize], inData[inIdx*elemSize:(inIdx+1)*elemSize])
	}

	return result
}

// Where selects elements from x where condition is true, from y otherwise.
// condition must be a Bool tensor with the same shape as x and y.
func (cpu *CPUBackend) Where(condition, x, y *tensor.RawTensor) *tensor.RawTensor {
	if condition.DType() != tensor.Bool {
		exceptions.Panicf("where: condition must be a bool tensor, got %s", condition.DType())
	}
	if !condition.Shape().Equal(x.Shape()) || !x.Shape().Equal(y.Shape()) {
		exceptions.Panicf("where: shapes must match, got condition %v, x %v, y %v",
			condition.Shape(), x.Shape(), y.Shape())
	}
	if x.DType() != y.DType() {
		exceptions.Panicf("where: x and y must share a dtype, got %s and %s", x.DType(), y.DType())
	}

	result, err := tensor.NewRaw(x.Shape(), x.DType(), cpu.device)
	if err != nil {
		exceptions.Panicf("where: failed to create result tensor: %v", err)
	}

	cond := condition.AsBool()
	elemSize := x.DType().Size()
	xData := x.Data()
	yData := y.Data()
	outData := result.Data()

	for i, c := range cond {
		src := yData
		if c {
			src = xData
		}
		copy(outData[i*elemSize:(i+1)*elemSize], src[i*elemSize:(i+1)*elemSize])
	}

	return result
}
