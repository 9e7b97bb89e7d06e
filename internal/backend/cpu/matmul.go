package cpu

import (
	"github.com/gomlx/exceptions"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"

	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// MatMul performs 2D matrix multiplication: (M, K) @ (K, N) -> (M, N).
// The inner product is delegated to gonum's float32 BLAS implementation.
func (cpu *CPUBackend) MatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		exceptions.Panicf("matmul: expected 2D tensors, got shapes %v and %v", aShape, bShape)
	}
	if aShape[1] != bShape[0] {
		exceptions.Panicf("matmul: inner dimensions must match, got %v @ %v", aShape, bShape)
	}
	if a.DType() != tensor.Float32 || b.DType() != tensor.Float32 {
		exceptions.Panicf("matmul: requires float32 tensors, got %s and %s", a.DType(), b.DType())
	}

	m, k, n := aShape[0], aShape[1], bShape[1]

	result, err := tensor.NewRaw(tensor.Shape{m, n}, tensor.Float32, cpu.device)
	if err != nil {
		exceptions.Panicf("matmul: failed to create result tensor: %v", err)
	}

	gemm(m, k, n, a.AsFloat32(), b.AsFloat32(), result.AsFloat32())

	return result
}

// BatchMatMul performs batched matrix multiplication for 3D tensors:
// [B, M, K] @ [B, K, N] -> [B, M, N].
func (cpu *CPUBackend) BatchMatMul(a, b *tensor.RawTensor) *tensor.RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 3 || len(bShape) != 3 {
		exceptions.Panicf("batchmatmul: expected 3D tensors, got shapes %v and %v", aShape, bShape)
	}
	if aShape[0] != bShape[0] {
		exceptions.Panicf("batchmatmul: batch dimensions must match, got %v @ %v", aShape, bShape)
	}
	if aShape[2] != bShape[1] {
		exceptions.Panicf("batchmatmul: inner dimensions must match, got %v @ %v", aShape, bShape)
	}

	batch, m, k, n := aShape[0], aShape[1], aShape[2], bShape[2]

	result, err := tensor.NewRaw(tensor.Shape{batch, m, n}, tensor.Float32, cpu.device)
	if err != nil {
		exceptions.Panicf("batchmatmul: failed to create result tensor: %v", err)
	}

	aData := a.AsFloat32()
	bData := b.AsFloat32()
	outData := result.AsFloat32()

	for i := 0; i < batch; i++ {
		gemm(m, k, n,
			aData[i*m*k:(i+1)*m*k],
			bData[i*k*n:(i+1)*k*n],
			outData[i*m*n:(i+1)*m*n])
	}

	return result
}

// gemm computes c = a @ b for row-major float32 matrices.
func gemm(m, k, n int, a, b, c []float32) {
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1,
		blas32.General{Rows: m, Cols: k, Stride: k, Data: a},
		blas32.General{Rows: k, Cols: n, Stride: n, Data: b},
		0,
		blas32.General{Rows: m, Cols: n, Stride: n, Data: c})
}
