package cpu

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// Test helpers

func rawFloat32(t *testing.T, data []float32, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Float32, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsFloat32(), data)
	return raw
}

func rawBool(t *testing.T, data []bool, shape tensor.Shape) *tensor.RawTensor {
	t.Helper()
	raw, err := tensor.NewRaw(shape, tensor.Bool, tensor.CPU)
	require.NoError(t, err)
	copy(raw.AsBool(), data)
	return raw
}

func assertFloat32Slice(t *testing.T, expected []float32, actual *tensor.RawTensor, tolerance float64) {
	t.Helper()
	data := actual.AsFloat32()
	require.Len(t, data, len(expected))
	for i := range expected {
		assert.InDelta(t, float64(expected[i]), float64(data[i]), tolerance, "element %d", i)
	}
}

func TestBackend_NameAndDevice(t *testing.T) {
	backend := New()
	assert.Equal(t, "CPU", backend.Name())
	assert.Equal(t, tensor.CPU, backend.Device())
}

func TestAdd_SameShape(t *testing.T) {
	backend := New()

	a := rawFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := rawFloat32(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})

	result := backend.Add(a, b)

	assertFloat32Slice(t, []float32{11, 22, 33, 44}, result, 0)
}

func TestAdd_Broadcasting(t *testing.T) {
	backend := New()

	// [2, 3] + [3] broadcasts the vector over both rows.
	a := rawFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := rawFloat32(t, []float32{10, 20, 30}, tensor.Shape{3})

	result := backend.Add(a, b)

	require.Equal(t, tensor.Shape{2, 3}, result.Shape())
	assertFloat32Slice(t, []float32{11, 22, 33, 14, 25, 36}, result, 0)
}

func TestAdd_BroadcastMiddleDim(t *testing.T) {
	backend := New()

	// [2, 1, 2] + [2, 2, 2]
	a := rawFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 1, 2})
	b := rawFloat32(t, []float32{0, 0, 10, 10, 0, 0, 10, 10}, tensor.Shape{2, 2, 2})

	result := backend.Add(a, b)

	require.Equal(t, tensor.Shape{2, 2, 2}, result.Shape())
	assertFloat32Slice(t, []float32{1, 2, 11, 12, 3, 4, 13, 14}, result, 0)
}

func TestAdd_IncompatibleShapesPanics(t *testing.T) {
	backend := New()

	a := rawFloat32(t, []float32{1, 2, 3}, tensor.Shape{3})
	b := rawFloat32(t, []float32{1, 2}, tensor.Shape{2})

	assert.Panics(t, func() { backend.Add(a, b) })
}

func TestSubMul(t *testing.T) {
	backend := New()

	a := rawFloat32(t, []float32{5, 6, 7, 8}, tensor.Shape{2, 2})
	b := rawFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})

	assertFloat32Slice(t, []float32{4, 4, 4, 4}, backend.Sub(a, b), 0)
	assertFloat32Slice(t, []float32{5, 12, 21, 32}, backend.Mul(a, b), 0)
}

func TestMatMul(t *testing.T) {
	backend := New()

	// [2, 3] @ [3, 2]
	a := rawFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	b := rawFloat32(t, []float32{7, 8, 9, 10, 11, 12}, tensor.Shape{3, 2})

	result := backend.MatMul(a, b)

	require.Equal(t, tensor.Shape{2, 2}, result.Shape())
	assertFloat32Slice(t, []float32{58, 64, 139, 154}, result, 1e-5)
}

func TestMatMul_Identity(t *testing.T) {
	backend := New()

	a := rawFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	eye := rawFloat32(t, []float32{1, 0, 0, 1}, tensor.Shape{2, 2})

	result := backend.MatMul(a, eye)

	assertFloat32Slice(t, []float32{1, 2, 3, 4}, result, 1e-6)
}

func TestMatMul_IncompatiblePanics(t *testing.T) {
	backend := New()

	a := rawFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	b := rawFloat32(t, []float32{1, 2, 3}, tensor.Shape{3, 1})

	assert.Panics(t, func() { backend.MatMul(a, b) })
}

func TestBatchMatMul(t *testing.T) {
	backend := New()

	// Two batches of [1, 2] @ [2, 1].
	a := rawFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 1, 2})
	b := rawFloat32(t, []float32{5, 6, 7, 8}, tensor.Shape{2, 2, 1})

	result := backend.BatchMatMul(a, b)

	require.Equal(t, tensor.Shape{2, 1, 1}, result.Shape())
	assertFloat32Slice(t, []float32{17, 53}, result, 1e-5)
}

func TestBatchMatMul_BatchMismatchPanics(t *testing.T) {
	backend := New()

	a := rawFloat32(t, make([]float32, 2*1*2), tensor.Shape{2, 1, 2})
	b := rawFloat32(t, make([]float32, 3*2*1), tensor.Shape{3, 2, 1})

	assert.Panics(t, func() { backend.BatchMatMul(a, b) })
}

func TestSoftmax_RowsSumToOne(t *testing.T) {
	backend := New()

	x := rawFloat32(t, []float32{1, 2, 3, 1, 1, 1}, tensor.Shape{2, 3})
	result := backend.Softmax(x, -1)

	data := result.AsFloat32()
	for row := 0; row < 2; row++ {
		sum := float32(0)
		for c := 0; c < 3; c++ {
			sum += data[row*3+c]
		}
		assert.InDelta(t, 1.0, float64(sum), 1e-5)
	}

	// Uniform logits give uniform probabilities.
	for c := 0; c < 3; c++ {
		assert.InDelta(t, 1.0/3.0, float64(data[3+c]), 1e-5)
	}
}

func TestSoftmax_NumericalStability(t *testing.T) {
	backend := New()

	// Large logits would overflow a naive implementation.
	x := rawFloat32(t, []float32{1000, 1001, 1002}, tensor.Shape{1, 3})
	result := backend.Softmax(x, 1)

	data := result.AsFloat32()
	sum := float32(0)
	for _, v := range data {
		require.False(t, math.IsNaN(float64(v)))
		require.False(t, math.IsInf(float64(v), 0))
		sum += v
	}
	assert.InDelta(t, 1.0, float64(sum), 1e-5)
	assert.Greater(t, data[2], data[1])
	assert.Greater(t, data[1], data[0])
}

func TestSoftmax_MiddleDim(t *testing.T) {
	backend := New()

	x := rawFloat32(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}, tensor.Shape{2, 2, 2})
	result := backend.Softmax(x, 1)

	data := result.AsFloat32()
	// Columns along dim 1 must sum to one.
	for b := 0; b < 2; b++ {
		for c := 0; c < 2; c++ {
			sum := data[b*4+c] + data[b*4+2+c]
			assert.InDelta(t, 1.0, float64(sum), 1e-5)
		}
	}
}

func TestSumDimMeanDim(t *testing.T) {
	backend := New()

	x := rawFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})

	sum := backend.SumDim(x, 1, false)
	require.Equal(t, tensor.Shape{2}, sum.Shape())
	assertFloat32Slice(t, []float32{6, 15}, sum, 1e-6)

	mean := backend.MeanDim(x, 1, true)
	require.Equal(t, tensor.Shape{2, 1}, mean.Shape())
	assertFloat32Slice(t, []float32{2, 5}, mean, 1e-6)

	sumDim0 := backend.SumDim(x, 0, false)
	require.Equal(t, tensor.Shape{3}, sumDim0.Shape())
	assertFloat32Slice(t, []float32{5, 7, 9}, sumDim0, 1e-6)
}

func TestUnaryOps(t *testing.T) {
	backend := New()

	x := rawFloat32(t, []float32{-1, 0, 1}, tensor.Shape{3})

	relu := backend.ReLU(x)
	assertFloat32Slice(t, []float32{0, 0, 1}, relu, 0)

	tanh := backend.Tanh(x)
	assertFloat32Slice(t, []float32{float32(math.Tanh(-1)), 0, float32(math.Tanh(1))}, tanh, 1e-6)

	sigmoid := backend.Sigmoid(x)
	assert.InDelta(t, 0.5, float64(sigmoid.AsFloat32()[1]), 1e-6)

	scaled := backend.MulScalar(x, 2)
	assertFloat32Slice(t, []float32{-2, 0, 2}, scaled, 0)

	four := rawFloat32(t, []float32{4, 16}, tensor.Shape{2})
	rsqrt := backend.Rsqrt(four)
	assertFloat32Slice(t, []float32{0.5, 0.25}, rsqrt, 1e-6)
}

func TestReshape(t *testing.T) {
	backend := New()

	x := rawFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	result := backend.Reshape(x, tensor.Shape{3, 2})

	require.Equal(t, tensor.Shape{3, 2}, result.Shape())
	assertFloat32Slice(t, []float32{1, 2, 3, 4, 5, 6}, result, 0)

	assert.Panics(t, func() { backend.Reshape(x, tensor.Shape{4, 2}) })
}

func TestTranspose2D(t *testing.T) {
	backend := New()

	x := rawFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	result := backend.Transpose(x)

	require.Equal(t, tensor.Shape{3, 2}, result.Shape())
	assertFloat32Slice(t, []float32{1, 4, 2, 5, 3, 6}, result, 0)
}

func TestTranspose3D_SwapLastTwo(t *testing.T) {
	backend := New()

	x := rawFloat32(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}, tensor.Shape{2, 2, 2})
	result := backend.Transpose(x, 0, 2, 1)

	require.Equal(t, tensor.Shape{2, 2, 2}, result.Shape())
	assertFloat32Slice(t, []float32{1, 3, 2, 4, 5, 7, 6, 8}, result, 0)
}

func TestCat(t *testing.T) {
	backend := New()

	a := rawFloat32(t, []float32{1, 2}, tensor.Shape{1, 2})
	b := rawFloat32(t, []float32{3, 4, 5, 6}, tensor.Shape{2, 2})

	dim0 := backend.Cat([]*tensor.RawTensor{a, b}, 0)
	require.Equal(t, tensor.Shape{3, 2}, dim0.Shape())
	assertFloat32Slice(t, []float32{1, 2, 3, 4, 5, 6}, dim0, 0)

	c := rawFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	d := rawFloat32(t, []float32{9, 10}, tensor.Shape{2, 1})
	dim1 := backend.Cat([]*tensor.RawTensor{c, d}, 1)
	require.Equal(t, tensor.Shape{2, 3}, dim1.Shape())
	assertFloat32Slice(t, []float32{1, 2, 9, 3, 4, 10}, dim1, 0)
}

func TestCat_MismatchPanics(t *testing.T) {
	backend := New()

	a := rawFloat32(t, []float32{1, 2}, tensor.Shape{1, 2})
	b := rawFloat32(t, []float32{1, 2, 3}, tensor.Shape{1, 3})

	assert.Panics(t, func() { backend.Cat([]*tensor.RawTensor{a, b}, 0) })
	assert.Panics(t, func() { backend.Cat(nil, 0) })
}

func TestChunk(t *testing.T) {
	backend := New()

	x := rawFloat32(t, []float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3})
	chunks := backend.Chunk(x, 3, 1)

	require.Len(t, chunks, 3)
	for i, chunk := range chunks {
		require.Equal(t, tensor.Shape{2, 1}, chunk.Shape())
		assertFloat32Slice(t, []float32{float32(i + 1), float32(i + 4)}, chunk, 0)
	}
}

func TestChunk_CatRoundTrip(t *testing.T) {
	backend := New()

	x := rawFloat32(t, []float32{1, 2, 3, 4, 5, 6, 7, 8}, tensor.Shape{2, 4})
	chunks := backend.Chunk(x, 2, 1)
	back := backend.Cat(chunks, 1)

	require.Equal(t, x.Shape(), back.Shape())
	assertFloat32Slice(t, x.AsFloat32(), back, 0)
}

func TestChunk_IndivisiblePanics(t *testing.T) {
	backend := New()

	x := rawFloat32(t, []float32{1, 2, 3}, tensor.Shape{3})
	assert.Panics(t, func() { backend.Chunk(x, 2, 0) })
}

func TestUnsqueezeSqueeze(t *testing.T) {
	backend := New()

	x := rawFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})

	up := backend.Unsqueeze(x, 1)
	require.Equal(t, tensor.Shape{2, 1, 2}, up.Shape())

	down := backend.Squeeze(up, 1)
	require.Equal(t, tensor.Shape{2, 2}, down.Shape())

	assert.Panics(t, func() { backend.Squeeze(x, 0) })
}

func TestExpand(t *testing.T) {
	backend := New()

	x := rawFloat32(t, []float32{1, 2}, tensor.Shape{1, 2})
	result := backend.Expand(x, tensor.Shape{3, 2})

	require.Equal(t, tensor.Shape{3, 2}, result.Shape())
	assertFloat32Slice(t, []float32{1, 2, 1, 2, 1, 2}, result, 0)
}

func TestExpand_AddsLeadingDims(t *testing.T) {
	backend := New()

	x := rawFloat32(t, []float32{1, 2}, tensor.Shape{2})
	result := backend.Expand(x, tensor.Shape{2, 3, 2})

	require.Equal(t, tensor.Shape{2, 3, 2}, result.Shape())
	assertFloat32Slice(t, []float32{1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 2}, result, 0)
}

func TestExpand_InvalidPanics(t *testing.T) {
	backend := New()

	x := rawFloat32(t, []float32{1, 2, 3}, tensor.Shape{3})
	assert.Panics(t, func() { backend.Expand(x, tensor.Shape{4}) })
}

func TestWhere(t *testing.T) {
	backend := New()

	cond := rawBool(t, []bool{true, false, false, true}, tensor.Shape{2, 2})
	x := rawFloat32(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2})
	y := rawFloat32(t, []float32{10, 20, 30, 40}, tensor.Shape{2, 2})

	result := backend.Where(cond, x, y)

	assertFloat32Slice(t, []float32{1, 20, 30, 4}, result, 0)
}

func TestWhere_ShapeMismatchPanics(t *testing.T) {
	backend := New()

	cond := rawBool(t, []bool{true, false}, tensor.Shape{2})
	x := rawFloat32(t, []float32{1, 2, 3}, tensor.Shape{3})
	y := rawFloat32(t, []float32{4, 5, 6}, tensor.Shape{3})

	assert.Panics(t, func() { backend.Where(cond, x, y) })
}
