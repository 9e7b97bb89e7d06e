package tensor

import "fmt"

// Verify that MockBackend implements Backend.
var _ Backend = (*MockBackend)(nil)

// MockBackend is a naive backend used by the tests in this package.
// Only the operations the tensor layer itself exercises are implemented;
// everything else panics. The production implementation lives in
// internal/backend/cpu.
type MockBackend struct{}

// NewMockBackend creates a new MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Name returns the backend name.
func (m *MockBackend) Name() string {
	return "mock"
}

// Device returns the device type.
func (m *MockBackend) Device() Device {
	return CPU
}

// Add performs element-wise addition with broadcasting.
func (m *MockBackend) Add(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float32) float32 { return x + y })
}

// Sub performs element-wise subtraction with broadcasting.
func (m *MockBackend) Sub(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float32) float32 { return x - y })
}

// Mul performs element-wise multiplication with broadcasting.
func (m *MockBackend) Mul(a, b *RawTensor) *RawTensor {
	return m.elementWise(a, b, func(x, y float32) float32 { return x * y })
}

func (m *MockBackend) elementWise(a, b *RawTensor, op func(float32, float32) float32) *RawTensor {
	outShape, _, err := BroadcastShapes(a.Shape(), b.Shape())
	if err != nil {
		panic(err)
	}

	result, err := NewRaw(outShape, a.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	aData := a.AsFloat32()
	bData := b.AsFloat32()
	outData := result.AsFloat32()

	for i := 0; i < outShape.NumElements(); i++ {
		outData[i] = op(
			aData[m.broadcastIndex(i, outShape, a.Shape())],
			bData[m.broadcastIndex(i, outShape, b.Shape())],
		)
	}

	return result
}

// MatMul performs naive 2D matrix multiplication.
func (m *MockBackend) MatMul(a, b *RawTensor) *RawTensor {
	aShape := a.Shape()
	bShape := b.Shape()

	if len(aShape) != 2 || len(bShape) != 2 {
		panic("MatMul only supports 2D tensors in mock backend")
	}
	if aShape[1] != bShape[0] {
		panic(fmt.Sprintf("incompatible shapes for MatMul: %v @ %v", aShape, bShape))
	}

	rows, k, cols := aShape[0], aShape[1], bShape[1]

	result, err := NewRaw(Shape{rows, cols}, a.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	aData := a.AsFloat32()
	bData := b.AsFloat32()
	outData := result.AsFloat32()

	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			sum := float32(0)
			for l := 0; l < k; l++ {
				sum += aData[i*k+l] * bData[l*cols+j]
			}
			outData[i*cols+j] = sum
		}
	}

	return result
}

// Reshape changes the tensor shape, copying the data.
func (m *MockBackend) Reshape(t *RawTensor, newShape Shape) *RawTensor {
	if err := newShape.Validate(); err != nil {
		panic(err)
	}
	if t.NumElements() != newShape.NumElements() {
		panic(fmt.Sprintf("cannot reshape tensor with %d elements to shape %v", t.NumElements(), newShape))
	}

	result, err := NewRaw(newShape, t.DType(), m.Device())
	if err != nil {
		panic(err)
	}
	copy(result.Data(), t.Data())
	return result
}

// Transpose permutes tensor dimensions (naive implementation).
func (m *MockBackend) Transpose(t *RawTensor, axes ...int) *RawTensor {
	shape := t.Shape()

	if len(axes) == 0 {
		axes = make([]int, len(shape))
		for i := range axes {
			axes[i] = len(shape) - 1 - i
		}
	}
	if len(axes) != len(shape) {
		panic(fmt.Sprintf("axes length %d doesn't match tensor dimensions %d", len(axes), len(shape)))
	}

	newShape := make(Shape, len(shape))
	for i, axis := range axes {
		if axis < 0 || axis >= len(shape) {
			panic(fmt.Sprintf("axis %d out of bounds for %d dimensions", axis, len(shape)))
		}
		newShape[i] = shape[axis]
	}

	result, err := NewRaw(newShape, t.DType(), m.Device())
	if err != nil {
		panic(err)
	}

	tData := t.AsFloat32()
	outData := result.AsFloat32()

	oldStrides := shape.ComputeStrides()
	newStrides := newShape.ComputeStrides()

	for i := 0; i < t.NumElements(); i++ {
		indices := make([]int, len(shape))
		temp := i
		for j := 0; j < len(shape); j++ {
			indices[j] = temp / oldStrides[j]
			temp %= oldStrides[j]
		}

		newIdx := 0
		for j, axis := range axes {
			newIdx += indices[axis] * newStrides[j]
		}
		outData[newIdx] = tData[i]
	}

	return result
}

// Unimplemented operations.

func (m *MockBackend) BatchMatMul(a, b *RawTensor) *RawTensor {
	panic("BatchMatMul not implemented in mock backend")
}

func (m *MockBackend) MulScalar(x *RawTensor, scalar float32) *RawTensor {
	panic("MulScalar not implemented in mock backend")
}

func (m *MockBackend) Tanh(x *RawTensor) *RawTensor {
	panic("Tanh not implemented in mock backend")
}

func (m *MockBackend) Sigmoid(x *RawTensor) *RawTensor {
	panic("Sigmoid not implemented in mock backend")
}

func (m *MockBackend) ReLU(x *RawTensor) *RawTensor {
	panic("ReLU not implemented in mock backend")
}

func (m *MockBackend) Rsqrt(x *RawTensor) *RawTensor {
	panic("Rsqrt not implemented in mock backend")
}

func (m *MockBackend) Softmax(x *RawTensor, dim int) *RawTensor {
	panic("Softmax not implemented in mock backend")
}

func (m *MockBackend) SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor {
	panic("SumDim not implemented in mock backend")
}

func (m *MockBackend) MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor {
	panic("MeanDim not implemented in mock backend")
}

func (m *MockBackend) Expand(x *RawTensor, shape Shape) *RawTensor {
	panic("Expand not implemented in mock backend")
}

func (m *MockBackend) Cat(tensors []*RawTensor, dim int) *RawTensor {
	panic("Cat not implemented in mock backend")
}

func (m *MockBackend) Chunk(x *RawTensor, n, dim int) []*RawTensor {
	panic("Chunk not implemented in mock backend")
}

func (m *MockBackend) Unsqueeze(x *RawTensor, dim int) *RawTensor {
	panic("Unsqueeze not implemented in mock backend")
}

func (m *MockBackend) Squeeze(x *RawTensor, dim int) *RawTensor {
	panic("Squeeze not implemented in mock backend")
}

func (m *MockBackend) Where(condition, x, y *RawTensor) *RawTensor {
	panic("Where not implemented in mock backend")
}

func (m *MockBackend) broadcastIndex(flatIdx int, outShape, inShape Shape) int {
	outStrides := outShape.ComputeStrides()
	indices := make([]int, len(outShape))

	temp := flatIdx
	for i := 0; i < len(outShape); i++ {
		indices[i] = temp / outStrides[i]
		temp %= outStrides[i]
	}

	inStrides := inShape.ComputeStrides()
	inIdx := 0

	offset := len(outShape) - len(inShape)
	for i := 0; i < len(inShape); i++ {
		outDimIdx := indices[offset+i]
		if inShape[i] == 1 {
			outDimIdx = 0
		}
		inIdx += outDimIdx * inStrides[i]
	}

	return inIdx
}
