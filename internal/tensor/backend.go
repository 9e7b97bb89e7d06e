package tensor

// Backend defines the interface that compute backends must implement.
// Backends handle the actual computation for tensor operations; layers
// receive a backend by dependency injection and never resolve one from
// ambient state.
type Backend interface {
	// Element-wise binary operations (with NumPy-style broadcasting)
	Add(a, b *RawTensor) *RawTensor
	Sub(a, b *RawTensor) *RawTensor
	Mul(a, b *RawTensor) *RawTensor

	// Matrix operations
	MatMul(a, b *RawTensor) *RawTensor

	// BatchMatMul performs batched matrix multiplication for 3D tensors:
	// [B, M, K] @ [B, K, N] -> [B, M, N]
	BatchMatMul(a, b *RawTensor) *RawTensor

	// Scalar operations
	MulScalar(x *RawTensor, scalar float32) *RawTensor

	// Math operations (element-wise)
	Tanh(x *RawTensor) *RawTensor
	Sigmoid(x *RawTensor) *RawTensor
	ReLU(x *RawTensor) *RawTensor
	Rsqrt(x *RawTensor) *RawTensor

	// Softmax along a dimension (numerically stable)
	Softmax(x *RawTensor, dim int) *RawTensor

	// Reduction operations
	SumDim(x *RawTensor, dim int, keepDim bool) *RawTensor
	MeanDim(x *RawTensor, dim int, keepDim bool) *RawTensor

	// Shape operations
	Reshape(t *RawTensor, newShape Shape) *RawTensor
	Transpose(t *RawTensor, axes ...int) *RawTensor
	Expand(x *RawTensor, shape Shape) *RawTensor

	// Manipulation operations
	Cat(tensors []*RawTensor, dim int) *RawTensor
	Chunk(x *RawTensor, n, dim int) []*RawTensor
	Unsqueeze(x *RawTensor, dim int) *RawTensor
	Squeeze(x *RawTensor, dim int) *RawTensor

	// Conditional element selection: condition is a Bool tensor with the
	// same shape as x and y.
	Where(condition, x, y *RawTensor) *RawTensor

	// Metadata
	Name() string
	Device() Device
}
