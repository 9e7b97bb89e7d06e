package nn

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/seqrec-ml/seqrec/internal/backend/cpu"
	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// Test helpers shared by the layer tests in this package.

func mustTensor(t *testing.T, data []float32, shape tensor.Shape, backend *cpu.CPUBackend) *tensor.Tensor[float32, *cpu.CPUBackend] {
	t.Helper()
	out, err := tensor.FromSlice(data, shape, backend)
	require.NoError(t, err)
	return out
}

func mustLengths(t *testing.T, lengths []int32, backend *cpu.CPUBackend) *tensor.Tensor[int32, *cpu.CPUBackend] {
	t.Helper()
	out, err := tensor.FromSlice(lengths, tensor.Shape{len(lengths), 1}, backend)
	require.NoError(t, err)
	return out
}

func assertTensorsEqual(t *testing.T, expected, actual *tensor.Tensor[float32, *cpu.CPUBackend], tolerance float64) {
	t.Helper()
	require.True(t, expected.Shape().Equal(actual.Shape()),
		"shape mismatch: %v vs %v", expected.Shape(), actual.Shape())
	expData := expected.Data()
	actData := actual.Data()
	for i := range expData {
		require.InDelta(t, expData[i], actData[i], tolerance, "element %d", i)
	}
}
