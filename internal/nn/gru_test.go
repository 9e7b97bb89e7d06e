package nn

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqrec-ml/seqrec/internal/backend/cpu"
	"github.com/seqrec-ml/seqrec/internal/tensor"
)

func TestGRU_Shapes(t *testing.T) {
	backend := cpu.New()
	gru := NewGRU(3, 5, rand.New(rand.NewSource(1)), backend)

	input := mustTensor(t, make([]float32, 2*4*3), tensor.Shape{2, 4, 3}, backend)
	lengths := mustLengths(t, []int32{4, 2}, backend)

	outputs, final := gru.Forward(input, lengths)

	require.Equal(t, tensor.Shape{2, 4, 5}, outputs.Shape())
	require.Equal(t, tensor.Shape{2, 5}, final.Shape())
}

func TestGRU_PaddingInvariance(t *testing.T) {
	backend := cpu.New()
	gru := NewGRU(2, 3, rand.New(rand.NewSource(2)), backend)

	lengths := mustLengths(t, []int32{2}, backend)

	input1 := mustTensor(t, []float32{
		1, 2,
		3, 4,
		0, 0,
	}, tensor.Shape{1, 3, 2}, backend)
	input2 := mustTensor(t, []float32{
		1, 2,
		3, 4,
		50, -50,
	}, tensor.Shape{1, 3, 2}, backend)

	out1, final1 := gru.Forward(input1, lengths)
	out2, final2 := gru.Forward(input2, lengths)

	// Steps past the valid length must not touch the state or outputs.
	assertTensorsEqual(t, out1, out2, 0)
	assertTensorsEqual(t, final1, final2, 0)
}

func TestGRU_OutputsZeroPastLength(t *testing.T) {
	backend := cpu.New()
	gru := NewGRU(2, 3, rand.New(rand.NewSource(3)), backend)

	input := mustTensor(t, []float32{
		1, 2,
		3, 4,
		5, 6,
	}, tensor.Shape{1, 3, 2}, backend)
	lengths := mustLengths(t, []int32{1}, backend)

	outputs, _ := gru.Forward(input, lengths)

	for step := 1; step < 3; step++ {
		for h := 0; h < 3; h++ {
			assert.Zero(t, outputs.At(0, step, h), "step %d unit %d", step, h)
		}
	}
}

func TestGRU_FinalMatchesLastValidOutput(t *testing.T) {
	backend := cpu.New()
	gru := NewGRU(2, 4, rand.New(rand.NewSource(4)), backend)

	input := mustTensor(t, []float32{
		1, -1,
		2, -2,
		3, -3,
		9, 9,
	}, tensor.Shape{1, 4, 2}, backend)
	lengths := mustLengths(t, []int32{3}, backend)

	outputs, final := gru.Forward(input, lengths)

	for h := 0; h < 4; h++ {
		assert.InDelta(t, outputs.At(0, 2, h), final.At(0, h), 1e-6)
	}
}

func TestGRU_PerBatchLengths(t *testing.T) {
	backend := cpu.New()
	gru := NewGRU(2, 3, rand.New(rand.NewSource(5)), backend)

	// Batch element 0 runs a single step, element 1 uses all three.
	input := mustTensor(t, []float32{
		1, 2, 3, 4, 5, 6,
		1, 2, 3, 4, 5, 6,
	}, tensor.Shape{2, 3, 2}, backend)
	lengths := mustLengths(t, []int32{1, 3}, backend)

	outputs, final := gru.Forward(input, lengths)

	// Identical inputs, different lengths: first-step outputs match,
	// final states differ.
	for h := 0; h < 3; h++ {
		assert.InDelta(t, outputs.At(0, 0, h), outputs.At(1, 0, h), 1e-6)
		assert.Zero(t, outputs.At(0, 1, h))
	}

	same := true
	for h := 0; h < 3; h++ {
		if final.At(0, h) != final.At(1, h) {
			same = false
		}
	}
	assert.False(t, same, "final states should differ for different lengths")
}

func TestGRU_HiddenValuesBounded(t *testing.T) {
	backend := cpu.New()
	gru := NewGRU(2, 3, rand.New(rand.NewSource(6)), backend)

	input := mustTensor(t, []float32{
		100, -100,
		100, -100,
	}, tensor.Shape{1, 2, 2}, backend)
	lengths := mustLengths(t, []int32{2}, backend)

	_, final := gru.Forward(input, lengths)

	// The candidate tanh and convex gate updates keep h in (-1, 1).
	for _, v := range final.Data() {
		assert.Less(t, float64(v), 1.0)
		assert.Greater(t, float64(v), -1.0)
	}
}

func TestNewGRU_InvalidDimsPanic(t *testing.T) {
	backend := cpu.New()
	rng := rand.New(rand.NewSource(1))

	assert.Panics(t, func() { NewGRU(0, 3, rng, backend) })
	assert.Panics(t, func() { NewGRU(3, 0, rng, backend) })
}

func TestGRU_BadInputShapesPanic(t *testing.T) {
	backend := cpu.New()
	gru := NewGRU(2, 3, rand.New(rand.NewSource(1)), backend)

	flat := mustTensor(t, []float32{1, 2, 3, 4}, tensor.Shape{2, 2}, backend)
	lengths := mustLengths(t, []int32{2}, backend)
	assert.Panics(t, func() { gru.Forward(flat, lengths) })

	wrongFeatures := mustTensor(t, make([]float32, 1*2*3), tensor.Shape{1, 2, 3}, backend)
	assert.Panics(t, func() { gru.Forward(wrongFeatures, lengths) })
}
