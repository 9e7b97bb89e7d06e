package nn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seqrec-ml/seqrec/internal/backend/cpu"
	"github.com/seqrec-ml/seqrec/internal/tensor"
)

func TestNewSelfMultiHeadAttention_Validation(t *testing.T) {
	backend := cpu.New()

	assert.Panics(t, func() {
		NewSelfMultiHeadAttention(MultiHeadConfig{EmbedDim: 4, HeadNum: 0}, backend)
	})
	assert.Panics(t, func() {
		NewSelfMultiHeadAttention(MultiHeadConfig{EmbedDim: 4, HeadNum: -2}, backend)
	})
	assert.Panics(t, func() {
		NewSelfMultiHeadAttention(MultiHeadConfig{EmbedDim: 4, NumUnits: 6, HeadNum: 4}, backend)
	})
	assert.Panics(t, func() {
		NewSelfMultiHeadAttention(MultiHeadConfig{EmbedDim: 4, NumUnits: 8, HeadNum: 2, UseRes: true}, backend)
	})
}

func TestSelfMultiHeadAttention_NumUnitsDefault(t *testing.T) {
	backend := cpu.New()
	attn := NewSelfMultiHeadAttention(MultiHeadConfig{EmbedDim: 8, HeadNum: 2, Seed: 1}, backend)

	assert.Equal(t, 8, attn.NumUnits())
	assert.Equal(t, 8, attn.Config().NumUnits)
}

func TestSelfMultiHeadAttention_Shape(t *testing.T) {
	backend := cpu.New()
	attn := NewSelfMultiHeadAttention(MultiHeadConfig{EmbedDim: 4, HeadNum: 2, Seed: 1}, backend)

	input := mustTensor(t, make([]float32, 2*3*4), tensor.Shape{2, 3, 4}, backend)
	lengths := mustLengths(t, []int32{2, 3}, backend)

	output := attn.Forward(input, lengths, false)

	require.Equal(t, tensor.Shape{2, 3, 4}, output.Shape())
}

func TestSelfMultiHeadAttention_ProjectedWidth(t *testing.T) {
	backend := cpu.New()
	attn := NewSelfMultiHeadAttention(MultiHeadConfig{EmbedDim: 4, NumUnits: 6, HeadNum: 3, Seed: 1}, backend)

	input := mustTensor(t, make([]float32, 2*3*4), tensor.Shape{2, 3, 4}, backend)
	lengths := mustLengths(t, []int32{3, 3}, backend)

	output := attn.Forward(input, lengths, false)

	require.Equal(t, tensor.Shape{2, 3, 6}, output.Shape())
}

func TestSelfMultiHeadAttention_SingleHeadReduction(t *testing.T) {
	backend := cpu.New()
	attn := NewSelfMultiHeadAttention(MultiHeadConfig{
		EmbedDim: 4, HeadNum: 1, Scale: true, Seed: 7,
	}, backend)

	input := mustTensor(t, []float32{
		0.5, -1.0, 0.25, 2.0,
		1.5, 0.0, -0.5, 1.0,
		-0.75, 0.5, 1.25, -2.0,

		2.0, 1.0, 0.0, -1.0,
		0.25, -0.25, 0.75, 0.5,
		-1.5, 2.0, -0.25, 0.0,
	}, tensor.Shape{2, 3, 4}, backend)
	lengths := mustLengths(t, []int32{2, 3}, backend)

	output := attn.Forward(input, lengths, false)

	// A single head is plain dot-product attention: QKV projection,
	// scaled dot score, masked weighted sum, output projection, with no
	// head split or merge in between.
	qkv := input.Reshape(2*3, 4).
		MatMul(attn.qkvWeight.Tensor()).
		Reshape(2, 3, 4*3)
	parts := qkv.Chunk(3, 2)
	queries, keys, values := parts[0], parts[1], parts[2]

	align := NewDotScore(true, backend).Score(queries, keys)
	keyMask := SequenceMask(lengths, 3, backend)
	pooled := NewSoftmaxWeightedSum(WeightedSumConfig{}, backend).
		Forward(align, values, keyMask, false)
	expected := pooled.Reshape(2*3, 4).
		MatMul(attn.outputWeight.Tensor()).
		Reshape(2, 3, 4)

	assertTensorsEqual(t, expected, output, 1e-6)
}

func TestSelfMultiHeadAttention_ResidualDiffersByInput(t *testing.T) {
	backend := cpu.New()

	input := mustTensor(t, []float32{
		0.1, 0.2, -0.3, 0.4,
		-0.5, 0.6, 0.7, -0.8,
	}, tensor.Shape{1, 2, 4}, backend)
	lengths := mustLengths(t, []int32{2}, backend)

	cfg := MultiHeadConfig{EmbedDim: 4, HeadNum: 2, Seed: 11}
	plain := NewSelfMultiHeadAttention(cfg, backend)

	cfg.UseRes = true
	residual := NewSelfMultiHeadAttention(cfg, backend)

	outPlain := plain.Forward(input, lengths, false)
	outRes := residual.Forward(input, lengths, false)

	// Same seed means shared weights; the residual variant adds the
	// raw input back exactly.
	diff := outRes.Sub(outPlain)
	assertTensorsEqual(t, input, diff, 1e-5)
}

func TestSelfMultiHeadAttention_FutureBindingCausality(t *testing.T) {
	backend := cpu.New()
	attn := NewSelfMultiHeadAttention(MultiHeadConfig{
		EmbedDim:      4,
		HeadNum:       2,
		FutureBinding: true,
		Seed:          3,
	}, backend)

	lengths := mustLengths(t, []int32{3}, backend)

	input1 := mustTensor(t, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		9, 10, 11, 12,
	}, tensor.Shape{1, 3, 4}, backend)
	input2 := mustTensor(t, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		-12, -11, -10, -9,
	}, tensor.Shape{1, 3, 4}, backend)

	out1 := attn.Forward(input1, lengths, false)
	out2 := attn.Forward(input2, lengths, false)

	// Changing the last step must not alter earlier positions.
	for c := 0; c < 4; c++ {
		assert.InDelta(t, out1.At(0, 0, c), out2.At(0, 0, c), 1e-5)
		assert.InDelta(t, out1.At(0, 1, c), out2.At(0, 1, c), 1e-5)
	}
}

func TestSelfMultiHeadAttention_PaddedStepsDoNotLeakIntoValidOnes(t *testing.T) {
	backend := cpu.New()
	attn := NewSelfMultiHeadAttention(MultiHeadConfig{EmbedDim: 4, HeadNum: 2, Seed: 5}, backend)

	lengths := mustLengths(t, []int32{2}, backend)

	input1 := mustTensor(t, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		0, 0, 0, 0,
	}, tensor.Shape{1, 3, 4}, backend)
	input2 := mustTensor(t, []float32{
		1, 2, 3, 4,
		5, 6, 7, 8,
		100, -100, 100, -100,
	}, tensor.Shape{1, 3, 4}, backend)

	out1 := attn.Forward(input1, lengths, false)
	out2 := attn.Forward(input2, lengths, false)

	// The padded third step is masked out of every valid query's keys.
	for pos := 0; pos < 2; pos++ {
		for c := 0; c < 4; c++ {
			assert.InDelta(t, out1.At(0, pos, c), out2.At(0, pos, c), 1e-4)
		}
	}
}

func TestSelfMultiHeadAttention_Determinism(t *testing.T) {
	backend := cpu.New()
	cfg := MultiHeadConfig{
		EmbedDim:     4,
		HeadNum:      2,
		Scale:        true,
		UseLayerNorm: true,
		UseRes:       true,
		Seed:         42,
	}

	input := mustTensor(t, []float32{
		0.1, 0.2, 0.3, 0.4,
		0.5, 0.6, 0.7, 0.8,
	}, tensor.Shape{1, 2, 4}, backend)
	lengths := mustLengths(t, []int32{2}, backend)

	out1 := NewSelfMultiHeadAttention(cfg, backend).Forward(input, lengths, false)
	out2 := NewSelfMultiHeadAttention(cfg, backend).Forward(input, lengths, false)

	assertTensorsEqual(t, out1, out2, 0)
}

func TestSelfMultiHeadAttention_Parameters(t *testing.T) {
	backend := cpu.New()

	plain := NewSelfMultiHeadAttention(MultiHeadConfig{EmbedDim: 4, HeadNum: 2, Seed: 1}, backend)
	assert.Len(t, plain.Parameters(), 2)

	normed := NewSelfMultiHeadAttention(MultiHeadConfig{EmbedDim: 4, HeadNum: 2, UseLayerNorm: true, Seed: 1}, backend)
	assert.Len(t, normed.Parameters(), 4)
}
