package nn

import (
	"math/rand"

	"github.com/gomlx/exceptions"

	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// GRU is a single gated recurrent unit layer processing sequences
// step by step.
//
// The input and recurrent kernels pack the reset, update, and candidate
// gates into one matrix each, chunked apart during the forward pass.
// Steps at or beyond a sequence's valid length leave the hidden state
// unchanged and emit zero outputs.
type GRU[B tensor.Backend] struct {
	inputDim  int
	hiddenDim int

	wInput     *Parameter[B] // [inputDim, 3*hiddenDim]
	wRecurrent *Parameter[B] // [hiddenDim, 3*hiddenDim]
	bias       *Parameter[B] // [3*hiddenDim]

	backend B
}

// NewGRU creates a GRU layer with deterministically initialized kernels.
func NewGRU[B tensor.Backend](inputDim, hiddenDim int, rng *rand.Rand, backend B) *GRU[B] {
	if inputDim <= 0 {
		exceptions.Panicf("GRU: inputDim must be positive, got %d", inputDim)
	}
	if hiddenDim <= 0 {
		exceptions.Panicf("GRU: hiddenDim must be positive, got %d", hiddenDim)
	}

	return &GRU[B]{
		inputDim:  inputDim,
		hiddenDim: hiddenDim,
		wInput: NewParameter("input_kernel",
			TruncatedNormal(rng, tensor.Shape{inputDim, 3 * hiddenDim}, backend)),
		wRecurrent: NewParameter("recurrent_kernel",
			TruncatedNormal(rng, tensor.Shape{hiddenDim, 3 * hiddenDim}, backend)),
		bias: NewParameter("bias",
			Zeros(tensor.Shape{3 * hiddenDim}, backend)),
		backend: backend,
	}
}

// HiddenDim returns the size of the hidden state.
func (g *GRU[B]) HiddenDim() int {
	return g.hiddenDim
}

// Forward runs the recurrence over a padded batch of sequences.
//
// Shapes:
//   - input: [batch, seqLen, inputDim]
//   - lengths: [batch, 1] valid steps per batch element
//
// Returns the per-step hidden states [batch, seqLen, hiddenDim] (zeroed
// past each sequence's valid length) and the final hidden state
// [batch, hiddenDim] (the state after each sequence's last valid step).
func (g *GRU[B]) Forward(
	input *tensor.Tensor[float32, B],
	lengths *tensor.Tensor[int32, B],
) (outputs, final *tensor.Tensor[float32, B]) {
	shape := input.Shape()
	if len(shape) != 3 {
		exceptions.Panicf("GRU: input must be 3D [batch, seq, features], got %v", shape)
	}
	if shape[2] != g.inputDim {
		exceptions.Panicf("GRU: input feature dim %d does not match inputDim %d", shape[2], g.inputDim)
	}
	lenShape := lengths.Shape()
	if len(lenShape) != 2 || lenShape[0] != shape[0] || lenShape[1] != 1 {
		exceptions.Panicf("GRU: lengths must have shape [%d, 1], got %v", shape[0], lenShape)
	}

	batch, seqLen := shape[0], shape[1]
	lengthData := lengths.Data()

	h := tensor.Zeros[float32](tensor.Shape{batch, g.hiddenDim}, g.backend)
	zero := tensor.Zeros[float32](tensor.Shape{batch, g.hiddenDim}, g.backend)

	steps := input.Chunk(seqLen, 1)
	stepOutputs := make([]*tensor.Tensor[float32, B], seqLen)

	for t := 0; t < seqLen; t++ {
		x := steps[t].Squeeze(1) // [batch, inputDim]

		xProj := x.MatMul(g.wInput.Tensor()).Add(g.bias.Tensor()) // [batch, 3H]
		hProj := h.MatMul(g.wRecurrent.Tensor())                  // [batch, 3H]

		xGates := xProj.Chunk(3, 1)
		hGates := hProj.Chunk(3, 1)

		reset := xGates[0].Add(hGates[0]).Sigmoid()
		update := xGates[1].Add(hGates[1]).Sigmoid()
		candidate := xGates[2].Add(reset.Mul(hGates[2])).Tanh()

		one := tensor.Ones[float32](update.Shape(), g.backend)
		hNew := update.Mul(h).Add(one.Sub(update).Mul(candidate))

		// Freeze the state for sequences that already ended.
		mask := g.stepMask(t, batch, lengthData)
		h = tensor.Where(mask, hNew, h)
		stepOutputs[t] = tensor.Where(mask, hNew, zero).Unsqueeze(1)
	}

	return tensor.Cat(stepOutputs, 1), h
}

// stepMask builds a [batch, hiddenDim] boolean tensor that is true for
// batch elements whose sequence is still active at step t.
func (g *GRU[B]) stepMask(t, batch int, lengthData []int32) *tensor.Tensor[bool, B] {
	mask := tensor.Zeros[bool](tensor.Shape{batch, g.hiddenDim}, g.backend)
	data := mask.Data()
	for b := 0; b < batch; b++ {
		if t < int(lengthData[b]) {
			for i := 0; i < g.hiddenDim; i++ {
				data[b*g.hiddenDim+i] = true
			}
		}
	}
	return mask
}

// Parameters returns the trainable parameters of this layer.
func (g *GRU[B]) Parameters() []*Parameter[B] {
	return []*Parameter[B]{g.wInput, g.wRecurrent, g.bias}
}
