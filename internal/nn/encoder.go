package nn

import (
	"math/rand"

	"github.com/gomlx/exceptions"

	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// EncoderConfig configures a SequenceEncoder.
type EncoderConfig struct {
	InputDim       int   `json:"input_dim"`
	GRUHiddenUnits []int `json:"gru_hidden_units"`
	Seed           int64 `json:"seed"`
}

// SequenceEncoder summarizes a padded item sequence into a session
// representation by stacking GRU layers and combining two views of the
// run: the final hidden state (global preference) and an attention-
// weighted sum of the per-step states keyed by that final state
// (local intent).
type SequenceEncoder[B tensor.Backend] struct {
	cfg          EncoderConfig
	grus         []*GRU[B]
	localEncoder *AdditiveAttention[B]
	backend      B
}

// NewSequenceEncoder creates a new SequenceEncoder.
func NewSequenceEncoder[B tensor.Backend](cfg EncoderConfig, backend B) *SequenceEncoder[B] {
	if cfg.InputDim <= 0 {
		exceptions.Panicf("SequenceEncoder: input_dim must be positive, got %d", cfg.InputDim)
	}
	if len(cfg.GRUHiddenUnits) == 0 {
		exceptions.Panicf("SequenceEncoder: gru_hidden_units must not be empty")
	}
	for i, h := range cfg.GRUHiddenUnits {
		if h <= 0 {
			exceptions.Panicf("SequenceEncoder: gru_hidden_units[%d] must be positive, got %d", i, h)
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	grus := make([]*GRU[B], len(cfg.GRUHiddenUnits))
	in := cfg.InputDim
	for i, h := range cfg.GRUHiddenUnits {
		grus[i] = NewGRU(in, h, rng, backend)
		in = h
	}

	lastHidden := cfg.GRUHiddenUnits[len(cfg.GRUHiddenUnits)-1]

	return &SequenceEncoder[B]{
		cfg:  cfg,
		grus: grus,
		localEncoder: NewAdditiveAttention(AdditiveConfig{
			HiddenUnits: lastHidden,
			UseBias:     false,
			Activation:  "sigmoid",
			Seed:        cfg.Seed,
		}, backend),
		backend: backend,
	}
}

// Config returns the encoder's frozen configuration.
func (e *SequenceEncoder[B]) Config() EncoderConfig {
	return e.cfg
}

// OutputDim returns the width of the encoded representation, twice the
// last GRU's hidden size.
func (e *SequenceEncoder[B]) OutputDim() int {
	return 2 * e.cfg.GRUHiddenUnits[len(e.cfg.GRUHiddenUnits)-1]
}

// Forward encodes a padded item sequence.
//
// Shapes:
//   - input: [batch, seqLen, input_dim]
//   - sequenceLength: [batch, 1] valid steps per batch element
//
// Returns [batch, 2*H] where H is the last GRU's hidden size: the
// global half is the final hidden state, the local half the attention
// summary over the per-step states.
func (e *SequenceEncoder[B]) Forward(
	input *tensor.Tensor[float32, B],
	sequenceLength *tensor.Tensor[int32, B],
	training bool,
) *tensor.Tensor[float32, B] {
	outputs := input
	var final *tensor.Tensor[float32, B]
	for _, gru := range e.grus {
		outputs, final = gru.Forward(outputs, sequenceLength)
	}

	global := final             // [batch, H]
	query := final.Unsqueeze(1) // [batch, 1, H]

	local := e.localEncoder.Forward(query, outputs, sequenceLength, training)
	localFlat := local.SumDim(1, false) // [batch, H]

	return tensor.Cat([]*tensor.Tensor[float32, B]{global, localFlat}, 1)
}

// Parameters returns the trainable parameters of this layer.
func (e *SequenceEncoder[B]) Parameters() []*Parameter[B] {
	var params []*Parameter[B]
	for _, gru := range e.grus {
		params = append(params, gru.Parameters()...)
	}
	params = append(params, e.localEncoder.Parameters()...)
	return params
}
