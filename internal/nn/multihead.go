package nn

import (
	"math/rand"

	"github.com/gomlx/exceptions"

	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// MultiHeadConfig configures a SelfMultiHeadAttention layer.
//
// NumUnits defaults to EmbedDim when zero; the effective width is
// resolved once at construction and frozen.
type MultiHeadConfig struct {
	EmbedDim      int     `json:"embed_dim"`
	NumUnits      int     `json:"num_units"`
	HeadNum       int     `json:"head_num"`
	Scale         bool    `json:"scale"`
	DropoutRate   float32 `json:"dropout_rate"`
	FutureBinding bool    `json:"future_binding"`
	UseLayerNorm  bool    `json:"use_layer_norm"`
	UseRes        bool    `json:"use_res"`
	Seed          int64   `json:"seed"`
}

// SelfMultiHeadAttention computes multi-head self-attention over a
// sequence with per-batch valid lengths.
//
// The input is projected through a single learned matrix into
// concatenated query/key/value of width num_units*3; heads are split
// along the channel axis and concatenated along the batch axis so that
// all heads run as one batched matrix multiply. After the per-head
// masked weighted sum, heads are merged back, projected through a second
// learned matrix, passed through dropout, and optionally combined with a
// residual connection and layer normalization.
type SelfMultiHeadAttention[B tensor.Backend] struct {
	cfg MultiHeadConfig

	qkvWeight    *Parameter[B] // [embed_dim, num_units*3]
	outputWeight *Parameter[B] // [num_units, num_units]

	score       *DotScore[B]
	weightedSum *SoftmaxWeightedSum[B]
	layerNorm   *LayerNorm[B]
	dropout     *Dropout[B]
	backend     B
}

// NewSelfMultiHeadAttention creates a new SelfMultiHeadAttention layer.
//
// Validates that:
//   - HeadNum is a positive integer dividing the effective num_units
//   - EmbedDim is positive
//   - UseRes implies num_units == EmbedDim (the residual addition
//     requires matching channel widths)
func NewSelfMultiHeadAttention[B tensor.Backend](cfg MultiHeadConfig, backend B) *SelfMultiHeadAttention[B] {
	if cfg.HeadNum <= 0 {
		exceptions.Panicf("SelfMultiHeadAttention: head_num must be a int > 0, got %d", cfg.HeadNum)
	}
	if cfg.EmbedDim <= 0 {
		exceptions.Panicf("SelfMultiHeadAttention: embed dim must be positive, got %d", cfg.EmbedDim)
	}
	if cfg.NumUnits == 0 {
		cfg.NumUnits = cfg.EmbedDim
	}
	if cfg.NumUnits%cfg.HeadNum != 0 {
		exceptions.Panicf("SelfMultiHeadAttention: num_units (%d) must be divisible by head_num (%d)",
			cfg.NumUnits, cfg.HeadNum)
	}
	if cfg.UseRes && cfg.NumUnits != cfg.EmbedDim {
		exceptions.Panicf("SelfMultiHeadAttention: use_res requires num_units (%d) to equal the input channel width (%d)",
			cfg.NumUnits, cfg.EmbedDim)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	return &SelfMultiHeadAttention[B]{
		cfg: cfg,
		qkvWeight: NewParameter("qkv_weight",
			TruncatedNormal(rng, tensor.Shape{cfg.EmbedDim, cfg.NumUnits * 3}, backend)),
		outputWeight: NewParameter("output_weight",
			TruncatedNormal(rng, tensor.Shape{cfg.NumUnits, cfg.NumUnits}, backend)),
		score: NewDotScore(cfg.Scale, backend),
		weightedSum: NewSoftmaxWeightedSum(WeightedSumConfig{
			DropoutRate:   cfg.DropoutRate,
			FutureBinding: cfg.FutureBinding,
			Seed:          cfg.Seed,
		}, backend),
		layerNorm: NewLayerNorm(cfg.NumUnits, 1e-5, backend),
		dropout:   NewDropout(cfg.DropoutRate, cfg.Seed, backend),
		backend:   backend,
	}
}

// Config returns the layer's frozen configuration, including the
// resolved num_units.
func (m *SelfMultiHeadAttention[B]) Config() MultiHeadConfig {
	return m.cfg
}

// NumUnits returns the effective output channel width.
func (m *SelfMultiHeadAttention[B]) NumUnits() int {
	return m.cfg.NumUnits
}

// Forward computes multi-head self-attention.
//
// Shapes:
//   - input: [batch, T, embed_dim]
//   - keysLength: [batch, 1] valid length per batch element
//
// Returns [batch, T, num_units].
func (m *SelfMultiHeadAttention[B]) Forward(
	input *tensor.Tensor[float32, B],
	keysLength *tensor.Tensor[int32, B],
	training bool,
) *tensor.Tensor[float32, B] {
	inputShape := input.Shape()
	if len(inputShape) != 3 || inputShape[2] != m.cfg.EmbedDim {
		exceptions.Panicf("SelfMultiHeadAttention: input must have shape [batch, T, %d], got %v",
			m.cfg.EmbedDim, inputShape)
	}

	batch, histLen := inputShape[0], inputShape[1]
	units := m.cfg.NumUnits
	heads := m.cfg.HeadNum

	// Project to concatenated Q/K/V: [batch, T, units*3].
	qkv := input.Reshape(batch*histLen, m.cfg.EmbedDim).
		MatMul(m.qkvWeight.Tensor()).
		Reshape(batch, histLen, units*3)
	parts := qkv.Chunk(3, 2)
	queries, keys, values := parts[0], parts[1], parts[2]

	// Split heads along the channel axis, stack them along the batch
	// axis: [heads*batch, T, units/heads].
	queries = mergeHeads(queries, heads)
	keys = mergeHeads(keys, heads)
	values = mergeHeads(values, heads)

	align := m.score.Score(queries, keys) // [heads*batch, T, T]

	keyMask := SequenceMask(keysLength, histLen, m.backend) // [batch, 1, T]
	headMasks := make([]*tensor.Tensor[bool, B], heads)
	for h := range headMasks {
		headMasks[h] = keyMask
	}
	tiledMask := tensor.Cat(headMasks, 0) // [heads*batch, 1, T]

	outputs := m.weightedSum.Forward(align, values, tiledMask, training)

	// Inverse of the head split: back to [batch, T, units].
	merged := tensor.Cat(outputs.Chunk(heads, 0), 2)

	output := merged.Reshape(batch*histLen, units).
		MatMul(m.outputWeight.Tensor()).
		Reshape(batch, histLen, units)
	output = m.dropout.Forward(output, training)

	if m.cfg.UseRes {
		output = output.Add(input)
	}
	if m.cfg.UseLayerNorm {
		output = m.layerNorm.Forward(output)
	}

	return output
}

// mergeHeads splits x [batch, T, units] into heads along the channel
// axis and concatenates them along the batch axis, producing
// [heads*batch, T, units/heads].
func mergeHeads[B tensor.Backend](x *tensor.Tensor[float32, B], heads int) *tensor.Tensor[float32, B] {
	return tensor.Cat(x.Chunk(heads, 2), 0)
}

// Parameters returns the trainable parameters of this layer.
func (m *SelfMultiHeadAttention[B]) Parameters() []*Parameter[B] {
	params := []*Parameter[B]{m.qkvWeight, m.outputWeight}
	if m.cfg.UseLayerNorm {
		params = append(params, m.layerNorm.Parameters()...)
	}
	return params
}
