package nn

import (
	"github.com/gomlx/exceptions"

	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// SelfAttentionConfig configures a SelfAttention layer.
type SelfAttentionConfig struct {
	EmbedDim      int     `json:"embed_dim"`
	Scale         bool    `json:"scale"`
	DropoutRate   float32 `json:"dropout_rate"`
	FutureBinding bool    `json:"future_binding"`
	UseLayerNorm  bool    `json:"use_layer_norm"`
	Seed          int64   `json:"seed"`
}

// SelfAttention treats a single tensor as query, key and value, computes
// scaled dot-product attention over it, optionally layer-normalizes the
// result and reduces the time axis by mean to a single summary vector.
type SelfAttention[B tensor.Backend] struct {
	cfg         SelfAttentionConfig
	score       *DotScore[B]
	weightedSum *SoftmaxWeightedSum[B]
	layerNorm   *LayerNorm[B]
	backend     B
}

// NewSelfAttention creates a new SelfAttention layer.
func NewSelfAttention[B tensor.Backend](cfg SelfAttentionConfig, backend B) *SelfAttention[B] {
	if cfg.EmbedDim <= 0 {
		exceptions.Panicf("SelfAttention: embed dim must be positive, got %d", cfg.EmbedDim)
	}

	return &SelfAttention[B]{
		cfg:   cfg,
		score: NewDotScore(cfg.Scale, backend),
		weightedSum: NewSoftmaxWeightedSum(WeightedSumConfig{
			DropoutRate:   cfg.DropoutRate,
			FutureBinding: cfg.FutureBinding,
			Seed:          cfg.Seed,
		}, backend),
		layerNorm: NewLayerNorm(cfg.EmbedDim, 1e-5, backend),
		backend:   backend,
	}
}

// Config returns the layer's frozen configuration.
func (s *SelfAttention[B]) Config() SelfAttentionConfig {
	return s.cfg
}

// Forward computes self-attention over input and reduces the time axis.
//
// Shapes:
//   - input: [batch, T, C]
//   - keysLength: [batch, 1] valid length per batch element
//
// Returns [batch, 1, C].
func (s *SelfAttention[B]) Forward(
	input *tensor.Tensor[float32, B],
	keysLength *tensor.Tensor[int32, B],
	training bool,
) *tensor.Tensor[float32, B] {
	inputShape := input.Shape()
	if len(inputShape) != 3 || inputShape[2] != s.cfg.EmbedDim {
		exceptions.Panicf("SelfAttention: input must have shape [batch, T, %d], got %v",
			s.cfg.EmbedDim, inputShape)
	}

	align := s.score.Score(input, input)
	keyMask := SequenceMask(keysLength, inputShape[1], s.backend)

	output := s.weightedSum.Forward(align, input, keyMask, training)
	if s.cfg.UseLayerNorm {
		output = s.layerNorm.Forward(output)
	}

	return output.MeanDim(1, true)
}

// Parameters returns the trainable parameters of this layer.
func (s *SelfAttention[B]) Parameters() []*Parameter[B] {
	if s.cfg.UseLayerNorm {
		return s.layerNorm.Parameters()
	}
	return nil
}
