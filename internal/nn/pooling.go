package nn

import (
	"math/rand"

	"github.com/gomlx/exceptions"

	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// PoolingConfig configures an AttentionSequencePooling layer.
type PoolingConfig struct {
	EmbedDim    int     `json:"embed_dim"`
	DropoutRate float32 `json:"dropout_rate"`
	Seed        int64   `json:"seed"`
}

// AttentionSequencePooling collapses a user's variable-length interaction
// history into a single vector conditioned on a candidate item (the
// query): the query is tiled across the history, scored against each
// position with a concat projection, and the history is reduced with a
// masked softmax weighted sum.
type AttentionSequencePooling[B tensor.Backend] struct {
	cfg         PoolingConfig
	score       *ConcatScore[B]
	weightedSum *SoftmaxWeightedSum[B]
	backend     B
}

// NewAttentionSequencePooling creates a new AttentionSequencePooling layer.
func NewAttentionSequencePooling[B tensor.Backend](cfg PoolingConfig, backend B) *AttentionSequencePooling[B] {
	if cfg.EmbedDim <= 0 {
		exceptions.Panicf("AttentionSequencePooling: embed dim must be positive, got %d", cfg.EmbedDim)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	return &AttentionSequencePooling[B]{
		cfg:   cfg,
		score: NewConcatScore(cfg.EmbedDim, cfg.EmbedDim, true, rng, backend),
		weightedSum: NewSoftmaxWeightedSum(WeightedSumConfig{
			DropoutRate: cfg.DropoutRate,
			Seed:        cfg.Seed,
		}, backend),
		backend: backend,
	}
}

// Config returns the layer's frozen configuration.
func (p *AttentionSequencePooling[B]) Config() PoolingConfig {
	return p.cfg
}

// Forward pools the key sequence into one vector per batch element.
//
// Shapes:
//   - query: [batch, 1, C] candidate item embedding
//   - keys: [batch, T, C] interaction history
//   - keysLength: [batch, 1] valid history length per batch element
//
// Returns [batch, 1, C].
func (p *AttentionSequencePooling[B]) Forward(
	query, keys *tensor.Tensor[float32, B],
	keysLength *tensor.Tensor[int32, B],
	training bool,
) *tensor.Tensor[float32, B] {
	queryShape := query.Shape()
	keysShape := keys.Shape()
	if len(queryShape) != 3 || queryShape[1] != 1 {
		exceptions.Panicf("AttentionSequencePooling: query must have shape [batch, 1, C], got %v", queryShape)
	}
	if len(keysShape) != 3 || keysShape[2] != p.cfg.EmbedDim {
		exceptions.Panicf("AttentionSequencePooling: keys must have shape [batch, T, %d], got %v",
			p.cfg.EmbedDim, keysShape)
	}

	histLen := keysShape[1]

	tiled := query.Expand(keysShape[0], histLen, queryShape[2])
	align := p.score.Score(tiled, keys) // [batch, 1, T]

	keyMask := SequenceMask(keysLength, histLen, p.backend)

	return p.weightedSum.Forward(align, keys, keyMask, training)
}

// Parameters returns the trainable parameters of this layer.
func (p *AttentionSequencePooling[B]) Parameters() []*Parameter[B] {
	return p.score.Parameters()
}
