package nn

import (
	"math/rand"

	"github.com/gomlx/exceptions"

	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// AdditiveConfig configures an AdditiveAttention layer.
type AdditiveConfig struct {
	HiddenUnits int     `json:"hidden_units"`
	UseBias     bool    `json:"use_bias"`
	Activation  string  `json:"activation"`
	DropoutRate float32 `json:"dropout_rate"`
	Seed        int64   `json:"seed"`
}

// AdditiveAttention computes bilinear-additive (Bahdanau-style) attention
// of queries over a key sequence, using the keys as values.
//
// The configured hidden units must equal the trailing dimension of both
// queries and keys; the score function panics otherwise.
type AdditiveAttention[B tensor.Backend] struct {
	cfg         AdditiveConfig
	score       *AdditiveScore[B]
	weightedSum *SoftmaxWeightedSum[B]
	backend     B
}

// NewAdditiveAttention creates a new AdditiveAttention layer.
func NewAdditiveAttention[B tensor.Backend](cfg AdditiveConfig, backend B) *AdditiveAttention[B] {
	if cfg.HiddenUnits <= 0 {
		exceptions.Panicf("AdditiveAttention: hidden_units must be positive, got %d", cfg.HiddenUnits)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	return &AdditiveAttention[B]{
		cfg:   cfg,
		score: NewAdditiveScore(cfg.HiddenUnits, cfg.UseBias, cfg.Activation, rng, backend),
		weightedSum: NewSoftmaxWeightedSum(WeightedSumConfig{
			DropoutRate: cfg.DropoutRate,
			Seed:        cfg.Seed,
		}, backend),
		backend: backend,
	}
}

// Config returns the layer's frozen configuration.
func (a *AdditiveAttention[B]) Config() AdditiveConfig {
	return a.cfg
}

// Forward attends queries over the key sequence (values = keys).
//
// Shapes:
//   - queries: [batch, Tq, hidden_units]
//   - keys: [batch, Tk, hidden_units]
//   - sequenceLength: [batch, 1] valid key length per batch element
//
// Returns [batch, Tq, hidden_units].
func (a *AdditiveAttention[B]) Forward(
	queries, keys *tensor.Tensor[float32, B],
	sequenceLength *tensor.Tensor[int32, B],
	training bool,
) *tensor.Tensor[float32, B] {
	scores := a.score.Score(queries, keys) // [batch, Tq, Tk]

	keysLen := keys.Shape()[1]
	seqMask := SequenceMask(sequenceLength, keysLen, a.backend) // [batch, 1, Tk]

	return a.weightedSum.Forward(scores, keys, seqMask, training)
}

// Parameters returns the trainable parameters of this layer.
func (a *AdditiveAttention[B]) Parameters() []*Parameter[B] {
	return a.score.Parameters()
}
