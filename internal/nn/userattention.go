package nn

import (
	"math/rand"

	"github.com/gomlx/exceptions"

	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// UserAttentionConfig configures a UserAttention layer.
//
// NumUnits defaults to EmbedDim when zero and must equal the key channel
// width (the projected query is dot-scored against the keys).
type UserAttentionConfig struct {
	EmbedDim    int     `json:"embed_dim"`
	NumUnits    int     `json:"num_units"`
	Activation  string  `json:"activation"`
	UseRes      bool    `json:"use_res"`
	DropoutRate float32 `json:"dropout_rate"`
	Scale       bool    `json:"scale"`
	Seed        int64   `json:"seed"`
}

// UserAttention projects a user query through a learned dense layer with
// activation, scores it against the key sequence with a scaled dot
// product, reduces the keys with a masked softmax weighted sum, optionally
// adds the keys back as a residual, and averages over the time axis.
type UserAttention[B tensor.Backend] struct {
	cfg         UserAttentionConfig
	dense       *Linear[B]
	activation  Module[B]
	score       *DotScore[B]
	weightedSum *SoftmaxWeightedSum[B]
	backend     B
}

// NewUserAttention creates a new UserAttention layer.
func NewUserAttention[B tensor.Backend](cfg UserAttentionConfig, backend B) *UserAttention[B] {
	if cfg.EmbedDim <= 0 {
		exceptions.Panicf("UserAttention: embed dim must be positive, got %d", cfg.EmbedDim)
	}
	if cfg.NumUnits == 0 {
		cfg.NumUnits = cfg.EmbedDim
	}
	if cfg.NumUnits != cfg.EmbedDim {
		exceptions.Panicf("UserAttention: num_units (%d) must equal the key channel width (%d) for dot scoring",
			cfg.NumUnits, cfg.EmbedDim)
	}

	rng := rand.New(rand.NewSource(cfg.Seed))

	return &UserAttention[B]{
		cfg:        cfg,
		dense:      NewLinear(cfg.EmbedDim, cfg.NumUnits, rng, backend),
		activation: ActivationByName[B](cfg.Activation),
		score:      NewDotScore(cfg.Scale, backend),
		weightedSum: NewSoftmaxWeightedSum(WeightedSumConfig{
			DropoutRate: cfg.DropoutRate,
			Seed:        cfg.Seed,
		}, backend),
		backend: backend,
	}
}

// Config returns the layer's frozen configuration, including the
// resolved num_units.
func (u *UserAttention[B]) Config() UserAttentionConfig {
	return u.cfg
}

// Forward attends the projected user query over the key sequence.
//
// Shapes:
//   - userQuery: [batch, Tq, C]
//   - keys: [batch, T, C]
//   - keysLength: [batch, 1] valid length per batch element
//
// Returns [batch, 1, C].
func (u *UserAttention[B]) Forward(
	userQuery, keys *tensor.Tensor[float32, B],
	keysLength *tensor.Tensor[int32, B],
	training bool,
) *tensor.Tensor[float32, B] {
	queryShape := userQuery.Shape()
	keysShape := keys.Shape()
	if len(queryShape) != 3 || queryShape[2] != u.cfg.EmbedDim {
		exceptions.Panicf("UserAttention: user query must have shape [batch, Tq, %d], got %v",
			u.cfg.EmbedDim, queryShape)
	}
	if len(keysShape) != 3 || keysShape[2] != u.cfg.EmbedDim {
		exceptions.Panicf("UserAttention: keys must have shape [batch, T, %d], got %v",
			u.cfg.EmbedDim, keysShape)
	}

	batch, tq := queryShape[0], queryShape[1]
	histLen := keysShape[1]

	query := u.activation.Forward(
		u.dense.Forward(userQuery.Reshape(batch*tq, u.cfg.EmbedDim)),
	).Reshape(batch, tq, u.cfg.NumUnits)

	align := u.score.Score(query, keys) // [batch, Tq, T]
	keyMask := SequenceMask(keysLength, histLen, u.backend)

	output := u.weightedSum.Forward(align, keys, keyMask, training)
	if u.cfg.UseRes {
		output = output.Add(keys)
	}

	return output.MeanDim(1, true)
}

// Parameters returns the trainable parameters of this layer.
func (u *UserAttention[B]) Parameters() []*Parameter[B] {
	return u.dense.Parameters()
}
