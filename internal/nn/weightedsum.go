package nn

import (
	"github.com/gomlx/exceptions"

	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// maskPadding is the sentinel written into masked alignment scores before
// softmax, driving the normalized weight of masked positions to ~0.
const maskPadding = float32(-(1 << 32) + 1)

// WeightedSumConfig configures a SoftmaxWeightedSum layer.
type WeightedSumConfig struct {
	DropoutRate   float32 `json:"dropout_rate"`
	FutureBinding bool    `json:"future_binding"`
	Seed          int64   `json:"seed"`
}

// SoftmaxWeightedSum normalizes masked alignment scores with a softmax
// over the key axis and returns the weighted sum of the value sequence.
//
// It is the leaf primitive shared by every attention variant: scores are
// masked with a large negative sentinel, optionally restricted causally,
// normalized with a numerically stable softmax, passed through dropout
// during training, and multiplied with the values.
type SoftmaxWeightedSum[B tensor.Backend] struct {
	cfg     WeightedSumConfig
	dropout *Dropout[B]

	// causal caches one lower-triangular mask per observed sequence
	// length. Forward calls are single-threaded per the layer contract.
	causal  map[int]*tensor.Tensor[bool, B]
	backend B
}

// NewSoftmaxWeightedSum creates a new SoftmaxWeightedSum layer.
func NewSoftmaxWeightedSum[B tensor.Backend](cfg WeightedSumConfig, backend B) *SoftmaxWeightedSum[B] {
	return &SoftmaxWeightedSum[B]{
		cfg:     cfg,
		dropout: NewDropout(cfg.DropoutRate, cfg.Seed, backend),
		causal:  make(map[int]*tensor.Tensor[bool, B]),
		backend: backend,
	}
}

// Config returns the layer's frozen configuration.
func (s *SoftmaxWeightedSum[B]) Config() WeightedSumConfig {
	return s.cfg
}

// Forward computes the masked softmax weighted sum.
//
// Shapes:
//   - align: [batch, Tq, Tk] unnormalized alignment scores
//   - value: [batch, Tk, units]
//   - keyMask: [batch, 1, Tk] or [batch, Tq, Tk] boolean key validity
//
// Returns [batch, Tq, units].
func (s *SoftmaxWeightedSum[B]) Forward(
	align, value *tensor.Tensor[float32, B],
	keyMask *tensor.Tensor[bool, B],
	training bool,
) *tensor.Tensor[float32, B] {
	output, _ := s.ForwardWithWeights(align, value, keyMask, training)
	return output
}

// ForwardWithWeights is Forward, additionally returning the attention
// weights [batch, Tq, Tk] after masking and normalization (before
// dropout).
//
// A query row whose keys are all masked degenerates to a uniform
// distribution over every position: all logits carry the same sentinel,
// so softmax has nothing to discriminate. Callers are expected to keep at
// least one key unmasked per query row.
func (s *SoftmaxWeightedSum[B]) ForwardWithWeights(
	align, value *tensor.Tensor[float32, B],
	keyMask *tensor.Tensor[bool, B],
	training bool,
) (*tensor.Tensor[float32, B], *tensor.Tensor[float32, B]) {
	alignShape := align.Shape()
	valueShape := value.Shape()
	maskShape := keyMask.Shape()

	if len(alignShape) != 3 || len(valueShape) != 3 || len(maskShape) != 3 {
		exceptions.Panicf("SoftmaxWeightedSum: expected 3D align/value/keyMask, got %v, %v, %v",
			alignShape, valueShape, maskShape)
	}
	if alignShape[2] != valueShape[1] {
		exceptions.Panicf("SoftmaxWeightedSum: align key axis (%d) must match value time axis (%d)",
			alignShape[2], valueShape[1])
	}
	if maskShape[2] != alignShape[2] {
		exceptions.Panicf("SoftmaxWeightedSum: keyMask key axis (%d) must match align key axis (%d)",
			maskShape[2], alignShape[2])
	}

	paddings := tensor.Full[float32](alignShape, maskPadding, s.backend)

	mask := keyMask
	if !mask.Shape().Equal(alignShape) {
		mask = mask.Expand(alignShape...)
	}
	masked := tensor.Where(mask, align, paddings)

	if s.cfg.FutureBinding {
		masked = s.applyCausalMask(masked, paddings)
	}

	weights := masked.Softmax(-1)

	dropped := weights
	if training {
		dropped = s.dropout.Forward(weights, training)
	}

	return dropped.BatchMatMul(value), weights
}

// applyCausalMask forbids query position i from attending to key
// positions j > i.
func (s *SoftmaxWeightedSum[B]) applyCausalMask(
	align, paddings *tensor.Tensor[float32, B],
) *tensor.Tensor[float32, B] {
	shape := align.Shape()
	if shape[1] != shape[2] {
		exceptions.Panicf("SoftmaxWeightedSum: future binding requires square alignment, got %v", shape)
	}

	length := shape[1]
	tri, ok := s.causal[length]
	if !ok {
		tri = CausalMask(length, s.backend)
		s.causal[length] = tri
	}

	expanded := tri.Unsqueeze(0).Expand(shape...)
	return tensor.Where(expanded, align, paddings)
}
