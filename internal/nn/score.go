package nn

import (
	"math"
	"math/rand"

	"github.com/gomlx/exceptions"

	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// ScoreFunc maps (query, key) pairs to unnormalized alignment scores.
//
// The concrete variants form a closed set: DotScore, ConcatScore and
// AdditiveScore, selected at layer construction time.
type ScoreFunc[B tensor.Backend] interface {
	// Score computes alignment scores for a batch of queries and keys.
	// Shapes are variant-specific; see each implementation.
	Score(query, key *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B]

	// Parameters returns the variant's trainable parameters, if any.
	Parameters() []*Parameter[B]
}

// DotScore computes scaled dot-product alignment scores.
//
// Shapes:
//   - query: [batch, Tq, C]
//   - key:   [batch, Tk, C]
//   - out:   [batch, Tq, Tk]
//
// Query and key must share the channel width C; when scaling is enabled
// the scores are divided by sqrt(C).
type DotScore[B tensor.Backend] struct {
	scale   bool
	backend B
}

// NewDotScore creates a new DotScore.
func NewDotScore[B tensor.Backend](scale bool, backend B) *DotScore[B] {
	return &DotScore[B]{scale: scale, backend: backend}
}

// Score computes query @ key^T, optionally scaled by 1/sqrt(C).
func (d *DotScore[B]) Score(query, key *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	queryShape := query.Shape()
	keyShape := key.Shape()
	if len(queryShape) != 3 || len(keyShape) != 3 {
		exceptions.Panicf("DotScore: expected 3D query and key, got %v and %v", queryShape, keyShape)
	}
	if queryShape[2] != keyShape[2] {
		exceptions.Panicf("DotScore: query channel width (%d) must match key channel width (%d)",
			queryShape[2], keyShape[2])
	}

	output := query.BatchMatMul(key.Transpose(0, 2, 1))
	if d.scale {
		output = output.MulScalar(float32(1.0 / math.Sqrt(float64(keyShape[2]))))
	}
	return output
}

// Parameters returns an empty slice (DotScore has no trainable parameters).
func (d *DotScore[B]) Parameters() []*Parameter[B] {
	return nil
}

// ConcatScore concatenates query and key along the channel axis and
// projects each position to a scalar logit through a learned dense layer
// with tanh activation.
//
// Shapes:
//   - query: [batch, T, Cq] (pre-tiled to the key time dimension)
//   - key:   [batch, T, Ck]
//   - out:   [batch, 1, T]
type ConcatScore[B tensor.Backend] struct {
	queryDim   int
	keyDim     int
	scale      bool
	projection *Linear[B]
	activation Module[B]
	backend    B
}

// NewConcatScore creates a new ConcatScore for the given channel widths.
func NewConcatScore[B tensor.Backend](queryDim, keyDim int, scale bool, rng *rand.Rand, backend B) *ConcatScore[B] {
	if queryDim <= 0 || keyDim <= 0 {
		exceptions.Panicf("ConcatScore: channel widths must be positive, got query=%d key=%d", queryDim, keyDim)
	}
	return &ConcatScore[B]{
		queryDim:   queryDim,
		keyDim:     keyDim,
		scale:      scale,
		projection: NewLinear(queryDim+keyDim, 1, rng, backend),
		activation: NewTanh[B](),
		backend:    backend,
	}
}

// Score concatenates query and key channel-wise, projects to a scalar per
// position, optionally scales by 1/sqrt(Ck) and transposes to [batch, 1, T].
func (c *ConcatScore[B]) Score(query, key *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	queryShape := query.Shape()
	keyShape := key.Shape()
	if len(queryShape) != 3 || len(keyShape) != 3 {
		exceptions.Panicf("ConcatScore: expected 3D query and key, got %v and %v", queryShape, keyShape)
	}
	if queryShape[1] != keyShape[1] {
		exceptions.Panicf("ConcatScore: query must be tiled to the key time dimension, got %d vs %d",
			queryShape[1], keyShape[1])
	}
	if queryShape[2] != c.queryDim || keyShape[2] != c.keyDim {
		exceptions.Panicf("ConcatScore: expected channel widths query=%d key=%d, got %d and %d",
			c.queryDim, c.keyDim, queryShape[2], keyShape[2])
	}

	batch, t := keyShape[0], keyShape[1]

	qk := tensor.Cat([]*tensor.Tensor[float32, B]{query, key}, -1)
	logits := c.activation.Forward(c.projection.Forward(qk.Reshape(batch*t, c.queryDim+c.keyDim)))
	output := logits.Reshape(batch, t, 1)

	if c.scale {
		output = output.MulScalar(float32(1.0 / math.Sqrt(float64(c.keyDim))))
	}
	return output.Transpose(0, 2, 1)
}

// Parameters returns the projection's parameters.
func (c *ConcatScore[B]) Parameters() []*Parameter[B] {
	return c.projection.Parameters()
}

// AdditiveScore computes bilinear-additive (Bahdanau-style) alignment
// scores: queries and keys are projected through separate learned maps,
// broadcast-added (optionally with a bias), passed through an activation
// and projected down to a scalar per (query, key) pair.
//
// Shapes:
//   - query: [batch, Tq, H]
//   - key:   [batch, Tk, H]
//   - out:   [batch, Tq, Tk]
//
// H must equal the configured hidden units; Score panics otherwise.
type AdditiveScore[B tensor.Backend] struct {
	hiddenUnits int
	useBias     bool
	activation  Module[B]

	queryWeight *Parameter[B] // [H, H]
	keyWeight   *Parameter[B] // [H, H]
	projection  *Parameter[B] // [H, 1]
	bias        *Parameter[B] // [H], nil unless useBias

	backend B
}

// NewAdditiveScore creates a new AdditiveScore.
func NewAdditiveScore[B tensor.Backend](hiddenUnits int, useBias bool, activation string, rng *rand.Rand, backend B) *AdditiveScore[B] {
	if hiddenUnits <= 0 {
		exceptions.Panicf("AdditiveScore: hidden units must be positive, got %d", hiddenUnits)
	}

	s := &AdditiveScore[B]{
		hiddenUnits: hiddenUnits,
		useBias:     useBias,
		activation:  ActivationByName[B](activation),
		queryWeight: NewParameter("query_weight", TruncatedNormal(rng, tensor.Shape{hiddenUnits, hiddenUnits}, backend)),
		keyWeight:   NewParameter("key_weight", TruncatedNormal(rng, tensor.Shape{hiddenUnits, hiddenUnits}, backend)),
		projection:  NewParameter("projection", TruncatedNormal(rng, tensor.Shape{hiddenUnits, 1}, backend)),
		backend:     backend,
	}
	if useBias {
		s.bias = NewParameter("bias", TruncatedNormal(rng, tensor.Shape{hiddenUnits}, backend))
	}
	return s
}

// Score computes additive alignment scores [batch, Tq, Tk].
func (a *AdditiveScore[B]) Score(query, key *tensor.Tensor[float32, B]) *tensor.Tensor[float32, B] {
	queryShape := query.Shape()
	keyShape := key.Shape()
	if len(queryShape) != 3 || len(keyShape) != 3 {
		exceptions.Panicf("AdditiveScore: expected 3D query and key, got %v and %v", queryShape, keyShape)
	}
	if queryShape[2] != a.hiddenUnits || keyShape[2] != a.hiddenUnits {
		exceptions.Panicf("AdditiveScore: hidden units (%d) must equal the last dimension of queries (%d) and keys (%d)",
			a.hiddenUnits, queryShape[2], keyShape[2])
	}

	batch, tq, tk, h := queryShape[0], queryShape[1], keyShape[1], a.hiddenUnits

	// Project and reshape for broadcast: [batch, Tq, 1, H] + [batch, 1, Tk, H].
	queries := query.Reshape(batch*tq, h).MatMul(a.queryWeight.Tensor()).Reshape(batch, tq, 1, h)
	keys := key.Reshape(batch*tk, h).MatMul(a.keyWeight.Tensor()).Reshape(batch, 1, tk, h)

	sum := queries.Add(keys)
	if a.useBias {
		sum = sum.Add(a.bias.Tensor().Reshape(1, 1, 1, h))
	}
	activated := a.activation.Forward(sum)

	return activated.Reshape(batch*tq*tk, h).MatMul(a.projection.Tensor()).Reshape(batch, tq, tk)
}

// Parameters returns the trainable parameters of this score function.
func (a *AdditiveScore[B]) Parameters() []*Parameter[B] {
	params := []*Parameter[B]{a.queryWeight, a.keyWeight, a.projection}
	if a.bias != nil {
		params = append(params, a.bias)
	}
	return params
}
