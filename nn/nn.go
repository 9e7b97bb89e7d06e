// Copyright 2025 SeqRec ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package nn

import (
	"math/rand"

	"github.com/seqrec-ml/seqrec/internal/nn"
	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// Module interface defines the common interface for single-input modules.
type Module[B tensor.Backend] = nn.Module[B]

// Parameter represents a trainable parameter in a layer.
type Parameter[B tensor.Backend] = nn.Parameter[B]

// NewParameter creates a new parameter with the given name and tensor.
func NewParameter[B tensor.Backend](name string, t *tensor.Tensor[float32, B]) *Parameter[B] {
	return nn.NewParameter(name, t)
}

// Core primitive

// WeightedSumConfig configures a SoftmaxWeightedSum layer.
type WeightedSumConfig = nn.WeightedSumConfig

// SoftmaxWeightedSum normalizes masked alignment scores with a softmax
// and returns the weighted sum of the values.
type SoftmaxWeightedSum[B tensor.Backend] = nn.SoftmaxWeightedSum[B]

// NewSoftmaxWeightedSum creates a new SoftmaxWeightedSum layer.
func NewSoftmaxWeightedSum[B tensor.Backend](cfg WeightedSumConfig, backend B) *SoftmaxWeightedSum[B] {
	return nn.NewSoftmaxWeightedSum(cfg, backend)
}

// Score functions

// ScoreFunc maps (query, key) pairs to unnormalized alignment scores.
type ScoreFunc[B tensor.Backend] = nn.ScoreFunc[B]

// DotScore computes scaled dot-product alignment scores.
type DotScore[B tensor.Backend] = nn.DotScore[B]

// NewDotScore creates a new DotScore.
func NewDotScore[B tensor.Backend](scale bool, backend B) *DotScore[B] {
	return nn.NewDotScore(scale, backend)
}

// ConcatScore scores a pre-tiled query against keys through a learned
// concat projection.
type ConcatScore[B tensor.Backend] = nn.ConcatScore[B]

// NewConcatScore creates a new ConcatScore for the given channel widths.
func NewConcatScore[B tensor.Backend](queryDim, keyDim int, scale bool, rng *rand.Rand, backend B) *ConcatScore[B] {
	return nn.NewConcatScore(queryDim, keyDim, scale, rng, backend)
}

// AdditiveScore computes Bahdanau-style additive alignment scores.
type AdditiveScore[B tensor.Backend] = nn.AdditiveScore[B]

// NewAdditiveScore creates a new AdditiveScore.
func NewAdditiveScore[B tensor.Backend](hiddenUnits int, useBias bool, activation string, rng *rand.Rand, backend B) *AdditiveScore[B] {
	return nn.NewAdditiveScore(hiddenUnits, useBias, activation, rng, backend)
}

// Attention layers

// PoolingConfig configures an AttentionSequencePooling layer.
type PoolingConfig = nn.PoolingConfig

// AttentionSequencePooling pools a user's interaction history into one
// vector conditioned on a candidate item.
type AttentionSequencePooling[B tensor.Backend] = nn.AttentionSequencePooling[B]

// NewAttentionSequencePooling creates a new AttentionSequencePooling layer.
func NewAttentionSequencePooling[B tensor.Backend](cfg PoolingConfig, backend B) *AttentionSequencePooling[B] {
	return nn.NewAttentionSequencePooling(cfg, backend)
}

// SelfAttentionConfig configures a SelfAttention layer.
type SelfAttentionConfig = nn.SelfAttentionConfig

// SelfAttention computes dot-product attention of a sequence over itself
// and reduces the time axis by mean.
type SelfAttention[B tensor.Backend] = nn.SelfAttention[B]

// NewSelfAttention creates a new SelfAttention layer.
func NewSelfAttention[B tensor.Backend](cfg SelfAttentionConfig, backend B) *SelfAttention[B] {
	return nn.NewSelfAttention(cfg, backend)
}

// MultiHeadConfig configures a SelfMultiHeadAttention layer.
type MultiHeadConfig = nn.MultiHeadConfig

// SelfMultiHeadAttention computes multi-head self-attention over a
// sequence with per-batch valid lengths.
type SelfMultiHeadAttention[B tensor.Backend] = nn.SelfMultiHeadAttention[B]

// NewSelfMultiHeadAttention creates a new SelfMultiHeadAttention layer.
func NewSelfMultiHeadAttention[B tensor.Backend](cfg MultiHeadConfig, backend B) *SelfMultiHeadAttention[B] {
	return nn.NewSelfMultiHeadAttention(cfg, backend)
}

// UserAttentionConfig configures a UserAttention layer.
type UserAttentionConfig = nn.UserAttentionConfig

// UserAttention attends a projected user query over a key sequence.
type UserAttention[B tensor.Backend] = nn.UserAttention[B]

// NewUserAttention creates a new UserAttention layer.
func NewUserAttention[B tensor.Backend](cfg UserAttentionConfig, backend B) *UserAttention[B] {
	return nn.NewUserAttention(cfg, backend)
}

// AdditiveConfig configures an AdditiveAttention layer.
type AdditiveConfig = nn.AdditiveConfig

// AdditiveAttention computes additive attention of queries over a key
// sequence, using the keys as values.
type AdditiveAttention[B tensor.Backend] = nn.AdditiveAttention[B]

// NewAdditiveAttention creates a new AdditiveAttention layer.
func NewAdditiveAttention[B tensor.Backend](cfg AdditiveConfig, backend B) *AdditiveAttention[B] {
	return nn.NewAdditiveAttention(cfg, backend)
}

// Sequence encoding

// GRU is a single gated recurrent unit layer.
type GRU[B tensor.Backend] = nn.GRU[B]

// NewGRU creates a GRU layer with deterministically initialized kernels.
func NewGRU[B tensor.Backend](inputDim, hiddenDim int, rng *rand.Rand, backend B) *GRU[B] {
	return nn.NewGRU(inputDim, hiddenDim, rng, backend)
}

// EncoderConfig configures a SequenceEncoder.
type EncoderConfig = nn.EncoderConfig

// SequenceEncoder summarizes a padded item sequence into a session
// representation combining a global and a local view.
type SequenceEncoder[B tensor.Backend] = nn.SequenceEncoder[B]

// NewSequenceEncoder creates a new SequenceEncoder.
func NewSequenceEncoder[B tensor.Backend](cfg EncoderConfig, backend B) *SequenceEncoder[B] {
	return nn.NewSequenceEncoder(cfg, backend)
}

// Building blocks

// Linear represents a fully connected (dense) layer.
type Linear[B tensor.Backend] = nn.Linear[B]

// NewLinear creates a new linear layer.
func NewLinear[B tensor.Backend](inFeatures, outFeatures int, rng *rand.Rand, backend B) *Linear[B] {
	return nn.NewLinear(inFeatures, outFeatures, rng, backend)
}

// LayerNorm applies layer normalization over the last dimension.
type LayerNorm[B tensor.Backend] = nn.LayerNorm[B]

// NewLayerNorm creates a new LayerNorm layer.
func NewLayerNorm[B tensor.Backend](normalizedShape int, epsilon float32, backend B) *LayerNorm[B] {
	return nn.NewLayerNorm(normalizedShape, epsilon, backend)
}

// Dropout zeroes elements with a fixed probability during training.
type Dropout[B tensor.Backend] = nn.Dropout[B]

// NewDropout creates a new Dropout layer.
func NewDropout[B tensor.Backend](rate float32, seed int64, backend B) *Dropout[B] {
	return nn.NewDropout(rate, seed, backend)
}

// Activations

// ReLU represents the rectified linear activation.
type ReLU[B tensor.Backend] = nn.ReLU[B]

// NewReLU creates a new ReLU activation layer.
func NewReLU[B tensor.Backend]() *ReLU[B] {
	return nn.NewReLU[B]()
}

// Sigmoid represents the logistic activation.
type Sigmoid[B tensor.Backend] = nn.Sigmoid[B]

// NewSigmoid creates a new Sigmoid activation layer.
func NewSigmoid[B tensor.Backend]() *Sigmoid[B] {
	return nn.NewSigmoid[B]()
}

// Tanh represents the hyperbolic tangent activation.
type Tanh[B tensor.Backend] = nn.Tanh[B]

// NewTanh creates a new Tanh activation layer.
func NewTanh[B tensor.Backend]() *Tanh[B] {
	return nn.NewTanh[B]()
}

// Identity passes its input through unchanged.
type Identity[B tensor.Backend] = nn.Identity[B]

// NewIdentity creates a new Identity module.
func NewIdentity[B tensor.Backend]() *Identity[B] {
	return nn.NewIdentity[B]()
}

// ActivationByName resolves a supported activation name ("tanh",
// "sigmoid", "relu", "linear") to a module.
func ActivationByName[B tensor.Backend](name string) Module[B] {
	return nn.ActivationByName[B](name)
}

// Masks

// SequenceMask derives a [batch, 1, maxLen] boolean key mask from
// per-batch valid lengths.
func SequenceMask[B tensor.Backend](lengths *tensor.Tensor[int32, B], maxLen int, backend B) *tensor.Tensor[bool, B] {
	return nn.SequenceMask(lengths, maxLen, backend)
}

// CausalMask builds a lower-triangular [seqLen, seqLen] boolean mask.
func CausalMask[B tensor.Backend](seqLen int, backend B) *tensor.Tensor[bool, B] {
	return nn.CausalMask(seqLen, backend)
}

// Initializers

// TruncatedNormal creates a tensor initialized from a truncated normal
// distribution.
func TruncatedNormal[B tensor.Backend](rng *rand.Rand, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.TruncatedNormal(rng, shape, backend)
}

// Zeros creates a tensor filled with zeros.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Zeros(shape, backend)
}

// Ones creates a tensor filled with ones.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return nn.Ones(shape, backend)
}
