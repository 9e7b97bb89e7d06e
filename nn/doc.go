// Copyright 2025 SeqRec ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides the attention layers used by sequential
// recommendation models.
//
// # Overview
//
// This package contains:
//   - Core primitive: SoftmaxWeightedSum (masked softmax weighted sum)
//   - Score functions: DotScore, ConcatScore, AdditiveScore
//   - Attention layers: AttentionSequencePooling, SelfAttention,
//     SelfMultiHeadAttention, UserAttention, AdditiveAttention
//   - Sequence encoding: GRU, SequenceEncoder
//   - Building blocks: Linear, LayerNorm, Dropout, activations
//
// # Basic Usage
//
//	import (
//	    "github.com/seqrec-ml/seqrec/nn"
//	    "github.com/seqrec-ml/seqrec/backend/cpu"
//	    "github.com/seqrec-ml/seqrec/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    pool := nn.NewAttentionSequencePooling(nn.PoolingConfig{
//	        EmbedDim: 8,
//	        Seed:     1,
//	    }, backend)
//
//	    // query: [batch, 1, 8], keys: [batch, T, 8], lengths: [batch, 1]
//	    output := pool.Forward(query, keys, lengths, false)
//	    _ = output
//	}
//
// Every layer takes per-batch valid lengths and masks padded positions
// out of its attention distribution. Construction is deterministic: the
// Seed in each config fully determines the initialized weights.
package nn
