// Copyright 2025 SeqRec ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go CPU backend for tensor operations.
//
// # Basic Usage
//
//	import (
//	    "github.com/seqrec-ml/seqrec/backend/cpu"
//	    "github.com/seqrec-ml/seqrec/tensor"
//	    "github.com/seqrec-ml/seqrec/nn"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    x := tensor.Zeros[float32](tensor.Shape{2, 3}, backend)
//	    y := tensor.Ones[float32](tensor.Shape{2, 3}, backend)
//	    z := x.Add(y)
//
//	    pool := nn.NewAttentionSequencePooling(nn.PoolingConfig{EmbedDim: 3}, backend)
//	    _ = pool
//	    _ = z
//	}
package cpu
