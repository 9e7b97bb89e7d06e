// Copyright 2025 SeqRec ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// Backend defines the interface that compute backends must implement.
//
// Backends handle the actual computation for tensor operations. The
// framework ships a CPU implementation in backend/cpu; layers receive a
// backend by dependency injection and never resolve one from ambient
// state.
type Backend = tensor.Backend
