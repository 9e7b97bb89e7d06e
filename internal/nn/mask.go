package nn

import (
	"github.com/gomlx/exceptions"

	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// SequenceMask derives a boolean key mask from per-batch valid lengths.
//
// lengths has shape [batch, 1]; the result has shape [batch, 1, maxLen]
// with mask[b, 0, t] = t < lengths[b]. Positions at or beyond a sequence's
// valid length are masked out of attention.
func SequenceMask[B tensor.Backend](lengths *tensor.Tensor[int32, B], maxLen int, backend B) *tensor.Tensor[bool, B] {
	shape := lengths.Shape()
	if len(shape) != 2 || shape[1] != 1 {
		exceptions.Panicf("SequenceMask: lengths must have shape [batch, 1], got %v", shape)
	}
	if maxLen <= 0 {
		exceptions.Panicf("SequenceMask: maxLen must be positive, got %d", maxLen)
	}

	batch := shape[0]
	mask := tensor.Zeros[bool](tensor.Shape{batch, 1, maxLen}, backend)
	maskData := mask.Data()
	lengthData := lengths.Data()

	for b := 0; b < batch; b++ {
		valid := int(lengthData[b])
		if valid > maxLen {
			valid = maxLen
		}
		for t := 0; t < valid; t++ {
			maskData[b*maxLen+t] = true
		}
	}

	return mask
}

// CausalMask builds a lower-triangular boolean matrix of shape
// [seqLen, seqLen]: position (i, j) is true when j <= i, forbidding
// attention to future steps when applied to alignment scores.
func CausalMask[B tensor.Backend](seqLen int, backend B) *tensor.Tensor[bool, B] {
	if seqLen <= 0 {
		exceptions.Panicf("CausalMask: seqLen must be positive, got %d", seqLen)
	}

	mask := tensor.Zeros[bool](tensor.Shape{seqLen, seqLen}, backend)
	data := mask.Data()
	for i := 0; i < seqLen; i++ {
		for j := 0; j <= i; j++ {
			data[i*seqLen+j] = true
		}
	}
	return mask
}
