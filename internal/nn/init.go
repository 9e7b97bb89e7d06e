package nn

import (
	"math/rand"

	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// truncatedNormalStddev is the standard deviation used for weight
// initialization, matching the usual truncated-normal initializer default.
const truncatedNormalStddev = 0.05

// TruncatedNormal creates a tensor initialized from a truncated normal
// distribution: values are drawn from N(0, stddev) and redrawn when they
// fall more than two standard deviations from the mean.
//
// The rng carries the layer's seed, so construction is deterministic.
func TruncatedNormal[B tensor.Backend](rng *rand.Rand, shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	t := tensor.Zeros[float32](shape, backend)
	data := t.Data()
	for i := range data {
		v := rng.NormFloat64()
		for v < -2.0 || v > 2.0 {
			v = rng.NormFloat64()
		}
		data[i] = float32(v * truncatedNormalStddev)
	}
	return t
}

// Zeros creates a tensor filled with zeros.
// This is commonly used for bias initialization.
func Zeros[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Zeros[float32](shape, backend)
}

// Ones creates a tensor filled with ones.
func Ones[B tensor.Backend](shape tensor.Shape, backend B) *tensor.Tensor[float32, B] {
	return tensor.Ones[float32](shape, backend)
}
