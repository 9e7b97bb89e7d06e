package nn

import (
	"math/rand"

	"github.com/gomlx/exceptions"

	"github.com/seqrec-ml/seqrec/internal/tensor"
)

// Dropout zeroes each element independently with probability rate during
// training, rescaling survivors by 1/(1-rate) (inverted dropout). It is
// the identity during inference.
type Dropout[B tensor.Backend] struct {
	rate    float32
	rng     *rand.Rand
	backend B
}

// NewDropout creates a new Dropout layer.
//
// rate must be in [0, 1); the seed makes the drop pattern reproducible.
func NewDropout[B tensor.Backend](rate float32, seed int64, backend B) *Dropout[B] {
	if rate < 0 || rate >= 1 {
		exceptions.Panicf("Dropout: rate must be in [0, 1), got %v", rate)
	}
	return &Dropout[B]{
		rate:    rate,
		rng:     rand.New(rand.NewSource(seed)),
		backend: backend,
	}
}

// Forward applies dropout when training is true; otherwise returns the
// input unchanged.
func (d *Dropout[B]) Forward(x *tensor.Tensor[float32, B], training bool) *tensor.Tensor[float32, B] {
	if !training || d.rate == 0 {
		return x
	}

	scale := 1 / (1 - d.rate)
	mask := tensor.Zeros[float32](x.Shape(), d.backend)
	maskData := mask.Data()
	for i := range maskData {
		if d.rng.Float32() >= d.rate {
			maskData[i] = scale
		}
	}

	return x.Mul(mask)
}

// Rate returns the configured dropout rate.
func (d *Dropout[B]) Rate() float32 {
	return d.rate
}
