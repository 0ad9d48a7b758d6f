package signal

import (
	"fmt"

	filter "github.com/milosgajdos/go-kalman"
)

// Measurement is a noisy measurement of a signal sample
type Measurement struct {
	// T is measurement time
	T float64
	// True is the noiseless signal value
	True float64
	// Noisy is the measured value i.e. True + noise
	Noisy float64
}

// Noisy perturbs signal samples with additive noise
type Noisy struct {
	src   *Sine
	noise filter.Noise
}

// NewNoisy creates new noisy signal which adds samples drawn from n to samples of src.
// It returns error if src or n is nil or if n is not one dimensional.
func NewNoisy(src *Sine, n filter.Noise) (*Noisy, error) {
	if src == nil || n == nil {
		return nil, fmt.Errorf("invalid noisy signal source: %v, noise: %v", src, n)
	}

	if size := n.Cov().SymmetricDim(); size != 1 {
		return nil, fmt.Errorf("invalid noise dimension: %d", size)
	}

	return &Noisy{
		src:   src,
		noise: n,
	}, nil
}

// Len returns the number of measurements.
func (n *Noisy) Len() int {
	return n.src.Len()
}

// Next returns the next noisy measurement.
// It returns false when the underlying signal has been exhausted.
func (n *Noisy) Next() (Measurement, bool) {
	s, ok := n.src.Next()
	if !ok {
		return Measurement{}, false
	}

	return Measurement{
		T:     s.T,
		True:  s.Val,
		Noisy: s.Val + n.noise.Sample().AtVec(0),
	}, true
}

// Reset rewinds the signal and resets the noise.
func (n *Noisy) Reset() error {
	n.src.Reset()

	return n.noise.Reset()
}
