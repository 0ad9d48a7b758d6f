// Package signal generates synthetic signals used to exercise filters.
package signal

import (
	"fmt"
	"math"
)

// MaxSamples is the maximum number of samples a signal can hold
const MaxSamples = 10_000_000

// Config configures a sine wave:
//
//	s(t) = Offset + Amplitude*sin(2*pi*Frequency*t)
type Config struct {
	// Frequency is sine frequency in Hz
	Frequency float64
	// Amplitude is sine amplitude
	Amplitude float64
	// Offset is constant signal offset
	Offset float64
	// TotalTime is signal duration in seconds
	TotalTime float64
	// SamplingInterval is time between two samples in seconds
	SamplingInterval float64
}

// Sample is a single signal sample
type Sample struct {
	// T is sample time
	T float64
	// Val is sample value
	Val float64
}

// Sine is a finite, lazily generated sine wave sampled at t = k*SamplingInterval for t < TotalTime.
type Sine struct {
	c Config
	n int
	k int
}

// NewSine creates new sine signal and returns it.
// The signal holds ceil(TotalTime/SamplingInterval) samples, the same count numpy.arange(0, TotalTime, SamplingInterval) yields.
// It returns error if sampling interval is not positive, total time is negative
// or the signal would hold more than MaxSamples samples.
func NewSine(c Config) (*Sine, error) {
	if c.SamplingInterval <= 0 || math.IsNaN(c.SamplingInterval) {
		return nil, fmt.Errorf("invalid sampling interval: %v", c.SamplingInterval)
	}

	if c.TotalTime < 0 || math.IsNaN(c.TotalTime) || math.IsInf(c.TotalTime, 0) {
		return nil, fmt.Errorf("invalid total time: %v", c.TotalTime)
	}

	ratio := math.Ceil(c.TotalTime / c.SamplingInterval)
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) || ratio > MaxSamples {
		return nil, fmt.Errorf("too many samples: %v/%v exceeds %d", c.TotalTime, c.SamplingInterval, MaxSamples)
	}
	n := int(ratio)

	return &Sine{
		c: c,
		n: n,
	}, nil
}

// Len returns the number of samples in the signal.
func (s *Sine) Len() int {
	return s.n
}

// At returns k-th signal sample.
// It panics if k is out of range.
func (s *Sine) At(k int) Sample {
	if k < 0 || k >= s.n {
		panic(fmt.Sprintf("sample index out of range: %d", k))
	}

	t := float64(k) * s.c.SamplingInterval

	return Sample{
		T:   t,
		Val: s.c.Offset + s.c.Amplitude*math.Sin(2*math.Pi*s.c.Frequency*t),
	}
}

// Next returns the next signal sample.
// It returns false when the signal has been exhausted.
func (s *Sine) Next() (Sample, bool) {
	if s.k >= s.n {
		return Sample{}, false
	}

	sample := s.At(s.k)
	s.k++

	return sample, true
}

// Reset rewinds the signal to its first sample.
func (s *Sine) Reset() {
	s.k = 0
}
