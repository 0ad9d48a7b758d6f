package sim

import (
	"fmt"
	"math"

	filter "github.com/milosgajdos/go-kalman"
	"github.com/milosgajdos/go-kalman/kalman"
	"github.com/milosgajdos/go-kalman/kalman/kf"
	"github.com/milosgajdos/go-kalman/noise"
	"github.com/milosgajdos/go-kalman/signal"
	"github.com/milosgajdos/go-kalman/smooth/rts"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DefaultSamplingInterval is the default time between two signal samples in seconds
const DefaultSamplingInterval = 0.001

// Config is simulation configuration.
// It describes the simulated signal and the scalar Kalman filter run over it.
type Config struct {
	// Signal configures the true signal
	Signal signal.Config
	// ProcessNoise is process noise variance Q
	ProcessNoise float64
	// MeasurementNoise is measurement noise variance R
	MeasurementNoise float64
	// InitialCov is initial state variance P0
	InitialCov float64
	// InitialState is initial state estimate x0
	InitialState float64
	// Joseph enables Joseph form covariance update
	Joseph bool
	// Smooth enables Rauch-Tung-Striebel smoothing of filter estimates
	Smooth bool
	// Seed seeds measurement noise; zero seeds it from current time
	Seed uint64
}

// DefaultConfig returns default simulation configuration
func DefaultConfig() Config {
	return Config{
		Signal: signal.Config{
			Frequency:        1.0,
			Amplitude:        5.0,
			Offset:           10.0,
			TotalTime:        1.0,
			SamplingInterval: DefaultSamplingInterval,
		},
		ProcessNoise:     1.0,
		MeasurementNoise: 10.0,
		InitialCov:       1.0,
		InitialState:     0.0,
	}
}

// Result is simulation result
type Result struct {
	// Time contains sample times
	Time []float64
	// True contains true signal values
	True []float64
	// Noisy contains noisy measurements
	Noisy []float64
	// Filtered contains filter estimates
	Filtered []float64
	// Smoothed contains smoothed filter estimates; nil unless smoothing was requested
	Smoothed []float64
	// VarianceBefore is the variance of noisy measurements
	VarianceBefore float64
	// VarianceAfter is the variance of filter estimate error
	VarianceAfter float64
	// Estimate is the final filter estimate
	Estimate filter.Estimate
}

// Len returns the number of simulated samples
func (r *Result) Len() int {
	return len(r.Time)
}

// Run generates a noisy signal described by c, runs a scalar Kalman filter over it and returns the result.
// Each measurement is processed by exactly one Predict followed by one Update.
// It returns error if the config is invalid or the filter fails.
func Run(c Config) (*Result, error) {
	if !validVariance(c.ProcessNoise) || !validVariance(c.MeasurementNoise) || !validVariance(c.InitialCov) {
		return nil, fmt.Errorf("invalid noise variances: Q=%v R=%v P=%v", c.ProcessNoise, c.MeasurementNoise, c.InitialCov)
	}

	if math.IsNaN(c.InitialState) || math.IsInf(c.InitialState, 0) {
		return nil, fmt.Errorf("invalid initial state: %v", c.InitialState)
	}

	sine, err := signal.NewSine(c.Signal)
	if err != nil {
		return nil, fmt.Errorf("failed to create signal: %w", err)
	}

	wn, err := newMeasurementNoise(c.MeasurementNoise, c.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create measurement noise: %w", err)
	}

	noisy, err := signal.NewNoisy(sine, wn)
	if err != nil {
		return nil, fmt.Errorf("failed to create noisy signal: %w", err)
	}

	f, err := newFilter(c)
	if err != nil {
		return nil, fmt.Errorf("failed to create filter: %w", err)
	}

	n := noisy.Len()
	res := &Result{
		Time:     make([]float64, 0, n),
		True:     make([]float64, 0, n),
		Noisy:    make([]float64, 0, n),
		Filtered: make([]float64, 0, n),
	}

	var est []filter.Estimate
	if c.Smooth {
		est = make([]filter.Estimate, 0, n)
	}

	z := mat.NewVecDense(1, nil)
	for {
		m, ok := noisy.Next()
		if !ok {
			break
		}

		if _, err := f.Predict(); err != nil {
			return nil, fmt.Errorf("filter prediction failed at t=%v: %w", m.T, err)
		}

		z.SetVec(0, m.Noisy)
		e, err := f.Update(z)
		if err != nil {
			return nil, fmt.Errorf("filter update failed at t=%v: %w", m.T, err)
		}

		res.Time = append(res.Time, m.T)
		res.True = append(res.True, m.True)
		res.Noisy = append(res.Noisy, m.Noisy)
		res.Filtered = append(res.Filtered, e.Val().AtVec(0))
		res.Estimate = e
		if c.Smooth {
			est = append(est, e)
		}
	}

	if c.Smooth && len(est) > 0 {
		s, err := rts.New(f.Model(), f.ProcessNoiseCov())
		if err != nil {
			return nil, fmt.Errorf("failed to create smoother: %w", err)
		}

		sx, err := s.Smooth(est)
		if err != nil {
			return nil, fmt.Errorf("smoothing failed: %w", err)
		}

		res.Smoothed = make([]float64, len(sx))
		for i := range sx {
			res.Smoothed[i] = sx[i].Val().AtVec(0)
		}
	}

	if res.Len() > 0 {
		diff := make([]float64, res.Len())
		floats.SubTo(diff, res.Filtered, res.True)

		res.VarianceBefore = stat.PopVariance(res.Noisy, nil)
		res.VarianceAfter = stat.PopVariance(diff, nil)
	}

	return res, nil
}

// validVariance returns true if v is a finite, non-negative variance
func validVariance(v float64) bool {
	return v >= 0 && !math.IsInf(v, 1)
}

func newMeasurementNoise(r float64, seed uint64) (filter.Noise, error) {
	if r == 0 {
		return noise.NewZero(1)
	}

	return noise.NewGaussianWithSeed([]float64{0}, mat.NewSymDense(1, []float64{r}), seed)
}

func newFilter(c Config) (kalman.Kalman, error) {
	f, err := kf.New(&kf.Config{
		Transition:          mat.NewDense(1, 1, []float64{1.0}),
		Observation:         mat.NewDense(1, 1, []float64{1.0}),
		ProcessNoiseCov:     mat.NewSymDense(1, []float64{c.ProcessNoise}),
		MeasurementNoiseCov: mat.NewSymDense(1, []float64{c.MeasurementNoise}),
		InitialCov:          mat.NewSymDense(1, []float64{c.InitialCov}),
		InitialState:        mat.NewVecDense(1, []float64{c.InitialState}),
		Joseph:              c.Joseph,
	})
	if err != nil {
		return nil, err
	}

	return f, nil
}
