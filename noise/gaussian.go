package noise

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distmv"
)

// Gaussian is gaussian noise
type Gaussian struct {
	// dist is a multivariate normal distribution
	dist *distmv.Normal
	// mean is Gaussian mean
	mean []float64
	// cov is Gaussian covariance
	cov *mat.SymDense
	// seed is random source seed; zero means time based seed
	seed uint64
}

// NewGaussian creates new Gaussian noise with given mean and covariance.
// The noise is seeded from the current time.
// It returns error if it fails to create Gaussian.
func NewGaussian(mean []float64, cov mat.Symmetric) (*Gaussian, error) {
	return NewGaussianWithSeed(mean, cov, 0)
}

// NewGaussianWithSeed creates new Gaussian noise with given mean and covariance
// whose samples are drawn from a random source seeded with seed.
// Zero seed makes the noise seeded from the current time.
// It returns error if mean and cov dimensions differ or cov is not positive definite.
func NewGaussianWithSeed(mean []float64, cov mat.Symmetric, seed uint64) (*Gaussian, error) {
	if cov == nil || len(mean) != cov.SymmetricDim() {
		return nil, fmt.Errorf("invalid Gaussian noise dimensions: mean %d", len(mean))
	}

	m := make([]float64, len(mean))
	copy(m, mean)

	c := mat.NewSymDense(cov.SymmetricDim(), nil)
	c.CopySym(cov)

	dist, ok := newGaussianDist(m, c, seed)
	if !ok {
		return nil, fmt.Errorf("failed to create new Gaussian noise")
	}

	return &Gaussian{
		dist: dist,
		mean: m,
		cov:  c,
		seed: seed,
	}, nil
}

// Sample generates a sample from Gaussian noise and returns it.
func (g *Gaussian) Sample() mat.Vector {
	r := g.dist.Rand(nil)
	return mat.NewVecDense(len(r), r)
}

// Cov returns covariance matrix of Gaussian noise.
func (g *Gaussian) Cov() mat.Symmetric {
	cov := mat.NewSymDense(g.cov.SymmetricDim(), nil)
	cov.CopySym(g.cov)

	return cov
}

// Mean returns Gaussian mean.
func (g *Gaussian) Mean() []float64 {
	mean := make([]float64, len(g.mean))
	copy(mean, g.mean)

	return mean
}

// Reset resets Gaussian noise.
// Seeded noise replays the same sequence of samples after reset.
// It returns error if it fails to reset the noise.
func (g *Gaussian) Reset() error {
	dist, ok := newGaussianDist(g.mean, g.cov, g.seed)
	if !ok {
		return fmt.Errorf("failed to reset Gaussian noise")
	}
	g.dist = dist

	return nil
}

func newGaussianDist(mean []float64, cov mat.Symmetric, seed uint64) (*distmv.Normal, bool) {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	src := rand.NewSource(seed)

	return distmv.NewNormal(mean, cov, src)
}

// String implements the Stringer interface.
func (g *Gaussian) String() string {
	return fmt.Sprintf("Gaussian{\nMean=%v\nCov=%v\n}", g.mean, mat.Formatted(g.cov, mat.Prefix("    "), mat.Squeeze()))
}
