package kf

import (
	"fmt"

	filter "github.com/milosgajdos/go-kalman"
	"github.com/milosgajdos/go-kalman/estimate"
	"github.com/milosgajdos/go-kalman/matrix"
	"github.com/milosgajdos/go-kalman/model"
	gmatrix "github.com/milosgajdos/matrix"
	"gonum.org/v1/gonum/mat"
)

// Config is KF configuration.
// All matrices are required and copied by New; the filter never modifies them.
type Config struct {
	// Transition is state transition matrix F [nx x nx]
	Transition mat.Matrix
	// Observation is observation matrix H [ny x nx]
	Observation mat.Matrix
	// ProcessNoiseCov is process noise covariance Q [nx x nx]
	ProcessNoiseCov mat.Symmetric
	// MeasurementNoiseCov is measurement noise covariance R [ny x ny]
	MeasurementNoiseCov mat.Symmetric
	// InitialCov is initial state covariance P0 [nx x nx]
	InitialCov mat.Symmetric
	// InitialState is initial state estimate x0 [nx]
	InitialState mat.Vector
	// Joseph enables Joseph form covariance update
	Joseph bool
}

// KF is Kalman Filter.
// KF mutates its state on every Predict and Update call and is not safe for concurrent use.
type KF struct {
	// m is KF system model
	m *model.Linear
	// q is state noise a.k.a. process noise covariance
	q *mat.SymDense
	// r is output noise a.k.a. measurement noise covariance
	r *mat.SymDense
	// x is KF state estimate
	x *mat.VecDense
	// p is KF state covariance matrix
	p *mat.SymDense
	// inn is innovation vector
	inn *mat.VecDense
	// k is Kalman gain
	k *mat.Dense
	// joseph enables Joseph form covariance update
	joseph bool
}

// New creates new KF and returns it.
// It returns error wrapping filter.ErrDimensionMismatch if either of the following conditions is met:
//   - any of the config matrices is missing
//   - transition matrix is not square or observation matrix columns don't match it
//   - process noise or initial covariance is not [nx x nx]
//   - measurement noise covariance is not [ny x ny]
//   - initial state length is not nx
func New(c *Config) (*KF, error) {
	if c == nil {
		return nil, fmt.Errorf("missing KF config")
	}

	if matrix.IsNil(c.ProcessNoiseCov) || matrix.IsNil(c.MeasurementNoiseCov) || matrix.IsNil(c.InitialCov) || matrix.IsNil(c.InitialState) {
		return nil, fmt.Errorf("incomplete KF config: %w", filter.ErrDimensionMismatch)
	}

	m, err := model.NewLinear(c.Transition, c.Observation)
	if err != nil {
		return nil, err
	}
	nx, ny := m.Dims()

	if n := c.ProcessNoiseCov.SymmetricDim(); n != nx {
		return nil, fmt.Errorf("invalid process noise dimension: %d != %d: %w", n, nx, filter.ErrDimensionMismatch)
	}

	if n := c.MeasurementNoiseCov.SymmetricDim(); n != ny {
		return nil, fmt.Errorf("invalid measurement noise dimension: %d != %d: %w", n, ny, filter.ErrDimensionMismatch)
	}

	if n := c.InitialCov.SymmetricDim(); n != nx {
		return nil, fmt.Errorf("invalid initial covariance dimension: %d != %d: %w", n, nx, filter.ErrDimensionMismatch)
	}

	if n := c.InitialState.Len(); n != nx {
		return nil, fmt.Errorf("invalid initial state dimension: %d != %d: %w", n, nx, filter.ErrDimensionMismatch)
	}

	q := mat.NewSymDense(nx, nil)
	q.CopySym(c.ProcessNoiseCov)

	r := mat.NewSymDense(ny, nil)
	r.CopySym(c.MeasurementNoiseCov)

	// initialize covariance matrix to initial condition covariance
	p := mat.NewSymDense(nx, nil)
	p.CopySym(c.InitialCov)

	x := mat.NewVecDense(nx, nil)
	x.CopyVec(c.InitialState)

	return &KF{
		m:      m,
		q:      q,
		r:      r,
		x:      x,
		p:      p,
		inn:    mat.NewVecDense(ny, nil),
		k:      mat.NewDense(nx, ny, nil),
		joseph: c.Joseph,
	}, nil
}

// Predict propagates KF state and its covariance to the next step and returns the predicted estimate:
//
//	x = F*x
//	P = F*P*F' + Q
func (k *KF) Predict() (filter.Estimate, error) {
	xNext, err := k.m.Propagate(k.x)
	if err != nil {
		return nil, fmt.Errorf("system state propagation failed: %w", err)
	}

	cov := &mat.Dense{}
	cov.Mul(k.m.F, k.p)
	cov.Mul(cov, k.m.F.T())
	cov.Add(cov, k.q)

	pNext, err := matrix.Symmetrize(cov)
	if err != nil {
		return nil, fmt.Errorf("covariance propagation failed: %w", err)
	}

	k.x.CopyVec(xNext)
	k.p.CopySym(pNext)

	return estimate.NewBaseWithCov(k.x, k.p)
}

// Update corrects KF state using the measurement z and returns the corrected estimate.
// It returns error wrapping filter.ErrDimensionMismatch if z has invalid dimension and
// error wrapping filter.ErrSingularInnovationCov if innovation covariance can't be inverted.
// KF state is left untouched when Update fails.
func (k *KF) Update(z mat.Vector) (filter.Estimate, error) {
	nx, ny := k.m.Dims()

	if matrix.IsNil(z) || z.Len() != ny {
		return nil, fmt.Errorf("invalid measurement supplied: %w", filter.ErrDimensionMismatch)
	}

	// predicted measurement H*x
	y, err := k.m.Observe(k.x)
	if err != nil {
		return nil, fmt.Errorf("failed to observe system output: %w", err)
	}

	pxy := mat.NewDense(nx, ny, nil)
	pyy := mat.NewDense(ny, ny, nil)

	// P*H'
	pxy.Mul(k.p, k.m.H.T())

	// Note: pxy = P * H' so we reuse the result here
	// H*P*H' + R
	pyy.Mul(k.m.H, pxy)
	pyy.Add(pyy, k.r)

	// calculate Kalman gain
	pyyInv := &mat.Dense{}
	if err := pyyInv.Inverse(pyy); err != nil {
		return nil, fmt.Errorf("failed to invert innovation covariance: %v: %w", err, filter.ErrSingularInnovationCov)
	}
	gain := &mat.Dense{}
	gain.Mul(pxy, pyyInv)

	// innovation vector
	inn := mat.NewVecDense(ny, nil)
	inn.SubVec(z, y)

	// update state x
	corr := mat.NewVecDense(nx, nil)
	corr.MulVec(gain, inn)
	x := mat.NewVecDense(nx, nil)
	x.AddVec(k.x, corr)

	eye, err := gmatrix.NewDenseValIdentity(nx, 1.0)
	if err != nil {
		return nil, err
	}
	a := &mat.Dense{}
	// K*H
	a.Mul(gain, k.m.H)
	// eye - K*H
	a.Sub(eye, a)

	pCorr := &mat.Dense{}
	pCorr.Mul(a, k.p)

	if k.joseph {
		// (I-K*H)*P*(I-K*H)' + K*R*K'
		pCorr.Mul(pCorr, a.T())
		kr := &mat.Dense{}
		kr.Mul(gain, k.r)
		krk := &mat.Dense{}
		krk.Mul(kr, gain.T())
		pCorr.Add(pCorr, krk)
	}

	p, err := matrix.Symmetrize(pCorr)
	if err != nil {
		return nil, fmt.Errorf("covariance update failed: %w", err)
	}

	k.x.CopyVec(x)
	k.p.CopySym(p)
	k.inn.CopyVec(inn)
	k.k.Copy(gain)

	return estimate.NewBaseWithCov(k.x, k.p)
}

// Run runs one step of KF for given measurement z.
// It predicts the next system state and corrects it using measurement z and returns new system estimate.
// It returns error if it either fails to propagate or correct the state.
func (k *KF) Run(z mat.Vector) (filter.Estimate, error) {
	if _, err := k.Predict(); err != nil {
		return nil, err
	}

	return k.Update(z)
}

// Model returns KF model
func (k *KF) Model() filter.DiscreteModel {
	return k.m
}

// State returns KF state estimate
func (k *KF) State() mat.Vector {
	x := &mat.VecDense{}
	x.CloneFromVec(k.x)

	return x
}

// ProcessNoiseCov returns process noise covariance
func (k *KF) ProcessNoiseCov() mat.Symmetric {
	q := mat.NewSymDense(k.q.SymmetricDim(), nil)
	q.CopySym(k.q)

	return q
}

// MeasurementNoiseCov returns measurement noise covariance
func (k *KF) MeasurementNoiseCov() mat.Symmetric {
	r := mat.NewSymDense(k.r.SymmetricDim(), nil)
	r.CopySym(k.r)

	return r
}

// Cov returns KF covariance
func (k *KF) Cov() mat.Symmetric {
	cov := mat.NewSymDense(k.p.SymmetricDim(), nil)
	cov.CopySym(k.p)

	return cov
}

// SetCov sets KF covariance matrix to cov.
// It returns error if either cov is nil or its dimensions are not the same as KF covariance dimensions.
func (k *KF) SetCov(cov mat.Symmetric) error {
	if matrix.IsNil(cov) {
		return fmt.Errorf("invalid covariance matrix: %w", filter.ErrDimensionMismatch)
	}

	if cov.SymmetricDim() != k.p.SymmetricDim() {
		return fmt.Errorf("invalid covariance matrix dims: [%d x %d]: %w", cov.SymmetricDim(), cov.SymmetricDim(), filter.ErrDimensionMismatch)
	}

	k.p.CopySym(cov)

	return nil
}

// Gain returns Kalman gain computed by the last successful Update
func (k *KF) Gain() mat.Matrix {
	gain := &mat.Dense{}
	gain.CloneFrom(k.k)

	return gain
}

// Innovation returns innovation vector computed by the last successful Update
func (k *KF) Innovation() mat.Vector {
	inn := &mat.VecDense{}
	inn.CloneFromVec(k.inn)

	return inn
}
