package rts

import (
	"fmt"

	filter "github.com/milosgajdos/go-kalman"
	"github.com/milosgajdos/go-kalman/estimate"
	"github.com/milosgajdos/go-kalman/matrix"
	"gonum.org/v1/gonum/mat"
)

// RTS is Rauch-Tung-Striebel smoother
type RTS struct {
	// m is system model
	m filter.DiscreteModel
	// q is state noise a.k.a. process noise covariance
	q *mat.SymDense
}

// New creates new RTS and returns it.
// It returns error if the model dimensions are invalid or q does not match the model state dimension.
func New(m filter.DiscreteModel, q mat.Symmetric) (*RTS, error) {
	if m == nil || q == nil {
		return nil, fmt.Errorf("invalid model or state noise: %w", filter.ErrDimensionMismatch)
	}

	nx, ny := m.Dims()
	if nx <= 0 || ny <= 0 {
		return nil, fmt.Errorf("invalid model dimensions: [%d x %d]: %w", nx, ny, filter.ErrDimensionMismatch)
	}

	if q.SymmetricDim() != nx {
		return nil, fmt.Errorf("invalid state noise dimension: %d: %w", q.SymmetricDim(), filter.ErrDimensionMismatch)
	}

	cov := mat.NewSymDense(nx, nil)
	cov.CopySym(q)

	return &RTS{
		m: m,
		q: cov,
	}, nil
}

// Smooth implements Rauch-Tung-Striebel smoothing algorithm.
// est must contain filtered (updated) estimates in time order.
// It returns smoothed estimates or error if either est is empty or smoothing could not be computed.
func (s *RTS) Smooth(est []filter.Estimate) ([]filter.Estimate, error) {
	if len(est) == 0 {
		return nil, fmt.Errorf("invalid estimates size")
	}

	nx, _ := s.m.Dims()
	for i := range est {
		if est[i] == nil || est[i].Val().Len() != nx {
			return nil, fmt.Errorf("invalid estimate %d: %w", i, filter.ErrDimensionMismatch)
		}
	}

	F := s.m.StateMatrix()

	sx := make([]filter.Estimate, len(est))
	// the last smoothed estimate is the last filtered estimate
	sx[len(est)-1] = est[len(est)-1]

	for i := len(est) - 2; i >= 0; i-- {
		// propagate filtered state to the next step
		xk1, err := s.m.Propagate(est[i].Val())
		if err != nil {
			return nil, fmt.Errorf("model state propagation failed: %w", err)
		}

		// propagate covariance matrix to the next step
		pk1 := &mat.Dense{}
		pk1.Mul(F, est[i].Cov())
		pk1.Mul(pk1, F.T())
		pk1.Add(pk1, s.q)

		// P_(k+1)^-1 inverse
		pinv := &mat.Dense{}
		if err := pinv.Inverse(pk1); err != nil {
			return nil, fmt.Errorf("failed to invert predicted covariance: %v", err)
		}

		// smoothing gain Ck = Pk*F'*P_(k+1)^-1
		c := &mat.Dense{}
		c.Mul(est[i].Cov(), F.T())
		c.Mul(c, pinv)

		// xk + Ck*(xs_(k+1) - x_(k+1))
		xd := mat.NewVecDense(nx, nil)
		xd.SubVec(sx[i+1].Val(), xk1)
		x := mat.NewVecDense(nx, nil)
		x.MulVec(c, xd)
		x.AddVec(est[i].Val(), x)

		// Pk + Ck*(Ps_(k+1) - P_(k+1))*Ck'
		pd := &mat.Dense{}
		pd.Sub(sx[i+1].Cov(), pk1)
		pk := &mat.Dense{}
		pk.Mul(c, pd)
		pk.Mul(pk, c.T())
		pk.Add(est[i].Cov(), pk)

		pSmooth, err := matrix.Symmetrize(pk)
		if err != nil {
			return nil, err
		}

		e, err := estimate.NewBaseWithCov(x, pSmooth)
		if err != nil {
			return nil, err
		}
		sx[i] = e
	}

	return sx, nil
}
