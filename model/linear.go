package model

import (
	"fmt"

	filter "github.com/milosgajdos/go-kalman"
	"github.com/milosgajdos/go-kalman/matrix"
	"gonum.org/v1/gonum/mat"
)

// Linear is a linear, discrete-time model of a dynamical system
// without control input:
//
//	x[n+1] = F*x[n]
//	y[n] = H*x[n]
type Linear struct {
	// F is state transition matrix
	F *mat.Dense
	// H is observation matrix
	H *mat.Dense
}

// NewLinear creates a new linear model with state transition matrix F and observation matrix H.
// Both matrices are copied. It returns error if either of the following conditions is met:
//   - either F or H is nil or empty
//   - F is not square
//   - H does not have the same number of columns as F
func NewLinear(F, H mat.Matrix) (*Linear, error) {
	if matrix.IsNil(F) || matrix.IsNil(H) {
		return nil, fmt.Errorf("missing model matrix: %w", filter.ErrDimensionMismatch)
	}

	rows, cols := F.Dims()
	if rows == 0 || rows != cols {
		return nil, fmt.Errorf("invalid transition matrix dimensions [%d x %d]: %w", rows, cols, filter.ErrDimensionMismatch)
	}
	nx := rows

	rows, cols = H.Dims()
	if rows == 0 || cols != nx {
		return nil, fmt.Errorf("invalid observation matrix dimensions [%d x %d]: %w", rows, cols, filter.ErrDimensionMismatch)
	}

	return &Linear{
		F: mat.DenseCopyOf(F),
		H: mat.DenseCopyOf(H),
	}, nil
}

// Propagate propagates internal state x to the next step.
// It returns error if x has invalid dimension.
func (l *Linear) Propagate(x mat.Vector) (mat.Vector, error) {
	nx, _ := l.Dims()
	if matrix.IsNil(x) || x.Len() != nx {
		return nil, fmt.Errorf("invalid state vector: %w", filter.ErrDimensionMismatch)
	}

	out := mat.NewVecDense(nx, nil)
	out.MulVec(l.F, x)

	return out, nil
}

// Observe observes external state (output) of the system given internal state x.
// It returns error if x has invalid dimension.
func (l *Linear) Observe(x mat.Vector) (mat.Vector, error) {
	nx, ny := l.Dims()
	if matrix.IsNil(x) || x.Len() != nx {
		return nil, fmt.Errorf("invalid state vector: %w", filter.ErrDimensionMismatch)
	}

	out := mat.NewVecDense(ny, nil)
	out.MulVec(l.H, x)

	return out, nil
}

// Dims returns state vector length nx and output vector length ny.
func (l *Linear) Dims() (nx, ny int) {
	nx, _ = l.F.Dims()
	ny, _ = l.H.Dims()

	return nx, ny
}

// StateMatrix returns state transition matrix
func (l *Linear) StateMatrix() mat.Matrix {
	m := &mat.Dense{}
	m.CloneFrom(l.F)

	return m
}

// OutputMatrix returns observation matrix
func (l *Linear) OutputMatrix() mat.Matrix {
	m := &mat.Dense{}
	m.CloneFrom(l.H)

	return m
}
