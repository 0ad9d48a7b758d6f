package matrix

import (
	"fmt"
	"math"
	"reflect"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// IsNil returns true if m is nil or an interface holding a nil pointer such as (*mat.VecDense)(nil).
func IsNil(m interface{}) bool {
	if m == nil {
		return true
	}

	v := reflect.ValueOf(m)

	return v.Kind() == reflect.Ptr && v.IsNil()
}

// Symmetrize returns the symmetric part of a square matrix m i.e. (m + m')/2.
// It returns error if m is nil or not square.
func Symmetrize(m mat.Matrix) (*mat.SymDense, error) {
	if IsNil(m) {
		return nil, fmt.Errorf("invalid matrix: %v", m)
	}

	rows, cols := m.Dims()
	if rows != cols {
		return nil, fmt.Errorf("matrix not square: [%d x %d]", rows, cols)
	}

	sym := mat.NewSymDense(rows, nil)
	for i := 0; i < rows; i++ {
		for j := i; j < cols; j++ {
			sym.SetSym(i, j, 0.5*(m.At(i, j)+m.At(j, i)))
		}
	}

	return sym, nil
}

// Diag returns a slice containing the main diagonal of m.
// It panics if m is nil.
func Diag(m mat.Matrix) []float64 {
	rows, cols := m.Dims()
	n := rows
	if cols < n {
		n = cols
	}

	diag := make([]float64, n)
	for i := range diag {
		diag[i] = m.At(i, i)
	}

	return diag
}

// IsSymmetric returns true if the square matrix m is symmetric within tolerance tol.
func IsSymmetric(m mat.Matrix, tol float64) bool {
	rows, cols := m.Dims()
	if rows != cols {
		return false
	}

	for i := 0; i < rows; i++ {
		for j := i + 1; j < cols; j++ {
			if math.Abs(m.At(i, j)-m.At(j, i)) > tol {
				return false
			}
		}
	}

	return true
}

// MinDiag returns the smallest value on the main diagonal of m.
// It panics if m is nil or empty.
func MinDiag(m mat.Matrix) float64 {
	return floats.Min(Diag(m))
}
