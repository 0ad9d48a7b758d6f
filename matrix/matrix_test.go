package matrix

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestSymmetrize(t *testing.T) {
	assert := assert.New(t)

	m := mat.NewDense(2, 2, []float64{1.0, 2.0, 4.0, 3.0})
	exp := mat.NewSymDense(2, []float64{1.0, 3.0, 3.0, 3.0})

	sym, err := Symmetrize(m)
	assert.NoError(err)
	assert.True(mat.EqualApprox(exp, sym, 1e-12))

	sym, err = Symmetrize(mat.NewDense(2, 3, nil))
	assert.Nil(sym)
	assert.Error(err)

	sym, err = Symmetrize(nil)
	assert.Nil(sym)
	assert.Error(err)

	sym, err = Symmetrize((*mat.Dense)(nil))
	assert.Nil(sym)
	assert.Error(err)
}

func TestIsNil(t *testing.T) {
	assert := assert.New(t)

	var v mat.Vector
	assert.True(IsNil(v))

	v = (*mat.VecDense)(nil)
	assert.True(IsNil(v))

	var s mat.Symmetric = (*mat.SymDense)(nil)
	assert.True(IsNil(s))

	assert.False(IsNil(mat.NewVecDense(1, nil)))
	assert.False(IsNil(mat.NewSymDense(1, nil)))
}

func TestDiag(t *testing.T) {
	assert := assert.New(t)

	data := []float64{1.2, 3.4, 4.5, 6.7, 8.9, 10.0}
	delta := 0.001

	m := mat.NewDense(3, 2, data)
	assert.InDeltaSlice([]float64{1.2, 6.7}, Diag(m), delta)

	m = mat.NewDense(2, 3, data)
	assert.InDeltaSlice([]float64{1.2, 8.9}, Diag(m), delta)
	assert.InDelta(1.2, MinDiag(m), delta)

	// should panic
	assert.Panics(func() { Diag(nil) })
}

func TestIsSymmetric(t *testing.T) {
	assert := assert.New(t)

	assert.True(IsSymmetric(mat.NewDense(2, 2, []float64{1, 2, 2, 1}), 0))
	assert.True(IsSymmetric(mat.NewDense(2, 2, []float64{1, 2, 2.0001, 1}), 0.001))
	assert.False(IsSymmetric(mat.NewDense(2, 2, []float64{1, 2, 3, 1}), 0.001))
	assert.False(IsSymmetric(mat.NewDense(2, 3, nil), 0.001))
}
