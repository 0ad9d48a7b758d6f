package kf

import (
	"os"
	"testing"

	filter "github.com/milosgajdos/go-kalman"
	"github.com/milosgajdos/go-kalman/kalman"
	"github.com/milosgajdos/go-kalman/matrix"
	"github.com/milosgajdos/go-kalman/noise"
	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var _ kalman.Kalman = (*KF)(nil)

var (
	okConfig     *Config
	scalarConfig *Config
	z            *mat.VecDense
)

func setup() {
	z = mat.NewVecDense(1, []float64{-1.5})

	initState := mat.NewVecDense(2, []float64{1.0, 3.0})
	initCov := mat.NewSymDense(2, []float64{0.25, 0, 0, 0.25})

	okConfig = &Config{
		Transition:          mat.NewDense(2, 2, []float64{1.0, 1.0, 0.0, 1.0}),
		Observation:         mat.NewDense(1, 2, []float64{1.0, 0.0}),
		ProcessNoiseCov:     mat.NewSymDense(2, []float64{0.25, 0, 0, 0.25}),
		MeasurementNoiseCov: mat.NewSymDense(1, []float64{0.25}),
		InitialCov:          initCov,
		InitialState:        initState,
	}

	scalarConfig = newScalarConfig(1.0, 10.0, 1.0, 0.0)
}

func newScalarConfig(q, r, p, x float64) *Config {
	return &Config{
		Transition:          mat.NewDense(1, 1, []float64{1.0}),
		Observation:         mat.NewDense(1, 1, []float64{1.0}),
		ProcessNoiseCov:     mat.NewSymDense(1, []float64{q}),
		MeasurementNoiseCov: mat.NewSymDense(1, []float64{r}),
		InitialCov:          mat.NewSymDense(1, []float64{p}),
		InitialState:        mat.NewVecDense(1, []float64{x}),
	}
}

func TestMain(m *testing.M) {
	// set up tests
	setup()
	// run the tests
	retCode := m.Run()
	// call with result of m.Run()
	os.Exit(retCode)
}

func TestKFNew(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okConfig)
	assert.NoError(err)
	assert.NotNil(f)

	f, err = New(nil)
	assert.Nil(f)
	assert.Error(err)

	for _, mod := range []func(c *Config){
		func(c *Config) { c.Transition = nil },
		func(c *Config) { c.InitialState = nil },
		func(c *Config) { c.Transition = (*mat.Dense)(nil) },
		func(c *Config) { c.ProcessNoiseCov = (*mat.SymDense)(nil) },
		func(c *Config) { c.MeasurementNoiseCov = (*mat.SymDense)(nil) },
		func(c *Config) { c.InitialCov = (*mat.SymDense)(nil) },
		func(c *Config) { c.InitialState = (*mat.VecDense)(nil) },
		func(c *Config) { c.Transition = mat.NewDense(2, 3, nil) },
		func(c *Config) { c.Observation = mat.NewDense(1, 3, nil) },
		func(c *Config) { c.ProcessNoiseCov = mat.NewSymDense(3, nil) },
		func(c *Config) { c.MeasurementNoiseCov = mat.NewSymDense(2, nil) },
		func(c *Config) { c.InitialCov = mat.NewSymDense(1, nil) },
		func(c *Config) { c.InitialState = mat.NewVecDense(3, nil) },
	} {
		c := *okConfig
		mod(&c)
		f, err = New(&c)
		assert.Nil(f)
		assert.ErrorIs(err, filter.ErrDimensionMismatch)
	}
}

func TestKFConfigCopied(t *testing.T) {
	assert := assert.New(t)

	c := newScalarConfig(1.0, 10.0, 1.0, 0.0)
	f, err := New(c)
	assert.NotNil(f)
	assert.NoError(err)

	c.Transition.(*mat.Dense).Set(0, 0, 5.0)
	c.InitialState.(*mat.VecDense).SetVec(0, 100.0)
	c.MeasurementNoiseCov.(*mat.SymDense).SetSym(0, 0, 1.0)

	assert.Equal(1.0, f.Model().StateMatrix().At(0, 0))
	assert.Equal(0.0, f.State().AtVec(0))
	assert.Equal(10.0, f.MeasurementNoiseCov().At(0, 0))
	assert.Equal(1.0, f.ProcessNoiseCov().At(0, 0))
}

func TestKFPredict(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okConfig)
	assert.NotNil(f)
	assert.NoError(err)

	est, err := f.Predict()
	assert.NotNil(est)
	assert.NoError(err)

	// x = F*x
	assert.InDeltaSlice([]float64{4.0, 3.0}, est.Val().(*mat.VecDense).RawVector().Data, 1e-9)

	// P = F*P*F' + Q
	exp := mat.NewSymDense(2, []float64{0.75, 0.25, 0.25, 0.5})
	assert.True(mat.EqualApprox(exp, est.Cov(), 1e-9))
	assert.True(mat.EqualApprox(exp, f.Cov(), 1e-9))
}

func TestKFUpdate(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okConfig)
	assert.NotNil(f)
	assert.NoError(err)

	est, err := f.Update(z)
	assert.NotNil(est)
	assert.NoError(err)

	// invalid measurement vector
	_z := mat.NewVecDense(3, nil)
	est, err = f.Update(_z)
	assert.Nil(est)
	assert.ErrorIs(err, filter.ErrDimensionMismatch)

	est, err = f.Update(nil)
	assert.Nil(est)
	assert.ErrorIs(err, filter.ErrDimensionMismatch)
}

func TestKFScalarUpdate(t *testing.T) {
	assert := assert.New(t)

	f, err := New(scalarConfig)
	assert.NotNil(f)
	assert.NoError(err)

	est, err := f.Update(mat.NewVecDense(1, []float64{10.0}))
	assert.NotNil(est)
	assert.NoError(err)

	// K = P*H'/(H*P*H'+R) = 1/11
	assert.InDelta(1.0/11.0, f.Gain().At(0, 0), 1e-12)
	assert.InDelta(10.0, f.Innovation().AtVec(0), 1e-12)
	assert.InDelta(10.0/11.0, est.Val().AtVec(0), 1e-12)
	assert.InDelta(10.0/11.0, est.Cov().At(0, 0), 1e-12)
	assert.True(est.Val().AtVec(0) > 0.0 && est.Val().AtVec(0) < 5.0)
}

func TestKFScalarPredictUpdate(t *testing.T) {
	assert := assert.New(t)

	f, err := New(scalarConfig)
	assert.NotNil(f)
	assert.NoError(err)

	est, err := f.Run(mat.NewVecDense(1, []float64{10.0}))
	assert.NotNil(est)
	assert.NoError(err)

	// P = 1 + 1 = 2; K = 2/12
	assert.InDelta(2.0/12.0, f.Gain().At(0, 0), 1e-12)
	assert.InDelta(10.0/6.0, est.Val().AtVec(0), 1e-12)
	assert.InDelta(5.0/3.0, est.Cov().At(0, 0), 1e-12)
}

func TestKFPerfectMeasurement(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okConfig)
	assert.NotNil(f)
	assert.NoError(err)

	pred, err := f.Predict()
	assert.NotNil(pred)
	assert.NoError(err)

	y, err := f.Model().Observe(pred.Val())
	assert.NoError(err)

	est, err := f.Update(y)
	assert.NotNil(est)
	assert.NoError(err)

	assert.True(mat.EqualApprox(pred.Val(), est.Val(), 1e-9))
	assert.InDelta(0.0, mat.Norm(f.Innovation(), 2), 1e-12)
}

func TestKFCovariance(t *testing.T) {
	assert := assert.New(t)

	for _, joseph := range []bool{false, true} {
		c := *okConfig
		c.Joseph = joseph

		f, err := New(&c)
		assert.NotNil(f)
		assert.NoError(err)

		for i := 0; i < 100; i++ {
			est, err := f.Run(mat.NewVecDense(1, []float64{float64(i)}))
			assert.NotNil(est)
			assert.NoError(err)

			assert.True(matrix.MinDiag(est.Cov()) >= 0.0)
			assert.True(matrix.IsSymmetric(est.Cov(), 1e-12))
		}
	}
}

func TestKFRepeatedUpdate(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okConfig)
	assert.NotNil(f)
	assert.NoError(err)

	_, err = f.Predict()
	assert.NoError(err)

	prev := mat.Trace(f.Cov())
	for i := 0; i < 5; i++ {
		_, err = f.Update(z)
		assert.NoError(err)

		tr := mat.Trace(f.Cov())
		assert.True(tr <= prev+1e-12)
		prev = tr
	}
}

func TestKFUpdateNoMutation(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okConfig)
	assert.NotNil(f)
	assert.NoError(err)

	_, err = f.Run(z)
	assert.NoError(err)

	x := f.State()
	p := f.Cov()
	k := f.Gain()

	est, err := f.Update(mat.NewVecDense(2, []float64{1.0, 2.0}))
	assert.Nil(est)
	assert.ErrorIs(err, filter.ErrDimensionMismatch)

	assert.True(mat.Equal(x, f.State()))
	assert.True(mat.Equal(p, f.Cov()))
	assert.True(mat.Equal(k, f.Gain()))

	for _, zBad := range []mat.Vector{nil, (*mat.VecDense)(nil)} {
		est, err = f.Update(zBad)
		assert.Nil(est)
		assert.ErrorIs(err, filter.ErrDimensionMismatch)
	}

	assert.True(mat.Equal(x, f.State()))
	assert.True(mat.Equal(p, f.Cov()))
}

func TestKFSingularInnovationCov(t *testing.T) {
	assert := assert.New(t)

	f, err := New(newScalarConfig(0.0, 0.0, 0.0, 1.0))
	assert.NotNil(f)
	assert.NoError(err)

	est, err := f.Run(mat.NewVecDense(1, []float64{2.0}))
	assert.Nil(est)
	assert.ErrorIs(err, filter.ErrSingularInnovationCov)

	assert.Equal(1.0, f.State().AtVec(0))
	assert.Equal(0.0, f.Cov().At(0, 0))
}

func TestKFJosephForm(t *testing.T) {
	assert := assert.New(t)

	simple, err := New(okConfig)
	assert.NoError(err)

	c := *okConfig
	c.Joseph = true
	joseph, err := New(&c)
	assert.NoError(err)

	for i := 0; i < 20; i++ {
		m := mat.NewVecDense(1, []float64{0.5 * float64(i)})

		e1, err := simple.Run(m)
		assert.NoError(err)
		e2, err := joseph.Run(m)
		assert.NoError(err)

		assert.True(mat.EqualApprox(e1.Val(), e2.Val(), 1e-9))
		assert.True(mat.EqualApprox(e1.Cov(), e2.Cov(), 1e-9))
	}
}

func TestKFVarianceReduction(t *testing.T) {
	assert := assert.New(t)

	const (
		truth     = 5.0
		samples   = 2000
		transient = 100
	)

	for _, q := range []float64{1.0, 10.0} {
		r := 10.0

		f, err := New(newScalarConfig(q, r, 1.0, 0.0))
		assert.NotNil(f)
		assert.NoError(err)

		wn, err := noise.NewGaussianWithSeed([]float64{0}, mat.NewSymDense(1, []float64{r}), 1234)
		assert.NotNil(wn)
		assert.NoError(err)

		raw := make([]float64, 0, samples)
		filtered := make([]float64, 0, samples)
		for i := 0; i < samples; i++ {
			meas := truth + wn.Sample().AtVec(0)

			est, err := f.Run(mat.NewVecDense(1, []float64{meas}))
			assert.NoError(err)

			if i >= transient {
				raw = append(raw, meas)
				filtered = append(filtered, est.Val().AtVec(0))
			}
		}

		assert.Less(stat.PopVariance(filtered, nil), stat.PopVariance(raw, nil))
	}
}

func TestKFCov(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okConfig)
	assert.NotNil(f)
	assert.NoError(err)

	cov := f.Cov()
	assert.NotNil(cov)

	err = f.SetCov(nil)
	assert.Error(err)

	err = f.SetCov((*mat.SymDense)(nil))
	assert.ErrorIs(err, filter.ErrDimensionMismatch)

	err = f.SetCov(mat.NewSymDense(30, nil))
	assert.ErrorIs(err, filter.ErrDimensionMismatch)

	err = f.SetCov(mat.NewSymDense(f.p.SymmetricDim(), nil))
	assert.NoError(err)
	assert.Equal(0.0, mat.Trace(f.Cov()))
}

func TestKFGainInnovation(t *testing.T) {
	assert := assert.New(t)

	f, err := New(okConfig)
	assert.NotNil(f)
	assert.NoError(err)

	gain := f.Gain()
	assert.NotNil(gain)
	r, c := gain.Dims()
	assert.Equal(2, r)
	assert.Equal(1, c)

	inn := f.Innovation()
	assert.Equal(1, inn.Len())
}
