package gauss

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNew(t *testing.T) {
	t.Run("identity", func(t *testing.T) {
		g, err := New([]float64{0, 0}, Regularize(mat.NewSymDense(2, nil), 1))
		require.NoError(t, err)
		assert.Equal(t, 2, g.Dim())
		assert.InDelta(t, 1.0, g.Det(), 1e-12)
		assert.InDelta(t, 1/(2*math.Pi), g.Density([]float64{0, 0}), 1e-12)
		assert.InDelta(t, math.Exp(-1)/(2*math.Pi), g.Density([]float64{1, 1}), 1e-12)
	})

	t.Run("diagonal", func(t *testing.T) {
		cov := mat.NewSymDense(2, []float64{4, 0, 0, 0.25})
		g, err := New([]float64{1, -1}, cov)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, g.Det(), 1e-12)
		// (2/2)² + (0.5/0.5)² = 2
		assert.InDelta(t, 2.0, g.Mahalanobis([]float64{3, -0.5}), 1e-12)

		inv := g.Inverse()
		assert.InDelta(t, 0.25, inv.At(0, 0), 1e-12)
		assert.InDelta(t, 4.0, inv.At(1, 1), 1e-12)
	})

	t.Run("singular", func(t *testing.T) {
		_, err := New([]float64{0, 0}, mat.NewSymDense(2, []float64{1, 1, 1, 1}))
		assert.ErrorIs(t, err, ErrNotPositiveDefinite)

		_, err = New([]float64{0, 0}, mat.NewSymDense(2, nil))
		assert.ErrorIs(t, err, ErrNotPositiveDefinite)
	})

	t.Run("dimension mismatch", func(t *testing.T) {
		_, err := New([]float64{0}, mat.NewSymDense(2, []float64{1, 0, 0, 1}))
		assert.ErrorIs(t, err, ErrDimensionMismatch)
	})

	t.Run("mean is copied", func(t *testing.T) {
		mean := []float64{0}
		g, err := New(mean, mat.NewSymDense(1, []float64{1}))
		require.NoError(t, err)
		mean[0] = 10
		assert.Equal(t, 0.0, g.Mahalanobis([]float64{0}))
	})
}

func TestLogDensity(t *testing.T) {
	cov := mat.NewSymDense(3, []float64{
		2, 0.3, 0.1,
		0.3, 1, 0.2,
		0.1, 0.2, 0.5,
	})
	g, err := New([]float64{1, 2, 3}, cov)
	require.NoError(t, err)

	x := []float64{1.5, 1.2, 3.3}
	assert.InDelta(t, math.Log(g.Density(x)), g.LogDensity(x), 1e-12)
	assert.InDelta(t, mat.Det(cov), g.Det(), 1e-12)
	assert.Greater(t, g.Density([]float64{1, 2, 3}), g.Density(x))
}

func TestWeightedCovariance(t *testing.T) {
	center := []float64{0, 0}
	points := [][]float64{{1, 0}, {-1, 0}, {0, 2}, {0, -2}}
	w := []float64{0.25, 0.25, 0.25, 0.25}

	cov := WeightedCovariance(center, points, w)
	assert.InDelta(t, 0.5, cov.At(0, 0), 1e-12)
	assert.InDelta(t, 2.0, cov.At(1, 1), 1e-12)
	assert.InDelta(t, 0.0, cov.At(0, 1), 1e-12)
}

func TestBlendAndDiff(t *testing.T) {
	a := mat.NewSymDense(2, []float64{2, 1, 1, 2})
	b := mat.NewSymDense(2, []float64{4, 0, 0, 4})

	m := Blend(0.5, a, b)
	assert.Equal(t, 3.0, m.At(0, 0))
	assert.Equal(t, 0.5, m.At(0, 1))
	assert.Equal(t, 0.5, m.At(1, 0))

	assert.Equal(t, 2.0, MaxAbsDiff(a, b))
	assert.Equal(t, 0.0, MaxAbsDiff(a, a))
}

func TestRegularize(t *testing.T) {
	cov := mat.NewSymDense(2, []float64{1, 1, 1, 1})
	r := Regularize(cov, 0.5)
	assert.Equal(t, 1.5, r.At(0, 0))
	assert.Equal(t, 1.0, r.At(0, 1))
	assert.Equal(t, 1.0, cov.At(0, 0), "input untouched")

	_, err := New([]float64{0, 0}, r)
	assert.NoError(t, err)
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(mat.NewSymDense(2, []float64{1, 0, 0, 1})))
	assert.False(t, IsFinite(mat.NewSymDense(2, []float64{1, math.NaN(), math.NaN(), 1})))
	assert.False(t, IsFinite(mat.NewSymDense(1, []float64{math.Inf(1)})))
}
