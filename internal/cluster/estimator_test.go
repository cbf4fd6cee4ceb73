package cluster

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/glassfire/internal/gauss"
	"github.com/hupe1980/glassfire/testutil"
)

func newEstimator(d float64) *Estimator {
	return &Estimator{
		CellSize:      d,
		Neighborhood:  NeighborhoodAdaptive,
		Tolerance:     0.01 * d * d,
		MaxIterations: 200,
		Workers:       1,
	}
}

func setAt(positions ...[]float64) *Set {
	s := NewSet()
	for i, p := range positions {
		s.Add(&Centroid{Key: string(rune('a' + i)), Position: p})
	}
	return s
}

func TestEstimatorAnisotropicBlob(t *testing.T) {
	rng := testutil.NewRNG(9)
	pts := rng.GaussianBlob(2000, []float64{0, 0}, 1)
	for _, p := range pts {
		p[1] *= 0.2
	}
	src := newSource(t, pts)

	e := newEstimator(4)
	e.Neighborhood = NeighborhoodFixed
	set := setAt([]float64{0, 0})

	idx, stats, err := e.Run(context.Background(), src, newRaw(t, src), set)
	require.NoError(t, err)
	assert.Equal(t, 1, idx.Len())
	assert.Zero(t, stats.Degenerate)
	assert.Zero(t, stats.Unconverged)

	c := set.Live()[0]
	require.NoError(t, c.Err)
	require.NotNil(t, c.Cov)
	assert.True(t, c.Converged)
	assert.GreaterOrEqual(t, c.Passes, 2)
	assert.Equal(t, 4.0, c.Radius)

	assert.Greater(t, c.Cov.At(0, 0), c.Cov.At(1, 1))
	assert.Less(t, math.Abs(c.Cov.At(0, 1)), c.Cov.At(0, 0))

	_, err = gauss.New(c.Position, c.Cov)
	assert.NoError(t, err)

	m := c.Model(0)
	assert.False(t, m.Degenerate())
	d, err := m.Eval([]float64{0, 0})
	require.NoError(t, err)
	assert.Greater(t, d, 0.0)
}

func TestEstimatorInRange(t *testing.T) {
	rng := testutil.NewRNG(21)
	pts := rng.UniformPoints(400, 2, -10, 10)
	src := newSource(t, pts)
	raw := newRaw(t, src)

	t.Run("adaptive", func(t *testing.T) {
		set := setAt([]float64{0, 0}, []float64{5, 0})
		_, _, err := newEstimator(1).Run(context.Background(), src, raw, set)
		require.NoError(t, err)

		for _, c := range set.Live() {
			assert.InDelta(t, 6.0, c.Radius, 1e-12)
			var want []int
			for i, p := range pts {
				if floats.Distance(p, c.Position, 2) < 6 {
					want = append(want, i)
				}
			}
			assert.Equal(t, want, c.InRange, c.Key)
		}
	})

	t.Run("single centroid falls back to cell size", func(t *testing.T) {
		set := setAt([]float64{1, 1})
		_, _, err := newEstimator(3).Run(context.Background(), src, raw, set)
		require.NoError(t, err)
		assert.Equal(t, 3.0, set.Live()[0].Radius)
	})

	t.Run("parallel matches sequential", func(t *testing.T) {
		seq := setAt([]float64{0, 0}, []float64{5, 0}, []float64{-4, 4})
		par := setAt([]float64{0, 0}, []float64{5, 0}, []float64{-4, 4})

		_, _, err := newEstimator(1).Run(context.Background(), src, raw, seq)
		require.NoError(t, err)
		e := newEstimator(1)
		e.Workers = 3
		_, _, err = e.Run(context.Background(), src, raw, par)
		require.NoError(t, err)

		for i, c := range seq.Live() {
			p := par.Live()[i]
			assert.Equal(t, c.InRange, p.InRange)
			assert.True(t, mat.Equal(c.Cov, p.Cov))
			assert.Equal(t, c.Passes, p.Passes)
		}
	})
}

func TestEstimatorDegenerate(t *testing.T) {
	pts := [][]float64{{0, 0}, {50, 50}}
	src := newSource(t, pts)
	raw := newRaw(t, src)

	t.Run("empty neighborhood", func(t *testing.T) {
		e := newEstimator(1)
		e.Neighborhood = NeighborhoodFixed
		set := setAt([]float64{20, 20})

		_, stats, err := e.Run(context.Background(), src, raw, set)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Degenerate)

		c := set.Live()[0]
		assert.ErrorIs(t, c.Err, ErrEmptyNeighborhood)
		assert.Nil(t, c.Cov)
		assert.True(t, c.Model(1).Degenerate())
	})

	t.Run("single point", func(t *testing.T) {
		e := newEstimator(1)
		e.Neighborhood = NeighborhoodFixed
		set := setAt([]float64{0.1, 0})

		_, stats, err := e.Run(context.Background(), src, raw, set)
		require.NoError(t, err)
		assert.Equal(t, 1, stats.Degenerate)

		c := set.Live()[0]
		assert.ErrorIs(t, c.Err, gauss.ErrNotPositiveDefinite)
		require.NotNil(t, c.Cov)
		assert.True(t, c.Model(0).Degenerate())
		assert.False(t, c.Model(0.1).Degenerate(), "ridge rescues the fit")
	})
}

func TestEstimatorPassCap(t *testing.T) {
	rng := testutil.NewRNG(2)
	src := newSource(t, rng.GaussianBlob(300, []float64{0, 0}, 1))

	e := newEstimator(5)
	e.Neighborhood = NeighborhoodFixed
	e.MaxIterations = 1
	set := setAt([]float64{0, 0})

	_, stats, err := e.Run(context.Background(), src, newRaw(t, src), set)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Unconverged)

	c := set.Live()[0]
	assert.NoError(t, c.Err)
	assert.Equal(t, 1, c.Passes)
	assert.False(t, c.Converged)
}

func TestNeighborhoodString(t *testing.T) {
	assert.Equal(t, "adaptive", NeighborhoodAdaptive.String())
	assert.Equal(t, "fixed", NeighborhoodFixed.String())
	assert.Equal(t, "Neighborhood(7)", Neighborhood(7).String())
}
