package glassfire

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultNearestCount(t *testing.T) {
	tests := []struct {
		dim  int
		want int
	}{
		{1, 2},
		{2, 8},
		{3, 12},
		{4, 16},
		{5, 30},
		{9, 54},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DefaultNearestCount(tt.dim), "dim %d", tt.dim)
	}
}

func TestCalcScores(t *testing.T) {
	_, ss, _, centers := blobEngine(t)

	for _, center := range centers {
		c := mainCluster(t, ss, center)
		scores, err := ss.CalcScores(c.Mean)
		require.NoError(t, err)
		require.NotEmpty(t, scores)

		assert.Equal(t, c.Key, scores[0].Key, "own model ranks first")
		for i := 1; i < len(scores); i++ {
			assert.GreaterOrEqual(t, scores[i-1].Score, scores[i].Score)
		}
	}

	t.Run("SkipsDegenerate", func(t *testing.T) {
		degenerate := 0
		for _, c := range ss.Clusters() {
			if c.Degenerate {
				degenerate++
			}
		}
		scores, err := ss.CalcScores([]float64{0, 0})
		require.NoError(t, err)
		assert.Len(t, scores, ss.ClusterCount()-degenerate)
	})

	t.Run("DimensionMismatch", func(t *testing.T) {
		_, err := ss.CalcScores([]float64{0})
		var dm *ErrDimensionMismatch
		assert.True(t, errors.As(err, &dm))
	})
}

func TestModelSet(t *testing.T) {
	_, ss, _, _ := blobEngine(t)

	t.Run("Idempotent", func(t *testing.T) {
		for _, r := range []float64{0, 0.01} {
			a, err := ss.ModelSet(r)
			require.NoError(t, err)
			b, err := ss.ModelSet(r)
			require.NoError(t, err)
			assert.Equal(t, a, b)
			assert.Len(t, a, ss.ClusterCount())
		}
	})

	t.Run("Regularization", func(t *testing.T) {
		raw, err := ss.ModelSet(0)
		require.NoError(t, err)
		reg, err := ss.ModelSet(0.5)
		require.NoError(t, err)

		for i := range raw {
			assert.Equal(t, raw[i].Key(), reg[i].Key())
			if raw[i].Degenerate() {
				continue
			}
			assert.False(t, reg[i].Degenerate())
			assert.InDelta(t, raw[i].Covariance().At(0, 0)+0.5, reg[i].Covariance().At(0, 0), 1e-12)
			assert.Equal(t, 0.5, reg[i].Regularization())
		}
	})

	t.Run("InvalidRegularization", func(t *testing.T) {
		for _, r := range []float64{-0.1, math.NaN(), math.Inf(1)} {
			_, err := ss.ModelSet(r)
			assert.ErrorIs(t, err, ErrInvalidRegularization)
		}
	})

	t.Run("CopiesAreIndependent", func(t *testing.T) {
		a, err := ss.ModelSet(0)
		require.NoError(t, err)
		a[0] = a[1]
		b, err := ss.ModelSet(0)
		require.NoError(t, err)
		assert.NotEqual(t, b[0].Key(), b[1].Key())
	})
}

func TestQuery(t *testing.T) {
	_, ss, _, centers := blobEngine(t)

	t.Run("Found", func(t *testing.T) {
		for _, center := range centers {
			c := mainCluster(t, ss, center)
			res, err := ss.Query(center, 0, 0)
			require.NoError(t, err)
			require.True(t, res.Found)
			assert.Equal(t, c.Key, res.Model.Key())
			assert.Equal(t, "found", res.Message)

			d, err := res.Model.Eval(center)
			require.NoError(t, err)
			assert.Equal(t, d, res.Score)
		}
	})

	t.Run("FarPointNotFound", func(t *testing.T) {
		res, err := ss.Query([]float64{1e6, -1e6}, 0.01, 1)
		require.NoError(t, err)
		assert.False(t, res.Found)
		assert.Equal(t, NotFoundScore, res.Score)
		assert.Equal(t, "not found", res.Message)
		assert.True(t, res.Model.Degenerate())
	})

	t.Run("InvalidArguments", func(t *testing.T) {
		_, err := ss.Query([]float64{0, 0, 0}, 0, 0)
		var dm *ErrDimensionMismatch
		assert.True(t, errors.As(err, &dm))

		res, err := ss.Query([]float64{0, 0}, -1, 0)
		assert.ErrorIs(t, err, ErrInvalidRegularization)
		assert.False(t, res.Found)
	})
}

func TestQueryRegularizationRescue(t *testing.T) {
	eng := newEngine(t, 2, twoPairs)
	ss, err := eng.RunCluster(context.Background(), 1)
	require.NoError(t, err)

	res, err := ss.Query([]float64{0, 0}, 0.1, 0)
	require.NoError(t, err)
	require.True(t, res.Found)
	assert.InDeltaSlice(t, []float64{0.05, 0.05}, res.Model.Mean(), 1e-9)

	// All four points lie on one line, so the raw fit may be singular. The
	// ridge keeps the model usable for recovering its data.
	data, err := eng.QueryData(res.Model, 0.5)
	require.NoError(t, err)
	require.Len(t, data, 2)
	assert.Equal(t, 0, data[0].Metadata)
	assert.Equal(t, 1, data[1].Metadata)
}
