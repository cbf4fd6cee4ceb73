package feature

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	_, err := NewStore[string](0)
	assert.ErrorIs(t, err, ErrInvalidDimension)

	s, err := NewStore[string](2)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Dim())

	t.Run("append assigns sequential indices", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			idx, err := s.Append([]float64{float64(i), float64(-i)}, "p")
			require.NoError(t, err)
			assert.Equal(t, i, idx)
		}
		assert.Equal(t, 3, s.Len())
	})

	t.Run("rejects bad points", func(t *testing.T) {
		_, err := s.Append([]float64{1, 2, 3}, "bad")
		assert.ErrorIs(t, err, ErrDimensionMismatch)

		_, err = s.Append([]float64{math.NaN(), 0}, "bad")
		assert.ErrorIs(t, err, ErrNonFinite)

		_, err = s.Append([]float64{0, math.Inf(-1)}, "bad")
		assert.ErrorIs(t, err, ErrNonFinite)

		assert.Equal(t, 3, s.Len())
	})

	t.Run("copies points", func(t *testing.T) {
		p := []float64{7, 8}
		idx, err := s.Append(p, "copy")
		require.NoError(t, err)
		p[0] = -1
		assert.Equal(t, []float64{7, 8}, s.Point(idx))
	})

	t.Run("record lookup", func(t *testing.T) {
		r, ok := s.Record(1)
		require.True(t, ok)
		assert.Equal(t, 1, r.Index)
		assert.Equal(t, []float64{1, -1}, r.Point)
		assert.Equal(t, "p", r.Metadata)

		_, ok = s.Record(-1)
		assert.False(t, ok)
		_, ok = s.Record(s.Len())
		assert.False(t, ok)
	})

	t.Run("truncate", func(t *testing.T) {
		n := s.Len()
		s.Truncate(n + 5)
		s.Truncate(-1)
		assert.Equal(t, n, s.Len())

		s.Truncate(2)
		assert.Equal(t, 2, s.Len())
		_, ok := s.Record(2)
		assert.False(t, ok)

		idx, err := s.Append([]float64{9, 9}, "again")
		require.NoError(t, err)
		assert.Equal(t, 2, idx)
	})
}
