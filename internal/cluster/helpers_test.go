package cluster

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hupe1980/glassfire/internal/feature"
	"github.com/hupe1980/glassfire/internal/spatial"
)

func newSource(t *testing.T, pts [][]float64) *feature.Store[struct{}] {
	t.Helper()
	s, err := feature.NewStore[struct{}](len(pts[0]))
	require.NoError(t, err)
	for _, p := range pts {
		_, err := s.Append(p, struct{}{})
		require.NoError(t, err)
	}
	return s
}

func newRaw(t *testing.T, src PointSource) *spatial.Index {
	t.Helper()
	entries := make([]spatial.Entry, src.Len())
	for i := range entries {
		entries[i] = spatial.Entry{Point: src.Point(i), ID: uint32(i)}
	}
	x, err := spatial.Build(src.Dim(), entries)
	require.NoError(t, err)
	return x
}

func formatInt(f float64) string {
	return strconv.FormatInt(int64(f), 10)
}
