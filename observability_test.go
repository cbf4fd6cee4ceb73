package glassfire

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	eng := newEngine(t, 2, twoPairs, WithLogger(logger))
	_, err := eng.RunCluster(context.Background(), 1)
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"msg":"append completed"`)
	assert.Contains(t, out, `"msg":"optimizer iteration"`)
	assert.Contains(t, out, `"msg":"clustering completed"`)
	assert.Contains(t, out, `"dimension":2`)
	assert.Contains(t, out, `"cell_size":1`)

	buf.Reset()
	_, err = eng.RunCluster(context.Background(), -1)
	require.Error(t, err)
	assert.Contains(t, buf.String(), `"msg":"clustering failed"`)
}

func TestNoopLogger(t *testing.T) {
	l := NoopLogger()
	assert.False(t, l.Enabled(context.Background(), slog.LevelError))
	l.WithCount(3).WithCellSize(1).Info("ignored")
}

func TestBasicMetricsCollector(t *testing.T) {
	mc := &BasicMetricsCollector{}
	eng := newEngine(t, 2, twoPairs, WithMetricsCollector(mc))

	_, err := eng.AppendFeature([]float64{1}, 0)
	require.Error(t, err)

	ss, err := eng.RunCluster(context.Background(), 1)
	require.NoError(t, err)
	_, err = eng.RunCluster(context.Background(), 0)
	require.Error(t, err)

	_, err = ss.Query([]float64{0, 0}, 0.1, 0)
	require.NoError(t, err)
	_, err = ss.Query([]float64{1e6, 1e6}, 0.1, 1)
	require.NoError(t, err)
	_, err = ss.Query([]float64{0}, 0.1, 0)
	require.Error(t, err)

	stats := mc.GetStats()
	assert.Equal(t, int64(2), stats.AppendCount)
	assert.Equal(t, int64(4), stats.AppendPoints)
	assert.Equal(t, int64(1), stats.AppendErrors)
	assert.Equal(t, int64(2), stats.RunCount)
	assert.Equal(t, int64(1), stats.RunErrors)
	assert.Equal(t, int64(2), stats.ClustersProduced)
	assert.Equal(t, int64(2), stats.RunIterations)
	assert.Equal(t, int64(3), stats.QueryCount)
	assert.Equal(t, int64(1), stats.QueryMisses)
	assert.Equal(t, int64(1), stats.QueryErrors)
}
