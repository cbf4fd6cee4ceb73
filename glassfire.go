package glassfire

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/hupe1980/glassfire/internal/cluster"
	"github.com/hupe1980/glassfire/internal/feature"
	"github.com/hupe1980/glassfire/internal/spatial"
	"github.com/hupe1980/glassfire/model"
)

// DataPoint is a raw point returned by QueryData.
type DataPoint[M any] struct {
	Index    int
	Density  float64
	Metadata M
	ModelKey string
	Point    []float64
}

// RunStats describes one RunCluster call.
type RunStats struct {
	CellSize   float64
	Points     int
	Seeded     int
	Clusters   int
	Iterations int
	Merged     int
	Pruned     int
	Degenerate int
	// CapReached is set when the mean-shift loop hit its iteration cap.
	CapReached bool
	Duration   time.Duration
}

// Engine ingests points with metadata of type M and clusters them into local
// Gaussian models.
//
// An Engine is safe for concurrent use. RunCluster holds an exclusive lock
// for its whole duration; appends and data queries wait for it.
type Engine[M any] struct {
	mu      sync.RWMutex
	dim     int
	store   *feature.Store[M]
	raw     *spatial.Index
	runs    int
	opts    options
	logger  *Logger
	metrics MetricsCollector
}

// New creates an engine for points of dimension dim.
func New[M any](dim int, optFns ...Option) (*Engine[M], error) {
	if dim < 1 {
		return nil, &ErrInvalidDimension{Dimension: dim}
	}
	opts, err := applyOptions(optFns)
	if err != nil {
		return nil, err
	}

	store, err := feature.NewStore[M](dim)
	if err != nil {
		return nil, &ErrInvalidDimension{Dimension: dim, cause: err}
	}
	raw, err := spatial.New(dim)
	if err != nil {
		return nil, &ErrInvalidDimension{Dimension: dim, cause: err}
	}

	return &Engine[M]{
		dim:     dim,
		store:   store,
		raw:     raw,
		opts:    opts,
		logger:  opts.logger.WithDimension(dim),
		metrics: opts.metricsCollector,
	}, nil
}

// Dim returns the point dimension.
func (e *Engine[M]) Dim() int { return e.dim }

// Len returns the number of ingested points.
func (e *Engine[M]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.store.Len()
}

// Runs returns the number of completed RunCluster calls.
func (e *Engine[M]) Runs() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.runs
}

// AppendFeature stores point with its metadata and returns the point's index.
func (e *Engine[M]) AppendFeature(point []float64, meta M) (int, error) {
	start := time.Now()

	e.mu.Lock()
	idx, err := e.append(point, meta)
	e.mu.Unlock()

	e.metrics.RecordAppend(1, time.Since(start), err)
	e.logger.LogAppend(idx, 1, err)
	return idx, err
}

// AppendFeatures stores a batch of points. metas may be nil, in which case
// every point gets the zero metadata; otherwise it must have one entry per
// point. The batch is validated before anything is stored, so a failing batch
// leaves the engine unchanged.
func (e *Engine[M]) AppendFeatures(points [][]float64, metas []M) error {
	start := time.Now()
	err := e.appendBatch(points, metas)
	e.metrics.RecordAppend(len(points), time.Since(start), err)
	e.logger.LogAppend(-1, len(points), err)
	return err
}

func (e *Engine[M]) appendBatch(points [][]float64, metas []M) error {
	if metas != nil && len(metas) != len(points) {
		return fmt.Errorf("%w: %d points, %d metadata", ErrMetadataLength, len(points), len(metas))
	}
	for _, p := range points {
		if err := validatePoint(e.dim, p); err != nil {
			return err
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var zero M
	for i, p := range points {
		meta := zero
		if metas != nil {
			meta = metas[i]
		}
		if _, err := e.append(p, meta); err != nil {
			return err
		}
	}
	return nil
}

// append requires e.mu to be held for writing.
func (e *Engine[M]) append(point []float64, meta M) (int, error) {
	if err := validatePoint(e.dim, point); err != nil {
		return -1, err
	}
	idx, err := e.store.Append(point, meta)
	if err != nil {
		return -1, translateError(err)
	}
	if err := e.raw.Insert(point, uint32(idx)); err != nil {
		e.store.Truncate(idx)
		return -1, translateError(err)
	}
	return idx, nil
}

func validatePoint(dim int, point []float64) error {
	if err := checkDimension(dim, point); err != nil {
		return err
	}
	for _, v := range point {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %v", ErrNonFinitePoint, point)
		}
	}
	return nil
}

// RunCluster clusters all ingested points at the given cell size and returns
// the resulting ScorerSet. The engine keeps its points, so RunCluster can be
// called again with other parameters.
func (e *Engine[M]) RunCluster(ctx context.Context, cellSize float64, optFns ...RunOption) (*ScorerSet, error) {
	start := time.Now()
	stats := RunStats{CellSize: cellSize}

	ss, err := e.runCluster(ctx, cellSize, optFns, &stats)
	stats.Duration = time.Since(start)

	e.metrics.RecordRun(stats, err)
	e.logger.LogRun(ctx, stats, err)
	return ss, err
}

func (e *Engine[M]) runCluster(ctx context.Context, cellSize float64, optFns []RunOption, stats *RunStats) (*ScorerSet, error) {
	if !(cellSize > 0) || math.IsInf(cellSize, 1) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCellSize, cellSize)
	}
	ro, err := applyRunOptions(optFns)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	stats.Points = e.store.Len()
	if stats.Points == 0 {
		return nil, ErrEmptyFeatureSet
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Fold the insertion tail into a balanced tree before the read-only phases.
	e.raw.Rebuild()

	set, err := cluster.Seed(e.store, cellSize)
	if err != nil {
		return nil, translateError(err)
	}
	stats.Seeded = set.Len()

	logger := e.logger.WithCellSize(cellSize).WithCount(stats.Points).Logger

	opt := &cluster.Optimizer{
		CellSize:           cellSize,
		MinimalCount:       ro.minimalCount,
		RatioOfMinimumDiff: ro.ratioOfMinimumDiff,
		WarmupIterations:   e.opts.warmupIterations,
		MaxIterations:      e.opts.maxIterations,
		Workers:            e.opts.workers,
		Logger:             logger,
	}
	ostats, err := opt.Run(ctx, e.store, e.raw, set)
	if err != nil {
		return nil, translateError(err)
	}
	stats.Iterations = ostats.Iterations
	stats.Merged = ostats.Merged
	stats.Pruned = ostats.Pruned
	stats.CapReached = ostats.CapReached

	est := &cluster.Estimator{
		CellSize:      cellSize,
		Neighborhood:  ro.neighborhood,
		Tolerance:     covarianceTolerance(ro.ratioOfMinimumDiff, cellSize),
		MaxIterations: e.opts.maxCovarianceIterations,
		Workers:       e.opts.workers,
		Logger:        logger,
	}
	idx, estats, err := est.Run(ctx, e.store, e.raw, set)
	if err != nil {
		return nil, translateError(err)
	}
	stats.Degenerate = estats.Degenerate
	stats.Clusters = set.Len()

	e.runs++
	return newScorerSet(e.dim, cellSize, set.Live(), idx, e.logger, e.metrics), nil
}

// covarianceTolerance is the convergence bound of the covariance fit. It
// scales with cellSize² because covariance entries are squared lengths, while
// the mean-shift threshold cellSize·ratio is a length.
func covarianceTolerance(ratio, cellSize float64) float64 {
	return ratio * cellSize * cellSize
}

// QueryData returns every ingested point within boxSize of the model mean
// along each dimension, ordered by index, together with its density under m.
func (e *Engine[M]) QueryData(m model.ClusterModel, boxSize float64) ([]DataPoint[M], error) {
	if !(boxSize >= 0) || math.IsInf(boxSize, 1) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBoxSize, boxSize)
	}
	if m.Dim() != e.dim {
		return nil, &ErrDimensionMismatch{Expected: e.dim, Actual: m.Dim()}
	}
	if m.Degenerate() {
		return nil, m.Err()
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	hits, err := e.raw.QueryIntersects(spatial.BoxAround(m.Mean(), boxSize))
	if err != nil {
		return nil, translateError(err)
	}

	out := make([]DataPoint[M], 0, len(hits))
	for _, h := range hits {
		rec, ok := e.store.Record(int(h.ID))
		if !ok {
			continue
		}
		d, err := m.Eval(rec.Point)
		if err != nil {
			return nil, err
		}
		out = append(out, DataPoint[M]{
			Index:    rec.Index,
			Density:  d,
			Metadata: rec.Metadata,
			ModelKey: m.Key(),
			Point:    slices.Clone(rec.Point),
		})
	}
	return out, nil
}
