package glassfire

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/hupe1980/glassfire/internal/cluster"
)

const (
	defaultMaxIterations           = 1000
	defaultWarmupIterations        = 2
	defaultMaxCovarianceIterations = 200
	defaultMinimalCount            = 1
	defaultRatioOfMinimumDiff      = 0.01
)

type options struct {
	metricsCollector        MetricsCollector
	logger                  *Logger
	workers                 int
	maxIterations           int
	warmupIterations        int
	maxCovarianceIterations int
}

// Option configures an Engine.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &glassfire.BasicMetricsCollector{}
//	eng, _ := glassfire.New[string](2, glassfire.WithMetricsCollector(metrics))
//	// ... use eng ...
//	stats := metrics.GetStats()
//	fmt.Printf("Runs: %d, Avg latency: %dns\n", stats.RunCount, stats.RunAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := glassfire.NewJSONLogger(slog.LevelInfo)
//	eng, _ := glassfire.New[string](2, glassfire.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithWorkers sets how many goroutines compute per-centroid means and
// covariances. The default of 1 runs sequentially. Results do not depend on
// the number of workers.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithMaxIterations caps the mean-shift loop. Reaching the cap is logged and
// the run continues with the current centroids.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.maxIterations = n
	}
}

// WithWarmupIterations sets how many mean-shift iterations run before
// underpopulated centroids are pruned.
func WithWarmupIterations(n int) Option {
	return func(o *options) {
		o.warmupIterations = n
	}
}

// WithMaxCovarianceIterations caps the passes of each covariance fit.
func WithMaxCovarianceIterations(n int) Option {
	return func(o *options) {
		o.maxCovarianceIterations = n
	}
}

func applyOptions(optFns []Option) (options, error) {
	o := options{
		metricsCollector:        NoopMetricsCollector{},
		logger:                  NoopLogger(),
		workers:                 1,
		maxIterations:           defaultMaxIterations,
		warmupIterations:        defaultWarmupIterations,
		maxCovarianceIterations: defaultMaxCovarianceIterations,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	switch {
	case o.workers < 1:
		return o, fmt.Errorf("%w: workers must be at least 1, got %d", ErrInvalidOption, o.workers)
	case o.maxIterations < 1:
		return o, fmt.Errorf("%w: max iterations must be at least 1, got %d", ErrInvalidOption, o.maxIterations)
	case o.warmupIterations < 0:
		return o, fmt.Errorf("%w: warm-up iterations must not be negative, got %d", ErrInvalidOption, o.warmupIterations)
	case o.maxCovarianceIterations < 2:
		return o, fmt.Errorf("%w: max covariance iterations must be at least 2, got %d", ErrInvalidOption, o.maxCovarianceIterations)
	}
	return o, nil
}

// Neighborhood selects the radius used to gather points for a covariance fit.
type Neighborhood = cluster.Neighborhood

const (
	// NeighborhoodAdaptive uses 1.2 times the distance to the nearest other
	// cluster, or the cell size when only one cluster survives.
	NeighborhoodAdaptive = cluster.NeighborhoodAdaptive

	// NeighborhoodFixed uses the cell size.
	NeighborhoodFixed = cluster.NeighborhoodFixed
)

type runOptions struct {
	minimalCount       int
	ratioOfMinimumDiff float64
	neighborhood       Neighborhood
}

// RunOption configures a single RunCluster call.
type RunOption func(*runOptions)

// WithMinimalCount sets the occupancy below which a centroid is pruned once
// the warm-up iterations are over. Zero disables pruning.
func WithMinimalCount(n int) RunOption {
	return func(o *runOptions) {
		o.minimalCount = n
	}
}

// WithRatioOfMinimumDiff sets the convergence ratio. A centroid has converged
// once it moves less than cellSize·r in one iteration. The covariance fit uses
// a different bound of r·cellSize²: it has converged once no covariance
// element changes by more than that between two passes.
func WithRatioOfMinimumDiff(r float64) RunOption {
	return func(o *runOptions) {
		o.ratioOfMinimumDiff = r
	}
}

// WithNeighborhood selects the covariance fit neighbourhood.
func WithNeighborhood(n Neighborhood) RunOption {
	return func(o *runOptions) {
		o.neighborhood = n
	}
}

func applyRunOptions(optFns []RunOption) (runOptions, error) {
	o := runOptions{
		minimalCount:       defaultMinimalCount,
		ratioOfMinimumDiff: defaultRatioOfMinimumDiff,
		neighborhood:       NeighborhoodAdaptive,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}

	switch {
	case o.minimalCount < 0:
		return o, fmt.Errorf("%w: minimal count must not be negative, got %d", ErrInvalidOption, o.minimalCount)
	case !(o.ratioOfMinimumDiff > 0) || math.IsInf(o.ratioOfMinimumDiff, 1):
		return o, fmt.Errorf("%w: ratio of minimum diff must be positive and finite, got %v", ErrInvalidOption, o.ratioOfMinimumDiff)
	case o.neighborhood != NeighborhoodAdaptive && o.neighborhood != NeighborhoodFixed:
		return o, fmt.Errorf("%w: unknown neighborhood %s", ErrInvalidOption, o.neighborhood)
	}
	return o, nil
}
