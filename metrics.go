package glassfire

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    runCounter     prometheus.Counter
//	    queryHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordRun(stats glassfire.RunStats, err error) {
//	    p.runCounter.Inc()
//	    // ... record error state, duration, etc.
//	}
type MetricsCollector interface {
	// RecordAppend is called after each append operation.
	// count is the number of points in the call, err is nil if successful.
	RecordAppend(count int, duration time.Duration, err error)

	// RecordRun is called after each clustering run.
	RecordRun(stats RunStats, err error)

	// RecordQuery is called after each ScorerSet query or ranking.
	// found reports whether a usable model was returned.
	RecordQuery(found bool, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordAppend(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordRun(RunStats, error)              {}
func (NoopMetricsCollector) RecordQuery(bool, time.Duration, error) {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	AppendCount      atomic.Int64
	AppendPoints     atomic.Int64
	AppendErrors     atomic.Int64
	RunCount         atomic.Int64
	RunErrors        atomic.Int64
	RunTotalNanos    atomic.Int64
	RunIterations    atomic.Int64
	ClustersProduced atomic.Int64
	DegenerateModels atomic.Int64
	QueryCount       atomic.Int64
	QueryMisses      atomic.Int64
	QueryErrors      atomic.Int64
	QueryTotalNanos  atomic.Int64
}

// RecordAppend implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAppend(count int, duration time.Duration, err error) {
	b.AppendCount.Add(1)
	if err != nil {
		b.AppendErrors.Add(1)
		return
	}
	b.AppendPoints.Add(int64(count))
}

// RecordRun implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRun(stats RunStats, err error) {
	b.RunCount.Add(1)
	b.RunTotalNanos.Add(stats.Duration.Nanoseconds())
	if err != nil {
		b.RunErrors.Add(1)
		return
	}
	b.RunIterations.Add(int64(stats.Iterations))
	b.ClustersProduced.Add(int64(stats.Clusters))
	b.DegenerateModels.Add(int64(stats.Degenerate))
}

// RecordQuery implements MetricsCollector.
func (b *BasicMetricsCollector) RecordQuery(found bool, duration time.Duration, err error) {
	b.QueryCount.Add(1)
	b.QueryTotalNanos.Add(duration.Nanoseconds())
	switch {
	case err != nil:
		b.QueryErrors.Add(1)
	case !found:
		b.QueryMisses.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		AppendCount:      b.AppendCount.Load(),
		AppendPoints:     b.AppendPoints.Load(),
		AppendErrors:     b.AppendErrors.Load(),
		RunCount:         b.RunCount.Load(),
		RunErrors:        b.RunErrors.Load(),
		RunAvgNanos:      avg(b.RunTotalNanos.Load(), b.RunCount.Load()),
		RunIterations:    b.RunIterations.Load(),
		ClustersProduced: b.ClustersProduced.Load(),
		DegenerateModels: b.DegenerateModels.Load(),
		QueryCount:       b.QueryCount.Load(),
		QueryMisses:      b.QueryMisses.Load(),
		QueryErrors:      b.QueryErrors.Load(),
		QueryAvgNanos:    avg(b.QueryTotalNanos.Load(), b.QueryCount.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	AppendCount      int64
	AppendPoints     int64
	AppendErrors     int64
	RunCount         int64
	RunErrors        int64
	RunAvgNanos      int64
	RunIterations    int64
	ClustersProduced int64
	DegenerateModels int64
	QueryCount       int64
	QueryMisses      int64
	QueryErrors      int64
	QueryAvgNanos    int64
}
