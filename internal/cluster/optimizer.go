package cluster

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"

	"gonum.org/v1/gonum/floats"

	"github.com/hupe1980/glassfire/internal/spatial"
)

// OptimizeStats summarizes an Optimizer run.
type OptimizeStats struct {
	// Iterations counts the iterations that updated at least one mean. The
	// closing cleanup-only pass is not included.
	Iterations int
	// Updates counts mean updates over all iterations.
	Updates int
	Pruned  int
	Merged  int
	// CapReached is set when the loop stopped at MaxIterations.
	CapReached bool
}

// Optimizer runs the mean-shift and merge loop over a centroid set.
type Optimizer struct {
	CellSize           float64
	MinimalCount       int
	RatioOfMinimumDiff float64
	// Pruning of underpopulated centroids starts once the iteration index
	// exceeds WarmupIterations.
	WarmupIterations int
	MaxIterations    int
	Workers          int
	Logger           *slog.Logger
}

// Run moves every centroid to the mean of the raw points in its cell-sized
// box and removes colliding centroids until no centroid moves by more than
// CellSize·RatioOfMinimumDiff. raw must not be mutated while Run executes.
func (o *Optimizer) Run(ctx context.Context, src PointSource, raw *spatial.Index, set *Set) (OptimizeStats, error) {
	var stats OptimizeStats
	if !validCellSize(o.CellSize) {
		return stats, fmt.Errorf("%w: %v", ErrInvalidCellSize, o.CellSize)
	}

	logger := o.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	threshold := o.CellSize * o.RatioOfMinimumDiff

	// Every iteration ends with a cleanup pass, including the one on which no
	// centroid moved, so pruning also applies to the final positions.
	for iteration := 0; ; iteration++ {
		pending := make([]*Centroid, 0, set.Len())
		for _, c := range set.Live() {
			if c.Delta > threshold {
				pending = append(pending, c)
			}
		}

		if len(pending) > 0 {
			if iteration >= o.MaxIterations {
				stats.CapReached = true
				logger.Warn("optimizer iteration cap reached",
					"iterations", iteration,
					"pending", len(pending),
					"centroids", set.Len(),
				)
				break
			}

			if err := forEach(ctx, o.Workers, pending, func(c *Centroid) error {
				return o.shift(src, raw, c)
			}); err != nil {
				return stats, err
			}
			stats.Iterations = iteration + 1
			stats.Updates += len(pending)
		}

		pruned, merged, err := o.cleanup(src.Dim(), set, iteration > o.WarmupIterations)
		if err != nil {
			return stats, err
		}
		stats.Pruned += pruned
		stats.Merged += merged

		logger.Debug("optimizer iteration",
			"iteration", iteration,
			"updated", len(pending),
			"pruned", pruned,
			"merged", merged,
			"centroids", set.Len(),
		)

		if len(pending) == 0 {
			break
		}
	}

	return stats, nil
}

// shift moves c to the mean of the raw points within half a cell of it.
func (o *Optimizer) shift(src PointSource, raw *spatial.Index, c *Centroid) error {
	hits, err := raw.QueryIntersects(spatial.BoxAround(c.Position, o.CellSize/2))
	if err != nil {
		return err
	}

	c.Count = len(hits)
	if len(hits) == 0 {
		c.Delta = 0
		return nil
	}

	mean := make([]float64, len(c.Position))
	for _, h := range hits {
		floats.Add(mean, src.Point(int(h.ID)))
	}
	floats.Scale(1/float64(len(hits)), mean)

	c.Delta = floats.Distance(c.Position, mean, 2)
	c.Position = mean
	return nil
}

// cleanup visits the live centroids in ascending count order over a freshly
// built centroid index. A visited centroid is removed when pruning is enabled
// and it is underpopulated, or when a live centroid closer than CellSize holds
// at least as many points.
func (o *Optimizer) cleanup(dim int, set *Set, prune bool) (pruned, merged int, err error) {
	live := set.Live()
	slices.SortStableFunc(live, func(a, b *Centroid) int {
		return cmp.Compare(a.Count, b.Count)
	})

	entries := make([]spatial.Entry, len(live))
	for i, c := range live {
		entries[i] = spatial.Entry{Point: c.Position, ID: c.ID}
	}
	idx, err := spatial.Build(dim, entries)
	if err != nil {
		return 0, 0, err
	}

	remove := func(c *Centroid) {
		set.Remove(c.ID)
		idx.Remove(c.ID)
	}

	for _, c := range live {
		if prune && c.Count < o.MinimalCount {
			remove(c)
			pruned++
			continue
		}

		near, err := idx.QueryIntersects(spatial.BoxAround(c.Position, o.CellSize))
		if err != nil {
			return pruned, merged, err
		}
		for _, n := range near {
			if n.ID == c.ID {
				continue
			}
			other, ok := set.Get(n.ID)
			if !ok || other.Count < c.Count {
				continue
			}
			if floats.Distance(c.Position, other.Position, 2) < o.CellSize {
				remove(c)
				merged++
				break
			}
		}
	}
	return pruned, merged, nil
}
