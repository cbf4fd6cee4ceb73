package cluster

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/glassfire/internal/gauss"
	"github.com/hupe1980/glassfire/internal/spatial"
)

// Neighborhood selects how the covariance fit radius is chosen.
type Neighborhood int

const (
	// NeighborhoodAdaptive uses 1.2 times the distance to the nearest other centroid.
	NeighborhoodAdaptive Neighborhood = iota
	// NeighborhoodFixed uses the cell size.
	NeighborhoodFixed
)

// String implements fmt.Stringer.
func (n Neighborhood) String() string {
	switch n {
	case NeighborhoodAdaptive:
		return "adaptive"
	case NeighborhoodFixed:
		return "fixed"
	default:
		return fmt.Sprintf("Neighborhood(%d)", int(n))
	}
}

const adaptiveScale = 1.2

// EstimateStats summarizes an Estimator run.
type EstimateStats struct {
	Degenerate int
	// Unconverged counts fits stopped by MaxIterations.
	Unconverged int
}

// Estimator fits a covariance to every centroid of a set.
type Estimator struct {
	CellSize     float64
	Neighborhood Neighborhood
	// Tolerance bounds the element-wise change between two successive
	// covariance estimates at convergence.
	Tolerance     float64
	MaxIterations int
	Workers       int
	Logger        *slog.Logger
}

// Run fits every live centroid and returns the index over the final centroid
// positions. Fit failures do not fail the run: they are recorded in
// Centroid.Err and counted in the stats.
func (e *Estimator) Run(ctx context.Context, src PointSource, raw *spatial.Index, set *Set) (*spatial.Index, EstimateStats, error) {
	var stats EstimateStats
	if !validCellSize(e.CellSize) {
		return nil, stats, fmt.Errorf("%w: %v", ErrInvalidCellSize, e.CellSize)
	}

	logger := e.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	live := set.Live()
	entries := make([]spatial.Entry, len(live))
	for i, c := range live {
		entries[i] = spatial.Entry{Point: c.Position, ID: c.ID}
	}
	idx, err := spatial.Build(src.Dim(), entries)
	if err != nil {
		return nil, stats, err
	}

	if err := forEach(ctx, e.Workers, live, func(c *Centroid) error {
		r, err := e.radius(idx, c)
		if err != nil {
			return err
		}
		if err := gather(src, raw, c, r); err != nil {
			return err
		}
		e.fit(src, c)
		return nil
	}); err != nil {
		return nil, stats, err
	}

	for _, c := range live {
		if c.Err != nil {
			stats.Degenerate++
		} else if !c.Converged {
			stats.Unconverged++
		}
	}
	if stats.Unconverged > 0 {
		logger.Warn("covariance fit pass cap reached",
			"centroids", stats.Unconverged,
			"max_passes", e.MaxIterations,
		)
	}
	if stats.Degenerate > 0 {
		logger.Warn("degenerate covariance fits",
			"centroids", stats.Degenerate,
			"total", len(live),
		)
	}

	return idx, stats, nil
}

func (e *Estimator) radius(idx *spatial.Index, c *Centroid) (float64, error) {
	if e.Neighborhood == NeighborhoodFixed {
		return e.CellSize, nil
	}
	nn, err := idx.QueryNearest(c.Position, 2)
	if err != nil {
		return 0, err
	}
	for _, n := range nn {
		if n.ID != c.ID {
			return adaptiveScale * n.Distance, nil
		}
	}
	return e.CellSize, nil
}

// gather caches the raw points strictly closer than r on the centroid.
func gather(src PointSource, raw *spatial.Index, c *Centroid, r float64) error {
	hits, err := raw.QueryIntersects(spatial.BoxAround(c.Position, r))
	if err != nil {
		return err
	}
	c.Radius = r
	c.InRange = c.InRange[:0]
	for _, h := range hits {
		if floats.Distance(c.Position, src.Point(int(h.ID)), 2) < r {
			c.InRange = append(c.InRange, int(h.ID))
		}
	}
	return nil
}

// fit runs the damped fixed-point iteration. Pass 0 weights every point
// equally; later passes weight by the density under the previous estimate and
// blend the result half and half with it.
func (e *Estimator) fit(src PointSource, c *Centroid) {
	c.Cov, c.Passes, c.Converged, c.Err = nil, 0, false, nil
	if len(c.InRange) == 0 {
		c.Err = ErrEmptyNeighborhood
		return
	}

	points := make([][]float64, len(c.InRange))
	for i, id := range c.InRange {
		points[i] = src.Point(id)
	}
	weights := make([]float64, len(points))
	for i := range weights {
		weights[i] = 1 / float64(len(points))
	}

	var cov *mat.SymDense
	for pass := 0; pass < max(1, e.MaxIterations); pass++ {
		if pass > 0 {
			g, err := gauss.New(c.Position, cov)
			if err != nil {
				c.Err = err
				return
			}
			densityWeights(g, points, weights)
		}

		next := gauss.WeightedCovariance(c.Position, points, weights)
		if pass > 0 {
			next = gauss.Blend(0.5, cov, next)
		}
		if !gauss.IsFinite(next) {
			c.Err = fmt.Errorf("%w: non-finite covariance", gauss.ErrNotPositiveDefinite)
			return
		}

		converged := pass > 0 && gauss.MaxAbsDiff(cov, next) < e.Tolerance
		cov = next
		c.Cov = cov
		c.Passes = pass + 1
		if converged {
			c.Converged = true
			break
		}
	}

	if _, err := gauss.New(c.Position, cov); err != nil {
		c.Err = err
	}
}

// densityWeights sets w to the normalized densities of points under g. The
// log densities are shifted by their maximum before exponentiation.
func densityWeights(g *gauss.Gaussian, points [][]float64, w []float64) {
	maxLog := math.Inf(-1)
	for i, p := range points {
		w[i] = g.LogDensity(p)
		maxLog = math.Max(maxLog, w[i])
	}
	var sum float64
	for i := range w {
		w[i] = math.Exp(w[i] - maxLog)
		sum += w[i]
	}
	floats.Scale(1/sum, w)
}
