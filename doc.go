// Package glassfire clusters unlabeled points into local Gaussian density
// models.
//
// Glassfire is an in-memory batch engine. Points of a fixed dimension are
// appended together with opaque metadata, clustered at a chosen spatial
// resolution, and the resulting models are queried for densities or used to
// recover the raw points they represent.
//
// # Quick Start
//
//	eng, _ := glassfire.New[string](2)
//	eng.AppendFeature([]float64{0, 0}, "a")
//	eng.AppendFeature([]float64{0.1, 0.1}, "b")
//
//	ss, _ := eng.RunCluster(ctx, 1.0)
//	fmt.Println(ss.ClusterCount())
//
// # Pipeline
//
// RunCluster runs three phases over the raw points:
//
//	// 1. SEEDING: one centroid at the center of every occupied grid cell.
//	// 2. MEAN SHIFT: centroids move to the mean of the points in their
//	//    cell-sized box; colliding or underpopulated centroids are removed
//	//    until no centroid moves more than cellSize·ratio.
//	// 3. COVARIANCE FIT: a density weighted, damped fixed-point iteration
//	//    over the points near each surviving centroid.
//
// Run options control the phases:
//
//	ss, _ := eng.RunCluster(ctx, 0.5,
//	    glassfire.WithMinimalCount(3),
//	    glassfire.WithRatioOfMinimumDiff(0.001),
//	    glassfire.WithNeighborhood(glassfire.NeighborhoodFixed),
//	)
//
// # Queries
//
// A ScorerSet is read-only and safe for concurrent use:
//
//	scores, _ := ss.CalcScores(point)        // every model, densest first
//	res, _ := ss.Query(point, 0.01, 0)        // best of the nearest models
//	models, _ := ss.ModelSet(0.01)            // regularized snapshots
//	data, _ := eng.QueryData(res.Model, 0.5)  // raw points near a model
//
// # Degenerate Models
//
// A cluster whose covariance cannot be inverted yields a degenerate model.
// It is skipped by CalcScores and Query and reports ErrDegenerateModel from
// Eval. A positive regularization adds λ·I to the covariance and usually
// makes such a model usable.
//
// # Key Features
//
//   - Runtime dimension, any D ≥ 1
//   - k-d tree spatial indexing for seeding, merging and neighbourhood queries
//   - Adaptive or fixed covariance neighbourhoods
//   - Optional parallel per-centroid work (WithWorkers)
//   - Structured logging (log/slog) and pluggable metrics
package glassfire
