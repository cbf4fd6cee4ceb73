// Package cluster implements the three clustering phases that turn raw points
// into a set of fitted local Gaussians:
//
//  1. Seed places one centroid at the center of every occupied grid cell.
//  2. Optimizer shifts each centroid to the mean of the points around it and
//     removes centroids that collide with a better populated neighbour or stay
//     underpopulated after the warm-up iterations.
//  3. Estimator fits a covariance for every surviving centroid from its
//     neighbourhood using a damped, density weighted fixed-point iteration.
//
// Centroids live in a Set addressed by stable ids. Both the centroid index and
// the raw point index store those ids, so deleting a centroid never
// invalidates an ongoing iteration.
//
// The raw points and the raw spatial index are passed into each phase and are
// only read. Per-centroid work inside a phase may run on several goroutines.
package cluster
