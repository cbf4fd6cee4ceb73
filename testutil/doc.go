// Package testutil provides testing utilities for glassfire.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded, goroutine-safe RNG for generating point clouds and
// brute-force helpers to check index answers against.
//
// # Point Generation
//
//	rng := testutil.NewRNG(seed)
//	pts := rng.UniformPoints(1000, 3, -10, 10)
//	blob := rng.GaussianBlob(200, []float64{5, 5}, 0.3)
//	pts, labels := rng.Blobs(600, centers, 0.3)
//
// # Ground Truth
//
//	idx := testutil.ExactBox(pts, center, halfWidth)
package testutil
