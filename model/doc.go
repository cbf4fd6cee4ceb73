// Package model defines the immutable Gaussian cluster model produced by a
// clustering run.
//
// # Construction
//
// Models are created by the engine from fitted centroids. A model snapshots
// the centroid's mean and covariance, optionally ridge regularized:
//
//	Σ' = Σ + λ·I
//
// and factorizes Σ' once. Every accessor returns copies, so a model can be
// shared freely between goroutines.
//
// # Degenerate Models
//
// When the covariance cannot be factorized (singular, indefinite, or the
// centroid had no points in range) the model is degenerate: Degenerate
// reports true, Err wraps ErrDegenerate with the cause and Eval fails. A
// positive regularization usually turns a degenerate fit into a usable model.
//
// # Evaluation
//
//	density, err := m.Eval(point)
//
// returns exp(-m/2) / sqrt((2π)^D · det Σ') where m is the Mahalanobis term of
// the point.
package model
