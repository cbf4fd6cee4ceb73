// Package gauss implements the multivariate normal density and the
// covariance helpers used by the estimator and the public model type.
//
// All matrix work is delegated to gonum.org/v1/gonum/mat. A covariance is
// accepted only if its Cholesky factorization succeeds and its inverse is
// well conditioned; anything else is reported as ErrNotPositiveDefinite so that
// callers never see NaN or infinite densities.
package gauss

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNotPositiveDefinite is returned for singular or indefinite covariances.
	ErrNotPositiveDefinite = errors.New("gauss: covariance is not positive definite")

	// ErrDimensionMismatch is returned when mean and covariance sizes disagree.
	ErrDimensionMismatch = errors.New("gauss: dimension mismatch")
)

var log2Pi = math.Log(2 * math.Pi)

// Gaussian is a multivariate normal distribution with a factorized covariance.
type Gaussian struct {
	mean    []float64
	inv     *mat.SymDense
	logDet  float64
	logNorm float64
}

// New factorizes cov and returns the distribution N(mean, cov).
func New(mean []float64, cov mat.Symmetric) (*Gaussian, error) {
	n := cov.SymmetricDim()
	if n != len(mean) {
		return nil, fmt.Errorf("%w: mean %d, covariance %d", ErrDimensionMismatch, len(mean), n)
	}

	var chol mat.Cholesky
	if !chol.Factorize(cov) {
		return nil, ErrNotPositiveDefinite
	}

	inv := mat.NewSymDense(n, nil)
	if err := chol.InverseTo(inv); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotPositiveDefinite, err)
	}

	logDet := chol.LogDet()
	if math.IsNaN(logDet) || math.IsInf(logDet, 0) {
		return nil, ErrNotPositiveDefinite
	}

	return &Gaussian{
		mean:    append([]float64(nil), mean...),
		inv:     inv,
		logDet:  logDet,
		logNorm: -0.5 * (float64(n)*log2Pi + logDet),
	}, nil
}

// Dim returns the dimension of the distribution.
func (g *Gaussian) Dim() int { return len(g.mean) }

// Inverse returns a copy of the inverse covariance.
func (g *Gaussian) Inverse() *mat.SymDense {
	return mat.NewSymDense(g.Dim(), append([]float64(nil), g.inv.RawSymmetric().Data...))
}

// Det returns the covariance determinant. It may underflow to zero for very
// small covariances even though the density stays well defined.
func (g *Gaussian) Det() float64 { return math.Exp(g.logDet) }

// LogDet returns the log of the covariance determinant.
func (g *Gaussian) LogDet() float64 { return g.logDet }

// Mahalanobis returns (x-μ)ᵀ Σ⁻¹ (x-μ). x must have Dim elements.
func (g *Gaussian) Mahalanobis(x []float64) float64 {
	v := mat.NewVecDense(len(x), nil)
	for i, xi := range x {
		v.SetVec(i, xi-g.mean[i])
	}
	// Rounding can push a near-zero quadratic form slightly negative.
	return math.Max(0, mat.Inner(v, g.inv, v))
}

// LogDensity returns the log of the density at x.
func (g *Gaussian) LogDensity(x []float64) float64 {
	return g.logNorm - 0.5*g.Mahalanobis(x)
}

// Density returns exp(-0.5·m) / sqrt((2π)^D · det Σ) where m is the
// Mahalanobis term of x.
func (g *Gaussian) Density(x []float64) float64 {
	return math.Exp(g.LogDensity(x))
}
