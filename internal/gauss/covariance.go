package gauss

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// WeightedCovariance returns Σ wᵢ (pᵢ-c)(pᵢ-c)ᵀ. The weights are used as
// given; callers normalize them beforehand.
func WeightedCovariance(center []float64, points [][]float64, weights []float64) *mat.SymDense {
	n := len(center)
	cov := mat.NewSymDense(n, nil)
	v := mat.NewVecDense(n, nil)
	for i, p := range points {
		for d := range center {
			v.SetVec(d, p[d]-center[d])
		}
		cov.SymRankOne(cov, weights[i], v)
	}
	return cov
}

// Blend returns alpha·a + (1-alpha)·b.
func Blend(alpha float64, a, b mat.Symmetric) *mat.SymDense {
	n := a.SymmetricDim()
	out := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			out.SetSym(i, j, alpha*a.At(i, j)+(1-alpha)*b.At(i, j))
		}
	}
	return out
}

// Regularize returns cov + lambda·I. A zero lambda returns a plain copy.
func Regularize(cov mat.Symmetric, lambda float64) *mat.SymDense {
	n := cov.SymmetricDim()
	out := mat.NewSymDense(n, nil)
	out.CopySym(cov)
	for i := 0; i < n; i++ {
		out.SetSym(i, i, out.At(i, i)+lambda)
	}
	return out
}

// MaxAbsDiff returns the largest element-wise absolute difference between a and b.
func MaxAbsDiff(a, b mat.Symmetric) float64 {
	var d float64
	n := a.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			d = math.Max(d, math.Abs(a.At(i, j)-b.At(i, j)))
		}
	}
	return d
}

// IsFinite reports whether every element of m is finite.
func IsFinite(m mat.Symmetric) bool {
	n := m.SymmetricDim()
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			if v := m.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
