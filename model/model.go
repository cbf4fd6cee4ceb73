package model

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/glassfire/internal/gauss"
)

var (
	// ErrDegenerate is returned when evaluating a model without a usable covariance.
	ErrDegenerate = errors.New("model: degenerate covariance")

	// ErrDimensionMismatch is returned when a point does not match the model dimension.
	ErrDimensionMismatch = errors.New("model: dimension mismatch")
)

// Params are the inputs of New.
type Params struct {
	Key         string
	Mean        []float64
	Covariance  *mat.SymDense // nil if no fit was possible
	Count       int
	DataIndices []int
	Regularize  float64
	// Cause is a fit error recorded before the snapshot.
	Cause error
}

// ClusterModel is an immutable multivariate Gaussian with an identifying key.
// The zero value is an empty, degenerate model.
type ClusterModel struct {
	key        string
	mean       []float64
	cov        *mat.SymDense
	count      int
	indices    []int
	regularize float64
	g          *gauss.Gaussian
	err        error
}

// New snapshots p into a model. Slices and matrices are copied.
func New(p Params) ClusterModel {
	m := ClusterModel{
		key:        p.Key,
		mean:       slices.Clone(p.Mean),
		count:      p.Count,
		indices:    slices.Clone(p.DataIndices),
		regularize: p.Regularize,
	}

	if p.Covariance == nil {
		m.err = degenerate(p.Cause)
		return m
	}

	m.cov = gauss.Regularize(p.Covariance, p.Regularize)
	g, err := gauss.New(m.mean, m.cov)
	if err != nil {
		m.err = degenerate(err)
		return m
	}
	m.g = g
	return m
}

func degenerate(cause error) error {
	if cause == nil {
		return ErrDegenerate
	}
	return fmt.Errorf("%w: %w", ErrDegenerate, cause)
}

// Key returns the grid cell key of the centroid the model was derived from.
func (m ClusterModel) Key() string { return m.key }

// Dim returns the model dimension.
func (m ClusterModel) Dim() int { return len(m.mean) }

// Mean returns a copy of the mean.
func (m ClusterModel) Mean() []float64 { return slices.Clone(m.mean) }

// Covariance returns a copy of the (regularized) covariance, or nil if the
// model has none.
func (m ClusterModel) Covariance() *mat.SymDense {
	if m.cov == nil {
		return nil
	}
	return mat.NewSymDense(m.cov.SymmetricDim(), slices.Clone(m.cov.RawSymmetric().Data))
}

// Inverse returns a copy of the inverse covariance, or nil if degenerate.
func (m ClusterModel) Inverse() *mat.SymDense {
	if m.g == nil {
		return nil
	}
	return m.g.Inverse()
}

// Determinant returns the covariance determinant, or 0 if degenerate.
func (m ClusterModel) Determinant() float64 {
	if m.g == nil {
		return 0
	}
	return m.g.Det()
}

// Count returns the number of raw points around the mean at the end of the
// mean-shift phase.
func (m ClusterModel) Count() int { return m.count }

// DataIndices returns the indices of the raw points the covariance was fitted on.
func (m ClusterModel) DataIndices() []int { return slices.Clone(m.indices) }

// Regularization returns the ridge term added to the covariance diagonal.
func (m ClusterModel) Regularization() float64 { return m.regularize }

// Degenerate reports whether the model cannot be evaluated.
func (m ClusterModel) Degenerate() bool { return m.g == nil }

// Err returns the reason a model is degenerate, wrapping ErrDegenerate.
func (m ClusterModel) Err() error {
	if m.g != nil {
		return nil
	}
	if m.err == nil {
		return ErrDegenerate
	}
	return m.err
}

// Eval returns the density of the model at point.
func (m ClusterModel) Eval(point []float64) (float64, error) {
	if m.g == nil {
		return 0, m.Err()
	}
	if len(point) != m.Dim() {
		return 0, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, m.Dim(), len(point))
	}
	return m.g.Density(point), nil
}

// LogEval returns the log density of the model at point.
func (m ClusterModel) LogEval(point []float64) (float64, error) {
	if m.g == nil {
		return 0, m.Err()
	}
	if len(point) != m.Dim() {
		return 0, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, m.Dim(), len(point))
	}
	return m.g.LogDensity(point), nil
}

// String implements fmt.Stringer.
func (m ClusterModel) String() string {
	if m.g == nil {
		return fmt.Sprintf("ClusterModel(%s, degenerate)", m.key)
	}
	return fmt.Sprintf("ClusterModel(%s, mean=%v, count=%d)", m.key, m.mean, m.count)
}
