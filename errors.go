package glassfire

import (
	"errors"
	"fmt"

	"github.com/hupe1980/glassfire/internal/cluster"
	"github.com/hupe1980/glassfire/internal/feature"
	"github.com/hupe1980/glassfire/model"
)

var (
	// ErrInvalidCellSize is returned when the cell size is not a positive finite number.
	ErrInvalidCellSize = errors.New("cell size must be positive and finite")

	// ErrEmptyFeatureSet is returned when clustering is requested without points.
	ErrEmptyFeatureSet = errors.New("feature set is empty")

	// ErrInvalidRegularization is returned for a negative or non-finite ridge term.
	ErrInvalidRegularization = errors.New("regularization must be non-negative and finite")

	// ErrInvalidBoxSize is returned for a negative or non-finite box half-width.
	ErrInvalidBoxSize = errors.New("box size must be non-negative and finite")

	// ErrMetadataLength is returned when a batch carries a metadata slice of a different length.
	ErrMetadataLength = errors.New("metadata length does not match point count")

	// ErrNonFinitePoint is returned for a point with a NaN or infinite coordinate.
	ErrNonFinitePoint = errors.New("point has a non-finite coordinate")

	// ErrInvalidOption is returned when an option value is out of range.
	ErrInvalidOption = errors.New("invalid option")

	// ErrDegenerateModel is returned when evaluating a model without a usable covariance.
	ErrDegenerateModel = model.ErrDegenerate
)

// ErrDimensionMismatch indicates a point/model dimensionality mismatch.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
	cause    error
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

func (e *ErrDimensionMismatch) Unwrap() error { return e.cause }

// ErrInvalidDimension indicates an invalid configured dimension.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidDimension struct {
	Dimension int
	cause     error
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

func (e *ErrInvalidDimension) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Argument normalization.
	if errors.Is(err, cluster.ErrInvalidCellSize) {
		return fmt.Errorf("%w: %w", ErrInvalidCellSize, err)
	}
	if errors.Is(err, feature.ErrNonFinite) {
		return fmt.Errorf("%w: %w", ErrNonFinitePoint, err)
	}

	return err
}

// checkDimension validates point against the engine dimension.
func checkDimension(dim int, point []float64) error {
	if len(point) != dim {
		return &ErrDimensionMismatch{Expected: dim, Actual: len(point)}
	}
	return nil
}
