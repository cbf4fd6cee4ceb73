// Package feature holds the append-only store of ingested points.
package feature

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrInvalidDimension is returned when a store is created with dim < 1.
	ErrInvalidDimension = errors.New("feature: dimension must be positive")

	// ErrDimensionMismatch is returned when an appended point has the wrong length.
	ErrDimensionMismatch = errors.New("feature: dimension mismatch")

	// ErrNonFinite is returned when an appended point has a NaN or infinite coordinate.
	ErrNonFinite = errors.New("feature: non-finite coordinate")

	// ErrFull is returned when the store cannot address another record.
	ErrFull = errors.New("feature: store is full")
)

// Record is a stored point with its metadata and stable index.
type Record[M any] struct {
	Index    int
	Point    []float64
	Metadata M
}

// Store is an append-only sequence of records. The index of a record never
// changes for the lifetime of the store.
type Store[M any] struct {
	dim     int
	records []Record[M]
}

// NewStore creates an empty store for points of dimension dim.
func NewStore[M any](dim int) (*Store[M], error) {
	if dim < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, dim)
	}
	return &Store[M]{dim: dim}, nil
}

// Append copies point into the store and returns its index.
func (s *Store[M]) Append(point []float64, meta M) (int, error) {
	if len(point) != s.dim {
		return 0, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, s.dim, len(point))
	}
	for _, v := range point {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: %v", ErrNonFinite, point)
		}
	}
	if uint64(len(s.records)) >= math.MaxUint32 {
		return 0, ErrFull
	}

	idx := len(s.records)
	s.records = append(s.records, Record[M]{
		Index:    idx,
		Point:    slices.Clone(point),
		Metadata: meta,
	})
	return idx, nil
}

// Truncate drops every record with an index of n or more.
func (s *Store[M]) Truncate(n int) {
	if n < 0 || n >= len(s.records) {
		return
	}
	clear(s.records[n:])
	s.records = s.records[:n]
}

// Dim returns the point dimension.
func (s *Store[M]) Dim() int { return s.dim }

// Len returns the number of records.
func (s *Store[M]) Len() int { return len(s.records) }

// Point returns the point stored at index i. The slice must not be modified.
func (s *Store[M]) Point(i int) []float64 { return s.records[i].Point }

// Record returns the record at index i.
func (s *Store[M]) Record(i int) (Record[M], bool) {
	if i < 0 || i >= len(s.records) {
		return Record[M]{}, false
	}
	return s.records[i], true
}
