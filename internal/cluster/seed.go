package cluster

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CellKey returns the canonical key of the grid cell containing point and the
// center of that cell. Cell indices use floor division, so -0.5 with a cell
// size of 1 falls into cell -1.
func CellKey(point []float64, cellSize float64) (string, []float64) {
	var sb strings.Builder
	center := make([]float64, len(point))
	for i, x := range point {
		n := math.Floor(x / cellSize)
		if n == 0 {
			n = 0 // no negative zero in keys
		}
		center[i] = n*cellSize + 0.5*cellSize
		if n >= 0 {
			sb.WriteByte('+')
		}
		sb.WriteString(strconv.FormatFloat(n, 'f', -1, 64))
		sb.WriteByte(':')
	}
	sb.WriteByte(':')
	sb.WriteString(strconv.FormatFloat(cellSize, 'g', -1, 64))
	return sb.String(), center
}

// Seed creates one centroid per occupied grid cell, in order of first
// occurrence. Every centroid starts with an infinite delta so that the first
// mean update visits it.
func Seed(src PointSource, cellSize float64) (*Set, error) {
	if !validCellSize(cellSize) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCellSize, cellSize)
	}

	set := NewSet()
	seen := make(map[string]struct{})
	for i := 0; i < src.Len(); i++ {
		key, center := CellKey(src.Point(i), cellSize)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		set.Add(&Centroid{Key: key, Position: center, Delta: math.Inf(1)})
	}
	return set, nil
}

func validCellSize(d float64) bool {
	return d > 0 && !math.IsInf(d, 1)
}
