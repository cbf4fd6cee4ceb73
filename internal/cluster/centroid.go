package cluster

import (
	"errors"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/mat"

	"github.com/hupe1980/glassfire/model"
)

var (
	// ErrInvalidCellSize is returned for a cell size that is not a positive finite number.
	ErrInvalidCellSize = errors.New("cluster: cell size must be positive and finite")

	// ErrEmptyNeighborhood marks a centroid without any raw point in range.
	ErrEmptyNeighborhood = errors.New("cluster: empty neighborhood")
)

// PointSource gives read access to the raw points by index.
type PointSource interface {
	Dim() int
	Len() int
	Point(i int) []float64
}

// Centroid is the working state of one cluster during a run.
type Centroid struct {
	ID       uint32
	Key      string
	Position []float64

	// Count is the number of raw points seen by the last mean update.
	Count int
	// Delta is the distance moved by the last mean update.
	Delta float64

	// Radius of the neighbourhood used for the covariance fit.
	Radius float64
	// InRange holds the raw point indices inside Radius, ascending.
	InRange []int

	Cov       *mat.SymDense
	Passes    int
	Converged bool
	// Err is set when the fit could not produce a usable covariance.
	Err error
}

// Model snapshots the centroid into an immutable model. The covariance is
// ridge regularized by lambda before it is factorized.
func (c *Centroid) Model(lambda float64) model.ClusterModel {
	return model.New(model.Params{
		Key:         c.Key,
		Mean:        c.Position,
		Covariance:  c.Cov,
		Count:       c.Count,
		DataIndices: c.InRange,
		Regularize:  lambda,
		Cause:       c.Err,
	})
}

// Set is a slot map of centroids. Ids are slot positions and are never reused.
type Set struct {
	slots []*Centroid
	dead  *roaring.Bitmap
}

// NewSet returns an empty set.
func NewSet() *Set {
	return &Set{dead: roaring.New()}
}

// Add stores c and assigns its id.
func (s *Set) Add(c *Centroid) uint32 {
	c.ID = uint32(len(s.slots))
	s.slots = append(s.slots, c)
	return c.ID
}

// Get returns the live centroid with the given id.
func (s *Set) Get(id uint32) (*Centroid, bool) {
	if int(id) >= len(s.slots) || s.dead.Contains(id) {
		return nil, false
	}
	return s.slots[id], true
}

// Remove tombstones id. It reports whether id was live.
func (s *Set) Remove(id uint32) bool {
	if int(id) >= len(s.slots) {
		return false
	}
	return s.dead.CheckedAdd(id)
}

// Len returns the number of live centroids.
func (s *Set) Len() int {
	return len(s.slots) - int(s.dead.GetCardinality())
}

// Live returns the live centroids in id order.
func (s *Set) Live() []*Centroid {
	out := make([]*Centroid, 0, s.Len())
	for i, c := range s.slots {
		if !s.dead.Contains(uint32(i)) {
			out = append(out, c)
		}
	}
	return out
}
