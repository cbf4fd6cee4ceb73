package spatial

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"gonum.org/v1/gonum/spatial/kdtree"
)

var (
	// ErrInvalidDimension is returned when an index is created with dim < 1.
	ErrInvalidDimension = errors.New("spatial: dimension must be positive")

	// ErrDimensionMismatch is returned when a point or box does not match the index dimension.
	ErrDimensionMismatch = errors.New("spatial: dimension mismatch")

	// ErrDuplicateID is returned when inserting an id that is already live.
	ErrDuplicateID = errors.New("spatial: id already present")
)

// minTail is the smallest unbalanced tail that triggers a fold into the tree.
const minTail = 64

// Entry is a point stored in the index together with its id.
// Point is owned by the index and must not be modified.
type Entry struct {
	Point []float64
	ID    uint32
}

// Neighbor is an entry returned by a nearest query.
type Neighbor struct {
	Entry
	// Distance is the Euclidean distance to the query point.
	Distance float64
}

// Index is a k-d tree over (point, id) entries.
type Index struct {
	dim  int
	tree *kdtree.Tree
	base int
	tail []node
	live *roaring.Bitmap
	dead *roaring.Bitmap
}

// New returns an empty index for points of the given dimension.
func New(dim int) (*Index, error) {
	if dim < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDimension, dim)
	}
	return &Index{
		dim:  dim,
		tree: kdtree.New(nodes(nil), false),
		live: roaring.New(),
		dead: roaring.New(),
	}, nil
}

// Build returns a balanced index containing entries.
func Build(dim int, entries []Entry) (*Index, error) {
	x, err := New(dim)
	if err != nil {
		return nil, err
	}
	ns := make(nodes, 0, len(entries))
	for _, e := range entries {
		if len(e.Point) != dim {
			return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, dim, len(e.Point))
		}
		if !x.live.CheckedAdd(e.ID) {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateID, e.ID)
		}
		ns = append(ns, node{p: slices.Clone(e.Point), id: e.ID})
	}
	x.tree = kdtree.New(ns, false)
	x.base = len(ns)
	return x, nil
}

// Dim returns the point dimension of the index.
func (x *Index) Dim() int { return x.dim }

// Len returns the number of live entries.
func (x *Index) Len() int { return int(x.live.GetCardinality()) }

// Contains reports whether id is live in the index.
func (x *Index) Contains(id uint32) bool { return x.live.Contains(id) }

// Insert adds point under id. The point is copied.
func (x *Index) Insert(point []float64, id uint32) error {
	if len(point) != x.dim {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, x.dim, len(point))
	}
	if x.live.Contains(id) {
		return fmt.Errorf("%w: %d", ErrDuplicateID, id)
	}
	if x.dead.Contains(id) {
		// A removed entry with this id is still physically present.
		x.Rebuild()
	}
	x.live.Add(id)
	x.tail = append(x.tail, node{p: slices.Clone(point), id: id})
	if len(x.tail) > max(minTail, x.base/4) {
		x.Rebuild()
	}
	return nil
}

// Remove marks id as deleted. It reports whether id was live.
func (x *Index) Remove(id uint32) bool {
	if !x.live.CheckedRemove(id) {
		return false
	}
	x.dead.Add(id)
	return true
}

// Rebuild drops removed entries and rebalances the tree, folding in the tail.
func (x *Index) Rebuild() {
	ns := make(nodes, 0, x.Len())
	x.tree.Do(func(c kdtree.Comparable, _ *kdtree.Bounding, _ int) bool {
		if n := c.(node); x.live.Contains(n.id) {
			ns = append(ns, n)
		}
		return false
	})
	for _, n := range x.tail {
		if x.live.Contains(n.id) {
			ns = append(ns, n)
		}
	}
	x.tree = kdtree.New(ns, false)
	x.base = len(ns)
	x.tail = nil
	x.dead.Clear()
}

// Entries returns all live entries ordered by id.
func (x *Index) Entries() []Entry {
	out := make([]Entry, 0, x.Len())
	x.tree.Do(func(c kdtree.Comparable, _ *kdtree.Bounding, _ int) bool {
		if n := c.(node); x.live.Contains(n.id) {
			out = append(out, n.entry())
		}
		return false
	})
	for _, n := range x.tail {
		if x.live.Contains(n.id) {
			out = append(out, n.entry())
		}
	}
	slices.SortFunc(out, byID)
	return out
}

// QueryIntersects returns every live entry inside b (faces inclusive), ordered by id.
func (x *Index) QueryIntersects(b Box) ([]Entry, error) {
	if len(b.Min) != x.dim || len(b.Max) != x.dim {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, x.dim, len(b.Min))
	}

	var out []Entry

	// The tree prunes a subtree only when the bound is strictly on one side of
	// the splitting value, so points lying exactly on a face could be skipped.
	// Widen by one ulp and filter against the exact box.
	bounds := &kdtree.Bounding{
		Min: node{p: nextafter(b.Min, math.Inf(-1))},
		Max: node{p: nextafter(b.Max, math.Inf(1))},
	}
	x.tree.DoBounded(bounds, func(c kdtree.Comparable, _ *kdtree.Bounding, _ int) bool {
		if n := c.(node); b.Contains(n.p) && x.live.Contains(n.id) {
			out = append(out, n.entry())
		}
		return false
	})
	for _, n := range x.tail {
		if b.Contains(n.p) && x.live.Contains(n.id) {
			out = append(out, n.entry())
		}
	}

	slices.SortFunc(out, byID)
	return out, nil
}

// QueryNearest returns up to k live entries closest to point, ascending by
// distance. Equal distances are ordered by id.
func (x *Index) QueryNearest(point []float64, k int) ([]Neighbor, error) {
	if len(point) != x.dim {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, x.dim, len(point))
	}
	if k <= 0 {
		return nil, nil
	}

	q := node{p: point}
	keep := liveKeeper{NKeeper: kdtree.NewNKeeper(k), live: x.live}
	x.tree.NearestSet(keep, q)

	out := make([]Neighbor, 0, k+len(x.tail))
	for _, c := range keep.Heap {
		if c.Comparable == nil {
			continue
		}
		out = append(out, Neighbor{Entry: c.Comparable.(node).entry(), Distance: math.Sqrt(c.Dist)})
	}
	for _, n := range x.tail {
		if x.live.Contains(n.id) {
			out = append(out, Neighbor{Entry: n.entry(), Distance: math.Sqrt(q.Distance(n))})
		}
	}

	slices.SortFunc(out, func(a, b Neighbor) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func byID(a, b Entry) int { return cmp.Compare(a.ID, b.ID) }

func nextafter(v []float64, toward float64) []float64 {
	out := make([]float64, len(v))
	for i, f := range v {
		out[i] = math.Nextafter(f, toward)
	}
	return out
}

// liveKeeper retains the k nearest entries, ignoring removed ones.
type liveKeeper struct {
	*kdtree.NKeeper
	live *roaring.Bitmap
}

func (k liveKeeper) Keep(c kdtree.ComparableDist) {
	if !k.live.Contains(c.Comparable.(node).id) {
		return
	}
	k.NKeeper.Keep(c)
}
