package spatial

import "gonum.org/v1/gonum/spatial/kdtree"

// node is the kdtree.Comparable stored in the tree.
type node struct {
	p  []float64
	id uint32
}

func (n node) Compare(c kdtree.Comparable, d kdtree.Dim) float64 { return n.p[d] - c.(node).p[d] }

func (n node) Dims() int { return len(n.p) }

// Distance returns the squared Euclidean distance, as kdtree expects.
func (n node) Distance(c kdtree.Comparable) float64 {
	return kdtree.Point(n.p).Distance(kdtree.Point(c.(node).p))
}

func (n node) entry() Entry { return Entry{Point: n.p, ID: n.id} }

// nodes satisfies kdtree.Interface.
type nodes []node

func (s nodes) Index(i int) kdtree.Comparable         { return s[i] }
func (s nodes) Len() int                              { return len(s) }
func (s nodes) Pivot(d kdtree.Dim) int                { return plane{nodes: s, Dim: d}.Pivot() }
func (s nodes) Slice(start, end int) kdtree.Interface { return s[start:end] }

// plane sorts nodes along a single dimension for median selection.
type plane struct {
	kdtree.Dim
	nodes
}

func (p plane) Less(i, j int) bool { return p.nodes[i].p[p.Dim] < p.nodes[j].p[p.Dim] }
func (p plane) Pivot() int         { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p plane) Slice(start, end int) kdtree.SortSlicer {
	p.nodes = p.nodes[start:end]
	return p
}
func (p plane) Swap(i, j int) { p.nodes[i], p.nodes[j] = p.nodes[j], p.nodes[i] }
