// Package spatial provides the point index used for both raw feature points
// and centroid positions.
//
// An Index stores (point, id) entries in a k-d tree from
// gonum.org/v1/gonum/spatial/kdtree and answers two kinds of queries:
//
//   - QueryIntersects: every live entry inside an axis-aligned box
//   - QueryNearest: the k closest live entries, ascending by distance
//
// Inserts land in a small unbalanced tail that is scanned linearly and folded
// into a freshly balanced tree once it grows past a fraction of the base.
// Removal only clears the id from a roaring liveness bitmap; Rebuild drops
// removed entries physically. Bulk deletion is expected to be followed by a
// Rebuild rather than relying on many incremental removals.
//
// Results are ordered deterministically (by id for box queries, by distance
// then id for nearest queries) so that callers iterating over them get
// reproducible floating point sums.
//
// An Index is not safe for concurrent mutation. Concurrent queries are safe as
// long as no Insert, Remove or Rebuild runs at the same time.
package spatial
