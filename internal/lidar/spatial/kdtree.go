package spatial

import (
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// entry is a tree element: a position plus its index in the source slice.
// Query points use idx -1.
type entry struct {
	vec r3.Vec
	idx int
}

// Compare implements kdtree.Comparable.
func (e entry) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(entry)
	switch d {
	case 0:
		return e.vec.X - q.vec.X
	case 1:
		return e.vec.Y - q.vec.Y
	case 2:
		return e.vec.Z - q.vec.Z
	default:
		panic("illegal dimension")
	}
}

// Dims implements kdtree.Comparable.
func (e entry) Dims() int { return 3 }

// Distance returns the squared Euclidean distance, as kdtree expects.
func (e entry) Distance(c kdtree.Comparable) float64 {
	d := r3.Sub(e.vec, c.(entry).vec)
	return r3.Dot(d, d)
}

// entries satisfies kdtree.Interface.
type entries []entry

func (p entries) Index(i int) kdtree.Comparable         { return p[i] }
func (p entries) Len() int                              { return len(p) }
func (p entries) Slice(start, end int) kdtree.Interface { return p[start:end] }

func (p entries) Pivot(d kdtree.Dim) int {
	pl := plane{entries: p, Dim: d}
	return kdtree.Partition(pl, kdtree.MedianOfMedians(pl))
}

// plane sorts entries along one dimension for pivot selection.
type plane struct {
	entries
	kdtree.Dim
}

func (p plane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.entries[i].vec.X < p.entries[j].vec.X
	case 1:
		return p.entries[i].vec.Y < p.entries[j].vec.Y
	case 2:
		return p.entries[i].vec.Z < p.entries[j].vec.Z
	default:
		panic("illegal dimension")
	}
}

func (p plane) Slice(start, end int) kdtree.SortSlicer {
	return plane{entries: p.entries[start:end], Dim: p.Dim}
}

func (p plane) Swap(i, j int) {
	p.entries[i], p.entries[j] = p.entries[j], p.entries[i]
}
