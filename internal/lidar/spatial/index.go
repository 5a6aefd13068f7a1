package spatial

import (
	"fmt"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/kdtree"
	"gonum.org/v1/gonum/spatial/r3"
)

// minParallelQueries is the batch size below which queries always run on
// the calling goroutine.
const minParallelQueries = 2048

// Index answers neighbour queries over a fixed 3-D point set.
type Index struct {
	tree    *kdtree.Tree
	n       int
	workers int
}

// Option configures an Index.
type Option func(*Index)

// WithWorkers splits query batches across n goroutines. Results do not
// depend on n.
func WithWorkers(n int) Option {
	return func(ix *Index) {
		if n > 0 {
			ix.workers = n
		}
	}
}

// New builds an index over points. The slice is copied; callers may reuse it.
func New(points []r3.Vec, opts ...Option) (*Index, error) {
	if len(points) == 0 {
		return nil, &InsufficientPointsError{Op: "build index", Have: 0, Need: 1}
	}
	data := make(entries, len(points))
	for i, p := range points {
		data[i] = entry{vec: p, idx: i}
	}
	ix := &Index{
		tree:    kdtree.New(data, false),
		n:       len(points),
		workers: 1,
	}
	for _, opt := range opts {
		opt(ix)
	}
	return ix, nil
}

// Len returns the number of indexed points.
func (ix *Index) Len() int { return ix.n }

// KNearest returns, for every query, the k closest indexed points in
// ascending distance order. A query that is itself indexed finds itself at
// distance zero, so ask for k+1 when self should be excluded. Distances are
// Euclidean; ties are ordered by index.
func (ix *Index) KNearest(queries []r3.Vec, k int) ([][]float64, [][]int, error) {
	if k < 1 {
		return nil, nil, fmt.Errorf("%w: k must be at least 1, got %d", ErrInvalidArgument, k)
	}
	if k > ix.n {
		return nil, nil, &InsufficientPointsError{Op: "k-nearest query", Have: ix.n, Need: k}
	}

	dists := make([][]float64, len(queries))
	indices := make([][]int, len(queries))
	ix.forEach(len(queries), func(i int) {
		keeper := kdtree.NewNKeeper(k)
		ix.tree.NearestSet(keeper, entry{vec: queries[i], idx: -1})

		found := collect(keeper.Heap)
		d := make([]float64, len(found))
		idx := make([]int, len(found))
		for j, f := range found {
			d[j] = math.Sqrt(f.Dist)
			idx[j] = f.Comparable.(entry).idx
		}
		dists[i], indices[i] = d, idx
	})
	return dists, indices, nil
}

// CountWithinRadius returns, for every query, the number of indexed points
// at Euclidean distance <= radius. An indexed query counts itself. radii holds
// one radius per query, or a single radius applied to all of them.
func (ix *Index) CountWithinRadius(queries []r3.Vec, radii []float64) ([]int, error) {
	if len(radii) != 1 && len(radii) != len(queries) {
		return nil, fmt.Errorf("%w: %d radii for %d queries", ErrInvalidArgument, len(radii), len(queries))
	}
	for _, r := range radii {
		if r < 0 || math.IsNaN(r) {
			return nil, fmt.Errorf("%w: radius must be non-negative, got %v", ErrInvalidArgument, r)
		}
	}

	counts := make([]int, len(queries))
	ix.forEach(len(queries), func(i int) {
		r := radii[0]
		if len(radii) > 1 {
			r = radii[i]
		}
		keeper := kdtree.NewDistKeeper(r * r)
		ix.tree.NearestSet(keeper, entry{vec: queries[i], idx: -1})
		n := 0
		for _, c := range keeper.Heap {
			if c.Comparable != nil {
				n++
			}
		}
		counts[i] = n
	})
	return counts, nil
}

// collect drops the keeper sentinel and sorts by distance, then index.
func collect(h kdtree.Heap) []kdtree.ComparableDist {
	out := make([]kdtree.ComparableDist, 0, len(h))
	for _, c := range h {
		if c.Comparable != nil {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Dist != out[b].Dist {
			return out[a].Dist < out[b].Dist
		}
		return out[a].Comparable.(entry).idx < out[b].Comparable.(entry).idx
	})
	return out
}

// forEach runs fn for 0..n-1, in chunks across the configured workers.
func (ix *Index) forEach(n int, fn func(i int)) {
	if ix.workers <= 1 || n < minParallelQueries {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return
	}

	chunk := (n + ix.workers - 1) / ix.workers
	var g errgroup.Group
	g.SetLimit(ix.workers)
	for start := 0; start < n; start += chunk {
		start, end := start, min(start+chunk, n)
		g.Go(func() error {
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}
	_ = g.Wait()
}
