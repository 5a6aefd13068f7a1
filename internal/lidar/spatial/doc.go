// Package spatial provides the per-frame 3-D spatial index used by the
// outlier filters: k-nearest-neighbour and radius-count queries over a
// point set, backed by gonum's k-d tree.
//
// An Index is built once per frame and is safe for concurrent queries.
package spatial
