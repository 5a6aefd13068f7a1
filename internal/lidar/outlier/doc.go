// Package outlier classifies LiDAR points as sensor noise.
//
// Responsibilities: the DSOR (dynamic statistical outlier removal) and
// DROR (dynamic radius outlier removal) filters, and the iterative
// refinement wrapper that reapplies any Filter to the surviving points.
// Key types: Filter, Mask (re-exported from pointcloud), DSOR, DROR, Iterative.
//
// Dependency rule: outlier depends on pointcloud and spatial only.
// No I/O, rendering or database code is allowed in this package.
package outlier
