package pointcloud

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// Point is one LiDAR return in the sensor frame. Coordinates are metres;
// Remission is the unitless return intensity. Fields are float32 to match
// the on-disk KITTI layout; arithmetic is done in float64.
type Point struct {
	X, Y, Z   float32
	Remission float32
}

// Vec returns the point's position as a gonum vector.
func (p Point) Vec() r3.Vec {
	return r3.Vec{X: float64(p.X), Y: float64(p.Y), Z: float64(p.Z)}
}

// Range returns the Euclidean distance from the sensor origin.
func (p Point) Range() float64 {
	return r3.Norm(p.Vec())
}

// Finite reports whether all coordinates are finite.
func (p Point) Finite() bool {
	for _, v := range [...]float32{p.X, p.Y, p.Z} {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// Cloud is an ordered point set. Order matters only because masks and the
// projected index channel refer to positions in the original cloud.
type Cloud []Point

// Vecs returns the xyz coordinates of every point. Remission is dropped.
func (c Cloud) Vecs() []r3.Vec {
	out := make([]r3.Vec, len(c))
	for i, p := range c {
		out[i] = p.Vec()
	}
	return out
}

// Ranges returns the sensor range of every point.
func (c Cloud) Ranges() []float64 {
	out := make([]float64, len(c))
	for i, p := range c {
		out[i] = p.Range()
	}
	return out
}

// Subset returns the points at the given indices, in index order.
func (c Cloud) Subset(indices []int) Cloud {
	out := make(Cloud, len(indices))
	for i, idx := range indices {
		out[i] = c[idx]
	}
	return out
}

// Clone returns a copy of the cloud.
func (c Cloud) Clone() Cloud {
	if c == nil {
		return nil
	}
	out := make(Cloud, len(c))
	copy(out, c)
	return out
}
