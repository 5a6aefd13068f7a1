// Package testutil provides shared test utilities and point cloud fixtures.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

import (
	"math/rand/v2"
	"testing"

	"github.com/banshee-data/lidarclean/internal/lidar/pointcloud"
)

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertMaskLen fails the test unless the mask has one entry per point.
func AssertMaskLen(t *testing.T, mask pointcloud.Mask, cloud pointcloud.Cloud) {
	t.Helper()
	if len(mask) != len(cloud) {
		t.Fatalf("mask length = %d, want %d", len(mask), len(cloud))
	}
}

// Block returns nx*ny*nz points on a regular lattice with the given spacing,
// starting at (x0, y0, z0). Points are ordered x-major.
func Block(x0, y0, z0 float32, nx, ny, nz int, spacing float32) pointcloud.Cloud {
	out := make(pointcloud.Cloud, 0, nx*ny*nz)
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			for k := 0; k < nz; k++ {
				out = append(out, pointcloud.Point{
					X:         x0 + float32(i)*spacing,
					Y:         y0 + float32(j)*spacing,
					Z:         z0 + float32(k)*spacing,
					Remission: 0.5,
				})
			}
		}
	}
	return out
}

// Grid returns a flat nx*ny lattice at height z.
func Grid(x0, y0, z float32, nx, ny int, spacing float32) pointcloud.Cloud {
	return Block(x0, y0, z, nx, ny, 1, spacing)
}

// ClusterWithOutlier returns the 100-point cluster used by the DSOR tests:
// a 5x5x4 lattice with 2.5 cm spacing (inside a 10 cm cube) centred near
// (10, 0, 0), followed by one isolated point 50 m further out at index 100.
func ClusterWithOutlier() pointcloud.Cloud {
	c := Block(10, 0, 0, 5, 5, 4, 0.025)
	return append(c, pointcloud.Point{X: 60, Remission: 0.5})
}

// RandomCloud returns n points uniformly distributed in a box of the given
// half-extent around (cx, 0, 0). The same seed always yields the same cloud.
func RandomCloud(n int, seed uint64, cx, halfExtent float32) pointcloud.Cloud {
	rng := rand.New(rand.NewPCG(seed, seed+1))
	out := make(pointcloud.Cloud, n)
	for i := range out {
		out[i] = pointcloud.Point{
			X:         cx + (rng.Float32()*2-1)*halfExtent,
			Y:         (rng.Float32()*2 - 1) * halfExtent,
			Z:         (rng.Float32()*2 - 1) * halfExtent / 4,
			Remission: rng.Float32(),
		}
	}
	return out
}
