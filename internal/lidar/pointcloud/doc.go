// Package pointcloud owns the per-frame point model shared by every other
// LiDAR package: Point, Cloud and the outlier Mask.
//
// Clouds are value types. Functions here never modify their inputs and
// always return freshly allocated slices, so a Cloud may be shared across
// goroutines as long as nobody writes to it.
//
// Dependency rule: this package depends on nothing else in internal/lidar.
package pointcloud
