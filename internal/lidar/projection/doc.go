// Package projection rasterises a point cloud into a spherical range image.
//
// Each image column is an azimuth bin and each row an elevation bin within
// the sensor's vertical field of view. A cell holds the data of the nearest
// point that lands in it, or the sentinel -1 in every channel.
// Key types: Projector, RangeImage, Projection.
//
// Dependency rule: projection depends on pointcloud only.
package projection
