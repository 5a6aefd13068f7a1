// Package kitti reads and writes point cloud sequences in the KITTI /
// SemanticKITTI on-disk layout:
//
//	<root>/<sequence>/velodyne/<frame>.bin    float32 x, y, z, remission per point
//	<root>/<sequence>/labels/<frame>.label    uint32 label per point
//
// All values are little-endian. Shape problems are reported when a file is
// decoded and point/label count mismatches when a frame is loaded, so the
// filters only ever see well-formed clouds.
package kitti
