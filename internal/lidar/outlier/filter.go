package outlier

import (
	"context"

	"github.com/banshee-data/lidarclean/internal/lidar/pointcloud"
)

// Mask marks outliers with true, one entry per input point.
type Mask = pointcloud.Mask

// Filter classifies every point of a cloud. Implementations must return a
// mask with exactly one entry per input point and must not modify the cloud.
type Filter interface {
	Classify(ctx context.Context, cloud pointcloud.Cloud) (Mask, error)
}

// FilterFunc adapts a plain function to the Filter interface.
type FilterFunc func(ctx context.Context, cloud pointcloud.Cloud) (Mask, error)

// Classify calls f(ctx, cloud).
func (f FilterFunc) Classify(ctx context.Context, cloud pointcloud.Cloud) (Mask, error) {
	return f(ctx, cloud)
}
