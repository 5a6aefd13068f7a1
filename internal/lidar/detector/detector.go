package detector

import (
	"context"
	"fmt"

	"github.com/banshee-data/lidarclean/internal/lidar/outlier"
	"github.com/banshee-data/lidarclean/internal/lidar/pointcloud"
)

// Backend classifies points with a detector configured by cfg.
type Backend interface {
	Classify(ctx context.Context, cloud pointcloud.Cloud, cfg Config) (pointcloud.Mask, error)
}

// FuncBackend adapts an in-process function to Backend.
type FuncBackend func(ctx context.Context, cloud pointcloud.Cloud, cfg Config) (pointcloud.Mask, error)

// Classify calls f(ctx, cloud, cfg).
func (f FuncBackend) Classify(ctx context.Context, cloud pointcloud.Cloud, cfg Config) (pointcloud.Mask, error) {
	return f(ctx, cloud, cfg)
}

// Detector binds a backend to one configuration and satisfies
// outlier.Filter, so it can be wrapped by outlier.Iterate like DSOR or DROR.
type Detector struct {
	Backend Backend
	Config  Config
}

var _ outlier.Filter = (*Detector)(nil)

// New returns a Detector after validating cfg.
func New(b Backend, cfg Config) (*Detector, error) {
	if b == nil {
		return nil, fmt.Errorf("%w: nil backend", ErrInvalidConfig)
	}
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Detector{Backend: b, Config: cfg}, nil
}

// Classify implements outlier.Filter. An empty cloud is answered without
// calling the backend.
func (d *Detector) Classify(ctx context.Context, cloud pointcloud.Cloud) (pointcloud.Mask, error) {
	if err := d.Config.Validate(); err != nil {
		return nil, err
	}
	if len(cloud) == 0 {
		return pointcloud.Mask{}, nil
	}
	mask, err := d.Backend.Classify(ctx, cloud, d.Config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.Config.Kind(), err)
	}
	if len(mask) != len(cloud) {
		return nil, &outlier.MaskLengthError{Want: len(cloud), Got: len(mask)}
	}
	return mask, nil
}
