package outlier

import (
	"context"
	"fmt"
	"math"

	"github.com/banshee-data/lidarclean/internal/lidar/pointcloud"
	"github.com/banshee-data/lidarclean/internal/lidar/spatial"
)

// DROR flags points with too few neighbours inside a search radius that
// widens with range.
type DROR struct {
	B       float64 // radius multiplier
	Alpha   float64 // angular resolution factor
	KMin    int     // minimum neighbour count, the point itself included
	SRMin   float64 // smallest search radius in metres
	Workers int
}

// DefaultDROR returns the reference parameter set.
func DefaultDROR() DROR {
	return DROR{B: 0.05, Alpha: 1, KMin: 2, SRMin: 5}
}

func (f DROR) validate() error {
	switch {
	case f.SRMin < 0 || math.IsNaN(f.SRMin):
		return fmt.Errorf("dror: %w: sr_min must be non-negative, got %v", spatial.ErrInvalidArgument, f.SRMin)
	case f.B < 0 || f.Alpha < 0:
		return fmt.Errorf("dror: %w: b and alpha must be non-negative", spatial.ErrInvalidArgument)
	}
	return nil
}

// SearchRadii returns max(SRMin, B*Alpha*range) for every point.
func (f DROR) SearchRadii(cloud pointcloud.Cloud) []float64 {
	radii := make([]float64, len(cloud))
	for i, p := range cloud {
		radii[i] = math.Max(f.SRMin, f.B*f.Alpha*p.Range())
	}
	return radii
}

// Classify implements Filter. An empty cloud yields an empty mask.
func (f DROR) Classify(ctx context.Context, cloud pointcloud.Cloud) (Mask, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	if len(cloud) == 0 {
		return Mask{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vecs := cloud.Vecs()
	ix, err := spatial.New(vecs, spatial.WithWorkers(f.Workers))
	if err != nil {
		return nil, fmt.Errorf("dror: %w", err)
	}
	counts, err := ix.CountWithinRadius(vecs, f.SearchRadii(cloud))
	if err != nil {
		return nil, fmt.Errorf("dror: %w", err)
	}

	mask := make(Mask, len(cloud))
	for i, n := range counts {
		mask[i] = n < f.KMin
	}
	return mask, nil
}
