package outlier

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lidarclean/internal/lidar/pointcloud"
	"github.com/banshee-data/lidarclean/internal/lidar/spatial"
)

// DSOR flags points whose mean neighbour distance exceeds a threshold that
// grows linearly with range, compensating for the sparser sampling of
// distant surfaces.
type DSOR struct {
	StdFactor   float64 // multiplier on the population std of mean distances
	RangeFactor float64 // scales the global threshold by point range
	K           int     // neighbours per point, excluding the point itself
	Workers     int     // spatial index query workers; <= 1 runs inline
}

// DefaultDSOR returns the reference parameter set.
func DefaultDSOR() DSOR {
	return DSOR{StdFactor: 0.0008, RangeFactor: 0.05, K: 5}
}

// Classify implements Filter.
//
// An empty cloud yields an empty mask. A single point has no neighbours and
// is always flagged. Otherwise the cloud must hold at least K+1 points.
func (f DSOR) Classify(ctx context.Context, cloud pointcloud.Cloud) (Mask, error) {
	if f.K < 1 {
		return nil, fmt.Errorf("dsor: %w: k must be at least 1, got %d", spatial.ErrInvalidArgument, f.K)
	}
	switch len(cloud) {
	case 0:
		return Mask{}, nil
	case 1:
		return Mask{true}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	meanDist, err := f.MeanDistances(cloud)
	if err != nil {
		return nil, err
	}

	mean, std := stat.PopMeanStdDev(meanDist, nil)
	global := mean + std*f.StdFactor

	mask := make(Mask, len(cloud))
	for i, p := range cloud {
		threshold := global * f.RangeFactor * p.Range()
		mask[i] = meanDist[i] >= threshold
	}
	return mask, nil
}

// MeanDistances returns, per point, the mean distance to its K nearest
// neighbours (the point itself excluded).
func (f DSOR) MeanDistances(cloud pointcloud.Cloud) ([]float64, error) {
	need := f.K + 1
	if len(cloud) < need {
		return nil, &spatial.InsufficientPointsError{Op: "dsor", Have: len(cloud), Need: need}
	}

	vecs := cloud.Vecs()
	ix, err := spatial.New(vecs, spatial.WithWorkers(f.Workers))
	if err != nil {
		return nil, fmt.Errorf("dsor: %w", err)
	}
	dists, _, err := ix.KNearest(vecs, need)
	if err != nil {
		return nil, fmt.Errorf("dsor: %w", err)
	}

	out := make([]float64, len(cloud))
	for i, d := range dists {
		// d[0] is the point itself at distance zero.
		out[i] = stat.Mean(d[1:], nil)
	}
	return out, nil
}
