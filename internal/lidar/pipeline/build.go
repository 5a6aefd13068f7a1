package pipeline

import (
	"context"
	"fmt"

	"github.com/banshee-data/lidarclean/internal/config"
	"github.com/banshee-data/lidarclean/internal/lidar/detector"
	"github.com/banshee-data/lidarclean/internal/lidar/outlier"
	"github.com/banshee-data/lidarclean/internal/lidar/pointcloud"
	"github.com/banshee-data/lidarclean/internal/lidar/projection"
)

// defaultContamination is used by detectors that need an explicit
// contamination when the config leaves it unset.
const defaultContamination = 0.1

// passThrough flags nothing.
var passThrough = outlier.FilterFunc(func(_ context.Context, cloud pointcloud.Cloud) (outlier.Mask, error) {
	return pointcloud.NewMask(len(cloud)), nil
})

// BuildFilter assembles the filter selected by cfg, wrapped in iterative
// refinement when more than one iteration is configured.
func BuildFilter(cfg *config.TuningConfig) (outlier.Filter, error) {
	var f outlier.Filter
	switch alg := cfg.GetAlgorithm(); alg {
	case config.AlgorithmDSOR:
		f = outlier.DSOR{
			StdFactor:   cfg.GetDSORStdFactor(),
			RangeFactor: cfg.GetDSORRangeFactor(),
			K:           cfg.GetDSORK(),
			Workers:     cfg.GetIndexWorkers(),
		}
	case config.AlgorithmDROR:
		f = outlier.DROR{
			B:       cfg.GetDRORB(),
			Alpha:   cfg.GetDRORAlpha(),
			KMin:    cfg.GetDRORKMin(),
			SRMin:   cfg.GetDRORSRMin(),
			Workers: cfg.GetIndexWorkers(),
		}
	case config.AlgorithmDetector:
		dc, err := DetectorConfig(cfg)
		if err != nil {
			return nil, err
		}
		d, err := detector.New(detector.ProcessBackend{Command: cfg.DetectorCommand}, dc)
		if err != nil {
			return nil, err
		}
		f = d
	case config.AlgorithmNone:
		f = passThrough
	default:
		return nil, fmt.Errorf("unknown algorithm %q", alg)
	}

	if n := cfg.GetIterations(); n > 1 {
		return outlier.Iterate(f, n), nil
	}
	return f, nil
}

// DetectorConfig maps the detector_* keys of cfg onto the configuration of
// the selected detector family.
func DetectorConfig(cfg *config.TuningConfig) (detector.Config, error) {
	contamination, set := cfg.GetDetectorContamination()
	if !set {
		contamination = defaultContamination
	}

	var dc detector.Config
	switch kind := detector.Kind(cfg.GetDetectorKind()); kind {
	case detector.KindEllipticEnvelope:
		dc = detector.EllipticEnvelope{Contamination: contamination}
	case detector.KindOneClassSVM:
		dc = detector.OneClassSVM{Contamination: contamination, Kernel: cfg.GetDetectorKernel()}
	case detector.KindLocalOutlierFactor:
		lof := detector.LocalOutlierFactor{Neighbors: cfg.GetDetectorNeighbors(), Metric: cfg.GetDetectorMetric()}
		if set {
			lof.Contamination = &contamination
		}
		dc = lof
	case detector.KindIsolationForest:
		dc = detector.IsolationForest{
			Contamination: contamination,
			Estimators:    cfg.GetDetectorEstimators(),
			MaxFeatures:   cfg.GetDetectorMaxFeatures(),
		}
	default:
		return nil, fmt.Errorf("%w: unknown detector kind %q", detector.ErrInvalidConfig, kind)
	}
	if err := dc.Validate(); err != nil {
		return nil, err
	}
	return dc, nil
}

// BuildProjector returns the projector described by cfg.
func BuildProjector(cfg *config.TuningConfig) (projection.Projector, error) {
	p := projection.Projector{
		FovUpDeg:   cfg.GetFovUpDeg(),
		FovDownDeg: cfg.GetFovDownDeg(),
		Height:     cfg.GetImageHeight(),
		Width:      cfg.GetImageWidth(),
	}
	if err := p.Validate(); err != nil {
		return projection.Projector{}, err
	}
	return p, nil
}
