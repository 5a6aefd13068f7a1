package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/banshee-data/lidarclean/internal/lidar/evaluation"
	"github.com/banshee-data/lidarclean/internal/lidar/kitti"
	"github.com/banshee-data/lidarclean/internal/lidar/outlier"
	"github.com/banshee-data/lidarclean/internal/lidar/pointcloud"
	"github.com/banshee-data/lidarclean/internal/lidar/projection"
	"github.com/banshee-data/lidarclean/internal/timeutil"
)

// FrameResult is the outcome of processing one frame.
type FrameResult struct {
	Sequence string
	Frame    string
	Points   int

	Mask     pointcloud.Mask
	Filtered *kitti.Frame // surviving points and their labels

	// Projection of the filtered cloud; nil when the processor has no
	// projector.
	Projection *projection.Projection

	// Score is nil when the frame has no labels.
	Score *evaluation.Score

	Duration time.Duration

	outliers int
	dropped  int
}

// Outliers returns the number of points flagged in the frame.
func (r *FrameResult) Outliers() int { return r.outliers }

// Dropped returns the number of filtered points the projection could not
// place.
func (r *FrameResult) Dropped() int { return r.dropped }

// Processor applies one filter to individual frames. It holds no per-frame
// state and is safe for concurrent use when its Filter is.
type Processor struct {
	Filter    outlier.Filter
	Projector *projection.Projector

	// NoiseClasses are the semantic classes scored as true outliers.
	// Defaults to evaluation.DefaultNoiseClasses.
	NoiseClasses []uint16

	Clock timeutil.Clock
}

// NewProcessor returns a Processor with the real clock and default noise
// classes.
func NewProcessor(f outlier.Filter, p *projection.Projector) *Processor {
	return &Processor{Filter: f, Projector: p, Clock: timeutil.RealClock{}}
}

// ProcessFrame filters f, projects the survivors and scores the mask when f
// carries labels. The input frame is not modified.
func (p *Processor) ProcessFrame(ctx context.Context, f *kitti.Frame) (*FrameResult, error) {
	if p.Filter == nil {
		return nil, fmt.Errorf("process frame: nil filter")
	}
	if f.Labels != nil && len(f.Labels) != len(f.Cloud) {
		return nil, &kitti.MismatchError{Sequence: f.Sequence, Frame: f.Name, Points: len(f.Cloud), Labels: len(f.Labels)}
	}

	clock := p.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	start := clock.Now()

	mask, err := p.Filter.Classify(ctx, f.Cloud)
	if err != nil {
		return nil, fmt.Errorf("frame %s/%s: %w", f.Sequence, f.Name, err)
	}
	if len(mask) != len(f.Cloud) {
		return nil, fmt.Errorf("frame %s/%s: %w", f.Sequence, f.Name,
			&outlier.MaskLengthError{Want: len(f.Cloud), Got: len(mask)})
	}

	res := &FrameResult{
		Sequence: f.Sequence,
		Frame:    f.Name,
		Points:   len(f.Cloud),
		Mask:     mask,
		outliers: mask.Count(),
	}

	kept, err := pointcloud.Keep(f.Cloud, mask)
	if err != nil {
		return nil, err
	}
	res.Filtered = &kitti.Frame{Sequence: f.Sequence, Name: f.Name, Cloud: kept}

	if f.Labels != nil {
		res.Filtered.Labels, err = kitti.KeepLabels(f.Labels, mask)
		if err != nil {
			return nil, err
		}
		noise := p.NoiseClasses
		if len(noise) == 0 {
			noise = evaluation.DefaultNoiseClasses
		}
		score, err := evaluation.Evaluate(mask, f.Labels, noise)
		if err != nil {
			return nil, err
		}
		res.Score = &score
	}

	if p.Projector != nil {
		res.Projection, err = p.Projector.Project(kept)
		if err != nil {
			return nil, fmt.Errorf("frame %s/%s: %w", f.Sequence, f.Name, err)
		}
		res.dropped = len(res.Projection.Dropped)
	}

	res.Duration = clock.Since(start)
	return res, nil
}
