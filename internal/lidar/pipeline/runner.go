package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/lidarclean/internal/lidar/evaluation"
	"github.com/banshee-data/lidarclean/internal/lidar/kitti"
	"github.com/banshee-data/lidarclean/internal/lidar/projection"
	"github.com/banshee-data/lidarclean/internal/lidar/storage/sqlite"
	"github.com/banshee-data/lidarclean/internal/lidar/visualiser"
)

// SequenceResult collects the frames of one sequence in frame order.
type SequenceResult struct {
	Sequence   string
	Frames     []*FrameResult
	Evaluation evaluation.Summary // over labelled frames only
	Duration   time.Duration      // sum of per-frame durations
}

// Stats returns one visualiser.FrameStat per frame.
func (s *SequenceResult) Stats() []visualiser.FrameStat {
	stats := make([]visualiser.FrameStat, len(s.Frames))
	for i, f := range s.Frames {
		stats[i] = visualiser.FrameStat{Frame: f.Frame, Points: f.Points, Outliers: f.Outliers(), Dropped: f.Dropped()}
	}
	return stats
}

// Outliers returns the number of points flagged over the sequence.
func (s *SequenceResult) Outliers() int {
	n := 0
	for _, f := range s.Frames {
		n += f.Outliers()
	}
	return n
}

// Runner processes whole sequences. Writer, Session and Store are optional
// sinks; a nil sink is skipped.
type Runner struct {
	Processor *Processor

	Writer  *kitti.Writer
	Session *visualiser.Session
	Store   *sqlite.RunStore
	RunID   string // required with Store

	Workers   int // frames processed concurrently; <1 means 1
	MaxFrames int // <=0 processes every frame

	// Discard releases masks, filtered frames and projections once the
	// sinks have consumed them, keeping only counts and scores.
	Discard bool

	renderMu sync.Mutex
}

// RunSequence loads, filters and sinks every frame of sequence. Frames are
// independent and processed concurrently; results are returned in frame
// order. The first error cancels the remaining frames.
func (r *Runner) RunSequence(ctx context.Context, reader *kitti.Reader, sequence string) (*SequenceResult, error) {
	if r.Processor == nil {
		return nil, fmt.Errorf("run sequence: nil processor")
	}
	if r.Store != nil && r.RunID == "" {
		return nil, fmt.Errorf("run sequence: run store set without a run id")
	}

	seq, err := reader.Sequence(sequence, r.MaxFrames)
	if err != nil {
		return nil, err
	}
	diagf("sequence %s: %d frames (labels: %v)", sequence, len(seq.Frames), seq.HasLabels)

	results := make([]*FrameResult, len(seq.Frames))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.Workers, 1))
	for i, name := range seq.Frames {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			frame, err := reader.LoadFrame(sequence, name, seq.HasLabels)
			if err != nil {
				return err
			}
			res, err := r.Processor.ProcessFrame(gctx, frame)
			if err != nil {
				return err
			}
			if err := r.sink(frame, res); err != nil {
				return err
			}
			diagf("%s/%s: %d points, %d outliers, %v", sequence, name, res.Points, res.Outliers(), res.Duration)
			if r.Discard {
				res.Mask = nil
				res.Filtered = nil
				res.Projection = nil
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		opsf("sequence %s failed: %v", sequence, err)
		return nil, err
	}

	out := &SequenceResult{Sequence: sequence, Frames: results}
	var scores []evaluation.Score
	for _, res := range results {
		out.Duration += res.Duration
		if res.Score != nil {
			scores = append(scores, *res.Score)
		}
	}
	out.Evaluation = evaluation.Summarise(scores)

	if r.Session != nil {
		r.Session.SetFrameCount(len(results))
		if _, err := r.Session.RenderSequenceReport(sequence+"_report", out.Stats()); err != nil {
			return nil, err
		}
		if _, err := r.Session.RenderSequencePlot(sequence+"_ratio", out.Stats()); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// sink hands one processed frame to every configured sink.
func (r *Runner) sink(frame *kitti.Frame, res *FrameResult) error {
	if r.Writer != nil {
		if err := r.Writer.WriteFrame(res.Filtered); err != nil {
			return err
		}
	}

	if r.Session != nil {
		if err := r.render(frame, res); err != nil {
			return err
		}
	}

	if r.Store != nil {
		err := r.Store.InsertFrameResult(&sqlite.FrameResult{
			RunID:    r.RunID,
			Sequence: res.Sequence,
			Frame:    res.Frame,
			Points:   res.Points,
			Outliers: res.Outliers(),
			Dropped:  res.Dropped(),
			Duration: res.Duration,
			Score:    res.Score,
		})
		if err != nil {
			return fmt.Errorf("record %s/%s: %w", res.Sequence, res.Frame, err)
		}
	}
	return nil
}

// render draws the frame's scatter and range image. Rendering is serialised
// across workers.
func (r *Runner) render(frame *kitti.Frame, res *FrameResult) error {
	r.renderMu.Lock()
	defer r.renderMu.Unlock()

	base := res.Sequence + "_" + res.Frame
	if _, err := r.Session.RenderCloud(base+"_cloud", frame.Cloud, res.Mask); err != nil {
		return err
	}
	if res.Projection != nil {
		if _, err := r.Session.RenderRangeImage(base+"_range", res.Projection.Image, projection.ChannelRange); err != nil {
			return err
		}
	}
	return nil
}
