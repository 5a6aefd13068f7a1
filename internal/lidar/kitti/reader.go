package kitti

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/banshee-data/lidarclean/internal/fsutil"
	"github.com/banshee-data/lidarclean/internal/lidar/pointcloud"
)

const (
	scanDir   = "velodyne"
	labelDir  = "labels"
	scanExt   = ".bin"
	labelExt  = ".label"
	filePerms = 0o644
	dirPerms  = 0o755
)

// Frame is one scan of a sequence, optionally with per-point labels.
type Frame struct {
	Sequence string
	Name     string
	Cloud    pointcloud.Cloud
	Labels   []Label // nil when the sequence has no labels
}

// Sequence lists the frames of one sequence directory.
type Sequence struct {
	Name      string
	Frames    []string // frame names without extension, sorted
	HasLabels bool
}

// Reader loads sequences below Root.
type Reader struct {
	FS   fsutil.FileSystem
	Root string
}

// NewReader returns a Reader on the OS filesystem.
func NewReader(root string) *Reader {
	return &Reader{FS: fsutil.OSFileSystem{}, Root: root}
}

// Sequence lists the frames of sequence name. maxFrames <= 0 lists all of
// them. When a labels directory exists its frames must match the scans
// one-to-one, in order.
func (r *Reader) Sequence(name string, maxFrames int) (*Sequence, error) {
	scans, err := r.list(name, scanDir, scanExt, maxFrames)
	if err != nil {
		return nil, err
	}
	seq := &Sequence{Name: name, Frames: scans}

	labels, err := r.list(name, labelDir, labelExt, maxFrames)
	if errors.Is(err, fs.ErrNotExist) {
		return seq, nil
	}
	if err != nil {
		return nil, err
	}
	for i, frame := range scans {
		got := ""
		if i < len(labels) {
			got = labels[i]
		}
		if got != frame {
			return nil, &MismatchError{Sequence: name, Frame: frame, LabelFrame: got}
		}
	}
	if len(labels) > len(scans) {
		return nil, &MismatchError{Sequence: name, LabelFrame: labels[len(scans)]}
	}
	seq.HasLabels = true
	return seq, nil
}

func (r *Reader) list(sequence, dir, ext string, maxFrames int) ([]string, error) {
	names, err := r.FS.ListFiles(filepath.Join(r.Root, sequence, dir))
	if err != nil {
		return nil, fmt.Errorf("list %s of sequence %q: %w", dir, sequence, err)
	}
	var frames []string
	for _, n := range names {
		if frame, ok := strings.CutSuffix(n, ext); ok {
			frames = append(frames, frame)
		}
	}
	if maxFrames > 0 && len(frames) > maxFrames {
		frames = frames[:maxFrames]
	}
	return frames, nil
}

// LoadFrame reads one frame. Labels are read when withLabels is set; their
// count must equal the point count.
func (r *Reader) LoadFrame(sequence, frame string, withLabels bool) (*Frame, error) {
	scanPath := filepath.Join(r.Root, sequence, scanDir, frame+scanExt)
	data, err := r.FS.ReadFile(scanPath)
	if err != nil {
		return nil, fmt.Errorf("read scan: %w", err)
	}
	cloud, err := DecodeScan(data)
	if err != nil {
		var se *ShapeError
		if errors.As(err, &se) {
			se.Path = scanPath
		}
		return nil, err
	}
	f := &Frame{Sequence: sequence, Name: frame, Cloud: cloud}
	if !withLabels {
		return f, nil
	}

	labelPath := filepath.Join(r.Root, sequence, labelDir, frame+labelExt)
	data, err = r.FS.ReadFile(labelPath)
	if err != nil {
		return nil, fmt.Errorf("read labels: %w", err)
	}
	labels, err := DecodeLabels(data)
	if err != nil {
		var se *ShapeError
		if errors.As(err, &se) {
			se.Path = labelPath
		}
		return nil, err
	}
	if len(labels) != len(cloud) {
		return nil, &MismatchError{Sequence: sequence, Frame: frame, Points: len(cloud), Labels: len(labels)}
	}
	f.Labels = labels
	return f, nil
}
