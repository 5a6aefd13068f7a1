package kitti

import "fmt"

// ShapeError reports a payload whose length is not a whole number of records.
type ShapeError struct {
	Path   string
	What   string // "scan" or "labels"
	Bytes  int
	Stride int
}

func (e *ShapeError) Error() string {
	where := e.What
	if e.Path != "" {
		where = e.Path
	}
	return fmt.Sprintf("%s: %d bytes is not a multiple of the %d-byte %s record", where, e.Bytes, e.Stride, e.What)
}

// MismatchError reports scans and labels that do not pair up: either the
// frame names differ (LabelFrame is set) or the counts differ.
type MismatchError struct {
	Sequence   string
	Frame      string
	LabelFrame string
	Points     int
	Labels     int
}

func (e *MismatchError) Error() string {
	if e.LabelFrame != "" || (e.Points == 0 && e.Labels == 0) {
		return fmt.Sprintf("sequence %q: scan %q is paired with labels %q", e.Sequence, e.Frame, e.LabelFrame)
	}
	return fmt.Sprintf("sequence %q frame %q: %d points but %d labels", e.Sequence, e.Frame, e.Points, e.Labels)
}
