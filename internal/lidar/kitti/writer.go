package kitti

import (
	"fmt"
	"path/filepath"

	"github.com/banshee-data/lidarclean/internal/fsutil"
)

// Writer stores frames below Root in the same layout Reader expects.
type Writer struct {
	FS   fsutil.FileSystem
	Root string
}

// NewWriter returns a Writer on the OS filesystem.
func NewWriter(root string) *Writer {
	return &Writer{FS: fsutil.OSFileSystem{}, Root: root}
}

// WriteFrame writes f's scan and, when present, its labels. Directories are
// created as needed.
func (w *Writer) WriteFrame(f *Frame) error {
	if f.Labels != nil && len(f.Labels) != len(f.Cloud) {
		return &MismatchError{Sequence: f.Sequence, Frame: f.Name, Points: len(f.Cloud), Labels: len(f.Labels)}
	}

	dir := filepath.Join(w.Root, f.Sequence, scanDir)
	if err := w.FS.MkdirAll(dir, dirPerms); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := w.FS.WriteFile(filepath.Join(dir, f.Name+scanExt), EncodeScan(f.Cloud), filePerms); err != nil {
		return fmt.Errorf("write scan %s/%s: %w", f.Sequence, f.Name, err)
	}
	if f.Labels == nil {
		return nil
	}

	dir = filepath.Join(w.Root, f.Sequence, labelDir)
	if err := w.FS.MkdirAll(dir, dirPerms); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if err := w.FS.WriteFile(filepath.Join(dir, f.Name+labelExt), EncodeLabels(f.Labels), filePerms); err != nil {
		return fmt.Errorf("write labels %s/%s: %w", f.Sequence, f.Name, err)
	}
	return nil
}
