package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/banshee-data/lidarclean/internal/lidar/kitti"
	"github.com/banshee-data/lidarclean/internal/lidar/pointcloud"
	"github.com/banshee-data/lidarclean/internal/monitoring"
)

// ErrProtocol reports a backend process reply that breaks the protocol.
var ErrProtocol = errors.New("detector protocol violation")

// Header is the first line a ProcessBackend writes to the child's stdin.
// It is followed by Points records in the KITTI scan layout (four
// little-endian float32 per point). The child answers with one byte per
// point on stdout: 0 for an inlier, 1 for an outlier.
type Header struct {
	Kind   Kind           `json:"kind"`
	Params map[string]any `json:"params"`
	Points int            `json:"points"`
}

// ProcessBackend runs an external toolkit process once per call.
type ProcessBackend struct {
	Command []string // program and arguments
	Env     []string // extra KEY=VALUE entries appended to the environment
	Dir     string
}

// Classify implements Backend.
func (b ProcessBackend) Classify(ctx context.Context, cloud pointcloud.Cloud, cfg Config) (pointcloud.Mask, error) {
	if len(b.Command) == 0 {
		return nil, fmt.Errorf("%w: empty detector command", ErrInvalidConfig)
	}

	var stdin bytes.Buffer
	header := Header{Kind: cfg.Kind(), Params: cfg.Params(), Points: len(cloud)}
	if err := json.NewEncoder(&stdin).Encode(header); err != nil {
		return nil, fmt.Errorf("encode header: %w", err)
	}
	stdin.Write(kitti.EncodeScan(cloud))

	cmd := exec.CommandContext(ctx, b.Command[0], b.Command[1:]...)
	cmd.Env = append(os.Environ(), b.Env...)
	cmd.Dir = b.Dir
	cmd.Stdin = &stdin
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	monitoring.Debugf("[detector] running %s for %d points", strings.Join(b.Command, " "), len(cloud))
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("run %s: %w, stderr: %s", b.Command[0], err, strings.TrimSpace(stderr.String()))
	}

	out := stdout.Bytes()
	if len(out) != len(cloud) {
		return nil, fmt.Errorf("%w: %d result bytes for %d points, stderr: %s",
			ErrProtocol, len(out), len(cloud), strings.TrimSpace(stderr.String()))
	}
	mask := make(pointcloud.Mask, len(out))
	for i, v := range out {
		switch v {
		case 0:
		case 1:
			mask[i] = true
		default:
			return nil, fmt.Errorf("%w: byte %d at point %d", ErrProtocol, v, i)
		}
	}
	return mask, nil
}
