package visualiser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lidarclean/internal/lidar/pointcloud"
	"github.com/banshee-data/lidarclean/internal/lidar/projection"
	"github.com/banshee-data/lidarclean/internal/testutil"
)

func TestNormalise(t *testing.T) {
	t.Parallel()

	t.Run("sentinel takes smallest positive", func(t *testing.T) {
		got := Normalise([]float32{-1, 1, 256}, 1.0/8.0)
		// 1^(1/8) = 1 and 256^(1/8) = 2, so the sentinel maps to 0 like 1.
		assert.InDeltaSlice(t, []float64{0, 0, 1}, got, 1e-12)
	})

	t.Run("linear power", func(t *testing.T) {
		got := Normalise([]float32{2, 4, 6}, 1)
		assert.InDeltaSlice(t, []float64{0, 0.5, 1}, got, 1e-12)
	})

	t.Run("no positive values", func(t *testing.T) {
		assert.Equal(t, []float64{0, 0}, Normalise([]float32{-1, -1}, 0.125))
	})

	t.Run("constant", func(t *testing.T) {
		assert.Equal(t, []float64{0, 0, 0}, Normalise([]float32{3, -1, 3}, 0.125))
	})
}

func TestSession_Step(t *testing.T) {
	t.Parallel()

	s, err := NewSession(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, 0, s.Step(1))

	s.SetFrameCount(3)
	assert.Equal(t, 1, s.Step(1))
	assert.Equal(t, 2, s.Step(1))
	assert.Equal(t, 0, s.Step(1))
	assert.Equal(t, 2, s.Step(-1))
	assert.Equal(t, 0, s.Step(-5))
	assert.Equal(t, 0, s.Cursor())
}

func TestSession_RenderRangeImage(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := NewSession(dir, WithPower(0.5))
	require.NoError(t, err)

	proj, err := projection.DefaultProjector().Project(testutil.RandomCloud(500, 4, 0, 20))
	require.NoError(t, err)

	path, err := s.RenderRangeImage("frame_000000", proj.Image, projection.ChannelRange)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "frame_000000.png"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), data[:4])

	_, err = s.RenderRangeImage("empty", nil, projection.ChannelRange)
	assert.Error(t, err)
}

func TestSession_RenderCloud(t *testing.T) {
	t.Parallel()

	s, err := NewSession(t.TempDir())
	require.NoError(t, err)

	cloud := pointcloud.Cloud{{X: 1, Y: 2}, {X: -3, Y: 4}, {X: 50}}
	path, err := s.RenderCloud("cloud", cloud, pointcloud.Mask{false, false, true})
	require.NoError(t, err)

	html, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(html), "outliers")
	assert.Contains(t, string(html), "inliers")
	assert.Contains(t, string(html), "outliers=1")

	_, err = s.RenderCloud("bad", cloud, pointcloud.Mask{true})
	assert.Error(t, err)
}

func TestSession_SequenceReports(t *testing.T) {
	t.Parallel()

	s, err := NewSession(t.TempDir())
	require.NoError(t, err)

	stats := []FrameStat{
		{Frame: "000000", Points: 100, Outliers: 5},
		{Frame: "000001", Points: 200, Outliers: 20},
		{Frame: "000002"},
	}
	assert.InDelta(t, 0.1, stats[1].OutlierRatio(), 1e-12)
	assert.Zero(t, stats[2].OutlierRatio())

	path, err := s.RenderSequenceReport("seq_00", stats)
	require.NoError(t, err)
	html, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(html), "000001")

	path, err = s.RenderSequencePlot("seq_00", stats)
	require.NoError(t, err)
	assert.FileExists(t, path)
}
