package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lidarclean/internal/db"
	"github.com/banshee-data/lidarclean/internal/fsutil"
	"github.com/banshee-data/lidarclean/internal/lidar/kitti"
	"github.com/banshee-data/lidarclean/internal/lidar/outlier"
	"github.com/banshee-data/lidarclean/internal/lidar/pointcloud"
	"github.com/banshee-data/lidarclean/internal/lidar/projection"
	"github.com/banshee-data/lidarclean/internal/lidar/storage/sqlite"
	"github.com/banshee-data/lidarclean/internal/lidar/visualiser"
)

var frameNames = []string{"000000", "000001", "000002", "000003"}

func writeSequence(t *testing.T, m *fsutil.MemoryFileSystem, seq string, labelled bool) {
	t.Helper()
	w := &kitti.Writer{FS: m, Root: "/in"}
	for _, name := range frameNames {
		f := clusterFrame(seq, name)
		if !labelled {
			f.Labels = nil
		}
		require.NoError(t, w.WriteFrame(f))
	}
}

func TestRunSequence_FrameOrderAndSummary(t *testing.T) {
	t.Parallel()

	m := fsutil.NewMemoryFileSystem()
	writeSequence(t, m, "00", true)

	r := &Runner{Processor: NewProcessor(outlier.DefaultDSOR(), nil), Workers: 3}
	res, err := r.RunSequence(context.Background(), &kitti.Reader{FS: m, Root: "/in"}, "00")
	require.NoError(t, err)

	require.Len(t, res.Frames, len(frameNames))
	for i, f := range res.Frames {
		assert.Equal(t, frameNames[i], f.Frame)
		assert.Equal(t, []int{100}, f.Mask.Outliers())
	}
	assert.Equal(t, 4, res.Outliers())
	assert.Equal(t, 4, res.Evaluation.Frames)
	assert.Equal(t, 1.0, res.Evaluation.MeanF1)

	stats := res.Stats()
	require.Len(t, stats, 4)
	assert.Equal(t, visualiser.FrameStat{Frame: "000002", Points: 101, Outliers: 1}, stats[2])
}

func TestRunSequence_MaxFramesAndUnlabelled(t *testing.T) {
	t.Parallel()

	m := fsutil.NewMemoryFileSystem()
	writeSequence(t, m, "03", false)

	r := &Runner{Processor: NewProcessor(outlier.DefaultDSOR(), nil), MaxFrames: 2}
	res, err := r.RunSequence(context.Background(), &kitti.Reader{FS: m, Root: "/in"}, "03")
	require.NoError(t, err)
	require.Len(t, res.Frames, 2)
	assert.Nil(t, res.Frames[0].Score)
	assert.Zero(t, res.Evaluation.Frames)
}

func TestRunSequence_WritesFilteredDataset(t *testing.T) {
	t.Parallel()

	m := fsutil.NewMemoryFileSystem()
	writeSequence(t, m, "00", true)

	r := &Runner{
		Processor: NewProcessor(outlier.DefaultDSOR(), nil),
		Writer:    &kitti.Writer{FS: m, Root: "/out"},
		Workers:   2,
		Discard:   true,
	}
	res, err := r.RunSequence(context.Background(), &kitti.Reader{FS: m, Root: "/in"}, "00")
	require.NoError(t, err)

	// Discarded outputs keep only counts.
	for _, f := range res.Frames {
		assert.Nil(t, f.Mask)
		assert.Nil(t, f.Filtered)
		assert.Equal(t, 101, f.Points)
		assert.Equal(t, 1, f.Outliers())
		assert.NotNil(t, f.Score)
	}

	out := &kitti.Reader{FS: m, Root: "/out"}
	seq, err := out.Sequence("00", 0)
	require.NoError(t, err)
	assert.Equal(t, frameNames, seq.Frames)
	assert.True(t, seq.HasLabels)

	frame, err := out.LoadFrame("00", "000001", true)
	require.NoError(t, err)
	assert.Len(t, frame.Cloud, 100)
	assert.Len(t, frame.Labels, 100)
}

func TestRunSequence_RecordsRunAndRenders(t *testing.T) {
	t.Parallel()

	database, err := db.NewDB(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer database.Close()
	store := sqlite.NewRunStore(database.DB)
	run := &sqlite.Run{Algorithm: "dsor"}
	require.NoError(t, store.CreateRun(run))

	session, err := visualiser.NewSession(t.TempDir())
	require.NoError(t, err)

	m := fsutil.NewMemoryFileSystem()
	writeSequence(t, m, "00", true)

	proj := projection.Projector{FovUpDeg: 3, FovDownDeg: -25, Height: 16, Width: 128}
	r := &Runner{
		Processor: NewProcessor(outlier.DefaultDSOR(), &proj),
		Store:     store,
		RunID:     run.RunID,
		Session:   session,
		Workers:   2,
		MaxFrames: 2,
	}
	_, err = r.RunSequence(context.Background(), &kitti.Reader{FS: m, Root: "/in"}, "00")
	require.NoError(t, err)

	rows, err := store.ListFrameResults(run.RunID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "000000", rows[0].Frame)
	assert.Equal(t, 1, rows[0].Outliers)
	require.NotNil(t, rows[0].Score)
	assert.Equal(t, 1, rows[0].Score.TruePositives)

	sum, err := store.RunSummary(run.RunID)
	require.NoError(t, err)
	assert.Equal(t, 202, sum.Points)
	assert.Equal(t, 2, sum.Outliers)

	for _, name := range []string{
		"00_000000_cloud.html", "00_000000_range.png",
		"00_000001_cloud.html", "00_000001_range.png",
		"00_report.html", "00_ratio.png",
	} {
		_, err := os.Stat(filepath.Join(session.Dir(), name))
		assert.NoError(t, err, name)
	}
	assert.Equal(t, 1, session.Step(3), "cursor steps over the rendered frames")
}

func TestRunSequence_Errors(t *testing.T) {
	t.Parallel()

	m := fsutil.NewMemoryFileSystem()
	writeSequence(t, m, "00", true)
	reader := &kitti.Reader{FS: m, Root: "/in"}

	t.Run("missing sequence", func(t *testing.T) {
		r := &Runner{Processor: NewProcessor(outlier.DefaultDSOR(), nil)}
		_, err := r.RunSequence(context.Background(), reader, "99")
		assert.Error(t, err)
	})

	t.Run("nil processor", func(t *testing.T) {
		_, err := (&Runner{}).RunSequence(context.Background(), reader, "00")
		assert.Error(t, err)
	})

	t.Run("store without run id", func(t *testing.T) {
		r := &Runner{Processor: NewProcessor(outlier.DefaultDSOR(), nil), Store: &sqlite.RunStore{}}
		_, err := r.RunSequence(context.Background(), reader, "00")
		assert.Error(t, err)
	})

	t.Run("first frame error stops the run", func(t *testing.T) {
		boom := errors.New("boom")
		var calls atomic.Int32
		f := outlier.FilterFunc(func(context.Context, pointcloud.Cloud) (outlier.Mask, error) {
			calls.Add(1)
			return nil, boom
		})
		r := &Runner{Processor: NewProcessor(f, nil)}
		_, err := r.RunSequence(context.Background(), reader, "00")
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, int32(1), calls.Load(), "later frames are skipped after the first failure")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		r := &Runner{Processor: NewProcessor(outlier.DefaultDSOR(), nil)}
		_, err := r.RunSequence(ctx, reader, "00")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
