package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lidarclean/internal/lidar/pointcloud"
)

func TestBlock_Layout(t *testing.T) {
	t.Parallel()

	c := Block(1, 2, 3, 2, 3, 4, 0.5)
	require.Len(t, c, 24)
	assert.Equal(t, pointcloud.Point{X: 1, Y: 2, Z: 3, Remission: 0.5}, c[0])
	assert.Equal(t, pointcloud.Point{X: 1.5, Y: 3, Z: 4.5, Remission: 0.5}, c[23])
}

func TestClusterWithOutlier(t *testing.T) {
	t.Parallel()

	c := ClusterWithOutlier()
	require.Len(t, c, 101)
	for _, p := range c[:100] {
		assert.InDelta(t, 10.05, float64(p.X), 0.051)
		assert.LessOrEqual(t, p.Y, float32(0.1))
		assert.LessOrEqual(t, p.Z, float32(0.1))
	}
	assert.Equal(t, float32(60), c[100].X)
}

func TestRandomCloud_Deterministic(t *testing.T) {
	t.Parallel()

	a := RandomCloud(50, 7, 10, 2)
	b := RandomCloud(50, 7, 10, 2)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, RandomCloud(50, 8, 10, 2))
	for _, p := range a {
		assert.InDelta(t, 10, float64(p.X), 2)
	}
}

func TestAssertHelpers_Pass(t *testing.T) {
	t.Parallel()

	AssertNoError(t, nil)
	AssertError(t, assert.AnError)
	AssertMaskLen(t, pointcloud.NewMask(2), pointcloud.Cloud{{}, {}})
}
