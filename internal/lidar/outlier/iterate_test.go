package outlier

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/lidarclean/internal/lidar/pointcloud"
	"github.com/banshee-data/lidarclean/internal/lidar/spatial"
	"github.com/banshee-data/lidarclean/internal/testutil"
)

// farthest flags the single point with the largest range.
var farthest = FilterFunc(func(_ context.Context, c pointcloud.Cloud) (Mask, error) {
	m := pointcloud.NewMask(len(c))
	best := -1
	for i, p := range c {
		if best < 0 || p.Range() > c[best].Range() {
			best = i
		}
	}
	if best >= 0 {
		m[best] = true
	}
	return m, nil
})

func TestIterate_OnceEqualsFilter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	cloud := testutil.RandomCloud(300, 5, 12, 6)
	cloud = append(cloud, pointcloud.Point{X: 70, Y: 30})

	for name, f := range map[string]Filter{
		"dsor":     DefaultDSOR(),
		"dror":     DROR{B: 0.05, Alpha: 1, KMin: 3, SRMin: 0.3},
		"farthest": farthest,
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			want, err := f.Classify(ctx, cloud)
			require.NoError(t, err)
			got, err := Iterate(f, 1).Classify(ctx, cloud)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestIterate_RoundsAreMonotonic(t *testing.T) {
	t.Parallel()

	cloud := testutil.RandomCloud(500, 9, 15, 10)
	rounds, err := Iterate(DefaultDSOR(), 3).Rounds(context.Background(), cloud)
	require.NoError(t, err)
	require.Len(t, rounds, 3)

	prev := pointcloud.NewMask(len(cloud))
	for i, m := range rounds {
		testutil.AssertMaskLen(t, m, cloud)
		assert.True(t, m.Contains(prev), "round %d dropped an earlier outlier", i+1)
		prev = m
	}
}

func TestIterate_ReclassifiesOnlySurvivors(t *testing.T) {
	t.Parallel()

	cloud := pointcloud.Cloud{{X: 1}, {X: 5}, {X: 3}, {X: 4}, {X: 2}}
	var sizes []int
	recording := FilterFunc(func(ctx context.Context, c pointcloud.Cloud) (Mask, error) {
		sizes = append(sizes, len(c))
		return farthest(ctx, c)
	})

	rounds, err := Iterate(recording, 3).Rounds(context.Background(), cloud)
	require.NoError(t, err)
	assert.Equal(t, []int{5, 4, 3}, sizes)
	assert.Equal(t, []Mask{
		{false, true, false, false, false},
		{false, true, false, true, false},
		{false, true, true, true, false},
	}, rounds)
}

func TestIterate_ZeroAndNegativeRounds(t *testing.T) {
	t.Parallel()

	cloud := testutil.Grid(0, 0, 0, 3, 3, 1)
	called := false
	f := FilterFunc(func(_ context.Context, c pointcloud.Cloud) (Mask, error) {
		called = true
		return pointcloud.NewMask(len(c)), nil
	})

	mask, err := Iterate(f, 0).Classify(context.Background(), cloud)
	require.NoError(t, err)
	assert.Equal(t, pointcloud.NewMask(len(cloud)), mask)
	assert.False(t, called)

	_, err = Iterate(f, -1).Classify(context.Background(), cloud)
	assert.ErrorIs(t, err, ErrNegativeRounds)
}

func TestIterate_StopsWhenNothingSurvives(t *testing.T) {
	t.Parallel()

	calls := 0
	all := FilterFunc(func(_ context.Context, c pointcloud.Cloud) (Mask, error) {
		calls++
		m := pointcloud.NewMask(len(c))
		for i := range m {
			m[i] = true
		}
		return m, nil
	})

	rounds, err := Iterate(all, 4).Rounds(context.Background(), testutil.Grid(0, 0, 0, 2, 2, 1))
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	require.Len(t, rounds, 4)
	for _, m := range rounds {
		assert.Equal(t, 4, m.Count())
	}
}

func TestIterate_MaskLengthError(t *testing.T) {
	t.Parallel()

	short := FilterFunc(func(_ context.Context, c pointcloud.Cloud) (Mask, error) {
		return pointcloud.NewMask(len(c) - 1), nil
	})
	_, err := Iterate(short, 2).Classify(context.Background(), testutil.Grid(0, 0, 0, 2, 2, 1))
	var mle *MaskLengthError
	require.ErrorAs(t, err, &mle)
	assert.Equal(t, MaskLengthError{Round: 1, Want: 4, Got: 3}, *mle)
}

func TestIterate_PropagatesInsufficientPoints(t *testing.T) {
	t.Parallel()

	_, err := Iterate(DefaultDSOR(), 3).Classify(context.Background(), testutil.Grid(10, 0, 0, 2, 2, 1))
	require.Error(t, err)
	assert.True(t, errors.Is(err, spatial.ErrInsufficientPoints))
	var ipe *spatial.InsufficientPointsError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, 4, ipe.Have)
}

func TestIterate_CancelledBetweenRounds(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	f := FilterFunc(func(ctx context.Context, c pointcloud.Cloud) (Mask, error) {
		cancel()
		return farthest(ctx, c)
	})
	_, err := Iterate(f, 3).Classify(ctx, testutil.Grid(0, 0, 0, 3, 3, 1))
	assert.ErrorIs(t, err, context.Canceled)
}
