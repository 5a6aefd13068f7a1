package pointcloud

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoint_Range(t *testing.T) {
	t.Parallel()

	p := Point{X: 3, Y: 4, Z: 12, Remission: 0.5}
	assert.InDelta(t, 13.0, p.Range(), 1e-12)

	v := p.Vec()
	assert.Equal(t, 3.0, v.X)
	assert.Equal(t, 4.0, v.Y)
	assert.Equal(t, 12.0, v.Z)
}

func TestPoint_Finite(t *testing.T) {
	t.Parallel()

	assert.True(t, Point{X: 1, Y: 2, Z: 3}.Finite())
	assert.False(t, Point{X: float32(math.NaN())}.Finite())
	assert.False(t, Point{Z: float32(math.Inf(-1))}.Finite())
}

func TestCloud_SubsetPreservesOrder(t *testing.T) {
	t.Parallel()

	c := Cloud{{X: 0}, {X: 1}, {X: 2}, {X: 3}}
	got := c.Subset([]int{3, 1})
	want := Cloud{{X: 3}, {X: 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Subset mismatch (-want +got):\n%s", diff)
	}
}

func TestCloud_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	c := Cloud{{X: 1}}
	cp := c.Clone()
	cp[0].X = 9
	assert.Equal(t, float32(1), c[0].X)
	assert.Nil(t, Cloud(nil).Clone())
}

func TestMask_Basics(t *testing.T) {
	t.Parallel()

	m := Mask{true, false, true, false}
	assert.Equal(t, 2, m.Count())
	assert.Equal(t, []int{1, 3}, m.Survivors())
	assert.Equal(t, []int{0, 2}, m.Outliers())
	assert.Len(t, NewMask(5), 5)
	assert.Zero(t, NewMask(5).Count())
}

func TestMask_OrAndContains(t *testing.T) {
	t.Parallel()

	a := Mask{true, false, false}
	b := Mask{false, false, true}

	u, err := a.Or(b)
	require.NoError(t, err)
	assert.Equal(t, Mask{true, false, true}, u)
	assert.True(t, u.Contains(a))
	assert.True(t, u.Contains(b))
	assert.False(t, a.Contains(u))

	_, err = a.Or(Mask{true})
	assert.Error(t, err)
	assert.False(t, a.Contains(Mask{true}))
}

func TestKeep(t *testing.T) {
	t.Parallel()

	c := Cloud{{X: 0}, {X: 1}, {X: 2}}
	kept, err := Keep(c, Mask{false, true, false})
	require.NoError(t, err)
	assert.Equal(t, Cloud{{X: 0}, {X: 2}}, kept)

	_, err = Keep(c, Mask{false})
	assert.Error(t, err)
}
