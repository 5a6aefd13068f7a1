package projection

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/banshee-data/lidarclean/internal/lidar/pointcloud"
)

// Projector maps points to pixels of a spherical range image.
type Projector struct {
	FovUpDeg   float64 // upper edge of the vertical field of view, degrees
	FovDownDeg float64 // lower edge, degrees (negative below the horizon)
	Height     int
	Width      int
}

// DefaultProjector returns the 64-beam sensor geometry.
func DefaultProjector() Projector {
	return Projector{FovUpDeg: 3.0, FovDownDeg: -25.0, Height: 64, Width: 1024}
}

// Validate checks that the image shape and field of view are usable.
func (p Projector) Validate() error {
	if p.Height < 1 || p.Width < 1 {
		return fmt.Errorf("projection: image shape must be positive, got %dx%d", p.Height, p.Width)
	}
	if math.Abs(p.FovUpDeg)+math.Abs(p.FovDownDeg) == 0 {
		return errors.New("projection: vertical field of view is zero")
	}
	return nil
}

// Projection is the result of projecting a cloud.
type Projection struct {
	Image *RangeImage

	// Rows and Cols give the pixel each input point mapped to, whether or
	// not it won its cell. Dropped points have -1 in both.
	Rows []int
	Cols []int

	// Dropped lists points that could not be projected: points at the
	// sensor origin and points with non-finite coordinates.
	Dropped []int
}

// Pixel returns the image coordinates for one point. ok is false for points
// at the origin or with non-finite coordinates.
func (p Projector) Pixel(pt pointcloud.Point) (row, col int, ok bool) {
	if !pt.Finite() {
		return -1, -1, false
	}
	r := pt.Range()
	if r == 0 {
		return -1, -1, false
	}

	x, y, z := float64(pt.X), float64(pt.Y), float64(pt.Z)
	yaw := -math.Atan2(y, x)
	pitch := math.Asin(math.Max(-1, math.Min(1, z/r)))

	fovUp := p.FovUpDeg / 180.0 * math.Pi
	fovDown := p.FovDownDeg / 180.0 * math.Pi
	fov := math.Abs(fovDown) + math.Abs(fovUp)

	u := 0.5 * (yaw/math.Pi + 1.0) * float64(p.Width)
	v := (1.0 - (pitch+math.Abs(fovDown))/fov) * float64(p.Height)
	return clampRound(v, p.Height-1), clampRound(u, p.Width-1), true
}

// clampRound rounds half to even and clamps to [0, hi].
func clampRound(v float64, hi int) int {
	r := math.RoundToEven(v)
	switch {
	case r < 0:
		return 0
	case r > float64(hi):
		return hi
	}
	return int(r)
}

// Project rasterises cloud. Points are written farthest first so that the
// nearest point landing in a cell wins; among equal ranges the later input
// index wins. The cloud is not modified.
func (p Projector) Project(cloud pointcloud.Cloud) (*Projection, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	out := &Projection{
		Image: NewRangeImage(p.Height, p.Width),
		Rows:  make([]int, len(cloud)),
		Cols:  make([]int, len(cloud)),
	}
	ranges := make([]float64, len(cloud))
	order := make([]int, 0, len(cloud))
	for i, pt := range cloud {
		row, col, ok := p.Pixel(pt)
		out.Rows[i], out.Cols[i] = row, col
		if !ok {
			out.Dropped = append(out.Dropped, i)
			continue
		}
		ranges[i] = pt.Range()
		order = append(order, i)
	}

	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(ranges[b], ranges[a])
	})

	for _, i := range order {
		pt := cloud[i]
		cell := out.Image.Cell(out.Rows[i], out.Cols[i])
		cell[ChannelRemission] = pt.Remission
		cell[ChannelRange] = float32(ranges[i])
		cell[ChannelX] = pt.X
		cell[ChannelY] = pt.Y
		cell[ChannelZ] = pt.Z
		cell[ChannelIndex] = float32(i)
	}
	return out, nil
}

// Mask image cell values.
const (
	MaskEmpty   int8 = -1
	MaskInlier  int8 = 0
	MaskOutlier int8 = 1
)

// MaskImage back-projects a per-point mask through the index channel,
// returning a Height*Width row-major grid of MaskEmpty, MaskInlier or
// MaskOutlier. mask must describe the cloud that was projected.
func (pr *Projection) MaskImage(mask pointcloud.Mask) ([]int8, error) {
	if len(mask) != len(pr.Rows) {
		return nil, fmt.Errorf("projection: mask has %d entries for %d projected points", len(mask), len(pr.Rows))
	}
	img := pr.Image
	out := make([]int8, img.Height*img.Width)
	for i := range out {
		idx := img.Data[i*NumChannels+int(ChannelIndex)]
		switch {
		case idx == Sentinel:
			out[i] = MaskEmpty
		case mask[int(idx)]:
			out[i] = MaskOutlier
		default:
			out[i] = MaskInlier
		}
	}
	return out, nil
}
