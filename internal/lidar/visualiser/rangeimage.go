package visualiser

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"

	"github.com/banshee-data/lidarclean/internal/lidar/projection"
)

// Normalise prepares one range image channel for colouring. Sentinel (and
// any other negative) cells take the smallest positive value, every value is
// raised to power, and the result is scaled to [0, 1]. A channel without
// positive values, or with a single distinct value, maps to all zeros.
func Normalise(plane []float32, power float64) []float64 {
	out := make([]float64, len(plane))
	minPos := math.Inf(1)
	for _, v := range plane {
		if v > 0 && float64(v) < minPos {
			minPos = float64(v)
		}
	}
	if math.IsInf(minPos, 1) {
		return out
	}

	for i, v := range plane {
		f := float64(v)
		if f < 0 {
			f = minPos
		}
		out[i] = math.Pow(f, power)
	}
	lo, hi := floats.Min(out), floats.Max(out)
	if hi == lo {
		clear(out)
		return out
	}
	floats.AddConst(-lo, out)
	floats.Scale(1/(hi-lo), out)
	return out
}

// imageGrid exposes a normalised channel as a plotter.GridXYZ. Image row 0
// is the top beam, so rows are flipped onto the plot's upward Y axis.
type imageGrid struct {
	width, height int
	z             []float64
}

func (g imageGrid) Dims() (c, r int)   { return g.width, g.height }
func (g imageGrid) X(c int) float64    { return float64(c) }
func (g imageGrid) Y(r int) float64    { return float64(r) }
func (g imageGrid) Z(c, r int) float64 { return g.z[(g.height-1-r)*g.width+c] }

// RenderRangeImage writes channel ch of img as <name>.png and returns the
// file path.
func (s *Session) RenderRangeImage(name string, img *projection.RangeImage, ch projection.Channel) (string, error) {
	if img == nil || img.Width == 0 || img.Height == 0 {
		return "", errors.New("render range image: empty image")
	}

	grid := imageGrid{width: img.Width, height: img.Height, z: Normalise(img.Plane(ch), s.power)}
	hm := plotter.NewHeatMap(grid, s.palette)
	hm.Min, hm.Max = 0, 1

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s: %s", name, ch)
	p.X.Label.Text = "azimuth bin"
	p.Y.Label.Text = "elevation bin"
	p.Add(hm)

	path := s.path(name, ".png")
	if err := p.Save(s.width, s.height, path); err != nil {
		return "", fmt.Errorf("failed to save range image plot: %w", err)
	}
	return path, nil
}
