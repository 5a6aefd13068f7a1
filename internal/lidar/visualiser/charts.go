package visualiser

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/lidarclean/internal/lidar/pointcloud"
)

// maxScatterPoints caps the points drawn per series; larger clouds are
// strided so the HTML stays responsive.
const maxScatterPoints = 20000

// RenderCloud writes a bird's-eye scatter of cloud to <name>.html with
// inliers and outliers as separate series.
func (s *Session) RenderCloud(name string, cloud pointcloud.Cloud, mask pointcloud.Mask) (string, error) {
	if len(mask) != len(cloud) {
		return "", fmt.Errorf("render cloud: %d mask entries for %d points", len(mask), len(cloud))
	}

	stride := len(cloud)/maxScatterPoints + 1
	inPts := make([]opts.ScatterData, 0, len(cloud)/stride+1)
	outPts := make([]opts.ScatterData, 0, mask.Count())
	maxAbs := 0.0
	for i, p := range cloud {
		x, y := float64(p.X), float64(p.Y)
		maxAbs = math.Max(maxAbs, math.Max(math.Abs(x), math.Abs(y)))
		switch {
		case mask[i]:
			outPts = append(outPts, opts.ScatterData{Value: []interface{}{x, y}})
		case i%stride == 0:
			inPts = append(inPts, opts.ScatterData{Value: []interface{}{x, y}})
		}
	}

	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}

	fraction := 0.0
	if len(cloud) > 0 {
		fraction = float64(len(outPts)) / float64(len(cloud))
	}
	subtitle := fmt.Sprintf("points=%d outliers=%d (%.2f%%) stride=%d", len(cloud), len(outPts), fraction*100, stride)

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "LiDAR Outliers", Theme: "dark", Width: "900px", Height: "900px"}),
		charts.WithTitleOpts(opts.Title{Title: name, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (m)", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("inliers", inPts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 2}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#9e9e9e"}))
	scatter.AddSeries("outliers", outPts, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 5}), charts.WithItemStyleOpts(opts.ItemStyle{Color: "#ff5252"}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render cloud chart: %w", err)
	}
	return s.write(name, ".html", buf.Bytes())
}

// FrameStat is one point of a sequence report.
type FrameStat struct {
	Frame    string
	Points   int
	Outliers int
	Dropped  int
}

// OutlierRatio returns Outliers/Points, or 0 for an empty frame.
func (f FrameStat) OutlierRatio() float64 {
	if f.Points == 0 {
		return 0
	}
	return float64(f.Outliers) / float64(f.Points)
}

// RenderSequenceReport writes an HTML line chart of the outlier ratio per
// frame to <name>.html.
func (s *Session) RenderSequenceReport(name string, stats []FrameStat) (string, error) {
	frames := make([]string, len(stats))
	ratios := make([]opts.LineData, len(stats))
	for i, st := range stats {
		frames[i] = st.Frame
		ratios[i] = opts.LineData{Name: st.Frame, Value: st.OutlierRatio() * 100}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "LiDAR Outlier Report", Theme: "dark", Width: "1200px", Height: "500px"}),
		charts.WithTitleOpts(opts.Title{Title: name, Subtitle: fmt.Sprintf("frames=%d", len(stats))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "frame", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "outliers (%)", NameLocation: "middle", NameGap: 40}),
	)
	line.SetXAxis(frames).AddSeries("outlier ratio", ratios, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}))

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render sequence report: %w", err)
	}
	return s.write(name, ".html", buf.Bytes())
}

// RenderSequencePlot writes the same outlier ratios as RenderSequenceReport
// as a static PNG line plot.
func (s *Session) RenderSequencePlot(name string, stats []FrameStat) (string, error) {
	pts := make(plotter.XYs, len(stats))
	for i, st := range stats {
		pts[i] = plotter.XY{X: float64(i), Y: st.OutlierRatio() * 100}
	}

	p := plot.New()
	p.Title.Text = name
	p.X.Label.Text = "frame"
	p.Y.Label.Text = "outliers (%)"
	if len(pts) > 0 {
		l, err := plotter.NewLine(pts)
		if err != nil {
			return "", fmt.Errorf("failed to create line: %w", err)
		}
		l.Width = vg.Points(1)
		p.Add(l)
	}

	path := s.path(name, ".png")
	if err := p.Save(14*vg.Inch, 6*vg.Inch, path); err != nil {
		return "", fmt.Errorf("failed to save sequence plot: %w", err)
	}
	return path, nil
}

func (s *Session) write(name, ext string, data []byte) (string, error) {
	path := s.path(name, ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
