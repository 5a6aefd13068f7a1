// Package evaluation scores outlier masks against SemanticKITTI labels.
package evaluation

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/lidarclean/internal/lidar/kitti"
	"github.com/banshee-data/lidarclean/internal/lidar/pointcloud"
)

// DefaultNoiseClasses holds the SemanticKITTI-style class used for
// annotated noise returns (snow, spray, dust).
var DefaultNoiseClasses = []uint16{110}

// Score is the confusion matrix of one mask against ground truth, with
// noise as the positive class. Ratios with a zero denominator are 0.
type Score struct {
	TruePositives  int
	FalsePositives int
	FalseNegatives int
	TrueNegatives  int

	Precision float64
	Recall    float64
	F1        float64
	IoU       float64
}

// Evaluate scores mask against labels. A point is noise when its semantic
// class is one of noiseClasses.
func Evaluate(mask pointcloud.Mask, labels []kitti.Label, noiseClasses []uint16) (Score, error) {
	if len(mask) != len(labels) {
		return Score{}, fmt.Errorf("evaluate: %d mask entries for %d labels", len(mask), len(labels))
	}
	var s Score
	for i, flagged := range mask {
		noise := slices.Contains(noiseClasses, labels[i].Semantic())
		switch {
		case flagged && noise:
			s.TruePositives++
		case flagged:
			s.FalsePositives++
		case noise:
			s.FalseNegatives++
		default:
			s.TrueNegatives++
		}
	}
	s.fillRatios()
	return s, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func (s *Score) fillRatios() {
	s.Precision = ratio(s.TruePositives, s.TruePositives+s.FalsePositives)
	s.Recall = ratio(s.TruePositives, s.TruePositives+s.FalseNegatives)
	s.F1 = ratio(2*s.TruePositives, 2*s.TruePositives+s.FalsePositives+s.FalseNegatives)
	s.IoU = ratio(s.TruePositives, s.TruePositives+s.FalsePositives+s.FalseNegatives)
}

// Summary aggregates the scores of a sequence.
type Summary struct {
	Frames int
	Total  Score // counts summed over frames, ratios recomputed from them

	MeanF1 float64 // unweighted mean of per-frame F1
	StdF1  float64 // sample standard deviation of per-frame F1
}

// Summarise combines per-frame scores.
func Summarise(scores []Score) Summary {
	sum := Summary{Frames: len(scores)}
	if len(scores) == 0 {
		return sum
	}
	f1 := make([]float64, len(scores))
	for i, s := range scores {
		sum.Total.TruePositives += s.TruePositives
		sum.Total.FalsePositives += s.FalsePositives
		sum.Total.FalseNegatives += s.FalseNegatives
		sum.Total.TrueNegatives += s.TrueNegatives
		f1[i] = s.F1
	}
	sum.Total.fillRatios()
	if len(f1) > 1 {
		sum.MeanF1, sum.StdF1 = stat.MeanStdDev(f1, nil)
	} else {
		sum.MeanF1 = f1[0]
	}
	return sum
}
