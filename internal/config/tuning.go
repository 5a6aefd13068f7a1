package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
// This is the single source of truth for all default tuning values.
const DefaultConfigPath = "config/tuning.defaults.json"

// Algorithm names accepted by the "algorithm" key.
const (
	AlgorithmDSOR     = "dsor"
	AlgorithmDROR     = "dror"
	AlgorithmDetector = "detector"
	AlgorithmNone     = "none"
)

// TuningConfig represents the root configuration for filtering and
// projection. Every field is optional; the Get* accessors fall back to the
// built-in defaults so partial files are safe.
type TuningConfig struct {
	// Filter selection
	Algorithm  *string `json:"algorithm,omitempty"`
	Iterations *int    `json:"iterations,omitempty"`

	// DSOR params
	DSORStdFactor   *float64 `json:"dsor_std_factor,omitempty"`
	DSORRangeFactor *float64 `json:"dsor_range_factor,omitempty"`
	DSORK           *int     `json:"dsor_k,omitempty"`

	// DROR params
	DRORB     *float64 `json:"dror_b,omitempty"`
	DRORAlpha *float64 `json:"dror_alpha,omitempty"`
	DRORKMin  *int     `json:"dror_k_min,omitempty"`
	DRORSRMin *float64 `json:"dror_sr_min,omitempty"`

	// External detector params
	DetectorKind          *string  `json:"detector_kind,omitempty"`
	DetectorCommand       []string `json:"detector_command,omitempty"`
	DetectorContamination *float64 `json:"detector_contamination,omitempty"` // nil means "auto" for LOF
	DetectorKernel        *string  `json:"detector_kernel,omitempty"`
	DetectorNeighbors     *int     `json:"detector_neighbors,omitempty"`
	DetectorMetric        *string  `json:"detector_metric,omitempty"`
	DetectorEstimators    *int     `json:"detector_estimators,omitempty"`
	DetectorMaxFeatures   *float64 `json:"detector_max_features,omitempty"`

	// Projection params
	FovUpDeg    *float64 `json:"fov_up_deg,omitempty"`
	FovDownDeg  *float64 `json:"fov_down_deg,omitempty"`
	ImageHeight *int     `json:"image_height,omitempty"`
	ImageWidth  *int     `json:"image_width,omitempty"`

	// Pipeline params
	NoiseLabels  []uint16 `json:"noise_labels,omitempty"`
	Workers      *int     `json:"workers,omitempty"`
	IndexWorkers *int     `json:"index_workers,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
// Use LoadTuningConfig to load actual values from the defaults file.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field populated from
// the built-in defaults.
func DefaultTuningConfig() *TuningConfig {
	c := EmptyTuningConfig()
	return &TuningConfig{
		Algorithm:             ptrString(c.GetAlgorithm()),
		Iterations:            ptrInt(c.GetIterations()),
		DSORStdFactor:         ptrFloat64(c.GetDSORStdFactor()),
		DSORRangeFactor:       ptrFloat64(c.GetDSORRangeFactor()),
		DSORK:                 ptrInt(c.GetDSORK()),
		DRORB:                 ptrFloat64(c.GetDRORB()),
		DRORAlpha:             ptrFloat64(c.GetDRORAlpha()),
		DRORKMin:              ptrInt(c.GetDRORKMin()),
		DRORSRMin:             ptrFloat64(c.GetDRORSRMin()),
		DetectorKind:          ptrString(c.GetDetectorKind()),
		DetectorKernel:        ptrString(c.GetDetectorKernel()),
		DetectorNeighbors:     ptrInt(c.GetDetectorNeighbors()),
		DetectorMetric:        ptrString(c.GetDetectorMetric()),
		DetectorEstimators:    ptrInt(c.GetDetectorEstimators()),
		DetectorMaxFeatures:   ptrFloat64(c.GetDetectorMaxFeatures()),
		FovUpDeg:              ptrFloat64(c.GetFovUpDeg()),
		FovDownDeg:            ptrFloat64(c.GetFovDownDeg()),
		ImageHeight:           ptrInt(c.GetImageHeight()),
		ImageWidth:            ptrInt(c.GetImageWidth()),
		NoiseLabels:           c.GetNoiseLabels(),
		Workers:               ptrInt(c.GetWorkers()),
		IndexWorkers:          ptrInt(c.GetIndexWorkers()),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file retain their default values, so
// partial configs are safe.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical tuning defaults from DefaultConfigPath.
// It searches for the file in the current directory and common parent directories.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *TuningConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath,       // from internal/config/
		"../../../" + DefaultConfigPath,    // from internal/lidar/pipeline/
		"../../../../" + DefaultConfigPath, // from internal/lidar/storage/sqlite/
	}
	for _, path := range candidates {
		if cfg, err := LoadTuningConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid. Unset fields are
// not checked; their defaults are valid by construction.
func (c *TuningConfig) Validate() error {
	switch a := c.GetAlgorithm(); a {
	case AlgorithmDSOR, AlgorithmDROR, AlgorithmDetector, AlgorithmNone:
	default:
		return fmt.Errorf("algorithm must be one of dsor, dror, detector, none; got %q", a)
	}

	if c.Iterations != nil && *c.Iterations < 1 {
		return fmt.Errorf("iterations must be at least 1, got %d", *c.Iterations)
	}

	if c.DSORK != nil && *c.DSORK < 1 {
		return fmt.Errorf("dsor_k must be at least 1, got %d", *c.DSORK)
	}
	if c.DSORStdFactor != nil && *c.DSORStdFactor < 0 {
		return fmt.Errorf("dsor_std_factor must be non-negative, got %f", *c.DSORStdFactor)
	}
	if c.DSORRangeFactor != nil && *c.DSORRangeFactor <= 0 {
		return fmt.Errorf("dsor_range_factor must be positive, got %f", *c.DSORRangeFactor)
	}

	if c.DRORB != nil && *c.DRORB < 0 {
		return fmt.Errorf("dror_b must be non-negative, got %f", *c.DRORB)
	}
	if c.DRORAlpha != nil && *c.DRORAlpha <= 0 {
		return fmt.Errorf("dror_alpha must be positive, got %f", *c.DRORAlpha)
	}
	if c.DRORKMin != nil && *c.DRORKMin < 1 {
		return fmt.Errorf("dror_k_min must be at least 1, got %d", *c.DRORKMin)
	}
	if c.DRORSRMin != nil && *c.DRORSRMin < 0 {
		return fmt.Errorf("dror_sr_min must be non-negative, got %f", *c.DRORSRMin)
	}

	if c.GetAlgorithm() == AlgorithmDetector && len(c.DetectorCommand) == 0 {
		return fmt.Errorf("detector_command is required when algorithm is %q", AlgorithmDetector)
	}
	if c.DetectorContamination != nil {
		if v := *c.DetectorContamination; v <= 0 || v > 0.5 {
			return fmt.Errorf("detector_contamination must be in (0, 0.5], got %f", v)
		}
	}

	if c.ImageHeight != nil && *c.ImageHeight < 1 {
		return fmt.Errorf("image_height must be positive, got %d", *c.ImageHeight)
	}
	if c.ImageWidth != nil && *c.ImageWidth < 1 {
		return fmt.Errorf("image_width must be positive, got %d", *c.ImageWidth)
	}
	if c.GetFovUpDeg() == 0 && c.GetFovDownDeg() == 0 {
		return fmt.Errorf("vertical field of view must be non-zero")
	}

	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	if c.IndexWorkers != nil && *c.IndexWorkers < 1 {
		return fmt.Errorf("index_workers must be at least 1, got %d", *c.IndexWorkers)
	}

	return nil
}

// GetAlgorithm returns the algorithm value or the default.
func (c *TuningConfig) GetAlgorithm() string {
	if c.Algorithm == nil || *c.Algorithm == "" {
		return AlgorithmDSOR
	}
	return strings.ToLower(*c.Algorithm)
}

// GetIterations returns the iterations value or the default.
func (c *TuningConfig) GetIterations() int {
	if c.Iterations == nil {
		return 1
	}
	return *c.Iterations
}

// GetDSORStdFactor returns the dsor_std_factor value or the default.
func (c *TuningConfig) GetDSORStdFactor() float64 {
	if c.DSORStdFactor == nil {
		return 0.0008
	}
	return *c.DSORStdFactor
}

// GetDSORRangeFactor returns the dsor_range_factor value or the default.
func (c *TuningConfig) GetDSORRangeFactor() float64 {
	if c.DSORRangeFactor == nil {
		return 0.05
	}
	return *c.DSORRangeFactor
}

// GetDSORK returns the dsor_k value or the default.
func (c *TuningConfig) GetDSORK() int {
	if c.DSORK == nil {
		return 5
	}
	return *c.DSORK
}

// GetDRORB returns the dror_b value or the default.
func (c *TuningConfig) GetDRORB() float64 {
	if c.DRORB == nil {
		return 0.05
	}
	return *c.DRORB
}

// GetDRORAlpha returns the dror_alpha value or the default.
func (c *TuningConfig) GetDRORAlpha() float64 {
	if c.DRORAlpha == nil {
		return 1
	}
	return *c.DRORAlpha
}

// GetDRORKMin returns the dror_k_min value or the default.
func (c *TuningConfig) GetDRORKMin() int {
	if c.DRORKMin == nil {
		return 2
	}
	return *c.DRORKMin
}

// GetDRORSRMin returns the dror_sr_min value or the default.
func (c *TuningConfig) GetDRORSRMin() float64 {
	if c.DRORSRMin == nil {
		return 5
	}
	return *c.DRORSRMin
}

// GetDetectorKind returns the detector_kind value or the default.
func (c *TuningConfig) GetDetectorKind() string {
	if c.DetectorKind == nil || *c.DetectorKind == "" {
		return "isolation_forest"
	}
	return *c.DetectorKind
}

// GetDetectorContamination returns the detector contamination and whether it
// was set. An unset value means the detector picks its own ("auto").
func (c *TuningConfig) GetDetectorContamination() (float64, bool) {
	if c.DetectorContamination == nil {
		return 0, false
	}
	return *c.DetectorContamination, true
}

// GetDetectorKernel returns the detector_kernel value or the default.
func (c *TuningConfig) GetDetectorKernel() string {
	if c.DetectorKernel == nil || *c.DetectorKernel == "" {
		return "rbf"
	}
	return *c.DetectorKernel
}

// GetDetectorNeighbors returns the detector_neighbors value or the default.
func (c *TuningConfig) GetDetectorNeighbors() int {
	if c.DetectorNeighbors == nil {
		return 5
	}
	return *c.DetectorNeighbors
}

// GetDetectorMetric returns the detector_metric value or the default.
func (c *TuningConfig) GetDetectorMetric() string {
	if c.DetectorMetric == nil || *c.DetectorMetric == "" {
		return "l1"
	}
	return *c.DetectorMetric
}

// GetDetectorEstimators returns the detector_estimators value or the default.
func (c *TuningConfig) GetDetectorEstimators() int {
	if c.DetectorEstimators == nil {
		return 100
	}
	return *c.DetectorEstimators
}

// GetDetectorMaxFeatures returns the detector_max_features value or the default.
func (c *TuningConfig) GetDetectorMaxFeatures() float64 {
	if c.DetectorMaxFeatures == nil {
		return 1.0
	}
	return *c.DetectorMaxFeatures
}

// GetFovUpDeg returns the fov_up_deg value or the default.
func (c *TuningConfig) GetFovUpDeg() float64 {
	if c.FovUpDeg == nil {
		return 3.0
	}
	return *c.FovUpDeg
}

// GetFovDownDeg returns the fov_down_deg value or the default.
func (c *TuningConfig) GetFovDownDeg() float64 {
	if c.FovDownDeg == nil {
		return -25.0
	}
	return *c.FovDownDeg
}

// GetImageHeight returns the image_height value or the default.
func (c *TuningConfig) GetImageHeight() int {
	if c.ImageHeight == nil {
		return 64
	}
	return *c.ImageHeight
}

// GetImageWidth returns the image_width value or the default.
func (c *TuningConfig) GetImageWidth() int {
	if c.ImageWidth == nil {
		return 1024
	}
	return *c.ImageWidth
}

// GetNoiseLabels returns the semantic classes counted as noise when scoring
// masks against labels. The default is the WADS "active falling snow" class.
func (c *TuningConfig) GetNoiseLabels() []uint16 {
	if len(c.NoiseLabels) == 0 {
		return []uint16{110}
	}
	return append([]uint16(nil), c.NoiseLabels...)
}

// GetWorkers returns the number of frames processed concurrently.
func (c *TuningConfig) GetWorkers() int {
	if c.Workers == nil {
		return 1
	}
	return *c.Workers
}

// GetIndexWorkers returns the number of goroutines used per spatial index query batch.
func (c *TuningConfig) GetIndexWorkers() int {
	if c.IndexWorkers == nil {
		return 1
	}
	return *c.IndexWorkers
}
