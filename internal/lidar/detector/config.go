package detector

import (
	"errors"
	"fmt"
)

// Kind names a detector family.
type Kind string

const (
	KindEllipticEnvelope   Kind = "elliptic_envelope"
	KindOneClassSVM        Kind = "one_class_svm"
	KindLocalOutlierFactor Kind = "local_outlier_factor"
	KindIsolationForest    Kind = "isolation_forest"
)

// ErrInvalidConfig is wrapped by every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid detector config")

// Config is the parameter set of one detector family.
type Config interface {
	Kind() Kind
	Validate() error
	// Params returns the parameters in the form sent to external backends.
	Params() map[string]any
}

func checkContamination(kind Kind, c float64) error {
	if !(c > 0 && c <= 0.5) {
		return fmt.Errorf("%w: %s contamination must be in (0, 0.5], got %v", ErrInvalidConfig, kind, c)
	}
	return nil
}

// EllipticEnvelope fits a robust Gaussian and flags the least likely points.
type EllipticEnvelope struct {
	Contamination float64
}

func (EllipticEnvelope) Kind() Kind { return KindEllipticEnvelope }

func (c EllipticEnvelope) Validate() error { return checkContamination(c.Kind(), c.Contamination) }

func (c EllipticEnvelope) Params() map[string]any {
	return map[string]any{"contamination": c.Contamination}
}

// OneClassSVM learns a boundary around the inliers. Contamination is passed
// to the backend as nu.
type OneClassSVM struct {
	Contamination float64
	Kernel        string
}

func (OneClassSVM) Kind() Kind { return KindOneClassSVM }

func (c OneClassSVM) Validate() error {
	if err := checkContamination(c.Kind(), c.Contamination); err != nil {
		return err
	}
	switch c.Kernel {
	case "linear", "poly", "rbf", "sigmoid":
		return nil
	}
	return fmt.Errorf("%w: unknown one_class_svm kernel %q", ErrInvalidConfig, c.Kernel)
}

func (c OneClassSVM) Params() map[string]any {
	return map[string]any{"nu": c.Contamination, "kernel": c.Kernel}
}

// LocalOutlierFactor compares each point's local density with that of its
// neighbours. A nil Contamination lets the backend choose ("auto").
type LocalOutlierFactor struct {
	Contamination *float64
	Neighbors     int
	Metric        string
}

func (LocalOutlierFactor) Kind() Kind { return KindLocalOutlierFactor }

func (c LocalOutlierFactor) Validate() error {
	if c.Contamination != nil {
		if err := checkContamination(c.Kind(), *c.Contamination); err != nil {
			return err
		}
	}
	if c.Neighbors < 1 {
		return fmt.Errorf("%w: local_outlier_factor neighbors must be positive, got %d", ErrInvalidConfig, c.Neighbors)
	}
	if c.Metric == "" {
		return fmt.Errorf("%w: local_outlier_factor metric is empty", ErrInvalidConfig)
	}
	return nil
}

func (c LocalOutlierFactor) Params() map[string]any {
	var contamination any = "auto"
	if c.Contamination != nil {
		contamination = *c.Contamination
	}
	return map[string]any{
		"contamination": contamination,
		"n_neighbors":   c.Neighbors,
		"metric":        c.Metric,
	}
}

// IsolationForest isolates points with random axis-aligned splits.
type IsolationForest struct {
	Contamination float64
	Estimators    int
	MaxFeatures   float64 // fraction of features per tree, in (0, 1]
}

func (IsolationForest) Kind() Kind { return KindIsolationForest }

func (c IsolationForest) Validate() error {
	if err := checkContamination(c.Kind(), c.Contamination); err != nil {
		return err
	}
	if c.Estimators < 1 {
		return fmt.Errorf("%w: isolation_forest estimators must be positive, got %d", ErrInvalidConfig, c.Estimators)
	}
	if !(c.MaxFeatures > 0 && c.MaxFeatures <= 1) {
		return fmt.Errorf("%w: isolation_forest max_features must be in (0, 1], got %v", ErrInvalidConfig, c.MaxFeatures)
	}
	return nil
}

func (c IsolationForest) Params() map[string]any {
	return map[string]any{
		"contamination": c.Contamination,
		"n_estimators":  c.Estimators,
		"max_features":  c.MaxFeatures,
	}
}

// Default returns the reference configuration for kind.
func Default(kind Kind) (Config, error) {
	switch kind {
	case KindEllipticEnvelope:
		return EllipticEnvelope{Contamination: 0.1}, nil
	case KindOneClassSVM:
		return OneClassSVM{Contamination: 0.1, Kernel: "rbf"}, nil
	case KindLocalOutlierFactor:
		return LocalOutlierFactor{Neighbors: 5, Metric: "l1"}, nil
	case KindIsolationForest:
		return IsolationForest{Contamination: 0.1, Estimators: 100, MaxFeatures: 1.0}, nil
	}
	return nil, fmt.Errorf("%w: unknown detector kind %q", ErrInvalidConfig, kind)
}
