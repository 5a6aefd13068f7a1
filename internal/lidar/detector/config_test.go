package detector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestDefault_AllKindsValid(t *testing.T) {
	t.Parallel()

	for _, kind := range []Kind{KindEllipticEnvelope, KindOneClassSVM, KindLocalOutlierFactor, KindIsolationForest} {
		cfg, err := Default(kind)
		require.NoError(t, err)
		assert.Equal(t, kind, cfg.Kind())
		assert.NoError(t, cfg.Validate(), kind)
	}

	_, err := Default("dbscan")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		cfg  Config
		ok   bool
	}{
		{"ee ok", EllipticEnvelope{Contamination: 0.5}, true},
		{"ee zero", EllipticEnvelope{}, false},
		{"ee too high", EllipticEnvelope{Contamination: 0.6}, false},
		{"ocs bad kernel", OneClassSVM{Contamination: 0.1, Kernel: "cubic"}, false},
		{"ocs linear", OneClassSVM{Contamination: 0.1, Kernel: "linear"}, true},
		{"lof auto", LocalOutlierFactor{Neighbors: 5, Metric: "l1"}, true},
		{"lof explicit", LocalOutlierFactor{Contamination: ptr(0.2), Neighbors: 5, Metric: "l2"}, true},
		{"lof bad contamination", LocalOutlierFactor{Contamination: ptr(0), Neighbors: 5, Metric: "l1"}, false},
		{"lof no neighbours", LocalOutlierFactor{Metric: "l1"}, false},
		{"lof no metric", LocalOutlierFactor{Neighbors: 3}, false},
		{"if ok", IsolationForest{Contamination: 0.1, Estimators: 10, MaxFeatures: 0.5}, true},
		{"if no trees", IsolationForest{Contamination: 0.1, MaxFeatures: 1}, false},
		{"if max features", IsolationForest{Contamination: 0.1, Estimators: 10, MaxFeatures: 1.5}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := tc.cfg.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidConfig)
			}
		})
	}
}

func TestConfig_Params(t *testing.T) {
	t.Parallel()

	assert.Equal(t, map[string]any{"contamination": "auto", "n_neighbors": 5, "metric": "l1"},
		LocalOutlierFactor{Neighbors: 5, Metric: "l1"}.Params())
	assert.Equal(t, map[string]any{"contamination": 0.25, "n_neighbors": 5, "metric": "l1"},
		LocalOutlierFactor{Contamination: ptr(0.25), Neighbors: 5, Metric: "l1"}.Params())
	assert.Equal(t, map[string]any{"nu": 0.1, "kernel": "rbf"},
		OneClassSVM{Contamination: 0.1, Kernel: "rbf"}.Params())
	assert.Equal(t, map[string]any{"contamination": 0.1, "n_estimators": 100, "max_features": 1.0},
		IsolationForest{Contamination: 0.1, Estimators: 100, MaxFeatures: 1}.Params())
}
