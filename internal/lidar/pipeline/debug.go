package pipeline

import "github.com/banshee-data/lidarclean/internal/monitoring"

// opsf logs actionable failures.
func opsf(format string, args ...interface{}) {
	monitoring.Logf("[pipeline] "+format, args...)
}

// diagf logs per-frame diagnostics; silent unless verbose output is on.
func diagf(format string, args ...interface{}) {
	monitoring.Debugf("[pipeline] "+format, args...)
}
