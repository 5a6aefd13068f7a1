package sqlite

import (
	"strings"
	"time"

	"github.com/banshee-data/lidarclean/internal/timeutil"
)

const (
	maxBusyRetries = 5
	baseBusyDelay  = 10 * time.Millisecond
)

// busyClock paces busy retries. Tests swap in a timeutil.MockClock.
var busyClock timeutil.Clock = timeutil.RealClock{}

// isSQLiteBusy reports whether err is SQLite's "database is locked" error.
func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// retryOnBusy calls fn until it succeeds, returns a non-busy error, or has
// been attempted maxBusyRetries times. The delay doubles after each busy
// attempt starting at baseBusyDelay.
func retryOnBusy(fn func() error) error {
	var err error
	delay := baseBusyDelay
	for attempt := 0; attempt < maxBusyRetries; attempt++ {
		err = fn()
		if !isSQLiteBusy(err) {
			return err
		}
		if attempt < maxBusyRetries-1 {
			busyClock.Sleep(delay)
			delay *= 2
		}
	}
	return err
}
