package spatial

import (
	"errors"
	"fmt"
)

// ErrInsufficientPoints is wrapped by every InsufficientPointsError.
var ErrInsufficientPoints = errors.New("insufficient points")

// ErrInvalidArgument reports a malformed query (bad k, radius or lengths).
var ErrInvalidArgument = errors.New("invalid argument")

// InsufficientPointsError reports a request that needs more indexed points
// than are available.
type InsufficientPointsError struct {
	Op   string
	Have int
	Need int
}

func (e *InsufficientPointsError) Error() string {
	return fmt.Sprintf("%s: have %d points, need at least %d", e.Op, e.Have, e.Need)
}

func (e *InsufficientPointsError) Unwrap() error { return ErrInsufficientPoints }
