package outlier

import (
	"context"
	"errors"
	"fmt"

	"github.com/banshee-data/lidarclean/internal/lidar/pointcloud"
)

// ErrNegativeRounds is returned by Iterate's filter when times < 0.
var ErrNegativeRounds = errors.New("refinement rounds must be non-negative")

// MaskLengthError reports a filter that returned a mask whose length does
// not match the points it was given. Round is zero outside refinement.
type MaskLengthError struct {
	Round int
	Want  int
	Got   int
}

func (e *MaskLengthError) Error() string {
	msg := fmt.Sprintf("filter returned %d mask entries for %d points", e.Got, e.Want)
	if e.Round > 0 {
		return fmt.Sprintf("round %d: %s", e.Round, msg)
	}
	return msg
}

// Iterative reapplies a filter to the points that survived the previous
// round. Flags accumulate over original indices and are never cleared.
type Iterative struct {
	filter Filter
	times  int
}

// Iterate wraps f so that it runs times rounds. Iterate(f, 1) classifies
// exactly as f does.
func Iterate(f Filter, times int) *Iterative {
	return &Iterative{filter: f, times: times}
}

// Times returns the configured round count.
func (it *Iterative) Times() int { return it.times }

// Classify implements Filter and returns the mask after the last round.
func (it *Iterative) Classify(ctx context.Context, cloud pointcloud.Cloud) (Mask, error) {
	rounds, err := it.Rounds(ctx, cloud)
	if err != nil {
		return nil, err
	}
	if len(rounds) == 0 {
		return pointcloud.NewMask(len(cloud)), nil
	}
	return rounds[len(rounds)-1], nil
}

// Rounds returns the accumulated mask after each round; element i is the
// state after round i+1. Once no point survives, remaining rounds are not
// run and repeat the final mask.
func (it *Iterative) Rounds(ctx context.Context, cloud pointcloud.Cloud) ([]Mask, error) {
	if it.times < 0 {
		return nil, fmt.Errorf("%w: got %d", ErrNegativeRounds, it.times)
	}

	acc := pointcloud.NewMask(len(cloud))
	rounds := make([]Mask, 0, it.times)
	for round := 1; round <= it.times; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		survivors := acc.Survivors()
		if len(survivors) == 0 {
			rounds = append(rounds, acc.Clone())
			continue
		}

		local, err := it.filter.Classify(ctx, cloud.Subset(survivors))
		if err != nil {
			return nil, fmt.Errorf("round %d: %w", round, err)
		}
		if len(local) != len(survivors) {
			return nil, &MaskLengthError{Round: round, Want: len(survivors), Got: len(local)}
		}
		for j, flagged := range local {
			if flagged {
				acc[survivors[j]] = true
			}
		}
		rounds = append(rounds, acc.Clone())
	}
	return rounds, nil
}
