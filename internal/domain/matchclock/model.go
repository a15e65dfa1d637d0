package matchclock

import (
	"fmt"
	"time"
)

const (
	FirstHalf  = 1
	SecondHalf = 2
)

// State is the full game-clock state of one session. ElapsedSeconds is the
// accumulated value as of AnchorAt; while running the true elapsed time is
// derived from the wall clock rather than accumulated by ticks, so a
// suspended process resumes without drift.
type State struct {
	ElapsedSeconds int
	Running        bool
	Half           int
	MinutesPerHalf int
	AnchorAt       time.Time
}

// Elapsed returns the true elapsed seconds at the given instant.
func (s State) Elapsed(now time.Time) int {
	if !s.Running {
		return s.ElapsedSeconds
	}
	delta := int(now.Sub(s.AnchorAt) / time.Second)
	if delta < 0 {
		delta = 0
	}
	return s.ElapsedSeconds + delta
}

func (s State) Validate() error {
	if s.Half != FirstHalf && s.Half != SecondHalf {
		return fmt.Errorf("half must be 1 or 2, got %d", s.Half)
	}
	if s.MinutesPerHalf <= 0 {
		return fmt.Errorf("minutes per half must be positive, got %d", s.MinutesPerHalf)
	}
	if s.ElapsedSeconds < 0 {
		return fmt.Errorf("elapsed seconds cannot be negative")
	}
	return nil
}
