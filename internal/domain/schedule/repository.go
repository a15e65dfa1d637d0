package schedule

import (
	"context"
	"time"
)

// Repository exposes read access to externally scheduled match events.
type Repository interface {
	// ListByTeamBetween returns the team's events with a start time inside
	// [from, to], ordered by start time ascending.
	ListByTeamBetween(ctx context.Context, teamID string, from, to time.Time) ([]MatchEvent, error)
}
