package schedule

import (
	"strings"
	"time"
)

const (
	TypeMatch    = "MATCH"
	TypeTraining = "TRAINING"
	TypeSocial   = "SOCIAL"
)

// MatchEvent is one externally scheduled club event. Discovery only ever
// reads these; the scheduling screens that author them live elsewhere.
type MatchEvent struct {
	ID        string
	TeamID    string
	StartsAt  time.Time
	Type      string
	Cancelled bool
}

func NormalizeType(value string) string {
	eventType := strings.ToUpper(strings.TrimSpace(value))
	if eventType == "" {
		return TypeMatch
	}
	return eventType
}

// IsMatch reports whether the event is an actual game rather than training
// or a social fixture.
func (e MatchEvent) IsMatch() bool {
	return NormalizeType(e.Type) == TypeMatch
}
