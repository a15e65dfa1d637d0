package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/schedule"
)

type ScheduleRepository struct {
	mu    sync.RWMutex
	items []schedule.MatchEvent
}

func NewScheduleRepository(seed []schedule.MatchEvent) *ScheduleRepository {
	return &ScheduleRepository{items: append([]schedule.MatchEvent(nil), seed...)}
}

func (r *ScheduleRepository) ListByTeamBetween(_ context.Context, teamID string, from, to time.Time) ([]schedule.MatchEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]schedule.MatchEvent, 0)
	for _, item := range r.items {
		if item.TeamID != teamID {
			continue
		}
		if item.StartsAt.Before(from) || item.StartsAt.After(to) {
			continue
		}
		out = append(out, item)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartsAt.Before(out[j].StartsAt)
	})
	return out, nil
}

// Add appends an event, for tests.
func (r *ScheduleRepository) Add(event schedule.MatchEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = append(r.items, event)
}
