package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/activegame"
	idgen "github.com/icpchainapps-hash/ignite-pitchboard/internal/platform/id"
)

type ActiveGameRepository struct {
	mu    sync.RWMutex
	items map[string]activegame.Snapshot
	ids   idgen.Generator
	now   func() time.Time
}

func NewActiveGameRepository() *ActiveGameRepository {
	return &ActiveGameRepository{
		items: make(map[string]activegame.Snapshot),
		ids:   idgen.NewRandomGenerator(),
		now:   time.Now,
	}
}

// SetNow overrides the repository clock, for tests.
func (r *ActiveGameRepository) SetNow(now func() time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.now = now
}

func (r *ActiveGameRepository) FindActiveByUserAndTeam(_ context.Context, userID, teamID string) (activegame.Snapshot, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest activegame.Snapshot
	found := false
	for _, item := range r.items {
		if !item.IsActive || item.UserID != userID || item.TeamID != teamID {
			continue
		}
		if !found || item.UpdatedAt.After(latest.UpdatedAt) {
			latest = cloneSnapshot(item)
			found = true
		}
	}
	return latest, found, nil
}

func (r *ActiveGameRepository) FindActiveByTeam(_ context.Context, teamID string) (activegame.Snapshot, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest activegame.Snapshot
	found := false
	for _, item := range r.items {
		if !item.IsActive || item.TeamID != teamID {
			continue
		}
		if !found || item.UpdatedAt.After(latest.UpdatedAt) {
			latest = cloneSnapshot(item)
			found = true
		}
	}
	return latest, found, nil
}

func (r *ActiveGameRepository) Create(_ context.Context, snapshot activegame.Snapshot) (string, error) {
	if err := snapshot.Validate(); err != nil {
		return "", err
	}

	id, err := r.ids.NewID()
	if err != nil {
		return "", fmt.Errorf("generate snapshot id: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot.ID = id
	snapshot.UpdatedAt = r.now().UTC()
	r.items[snapshot.ID] = cloneSnapshot(snapshot)
	return snapshot.ID, nil
}

func (r *ActiveGameRepository) Update(_ context.Context, snapshot activegame.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[snapshot.ID]; !ok {
		return fmt.Errorf("update snapshot %s: %w", snapshot.ID, activegame.ErrSnapshotNotFound)
	}
	snapshot.UpdatedAt = r.now().UTC()
	r.items[snapshot.ID] = cloneSnapshot(snapshot)
	return nil
}

func (r *ActiveGameRepository) Deactivate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[id]
	if !ok {
		return nil
	}
	item.IsActive = false
	item.UpdatedAt = r.now().UTC()
	r.items[id] = item
	return nil
}

func (r *ActiveGameRepository) ListActiveUpdatedBefore(_ context.Context, cutoff time.Time) ([]activegame.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]activegame.Snapshot, 0)
	for _, item := range r.items {
		if item.IsActive && item.UpdatedAt.Before(cutoff) {
			out = append(out, cloneSnapshot(item))
		}
	}
	return out, nil
}

// Get returns a snapshot by id, for tests and dev inspection.
func (r *ActiveGameRepository) Get(id string) (activegame.Snapshot, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return activegame.Snapshot{}, false
	}
	return cloneSnapshot(item), true
}

// Len returns the total number of stored snapshots, active or not.
func (r *ActiveGameRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

func cloneSnapshot(item activegame.Snapshot) activegame.Snapshot {
	copied := item
	copied.Pitch.Players = append([]activegame.PlayerState(nil), item.Pitch.Players...)
	copied.Pitch.PlanEvents = append([]activegame.EventState(nil), item.Pitch.PlanEvents...)
	return copied
}
