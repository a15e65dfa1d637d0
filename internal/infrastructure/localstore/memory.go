package localstore

import (
	"sync"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/activegame"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/matchclock"
)

// MemoryStore is the in-process Store used by tests and the memory-backed
// dev mode.
type MemoryStore struct {
	mu     sync.RWMutex
	clocks map[string]matchclock.State
	pitch  map[string]activegame.PitchState
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clocks: make(map[string]matchclock.State),
		pitch:  make(map[string]activegame.PitchState),
	}
}

func (s *MemoryStore) SaveClock(teamID string, state matchclock.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clocks[teamID] = state
	return nil
}

func (s *MemoryStore) LoadClock(teamID string) (matchclock.State, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.clocks[teamID]
	return state, ok, nil
}

func (s *MemoryStore) SavePitch(teamID string, state activegame.PitchState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := state
	copied.Players = append([]activegame.PlayerState(nil), state.Players...)
	copied.PlanEvents = append([]activegame.EventState(nil), state.PlanEvents...)
	s.pitch[teamID] = copied
	return nil
}

func (s *MemoryStore) LoadPitch(teamID string) (activegame.PitchState, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.pitch[teamID]
	if !ok {
		return activegame.PitchState{}, false, nil
	}
	copied := state
	copied.Players = append([]activegame.PlayerState(nil), state.Players...)
	copied.PlanEvents = append([]activegame.EventState(nil), state.PlanEvents...)
	return copied, true, nil
}

func (s *MemoryStore) DeleteTeam(teamID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clocks, teamID)
	delete(s.pitch, teamID)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}
