package usecase

import (
	"fmt"
	"sync"
	"time"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/matchclock"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/infrastructure/localstore"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/platform/logging"
)

// ClockService owns the game clock of one session. Elapsed time is always
// derived from the wall-clock anchor rather than accumulated by ticks, so
// the process being suspended between ticks costs nothing. Every mutation
// writes the full state to the local store before returning.
type ClockService struct {
	mu     sync.Mutex
	teamID string
	state  matchclock.State
	store  localstore.Store
	logger *logging.Logger
	now    func() time.Time
}

func NewClockService(teamID string, minutesPerHalf int, store localstore.Store, logger *logging.Logger) (*ClockService, error) {
	if teamID == "" {
		return nil, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}
	if minutesPerHalf <= 0 {
		return nil, fmt.Errorf("%w: minutes per half must be positive", ErrInvalidInput)
	}
	if logger == nil {
		logger = logging.Default()
	}

	svc := &ClockService{
		teamID: teamID,
		store:  store,
		logger: logger,
		now:    time.Now,
		state: matchclock.State{
			Half:           matchclock.FirstHalf,
			MinutesPerHalf: minutesPerHalf,
		},
	}

	if store != nil {
		persisted, ok, err := store.LoadClock(teamID)
		if err != nil {
			return nil, fmt.Errorf("load persisted clock: %w", err)
		}
		if ok {
			if err := persisted.Validate(); err != nil {
				logger.Warn("discarding invalid persisted clock", "team_id", teamID, "error", err)
			} else {
				svc.state = persisted
			}
		}
	}

	return svc, nil
}

// SetNow overrides the wall clock, for tests.
func (s *ClockService) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Start begins the match clock from zero in the first half.
func (s *ClockService) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.ElapsedSeconds = 0
	s.state.Half = matchclock.FirstHalf
	s.state.Running = true
	s.state.AnchorAt = s.now()
	return s.persist()
}

// Pause folds the running segment into stored elapsed time and stops.
func (s *ClockService) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Running {
		return nil
	}
	s.state.ElapsedSeconds = s.state.Elapsed(s.now())
	s.state.Running = false
	return s.persist()
}

// Resume re-anchors and continues from the stored elapsed time.
func (s *ClockService) Resume() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Running {
		return nil
	}
	s.state.Running = true
	s.state.AnchorAt = s.now()
	return s.persist()
}

// Tick is a no-op kept for callers wired to a periodic timer. Elapsed time
// is derived from the anchor, not advanced here.
func (s *ClockService) Tick() {}

// AdvanceHalf moves the clock into the second half, paused at the
// accumulated elapsed time.
func (s *ClockService) AdvanceHalf() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Half >= matchclock.SecondHalf {
		return fmt.Errorf("%w: match is already in the second half", ErrInvalidInput)
	}
	s.state.ElapsedSeconds = s.state.Elapsed(s.now())
	s.state.Running = false
	s.state.Half = matchclock.SecondHalf
	return s.persist()
}

// Elapsed returns the current true elapsed seconds.
func (s *ClockService) Elapsed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Elapsed(s.now())
}

// Running reports whether the clock is currently running.
func (s *ClockService) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Running
}

// Half returns the current half number.
func (s *ClockService) Half() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Half
}

// State returns a copy of the full clock state.
func (s *ClockService) State() matchclock.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *ClockService) persist() error {
	if s.store == nil {
		return nil
	}
	if err := s.store.SaveClock(s.teamID, s.state); err != nil {
		return fmt.Errorf("persist clock state: %w", err)
	}
	return nil
}
