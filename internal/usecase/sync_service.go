package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/activegame"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/platform/logging"
)

// SnapshotSource produces the current session state as a snapshot. The
// owner, team, timer and pitch fields must be set; the sync service fills
// in id, active flag and timestamp. SyncEligible gates pushing: the shared
// record only stays active while the clock runs and a substitution plan is
// in effect.
type SnapshotSource interface {
	Snapshot() activegame.Snapshot
	SyncEligible() bool
}

// SyncService pushes the session state to the shared active-game store on a
// fixed period. Sync is fire-and-forget: a failed push is logged and the
// next period retries with fresh state, so the shared record is eventually
// consistent and the pitch-side session never blocks on it.
type SyncService struct {
	repo     activegame.Repository
	source   SnapshotSource
	clock    clockwork.Clock
	interval time.Duration
	logger   *logging.Logger

	mu           sync.Mutex
	rememberedID string
	cancel       context.CancelFunc
	done         chan struct{}
}

func NewSyncService(repo activegame.Repository, source SnapshotSource, clock clockwork.Clock, interval time.Duration, logger *logging.Logger) *SyncService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SyncService{
		repo:     repo,
		source:   source,
		clock:    clock,
		interval: interval,
		logger:   logger,
	}
}

// Adopt seeds the remembered snapshot id, typically from discovery when the
// session attaches to an already-live game.
func (s *SyncService) Adopt(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rememberedID = id
}

// RememberedID returns the shared snapshot id currently being maintained,
// empty when none has been established yet.
func (s *SyncService) RememberedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rememberedID
}

// Start launches the periodic sync loop. The first push happens
// immediately.
func (s *SyncService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return fmt.Errorf("%w: sync loop already running", ErrInvalidInput)
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.run(ctx)
	}()
	return nil
}

// Stop cancels the loop and waits for it to exit. Safe to call when the
// loop was never started.
func (s *SyncService) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *SyncService) run(ctx context.Context) {
	if err := s.SyncOnce(ctx); err != nil {
		s.logger.WarnContext(ctx, "initial snapshot sync failed", "error", err)
	}

	ticker := s.clock.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := s.SyncOnce(ctx); err != nil {
				s.logger.WarnContext(ctx, "snapshot sync failed", "error", err)
			}
		}
	}
}

// SyncOnce pushes the current state once: adopting an existing active
// snapshot for the (user, team) pair when no id is remembered, creating one
// when none exists, and overwriting the remembered one otherwise. A
// remembered id that no longer resolves is forgotten and the snapshot
// recreated in the same pass. When the source reports ineligible, the
// remembered snapshot is soft-deactivated instead.
func (s *SyncService) SyncOnce(ctx context.Context) error {
	if !s.source.SyncEligible() {
		return s.Deactivate(ctx)
	}

	snapshot := s.source.Snapshot()
	snapshot.IsActive = true
	snapshot.UpdatedAt = s.clock.Now()

	s.mu.Lock()
	id := s.rememberedID
	s.mu.Unlock()

	if id == "" {
		existing, found, err := s.repo.FindActiveByUserAndTeam(ctx, snapshot.UserID, snapshot.TeamID)
		if err != nil {
			return fmt.Errorf("find active snapshot: %w", err)
		}
		if found {
			id = existing.ID
			s.logger.DebugContext(ctx, "adopted existing active snapshot", "snapshot_id", id, "team_id", snapshot.TeamID)
		}
	}

	if id == "" {
		return s.create(ctx, snapshot)
	}

	snapshot.ID = id
	if err := s.repo.Update(ctx, snapshot); err != nil {
		if errors.Is(err, activegame.ErrSnapshotNotFound) {
			s.logger.InfoContext(ctx, "remembered snapshot gone, recreating", "snapshot_id", id)
			s.Adopt("")
			snapshot.ID = ""
			return s.create(ctx, snapshot)
		}
		return fmt.Errorf("update snapshot %s: %w", id, err)
	}
	s.Adopt(id)
	return nil
}

func (s *SyncService) create(ctx context.Context, snapshot activegame.Snapshot) error {
	created, err := s.repo.Create(ctx, snapshot)
	if err != nil {
		return fmt.Errorf("create snapshot: %w", err)
	}
	s.Adopt(created)
	s.logger.InfoContext(ctx, "active snapshot created", "snapshot_id", created, "team_id", snapshot.TeamID)
	return nil
}

// Deactivate performs the end-of-session soft delete of the remembered
// snapshot. Best effort: the reconcile sweep catches anything missed here.
func (s *SyncService) Deactivate(ctx context.Context) error {
	s.mu.Lock()
	id := s.rememberedID
	s.rememberedID = ""
	s.mu.Unlock()

	if id == "" {
		return nil
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return fmt.Errorf("deactivate snapshot %s: %w", id, err)
	}
	s.logger.InfoContext(ctx, "active snapshot deactivated", "snapshot_id", id)
	return nil
}
