package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/panjf2000/ants/v2"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/activegame"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/platform/logging"
)

// ReconcileService is the hygiene side of the relaxed consistency model: a
// session that died without its final deactivation write leaves an active
// snapshot behind forever. The sweep retires any active snapshot that has
// not been refreshed within the staleness window. It never merges or edits
// snapshot content.
type ReconcileService struct {
	repo       activegame.Repository
	clock      clockwork.Clock
	staleAfter time.Duration
	workers    int
	logger     *logging.Logger
}

func NewReconcileService(repo activegame.Repository, clock clockwork.Clock, staleAfter time.Duration, workers int, logger *logging.Logger) *ReconcileService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if staleAfter <= 0 {
		staleAfter = 2 * time.Hour
	}
	if workers <= 0 {
		workers = 4
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ReconcileService{
		repo:       repo,
		clock:      clock,
		staleAfter: staleAfter,
		workers:    workers,
		logger:     logger,
	}
}

// Sweep deactivates every active snapshot last updated before the staleness
// cutoff, fanned out across a worker pool. Returns the number retired.
// Individual failures are logged and skipped; the next sweep picks them up.
func (s *ReconcileService) Sweep(ctx context.Context) (int, error) {
	cutoff := s.clock.Now().Add(-s.staleAfter)
	stale, err := s.repo.ListActiveUpdatedBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("list stale snapshots: %w", err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return 0, fmt.Errorf("%w: reconcile pool: %v", ErrDependencyUnavailable, err)
	}
	defer pool.Release()

	var wg sync.WaitGroup
	var retired atomic.Int64
	for _, snapshot := range stale {
		snapshot := snapshot
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := s.repo.Deactivate(ctx, snapshot.ID); err != nil {
				s.logger.WarnContext(ctx, "stale snapshot deactivation failed",
					"snapshot_id", snapshot.ID, "error", err)
				return
			}
			retired.Add(1)
		})
		if submitErr != nil {
			wg.Done()
			s.logger.WarnContext(ctx, "reconcile submit failed",
				"snapshot_id", snapshot.ID, "error", submitErr)
		}
	}
	wg.Wait()

	count := int(retired.Load())
	s.logger.InfoContext(ctx, "reconcile sweep finished",
		"stale", len(stale), "retired", count, "cutoff", cutoff)
	return count, nil
}
