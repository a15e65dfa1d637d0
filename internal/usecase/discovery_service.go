package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/activegame"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/schedule"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/platform/cache"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/platform/logging"
)

const (
	discoveryLookBehind = 3 * time.Hour
	discoveryLookAhead  = time.Hour
	discoveryCacheTTL   = 10 * time.Second
)

// DiscoveryService resolves which externally scheduled match a pitch-board
// session belongs to. Pure read path with no side effects, so callers may
// hit it on every app open.
type DiscoveryService struct {
	snapshots activegame.Repository
	events    schedule.Repository
	clock     clockwork.Clock
	logger    *logging.Logger
	lookups   *cache.Store
}

func NewDiscoveryService(snapshots activegame.Repository, events schedule.Repository, clock clockwork.Clock, logger *logging.Logger) *DiscoveryService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DiscoveryService{
		snapshots: snapshots,
		events:    events,
		clock:     clock,
		logger:    logger,
		lookups:   cache.NewStore(discoveryCacheTTL),
	}
}

// FindNearbyGameEvent returns the external event id the team's session
// should attach to, or empty when none qualifies. An in-progress session
// always wins: a live active snapshot with a linked event beats anything on
// the calendar. Otherwise the earliest non-cancelled match starting within
// [now-3h, now+1h] is chosen, so a game up to three hours underway or about
// to start is still discoverable.
func (s *DiscoveryService) FindNearbyGameEvent(ctx context.Context, teamID string) (string, error) {
	if teamID == "" {
		return "", fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	// Several devices opening the same team's board at once collapse into
	// one lookup, and the answer is held briefly so refresh storms skip the
	// stores entirely.
	eventID, err := s.lookups.GetOrLoad(ctx, "discovery::"+teamID, func(ctx context.Context) (any, error) {
		id, lookupErr := s.findNearbyGameEvent(ctx, teamID)
		return id, lookupErr
	})
	if err != nil {
		return "", err
	}
	return eventID.(string), nil
}

func (s *DiscoveryService) findNearbyGameEvent(ctx context.Context, teamID string) (string, error) {
	snapshot, found, err := s.snapshots.FindActiveByTeam(ctx, teamID)
	if err != nil {
		return "", fmt.Errorf("read active snapshot: %w", err)
	}
	if found && snapshot.Pitch.LinkedEventID != "" {
		s.logger.DebugContext(ctx, "discovery resolved via active snapshot",
			"team_id", teamID, "event_id", snapshot.Pitch.LinkedEventID)
		return snapshot.Pitch.LinkedEventID, nil
	}

	now := s.clock.Now()
	candidates, err := s.events.ListByTeamBetween(ctx, teamID, now.Add(-discoveryLookBehind), now.Add(discoveryLookAhead))
	if err != nil {
		return "", fmt.Errorf("list scheduled events: %w", err)
	}
	for _, event := range candidates {
		if event.Cancelled || !event.IsMatch() {
			continue
		}
		s.logger.DebugContext(ctx, "discovery resolved via schedule",
			"team_id", teamID, "event_id", event.ID, "starts_at", event.StartsAt)
		return event.ID, nil
	}
	return "", nil
}

// ActiveSnapshot returns the team's current active snapshot for read-only
// display on a second device.
func (s *DiscoveryService) ActiveSnapshot(ctx context.Context, teamID string) (activegame.Snapshot, error) {
	if teamID == "" {
		return activegame.Snapshot{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}
	snapshot, found, err := s.snapshots.FindActiveByTeam(ctx, teamID)
	if err != nil {
		return activegame.Snapshot{}, fmt.Errorf("read active snapshot: %w", err)
	}
	if !found {
		return activegame.Snapshot{}, fmt.Errorf("%w: no active game for team %s", ErrNotFound, teamID)
	}
	return snapshot, nil
}
