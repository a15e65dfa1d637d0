package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/activegame"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/pitch"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/subplan"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/infrastructure/localstore"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/platform/cache"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/platform/logging"
)

// CountdownListener receives the due and upcoming batches once per
// countdown period. Display only: batch status is driven by the clock
// comparison, not by this callback firing.
type CountdownListener func(due, upcoming []BatchView)

// Session is one live pitch-board for one team: the clock, the roster and
// substitution plan, the shared-store sync loop, and the countdown ticker.
// Device-local state is persisted on every change so a crash mid-match
// resumes where it left off.
type Session struct {
	teamID string
	userID string

	clockSvc *ClockService
	subs     *SubstitutionService
	sync     *SyncService
	store    localstore.Store
	wall     clockwork.Clock
	logger   *logging.Logger

	countdownInterval time.Duration

	mu            sync.Mutex
	linkedEventID string
	listener      CountdownListener
	closed        bool
	cancel        context.CancelFunc
	done          chan struct{}
}

// TeamID returns the owning team.
func (s *Session) TeamID() string { return s.teamID }

// UserID returns the session owner.
func (s *Session) UserID() string { return s.userID }

// Clock returns the session's game clock.
func (s *Session) Clock() *ClockService { return s.clockSvc }

// Substitutions returns the session's substitution engine.
func (s *Session) Substitutions() *SubstitutionService { return s.subs }

// LinkedEventID returns the external match event this session is attached
// to, empty when unattached.
func (s *Session) LinkedEventID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linkedEventID
}

// AttachEvent links the session to an external match event. The next sync
// publishes the link, making it discoverable from other devices.
func (s *Session) AttachEvent(eventID string) {
	s.mu.Lock()
	s.linkedEventID = eventID
	s.mu.Unlock()
	s.persistPitch()
}

// SetCountdownListener installs the display callback. Passing nil silences
// the countdown without stopping the ticker.
func (s *Session) SetCountdownListener(listener CountdownListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listener = listener
}

// OverridePitch replaces the roster wholesale. This is the admin escape
// hatch: computed options are advisory and never block a manual fix of the
// board.
func (s *Session) OverridePitch(ctx context.Context, players []pitch.Player) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("%w: team %s", ErrSessionClosed, s.teamID)
	}
	s.mu.Unlock()

	replacement := pitch.NewRoster(players)
	if err := replacement.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	// Incoming SecondsPlayed already covers everything up to now; seed the
	// watermark so the next accrual only credits time from this point on.
	replacement.SetAccruedThrough(s.clockSvc.Elapsed())
	s.subs.Roster().Replace(replacement)
	s.logger.InfoContext(ctx, "pitch state overridden", "team_id", s.teamID, "players", len(players))
	s.persistPitch()
	return nil
}

// Snapshot builds the shared-store payload from current session state.
func (s *Session) Snapshot() activegame.Snapshot {
	return activegame.Snapshot{
		TeamID: s.teamID,
		UserID: s.userID,
		Timer:  activegame.NewTimerState(s.clockSvc.State()),
		Pitch:  activegame.NewPitchState(s.subs.Roster(), s.subs.Plan(), s.LinkedEventID()),
	}
}

// SyncEligible reports whether the shared record should be kept active:
// only while the clock runs and a substitution plan is in effect.
func (s *Session) SyncEligible() bool {
	return s.clockSvc.Running() && s.subs.PlanActive()
}

// ForceSync pushes the current state to the shared store immediately
// instead of waiting for the next period.
func (s *Session) ForceSync(ctx context.Context) error {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return fmt.Errorf("%w: team %s", ErrSessionClosed, s.teamID)
	}
	return s.sync.SyncOnce(ctx)
}

func (s *Session) persistPitch() {
	if s.store == nil {
		return
	}
	state := activegame.NewPitchState(s.subs.Roster(), s.subs.Plan(), s.LinkedEventID())
	if err := s.store.SavePitch(s.teamID, state); err != nil {
		s.logger.Warn("persist pitch state failed", "team_id", s.teamID, "error", err)
	}
}

func (s *Session) start() {
	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancel = cancel
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		s.runCountdown(ctx)
	}()
}

func (s *Session) runCountdown(ctx context.Context) {
	ticker := s.wall.NewTicker(s.countdownInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			s.mu.Lock()
			listener := s.listener
			s.mu.Unlock()
			if listener == nil {
				continue
			}
			listener(s.subs.DueBatches(ctx), s.subs.UpcomingBatches(ctx))
		}
	}
}

// Close tears the session down: both periodic timers are cancelled, one
// final deactivation of the shared snapshot is attempted, and the session
// proceeds regardless of whether that write lands. Idempotent.
func (s *Session) Close(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}
	s.sync.Stop()

	if err := s.sync.Deactivate(ctx); err != nil {
		s.logger.WarnContext(ctx, "final snapshot deactivation failed", "team_id", s.teamID, "error", err)
	}
	s.persistPitch()
	s.logger.InfoContext(ctx, "session closed", "team_id", s.teamID)
	return nil
}

// SessionService opens and tracks live sessions, one per team per process.
type SessionService struct {
	snapshots activegame.Repository
	discovery *DiscoveryService
	store     localstore.Store
	wall      clockwork.Clock
	logger    *logging.Logger

	minutesPerHalf    int
	syncInterval      time.Duration
	countdownInterval time.Duration
	playerCacheTTL    time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// SessionConfig carries the per-session tunables.
type SessionConfig struct {
	MinutesPerHalf    int
	SyncInterval      time.Duration
	CountdownInterval time.Duration
	PlayerCacheTTL    time.Duration
}

func NewSessionService(snapshots activegame.Repository, discovery *DiscoveryService, store localstore.Store, wall clockwork.Clock, cfg SessionConfig, logger *logging.Logger) *SessionService {
	if wall == nil {
		wall = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.MinutesPerHalf <= 0 {
		cfg.MinutesPerHalf = 25
	}
	if cfg.SyncInterval <= 0 {
		cfg.SyncInterval = 10 * time.Second
	}
	if cfg.CountdownInterval <= 0 {
		cfg.CountdownInterval = time.Second
	}
	return &SessionService{
		snapshots:         snapshots,
		discovery:         discovery,
		store:             store,
		wall:              wall,
		logger:            logger,
		minutesPerHalf:    cfg.MinutesPerHalf,
		syncInterval:      cfg.SyncInterval,
		countdownInterval: cfg.CountdownInterval,
		playerCacheTTL:    cfg.PlayerCacheTTL,
		sessions:          make(map[string]*Session),
	}
}

// Open starts (or returns the already-open) session for the team. Local
// device state is restored first; when none exists the team's live shared
// snapshot is adopted, so a second device opening mid-match picks up the
// game in progress. Discovery then auto-attaches the session to a nearby
// match event if it is not linked yet.
func (s *SessionService) Open(ctx context.Context, userID, teamID string) (*Session, error) {
	if userID == "" || teamID == "" {
		return nil, fmt.Errorf("%w: user id and team id are required", ErrInvalidInput)
	}

	s.mu.Lock()
	if existing, ok := s.sessions[teamID]; ok {
		s.mu.Unlock()
		return existing, nil
	}
	s.mu.Unlock()

	clockSvc, err := NewClockService(teamID, s.minutesPerHalf, s.store, s.logger)
	if err != nil {
		return nil, err
	}

	roster, plan, linkedEventID := s.restorePitch(ctx, teamID)

	session := &Session{
		teamID:            teamID,
		userID:            userID,
		clockSvc:          clockSvc,
		store:             s.store,
		wall:              s.wall,
		logger:            s.logger,
		countdownInterval: s.countdownInterval,
		linkedEventID:     linkedEventID,
	}
	session.subs = NewSubstitutionService(roster, plan, clockSvc, cache.NewStore(s.playerCacheTTL), s.logger)
	session.subs.SetOnChange(session.persistPitch)
	session.sync = NewSyncService(s.snapshots, session, s.wall, s.syncInterval, s.logger)

	if linkedEventID == "" && s.discovery != nil {
		if eventID, derr := s.discovery.FindNearbyGameEvent(ctx, teamID); derr != nil {
			s.logger.WarnContext(ctx, "discovery failed on session open", "team_id", teamID, "error", derr)
		} else if eventID != "" {
			session.linkedEventID = eventID
		}
	}

	s.mu.Lock()
	if existing, ok := s.sessions[teamID]; ok {
		s.mu.Unlock()
		return existing, nil
	}
	s.sessions[teamID] = session
	s.mu.Unlock()

	session.start()
	if err := session.sync.Start(context.Background()); err != nil {
		s.logger.WarnContext(ctx, "sync loop start failed", "team_id", teamID, "error", err)
	}

	s.logger.InfoContext(ctx, "session opened",
		"team_id", teamID, "user_id", userID, "linked_event_id", session.LinkedEventID())
	return session, nil
}

// restorePitch loads roster and plan state: device-local first, then the
// team's live shared snapshot, then empty.
func (s *SessionService) restorePitch(ctx context.Context, teamID string) (*pitch.Roster, subplan.Plan, string) {
	if s.store != nil {
		state, ok, err := s.store.LoadPitch(teamID)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "load local pitch state failed", "team_id", teamID, "error", err)
		case ok && !state.Supported():
			s.logger.WarnContext(ctx, "discarding local pitch state with unsupported schema",
				"team_id", teamID, "schema_version", state.SchemaVersion)
			if derr := s.store.DeleteTeam(teamID); derr != nil {
				s.logger.WarnContext(ctx, "clear stale local state failed", "team_id", teamID, "error", derr)
			}
		case ok:
			return state.Roster(), state.Plan(), state.LinkedEventID
		}
	}

	if s.snapshots != nil {
		snapshot, found, err := s.snapshots.FindActiveByTeam(ctx, teamID)
		if err != nil {
			s.logger.WarnContext(ctx, "read shared snapshot failed", "team_id", teamID, "error", err)
		} else if found {
			s.logger.InfoContext(ctx, "adopted shared pitch state", "team_id", teamID, "snapshot_id", snapshot.ID)
			return snapshot.Pitch.Roster(), snapshot.Pitch.Plan(), snapshot.Pitch.LinkedEventID
		}
	}

	return pitch.NewRoster(nil), subplan.Plan{}, ""
}

// Get returns the open session for the team.
func (s *SessionService) Get(teamID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[teamID]
	if !ok {
		return nil, fmt.Errorf("%w: no open session for team %s", ErrNotFound, teamID)
	}
	return session, nil
}

// Close tears down the team's session. Closing an unknown team is an error
// so callers can tell a typo from a successful teardown.
func (s *SessionService) Close(ctx context.Context, teamID string) error {
	s.mu.Lock()
	session, ok := s.sessions[teamID]
	delete(s.sessions, teamID)
	s.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: no open session for team %s", ErrNotFound, teamID)
	}
	return session.Close(ctx)
}

// CloseAll tears down every open session, for process shutdown.
func (s *SessionService) CloseAll(ctx context.Context) {
	s.mu.Lock()
	sessions := make([]*Session, 0, len(s.sessions))
	for _, session := range s.sessions {
		sessions = append(sessions, session)
	}
	s.sessions = make(map[string]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		if err := session.Close(ctx); err != nil {
			s.logger.WarnContext(ctx, "session close failed", "team_id", session.TeamID(), "error", err)
		}
	}
}
