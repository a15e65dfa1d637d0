package usecase

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/activegame"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/matchclock"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/pitch"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/schedule"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/subplan"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/infrastructure/localstore"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/infrastructure/repository/memory"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/platform/logging"
)

func newSessionService(store localstore.Store, snapshots *memory.ActiveGameRepository, discovery *DiscoveryService, wall clockwork.Clock) *SessionService {
	return NewSessionService(snapshots, discovery, store, wall, SessionConfig{
		MinutesPerHalf:    25,
		SyncInterval:      10 * time.Second,
		CountdownInterval: time.Second,
	}, logging.NewNop())
}

func TestSessionOpenRestoresLocalState(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := localstore.NewMemoryStore()

	saved := activegame.NewPitchState(testRoster(), subplan.Plan{
		Active: true,
		Events: []subplan.Event{
			{ID: "e1", OutgoingID: "p2", IncomingID: "p4", TriggerSeconds: 600, Half: 1, Status: subplan.StatusScheduled},
		},
	}, "evt-7")
	if err := store.SavePitch("team-1", saved); err != nil {
		t.Fatalf("SavePitch: %v", err)
	}

	svc := newSessionService(store, memory.NewActiveGameRepository(), nil, clockwork.NewFakeClock())
	session, err := svc.Open(ctx, "user-1", "team-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer svc.CloseAll(ctx)

	if got := len(session.Substitutions().Roster().Players()); got != 6 {
		t.Fatalf("restored players = %d, want 6", got)
	}
	if !session.Substitutions().PlanActive() {
		t.Fatal("restored plan should be active")
	}
	if session.LinkedEventID() != "evt-7" {
		t.Fatalf("linked event = %q, want evt-7", session.LinkedEventID())
	}

	// Reopening the same team returns the same session, not a second one.
	again, err := svc.Open(ctx, "user-1", "team-1")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if again != session {
		t.Fatal("reopen created a second session for the team")
	}
}

func TestSessionRestoreDoesNotRecreditPlayingTime(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := localstore.NewMemoryStore()

	// Mid-match state on disk: 900s elapsed, every starter already credited
	// with those 900s, and a batch due at the 600s mark still unconfirmed.
	if err := store.SaveClock("team-1", matchclock.State{
		ElapsedSeconds: 900,
		Half:           1,
		MinutesPerHalf: 25,
	}); err != nil {
		t.Fatalf("SaveClock: %v", err)
	}
	played := testRoster()
	played.AccrueThrough(900)
	saved := activegame.NewPitchState(played, subplan.Plan{
		Active: true,
		Events: []subplan.Event{
			{ID: "e1", OutgoingID: "p2", IncomingID: "p4", TriggerSeconds: 600, Half: 1, Status: subplan.StatusScheduled},
		},
	}, "")
	if err := store.SavePitch("team-1", saved); err != nil {
		t.Fatalf("SavePitch: %v", err)
	}

	svc := newSessionService(store, memory.NewActiveGameRepository(), nil, clockwork.NewFakeClock())
	session, err := svc.Open(ctx, "user-1", "team-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer svc.CloseAll(ctx)

	subs := session.Substitutions()
	if got := subs.Roster().AccruedThrough(); got != 900 {
		t.Fatalf("restored watermark = %d, want 900", got)
	}

	if err := subs.ConfirmBatch(ctx, subplan.BatchKey{TriggerSeconds: 600, Half: 1}); err != nil {
		t.Fatalf("ConfirmBatch: %v", err)
	}

	// Confirmation accrues up to the clock's 900s; the restored 900s must
	// not be credited a second time.
	keeper, _ := subs.Roster().ByID("p1")
	if keeper.SecondsPlayed != 900 {
		t.Fatalf("keeper seconds after restore+confirm = %d, want 900", keeper.SecondsPlayed)
	}
	outgoing, _ := subs.Roster().ByID("p2")
	if outgoing.SecondsPlayed != 900 {
		t.Fatalf("outgoing seconds = %d, want 900", outgoing.SecondsPlayed)
	}
	incoming, _ := subs.Roster().ByID("p4")
	if incoming.SecondsPlayed != 0 {
		t.Fatalf("incoming seconds = %d, want 0", incoming.SecondsPlayed)
	}
}

func TestSessionOpenDiscardsStaleLocalSchema(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := localstore.NewMemoryStore()

	stale := activegame.NewPitchState(testRoster(), subplan.Plan{Active: true}, "evt-old")
	stale.SchemaVersion = activegame.SchemaVersion - 1
	if err := store.SavePitch("team-1", stale); err != nil {
		t.Fatalf("SavePitch: %v", err)
	}

	svc := newSessionService(store, memory.NewActiveGameRepository(), nil, clockwork.NewFakeClock())
	session, err := svc.Open(ctx, "user-1", "team-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer svc.CloseAll(ctx)

	// The unreadable payload is not restored and its record is cleared.
	if session.LinkedEventID() != "" {
		t.Fatalf("linked event = %q, want none from a stale payload", session.LinkedEventID())
	}
	if got := len(session.Substitutions().Roster().Players()); got != 0 {
		t.Fatalf("restored players = %d, want 0", got)
	}
}

func TestSessionOverridePitchKeepsAccrualWatermark(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newSessionService(localstore.NewMemoryStore(), memory.NewActiveGameRepository(), nil, clockwork.NewFakeClock())
	session, err := svc.Open(ctx, "user-1", "team-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer svc.CloseAll(ctx)

	kickoff := time.Date(2025, 5, 10, 14, 0, 0, 0, time.UTC)
	clock := session.Clock()
	clock.SetNow(func() time.Time { return kickoff })
	if err := clock.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	clock.SetNow(func() time.Time { return kickoff.Add(600 * time.Second) })

	// A remote edit arrives carrying seconds already played; the elapsed
	// 600s must not be credited on top of them.
	if err := session.OverridePitch(ctx, []pitch.Player{
		{ID: "p1", Name: "Ava", PitchPosition: posOf("GK"), SecondsPlayed: 600},
	}); err != nil {
		t.Fatalf("OverridePitch: %v", err)
	}

	subs := session.Substitutions()
	if got := subs.Roster().AccruedThrough(); got < 600 {
		t.Fatalf("watermark after override = %d, want >= 600", got)
	}
	subs.Roster().AccrueThrough(clock.Elapsed())
	keeper, _ := subs.Roster().ByID("p1")
	if keeper.SecondsPlayed != 600 {
		t.Fatalf("keeper seconds after override = %d, want 600", keeper.SecondsPlayed)
	}
}

func TestSessionOpenAdoptsSharedSnapshot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	snapshots := memory.NewActiveGameRepository()

	shared := activegame.Snapshot{
		TeamID:   "team-1",
		UserID:   "coach-on-other-phone",
		IsActive: true,
		Timer:    activegame.TimerState{SchemaVersion: activegame.SchemaVersion, Half: 1, MinutesPerHalf: 25},
		Pitch:    activegame.NewPitchState(testRoster(), subplan.Plan{Active: true}, "evt-42"),
	}
	if _, err := snapshots.Create(ctx, shared); err != nil {
		t.Fatalf("Create: %v", err)
	}

	svc := newSessionService(localstore.NewMemoryStore(), snapshots, nil, clockwork.NewFakeClock())
	session, err := svc.Open(ctx, "user-1", "team-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer svc.CloseAll(ctx)

	if got := len(session.Substitutions().Roster().Players()); got != 6 {
		t.Fatalf("adopted players = %d, want 6", got)
	}
	if session.LinkedEventID() != "evt-42" {
		t.Fatalf("linked event = %q, want evt-42", session.LinkedEventID())
	}
}

func TestSessionOpenAutoAttachesViaDiscovery(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	snapshots := memory.NewActiveGameRepository()
	now := time.Date(2025, 5, 10, 14, 0, 0, 0, time.UTC)
	fc := clockwork.NewFakeClockAt(now)
	discovery := NewDiscoveryService(snapshots, memory.NewScheduleRepository([]schedule.MatchEvent{
		{ID: "evt-soon", TeamID: "team-1", StartsAt: now.Add(30 * time.Minute), Type: schedule.TypeMatch},
	}), fc, logging.NewNop())

	svc := newSessionService(localstore.NewMemoryStore(), snapshots, discovery, fc)
	session, err := svc.Open(ctx, "user-1", "team-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer svc.CloseAll(ctx)

	if session.LinkedEventID() != "evt-soon" {
		t.Fatalf("linked event = %q, want evt-soon", session.LinkedEventID())
	}
}

func TestSessionSyncEligibility(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	svc := newSessionService(localstore.NewMemoryStore(), memory.NewActiveGameRepository(), nil, clockwork.NewFakeClock())
	session, err := svc.Open(ctx, "user-1", "team-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer svc.CloseAll(ctx)

	if session.SyncEligible() {
		t.Fatal("fresh session should not be sync eligible")
	}

	if err := session.Clock().Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if session.SyncEligible() {
		t.Fatal("running clock without an active plan should not be eligible")
	}

	if err := session.Substitutions().SetPlan(ctx, subplan.Plan{Active: true}); err != nil {
		t.Fatalf("SetPlan: %v", err)
	}
	if !session.SyncEligible() {
		t.Fatal("running clock with an active plan should be eligible")
	}

	if err := session.Clock().Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if session.SyncEligible() {
		t.Fatal("paused clock should not be eligible")
	}
}

func TestSessionCloseDeactivatesSnapshot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	snapshots := memory.NewActiveGameRepository()
	svc := newSessionService(localstore.NewMemoryStore(), snapshots, nil, clockwork.NewFakeClock())

	session, err := svc.Open(ctx, "user-1", "team-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Make the session publish once so a shared record exists.
	if err := session.Clock().Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := session.Substitutions().SetPlan(ctx, subplan.Plan{Active: true}); err != nil {
		t.Fatalf("SetPlan: %v", err)
	}
	if err := session.sync.SyncOnce(ctx); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	id := session.sync.RememberedID()
	if id == "" {
		t.Fatal("no snapshot published")
	}

	if err := svc.Close(ctx, "team-1"); err != nil {
		t.Fatalf("Close: %v", err)
	}

	stored, ok := snapshots.Get(id)
	if !ok {
		t.Fatal("snapshot record should survive close")
	}
	if stored.IsActive {
		t.Fatal("snapshot should be deactivated on close")
	}

	if _, err := svc.Get("team-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after close error = %v, want ErrNotFound", err)
	}
	if err := svc.Close(ctx, "team-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Close error = %v, want ErrNotFound", err)
	}
	// Closing the session object again is harmless.
	if err := session.Close(ctx); err != nil {
		t.Fatalf("repeat session close: %v", err)
	}
}

func TestSessionCountdownListener(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	fc := clockwork.NewFakeClock()
	svc := newSessionService(localstore.NewMemoryStore(), memory.NewActiveGameRepository(), nil, fc)

	session, err := svc.Open(ctx, "user-1", "team-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer svc.CloseAll(ctx)

	var fired atomic.Int64
	session.SetCountdownListener(func(due, upcoming []BatchView) {
		fired.Add(1)
	})

	// Two tickers wait on the fake clock: countdown and sync.
	if err := fc.BlockUntilContext(ctx, 2); err != nil {
		t.Fatalf("BlockUntilContext: %v", err)
	}
	fc.Advance(time.Second)

	deadline := time.After(2 * time.Second)
	for fired.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("countdown listener never fired")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSessionOverridePitch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := localstore.NewMemoryStore()
	svc := newSessionService(store, memory.NewActiveGameRepository(), nil, clockwork.NewFakeClock())

	session, err := svc.Open(ctx, "user-1", "team-1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	players := []pitch.Player{
		{ID: "p1", Name: "Ava", PitchPosition: posOf("GK")},
		{ID: "p2", Name: "Ben", PitchPosition: posOf("ST")},
	}
	if err := session.OverridePitch(ctx, players); err != nil {
		t.Fatalf("OverridePitch: %v", err)
	}
	if got := len(session.Substitutions().Roster().OnPitch()); got != 2 {
		t.Fatalf("on pitch = %d, want 2", got)
	}

	// Persisted immediately: a restart sees the override.
	state, ok, err := store.LoadPitch("team-1")
	if err != nil || !ok {
		t.Fatalf("LoadPitch: ok=%v err=%v", ok, err)
	}
	if len(state.Players) != 2 {
		t.Fatalf("persisted players = %d, want 2", len(state.Players))
	}

	clash := []pitch.Player{
		{ID: "p1", Name: "Ava", PitchPosition: posOf("GK")},
		{ID: "p2", Name: "Ben", PitchPosition: posOf("GK")},
	}
	if err := session.OverridePitch(ctx, clash); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("double occupancy error = %v, want ErrInvalidInput", err)
	}

	if err := svc.Close(ctx, "team-1"); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := session.OverridePitch(ctx, players); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("override after close error = %v, want ErrSessionClosed", err)
	}
}
