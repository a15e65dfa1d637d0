package usecase

import (
	"errors"
	"testing"
	"time"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/matchclock"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/infrastructure/localstore"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/platform/logging"
)

// fakeWall is a settable wall clock for driving anchor arithmetic.
type fakeWall struct {
	at time.Time
}

func newFakeWall() *fakeWall {
	return &fakeWall{at: time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)}
}

func (f *fakeWall) Now() time.Time { return f.at }

func (f *fakeWall) Advance(d time.Duration) { f.at = f.at.Add(d) }

func newTestClock(t *testing.T, store localstore.Store) (*ClockService, *fakeWall) {
	t.Helper()
	svc, err := NewClockService("team-1", 25, store, logging.NewNop())
	if err != nil {
		t.Fatalf("NewClockService: %v", err)
	}
	wall := newFakeWall()
	svc.SetNow(wall.Now)
	return svc, wall
}

func TestClockServiceElapsedDerivedFromAnchor(t *testing.T) {
	t.Parallel()

	svc, wall := newTestClock(t, nil)
	if err := svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	wall.Advance(90 * time.Second)
	if got := svc.Elapsed(); got != 90 {
		t.Fatalf("elapsed = %d, want 90", got)
	}

	// A long gap with no ticks still reads correctly.
	wall.Advance(10 * time.Minute)
	if got := svc.Elapsed(); got != 690 {
		t.Fatalf("elapsed after gap = %d, want 690", got)
	}
}

func TestClockServicePauseFreezesElapsed(t *testing.T) {
	t.Parallel()

	svc, wall := newTestClock(t, nil)
	if err := svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	wall.Advance(120 * time.Second)
	if err := svc.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	wall.Advance(time.Hour)
	if got := svc.Elapsed(); got != 120 {
		t.Fatalf("elapsed while paused = %d, want 120", got)
	}

	if err := svc.Resume(); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	wall.Advance(30 * time.Second)
	if got := svc.Elapsed(); got != 150 {
		t.Fatalf("elapsed after resume = %d, want 150", got)
	}
}

func TestClockServicePauseResumeIdempotent(t *testing.T) {
	t.Parallel()

	svc, wall := newTestClock(t, nil)
	if err := svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	wall.Advance(10 * time.Second)

	if err := svc.Resume(); err != nil {
		t.Fatalf("Resume while running: %v", err)
	}
	if got := svc.Elapsed(); got != 10 {
		t.Fatalf("elapsed = %d, want 10", got)
	}

	if err := svc.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}
	if err := svc.Pause(); err != nil {
		t.Fatalf("second Pause: %v", err)
	}
	if got := svc.Elapsed(); got != 10 {
		t.Fatalf("elapsed = %d, want 10", got)
	}
}

func TestClockServiceAdvanceHalf(t *testing.T) {
	t.Parallel()

	svc, wall := newTestClock(t, nil)
	if err := svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	wall.Advance(25 * time.Minute)

	if err := svc.AdvanceHalf(); err != nil {
		t.Fatalf("AdvanceHalf: %v", err)
	}
	if got := svc.Half(); got != matchclock.SecondHalf {
		t.Fatalf("half = %d, want %d", got, matchclock.SecondHalf)
	}
	if svc.Running() {
		t.Fatal("clock should pause at halftime")
	}
	if got := svc.Elapsed(); got != 1500 {
		t.Fatalf("elapsed = %d, want 1500", got)
	}

	if err := svc.AdvanceHalf(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("second AdvanceHalf error = %v, want ErrInvalidInput", err)
	}
}

func TestClockServiceRestoresPersistedState(t *testing.T) {
	t.Parallel()

	store := localstore.NewMemoryStore()

	svc, wall := newTestClock(t, store)
	if err := svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	wall.Advance(200 * time.Second)
	if err := svc.Pause(); err != nil {
		t.Fatalf("Pause: %v", err)
	}

	// A fresh service over the same store picks up where the old one left
	// off, as after an app restart.
	restored, err := NewClockService("team-1", 25, store, logging.NewNop())
	if err != nil {
		t.Fatalf("NewClockService: %v", err)
	}
	restored.SetNow(wall.Now)

	if got := restored.Elapsed(); got != 200 {
		t.Fatalf("restored elapsed = %d, want 200", got)
	}
	if restored.Running() {
		t.Fatal("restored clock should be paused")
	}
}

func TestClockServiceRestoresRunningClockAcrossGap(t *testing.T) {
	t.Parallel()

	store := localstore.NewMemoryStore()

	svc, wall := newTestClock(t, store)
	if err := svc.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Process dies with the clock running; five minutes pass before the
	// replacement comes up. The anchor makes the gap count.
	wall.Advance(5 * time.Minute)

	restored, err := NewClockService("team-1", 25, store, logging.NewNop())
	if err != nil {
		t.Fatalf("NewClockService: %v", err)
	}
	restored.SetNow(wall.Now)

	if got := restored.Elapsed(); got != 300 {
		t.Fatalf("restored elapsed = %d, want 300", got)
	}
	if !restored.Running() {
		t.Fatal("restored clock should still be running")
	}
}

func TestClockServiceRejectsBadInput(t *testing.T) {
	t.Parallel()

	if _, err := NewClockService("", 25, nil, logging.NewNop()); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("empty team error = %v, want ErrInvalidInput", err)
	}
	if _, err := NewClockService("team-1", 0, nil, logging.NewNop()); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero half length error = %v, want ErrInvalidInput", err)
	}
}
