package localstore

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/activegame"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/matchclock"
)

func newTestBoltStore(t *testing.T) *BoltStore {
	t.Helper()

	store, err := NewBoltStore(filepath.Join(t.TempDir(), "pitchboard.db"))
	if err != nil {
		t.Fatalf("open bolt store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestBoltStore_ClockRoundTrip(t *testing.T) {
	t.Parallel()

	store := newTestBoltStore(t)
	anchor := time.Date(2026, 4, 12, 10, 0, 0, 0, time.UTC)
	saved := matchclock.State{
		ElapsedSeconds: 720,
		Running:        true,
		Half:           1,
		MinutesPerHalf: 25,
		AnchorAt:       anchor,
	}

	if err := store.SaveClock("tigers-u12", saved); err != nil {
		t.Fatalf("save clock: %v", err)
	}

	loaded, ok, err := store.LoadClock("tigers-u12")
	if err != nil {
		t.Fatalf("load clock: %v", err)
	}
	if !ok {
		t.Fatalf("expected persisted clock")
	}
	if loaded.ElapsedSeconds != 720 || !loaded.Running || loaded.Half != 1 || loaded.MinutesPerHalf != 25 {
		t.Fatalf("unexpected clock state: %+v", loaded)
	}
	if !loaded.AnchorAt.Equal(anchor) {
		t.Fatalf("unexpected anchor: %s", loaded.AnchorAt)
	}
}

func TestBoltStore_LoadClockMissingTeam(t *testing.T) {
	t.Parallel()

	store := newTestBoltStore(t)
	if _, ok, err := store.LoadClock("unknown"); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%t err=%v", ok, err)
	}
}

func TestBoltStore_PitchRoundTripAndDelete(t *testing.T) {
	t.Parallel()

	store := newTestBoltStore(t)
	position := "GK"
	state := activegame.PitchState{
		SchemaVersion: activegame.SchemaVersion,
		Players: []activegame.PlayerState{
			{ID: "p1", Name: "Keeper", EligiblePositions: []string{"GK"}, PitchPosition: &position},
			{ID: "p2", Name: "Sub", EligiblePositions: []string{}},
		},
		PlanEvents: []activegame.EventState{
			{ID: "e1", OutgoingID: "p1", IncomingID: "p2", TriggerSeconds: 600, Half: 1, Status: "SCHEDULED"},
		},
		AccruedThrough: 540,
		PlanActive:     true,
		LinkedEventID:  "evt-42",
	}

	if err := store.SavePitch("tigers-u12", state); err != nil {
		t.Fatalf("save pitch: %v", err)
	}

	loaded, ok, err := store.LoadPitch("tigers-u12")
	if err != nil || !ok {
		t.Fatalf("load pitch: ok=%t err=%v", ok, err)
	}
	if len(loaded.Players) != 2 || loaded.Players[0].PitchPosition == nil || *loaded.Players[0].PitchPosition != "GK" {
		t.Fatalf("unexpected players: %+v", loaded.Players)
	}
	if loaded.LinkedEventID != "evt-42" || !loaded.PlanActive || loaded.AccruedThrough != 540 {
		t.Fatalf("unexpected pitch state: %+v", loaded)
	}

	if err := store.DeleteTeam("tigers-u12"); err != nil {
		t.Fatalf("delete team: %v", err)
	}
	if _, ok, _ := store.LoadPitch("tigers-u12"); ok {
		t.Fatalf("pitch state survived delete")
	}
	if _, ok, _ := store.LoadClock("tigers-u12"); ok {
		t.Fatalf("clock state survived delete")
	}
}

func TestBoltStore_SurfacesUnsupportedSchemaVersion(t *testing.T) {
	t.Parallel()

	store := newTestBoltStore(t)
	state := activegame.PitchState{SchemaVersion: activegame.SchemaVersion + 1}

	if err := store.SavePitch("tigers-u12", state); err != nil {
		t.Fatalf("save pitch: %v", err)
	}

	// The raw payload comes back so the caller can see the version mismatch
	// and clear the record.
	loaded, ok, err := store.LoadPitch("tigers-u12")
	if err != nil || !ok {
		t.Fatalf("load pitch: ok=%t err=%v", ok, err)
	}
	if loaded.Supported() {
		t.Fatalf("version %d must not read as supported", loaded.SchemaVersion)
	}

	if err := store.DeleteTeam("tigers-u12"); err != nil {
		t.Fatalf("delete team: %v", err)
	}
	if _, ok, _ := store.LoadPitch("tigers-u12"); ok {
		t.Fatalf("pitch state survived delete")
	}
}
