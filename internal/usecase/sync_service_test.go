package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/mock"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/activegame"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/infrastructure/repository/memory"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/platform/logging"
)

// staticSource serves a fixed snapshot body.
type staticSource struct {
	snapshot   activegame.Snapshot
	ineligible bool
}

func (s staticSource) Snapshot() activegame.Snapshot {
	return s.snapshot
}

func (s staticSource) SyncEligible() bool {
	return !s.ineligible
}

func testSource() staticSource {
	return staticSource{snapshot: activegame.Snapshot{
		TeamID: "team-1",
		UserID: "user-1",
		Timer:  activegame.TimerState{SchemaVersion: activegame.SchemaVersion, Half: 1, MinutesPerHalf: 25},
		Pitch:  activegame.PitchState{SchemaVersion: activegame.SchemaVersion},
	}}
}

func TestSyncServiceCreatesThenUpdates(t *testing.T) {
	t.Parallel()

	repo := memory.NewActiveGameRepository()
	svc := NewSyncService(repo, testSource(), clockwork.NewFakeClock(), 10*time.Second, logging.NewNop())
	ctx := context.Background()

	if err := svc.SyncOnce(ctx); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	id := svc.RememberedID()
	if id == "" {
		t.Fatal("no snapshot id remembered after first sync")
	}
	if repo.Len() != 1 {
		t.Fatalf("snapshots = %d, want 1", repo.Len())
	}

	if err := svc.SyncOnce(ctx); err != nil {
		t.Fatalf("second SyncOnce: %v", err)
	}
	if svc.RememberedID() != id {
		t.Fatalf("remembered id changed from %s to %s", id, svc.RememberedID())
	}
	if repo.Len() != 1 {
		t.Fatalf("snapshots after update = %d, want 1", repo.Len())
	}
}

func TestSyncServiceAdoptsExistingSnapshot(t *testing.T) {
	t.Parallel()

	repo := memory.NewActiveGameRepository()
	ctx := context.Background()

	source := testSource()
	existing := source.snapshot
	existing.IsActive = true
	existing.UpdatedAt = time.Now()
	existingID, err := repo.Create(ctx, existing)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	svc := NewSyncService(repo, source, clockwork.NewFakeClock(), 10*time.Second, logging.NewNop())
	if err := svc.SyncOnce(ctx); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}

	if svc.RememberedID() != existingID {
		t.Fatalf("remembered id = %s, want adopted %s", svc.RememberedID(), existingID)
	}
	if repo.Len() != 1 {
		t.Fatalf("snapshots = %d, want 1 (no duplicate created)", repo.Len())
	}
}

func TestSyncServiceDeactivate(t *testing.T) {
	t.Parallel()

	repo := memory.NewActiveGameRepository()
	svc := NewSyncService(repo, testSource(), clockwork.NewFakeClock(), 10*time.Second, logging.NewNop())
	ctx := context.Background()

	if err := svc.SyncOnce(ctx); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	id := svc.RememberedID()

	if err := svc.Deactivate(ctx); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}
	if svc.RememberedID() != "" {
		t.Fatal("remembered id should be cleared after deactivation")
	}

	stored, ok := repo.Get(id)
	if !ok {
		t.Fatal("snapshot record should survive deactivation")
	}
	if stored.IsActive {
		t.Fatal("snapshot still active")
	}

	// Idempotent when nothing is remembered.
	if err := svc.Deactivate(ctx); err != nil {
		t.Fatalf("second Deactivate: %v", err)
	}
}

func TestSyncServicePeriodicLoop(t *testing.T) {
	t.Parallel()

	repo := memory.NewActiveGameRepository()
	fc := clockwork.NewFakeClock()
	svc := NewSyncService(repo, testSource(), fc, 10*time.Second, logging.NewNop())
	ctx := context.Background()

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer svc.Stop()

	// The loop syncs immediately, then once per period.
	if err := fc.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("BlockUntilContext: %v", err)
	}
	if svc.RememberedID() == "" {
		t.Fatal("no snapshot created by initial sync")
	}
	first, _ := repo.Get(svc.RememberedID())

	fc.Advance(10 * time.Second)
	if err := fc.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("BlockUntilContext: %v", err)
	}
	deadline := time.After(2 * time.Second)
	for {
		updated, _ := repo.Get(svc.RememberedID())
		if updated.UpdatedAt.After(first.UpdatedAt) {
			break
		}
		select {
		case <-deadline:
			t.Fatal("periodic sync did not refresh the snapshot")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestSyncServiceDeactivatesWhenIneligible(t *testing.T) {
	t.Parallel()

	repo := memory.NewActiveGameRepository()
	source := testSource()
	svc := NewSyncService(repo, source, clockwork.NewFakeClock(), 10*time.Second, logging.NewNop())
	ctx := context.Background()

	if err := svc.SyncOnce(ctx); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	id := svc.RememberedID()

	// Clock stopped or plan deactivated: the next pass retires the record.
	source.ineligible = true
	svc.source = source
	if err := svc.SyncOnce(ctx); err != nil {
		t.Fatalf("ineligible SyncOnce: %v", err)
	}
	if svc.RememberedID() != "" {
		t.Fatal("remembered id should be forgotten when ineligible")
	}
	stored, _ := repo.Get(id)
	if stored.IsActive {
		t.Fatal("snapshot should be deactivated when ineligible")
	}
}

// mockSnapshotRepo is a hand-rolled testify mock of the repository.
type mockSnapshotRepo struct {
	mock.Mock
}

func (m *mockSnapshotRepo) FindActiveByUserAndTeam(ctx context.Context, userID, teamID string) (activegame.Snapshot, bool, error) {
	args := m.Called(ctx, userID, teamID)
	return args.Get(0).(activegame.Snapshot), args.Bool(1), args.Error(2)
}

func (m *mockSnapshotRepo) FindActiveByTeam(ctx context.Context, teamID string) (activegame.Snapshot, bool, error) {
	args := m.Called(ctx, teamID)
	return args.Get(0).(activegame.Snapshot), args.Bool(1), args.Error(2)
}

func (m *mockSnapshotRepo) Create(ctx context.Context, snapshot activegame.Snapshot) (string, error) {
	args := m.Called(ctx, snapshot)
	return args.String(0), args.Error(1)
}

func (m *mockSnapshotRepo) Update(ctx context.Context, snapshot activegame.Snapshot) error {
	return m.Called(ctx, snapshot).Error(0)
}

func (m *mockSnapshotRepo) Deactivate(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockSnapshotRepo) ListActiveUpdatedBefore(ctx context.Context, cutoff time.Time) ([]activegame.Snapshot, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).([]activegame.Snapshot), args.Error(1)
}

func TestSyncServiceRecreatesWhenRememberedIDGone(t *testing.T) {
	t.Parallel()

	repo := new(mockSnapshotRepo)
	svc := NewSyncService(repo, testSource(), clockwork.NewFakeClock(), 10*time.Second, logging.NewNop())
	svc.Adopt("stale-id")
	ctx := context.Background()

	repo.On("Update", mock.Anything, mock.MatchedBy(func(s activegame.Snapshot) bool {
		return s.ID == "stale-id"
	})).Return(activegame.ErrSnapshotNotFound).Once()
	repo.On("Create", mock.Anything, mock.MatchedBy(func(s activegame.Snapshot) bool {
		return s.ID == "" && s.IsActive
	})).Return("fresh-id", nil).Once()

	if err := svc.SyncOnce(ctx); err != nil {
		t.Fatalf("SyncOnce: %v", err)
	}
	if svc.RememberedID() != "fresh-id" {
		t.Fatalf("remembered id = %s, want fresh-id", svc.RememberedID())
	}
	repo.AssertExpectations(t)
}
