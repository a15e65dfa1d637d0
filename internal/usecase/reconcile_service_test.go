package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/activegame"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/infrastructure/repository/memory"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/platform/logging"
)

// seedActiveSnapshot creates an active snapshot stamped at the given time.
func seedActiveSnapshot(t *testing.T, repo *memory.ActiveGameRepository, teamID, userID string, at time.Time) string {
	t.Helper()
	repo.SetNow(func() time.Time { return at })
	id, err := repo.Create(context.Background(), activegame.Snapshot{
		TeamID:   teamID,
		UserID:   userID,
		IsActive: true,
		Timer:    activegame.TimerState{SchemaVersion: activegame.SchemaVersion, Half: 1, MinutesPerHalf: 25},
		Pitch:    activegame.PitchState{SchemaVersion: activegame.SchemaVersion},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	repo.SetNow(time.Now)
	return id
}

func TestReconcileSweepRetiresStaleSnapshots(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := memory.NewActiveGameRepository()
	now := time.Date(2025, 5, 10, 18, 0, 0, 0, time.UTC)
	fc := clockwork.NewFakeClockAt(now)

	staleID := seedActiveSnapshot(t, repo, "team-1", "user-1", now.Add(-3*time.Hour))
	freshID := seedActiveSnapshot(t, repo, "team-2", "user-2", now.Add(-5*time.Minute))

	svc := NewReconcileService(repo, fc, 2*time.Hour, 4, logging.NewNop())
	retired, err := svc.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if retired != 1 {
		t.Fatalf("retired = %d, want 1", retired)
	}

	stale, _ := repo.Get(staleID)
	if stale.IsActive {
		t.Fatal("stale snapshot still active")
	}
	fresh, _ := repo.Get(freshID)
	if !fresh.IsActive {
		t.Fatal("fresh snapshot was retired")
	}
}

func TestReconcileSweepEmpty(t *testing.T) {
	t.Parallel()

	svc := NewReconcileService(memory.NewActiveGameRepository(), clockwork.NewFakeClock(), time.Hour, 2, logging.NewNop())
	retired, err := svc.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if retired != 0 {
		t.Fatalf("retired = %d, want 0", retired)
	}
}
