package activegame

import (
	"context"
	"errors"
	"time"
)

// ErrSnapshotNotFound marks writes against a snapshot id that no longer
// resolves. The sync service treats it as "forget the id and recreate";
// any other write failure keeps the id so the next period retries.
var ErrSnapshotNotFound = errors.New("active game snapshot not found")

// Repository exposes the shared active-game store.
type Repository interface {
	// FindActiveByUserAndTeam returns the active snapshot for the owning
	// (user, team) pair, most recently updated first when duplicates exist.
	FindActiveByUserAndTeam(ctx context.Context, userID, teamID string) (Snapshot, bool, error)
	// FindActiveByTeam returns the most recently updated active snapshot
	// for the team regardless of owner.
	FindActiveByTeam(ctx context.Context, teamID string) (Snapshot, bool, error)
	// Create stores a new snapshot and returns its id.
	Create(ctx context.Context, snapshot Snapshot) (string, error)
	// Update overwrites the snapshot with the given id. Returns
	// ErrSnapshotNotFound when the id no longer resolves.
	Update(ctx context.Context, snapshot Snapshot) error
	// Deactivate clears the active flag, keeping the record for history.
	// Deactivating an unknown or already-inactive id is not an error.
	Deactivate(ctx context.Context, id string) error
	// ListActiveUpdatedBefore returns every active snapshot whose last
	// update is older than the cutoff.
	ListActiveUpdatedBefore(ctx context.Context, cutoff time.Time) ([]Snapshot, error)
}
