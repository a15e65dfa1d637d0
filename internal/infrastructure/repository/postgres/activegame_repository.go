package postgres

import (
	"context"
	"fmt"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/activegame"
	qb "github.com/icpchainapps-hash/ignite-pitchboard/internal/platform/querybuilder"
)

const activeGameTable = "active_game_snapshots"

type ActiveGameRepository struct {
	db *sqlx.DB
}

func NewActiveGameRepository(db *sqlx.DB) *ActiveGameRepository {
	return &ActiveGameRepository{db: db}
}

func activeGameSelectBuilder() *qb.SelectBuilder {
	return qb.Select("id", "team_id", "user_id", "timer_state", "pitch_state", "is_active", "updated_at").
		From(activeGameTable)
}

func (r *ActiveGameRepository) FindActiveByUserAndTeam(ctx context.Context, userID, teamID string) (activegame.Snapshot, bool, error) {
	query, args, err := activeGameSelectBuilder().
		Where(
			qb.Eq("user_id", userID),
			qb.Eq("team_id", teamID),
			qb.IsTrue("is_active"),
		).
		OrderBy("updated_at DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return activegame.Snapshot{}, false, fmt.Errorf("build find active snapshot query: %w", err)
	}

	return r.findOne(ctx, query, args)
}

func (r *ActiveGameRepository) FindActiveByTeam(ctx context.Context, teamID string) (activegame.Snapshot, bool, error) {
	query, args, err := activeGameSelectBuilder().
		Where(
			qb.Eq("team_id", teamID),
			qb.IsTrue("is_active"),
		).
		OrderBy("updated_at DESC").
		Limit(1).
		ToSQL()
	if err != nil {
		return activegame.Snapshot{}, false, fmt.Errorf("build find active team snapshot query: %w", err)
	}

	return r.findOne(ctx, query, args)
}

func (r *ActiveGameRepository) findOne(ctx context.Context, query string, args []any) (activegame.Snapshot, bool, error) {
	var row activeGameTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return activegame.Snapshot{}, false, nil
		}
		return activegame.Snapshot{}, false, crerr.Wrap(err, "get active snapshot")
	}

	snapshot, err := snapshotFromRow(row)
	if err != nil {
		if crerr.Is(err, activegame.ErrSnapshotNotFound) {
			return activegame.Snapshot{}, false, nil
		}
		return activegame.Snapshot{}, false, err
	}
	return snapshot, true, nil
}

func (r *ActiveGameRepository) Create(ctx context.Context, snapshot activegame.Snapshot) (string, error) {
	if err := snapshot.Validate(); err != nil {
		return "", err
	}
	timer, pitch, err := snapshotBlobs(snapshot)
	if err != nil {
		return "", err
	}

	query, args, err := qb.InsertInto(activeGameTable).
		Columns("team_id", "user_id", "timer_state", "pitch_state", "is_active", "updated_at").
		Values(snapshot.TeamID, snapshot.UserID, timer, pitch, snapshot.IsActive, time.Now().UTC()).
		Suffix("RETURNING id").
		ToSQL()
	if err != nil {
		return "", fmt.Errorf("build create snapshot query: %w", err)
	}

	var id string
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		return "", crerr.Wrap(err, "create active snapshot")
	}
	return id, nil
}

func (r *ActiveGameRepository) Update(ctx context.Context, snapshot activegame.Snapshot) error {
	if err := snapshot.Validate(); err != nil {
		return err
	}
	timer, pitch, err := snapshotBlobs(snapshot)
	if err != nil {
		return err
	}

	query, args, err := qb.Update(activeGameTable).
		Set("timer_state", timer).
		Set("pitch_state", pitch).
		Set("is_active", snapshot.IsActive).
		Set("updated_at", time.Now().UTC()).
		Where(qb.Eq("id", snapshot.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build update snapshot query: %w", err)
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return crerr.Wrap(err, "update active snapshot")
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return crerr.Wrap(err, "update active snapshot rows affected")
	}
	if affected == 0 {
		return crerr.Wrapf(activegame.ErrSnapshotNotFound, "update snapshot %s", snapshot.ID)
	}
	return nil
}

func (r *ActiveGameRepository) Deactivate(ctx context.Context, id string) error {
	query, args, err := qb.Update(activeGameTable).
		Set("is_active", false).
		Set("updated_at", time.Now().UTC()).
		Where(qb.Eq("id", id)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build deactivate snapshot query: %w", err)
	}

	// Zero rows affected is fine: deactivation is idempotent and the
	// record may already be gone or inactive.
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return crerr.Wrap(err, "deactivate active snapshot")
	}
	return nil
}

func (r *ActiveGameRepository) ListActiveUpdatedBefore(ctx context.Context, cutoff time.Time) ([]activegame.Snapshot, error) {
	query, args, err := activeGameSelectBuilder().
		Where(
			qb.IsTrue("is_active"),
			qb.Lt("updated_at", cutoff),
		).
		OrderBy("updated_at ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list stale snapshots query: %w", err)
	}

	var rows []activeGameTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, crerr.Wrap(err, "list stale active snapshots")
	}

	out := make([]activegame.Snapshot, 0, len(rows))
	for _, row := range rows {
		snapshot, err := snapshotFromRow(row)
		if err != nil {
			if crerr.Is(err, activegame.ErrSnapshotNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, snapshot)
	}
	return out, nil
}
