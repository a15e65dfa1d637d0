package postgres

import (
	"context"
	"fmt"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/jmoiron/sqlx"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/schedule"
	qb "github.com/icpchainapps-hash/ignite-pitchboard/internal/platform/querybuilder"
)

const matchEventTable = "match_events"

type matchEventTableModel struct {
	ID        string    `db:"id"`
	TeamID    string    `db:"team_id"`
	StartsAt  time.Time `db:"starts_at"`
	EventType string    `db:"event_type"`
	Cancelled bool      `db:"is_cancelled"`
}

type ScheduleRepository struct {
	db *sqlx.DB
}

func NewScheduleRepository(db *sqlx.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

func (r *ScheduleRepository) ListByTeamBetween(ctx context.Context, teamID string, from, to time.Time) ([]schedule.MatchEvent, error) {
	query, args, err := qb.Select("id", "team_id", "starts_at", "event_type", "is_cancelled").
		From(matchEventTable).
		Where(
			qb.Eq("team_id", teamID),
			qb.Gte("starts_at", from),
			qb.Lte("starts_at", to),
		).
		OrderBy("starts_at ASC").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list match events query: %w", err)
	}

	var rows []matchEventTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, crerr.Wrap(err, "list match events by team")
	}

	out := make([]schedule.MatchEvent, 0, len(rows))
	for _, row := range rows {
		out = append(out, schedule.MatchEvent{
			ID:        row.ID,
			TeamID:    row.TeamID,
			StartsAt:  row.StartsAt,
			Type:      schedule.NormalizeType(row.EventType),
			Cancelled: row.Cancelled,
		})
	}
	return out, nil
}
