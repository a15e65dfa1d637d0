package postgres

import (
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/activegame"
)

type activeGameTableModel struct {
	ID         string    `db:"id"`
	TeamID     string    `db:"team_id"`
	UserID     string    `db:"user_id"`
	TimerState []byte    `db:"timer_state"`
	PitchState []byte    `db:"pitch_state"`
	IsActive   bool      `db:"is_active"`
	UpdatedAt  time.Time `db:"updated_at"`
}

func snapshotFromRow(row activeGameTableModel) (activegame.Snapshot, error) {
	var timer activegame.TimerState
	if err := sonic.Unmarshal(row.TimerState, &timer); err != nil {
		return activegame.Snapshot{}, crerr.Wrapf(err, "decode timer_state for snapshot %s", row.ID)
	}
	var pitch activegame.PitchState
	if err := sonic.Unmarshal(row.PitchState, &pitch); err != nil {
		return activegame.Snapshot{}, crerr.Wrapf(err, "decode pitch_state for snapshot %s", row.ID)
	}
	// A payload version this build does not understand reads as not-found
	// so the owning device recreates the record at the current version.
	if !timer.Supported() || !pitch.Supported() {
		return activegame.Snapshot{}, crerr.Wrapf(activegame.ErrSnapshotNotFound, "snapshot %s has unsupported payload version", row.ID)
	}

	return activegame.Snapshot{
		ID:        row.ID,
		TeamID:    row.TeamID,
		UserID:    row.UserID,
		Timer:     timer,
		Pitch:     pitch,
		IsActive:  row.IsActive,
		UpdatedAt: row.UpdatedAt,
	}, nil
}

func snapshotBlobs(snapshot activegame.Snapshot) ([]byte, []byte, error) {
	timer, err := sonic.Marshal(snapshot.Timer)
	if err != nil {
		return nil, nil, crerr.Wrap(err, "encode timer_state")
	}
	pitch, err := sonic.Marshal(snapshot.Pitch)
	if err != nil {
		return nil, nil, crerr.Wrap(err, "encode pitch_state")
	}
	return timer, pitch, nil
}
