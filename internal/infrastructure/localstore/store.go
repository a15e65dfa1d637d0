package localstore

import (
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/activegame"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/matchclock"
)

// Store is the device-local key/value persistence used for crash recovery.
// The game clock is written on every mutation and the pitch state on every
// roster or plan change, so a reload resumes the match without loss.
//
// LoadPitch returns whatever payload is on disk, including ones written at
// an older schema version; callers check Supported and use DeleteTeam to
// clear records they decide not to restore.
type Store interface {
	SaveClock(teamID string, state matchclock.State) error
	LoadClock(teamID string) (matchclock.State, bool, error)
	SavePitch(teamID string, state activegame.PitchState) error
	LoadPitch(teamID string) (activegame.PitchState, bool, error)
	DeleteTeam(teamID string) error
	Close() error
}
