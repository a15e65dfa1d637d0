package pitch

import (
	"fmt"
	"sync"
)

// Roster holds the players of one session in their authored order. Order is
// significant: option enumeration and snapshot serialization both preserve it.
// All methods are safe for concurrent use; the snapshot writer reads the
// roster from a background goroutine while handlers mutate it.
type Roster struct {
	mu             sync.RWMutex
	players        []Player
	accruedThrough int
}

func NewRoster(players []Player) *Roster {
	r := &Roster{players: make([]Player, 0, len(players))}
	for _, p := range players {
		r.players = append(r.players, clonePlayer(p))
	}
	return r
}

// Players returns a copy of every roster member in order.
func (r *Roster) Players() []Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, clonePlayer(p))
	}
	return out
}

// OnPitch returns the players currently holding positions, in roster order.
func (r *Roster) OnPitch() []Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		if p.OnPitch() {
			out = append(out, clonePlayer(p))
		}
	}
	return out
}

// Bench returns the players without a position, in roster order.
func (r *Roster) Bench() []Player {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Player, 0, len(r.players))
	for _, p := range r.players {
		if !p.OnPitch() {
			out = append(out, clonePlayer(p))
		}
	}
	return out
}

// ByID looks a player up by id.
func (r *Roster) ByID(id string) (Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.players {
		if p.ID == id {
			return clonePlayer(p), true
		}
	}
	return Player{}, false
}

// AtPosition returns the player holding pos, if any.
func (r *Roster) AtPosition(pos Position) (Player, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.players {
		if p.PitchPosition != nil && *p.PitchPosition == pos {
			return clonePlayer(p), true
		}
	}
	return Player{}, false
}

// Assign puts the player with the given id at pos.
func (r *Roster) Assign(id string, pos Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.players {
		if r.players[i].ID != id {
			continue
		}
		if r.players[i].Injured {
			return fmt.Errorf("injured player %s cannot take position %s", id, pos)
		}
		assigned := pos
		r.players[i].PitchPosition = &assigned
		return nil
	}
	return fmt.Errorf("player %s not in roster", id)
}

// SendToBench clears the player's position.
func (r *Roster) SendToBench(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.players {
		if r.players[i].ID == id {
			r.players[i].PitchPosition = nil
			return nil
		}
	}
	return fmt.Errorf("player %s not in roster", id)
}

// SetInjured toggles the injury flag. Marking an on-pitch player injured
// moves them to the bench, keeping the injured-never-on-pitch invariant.
func (r *Roster) SetInjured(id string, injured bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.players {
		if r.players[i].ID == id {
			r.players[i].Injured = injured
			if injured {
				r.players[i].PitchPosition = nil
			}
			return nil
		}
	}
	return fmt.Errorf("player %s not in roster", id)
}

// AccrueThrough credits playing time to every on-pitch player up to the
// given clock elapsed value. Calls with an elapsed value at or before the
// previous call are no-ops.
func (r *Roster) AccrueThrough(elapsedSeconds int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if elapsedSeconds <= r.accruedThrough {
		return
	}
	delta := elapsedSeconds - r.accruedThrough
	for i := range r.players {
		if r.players[i].OnPitch() {
			r.players[i].SecondsPlayed += delta
		}
	}
	r.accruedThrough = elapsedSeconds
}

// AccruedThrough returns the clock elapsed value playing time has been
// credited up to.
func (r *Roster) AccruedThrough() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.accruedThrough
}

// SetAccruedThrough seeds the accrual watermark without crediting time.
// Rosters rebuilt from a persisted snapshot carry SecondsPlayed that already
// covers the clock's elapsed value; seeding the watermark to that value keeps
// the next AccrueThrough from crediting the same stretch twice.
func (r *Roster) SetAccruedThrough(elapsedSeconds int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if elapsedSeconds > r.accruedThrough {
		r.accruedThrough = elapsedSeconds
	}
}

// Clone returns a deep copy, used to stage batch mutations atomically.
func (r *Roster) Clone() *Roster {
	r.mu.RLock()
	defer r.mu.RUnlock()
	copied := NewRoster(r.players)
	copied.accruedThrough = r.accruedThrough
	return copied
}

// Replace swaps this roster's contents for another's. Used to commit a
// staged clone in one step. The other roster's players are copied so the
// two rosters never share backing storage.
func (r *Roster) Replace(other *Roster) {
	players := other.Players()
	watermark := other.AccruedThrough()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.players = players
	r.accruedThrough = watermark
}

// Validate checks the occupancy invariants: no two players share a position
// and no injured player is on the pitch.
func (r *Roster) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	occupied := make(map[Position]string, len(r.players))
	for _, p := range r.players {
		if err := p.Validate(); err != nil {
			return err
		}
		if p.PitchPosition == nil {
			continue
		}
		if holder, taken := occupied[*p.PitchPosition]; taken {
			return fmt.Errorf("position %s held by both %s and %s", *p.PitchPosition, holder, p.ID)
		}
		occupied[*p.PitchPosition] = p.ID
	}
	return nil
}
