package pitch

import "fmt"

// Position is a coded on-field role, e.g. "GK" or "CB". Position codes come
// from the club's formation templates and are treated as opaque here.
type Position string

// Player is one roster member of a pitch-board session. A nil PitchPosition
// means the player is on the bench. An empty EligiblePositions slice means
// the player can fill any position.
type Player struct {
	ID                string
	Name              string
	JerseyNumber      *int
	Injured           bool
	FillIn            bool
	EligiblePositions []Position
	PitchPosition     *Position
	SecondsPlayed     int
}

// OnPitch reports whether the player currently occupies a position.
func (p Player) OnPitch() bool {
	return p.PitchPosition != nil
}

// EligibleFor reports whether the player may occupy pos. An empty
// eligibility set is a wildcard.
func (p Player) EligibleFor(pos Position) bool {
	if len(p.EligiblePositions) == 0 {
		return true
	}
	for _, candidate := range p.EligiblePositions {
		if candidate == pos {
			return true
		}
	}
	return false
}

func (p Player) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("player id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("player name is required")
	}
	if p.Injured && p.PitchPosition != nil {
		return fmt.Errorf("injured player %s cannot hold a pitch position", p.ID)
	}
	return nil
}

func clonePlayer(p Player) Player {
	copied := p
	copied.EligiblePositions = append([]Position(nil), p.EligiblePositions...)
	if p.PitchPosition != nil {
		pos := *p.PitchPosition
		copied.PitchPosition = &pos
	}
	if p.JerseyNumber != nil {
		num := *p.JerseyNumber
		copied.JerseyNumber = &num
	}
	return copied
}
