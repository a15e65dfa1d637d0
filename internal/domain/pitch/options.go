package pitch

// Option is one legal way to take the outgoing player off the pitch.
// A direct option brings Incoming straight onto the vacated position. A
// swap option first moves Swap.Player into the vacated position and then
// brings Incoming on at the position the swap player left behind.
type Option struct {
	Incoming Player
	Swap     *SwapMove
}

// SwapMove describes the third player involved in a swap substitution:
// they vacate From and take To.
type SwapMove struct {
	Player Player
	From   Position
	To     Position
}

// Direct reports whether the option needs no third player.
func (o Option) Direct() bool {
	return o.Swap == nil
}

// ComputeOptions enumerates every legal substitution for the outgoing
// player given the current bench and on-pitch players. It is a pure
// function over the supplied snapshots.
//
// Enumeration is deterministic: bench players in their given order, and for
// swap candidates the on-pitch players in their given order. All qualifying
// combinations are returned. The result is never nil; an empty slice means
// no legal substitution exists, which is a valid outcome and must stay
// distinguishable from "not yet computed".
func ComputeOptions(outgoing Player, bench []Player, onPitch []Player) []Option {
	options := make([]Option, 0, len(bench))
	if outgoing.PitchPosition == nil {
		return options
	}
	vacated := *outgoing.PitchPosition

	for _, candidate := range bench {
		if candidate.Injured {
			continue
		}
		if candidate.EligibleFor(vacated) {
			options = append(options, Option{Incoming: clonePlayer(candidate)})
			continue
		}
		// The candidate cannot play the vacated position; look for an
		// on-pitch player to rotate into it.
		for _, swap := range onPitch {
			if swap.ID == outgoing.ID || swap.PitchPosition == nil {
				continue
			}
			swapFrom := *swap.PitchPosition
			if swapFrom == vacated {
				continue
			}
			if !swap.EligibleFor(vacated) {
				continue
			}
			if !candidate.EligibleFor(swapFrom) {
				continue
			}
			options = append(options, Option{
				Incoming: clonePlayer(candidate),
				Swap: &SwapMove{
					Player: clonePlayer(swap),
					From:   swapFrom,
					To:     vacated,
				},
			})
		}
	}

	return options
}
