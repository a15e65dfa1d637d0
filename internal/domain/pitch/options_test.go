package pitch

import "testing"

func pos(code Position) *Position {
	return &code
}

func TestComputeOptions_DirectAndSwapEnumeration(t *testing.T) {
	t.Parallel()

	keeper := Player{ID: "1", Name: "Keeper", PitchPosition: pos("GK")}
	back := Player{ID: "2", Name: "Back", EligiblePositions: []Position{"CB"}, PitchPosition: pos("CB")}
	benchBack := Player{ID: "3", Name: "Bench Back", EligiblePositions: []Position{"CB"}}
	benchKeeper := Player{ID: "4", Name: "Bench Keeper", EligiblePositions: []Position{"GK"}}

	options := ComputeOptions(keeper, []Player{benchBack, benchKeeper}, []Player{keeper, back})

	if len(options) != 1 {
		t.Fatalf("expected exactly one option, got %d", len(options))
	}
	if options[0].Incoming.ID != "4" {
		t.Fatalf("unexpected direct candidate: %s", options[0].Incoming.ID)
	}
	if !options[0].Direct() {
		t.Fatalf("expected direct option, got swap via %s", options[0].Swap.Player.ID)
	}
}

func TestComputeOptions_SwapChain(t *testing.T) {
	t.Parallel()

	striker := Player{ID: "st", Name: "Striker", EligiblePositions: []Position{"ST"}, PitchPosition: pos("ST")}
	winger := Player{ID: "wg", Name: "Winger", EligiblePositions: []Position{"LW", "ST"}, PitchPosition: pos("LW")}
	benchWinger := Player{ID: "bench-wg", Name: "Bench Winger", EligiblePositions: []Position{"LW"}}

	options := ComputeOptions(striker, []Player{benchWinger}, []Player{striker, winger})

	if len(options) != 1 {
		t.Fatalf("expected one swap option, got %d", len(options))
	}
	opt := options[0]
	if opt.Direct() {
		t.Fatalf("expected swap option, got direct")
	}
	if opt.Swap.Player.ID != "wg" || opt.Swap.From != "LW" || opt.Swap.To != "ST" {
		t.Fatalf("unexpected swap move: %+v", opt.Swap)
	}
	if opt.Incoming.ID != "bench-wg" {
		t.Fatalf("unexpected incoming player: %s", opt.Incoming.ID)
	}
}

func TestComputeOptions_WildcardBenchPlayerIsDirect(t *testing.T) {
	t.Parallel()

	keeper := Player{ID: "1", PitchPosition: pos("GK"), Name: "Keeper"}
	utility := Player{ID: "u", Name: "Utility"}

	options := ComputeOptions(keeper, []Player{utility}, []Player{keeper})
	if len(options) != 1 || !options[0].Direct() {
		t.Fatalf("wildcard bench player should be a direct candidate: %+v", options)
	}
}

func TestComputeOptions_InjuredBenchPlayerExcluded(t *testing.T) {
	t.Parallel()

	keeper := Player{ID: "1", Name: "Keeper", PitchPosition: pos("GK")}
	injured := Player{ID: "inj", Name: "Injured", Injured: true}

	options := ComputeOptions(keeper, []Player{injured}, []Player{keeper})
	if len(options) != 0 {
		t.Fatalf("injured bench player must never be a candidate, got %d options", len(options))
	}
	if options == nil {
		t.Fatalf("empty result must be non-nil")
	}
}

func TestComputeOptions_OutgoingWithoutPositionReturnsEmpty(t *testing.T) {
	t.Parallel()

	benched := Player{ID: "1", Name: "Benched"}
	sub := Player{ID: "2", Name: "Sub"}

	options := ComputeOptions(benched, []Player{sub}, nil)
	if options == nil || len(options) != 0 {
		t.Fatalf("expected empty non-nil result, got %v", options)
	}
}

func TestComputeOptions_DeterministicOrderAndAllCombinations(t *testing.T) {
	t.Parallel()

	out := Player{ID: "out", Name: "Out", EligiblePositions: []Position{"CM"}, PitchPosition: pos("CM")}
	pivotA := Player{ID: "qa", Name: "Pivot A", EligiblePositions: []Position{"CM", "RB"}, PitchPosition: pos("RB")}
	pivotB := Player{ID: "qb", Name: "Pivot B", EligiblePositions: []Position{"CM", "LB"}, PitchPosition: pos("LB")}
	benchOne := Player{ID: "b1", Name: "Bench One", EligiblePositions: []Position{"RB", "LB"}}
	benchTwo := Player{ID: "b2", Name: "Bench Two", EligiblePositions: []Position{"CM"}}

	options := ComputeOptions(out, []Player{benchOne, benchTwo}, []Player{out, pivotA, pivotB})

	if len(options) != 3 {
		t.Fatalf("expected 3 options (2 swaps + 1 direct), got %d", len(options))
	}
	// benchOne swaps enumerate in on-pitch order, then benchTwo direct.
	if options[0].Swap == nil || options[0].Swap.Player.ID != "qa" {
		t.Fatalf("expected first option to swap via qa, got %+v", options[0])
	}
	if options[1].Swap == nil || options[1].Swap.Player.ID != "qb" {
		t.Fatalf("expected second option to swap via qb, got %+v", options[1])
	}
	if !options[2].Direct() || options[2].Incoming.ID != "b2" {
		t.Fatalf("expected third option to be b2 direct, got %+v", options[2])
	}

	for _, opt := range options {
		if opt.Swap == nil {
			continue
		}
		if !opt.Swap.Player.EligibleFor("CM") {
			t.Fatalf("swap player %s not eligible for vacated position", opt.Swap.Player.ID)
		}
		if !opt.Incoming.EligibleFor(opt.Swap.From) {
			t.Fatalf("incoming %s not eligible for swap origin %s", opt.Incoming.ID, opt.Swap.From)
		}
	}
}
