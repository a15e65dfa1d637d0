package memory

import (
	"time"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/activegame"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/matchclock"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/pitch"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/schedule"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/subplan"
)

const (
	TeamIDTigersU12  = "tigers-u12"
	TeamIDFalconsU14 = "falcons-u14"
)

func jersey(n int) *int {
	return &n
}

func onPitch(code pitch.Position) *pitch.Position {
	return &code
}

// SeedRoster returns a demo seven-a-side roster for local development.
func SeedRoster(teamID string) []pitch.Player {
	if teamID != TeamIDTigersU12 {
		return nil
	}
	return []pitch.Player{
		{ID: "tigers-01", Name: "Ava Carter", JerseyNumber: jersey(1), EligiblePositions: []pitch.Position{"GK"}, PitchPosition: onPitch("GK")},
		{ID: "tigers-02", Name: "Ben Hoskins", JerseyNumber: jersey(4), EligiblePositions: []pitch.Position{"CB", "RB"}, PitchPosition: onPitch("CB")},
		{ID: "tigers-03", Name: "Caleb Ngata", JerseyNumber: jersey(5), EligiblePositions: []pitch.Position{"LB", "CB"}, PitchPosition: onPitch("LB")},
		{ID: "tigers-04", Name: "Dana Osei", JerseyNumber: jersey(8), EligiblePositions: []pitch.Position{"CM"}, PitchPosition: onPitch("CM")},
		{ID: "tigers-05", Name: "Eli Fraser", JerseyNumber: jersey(7), EligiblePositions: []pitch.Position{"RW", "CM"}, PitchPosition: onPitch("RW")},
		{ID: "tigers-06", Name: "Finn Murphy", JerseyNumber: jersey(11), EligiblePositions: []pitch.Position{"LW", "ST"}, PitchPosition: onPitch("LW")},
		{ID: "tigers-07", Name: "Grace Liu", JerseyNumber: jersey(9), EligiblePositions: []pitch.Position{"ST"}, PitchPosition: onPitch("ST")},
		{ID: "tigers-08", Name: "Hana Volkov", JerseyNumber: jersey(12), EligiblePositions: []pitch.Position{"GK", "CB"}},
		{ID: "tigers-09", Name: "Iris Tan", JerseyNumber: jersey(14), EligiblePositions: []pitch.Position{"CM", "LW"}},
		{ID: "tigers-10", Name: "Jack Reed", JerseyNumber: jersey(15)},
	}
}

// SeedActiveSnapshot returns a demo in-progress game for the tigers, linked
// to their scheduled home match, so discovery and the active-game view have
// data immediately after boot.
func SeedActiveSnapshot(now time.Time) activegame.Snapshot {
	clock := matchclock.State{
		ElapsedSeconds: 600,
		Running:        true,
		Half:           matchclock.FirstHalf,
		MinutesPerHalf: 25,
		AnchorAt:       now,
	}
	roster := pitch.NewRoster(SeedRoster(TeamIDTigersU12))
	roster.AccrueThrough(clock.ElapsedSeconds)
	return activegame.Snapshot{
		TeamID:   TeamIDTigersU12,
		UserID:   "demo-coach",
		Timer:    activegame.NewTimerState(clock),
		Pitch:    activegame.NewPitchState(roster, subplan.Plan{}, "evt-tigers-home"),
		IsActive: true,
	}
}

// SeedMatchEvents returns demo scheduled events around the given instant.
func SeedMatchEvents(now time.Time) []schedule.MatchEvent {
	return []schedule.MatchEvent{
		{ID: "evt-tigers-home", TeamID: TeamIDTigersU12, StartsAt: now.Add(30 * time.Minute), Type: schedule.TypeMatch},
		{ID: "evt-tigers-training", TeamID: TeamIDTigersU12, StartsAt: now.Add(45 * time.Minute), Type: schedule.TypeTraining},
		{ID: "evt-falcons-away", TeamID: TeamIDFalconsU14, StartsAt: now.Add(-time.Hour), Type: schedule.TypeMatch},
		{ID: "evt-falcons-cancelled", TeamID: TeamIDFalconsU14, StartsAt: now.Add(-30 * time.Minute), Type: schedule.TypeMatch, Cancelled: true},
	}
}
