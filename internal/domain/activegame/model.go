package activegame

import (
	"fmt"
	"time"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/matchclock"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/pitch"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/subplan"
)

// SchemaVersion tags the snapshot payload format. Readers reject payloads
// carrying a version they do not understand. Version 2 added the roster
// accrual watermark to the pitch payload.
const SchemaVersion = 2

// Snapshot is the shared-store record representing one in-progress match.
// At most one snapshot per (user, team) should be active in the common
// case; duplicates created under races are tolerated and resolved by
// adoption and soft-deactivation, never deleted.
type Snapshot struct {
	ID        string
	TeamID    string
	UserID    string
	Timer     TimerState
	Pitch     PitchState
	IsActive  bool
	UpdatedAt time.Time
}

// TimerState is the serialized game-clock portion of a snapshot.
type TimerState struct {
	SchemaVersion  int       `json:"schema_version"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	Running        bool      `json:"running"`
	Half           int       `json:"half"`
	MinutesPerHalf int       `json:"minutes_per_half"`
	AnchorAt       time.Time `json:"anchor_at"`
}

// PitchState is the serialized roster and substitution-plan portion of a
// snapshot. The same format backs the local crash-recovery store.
type PitchState struct {
	SchemaVersion int           `json:"schema_version"`
	Players       []PlayerState `json:"players"`
	// AccruedThrough is the clock elapsed value the players' SecondsPlayed
	// already covers. Rosters rebuilt from this payload seed their accrual
	// watermark with it so restored time is never credited twice.
	AccruedThrough int          `json:"accrued_through"`
	PlanEvents     []EventState `json:"plan_events"`
	PlanActive     bool         `json:"plan_active"`
	LinkedEventID  string       `json:"linked_event_id,omitempty"`
}

type PlayerState struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	JerseyNumber      *int     `json:"jersey_number,omitempty"`
	Injured           bool     `json:"injured"`
	FillIn            bool     `json:"fill_in"`
	EligiblePositions []string `json:"eligible_positions"`
	PitchPosition     *string  `json:"pitch_position,omitempty"`
	SecondsPlayed     int      `json:"seconds_played"`
}

type EventState struct {
	ID             string     `json:"id"`
	OutgoingID     string     `json:"outgoing_id"`
	IncomingID     string     `json:"incoming_id"`
	TriggerSeconds int        `json:"trigger_seconds"`
	Half           int        `json:"half"`
	Swap           *SwapState `json:"swap,omitempty"`
	Status         string     `json:"status"`
}

type SwapState struct {
	PlayerID string `json:"player_id"`
	From     string `json:"from"`
	To       string `json:"to"`
}

func (t TimerState) Supported() bool {
	return t.SchemaVersion == SchemaVersion
}

func (p PitchState) Supported() bool {
	return p.SchemaVersion == SchemaVersion
}

func (s Snapshot) Validate() error {
	if s.TeamID == "" {
		return fmt.Errorf("snapshot team id is required")
	}
	if s.UserID == "" {
		return fmt.Errorf("snapshot user id is required")
	}
	if !s.Timer.Supported() || !s.Pitch.Supported() {
		return fmt.Errorf("snapshot payload version is not supported")
	}
	return nil
}

// NewTimerState serializes a clock state at the current schema version.
func NewTimerState(state matchclock.State) TimerState {
	return TimerState{
		SchemaVersion:  SchemaVersion,
		ElapsedSeconds: state.ElapsedSeconds,
		Running:        state.Running,
		Half:           state.Half,
		MinutesPerHalf: state.MinutesPerHalf,
		AnchorAt:       state.AnchorAt,
	}
}

// ClockState deserializes the timer portion back into clock state.
func (t TimerState) ClockState() matchclock.State {
	return matchclock.State{
		ElapsedSeconds: t.ElapsedSeconds,
		Running:        t.Running,
		Half:           t.Half,
		MinutesPerHalf: t.MinutesPerHalf,
		AnchorAt:       t.AnchorAt,
	}
}

// NewPitchState serializes the roster and the plan at the current schema
// version.
func NewPitchState(roster *pitch.Roster, plan subplan.Plan, linkedEventID string) PitchState {
	players := roster.Players()
	state := PitchState{
		SchemaVersion:  SchemaVersion,
		Players:        make([]PlayerState, 0, len(players)),
		AccruedThrough: roster.AccruedThrough(),
		PlanEvents:     make([]EventState, 0, len(plan.Events)),
		PlanActive:     plan.Active,
		LinkedEventID:  linkedEventID,
	}
	for _, p := range players {
		eligible := make([]string, 0, len(p.EligiblePositions))
		for _, pos := range p.EligiblePositions {
			eligible = append(eligible, string(pos))
		}
		var position *string
		if p.PitchPosition != nil {
			code := string(*p.PitchPosition)
			position = &code
		}
		state.Players = append(state.Players, PlayerState{
			ID:                p.ID,
			Name:              p.Name,
			JerseyNumber:      p.JerseyNumber,
			Injured:           p.Injured,
			FillIn:            p.FillIn,
			EligiblePositions: eligible,
			PitchPosition:     position,
			SecondsPlayed:     p.SecondsPlayed,
		})
	}
	for _, e := range plan.Events {
		event := EventState{
			ID:             e.ID,
			OutgoingID:     e.OutgoingID,
			IncomingID:     e.IncomingID,
			TriggerSeconds: e.TriggerSeconds,
			Half:           e.Half,
			Status:         string(e.Status),
		}
		if e.Swap != nil {
			event.Swap = &SwapState{
				PlayerID: e.Swap.PlayerID,
				From:     string(e.Swap.From),
				To:       string(e.Swap.To),
			}
		}
		state.PlanEvents = append(state.PlanEvents, event)
	}
	return state
}

// RosterPlayers deserializes the roster portion.
func (p PitchState) RosterPlayers() []pitch.Player {
	players := make([]pitch.Player, 0, len(p.Players))
	for _, ps := range p.Players {
		eligible := make([]pitch.Position, 0, len(ps.EligiblePositions))
		for _, code := range ps.EligiblePositions {
			eligible = append(eligible, pitch.Position(code))
		}
		var position *pitch.Position
		if ps.PitchPosition != nil {
			code := pitch.Position(*ps.PitchPosition)
			position = &code
		}
		players = append(players, pitch.Player{
			ID:                ps.ID,
			Name:              ps.Name,
			JerseyNumber:      ps.JerseyNumber,
			Injured:           ps.Injured,
			FillIn:            ps.FillIn,
			EligiblePositions: eligible,
			PitchPosition:     position,
			SecondsPlayed:     ps.SecondsPlayed,
		})
	}
	return players
}

// Roster deserializes the roster portion into a live roster, seeding the
// accrual watermark recorded at save time.
func (p PitchState) Roster() *pitch.Roster {
	roster := pitch.NewRoster(p.RosterPlayers())
	roster.SetAccruedThrough(p.AccruedThrough)
	return roster
}

// Plan deserializes the substitution-plan portion.
func (p PitchState) Plan() subplan.Plan {
	plan := subplan.Plan{
		Events: make([]subplan.Event, 0, len(p.PlanEvents)),
		Active: p.PlanActive,
	}
	for _, es := range p.PlanEvents {
		event := subplan.Event{
			ID:             es.ID,
			OutgoingID:     es.OutgoingID,
			IncomingID:     es.IncomingID,
			TriggerSeconds: es.TriggerSeconds,
			Half:           es.Half,
			Status:         subplan.Status(es.Status),
		}
		if es.Swap != nil {
			event.Swap = &subplan.PositionSwap{
				PlayerID: es.Swap.PlayerID,
				From:     pitch.Position(es.Swap.From),
				To:       pitch.Position(es.Swap.To),
			}
		}
		plan.Events = append(plan.Events, event)
	}
	return plan
}
