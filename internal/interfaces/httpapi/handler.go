package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/pitch"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/subplan"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/platform/logging"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/usecase"
)

type Handler struct {
	sessionService   *usecase.SessionService
	discoveryService *usecase.DiscoveryService
	reconcileService *usecase.ReconcileService
	logger           *logging.Logger
	validator        *validator.Validate
}

func NewHandler(
	sessionService *usecase.SessionService,
	discoveryService *usecase.DiscoveryService,
	reconcileService *usecase.ReconcileService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		sessionService:   sessionService,
		discoveryService: discoveryService,
		reconcileService: reconcileService,
		logger:           logger,
		validator:        validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) validateRequest(ctx context.Context, req any) error {
	if err := h.validator.StructCtx(ctx, req); err != nil {
		return fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}
	return nil
}

type playerDTO struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	JerseyNumber      *int     `json:"jersey_number,omitempty"`
	Injured           bool     `json:"injured"`
	FillIn            bool     `json:"fill_in"`
	EligiblePositions []string `json:"eligible_positions"`
	PitchPosition     *string  `json:"pitch_position,omitempty"`
	SecondsPlayed     int      `json:"seconds_played"`
}

type swapMoveDTO struct {
	Player playerDTO `json:"player"`
	From   string    `json:"from"`
	To     string    `json:"to"`
}

type optionDTO struct {
	Incoming playerDTO    `json:"incoming"`
	Direct   bool         `json:"direct"`
	Swap     *swapMoveDTO `json:"swap,omitempty"`
}

type positionSwapDTO struct {
	PlayerID string `json:"player_id"`
	From     string `json:"from"`
	To       string `json:"to"`
}

type eventDTO struct {
	ID             string           `json:"id"`
	OutgoingID     string           `json:"outgoing_id"`
	IncomingID     string           `json:"incoming_id"`
	TriggerSeconds int              `json:"trigger_seconds"`
	Half           int              `json:"half"`
	Swap           *positionSwapDTO `json:"swap,omitempty"`
	Status         string           `json:"status"`
}

type planDTO struct {
	Events []eventDTO `json:"events"`
	Active bool       `json:"active"`
}

type batchEntryDTO struct {
	Event      eventDTO   `json:"event"`
	Outgoing   playerDTO  `json:"outgoing"`
	Incoming   playerDTO  `json:"incoming"`
	SwapPlayer *playerDTO `json:"swap_player,omitempty"`
	Stale      bool       `json:"stale"`
}

type batchDTO struct {
	TriggerSeconds   int             `json:"trigger_seconds"`
	Half             int             `json:"half"`
	Steps            int             `json:"steps"`
	CountdownSeconds int             `json:"countdown_seconds"`
	Entries          []batchEntryDTO `json:"entries"`
}

type clockDTO struct {
	ElapsedSeconds int  `json:"elapsed_seconds"`
	Running        bool `json:"running"`
	Half           int  `json:"half"`
	MinutesPerHalf int  `json:"minutes_per_half"`
}

type sessionDTO struct {
	TeamID        string      `json:"team_id"`
	UserID        string      `json:"user_id"`
	LinkedEventID string      `json:"linked_event_id,omitempty"`
	Clock         clockDTO    `json:"clock"`
	Players       []playerDTO `json:"players"`
	Plan          planDTO     `json:"plan"`
}

func playerToDTO(p pitch.Player) playerDTO {
	eligible := make([]string, 0, len(p.EligiblePositions))
	for _, pos := range p.EligiblePositions {
		eligible = append(eligible, string(pos))
	}
	dto := playerDTO{
		ID:                p.ID,
		Name:              p.Name,
		JerseyNumber:      p.JerseyNumber,
		Injured:           p.Injured,
		FillIn:            p.FillIn,
		EligiblePositions: eligible,
		SecondsPlayed:     p.SecondsPlayed,
	}
	if p.PitchPosition != nil {
		pos := string(*p.PitchPosition)
		dto.PitchPosition = &pos
	}
	return dto
}

func optionToDTO(o pitch.Option) optionDTO {
	dto := optionDTO{
		Incoming: playerToDTO(o.Incoming),
		Direct:   o.Direct(),
	}
	if o.Swap != nil {
		dto.Swap = &swapMoveDTO{
			Player: playerToDTO(o.Swap.Player),
			From:   string(o.Swap.From),
			To:     string(o.Swap.To),
		}
	}
	return dto
}

func eventToDTO(e subplan.Event) eventDTO {
	dto := eventDTO{
		ID:             e.ID,
		OutgoingID:     e.OutgoingID,
		IncomingID:     e.IncomingID,
		TriggerSeconds: e.TriggerSeconds,
		Half:           e.Half,
		Status:         string(e.Status),
	}
	if e.Swap != nil {
		dto.Swap = &positionSwapDTO{
			PlayerID: e.Swap.PlayerID,
			From:     string(e.Swap.From),
			To:       string(e.Swap.To),
		}
	}
	return dto
}

func planToDTO(p subplan.Plan) planDTO {
	events := make([]eventDTO, 0, len(p.Events))
	for _, e := range p.Events {
		events = append(events, eventToDTO(e))
	}
	return planDTO{Events: events, Active: p.Active}
}

func batchToDTO(b usecase.BatchView) batchDTO {
	entries := make([]batchEntryDTO, 0, len(b.Entries))
	for _, entry := range b.Entries {
		item := batchEntryDTO{
			Event:    eventToDTO(entry.Event),
			Outgoing: playerToDTO(entry.Outgoing),
			Incoming: playerToDTO(entry.Incoming),
			Stale:    entry.Stale,
		}
		if entry.SwapPlayer != nil {
			swapPlayer := playerToDTO(*entry.SwapPlayer)
			item.SwapPlayer = &swapPlayer
		}
		entries = append(entries, item)
	}
	return batchDTO{
		TriggerSeconds:   b.Key.TriggerSeconds,
		Half:             b.Key.Half,
		Steps:            b.Steps,
		CountdownSeconds: b.CountdownSeconds,
		Entries:          entries,
	}
}

func sessionToDTO(s *usecase.Session) sessionDTO {
	state := s.Clock().State()
	players := s.Substitutions().Roster().Players()
	playerDTOs := make([]playerDTO, 0, len(players))
	for _, p := range players {
		playerDTOs = append(playerDTOs, playerToDTO(p))
	}
	return sessionDTO{
		TeamID:        s.TeamID(),
		UserID:        s.UserID(),
		LinkedEventID: s.LinkedEventID(),
		Clock: clockDTO{
			ElapsedSeconds: s.Clock().Elapsed(),
			Running:        state.Running,
			Half:           state.Half,
			MinutesPerHalf: state.MinutesPerHalf,
		},
		Players: playerDTOs,
		Plan:    planToDTO(s.Substitutions().Plan()),
	}
}
