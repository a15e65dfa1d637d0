package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/pitch"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/subplan"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/usecase"
)

type eventUpsertRequest struct {
	ID             string           `json:"id" validate:"required"`
	OutgoingID     string           `json:"outgoing_id" validate:"required"`
	IncomingID     string           `json:"incoming_id" validate:"required"`
	TriggerSeconds int              `json:"trigger_seconds" validate:"gte=0"`
	Half           int              `json:"half" validate:"oneof=1 2"`
	Swap           *positionSwapDTO `json:"swap"`
}

type planUpsertRequest struct {
	Events []eventUpsertRequest `json:"events" validate:"dive"`
	Active bool                 `json:"active"`
}

type batchKeyRequest struct {
	TriggerSeconds int `json:"trigger_seconds" validate:"gte=0"`
	Half           int `json:"half" validate:"oneof=1 2"`
}

func (h *Handler) ListSubstitutionOptions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSubstitutionOptions")
	defer span.End()

	session, err := h.sessionService.Get(strings.TrimSpace(r.PathValue("teamID")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	playerID := strings.TrimSpace(r.URL.Query().Get("player_id"))
	if playerID == "" {
		writeError(ctx, w, fmt.Errorf("%w: player_id query parameter is required", usecase.ErrInvalidInput))
		return
	}

	options, err := session.Substitutions().OptionsFor(ctx, playerID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	dtos := make([]optionDTO, 0, len(options))
	for _, option := range options {
		dtos = append(dtos, optionToDTO(option))
	}
	writeSuccess(ctx, w, http.StatusOK, dtos)
}

func (h *Handler) ListSubstitutionBatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSubstitutionBatches")
	defer span.End()

	session, err := h.sessionService.Get(strings.TrimSpace(r.PathValue("teamID")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	due := session.Substitutions().DueBatches(ctx)
	upcoming := session.Substitutions().UpcomingBatches(ctx)

	dueDTOs := make([]batchDTO, 0, len(due))
	for _, batch := range due {
		dueDTOs = append(dueDTOs, batchToDTO(batch))
	}
	upcomingDTOs := make([]batchDTO, 0, len(upcoming))
	for _, batch := range upcoming {
		upcomingDTOs = append(upcomingDTOs, batchToDTO(batch))
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any{
		"due":      dueDTOs,
		"upcoming": upcomingDTOs,
	})
}

func (h *Handler) ConfirmSubstitutionBatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ConfirmSubstitutionBatch")
	defer span.End()

	h.actOnBatch(w, r.WithContext(ctx), "confirm", func(session *usecase.Session, key subplan.BatchKey) error {
		return session.Substitutions().ConfirmBatch(r.Context(), key)
	})
}

func (h *Handler) SkipSubstitutionBatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SkipSubstitutionBatch")
	defer span.End()

	h.actOnBatch(w, r.WithContext(ctx), "skip", func(session *usecase.Session, key subplan.BatchKey) error {
		return session.Substitutions().SkipBatch(r.Context(), key)
	})
}

func (h *Handler) actOnBatch(w http.ResponseWriter, r *http.Request, action string, act func(*usecase.Session, subplan.BatchKey) error) {
	ctx := r.Context()

	teamID := strings.TrimSpace(r.PathValue("teamID"))
	session, err := h.sessionService.Get(teamID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req batchKeyRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	key := subplan.BatchKey{TriggerSeconds: req.TriggerSeconds, Half: req.Half}
	if err := act(session, key); err != nil {
		h.logger.WarnContext(ctx, "substitution batch action failed",
			"team_id", teamID, "action", action,
			"trigger_seconds", key.TriggerSeconds, "half", key.Half, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(session))
}

func (h *Handler) SaveSubstitutionPlan(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SaveSubstitutionPlan")
	defer span.End()

	teamID := strings.TrimSpace(r.PathValue("teamID"))
	session, err := h.sessionService.Get(teamID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req planUpsertRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := session.Substitutions().SetPlan(ctx, planFromRequest(req)); err != nil {
		h.logger.WarnContext(ctx, "save substitution plan failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(session))
}

func planFromRequest(req planUpsertRequest) subplan.Plan {
	events := make([]subplan.Event, 0, len(req.Events))
	for _, item := range req.Events {
		event := subplan.Event{
			ID:             strings.TrimSpace(item.ID),
			OutgoingID:     strings.TrimSpace(item.OutgoingID),
			IncomingID:     strings.TrimSpace(item.IncomingID),
			TriggerSeconds: item.TriggerSeconds,
			Half:           item.Half,
			Status:         subplan.StatusScheduled,
		}
		if item.Swap != nil {
			event.Swap = &subplan.PositionSwap{
				PlayerID: strings.TrimSpace(item.Swap.PlayerID),
				From:     pitch.Position(item.Swap.From),
				To:       pitch.Position(item.Swap.To),
			}
		}
		events = append(events, event)
	}
	return subplan.Plan{Events: events, Active: req.Active}
}
