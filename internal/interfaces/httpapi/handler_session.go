package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	sonic "github.com/bytedance/sonic"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/pitch"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/usecase"
)

type openSessionRequest struct {
	UserID string `json:"user_id" validate:"required"`
	TeamID string `json:"team_id" validate:"required"`
}

type attachEventRequest struct {
	EventID string `json:"event_id" validate:"required"`
}

type playerUpsertRequest struct {
	ID                string   `json:"id" validate:"required"`
	Name              string   `json:"name" validate:"required"`
	JerseyNumber      *int     `json:"jersey_number"`
	Injured           bool     `json:"injured"`
	FillIn            bool     `json:"fill_in"`
	EligiblePositions []string `json:"eligible_positions"`
	PitchPosition     *string  `json:"pitch_position"`
	SecondsPlayed     int      `json:"seconds_played" validate:"gte=0"`
}

type overridePitchRequest struct {
	Players []playerUpsertRequest `json:"players" validate:"required,dive"`
}

func (h *Handler) OpenSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.OpenSession")
	defer span.End()

	var req openSessionRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	session, err := h.sessionService.Open(ctx, strings.TrimSpace(req.UserID), strings.TrimSpace(req.TeamID))
	if err != nil {
		h.logger.WarnContext(ctx, "open session failed", "team_id", req.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(session))
}

func (h *Handler) CloseSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CloseSession")
	defer span.End()

	teamID := strings.TrimSpace(r.PathValue("teamID"))
	if err := h.sessionService.Close(ctx, teamID); err != nil {
		h.logger.WarnContext(ctx, "close session failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"team_id": teamID, "status": "closed"})
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSession")
	defer span.End()

	session, err := h.sessionService.Get(strings.TrimSpace(r.PathValue("teamID")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(session))
}

func (h *Handler) AttachSessionEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AttachSessionEvent")
	defer span.End()

	session, err := h.sessionService.Get(strings.TrimSpace(r.PathValue("teamID")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req attachEventRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	session.AttachEvent(strings.TrimSpace(req.EventID))
	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(session))
}

func (h *Handler) OverridePitch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.OverridePitch")
	defer span.End()

	session, err := h.sessionService.Get(strings.TrimSpace(r.PathValue("teamID")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req overridePitchRequest
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	if err := decoder.Decode(&req); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := session.OverridePitch(ctx, playersFromRequest(req.Players)); err != nil {
		h.logger.WarnContext(ctx, "pitch override failed", "team_id", session.TeamID(), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, sessionToDTO(session))
}

func (h *Handler) ForceSessionSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ForceSessionSync")
	defer span.End()

	session, err := h.sessionService.Get(strings.TrimSpace(r.PathValue("teamID")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := session.ForceSync(ctx); err != nil {
		h.logger.WarnContext(ctx, "forced sync failed", "team_id", session.TeamID(), "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"team_id": session.TeamID(), "status": "synced"})
}

func playersFromRequest(items []playerUpsertRequest) []pitch.Player {
	players := make([]pitch.Player, 0, len(items))
	for _, item := range items {
		eligible := make([]pitch.Position, 0, len(item.EligiblePositions))
		for _, pos := range item.EligiblePositions {
			eligible = append(eligible, pitch.Position(pos))
		}
		player := pitch.Player{
			ID:                strings.TrimSpace(item.ID),
			Name:              strings.TrimSpace(item.Name),
			JerseyNumber:      item.JerseyNumber,
			Injured:           item.Injured,
			FillIn:            item.FillIn,
			EligiblePositions: eligible,
			SecondsPlayed:     item.SecondsPlayed,
		}
		if item.PitchPosition != nil && strings.TrimSpace(*item.PitchPosition) != "" {
			pos := pitch.Position(strings.TrimSpace(*item.PitchPosition))
			player.PitchPosition = &pos
		}
		players = append(players, player)
	}
	return players
}
