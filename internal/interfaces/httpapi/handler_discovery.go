package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/usecase"
)

type discoveryDTO struct {
	TeamID  string `json:"team_id"`
	EventID string `json:"event_id,omitempty"`
	Found   bool   `json:"found"`
}

type activeGameDTO struct {
	ID            string    `json:"id"`
	TeamID        string    `json:"team_id"`
	UserID        string    `json:"user_id"`
	LinkedEventID string    `json:"linked_event_id,omitempty"`
	Clock         clockDTO  `json:"clock"`
	Plan          planDTO   `json:"plan"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (h *Handler) DiscoverNearbyGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.DiscoverNearbyGame")
	defer span.End()

	teamID := strings.TrimSpace(r.URL.Query().Get("team_id"))
	if teamID == "" {
		writeError(ctx, w, fmt.Errorf("%w: team_id query parameter is required", usecase.ErrInvalidInput))
		return
	}

	eventID, err := h.discoveryService.FindNearbyGameEvent(ctx, teamID)
	if err != nil {
		h.logger.WarnContext(ctx, "discovery failed", "team_id", teamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, discoveryDTO{
		TeamID:  teamID,
		EventID: eventID,
		Found:   eventID != "",
	})
}

func (h *Handler) GetActiveGame(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetActiveGame")
	defer span.End()

	teamID := strings.TrimSpace(r.URL.Query().Get("team_id"))
	if teamID == "" {
		writeError(ctx, w, fmt.Errorf("%w: team_id query parameter is required", usecase.ErrInvalidInput))
		return
	}

	snapshot, err := h.discoveryService.ActiveSnapshot(ctx, teamID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	clockState := snapshot.Timer.ClockState()
	writeSuccess(ctx, w, http.StatusOK, activeGameDTO{
		ID:            snapshot.ID,
		TeamID:        snapshot.TeamID,
		UserID:        snapshot.UserID,
		LinkedEventID: snapshot.Pitch.LinkedEventID,
		Clock: clockDTO{
			ElapsedSeconds: clockState.Elapsed(time.Now()),
			Running:        clockState.Running,
			Half:           clockState.Half,
			MinutesPerHalf: clockState.MinutesPerHalf,
		},
		Plan:      planToDTO(snapshot.Pitch.Plan()),
		UpdatedAt: snapshot.UpdatedAt,
	})
}
