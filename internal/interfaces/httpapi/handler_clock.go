package httpapi

import (
	"net/http"
	"strings"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/usecase"
)

func (h *Handler) GetClock(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetClock")
	defer span.End()

	session, err := h.sessionService.Get(strings.TrimSpace(r.PathValue("teamID")))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, clockToDTO(session))
}

func (h *Handler) StartClock(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartClock")
	defer span.End()

	h.mutateClock(w, r.WithContext(ctx), "start", func(session *usecase.Session) error {
		return session.Clock().Start()
	})
}

func (h *Handler) PauseClock(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.PauseClock")
	defer span.End()

	h.mutateClock(w, r.WithContext(ctx), "pause", func(session *usecase.Session) error {
		return session.Clock().Pause()
	})
}

func (h *Handler) ResumeClock(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ResumeClock")
	defer span.End()

	h.mutateClock(w, r.WithContext(ctx), "resume", func(session *usecase.Session) error {
		return session.Clock().Resume()
	})
}

func (h *Handler) AdvanceClockHalf(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdvanceClockHalf")
	defer span.End()

	h.mutateClock(w, r.WithContext(ctx), "advance half", func(session *usecase.Session) error {
		return session.Clock().AdvanceHalf()
	})
}

func (h *Handler) mutateClock(w http.ResponseWriter, r *http.Request, action string, mutate func(*usecase.Session) error) {
	ctx := r.Context()

	teamID := strings.TrimSpace(r.PathValue("teamID"))
	session, err := h.sessionService.Get(teamID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if err := mutate(session); err != nil {
		h.logger.WarnContext(ctx, "clock mutation failed", "team_id", teamID, "action", action, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, clockToDTO(session))
}

func clockToDTO(session *usecase.Session) clockDTO {
	state := session.Clock().State()
	return clockDTO{
		ElapsedSeconds: session.Clock().Elapsed(),
		Running:        state.Running,
		Half:           state.Half,
		MinutesPerHalf: state.MinutesPerHalf,
	}
}
