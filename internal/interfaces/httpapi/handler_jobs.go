package httpapi

import (
	"net/http"
)

type reconcileResultDTO struct {
	Retired int `json:"retired"`
}

// RunReconcileJob sweeps stale active snapshots. Token-guarded; wired for
// an external scheduler hitting the internal jobs surface.
func (h *Handler) RunReconcileJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunReconcileJob")
	defer span.End()

	retired, err := h.reconcileService.Sweep(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "reconcile sweep failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, reconcileResultDTO{Retired: retired})
}
