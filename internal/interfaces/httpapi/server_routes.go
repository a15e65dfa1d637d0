package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerSessionRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /api/sessions", handler.OpenSession)
	mux.HandleFunc("GET /api/sessions/{teamID}", handler.GetSession)
	mux.HandleFunc("DELETE /api/sessions/{teamID}", handler.CloseSession)
	mux.HandleFunc("POST /api/sessions/{teamID}/attach", handler.AttachSessionEvent)
	mux.HandleFunc("PUT /api/sessions/{teamID}/pitch", handler.OverridePitch)
	mux.HandleFunc("POST /api/sessions/{teamID}/sync", handler.ForceSessionSync)

	mux.HandleFunc("GET /api/sessions/{teamID}/clock", handler.GetClock)
	mux.HandleFunc("POST /api/sessions/{teamID}/clock/start", handler.StartClock)
	mux.HandleFunc("POST /api/sessions/{teamID}/clock/pause", handler.PauseClock)
	mux.HandleFunc("POST /api/sessions/{teamID}/clock/resume", handler.ResumeClock)
	mux.HandleFunc("POST /api/sessions/{teamID}/clock/half", handler.AdvanceClockHalf)

	mux.HandleFunc("PUT /api/sessions/{teamID}/plan", handler.SaveSubstitutionPlan)
	mux.HandleFunc("GET /api/sessions/{teamID}/substitutions/options", handler.ListSubstitutionOptions)
	mux.HandleFunc("GET /api/sessions/{teamID}/substitutions/batches", handler.ListSubstitutionBatches)
	mux.HandleFunc("POST /api/sessions/{teamID}/substitutions/confirm", handler.ConfirmSubstitutionBatch)
	mux.HandleFunc("POST /api/sessions/{teamID}/substitutions/skip", handler.SkipSubstitutionBatch)
}

func registerDiscoveryRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /api/discovery", handler.DiscoverNearbyGame)
	mux.HandleFunc("GET /api/active-game", handler.GetActiveGame)
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /internal/jobs/reconcile", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.RunReconcileJob)))
}
