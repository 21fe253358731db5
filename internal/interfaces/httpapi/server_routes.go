package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, cfg RouterConfig) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if cfg.MetricsEnabled && cfg.MetricsHandler != nil {
		mux.Handle("GET /metrics", cfg.MetricsHandler)
	}
	if !cfg.SwaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerPublicRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/seasons", handler.ListSeasons)
	mux.HandleFunc("GET /v1/seasons/active", handler.GetActiveSeason)
	mux.HandleFunc("GET /v1/seasons/{seasonID}", handler.GetSeason)
	mux.HandleFunc("GET /v1/seasons/{seasonID}/hierarchy", handler.GetHierarchy)
	mux.HandleFunc("GET /v1/seasons/{seasonID}/hierarchy/stats", handler.GetHierarchyStats)
	mux.HandleFunc("GET /v1/seasons/{seasonID}/leaderboards/captains", handler.ListTopCaptains)
	mux.HandleFunc("GET /v1/seasons/{seasonID}/leaderboards/members", handler.ListTopMembers)
	mux.HandleFunc("POST /v1/waitlist", handler.JoinWaitlist)
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, adminToken string) {
	admin := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, RequireAdminToken(adminToken, fn))
	}

	admin("POST /v1/seasons", handler.CreateSeason)
	admin("POST /v1/seasons/{seasonID}/activate", handler.ActivateSeason)
	admin("POST /v1/seasons/{seasonID}/close", handler.CloseSeason)
	admin("POST /v1/seasons/{seasonID}/recalculate", handler.RecalculateAggregates)
	admin("POST /v1/seasons/{seasonID}/redistribute", handler.RedistributeGroups)
	admin("POST /v1/hours", handler.ImportHours)
	admin("GET /v1/fraud/alerts", handler.ListFraudAlerts)
	admin("POST /v1/fraud/alerts/report", handler.ReportFraudAlerts)
	admin("GET /v1/audit", handler.ListAuditEntries)
	admin("GET /v1/imports", handler.ListImports)
	admin("GET /v1/participants", handler.ListParticipants)
	admin("GET /v1/dashboard/stats", handler.GetDashboardStats)
	admin("GET /v1/waitlist", handler.ListWaitlist)
	admin("POST /v1/waitlist/{entryID}/approve", handler.ApproveWaitlistEntry)
	admin("POST /v1/waitlist/{entryID}/reject", handler.RejectWaitlistEntry)
}
