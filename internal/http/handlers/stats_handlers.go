package handlers

import (
	"net/http"

	"evtrack/internal/service"
)

// NewSummaryHandler returns GET /api/summary.
func NewSummaryHandler(svc *service.SessionsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		dashboard, err := svc.BuildDashboard(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to compute summary")
			return
		}

		writeJSON(w, http.StatusOK, toSummaryPayload(dashboard.Summary))
	}
}

// NewAggregatesHandler returns GET /api/aggregates, the chart-builder feed.
func NewAggregatesHandler(svc *service.SessionsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		dashboard, err := svc.BuildDashboard(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to compute aggregates")
			return
		}

		writeJSON(w, http.StatusOK, toAggregatesPayload(dashboard.Aggregates, dashboard.EfficiencyTrend))
	}
}
