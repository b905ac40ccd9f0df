package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"evtrack/internal/http/middleware"
	"evtrack/internal/normalize"
	"evtrack/internal/repository"
	"evtrack/internal/service"
)

// dateParamLayouts are the formats accepted for start_date/end_date query
// parameters.
var dateParamLayouts = []string{"2006-01-02", "02-01-2006", "01/02/2006"}

func requireUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing user context")
	}
	return userID, ok
}

func parseDateParam(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	for _, layout := range dateParamLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return &t
		}
	}
	return nil
}

// NewChargingDataListHandler returns GET /api/charging-data.
func NewChargingDataListHandler(svc *service.SessionsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		query := r.URL.Query()
		filter := service.ListFilter{
			Provider:  query.Get("provider"),
			Location:  query.Get("location"),
			StartDate: parseDateParam(query.Get("start_date")),
			EndDate:   parseDateParam(query.Get("end_date")),
		}
		if filter.EndDate != nil {
			// end_date is inclusive: extend to the end of that day.
			end := filter.EndDate.Add(24*time.Hour - time.Second)
			filter.EndDate = &end
		}

		sessions, err := svc.ListSessions(r.Context(), userID, filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to fetch charging data")
			return
		}

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"count": len(sessions),
			"data":  toDerivedPayloads(sessions),
		})
	}
}

// NewChargingDataGetHandler returns GET /api/charging-data/{id}.
func NewChargingDataGetHandler(svc *service.SessionsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		session, err := svc.GetSession(r.Context(), userID, r.PathValue("id"))
		if err != nil {
			if errors.Is(err, repository.ErrRecordNotFound) {
				writeError(w, http.StatusNotFound, "charging record not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to fetch charging record")
			return
		}

		writeJSON(w, http.StatusOK, toSessionPayload(*session))
	}
}

// NewChargingDataCreateHandler returns POST /api/charging-data (manual entry).
func NewChargingDataCreateHandler(svc *service.SessionsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var raw normalize.RawRecord
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		session, err := svc.AddManualEntry(r.Context(), userID, raw)
		if err != nil {
			if errors.Is(err, service.ErrUnparseableRecord) {
				writeError(w, http.StatusUnprocessableEntity, "record needs at least a date or an energy value")
				return
			}
			writeError(w, http.StatusInternalServerError, "failed to store charging record")
			return
		}

		writeJSON(w, http.StatusCreated, toSessionPayload(*session))
	}
}

// NewChargingDataUpdateHandler returns PUT /api/charging-data/{id}.
func NewChargingDataUpdateHandler(svc *service.SessionsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var raw normalize.RawRecord
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		session, err := svc.UpdateSession(r.Context(), userID, r.PathValue("id"), raw)
		if err != nil {
			switch {
			case errors.Is(err, repository.ErrRecordNotFound):
				writeError(w, http.StatusNotFound, "charging record not found")
			case errors.Is(err, service.ErrUnparseableRecord):
				writeError(w, http.StatusUnprocessableEntity, "record needs at least a date or an energy value")
			default:
				writeError(w, http.StatusInternalServerError, "failed to update charging record")
			}
			return
		}

		writeJSON(w, http.StatusOK, toSessionPayload(*session))
	}
}

// NewChargingDataDeleteHandler returns DELETE /api/charging-data/{id}.
func NewChargingDataDeleteHandler(svc *service.SessionsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		deleted, err := svc.DeleteSessions(r.Context(), userID, []string{r.PathValue("id")})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to delete charging record")
			return
		}
		if deleted == 0 {
			writeError(w, http.StatusNotFound, "charging record not found")
			return
		}

		writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
	}
}
