package httpserver

import "net/http"

// Routes groups handlers. WriteTimeout on the server is generous enough for
// the XLSX export; everything else returns quickly.
type Routes struct {
	Health http.HandlerFunc
	Signup http.HandlerFunc
	Login  http.HandlerFunc

	ChargingDataList   http.HandlerFunc
	ChargingDataGet    http.HandlerFunc
	ChargingDataCreate http.HandlerFunc
	ChargingDataUpdate http.HandlerFunc
	ChargingDataDelete http.HandlerFunc

	ImportCSV     http.HandlerFunc
	ImportRecords http.HandlerFunc
	ImportTesla   http.HandlerFunc

	Summary    http.HandlerFunc
	Aggregates http.HandlerFunc
	Export     http.HandlerFunc
	WebSocket  http.HandlerFunc
}

// NewRouter registers endpoints. authed wraps an API handler with the
// authentication middleware.
func NewRouter(routes Routes, authed func(http.Handler) http.Handler) http.Handler {
	mux := http.NewServeMux()

	handle := func(pattern string, h http.HandlerFunc, protected bool) {
		if h == nil {
			return
		}
		if protected && authed != nil {
			mux.Handle(pattern, authed(h))
			return
		}
		mux.Handle(pattern, h)
	}

	handle("GET /api/health", routes.Health, false)
	handle("POST /auth/signup", routes.Signup, false)
	handle("POST /auth/login", routes.Login, false)

	handle("GET /api/charging-data", routes.ChargingDataList, true)
	handle("POST /api/charging-data", routes.ChargingDataCreate, true)
	handle("GET /api/charging-data/{id}", routes.ChargingDataGet, true)
	handle("PUT /api/charging-data/{id}", routes.ChargingDataUpdate, true)
	handle("DELETE /api/charging-data/{id}", routes.ChargingDataDelete, true)

	handle("POST /api/import/csv", routes.ImportCSV, true)
	handle("POST /api/import/records", routes.ImportRecords, true)
	handle("POST /api/import/tesla", routes.ImportTesla, true)

	handle("GET /api/summary", routes.Summary, true)
	handle("GET /api/aggregates", routes.Aggregates, true)
	handle("GET /api/export", routes.Export, true)
	handle("GET /ws", routes.WebSocket, true)

	return mux
}
