package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"evtrack/internal/importer"
	"evtrack/internal/normalize"
	"evtrack/internal/service"
)

const maxImportBody = 10 << 20 // 10 MiB

type importResponse struct {
	Received   int `json:"received"`
	Imported   int `json:"imported"`
	Duplicates int `json:"duplicates"`
	Dropped    int `json:"dropped"`
}

func runImport(w http.ResponseWriter, r *http.Request, svc *service.SessionsService, userID int64, raw []normalize.RawRecord) {
	result, err := svc.ImportRecords(r.Context(), userID, raw)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to import records")
		return
	}
	writeJSON(w, http.StatusOK, importResponse{
		Received:   result.Received,
		Imported:   result.Inserted,
		Duplicates: result.Duplicates,
		Dropped:    result.Dropped,
	})
}

// NewImportCSVHandler returns POST /api/import/csv. The body is either a
// multipart upload with a "file" part or the CSV itself.
func NewImportCSVHandler(svc *service.SessionsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var body io.Reader = http.MaxBytesReader(w, r.Body, maxImportBody)
		if file, _, err := r.FormFile("file"); err == nil {
			defer file.Close()
			body = file
		}

		raw, err := importer.ParseEVCCCSV(body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable CSV")
			return
		}
		runImport(w, r, svc, userID, raw)
	}
}

// NewImportRecordsHandler returns POST /api/import/records: a JSON array of
// loose records as produced by the email/PDF collaborators.
func NewImportRecordsHandler(svc *service.SessionsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var raw []normalize.RawRecord
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportBody)).Decode(&raw); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		runImport(w, r, svc, userID, raw)
	}
}

// NewImportTeslaHandler returns POST /api/import/tesla: a JSON array of Tesla
// charge history entries as polled from the vehicle API.
func NewImportTeslaHandler(svc *service.SessionsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		var records []importer.TeslaChargeRecord
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportBody)).Decode(&records); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		runImport(w, r, svc, userID, importer.RawFromTesla(records))
	}
}
