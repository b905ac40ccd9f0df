package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"

	"evtrack/internal/models"
	"evtrack/internal/service"
)

var exportHeaders = []string{
	"Date", "Energy (kWh)", "Cost", "Cost/kWh", "Peak kW",
	"Location", "Provider", "Duration", "Odometer",
	"Distance (km)", "Cost/km", "kWh/km", "Source",
}

// NewExportHandler returns GET /api/export. The default format is XLSX;
// format=csv switches to a plain CSV dump of the same columns.
func NewExportHandler(svc *service.SessionsService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := requireUser(w, r)
		if !ok {
			return
		}

		sessions, err := svc.ListSessions(r.Context(), userID, service.ListFilter{})
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to fetch charging data")
			return
		}

		stamp := time.Now().UTC().Format("20060102_150405")
		if r.URL.Query().Get("format") == "csv" {
			data, err := buildCSVExport(sessions)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "failed to generate CSV file")
				return
			}
			w.Header().Set("Content-Type", "text/csv")
			w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=charging_data_%s.csv", stamp))
			w.Header().Set("Content-Length", strconv.Itoa(len(data)))
			w.WriteHeader(http.StatusOK)
			w.Write(data)
			return
		}

		file, err := buildXLSXExport(sessions)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to generate Excel file")
			return
		}
		buffer, err := file.WriteToBuffer()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to write Excel file")
			return
		}

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=charging_data_%s.xlsx", stamp))
		w.Header().Set("Content-Length", strconv.Itoa(buffer.Len()))
		w.WriteHeader(http.StatusOK)
		w.Write(buffer.Bytes())
	}
}

func buildXLSXExport(sessions []models.DerivedSession) (*excelize.File, error) {
	f := excelize.NewFile()
	const sheet = "Charging Sessions"

	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
	})
	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		f.SetCellValue(sheet, cell, header)
		f.SetCellStyle(sheet, cell, cell, headerStyle)
	}

	for i, s := range sessions {
		row := exportRow(s)
		for col, value := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, i+2)
			if value != nil {
				f.SetCellValue(sheet, cell, value)
			}
		}
	}

	f.DeleteSheet("Sheet1")
	return f, nil
}

func buildCSVExport(sessions []models.DerivedSession) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(exportHeaders); err != nil {
		return nil, err
	}
	for _, s := range sessions {
		record := make([]string, len(exportHeaders))
		for col, value := range exportRow(s) {
			if value == nil {
				continue
			}
			switch v := value.(type) {
			case float64:
				record[col] = strconv.FormatFloat(v, 'f', -1, 64)
			default:
				record[col] = fmt.Sprintf("%v", v)
			}
		}
		if err := writer.Write(record); err != nil {
			return nil, err
		}
	}

	writer.Flush()
	return buf.Bytes(), writer.Error()
}

// exportRow flattens one enriched session into column order matching
// exportHeaders. Nil entries render as empty cells.
func exportRow(s models.DerivedSession) []interface{} {
	row := make([]interface{}, len(exportHeaders))
	if s.HasTimestamp() {
		row[0] = s.Timestamp.Format("2006-01-02 15:04:05")
	}
	row[1] = s.EnergyKWh
	row[2] = s.CostTotal
	row[3] = s.CostPerKWh
	if s.PeakPowerKW != nil {
		row[4] = *s.PeakPowerKW
	}
	row[5] = s.Location
	row[6] = s.Provider
	row[7] = s.Duration
	if s.Odometer != nil {
		row[8] = *s.Odometer
	}
	if s.DistanceKm != nil {
		row[9] = *s.DistanceKm
	}
	if s.CostPerKm != nil {
		row[10] = *s.CostPerKm
	}
	if s.KWhPerKm != nil {
		row[11] = *s.KWhPerKm
	}
	row[12] = string(s.Source)
	return row
}
