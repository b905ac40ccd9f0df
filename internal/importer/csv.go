// Package importer translates external source shapes into the loose records
// consumed by the normalizer. Importers only map fields; all coercion,
// defaulting and validation happens in one place, inside normalize.
package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"evtrack/internal/normalize"
)

// evccHeaders maps EVCC CSV export column names onto raw record keys. Columns
// not listed here are carried through under their lowercased header so the
// alias table can still pick them up.
var evccHeaders = map[string]string{
	"created":       "date",
	"finished":      "end_date",
	"loadpoint":     "location",
	"identifier":    "identifier",
	"vehicle":       "vehicle",
	"mileage (km)":  "odometer",
	"energy (kwh)":  "energy_kwh",
	"duration":      "duration",
	"price":         "total_cost",
	"price/kwh":     "cost_per_kwh",
	"charged (kwh)": "energy_kwh",
}

// ParseEVCCCSV reads an EVCC charging-session CSV export into raw records.
// Individual short rows are skipped; only an unreadable stream is an error.
func ParseEVCCCSV(r io.Reader) ([]normalize.RawRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("importer: read csv header: %w", err)
	}

	keys := make([]string, len(header))
	for i, column := range header {
		normalized := strings.ToLower(strings.TrimSpace(column))
		if mapped, ok := evccHeaders[normalized]; ok {
			keys[i] = mapped
			continue
		}
		keys[i] = strings.ReplaceAll(normalized, " ", "_")
	}

	var records []normalize.RawRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("importer: read csv row: %w", err)
		}

		record := normalize.RawRecord{"source": "evcc csv", "provider": "EVCC"}
		for i, value := range row {
			if i >= len(keys) {
				break
			}
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			record[keys[i]] = value
		}
		records = append(records, record)
	}
	return records, nil
}
