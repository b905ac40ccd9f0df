// Package normalize maps loosely-typed importer records onto the canonical
// charging session schema. The transformation is pure: no I/O, the input is
// never mutated, and malformed records degrade to zero/absent values instead
// of errors. Only a record with neither a resolvable timestamp nor a
// resolvable energy value is dropped, and dropped records are counted.
package normalize

import (
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"evtrack/internal/models"
)

// RawRecord is one record as produced by an importer, keyed by whatever
// field names that source uses.
type RawRecord map[string]any

// Alias priority per logical field. The first present, resolvable alias wins;
// conflicting aliases are never combined. Canonical names come first so that
// normalizing already-canonical data is a fixed point.
var (
	idAliases        = []string{"id", "record_id", "email_id", "pdf_filename"}
	timestampAliases = []string{"timestamp", "date", "start_time", "start_date"}
	timeAliases      = []string{"time", "start_clock"}
	energyAliases    = []string{"energy_kwh", "total_kwh", "kwh", "charge_energy_added"}
	costAliases      = []string{"cost_total", "total_cost", "cost", "amount"}
	rateAliases      = []string{"cost_per_kwh", "rate", "price_per_kwh"}
	peakAliases      = []string{"peak_power_kw", "peak_kw", "max_power_kw"}
	locationAliases  = []string{"location", "station", "address"}
	providerAliases  = []string{"provider", "network", "vendor"}
	durationAliases  = []string{"duration", "charging_time", "time_connected"}
	odometerAliases  = []string{"odometer", "odometer_km", "mileage"}
	latitudeAliases  = []string{"latitude", "lat"}
	longitudeAliases = []string{"longitude", "lon", "lng"}
	sourceAliases    = []string{"source"}
)

// Normalize converts raw importer records into canonical sessions. The second
// return value counts records dropped because both timestamp and energy were
// unresolvable.
func Normalize(raw []RawRecord) ([]models.ChargingSession, int) {
	sessions := make([]models.ChargingSession, 0, len(raw))
	dropped := 0

	for _, rec := range raw {
		session, ok := normalizeRecord(rec)
		if !ok {
			dropped++
			continue
		}
		sessions = append(sessions, session)
	}

	return sessions, dropped
}

func normalizeRecord(rec RawRecord) (models.ChargingSession, bool) {
	ts, tsOK := resolveTimestamp(rec)
	energy, energyOK := resolveFloat(rec, energyAliases)

	// Minimal-parse rule: a record missing both is unusable for any view.
	if !tsOK && !energyOK {
		return models.ChargingSession{}, false
	}

	cost, _ := resolveFloat(rec, costAliases)
	rate, _ := resolveFloat(rec, rateAliases)

	// Values used in downstream arithmetic are clamped, never negative.
	energy = clampNonNegative(energy)
	cost = clampNonNegative(cost)
	rate = clampNonNegative(rate)

	session := models.ChargingSession{
		ID:          resolveString(rec, idAliases),
		Timestamp:   ts,
		EnergyKWh:   energy,
		CostTotal:   cost,
		CostPerKWh:  rate,
		PeakPowerKW: resolveOptionalFloat(rec, peakAliases),
		Location:    resolveString(rec, locationAliases),
		Provider:    resolveString(rec, providerAliases),
		Duration:    resolveString(rec, durationAliases),
		Odometer:    resolveOptionalFloat(rec, odometerAliases),
		Source:      resolveSource(rec),
		Coordinates: resolveCoordinates(rec),
	}

	fillDerivedFields(&session)
	return session, true
}

// fillDerivedFields completes the record from its own fields: cost from
// energy and rate, rate from cost and energy, peak power inferred from
// energy over a parseable duration.
func fillDerivedFields(s *models.ChargingSession) {
	if s.CostTotal == 0 && s.CostPerKWh > 0 && s.EnergyKWh > 0 {
		s.CostTotal = s.EnergyKWh * s.CostPerKWh
	}
	if s.CostPerKWh == 0 && s.CostTotal > 0 && s.EnergyKWh > 0 {
		s.CostPerKWh = s.CostTotal / s.EnergyKWh
	}
	if s.PeakPowerKW == nil && s.EnergyKWh > 0 {
		if hours := durationHours(s.Duration); hours > 0 {
			inferred := s.EnergyKWh / hours
			s.PeakPowerKW = &inferred
		}
	}
}

func resolveString(rec RawRecord, aliases []string) string {
	for _, key := range aliases {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		if s, ok := v.(string); ok {
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		}
	}
	return ""
}

// resolveFloat returns the first alias coercible to a number. Unresolvable
// values report ok=false so callers can distinguish "missing" from zero.
func resolveFloat(rec RawRecord, aliases []string) (float64, bool) {
	for _, key := range aliases {
		v, ok := rec[key]
		if !ok || v == nil {
			continue
		}
		if f, ok := coerceFloat(v); ok {
			return f, true
		}
	}
	return 0, false
}

// resolveOptionalFloat is resolveFloat for fields that stay absent rather
// than defaulting to zero. Negative readings are treated as absent.
func resolveOptionalFloat(rec RawRecord, aliases []string) *float64 {
	f, ok := resolveFloat(rec, aliases)
	if !ok || f < 0 {
		return nil
	}
	return &f
}

func resolveCoordinates(rec RawRecord) *orb.Point {
	lat, latOK := resolveFloat(rec, latitudeAliases)
	lon, lonOK := resolveFloat(rec, longitudeAliases)
	if !latOK || !lonOK {
		return nil
	}
	p := orb.Point{lon, lat}
	return &p
}

func resolveSource(rec RawRecord) models.Source {
	switch s := strings.ToLower(resolveString(rec, sourceAliases)); {
	case strings.Contains(s, "mail"):
		return models.SourceEmail
	case strings.Contains(s, "pdf"):
		return models.SourcePDF
	case strings.Contains(s, "csv"), strings.Contains(s, "evcc"):
		return models.SourceCSV
	case strings.Contains(s, "api"), strings.Contains(s, "tesla"):
		return models.SourceAPI
	default:
		return models.SourceManual
	}
}

func clampNonNegative(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}

// coerceFloat accepts the number encodings seen across importers, including
// string values with currency or unit suffixes ("$4.50", "12.5 kWh").
func coerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		s := strings.TrimSpace(n)
		s = strings.TrimPrefix(s, "$")
		s = strings.ReplaceAll(s, ",", "")
		for _, unit := range []string{"kwh", "kw", "km"} {
			if strings.HasSuffix(strings.ToLower(s), unit) {
				s = strings.TrimSpace(s[:len(s)-len(unit)])
				break
			}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
