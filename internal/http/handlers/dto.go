package handlers

import (
	"time"

	"evtrack/internal/models"
)

// wireTimeLayout is the naive timestamp format used on the wire; timestamps
// carry no zone by the time they leave the normalizer.
const wireTimeLayout = "2006-01-02T15:04:05"

// sessionPayload is the published record shape. Field names follow the
// documented API (total_kwh, total_cost, peak_kw); the internal canonical
// names are mapped here, at the boundary, and nowhere else.
type sessionPayload struct {
	ID         string   `json:"id"`
	Date       *string  `json:"date"`
	TotalKWh   float64  `json:"total_kwh"`
	TotalCost  float64  `json:"total_cost"`
	CostPerKWh float64  `json:"cost_per_kwh"`
	PeakKW     *float64 `json:"peak_kw"`
	Location   string   `json:"location"`
	Latitude   *float64 `json:"latitude,omitempty"`
	Longitude  *float64 `json:"longitude,omitempty"`
	Provider   string   `json:"provider"`
	Duration   string   `json:"duration,omitempty"`
	Odometer   *float64 `json:"odometer,omitempty"`
	Source     string   `json:"source"`

	Distance  *float64 `json:"distance,omitempty"`
	CostPerKm *float64 `json:"cost_per_km,omitempty"`
	KWhPerKm  *float64 `json:"kwh_per_km,omitempty"`
}

func toSessionPayload(s models.ChargingSession) sessionPayload {
	payload := sessionPayload{
		ID:         s.ID,
		TotalKWh:   s.EnergyKWh,
		TotalCost:  s.CostTotal,
		CostPerKWh: s.CostPerKWh,
		PeakKW:     s.PeakPowerKW,
		Location:   s.Location,
		Provider:   s.Provider,
		Duration:   s.Duration,
		Odometer:   s.Odometer,
		Source:     string(s.Source),
	}
	if s.HasTimestamp() {
		date := s.Timestamp.Format(wireTimeLayout)
		payload.Date = &date
	}
	if s.Coordinates != nil {
		lat := s.Coordinates.Lat()
		lon := s.Coordinates.Lon()
		payload.Latitude = &lat
		payload.Longitude = &lon
	}
	return payload
}

func toDerivedPayload(s models.DerivedSession) sessionPayload {
	payload := toSessionPayload(s.ChargingSession)
	payload.Distance = s.DistanceKm
	payload.CostPerKm = s.CostPerKm
	payload.KWhPerKm = s.KWhPerKm
	return payload
}

func toDerivedPayloads(sessions []models.DerivedSession) []sessionPayload {
	payloads := make([]sessionPayload, len(sessions))
	for i, s := range sessions {
		payloads[i] = toDerivedPayload(s)
	}
	return payloads
}

type dateRangePayload struct {
	FirstDate *string `json:"first_date"`
	LastDate  *string `json:"last_date"`
}

type topEntryPayload struct {
	Name     string  `json:"name"`
	TotalKWh float64 `json:"total_kwh"`
}

type summaryPayload struct {
	RecordCount    int               `json:"record_count"`
	Locations      int               `json:"locations"`
	Providers      int               `json:"providers"`
	TotalEnergyKWh float64           `json:"total_energy_kwh"`
	TotalCost      float64           `json:"total_cost"`
	AvgCostPerKWh  float64           `json:"avg_cost_per_kwh"`
	DateRange      dateRangePayload  `json:"date_range"`
	TopProviders   []topEntryPayload `json:"top_providers"`
	TopLocations   []topEntryPayload `json:"top_locations"`
}

func toSummaryPayload(s models.Summary) summaryPayload {
	return summaryPayload{
		RecordCount:    s.RecordCount,
		Locations:      s.Locations,
		Providers:      s.Providers,
		TotalEnergyKWh: s.TotalEnergyKWh,
		TotalCost:      s.TotalCost,
		AvgCostPerKWh:  s.AvgCostPerKWh,
		DateRange: dateRangePayload{
			FirstDate: formatWireTime(s.FirstDate),
			LastDate:  formatWireTime(s.LastDate),
		},
		TopProviders: toTopEntries(s.TopProviders),
		TopLocations: toTopEntries(s.TopLocations),
	}
}

func toTopEntries(entries []models.TopEntry) []topEntryPayload {
	payloads := make([]topEntryPayload, len(entries))
	for i, e := range entries {
		payloads[i] = topEntryPayload{Name: e.Name, TotalKWh: e.EnergyKWh}
	}
	return payloads
}

type monthlyPayload struct {
	Month     string  `json:"month"`
	TotalKWh  float64 `json:"total_kwh"`
	TotalCost float64 `json:"total_cost"`
}

type locationStatPayload struct {
	Location      string   `json:"location"`
	TotalKWh      float64  `json:"total_kwh"`
	TotalCost     float64  `json:"total_cost"`
	Sessions      int      `json:"sessions"`
	AvgCostPerKWh *float64 `json:"avg_cost_per_kwh"`
}

type providerStatPayload struct {
	Provider      string   `json:"provider"`
	TotalKWh      float64  `json:"total_kwh"`
	TotalCost     float64  `json:"total_cost"`
	Sessions      int      `json:"sessions"`
	AvgCostPerKWh *float64 `json:"avg_cost_per_kwh"`
	AvgPeakKW     *float64 `json:"avg_peak_kw,omitempty"`
}

type aggregatesPayload struct {
	Monthly         []monthlyPayload      `json:"monthly"`
	ByLocation      []locationStatPayload `json:"by_location"`
	ByProvider      []providerStatPayload `json:"by_provider"`
	EfficiencyTrend []float64             `json:"efficiency_trend,omitempty"`
}

func toAggregatesPayload(a models.Aggregates, trend []float64) aggregatesPayload {
	payload := aggregatesPayload{
		Monthly:         make([]monthlyPayload, len(a.Monthly)),
		ByLocation:      make([]locationStatPayload, len(a.ByLocation)),
		ByProvider:      make([]providerStatPayload, len(a.ByProvider)),
		EfficiencyTrend: trend,
	}
	for i, m := range a.Monthly {
		payload.Monthly[i] = monthlyPayload{
			Month:     m.Month.Format("2006-01"),
			TotalKWh:  m.EnergyKWh,
			TotalCost: m.CostTotal,
		}
	}
	for i, l := range a.ByLocation {
		payload.ByLocation[i] = locationStatPayload{
			Location:      l.Location,
			TotalKWh:      l.EnergyKWh,
			TotalCost:     l.CostTotal,
			Sessions:      l.Sessions,
			AvgCostPerKWh: l.AvgCostPerKWh,
		}
	}
	for i, p := range a.ByProvider {
		payload.ByProvider[i] = providerStatPayload{
			Provider:      p.Provider,
			TotalKWh:      p.EnergyKWh,
			TotalCost:     p.CostTotal,
			Sessions:      p.Sessions,
			AvgCostPerKWh: p.AvgCostPerKWh,
			AvgPeakKW:     p.AvgPeakKW,
		}
	}
	return payload
}

func formatWireTime(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(wireTimeLayout)
	return &s
}
