package metrics

import (
	"sort"

	"evtrack/internal/models"
)

// topEntries is how many providers/locations the summary ranks.
const topEntries = 5

// Summarize computes the headline statistics for a user's dataset. A nil or
// empty input produces a zero-valued summary, never an error.
func Summarize(sessions []models.ChargingSession) models.Summary {
	summary := models.Summary{RecordCount: len(sessions)}
	if len(sessions) == 0 {
		return summary
	}

	locationKWh := make(map[string]float64)
	providerKWh := make(map[string]float64)

	for _, s := range sessions {
		summary.TotalEnergyKWh += s.EnergyKWh
		summary.TotalCost += s.CostTotal
		if s.Location != "" {
			locationKWh[s.Location] += s.EnergyKWh
		}
		if s.Provider != "" {
			providerKWh[s.Provider] += s.EnergyKWh
		}
		if s.HasTimestamp() {
			ts := s.Timestamp
			if summary.FirstDate == nil || ts.Before(*summary.FirstDate) {
				first := ts
				summary.FirstDate = &first
			}
			if summary.LastDate == nil || ts.After(*summary.LastDate) {
				last := ts
				summary.LastDate = &last
			}
		}
	}

	summary.Locations = len(locationKWh)
	summary.Providers = len(providerKWh)
	if summary.TotalEnergyKWh > 0 {
		summary.AvgCostPerKWh = summary.TotalCost / summary.TotalEnergyKWh
	}
	summary.TopProviders = topByEnergy(providerKWh)
	summary.TopLocations = topByEnergy(locationKWh)
	return summary
}

func topByEnergy(totals map[string]float64) []models.TopEntry {
	entries := make([]models.TopEntry, 0, len(totals))
	for name, kwh := range totals {
		entries = append(entries, models.TopEntry{Name: name, EnergyKWh: kwh})
	}
	sort.Slice(entries, func(a, b int) bool {
		if entries[a].EnergyKWh != entries[b].EnergyKWh {
			return entries[a].EnergyKWh > entries[b].EnergyKWh
		}
		return entries[a].Name < entries[b].Name
	})
	if len(entries) > topEntries {
		entries = entries[:topEntries]
	}
	return entries
}
