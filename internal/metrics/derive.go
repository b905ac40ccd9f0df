// Package metrics computes cross-record derived values over a normalized
// session set: trip distance from consecutive odometer readings, energy and
// cost efficiency, and the grouped aggregates behind the dashboard charts.
// All computation is deterministic, single-pass over sorted copies, and never
// mutates its input; values that cannot be computed stay absent instead of
// becoming sentinel floats.
package metrics

import (
	"math"
	"sort"
	"time"

	"evtrack/internal/models"
)

// Derive enriches sessions with distance and efficiency fields and builds the
// aggregate tables. Empty input yields an empty enriched set and empty
// aggregates.
func Derive(sessions []models.ChargingSession) ([]models.DerivedSession, models.Aggregates) {
	enriched := make([]models.DerivedSession, len(sessions))
	for i, s := range sessions {
		enriched[i] = models.DerivedSession{ChargingSession: s}
	}

	deriveDistances(enriched)

	aggregates := models.Aggregates{
		Monthly:    monthlyTotals(sessions),
		ByLocation: locationStats(sessions),
		ByProvider: providerStats(sessions),
	}
	return enriched, aggregates
}

// deriveDistances fills DistanceKm, CostPerKm and KWhPerKm in place. Only
// records with both an odometer reading and a timestamp participate; the
// subset is walked in ascending timestamp order with input order breaking
// ties. A non-increasing odometer yields an absent distance, never a
// negative one.
func deriveDistances(enriched []models.DerivedSession) {
	idx := make([]int, 0, len(enriched))
	for i, s := range enriched {
		if s.Odometer != nil && s.HasTimestamp() {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return enriched[idx[a]].Timestamp.Before(enriched[idx[b]].Timestamp)
	})

	for k := 1; k < len(idx); k++ {
		cur := &enriched[idx[k]]
		prev := enriched[idx[k-1]]

		distance := *cur.Odometer - *prev.Odometer
		if distance < 0 {
			continue
		}
		cur.DistanceKm = &distance
		cur.CostPerKm = safeRatio(cur.CostTotal, distance)
		cur.KWhPerKm = safeRatio(cur.EnergyKWh, distance)
	}
}

// safeRatio divides and returns nil instead of evaluating a division by zero
// or producing a non-finite result.
func safeRatio(numerator, denominator float64) *float64 {
	if denominator <= 0 {
		return nil
	}
	ratio := numerator / denominator
	if math.IsInf(ratio, 0) || math.IsNaN(ratio) {
		return nil
	}
	return &ratio
}

func monthlyTotals(sessions []models.ChargingSession) []models.MonthlyTotal {
	byMonth := make(map[string]*models.MonthlyTotal)
	for _, s := range sessions {
		if !s.HasTimestamp() {
			continue
		}
		month := monthStart(s)
		key := month.Format("2006-01")
		entry, ok := byMonth[key]
		if !ok {
			entry = &models.MonthlyTotal{Month: month}
			byMonth[key] = entry
		}
		entry.EnergyKWh += s.EnergyKWh
		entry.CostTotal += s.CostTotal
	}

	totals := make([]models.MonthlyTotal, 0, len(byMonth))
	for _, entry := range byMonth {
		totals = append(totals, *entry)
	}
	sort.Slice(totals, func(a, b int) bool { return totals[a].Month.Before(totals[b].Month) })
	return totals
}

func monthStart(s models.ChargingSession) time.Time {
	return time.Date(s.Timestamp.Year(), s.Timestamp.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func locationStats(sessions []models.ChargingSession) []models.LocationStat {
	byLocation := make(map[string]*models.LocationStat)
	order := make([]string, 0)
	for _, s := range sessions {
		if s.Location == "" {
			continue
		}
		entry, ok := byLocation[s.Location]
		if !ok {
			entry = &models.LocationStat{Location: s.Location}
			byLocation[s.Location] = entry
			order = append(order, s.Location)
		}
		entry.EnergyKWh += s.EnergyKWh
		entry.CostTotal += s.CostTotal
		entry.Sessions++
	}

	stats := make([]models.LocationStat, 0, len(order))
	for _, location := range order {
		entry := byLocation[location]
		// Group-level average over summed totals, not a mean of per-session
		// ratios, so small sessions do not skew the figure.
		entry.AvgCostPerKWh = safeRatio(entry.CostTotal, entry.EnergyKWh)
		stats = append(stats, *entry)
	}
	sort.SliceStable(stats, func(a, b int) bool { return stats[a].CostTotal > stats[b].CostTotal })
	return stats
}

func providerStats(sessions []models.ChargingSession) []models.ProviderStat {
	byProvider := make(map[string]*models.ProviderStat)
	order := make([]string, 0)
	peakSums := make(map[string]float64)
	peakCounts := make(map[string]int)

	for _, s := range sessions {
		if s.Provider == "" {
			continue
		}
		entry, ok := byProvider[s.Provider]
		if !ok {
			entry = &models.ProviderStat{Provider: s.Provider}
			byProvider[s.Provider] = entry
			order = append(order, s.Provider)
		}
		entry.EnergyKWh += s.EnergyKWh
		entry.CostTotal += s.CostTotal
		entry.Sessions++
		if s.PeakPowerKW != nil {
			peakSums[s.Provider] += *s.PeakPowerKW
			peakCounts[s.Provider]++
		}
	}

	stats := make([]models.ProviderStat, 0, len(order))
	for _, provider := range order {
		entry := byProvider[provider]
		entry.AvgCostPerKWh = safeRatio(entry.CostTotal, entry.EnergyKWh)
		if count := peakCounts[provider]; count > 0 {
			avg := peakSums[provider] / float64(count)
			entry.AvgPeakKW = &avg
		}
		stats = append(stats, *entry)
	}
	sort.SliceStable(stats, func(a, b int) bool { return stats[a].CostTotal > stats[b].CostTotal })
	return stats
}
