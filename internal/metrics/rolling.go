package metrics

import (
	"sort"

	"evtrack/internal/models"
)

// RollingWindow is the trailing window length of the efficiency trend line.
const RollingWindow = 3

// MinTrendPoints is the minimum number of efficiency values required before
// a trend line is rendered at all.
const MinTrendPoints = 3

// RollingAverage computes a trailing moving average over values. Early points
// average over however many values are available (min_periods=1), so the
// output has the same length as the input.
func RollingAverage(values []float64, window int) []float64 {
	if window <= 0 {
		window = RollingWindow
	}
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		span := i + 1
		if span > window {
			span = window
		}
		out[i] = sum / float64(span)
	}
	return out
}

// EfficiencyTrend collects the kWh/km values of an enriched set in ascending
// timestamp order (input order breaking ties) and returns their rolling
// average. Fewer than MinTrendPoints computable values yield nil: the trend
// line is omitted, not zero-filled.
func EfficiencyTrend(enriched []models.DerivedSession) []float64 {
	idx := make([]int, 0, len(enriched))
	for i, s := range enriched {
		if s.KWhPerKm != nil && s.HasTimestamp() {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return enriched[idx[a]].Timestamp.Before(enriched[idx[b]].Timestamp)
	})

	if len(idx) < MinTrendPoints {
		return nil
	}
	values := make([]float64, len(idx))
	for k, i := range idx {
		values[k] = *enriched[i].KWhPerKm
	}
	return RollingAverage(values, RollingWindow)
}
