package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evtrack/internal/models"
)

func day(d int) time.Time {
	return time.Date(2025, 3, d, 8, 0, 0, 0, time.UTC)
}

func ptr(f float64) *float64 { return &f }

func odoSession(d int, odometer, energy, cost float64) models.ChargingSession {
	return models.ChargingSession{
		ID:        "s" + time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC).Format("02"),
		Timestamp: day(d),
		EnergyKWh: energy,
		CostTotal: cost,
		Odometer:  ptr(odometer),
	}
}

func TestDeriveEmptyInput(t *testing.T) {
	enriched, aggregates := Derive(nil)
	assert.Empty(t, enriched)
	assert.Empty(t, aggregates.Monthly)
	assert.Empty(t, aggregates.ByLocation)
	assert.Empty(t, aggregates.ByProvider)
}

func TestDeriveDistancesNullsNegativeGaps(t *testing.T) {
	sessions := []models.ChargingSession{
		odoSession(1, 100, 10, 5),
		odoSession(2, 150, 10, 5),
		odoSession(3, 140, 10, 5),
		odoSession(4, 200, 10, 5),
	}
	enriched, _ := Derive(sessions)
	require.Len(t, enriched, 4)

	assert.Nil(t, enriched[0].DistanceKm, "first reading has no predecessor")
	require.NotNil(t, enriched[1].DistanceKm)
	assert.Equal(t, 50.0, *enriched[1].DistanceKm)
	assert.Nil(t, enriched[2].DistanceKm, "decreasing odometer must yield absent, not -10")
	require.NotNil(t, enriched[3].DistanceKm)
	assert.Equal(t, 60.0, *enriched[3].DistanceKm)
}

func TestDeriveEfficiency(t *testing.T) {
	sessions := []models.ChargingSession{
		odoSession(1, 1000, 8, 10),
		odoSession(2, 1050, 10, 20),
	}
	enriched, _ := Derive(sessions)
	require.NotNil(t, enriched[1].CostPerKm)
	assert.InDelta(t, 0.40, *enriched[1].CostPerKm, 1e-9)
	require.NotNil(t, enriched[1].KWhPerKm)
	assert.InDelta(t, 0.20, *enriched[1].KWhPerKm, 1e-9)
}

func TestDeriveZeroDistanceYieldsAbsentEfficiency(t *testing.T) {
	sessions := []models.ChargingSession{
		odoSession(1, 1000, 8, 10),
		odoSession(2, 1000, 10, 20),
	}
	enriched, _ := Derive(sessions)
	require.NotNil(t, enriched[1].DistanceKm)
	assert.Equal(t, 0.0, *enriched[1].DistanceKm)
	assert.Nil(t, enriched[1].CostPerKm, "zero distance must not produce +Inf")
	assert.Nil(t, enriched[1].KWhPerKm)
}

func TestDeriveSkipsRecordsWithoutOdometerOrTimestamp(t *testing.T) {
	noOdo := models.ChargingSession{ID: "a", Timestamp: day(2), EnergyKWh: 5}
	noTS := models.ChargingSession{ID: "b", EnergyKWh: 5, Odometer: ptr(1025)}
	sessions := []models.ChargingSession{
		odoSession(1, 1000, 8, 10),
		noOdo,
		noTS,
		odoSession(3, 1100, 10, 20),
	}
	enriched, _ := Derive(sessions)
	assert.Nil(t, enriched[1].DistanceKm)
	assert.Nil(t, enriched[2].DistanceKm)
	require.NotNil(t, enriched[3].DistanceKm)
	assert.Equal(t, 100.0, *enriched[3].DistanceKm, "gap spans only odometer-bearing records")
}

func TestDeriveDoesNotMutateInput(t *testing.T) {
	sessions := []models.ChargingSession{
		odoSession(2, 1050, 10, 20),
		odoSession(1, 1000, 8, 10),
	}
	_, _ = Derive(sessions)
	assert.Equal(t, "s02", sessions[0].ID, "input order must be preserved")
	assert.Equal(t, "s01", sessions[1].ID)
}

func TestProviderAverageUsesSummedTotals(t *testing.T) {
	sessions := []models.ChargingSession{
		{Timestamp: day(1), Provider: "Grid Co", EnergyKWh: 10, CostTotal: 5, CostPerKWh: 0.5},
		{Timestamp: day(2), Provider: "Grid Co", EnergyKWh: 40, CostTotal: 12, CostPerKWh: 0.3},
	}
	_, aggregates := Derive(sessions)
	require.Len(t, aggregates.ByProvider, 1)
	stat := aggregates.ByProvider[0]
	require.NotNil(t, stat.AvgCostPerKWh)
	// 17/50, not the 0.40 a mean of per-session rates would give.
	assert.InDelta(t, 0.34, *stat.AvgCostPerKWh, 1e-9)
	assert.Equal(t, 2, stat.Sessions)
}

func TestAggregatesSortedByTotalCostDescending(t *testing.T) {
	sessions := []models.ChargingSession{
		{Timestamp: day(1), Provider: "Cheap", Location: "A", EnergyKWh: 10, CostTotal: 2},
		{Timestamp: day(2), Provider: "Pricey", Location: "B", EnergyKWh: 10, CostTotal: 9},
	}
	_, aggregates := Derive(sessions)
	require.Len(t, aggregates.ByProvider, 2)
	assert.Equal(t, "Pricey", aggregates.ByProvider[0].Provider)
	require.Len(t, aggregates.ByLocation, 2)
	assert.Equal(t, "B", aggregates.ByLocation[0].Location)
}

func TestMonthlyTotals(t *testing.T) {
	sessions := []models.ChargingSession{
		{Timestamp: time.Date(2025, 1, 5, 10, 0, 0, 0, time.UTC), EnergyKWh: 10, CostTotal: 4},
		{Timestamp: time.Date(2025, 1, 20, 10, 0, 0, 0, time.UTC), EnergyKWh: 20, CostTotal: 6},
		{Timestamp: time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC), EnergyKWh: 5, CostTotal: 2},
		{EnergyKWh: 99, CostTotal: 99}, // no timestamp: excluded from monthly grouping
	}
	_, aggregates := Derive(sessions)
	require.Len(t, aggregates.Monthly, 2)

	jan := aggregates.Monthly[0]
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), jan.Month)
	assert.Equal(t, 30.0, jan.EnergyKWh)
	assert.Equal(t, 10.0, jan.CostTotal)

	feb := aggregates.Monthly[1]
	assert.Equal(t, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), feb.Month)
	assert.Equal(t, 5.0, feb.EnergyKWh)
}

func TestDeriveDeterministic(t *testing.T) {
	sessions := []models.ChargingSession{
		odoSession(1, 100, 10, 5),
		odoSession(2, 150, 10, 5),
		{Timestamp: day(3), Provider: "Grid Co", Location: "A", EnergyKWh: 7, CostTotal: 3},
	}
	enriched1, agg1 := Derive(sessions)
	enriched2, agg2 := Derive(sessions)
	assert.Equal(t, enriched1, enriched2)
	assert.Equal(t, agg1, agg2)
}

func TestRollingAverageMinPeriodsOne(t *testing.T) {
	got := RollingAverage([]float64{0.20, 0.22, 0.18, 0.24}, 3)
	require.Len(t, got, 4)
	assert.InDelta(t, 0.20, got[0], 1e-9)
	assert.InDelta(t, 0.21, got[1], 1e-9)
	assert.InDelta(t, 0.20, got[2], 1e-9)
	assert.InDelta(t, (0.22+0.18+0.24)/3, got[3], 1e-9)
}

func TestEfficiencyTrendRequiresThreePoints(t *testing.T) {
	sessions := []models.ChargingSession{
		odoSession(1, 1000, 10, 5),
		odoSession(2, 1050, 10, 5),
		odoSession(3, 1100, 10, 5),
	}
	enriched, _ := Derive(sessions)
	// Only two records gain an efficiency value (the first has no gap).
	assert.Nil(t, EfficiencyTrend(enriched), "trend is omitted below 3 points, not zero-filled")

	sessions = append(sessions, odoSession(4, 1150, 10, 5), odoSession(5, 1200, 10, 5))
	enriched, _ = Derive(sessions)
	trend := EfficiencyTrend(enriched)
	require.Len(t, trend, 4)
	assert.InDelta(t, 0.2, trend[0], 1e-9)
}

func TestSummarize(t *testing.T) {
	sessions := []models.ChargingSession{
		{Timestamp: day(1), Provider: "Grid Co", Location: "Home", EnergyKWh: 10, CostTotal: 5},
		{Timestamp: day(5), Provider: "FastNet", Location: "Mall", EnergyKWh: 40, CostTotal: 12},
	}
	summary := Summarize(sessions)
	assert.Equal(t, 2, summary.RecordCount)
	assert.Equal(t, 2, summary.Locations)
	assert.Equal(t, 2, summary.Providers)
	assert.Equal(t, 50.0, summary.TotalEnergyKWh)
	assert.Equal(t, 17.0, summary.TotalCost)
	assert.InDelta(t, 0.34, summary.AvgCostPerKWh, 1e-9)
	require.NotNil(t, summary.FirstDate)
	assert.True(t, summary.FirstDate.Equal(day(1)))
	require.NotNil(t, summary.LastDate)
	assert.True(t, summary.LastDate.Equal(day(5)))
	require.NotEmpty(t, summary.TopProviders)
	assert.Equal(t, "FastNet", summary.TopProviders[0].Name)
}

func TestSummarizeEmpty(t *testing.T) {
	summary := Summarize(nil)
	assert.Equal(t, 0, summary.RecordCount)
	assert.Equal(t, 0.0, summary.AvgCostPerKWh)
	assert.Nil(t, summary.FirstDate)
}
