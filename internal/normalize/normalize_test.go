package normalize

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evtrack/internal/models"
)

func TestNormalizeEmptyInput(t *testing.T) {
	sessions, dropped := Normalize(nil)
	assert.Empty(t, sessions)
	assert.Equal(t, 0, dropped)

	sessions, dropped = Normalize([]RawRecord{})
	assert.Empty(t, sessions)
	assert.Equal(t, 0, dropped)
}

func TestNormalizeAliasPriority(t *testing.T) {
	sessions, dropped := Normalize([]RawRecord{
		{
			"timestamp":  "2025-03-01T08:00:00",
			"energy_kwh": 42.0,
			"total_kwh":  99.0,
			"cost_total": 10.0,
			"total_cost": 77.0,
		},
	})
	require.Equal(t, 0, dropped)
	require.Len(t, sessions, 1)
	assert.Equal(t, 42.0, sessions[0].EnergyKWh, "energy_kwh must win over total_kwh")
	assert.Equal(t, 10.0, sessions[0].CostTotal, "cost_total must win over total_cost")
}

func TestNormalizeCoercesStringNumbers(t *testing.T) {
	sessions, _ := Normalize([]RawRecord{
		{
			"date":       "2025-03-01",
			"total_kwh":  "12.5 kWh",
			"total_cost": "$4.50",
			"peak_kw":    "50",
			"odometer":   "1,250",
		},
	})
	require.Len(t, sessions, 1)
	s := sessions[0]
	assert.Equal(t, 12.5, s.EnergyKWh)
	assert.Equal(t, 4.5, s.CostTotal)
	require.NotNil(t, s.PeakPowerKW)
	assert.Equal(t, 50.0, *s.PeakPowerKW)
	require.NotNil(t, s.Odometer)
	assert.Equal(t, 1250.0, *s.Odometer)
}

func TestNormalizeNeverEmitsNegatives(t *testing.T) {
	sessions, _ := Normalize([]RawRecord{
		{
			"timestamp":  "2025-03-01T08:00:00",
			"energy_kwh": -5.0,
			"cost_total": -2.0,
			"peak_kw":    -11.0,
			"odometer":   -1.0,
		},
	})
	require.Len(t, sessions, 1)
	s := sessions[0]
	assert.Equal(t, 0.0, s.EnergyKWh)
	assert.Equal(t, 0.0, s.CostTotal)
	assert.Nil(t, s.PeakPowerKW, "negative peak power is nulled, not propagated")
	assert.Nil(t, s.Odometer, "negative odometer is nulled, not propagated")
}

func TestNormalizeDropsOnlyFullyUnparseable(t *testing.T) {
	sessions, dropped := Normalize([]RawRecord{
		{"location": "Somewhere"},                              // no timestamp, no energy: dropped
		{"energy_kwh": 8.0},                                    // energy but no timestamp: kept
		{"timestamp": "2025-03-01T08:00:00"},                   // timestamp but no energy: kept
		{"timestamp": "not a date", "energy_kwh": "not a num"}, // both unresolvable: dropped
	})
	assert.Equal(t, 2, dropped)
	require.Len(t, sessions, 2)
	assert.False(t, sessions[0].HasTimestamp())
	assert.Equal(t, 8.0, sessions[0].EnergyKWh)
	assert.True(t, sessions[1].HasTimestamp())
}

func TestNormalizeTimezonePolicy(t *testing.T) {
	sessions, dropped := Normalize([]RawRecord{
		{"timestamp": "2025-01-01T10:00:00+10:00", "energy_kwh": 1.0},
		{"timestamp": "2025-01-01T00:00:00", "energy_kwh": 2.0},
	})
	require.Equal(t, 0, dropped)
	require.Len(t, sessions, 2)

	aware := sessions[0].Timestamp
	naive := sessions[1].Timestamp
	assert.Equal(t, time.UTC, aware.Location())
	assert.Equal(t, time.UTC, naive.Location())
	// +10:00 at 10am is midnight UTC: both land on the same naive instant
	// and compare without error.
	assert.True(t, aware.Equal(naive))
}

func TestNormalizeDerivesRateAndCost(t *testing.T) {
	sessions, _ := Normalize([]RawRecord{
		{"date": "2025-03-01", "energy_kwh": 10.0, "cost_total": 4.0},
		{"date": "2025-03-02", "energy_kwh": 10.0, "cost_per_kwh": 0.5},
	})
	require.Len(t, sessions, 2)
	assert.Equal(t, 0.4, sessions[0].CostPerKWh)
	assert.Equal(t, 5.0, sessions[1].CostTotal)
}

func TestNormalizeInfersPeakFromDuration(t *testing.T) {
	sessions, _ := Normalize([]RawRecord{
		{"date": "2025-03-01", "energy_kwh": 15.0, "duration": "1h 30m"},
	})
	require.Len(t, sessions, 1)
	require.NotNil(t, sessions[0].PeakPowerKW)
	assert.InDelta(t, 10.0, *sessions[0].PeakPowerKW, 1e-9)
}

func TestNormalizeSourceTags(t *testing.T) {
	cases := map[string]models.Source{
		"Email":     models.SourceEmail,
		"PDF":       models.SourcePDF,
		"EVCC CSV":  models.SourceCSV,
		"Tesla API": models.SourceAPI,
		"":          models.SourceManual,
	}
	for raw, want := range cases {
		sessions, _ := Normalize([]RawRecord{
			{"date": "2025-03-01", "energy_kwh": 1.0, "source": raw},
		})
		require.Len(t, sessions, 1)
		assert.Equal(t, want, sessions[0].Source, "source %q", raw)
	}
}

func TestNormalizeCoordinates(t *testing.T) {
	sessions, _ := Normalize([]RawRecord{
		{"date": "2025-03-01", "energy_kwh": 1.0, "latitude": -33.87, "longitude": 151.21},
		{"date": "2025-03-02", "energy_kwh": 1.0, "latitude": -33.87},
	})
	require.Len(t, sessions, 2)
	require.NotNil(t, sessions[0].Coordinates)
	assert.Equal(t, 151.21, sessions[0].Coordinates.Lon())
	assert.Equal(t, -33.87, sessions[0].Coordinates.Lat())
	assert.Nil(t, sessions[1].Coordinates, "a lone latitude is not a coordinate pair")
}

func TestNormalizeCombinesDateAndClock(t *testing.T) {
	sessions, _ := Normalize([]RawRecord{
		{"date": "2025-03-01", "time": "2:30 PM", "energy_kwh": 1.0},
	})
	require.Len(t, sessions, 1)
	want := time.Date(2025, 3, 1, 14, 30, 0, 0, time.UTC)
	assert.True(t, sessions[0].Timestamp.Equal(want))
}

func TestNormalizeIdempotent(t *testing.T) {
	first, dropped := Normalize([]RawRecord{
		{
			"id":           "abc",
			"timestamp":    "2025-03-01T08:00:00",
			"energy_kwh":   12.5,
			"cost_total":   5.0,
			"peak_power_kw": 40.0,
			"location":     "Home",
			"provider":     "Grid Co",
			"odometer":     1000.0,
			"source":       "csv",
		},
	})
	require.Equal(t, 0, dropped)
	require.Len(t, first, 1)

	again, dropped := Normalize([]RawRecord{canonicalRaw(first[0])})
	require.Equal(t, 0, dropped)
	require.Len(t, again, 1)
	assert.Equal(t, first[0], again[0])
}

// canonicalRaw rebuilds a raw record under canonical field names, as a
// re-import of already-normalized data would present it.
func canonicalRaw(s models.ChargingSession) RawRecord {
	raw := RawRecord{
		"id":           s.ID,
		"timestamp":    s.Timestamp,
		"energy_kwh":   s.EnergyKWh,
		"cost_total":   s.CostTotal,
		"cost_per_kwh": s.CostPerKWh,
		"location":     s.Location,
		"provider":     s.Provider,
		"duration":     s.Duration,
		"source":       string(s.Source),
	}
	if s.PeakPowerKW != nil {
		raw["peak_power_kw"] = *s.PeakPowerKW
	}
	if s.Odometer != nil {
		raw["odometer"] = *s.Odometer
	}
	return raw
}

func TestNormalizeDoesNotMutateInput(t *testing.T) {
	rec := RawRecord{"timestamp": "2025-03-01T08:00:00", "energy_kwh": -3.0}
	_, _ = Normalize([]RawRecord{rec})
	assert.Equal(t, -3.0, rec["energy_kwh"])
}
