package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evtrack/internal/models"
)

func floatPtr(v float64) *float64 { return &v }

func TestSessionPayloadUsesWireNames(t *testing.T) {
	session := models.ChargingSession{
		ID:          "abc",
		Timestamp:   time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC),
		EnergyKWh:   42.5,
		CostTotal:   12.75,
		CostPerKWh:  0.30,
		PeakPowerKW: floatPtr(50),
		Location:    "Westfield Doncaster",
		Coordinates: &orb.Point{145.1234, -37.7833},
		Provider:    "Chargefox",
		Source:      models.SourceCSV,
	}

	raw, err := json.Marshal(toSessionPayload(session))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "2024-03-10T08:30:00", decoded["date"])
	assert.Equal(t, 42.5, decoded["total_kwh"])
	assert.Equal(t, 12.75, decoded["total_cost"])
	assert.Equal(t, 0.30, decoded["cost_per_kwh"])
	assert.Equal(t, 50.0, decoded["peak_kw"])
	assert.Equal(t, -37.7833, decoded["latitude"])
	assert.Equal(t, 145.1234, decoded["longitude"])
	assert.NotContains(t, decoded, "distance", "plain records omit derived fields")
}

func TestSessionPayloadNullDateWhenUndated(t *testing.T) {
	raw, err := json.Marshal(toSessionPayload(models.ChargingSession{ID: "x", EnergyKWh: 5}))
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Contains(t, decoded, "date")
	assert.Nil(t, decoded["date"])
}

func TestDerivedPayloadCarriesMetrics(t *testing.T) {
	derived := models.DerivedSession{
		ChargingSession: models.ChargingSession{ID: "abc", EnergyKWh: 10, CostTotal: 4},
		DistanceKm:      floatPtr(50),
		CostPerKm:       floatPtr(0.08),
		KWhPerKm:        floatPtr(0.2),
	}

	payload := toDerivedPayload(derived)
	require.NotNil(t, payload.Distance)
	assert.Equal(t, 50.0, *payload.Distance)
	require.NotNil(t, payload.CostPerKm)
	assert.Equal(t, 0.08, *payload.CostPerKm)
	require.NotNil(t, payload.KWhPerKm)
	assert.Equal(t, 0.2, *payload.KWhPerKm)
}

func TestExportRowMatchesHeaderOrder(t *testing.T) {
	derived := models.DerivedSession{
		ChargingSession: models.ChargingSession{
			Timestamp: time.Date(2024, 3, 10, 8, 30, 0, 0, time.UTC),
			EnergyKWh: 42.5,
			CostTotal: 12.75,
			Provider:  "Chargefox",
			Location:  "Westfield Doncaster",
			Source:    models.SourceCSV,
		},
		DistanceKm: floatPtr(50),
	}

	row := exportRow(derived)
	require.Len(t, row, len(exportHeaders))
	assert.Equal(t, "2024-03-10 08:30:00", row[0])
	assert.Equal(t, 42.5, row[1])
	assert.Equal(t, "Westfield Doncaster", row[5])
	assert.Equal(t, "Chargefox", row[6])
	assert.Nil(t, row[4], "absent peak power exports as an empty cell")
	assert.Equal(t, 50.0, row[9])
	assert.Equal(t, "csv", row[12])
}

func TestBuildCSVExport(t *testing.T) {
	sessions := []models.DerivedSession{
		{ChargingSession: models.ChargingSession{EnergyKWh: 10, CostTotal: 3, Provider: "EVCC", Source: models.SourceCSV}},
	}

	data, err := buildCSVExport(sessions)
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "Date,Energy (kWh),Cost")
	assert.Contains(t, out, "EVCC")
}
