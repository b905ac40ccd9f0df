package importer

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evtrack/internal/models"
	"evtrack/internal/normalize"
)

const evccSample = `Created,Loadpoint,Vehicle,Mileage (km),Energy (kWh),Duration,Price,Price/kWh
2025-03-01 08:00:00,Garage,ID.3,12000,18.5,2h 10m,5.55,0.30
2025-03-04 19:30:00,Garage,ID.3,12310,22.1,3h 5m,6.63,0.30
`

func TestParseEVCCCSV(t *testing.T) {
	raw, err := ParseEVCCCSV(strings.NewReader(evccSample))
	require.NoError(t, err)
	require.Len(t, raw, 2)

	sessions, dropped := normalize.Normalize(raw)
	require.Equal(t, 0, dropped)
	require.Len(t, sessions, 2)

	first := sessions[0]
	assert.Equal(t, models.SourceCSV, first.Source)
	assert.Equal(t, "Garage", first.Location)
	assert.Equal(t, 18.5, first.EnergyKWh)
	assert.Equal(t, 5.55, first.CostTotal)
	require.NotNil(t, first.Odometer)
	assert.Equal(t, 12000.0, *first.Odometer)
	assert.True(t, first.Timestamp.Equal(time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)))
}

func TestParseEVCCCSVEmptyBody(t *testing.T) {
	raw, err := ParseEVCCCSV(strings.NewReader("Created,Energy (kWh)\n"))
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestRawFromTesla(t *testing.T) {
	odo := 43210.5
	cost := 14.2
	raw := RawFromTesla([]TeslaChargeRecord{
		{
			SessionID:         "tsla-1",
			ChargeStartTime:   time.Date(2025, 3, 2, 13, 0, 0, 0, time.UTC),
			EnergyAddedKWh:    31.4,
			ChargerPowerKW:    120,
			OdometerKm:        &odo,
			SiteName:          "Supercharger Alpha",
			CostTotal:         &cost,
			ChargeDurationMin: 95,
		},
	})
	require.Len(t, raw, 1)

	sessions, dropped := normalize.Normalize(raw)
	require.Equal(t, 0, dropped)
	require.Len(t, sessions, 1)

	s := sessions[0]
	assert.Equal(t, models.SourceAPI, s.Source)
	assert.Equal(t, "tsla-1", s.ID)
	assert.Equal(t, "Tesla", s.Provider)
	assert.Equal(t, 31.4, s.EnergyKWh)
	assert.Equal(t, 14.2, s.CostTotal)
	require.NotNil(t, s.PeakPowerKW)
	assert.Equal(t, 120.0, *s.PeakPowerKW)
	assert.Equal(t, "1h 35m", s.Duration)
}
