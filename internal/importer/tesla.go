package importer

import (
	"fmt"
	"time"

	"evtrack/internal/normalize"
)

// TeslaChargeRecord mirrors the charge history entries the Tesla owner API
// returns for a vehicle.
type TeslaChargeRecord struct {
	SessionID         string    `json:"session_id"`
	ChargeStartTime   time.Time `json:"charge_start_time"`
	EnergyAddedKWh    float64   `json:"charge_energy_added"`
	ChargerPowerKW    float64   `json:"charger_power"`
	OdometerKm        *float64  `json:"odometer"`
	SiteName          string    `json:"site_name"`
	CostTotal         *float64  `json:"cost_total"`
	ChargeDurationMin float64   `json:"charge_duration_min"`
}

// RawFromTesla maps polled Tesla charge records into raw records. Supercharger
// sessions carry a site name and cost; home charging often has neither.
func RawFromTesla(records []TeslaChargeRecord) []normalize.RawRecord {
	raw := make([]normalize.RawRecord, 0, len(records))
	for _, rec := range records {
		r := normalize.RawRecord{
			"source":     "tesla api",
			"provider":   "Tesla",
			"timestamp":  rec.ChargeStartTime,
			"energy_kwh": rec.EnergyAddedKWh,
			"location":   rec.SiteName,
		}
		if rec.SessionID != "" {
			r["id"] = rec.SessionID
		}
		if rec.ChargerPowerKW > 0 {
			r["peak_kw"] = rec.ChargerPowerKW
		}
		if rec.OdometerKm != nil {
			r["odometer"] = *rec.OdometerKm
		}
		if rec.CostTotal != nil {
			r["total_cost"] = *rec.CostTotal
		}
		if rec.ChargeDurationMin > 0 {
			r["duration"] = formatMinutes(rec.ChargeDurationMin)
		}
		raw = append(raw, r)
	}
	return raw
}

func formatMinutes(minutes float64) string {
	d := time.Duration(minutes * float64(time.Minute)).Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh %dm", h, m)
}
