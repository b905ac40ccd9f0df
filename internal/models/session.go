package models

import (
	"time"

	"github.com/paulmach/orb"
)

// Source identifies where a charging record was ingested from.
type Source string

// Known ingestion sources.
const (
	SourceEmail  Source = "email"
	SourcePDF    Source = "pdf"
	SourceCSV    Source = "csv"
	SourceAPI    Source = "api"
	SourceManual Source = "manual"
)

// ChargingSession is one normalized charging event. Timestamp is naive:
// always located in time.UTC, a zero value means the record carries no
// resolvable timestamp and is excluded from sort-dependent computations.
type ChargingSession struct {
	ID          string     `db:"id"`
	UserID      int64      `db:"user_id"`
	Timestamp   time.Time  `db:"ts"`
	EnergyKWh   float64    `db:"energy_kwh"`
	CostTotal   float64    `db:"cost_total"`
	CostPerKWh  float64    `db:"cost_per_kwh"`
	PeakPowerKW *float64   `db:"peak_kw"`
	Location    string     `db:"location"`
	Coordinates *orb.Point `db:"-"`
	Provider    string     `db:"provider"`
	Duration    string     `db:"duration"`
	Odometer    *float64   `db:"odometer"`
	Source      Source     `db:"source"`
}

// HasTimestamp reports whether the record carries a resolvable timestamp.
func (s ChargingSession) HasTimestamp() bool {
	return !s.Timestamp.IsZero()
}

// DerivedSession is a ChargingSession enriched with cross-record derived
// values. Derived values are recomputed on every read and never persisted;
// a nil field means the value is not computable for this record.
type DerivedSession struct {
	ChargingSession

	DistanceKm *float64
	CostPerKm  *float64
	KWhPerKm   *float64
}
