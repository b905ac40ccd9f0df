package models

import "time"

// MonthlyTotal sums energy and cost for one calendar month.
type MonthlyTotal struct {
	Month     time.Time
	EnergyKWh float64
	CostTotal float64
}

// LocationStat sums energy and cost for one location.
type LocationStat struct {
	Location      string
	EnergyKWh     float64
	CostTotal     float64
	Sessions      int
	AvgCostPerKWh *float64
}

// ProviderStat sums energy and cost for one charging network.
type ProviderStat struct {
	Provider      string
	EnergyKWh     float64
	CostTotal     float64
	Sessions      int
	AvgCostPerKWh *float64
	AvgPeakKW     *float64
}

// Aggregates bundles the grouped tables fed to chart construction.
type Aggregates struct {
	Monthly    []MonthlyTotal
	ByLocation []LocationStat
	ByProvider []ProviderStat
}

// TopEntry is one row of a top-N ranking in the summary.
type TopEntry struct {
	Name      string
	EnergyKWh float64
}

// Summary holds the dashboard headline statistics.
type Summary struct {
	RecordCount    int
	Locations      int
	Providers      int
	TotalEnergyKWh float64
	TotalCost      float64
	AvgCostPerKWh  float64
	FirstDate      *time.Time
	LastDate       *time.Time
	TopProviders   []TopEntry
	TopLocations   []TopEntry
}
