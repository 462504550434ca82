package model

import "time"

// WorstDriver is a projection over validated reports, keyed by vehicle number.
// It is never stored; the leaderboard recomputes it on every fetch.
type WorstDriver struct {
	VehicleNumber string    `json:"vehicle_number"`
	Violations    int64     `json:"violations"`
	Points        int64     `json:"points"`
	Location      string    `json:"location"`
	LastViolation time.Time `json:"last_violation"`
	Rank          int       `json:"rank"`
}

// VehicleTypeCount is one aggregation row: validated reports for a vehicle,
// grouped by violation type.
type VehicleTypeCount struct {
	VehicleNumber string
	Type          ViolationType
	Count         int64
	LastAt        time.Time
}

// VehicleLocation carries the location of a vehicle's most recent validated
// report.
type VehicleLocation struct {
	VehicleNumber string
	Location      string
}

type Leaderboard struct {
	Drivers         []WorstDriver `json:"drivers"`
	TotalViolations int64         `json:"total_violations"`
	TotalPoints     int64         `json:"total_points"`
	GeneratedAt     time.Time     `json:"generated_at"`
}
