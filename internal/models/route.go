package models

import "time"

// RouteStatus represents the lifecycle state of a route
type RouteStatus string

const (
	RouteStatusPlanned    RouteStatus = "Planned"
	RouteStatusInProgress RouteStatus = "InProgress"
	RouteStatusCompleted  RouteStatus = "Completed"
	RouteStatusCancelled  RouteStatus = "Cancelled"
)

// IsTerminal reports whether no further status transition is allowed
func (s RouteStatus) IsTerminal() bool {
	return s == RouteStatusCompleted || s == RouteStatusCancelled
}

// Route represents a planned or active trip for one driver.
// Terminal routes are immutable except for notes.
type Route struct {
	ID             int64       `json:"id" db:"id"`
	DriverID       int64       `json:"driver_id" db:"driver_id"`
	StartLocation  string      `json:"start_location" db:"start_location"`
	EndLocation    string      `json:"end_location" db:"end_location"`
	StartLatitude  float64     `json:"start_latitude" db:"start_latitude"`
	StartLongitude float64     `json:"start_longitude" db:"start_longitude"`
	EndLatitude    float64     `json:"end_latitude" db:"end_latitude"`
	EndLongitude   float64     `json:"end_longitude" db:"end_longitude"`
	StartTime      time.Time   `json:"start_time" db:"start_time"`
	EndTime        NullTime    `json:"end_time,omitempty" db:"end_time"`
	Status         RouteStatus `json:"status" db:"status"`
	EstimatedKm    NullFloat64 `json:"estimated_km,omitempty" db:"estimated_km"`
	ActualKm       NullFloat64 `json:"actual_km,omitempty" db:"actual_km"`
	RiskLevel      NullString  `json:"risk_level,omitempty" db:"risk_level"`
	Notes          NullString  `json:"notes,omitempty" db:"notes"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" db:"updated_at"`
}
