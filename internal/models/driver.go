package models

import "time"

// Driver represents a vehicle operator. Drivers own their emergency contacts,
// routes, panic alerts, incidents and notifications; they cannot be deleted
// while routes or incidents still reference them.
type Driver struct {
	ID                  int64      `json:"id" db:"id"`
	UserID              string     `json:"user_id" db:"user_id"`
	DispatcherID        NullInt64  `json:"dispatcher_id,omitempty" db:"dispatcher_id"`
	Name                string     `json:"name" db:"name"`
	Surname             string     `json:"surname" db:"surname"`
	LicenseNumber       string     `json:"license_number" db:"license_number"`
	VehicleRegistration string     `json:"vehicle_registration" db:"vehicle_registration"`
	VehicleModel        string     `json:"vehicle_model" db:"vehicle_model"`
	Phone               NullString `json:"phone,omitempty" db:"phone"`
	CreatedAt           time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at" db:"updated_at"`
}

// DriverStats aggregates safety figures for a single driver
type DriverStats struct {
	DriverID            int64       `json:"driver_id" db:"driver_id"`
	TotalRoutes         int64       `json:"total_routes" db:"total_routes"`
	CompletedRoutes     int64       `json:"completed_routes" db:"completed_routes"`
	TotalAlerts         int64       `json:"total_alerts" db:"total_alerts"`
	TotalIncidents      int64       `json:"total_incidents" db:"total_incidents"`
	AvgResponseTimeMins NullFloat64 `json:"avg_response_time_minutes" db:"avg_response_time_mins"`
}
