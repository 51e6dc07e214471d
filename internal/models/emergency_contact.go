package models

import "time"

// EmergencyContact belongs to exactly one driver. At most one contact per
// driver may carry the primary flag.
type EmergencyContact struct {
	ID                int64      `json:"id" db:"id"`
	DriverID          int64      `json:"driver_id" db:"driver_id"`
	Name              string     `json:"name" db:"name"`
	Surname           string     `json:"surname" db:"surname"`
	Relationship      string     `json:"relationship" db:"relationship"`
	Phone             string     `json:"phone" db:"phone"`
	Email             NullString `json:"email,omitempty" db:"email"`
	NotifyOnPanic     bool       `json:"notify_on_panic" db:"notify_on_panic"`
	NotifyOnRouteStart bool      `json:"notify_on_route_start" db:"notify_on_route_start"`
	NotifyOnRouteEnd  bool       `json:"notify_on_route_end" db:"notify_on_route_end"`
	NotifyOnIncident  bool       `json:"notify_on_incident" db:"notify_on_incident"`
	IsPrimary         bool       `json:"is_primary" db:"is_primary"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}
