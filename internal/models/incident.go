package models

import "time"

// IncidentStatus represents the review state of a reported incident
type IncidentStatus string

const (
	IncidentStatusReported    IncidentStatus = "Reported"
	IncidentStatusUnderReview IncidentStatus = "UnderReview"
	IncidentStatusVerified    IncidentStatus = "Verified"
	IncidentStatusResolved    IncidentStatus = "Resolved"
)

// Incident represents a reported safety event, optionally escalated from a
// panic alert and optionally pinned to a risk zone.
type Incident struct {
	ID              int64          `json:"id" db:"id"`
	DriverID        int64          `json:"driver_id" db:"driver_id"`
	AlertID         NullInt64      `json:"alert_id,omitempty" db:"alert_id"`
	RouteID         NullInt64      `json:"route_id,omitempty" db:"route_id"`
	ZoneID          NullInt64      `json:"zone_id,omitempty" db:"zone_id"`
	IncidentType    string         `json:"incident_type" db:"incident_type"`
	Severity        string         `json:"severity" db:"severity"`
	Latitude        float64        `json:"latitude" db:"latitude"`
	Longitude       float64        `json:"longitude" db:"longitude"`
	Location        NullString     `json:"location,omitempty" db:"location"`
	Description     string         `json:"description" db:"description"`
	OccurredAt      time.Time      `json:"occurred_at" db:"occurred_at"`
	ReportedAt      time.Time      `json:"reported_at" db:"reported_at"`
	Status          IncidentStatus `json:"status" db:"status"`
	VerifiedBy      NullString     `json:"verified_by,omitempty" db:"verified_by"`
	VerifiedAt      NullTime       `json:"verified_at,omitempty" db:"verified_at"`
	ResolutionNotes NullString     `json:"resolution_notes,omitempty" db:"resolution_notes"`
	CreatedAt       time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at" db:"updated_at"`
}

// NearbyIncident pairs an incident with its distance from a query point
type NearbyIncident struct {
	Incident   Incident `json:"incident"`
	DistanceKm float64  `json:"distance_km"`
}

// IncidentResponse records an action taken against an incident
type IncidentResponse struct {
	ID         int64      `json:"id" db:"id"`
	IncidentID int64      `json:"incident_id" db:"incident_id"`
	Action     string     `json:"action" db:"action"`
	Responder  string     `json:"responder" db:"responder"`
	Notes      NullString `json:"notes,omitempty" db:"notes"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}
