package models

import "time"

// Risk levels shared by risk zones, routes and incidents
const (
	RiskLevelLow      = "Low"
	RiskLevelMedium   = "Medium"
	RiskLevelHigh     = "High"
	RiskLevelCritical = "Critical"
)

// RiskZone represents a geographic danger area, approximated as a point with a
// radius in kilometers. Zones are never deleted, only deactivated.
type RiskZone struct {
	ID               int64      `json:"id" db:"id"`
	Name             string     `json:"name" db:"name"`
	Location         NullString `json:"location,omitempty" db:"location"`
	Latitude         float64    `json:"latitude" db:"latitude"`
	Longitude        float64    `json:"longitude" db:"longitude"`
	RadiusKm         float64    `json:"radius_km" db:"radius_km"`
	RiskLevel        string     `json:"risk_level" db:"risk_level"`
	RiskType         string     `json:"risk_type" db:"risk_type"`
	Description      NullString `json:"description,omitempty" db:"description"`
	IncidentCount    int        `json:"incident_count" db:"incident_count"`
	LastIncidentDate NullTime   `json:"last_incident_date,omitempty" db:"last_incident_date"`
	IsActive         bool       `json:"is_active" db:"is_active"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// NearbyRiskZone pairs a zone with its distance from a query point
type NearbyRiskZone struct {
	RiskZone   RiskZone `json:"risk_zone"`
	DistanceKm float64  `json:"distance_km"`
}
