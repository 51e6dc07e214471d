package models

import (
	"time"

	"github.com/lib/pq"
)

// AlertStatus represents the lifecycle state of a panic alert
type AlertStatus string

const (
	AlertStatusActive       AlertStatus = "Active"
	AlertStatusAcknowledged AlertStatus = "Acknowledged"
	AlertStatusResolved     AlertStatus = "Resolved"
	AlertStatusCancelled    AlertStatus = "Cancelled"
)

// IsTerminal reports whether no further transition is allowed
func (s AlertStatus) IsTerminal() bool {
	return s == AlertStatusResolved || s == AlertStatusCancelled
}

// Valid reports whether s is a known lifecycle state
func (s AlertStatus) Valid() bool {
	switch s {
	case AlertStatusActive, AlertStatusAcknowledged, AlertStatusResolved, AlertStatusCancelled:
		return true
	}
	return false
}

// Alert types raised from the driver app SOS button
const (
	AlertTypeEmergency = "Emergency"
	AlertTypeThreat    = "Threat"
	AlertTypeBreakdown = "Breakdown"
	AlertTypeAccident  = "Accident"
	AlertTypeMedical   = "Medical"
)

// PanicAlert represents an SOS event raised by a driver
type PanicAlert struct {
	ID                  int64          `json:"id" db:"id"`
	DriverID            int64          `json:"driver_id" db:"driver_id"`
	RouteID             NullInt64      `json:"route_id,omitempty" db:"route_id"`
	Latitude            float64        `json:"latitude" db:"latitude"`
	Longitude           float64        `json:"longitude" db:"longitude"`
	Location            NullString     `json:"location,omitempty" db:"location"`
	AlertType           string         `json:"alert_type" db:"alert_type"`
	Description         NullString     `json:"description,omitempty" db:"description"`
	Status              AlertStatus    `json:"status" db:"status"`
	Priority            string         `json:"priority" db:"priority"`
	TriggeredAt         time.Time      `json:"triggered_at" db:"triggered_at"`
	AcknowledgedAt      NullTime       `json:"acknowledged_at,omitempty" db:"acknowledged_at"`
	AcknowledgedBy      NullString     `json:"acknowledged_by,omitempty" db:"acknowledged_by"`
	ResolvedAt          NullTime       `json:"resolved_at,omitempty" db:"resolved_at"`
	ResolvedBy          NullString     `json:"resolved_by,omitempty" db:"resolved_by"`
	ResolutionNotes     NullString     `json:"resolution_notes,omitempty" db:"resolution_notes"`
	ResponseTimeMinutes NullFloat64    `json:"response_time_minutes,omitempty" db:"response_time_minutes"`
	NotifiedContacts    pq.StringArray `json:"notified_contacts" db:"notified_contacts"`
	CreatedAt           time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time      `json:"updated_at" db:"updated_at"`
}

// AlertResponseLogEntry is one step in the ordered response log of an alert
type AlertResponseLogEntry struct {
	ID          int64      `json:"id" db:"id"`
	AlertID     int64      `json:"alert_id" db:"alert_id"`
	Action      string     `json:"action" db:"action"`
	PerformedBy string     `json:"performed_by" db:"performed_by"`
	Notes       NullString `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// AlertStats aggregates panic alert figures for the dashboard
type AlertStats struct {
	TotalAlerts         int64       `json:"total_alerts" db:"total_alerts"`
	ActiveAlerts        int64       `json:"active_alerts" db:"active_alerts"`
	ResolvedAlerts      int64       `json:"resolved_alerts" db:"resolved_alerts"`
	CancelledAlerts     int64       `json:"cancelled_alerts" db:"cancelled_alerts"`
	AvgResponseTimeMins NullFloat64 `json:"average_response_time_minutes" db:"avg_response_time_mins"`
}
