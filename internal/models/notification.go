package models

import "time"

// Notification priorities
const (
	NotificationPriorityHigh   = "High"
	NotificationPriorityMedium = "Medium"
	NotificationPriorityLow    = "Low"
)

// Notification is an in-app message delivered at most once to a driver
type Notification struct {
	ID        int64     `json:"id" db:"id"`
	DriverID  int64     `json:"driver_id" db:"driver_id"`
	Type      string    `json:"type" db:"type"`
	Title     string    `json:"title" db:"title"`
	Message   string    `json:"message" db:"message"`
	Priority  string    `json:"priority" db:"priority"`
	IsRead    bool      `json:"is_read" db:"is_read"`
	SentAt    time.Time `json:"sent_at" db:"sent_at"`
	ReadAt    NullTime  `json:"read_at,omitempty" db:"read_at"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
