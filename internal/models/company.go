package models

import "time"

// Company represents a fleet operator whose drivers are tracked by the platform
type Company struct {
	ID               int64      `json:"id" db:"id"`
	Name             string     `json:"name" db:"name"`
	RegistrationNo   NullString `json:"registration_no,omitempty" db:"registration_no"`
	ContactEmail     NullString `json:"contact_email,omitempty" db:"contact_email"`
	ContactPhone     NullString `json:"contact_phone,omitempty" db:"contact_phone"`
	SubscriptionPlan string     `json:"subscription_plan" db:"subscription_plan"`
	IsActive         bool       `json:"is_active" db:"is_active"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" db:"updated_at"`
}

// Dispatcher represents a control-room operator assigned to a set of drivers
type Dispatcher struct {
	ID             int64     `json:"id" db:"id"`
	UserID         string    `json:"user_id" db:"user_id"`
	ShiftStartTime NullTime  `json:"shift_start_time,omitempty" db:"shift_start_time"`
	ShiftEndTime   NullTime  `json:"shift_end_time,omitempty" db:"shift_end_time"`
	ShiftPattern   string    `json:"shift_pattern" db:"shift_pattern"`
	IsOnDuty       bool      `json:"is_on_duty" db:"is_on_duty"`
	Phone          string    `json:"phone" db:"phone"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}
