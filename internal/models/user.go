package models

import (
	"time"

	"github.com/google/uuid"
)

// User roles
const (
	RoleDriver     = "driver"
	RoleDispatcher = "dispatcher"
	RoleAdmin      = "admin"
)

// User represents an account that can authenticate against the API
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	CompanyID    NullInt64 `json:"company_id,omitempty" db:"company_id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	Status       string    `json:"status" db:"status"`
	LastLoginAt  NullTime  `json:"last_login_at,omitempty" db:"last_login_at"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// UserSession records a login for auditing (device info parsed from the User-Agent header)
type UserSession struct {
	ID          int64      `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	IPAddress   NullString `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent   NullString `json:"user_agent,omitempty" db:"user_agent"`
	DeviceOS    NullString `json:"device_os,omitempty" db:"device_os"`
	Browser     NullString `json:"browser,omitempty" db:"browser"`
	IsMobile    bool       `json:"is_mobile" db:"is_mobile"`
	LoggedInAt  time.Time  `json:"logged_in_at" db:"logged_in_at"`
	LoggedOutAt NullTime   `json:"logged_out_at,omitempty" db:"logged_out_at"`
}

// RefreshToken stores a hashed refresh token issued to a user
type RefreshToken struct {
	ID        int64     `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	TokenHash string    `json:"-" db:"token_hash"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
	Revoked   bool      `json:"revoked" db:"revoked"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
