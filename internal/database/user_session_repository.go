package database

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/saferoute/fleet-safety-backend/internal/models"
)

// UserSessionRepository records login sessions with client metadata
type UserSessionRepository struct {
	db DB
}

// NewUserSessionRepository creates a new user session repository
func NewUserSessionRepository(db DB) *UserSessionRepository {
	return &UserSessionRepository{
		db: db,
	}
}

// Create records a new login session
func (r *UserSessionRepository) Create(session *models.UserSession) error {
	query := `
		INSERT INTO user_sessions (user_id, ip_address, user_agent, device_os, browser, is_mobile, logged_in_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, logged_in_at
	`

	err := r.db.QueryRow(query,
		session.UserID,
		session.IPAddress,
		session.UserAgent,
		session.DeviceOS,
		session.Browser,
		session.IsMobile,
	).Scan(&session.ID, &session.LoggedInAt)
	if err != nil {
		return fmt.Errorf("failed to create user session: %w", translateError(err))
	}

	return nil
}

// CloseOpen stamps logged_out_at on every open session for a user
func (r *UserSessionRepository) CloseOpen(userID uuid.UUID) error {
	query := `UPDATE user_sessions SET logged_out_at = NOW() WHERE user_id = $1 AND logged_out_at IS NULL`

	if _, err := r.db.Exec(query, userID); err != nil {
		return fmt.Errorf("failed to close user sessions: %w", err)
	}
	return nil
}

// ListByUser returns recent sessions for a user, newest first
func (r *UserSessionRepository) ListByUser(userID uuid.UUID, limit int) ([]models.UserSession, error) {
	query := `
		SELECT id, user_id, ip_address, user_agent, device_os, browser, is_mobile, logged_in_at, logged_out_at
		FROM user_sessions
		WHERE user_id = $1
		ORDER BY logged_in_at DESC
		LIMIT $2
	`

	sessions := []models.UserSession{}
	if err := r.db.Select(&sessions, query, userID, limit); err != nil {
		return nil, fmt.Errorf("failed to list user sessions: %w", err)
	}
	return sessions, nil
}
