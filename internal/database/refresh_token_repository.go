package database

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/saferoute/fleet-safety-backend/internal/models"
)

// RefreshTokenRepository stores hashed refresh tokens
type RefreshTokenRepository struct {
	db DB
}

// NewRefreshTokenRepository creates a new refresh token repository
func NewRefreshTokenRepository(db DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{
		db: db,
	}
}

// hashToken hashes a token before storage; raw tokens never touch the database
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Store saves a refresh token for a user
func (r *RefreshTokenRepository) Store(userID uuid.UUID, token string, expiresAt time.Time) error {
	query := `
		INSERT INTO refresh_tokens (user_id, token_hash, expires_at, revoked, created_at)
		VALUES ($1, $2, $3, false, NOW())
	`

	if _, err := r.db.Exec(query, userID, hashToken(token), expiresAt); err != nil {
		return fmt.Errorf("failed to store refresh token: %w", err)
	}
	return nil
}

// Validate checks that a token exists, is unexpired and not revoked
func (r *RefreshTokenRepository) Validate(userID uuid.UUID, token string) (*models.RefreshToken, error) {
	query := `
		SELECT id, user_id, token_hash, expires_at, revoked, created_at
		FROM refresh_tokens
		WHERE user_id = $1 AND token_hash = $2 AND revoked = false AND expires_at > NOW()
	`

	stored := &models.RefreshToken{}
	err := r.db.Get(stored, query, userID, hashToken(token))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("refresh token not found: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to validate refresh token: %w", err)
	}

	return stored, nil
}

// Revoke marks a single refresh token as revoked
func (r *RefreshTokenRepository) Revoke(userID uuid.UUID, token string) error {
	query := `UPDATE refresh_tokens SET revoked = true WHERE user_id = $1 AND token_hash = $2`

	if _, err := r.db.Exec(query, userID, hashToken(token)); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAll revokes every refresh token for a user (logout everywhere / password change)
func (r *RefreshTokenRepository) RevokeAll(userID uuid.UUID) error {
	query := `UPDATE refresh_tokens SET revoked = true WHERE user_id = $1 AND revoked = false`

	if _, err := r.db.Exec(query, userID); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}
	return nil
}
