package database

import (
	"database/sql"
	"fmt"

	"github.com/saferoute/fleet-safety-backend/internal/models"
)

// DispatcherRepository handles dispatcher persistence
type DispatcherRepository struct {
	db DB
}

// NewDispatcherRepository creates a new dispatcher repository
func NewDispatcherRepository(db DB) *DispatcherRepository {
	return &DispatcherRepository{
		db: db,
	}
}

// Create inserts a new dispatcher
func (r *DispatcherRepository) Create(d *models.Dispatcher) error {
	query := `
		INSERT INTO dispatchers (user_id, shift_start_time, shift_end_time, shift_pattern,
		                         is_on_duty, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(query,
		d.UserID,
		d.ShiftStartTime,
		d.ShiftEndTime,
		d.ShiftPattern,
		d.IsOnDuty,
		d.Phone,
	).Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create dispatcher: %w", translateError(err))
	}

	return nil
}

// GetByID retrieves a dispatcher by id
func (r *DispatcherRepository) GetByID(id int64) (*models.Dispatcher, error) {
	query := `
		SELECT id, user_id, shift_start_time, shift_end_time, shift_pattern,
		       is_on_duty, phone, created_at, updated_at
		FROM dispatchers
		WHERE id = $1
	`

	d := &models.Dispatcher{}
	if err := r.db.Get(d, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("dispatcher %d not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get dispatcher: %w", err)
	}

	return d, nil
}

// GetByUserID retrieves the dispatcher profile linked to a user account
func (r *DispatcherRepository) GetByUserID(userID string) (*models.Dispatcher, error) {
	query := `
		SELECT id, user_id, shift_start_time, shift_end_time, shift_pattern,
		       is_on_duty, phone, created_at, updated_at
		FROM dispatchers
		WHERE user_id = $1
	`

	d := &models.Dispatcher{}
	if err := r.db.Get(d, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("dispatcher for user %s not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get dispatcher by user: %w", err)
	}

	return d, nil
}

// ListOnDuty returns dispatchers currently on shift
func (r *DispatcherRepository) ListOnDuty() ([]models.Dispatcher, error) {
	query := `
		SELECT id, user_id, shift_start_time, shift_end_time, shift_pattern,
		       is_on_duty, phone, created_at, updated_at
		FROM dispatchers
		WHERE is_on_duty = true
		ORDER BY id
	`

	dispatchers := []models.Dispatcher{}
	if err := r.db.Select(&dispatchers, query); err != nil {
		return nil, fmt.Errorf("failed to list on-duty dispatchers: %w", err)
	}
	return dispatchers, nil
}

// SetOnDuty toggles a dispatcher's duty flag
func (r *DispatcherRepository) SetOnDuty(id int64, onDuty bool) error {
	result, err := r.db.Exec(`UPDATE dispatchers SET is_on_duty = $2, updated_at = NOW() WHERE id = $1`, id, onDuty)
	if err != nil {
		return fmt.Errorf("failed to set dispatcher duty: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check dispatcher duty update: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("dispatcher %d not found: %w", id, ErrNotFound)
	}

	return nil
}
