package database

import (
	"database/sql"
	"fmt"

	"github.com/saferoute/fleet-safety-backend/internal/models"
)

// NotificationRepository handles in-app notification persistence
type NotificationRepository struct {
	db DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db DB) *NotificationRepository {
	return &NotificationRepository{
		db: db,
	}
}

// Create inserts a new unread notification
func (r *NotificationRepository) Create(n *models.Notification) error {
	query := `
		INSERT INTO notifications (driver_id, type, title, message, priority, is_read, sent_at, created_at)
		VALUES ($1, $2, $3, $4, $5, false, NOW(), NOW())
		RETURNING id, sent_at, created_at
	`

	err := r.db.QueryRow(query,
		n.DriverID,
		n.Type,
		n.Title,
		n.Message,
		n.Priority,
	).Scan(&n.ID, &n.SentAt, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", translateError(err))
	}

	return nil
}

// GetByID retrieves a notification by id
func (r *NotificationRepository) GetByID(id int64) (*models.Notification, error) {
	query := `
		SELECT id, driver_id, type, title, message, priority, is_read, sent_at, read_at, created_at
		FROM notifications
		WHERE id = $1
	`

	n := &models.Notification{}
	if err := r.db.Get(n, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("notification %d not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get notification: %w", err)
	}

	return n, nil
}

// ListByDriver returns a driver's notifications, newest first
func (r *NotificationRepository) ListByDriver(driverID int64, unreadOnly bool) ([]models.Notification, error) {
	query := `
		SELECT id, driver_id, type, title, message, priority, is_read, sent_at, read_at, created_at
		FROM notifications
		WHERE driver_id = $1 AND ($2 = false OR is_read = false)
		ORDER BY sent_at DESC
	`

	notifications := []models.Notification{}
	if err := r.db.Select(&notifications, query, driverID, unreadOnly); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead marks a single notification as read. Marking twice is a no-op;
// read_at keeps its original timestamp.
func (r *NotificationRepository) MarkRead(id int64, driverID int64) error {
	query := `
		UPDATE notifications
		SET is_read = true, read_at = COALESCE(read_at, NOW())
		WHERE id = $1 AND driver_id = $2
	`

	result, err := r.db.Exec(query, id, driverID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check notification read: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("notification %d not found: %w", id, ErrNotFound)
	}

	return nil
}

// MarkAllRead marks every unread notification for a driver
func (r *NotificationRepository) MarkAllRead(driverID int64) (int64, error) {
	query := `
		UPDATE notifications
		SET is_read = true, read_at = NOW()
		WHERE driver_id = $1 AND is_read = false
	`

	result, err := r.db.Exec(query, driverID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count marked notifications: %w", err)
	}
	return rows, nil
}

// Delete removes a notification
func (r *NotificationRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check notification delete: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("notification %d not found: %w", id, ErrNotFound)
	}

	return nil
}

// CountUnread returns the number of unread notifications for a driver
func (r *NotificationRepository) CountUnread(driverID int64) (int64, error) {
	var count int64
	err := r.db.Get(&count, `SELECT COUNT(*) FROM notifications WHERE driver_id = $1 AND is_read = false`, driverID)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
