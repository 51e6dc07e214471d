package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/saferoute/fleet-safety-backend/internal/models"
)

// PanicAlertRepository handles panic alert persistence. Status transitions are
// compare-and-set UPDATEs guarded on the current status, so two dispatchers
// racing to acknowledge the same alert resolve at the database row: exactly
// one UPDATE matches, the other sees zero rows affected.
type PanicAlertRepository struct {
	db DB
}

// NewPanicAlertRepository creates a new panic alert repository
func NewPanicAlertRepository(db DB) *PanicAlertRepository {
	return &PanicAlertRepository{
		db: db,
	}
}

const alertColumns = `id, driver_id, route_id, latitude, longitude, location,
	alert_type, description, status, priority, triggered_at,
	acknowledged_at, acknowledged_by, resolved_at, resolved_by,
	resolution_notes, response_time_minutes, notified_contacts,
	created_at, updated_at`

// Create inserts a new alert in Active status. The partial unique index on
// (driver_id) WHERE status = 'Active' rejects a second active alert for the
// same driver; translateError maps that to ErrDuplicate.
func (r *PanicAlertRepository) Create(alert *models.PanicAlert) error {
	query := `
		INSERT INTO panic_alerts (driver_id, route_id, latitude, longitude, location,
		                          alert_type, description, status, priority,
		                          triggered_at, notified_contacts, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING id, status, triggered_at, created_at, updated_at
	`

	if alert.NotifiedContacts == nil {
		alert.NotifiedContacts = pq.StringArray{}
	}

	err := r.db.QueryRow(query,
		alert.DriverID,
		alert.RouteID,
		alert.Latitude,
		alert.Longitude,
		alert.Location,
		alert.AlertType,
		alert.Description,
		models.AlertStatusActive,
		alert.Priority,
		alert.TriggeredAt,
		alert.NotifiedContacts,
	).Scan(&alert.ID, &alert.Status, &alert.TriggeredAt, &alert.CreatedAt, &alert.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create panic alert: %w", translateError(err))
	}

	return nil
}

// GetByID retrieves an alert by id
func (r *PanicAlertRepository) GetByID(id int64) (*models.PanicAlert, error) {
	query := fmt.Sprintf(`SELECT %s FROM panic_alerts WHERE id = $1`, alertColumns)

	alert := &models.PanicAlert{}
	if err := r.db.Get(alert, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("panic alert %d not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get panic alert: %w", err)
	}

	return alert, nil
}

// GetActiveByDriver returns the driver's single active alert, if any
func (r *PanicAlertRepository) GetActiveByDriver(driverID int64) (*models.PanicAlert, error) {
	query := fmt.Sprintf(`SELECT %s FROM panic_alerts WHERE driver_id = $1 AND status = $2`, alertColumns)

	alert := &models.PanicAlert{}
	err := r.db.Get(alert, query, driverID, models.AlertStatusActive)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no active alert for driver %d: %w", driverID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get active alert: %w", err)
	}

	return alert, nil
}

// ListActive returns all alerts awaiting response, oldest first so the
// longest-waiting driver surfaces at the top of the dispatcher board.
func (r *PanicAlertRepository) ListActive() ([]models.PanicAlert, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM panic_alerts
		WHERE status IN ($1, $2)
		ORDER BY triggered_at`, alertColumns)

	alerts := []models.PanicAlert{}
	if err := r.db.Select(&alerts, query, models.AlertStatusActive, models.AlertStatusAcknowledged); err != nil {
		return nil, fmt.Errorf("failed to list active alerts: %w", err)
	}
	return alerts, nil
}

// List returns alerts newest first, optionally filtered by status
func (r *PanicAlertRepository) List(status models.AlertStatus) ([]models.PanicAlert, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM panic_alerts
		ORDER BY triggered_at DESC`, alertColumns)
	args := []interface{}{}
	if status != "" {
		query = fmt.Sprintf(`
			SELECT %s FROM panic_alerts
			WHERE status = $1
			ORDER BY triggered_at DESC`, alertColumns)
		args = append(args, status)
	}

	alerts := []models.PanicAlert{}
	if err := r.db.Select(&alerts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list panic alerts: %w", err)
	}
	return alerts, nil
}

// ListByDriver returns a driver's alert history, newest first
func (r *PanicAlertRepository) ListByDriver(driverID int64) ([]models.PanicAlert, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM panic_alerts
		WHERE driver_id = $1
		ORDER BY triggered_at DESC`, alertColumns)

	alerts := []models.PanicAlert{}
	if err := r.db.Select(&alerts, query, driverID); err != nil {
		return nil, fmt.Errorf("failed to list driver alerts: %w", err)
	}
	return alerts, nil
}

// Acknowledge moves an alert from Active to Acknowledged and records the
// responder and the response time. Returns rows affected: zero means the
// alert was missing or not Active.
func (r *PanicAlertRepository) Acknowledge(id int64, by string, at time.Time, responseMins float64) (int64, error) {
	query := `
		UPDATE panic_alerts
		SET status = $2, acknowledged_at = $3, acknowledged_by = $4,
		    response_time_minutes = $5, updated_at = NOW()
		WHERE id = $1 AND status = $6
	`

	result, err := r.db.Exec(query, id, models.AlertStatusAcknowledged, at, by, responseMins, models.AlertStatusActive)
	if err != nil {
		return 0, fmt.Errorf("failed to acknowledge alert: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check alert acknowledgement: %w", err)
	}
	return rows, nil
}

// Resolve moves an alert from Active or Acknowledged to Resolved. COALESCE
// keeps the response time stamped at acknowledgement when there was one;
// alerts resolved straight from Active get it stamped here.
func (r *PanicAlertRepository) Resolve(id int64, by string, at time.Time, notes models.NullString, responseMins float64) (int64, error) {
	query := `
		UPDATE panic_alerts
		SET status = $2, resolved_at = $3, resolved_by = $4,
		    resolution_notes = $5,
		    response_time_minutes = COALESCE(response_time_minutes, $6),
		    updated_at = NOW()
		WHERE id = $1 AND status IN ($7, $8)
	`

	result, err := r.db.Exec(query, id, models.AlertStatusResolved, at, by, notes, responseMins,
		models.AlertStatusActive, models.AlertStatusAcknowledged)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve alert: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check alert resolution: %w", err)
	}
	return rows, nil
}

// Cancel moves an Active alert to Cancelled if it was triggered after the
// cutoff. The cutoff predicate rides in the same UPDATE as the status check
// so the cancel window cannot be beaten by a slow request.
func (r *PanicAlertRepository) Cancel(id int64, at time.Time, triggeredAfter time.Time) (int64, error) {
	query := `
		UPDATE panic_alerts
		SET status = $2, resolved_at = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4 AND triggered_at > $5
	`

	result, err := r.db.Exec(query, id, models.AlertStatusCancelled, at, models.AlertStatusActive, triggeredAfter)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel alert: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check alert cancellation: %w", err)
	}
	return rows, nil
}

// SetNotifiedContacts records which contacts the fan-out reached
func (r *PanicAlertRepository) SetNotifiedContacts(id int64, contacts pq.StringArray) error {
	query := `UPDATE panic_alerts SET notified_contacts = $2, updated_at = NOW() WHERE id = $1`

	if _, err := r.db.Exec(query, id, contacts); err != nil {
		return fmt.Errorf("failed to record notified contacts: %w", err)
	}
	return nil
}

// AppendResponseLog adds an entry to the alert's ordered response log
func (r *PanicAlertRepository) AppendResponseLog(entry *models.AlertResponseLogEntry) error {
	query := `
		INSERT INTO alert_response_log (alert_id, action, performed_by, notes, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`

	err := r.db.QueryRow(query,
		entry.AlertID,
		entry.Action,
		entry.PerformedBy,
		entry.Notes,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to append response log: %w", translateError(err))
	}

	return nil
}

// GetResponseLog returns the log entries for an alert in insertion order
func (r *PanicAlertRepository) GetResponseLog(alertID int64) ([]models.AlertResponseLogEntry, error) {
	query := `
		SELECT id, alert_id, action, performed_by, notes, created_at
		FROM alert_response_log
		WHERE alert_id = $1
		ORDER BY id
	`

	entries := []models.AlertResponseLogEntry{}
	if err := r.db.Select(&entries, query, alertID); err != nil {
		return nil, fmt.Errorf("failed to get response log: %w", err)
	}
	return entries, nil
}

// GetStats aggregates alert counts and average response time
func (r *PanicAlertRepository) GetStats() (*models.AlertStats, error) {
	query := `
		SELECT
			COUNT(*) AS total_alerts,
			COUNT(*) FILTER (WHERE status = 'Active') AS active_alerts,
			COUNT(*) FILTER (WHERE status = 'Resolved') AS resolved_alerts,
			COUNT(*) FILTER (WHERE status = 'Cancelled') AS cancelled_alerts,
			AVG(response_time_minutes) AS avg_response_time_mins
		FROM panic_alerts
	`

	stats := &models.AlertStats{}
	if err := r.db.Get(stats, query); err != nil {
		return nil, fmt.Errorf("failed to get alert stats: %w", err)
	}
	return stats, nil
}
