package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/saferoute/fleet-safety-backend/internal/models"
)

// IncidentRepository handles incident persistence
type IncidentRepository struct {
	db DB
}

// NewIncidentRepository creates a new incident repository
func NewIncidentRepository(db DB) *IncidentRepository {
	return &IncidentRepository{
		db: db,
	}
}

const incidentColumns = `id, driver_id, alert_id, route_id, zone_id,
	incident_type, severity, latitude, longitude, location, description,
	occurred_at, reported_at, status, verified_by, verified_at,
	resolution_notes, created_at, updated_at`

// severityBumpsZone reports whether an incident is serious enough to feed its
// zone's risk statistics. Low and Medium incidents are recorded but do not
// move the counter.
func severityBumpsZone(severity string) bool {
	return severity == models.RiskLevelHigh || severity == models.RiskLevelCritical
}

// CreateWithZoneUpdate inserts an incident and, when a High or Critical
// incident falls inside a risk zone, bumps that zone's counter in the same
// transaction. Either both writes land or neither does.
func (r *IncidentRepository) CreateWithZoneUpdate(incident *models.Incident) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	insertQuery := `
		INSERT INTO incidents (driver_id, alert_id, route_id, zone_id,
		                       incident_type, severity, latitude, longitude, location,
		                       description, occurred_at, reported_at, status,
		                       created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW(), NOW())
		RETURNING id, status, reported_at, created_at, updated_at
	`

	err = tx.QueryRow(insertQuery,
		incident.DriverID,
		incident.AlertID,
		incident.RouteID,
		incident.ZoneID,
		incident.IncidentType,
		incident.Severity,
		incident.Latitude,
		incident.Longitude,
		incident.Location,
		incident.Description,
		incident.OccurredAt,
		incident.ReportedAt,
		models.IncidentStatusReported,
	).Scan(&incident.ID, &incident.Status, &incident.ReportedAt, &incident.CreatedAt, &incident.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", translateError(err))
	}

	if incident.ZoneID.Valid && severityBumpsZone(incident.Severity) {
		zoneQuery := `
			UPDATE risk_zones
			SET incident_count = incident_count + 1,
			    last_incident_date = GREATEST(COALESCE(last_incident_date, $2), $2),
			    updated_at = NOW()
			WHERE id = $1
		`
		if _, err := tx.Exec(zoneQuery, incident.ZoneID.Int64, incident.OccurredAt); err != nil {
			return fmt.Errorf("failed to update zone incident count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit incident: %w", err)
	}

	return nil
}

// GetByID retrieves an incident by id
func (r *IncidentRepository) GetByID(id int64) (*models.Incident, error) {
	query := fmt.Sprintf(`SELECT %s FROM incidents WHERE id = $1`, incidentColumns)

	incident := &models.Incident{}
	if err := r.db.Get(incident, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("incident %d not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get incident: %w", err)
	}

	return incident, nil
}

// ListByDriver returns a driver's incidents, newest first
func (r *IncidentRepository) ListByDriver(driverID int64) ([]models.Incident, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM incidents
		WHERE driver_id = $1
		ORDER BY occurred_at DESC`, incidentColumns)

	incidents := []models.Incident{}
	if err := r.db.Select(&incidents, query, driverID); err != nil {
		return nil, fmt.Errorf("failed to list driver incidents: %w", err)
	}
	return incidents, nil
}

// ListByStatus returns incidents in a given review state, newest first
func (r *IncidentRepository) ListByStatus(status models.IncidentStatus) ([]models.Incident, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM incidents
		WHERE status = $1
		ORDER BY reported_at DESC`, incidentColumns)

	incidents := []models.Incident{}
	if err := r.db.Select(&incidents, query, status); err != nil {
		return nil, fmt.Errorf("failed to list incidents by status: %w", err)
	}
	return incidents, nil
}

// ListRecent returns incidents that occurred on or after the cutoff
func (r *IncidentRepository) ListRecent(since time.Time) ([]models.Incident, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM incidents
		WHERE occurred_at >= $1
		ORDER BY occurred_at DESC`, incidentColumns)

	incidents := []models.Incident{}
	if err := r.db.Select(&incidents, query, since); err != nil {
		return nil, fmt.Errorf("failed to list recent incidents: %w", err)
	}
	return incidents, nil
}

// Verify moves an incident from Reported or UnderReview to Verified. Returns
// rows affected; zero means missing or already past review.
func (r *IncidentRepository) Verify(id int64, by string, at time.Time) (int64, error) {
	query := `
		UPDATE incidents
		SET status = $2, verified_by = $3, verified_at = $4, updated_at = NOW()
		WHERE id = $1 AND status IN ($5, $6)
	`

	result, err := r.db.Exec(query, id, models.IncidentStatusVerified, by, at,
		models.IncidentStatusReported, models.IncidentStatusUnderReview)
	if err != nil {
		return 0, fmt.Errorf("failed to verify incident: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check incident verification: %w", err)
	}
	return rows, nil
}

// MarkUnderReview moves a Reported incident into review
func (r *IncidentRepository) MarkUnderReview(id int64) (int64, error) {
	query := `
		UPDATE incidents
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status = $3
	`

	result, err := r.db.Exec(query, id, models.IncidentStatusUnderReview, models.IncidentStatusReported)
	if err != nil {
		return 0, fmt.Errorf("failed to mark incident under review: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check incident review: %w", err)
	}
	return rows, nil
}

// Resolve closes a Verified incident with resolution notes
func (r *IncidentRepository) Resolve(id int64, notes models.NullString) (int64, error) {
	query := `
		UPDATE incidents
		SET status = $2, resolution_notes = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
	`

	result, err := r.db.Exec(query, id, models.IncidentStatusResolved, notes, models.IncidentStatusVerified)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve incident: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check incident resolution: %w", err)
	}
	return rows, nil
}

// AddResponse records an action taken against an incident
func (r *IncidentRepository) AddResponse(response *models.IncidentResponse) error {
	query := `
		INSERT INTO incident_responses (incident_id, action, responder, notes, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		RETURNING id, created_at
	`

	err := r.db.QueryRow(query,
		response.IncidentID,
		response.Action,
		response.Responder,
		response.Notes,
	).Scan(&response.ID, &response.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add incident response: %w", translateError(err))
	}

	return nil
}

// ListResponses returns the actions recorded for an incident in order
func (r *IncidentRepository) ListResponses(incidentID int64) ([]models.IncidentResponse, error) {
	query := `
		SELECT id, incident_id, action, responder, notes, created_at
		FROM incident_responses
		WHERE incident_id = $1
		ORDER BY id
	`

	responses := []models.IncidentResponse{}
	if err := r.db.Select(&responses, query, incidentID); err != nil {
		return nil, fmt.Errorf("failed to list incident responses: %w", err)
	}
	return responses, nil
}
