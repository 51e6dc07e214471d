package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/saferoute/fleet-safety-backend/internal/models"
)

// RiskZoneRepository handles risk zone persistence
type RiskZoneRepository struct {
	db DB
}

// NewRiskZoneRepository creates a new risk zone repository
func NewRiskZoneRepository(db DB) *RiskZoneRepository {
	return &RiskZoneRepository{
		db: db,
	}
}

const riskZoneColumns = `id, name, location, latitude, longitude, radius_km,
	risk_level, risk_type, description, incident_count, last_incident_date,
	is_active, created_at, updated_at`

// Create inserts a new active risk zone
func (r *RiskZoneRepository) Create(zone *models.RiskZone) error {
	query := `
		INSERT INTO risk_zones (name, location, latitude, longitude, radius_km,
		                        risk_level, risk_type, description, incident_count,
		                        is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 0, true, NOW(), NOW())
		RETURNING id, incident_count, is_active, created_at, updated_at
	`

	err := r.db.QueryRow(query,
		zone.Name,
		zone.Location,
		zone.Latitude,
		zone.Longitude,
		zone.RadiusKm,
		zone.RiskLevel,
		zone.RiskType,
		zone.Description,
	).Scan(&zone.ID, &zone.IncidentCount, &zone.IsActive, &zone.CreatedAt, &zone.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create risk zone: %w", translateError(err))
	}

	return nil
}

// GetByID retrieves a risk zone by id, active or not
func (r *RiskZoneRepository) GetByID(id int64) (*models.RiskZone, error) {
	query := fmt.Sprintf(`SELECT %s FROM risk_zones WHERE id = $1`, riskZoneColumns)

	zone := &models.RiskZone{}
	if err := r.db.Get(zone, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("risk zone %d not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get risk zone: %w", err)
	}

	return zone, nil
}

// ListActive returns all active risk zones ordered by id
func (r *RiskZoneRepository) ListActive() ([]models.RiskZone, error) {
	query := fmt.Sprintf(`SELECT %s FROM risk_zones WHERE is_active = true ORDER BY id`, riskZoneColumns)

	zones := []models.RiskZone{}
	if err := r.db.Select(&zones, query); err != nil {
		return nil, fmt.Errorf("failed to list active risk zones: %w", err)
	}
	return zones, nil
}

// ListAll returns every zone including deactivated ones
func (r *RiskZoneRepository) ListAll() ([]models.RiskZone, error) {
	query := fmt.Sprintf(`SELECT %s FROM risk_zones ORDER BY id`, riskZoneColumns)

	zones := []models.RiskZone{}
	if err := r.db.Select(&zones, query); err != nil {
		return nil, fmt.Errorf("failed to list risk zones: %w", err)
	}
	return zones, nil
}

// Update modifies zone attributes. Counters are managed separately via
// IncrementIncidentCount and never written here.
func (r *RiskZoneRepository) Update(zone *models.RiskZone) error {
	query := `
		UPDATE risk_zones
		SET name = $2, location = $3, latitude = $4, longitude = $5, radius_km = $6,
		    risk_level = $7, risk_type = $8, description = $9, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query,
		zone.ID,
		zone.Name,
		zone.Location,
		zone.Latitude,
		zone.Longitude,
		zone.RadiusKm,
		zone.RiskLevel,
		zone.RiskType,
		zone.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to update risk zone: %w", translateError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check risk zone update: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("risk zone %d not found: %w", zone.ID, ErrNotFound)
	}

	return nil
}

// Deactivate soft-deletes a zone; historical incidents keep their reference
func (r *RiskZoneRepository) Deactivate(id int64) error {
	result, err := r.db.Exec(`UPDATE risk_zones SET is_active = false, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate risk zone: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check risk zone deactivation: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("risk zone %d not found: %w", id, ErrNotFound)
	}

	return nil
}

// IncrementIncidentCount bumps the zone counter atomically in the database so
// concurrent incident reports never lose an increment.
func (r *RiskZoneRepository) IncrementIncidentCount(id int64, incidentAt time.Time) error {
	query := `
		UPDATE risk_zones
		SET incident_count = incident_count + 1,
		    last_incident_date = GREATEST(COALESCE(last_incident_date, $2), $2),
		    updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, id, incidentAt)
	if err != nil {
		return fmt.Errorf("failed to increment zone incident count: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check zone increment: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("risk zone %d not found: %w", id, ErrNotFound)
	}

	return nil
}
