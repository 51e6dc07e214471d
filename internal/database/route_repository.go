package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/saferoute/fleet-safety-backend/internal/models"
)

// RouteRepository handles route persistence
type RouteRepository struct {
	db DB
}

// NewRouteRepository creates a new route repository
func NewRouteRepository(db DB) *RouteRepository {
	return &RouteRepository{
		db: db,
	}
}

const routeColumns = `id, driver_id, start_location, end_location,
	start_latitude, start_longitude, end_latitude, end_longitude,
	start_time, end_time, status, estimated_km, actual_km, risk_level, notes,
	created_at, updated_at`

// Create inserts a new route in Planned status
func (r *RouteRepository) Create(route *models.Route) error {
	query := `
		INSERT INTO routes (driver_id, start_location, end_location,
		                    start_latitude, start_longitude, end_latitude, end_longitude,
		                    start_time, status, estimated_km, risk_level, notes,
		                    created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING id, status, created_at, updated_at
	`

	err := r.db.QueryRow(query,
		route.DriverID,
		route.StartLocation,
		route.EndLocation,
		route.StartLatitude,
		route.StartLongitude,
		route.EndLatitude,
		route.EndLongitude,
		route.StartTime,
		models.RouteStatusPlanned,
		route.EstimatedKm,
		route.RiskLevel,
		route.Notes,
	).Scan(&route.ID, &route.Status, &route.CreatedAt, &route.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create route: %w", translateError(err))
	}

	return nil
}

// GetByID retrieves a route by id
func (r *RouteRepository) GetByID(id int64) (*models.Route, error) {
	query := fmt.Sprintf(`SELECT %s FROM routes WHERE id = $1`, routeColumns)

	route := &models.Route{}
	if err := r.db.Get(route, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("route %d not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get route: %w", err)
	}

	return route, nil
}

// ListByDriver returns a driver's routes, newest first
func (r *RouteRepository) ListByDriver(driverID int64) ([]models.Route, error) {
	query := fmt.Sprintf(`SELECT %s FROM routes WHERE driver_id = $1 ORDER BY start_time DESC`, routeColumns)

	routes := []models.Route{}
	if err := r.db.Select(&routes, query, driverID); err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	return routes, nil
}

// ListByStatus returns routes in a given status, oldest start first
func (r *RouteRepository) ListByStatus(status models.RouteStatus) ([]models.Route, error) {
	query := fmt.Sprintf(`SELECT %s FROM routes WHERE status = $1 ORDER BY start_time`, routeColumns)

	routes := []models.Route{}
	if err := r.db.Select(&routes, query, status); err != nil {
		return nil, fmt.Errorf("failed to list routes by status: %w", err)
	}
	return routes, nil
}

// Start moves a route from Planned to InProgress. Returns the number of rows
// changed; zero means the route was missing or not in Planned status.
func (r *RouteRepository) Start(id int64, startedAt time.Time) (int64, error) {
	query := `
		UPDATE routes
		SET status = $2, start_time = $3, updated_at = NOW()
		WHERE id = $1 AND status = $4
	`

	result, err := r.db.Exec(query, id, models.RouteStatusInProgress, startedAt, models.RouteStatusPlanned)
	if err != nil {
		return 0, fmt.Errorf("failed to start route: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check route start: %w", err)
	}
	return rows, nil
}

// Complete moves a route from InProgress to Completed and records distance
func (r *RouteRepository) Complete(id int64, endedAt time.Time, actualKm models.NullFloat64) (int64, error) {
	query := `
		UPDATE routes
		SET status = $2, end_time = $3, actual_km = $4, updated_at = NOW()
		WHERE id = $1 AND status = $5
	`

	result, err := r.db.Exec(query, id, models.RouteStatusCompleted, endedAt, actualKm, models.RouteStatusInProgress)
	if err != nil {
		return 0, fmt.Errorf("failed to complete route: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check route completion: %w", err)
	}
	return rows, nil
}

// Cancel moves a non-terminal route to Cancelled
func (r *RouteRepository) Cancel(id int64, notes models.NullString) (int64, error) {
	query := `
		UPDATE routes
		SET status = $2, notes = COALESCE($3, notes), updated_at = NOW()
		WHERE id = $1 AND status IN ($4, $5)
	`

	result, err := r.db.Exec(query, id, models.RouteStatusCancelled, notes,
		models.RouteStatusPlanned, models.RouteStatusInProgress)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel route: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check route cancellation: %w", err)
	}
	return rows, nil
}

// Delete removes a route that never ran. Routes that have started stay on
// record; callers get zero rows affected for them.
func (r *RouteRepository) Delete(id int64) (int64, error) {
	query := `
		DELETE FROM routes
		WHERE id = $1 AND status IN ($2, $3)
	`

	result, err := r.db.Exec(query, id, models.RouteStatusPlanned, models.RouteStatusCancelled)
	if err != nil {
		return 0, fmt.Errorf("failed to delete route: %w", translateError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check route delete: %w", err)
	}
	return rows, nil
}

// UpdateRiskLevel records the computed risk classification for a route
func (r *RouteRepository) UpdateRiskLevel(id int64, riskLevel string) error {
	result, err := r.db.Exec(`UPDATE routes SET risk_level = $2, updated_at = NOW() WHERE id = $1`, id, riskLevel)
	if err != nil {
		return fmt.Errorf("failed to update route risk level: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check route risk update: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("route %d not found: %w", id, ErrNotFound)
	}

	return nil
}
