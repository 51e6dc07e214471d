package database

import (
	"database/sql"
	"fmt"

	"github.com/saferoute/fleet-safety-backend/internal/models"
)

// DriverRepository handles driver CRUD and per-driver aggregates
type DriverRepository struct {
	db DB
}

// NewDriverRepository creates a new driver repository
func NewDriverRepository(db DB) *DriverRepository {
	return &DriverRepository{
		db: db,
	}
}

// Create inserts a new driver
func (r *DriverRepository) Create(driver *models.Driver) error {
	query := `
		INSERT INTO drivers (user_id, dispatcher_id, name, surname, license_number,
		                     vehicle_registration, vehicle_model, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRow(query,
		driver.UserID,
		driver.DispatcherID,
		driver.Name,
		driver.Surname,
		driver.LicenseNumber,
		driver.VehicleRegistration,
		driver.VehicleModel,
		driver.Phone,
	).Scan(&driver.ID, &driver.CreatedAt, &driver.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create driver: %w", translateError(err))
	}

	return nil
}

// GetByID retrieves a driver by id
func (r *DriverRepository) GetByID(id int64) (*models.Driver, error) {
	query := `
		SELECT id, user_id, dispatcher_id, name, surname, license_number,
		       vehicle_registration, vehicle_model, phone, created_at, updated_at
		FROM drivers
		WHERE id = $1
	`

	driver := &models.Driver{}
	if err := r.db.Get(driver, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("driver %d not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}

	return driver, nil
}

// GetByUserID retrieves the driver profile linked to a user account
func (r *DriverRepository) GetByUserID(userID string) (*models.Driver, error) {
	query := `
		SELECT id, user_id, dispatcher_id, name, surname, license_number,
		       vehicle_registration, vehicle_model, phone, created_at, updated_at
		FROM drivers
		WHERE user_id = $1
	`

	driver := &models.Driver{}
	if err := r.db.Get(driver, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("driver for user %s not found: %w", userID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get driver by user: %w", err)
	}

	return driver, nil
}

// List returns all drivers ordered by surname, name
func (r *DriverRepository) List() ([]models.Driver, error) {
	query := `
		SELECT id, user_id, dispatcher_id, name, surname, license_number,
		       vehicle_registration, vehicle_model, phone, created_at, updated_at
		FROM drivers
		ORDER BY surname, name
	`

	drivers := []models.Driver{}
	if err := r.db.Select(&drivers, query); err != nil {
		return nil, fmt.Errorf("failed to list drivers: %w", err)
	}
	return drivers, nil
}

// Update modifies a driver's profile fields
func (r *DriverRepository) Update(driver *models.Driver) error {
	query := `
		UPDATE drivers
		SET dispatcher_id = $2, name = $3, surname = $4, license_number = $5,
		    vehicle_registration = $6, vehicle_model = $7, phone = $8, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query,
		driver.ID,
		driver.DispatcherID,
		driver.Name,
		driver.Surname,
		driver.LicenseNumber,
		driver.VehicleRegistration,
		driver.VehicleModel,
		driver.Phone,
	)
	if err != nil {
		return fmt.Errorf("failed to update driver: %w", translateError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check driver update: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("driver %d not found: %w", driver.ID, ErrNotFound)
	}

	return nil
}

// Delete removes a driver. Foreign keys restrict deletion while routes or
// incidents still reference the driver; translateError surfaces that case.
func (r *DriverRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM drivers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete driver: %w", translateError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check driver delete: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("driver %d not found: %w", id, ErrNotFound)
	}

	return nil
}

// GetStats aggregates route, alert and incident counts for a driver
func (r *DriverRepository) GetStats(driverID int64) (*models.DriverStats, error) {
	query := `
		SELECT
			d.id AS driver_id,
			(SELECT COUNT(*) FROM routes WHERE driver_id = d.id) AS total_routes,
			(SELECT COUNT(*) FROM routes WHERE driver_id = d.id AND status = 'Completed') AS completed_routes,
			(SELECT COUNT(*) FROM panic_alerts WHERE driver_id = d.id) AS total_alerts,
			(SELECT COUNT(*) FROM incidents WHERE driver_id = d.id) AS total_incidents,
			(SELECT AVG(response_time_minutes) FROM panic_alerts WHERE driver_id = d.id AND response_time_minutes IS NOT NULL) AS avg_response_time_mins
		FROM drivers d
		WHERE d.id = $1
	`

	stats := &models.DriverStats{}
	if err := r.db.Get(stats, query, driverID); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("driver %d not found: %w", driverID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get driver stats: %w", err)
	}

	return stats, nil
}
