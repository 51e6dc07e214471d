package services

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/saferoute/fleet-safety-backend/internal/database"
	"github.com/saferoute/fleet-safety-backend/internal/models"
	"github.com/saferoute/fleet-safety-backend/pkg/validator"
)

type driverRepository interface {
	Create(driver *models.Driver) error
	GetByID(id int64) (*models.Driver, error)
	GetByUserID(userID string) (*models.Driver, error)
	List() ([]models.Driver, error)
	Update(driver *models.Driver) error
	Delete(id int64) error
	GetStats(driverID int64) (*models.DriverStats, error)
}

// DriverService manages driver profiles
type DriverService struct {
	drivers driverRepository
	phones  *validator.PhoneValidator
	logger  *logrus.Logger
}

// NewDriverService creates a new driver service
func NewDriverService(drivers driverRepository, logger *logrus.Logger) *DriverService {
	return &DriverService{
		drivers: drivers,
		phones:  validator.NewPhoneValidator(),
		logger:  logger,
	}
}

func (s *DriverService) validate(driver *models.Driver) error {
	if driver.Name == "" || driver.Surname == "" {
		return NewValidationError("name", "name and surname are required")
	}
	if driver.LicenseNumber == "" {
		return NewValidationError("license_number", "license number is required")
	}
	if driver.Phone.Valid {
		normalized, err := s.phones.MustValidate(driver.Phone.String)
		if err != nil {
			return NewValidationError("phone", err.Error())
		}
		driver.Phone = models.NewNullString(normalized)
	}
	return nil
}

// Create registers a new driver profile
func (s *DriverService) Create(driver *models.Driver) (*models.Driver, error) {
	if err := s.validate(driver); err != nil {
		return nil, err
	}

	if err := s.drivers.Create(driver); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, NewValidationError("license_number", "driver already registered")
		}
		return nil, fmt.Errorf("failed to create driver: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"driver_id": driver.ID,
		"user_id":   driver.UserID,
	}).Info("Driver registered")

	return driver, nil
}

// GetByID returns a driver profile
func (s *DriverService) GetByID(driverID int64) (*models.Driver, error) {
	driver, err := s.drivers.GetByID(driverID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("driver %d: %w", driverID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load driver: %w", err)
	}
	return driver, nil
}

// GetByUserID returns the driver profile linked to a user account
func (s *DriverService) GetByUserID(userID string) (*models.Driver, error) {
	driver, err := s.drivers.GetByUserID(userID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load driver: %w", err)
	}
	return driver, nil
}

// List returns all drivers
func (s *DriverService) List() ([]models.Driver, error) {
	return s.drivers.List()
}

// Update saves profile changes
func (s *DriverService) Update(driver *models.Driver) (*models.Driver, error) {
	if err := s.validate(driver); err != nil {
		return nil, err
	}

	if err := s.drivers.Update(driver); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("driver %d: %w", driver.ID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update driver: %w", err)
	}

	return s.drivers.GetByID(driver.ID)
}

// Delete removes a driver. Drivers with routes or incidents on record cannot
// be deleted; callers get ErrForbidden and should deactivate the account
// instead.
func (s *DriverService) Delete(driverID int64) error {
	if err := s.drivers.Delete(driverID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("driver %d: %w", driverID, ErrNotFound)
		}
		if errors.Is(err, database.ErrRestricted) {
			return fmt.Errorf("driver %d has history on record: %w", driverID, ErrForbidden)
		}
		return fmt.Errorf("failed to delete driver: %w", err)
	}
	return nil
}

// GetStats returns aggregate safety figures for a driver
func (s *DriverService) GetStats(driverID int64) (*models.DriverStats, error) {
	stats, err := s.drivers.GetStats(driverID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("driver %d: %w", driverID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load driver stats: %w", err)
	}
	return stats, nil
}
