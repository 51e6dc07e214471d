package services

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/saferoute/fleet-safety-backend/internal/database"
	"github.com/saferoute/fleet-safety-backend/internal/models"
	"github.com/saferoute/fleet-safety-backend/pkg/geo"
)

type riskZoneRepository interface {
	Create(zone *models.RiskZone) error
	GetByID(id int64) (*models.RiskZone, error)
	ListActive() ([]models.RiskZone, error)
	ListAll() ([]models.RiskZone, error)
	Update(zone *models.RiskZone) error
	Deactivate(id int64) error
}

// RiskZoneService manages the risk zone register
type RiskZoneService struct {
	zones  riskZoneRepository
	logger *logrus.Logger
}

// NewRiskZoneService creates a new risk zone service
func NewRiskZoneService(zones riskZoneRepository, logger *logrus.Logger) *RiskZoneService {
	return &RiskZoneService{
		zones:  zones,
		logger: logger,
	}
}

func validateZone(zone *models.RiskZone) error {
	if zone.Name == "" {
		return NewValidationError("name", "name is required")
	}
	if err := geo.ValidateCoordinates(zone.Latitude, zone.Longitude); err != nil {
		return NewValidationError("coordinates", err.Error())
	}
	if zone.RadiusKm <= 0 {
		return NewValidationError("radius_km", "radius must be positive")
	}
	if _, ok := riskRank[zone.RiskLevel]; !ok {
		return NewValidationError("risk_level", fmt.Sprintf("unknown risk level %q", zone.RiskLevel))
	}
	return nil
}

// Create registers a new active risk zone
func (s *RiskZoneService) Create(zone *models.RiskZone) (*models.RiskZone, error) {
	if err := validateZone(zone); err != nil {
		return nil, err
	}

	if err := s.zones.Create(zone); err != nil {
		return nil, fmt.Errorf("failed to create risk zone: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"zone_id":    zone.ID,
		"risk_level": zone.RiskLevel,
		"radius_km":  zone.RadiusKm,
	}).Info("Risk zone registered")

	return zone, nil
}

// GetByID returns a zone
func (s *RiskZoneService) GetByID(zoneID int64) (*models.RiskZone, error) {
	zone, err := s.zones.GetByID(zoneID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("risk zone %d: %w", zoneID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load risk zone: %w", err)
	}
	return zone, nil
}

// List returns zones, optionally including deactivated ones
func (s *RiskZoneService) List(includeInactive bool) ([]models.RiskZone, error) {
	if includeInactive {
		return s.zones.ListAll()
	}
	return s.zones.ListActive()
}

// Update modifies zone attributes. The incident counter is untouched: only
// incident reports move it.
func (s *RiskZoneService) Update(zone *models.RiskZone) (*models.RiskZone, error) {
	if err := validateZone(zone); err != nil {
		return nil, err
	}

	if err := s.zones.Update(zone); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("risk zone %d: %w", zone.ID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update risk zone: %w", err)
	}

	return s.zones.GetByID(zone.ID)
}

// Deactivate retires a zone from proximity queries without losing its history
func (s *RiskZoneService) Deactivate(zoneID int64) error {
	if err := s.zones.Deactivate(zoneID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("risk zone %d: %w", zoneID, ErrNotFound)
		}
		return fmt.Errorf("failed to deactivate risk zone: %w", err)
	}

	s.logger.WithField("zone_id", zoneID).Info("Risk zone deactivated")
	return nil
}
