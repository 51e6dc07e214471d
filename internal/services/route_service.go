package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/saferoute/fleet-safety-backend/internal/database"
	"github.com/saferoute/fleet-safety-backend/internal/models"
	"github.com/saferoute/fleet-safety-backend/pkg/geo"
)

type routeRepository interface {
	Create(route *models.Route) error
	GetByID(id int64) (*models.Route, error)
	ListByDriver(driverID int64) ([]models.Route, error)
	ListByStatus(status models.RouteStatus) ([]models.Route, error)
	Start(id int64, startedAt time.Time) (int64, error)
	Complete(id int64, endedAt time.Time, actualKm models.NullFloat64) (int64, error)
	Cancel(id int64, notes models.NullString) (int64, error)
	Delete(id int64) (int64, error)
	UpdateRiskLevel(id int64, riskLevel string) error
}

type routeRiskClassifier interface {
	ClassifyRouteRisk(route *models.Route) (string, error)
}

// RouteService owns the route lifecycle: plan, start, complete, cancel.
// Newly planned routes are graded against the active risk zones.
type RouteService struct {
	routes     routeRepository
	classifier routeRiskClassifier
	logger     *logrus.Logger
}

// NewRouteService creates a new route service
func NewRouteService(routes routeRepository, classifier routeRiskClassifier, logger *logrus.Logger) *RouteService {
	return &RouteService{
		routes:     routes,
		classifier: classifier,
		logger:     logger,
	}
}

// PlanRouteInput carries the fields accepted from the route creation endpoint
type PlanRouteInput struct {
	DriverID       int64
	StartLocation  string
	EndLocation    string
	StartLatitude  float64
	StartLongitude float64
	EndLatitude    float64
	EndLongitude   float64
	StartTime      time.Time
	EstimatedKm    models.NullFloat64
	Notes          models.NullString
}

// Plan creates a new route in Planned status and grades its risk level from
// the zones its endpoints touch.
func (s *RouteService) Plan(input PlanRouteInput) (*models.Route, error) {
	if err := geo.ValidateCoordinates(input.StartLatitude, input.StartLongitude); err != nil {
		return nil, NewValidationError("start_coordinates", err.Error())
	}
	if err := geo.ValidateCoordinates(input.EndLatitude, input.EndLongitude); err != nil {
		return nil, NewValidationError("end_coordinates", err.Error())
	}
	if input.StartLocation == "" || input.EndLocation == "" {
		return nil, NewValidationError("location", "start and end locations are required")
	}

	startTime := input.StartTime
	if startTime.IsZero() {
		startTime = time.Now().UTC()
	}

	route := &models.Route{
		DriverID:       input.DriverID,
		StartLocation:  input.StartLocation,
		EndLocation:    input.EndLocation,
		StartLatitude:  input.StartLatitude,
		StartLongitude: input.StartLongitude,
		EndLatitude:    input.EndLatitude,
		EndLongitude:   input.EndLongitude,
		StartTime:      startTime,
		EstimatedKm:    input.EstimatedKm,
		Notes:          input.Notes,
	}

	if riskLevel, err := s.classifier.ClassifyRouteRisk(route); err == nil {
		route.RiskLevel = models.NewNullString(riskLevel)
	} else {
		s.logger.WithError(err).Warn("Failed to classify route risk")
	}

	if err := s.routes.Create(route); err != nil {
		if errors.Is(err, database.ErrRestricted) {
			return nil, fmt.Errorf("driver %d: %w", input.DriverID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to plan route: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"route_id":   route.ID,
		"driver_id":  route.DriverID,
		"risk_level": route.RiskLevel.String,
	}).Info("Route planned")

	return route, nil
}

// GetByID returns a route
func (s *RouteService) GetByID(routeID int64) (*models.Route, error) {
	route, err := s.routes.GetByID(routeID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("route %d: %w", routeID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load route: %w", err)
	}
	return route, nil
}

// ListByDriver returns a driver's routes
func (s *RouteService) ListByDriver(driverID int64) ([]models.Route, error) {
	return s.routes.ListByDriver(driverID)
}

// ListByStatus returns routes in a given status
func (s *RouteService) ListByStatus(status models.RouteStatus) ([]models.Route, error) {
	return s.routes.ListByStatus(status)
}

// Start moves a Planned route to InProgress
func (s *RouteService) Start(routeID int64) (*models.Route, error) {
	rows, err := s.routes.Start(routeID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to start route: %w", err)
	}
	if rows == 0 {
		return nil, s.transitionError(routeID)
	}
	return s.routes.GetByID(routeID)
}

// Complete moves an InProgress route to Completed
func (s *RouteService) Complete(routeID int64, actualKm models.NullFloat64) (*models.Route, error) {
	rows, err := s.routes.Complete(routeID, time.Now().UTC(), actualKm)
	if err != nil {
		return nil, fmt.Errorf("failed to complete route: %w", err)
	}
	if rows == 0 {
		return nil, s.transitionError(routeID)
	}
	return s.routes.GetByID(routeID)
}

// Cancel moves a non-terminal route to Cancelled
func (s *RouteService) Cancel(routeID int64, notes models.NullString) (*models.Route, error) {
	rows, err := s.routes.Cancel(routeID, notes)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel route: %w", err)
	}
	if rows == 0 {
		return nil, s.transitionError(routeID)
	}
	return s.routes.GetByID(routeID)
}

// Delete removes a route that never ran. A route that has started stays on
// record; callers get ErrInvalidStateTransition for it.
func (s *RouteService) Delete(routeID int64) error {
	rows, err := s.routes.Delete(routeID)
	if err != nil {
		return fmt.Errorf("failed to delete route: %w", err)
	}
	if rows == 0 {
		return s.transitionError(routeID)
	}
	return nil
}

func (s *RouteService) transitionError(routeID int64) error {
	route, err := s.routes.GetByID(routeID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("route %d: %w", routeID, ErrNotFound)
		}
		return fmt.Errorf("failed to load route: %w", err)
	}
	return fmt.Errorf("route %d is %s: %w", routeID, route.Status, ErrInvalidStateTransition)
}
