package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/saferoute/fleet-safety-backend/internal/database"
	"github.com/saferoute/fleet-safety-backend/internal/models"
	"github.com/saferoute/fleet-safety-backend/internal/notify"
	"github.com/saferoute/fleet-safety-backend/pkg/geo"
)

type incidentRepository interface {
	CreateWithZoneUpdate(incident *models.Incident) error
	GetByID(id int64) (*models.Incident, error)
	ListByDriver(driverID int64) ([]models.Incident, error)
	ListByStatus(status models.IncidentStatus) ([]models.Incident, error)
	Verify(id int64, by string, at time.Time) (int64, error)
	MarkUnderReview(id int64) (int64, error)
	Resolve(id int64, notes models.NullString) (int64, error)
	AddResponse(response *models.IncidentResponse) error
	ListResponses(incidentID int64) ([]models.IncidentResponse, error)
}

type zoneFinder interface {
	FindZoneForPoint(lat, lon float64) (*models.RiskZone, error)
}

// IncidentService owns the incident review lifecycle. Reporting a High or
// Critical incident inside a risk zone bumps the zone's counter atomically
// with the insert.
type IncidentService struct {
	incidents incidentRepository
	zones     zoneFinder
	publisher notify.DispatchPublisher
	logger    *logrus.Logger
}

// NewIncidentService creates a new incident service
func NewIncidentService(
	incidents incidentRepository,
	zones zoneFinder,
	publisher notify.DispatchPublisher,
	logger *logrus.Logger,
) *IncidentService {
	return &IncidentService{
		incidents: incidents,
		zones:     zones,
		publisher: publisher,
		logger:    logger,
	}
}

// ReportIncidentInput carries the fields accepted from the report endpoint
type ReportIncidentInput struct {
	DriverID     int64
	AlertID      models.NullInt64
	RouteID      models.NullInt64
	IncidentType string
	Severity     string
	Latitude     float64
	Longitude    float64
	Location     models.NullString
	Description  string
	OccurredAt   time.Time
}

var validSeverities = map[string]bool{
	models.RiskLevelLow:      true,
	models.RiskLevelMedium:   true,
	models.RiskLevelHigh:     true,
	models.RiskLevelCritical: true,
}

// ReportIncident records a new incident. When the location falls inside an
// active risk zone the incident is pinned to that zone; High and Critical
// incidents also increment the zone counter in the same transaction.
func (s *IncidentService) ReportIncident(ctx context.Context, input ReportIncidentInput) (*models.Incident, error) {
	if err := geo.ValidateCoordinates(input.Latitude, input.Longitude); err != nil {
		return nil, NewValidationError("coordinates", err.Error())
	}
	if !validSeverities[input.Severity] {
		return nil, NewValidationError("severity", fmt.Sprintf("unknown severity %q", input.Severity))
	}
	if input.Description == "" {
		return nil, NewValidationError("description", "description is required")
	}

	occurredAt := input.OccurredAt
	now := time.Now().UTC()
	if occurredAt.IsZero() {
		occurredAt = now
	}
	if occurredAt.After(now) {
		return nil, NewValidationError("occurred_at", "occurred_at cannot be in the future")
	}

	incident := &models.Incident{
		DriverID:     input.DriverID,
		AlertID:      input.AlertID,
		RouteID:      input.RouteID,
		IncidentType: input.IncidentType,
		Severity:     input.Severity,
		Latitude:     input.Latitude,
		Longitude:    input.Longitude,
		Location:     input.Location,
		Description:  input.Description,
		OccurredAt:   occurredAt,
		ReportedAt:   now,
	}

	zone, err := s.zones.FindZoneForPoint(input.Latitude, input.Longitude)
	if err != nil {
		return nil, fmt.Errorf("failed to match risk zone: %w", err)
	}
	if zone != nil {
		incident.ZoneID = models.NewNullInt64(zone.ID)
	}

	if err := s.incidents.CreateWithZoneUpdate(incident); err != nil {
		if errors.Is(err, database.ErrRestricted) {
			return nil, fmt.Errorf("referenced record missing: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to report incident: %w", err)
	}

	fields := logrus.Fields{
		"incident_id": incident.ID,
		"driver_id":   incident.DriverID,
		"severity":    incident.Severity,
	}
	if zone != nil {
		fields["zone_id"] = zone.ID
	}
	s.logger.WithFields(fields).Info("Incident reported")

	if s.publisher != nil {
		event := notify.DispatchEvent{
			Type:       notify.EventIncidentReported,
			IncidentID: incident.ID,
			DriverID:   incident.DriverID,
			Latitude:   incident.Latitude,
			Longitude:  incident.Longitude,
			Priority:   incident.Severity,
			Timestamp:  now,
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.WithError(err).WithField("incident_id", incident.ID).Error("Failed to queue dispatch event")
		}
	}

	return incident, nil
}

// GetByID returns an incident with its recorded responses
func (s *IncidentService) GetByID(incidentID int64) (*models.Incident, []models.IncidentResponse, error) {
	incident, err := s.incidents.GetByID(incidentID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil, fmt.Errorf("incident %d: %w", incidentID, ErrNotFound)
		}
		return nil, nil, fmt.Errorf("failed to load incident: %w", err)
	}

	responses, err := s.incidents.ListResponses(incidentID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load incident responses: %w", err)
	}

	return incident, responses, nil
}

// ListByDriver returns a driver's incident history
func (s *IncidentService) ListByDriver(driverID int64) ([]models.Incident, error) {
	return s.incidents.ListByDriver(driverID)
}

// ListByStatus returns incidents in a given review state
func (s *IncidentService) ListByStatus(status models.IncidentStatus) ([]models.Incident, error) {
	return s.incidents.ListByStatus(status)
}

// MarkUnderReview moves a Reported incident into review
func (s *IncidentService) MarkUnderReview(incidentID int64, reviewer string) (*models.Incident, error) {
	rows, err := s.incidents.MarkUnderReview(incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark incident under review: %w", err)
	}
	if rows == 0 {
		return nil, s.transitionError(incidentID)
	}

	s.addResponse(incidentID, "review_started", reviewer, models.NullString{})
	return s.incidents.GetByID(incidentID)
}

// Verify confirms an incident after review
func (s *IncidentService) Verify(ctx context.Context, incidentID int64, verifiedBy string) (*models.Incident, error) {
	now := time.Now().UTC()
	rows, err := s.incidents.Verify(incidentID, verifiedBy, now)
	if err != nil {
		return nil, fmt.Errorf("failed to verify incident: %w", err)
	}
	if rows == 0 {
		return nil, s.transitionError(incidentID)
	}

	s.addResponse(incidentID, "verified", verifiedBy, models.NullString{})

	incident, err := s.incidents.GetByID(incidentID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload incident: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"incident_id": incidentID,
		"verified_by": verifiedBy,
	}).Info("Incident verified")

	if s.publisher != nil {
		event := notify.DispatchEvent{
			Type:       notify.EventIncidentVerified,
			IncidentID: incidentID,
			DriverID:   incident.DriverID,
			Latitude:   incident.Latitude,
			Longitude:  incident.Longitude,
			Priority:   incident.Severity,
			Timestamp:  now,
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.WithError(err).WithField("incident_id", incidentID).Error("Failed to queue dispatch event")
		}
	}

	return incident, nil
}

// Resolve closes a Verified incident with resolution notes
func (s *IncidentService) Resolve(incidentID int64, resolvedBy string, notes models.NullString) (*models.Incident, error) {
	rows, err := s.incidents.Resolve(incidentID, notes)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve incident: %w", err)
	}
	if rows == 0 {
		return nil, s.transitionError(incidentID)
	}

	s.addResponse(incidentID, "resolved", resolvedBy, notes)
	return s.incidents.GetByID(incidentID)
}

// transitionError distinguishes a missing incident from one in the wrong state
func (s *IncidentService) transitionError(incidentID int64) error {
	incident, err := s.incidents.GetByID(incidentID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("incident %d: %w", incidentID, ErrNotFound)
		}
		return fmt.Errorf("failed to load incident: %w", err)
	}
	return fmt.Errorf("incident %d is %s: %w", incidentID, incident.Status, ErrInvalidStateTransition)
}

func (s *IncidentService) addResponse(incidentID int64, action, responder string, notes models.NullString) {
	response := &models.IncidentResponse{
		IncidentID: incidentID,
		Action:     action,
		Responder:  responder,
		Notes:      notes,
	}
	if err := s.incidents.AddResponse(response); err != nil {
		s.logger.WithError(err).WithField("incident_id", incidentID).Error("Failed to record incident response")
	}
}
