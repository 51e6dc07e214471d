package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/saferoute/fleet-safety-backend/internal/config"
	"github.com/saferoute/fleet-safety-backend/internal/database"
	"github.com/saferoute/fleet-safety-backend/internal/models"
	"github.com/saferoute/fleet-safety-backend/internal/notify"
	"github.com/saferoute/fleet-safety-backend/pkg/geo"
)

// Response log actions
const (
	logActionTriggered    = "Alert triggered"
	logActionNotified     = "Emergency contacts notified"
	logActionAcknowledged = "Alert acknowledged"
	logActionResolved     = "Alert resolved"
	logActionCancelled    = "Alert cancelled"
)

// logActorSystem marks response-log entries written by the backend itself
// rather than a responder or driver.
const logActorSystem = "System"

// alertRepository is the subset of the panic alert repository the service uses
type alertRepository interface {
	Create(alert *models.PanicAlert) error
	GetByID(id int64) (*models.PanicAlert, error)
	GetActiveByDriver(driverID int64) (*models.PanicAlert, error)
	ListActive() ([]models.PanicAlert, error)
	List(status models.AlertStatus) ([]models.PanicAlert, error)
	ListByDriver(driverID int64) ([]models.PanicAlert, error)
	Acknowledge(id int64, by string, at time.Time, responseMins float64) (int64, error)
	Resolve(id int64, by string, at time.Time, notes models.NullString, responseMins float64) (int64, error)
	Cancel(id int64, at time.Time, triggeredAfter time.Time) (int64, error)
	SetNotifiedContacts(id int64, contacts pq.StringArray) error
	AppendResponseLog(entry *models.AlertResponseLogEntry) error
	GetResponseLog(alertID int64) ([]models.AlertResponseLogEntry, error)
	GetStats() (*models.AlertStats, error)
}

type driverGetter interface {
	GetByID(id int64) (*models.Driver, error)
}

type panicRecipientLister interface {
	ListPanicRecipients(driverID int64) ([]models.EmergencyContact, error)
}

// AlertService owns the panic alert lifecycle: trigger, acknowledge, resolve,
// cancel. Transitions are settled by guarded UPDATEs in the repository, so
// concurrent responders cannot double-apply a transition.
type AlertService struct {
	alerts    alertRepository
	drivers   driverGetter
	contacts  panicRecipientLister
	notifier  notify.AlertNotifier
	publisher notify.DispatchPublisher
	logger    *logrus.Logger
	policy    config.AlertConfig
}

// NewAlertService creates a new alert service
func NewAlertService(
	alerts alertRepository,
	drivers driverGetter,
	contacts panicRecipientLister,
	notifier notify.AlertNotifier,
	publisher notify.DispatchPublisher,
	logger *logrus.Logger,
	policy config.AlertConfig,
) *AlertService {
	return &AlertService{
		alerts:    alerts,
		drivers:   drivers,
		contacts:  contacts,
		notifier:  notifier,
		publisher: publisher,
		logger:    logger,
		policy:    policy,
	}
}

// TriggerAlertInput carries the fields accepted from the SOS endpoint
type TriggerAlertInput struct {
	DriverID    int64
	RouteID     models.NullInt64
	Latitude    float64
	Longitude   float64
	Location    models.NullString
	AlertType   string
	Description models.NullString
}

// TriggerAlertOutput pairs the created alert with its fan-out summary
type TriggerAlertOutput struct {
	Alert              *models.PanicAlert `json:"alert"`
	NotificationStatus string             `json:"notification_status"`
	Receipts           []notify.DeliveryReceipt `json:"delivery_receipts"`
}

var validAlertTypes = map[string]bool{
	models.AlertTypeEmergency: true,
	models.AlertTypeThreat:    true,
	models.AlertTypeBreakdown: true,
	models.AlertTypeAccident:  true,
	models.AlertTypeMedical:   true,
}

// priorityForType maps alert types onto dispatch priorities
func priorityForType(alertType string) string {
	switch alertType {
	case models.AlertTypeEmergency, models.AlertTypeMedical:
		return "Critical"
	case models.AlertTypeThreat, models.AlertTypeAccident:
		return "High"
	default:
		return "Medium"
	}
}

// TriggerAlert creates a new active alert and fans it out to the driver's
// emergency contacts. The alert is persisted before any SMS leaves the
// building: a dead gateway still produces a visible alert for dispatchers.
func (s *AlertService) TriggerAlert(ctx context.Context, input TriggerAlertInput) (*TriggerAlertOutput, error) {
	if err := geo.ValidateCoordinates(input.Latitude, input.Longitude); err != nil {
		return nil, NewValidationError("coordinates", err.Error())
	}
	if !validAlertTypes[input.AlertType] {
		return nil, NewValidationError("alert_type", fmt.Sprintf("unknown alert type %q", input.AlertType))
	}

	driver, err := s.drivers.GetByID(input.DriverID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("driver %d: %w", input.DriverID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load driver: %w", err)
	}

	alert := &models.PanicAlert{
		DriverID:    driver.ID,
		RouteID:     input.RouteID,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		Location:    input.Location,
		AlertType:   input.AlertType,
		Description: input.Description,
		Priority:    priorityForType(input.AlertType),
		TriggeredAt: time.Now().UTC(),
	}

	if err := s.alerts.Create(alert); err != nil {
		// The partial unique index on active alerts closes the race between
		// the pre-check and the insert.
		if errors.Is(err, database.ErrDuplicate) {
			return nil, ErrActiveAlertExists
		}
		return nil, fmt.Errorf("failed to create alert: %w", err)
	}

	s.appendLog(alert.ID, logActionTriggered, logActorSystem, models.NullString{})

	s.logger.WithFields(logrus.Fields{
		"alert_id":   alert.ID,
		"driver_id":  driver.ID,
		"alert_type": alert.AlertType,
		"priority":   alert.Priority,
	}).Warn("Panic alert triggered")

	output := &TriggerAlertOutput{Alert: alert}

	recipients, err := s.contacts.ListPanicRecipients(driver.ID)
	if err != nil {
		s.logger.WithError(err).WithField("alert_id", alert.ID).Error("Failed to load panic recipients")
		output.NotificationStatus = notify.FanOutStatusFailed
		output.Receipts = []notify.DeliveryReceipt{}
	} else {
		result := s.notifier.NotifyPanic(ctx, driver, alert, recipients)
		output.NotificationStatus = result.Status
		output.Receipts = result.Receipts

		reached := pq.StringArray(result.Reached())
		alert.NotifiedContacts = reached
		if err := s.alerts.SetNotifiedContacts(alert.ID, reached); err != nil {
			s.logger.WithError(err).WithField("alert_id", alert.ID).Error("Failed to record notified contacts")
		}

		s.appendLog(alert.ID, logActionNotified, logActorSystem, models.NullString{})
	}

	s.publish(ctx, notify.DispatchEvent{
		Type:      notify.EventAlertTriggered,
		AlertID:   alert.ID,
		DriverID:  driver.ID,
		Latitude:  alert.Latitude,
		Longitude: alert.Longitude,
		Priority:  alert.Priority,
		Timestamp: alert.TriggeredAt,
	})

	return output, nil
}

// Acknowledge moves an Active alert to Acknowledged and stamps the responder
// and response time. Exactly one of two racing responders wins; the loser
// gets ErrInvalidStateTransition.
func (s *AlertService) Acknowledge(ctx context.Context, alertID int64, acknowledgedBy string) (*models.PanicAlert, error) {
	alert, err := s.alerts.GetByID(alertID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("alert %d: %w", alertID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load alert: %w", err)
	}

	now := time.Now().UTC()
	responseMins := now.Sub(alert.TriggeredAt).Minutes()

	rows, err := s.alerts.Acknowledge(alertID, acknowledgedBy, now, responseMins)
	if err != nil {
		return nil, fmt.Errorf("failed to acknowledge alert: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("alert %d is %s: %w", alertID, alert.Status, ErrInvalidStateTransition)
	}

	s.appendLog(alertID, logActionAcknowledged, acknowledgedBy, models.NullString{})

	s.logger.WithFields(logrus.Fields{
		"alert_id":        alertID,
		"acknowledged_by": acknowledgedBy,
		"response_mins":   responseMins,
	}).Info("Panic alert acknowledged")

	s.publish(ctx, notify.DispatchEvent{
		Type:      notify.EventAlertAcknowledged,
		AlertID:   alertID,
		DriverID:  alert.DriverID,
		Latitude:  alert.Latitude,
		Longitude: alert.Longitude,
		Timestamp: now,
	})

	return s.alerts.GetByID(alertID)
}

// Resolve closes an Active or Acknowledged alert with resolution notes
func (s *AlertService) Resolve(ctx context.Context, alertID int64, resolvedBy string, notes models.NullString) (*models.PanicAlert, error) {
	alert, err := s.alerts.GetByID(alertID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("alert %d: %w", alertID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load alert: %w", err)
	}

	// An alert resolved straight from Active never went through Acknowledge,
	// so the response time is stamped here too; the repository keeps an
	// earlier acknowledge-time value when one exists.
	now := time.Now().UTC()
	responseMins := now.Sub(alert.TriggeredAt).Minutes()

	rows, err := s.alerts.Resolve(alertID, resolvedBy, now, notes, responseMins)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve alert: %w", err)
	}
	if rows == 0 {
		return nil, fmt.Errorf("alert %d is %s: %w", alertID, alert.Status, ErrInvalidStateTransition)
	}

	s.appendLog(alertID, logActionResolved, resolvedBy, notes)

	s.logger.WithFields(logrus.Fields{
		"alert_id":    alertID,
		"resolved_by": resolvedBy,
	}).Info("Panic alert resolved")

	s.publish(ctx, notify.DispatchEvent{
		Type:      notify.EventAlertResolved,
		AlertID:   alertID,
		DriverID:  alert.DriverID,
		Latitude:  alert.Latitude,
		Longitude: alert.Longitude,
		Timestamp: now,
	})

	return s.alerts.GetByID(alertID)
}

// Cancel lets the owning driver withdraw a false alarm while the alert is
// still Active and inside the cancel window.
func (s *AlertService) Cancel(ctx context.Context, alertID int64, driverID int64) (*models.PanicAlert, error) {
	alert, err := s.alerts.GetByID(alertID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("alert %d: %w", alertID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load alert: %w", err)
	}

	if alert.DriverID != driverID {
		return nil, fmt.Errorf("alert %d belongs to another driver: %w", alertID, ErrForbidden)
	}

	now := time.Now().UTC()
	cutoff := now.Add(-s.policy.CancelWindow)

	rows, err := s.alerts.Cancel(alertID, now, cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to cancel alert: %w", err)
	}
	if rows == 0 {
		if alert.Status != models.AlertStatusActive {
			return nil, fmt.Errorf("alert %d is %s: %w", alertID, alert.Status, ErrInvalidStateTransition)
		}
		return nil, ErrCancelWindowExpired
	}

	s.appendLog(alertID, logActionCancelled, fmt.Sprintf("driver:%d", driverID), models.NullString{})

	s.logger.WithFields(logrus.Fields{
		"alert_id":  alertID,
		"driver_id": driverID,
	}).Info("Panic alert cancelled by driver")

	s.publish(ctx, notify.DispatchEvent{
		Type:      notify.EventAlertCancelled,
		AlertID:   alertID,
		DriverID:  driverID,
		Latitude:  alert.Latitude,
		Longitude: alert.Longitude,
		Timestamp: now,
	})

	return s.alerts.GetByID(alertID)
}

// GetByID returns an alert with its response log
func (s *AlertService) GetByID(alertID int64) (*models.PanicAlert, []models.AlertResponseLogEntry, error) {
	alert, err := s.alerts.GetByID(alertID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil, fmt.Errorf("alert %d: %w", alertID, ErrNotFound)
		}
		return nil, nil, fmt.Errorf("failed to load alert: %w", err)
	}

	log, err := s.alerts.GetResponseLog(alertID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load response log: %w", err)
	}

	return alert, log, nil
}

// ListActive returns alerts awaiting response for the dispatcher board
func (s *AlertService) ListActive() ([]models.PanicAlert, error) {
	return s.alerts.ListActive()
}

// List returns alerts newest first, optionally filtered by status
func (s *AlertService) List(status string) ([]models.PanicAlert, error) {
	if status != "" && !models.AlertStatus(status).Valid() {
		return nil, NewValidationError("status", "unknown alert status")
	}
	return s.alerts.List(models.AlertStatus(status))
}

// ListByDriver returns a driver's alert history
func (s *AlertService) ListByDriver(driverID int64) ([]models.PanicAlert, error) {
	return s.alerts.ListByDriver(driverID)
}

// Respond records a dispatcher action against an alert without changing its
// status, e.g. "called driver" while the alert stays Acknowledged
func (s *AlertService) Respond(alertID int64, performedBy, action string, notes models.NullString) (*models.AlertResponseLogEntry, error) {
	if action == "" {
		return nil, NewValidationError("action", "action is required")
	}

	alert, err := s.alerts.GetByID(alertID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("alert %d: %w", alertID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load alert: %w", err)
	}
	if alert.Status == models.AlertStatusResolved || alert.Status == models.AlertStatusCancelled {
		return nil, fmt.Errorf("alert %d is %s: %w", alertID, alert.Status, ErrInvalidStateTransition)
	}

	entry := &models.AlertResponseLogEntry{
		AlertID:     alertID,
		Action:      action,
		PerformedBy: performedBy,
		Notes:       notes,
	}
	if err := s.alerts.AppendResponseLog(entry); err != nil {
		return nil, fmt.Errorf("failed to record response: %w", err)
	}

	return entry, nil
}

// GetActiveByDriver returns the driver's current active alert, if any
func (s *AlertService) GetActiveByDriver(driverID int64) (*models.PanicAlert, error) {
	alert, err := s.alerts.GetActiveByDriver(driverID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return alert, nil
}

// GetStats returns aggregate alert figures
func (s *AlertService) GetStats() (*models.AlertStats, error) {
	return s.alerts.GetStats()
}

func (s *AlertService) appendLog(alertID int64, action, performedBy string, notes models.NullString) {
	entry := &models.AlertResponseLogEntry{
		AlertID:     alertID,
		Action:      action,
		PerformedBy: performedBy,
		Notes:       notes,
	}
	if err := s.alerts.AppendResponseLog(entry); err != nil {
		s.logger.WithError(err).WithField("alert_id", alertID).Error("Failed to append alert response log")
	}
}

func (s *AlertService) publish(ctx context.Context, event notify.DispatchEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithField("event_type", event.Type).Error("Failed to queue dispatch event")
	}
}
