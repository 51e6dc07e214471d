package services

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/fleet-safety-backend/internal/config"
	"github.com/saferoute/fleet-safety-backend/internal/database"
	"github.com/saferoute/fleet-safety-backend/internal/models"
	"github.com/saferoute/fleet-safety-backend/internal/notify"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func testAlertPolicy() config.AlertConfig {
	return config.AlertConfig{
		CancelWindow:     5 * time.Minute,
		RecipientTimeout: time.Second,
		FanOutBudget:     2 * time.Second,
	}
}

// fakeAlertRepo is an in-memory alertRepository that mimics the guarded
// UPDATE semantics of the real one.
type fakeAlertRepo struct {
	alerts map[int64]*models.PanicAlert
	log    []models.AlertResponseLogEntry
	nextID int64
}

func newFakeAlertRepo() *fakeAlertRepo {
	return &fakeAlertRepo{alerts: map[int64]*models.PanicAlert{}, nextID: 1}
}

func (f *fakeAlertRepo) Create(alert *models.PanicAlert) error {
	for _, a := range f.alerts {
		if a.DriverID == alert.DriverID && a.Status == models.AlertStatusActive {
			return fmt.Errorf("failed to create panic alert: %w", database.ErrDuplicate)
		}
	}
	alert.ID = f.nextID
	f.nextID++
	alert.Status = models.AlertStatusActive
	alert.CreatedAt = time.Now()
	alert.UpdatedAt = alert.CreatedAt
	copied := *alert
	f.alerts[alert.ID] = &copied
	return nil
}

func (f *fakeAlertRepo) GetByID(id int64) (*models.PanicAlert, error) {
	alert, ok := f.alerts[id]
	if !ok {
		return nil, fmt.Errorf("panic alert %d not found: %w", id, database.ErrNotFound)
	}
	copied := *alert
	return &copied, nil
}

func (f *fakeAlertRepo) GetActiveByDriver(driverID int64) (*models.PanicAlert, error) {
	for _, a := range f.alerts {
		if a.DriverID == driverID && a.Status == models.AlertStatusActive {
			copied := *a
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("no active alert for driver %d: %w", driverID, database.ErrNotFound)
}

func (f *fakeAlertRepo) ListActive() ([]models.PanicAlert, error) {
	alerts := []models.PanicAlert{}
	for _, a := range f.alerts {
		if a.Status == models.AlertStatusActive || a.Status == models.AlertStatusAcknowledged {
			alerts = append(alerts, *a)
		}
	}
	return alerts, nil
}

func (f *fakeAlertRepo) List(status models.AlertStatus) ([]models.PanicAlert, error) {
	alerts := []models.PanicAlert{}
	for _, a := range f.alerts {
		if status == "" || a.Status == status {
			alerts = append(alerts, *a)
		}
	}
	return alerts, nil
}

func (f *fakeAlertRepo) ListByDriver(driverID int64) ([]models.PanicAlert, error) {
	alerts := []models.PanicAlert{}
	for _, a := range f.alerts {
		if a.DriverID == driverID {
			alerts = append(alerts, *a)
		}
	}
	return alerts, nil
}

func (f *fakeAlertRepo) Acknowledge(id int64, by string, at time.Time, responseMins float64) (int64, error) {
	alert, ok := f.alerts[id]
	if !ok || alert.Status != models.AlertStatusActive {
		return 0, nil
	}
	alert.Status = models.AlertStatusAcknowledged
	alert.AcknowledgedBy = models.NewNullString(by)
	alert.AcknowledgedAt = models.NewNullTime(at)
	alert.ResponseTimeMinutes = models.NewNullFloat64(responseMins)
	return 1, nil
}

func (f *fakeAlertRepo) Resolve(id int64, by string, at time.Time, notes models.NullString, responseMins float64) (int64, error) {
	alert, ok := f.alerts[id]
	if !ok || (alert.Status != models.AlertStatusActive && alert.Status != models.AlertStatusAcknowledged) {
		return 0, nil
	}
	alert.Status = models.AlertStatusResolved
	alert.ResolvedBy = models.NewNullString(by)
	alert.ResolvedAt = models.NewNullTime(at)
	alert.ResolutionNotes = notes
	if !alert.ResponseTimeMinutes.Valid {
		alert.ResponseTimeMinutes = models.NewNullFloat64(responseMins)
	}
	return 1, nil
}

func (f *fakeAlertRepo) Cancel(id int64, at time.Time, triggeredAfter time.Time) (int64, error) {
	alert, ok := f.alerts[id]
	if !ok || alert.Status != models.AlertStatusActive || !alert.TriggeredAt.After(triggeredAfter) {
		return 0, nil
	}
	alert.Status = models.AlertStatusCancelled
	alert.ResolvedAt = models.NewNullTime(at)
	return 1, nil
}

func (f *fakeAlertRepo) SetNotifiedContacts(id int64, contacts pq.StringArray) error {
	alert, ok := f.alerts[id]
	if !ok {
		return database.ErrNotFound
	}
	alert.NotifiedContacts = contacts
	return nil
}

func (f *fakeAlertRepo) AppendResponseLog(entry *models.AlertResponseLogEntry) error {
	entry.ID = int64(len(f.log) + 1)
	entry.CreatedAt = time.Now()
	f.log = append(f.log, *entry)
	return nil
}

func (f *fakeAlertRepo) GetResponseLog(alertID int64) ([]models.AlertResponseLogEntry, error) {
	entries := []models.AlertResponseLogEntry{}
	for _, e := range f.log {
		if e.AlertID == alertID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (f *fakeAlertRepo) GetStats() (*models.AlertStats, error) {
	stats := &models.AlertStats{}
	for _, a := range f.alerts {
		stats.TotalAlerts++
		switch a.Status {
		case models.AlertStatusActive:
			stats.ActiveAlerts++
		case models.AlertStatusResolved:
			stats.ResolvedAlerts++
		case models.AlertStatusCancelled:
			stats.CancelledAlerts++
		}
	}
	return stats, nil
}

type fakeDriverGetter struct {
	drivers map[int64]*models.Driver
}

func (f *fakeDriverGetter) GetByID(id int64) (*models.Driver, error) {
	driver, ok := f.drivers[id]
	if !ok {
		return nil, fmt.Errorf("driver %d not found: %w", id, database.ErrNotFound)
	}
	return driver, nil
}

type fakeRecipientLister struct {
	contacts []models.EmergencyContact
	err      error
}

func (f *fakeRecipientLister) ListPanicRecipients(driverID int64) ([]models.EmergencyContact, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.contacts, nil
}

type fakeNotifier struct {
	result *notify.FanOutResult
	calls  int
}

func (f *fakeNotifier) NotifyPanic(ctx context.Context, driver *models.Driver, alert *models.PanicAlert, contacts []models.EmergencyContact) *notify.FanOutResult {
	f.calls++
	return f.result
}

func newTestAlertService(repo *fakeAlertRepo, notifier notify.AlertNotifier, lister panicRecipientLister) *AlertService {
	drivers := &fakeDriverGetter{drivers: map[int64]*models.Driver{
		7: {ID: 7, Name: "Jabu", Surname: "Mthembu", LicenseNumber: "DL123456"},
	}}
	return NewAlertService(repo, drivers, lister, notifier, notify.NoopDispatchPublisher{}, testLogger(), testAlertPolicy())
}

func TestTriggerAlert(t *testing.T) {
	t.Run("Success With Full Fan-Out", func(t *testing.T) {
		repo := newFakeAlertRepo()
		notifier := &fakeNotifier{result: &notify.FanOutResult{
			Status: notify.FanOutStatusSent,
			Receipts: []notify.DeliveryReceipt{
				{ContactID: 5, ContactName: "Thandi Nkosi", Phone: "0821234567", Status: notify.DeliveryStatusSent},
			},
		}}
		lister := &fakeRecipientLister{contacts: []models.EmergencyContact{
			{ID: 5, DriverID: 7, Name: "Thandi", Surname: "Nkosi", Phone: "0821234567", NotifyOnPanic: true},
		}}
		service := newTestAlertService(repo, notifier, lister)

		output, err := service.TriggerAlert(context.Background(), TriggerAlertInput{
			DriverID:  7,
			Latitude:  -34.0276,
			Longitude: 18.5881,
			AlertType: models.AlertTypeEmergency,
		})
		require.NoError(t, err)

		assert.Equal(t, models.AlertStatusActive, output.Alert.Status)
		assert.Equal(t, "Critical", output.Alert.Priority)
		assert.Equal(t, notify.FanOutStatusSent, output.NotificationStatus)
		assert.Equal(t, 1, notifier.calls)

		stored, err := repo.GetByID(output.Alert.ID)
		require.NoError(t, err)
		assert.Equal(t, pq.StringArray{"Thandi Nkosi"}, stored.NotifiedContacts)

		entries, err := repo.GetResponseLog(output.Alert.ID)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "Alert triggered", entries[0].Action)
		assert.Equal(t, "System", entries[0].PerformedBy)
		assert.Equal(t, "Emergency contacts notified", entries[1].Action)
		assert.Equal(t, "System", entries[1].PerformedBy)
	})

	t.Run("Invalid Coordinates", func(t *testing.T) {
		repo := newFakeAlertRepo()
		service := newTestAlertService(repo, &fakeNotifier{}, &fakeRecipientLister{})

		_, err := service.TriggerAlert(context.Background(), TriggerAlertInput{
			DriverID:  7,
			Latitude:  -95,
			Longitude: 18.5881,
			AlertType: models.AlertTypeEmergency,
		})

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "coordinates", validationErr.Field)
	})

	t.Run("Unknown Alert Type", func(t *testing.T) {
		repo := newFakeAlertRepo()
		service := newTestAlertService(repo, &fakeNotifier{}, &fakeRecipientLister{})

		_, err := service.TriggerAlert(context.Background(), TriggerAlertInput{
			DriverID:  7,
			Latitude:  -34.0276,
			Longitude: 18.5881,
			AlertType: "ShoutingLoudly",
		})

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "alert_type", validationErr.Field)
	})

	t.Run("Unknown Driver", func(t *testing.T) {
		repo := newFakeAlertRepo()
		service := newTestAlertService(repo, &fakeNotifier{}, &fakeRecipientLister{})

		_, err := service.TriggerAlert(context.Background(), TriggerAlertInput{
			DriverID:  99,
			Latitude:  -34.0276,
			Longitude: 18.5881,
			AlertType: models.AlertTypeEmergency,
		})

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Second Active Alert Rejected", func(t *testing.T) {
		repo := newFakeAlertRepo()
		notifier := &fakeNotifier{result: &notify.FanOutResult{Status: notify.FanOutStatusSkipped, Receipts: []notify.DeliveryReceipt{}}}
		service := newTestAlertService(repo, notifier, &fakeRecipientLister{})

		input := TriggerAlertInput{
			DriverID:  7,
			Latitude:  -34.0276,
			Longitude: 18.5881,
			AlertType: models.AlertTypeThreat,
		}

		_, err := service.TriggerAlert(context.Background(), input)
		require.NoError(t, err)

		_, err = service.TriggerAlert(context.Background(), input)
		assert.ErrorIs(t, err, ErrActiveAlertExists)
	})

	t.Run("Alert Persisted Despite Failed Fan-Out", func(t *testing.T) {
		repo := newFakeAlertRepo()
		notifier := &fakeNotifier{result: &notify.FanOutResult{
			Status: notify.FanOutStatusFailed,
			Receipts: []notify.DeliveryReceipt{
				{ContactID: 5, ContactName: "Thandi Nkosi", Status: notify.DeliveryStatusFailed, Error: "gateway unreachable"},
			},
		}}
		lister := &fakeRecipientLister{contacts: []models.EmergencyContact{
			{ID: 5, DriverID: 7, Name: "Thandi", Surname: "Nkosi", Phone: "0821234567", NotifyOnPanic: true},
		}}
		service := newTestAlertService(repo, notifier, lister)

		output, err := service.TriggerAlert(context.Background(), TriggerAlertInput{
			DriverID:  7,
			Latitude:  -34.0276,
			Longitude: 18.5881,
			AlertType: models.AlertTypeMedical,
		})
		require.NoError(t, err)
		assert.Equal(t, notify.FanOutStatusFailed, output.NotificationStatus)

		stored, err := repo.GetByID(output.Alert.ID)
		require.NoError(t, err)
		assert.Equal(t, models.AlertStatusActive, stored.Status)
	})

	t.Run("Recipient Lookup Failure Degrades To Failed", func(t *testing.T) {
		repo := newFakeAlertRepo()
		notifier := &fakeNotifier{}
		lister := &fakeRecipientLister{err: fmt.Errorf("database error")}
		service := newTestAlertService(repo, notifier, lister)

		output, err := service.TriggerAlert(context.Background(), TriggerAlertInput{
			DriverID:  7,
			Latitude:  -34.0276,
			Longitude: 18.5881,
			AlertType: models.AlertTypeAccident,
		})
		require.NoError(t, err)
		assert.Equal(t, notify.FanOutStatusFailed, output.NotificationStatus)
		assert.Zero(t, notifier.calls)
	})
}

func TestAcknowledgeAlertService(t *testing.T) {
	triggerTestAlert := func(t *testing.T, service *AlertService) *models.PanicAlert {
		t.Helper()
		output, err := service.TriggerAlert(context.Background(), TriggerAlertInput{
			DriverID:  7,
			Latitude:  -34.0276,
			Longitude: 18.5881,
			AlertType: models.AlertTypeEmergency,
		})
		require.NoError(t, err)
		return output.Alert
	}

	t.Run("Active Alert", func(t *testing.T) {
		repo := newFakeAlertRepo()
		notifier := &fakeNotifier{result: &notify.FanOutResult{Status: notify.FanOutStatusSkipped, Receipts: []notify.DeliveryReceipt{}}}
		service := newTestAlertService(repo, notifier, &fakeRecipientLister{})
		alert := triggerTestAlert(t, service)

		acked, err := service.Acknowledge(context.Background(), alert.ID, "Dispatcher1")
		require.NoError(t, err)
		assert.Equal(t, models.AlertStatusAcknowledged, acked.Status)
		assert.Equal(t, "Dispatcher1", acked.AcknowledgedBy.String)
		require.True(t, acked.ResponseTimeMinutes.Valid)
		assert.GreaterOrEqual(t, acked.ResponseTimeMinutes.Float64, 0.0)
	})

	t.Run("Double Acknowledge", func(t *testing.T) {
		repo := newFakeAlertRepo()
		notifier := &fakeNotifier{result: &notify.FanOutResult{Status: notify.FanOutStatusSkipped, Receipts: []notify.DeliveryReceipt{}}}
		service := newTestAlertService(repo, notifier, &fakeRecipientLister{})
		alert := triggerTestAlert(t, service)

		_, err := service.Acknowledge(context.Background(), alert.ID, "Dispatcher1")
		require.NoError(t, err)

		_, err = service.Acknowledge(context.Background(), alert.ID, "Dispatcher2")
		assert.ErrorIs(t, err, ErrInvalidStateTransition)
	})

	t.Run("Missing Alert", func(t *testing.T) {
		repo := newFakeAlertRepo()
		service := newTestAlertService(repo, &fakeNotifier{}, &fakeRecipientLister{})

		_, err := service.Acknowledge(context.Background(), 999, "Dispatcher1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestResolveAlertService(t *testing.T) {
	// Worked end to end: trigger at a known location, acknowledge, resolve.
	repo := newFakeAlertRepo()
	notifier := &fakeNotifier{result: &notify.FanOutResult{Status: notify.FanOutStatusSkipped, Receipts: []notify.DeliveryReceipt{}}}
	service := newTestAlertService(repo, notifier, &fakeRecipientLister{})

	output, err := service.TriggerAlert(context.Background(), TriggerAlertInput{
		DriverID:  7,
		Latitude:  -34.0276,
		Longitude: 18.5881,
		AlertType: models.AlertTypeEmergency,
	})
	require.NoError(t, err)

	_, err = service.Acknowledge(context.Background(), output.Alert.ID, "Dispatcher1")
	require.NoError(t, err)

	resolved, err := service.Resolve(context.Background(), output.Alert.ID, "Dispatcher1",
		models.NewNullString("driver escorted to safety"))
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusResolved, resolved.Status)
	assert.Equal(t, "Dispatcher1", resolved.ResolvedBy.String)
	assert.Equal(t, "driver escorted to safety", resolved.ResolutionNotes.String)

	// Second resolve loses the guarded update
	_, err = service.Resolve(context.Background(), output.Alert.ID, "Dispatcher2", models.NullString{})
	assert.ErrorIs(t, err, ErrInvalidStateTransition)

	entries, err := repo.GetResponseLog(output.Alert.ID)
	require.NoError(t, err)
	require.Len(t, entries, 4)
	assert.Equal(t, "Alert triggered", entries[0].Action)
	assert.Equal(t, "Emergency contacts notified", entries[1].Action)
	assert.Equal(t, "Alert acknowledged", entries[2].Action)
	assert.Equal(t, "Alert resolved", entries[3].Action)
}

func TestResolveWithoutAcknowledge(t *testing.T) {
	repo := newFakeAlertRepo()
	notifier := &fakeNotifier{result: &notify.FanOutResult{Status: notify.FanOutStatusSkipped, Receipts: []notify.DeliveryReceipt{}}}
	service := newTestAlertService(repo, notifier, &fakeRecipientLister{})

	output, err := service.TriggerAlert(context.Background(), TriggerAlertInput{
		DriverID:  7,
		Latitude:  -34.0276,
		Longitude: 18.5881,
		AlertType: models.AlertTypeEmergency,
	})
	require.NoError(t, err)

	// Resolving straight from Active still stamps the response time.
	resolved, err := service.Resolve(context.Background(), output.Alert.ID, "Dispatcher1", models.NullString{})
	require.NoError(t, err)
	assert.Equal(t, models.AlertStatusResolved, resolved.Status)
	require.True(t, resolved.ResponseTimeMinutes.Valid)
	assert.GreaterOrEqual(t, resolved.ResponseTimeMinutes.Float64, 0.0)
}

func TestCancelAlertService(t *testing.T) {
	trigger := func(t *testing.T) (*fakeAlertRepo, *AlertService, *models.PanicAlert) {
		t.Helper()
		repo := newFakeAlertRepo()
		notifier := &fakeNotifier{result: &notify.FanOutResult{Status: notify.FanOutStatusSkipped, Receipts: []notify.DeliveryReceipt{}}}
		service := newTestAlertService(repo, notifier, &fakeRecipientLister{})

		output, err := service.TriggerAlert(context.Background(), TriggerAlertInput{
			DriverID:  7,
			Latitude:  -34.0276,
			Longitude: 18.5881,
			AlertType: models.AlertTypeEmergency,
		})
		require.NoError(t, err)
		return repo, service, output.Alert
	}

	t.Run("Within Window", func(t *testing.T) {
		_, service, alert := trigger(t)

		cancelled, err := service.Cancel(context.Background(), alert.ID, 7)
		require.NoError(t, err)
		assert.Equal(t, models.AlertStatusCancelled, cancelled.Status)
	})

	t.Run("Another Driver", func(t *testing.T) {
		_, service, alert := trigger(t)

		_, err := service.Cancel(context.Background(), alert.ID, 8)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("Window Expired", func(t *testing.T) {
		repo, service, alert := trigger(t)

		// Age the alert past the cancel window
		repo.alerts[alert.ID].TriggeredAt = time.Now().UTC().Add(-10 * time.Minute)

		_, err := service.Cancel(context.Background(), alert.ID, 7)
		assert.ErrorIs(t, err, ErrCancelWindowExpired)
	})

	t.Run("Already Acknowledged", func(t *testing.T) {
		_, service, alert := trigger(t)

		_, err := service.Acknowledge(context.Background(), alert.ID, "Dispatcher1")
		require.NoError(t, err)

		_, err = service.Cancel(context.Background(), alert.ID, 7)
		assert.ErrorIs(t, err, ErrInvalidStateTransition)
	})
}
