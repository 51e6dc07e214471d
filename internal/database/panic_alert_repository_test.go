package database

import (
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/fleet-safety-backend/internal/models"
)

func TestCreatePanicAlert(t *testing.T) {
	mockDB, mock := newMockDatabase(t)
	repo := NewPanicAlertRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		alert := &models.PanicAlert{
			DriverID:    7,
			Latitude:    -34.0276,
			Longitude:   18.5881,
			AlertType:   "Emergency",
			Priority:    "Critical",
			TriggeredAt: now,
		}

		mock.ExpectQuery(`INSERT INTO panic_alerts`).
			WithArgs(
				alert.DriverID, alert.RouteID, alert.Latitude, alert.Longitude,
				alert.Location, alert.AlertType, alert.Description,
				models.AlertStatusActive, alert.Priority, alert.TriggeredAt,
				sqlmock.AnyArg(),
			).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "status", "triggered_at", "created_at", "updated_at",
			}).AddRow(int64(1), string(models.AlertStatusActive), now, now, now))

		err := repo.Create(alert)
		require.NoError(t, err)
		assert.Equal(t, int64(1), alert.ID)
		assert.Equal(t, models.AlertStatusActive, alert.Status)
		assert.NotNil(t, alert.NotifiedContacts)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Second Active Alert For Driver", func(t *testing.T) {
		alert := &models.PanicAlert{
			DriverID:    7,
			Latitude:    -34.0276,
			Longitude:   18.5881,
			AlertType:   "Emergency",
			Priority:    "Critical",
			TriggeredAt: time.Now(),
		}

		mock.ExpectQuery(`INSERT INTO panic_alerts`).
			WillReturnError(&pq.Error{Code: "23505", Constraint: "idx_panic_alerts_one_active_per_driver"})

		err := repo.Create(alert)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDuplicate)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetPanicAlertByID(t *testing.T) {
	mockDB, mock := newMockDatabase(t)
	repo := NewPanicAlertRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM panic_alerts WHERE id = \$1`).
			WithArgs(int64(1)).
			WillReturnRows(alertRows().AddRow(
				int64(1), int64(7), nil, -34.0276, 18.5881, "N2 Highway",
				"Emergency", nil, "Active", "Critical", now,
				nil, nil, nil, nil, nil, nil, []byte(`{}`), now, now,
			))

		alert, err := repo.GetByID(1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), alert.ID)
		assert.Equal(t, int64(7), alert.DriverID)
		assert.Equal(t, models.AlertStatusActive, alert.Status)
		assert.Equal(t, "N2 Highway", alert.Location.String)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM panic_alerts WHERE id = \$1`).
			WithArgs(int64(999)).
			WillReturnRows(alertRows())

		alert, err := repo.GetByID(999)
		assert.Nil(t, alert)
		assert.ErrorIs(t, err, ErrNotFound)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAcknowledgeAlert(t *testing.T) {
	mockDB, mock := newMockDatabase(t)
	repo := NewPanicAlertRepository(mockDB)

	t.Run("Active Alert", func(t *testing.T) {
		at := time.Now()

		mock.ExpectExec(`UPDATE panic_alerts`).
			WithArgs(int64(1), models.AlertStatusAcknowledged, at, "Dispatcher1", 2.5, models.AlertStatusActive).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rows, err := repo.Acknowledge(1, "Dispatcher1", at, 2.5)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Acknowledged", func(t *testing.T) {
		at := time.Now()

		mock.ExpectExec(`UPDATE panic_alerts`).
			WithArgs(int64(1), models.AlertStatusAcknowledged, at, "Dispatcher2", 3.0, models.AlertStatusActive).
			WillReturnResult(sqlmock.NewResult(0, 0))

		rows, err := repo.Acknowledge(1, "Dispatcher2", at, 3.0)
		require.NoError(t, err)
		assert.Zero(t, rows)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestResolveAlert(t *testing.T) {
	mockDB, mock := newMockDatabase(t)
	repo := NewPanicAlertRepository(mockDB)

	t.Run("Acknowledged Alert", func(t *testing.T) {
		at := time.Now()
		notes := models.NewNullString("false alarm confirmed by driver")

		mock.ExpectExec(`UPDATE panic_alerts`).
			WithArgs(int64(1), models.AlertStatusResolved, at, "Dispatcher1", notes, 12.5,
				models.AlertStatusActive, models.AlertStatusAcknowledged).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rows, err := repo.Resolve(1, "Dispatcher1", at, notes, 12.5)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Already Resolved", func(t *testing.T) {
		at := time.Now()

		mock.ExpectExec(`UPDATE panic_alerts`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		rows, err := repo.Resolve(1, "Dispatcher1", at, models.NullString{}, 3)
		require.NoError(t, err)
		assert.Zero(t, rows)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCancelAlert(t *testing.T) {
	mockDB, mock := newMockDatabase(t)
	repo := NewPanicAlertRepository(mockDB)

	t.Run("Within Window", func(t *testing.T) {
		at := time.Now()
		cutoff := at.Add(-5 * time.Minute)

		mock.ExpectExec(`UPDATE panic_alerts`).
			WithArgs(int64(1), models.AlertStatusCancelled, at, models.AlertStatusActive, cutoff).
			WillReturnResult(sqlmock.NewResult(0, 1))

		rows, err := repo.Cancel(1, at, cutoff)
		require.NoError(t, err)
		assert.Equal(t, int64(1), rows)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Window Expired", func(t *testing.T) {
		at := time.Now()
		cutoff := at.Add(-5 * time.Minute)

		mock.ExpectExec(`UPDATE panic_alerts`).
			WithArgs(int64(2), models.AlertStatusCancelled, at, models.AlertStatusActive, cutoff).
			WillReturnResult(sqlmock.NewResult(0, 0))

		rows, err := repo.Cancel(2, at, cutoff)
		require.NoError(t, err)
		assert.Zero(t, rows)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSetNotifiedContacts(t *testing.T) {
	mockDB, mock := newMockDatabase(t)
	repo := NewPanicAlertRepository(mockDB)

	contacts := pq.StringArray{"Thandi Nkosi", "Sipho Nkosi"}

	mock.ExpectExec(`UPDATE panic_alerts SET notified_contacts`).
		WithArgs(int64(1), contacts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SetNotifiedContacts(1, contacts)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAppendResponseLog(t *testing.T) {
	mockDB, mock := newMockDatabase(t)
	repo := NewPanicAlertRepository(mockDB)

	now := time.Now()
	entry := &models.AlertResponseLogEntry{
		AlertID:     1,
		Action:      "acknowledged",
		PerformedBy: "Dispatcher1",
	}

	mock.ExpectQuery(`INSERT INTO alert_response_log`).
		WithArgs(entry.AlertID, entry.Action, entry.PerformedBy, entry.Notes).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(3), now))

	err := repo.AppendResponseLog(entry)
	require.NoError(t, err)
	assert.Equal(t, int64(3), entry.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAlertStats(t *testing.T) {
	mockDB, mock := newMockDatabase(t)
	repo := NewPanicAlertRepository(mockDB)

	mock.ExpectQuery(`SELECT(.+)FROM panic_alerts`).
		WillReturnRows(sqlmock.NewRows([]string{
			"total_alerts", "active_alerts", "resolved_alerts",
			"cancelled_alerts", "avg_response_time_mins",
		}).AddRow(int64(10), int64(2), int64(6), int64(2), 4.25))

	stats, err := repo.GetStats()
	require.NoError(t, err)
	assert.Equal(t, int64(10), stats.TotalAlerts)
	assert.Equal(t, int64(2), stats.ActiveAlerts)
	assert.Equal(t, int64(6), stats.ResolvedAlerts)
	require.True(t, stats.AvgResponseTimeMins.Valid)
	assert.InDelta(t, 4.25, stats.AvgResponseTimeMins.Float64, 1e-9)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAlertStats_Error(t *testing.T) {
	mockDB, mock := newMockDatabase(t)
	repo := NewPanicAlertRepository(mockDB)

	mock.ExpectQuery(`SELECT(.+)FROM panic_alerts`).
		WillReturnError(fmt.Errorf("database error"))

	stats, err := repo.GetStats()
	assert.Error(t, err)
	assert.Nil(t, stats)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func alertRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "driver_id", "route_id", "latitude", "longitude", "location",
		"alert_type", "description", "status", "priority", "triggered_at",
		"acknowledged_at", "acknowledged_by", "resolved_at", "resolved_by",
		"resolution_notes", "response_time_minutes", "notified_contacts",
		"created_at", "updated_at",
	})
}
