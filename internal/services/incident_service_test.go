package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/fleet-safety-backend/internal/database"
	"github.com/saferoute/fleet-safety-backend/internal/models"
	"github.com/saferoute/fleet-safety-backend/internal/notify"
)

// fakeIncidentRepo is an in-memory incidentRepository that mirrors the real
// transactional zone bump.
type fakeIncidentRepo struct {
	incidents  map[int64]*models.Incident
	responses  []models.IncidentResponse
	zoneCounts map[int64]int
	nextID     int64
}

func newFakeIncidentRepo() *fakeIncidentRepo {
	return &fakeIncidentRepo{
		incidents:  map[int64]*models.Incident{},
		zoneCounts: map[int64]int{},
		nextID:     1,
	}
}

func (f *fakeIncidentRepo) CreateWithZoneUpdate(incident *models.Incident) error {
	incident.ID = f.nextID
	f.nextID++
	incident.Status = models.IncidentStatusReported
	copied := *incident
	f.incidents[incident.ID] = &copied
	if incident.ZoneID.Valid && (incident.Severity == models.RiskLevelHigh || incident.Severity == models.RiskLevelCritical) {
		f.zoneCounts[incident.ZoneID.Int64]++
	}
	return nil
}

func (f *fakeIncidentRepo) GetByID(id int64) (*models.Incident, error) {
	incident, ok := f.incidents[id]
	if !ok {
		return nil, fmt.Errorf("incident %d not found: %w", id, database.ErrNotFound)
	}
	copied := *incident
	return &copied, nil
}

func (f *fakeIncidentRepo) ListByDriver(driverID int64) ([]models.Incident, error) {
	incidents := []models.Incident{}
	for _, i := range f.incidents {
		if i.DriverID == driverID {
			incidents = append(incidents, *i)
		}
	}
	return incidents, nil
}

func (f *fakeIncidentRepo) ListByStatus(status models.IncidentStatus) ([]models.Incident, error) {
	incidents := []models.Incident{}
	for _, i := range f.incidents {
		if i.Status == status {
			incidents = append(incidents, *i)
		}
	}
	return incidents, nil
}

func (f *fakeIncidentRepo) Verify(id int64, by string, at time.Time) (int64, error) {
	incident, ok := f.incidents[id]
	if !ok || (incident.Status != models.IncidentStatusReported && incident.Status != models.IncidentStatusUnderReview) {
		return 0, nil
	}
	incident.Status = models.IncidentStatusVerified
	incident.VerifiedBy = models.NewNullString(by)
	incident.VerifiedAt = models.NewNullTime(at)
	return 1, nil
}

func (f *fakeIncidentRepo) MarkUnderReview(id int64) (int64, error) {
	incident, ok := f.incidents[id]
	if !ok || incident.Status != models.IncidentStatusReported {
		return 0, nil
	}
	incident.Status = models.IncidentStatusUnderReview
	return 1, nil
}

func (f *fakeIncidentRepo) Resolve(id int64, notes models.NullString) (int64, error) {
	incident, ok := f.incidents[id]
	if !ok || incident.Status != models.IncidentStatusVerified {
		return 0, nil
	}
	incident.Status = models.IncidentStatusResolved
	incident.ResolutionNotes = notes
	return 1, nil
}

func (f *fakeIncidentRepo) AddResponse(response *models.IncidentResponse) error {
	response.ID = int64(len(f.responses) + 1)
	response.CreatedAt = time.Now()
	f.responses = append(f.responses, *response)
	return nil
}

func (f *fakeIncidentRepo) ListResponses(incidentID int64) ([]models.IncidentResponse, error) {
	responses := []models.IncidentResponse{}
	for _, r := range f.responses {
		if r.IncidentID == incidentID {
			responses = append(responses, r)
		}
	}
	return responses, nil
}

type fakeZoneFinder struct {
	zone *models.RiskZone
}

func (f *fakeZoneFinder) FindZoneForPoint(lat, lon float64) (*models.RiskZone, error) {
	return f.zone, nil
}

func newTestIncidentService(repo *fakeIncidentRepo, zone *models.RiskZone) *IncidentService {
	return NewIncidentService(repo, &fakeZoneFinder{zone: zone}, notify.NoopDispatchPublisher{}, testLogger())
}

func validReport() ReportIncidentInput {
	return ReportIncidentInput{
		DriverID:     7,
		IncidentType: "Hijacking",
		Severity:     "High",
		Latitude:     -34.0276,
		Longitude:    18.5881,
		Description:  "attempted hijacking at traffic light",
	}
}

func TestReportIncident(t *testing.T) {
	t.Run("Inside Zone Bumps Counter", func(t *testing.T) {
		repo := newFakeIncidentRepo()
		zone := &models.RiskZone{ID: 3, Name: "Nyanga Junction", RiskLevel: models.RiskLevelCritical}
		service := newTestIncidentService(repo, zone)

		incident, err := service.ReportIncident(context.Background(), validReport())
		require.NoError(t, err)
		assert.Equal(t, models.IncidentStatusReported, incident.Status)
		require.True(t, incident.ZoneID.Valid)
		assert.Equal(t, int64(3), incident.ZoneID.Int64)
		assert.Equal(t, 1, repo.zoneCounts[3])
	})

	t.Run("Low Severity Inside Zone Leaves Counter Alone", func(t *testing.T) {
		repo := newFakeIncidentRepo()
		zone := &models.RiskZone{ID: 3, Name: "Nyanga Junction", RiskLevel: models.RiskLevelCritical}
		service := newTestIncidentService(repo, zone)

		input := validReport()
		input.IncidentType = "Theft"
		input.Severity = models.RiskLevelLow
		input.Description = "side mirror stolen while parked"

		incident, err := service.ReportIncident(context.Background(), input)
		require.NoError(t, err)
		require.True(t, incident.ZoneID.Valid)
		assert.Equal(t, int64(3), incident.ZoneID.Int64)
		assert.Empty(t, repo.zoneCounts)
	})

	t.Run("Outside Zone Leaves Counters Alone", func(t *testing.T) {
		repo := newFakeIncidentRepo()
		service := newTestIncidentService(repo, nil)

		incident, err := service.ReportIncident(context.Background(), validReport())
		require.NoError(t, err)
		assert.False(t, incident.ZoneID.Valid)
		assert.Empty(t, repo.zoneCounts)
	})

	t.Run("Defaults OccurredAt To Now", func(t *testing.T) {
		repo := newFakeIncidentRepo()
		service := newTestIncidentService(repo, nil)

		incident, err := service.ReportIncident(context.Background(), validReport())
		require.NoError(t, err)
		assert.WithinDuration(t, time.Now().UTC(), incident.OccurredAt, time.Minute)
	})

	t.Run("Rejects Future OccurredAt", func(t *testing.T) {
		repo := newFakeIncidentRepo()
		service := newTestIncidentService(repo, nil)

		input := validReport()
		input.OccurredAt = time.Now().UTC().Add(time.Hour)

		_, err := service.ReportIncident(context.Background(), input)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "occurred_at", validationErr.Field)
	})

	t.Run("Rejects Missing Description", func(t *testing.T) {
		repo := newFakeIncidentRepo()
		service := newTestIncidentService(repo, nil)

		input := validReport()
		input.Description = ""

		_, err := service.ReportIncident(context.Background(), input)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "description", validationErr.Field)
	})

	t.Run("Rejects Unknown Severity", func(t *testing.T) {
		repo := newFakeIncidentRepo()
		service := newTestIncidentService(repo, nil)

		input := validReport()
		input.Severity = "Catastrophic"

		_, err := service.ReportIncident(context.Background(), input)
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "severity", validationErr.Field)
	})
}

func TestIncidentLifecycle(t *testing.T) {
	report := func(t *testing.T) (*fakeIncidentRepo, *IncidentService, *models.Incident) {
		t.Helper()
		repo := newFakeIncidentRepo()
		service := newTestIncidentService(repo, nil)
		incident, err := service.ReportIncident(context.Background(), validReport())
		require.NoError(t, err)
		return repo, service, incident
	}

	t.Run("Reported To Verified To Resolved", func(t *testing.T) {
		_, service, incident := report(t)

		verified, err := service.Verify(context.Background(), incident.ID, "Dispatcher1")
		require.NoError(t, err)
		assert.Equal(t, models.IncidentStatusVerified, verified.Status)
		assert.Equal(t, "Dispatcher1", verified.VerifiedBy.String)

		resolved, err := service.Resolve(incident.ID, "Dispatcher1", models.NewNullString("suspects arrested"))
		require.NoError(t, err)
		assert.Equal(t, models.IncidentStatusResolved, resolved.Status)
		assert.Equal(t, "suspects arrested", resolved.ResolutionNotes.String)
	})

	t.Run("Review Detour", func(t *testing.T) {
		_, service, incident := report(t)

		underReview, err := service.MarkUnderReview(incident.ID, "Dispatcher1")
		require.NoError(t, err)
		assert.Equal(t, models.IncidentStatusUnderReview, underReview.Status)

		verified, err := service.Verify(context.Background(), incident.ID, "Dispatcher1")
		require.NoError(t, err)
		assert.Equal(t, models.IncidentStatusVerified, verified.Status)
	})

	t.Run("Resolve Before Verify Fails", func(t *testing.T) {
		_, service, incident := report(t)

		_, err := service.Resolve(incident.ID, "Dispatcher1", models.NullString{})
		assert.ErrorIs(t, err, ErrInvalidStateTransition)
	})

	t.Run("Double Verify Fails", func(t *testing.T) {
		_, service, incident := report(t)

		_, err := service.Verify(context.Background(), incident.ID, "Dispatcher1")
		require.NoError(t, err)

		_, err = service.Verify(context.Background(), incident.ID, "Dispatcher2")
		assert.ErrorIs(t, err, ErrInvalidStateTransition)
	})

	t.Run("Missing Incident", func(t *testing.T) {
		repo := newFakeIncidentRepo()
		service := newTestIncidentService(repo, nil)

		_, err := service.Verify(context.Background(), 999, "Dispatcher1")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("Responses Recorded Per Transition", func(t *testing.T) {
		_, service, incident := report(t)

		_, err := service.Verify(context.Background(), incident.ID, "Dispatcher1")
		require.NoError(t, err)
		_, err = service.Resolve(incident.ID, "Dispatcher1", models.NullString{})
		require.NoError(t, err)

		_, responses, err := service.GetByID(incident.ID)
		require.NoError(t, err)
		require.Len(t, responses, 2)
		assert.Equal(t, "verified", responses[0].Action)
		assert.Equal(t, "resolved", responses[1].Action)
	})
}
