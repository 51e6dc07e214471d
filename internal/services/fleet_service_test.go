package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saferoute/fleet-safety-backend/internal/database"
	"github.com/saferoute/fleet-safety-backend/internal/models"
)

type fakeCompanyRepo struct {
	companies map[int64]*models.Company
	nextID    int64
}

func newFakeCompanyRepo() *fakeCompanyRepo {
	return &fakeCompanyRepo{companies: map[int64]*models.Company{}, nextID: 1}
}

func (f *fakeCompanyRepo) Create(company *models.Company) error {
	for _, existing := range f.companies {
		if company.RegistrationNo.Valid && existing.RegistrationNo.Valid &&
			existing.RegistrationNo.String == company.RegistrationNo.String {
			return fmt.Errorf("failed to create company: %w", database.ErrDuplicate)
		}
	}
	company.ID = f.nextID
	f.nextID++
	company.IsActive = true
	copied := *company
	f.companies[company.ID] = &copied
	return nil
}

func (f *fakeCompanyRepo) GetByID(id int64) (*models.Company, error) {
	company, ok := f.companies[id]
	if !ok {
		return nil, fmt.Errorf("company %d not found: %w", id, database.ErrNotFound)
	}
	copied := *company
	return &copied, nil
}

func (f *fakeCompanyRepo) List() ([]models.Company, error) {
	companies := []models.Company{}
	for _, company := range f.companies {
		companies = append(companies, *company)
	}
	return companies, nil
}

type fakeDispatcherRepo struct {
	dispatchers map[int64]*models.Dispatcher
	knownUsers  map[string]bool
	nextID      int64
}

func newFakeDispatcherRepo(userIDs ...string) *fakeDispatcherRepo {
	f := &fakeDispatcherRepo{
		dispatchers: map[int64]*models.Dispatcher{},
		knownUsers:  map[string]bool{},
		nextID:      1,
	}
	for _, id := range userIDs {
		f.knownUsers[id] = true
	}
	return f
}

func (f *fakeDispatcherRepo) Create(d *models.Dispatcher) error {
	if !f.knownUsers[d.UserID] {
		return fmt.Errorf("failed to create dispatcher: %w", database.ErrRestricted)
	}
	for _, existing := range f.dispatchers {
		if existing.UserID == d.UserID {
			return fmt.Errorf("failed to create dispatcher: %w", database.ErrDuplicate)
		}
	}
	d.ID = f.nextID
	f.nextID++
	copied := *d
	f.dispatchers[d.ID] = &copied
	return nil
}

func (f *fakeDispatcherRepo) GetByID(id int64) (*models.Dispatcher, error) {
	d, ok := f.dispatchers[id]
	if !ok {
		return nil, fmt.Errorf("dispatcher %d not found: %w", id, database.ErrNotFound)
	}
	copied := *d
	return &copied, nil
}

func (f *fakeDispatcherRepo) ListOnDuty() ([]models.Dispatcher, error) {
	onDuty := []models.Dispatcher{}
	for _, d := range f.dispatchers {
		if d.IsOnDuty {
			onDuty = append(onDuty, *d)
		}
	}
	return onDuty, nil
}

func (f *fakeDispatcherRepo) SetOnDuty(id int64, onDuty bool) error {
	d, ok := f.dispatchers[id]
	if !ok {
		return fmt.Errorf("dispatcher %d not found: %w", id, database.ErrNotFound)
	}
	d.IsOnDuty = onDuty
	return nil
}

func TestFleetService_CreateCompany(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		service := NewFleetService(newFakeCompanyRepo(), newFakeDispatcherRepo(), testLogger())

		company, err := service.CreateCompany(&models.Company{
			Name:           "Shosholoza Logistics",
			RegistrationNo: models.NewNullString("2019/123456/07"),
		})
		require.NoError(t, err)

		assert.NotZero(t, company.ID)
		assert.True(t, company.IsActive)
		assert.Equal(t, "standard", company.SubscriptionPlan)
	})

	t.Run("Missing Name", func(t *testing.T) {
		service := NewFleetService(newFakeCompanyRepo(), newFakeDispatcherRepo(), testLogger())

		_, err := service.CreateCompany(&models.Company{})
		require.Error(t, err)

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "name", validationErr.Field)
	})

	t.Run("Duplicate Registration", func(t *testing.T) {
		service := NewFleetService(newFakeCompanyRepo(), newFakeDispatcherRepo(), testLogger())

		_, err := service.CreateCompany(&models.Company{
			Name:           "Shosholoza Logistics",
			RegistrationNo: models.NewNullString("2019/123456/07"),
		})
		require.NoError(t, err)

		_, err = service.CreateCompany(&models.Company{
			Name:           "Shosholoza Freight",
			RegistrationNo: models.NewNullString("2019/123456/07"),
		})
		require.Error(t, err)

		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "registration_no", validationErr.Field)
	})
}

func TestFleetService_GetCompany(t *testing.T) {
	repo := newFakeCompanyRepo()
	service := NewFleetService(repo, newFakeDispatcherRepo(), testLogger())

	created, err := service.CreateCompany(&models.Company{Name: "Shosholoza Logistics"})
	require.NoError(t, err)

	t.Run("Found", func(t *testing.T) {
		company, err := service.GetCompany(created.ID)
		require.NoError(t, err)
		assert.Equal(t, "Shosholoza Logistics", company.Name)
	})

	t.Run("Not Found", func(t *testing.T) {
		_, err := service.GetCompany(999)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestFleetService_CreateDispatcher(t *testing.T) {
	const userID = "4fd1ec3c-9f0a-4f19-bb52-0a9f5d2f7a11"

	t.Run("Success With Phone Normalization", func(t *testing.T) {
		service := NewFleetService(newFakeCompanyRepo(), newFakeDispatcherRepo(userID), testLogger())

		d, err := service.CreateDispatcher(&models.Dispatcher{
			UserID: userID,
			Phone:  "082 123 4567",
		})
		require.NoError(t, err)

		assert.NotZero(t, d.ID)
		assert.Equal(t, "0821234567", d.Phone)
	})

	t.Run("Missing User ID", func(t *testing.T) {
		service := NewFleetService(newFakeCompanyRepo(), newFakeDispatcherRepo(), testLogger())

		_, err := service.CreateDispatcher(&models.Dispatcher{})
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "user_id", validationErr.Field)
	})

	t.Run("Invalid Phone", func(t *testing.T) {
		service := NewFleetService(newFakeCompanyRepo(), newFakeDispatcherRepo(userID), testLogger())

		_, err := service.CreateDispatcher(&models.Dispatcher{
			UserID: userID,
			Phone:  "12345",
		})
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "phone", validationErr.Field)
	})

	t.Run("Unknown User", func(t *testing.T) {
		service := NewFleetService(newFakeCompanyRepo(), newFakeDispatcherRepo(), testLogger())

		_, err := service.CreateDispatcher(&models.Dispatcher{UserID: userID})
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "user_id", validationErr.Field)
	})

	t.Run("Duplicate Profile", func(t *testing.T) {
		service := NewFleetService(newFakeCompanyRepo(), newFakeDispatcherRepo(userID), testLogger())

		_, err := service.CreateDispatcher(&models.Dispatcher{UserID: userID})
		require.NoError(t, err)

		_, err = service.CreateDispatcher(&models.Dispatcher{UserID: userID})
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "user_id", validationErr.Field)
	})
}

func TestFleetService_DispatcherDuty(t *testing.T) {
	const userID = "4fd1ec3c-9f0a-4f19-bb52-0a9f5d2f7a11"

	repo := newFakeDispatcherRepo(userID)
	service := NewFleetService(newFakeCompanyRepo(), repo, testLogger())

	created, err := service.CreateDispatcher(&models.Dispatcher{UserID: userID})
	require.NoError(t, err)
	require.False(t, created.IsOnDuty)

	t.Run("Go On Duty", func(t *testing.T) {
		d, err := service.SetDispatcherDuty(created.ID, true)
		require.NoError(t, err)
		assert.True(t, d.IsOnDuty)

		onDuty, err := service.ListOnDutyDispatchers()
		require.NoError(t, err)
		assert.Len(t, onDuty, 1)
	})

	t.Run("Go Off Duty", func(t *testing.T) {
		d, err := service.SetDispatcherDuty(created.ID, false)
		require.NoError(t, err)
		assert.False(t, d.IsOnDuty)

		onDuty, err := service.ListOnDutyDispatchers()
		require.NoError(t, err)
		assert.Empty(t, onDuty)
	})

	t.Run("Unknown Dispatcher", func(t *testing.T) {
		_, err := service.SetDispatcherDuty(999, true)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
