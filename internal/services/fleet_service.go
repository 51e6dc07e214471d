package services

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/saferoute/fleet-safety-backend/internal/database"
	"github.com/saferoute/fleet-safety-backend/internal/models"
	"github.com/saferoute/fleet-safety-backend/pkg/validator"
)

type companyRepository interface {
	Create(company *models.Company) error
	GetByID(id int64) (*models.Company, error)
	List() ([]models.Company, error)
}

type dispatcherRepository interface {
	Create(d *models.Dispatcher) error
	GetByID(id int64) (*models.Dispatcher, error)
	ListOnDuty() ([]models.Dispatcher, error)
	SetOnDuty(id int64, onDuty bool) error
}

// FleetService manages fleet operators and control-room dispatchers
type FleetService struct {
	companies   companyRepository
	dispatchers dispatcherRepository
	phones      *validator.PhoneValidator
	logger      *logrus.Logger
}

// NewFleetService creates a new fleet service
func NewFleetService(companies companyRepository, dispatchers dispatcherRepository, logger *logrus.Logger) *FleetService {
	return &FleetService{
		companies:   companies,
		dispatchers: dispatchers,
		phones:      validator.NewPhoneValidator(),
		logger:      logger,
	}
}

// CreateCompany registers a new fleet operator
func (s *FleetService) CreateCompany(company *models.Company) (*models.Company, error) {
	if company.Name == "" {
		return nil, NewValidationError("name", "company name is required")
	}
	if company.SubscriptionPlan == "" {
		company.SubscriptionPlan = "standard"
	}

	if err := s.companies.Create(company); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, NewValidationError("registration_no", "company already registered")
		}
		return nil, fmt.Errorf("failed to create company: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"company_id": company.ID,
		"name":       company.Name,
	}).Info("Company registered")

	return company, nil
}

// GetCompany returns one fleet operator
func (s *FleetService) GetCompany(companyID int64) (*models.Company, error) {
	company, err := s.companies.GetByID(companyID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("company %d: %w", companyID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load company: %w", err)
	}
	return company, nil
}

// ListCompanies returns all fleet operators
func (s *FleetService) ListCompanies() ([]models.Company, error) {
	return s.companies.List()
}

// CreateDispatcher registers a dispatcher profile for a user account
func (s *FleetService) CreateDispatcher(d *models.Dispatcher) (*models.Dispatcher, error) {
	if d.UserID == "" {
		return nil, NewValidationError("user_id", "user id is required")
	}
	if d.Phone != "" {
		normalized, err := s.phones.MustValidate(d.Phone)
		if err != nil {
			return nil, NewValidationError("phone", err.Error())
		}
		d.Phone = normalized
	}

	if err := s.dispatchers.Create(d); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return nil, NewValidationError("user_id", "dispatcher profile already exists for this user")
		}
		if errors.Is(err, database.ErrRestricted) {
			return nil, NewValidationError("user_id", "no such user account")
		}
		return nil, fmt.Errorf("failed to create dispatcher: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"dispatcher_id": d.ID,
		"user_id":       d.UserID,
	}).Info("Dispatcher registered")

	return d, nil
}

// GetDispatcher returns one dispatcher profile
func (s *FleetService) GetDispatcher(dispatcherID int64) (*models.Dispatcher, error) {
	d, err := s.dispatchers.GetByID(dispatcherID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("dispatcher %d: %w", dispatcherID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load dispatcher: %w", err)
	}
	return d, nil
}

// ListOnDutyDispatchers returns dispatchers currently on shift
func (s *FleetService) ListOnDutyDispatchers() ([]models.Dispatcher, error) {
	return s.dispatchers.ListOnDuty()
}

// SetDispatcherDuty toggles a dispatcher's on-duty flag
func (s *FleetService) SetDispatcherDuty(dispatcherID int64, onDuty bool) (*models.Dispatcher, error) {
	if err := s.dispatchers.SetOnDuty(dispatcherID, onDuty); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("dispatcher %d: %w", dispatcherID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to set dispatcher duty: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"dispatcher_id": dispatcherID,
		"on_duty":       onDuty,
	}).Info("Dispatcher duty updated")

	return s.dispatchers.GetByID(dispatcherID)
}
