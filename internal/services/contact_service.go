package services

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/saferoute/fleet-safety-backend/internal/database"
	"github.com/saferoute/fleet-safety-backend/internal/models"
	"github.com/saferoute/fleet-safety-backend/pkg/validator"
)

type contactRepository interface {
	Create(contact *models.EmergencyContact) error
	GetByID(id int64) (*models.EmergencyContact, error)
	ListByDriver(driverID int64) ([]models.EmergencyContact, error)
	Update(contact *models.EmergencyContact) error
	Delete(id int64) error
}

// ContactService manages a driver's emergency contacts. Phone numbers are
// normalized before storage so the SMS gateway never sees a formatted number.
type ContactService struct {
	contacts contactRepository
	phones   *validator.PhoneValidator
	logger   *logrus.Logger
}

// NewContactService creates a new contact service
func NewContactService(contacts contactRepository, logger *logrus.Logger) *ContactService {
	return &ContactService{
		contacts: contacts,
		phones:   validator.NewPhoneValidator(),
		logger:   logger,
	}
}

// Create validates and stores a new emergency contact for a driver
func (s *ContactService) Create(contact *models.EmergencyContact) (*models.EmergencyContact, error) {
	if err := s.validate(contact); err != nil {
		return nil, err
	}

	if err := s.contacts.Create(contact); err != nil {
		if errors.Is(err, database.ErrRestricted) {
			return nil, fmt.Errorf("driver %d: %w", contact.DriverID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"contact_id": contact.ID,
		"driver_id":  contact.DriverID,
		"is_primary": contact.IsPrimary,
	}).Info("Emergency contact added")

	return contact, nil
}

// GetByID returns a contact, enforcing driver ownership
func (s *ContactService) GetByID(contactID, driverID int64) (*models.EmergencyContact, error) {
	contact, err := s.contacts.GetByID(contactID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, fmt.Errorf("contact %d: %w", contactID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load contact: %w", err)
	}
	if contact.DriverID != driverID {
		return nil, fmt.Errorf("contact %d belongs to another driver: %w", contactID, ErrForbidden)
	}
	return contact, nil
}

// ListByDriver returns a driver's contacts, primary first
func (s *ContactService) ListByDriver(driverID int64) ([]models.EmergencyContact, error) {
	return s.contacts.ListByDriver(driverID)
}

// Update validates and saves contact changes, enforcing driver ownership
func (s *ContactService) Update(contact *models.EmergencyContact) (*models.EmergencyContact, error) {
	existing, err := s.GetByID(contact.ID, contact.DriverID)
	if err != nil {
		return nil, err
	}
	contact.DriverID = existing.DriverID

	if err := s.validate(contact); err != nil {
		return nil, err
	}

	if err := s.contacts.Update(contact); err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}

	return s.contacts.GetByID(contact.ID)
}

// Delete removes a contact, enforcing driver ownership
func (s *ContactService) Delete(contactID, driverID int64) error {
	if _, err := s.GetByID(contactID, driverID); err != nil {
		return err
	}

	if err := s.contacts.Delete(contactID); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil
}

func (s *ContactService) validate(contact *models.EmergencyContact) error {
	if contact.Name == "" {
		return NewValidationError("name", "name is required")
	}
	if contact.Relationship == "" {
		return NewValidationError("relationship", "relationship is required")
	}

	normalized, err := s.phones.MustValidate(contact.Phone)
	if err != nil {
		return NewValidationError("phone", err.Error())
	}
	contact.Phone = normalized

	return nil
}
