package database

import (
	"database/sql"
	"fmt"

	"github.com/saferoute/fleet-safety-backend/internal/models"
)

// EmergencyContactRepository handles emergency contact persistence. The
// single-primary rule is enforced twice: a demote-others UPDATE inside the
// write transaction, backed by the partial unique index on
// (driver_id) WHERE is_primary.
type EmergencyContactRepository struct {
	db DB
}

// NewEmergencyContactRepository creates a new emergency contact repository
func NewEmergencyContactRepository(db DB) *EmergencyContactRepository {
	return &EmergencyContactRepository{
		db: db,
	}
}

const contactColumns = `id, driver_id, name, surname, relationship, phone, email,
	notify_on_panic, notify_on_route_start, notify_on_route_end, notify_on_incident,
	is_primary, created_at, updated_at`

// Create inserts a contact. When the new contact is primary, any existing
// primary for the driver is demoted in the same transaction.
func (r *EmergencyContactRepository) Create(contact *models.EmergencyContact) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if contact.IsPrimary {
		demote := `UPDATE emergency_contacts SET is_primary = false, updated_at = NOW() WHERE driver_id = $1 AND is_primary = true`
		if _, err := tx.Exec(demote, contact.DriverID); err != nil {
			return fmt.Errorf("failed to demote primary contact: %w", err)
		}
	}

	query := `
		INSERT INTO emergency_contacts (driver_id, name, surname, relationship, phone, email,
		                                notify_on_panic, notify_on_route_start, notify_on_route_end,
		                                notify_on_incident, is_primary, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		RETURNING id, created_at, updated_at
	`

	err = tx.QueryRow(query,
		contact.DriverID,
		contact.Name,
		contact.Surname,
		contact.Relationship,
		contact.Phone,
		contact.Email,
		contact.NotifyOnPanic,
		contact.NotifyOnRouteStart,
		contact.NotifyOnRouteEnd,
		contact.NotifyOnIncident,
		contact.IsPrimary,
	).Scan(&contact.ID, &contact.CreatedAt, &contact.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create emergency contact: %w", translateError(err))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit emergency contact: %w", err)
	}

	return nil
}

// GetByID retrieves a contact by id
func (r *EmergencyContactRepository) GetByID(id int64) (*models.EmergencyContact, error) {
	query := fmt.Sprintf(`SELECT %s FROM emergency_contacts WHERE id = $1`, contactColumns)

	contact := &models.EmergencyContact{}
	if err := r.db.Get(contact, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("emergency contact %d not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get emergency contact: %w", err)
	}

	return contact, nil
}

// ListByDriver returns a driver's contacts, primary first
func (r *EmergencyContactRepository) ListByDriver(driverID int64) ([]models.EmergencyContact, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM emergency_contacts
		WHERE driver_id = $1
		ORDER BY is_primary DESC, id`, contactColumns)

	contacts := []models.EmergencyContact{}
	if err := r.db.Select(&contacts, query, driverID); err != nil {
		return nil, fmt.Errorf("failed to list emergency contacts: %w", err)
	}
	return contacts, nil
}

// ListPanicRecipients returns contacts flagged to receive panic notifications,
// primary first so the primary contact is dialed before the rest.
func (r *EmergencyContactRepository) ListPanicRecipients(driverID int64) ([]models.EmergencyContact, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM emergency_contacts
		WHERE driver_id = $1 AND notify_on_panic = true
		ORDER BY is_primary DESC, id`, contactColumns)

	contacts := []models.EmergencyContact{}
	if err := r.db.Select(&contacts, query, driverID); err != nil {
		return nil, fmt.Errorf("failed to list panic recipients: %w", err)
	}
	return contacts, nil
}

// Update modifies a contact, demoting the previous primary when needed
func (r *EmergencyContactRepository) Update(contact *models.EmergencyContact) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if contact.IsPrimary {
		demote := `UPDATE emergency_contacts SET is_primary = false, updated_at = NOW() WHERE driver_id = $1 AND is_primary = true AND id != $2`
		if _, err := tx.Exec(demote, contact.DriverID, contact.ID); err != nil {
			return fmt.Errorf("failed to demote primary contact: %w", err)
		}
	}

	query := `
		UPDATE emergency_contacts
		SET name = $2, surname = $3, relationship = $4, phone = $5, email = $6,
		    notify_on_panic = $7, notify_on_route_start = $8, notify_on_route_end = $9,
		    notify_on_incident = $10, is_primary = $11, updated_at = NOW()
		WHERE id = $1
	`

	result, err := tx.Exec(query,
		contact.ID,
		contact.Name,
		contact.Surname,
		contact.Relationship,
		contact.Phone,
		contact.Email,
		contact.NotifyOnPanic,
		contact.NotifyOnRouteStart,
		contact.NotifyOnRouteEnd,
		contact.NotifyOnIncident,
		contact.IsPrimary,
	)
	if err != nil {
		return fmt.Errorf("failed to update emergency contact: %w", translateError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check contact update: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("emergency contact %d not found: %w", contact.ID, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit contact update: %w", err)
	}

	return nil
}

// Delete removes a contact
func (r *EmergencyContactRepository) Delete(id int64) error {
	result, err := r.db.Exec(`DELETE FROM emergency_contacts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete emergency contact: %w", translateError(err))
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check contact delete: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("emergency contact %d not found: %w", id, ErrNotFound)
	}

	return nil
}
