package database

import (
	"database/sql"
	"fmt"

	"github.com/saferoute/fleet-safety-backend/internal/models"
)

// CompanyRepository handles fleet operator persistence
type CompanyRepository struct {
	db DB
}

// NewCompanyRepository creates a new company repository
func NewCompanyRepository(db DB) *CompanyRepository {
	return &CompanyRepository{
		db: db,
	}
}

// Create inserts a new active company
func (r *CompanyRepository) Create(company *models.Company) error {
	query := `
		INSERT INTO companies (name, registration_no, contact_email, contact_phone,
		                       subscription_plan, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, true, NOW(), NOW())
		RETURNING id, is_active, created_at, updated_at
	`

	err := r.db.QueryRow(query,
		company.Name,
		company.RegistrationNo,
		company.ContactEmail,
		company.ContactPhone,
		company.SubscriptionPlan,
	).Scan(&company.ID, &company.IsActive, &company.CreatedAt, &company.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create company: %w", translateError(err))
	}

	return nil
}

// GetByID retrieves a company by id
func (r *CompanyRepository) GetByID(id int64) (*models.Company, error) {
	query := `
		SELECT id, name, registration_no, contact_email, contact_phone,
		       subscription_plan, is_active, created_at, updated_at
		FROM companies
		WHERE id = $1
	`

	company := &models.Company{}
	if err := r.db.Get(company, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("company %d not found: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}

	return company, nil
}

// List returns all companies ordered by name
func (r *CompanyRepository) List() ([]models.Company, error) {
	query := `
		SELECT id, name, registration_no, contact_email, contact_phone,
		       subscription_plan, is_active, created_at, updated_at
		FROM companies
		ORDER BY name
	`

	companies := []models.Company{}
	if err := r.db.Select(&companies, query); err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return companies, nil
}
