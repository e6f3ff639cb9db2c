package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"gitlab.com/yelinaung/expense-approval/internal/database"
	"gitlab.com/yelinaung/expense-approval/internal/models"
)

// CompanyRepository handles company database operations.
type CompanyRepository struct {
	db database.PGXDB
}

// NewCompanyRepository creates a new CompanyRepository.
func NewCompanyRepository(db database.PGXDB) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// Create adds a new company.
func (r *CompanyRepository) Create(ctx context.Context, company *models.Company) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO companies (name, country, base_currency)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, company.Name, company.Country, company.BaseCurrency).Scan(&company.ID, &company.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create company: %w", err)
	}
	return nil
}

// GetByID retrieves a company by ID.
func (r *CompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var c models.Company
	err := r.db.QueryRow(ctx, `
		SELECT id, name, country, base_currency, created_at FROM companies WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.Country, &c.BaseCurrency, &c.CreatedAt)
	if err != nil {
		return nil, lookupError(err, "Company", "failed to get company")
	}
	return &c, nil
}
