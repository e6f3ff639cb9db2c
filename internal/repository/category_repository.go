// Package repository provides database access for domain entities.
package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"gitlab.com/yelinaung/expense-approval/internal/database"
	"gitlab.com/yelinaung/expense-approval/internal/models"
)

// CategoryRepository handles category database operations.
type CategoryRepository struct {
	db database.PGXDB
}

// NewCategoryRepository creates a new CategoryRepository.
func NewCategoryRepository(db database.PGXDB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

// ListByCompany retrieves the active categories of a company.
func (r *CategoryRepository) ListByCompany(ctx context.Context, companyID uuid.UUID) ([]models.Category, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, company_id, name, description, active, created_at
		FROM categories WHERE company_id = $1 AND active
		ORDER BY name
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.CompanyID, &cat.Name, &cat.Description, &cat.Active, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, cat)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return categories, nil
}

// GetByID retrieves a category by ID.
func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var cat models.Category
	err := r.db.QueryRow(ctx, `
		SELECT id, company_id, name, description, active, created_at FROM categories WHERE id = $1
	`, id).Scan(&cat.ID, &cat.CompanyID, &cat.Name, &cat.Description, &cat.Active, &cat.CreatedAt)
	if err != nil {
		return nil, lookupError(err, "Category", "failed to get category")
	}
	return &cat, nil
}

// GetByIDs retrieves categories keyed by ID.
func (r *CategoryRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Category, error) {
	out := make(map[uuid.UUID]models.Category, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, company_id, name, description, active, created_at FROM categories WHERE id = ANY($1)
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories by id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cat models.Category
		if err := rows.Scan(&cat.ID, &cat.CompanyID, &cat.Name, &cat.Description, &cat.Active, &cat.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out[cat.ID] = cat
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}
	return out, nil
}

// Create adds a new category.
func (r *CategoryRepository) Create(ctx context.Context, category *models.Category) error {
	err := r.db.QueryRow(ctx, `
		INSERT INTO categories (company_id, name, description, active) VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, category.CompanyID, category.Name, category.Description, category.Active).Scan(&category.ID, &category.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}
