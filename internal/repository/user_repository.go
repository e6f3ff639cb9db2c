package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"gitlab.com/yelinaung/expense-approval/internal/database"
	"gitlab.com/yelinaung/expense-approval/internal/models"
)

const userColumns = `id, company_id, name, email, role, manager_id, status, created_at`

// UserRepository provides read access to users. User lifecycle is owned
// elsewhere; Create exists for seeding and tests.
type UserRepository struct {
	db database.PGXDB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db database.PGXDB) *UserRepository {
	return &UserRepository{db: db}
}

// Create adds a new user.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.Status == "" {
		user.Status = "active"
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO users (company_id, name, email, role, manager_id, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, user.CompanyID, user.Name, user.Email, string(user.Role), user.ManagerID, user.Status,
	).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		return nil, lookupError(err, "User", "failed to get user")
	}
	return user, nil
}

// FindCompanyAdmin returns the longest-standing admin of a company, or nil
// when the company has none.
func (r *UserRepository) FindCompanyAdmin(ctx context.Context, companyID uuid.UUID) (*models.User, error) {
	user, err := scanUser(r.db.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE company_id = $1 AND role = $2
		ORDER BY created_at, id
		LIMIT 1
	`, companyID, string(models.RoleAdmin)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find company admin: %w", err)
	}
	return user, nil
}

// GetByIDs retrieves users keyed by ID. Missing ids are absent from the map.
func (r *UserRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	out := make(map[uuid.UUID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		out[user.ID] = *user
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}
	return out, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var (
		u    models.User
		role string
	)
	if err := row.Scan(&u.ID, &u.CompanyID, &u.Name, &u.Email, &role, &u.ManagerID, &u.Status, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	return &u, nil
}
