// Package approval implements the expense approval workflow: the approver
// sequence built at submission and the state machine driving each expense
// from draft to a terminal status.
package approval

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"gitlab.com/yelinaung/expense-approval/internal/models"
)

// UserStore is the read-only user lookup the workflow needs.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindCompanyAdmin(ctx context.Context, companyID uuid.UUID) (*models.User, error)
}

// Builder computes approver sequences.
type Builder struct {
	users UserStore
}

// NewBuilder creates a Builder.
func NewBuilder(users UserStore) *Builder {
	return &Builder{users: users}
}

// Build returns the ordered approvers for the expense: the employee's direct
// manager, then the company admin. The result may be empty.
func (b *Builder) Build(ctx context.Context, expense *models.Expense) ([]uuid.UUID, error) {
	employee, err := b.users.GetByID(ctx, expense.EmployeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}

	admin, err := b.users.FindCompanyAdmin(ctx, expense.CompanyID)
	if err != nil {
		return nil, err
	}

	var candidates []uuid.UUID
	if employee.HasManager() {
		candidates = append(candidates, *employee.ManagerID)
	}
	if admin != nil {
		candidates = append(candidates, admin.ID)
	}
	return Dedupe(candidates), nil
}

// Dedupe drops nil ids and repeats, keeping first-occurrence order.
// It never returns nil.
func Dedupe(ids []uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
