package expense

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"gitlab.com/yelinaung/expense-approval/internal/apperror"
	"gitlab.com/yelinaung/expense-approval/internal/approval"
	"gitlab.com/yelinaung/expense-approval/internal/models"
	"gitlab.com/yelinaung/expense-approval/internal/repository"
)

// FilterAll selects every status a listing role may see.
const FilterAll = "all"

var (
	managerStatuses = []models.Status{models.StatusPending, models.StatusApproved, models.StatusRejected}
	adminStatuses   = []models.Status{models.StatusApproved, models.StatusPaymentProceed, models.StatusDeclined}
)

// ListCompany returns every expense of the actor's company, newest first.
func (s *Service) ListCompany(ctx context.Context, actor approval.Actor) ([]models.ExpenseDetail, error) {
	return s.list(ctx, repository.ListFilter{CompanyID: actor.CompanyID})
}

// ListEmployee returns the actor's own expenses, newest first.
func (s *Service) ListEmployee(ctx context.Context, actor approval.Actor) ([]models.ExpenseDetail, error) {
	id := actor.ID
	return s.list(ctx, repository.ListFilter{CompanyID: actor.CompanyID, EmployeeID: &id})
}

// ListManager returns submitted company expenses. filter is one of pending,
// approved, rejected or all; empty means all, and all excludes drafts.
func (s *Service) ListManager(ctx context.Context, actor approval.Actor, filter string) ([]models.ExpenseDetail, error) {
	f := repository.ListFilter{CompanyID: actor.CompanyID}
	switch {
	case filter == "" || filter == FilterAll:
		f.ExcludeStatuses = []models.Status{models.StatusDraft}
	case containsStatus(managerStatuses, filter):
		f.Statuses = []models.Status{models.Status(filter)}
	default:
		return nil, apperror.New(apperror.ValidationError, "Invalid filter for manager role")
	}
	return s.list(ctx, f)
}

// ListAdmin returns company expenses past manager approval. Only admins may
// list them. filter is one of approved, payment_proceed, declined or all.
func (s *Service) ListAdmin(ctx context.Context, actor approval.Actor, filter string) ([]models.ExpenseDetail, error) {
	if actor.Role != models.RoleAdmin {
		return nil, apperror.New(apperror.Forbidden, "Access denied")
	}

	f := repository.ListFilter{CompanyID: actor.CompanyID}
	switch {
	case filter == "" || filter == FilterAll:
		f.Statuses = adminStatuses
	case containsStatus(adminStatuses, filter):
		f.Statuses = []models.Status{models.Status(filter)}
	default:
		return nil, apperror.New(apperror.ValidationError, "Invalid filter for admin role")
	}
	return s.list(ctx, f)
}

func (s *Service) list(ctx context.Context, filter repository.ListFilter) ([]models.ExpenseDetail, error) {
	expenses, err := s.expenses.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, expenses)
}

// resolve attaches employees, their managers, categories and approvers
// using one batched lookup per entity type.
func (s *Service) resolve(ctx context.Context, expenses []models.Expense) ([]models.ExpenseDetail, error) {
	userIDs := make(map[uuid.UUID]struct{})
	categoryIDs := make(map[uuid.UUID]struct{})
	for i := range expenses {
		userIDs[expenses[i].EmployeeID] = struct{}{}
		for _, id := range expenses[i].ApprovalSequence {
			userIDs[id] = struct{}{}
		}
		if id, ok := expenses[i].Category.ID(); ok {
			categoryIDs[id] = struct{}{}
		}
	}

	users, err := s.users.GetByIDs(ctx, keys(userIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve users: %w", err)
	}

	// Managers of employees that are not already loaded.
	missing := make(map[uuid.UUID]struct{})
	for _, u := range users {
		if u.HasManager() {
			if _, ok := users[*u.ManagerID]; !ok {
				missing[*u.ManagerID] = struct{}{}
			}
		}
	}
	if len(missing) > 0 {
		managers, err := s.users.GetByIDs(ctx, keys(missing))
		if err != nil {
			return nil, fmt.Errorf("failed to resolve managers: %w", err)
		}
		for id, m := range managers {
			users[id] = m
		}
	}

	categories, err := s.categories.GetByIDs(ctx, keys(categoryIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve categories: %w", err)
	}

	details := make([]models.ExpenseDetail, 0, len(expenses))
	for _, e := range expenses {
		d := models.ExpenseDetail{Expense: e, Approvers: []models.User{}}
		if emp, ok := users[e.EmployeeID]; ok {
			d.Employee = &emp
			if emp.HasManager() {
				if m, ok := users[*emp.ManagerID]; ok {
					d.Manager = &m
				}
			}
		}
		if id, ok := e.Category.ID(); ok {
			if c, ok := categories[id]; ok {
				d.CategoryInfo = &c
			}
		}
		for _, id := range e.ApprovalSequence {
			if u, ok := users[id]; ok {
				d.Approvers = append(d.Approvers, u)
			}
		}
		details = append(details, d)
	}
	return details, nil
}

func containsStatus(statuses []models.Status, s string) bool {
	for _, st := range statuses {
		if string(st) == s {
			return true
		}
	}
	return false
}

func keys(set map[uuid.UUID]struct{}) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}
