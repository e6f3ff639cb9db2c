package approval

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"gitlab.com/yelinaung/expense-approval/internal/apperror"
	"gitlab.com/yelinaung/expense-approval/internal/models"
)

type memoryUsers struct {
	byID  map[uuid.UUID]*models.User
	admin *models.User
	err   error
}

func newMemoryUsers(users ...*models.User) *memoryUsers {
	m := &memoryUsers{byID: map[uuid.UUID]*models.User{}}
	for _, u := range users {
		m.byID[u.ID] = u
		if u.Role == models.RoleAdmin && m.admin == nil {
			m.admin = u
		}
	}
	return m
}

func (m *memoryUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, apperror.New(apperror.NotFound, "User not found")
	}
	cp := *u
	return &cp, nil
}

func (m *memoryUsers) FindCompanyAdmin(_ context.Context, _ uuid.UUID) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.admin, nil
}

// memoryExpenses mimics the compare-and-swap update of the repository.
type memoryExpenses struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]models.Expense
	saves int
}

func newMemoryExpenses(expenses ...models.Expense) *memoryExpenses {
	m := &memoryExpenses{byID: map[uuid.UUID]models.Expense{}}
	for _, e := range expenses {
		m.byID[e.ID] = e
	}
	return m
}

func (m *memoryExpenses) GetByID(_ context.Context, id uuid.UUID) (*models.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[id]
	if !ok {
		return nil, apperror.New(apperror.NotFound, "Expense not found")
	}
	return &e, nil
}

func (m *memoryExpenses) SaveTransition(_ context.Context, e *models.Expense, prevStatus models.Status, prevStep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[e.ID]
	if !ok || stored.Status != prevStatus || stored.CurrentApprovalStep != prevStep {
		return apperror.New(apperror.Conflict, "Expense was modified concurrently, reload and retry")
	}
	e.UpdatedAt = time.Now()
	m.byID[e.ID] = *e
	m.saves++
	return nil
}

type org struct {
	companyID uuid.UUID
	admin     *models.User
	manager   *models.User
	employee  *models.User
	outsider  *models.User
}

func newOrg() org {
	company := uuid.New()
	admin := &models.User{ID: uuid.New(), CompanyID: company, Role: models.RoleAdmin}
	manager := &models.User{ID: uuid.New(), CompanyID: company, Role: models.RoleManager}
	employee := &models.User{ID: uuid.New(), CompanyID: company, Role: models.RoleEmployee, ManagerID: &manager.ID}
	outsider := &models.User{ID: uuid.New(), CompanyID: company, Role: models.RoleManager}
	return org{companyID: company, admin: admin, manager: manager, employee: employee, outsider: outsider}
}

func (o org) users() *memoryUsers {
	return newMemoryUsers(o.admin, o.manager, o.employee, o.outsider)
}

func (o org) draft() models.Expense {
	return models.Expense{
		ID:               uuid.New(),
		CompanyID:        o.companyID,
		EmployeeID:       o.employee.ID,
		Status:           models.StatusDraft,
		ApprovalSequence: []uuid.UUID{},
	}
}

func actorOf(u *models.User) Actor {
	return Actor{ID: u.ID, CompanyID: u.CompanyID, Role: u.Role}
}
