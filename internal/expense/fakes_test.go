package expense

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/expense-approval/internal/apperror"
	"gitlab.com/yelinaung/expense-approval/internal/approval"
	"gitlab.com/yelinaung/expense-approval/internal/models"
	"gitlab.com/yelinaung/expense-approval/internal/repository"
)

type memoryExpenses struct {
	mu    sync.Mutex
	byID  map[uuid.UUID]models.Expense
	order []uuid.UUID
}

func newMemoryExpenses() *memoryExpenses {
	return &memoryExpenses{byID: map[uuid.UUID]models.Expense{}}
}

func (m *memoryExpenses) Create(_ context.Context, e *models.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now()
	m.byID[e.ID] = *e
	m.order = append(m.order, e.ID)
	return nil
}

func (m *memoryExpenses) GetByID(_ context.Context, id uuid.UUID) (*models.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.byID[id]
	if !ok {
		return nil, apperror.New(apperror.NotFound, "Expense not found")
	}
	e.ApprovalSequence = slices.Clone(e.ApprovalSequence)
	return &e, nil
}

// List returns matches newest first, in reverse insertion order.
func (m *memoryExpenses) List(_ context.Context, f repository.ListFilter) ([]models.Expense, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Expense{}
	for i := len(m.order) - 1; i >= 0; i-- {
		e, ok := m.byID[m.order[i]]
		if !ok || e.CompanyID != f.CompanyID {
			continue
		}
		if f.EmployeeID != nil && e.EmployeeID != *f.EmployeeID {
			continue
		}
		if len(f.Statuses) > 0 && !slices.Contains(f.Statuses, e.Status) {
			continue
		}
		if slices.Contains(f.ExcludeStatuses, e.Status) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (m *memoryExpenses) UpdateDraft(_ context.Context, e *models.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[e.ID]
	if !ok || stored.Status != models.StatusDraft {
		return repository.ErrStaleExpense
	}
	m.byID[e.ID] = *e
	return nil
}

func (m *memoryExpenses) DeleteDraft(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[id]
	if !ok || stored.Status != models.StatusDraft {
		return repository.ErrStaleExpense
	}
	delete(m.byID, id)
	return nil
}

func (m *memoryExpenses) SaveTransition(_ context.Context, e *models.Expense, prevStatus models.Status, prevStep int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.byID[e.ID]
	if !ok || stored.Status != prevStatus || stored.CurrentApprovalStep != prevStep {
		return repository.ErrStaleExpense
	}
	m.byID[e.ID] = *e
	return nil
}

func (m *memoryExpenses) put(e models.Expense) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[e.ID] = e
	m.order = append(m.order, e.ID)
}

type memoryUsers struct {
	byID map[uuid.UUID]models.User
}

func (m *memoryUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, apperror.New(apperror.NotFound, "User not found")
	}
	return &u, nil
}

func (m *memoryUsers) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	out := map[uuid.UUID]models.User{}
	for _, id := range ids {
		if u, ok := m.byID[id]; ok {
			out[id] = u
		}
	}
	return out, nil
}

func (m *memoryUsers) FindCompanyAdmin(_ context.Context, companyID uuid.UUID) (*models.User, error) {
	for _, u := range m.byID {
		if u.CompanyID == companyID && u.Role == models.RoleAdmin {
			return &u, nil
		}
	}
	return nil, nil
}

type memoryCategories struct {
	byID map[uuid.UUID]models.Category
}

func (m *memoryCategories) GetByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, apperror.New(apperror.NotFound, "Category not found")
	}
	return &c, nil
}

func (m *memoryCategories) GetByIDs(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Category, error) {
	out := map[uuid.UUID]models.Category{}
	for _, id := range ids {
		if c, ok := m.byID[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

type memoryCompanies struct {
	byID map[uuid.UUID]models.Company
}

func (m *memoryCompanies) GetByID(_ context.Context, id uuid.UUID) (*models.Company, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, apperror.New(apperror.NotFound, "Company not found")
	}
	return &c, nil
}

// fixedRates converts with a constant multiplier and records each call.
type fixedRates struct {
	mu    sync.Mutex
	rate  decimal.Decimal
	calls []string
}

func (f *fixedRates) Convert(_ context.Context, amount decimal.Decimal, from, to string) decimal.Decimal {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, from+"->"+to)
	if from == to {
		return amount
	}
	return amount.Mul(f.rate)
}

type org struct {
	company  models.Company
	admin    models.User
	manager  models.User
	employee models.User
	other    models.User
	travel   models.Category

	expenses *memoryExpenses
	rates    *fixedRates
	service  *Service
}

func newOrg() *org {
	companyID := uuid.New()
	o := &org{
		company: models.Company{ID: companyID, Name: "Acme", BaseCurrency: "USD"},
		admin:   models.User{ID: uuid.New(), CompanyID: companyID, Name: "Ada", Email: "ada@acme.test", Role: models.RoleAdmin},
		manager: models.User{ID: uuid.New(), CompanyID: companyID, Name: "Max", Email: "max@acme.test", Role: models.RoleManager},
	}
	o.employee = models.User{ID: uuid.New(), CompanyID: companyID, Name: "Eve", Email: "eve@acme.test", Role: models.RoleEmployee, ManagerID: &o.manager.ID}
	o.other = models.User{ID: uuid.New(), CompanyID: companyID, Name: "Oli", Email: "oli@acme.test", Role: models.RoleEmployee, ManagerID: &o.manager.ID}
	o.travel = models.Category{ID: uuid.New(), CompanyID: companyID, Name: "Travel", Active: true}

	users := &memoryUsers{byID: map[uuid.UUID]models.User{
		o.admin.ID:    o.admin,
		o.manager.ID:  o.manager,
		o.employee.ID: o.employee,
		o.other.ID:    o.other,
	}}
	o.expenses = newMemoryExpenses()
	o.rates = &fixedRates{rate: decimal.RequireFromString("1.5")}
	o.service = NewService(Deps{
		Expenses:   o.expenses,
		Users:      users,
		Categories: &memoryCategories{byID: map[uuid.UUID]models.Category{o.travel.ID: o.travel}},
		Companies:  &memoryCompanies{byID: map[uuid.UUID]models.Company{companyID: o.company}},
		Converter:  o.rates,
		Workflow:   approval.NewMachine(o.expenses, users, nil),
	})
	o.service.now = func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }
	return o
}

func actorOf(u models.User) approval.Actor {
	return approval.Actor{ID: u.ID, CompanyID: u.CompanyID, Role: u.Role}
}

func (o *org) seed(employee models.User, status models.Status, sequence []uuid.UUID, step int) models.Expense {
	e := models.Expense{
		ID:                  uuid.New(),
		CompanyID:           o.company.ID,
		EmployeeID:          employee.ID,
		Category:            models.CategoryOther(),
		AmountOriginal:      decimal.NewFromInt(10),
		CurrencyOriginal:    "USD",
		AmountConverted:     decimal.NewFromInt(10),
		Status:              status,
		ApprovalSequence:    sequence,
		CurrentApprovalStep: step,
	}
	if e.ApprovalSequence == nil {
		e.ApprovalSequence = []uuid.UUID{}
	}
	o.expenses.put(e)
	return e
}
