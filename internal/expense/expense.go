// Package expense implements manual expense entry, role-scoped listings and
// status changes on top of the approval workflow.
package expense

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/expense-approval/internal/apperror"
	"gitlab.com/yelinaung/expense-approval/internal/approval"
	"gitlab.com/yelinaung/expense-approval/internal/logger"
	"gitlab.com/yelinaung/expense-approval/internal/models"
	"gitlab.com/yelinaung/expense-approval/internal/repository"
)

// ExpenseStore persists expenses.
type ExpenseStore interface {
	Create(ctx context.Context, expense *models.Expense) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Expense, error)
	List(ctx context.Context, filter repository.ListFilter) ([]models.Expense, error)
	UpdateDraft(ctx context.Context, expense *models.Expense) error
	DeleteDraft(ctx context.Context, id uuid.UUID) error
}

// UserStore resolves users referenced by expenses.
type UserStore interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error)
}

// CategoryStore resolves categories referenced by expenses.
type CategoryStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.Category, error)
}

// CompanyStore loads companies.
type CompanyStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error)
}

// RateConverter converts an amount into another currency. It never fails;
// on lookup problems it returns the amount unchanged.
type RateConverter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) decimal.Decimal
}

// Workflow applies approval transitions.
type Workflow interface {
	Submit(ctx context.Context, actor approval.Actor, id uuid.UUID) (*models.Expense, error)
	Act(ctx context.Context, actor approval.Actor, id uuid.UUID, requested string) (*models.Expense, error)
}

// Input is the editable part of a draft expense.
type Input struct {
	Category         string
	Description      string
	AmountOriginal   decimal.Decimal
	CurrencyOriginal string
	ReceiptURL       string
	DateIncurred     time.Time
}

// Deps groups the collaborators of a Service.
type Deps struct {
	Expenses   ExpenseStore
	Users      UserStore
	Categories CategoryStore
	Companies  CompanyStore
	Converter  RateConverter
	Workflow   Workflow
}

// Service handles expense operations for authenticated users.
type Service struct {
	expenses   ExpenseStore
	users      UserStore
	categories CategoryStore
	companies  CompanyStore
	converter  RateConverter
	workflow   Workflow
	now        func() time.Time
}

// NewService creates a Service.
func NewService(deps Deps) *Service {
	return &Service{
		expenses:   deps.Expenses,
		users:      deps.Users,
		categories: deps.Categories,
		companies:  deps.Companies,
		converter:  deps.Converter,
		workflow:   deps.Workflow,
		now:        time.Now,
	}
}

// Create stores a new draft owned by the actor, converting the amount into
// the company base currency.
func (s *Service) Create(ctx context.Context, actor approval.Actor, in Input) (*models.Expense, error) {
	expense := &models.Expense{
		CompanyID:        actor.CompanyID,
		EmployeeID:       actor.ID,
		Status:           models.StatusDraft,
		ApprovalSequence: []uuid.UUID{},
	}
	if err := s.apply(ctx, actor, expense, in); err != nil {
		return nil, err
	}
	if err := s.expenses.Create(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to create expense: %w", err)
	}

	logger.Log.Info().
		Str("expense_hash", logger.HashID(expense.ID)).
		Str("employee_hash", logger.HashID(actor.ID)).
		Str("currency", expense.CurrencyOriginal).
		Str("description", logger.SanitizeDescription(expense.Description)).
		Msg("Expense draft created")
	return expense, nil
}

// Update replaces the editable fields of the actor's own draft.
func (s *Service) Update(ctx context.Context, actor approval.Actor, id uuid.UUID, in Input) (*models.ExpenseDetail, error) {
	expense, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !expense.IsDraft() {
		return nil, apperror.New(apperror.InvalidTransition, "Only draft expenses can be edited")
	}
	if expense.EmployeeID != actor.ID {
		return nil, apperror.New(apperror.Forbidden, "You can only edit your own expenses")
	}

	if err := s.apply(ctx, actor, expense, in); err != nil {
		return nil, err
	}
	if err := s.expenses.UpdateDraft(ctx, expense); err != nil {
		return nil, err
	}

	logger.Log.Info().
		Str("expense_hash", logger.HashID(expense.ID)).
		Msg("Expense draft updated")
	return s.Detail(ctx, actor, id)
}

// Delete removes the actor's own draft.
func (s *Service) Delete(ctx context.Context, actor approval.Actor, id uuid.UUID) error {
	expense, err := s.load(ctx, actor, id)
	if err != nil {
		return err
	}
	if !expense.IsDraft() {
		return apperror.New(apperror.InvalidTransition, "Only draft expenses can be deleted")
	}
	if expense.EmployeeID != actor.ID {
		return apperror.New(apperror.Forbidden, "You can only delete your own expenses")
	}
	if err := s.expenses.DeleteDraft(ctx, id); err != nil {
		return err
	}

	logger.Log.Info().
		Str("expense_hash", logger.HashID(id)).
		Msg("Expense draft deleted")
	return nil
}

// UpdateStatus submits a draft ("pending") or applies an approver action,
// returning the resolved expense.
func (s *Service) UpdateStatus(ctx context.Context, actor approval.Actor, id uuid.UUID, status string) (*models.ExpenseDetail, error) {
	var err error
	if models.Status(status) == models.StatusPending {
		_, err = s.workflow.Submit(ctx, actor, id)
	} else {
		_, err = s.workflow.Act(ctx, actor, id, status)
	}
	if err != nil {
		return nil, err
	}
	return s.Detail(ctx, actor, id)
}

// Detail loads one expense of the actor's company with its references resolved.
func (s *Service) Detail(ctx context.Context, actor approval.Actor, id uuid.UUID) (*models.ExpenseDetail, error) {
	expense, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	details, err := s.resolve(ctx, []models.Expense{*expense})
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// Approvers returns the resolved approval sequence of an expense in order.
func (s *Service) Approvers(ctx context.Context, actor approval.Actor, id uuid.UUID) ([]models.User, error) {
	expense, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	users, err := s.users.GetByIDs(ctx, expense.ApprovalSequence)
	if err != nil {
		return nil, fmt.Errorf("failed to load approvers: %w", err)
	}
	approvers := make([]models.User, 0, len(expense.ApprovalSequence))
	for _, uid := range expense.ApprovalSequence {
		if u, ok := users[uid]; ok {
			approvers = append(approvers, u)
		}
	}
	return approvers, nil
}

// apply validates in and copies it onto expense with a converted amount.
func (s *Service) apply(ctx context.Context, actor approval.Actor, expense *models.Expense, in Input) error {
	category, err := s.category(ctx, actor, in.Category)
	if err != nil {
		return err
	}
	if in.AmountOriginal.IsNegative() {
		return apperror.New(apperror.ValidationError, "Amount must not be negative")
	}

	company, err := s.companies.GetByID(ctx, actor.CompanyID)
	if err != nil {
		return err
	}
	base := company.BaseCurrency
	if base == "" {
		base = models.DefaultCurrency
	}
	currency := strings.ToUpper(strings.TrimSpace(in.CurrencyOriginal))
	if currency == "" {
		currency = base
	}

	incurred := in.DateIncurred
	if incurred.IsZero() {
		incurred = s.now().UTC()
	}

	expense.Category = category
	expense.Description = strings.TrimSpace(in.Description)
	expense.AmountOriginal = in.AmountOriginal
	expense.CurrencyOriginal = currency
	expense.AmountConverted = s.converter.Convert(ctx, in.AmountOriginal, currency, base)
	expense.ReceiptURL = strings.TrimSpace(in.ReceiptURL)
	expense.DateIncurred = incurred
	return nil
}

// category accepts "other" or the id of an active category of the actor's company.
func (s *Service) category(ctx context.Context, actor approval.Actor, raw string) (models.CategoryRef, error) {
	ref, err := models.ParseCategoryRef(raw)
	if err != nil {
		return models.CategoryRef{}, apperror.Wrap(apperror.ValidationError, err, "Invalid category")
	}
	id, ok := ref.ID()
	if !ok {
		return ref, nil
	}
	category, err := s.categories.GetByID(ctx, id)
	if apperror.KindOf(err) == apperror.NotFound {
		return models.CategoryRef{}, apperror.New(apperror.ValidationError, "Invalid category")
	}
	if err != nil {
		return models.CategoryRef{}, err
	}
	if category.CompanyID != actor.CompanyID || !category.Active {
		return models.CategoryRef{}, apperror.New(apperror.ValidationError, "Invalid category")
	}
	return ref, nil
}

// load fetches an expense, hiding expenses of other companies.
func (s *Service) load(ctx context.Context, actor approval.Actor, id uuid.UUID) (*models.Expense, error) {
	expense, err := s.expenses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense.CompanyID != actor.CompanyID {
		return nil, apperror.New(apperror.NotFound, "Expense not found")
	}
	return expense, nil
}
