package approval

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"gitlab.com/yelinaung/expense-approval/internal/apperror"
	"gitlab.com/yelinaung/expense-approval/internal/logger"
	"gitlab.com/yelinaung/expense-approval/internal/models"
	"gitlab.com/yelinaung/expense-approval/internal/telemetry"
)

// ExpenseStore persists workflow state. SaveTransition must only apply when
// the stored status and cursor still equal prevStatus and prevStep.
type ExpenseStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Expense, error)
	SaveTransition(ctx context.Context, e *models.Expense, prevStatus models.Status, prevStep int) error
}

// Machine drives expenses through the approval workflow.
type Machine struct {
	expenses ExpenseStore
	users    UserStore
	builder  *Builder
	metrics  *telemetry.Metrics
}

// NewMachine creates a Machine.
func NewMachine(expenses ExpenseStore, users UserStore, metrics *telemetry.Metrics) *Machine {
	return &Machine{
		expenses: expenses,
		users:    users,
		builder:  NewBuilder(users),
		metrics:  metrics,
	}
}

// Submit moves the actor's own draft into the approval chain.
func (m *Machine) Submit(ctx context.Context, actor Actor, expenseID uuid.UUID) (_ *models.Expense, err error) {
	ctx, span := telemetry.StartSpan(ctx, "approval.Submit")
	defer func() { telemetry.EndSpan(span, err) }()

	expense, err := m.load(ctx, actor, expenseID)
	if err != nil {
		return nil, err
	}
	if expense.Status != models.StatusDraft {
		return nil, apperror.New(apperror.InvalidTransition, "Only draft expenses can be submitted")
	}
	if expense.EmployeeID != actor.ID {
		return nil, apperror.New(apperror.Forbidden, "You can only submit your own expenses")
	}

	sequence, err := m.builder.Build(ctx, expense)
	if err != nil {
		return nil, err
	}

	next, err := ApplySubmission(*expense, sequence)
	if err != nil {
		return nil, err
	}
	if err := m.save(ctx, &next, expense, "submit"); err != nil {
		return nil, err
	}

	logger.Log.Info().
		Str("expense_hash", logger.HashID(next.ID)).
		Int("approvers", len(next.ApprovalSequence)).
		Str("status", string(next.Status)).
		Msg("Expense submitted")
	return &next, nil
}

// Act applies an approver action ("approved", "rejected", "payment_proceed"
// or "declined") on behalf of actor.
func (m *Machine) Act(ctx context.Context, actor Actor, expenseID uuid.UUID, requested string) (_ *models.Expense, err error) {
	ctx, span := telemetry.StartSpan(ctx, "approval.Act", attribute.String("expense.action", requested))
	defer func() { telemetry.EndSpan(span, err) }()

	action, err := ParseAction(requested)
	if err != nil {
		return nil, err
	}

	expense, err := m.load(ctx, actor, expenseID)
	if err != nil {
		return nil, err
	}

	managerID, err := m.managerOf(ctx, expense)
	if err != nil {
		return nil, err
	}

	outcome, err := ApplyAction(*expense, actor, action, managerID)
	if err != nil {
		logger.Log.Debug().
			Err(err).
			Str("expense_hash", logger.HashID(expense.ID)).
			Str("actor_hash", logger.HashID(actor.ID)).
			Str("action", string(action)).
			Msg("Expense transition refused")
		return nil, err
	}

	next := outcome.Expense
	if err := m.save(ctx, &next, expense, string(action)); err != nil {
		return nil, err
	}

	logger.Log.Info().
		Str("expense_hash", logger.HashID(next.ID)).
		Str("actor_hash", logger.HashID(actor.ID)).
		Str("action", string(action)).
		Str("grant", string(outcome.Grant)).
		Bool("repaired", outcome.Repaired).
		Str("phase", string(next.ApprovalState().Phase)).
		Int("step", next.CurrentApprovalStep).
		Msg("Expense transition applied")
	return &next, nil
}

// load fetches the expense, hiding expenses of other companies.
func (m *Machine) load(ctx context.Context, actor Actor, id uuid.UUID) (*models.Expense, error) {
	expense, err := m.expenses.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if expense.CompanyID != actor.CompanyID {
		return nil, apperror.New(apperror.NotFound, "Expense not found")
	}
	return expense, nil
}

func (m *Machine) managerOf(ctx context.Context, expense *models.Expense) (*uuid.UUID, error) {
	employee, err := m.users.GetByID(ctx, expense.EmployeeID)
	if apperror.KindOf(err) == apperror.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load employee: %w", err)
	}
	if !employee.HasManager() {
		return nil, nil
	}
	return employee.ManagerID, nil
}

func (m *Machine) save(ctx context.Context, next, prev *models.Expense, action string) error {
	if err := m.expenses.SaveTransition(ctx, next, prev.Status, prev.CurrentApprovalStep); err != nil {
		if apperror.KindOf(err) == apperror.Conflict {
			logger.Log.Warn().
				Str("expense_hash", logger.HashID(prev.ID)).
				Str("action", action).
				Msg("Concurrent expense update detected")
		}
		return err
	}
	m.metrics.RecordTransition(ctx, action, string(prev.Status), string(next.Status))
	return nil
}
