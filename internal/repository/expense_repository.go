package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"gitlab.com/yelinaung/expense-approval/internal/database"
	"gitlab.com/yelinaung/expense-approval/internal/models"
)

const expenseColumns = `id, company_id, employee_id, category_id, description, amount_original,
	currency_original, amount_converted, receipt_url, date_incurred, status,
	approval_sequence, current_approval_step, created_at, updated_at`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// ListFilter narrows an expense listing. Zero fields do not filter.
type ListFilter struct {
	CompanyID       uuid.UUID
	EmployeeID      *uuid.UUID
	Statuses        []models.Status
	ExcludeStatuses []models.Status
}

// ExpenseRepository handles expense database operations.
type ExpenseRepository struct {
	db database.PGXDB
}

// NewExpenseRepository creates a new ExpenseRepository.
func NewExpenseRepository(db database.PGXDB) *ExpenseRepository {
	return &ExpenseRepository{db: db}
}

// Create adds a new expense. Status defaults to draft.
func (r *ExpenseRepository) Create(ctx context.Context, expense *models.Expense) error {
	if expense.Status == "" {
		expense.Status = models.StatusDraft
	}
	if expense.ApprovalSequence == nil {
		expense.ApprovalSequence = []uuid.UUID{}
	}
	err := r.db.QueryRow(ctx, `
		INSERT INTO expenses (company_id, employee_id, category_id, description, amount_original,
			currency_original, amount_converted, receipt_url, date_incurred, status,
			approval_sequence, current_approval_step)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`, expense.CompanyID, expense.EmployeeID, expense.Category.Ptr(), expense.Description,
		expense.AmountOriginal, expense.CurrencyOriginal, expense.AmountConverted, expense.ReceiptURL,
		expense.DateIncurred, string(expense.Status), expense.ApprovalSequence, expense.CurrentApprovalStep,
	).Scan(&expense.ID, &expense.CreatedAt, &expense.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// GetByID retrieves an expense by ID.
func (r *ExpenseRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Expense, error) {
	exp, err := scanExpense(r.db.QueryRow(ctx, `SELECT `+expenseColumns+` FROM expenses WHERE id = $1`, id))
	if err != nil {
		return nil, lookupError(err, "Expense", "failed to get expense")
	}
	return exp, nil
}

// List returns expenses matching the filter, newest first.
func (r *ExpenseRepository) List(ctx context.Context, filter ListFilter) ([]models.Expense, error) {
	q := psql.Select(expenseColumns).From("expenses").OrderBy("created_at DESC", "id")

	// uuid.UUID is an array type, so squirrel would expand it into IN (...)
	// unless it is passed as a string.
	if filter.CompanyID != uuid.Nil {
		q = q.Where(sq.Eq{"company_id": filter.CompanyID.String()})
	}
	if filter.EmployeeID != nil {
		q = q.Where(sq.Eq{"employee_id": filter.EmployeeID.String()})
	}
	if len(filter.Statuses) > 0 {
		q = q.Where(sq.Eq{"status": statusStrings(filter.Statuses)})
	}
	if len(filter.ExcludeStatuses) > 0 {
		q = q.Where(sq.NotEq{"status": statusStrings(filter.ExcludeStatuses)})
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build expense query: %w", err)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expenses: %w", err)
	}
	defer rows.Close()

	expenses := []models.Expense{}
	for rows.Next() {
		exp, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, *exp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expenses: %w", err)
	}
	return expenses, nil
}

// UpdateDraft persists the editable fields of a draft expense.
func (r *ExpenseRepository) UpdateDraft(ctx context.Context, expense *models.Expense) error {
	err := r.db.QueryRow(ctx, `
		UPDATE expenses
		SET category_id = $2, description = $3, amount_original = $4, currency_original = $5,
			amount_converted = $6, receipt_url = $7, date_incurred = $8, updated_at = NOW()
		WHERE id = $1 AND status = 'draft'
		RETURNING updated_at
	`, expense.ID, expense.Category.Ptr(), expense.Description, expense.AmountOriginal,
		expense.CurrencyOriginal, expense.AmountConverted, expense.ReceiptURL, expense.DateIncurred,
	).Scan(&expense.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrStaleExpense
	}
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	return nil
}

// DeleteDraft removes a draft expense.
func (r *ExpenseRepository) DeleteDraft(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM expenses WHERE id = $1 AND status = 'draft'`, id)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleExpense
	}
	return nil
}

// SaveTransition writes the workflow fields of an expense, provided the
// stored status and cursor still equal prevStatus and prevStep.
func (r *ExpenseRepository) SaveTransition(ctx context.Context, expense *models.Expense, prevStatus models.Status, prevStep int) error {
	if expense.ApprovalSequence == nil {
		expense.ApprovalSequence = []uuid.UUID{}
	}
	err := r.db.QueryRow(ctx, `
		UPDATE expenses
		SET status = $2, approval_sequence = $3, current_approval_step = $4, updated_at = NOW()
		WHERE id = $1 AND status = $5 AND current_approval_step = $6
		RETURNING updated_at
	`, expense.ID, string(expense.Status), expense.ApprovalSequence, expense.CurrentApprovalStep,
		string(prevStatus), prevStep,
	).Scan(&expense.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrStaleExpense
	}
	if err != nil {
		return fmt.Errorf("failed to save expense transition: %w", err)
	}
	return nil
}

func statusStrings(statuses []models.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

func scanExpense(row pgx.Row) (*models.Expense, error) {
	var (
		exp        models.Expense
		categoryID *uuid.UUID
		status     string
	)
	err := row.Scan(&exp.ID, &exp.CompanyID, &exp.EmployeeID, &categoryID, &exp.Description,
		&exp.AmountOriginal, &exp.CurrencyOriginal, &exp.AmountConverted, &exp.ReceiptURL,
		&exp.DateIncurred, &status, &exp.ApprovalSequence, &exp.CurrentApprovalStep,
		&exp.CreatedAt, &exp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	exp.Category = models.CategoryFromPtr(categoryID)
	exp.Status = models.Status(status)
	if exp.ApprovalSequence == nil {
		exp.ApprovalSequence = []uuid.UUID{}
	}
	return &exp, nil
}
