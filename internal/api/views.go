package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/expense-approval/internal/models"
)

type userView struct {
	ID      uuid.UUID   `json:"id"`
	Name    string      `json:"name"`
	Email   string      `json:"email"`
	Role    models.Role `json:"role"`
	Manager *userView   `json:"manager,omitempty"`
}

func newUserView(u *models.User) *userView {
	if u == nil {
		return nil
	}
	return &userView{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role}
}

// expenseView is the wire form of an expense. References are expanded when
// resolved; otherwise the employee is an id and the category "other" or an id.
type expenseView struct {
	ID                  uuid.UUID            `json:"id"`
	Company             uuid.UUID            `json:"company"`
	Employee            any                  `json:"employee"`
	Category            any                  `json:"category"`
	Description         string               `json:"description"`
	AmountOriginal      decimal.Decimal      `json:"amountOriginal"`
	CurrencyOriginal    string               `json:"currencyOriginal"`
	AmountConverted     decimal.Decimal      `json:"amountConverted"`
	ReceiptURL          string               `json:"receiptUrl,omitempty"`
	DateIncurred        time.Time            `json:"dateIncurred"`
	Status              models.Status        `json:"status"`
	ApprovalSequence    any                  `json:"approvalSequence"`
	CurrentApprovalStep int                  `json:"currentApprovalStep"`
	ApprovalState       models.ApprovalState `json:"approvalState"`
	AwaitingApprover    *uuid.UUID           `json:"awaitingApprover"`
	CreatedAt           time.Time            `json:"createdAt"`
	UpdatedAt           time.Time            `json:"updatedAt"`
}

func newExpenseView(e *models.Expense) expenseView {
	v := expenseView{
		ID:                  e.ID,
		Company:             e.CompanyID,
		Employee:            e.EmployeeID,
		Category:            e.Category,
		Description:         e.Description,
		AmountOriginal:      e.AmountOriginal,
		CurrencyOriginal:    e.CurrencyOriginal,
		AmountConverted:     e.AmountConverted,
		ReceiptURL:          e.ReceiptURL,
		DateIncurred:        e.DateIncurred,
		Status:              e.Status,
		ApprovalSequence:    e.ApprovalSequence,
		CurrentApprovalStep: e.CurrentApprovalStep,
		ApprovalState:       e.ApprovalState(),
		CreatedAt:           e.CreatedAt,
		UpdatedAt:           e.UpdatedAt,
	}
	if v.ApprovalState.AwaitsApprover() {
		if id, ok := e.CurrentApprover(); ok {
			v.AwaitingApprover = &id
		}
	}
	return v
}

func newDetailView(d *models.ExpenseDetail) expenseView {
	v := newExpenseView(&d.Expense)
	if d.Employee != nil {
		emp := newUserView(d.Employee)
		emp.Manager = newUserView(d.Manager)
		v.Employee = emp
	}
	if d.CategoryInfo != nil {
		v.Category = d.CategoryInfo
	}
	approvers := make([]*userView, 0, len(d.Approvers))
	for i := range d.Approvers {
		approvers = append(approvers, newUserView(&d.Approvers[i]))
	}
	v.ApprovalSequence = approvers
	return v
}

func newDetailViews(details []models.ExpenseDetail) []expenseView {
	out := make([]expenseView, 0, len(details))
	for i := range details {
		out = append(out, newDetailView(&details[i]))
	}
	return out
}

// approvalsView describes the approval rule of an expense.
type approvalsView struct {
	Sequence               []approverView `json:"sequence"`
	IsSequential           bool           `json:"isSequential"`
	MinimumPercentApproval int            `json:"minimumPercentApproval"`
}

type approverView struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func newApprovalsView(users []models.User) approvalsView {
	seq := make([]approverView, 0, len(users))
	for _, u := range users {
		seq = append(seq, approverView{Name: u.Name, Email: u.Email})
	}
	return approvalsView{Sequence: seq, IsSequential: true, MinimumPercentApproval: 100}
}
