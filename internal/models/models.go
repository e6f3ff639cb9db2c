// Package models defines the domain entities for expense reporting.
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when a company has no base currency configured.
const DefaultCurrency = "USD"

// Role is a user's role inside a company.
type Role string

// Supported roles.
const (
	RoleAdmin    Role = "admin"
	RoleManager  Role = "manager"
	RoleEmployee Role = "employee"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

// Company owns users, categories and expenses.
type Company struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Country      string    `json:"country"`
	BaseCurrency string    `json:"baseCurrency"`
	CreatedAt    time.Time `json:"createdAt"`
}

// User is an employee, manager or admin of a company.
type User struct {
	ID        uuid.UUID  `json:"id"`
	CompanyID uuid.UUID  `json:"company"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      Role       `json:"role"`
	ManagerID *uuid.UUID `json:"manager,omitempty"`
	Status    string     `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
}

// HasManager reports whether the user reports to someone.
func (u *User) HasManager() bool {
	return u.ManagerID != nil && *u.ManagerID != uuid.Nil
}

// Category is a company-defined expense category.
type Category struct {
	ID          uuid.UUID `json:"id"`
	CompanyID   uuid.UUID `json:"company"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Expense is the unit of the approval workflow.
type Expense struct {
	ID                  uuid.UUID       `json:"id"`
	CompanyID           uuid.UUID       `json:"company"`
	EmployeeID          uuid.UUID       `json:"employee"`
	Category            CategoryRef     `json:"category"`
	Description         string          `json:"description"`
	AmountOriginal      decimal.Decimal `json:"amountOriginal"`
	CurrencyOriginal    string          `json:"currencyOriginal"`
	AmountConverted     decimal.Decimal `json:"amountConverted"`
	ReceiptURL          string          `json:"receiptUrl,omitempty"`
	DateIncurred        time.Time       `json:"dateIncurred"`
	Status              Status          `json:"status"`
	ApprovalSequence    []uuid.UUID     `json:"approvalSequence"`
	CurrentApprovalStep int             `json:"currentApprovalStep"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

// CurrentApprover returns the approver at the cursor, if the cursor is in range.
func (e *Expense) CurrentApprover() (uuid.UUID, bool) {
	if e.CurrentApprovalStep < 0 || e.CurrentApprovalStep >= len(e.ApprovalSequence) {
		return uuid.Nil, false
	}
	return e.ApprovalSequence[e.CurrentApprovalStep], true
}

// IsDraft reports whether the expense can still be edited by its owner.
func (e *Expense) IsDraft() bool {
	return e.Status == StatusDraft
}

// ExpenseDetail is an expense with its referenced entities resolved.
type ExpenseDetail struct {
	Expense
	Employee     *User
	Manager      *User
	CategoryInfo *Category
	Approvers    []User
}
