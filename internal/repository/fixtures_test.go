package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"gitlab.com/yelinaung/expense-approval/internal/database"
	"gitlab.com/yelinaung/expense-approval/internal/models"
)

type fixture struct {
	ctx        context.Context
	companies  *CompanyRepository
	users      *UserRepository
	categories *CategoryRepository
	expenses   *ExpenseRepository

	company  *models.Company
	admin    *models.User
	manager  *models.User
	employee *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	tx := database.TestTx(t)
	f := &fixture{
		ctx:        context.Background(),
		companies:  NewCompanyRepository(tx),
		users:      NewUserRepository(tx),
		categories: NewCategoryRepository(tx),
		expenses:   NewExpenseRepository(tx),
	}

	f.company = &models.Company{Name: "Acme", Country: "Singapore", BaseCurrency: "SGD"}
	require.NoError(t, f.companies.Create(f.ctx, f.company))

	f.admin = f.addUser(t, "Ada", models.RoleAdmin, nil)
	f.manager = f.addUser(t, "Max", models.RoleManager, nil)
	f.employee = f.addUser(t, "Eve", models.RoleEmployee, &f.manager.ID)
	return f
}

func (f *fixture) addUser(t *testing.T, name string, role models.Role, managerID *uuid.UUID) *models.User {
	t.Helper()

	u := &models.User{
		CompanyID: f.company.ID,
		Name:      name,
		Email:     fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()[:8]),
		Role:      role,
		ManagerID: managerID,
	}
	require.NoError(t, f.users.Create(f.ctx, u))
	return u
}

func (f *fixture) addExpense(t *testing.T, status models.Status, sequence []uuid.UUID, step int) *models.Expense {
	t.Helper()

	e := &models.Expense{
		CompanyID:           f.company.ID,
		EmployeeID:          f.employee.ID,
		Description:         "Taxi to client",
		AmountOriginal:      decimal.RequireFromString("42.50"),
		CurrencyOriginal:    "SGD",
		AmountConverted:     decimal.RequireFromString("42.50"),
		DateIncurred:        time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Status:              status,
		ApprovalSequence:    sequence,
		CurrentApprovalStep: step,
	}
	require.NoError(t, f.expenses.Create(f.ctx, e))
	return e
}
