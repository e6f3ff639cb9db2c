package database

import (
	"context"
	"fmt"
)

// RunMigrations creates the database schema.
func RunMigrations(ctx context.Context, db PGXDB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS companies (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL,
			country TEXT NOT NULL DEFAULT '',
			base_currency TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			company_id UUID NOT NULL REFERENCES companies(id),
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			role TEXT NOT NULL CHECK (role IN ('admin', 'manager', 'employee')),
			manager_id UUID REFERENCES users(id),
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_users_company_role ON users(company_id, role)`,

		`CREATE TABLE IF NOT EXISTS categories (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			company_id UUID NOT NULL REFERENCES companies(id),
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE INDEX IF NOT EXISTS idx_categories_company_id ON categories(company_id)`,

		`CREATE TABLE IF NOT EXISTS expenses (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			company_id UUID NOT NULL REFERENCES companies(id),
			employee_id UUID NOT NULL REFERENCES users(id),
			category_id UUID REFERENCES categories(id),
			description TEXT NOT NULL DEFAULT '',
			amount_original DECIMAL(14, 2) NOT NULL,
			currency_original TEXT NOT NULL,
			amount_converted DECIMAL(14, 2) NOT NULL,
			receipt_url TEXT NOT NULL DEFAULT '',
			date_incurred DATE NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft'
				CHECK (status IN ('draft', 'pending', 'approved', 'rejected', 'payment_proceed', 'declined')),
			approval_sequence UUID[] NOT NULL DEFAULT '{}',
			current_approval_step INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT expenses_step_in_range
				CHECK (current_approval_step >= 0 AND current_approval_step <= cardinality(approval_sequence))
		)`,

		`CREATE INDEX IF NOT EXISTS idx_expenses_company_status ON expenses(company_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_employee_id ON expenses(employee_id)`,
		`CREATE INDEX IF NOT EXISTS idx_expenses_created_at ON expenses(created_at)`,
	}

	for i, migration := range migrations {
		if _, err := db.Exec(ctx, migration); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}

	return nil
}
