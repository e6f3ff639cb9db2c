package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"gitlab.com/yelinaung/expense-approval/internal/apperror"
)

// ErrStaleExpense is returned when a compare-and-swap update lost a race.
var ErrStaleExpense = apperror.New(apperror.Conflict, "Expense was modified concurrently, reload and retry")

// lookupError maps a missing row to a NotFound error and wraps anything else.
func lookupError(err error, entity, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.Wrap(apperror.NotFound, err, entity+" not found")
	}
	return fmt.Errorf("%s: %w", op, err)
}
