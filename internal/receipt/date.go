package receipt

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"gitlab.com/yelinaung/expense-approval/internal/apperror"
)

// ParseDDMMYYYY parses a day/month/year date such as "31/12/2024" into a
// UTC calendar date. Other orders and impossible dates are rejected.
func ParseDDMMYYYY(s string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), "/")
	if len(parts) != 3 {
		return time.Time{}, invalidDate(s)
	}

	day, okDay := datePart(parts[0], 1, 2)
	month, okMonth := datePart(parts[1], 1, 2)
	year, okYear := datePart(parts[2], 4, 4)
	if !okDay || !okMonth || !okYear {
		return time.Time{}, invalidDate(s)
	}

	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, invalidDate(s)
	}
	return t, nil
}

func datePart(s string, minDigits, maxDigits int) (int, bool) {
	if len(s) < minDigits || len(s) > maxDigits {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

func invalidDate(s string) error {
	return apperror.Wrap(apperror.InvalidDate, fmt.Errorf("parse %q", s), "Invalid date format in receipt")
}
