// Package exchange converts expense amounts between currencies using an
// external rate-lookup service.
package exchange

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RateTable holds the rates quoted against one base currency.
type RateTable struct {
	Base     string
	Rates    map[string]decimal.Decimal
	RateDate time.Time
}

// Rate returns the quoted rate for the target currency.
func (t RateTable) Rate(to string) (decimal.Decimal, bool) {
	r, ok := t.Rates[normalizeCode(to)]
	return r, ok
}

// RateSource looks up the latest rate table for a base currency.
type RateSource interface {
	LatestRates(ctx context.Context, base string) (RateTable, error)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
