package exchange

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"gitlab.com/yelinaung/expense-approval/internal/logger"
	"gitlab.com/yelinaung/expense-approval/internal/telemetry"
)

var errRateMissing = errors.New("conversion rate missing in rate table")

// Converter converts amounts and degrades to the unconverted amount when a
// rate cannot be obtained. Expense creation never fails on a lookup outage.
type Converter struct {
	source  RateSource
	metrics *telemetry.Metrics
}

// NewConverter creates a Converter. A nil source always falls back.
func NewConverter(source RateSource, metrics *telemetry.Metrics) *Converter {
	return &Converter{source: source, metrics: metrics}
}

// Convert returns amount expressed in the target currency.
// Same-currency conversions return amount without a lookup.
func (c *Converter) Convert(ctx context.Context, amount decimal.Decimal, from, to string) decimal.Decimal {
	src, dst := normalizeCode(from), normalizeCode(to)
	if src == dst {
		return amount
	}

	converted, err := c.lookup(ctx, amount, src, dst)
	if err != nil {
		logger.Log.Warn().
			Err(err).
			Str("source_currency", src).
			Str("target_currency", dst).
			Msg("Exchange lookup failed; keeping original amount")
		c.metrics.RecordRateFallback(ctx, src, dst)
		return amount
	}
	return converted
}

func (c *Converter) lookup(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
	if c.source == nil {
		return decimal.Decimal{}, errors.New("exchange service unavailable")
	}
	table, err := c.source.LatestRates(ctx, from)
	if err != nil {
		return decimal.Decimal{}, err
	}
	rate, ok := table.Rate(to)
	if !ok {
		return decimal.Decimal{}, errRateMissing
	}
	return amount.Mul(rate), nil
}
