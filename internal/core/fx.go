package core

import (
	"log/slog"

	"github.com/shopspring/decimal"
)

// FallbackRate is applied when no FX rate exists for a (month, currency)
// pair. Unknown currencies are silently treated as already-USD; this is a
// deliberate, named policy of the source data, not an error condition.
var FallbackRate = decimal.NewFromInt(1)

type rateKey struct {
	month    Month
	currency string
}

// RateTable resolves (month, currency) pairs to USD conversion rates.
type RateTable struct {
	rates map[rateKey]decimal.Decimal
}

// NewRateTable indexes FX rows by (month, currency). Duplicate pairs are
// resolved last-wins so construction is deterministic; non-positive rates
// are dropped and fall back to 1.0 at lookup time.
func NewRateTable(rows []FxRate) *RateTable {
	t := &RateTable{rates: make(map[rateKey]decimal.Decimal, len(rows))}
	for _, r := range rows {
		if !r.RateToUSD.IsPositive() {
			continue
		}
		t.rates[rateKey{month: r.Month, currency: r.Currency}] = r.RateToUSD
	}
	return t
}

// Rate looks up the USD rate for a (month, currency) pair. The second
// return reports whether the table held an explicit rate; callers get
// FallbackRate either way.
func (t *RateTable) Rate(m Month, currency string) (decimal.Decimal, bool) {
	if currency == "USD" {
		return FallbackRate, true
	}
	if rate, ok := t.rates[rateKey{month: m, currency: currency}]; ok {
		return rate, true
	}
	return FallbackRate, false
}

// ToUSD converts an amount tagged with (month, currency) into USD.
func (t *RateTable) ToUSD(m Month, currency string, amount decimal.Decimal) decimal.Decimal {
	rate, found := t.Rate(m, currency)
	if !found {
		slog.Debug("fx rate missing, using fallback",
			"month", string(m), "currency", currency)
	}
	return amount.Mul(rate)
}

// USDRow is a ledger row augmented with its normalized USD amount.
type USDRow struct {
	LedgerRow
	AmountUSD decimal.Decimal
}

// Normalize converts rows to USD without mutating the input. Every amount a
// downstream consumer sees has passed through here.
func (t *RateTable) Normalize(rows []LedgerRow) []USDRow {
	out := make([]USDRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, USDRow{
			LedgerRow: r,
			AmountUSD: t.ToUSD(r.Month, r.Currency, r.Amount),
		})
	}
	return out
}
