package metrics

import (
	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

// cashMonths returns the distinct sorted months present in the cash table.
func (e *Engine) cashMonths() []core.Month {
	seen := make(map[core.Month]struct{})
	var out []core.Month
	for _, r := range e.cash {
		if _, ok := seen[r.Month]; ok {
			continue
		}
		seen[r.Month] = struct{}{}
		out = append(out, r.Month)
	}
	core.SortMonths(out)
	return out
}

// cashBalance sums the consolidated balance across entities for one month.
func (e *Engine) cashBalance(month core.Month) decimal.Decimal {
	total := decimal.Zero
	for _, r := range e.cash {
		if r.Month == month {
			total = total.Add(r.CashUSD)
		}
	}
	return total
}

// CurrentCashBalance returns the consolidated balance for the latest cash
// month. Unavailable (ok=false) when the cash table is empty.
func (e *Engine) CurrentCashBalance() (decimal.Decimal, bool) {
	months := e.cashMonths()
	if len(months) == 0 {
		return decimal.Zero, false
	}
	return e.cashBalance(months[len(months)-1]), true
}

// AverageBurnRate is the mean month-over-month cash change across the last
// n distinct cash months. The result is signed: negative means the company
// is burning cash. Unavailable with fewer than two months of cash data.
func (e *Engine) AverageBurnRate(n int) (decimal.Decimal, bool) {
	months := e.cashMonths()
	if len(months) > n {
		months = months[len(months)-n:]
	}
	if len(months) < 2 {
		return decimal.Zero, false
	}
	total := decimal.Zero
	for i := 1; i < len(months); i++ {
		total = total.Add(e.cashBalance(months[i]).Sub(e.cashBalance(months[i-1])))
	}
	return total.Div(decimal.NewFromInt(int64(len(months) - 1))), true
}

// CashRunway is months of cash left at the trailing 3-month burn rate.
// Unavailable when the balance is unknown or non-positive, or when the
// company is not burning cash (flat or growing balance).
func (e *Engine) CashRunway() (float64, bool) {
	cash, ok := e.CurrentCashBalance()
	if !ok || !cash.IsPositive() {
		return 0, false
	}
	burn, ok := e.AverageBurnRate(3)
	if !ok || !burn.IsNegative() {
		return 0, false
	}
	return cash.Div(burn.Abs()).InexactFloat64(), true
}

// CashPoint is one month of consolidated cash balance.
type CashPoint struct {
	Month          core.Month      `json:"month"`
	CashBalanceUSD decimal.Decimal `json:"cash_balance_usd"`
}

// CashTrend returns the consolidated balance per cash month in the window.
func (e *Engine) CashTrend(start, end core.Month) []CashPoint {
	var out []CashPoint
	for _, m := range e.cashMonths() {
		if m < start || m > end {
			continue
		}
		out = append(out, CashPoint{Month: m, CashBalanceUSD: e.cashBalance(m)})
	}
	return out
}
