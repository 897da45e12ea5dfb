package metrics

import (
	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

// EBITDASummary breaks one month's earnings into its components. EBITDA is
// simplified to Revenue - COGS - OpEx; depreciation and amortization are
// not tracked in the monthly tables.
type EBITDASummary struct {
	Month      core.Month      `json:"month"`
	RevenueUSD decimal.Decimal `json:"revenue_usd"`
	CogsUSD    decimal.Decimal `json:"cogs_usd"`
	OpexUSD    decimal.Decimal `json:"opex_usd"`
	EBITDAUSD  decimal.Decimal `json:"ebitda_usd"`
}

// MarginPct is EBITDA as a share of revenue. Only meaningful when revenue
// is positive; callers gate on the second return.
func (s EBITDASummary) MarginPct() (float64, bool) {
	if !s.RevenueUSD.IsPositive() {
		return 0, false
	}
	return s.EBITDAUSD.Div(s.RevenueUSD).InexactFloat64() * 100, true
}

// EBITDA computes the summary for a single month. Unavailable (ok=false)
// when the month is outside the session calendar or carries no revenue,
// COGS or opex rows at all.
func (e *Engine) EBITDA(month core.Month) (EBITDASummary, bool) {
	inCalendar := false
	for _, m := range e.months {
		if m == month {
			inCalendar = true
			break
		}
	}
	if !inCalendar {
		return EBITDASummary{}, false
	}

	matched := false
	revenue, cogs, opex := decimal.Zero, decimal.Zero, decimal.Zero
	for _, r := range e.actuals {
		if r.Month != month {
			continue
		}
		usd := e.rates.ToUSD(r.Month, r.Currency, r.Amount)
		switch core.ClassifyAccount(r.Account) {
		case core.KindRevenue:
			revenue = revenue.Add(usd)
		case core.KindCOGS:
			cogs = cogs.Add(usd)
		case core.KindOpex:
			opex = opex.Add(usd)
		default:
			continue
		}
		matched = true
	}
	if !matched {
		return EBITDASummary{}, false
	}

	return EBITDASummary{
		Month:      month,
		RevenueUSD: revenue,
		CogsUSD:    cogs,
		OpexUSD:    opex,
		EBITDAUSD:  revenue.Sub(cogs).Sub(opex),
	}, true
}

// EBITDATrend computes the summary for each month in the window. Months
// with no EBITDA data are skipped, not zero-filled.
func (e *Engine) EBITDATrend(start, end core.Month) []EBITDASummary {
	var out []EBITDASummary
	for _, m := range e.windowMonths(start, end) {
		if s, ok := e.EBITDA(m); ok {
			out = append(out, s)
		}
	}
	return out
}
