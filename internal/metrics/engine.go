// Package metrics implements the financial aggregation engine. Every
// operation filters the session tables by account kind and month window,
// normalizes amounts to USD and computes one derived metric. Operations are
// pure functions of the session tables plus their arguments: results are
// freshly allocated per call and no-data conditions surface as empty slices
// or ok=false, never as errors.
package metrics

import (
	"sort"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

// Engine holds the immutable session tables. Construct once per session;
// safe for concurrent read-only use afterwards.
type Engine struct {
	actuals []core.LedgerRow
	budget  []core.LedgerRow
	cash    []core.CashRow
	rates   *core.RateTable
	months  []core.Month
}

// NewEngine copies the dataset defensively and indexes the FX table. The
// distinct months of the actuals table become the session calendar.
func NewEngine(ds core.Dataset) *Engine {
	ds = ds.Clone()
	return &Engine{
		actuals: ds.Actuals,
		budget:  ds.Budget,
		cash:    ds.Cash,
		rates:   core.NewRateTable(ds.Rates),
		months:  ds.Months(),
	}
}

// MonthSet returns a copy of the session calendar.
func (e *Engine) MonthSet() []core.Month {
	out := make([]core.Month, len(e.months))
	copy(out, e.months)
	return out
}

// LatestMonth is the anchor for relative time windows. Falls back to a
// fixed constant when the actuals table is empty.
func (e *Engine) LatestMonth() core.Month {
	if len(e.months) == 0 {
		return core.FallbackLatestMonth
	}
	return e.months[len(e.months)-1]
}

// windowMonths slices the session calendar to [start, end], both inclusive.
func (e *Engine) windowMonths(start, end core.Month) []core.Month {
	var out []core.Month
	for _, m := range e.months {
		if start <= m && m <= end {
			out = append(out, m)
		}
	}
	return out
}

// sumByKind totals the USD-normalized amounts of rows matching kind for a
// single month.
func (e *Engine) sumByKind(rows []core.LedgerRow, month core.Month, kind core.AccountKind) decimal.Decimal {
	total := decimal.Zero
	for _, r := range rows {
		if r.Month != month || core.ClassifyAccount(r.Account) != kind {
			continue
		}
		total = total.Add(e.rates.ToUSD(r.Month, r.Currency, r.Amount))
	}
	return total
}

// RevenueBudgetPoint compares actual and budgeted revenue for one month.
type RevenueBudgetPoint struct {
	Month       core.Month      `json:"month"`
	ActualUSD   decimal.Decimal `json:"actual_usd"`
	BudgetUSD   decimal.Decimal `json:"budget_usd"`
	VarianceUSD decimal.Decimal `json:"variance_usd"`
	VariancePct float64         `json:"variance_pct"`
}

// RevenueVsBudget merges actual and budget revenue per month over the
// window. Months present on only one side contribute zero on the other;
// a zero or negative budget pins the percentage variance to 0 rather than
// producing an infinity.
func (e *Engine) RevenueVsBudget(start, end core.Month) []RevenueBudgetPoint {
	var out []RevenueBudgetPoint
	for _, m := range e.windowMonths(start, end) {
		actual := e.sumByKind(e.actuals, m, core.KindRevenue)
		budget := e.sumByKind(e.budget, m, core.KindRevenue)
		variance := actual.Sub(budget)
		pct := 0.0
		if budget.IsPositive() {
			pct = variance.Div(budget).InexactFloat64() * 100
		}
		out = append(out, RevenueBudgetPoint{
			Month:       m,
			ActualUSD:   actual,
			BudgetUSD:   budget,
			VarianceUSD: variance,
			VariancePct: pct,
		})
	}
	return out
}

// RevenuePoint is one month of actual revenue.
type RevenuePoint struct {
	Month      core.Month      `json:"month"`
	RevenueUSD decimal.Decimal `json:"revenue_usd"`
}

// RevenueTrend returns actual revenue per month over the window. An empty
// window yields an empty result, not an error.
func (e *Engine) RevenueTrend(start, end core.Month) []RevenuePoint {
	var out []RevenuePoint
	for _, m := range e.windowMonths(start, end) {
		out = append(out, RevenuePoint{
			Month:      m,
			RevenueUSD: e.sumByKind(e.actuals, m, core.KindRevenue),
		})
	}
	return out
}

// MarginPoint is one month of gross margin figures.
type MarginPoint struct {
	Month          core.Month      `json:"month"`
	RevenueUSD     decimal.Decimal `json:"revenue_usd"`
	CogsUSD        decimal.Decimal `json:"cogs_usd"`
	GrossProfitUSD decimal.Decimal `json:"gross_profit_usd"`
	GrossMarginPct float64         `json:"gross_margin_pct"`
}

// GrossMarginTrend computes revenue, COGS and margin per month. Margin can
// legitimately go negative when COGS exceeds revenue; zero revenue pins the
// percentage to 0.
func (e *Engine) GrossMarginTrend(start, end core.Month) []MarginPoint {
	var out []MarginPoint
	for _, m := range e.windowMonths(start, end) {
		revenue := e.sumByKind(e.actuals, m, core.KindRevenue)
		cogs := e.sumByKind(e.actuals, m, core.KindCOGS)
		profit := revenue.Sub(cogs)
		pct := 0.0
		if revenue.IsPositive() {
			pct = profit.Div(revenue).InexactFloat64() * 100
		}
		out = append(out, MarginPoint{
			Month:          m,
			RevenueUSD:     revenue,
			CogsUSD:        cogs,
			GrossProfitUSD: profit,
			GrossMarginPct: pct,
		})
	}
	return out
}

// OpexCategoryAmount is one operating-expense subcategory for a month.
type OpexCategoryAmount struct {
	Category  string          `json:"category"`
	AmountUSD decimal.Decimal `json:"amount_usd"`
}

// OpexBreakdown groups a single month's operating expenses by the verbatim
// Opex: subcategory. Zero-amount rows are dropped; output is sorted by
// amount descending with category name as the tie-break.
func (e *Engine) OpexBreakdown(month core.Month) []OpexCategoryAmount {
	totals := make(map[string]decimal.Decimal)
	for _, r := range e.actuals {
		if r.Month != month {
			continue
		}
		cat, ok := core.OpexCategory(r.Account)
		if !ok {
			continue
		}
		usd := e.rates.ToUSD(r.Month, r.Currency, r.Amount)
		if usd.IsZero() {
			continue
		}
		totals[cat] = totals[cat].Add(usd)
	}
	out := make([]OpexCategoryAmount, 0, len(totals))
	for cat, amount := range totals {
		out = append(out, OpexCategoryAmount{Category: cat, AmountUSD: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AmountUSD.Equal(out[j].AmountUSD) {
			return out[i].AmountUSD.GreaterThan(out[j].AmountUSD)
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// OpexPoint is one month of total operating expenses.
type OpexPoint struct {
	Month   core.Month      `json:"month"`
	OpexUSD decimal.Decimal `json:"opex_usd"`
}

// OpexTrend returns total operating expenses per month over the window.
func (e *Engine) OpexTrend(start, end core.Month) []OpexPoint {
	var out []OpexPoint
	for _, m := range e.windowMonths(start, end) {
		out = append(out, OpexPoint{
			Month:   m,
			OpexUSD: e.sumByKind(e.actuals, m, core.KindOpex),
		})
	}
	return out
}
