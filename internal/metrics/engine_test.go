package metrics

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

func d(v float64) decimal.Decimal { return decimal.NewFromFloat(v) }

func ledger(month core.Month, account string, amount float64, currency string) core.LedgerRow {
	return core.LedgerRow{Month: month, Entity: "US", Account: account, Amount: d(amount), Currency: currency}
}

func testDataset() core.Dataset {
	return core.Dataset{
		Actuals: []core.LedgerRow{
			ledger("2025-01", "Revenue", 1_000_000, "USD"),
			ledger("2025-01", "COGS", 400_000, "USD"),
			ledger("2025-01", "Opex:Marketing", 100_000, "USD"),
			ledger("2025-01", "Opex:Sales", 80_000, "USD"),
			ledger("2025-01", "Opex:R&D", 120_000, "USD"),
			ledger("2025-02", "Revenue", 1_100_000, "USD"),
			ledger("2025-02", "COGS", 500_000, "USD"),
			ledger("2025-02", "Opex:R&D", 130_000, "USD"),
			// EUR row: rate 1.1 for 2025-02.
			ledger("2025-02", "Opex:Marketing", 100_000, "EUR"),
		},
		Budget: []core.LedgerRow{
			ledger("2025-01", "Revenue", 950_000, "USD"),
			// No budget for 2025-02: outer merge fills zero.
		},
		Rates: []core.FxRate{
			{Month: "2025-02", Currency: "EUR", RateToUSD: d(1.1)},
		},
		Cash: []core.CashRow{
			{Month: "2025-01", Entity: "US", CashUSD: d(5_000_000)},
			{Month: "2025-02", Entity: "US", CashUSD: d(4_800_000)},
			{Month: "2025-03", Entity: "US", CashUSD: d(4_600_000)},
		},
	}
}

func TestRevenueVsBudgetScenario(t *testing.T) {
	e := NewEngine(testDataset())

	points := e.RevenueVsBudget("2025-01", "2025-01")
	if len(points) != 1 {
		t.Fatalf("got %d points, want 1", len(points))
	}
	p := points[0]
	if !p.ActualUSD.Equal(d(1_000_000)) || !p.BudgetUSD.Equal(d(950_000)) {
		t.Fatalf("actual=%s budget=%s", p.ActualUSD, p.BudgetUSD)
	}
	if !p.VarianceUSD.Equal(d(50_000)) {
		t.Fatalf("variance=%s, want 50000", p.VarianceUSD)
	}
	if math.Abs(p.VariancePct-5.263157894736842) > 1e-9 {
		t.Fatalf("variance_pct=%f, want ~5.26", p.VariancePct)
	}
}

func TestRevenueVsBudgetZeroBudget(t *testing.T) {
	e := NewEngine(testDataset())

	points := e.RevenueVsBudget("2025-02", "2025-02")
	if len(points) != 1 {
		t.Fatalf("got %d points", len(points))
	}
	p := points[0]
	if !p.BudgetUSD.IsZero() {
		t.Fatalf("budget=%s, want 0 (outer merge fill)", p.BudgetUSD)
	}
	if p.VariancePct != 0 {
		t.Fatalf("variance_pct=%f, want 0 on zero budget", p.VariancePct)
	}
	if !p.VarianceUSD.Equal(p.ActualUSD) {
		t.Fatalf("variance=%s, want actual %s", p.VarianceUSD, p.ActualUSD)
	}
}

func TestRevenueTrendMatchesVsBudgetActuals(t *testing.T) {
	e := NewEngine(testDataset())
	for _, m := range e.MonthSet() {
		trend := e.RevenueTrend(m, m)
		vsb := e.RevenueVsBudget(m, m)
		if len(trend) != 1 || len(vsb) != 1 {
			t.Fatalf("month %s: lengths %d/%d", m, len(trend), len(vsb))
		}
		if !trend[0].RevenueUSD.Equal(vsb[0].ActualUSD) {
			t.Fatalf("month %s: %s != %s", m, trend[0].RevenueUSD, vsb[0].ActualUSD)
		}
	}
}

func TestRevenueTrendEmptyWindow(t *testing.T) {
	e := NewEngine(testDataset())
	if got := e.RevenueTrend("2030-01", "2030-06"); len(got) != 0 {
		t.Fatalf("expected empty result, got %d points", len(got))
	}
}

func TestGrossMarginTrend(t *testing.T) {
	e := NewEngine(testDataset())

	points := e.GrossMarginTrend("2025-01", "2025-02")
	if len(points) != 2 {
		t.Fatalf("got %d points", len(points))
	}
	for i, p := range points {
		if !p.GrossProfitUSD.Equal(p.RevenueUSD.Sub(p.CogsUSD)) {
			t.Fatalf("point %d: profit mismatch", i)
		}
		if p.RevenueUSD.IsPositive() {
			want := p.GrossProfitUSD.Div(p.RevenueUSD).InexactFloat64() * 100
			if math.Abs(p.GrossMarginPct-want) > 1e-9 {
				t.Fatalf("point %d: margin %f want %f", i, p.GrossMarginPct, want)
			}
		}
	}
	if math.Abs(points[0].GrossMarginPct-60.0) > 1e-9 {
		t.Fatalf("jan margin %f, want 60", points[0].GrossMarginPct)
	}
}

func TestGrossMarginZeroRevenue(t *testing.T) {
	ds := core.Dataset{Actuals: []core.LedgerRow{
		ledger("2025-01", "COGS", 100, "USD"),
	}}
	e := NewEngine(ds)
	points := e.GrossMarginTrend("2025-01", "2025-01")
	if len(points) != 1 {
		t.Fatalf("got %d points", len(points))
	}
	if points[0].GrossMarginPct != 0 {
		t.Fatalf("margin=%f, want 0 on zero revenue", points[0].GrossMarginPct)
	}
}

func TestGrossMarginCanGoNegative(t *testing.T) {
	ds := core.Dataset{Actuals: []core.LedgerRow{
		ledger("2025-01", "Revenue", 100, "USD"),
		ledger("2025-01", "COGS", 150, "USD"),
	}}
	e := NewEngine(ds)
	points := e.GrossMarginTrend("2025-01", "2025-01")
	if points[0].GrossMarginPct >= 0 {
		t.Fatalf("margin=%f, want negative", points[0].GrossMarginPct)
	}
}

func TestOpexBreakdownScenario(t *testing.T) {
	e := NewEngine(testDataset())

	rows := e.OpexBreakdown("2025-01")
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3", len(rows))
	}
	wantOrder := []struct {
		cat    string
		amount float64
	}{
		{"R&D", 120_000},
		{"Marketing", 100_000},
		{"Sales", 80_000},
	}
	total := decimal.Zero
	for i, w := range wantOrder {
		if rows[i].Category != w.cat || !rows[i].AmountUSD.Equal(d(w.amount)) {
			t.Fatalf("row %d = %s/%s, want %s/%v", i, rows[i].Category, rows[i].AmountUSD, w.cat, w.amount)
		}
		total = total.Add(rows[i].AmountUSD)
	}
	if !total.Equal(d(300_000)) {
		t.Fatalf("total=%s, want 300000", total)
	}
}

func TestOpexBreakdownNormalizesCurrency(t *testing.T) {
	e := NewEngine(testDataset())
	rows := e.OpexBreakdown("2025-02")
	var marketing decimal.Decimal
	for _, r := range rows {
		if r.Category == "Marketing" {
			marketing = r.AmountUSD
		}
	}
	if !marketing.Equal(d(110_000)) {
		t.Fatalf("marketing=%s, want 110000 (100000 EUR @ 1.1)", marketing)
	}
}

func TestOpexBreakdownEmptyMonth(t *testing.T) {
	e := NewEngine(testDataset())
	if rows := e.OpexBreakdown("2025-12"); len(rows) != 0 {
		t.Fatalf("expected empty, got %d rows", len(rows))
	}
}

func TestOpexBreakdownSumsDuplicateRows(t *testing.T) {
	ds := core.Dataset{Actuals: []core.LedgerRow{
		ledger("2025-01", "Opex:Sales", 10, "USD"),
		ledger("2025-01", "Opex:Sales", 15, "USD"),
	}}
	e := NewEngine(ds)
	rows := e.OpexBreakdown("2025-01")
	if len(rows) != 1 || !rows[0].AmountUSD.Equal(d(25)) {
		t.Fatalf("got %+v, want single Sales=25", rows)
	}
}

func TestOpexTrend(t *testing.T) {
	e := NewEngine(testDataset())
	points := e.OpexTrend("2025-01", "2025-02")
	if len(points) != 2 {
		t.Fatalf("got %d points", len(points))
	}
	if !points[0].OpexUSD.Equal(d(300_000)) {
		t.Fatalf("jan opex=%s, want 300000", points[0].OpexUSD)
	}
	if !points[1].OpexUSD.Equal(d(240_000)) { // 130k + 100k EUR @ 1.1
		t.Fatalf("feb opex=%s, want 240000", points[1].OpexUSD)
	}
}

func TestIdempotence(t *testing.T) {
	e := NewEngine(testDataset())

	a := e.RevenueVsBudget("2025-01", "2025-02")
	b := e.RevenueVsBudget("2025-01", "2025-02")
	if len(a) != len(b) {
		t.Fatalf("lengths differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if !a[i].ActualUSD.Equal(b[i].ActualUSD) || !a[i].BudgetUSD.Equal(b[i].BudgetUSD) {
			t.Fatalf("point %d drifted between calls", i)
		}
	}

	r1, ok1 := e.CashRunway()
	r2, ok2 := e.CashRunway()
	if ok1 != ok2 || r1 != r2 {
		t.Fatalf("runway drifted: (%f,%v) vs (%f,%v)", r1, ok1, r2, ok2)
	}
}

func TestEngineCopiesDataset(t *testing.T) {
	ds := testDataset()
	e := NewEngine(ds)
	before := e.RevenueTrend("2025-01", "2025-01")[0].RevenueUSD

	// Mutating the caller's dataset must not affect the session.
	ds.Actuals[0].Amount = d(999)
	after := e.RevenueTrend("2025-01", "2025-01")[0].RevenueUSD
	if !before.Equal(after) {
		t.Fatalf("engine observed caller mutation: %s vs %s", before, after)
	}
}

func TestLatestMonthFallback(t *testing.T) {
	e := NewEngine(core.Dataset{})
	if got := e.LatestMonth(); got != core.FallbackLatestMonth {
		t.Fatalf("got %s, want fallback %s", got, core.FallbackLatestMonth)
	}
}
