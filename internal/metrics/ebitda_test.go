package metrics

import (
	"math"
	"testing"

	"finsight/internal/core"
)

func TestEBITDA(t *testing.T) {
	e := NewEngine(testDataset())

	s, ok := e.EBITDA("2025-01")
	if !ok {
		t.Fatalf("expected available")
	}
	if !s.RevenueUSD.Equal(d(1_000_000)) || !s.CogsUSD.Equal(d(400_000)) || !s.OpexUSD.Equal(d(300_000)) {
		t.Fatalf("components: rev=%s cogs=%s opex=%s", s.RevenueUSD, s.CogsUSD, s.OpexUSD)
	}
	want := s.RevenueUSD.Sub(s.CogsUSD).Sub(s.OpexUSD)
	if !s.EBITDAUSD.Equal(want) {
		t.Fatalf("ebitda=%s, want %s", s.EBITDAUSD, want)
	}
	if !s.EBITDAUSD.Equal(d(300_000)) {
		t.Fatalf("ebitda=%s, want 300000", s.EBITDAUSD)
	}
}

func TestEBITDAMarginPct(t *testing.T) {
	e := NewEngine(testDataset())
	s, _ := e.EBITDA("2025-01")
	pct, ok := s.MarginPct()
	if !ok {
		t.Fatalf("expected margin available with positive revenue")
	}
	if math.Abs(pct-30.0) > 1e-9 {
		t.Fatalf("margin=%f, want 30", pct)
	}

	zero := EBITDASummary{}
	if _, ok := zero.MarginPct(); ok {
		t.Fatalf("expected margin unavailable on zero revenue")
	}
}

func TestEBITDAOutsideCalendar(t *testing.T) {
	e := NewEngine(testDataset())
	if _, ok := e.EBITDA("2025-12"); ok {
		t.Fatalf("expected unavailable outside calendar")
	}
}

func TestEBITDAIgnoresOtherAccounts(t *testing.T) {
	ds := core.Dataset{Actuals: []core.LedgerRow{
		ledger("2025-01", "Revenue", 100, "USD"),
		ledger("2025-01", "Depreciation", 40, "USD"), // not Revenue/COGS/Opex:
	}}
	e := NewEngine(ds)
	s, ok := e.EBITDA("2025-01")
	if !ok {
		t.Fatalf("expected available")
	}
	if !s.EBITDAUSD.Equal(d(100)) {
		t.Fatalf("ebitda=%s, want 100 (Depreciation row ignored)", s.EBITDAUSD)
	}
}

func TestEBITDATrendSkipsEmptyMonths(t *testing.T) {
	ds := core.Dataset{Actuals: []core.LedgerRow{
		ledger("2025-01", "Revenue", 100, "USD"),
		// 2025-02 exists in the calendar but has no P&L kinds.
		ledger("2025-02", "Depreciation", 1, "USD"),
		ledger("2025-03", "Revenue", 300, "USD"),
	}}
	e := NewEngine(ds)
	points := e.EBITDATrend("2025-01", "2025-03")
	if len(points) != 2 {
		t.Fatalf("got %d points, want 2 (empty month skipped)", len(points))
	}
	if points[0].Month != "2025-01" || points[1].Month != "2025-03" {
		t.Fatalf("months = %s, %s", points[0].Month, points[1].Month)
	}
}
