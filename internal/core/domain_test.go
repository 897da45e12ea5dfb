package core

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseMonth(t *testing.T) {
	cases := []struct {
		in   string
		want Month
		ok   bool
	}{
		{"2025-01", "2025-01", true},
		{"2025-12", "2025-12", true},
		{" 2025-06 ", "2025-06", true},
		{"2025-13", "", false},
		{"2025-0", "", false},
		{"25-01", "", false},
		{"2025/01", "", false},
		{"", "", false},
	}
	for i, tc := range cases {
		got, err := ParseMonth(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("case %d: got (%q, %v), want %q", i, got, err, tc.want)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d: expected error for %q", i, tc.in)
		}
	}
}

func TestMonthAddMonths(t *testing.T) {
	cases := []struct {
		m    Month
		n    int
		want Month
	}{
		{"2025-06", -2, "2025-04"},
		{"2025-01", -1, "2024-12"},
		{"2025-06", 0, "2025-06"},
		{"2025-11", 3, "2026-02"},
	}
	for i, tc := range cases {
		if got := tc.m.AddMonths(tc.n); got != tc.want {
			t.Fatalf("case %d: %s+%d = %s, want %s", i, tc.m, tc.n, got, tc.want)
		}
	}
}

func TestMonthLabels(t *testing.T) {
	m := MonthOf(2025, time.June)
	if m != "2025-06" {
		t.Fatalf("MonthOf = %s, want 2025-06", m)
	}
	if got := m.Label(); got != "June 2025" {
		t.Fatalf("Label = %q", got)
	}
	if got := m.Short(); got != "Jun 2025" {
		t.Fatalf("Short = %q", got)
	}
	// Invalid months render unchanged rather than erroring.
	if got := Month("garbage").Label(); got != "garbage" {
		t.Fatalf("invalid Label = %q", got)
	}
}

func TestDatasetMonths(t *testing.T) {
	ds := Dataset{Actuals: []LedgerRow{
		{Month: "2025-03", Account: "Revenue", Currency: "USD"},
		{Month: "2025-01", Account: "Revenue", Currency: "USD"},
		{Month: "2025-03", Account: "COGS", Currency: "USD"},
		{Month: "2025-02", Account: "Revenue", Currency: "USD"},
	}}
	months := ds.Months()
	want := []Month{"2025-01", "2025-02", "2025-03"}
	if len(months) != len(want) {
		t.Fatalf("got %d months, want %d", len(months), len(want))
	}
	for i := range want {
		if months[i] != want[i] {
			t.Fatalf("months[%d] = %s, want %s", i, months[i], want[i])
		}
	}
}

func TestDatasetCloneIsIndependent(t *testing.T) {
	ds := Dataset{
		Actuals: []LedgerRow{{Month: "2025-01", Account: "Revenue", Amount: decimal.NewFromInt(100), Currency: "USD"}},
		Cash:    []CashRow{{Month: "2025-01", CashUSD: decimal.NewFromInt(5)}},
	}
	cl := ds.Clone()
	cl.Actuals[0].Account = "COGS"
	cl.Cash[0].CashUSD = decimal.NewFromInt(9)
	if ds.Actuals[0].Account != "Revenue" {
		t.Fatalf("clone mutated original actuals")
	}
	if !ds.Cash[0].CashUSD.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("clone mutated original cash")
	}
}

func TestRowValidate(t *testing.T) {
	good := LedgerRow{Month: "2025-01", Account: "Revenue", Amount: decimal.NewFromInt(1), Currency: "USD"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []LedgerRow{
		{Month: "2025-1", Account: "Revenue", Currency: "USD"},
		{Month: "2025-01", Account: "", Currency: "USD"},
		{Month: "2025-01", Account: "Revenue", Currency: ""},
	}
	for i, r := range bads {
		if err := r.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}

	if err := (FxRate{Month: "2025-01", Currency: "EUR", RateToUSD: decimal.NewFromFloat(1.08)}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (FxRate{Month: "2025-01", Currency: "EUR", RateToUSD: decimal.Zero}).Validate(); err == nil {
		t.Fatalf("expected error for zero rate")
	}
}
