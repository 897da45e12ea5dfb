package query

import (
	"testing"

	"finsight/internal/core"
)

const testLatest = core.Month("2025-06")

func TestExtractParamsSpecificMonth(t *testing.T) {
	cases := []struct {
		query string
		want  core.Month
	}{
		{"what was june revenue", "2025-06"},
		{"show me january numbers", "2025-01"},
		{"revenue for feb 2024", "2024-02"},
		{"december 2023 opex", "2023-12"},
		{"may revenue please", "2025-05"},
		{"sep margin", "2025-09"},
	}
	for i, tc := range cases {
		p := extractParams(tc.query, testLatest)
		if p.SpecificMonth != tc.want {
			t.Fatalf("case %d: got month %q, want %q", i, p.SpecificMonth, tc.want)
		}
	}
}

func TestExtractParamsMonthTokens(t *testing.T) {
	// A query naming two months takes the leftmost occurrence.
	p := extractParams("compare march and january", testLatest)
	if p.SpecificMonth != "2025-03" {
		t.Fatalf("got %q, want 2025-03 (leftmost month wins)", p.SpecificMonth)
	}
	// Month abbreviations only match whole words; "margin" must not be
	// read as March.
	p = extractParams("gross margin for june", testLatest)
	if p.SpecificMonth != "2025-06" {
		t.Fatalf("got %q, want 2025-06", p.SpecificMonth)
	}
	p = extractParams("gross margin trend", testLatest)
	if p.SpecificMonth != testLatest {
		t.Fatalf("got %q, want latest fallback", p.SpecificMonth)
	}
}

func TestExtractParamsYearOutOfRange(t *testing.T) {
	// Years outside 2023-2026 are not recognized; the default applies.
	p := extractParams("june 2019 revenue", testLatest)
	if p.SpecificMonth != "2025-06" {
		t.Fatalf("got %q, want 2025-06", p.SpecificMonth)
	}
}

func TestExtractParamsPeriods(t *testing.T) {
	cases := []struct {
		query string
		want  Period
	}{
		{"revenue for the last 3 months", PeriodLast3Months},
		{"trend over last 6 months", PeriodLast6Months},
		{"what happened last month", PeriodLastMonth},
		{"this month so far", PeriodThisMonth},
		{"ytd revenue", PeriodYearToDate},
		{"year to date margin", PeriodYearToDate},
		{"q2 performance", PeriodQ2},
		{"how was q4", PeriodQ4},
	}
	for i, tc := range cases {
		p := extractParams(tc.query, testLatest)
		if p.Period != tc.want {
			t.Fatalf("case %d: got period %q, want %q", i, p.Period, tc.want)
		}
	}
}

func TestExtractParamsPrecedence(t *testing.T) {
	// "last 3 months" contains "last month"; the more specific period wins.
	p := extractParams("revenue last 3 months", testLatest)
	if p.Period != PeriodLast3Months {
		t.Fatalf("got %q, want %q", p.Period, PeriodLast3Months)
	}
	// A bare "quarter" with no q-number sets no period.
	p = extractParams("how was the quarter", testLatest)
	if p.Period != "" {
		t.Fatalf("bare quarter: got period %q, want empty", p.Period)
	}
	if p.SpecificMonth != testLatest {
		t.Fatalf("bare quarter: got month %q, want latest fallback", p.SpecificMonth)
	}
}

func TestExtractParamsDefault(t *testing.T) {
	p := extractParams("how are we doing", testLatest)
	if p.SpecificMonth != testLatest || p.Period != "" {
		t.Fatalf("got %+v, want latest month and no period", p)
	}
}

func TestParamsMonth(t *testing.T) {
	// An extracted month beats any period.
	p := Params{SpecificMonth: "2025-03", Period: PeriodLast3Months}
	if got := p.Month(testLatest); got != "2025-03" {
		t.Fatalf("got %q, want 2025-03", got)
	}
	if got := (Params{}).Month(testLatest); got != testLatest {
		t.Fatalf("got %q, want %q", got, testLatest)
	}
}

func TestParamsWindow(t *testing.T) {
	cases := []struct {
		period    Period
		wantStart core.Month
	}{
		{PeriodLast3Months, "2025-04"},
		{PeriodLast6Months, "2025-01"},
		{"", "2025-01"},
		{PeriodYearToDate, "2025-01"},
		{PeriodQ2, "2025-01"},
	}
	for i, tc := range cases {
		start, end := Params{Period: tc.period}.Window(testLatest)
		if start != tc.wantStart || end != testLatest {
			t.Fatalf("case %d: got [%s, %s], want [%s, %s]", i, start, end, tc.wantStart, testLatest)
		}
	}
}

func TestParamsWindowYearBoundary(t *testing.T) {
	start, end := Params{}.Window("2025-02")
	if start != "2024-09" || end != "2025-02" {
		t.Fatalf("got [%s, %s], want [2024-09, 2025-02]", start, end)
	}
}
