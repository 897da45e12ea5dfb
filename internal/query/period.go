// Package query turns free-text questions into financial answers: a
// rule-based intent classifier, time-parameter extraction and the
// responder that formats each intent's answer from engine results.
package query

import (
	"regexp"

	"finsight/internal/core"
)

// Period is a relative time reference extracted from a query.
type Period string

const (
	PeriodLast3Months Period = "last_3_months"
	PeriodLast6Months Period = "last_6_months"
	PeriodLastMonth   Period = "last_month"
	PeriodThisMonth   Period = "current_month"
	PeriodYearToDate  Period = "ytd"
	PeriodQ1          Period = "q1"
	PeriodQ2          Period = "q2"
	PeriodQ3          Period = "q3"
	PeriodQ4          Period = "q4"
)

// Params are the transient per-query time parameters. At most one of
// SpecificMonth and Period is consulted by any handler: SpecificMonth wins
// whenever both were extracted.
type Params struct {
	SpecificMonth core.Month
	Period        Period
}

// Trend handlers fall back to a six-month window when the query names no
// recognized relative period.
const defaultTrendMonths = 6

// Month resolves the single month a point-in-time handler should use.
func (p Params) Month(latest core.Month) core.Month {
	if p.SpecificMonth != "" {
		return p.SpecificMonth
	}
	return latest
}

// Window resolves the inclusive month range a trend handler should use,
// anchored at the latest data month. "Last 3 months" ending 2025-06 starts
// at 2025-04. Periods with no window semantics (quarters, ytd, single
// months) resolve to the default window.
func (p Params) Window(latest core.Month) (start, end core.Month) {
	months := defaultTrendMonths
	if p.Period == PeriodLast3Months {
		months = 3
	}
	return latest.AddMonths(-(months - 1)), latest
}

// monthRe matches month names and abbreviations on word boundaries; bare
// containment would let "margin" claim "mar". Leftmost occurrence wins
// when a query names several months.
var monthRe = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sep|oct|nov|dec)\b`)

var monthNumbers = map[string]string{
	"january": "01", "jan": "01",
	"february": "02", "feb": "02",
	"march": "03", "mar": "03",
	"april": "04", "apr": "04",
	"may":  "05",
	"june": "06", "jun": "06",
	"july": "07", "jul": "07",
	"august": "08", "aug": "08",
	"september": "09", "sep": "09",
	"october": "10", "oct": "10",
	"november": "11", "nov": "11",
	"december": "12", "dec": "12",
}

const defaultYear = "2025"

var (
	yearRe    = regexp.MustCompile(`202[3-6]`)
	last3Re   = regexp.MustCompile(`last.*3.*months?`)
	last6Re   = regexp.MustCompile(`last.*6.*months?`)
	lastMonRe = regexp.MustCompile(`last.*month`)
	thisMonRe = regexp.MustCompile(`this.*month`)
	ytdRe     = regexp.MustCompile(`ytd|year.*to.*date`)
	quarterRe = regexp.MustCompile(`q[1-4]|quarter`)
	qNumRe    = regexp.MustCompile(`q([1-4])`)
)

// extractParams pulls time parameters from an already-lowercased query.
// Defaults to the latest data month when nothing matches.
func extractParams(lowered string, latest core.Month) Params {
	var p Params

	if name := monthRe.FindString(lowered); name != "" {
		year := defaultYear
		if m := yearRe.FindString(lowered); m != "" {
			year = m
		}
		p.SpecificMonth = core.Month(year + "-" + monthNumbers[name])
	}

	// Relative periods, in fixed precedence order; first match wins.
	switch {
	case last3Re.MatchString(lowered):
		p.Period = PeriodLast3Months
	case last6Re.MatchString(lowered):
		p.Period = PeriodLast6Months
	case lastMonRe.MatchString(lowered):
		p.Period = PeriodLastMonth
	case thisMonRe.MatchString(lowered):
		p.Period = PeriodThisMonth
	case ytdRe.MatchString(lowered):
		p.Period = PeriodYearToDate
	case quarterRe.MatchString(lowered):
		if m := qNumRe.FindStringSubmatch(lowered); m != nil {
			p.Period = Period("q" + m[1])
		}
	}

	if p.SpecificMonth == "" && p.Period == "" {
		p.SpecificMonth = latest
	}
	return p
}
