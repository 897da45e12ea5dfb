package core

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type (
	// Month is a calendar month in YYYY-MM form. Zero-padded months and
	// four-digit years keep lexical ordering equal to chronological
	// ordering, so window filters compare Months as plain strings.
	Month string

	// LedgerRow is one monthly figure from the actuals or budget table.
	// Account is either an exact label ("Revenue", "COGS") or a
	// namespaced operating-expense label ("Opex:<subcategory>").
	LedgerRow struct {
		Month    Month
		Entity   string
		Account  string
		Amount   decimal.Decimal
		Currency string
	}

	// FxRate converts one currency to USD for one month.
	FxRate struct {
		Month     Month
		Currency  string
		RateToUSD decimal.Decimal
	}

	// CashRow is a per-entity cash balance, already USD-denominated.
	CashRow struct {
		Month   Month
		Entity  string
		CashUSD decimal.Decimal
	}

	// Dataset bundles the four tables supplied by the caller at session
	// start. The engine copies it defensively; callers must not rely on
	// mutating a Dataset after handing it over.
	Dataset struct {
		Actuals []LedgerRow
		Budget  []LedgerRow
		Rates   []FxRate
		Cash    []CashRow
	}
)

// FallbackLatestMonth anchors window resolution when the actuals table is
// empty. A documented limitation carried over from the source system.
const FallbackLatestMonth Month = "2025-12"

var (
	ErrInvalidMonth  = errors.New("invalid month")
	ErrInvalidRate   = errors.New("invalid fx rate")
	ErrEmptyAccount  = errors.New("empty account label")
	ErrEmptyCurrency = errors.New("empty currency code")
)

var monthRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// ParseMonth validates and normalizes a YYYY-MM string.
func ParseMonth(s string) (Month, error) {
	s = strings.TrimSpace(s)
	if !monthRe.MatchString(s) {
		return "", ErrInvalidMonth
	}
	return Month(s), nil
}

// MonthOf builds a Month from a year and calendar month.
func MonthOf(year int, month time.Month) Month {
	return Month(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("2006-01"))
}

func (m Month) Valid() bool {
	return monthRe.MatchString(string(m))
}

// Time returns the first day of the month in UTC.
func (m Month) Time() (time.Time, bool) {
	t, err := time.Parse("2006-01", string(m))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// AddMonths shifts the month by n (negative shifts backwards).
func (m Month) AddMonths(n int) Month {
	t, ok := m.Time()
	if !ok {
		return m
	}
	return Month(t.AddDate(0, n, 0).Format("2006-01"))
}

// Label renders the month as "January 2025". Invalid months render as-is.
func (m Month) Label() string {
	t, ok := m.Time()
	if !ok {
		return string(m)
	}
	return t.Format("January 2006")
}

// Short renders the month as "Jan 2025".
func (m Month) Short() string {
	t, ok := m.Time()
	if !ok {
		return string(m)
	}
	return t.Format("Jan 2006")
}

func (r LedgerRow) Validate() error {
	if !r.Month.Valid() {
		return ErrInvalidMonth
	}
	if strings.TrimSpace(r.Account) == "" {
		return ErrEmptyAccount
	}
	if strings.TrimSpace(r.Currency) == "" {
		return ErrEmptyCurrency
	}
	return nil
}

func (r FxRate) Validate() error {
	if !r.Month.Valid() {
		return ErrInvalidMonth
	}
	if strings.TrimSpace(r.Currency) == "" {
		return ErrEmptyCurrency
	}
	if !r.RateToUSD.IsPositive() {
		return ErrInvalidRate
	}
	return nil
}

func (r CashRow) Validate() error {
	if !r.Month.Valid() {
		return ErrInvalidMonth
	}
	return nil
}

// Clone returns a deep-enough copy of the dataset (row structs are value
// types, so copying the slices is sufficient).
func (d Dataset) Clone() Dataset {
	out := Dataset{
		Actuals: make([]LedgerRow, len(d.Actuals)),
		Budget:  make([]LedgerRow, len(d.Budget)),
		Rates:   make([]FxRate, len(d.Rates)),
		Cash:    make([]CashRow, len(d.Cash)),
	}
	copy(out.Actuals, d.Actuals)
	copy(out.Budget, d.Budget)
	copy(out.Rates, d.Rates)
	copy(out.Cash, d.Cash)
	return out
}

// Months returns the distinct sorted set of months present in the actuals
// table. This is the authoritative calendar for window resolution.
func (d Dataset) Months() []Month {
	seen := make(map[Month]struct{})
	var out []Month
	for _, r := range d.Actuals {
		if _, ok := seen[r.Month]; ok {
			continue
		}
		seen[r.Month] = struct{}{}
		out = append(out, r.Month)
	}
	SortMonths(out)
	return out
}

// SortMonths orders months chronologically in place. Lexical order equals
// chronological order for valid YYYY-MM strings.
func SortMonths(ms []Month) {
	sort.Slice(ms, func(i, j int) bool { return ms[i] < ms[j] })
}
