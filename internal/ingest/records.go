package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"finsight/internal/core"
)

// Two table layouts coexist in the wild: a long form with one row per
// (month, account) tuple and a wide form with one column per month and
// free-text account labels. Both are parsed into the same canonical rows;
// the engine never sees the difference.

var errEmptyTable = errors.New("table has no data rows")

// cashRecord is a parsed cash row before currency resolution. Long-form
// cash is USD by definition; wide-form files may carry a currency column
// that is resolved against the FX table once all tables are loaded.
type cashRecord struct {
	Month    core.Month
	Entity   string
	Amount   decimal.Decimal
	Currency string
}

func headerIndex(header []string, names ...string) int {
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		for _, name := range names {
			if h == name {
				return i
			}
		}
	}
	return -1
}

// monthColumns maps column index to month for every header cell that parses
// as YYYY-MM. A header with any month column is the wide layout.
func monthColumns(header []string) map[int]core.Month {
	out := make(map[int]core.Month)
	for i, h := range header {
		if m, err := core.ParseMonth(strings.TrimSpace(h)); err == nil {
			out[i] = m
		}
	}
	return out
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// canonicalAccount maps a wide-form free-text label onto the canonical
// account namespace. Revenue and cost matching is fuzzy and case-blind;
// everything else is an operating expense bucketed by keyword.
func canonicalAccount(label string) string {
	if core.ClassifyAccount(label) != core.KindOther {
		return label
	}
	// Cost terms are tested first so "Cost of Sales" is not claimed by the
	// revenue match on "sales".
	lower := strings.ToLower(label)
	switch {
	case strings.Contains(lower, "cogs"),
		strings.Contains(lower, "cost of goods"),
		strings.Contains(lower, "cost of sales"):
		return "COGS"
	case strings.Contains(lower, "revenue"), strings.Contains(lower, "sales"):
		return "Revenue"
	}
	return core.OpexPrefix + core.CategorizeLabel(label)
}

// parseLedgerRecords parses an actuals or budget table in either layout.
func parseLedgerRecords(records [][]string) ([]core.LedgerRow, error) {
	if len(records) < 2 {
		return nil, errEmptyTable
	}
	header := records[0]
	if len(monthColumns(header)) > 0 {
		return parseWideLedger(header, records[1:])
	}
	return parseLongLedger(header, records[1:])
}

func parseLongLedger(header []string, rows [][]string) ([]core.LedgerRow, error) {
	monthCol := headerIndex(header, "month")
	entityCol := headerIndex(header, "entity")
	accountCol := headerIndex(header, "account_category", "account")
	amountCol := headerIndex(header, "amount")
	currencyCol := headerIndex(header, "currency")
	if monthCol < 0 || accountCol < 0 || amountCol < 0 {
		return nil, fmt.Errorf("ledger header missing month/account/amount: %v", header)
	}

	var out []core.LedgerRow
	for i, row := range rows {
		month, err := core.ParseMonth(cell(row, monthCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		amount, err := parseAmount(cell(row, amountCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: amount: %w", i+2, err)
		}
		currency := cell(row, currencyCol)
		if currency == "" {
			currency = "USD"
		}
		out = append(out, core.LedgerRow{
			Month:    month,
			Entity:   cell(row, entityCol),
			Account:  cell(row, accountCol),
			Amount:   amount,
			Currency: currency,
		})
	}
	return out, nil
}

func parseWideLedger(header []string, rows [][]string) ([]core.LedgerRow, error) {
	entityCol := headerIndex(header, "entity")
	accountCol := headerIndex(header, "account_category", "account")
	currencyCol := headerIndex(header, "currency")
	months := monthColumns(header)
	if accountCol < 0 {
		return nil, fmt.Errorf("wide ledger header missing account column: %v", header)
	}

	var out []core.LedgerRow
	for i, row := range rows {
		account := canonicalAccount(cell(row, accountCol))
		currency := cell(row, currencyCol)
		if currency == "" {
			currency = "USD"
		}
		for col, month := range months {
			raw := cell(row, col)
			if raw == "" {
				continue
			}
			amount, err := parseAmount(raw)
			if err != nil {
				return nil, fmt.Errorf("row %d month %s: %w", i+2, month, err)
			}
			out = append(out, core.LedgerRow{
				Month:    month,
				Entity:   cell(row, entityCol),
				Account:  account,
				Amount:   amount,
				Currency: currency,
			})
		}
	}
	return out, nil
}

// parseFxRecords parses the FX table in either layout.
func parseFxRecords(records [][]string) ([]core.FxRate, error) {
	if len(records) < 2 {
		return nil, errEmptyTable
	}
	header := records[0]
	currencyCol := headerIndex(header, "currency")
	if currencyCol < 0 {
		return nil, fmt.Errorf("fx header missing currency column: %v", header)
	}

	months := monthColumns(header)
	if len(months) > 0 {
		var out []core.FxRate
		for i, row := range records[1:] {
			currency := cell(row, currencyCol)
			for col, month := range months {
				raw := cell(row, col)
				if raw == "" {
					continue
				}
				rate, err := parseAmount(raw)
				if err != nil {
					return nil, fmt.Errorf("row %d month %s: %w", i+2, month, err)
				}
				out = append(out, core.FxRate{Month: month, Currency: currency, RateToUSD: rate})
			}
		}
		return out, nil
	}

	monthCol := headerIndex(header, "month")
	rateCol := headerIndex(header, "rate_to_usd", "rate")
	if monthCol < 0 || rateCol < 0 {
		return nil, fmt.Errorf("fx header missing month/rate: %v", header)
	}
	var out []core.FxRate
	for i, row := range records[1:] {
		month, err := core.ParseMonth(cell(row, monthCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		rate, err := parseAmount(cell(row, rateCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: rate: %w", i+2, err)
		}
		out = append(out, core.FxRate{Month: month, Currency: cell(row, currencyCol), RateToUSD: rate})
	}
	return out, nil
}

// parseCashRecords parses the cash table in either layout. Currency
// resolution is deferred to resolveCash so wide files can be converted with
// the FX table loaded alongside them.
func parseCashRecords(records [][]string) ([]cashRecord, error) {
	if len(records) < 2 {
		return nil, errEmptyTable
	}
	header := records[0]
	entityCol := headerIndex(header, "entity")
	currencyCol := headerIndex(header, "currency")

	months := monthColumns(header)
	if len(months) > 0 {
		var out []cashRecord
		for i, row := range records[1:] {
			currency := cell(row, currencyCol)
			if currency == "" {
				currency = "USD"
			}
			for col, month := range months {
				raw := cell(row, col)
				if raw == "" {
					continue
				}
				amount, err := parseAmount(raw)
				if err != nil {
					return nil, fmt.Errorf("row %d month %s: %w", i+2, month, err)
				}
				out = append(out, cashRecord{
					Month:    month,
					Entity:   cell(row, entityCol),
					Amount:   amount,
					Currency: currency,
				})
			}
		}
		return out, nil
	}

	monthCol := headerIndex(header, "month")
	cashCol := headerIndex(header, "cash_usd", "cash")
	if monthCol < 0 || cashCol < 0 {
		return nil, fmt.Errorf("cash header missing month/cash_usd: %v", header)
	}
	var out []cashRecord
	for i, row := range records[1:] {
		month, err := core.ParseMonth(cell(row, monthCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		amount, err := parseAmount(cell(row, cashCol))
		if err != nil {
			return nil, fmt.Errorf("row %d: cash_usd: %w", i+2, err)
		}
		out = append(out, cashRecord{
			Month:    month,
			Entity:   cell(row, entityCol),
			Amount:   amount,
			Currency: "USD",
		})
	}
	return out, nil
}

// resolveCash converts parsed cash records to consolidated USD rows using
// the session FX table.
func resolveCash(recs []cashRecord, rates []core.FxRate) []core.CashRow {
	table := core.NewRateTable(rates)
	out := make([]core.CashRow, 0, len(recs))
	for _, r := range recs {
		rate, _ := table.Rate(r.Month, r.Currency)
		out = append(out, core.CashRow{
			Month:   r.Month,
			Entity:  r.Entity,
			CashUSD: r.Amount.Mul(rate),
		})
	}
	return out
}
