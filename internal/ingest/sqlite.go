package ingest

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"finsight/internal/core"
)

// SQLiteSource loads the dataset from a fixtures database, typically one
// created by the seed tool.
type SQLiteSource struct {
	db *sql.DB
}

var _ Source = (*SQLiteSource)(nil)

func NewSQLiteSource(dbPath string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &SQLiteSource{db: db}, nil
}

func (s *SQLiteSource) Close() error {
	return s.db.Close()
}

func (s *SQLiteSource) Load(ctx context.Context) (core.Dataset, error) {
	var ds core.Dataset

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := s.ledgerRows(ctx, "actuals")
		ds.Actuals = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.ledgerRows(ctx, "budget")
		ds.Budget = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.fxRows(ctx)
		ds.Rates = rows
		return err
	})
	g.Go(func() error {
		rows, err := s.cashRows(ctx)
		ds.Cash = rows
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Dataset{}, err
	}
	return ds, nil
}

func (s *SQLiteSource) ledgerRows(ctx context.Context, table string) ([]core.LedgerRow, error) {
	// table is one of two compile-time constants, never user input.
	q := fmt.Sprintf(`SELECT month, entity, account, amount, currency FROM %s ORDER BY month, entity, account`, table)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", table, err)
	}
	defer rows.Close()

	var out []core.LedgerRow
	for rows.Next() {
		var r core.LedgerRow
		var amount string
		if err := rows.Scan(&r.Month, &r.Entity, &r.Account, &amount, &r.Currency); err != nil {
			return nil, fmt.Errorf("scan %s: %w", table, err)
		}
		if r.Amount, err = decimal.NewFromString(amount); err != nil {
			return nil, fmt.Errorf("%s amount %q: %w", table, amount, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", table, err)
	}
	return out, nil
}

func (s *SQLiteSource) fxRows(ctx context.Context) ([]core.FxRate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT month, currency, rate_to_usd FROM fx_rates ORDER BY month, currency`)
	if err != nil {
		return nil, fmt.Errorf("query fx_rates: %w", err)
	}
	defer rows.Close()

	var out []core.FxRate
	for rows.Next() {
		var r core.FxRate
		var rate string
		if err := rows.Scan(&r.Month, &r.Currency, &rate); err != nil {
			return nil, fmt.Errorf("scan fx_rates: %w", err)
		}
		if r.RateToUSD, err = decimal.NewFromString(rate); err != nil {
			return nil, fmt.Errorf("fx rate %q: %w", rate, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fx_rates: %w", err)
	}
	return out, nil
}

func (s *SQLiteSource) cashRows(ctx context.Context) ([]core.CashRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT month, entity, cash_usd FROM cash ORDER BY month, entity`)
	if err != nil {
		return nil, fmt.Errorf("query cash: %w", err)
	}
	defer rows.Close()

	var out []core.CashRow
	for rows.Next() {
		var r core.CashRow
		var cash string
		if err := rows.Scan(&r.Month, &r.Entity, &cash); err != nil {
			return nil, fmt.Errorf("scan cash: %w", err)
		}
		if r.CashUSD, err = decimal.NewFromString(cash); err != nil {
			return nil, fmt.Errorf("cash balance %q: %w", cash, err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cash: %w", err)
	}
	return out, nil
}
