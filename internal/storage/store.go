// Package storage owns the fixtures database: schema migrations, writes,
// and the deterministic demo dataset used for local development.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"finsight/internal/core"

	_ "modernc.org/sqlite"
)

// Store is a write handle on the fixtures database. Reads go through the
// ingest sqlite source; the store exists for seeding and tests.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the fixtures database and brings its
// schema up to date.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Replace overwrites the database contents with the given dataset in one
// transaction.
func (s *Store) Replace(ctx context.Context, ds core.Dataset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"actuals", "budget", "fx_rates", "cash"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	if err := insertLedger(ctx, tx, "actuals", ds.Actuals); err != nil {
		return err
	}
	if err := insertLedger(ctx, tx, "budget", ds.Budget); err != nil {
		return err
	}
	for _, r := range ds.Rates {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("fx rate %s/%s: %w", r.Month, r.Currency, err)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO fx_rates (month, currency, rate_to_usd) VALUES (?, ?, ?)`,
			string(r.Month), r.Currency, r.RateToUSD.String())
		if err != nil {
			return fmt.Errorf("insert fx rate: %w", err)
		}
	}
	for _, r := range ds.Cash {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("cash row %s/%s: %w", r.Month, r.Entity, err)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO cash (month, entity, cash_usd) VALUES (?, ?, ?)`,
			string(r.Month), r.Entity, r.CashUSD.String())
		if err != nil {
			return fmt.Errorf("insert cash row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertLedger(ctx context.Context, tx *sql.Tx, table string, rows []core.LedgerRow) error {
	stmt, err := tx.PrepareContext(ctx,
		fmt.Sprintf(`INSERT INTO %s (month, entity, account, amount, currency) VALUES (?, ?, ?, ?, ?)`, table))
	if err != nil {
		return fmt.Errorf("prepare %s insert: %w", table, err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if err := r.Validate(); err != nil {
			return fmt.Errorf("%s row %s/%s: %w", table, r.Month, r.Account, err)
		}
		if _, err := stmt.ExecContext(ctx,
			string(r.Month), r.Entity, r.Account, r.Amount.String(), r.Currency); err != nil {
			return fmt.Errorf("insert %s row: %w", table, err)
		}
	}
	return nil
}
