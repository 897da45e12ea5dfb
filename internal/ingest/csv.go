package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"finsight/internal/core"
)

// Fixture file names, matching the demo dataset layout. Only actuals is
// mandatory; a missing optional file yields an empty table.
const (
	actualsFile = "actuals.csv"
	budgetFile  = "budget.csv"
	fxFile      = "fx.csv"
	cashFile    = "cash.csv"
)

// DirSource loads the dataset from a directory of CSV fixture files. Each
// file may use either the long or the wide layout independently.
type DirSource struct {
	dir string
}

var _ Source = (*DirSource)(nil)

func NewDirSource(dir string) *DirSource {
	return &DirSource{dir: dir}
}

func (s *DirSource) Load(ctx context.Context) (core.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return core.Dataset{}, err
	}

	var (
		ds   core.Dataset
		cash []cashRecord
	)

	var g errgroup.Group
	g.Go(func() error {
		rows, err := readCSVTable(filepath.Join(s.dir, actualsFile), false, parseLedgerRecords)
		if err != nil {
			return err
		}
		ds.Actuals = rows
		return nil
	})
	g.Go(func() error {
		rows, err := readCSVTable(filepath.Join(s.dir, budgetFile), true, parseLedgerRecords)
		if err != nil {
			return err
		}
		ds.Budget = rows
		return nil
	})
	g.Go(func() error {
		rows, err := readCSVTable(filepath.Join(s.dir, fxFile), true, parseFxRecords)
		if err != nil {
			return err
		}
		ds.Rates = rows
		return nil
	})
	g.Go(func() error {
		rows, err := readCSVTable(filepath.Join(s.dir, cashFile), true, parseCashRecords)
		if err != nil {
			return err
		}
		cash = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return core.Dataset{}, err
	}

	// Wide-form cash may carry non-USD balances; resolve them against the
	// FX table loaded alongside.
	ds.Cash = resolveCash(cash, ds.Rates)
	return ds, nil
}

// readCSVTable reads and parses one CSV file. Optional tables tolerate a
// missing or empty file.
func readCSVTable[T any](path string, optional bool, parse func([][]string) ([]T, error)) ([]T, error) {
	name := filepath.Base(path)

	f, err := os.Open(path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	rows, err := parse(records)
	if err != nil {
		if optional && errors.Is(err, errEmptyTable) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return rows, nil
}
