package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"finsight/internal/core"
)

// SheetsSource loads the dataset from a Google spreadsheet with one tab per
// table. Tabs use the same long or wide layouts as the CSV fixtures, with
// the header in the first row.
type SheetsSource struct {
	svc           *gsheet.Service
	spreadsheetID string
	actualsTab    string
	budgetTab     string
	fxTab         string
	cashTab       string
}

var _ Source = (*SheetsSource)(nil)

// NewSheetsFromEnv creates a Sheets source using environment variables and
// service account credentials.
// Required: SHEETS_SPREADSHEET_ID.
// Auth: SHEETS_CREDENTIALS_JSON, SHEETS_CREDENTIALS_FILE, or
// GOOGLE_APPLICATION_CREDENTIALS.
// Optional tab names: SHEETS_ACTUALS_TAB (default "Actuals"),
// SHEETS_BUDGET_TAB ("Budget"), SHEETS_FX_TAB ("FX"), SHEETS_CASH_TAB ("Cash").
func NewSheetsFromEnv(ctx context.Context) (*SheetsSource, error) {
	spreadsheetID := strings.TrimSpace(os.Getenv("SHEETS_SPREADSHEET_ID"))
	if spreadsheetID == "" {
		return nil, errors.New("missing SHEETS_SPREADSHEET_ID")
	}

	svc, err := newSheetsService(ctx)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &SheetsSource{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		actualsTab:    envOr("SHEETS_ACTUALS_TAB", "Actuals"),
		budgetTab:     envOr("SHEETS_BUDGET_TAB", "Budget"),
		fxTab:         envOr("SHEETS_FX_TAB", "FX"),
		cashTab:       envOr("SHEETS_CASH_TAB", "Cash"),
	}, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func newSheetsService(ctx context.Context) (*gsheet.Service, error) {
	credentialsJSON := strings.TrimSpace(os.Getenv("SHEETS_CREDENTIALS_JSON"))
	credentialsFile := strings.TrimSpace(os.Getenv("SHEETS_CREDENTIALS_FILE"))
	if credentialsJSON == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var creds []byte
	switch {
	case credentialsJSON != "":
		creds = []byte(credentialsJSON)
	case credentialsFile != "":
		var err error
		creds, err = os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
	default:
		return nil, errors.New("missing service account credentials (set SHEETS_CREDENTIALS_JSON, SHEETS_CREDENTIALS_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

func (s *SheetsSource) Load(ctx context.Context) (core.Dataset, error) {
	var (
		ds   core.Dataset
		cash []cashRecord
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := s.tabRecords(ctx, s.actualsTab)
		if err != nil {
			return err
		}
		ds.Actuals, err = parseLedgerRecords(records)
		if err != nil {
			return fmt.Errorf("%s: %w", s.actualsTab, err)
		}
		return nil
	})
	g.Go(func() error {
		records, err := s.tabRecords(ctx, s.budgetTab)
		if err != nil {
			return err
		}
		ds.Budget, err = parseOptional(records, s.budgetTab, parseLedgerRecords)
		return err
	})
	g.Go(func() error {
		records, err := s.tabRecords(ctx, s.fxTab)
		if err != nil {
			return err
		}
		ds.Rates, err = parseOptional(records, s.fxTab, parseFxRecords)
		return err
	})
	g.Go(func() error {
		records, err := s.tabRecords(ctx, s.cashTab)
		if err != nil {
			return err
		}
		cash, err = parseOptional(records, s.cashTab, parseCashRecords)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.Dataset{}, err
	}

	ds.Cash = resolveCash(cash, ds.Rates)
	return ds, nil
}

// parseOptional treats a tab with no data rows as an empty table.
func parseOptional[T any](records [][]string, tab string, parse func([][]string) ([]T, error)) ([]T, error) {
	rows, err := parse(records)
	if err != nil {
		if errors.Is(err, errEmptyTable) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", tab, err)
	}
	return rows, nil
}

// tabRecords fetches a whole tab and flattens the API's untyped value
// matrix into strings for the shared record parsers.
func (s *SheetsSource) tabRecords(ctx context.Context, tab string) ([][]string, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, tab).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("fetch tab %s: %w", tab, err)
	}

	records := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		records = append(records, toStrings(row))
	}
	return records, nil
}

func toStrings(row []interface{}) []string {
	out := make([]string, len(row))
	for i, v := range row {
		switch t := v.(type) {
		case string:
			out[i] = t
		case float64:
			out[i] = strconv.FormatFloat(t, 'f', -1, 64)
		case bool:
			out[i] = strconv.FormatBool(t)
		case nil:
			out[i] = ""
		default:
			out[i] = fmt.Sprint(t)
		}
	}
	return out
}
