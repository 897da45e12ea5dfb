// Command seed-fixtures creates the fixtures database, migrates it to the
// current schema and fills it with the deterministic demo dataset.
package main

import (
	"context"
	"os"
	"time"

	"github.com/joho/godotenv"

	"finsight/internal/config"
	"finsight/internal/log"
	"finsight/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := log.DefaultConfig()
	cfg.Component = log.ComponentStorage
	logger := log.New(cfg)
	log.SetDefault(logger)

	conf := config.Load()

	store, err := storage.Open(conf.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to open fixtures database", log.FieldError, err, "path", conf.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dataset := storage.DemoDataset()
	if err := store.Replace(ctx, dataset); err != nil {
		logger.Error("Failed to seed fixtures", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Fixtures database seeded",
		"path", conf.SQLiteDBPath,
		"actual_rows", len(dataset.Actuals),
		"budget_rows", len(dataset.Budget),
		"fx_rows", len(dataset.Rates),
		"cash_rows", len(dataset.Cash))
}
