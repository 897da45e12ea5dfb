package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finsight/internal/config"
	apphttp "finsight/internal/http"
	"finsight/internal/ingest"
	"finsight/internal/log"
	"finsight/internal/metrics"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.DefaultConfig())
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}

	loadCtx, loadCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer loadCancel()

	source, cleanup, err := newSource(loadCtx, cfg)
	if err != nil {
		logger.Error("Failed to initialize data source", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer cleanup()

	dataset, err := source.Load(loadCtx)
	if err != nil {
		logger.Error("Failed to load dataset", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}

	engine := metrics.NewEngine(dataset)
	logger.Info("Dataset loaded",
		log.FieldBackend, cfg.DataBackend,
		"actual_rows", len(dataset.Actuals),
		"budget_rows", len(dataset.Budget),
		"fx_rows", len(dataset.Rates),
		"cash_rows", len(dataset.Cash),
		"latest_month", string(engine.LatestMonth()))

	srv := apphttp.NewServer(":"+cfg.Port, engine, apphttp.Options{
		CacheTTL:  cfg.DashboardCacheTTL,
		CacheSize: cfg.DashboardCacheSize,
	})
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		cancel()
	}()

	logger.Info("Starting finsight server", "port", cfg.Port, log.FieldBackend, cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

// newSource picks the dataset backend. The cleanup func releases whatever
// the source holds open.
func newSource(ctx context.Context, cfg *config.Config) (ingest.Source, func(), error) {
	switch cfg.DataBackend {
	case "sqlite":
		src, err := ingest.NewSQLiteSource(cfg.SQLiteDBPath)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { src.Close() }, nil
	case "sheets":
		src, err := ingest.NewSheetsFromEnv(ctx)
		if err != nil {
			return nil, nil, err
		}
		return src, func() {}, nil
	default:
		return ingest.NewDirSource(cfg.FixturesDir), func() {}, nil
	}
}
