package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finsight/internal/amqp"
	"finsight/internal/config"
	"finsight/internal/ingest"
	"finsight/internal/log"
	"finsight/internal/metrics"
	"finsight/internal/query"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	cfg := log.DefaultConfig()
	cfg.Component = log.ComponentWorker
	logger := log.New(cfg)
	log.SetDefault(logger)

	logger.Info("Starting finsight-worker")

	conf := config.Load()
	if err := conf.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	if conf.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	loadCtx, loadCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer loadCancel()

	source, cleanup, err := newSource(loadCtx, conf)
	if err != nil {
		logger.Error("Failed to initialize data source", log.FieldError, err, log.FieldBackend, conf.DataBackend)
		os.Exit(1)
	}
	defer cleanup()

	dataset, err := source.Load(loadCtx)
	if err != nil {
		logger.Error("Failed to load dataset", log.FieldError, err, log.FieldBackend, conf.DataBackend)
		os.Exit(1)
	}

	copilot := query.New(metrics.NewEngine(dataset))
	logger.Info("Dataset loaded",
		log.FieldBackend, conf.DataBackend,
		"actual_rows", len(dataset.Actuals))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	handler := func(client *amqp.Client, msg *amqp.QueryMessage) error {
		answer := copilot.ProcessQuery(msg.Query)
		return client.PublishAnswer(ctx, amqp.NewAnswerMessage(msg.ID, msg.Query, answer))
	}

	err = amqp.ConsumeQueriesWithRetry(ctx,
		conf.AMQPURL, conf.AMQPExchange, conf.AMQPQueryQueue, conf.AMQPAnswerQueue, handler)
	if err != nil && err != context.Canceled {
		logger.Error("Worker stopped with error", log.FieldError, err)
		os.Exit(1)
	}

	logger.Info("Worker stopped gracefully")
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
