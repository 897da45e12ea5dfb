package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Dataset backend selection
	DataBackend string

	// CSV fixtures
	FixturesDir string

	// Database
	SQLiteDBPath string

	// AMQP
	AMQPURL         string
	AMQPExchange    string
	AMQPQueryQueue  string
	AMQPAnswerQueue string

	// Google Sheets
	SheetsSpreadsheetID string

	// Dashboard cache
	DashboardCacheTTL  time.Duration
	DashboardCacheSize int
}

func Load() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		DataBackend: getEnv("DATA_BACKEND", "csv"),
		FixturesDir: getEnv("FIXTURES_DIR", "./fixtures"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/finsight.db"),

		AMQPURL:         getEnv("AMQP_URL", ""),
		AMQPExchange:    getEnv("AMQP_EXCHANGE", "finsight"),
		AMQPQueryQueue:  getEnv("AMQP_QUERY_QUEUE", "queries"),
		AMQPAnswerQueue: getEnv("AMQP_ANSWER_QUEUE", "answers"),

		SheetsSpreadsheetID: getEnv("SHEETS_SPREADSHEET_ID", ""),

		DashboardCacheTTL:  getEnvDuration("DASHBOARD_CACHE_TTL", 5*time.Minute),
		DashboardCacheSize: getEnvInt("DASHBOARD_CACHE_SIZE", 128),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch c.DataBackend {
	case "csv":
		if c.FixturesDir == "" {
			errs = append(errs, "fixtures directory cannot be empty when using csv backend")
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case "sheets":
		if c.SheetsSpreadsheetID == "" {
			errs = append(errs, "spreadsheet ID is required when using sheets backend")
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of [csv sqlite sheets]", c.DataBackend))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueryQueue == "" {
			errs = append(errs, "AMQP query queue name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPAnswerQueue == "" {
			errs = append(errs, "AMQP answer queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.DashboardCacheTTL <= 0 {
		errs = append(errs, "dashboard cache TTL must be positive")
	}
	if c.DashboardCacheSize < 1 {
		errs = append(errs, "dashboard cache size must be at least 1")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
