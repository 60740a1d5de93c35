package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const DefaultFooter = "As porcentagens representam a relação entre investimento e orçamento de cada órgão, por ano. " +
	"Documentos fonte: LOA 2025 e LOA 2026."

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// Backend selection
	DataBackend string

	// Local workbook (xlsx backend) or CSV seed (memory backend)
	DataFile  string
	DataSheet string

	// Database
	SQLiteDBPath string

	// Google Sheets
	GoogleSpreadsheetID string
	GoogleSheetName     string

	// Column headers and metric labels
	SchemaFile string

	// Rendered chart cache
	ChartCacheSize int
	ChartCacheTTL  time.Duration

	RateLimitPerMinute int

	FooterText string
}

// Backends lists the accepted DATA_BACKEND values.
var Backends = []string{"xlsx", "sheets", "sqlite", "memory"}

// Load reads the configuration from the environment. The memory backend
// defaults to the built-in sample, the others to the local workbook.
func Load() *Config {
	backend := getEnv("DATA_BACKEND", "xlsx")
	dataFile := "./data/LOA 25 - 26.xlsx"
	if backend == "memory" {
		dataFile = ""
	}

	cfg := &Config{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DataBackend: backend,
		DataFile:    getEnv("DATA_FILE", dataFile),
		DataSheet:   getEnv("DATA_SHEET", ""),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/loadash.db"),

		GoogleSpreadsheetID: getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:     getEnv("GOOGLE_SHEET_NAME", ""),

		SchemaFile: getEnv("SCHEMA_FILE", ""),

		ChartCacheSize: getEnvInt("CHART_CACHE_SIZE", 256),
		ChartCacheTTL:  getEnvDuration("CHART_CACHE_TTL", 10*time.Minute),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),

		FooterText: getEnv("FOOTER_TEXT", DefaultFooter),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	// Validate data backend
	isValidBackend := false
	for _, backend := range Backends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, Backends))
	}

	switch c.DataBackend {
	case "xlsx":
		if strings.TrimSpace(c.DataFile) == "" {
			errors = append(errors, "DATA_FILE is required when using xlsx backend")
		} else if _, err := os.Stat(c.DataFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("data file does not exist: %s", c.DataFile))
		}
	case "memory":
		// An empty DATA_FILE serves the built-in sample.
		if c.DataFile != "" {
			if _, err := os.Stat(c.DataFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("seed file does not exist: %s", c.DataFile))
			}
		}
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("SQLite database directory does not exist: %s", dir))
			}
		}
	case "sheets":
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets backend")
		}
	}

	if c.SchemaFile != "" {
		if _, err := os.Stat(c.SchemaFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("schema file does not exist: %s", c.SchemaFile))
		}
	}

	if c.ChartCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid chart cache size %d: must be at least 1", c.ChartCacheSize))
	}
	if c.ChartCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid chart cache TTL %v: must be at least 1 second", c.ChartCacheTTL))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// ParseLogLevel maps debug|info|warn|error to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s': must be debug, info, warn or error", s)
	}
	return level, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
