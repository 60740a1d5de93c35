package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		Port:               "8080",
		LogLevel:           "info",
		DataBackend:        "memory",
		ChartCacheSize:     16,
		ChartCacheTTL:      time.Minute,
		RateLimitPerMinute: 60,
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		wantErr     bool
		errorString string
	}{
		{
			name:    "valid memory backend with built-in sample",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range high",
			mutate:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "invalid log level",
			mutate:      func(c *Config) { c.LogLevel = "chatty" },
			wantErr:     true,
			errorString: "invalid log level 'chatty'",
		},
		{
			name:        "invalid backend",
			mutate:      func(c *Config) { c.DataBackend = "postgres" },
			wantErr:     true,
			errorString: "invalid data backend 'postgres'",
		},
		{
			name: "sheets backend missing spreadsheet",
			mutate: func(c *Config) {
				c.DataBackend = "sheets"
				c.GoogleSheetName = "LOA"
			},
			wantErr:     true,
			errorString: "Google Spreadsheet ID is required",
		},
		{
			name: "sheets backend complete",
			mutate: func(c *Config) {
				c.DataBackend = "sheets"
				c.GoogleSpreadsheetID = "abc"
				c.GoogleSheetName = "LOA"
			},
			wantErr: false,
		},
		{
			name: "xlsx backend without file",
			mutate: func(c *Config) {
				c.DataBackend = "xlsx"
				c.DataFile = ""
			},
			wantErr:     true,
			errorString: "DATA_FILE is required",
		},
		{
			name:        "cache size zero",
			mutate:      func(c *Config) { c.ChartCacheSize = 0 },
			wantErr:     true,
			errorString: "invalid chart cache size 0",
		},
		{
			name:        "cache ttl too short",
			mutate:      func(c *Config) { c.ChartCacheTTL = time.Millisecond },
			wantErr:     true,
			errorString: "invalid chart cache TTL",
		},
		{
			name:        "rate limit zero",
			mutate:      func(c *Config) { c.RateLimitPerMinute = 0 },
			wantErr:     true,
			errorString: "invalid rate limit 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				if err == nil {
					t.Errorf("Validate() expected error but got none")
					return
				}
				if tt.errorString != "" && !strings.Contains(err.Error(), tt.errorString) {
					t.Errorf("Validate() error = %v, want error containing %v", err, tt.errorString)
				}
			} else if err != nil {
				t.Errorf("Validate() unexpected error = %v", err)
			}
		})
	}
}

func TestConfig_ValidateWithFiles(t *testing.T) {
	tempDir := t.TempDir()
	dataFile := filepath.Join(tempDir, "loa.xlsx")
	if err := os.WriteFile(dataFile, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := validConfig()
	cfg.DataBackend = "xlsx"
	cfg.DataFile = dataFile
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected existing data file to validate, got %v", err)
	}

	cfg.DataFile = filepath.Join(tempDir, "missing.xlsx")
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "data file does not exist") {
		t.Errorf("expected missing data file error, got %v", err)
	}

	cfg = validConfig()
	cfg.SchemaFile = filepath.Join(tempDir, "missing.toml")
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "schema file does not exist") {
		t.Errorf("expected missing schema error, got %v", err)
	}

	cfg = validConfig()
	cfg.DataBackend = "sqlite"
	cfg.SQLiteDBPath = filepath.Join(tempDir, "nope", "loa.db")
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "directory does not exist") {
		t.Errorf("expected missing directory error, got %v", err)
	}
}

func TestConfig_ValidateAggregatesErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "abc"
	cfg.DataBackend = "nope"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if n := strings.Count(err.Error(), "\n- "); n != 2 {
		t.Errorf("expected 2 aggregated errors, got %d: %v", n, err)
	}
}

func TestLoad(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		for _, key := range []string{"PORT", "DATA_BACKEND", "CHART_CACHE_TTL", "FOOTER_TEXT", "LOG_LEVEL"} {
			t.Setenv(key, "")
		}
		cfg := Load()
		if cfg.Port != "8080" {
			t.Errorf("Port = %q, want 8080", cfg.Port)
		}
		if cfg.DataBackend != "xlsx" {
			t.Errorf("DataBackend = %q, want xlsx", cfg.DataBackend)
		}
		if cfg.ChartCacheTTL != 10*time.Minute {
			t.Errorf("ChartCacheTTL = %v", cfg.ChartCacheTTL)
		}
		if cfg.FooterText != DefaultFooter {
			t.Errorf("FooterText = %q", cfg.FooterText)
		}
	})

	t.Run("from environment", func(t *testing.T) {
		t.Setenv("PORT", "9090")
		t.Setenv("DATA_BACKEND", "sqlite")
		t.Setenv("SQLITE_DB_PATH", "/tmp/loa.db")
		t.Setenv("CHART_CACHE_SIZE", "32")
		t.Setenv("CHART_CACHE_TTL", "30s")
		t.Setenv("RATE_LIMIT_PER_MINUTE", "not-a-number")

		cfg := Load()
		if cfg.Port != "9090" || cfg.DataBackend != "sqlite" || cfg.SQLiteDBPath != "/tmp/loa.db" {
			t.Errorf("unexpected config: %+v", cfg)
		}
		if cfg.ChartCacheSize != 32 || cfg.ChartCacheTTL != 30*time.Second {
			t.Errorf("unexpected cache config: %d %v", cfg.ChartCacheSize, cfg.ChartCacheTTL)
		}
		if cfg.RateLimitPerMinute != 120 {
			t.Errorf("invalid int should fall back to default, got %d", cfg.RateLimitPerMinute)
		}
	})
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for in, want := range cases {
		got, err := ParseLogLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLogLevel(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseLogLevel("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}
