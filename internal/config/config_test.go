package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	yaml := `
pipeline:
  name: test-etl
  symbols: [AAPL, GOOGL]
sources:
  alpha_vantage:
    enabled: true
    api_key: demo
  yahoo_finance:
    enabled: true
    range: 3mo
database:
  host: localhost
  port: 5432
  name: test_db
  user: testuser
  password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Pipeline.Name != "test-etl" {
		t.Errorf("Pipeline.Name = %q, want %q", cfg.Pipeline.Name, "test-etl")
	}
	if len(cfg.Pipeline.Symbols) != 2 || cfg.Pipeline.Symbols[0] != "AAPL" {
		t.Errorf("Pipeline.Symbols = %v, want [AAPL GOOGL]", cfg.Pipeline.Symbols)
	}
	if !cfg.Sources.AlphaVantage.Enabled {
		t.Error("Sources.AlphaVantage.Enabled = false, want true")
	}
	if cfg.Sources.YahooFinance.Range != "3mo" {
		t.Errorf("Sources.YahooFinance.Range = %q, want %q", cfg.Sources.YahooFinance.Range, "3mo")
	}
	if cfg.Database.Host != "localhost" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "localhost")
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_AV_KEY", "key123")
	t.Setenv("TEST_DB_PASSWORD", "secret123")

	yaml := `
pipeline:
  symbols: [AAPL]
sources:
  alpha_vantage:
    enabled: true
    api_key: ${TEST_AV_KEY}
database:
  host: localhost
  name: test_db
  user: testuser
  password: ${TEST_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Sources.AlphaVantage.APIKey != "key123" {
		t.Errorf("Sources.AlphaVantage.APIKey = %q, want %q", cfg.Sources.AlphaVantage.APIKey, "key123")
	}
	if cfg.Database.Password != "secret123" {
		t.Errorf("Database.Password = %q, want %q", cfg.Database.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
pipeline:
  symbols: [AAPL]
sources:
  yahoo_finance:
    enabled: true
database:
  host: localhost
  name: test_db
  user: testuser
  password: testpass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	// Check defaults were applied
	if cfg.Pipeline.Name != DefaultPipelineName {
		t.Errorf("Pipeline.Name = %q, want default %q", cfg.Pipeline.Name, DefaultPipelineName)
	}
	if cfg.Pipeline.RetryBackoff != DefaultRetryBackoff {
		t.Errorf("Pipeline.RetryBackoff = %v, want default %v", cfg.Pipeline.RetryBackoff, DefaultRetryBackoff)
	}
	if cfg.Sources.AlphaVantage.Pacing != DefaultAlphaVantagePacing {
		t.Errorf("Sources.AlphaVantage.Pacing = %v, want default %v", cfg.Sources.AlphaVantage.Pacing, DefaultAlphaVantagePacing)
	}
	if cfg.Sources.YahooFinance.Timeout != DefaultSourceTimeout {
		t.Errorf("Sources.YahooFinance.Timeout = %v, want default %v", cfg.Sources.YahooFinance.Timeout, DefaultSourceTimeout)
	}
	if cfg.Database.Port != DefaultDBPort {
		t.Errorf("Database.Port = %d, want default %d", cfg.Database.Port, DefaultDBPort)
	}
	if cfg.Database.MaxConns != DefaultMaxConns {
		t.Errorf("Database.MaxConns = %d, want default %d", cfg.Database.MaxConns, DefaultMaxConns)
	}
	if cfg.Load.Mode != DefaultLoadMode {
		t.Errorf("Load.Mode = %q, want default %q", cfg.Load.Mode, DefaultLoadMode)
	}
	if len(cfg.Load.KeyColumns) != 3 {
		t.Errorf("Load.KeyColumns = %v, want %v", cfg.Load.KeyColumns, DefaultKeyColumns)
	}
	if cfg.Validation.SpreadThresholdPct != DefaultSpreadThreshold {
		t.Errorf("Validation.SpreadThresholdPct = %v, want default %v", cfg.Validation.SpreadThresholdPct, DefaultSpreadThreshold)
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			Pipeline: PipelineConfig{Symbols: []string{"AAPL"}},
			Sources: SourcesConfig{
				YahooFinance: SourceConfig{Enabled: true},
			},
			Database: DBConfig{Host: "localhost", Name: "db", User: "user", Password: "pass", MaxConns: 10, MinConns: 2},
			Load: LoadConfig{
				Mode:       "upsert",
				Table:      "stocks",
				KeyColumns: []string{"date", "symbol", "data_source"},
				BatchSize:  1000,
			},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: "",
		},
		{
			name:    "missing symbols",
			mutate:  func(c *Config) { c.Pipeline.Symbols = nil },
			wantErr: "pipeline.symbols is required",
		},
		{
			name: "no source enabled",
			mutate: func(c *Config) {
				c.Sources.YahooFinance.Enabled = false
			},
			wantErr: "at least one source must be enabled",
		},
		{
			name: "alpha vantage without key",
			mutate: func(c *Config) {
				c.Sources.AlphaVantage.Enabled = true
			},
			wantErr: "sources.alpha_vantage.api_key is required when enabled",
		},
		{
			name:    "missing database host",
			mutate:  func(c *Config) { c.Database.Host = "" },
			wantErr: "database.host is required",
		},
		{
			name:    "missing database password",
			mutate:  func(c *Config) { c.Database.Password = "" },
			wantErr: "database.password is required",
		},
		{
			name: "min_conns exceeds max_conns",
			mutate: func(c *Config) {
				c.Database.MinConns = 20
			},
			wantErr: "database.min_conns (20) cannot exceed max_conns (10)",
		},
		{
			name:    "bad load mode",
			mutate:  func(c *Config) { c.Load.Mode = "replace" },
			wantErr: `load.mode must be "upsert" or "append", got "replace"`,
		},
		{
			name: "upsert without key columns",
			mutate: func(c *Config) {
				c.Load.KeyColumns = nil
			},
			wantErr: "load.key_columns is required for upsert mode",
		},
		{
			name: "freshness enabled without max age",
			mutate: func(c *Config) {
				c.Validation.Freshness.Enabled = true
			},
			wantErr: "validation.freshness.max_age_days must be >= 1 when enabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
			} else {
				if err == nil {
					t.Errorf("Validate() expected error containing %q, got nil", tt.wantErr)
				} else if err.Error() != tt.wantErr {
					t.Errorf("Validate() error = %q, want %q", err.Error(), tt.wantErr)
				}
			}
		})
	}
}

func TestLoadAndValidateRejectsInvalid(t *testing.T) {
	yaml := `
pipeline:
  symbols: [AAPL]
database:
  host: localhost
  name: test_db
  user: testuser
  password: testpass
`
	path := writeTempFile(t, yaml)

	if _, err := LoadAndValidate(path); err == nil {
		t.Error("LoadAndValidate() expected error for config with no enabled sources, got nil")
	}
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
