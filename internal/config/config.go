package config

import "time"

// Config is the root configuration for a pipeline instance.
type Config struct {
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Sources    SourcesConfig    `yaml:"sources"`
	Database   DBConfig         `yaml:"database"`
	Load       LoadConfig       `yaml:"load"`
	Validation ValidationConfig `yaml:"validation"`
	Archive    ArchiveConfig    `yaml:"archive"`
}

// PipelineConfig holds run-level settings.
type PipelineConfig struct {
	Name         string        `yaml:"name"`
	Symbols      []string      `yaml:"symbols"`
	Schedule     string        `yaml:"schedule"` // cron expression, empty disables scheduling
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// SourcesConfig holds per-provider extraction settings.
type SourcesConfig struct {
	AlphaVantage SourceConfig `yaml:"alpha_vantage"`
	YahooFinance SourceConfig `yaml:"yahoo_finance"`
}

// SourceConfig holds a single provider's extraction settings.
type SourceConfig struct {
	Enabled bool          `yaml:"enabled"`
	BaseURL string        `yaml:"base_url"`
	APIKey  string        `yaml:"api_key"`
	Timeout time.Duration `yaml:"timeout"`
	Pacing  time.Duration `yaml:"pacing"` // minimum delay between symbol requests
	Range   string        `yaml:"range"`  // provider-specific lookback, e.g. "1mo"
}

// DBConfig holds the warehouse database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// LoadConfig holds destination table and write-mode settings.
type LoadConfig struct {
	Mode         string   `yaml:"mode"` // "upsert" or "append"
	Table        string   `yaml:"table"`
	StagingTable string   `yaml:"staging_table"`
	KeyColumns   []string `yaml:"key_columns"`
	BatchSize    int      `yaml:"batch_size"`
}

// ValidationConfig holds reconciliation and quality-gate settings.
type ValidationConfig struct {
	SpreadThresholdPct float64         `yaml:"spread_threshold_pct"`
	Freshness          FreshnessConfig `yaml:"freshness"`
	SymbolCoverage     []string        `yaml:"symbol_coverage"`
}

// FreshnessConfig gates a run on the age of the newest record.
type FreshnessConfig struct {
	Enabled    bool `yaml:"enabled"`
	MaxAgeDays int  `yaml:"max_age_days"`
}

// ArchiveConfig holds the merged-snapshot archive settings.
type ArchiveConfig struct {
	Enabled bool   `yaml:"enabled"`
	Root    string `yaml:"root"`
}
