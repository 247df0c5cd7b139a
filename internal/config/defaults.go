package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultPipelineName       = "stock-etl"
	DefaultMaxRetries         = 2
	DefaultRetryBackoff       = 30 * time.Second
	DefaultAlphaVantageURL    = "https://www.alphavantage.co/query"
	DefaultYahooFinanceURL    = "https://query1.finance.yahoo.com/v8/finance/chart"
	DefaultSourceTimeout      = 30 * time.Second
	DefaultAlphaVantagePacing = 12 * time.Second
	DefaultSourceRange        = "1mo"
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
	DefaultLoadMode           = "upsert"
	DefaultTable              = "stocks"
	DefaultStagingTable       = "stocks_staging"
	DefaultBatchSize          = 1000
	DefaultSpreadThreshold    = 5.0
	DefaultFreshnessMaxAge    = 3
	DefaultArchiveRoot        = "archive"
)

// DefaultKeyColumns is the business key used for conditional merges.
var DefaultKeyColumns = []string{"date", "symbol", "data_source"}

func (c *Config) applyDefaults() {
	// Pipeline defaults
	if c.Pipeline.Name == "" {
		c.Pipeline.Name = DefaultPipelineName
	}
	if c.Pipeline.MaxRetries == 0 {
		c.Pipeline.MaxRetries = DefaultMaxRetries
	}
	if c.Pipeline.RetryBackoff == 0 {
		c.Pipeline.RetryBackoff = DefaultRetryBackoff
	}

	// Source defaults
	applySourceDefaults(&c.Sources.AlphaVantage, DefaultAlphaVantageURL, DefaultAlphaVantagePacing)
	applySourceDefaults(&c.Sources.YahooFinance, DefaultYahooFinanceURL, 0)

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Load defaults
	if c.Load.Mode == "" {
		c.Load.Mode = DefaultLoadMode
	}
	if c.Load.Table == "" {
		c.Load.Table = DefaultTable
	}
	if c.Load.StagingTable == "" {
		c.Load.StagingTable = DefaultStagingTable
	}
	if len(c.Load.KeyColumns) == 0 {
		c.Load.KeyColumns = append([]string(nil), DefaultKeyColumns...)
	}
	if c.Load.BatchSize == 0 {
		c.Load.BatchSize = DefaultBatchSize
	}

	// Validation defaults
	if c.Validation.SpreadThresholdPct == 0 {
		c.Validation.SpreadThresholdPct = DefaultSpreadThreshold
	}
	if c.Validation.Freshness.MaxAgeDays == 0 {
		c.Validation.Freshness.MaxAgeDays = DefaultFreshnessMaxAge
	}

	// Archive defaults
	if c.Archive.Root == "" {
		c.Archive.Root = DefaultArchiveRoot
	}
}

func applySourceDefaults(src *SourceConfig, baseURL string, pacing time.Duration) {
	if src.BaseURL == "" {
		src.BaseURL = baseURL
	}
	if src.Timeout == 0 {
		src.Timeout = DefaultSourceTimeout
	}
	if src.Pacing == 0 {
		src.Pacing = pacing
	}
	if src.Range == "" {
		src.Range = DefaultSourceRange
	}
}
