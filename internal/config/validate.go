package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if len(c.Pipeline.Symbols) == 0 {
		return errors.New("pipeline.symbols is required")
	}
	if c.Pipeline.MaxRetries < 0 {
		return errors.New("pipeline.max_retries must be >= 0")
	}

	if !c.Sources.AlphaVantage.Enabled && !c.Sources.YahooFinance.Enabled {
		return errors.New("at least one source must be enabled")
	}
	if c.Sources.AlphaVantage.Enabled && c.Sources.AlphaVantage.APIKey == "" {
		return errors.New("sources.alpha_vantage.api_key is required when enabled")
	}

	if err := c.Database.validate("database"); err != nil {
		return err
	}

	switch c.Load.Mode {
	case "upsert", "append":
	default:
		return fmt.Errorf("load.mode must be \"upsert\" or \"append\", got %q", c.Load.Mode)
	}
	if c.Load.Mode == "upsert" && len(c.Load.KeyColumns) == 0 {
		return errors.New("load.key_columns is required for upsert mode")
	}
	if c.Load.BatchSize < 1 {
		return errors.New("load.batch_size must be >= 1")
	}

	if c.Validation.SpreadThresholdPct < 0 {
		return errors.New("validation.spread_threshold_pct must be >= 0")
	}
	if c.Validation.Freshness.Enabled && c.Validation.Freshness.MaxAgeDays < 1 {
		return errors.New("validation.freshness.max_age_days must be >= 1 when enabled")
	}

	if c.Archive.Enabled && c.Archive.Root == "" {
		return errors.New("archive.root is required when enabled")
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
