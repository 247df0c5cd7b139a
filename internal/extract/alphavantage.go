package extract

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"resty.dev/v3"

	"github.com/quantfold/stocketl/internal/config"
	"github.com/quantfold/stocketl/internal/model"
	"github.com/quantfold/stocketl/internal/tabular"
)

// dailySeriesResponse is the TIME_SERIES_DAILY payload shape.
type dailySeriesResponse struct {
	MetaData map[string]string   `json:"Meta Data"`
	Series   map[string]dailyBar `json:"Time Series (Daily)"`
	Note     string              `json:"Note"`
	Error    string              `json:"Error Message"`
}

type dailyBar struct {
	Open   string `json:"1. open"`
	High   string `json:"2. high"`
	Low    string `json:"3. low"`
	Close  string `json:"4. close"`
	Volume string `json:"5. volume"`
}

// AlphaVantageClient fetches daily bars from the Alpha Vantage API.
type AlphaVantageClient struct {
	apiKey string
	pacing time.Duration
	window int // trailing days to keep
	client *resty.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewAlphaVantage creates an Alpha Vantage client from config.
func NewAlphaVantage(cfg config.SourceConfig, logger *slog.Logger) *AlphaVantageClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &AlphaVantageClient{
		apiKey: cfg.APIKey,
		pacing: cfg.Pacing,
		window: lookbackDays(cfg.Range),
		client: newHTTPClient(cfg.BaseURL, cfg.Timeout),
		logger: logger,
		now:    time.Now,
	}
}

// Source implements Client.
func (c *AlphaVantageClient) Source() string {
	return "alpha_vantage"
}

// FetchDaily fetches the daily series for every symbol, pacing requests
// to stay inside the provider's rate limit.
func (c *AlphaVantageClient) FetchDaily(ctx context.Context, symbols []string) (tabular.Table, error) {
	extractedAt := c.now().UTC().Format(time.RFC3339)
	cutoff := model.DateOf(c.now().UTC()).AddDays(-c.window)

	t := tabular.Table{Columns: rawTableColumns()}
	for i, symbol := range symbols {
		if i > 0 {
			if err := pace(ctx, c.pacing); err != nil {
				return tabular.Table{}, err
			}
		}

		rows, err := c.fetchSymbol(ctx, symbol, cutoff, extractedAt)
		if err != nil {
			return tabular.Table{}, err
		}
		c.logger.Info("fetched daily series",
			"source", c.Source(),
			"symbol", symbol,
			"rows", len(rows))
		t.Rows = append(t.Rows, rows...)
	}
	return t, nil
}

func (c *AlphaVantageClient) fetchSymbol(ctx context.Context, symbol string, cutoff model.Date, extractedAt string) ([][]string, error) {
	var result dailySeriesResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"function":   "TIME_SERIES_DAILY",
			"symbol":     symbol,
			"outputsize": "compact",
			"apikey":     c.apiKey,
		}).
		SetResult(&result).
		Get("")
	if err != nil {
		return nil, fmt.Errorf("fetch daily series for %s: %w", symbol, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("alpha vantage returned status %d for %s", resp.StatusCode(), symbol)
	}
	if result.Error != "" {
		return nil, fmt.Errorf("alpha vantage error for %s: %s", symbol, result.Error)
	}
	if result.Note != "" {
		return nil, fmt.Errorf("alpha vantage rate limited for %s: %s", symbol, result.Note)
	}
	if len(result.Series) == 0 {
		return nil, fmt.Errorf("no daily series in response for %s", symbol)
	}

	dates := make([]string, 0, len(result.Series))
	for d := range result.Series {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	var rows [][]string
	for _, d := range dates {
		day, err := model.ParseDate(d)
		if err != nil {
			return nil, fmt.Errorf("parse series date %q for %s: %w", d, symbol, err)
		}
		if day.Before(cutoff) {
			continue
		}
		bar := result.Series[d]
		rows = append(rows, []string{
			d,
			symbol,
			bar.Open,
			bar.High,
			bar.Low,
			bar.Close,
			bar.Volume,
			c.Source(),
			extractedAt,
		})
	}
	return rows, nil
}

// rawTableColumns is the canonical raw-stage column order.
func rawTableColumns() []string {
	return []string{
		"date", "symbol", "open", "high", "low", "close", "volume",
		"data_source", "extracted_at",
	}
}

// lookbackDays converts a provider range string like "5d", "1mo" or
// "1y" into a trailing day count. Unknown values fall back to 30.
func lookbackDays(r string) int {
	switch r {
	case "1d":
		return 1
	case "5d":
		return 5
	case "1mo":
		return 30
	case "3mo":
		return 90
	case "6mo":
		return 180
	case "1y":
		return 365
	default:
		return 30
	}
}
