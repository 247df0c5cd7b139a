package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"resty.dev/v3"

	"github.com/quantfold/stocketl/internal/config"
	"github.com/quantfold/stocketl/internal/model"
	"github.com/quantfold/stocketl/internal/tabular"
)

// chartResponse is the Yahoo Finance chart API payload shape.
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Timestamps []int64 `json:"timestamp"`
	Indicators struct {
		Quote []chartQuote `json:"quote"`
	} `json:"indicators"`
}

// chartQuote holds parallel per-day arrays. Entries are nullable, a
// null marks a day the exchange reported no value.
type chartQuote struct {
	Open   []*float64 `json:"open"`
	High   []*float64 `json:"high"`
	Low    []*float64 `json:"low"`
	Close  []*float64 `json:"close"`
	Volume []*int64   `json:"volume"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// YahooFinanceClient fetches daily bars from the Yahoo Finance chart API.
type YahooFinanceClient struct {
	lookback string
	pacing   time.Duration
	client   *resty.Client
	logger   *slog.Logger
	now      func() time.Time
}

// NewYahooFinance creates a Yahoo Finance client from config.
func NewYahooFinance(cfg config.SourceConfig, logger *slog.Logger) *YahooFinanceClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &YahooFinanceClient{
		lookback: cfg.Range,
		pacing:   cfg.Pacing,
		client:   newHTTPClient(cfg.BaseURL, cfg.Timeout),
		logger:   logger,
		now:      time.Now,
	}
}

// Source implements Client.
func (c *YahooFinanceClient) Source() string {
	return "yahoo_finance"
}

// FetchDaily fetches the daily chart for every symbol.
func (c *YahooFinanceClient) FetchDaily(ctx context.Context, symbols []string) (tabular.Table, error) {
	extractedAt := c.now().UTC().Format(time.RFC3339)

	t := tabular.Table{Columns: rawTableColumns()}
	for i, symbol := range symbols {
		if i > 0 {
			if err := pace(ctx, c.pacing); err != nil {
				return tabular.Table{}, err
			}
		}

		rows, err := c.fetchSymbol(ctx, symbol, extractedAt)
		if err != nil {
			return tabular.Table{}, err
		}
		c.logger.Info("fetched daily chart",
			"source", c.Source(),
			"symbol", symbol,
			"rows", len(rows))
		t.Rows = append(t.Rows, rows...)
	}
	return t, nil
}

func (c *YahooFinanceClient) fetchSymbol(ctx context.Context, symbol, extractedAt string) ([][]string, error) {
	var result chartResponse

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("symbol", symbol).
		SetQueryParams(map[string]string{
			"range":    c.lookback,
			"interval": "1d",
		}).
		SetResult(&result).
		Get("/{symbol}")
	if err != nil {
		return nil, fmt.Errorf("fetch daily chart for %s: %w", symbol, err)
	}
	if !resp.IsSuccess() {
		return nil, fmt.Errorf("yahoo finance returned status %d for %s", resp.StatusCode(), symbol)
	}
	if result.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo finance error for %s: %s", symbol, result.Chart.Error.Description)
	}
	if len(result.Chart.Result) == 0 {
		return nil, fmt.Errorf("no chart result in response for %s", symbol)
	}

	chart := result.Chart.Result[0]
	if len(chart.Indicators.Quote) == 0 {
		return nil, fmt.Errorf("no quote data in response for %s", symbol)
	}
	quote := chart.Indicators.Quote[0]

	rows := make([][]string, 0, len(chart.Timestamps))
	for i, ts := range chart.Timestamps {
		// Days the exchange has no close for are gaps, not records.
		if priceAt(quote.Close, i) == nil {
			continue
		}
		rows = append(rows, []string{
			model.DateOf(time.Unix(ts, 0).UTC()).String(),
			symbol,
			formatPrice(priceAt(quote.Open, i)),
			formatPrice(priceAt(quote.High, i)),
			formatPrice(priceAt(quote.Low, i)),
			formatPrice(priceAt(quote.Close, i)),
			formatVolume(quote.Volume, i),
			c.Source(),
			extractedAt,
		})
	}
	return rows, nil
}

func priceAt(vals []*float64, i int) *float64 {
	if i >= len(vals) {
		return nil
	}
	return vals[i]
}

func formatPrice(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatVolume(vals []*int64, i int) string {
	if i >= len(vals) || vals[i] == nil {
		return ""
	}
	return strconv.FormatInt(*vals[i], 10)
}
