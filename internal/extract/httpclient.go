package extract

import (
	"context"
	"log/slog"
	"time"

	"resty.dev/v3"

	"github.com/quantfold/stocketl/internal/tabular"
)

const (
	defaultRetryCount       = 3
	defaultRetryWaitTime    = 1 * time.Second
	defaultRetryMaxWaitTime = 10 * time.Second
)

// Client fetches daily bars for a set of symbols from one provider.
type Client interface {
	// Source returns the provider identifier stamped into data_source.
	Source() string

	// FetchDaily fetches daily bars for every symbol and returns them
	// as one raw table.
	FetchDaily(ctx context.Context, symbols []string) (tabular.Table, error)
}

// newHTTPClient creates a resty client with retry logic and backoff.
func newHTTPClient(baseURL string, timeout time.Duration) *resty.Client {
	return resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout).
		SetRetryCount(defaultRetryCount).
		SetRetryWaitTime(defaultRetryWaitTime).
		SetRetryMaxWaitTime(defaultRetryMaxWaitTime).
		AddRetryConditions(retryCondition).
		AddRetryHooks(retryHook)
}

// retryCondition retries on network errors, 5xx, rate limits and
// request timeouts. Other client errors are permanent.
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r.StatusCode() >= 500 {
		return true
	}
	if r.StatusCode() == 429 || r.StatusCode() == 408 {
		return true
	}
	return false
}

func retryHook(r *resty.Response, err error) {
	if err != nil {
		slog.Debug("retrying request due to error",
			"url", r.Request.URL,
			"attempt", r.Request.Attempt,
			"error", err.Error())
		return
	}

	slog.Debug("retrying request due to status code",
		"url", r.Request.URL,
		"attempt", r.Request.Attempt,
		"status_code", r.StatusCode())
}

// pace sleeps between symbol requests, honoring context cancellation.
func pace(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
