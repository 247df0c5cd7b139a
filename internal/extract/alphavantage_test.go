package extract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/quantfold/stocketl/internal/config"
)

var fixedExtractTime = time.Date(2023, 9, 15, 12, 0, 0, 0, time.UTC)

func alphaVantageServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("function"); got != "TIME_SERIES_DAILY" {
			t.Errorf("function = %q, want TIME_SERIES_DAILY", got)
		}
		if got := r.URL.Query().Get("apikey"); got != "test_key" {
			t.Errorf("apikey = %q, want test_key", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	})
	return httptest.NewServer(handler)
}

func newTestAlphaVantage(baseURL string) *AlphaVantageClient {
	c := NewAlphaVantage(config.SourceConfig{
		BaseURL: baseURL,
		APIKey:  "test_key",
		Timeout: 5 * time.Second,
		Range:   "1mo",
	}, nil)
	c.now = func() time.Time { return fixedExtractTime }
	return c
}

func TestAlphaVantageFetchDaily(t *testing.T) {
	server := alphaVantageServer(t, `{
		"Meta Data": {"2. Symbol": "AAPL"},
		"Time Series (Daily)": {
			"2023-09-14": {"1. open": "174.5", "2. high": "176.1", "3. low": "173.9", "4. close": "175.25", "5. volume": "50000000"},
			"2023-09-13": {"1. open": "172.0", "2. high": "174.8", "3. low": "171.5", "4. close": "174.2", "5. volume": "48000000"}
		}
	}`, http.StatusOK)
	defer server.Close()

	client := newTestAlphaVantage(server.URL)

	got, err := client.FetchDaily(context.Background(), []string{"AAPL"})
	if err != nil {
		t.Fatalf("FetchDaily failed: %v", err)
	}

	if len(got.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(got.Rows))
	}
	// Rows arrive date-ascending.
	first := got.Rows[0]
	want := []string{"2023-09-13", "AAPL", "172.0", "174.8", "171.5", "174.2", "48000000", "alpha_vantage", "2023-09-15T12:00:00Z"}
	for i, cell := range want {
		if first[i] != cell {
			t.Errorf("Rows[0][%d] = %q, want %q", i, first[i], cell)
		}
	}
}

func TestAlphaVantageFetchDailyDropsStaleBars(t *testing.T) {
	server := alphaVantageServer(t, `{
		"Time Series (Daily)": {
			"2023-09-14": {"1. open": "174.5", "2. high": "176.1", "3. low": "173.9", "4. close": "175.25", "5. volume": "50000000"},
			"2023-06-01": {"1. open": "150.0", "2. high": "151.0", "3. low": "149.0", "4. close": "150.5", "5. volume": "40000000"}
		}
	}`, http.StatusOK)
	defer server.Close()

	client := newTestAlphaVantage(server.URL)

	got, err := client.FetchDaily(context.Background(), []string{"AAPL"})
	if err != nil {
		t.Fatalf("FetchDaily failed: %v", err)
	}
	if len(got.Rows) != 1 {
		t.Fatalf("len(Rows) = %d, want 1 (bar outside lookback dropped)", len(got.Rows))
	}
	if got.Rows[0][0] != "2023-09-14" {
		t.Errorf("Rows[0] date = %q, want %q", got.Rows[0][0], "2023-09-14")
	}
}

func TestAlphaVantageFetchDailyRateLimited(t *testing.T) {
	server := alphaVantageServer(t, `{"Note": "Thank you for using Alpha Vantage! Our standard API rate limit is 25 requests per day."}`, http.StatusOK)
	defer server.Close()

	client := newTestAlphaVantage(server.URL)

	if _, err := client.FetchDaily(context.Background(), []string{"AAPL"}); err == nil {
		t.Error("FetchDaily() expected error for rate-limit note, got nil")
	}
}

func TestAlphaVantageFetchDailyErrorMessage(t *testing.T) {
	server := alphaVantageServer(t, `{"Error Message": "Invalid API call."}`, http.StatusOK)
	defer server.Close()

	client := newTestAlphaVantage(server.URL)

	if _, err := client.FetchDaily(context.Background(), []string{"BADSYM"}); err == nil {
		t.Error("FetchDaily() expected error for provider error message, got nil")
	}
}

func TestLookbackDays(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"1d", 1},
		{"5d", 5},
		{"1mo", 30},
		{"3mo", 90},
		{"1y", 365},
		{"bogus", 30},
	}

	for _, tt := range tests {
		if got := lookbackDays(tt.in); got != tt.want {
			t.Errorf("lookbackDays(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
