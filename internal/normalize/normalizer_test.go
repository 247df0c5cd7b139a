package normalize

import (
	"errors"
	"testing"
	"time"

	"github.com/quantfold/stocketl/internal/tabular"
)

func testNormalizer() *Normalizer {
	n := New(nil)
	n.now = func() time.Time { return time.Date(2023, 9, 15, 6, 0, 0, 0, time.UTC) }
	return n
}

func TestNormalize_UnknownSource(t *testing.T) {
	_, err := testNormalizer().Normalize(tabular.Table{}, "bloomberg")

	var uerr *UnknownSourceError
	if !errors.As(err, &uerr) {
		t.Fatalf("error = %v, want *UnknownSourceError", err)
	}
	if uerr.Source != "bloomberg" {
		t.Errorf("Source = %q, want bloomberg", uerr.Source)
	}
}

func TestNormalize_CanonicalHeaders(t *testing.T) {
	raw := tabular.Table{
		Columns: []string{"date", "symbol", "open", "high", "low", "close", "volume", "data_source", "extracted_at"},
		Rows: [][]string{
			{"2023-09-01", "AAPL", "180.00", "182.50", "179.10", "181.15", "50000000", "alpha_vantage", "2023-09-15T05:00:00Z"},
		},
	}

	records, err := testNormalizer().Normalize(raw, SourceAlphaVantage)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}

	r := records[0]
	if r.Date.String() != "2023-09-01" {
		t.Errorf("Date = %s, want 2023-09-01", r.Date)
	}
	if r.Symbol != "AAPL" {
		t.Errorf("Symbol = %q, want AAPL", r.Symbol)
	}
	if r.Close != 181.15 {
		t.Errorf("Close = %v, want 181.15", r.Close)
	}
	if r.Volume == nil || *r.Volume != 50000000 {
		t.Errorf("Volume = %v, want 50000000", r.Volume)
	}
	if r.DataSource != "alpha_vantage" {
		t.Errorf("DataSource = %q, want alpha_vantage", r.DataSource)
	}
	if r.IngestedAt != time.Date(2023, 9, 15, 5, 0, 0, 0, time.UTC) {
		t.Errorf("IngestedAt = %v", r.IngestedAt)
	}
	if r.ProcessedAt != time.Date(2023, 9, 15, 6, 0, 0, 0, time.UTC) {
		t.Errorf("ProcessedAt = %v", r.ProcessedAt)
	}
}

func TestNormalize_NativeAlphaVantageHeaders(t *testing.T) {
	raw := tabular.Table{
		Columns: []string{"date", "1. open", "2. high", "3. low", "4. close", "5. volume", "symbol"},
		Rows: [][]string{
			{"2023-09-01", "180", "182.5", "179.1", "181.15", "50000000", "AAPL"},
		},
	}

	records, err := testNormalizer().Normalize(raw, SourceAlphaVantage)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	r := records[0]
	if r.Open == nil || *r.Open != 180 {
		t.Errorf("Open = %v, want 180", r.Open)
	}
	if r.Close != 181.15 {
		t.Errorf("Close = %v, want 181.15", r.Close)
	}
	// data_source defaults to the source id when no column is present.
	if r.DataSource != "alpha_vantage" {
		t.Errorf("DataSource = %q, want alpha_vantage", r.DataSource)
	}
}

func TestNormalize_YahooHeadersAndDates(t *testing.T) {
	raw := tabular.Table{
		Columns: []string{"Date", "Open", "High", "Low", "Close", "Volume", "symbol"},
		Rows: [][]string{
			{"2023-09-01 00:00:00-04:00", "180", "182.5", "179.1", "181.15", "50000000", "AAPL"},
		},
	}

	records, err := testNormalizer().Normalize(raw, SourceYahooFinance)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if records[0].Date.String() != "2023-09-01" {
		t.Errorf("Date = %s, want 2023-09-01", records[0].Date)
	}
	if records[0].DataSource != "yahoo_finance" {
		t.Errorf("DataSource = %q, want yahoo_finance", records[0].DataSource)
	}
}

func TestNormalize_DerivedFields(t *testing.T) {
	raw := tabular.Table{
		Columns: []string{"date", "symbol", "open", "high", "low", "close", "volume"},
		Rows: [][]string{
			{"2023-09-01", "AAPL", "180.00", "183.60", "178.20", "181.15", "1000"},
		},
	}

	records, err := testNormalizer().Normalize(raw, SourceAlphaVantage)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	r := records[0]

	// (181.15-180)/180*100 = 0.63888... -> 0.64
	if r.DailyChangePct == nil || *r.DailyChangePct != 0.64 {
		t.Errorf("DailyChangePct = %v, want 0.64", r.DailyChangePct)
	}
	// (183.60-178.20)/180*100 = 3.0
	if r.DailyVolatility == nil || *r.DailyVolatility != 3.0 {
		t.Errorf("DailyVolatility = %v, want 3.0", r.DailyVolatility)
	}
}

func TestNormalize_DerivedFieldsNullWhenInputsMissing(t *testing.T) {
	raw := tabular.Table{
		Columns: []string{"date", "symbol", "open", "high", "low", "close", "volume"},
		Rows: [][]string{
			{"2023-09-01", "AAPL", "", "183.60", "178.20", "181.15", ""},
		},
	}

	records, err := testNormalizer().Normalize(raw, SourceAlphaVantage)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	r := records[0]

	if r.DailyChangePct != nil {
		t.Errorf("DailyChangePct = %v, want nil without open", *r.DailyChangePct)
	}
	if r.DailyVolatility != nil {
		t.Errorf("DailyVolatility = %v, want nil without open", *r.DailyVolatility)
	}
	// Null volume becomes 0, not nil.
	if r.Volume == nil || *r.Volume != 0 {
		t.Errorf("Volume = %v, want 0", r.Volume)
	}
}

func TestNormalize_SortedBySymbolThenDate(t *testing.T) {
	raw := tabular.Table{
		Columns: []string{"date", "symbol", "close"},
		Rows: [][]string{
			{"2023-09-02", "MSFT", "331"},
			{"2023-09-01", "MSFT", "330"},
			{"2023-09-02", "AAPL", "182"},
			{"2023-09-01", "AAPL", "181"},
		},
	}

	records, err := testNormalizer().Normalize(raw, SourceAlphaVantage)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	want := []string{"AAPL 2023-09-01", "AAPL 2023-09-02", "MSFT 2023-09-01", "MSFT 2023-09-02"}
	for i, r := range records {
		got := r.Symbol + " " + r.Date.String()
		if got != want[i] {
			t.Errorf("record %d = %q, want %q", i, got, want[i])
		}
	}
}

func TestNormalize_BadRowFails(t *testing.T) {
	tests := []struct {
		name string
		row  []string
	}{
		{"bad date", []string{"tomorrow", "AAPL", "181.15"}},
		{"missing symbol", []string{"2023-09-01", "", "181.15"}},
		{"missing close", []string{"2023-09-01", "AAPL", ""}},
		{"bad close", []string{"2023-09-01", "AAPL", "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := tabular.Table{
				Columns: []string{"date", "symbol", "close"},
				Rows:    [][]string{tt.row},
			}
			if _, err := testNormalizer().Normalize(raw, SourceAlphaVantage); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}
