package normalize

import "fmt"

// SourceAlphaVantage and SourceYahooFinance are the feed identifiers the
// normalizer recognizes.
const (
	SourceAlphaVantage = "alpha_vantage"
	SourceYahooFinance = "yahoo_finance"
)

// sourceSpec describes how one feed's raw tables map onto the canonical
// record shape.
type sourceSpec struct {
	// aliases maps raw column names to canonical ones. Canonical names
	// map to themselves so pre-renamed tables also resolve.
	aliases map[string]string

	// dateLayouts are tried in order when parsing the date column.
	dateLayouts []string
}

func canonicalAliases() map[string]string {
	return map[string]string{
		"date":         "date",
		"symbol":       "symbol",
		"open":         "open",
		"high":         "high",
		"low":          "low",
		"close":        "close",
		"volume":       "volume",
		"data_source":  "data_source",
		"extracted_at": "extracted_at",
	}
}

var sourceSpecs = map[string]sourceSpec{
	SourceAlphaVantage: {
		aliases: mergeAliases(canonicalAliases(), map[string]string{
			"1. open":   "open",
			"2. high":   "high",
			"3. low":    "low",
			"4. close":  "close",
			"5. volume": "volume",
		}),
		dateLayouts: []string{"2006-01-02"},
	},
	SourceYahooFinance: {
		aliases: mergeAliases(canonicalAliases(), map[string]string{
			"Date":   "date",
			"Open":   "open",
			"High":   "high",
			"Low":    "low",
			"Close":  "close",
			"Volume": "volume",
		}),
		dateLayouts: []string{
			"2006-01-02",
			"2006-01-02 15:04:05-07:00",
			"2006-01-02T15:04:05Z07:00",
		},
	},
}

func mergeAliases(base, extra map[string]string) map[string]string {
	for k, v := range extra {
		base[k] = v
	}
	return base
}

// UnknownSourceError reports a source_id the normalizer has no mapping for.
type UnknownSourceError struct {
	Source string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown source: %s", e.Source)
}
