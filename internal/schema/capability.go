package schema

import (
	"sort"
	"strings"
	"time"

	"github.com/quantfold/stocketl/internal/model"
	"github.com/quantfold/stocketl/internal/tabular"
)

// Validator is a named data-quality contract with one operation. Variants
// are selected by configuration, not by passing code values across
// component boundaries.
type Validator interface {
	Validate(t tabular.Table) Report
}

// ValidatorFunc is a function adapter for Validator.
type ValidatorFunc func(tabular.Table) Report

func (f ValidatorFunc) Validate(t tabular.Table) Report {
	return f(t)
}

// AsError converts a failed report into a *ViolationError of the given
// kind. A passed report yields nil.
func AsError(rep Report, kind Kind) error {
	if rep.Passed {
		return nil
	}
	return &ViolationError{Kind: kind, Report: rep}
}

// Freshness returns a validator that fails when the newest date in the
// table is older than maxAgeDays before today.
func Freshness(maxAgeDays int) Validator {
	return freshness(maxAgeDays, time.Now)
}

func freshness(maxAgeDays int, now func() time.Time) Validator {
	return ValidatorFunc(func(t tabular.Table) Report {
		rep := newReport()

		idx := t.ColumnIndex("date")
		if idx < 0 {
			rep.fail("date column missing")
			return rep
		}

		var newest model.Date
		for _, row := range t.Rows {
			if idx >= len(row) || row[idx] == "" {
				continue
			}
			d, err := model.ParseDate(row[idx])
			if err != nil {
				rep.fail("unparseable date %q", row[idx])
				return rep
			}
			if newest.IsZero() || d.After(newest) {
				newest = d
			}
		}
		if newest.IsZero() {
			rep.fail("no dates found")
			return rep
		}

		today := model.DateOf(now())
		cutoff := today.AddDays(-maxAgeDays)

		rep.Metrics["newest_date"] = newest.String()
		rep.Metrics["cutoff_date"] = cutoff.String()
		rep.Metrics["days_behind"] = int(today.Time().Sub(newest.Time()).Hours() / 24)

		if newest.Before(cutoff) {
			rep.fail("data is too old: newest date is %s, should be at least %s", newest, cutoff)
		}
		return rep
	})
}

// SymbolCoverage returns a validator that fails when any required symbol
// is absent from the table. Unexpected extra symbols are a warning.
func SymbolCoverage(required []string) Validator {
	return ValidatorFunc(func(t tabular.Table) Report {
		rep := newReport()

		idx := t.ColumnIndex("symbol")
		if idx < 0 {
			rep.fail("symbol column missing")
			return rep
		}

		actual := map[string]bool{}
		for _, row := range t.Rows {
			if idx < len(row) && row[idx] != "" {
				actual[row[idx]] = true
			}
		}

		var missing, extra []string
		for _, s := range required {
			if !actual[s] {
				missing = append(missing, s)
			}
		}
		for s := range actual {
			if !contains(required, s) {
				extra = append(extra, s)
			}
		}
		sort.Strings(missing)
		sort.Strings(extra)

		rep.Metrics["actual_symbol_count"] = len(actual)
		rep.Metrics["required_symbol_count"] = len(required)
		rep.Metrics["missing_symbols"] = missing

		if len(missing) > 0 {
			rep.fail("missing %d required symbols: %s", len(missing), strings.Join(missing, ", "))
			return rep
		}
		if len(extra) > 0 {
			rep.warn("found %d unexpected symbols: %s", len(extra), strings.Join(extra, ", "))
		}
		return rep
	})
}
