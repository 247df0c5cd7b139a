package schema

import (
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/quantfold/stocketl/internal/model"
	"github.com/quantfold/stocketl/internal/tabular"
)

// requiredColumns must be present in every table regardless of contract.
var requiredColumns = []string{"date", "symbol", "close", "data_source"}

// Thresholds for soft data-quality warnings.
const (
	maxReasonablePrice  = 10000
	maxReasonableVolume = 1_000_000_000
	maxAgeWarning       = 365 // days
	highVolatilityPct   = 20
)

// SchemaValidator checks tables against named schema contracts and the
// generic business rules.
type SchemaValidator struct {
	contracts      map[string]Contract
	allowedSources []string
	logger         *slog.Logger
	now            func() time.Time
}

// NewValidator creates a SchemaValidator with the default contract registry.
// allowedSources is the run's configured feed identifiers; when non-empty,
// rows with any other data_source are a hard failure.
func NewValidator(allowedSources []string, logger *slog.Logger) *SchemaValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &SchemaValidator{
		contracts:      defaultContracts(),
		allowedSources: allowedSources,
		logger:         logger,
		now:            time.Now,
	}
}

// Validate checks the table against the named contract plus the generic
// business rules. An unrecognized contractID runs only the business rules;
// that is a deliberately permissive fallback.
//
// A hard failure returns the accumulated report and a *ViolationError.
// Soft issues only add warnings. Validation has no side effects; callers
// decide whether to abort.
func (v *SchemaValidator) Validate(t tabular.Table, contractID string) (Report, error) {
	rep := newReport()

	if t.Empty() {
		rep.fail("table is empty")
		return rep, &ViolationError{Kind: KindSchema, Report: rep}
	}

	var missing []string
	for _, c := range requiredColumns {
		if t.ColumnIndex(c) < 0 {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		rep.fail("missing required columns: %s", strings.Join(missing, ", "))
		return rep, &ViolationError{Kind: KindSchema, Report: rep}
	}

	contract, known := v.contracts[contractID]
	if known {
		if v.checkContract(t, contract, &rep); !rep.Passed {
			return rep, &ViolationError{Kind: KindSchema, Report: rep}
		}
	} else {
		v.logger.Debug("no schema contract registered, running business checks only",
			"contract_id", contractID,
		)
	}

	dates := v.checkBusinessRules(t, &rep)
	if !rep.Passed {
		return rep, &ViolationError{Kind: KindBusinessRule, Report: rep}
	}

	v.collectMetrics(t, dates, &rep)
	v.collectWarnings(t, contract, known, dates, &rep)

	return rep, nil
}

// checkContract enforces column presence, nullability, and primitive types.
func (v *SchemaValidator) checkContract(t tabular.Table, c Contract, rep *Report) {
	for _, col := range c.Columns {
		idx := t.ColumnIndex(col.Name)
		if idx < 0 {
			rep.fail("contract %s: missing column %q", c.ID, col.Name)
			continue
		}

		nulls := 0
		typeErrs := 0
		for _, row := range t.Rows {
			if idx >= len(row) || row[idx] == "" {
				nulls++
				continue
			}
			if !cellMatchesType(row[idx], col.Type) {
				typeErrs++
			}
		}

		if col.Required && nulls > 0 {
			rep.fail("contract %s: column %q has %d null values but is required", c.ID, col.Name, nulls)
		}
		if typeErrs > 0 {
			rep.fail("contract %s: column %q has %d values of the wrong type", c.ID, col.Name, typeErrs)
		}
	}
}

// checkBusinessRules runs the contract-independent rules: no negative close,
// no future date, data_source within the configured set. It returns parsed
// dates for reuse by metrics and warnings.
func (v *SchemaValidator) checkBusinessRules(t tabular.Table, rep *Report) []model.Date {
	closeIdx := t.ColumnIndex("close")
	negative := 0
	for _, row := range t.Rows {
		if closeIdx >= len(row) || row[closeIdx] == "" {
			continue
		}
		if f, err := strconv.ParseFloat(row[closeIdx], 64); err == nil && f < 0 {
			negative++
		}
	}
	if negative > 0 {
		rep.fail("found %d negative close prices", negative)
		return nil
	}

	today := model.DateOf(v.now())
	dateIdx := t.ColumnIndex("date")
	dates := make([]model.Date, 0, len(t.Rows))
	future := 0
	for _, row := range t.Rows {
		if dateIdx >= len(row) || row[dateIdx] == "" {
			continue
		}
		d, err := model.ParseDate(row[dateIdx])
		if err != nil {
			continue // unparseable dates are caught by the contract type check
		}
		dates = append(dates, d)
		if d.After(today) {
			future++
		}
	}
	if future > 0 {
		rep.fail("found %d records with future dates", future)
		return nil
	}

	if len(v.allowedSources) > 0 {
		srcIdx := t.ColumnIndex("data_source")
		unknown := map[string]bool{}
		for _, row := range t.Rows {
			if srcIdx >= len(row) {
				continue
			}
			src := row[srcIdx]
			if src != "" && !contains(v.allowedSources, src) {
				unknown[src] = true
			}
		}
		if len(unknown) > 0 {
			rep.fail("found rows from unconfigured sources: %s", strings.Join(sortedKeys(unknown), ", "))
			return nil
		}
	}

	return dates
}

// collectMetrics records row count, distinct symbols, date range, and
// per-column null counts.
func (v *SchemaValidator) collectMetrics(t tabular.Table, dates []model.Date, rep *Report) {
	rep.Metrics["record_count"] = len(t.Rows)

	symIdx := t.ColumnIndex("symbol")
	symbols := map[string]bool{}
	for _, row := range t.Rows {
		if symIdx < len(row) && row[symIdx] != "" {
			symbols[row[symIdx]] = true
		}
	}
	rep.Metrics["symbol_count"] = len(symbols)

	if len(dates) > 0 {
		minDate, maxDate := dates[0], dates[0]
		for _, d := range dates[1:] {
			if d.Before(minDate) {
				minDate = d
			}
			if d.After(maxDate) {
				maxDate = d
			}
		}
		rep.Metrics["date_range"] = []string{minDate.String(), maxDate.String()}
	}

	nulls := map[string]int{}
	for i, col := range t.Columns {
		n := 0
		for _, row := range t.Rows {
			if i >= len(row) || row[i] == "" {
				n++
			}
		}
		nulls[col] = n
	}
	rep.Metrics["missing_values"] = nulls
}

// collectWarnings records the soft data-quality issues.
func (v *SchemaValidator) collectWarnings(t tabular.Table, c Contract, known bool, dates []model.Date, rep *Report) {
	// Stale history.
	if len(dates) > 0 {
		oldest := dates[0]
		for _, d := range dates[1:] {
			if d.Before(oldest) {
				oldest = d
			}
		}
		if oldest.Before(model.DateOf(v.now()).AddDays(-maxAgeWarning)) {
			rep.warn("data contains records older than one year")
		}
	}

	// Duplicate keys. Raw tables dedup on (date, symbol); the transformed
	// table on the full business key.
	dupCols := []string{"date", "symbol"}
	if known && c.ID == ContractTransformed {
		dupCols = []string{"date", "symbol", "data_source"}
	}
	if dup := countDuplicates(t, dupCols); dup > 0 {
		rep.warn("found %d duplicate records", dup)
	}

	if !known || c.ID != ContractTransformed {
		return
	}

	// Suspicious values on the transformed table.
	maxClose := columnMax(t, "close")
	if maxClose > maxReasonablePrice {
		rep.warn("found unusually high price: %g", maxClose)
	}
	maxVolume := columnMax(t, "volume")
	if maxVolume > maxReasonableVolume {
		rep.warn("found unusually high volume: %g", maxVolume)
	}
	if n := countAbove(t, "daily_volatility", highVolatilityPct); n > 0 {
		rep.warn("found %d records with high volatility (>%d%%)", n, highVolatilityPct)
	}
}

func cellMatchesType(value string, t ColumnType) bool {
	switch t {
	case TypeFloat:
		_, err := strconv.ParseFloat(value, 64)
		return err == nil
	case TypeInt:
		// Accept integral floats ("1234.0") because upstream CSV encoders
		// widen integer columns containing nulls.
		f, err := strconv.ParseFloat(value, 64)
		return err == nil && f == math.Trunc(f)
	case TypeDate:
		_, err := model.ParseDate(value)
		return err == nil
	case TypeTimestamp:
		return parseableTimestamp(value)
	default:
		return true
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func parseableTimestamp(value string) bool {
	for _, layout := range timestampLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}

func countDuplicates(t tabular.Table, columns []string) int {
	idx := make([]int, 0, len(columns))
	for _, c := range columns {
		i := t.ColumnIndex(c)
		if i < 0 {
			return 0
		}
		idx = append(idx, i)
	}

	seen := map[string]bool{}
	dup := 0
	for _, row := range t.Rows {
		parts := make([]string, len(idx))
		for j, i := range idx {
			if i < len(row) {
				parts[j] = row[i]
			}
		}
		key := strings.Join(parts, "\x1f")
		if seen[key] {
			dup++
		}
		seen[key] = true
	}
	return dup
}

func columnMax(t tabular.Table, column string) float64 {
	i := t.ColumnIndex(column)
	if i < 0 {
		return 0
	}
	max := math.Inf(-1)
	found := false
	for _, row := range t.Rows {
		if i >= len(row) || row[i] == "" {
			continue
		}
		if f, err := strconv.ParseFloat(row[i], 64); err == nil {
			found = true
			if f > max {
				max = f
			}
		}
	}
	if !found {
		return 0
	}
	return max
}

func countAbove(t tabular.Table, column string, threshold float64) int {
	i := t.ColumnIndex(column)
	if i < 0 {
		return 0
	}
	n := 0
	for _, row := range t.Rows {
		if i >= len(row) || row[i] == "" {
			continue
		}
		if f, err := strconv.ParseFloat(row[i], 64); err == nil && f > threshold {
			n++
		}
	}
	return n
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
