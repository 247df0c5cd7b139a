package schema

import "strings"

// Kind classifies a hard validation failure.
type Kind int

const (
	// KindSchema covers structural violations: empty table, missing or
	// null required columns, wrong column types.
	KindSchema Kind = iota

	// KindBusinessRule covers rule violations on structurally valid data:
	// negative prices, future dates, stale data, missing symbol coverage.
	KindBusinessRule
)

func (k Kind) String() string {
	switch k {
	case KindSchema:
		return "schema violation"
	case KindBusinessRule:
		return "business rule violation"
	default:
		return "validation failure"
	}
}

// ViolationError is returned on a hard validation failure. It carries the
// accumulated report so callers can log full context.
type ViolationError struct {
	Kind   Kind
	Report Report
}

func (e *ViolationError) Error() string {
	if len(e.Report.Errors) == 0 {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + strings.Join(e.Report.Errors, "; ")
}
