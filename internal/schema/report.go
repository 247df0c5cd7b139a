package schema

import "fmt"

// Report is the result of one validation pass. It is the only contract
// downstream consumers (orchestrator, quality dashboards) depend on.
type Report struct {
	Passed   bool
	Errors   []string
	Warnings []string
	Metrics  map[string]any
}

func newReport() Report {
	return Report{Passed: true, Metrics: map[string]any{}}
}

func (r *Report) fail(format string, args ...any) {
	r.Passed = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *Report) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}
