package load

import "github.com/google/uuid"

// Status is the outcome of one load attempt.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// State is the phase a load attempt reached.
type State string

const (
	StatePending   State = "PENDING"
	StateStaged    State = "STAGED"
	StateMerged    State = "MERGED"
	StateCommitted State = "COMMITTED"
	StateFailed    State = "FAILED"
)

// LoadResult reports one load attempt. Failures set Status to StatusError
// with Detail; they are never raised.
type LoadResult struct {
	JobID       uuid.UUID
	Status      Status
	State       State
	RowsWritten int64
	Detail      string
}

func (r LoadResult) Failed() bool { return r.Status == StatusError }
