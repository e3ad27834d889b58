// Package store persists evolution run records and per-generation
// traces on the filesystem.
package store

// Store is the persistence interface for evolution runs.
// Implementations must be safe for concurrent use.
//
// Error conventions:
//   - nil on success
//   - ErrNotFound when a run does not exist (Load/Delete/trace reads)
//   - wrapped errors with context for I/O and serialization failures
type Store interface {
	// SaveRun atomically persists a run record. An existing record for
	// the same run ID is overwritten. Implementations use temp file +
	// rename so a crash never leaves a half-written record behind.
	SaveRun(record *RunRecord) error

	// LoadRun retrieves the record for the given run.
	// Returns ErrNotFound if no record exists.
	LoadRun(runID string) (*RunRecord, error)

	// ListRuns returns metadata for all stored runs, newest first.
	// The slice is empty when nothing has been stored yet.
	ListRuns() ([]RunInfo, error)

	// DeleteRun removes the record and all associated artifacts for
	// the given run, including its generation trace.
	// Returns ErrNotFound if no run exists.
	DeleteRun(runID string) error
}

// ErrNotFound is returned when a requested run does not exist.
// Use errors.Is(err, ErrNotFound) to check for this error.
var ErrNotFound = &NotFoundError{}

// NotFoundError represents a missing run.
type NotFoundError struct {
	RunID string
}

func (e *NotFoundError) Error() string {
	if e.RunID != "" {
		return "run not found: " + e.RunID
	}
	return "run not found"
}

func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)
	return ok
}
