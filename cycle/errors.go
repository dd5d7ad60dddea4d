/*
errors.go - Error types for the cycle domain

ERROR CATEGORIES:
  1. Validation errors - malformed cycles (end before start, negative id)
  2. Lookup errors - a referenced cycle does not exist
  3. Store errors - database-level failures, wrapped with context

Update against a non-existent id is NOT an error anywhere in this package.
It is a silent no-op, mirroring SQL UPDATE semantics.

SEE ALSO:
  - store.go: Store contract
  - repository.go: LogPeriod validates before writing
*/
package cycle

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidCycle is returned when a cycle record is malformed.
	ErrInvalidCycle = errors.New("invalid cycle")

	// ErrInvalidPeriod is returned when an end date precedes the start date.
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrCycleNotFound is returned by lookups that require an existing cycle.
	ErrCycleNotFound = errors.New("cycle not found")

	// ErrStoreClosed is returned when a store is used after Close.
	ErrStoreClosed = errors.New("store closed")

	// ErrWriteFailed wraps storage engine failures on insert/update.
	ErrWriteFailed = errors.New("cycle write failed")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// InvalidPeriodError carries the offending dates.
type InvalidPeriodError struct {
	Start Day
	End   Day
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("invalid period: end %s before start %s", e.End, e.Start)
}

func (e *InvalidPeriodError) Unwrap() error {
	return ErrInvalidPeriod
}

// WriteError describes a failed, rolled-back write.
type WriteError struct {
	Op  string // "insert", "update", "replace"
	ID  int64
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s cycle %d: %v", e.Op, e.ID, e.Err)
}

func (e *WriteError) Unwrap() []error {
	return []error{ErrWriteFailed, e.Err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidCycle) || errors.Is(err, ErrInvalidPeriod)
}

// IsNotFound returns true if the error indicates a missing cycle.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCycleNotFound)
}
