/*
errors.go - Centralized error types for the insurance engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers wrap these errors with additional context and branch with
  errors.Is().

ERROR CATEGORIES:
  1. BackendUnavailable - Any underlying store query failed; the operation
     is surfaced as a failure result with no automatic retry.
  2. MissingPrerequisite - Required identifiers (worker/site/month) absent
     or malformed; detected before the backend is contacted.
  3. InconsistentState - Cross-table inconsistencies (e.g., an enrollment
     referencing an unknown worker); logged, the offending row is skipped,
     the batch continues.

All failures are local to one operation. There is no global error state.

SEE ALSO:
  - history.go, enrollment.go: Wrap ErrBackendUnavailable around store calls
  - classify.go: Uses ErrInconsistentState for skip-and-log handling
*/
package insurance

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrBackendUnavailable wraps any failed query against the relational
	// backend. Callers surface it as {success:false, message}; no retry.
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrMissingPrerequisite is returned when a required identifier
	// (worker, site, year-month) is absent or malformed. Validated at the
	// top of every public operation, before contacting the backend.
	ErrMissingPrerequisite = errors.New("missing prerequisite")

	// ErrInconsistentState marks cross-table inconsistencies. The offending
	// row is logged and skipped rather than aborting the whole batch.
	ErrInconsistentState = errors.New("inconsistent state")

	// ErrWorkerNotFound is returned when a referenced worker doesn't exist.
	ErrWorkerNotFound = errors.New("worker not found")

	// ErrEnrollmentNotFound is returned when no enrollment row exists for
	// the requested worker/site/month.
	ErrEnrollmentNotFound = errors.New("enrollment not found")

	// ErrInvalidStatusCode is returned for a status outside the four-value
	// enum (auto/manual required/exempted).
	ErrInvalidStatusCode = errors.New("invalid status code")

	// ErrInvalidInsuranceType is returned for a type outside the four
	// statutory programs.
	ErrInvalidInsuranceType = errors.New("invalid insurance type")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// BackendError wraps a store failure with the operation that hit it.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: backend unavailable: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return ErrBackendUnavailable }

// backendErr is the standard wrapper used around every store call.
func backendErr(op string, err error) error {
	return &BackendError{Op: op, Err: err}
}

// InconsistentStateError identifies the row that failed cross-referencing.
type InconsistentStateError struct {
	WorkerID WorkerID
	SiteID   SiteID
	Detail   string
}

func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf("inconsistent state for worker %s at site %s: %s", e.WorkerID, e.SiteID, e.Detail)
}

func (e *InconsistentStateError) Unwrap() error { return ErrInconsistentState }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMissingPrerequisite) ||
		errors.Is(err, ErrInvalidStatusCode) ||
		errors.Is(err, ErrInvalidInsuranceType)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrWorkerNotFound) ||
		errors.Is(err, ErrEnrollmentNotFound)
}
