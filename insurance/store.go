/*
store.go - Persistence interfaces for the relational backend

PURPOSE:
  Defines the interface between the engine and the database. The backend is
  a generic relational store; these interfaces are schema-shaped, not
  wire-protocol-exact. Different implementations can use SQLite,
  PostgreSQL, or in-memory storage.

KEY INTERFACES:
  WorkerStore:     Worker identity records
  WorkRecordStore: Raw attendance/registration rows, month-scoped queries
  EnrollmentStore: Per (worker, site, month) insurance enrollment rows
  OverrideStore:   Persisted manual eligibility overrides
  EventLog:        Append-only acquisition/loss event trail

MONTH LOOKUP CONTRACT:
  ListMonth returns the UNION of records whose date falls in
  [month start, next month start) and records tagged with the month via
  registration_month. Data-entry paths may tag rows without canonical
  dates; a date-range query alone would miss them. Callers de-duplicate
  by calendar date before summing.

WRITE SEMANTICS:
  ReplaceMonth is delete-then-insert and NOT transactional across tables.
  A failure partway through can leave a partially-updated month; recovery
  is an idempotent re-save of the whole month, never a resume.

  Enrollment rows are upserted, never hard-deleted. The EventLog is
  append-only and carries the audit history the upsert cannot.

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite
  - store/memory: In-memory for testing

SEE ALSO:
  - history.go: Consumes WorkRecordStore
  - enrollment.go: Consumes EnrollmentStore + EventLog
  - events.go: EnrollmentEvent definition
*/
package insurance

import (
	"context"
	"time"
)

// =============================================================================
// WORKER STORE
// =============================================================================

type WorkerStore interface {
	// GetWorker returns the worker or ErrWorkerNotFound.
	GetWorker(ctx context.Context, id WorkerID) (*Worker, error)

	// PutWorker inserts or updates a worker record.
	PutWorker(ctx context.Context, w *Worker) error

	// ListWorkers returns all workers.
	ListWorkers(ctx context.Context) ([]*Worker, error)
}

// =============================================================================
// WORK RECORD STORE
// =============================================================================

type WorkRecordStore interface {
	// ListMonth returns all records for the worker/site in the month:
	// the union of the date range [start, nextStart) and rows tagged with
	// the month via registration_month. Includes registration-kind rows.
	ListMonth(ctx context.Context, workerID WorkerID, siteID SiteID, month YearMonth) ([]WorkRecord, error)

	// FirstWorkDate returns the earliest non-registration record date for
	// the worker/site across all time, or nil when none exists.
	FirstWorkDate(ctx context.Context, workerID WorkerID, siteID SiteID) (*time.Time, error)

	// WorkersForMonth returns the IDs of workers with any record (either
	// kind) at the site in the month.
	WorkersForMonth(ctx context.Context, siteID SiteID, month YearMonth) ([]WorkerID, error)

	// ReplaceMonth deletes the worker/site/month's records and inserts the
	// given set. Delete-then-insert; recovery from partial failure is an
	// idempotent re-save.
	ReplaceMonth(ctx context.Context, workerID WorkerID, siteID SiteID, month YearMonth, records []WorkRecord) error
}

// =============================================================================
// ENROLLMENT STORE
// =============================================================================

type EnrollmentStore interface {
	// GetEnrollment returns the row for the worker/site/month, or
	// (nil, nil) when none exists.
	GetEnrollment(ctx context.Context, workerID WorkerID, siteID SiteID, month YearMonth) (*Enrollment, error)

	// UpsertEnrollment writes the row keyed by (worker, site, month),
	// creating it on first acquisition and updating it on loss. Never
	// deletes.
	UpsertEnrollment(ctx context.Context, e *Enrollment) error

	// ListEnrollments returns all rows for the worker/site, any month,
	// ordered by month.
	ListEnrollments(ctx context.Context, workerID WorkerID, siteID SiteID) ([]*Enrollment, error)

	// ListSiteEnrollments returns all rows at the site.
	ListSiteEnrollments(ctx context.Context, siteID SiteID) ([]*Enrollment, error)
}

// =============================================================================
// OVERRIDE STORE
// =============================================================================

type OverrideStore interface {
	// GetOverride returns the persisted override for the
	// worker/site/month, or (nil, nil) when none exists. Absence means
	// "defer to computed eligibility".
	GetOverride(ctx context.Context, workerID WorkerID, siteID SiteID, month YearMonth) (*ManualOverride, error)

	// PutOverride inserts or replaces the override for its
	// (worker, site, month).
	PutOverride(ctx context.Context, o *ManualOverride) error

	// DeleteOverride removes the override, restoring computed eligibility.
	DeleteOverride(ctx context.Context, workerID WorkerID, siteID SiteID, month YearMonth) error
}

// =============================================================================
// EVENT LOG - Append-only, see events.go
// =============================================================================

type EventLog interface {
	// AppendEvent adds an event. Append-only: no update, no delete.
	AppendEvent(ctx context.Context, ev EnrollmentEvent) error

	// ListEvents returns events for the worker/site in recorded order.
	ListEvents(ctx context.Context, workerID WorkerID, siteID SiteID) ([]EnrollmentEvent, error)
}
