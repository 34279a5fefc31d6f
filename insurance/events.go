/*
events.go - Append-only enrollment event trail

PURPOSE:
  Enrollment rows are upserted in place per (worker, site, month), which
  cannot reconstruct repeated acquire/lose cycles within one month. Every
  transition therefore also appends an immutable EnrollmentEvent, giving a
  full audit trail without changing the backing row shape.

INVARIANTS:
  1. APPEND-ONLY: events are never updated or deleted
  2. ONE EVENT PER TYPE PER TRANSITION: acquiring three types appends
     three events
  3. IDEMPOTENT NO-OPS ARE SILENT: a lose on an already-lost type appends
     nothing

SEE ALSO:
  - enrollment.go: The only writer of events
  - store.go: EventLog persistence contract
*/
package insurance

import (
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// ENROLLMENT EVENT
// =============================================================================

type EventAction string

const (
	EventAcquired EventAction = "acquired"
	EventLost     EventAction = "lost"
)

// EnrollmentEvent records one dated transition for one insurance type.
type EnrollmentEvent struct {
	ID       string
	WorkerID WorkerID
	SiteID   SiteID
	Month    YearMonth
	Type     InsuranceType
	Action   EventAction

	// EffectiveDate is the acquisition or loss date written to the row.
	EffectiveDate time.Time

	// Status is the effective status code at transition time.
	Status StatusCode

	Reason     string
	RecordedAt time.Time
}

func newEvent(workerID WorkerID, siteID SiteID, month YearMonth, t InsuranceType, action EventAction, effective, recorded time.Time, status StatusCode, reason string) EnrollmentEvent {
	return EnrollmentEvent{
		ID:            uuid.NewString(),
		WorkerID:      workerID,
		SiteID:        siteID,
		Month:         month,
		Type:          t,
		Action:        action,
		EffectiveDate: effective,
		Status:        status,
		Reason:        reason,
		RecordedAt:    recorded,
	}
}
