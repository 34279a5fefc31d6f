/*
enrollment.go - Enrollment records and the transition executor

PURPOSE:
  An Enrollment row holds, per (worker, site, month) and per insurance
  type, the acquisition date, loss date and status. The Executor performs
  the acquire/lose transitions: it records decisions already made by the
  caller (who resolved EffectiveStatus first) and never decides WHETHER to
  enroll.

INVARIANTS:
  1. lossDate is nil or >= acquisitionDate
  2. non-nil acquisition + nil loss = currently enrolled
  3. rows are created on first acquisition, updated on loss, never
     hard-deleted
  4. Lose is idempotent: a second call on an already-lost type is a no-op
  5. every transition invalidates the summary cache for (worker, site)
     exactly once before returning, and appends to the event log

SEE ALSO:
  - events.go: The append-only audit trail
  - classify.go: Consumes active-enrollment state
*/
package insurance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENROLLMENT - Per (worker, site, month) row
// =============================================================================

type EnrollmentStatus string

const (
	EnrollmentActive EnrollmentStatus = "active" // at least one open line
	EnrollmentClosed EnrollmentStatus = "closed" // every acquired line lost
)

// EnrollmentLine is the per-insurance-type portion of an enrollment row.
type EnrollmentLine struct {
	AcquisitionDate *time.Time
	LossDate        *time.Time
	Status          StatusCode
}

// IsActive reports "currently enrolled" for this type.
func (l EnrollmentLine) IsActive() bool {
	return l.AcquisitionDate != nil && l.LossDate == nil
}

type Enrollment struct {
	WorkerID WorkerID
	SiteID   SiteID
	Month    YearMonth

	// Lines holds per-type dates and status; absent key = never acquired.
	Lines map[InsuranceType]EnrollmentLine

	// MonthlyWage is the wage the acquisition was reported with.
	MonthlyWage decimal.Decimal

	ManualReason  string
	Status        EnrollmentStatus
	UserConfirmed bool
	UpdatedAt     time.Time
}

// Line returns the per-type line, zero-valued when never acquired.
func (e *Enrollment) Line(t InsuranceType) EnrollmentLine {
	if e == nil || e.Lines == nil {
		return EnrollmentLine{}
	}
	return e.Lines[t]
}

// HasActiveLine reports whether any type is currently enrolled.
func (e *Enrollment) HasActiveLine() bool {
	if e == nil {
		return false
	}
	for _, l := range e.Lines {
		if l.IsActive() {
			return true
		}
	}
	return false
}

// ActiveTypes returns the currently enrolled types in display order.
func (e *Enrollment) ActiveTypes() []InsuranceType {
	var out []InsuranceType
	for _, t := range AllInsuranceTypes() {
		if e.Line(t).IsActive() {
			out = append(out, t)
		}
	}
	return out
}

func (e *Enrollment) refreshStatus() {
	if e.HasActiveLine() {
		e.Status = EnrollmentActive
	} else {
		e.Status = EnrollmentClosed
	}
}

// =============================================================================
// EXECUTOR - Acquire / lose transitions
// =============================================================================

// Executor writes dated acquisition/loss transitions. Cache is injected
// directly; the executor never discovers it at call time.
type Executor struct {
	Enrollments EnrollmentStore
	Events      EventLog
	Cache       SummaryCache
	Clock       func() time.Time
}

func NewExecutor(enrollments EnrollmentStore, events EventLog, cache SummaryCache) *Executor {
	if cache == nil {
		cache = NopCache{}
	}
	return &Executor{
		Enrollments: enrollments,
		Events:      events,
		Cache:       cache,
		Clock:       func() time.Time { return time.Now().UTC() },
	}
}

func (x *Executor) today() time.Time {
	now := x.Clock()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

// Acquire sets acquisitionDate=today for each requested type, records the
// caller-resolved status, clears any loss date, and upserts the row keyed
// by (worker, site, month).
//
// Precondition: the caller has already computed EffectiveStatus for the
// requested types; statuses carries those codes. The executor only
// records the decision.
func (x *Executor) Acquire(ctx context.Context, workerID WorkerID, siteID SiteID, month YearMonth,
	types []InsuranceType, statuses map[InsuranceType]StatusCode, monthlyWage decimal.Decimal, reason string) error {

	if workerID == "" || siteID == "" || month.IsZero() || len(types) == 0 {
		return ErrMissingPrerequisite
	}
	for _, t := range types {
		if !ValidInsuranceType(t) {
			return ErrInvalidInsuranceType
		}
	}

	// Single invalidation on the way out, success or not: a failed upsert
	// may still have mutated backend state partway.
	defer x.Cache.Invalidate(workerID, siteID)

	enrollment, err := x.Enrollments.GetEnrollment(ctx, workerID, siteID, month)
	if err != nil {
		return backendErr("load enrollment", err)
	}
	if enrollment == nil {
		enrollment = &Enrollment{
			WorkerID: workerID,
			SiteID:   siteID,
			Month:    month,
			Lines:    make(map[InsuranceType]EnrollmentLine),
		}
	}
	if enrollment.Lines == nil {
		enrollment.Lines = make(map[InsuranceType]EnrollmentLine)
	}

	today := x.today()
	var events []EnrollmentEvent
	for _, t := range types {
		status := statuses[t]
		if status == "" {
			status = AutoRequired
		}
		d := today
		enrollment.Lines[t] = EnrollmentLine{
			AcquisitionDate: &d,
			LossDate:        nil,
			Status:          status,
		}
		events = append(events, newEvent(workerID, siteID, month, t, EventAcquired, today, x.Clock(), status, reason))
	}

	enrollment.MonthlyWage = monthlyWage
	if reason != "" {
		enrollment.ManualReason = reason
	}
	enrollment.UpdatedAt = x.Clock()
	enrollment.refreshStatus()

	if err := x.Enrollments.UpsertEnrollment(ctx, enrollment); err != nil {
		return backendErr("upsert enrollment", err)
	}
	return x.appendEvents(ctx, events)
}

// Lose sets lossDate=today for the targeted types (all four when types is
// empty), scoped to the given month, or to every open enrollment for the
// worker/site when month is nil. Idempotent: already-lost and
// never-acquired types are skipped silently.
func (x *Executor) Lose(ctx context.Context, workerID WorkerID, siteID SiteID, month *YearMonth, types []InsuranceType) error {
	if workerID == "" || siteID == "" {
		return ErrMissingPrerequisite
	}
	if len(types) == 0 {
		types = AllInsuranceTypes()
	}
	for _, t := range types {
		if !ValidInsuranceType(t) {
			return ErrInvalidInsuranceType
		}
	}

	defer x.Cache.Invalidate(workerID, siteID)

	var rows []*Enrollment
	if month != nil {
		row, err := x.Enrollments.GetEnrollment(ctx, workerID, siteID, *month)
		if err != nil {
			return backendErr("load enrollment", err)
		}
		if row != nil {
			rows = append(rows, row)
		}
	} else {
		all, err := x.Enrollments.ListEnrollments(ctx, workerID, siteID)
		if err != nil {
			return backendErr("list enrollments", err)
		}
		for _, row := range all {
			if row.HasActiveLine() {
				rows = append(rows, row)
			}
		}
	}

	today := x.today()
	var events []EnrollmentEvent
	for _, row := range rows {
		changed := false
		for _, t := range types {
			line := row.Line(t)
			if !line.IsActive() {
				continue // never acquired or already lost
			}
			d := today
			if line.AcquisitionDate != nil && d.Before(*line.AcquisitionDate) {
				// Loss can never predate acquisition.
				d = *line.AcquisitionDate
			}
			line.LossDate = &d
			row.Lines[t] = line
			changed = true
			events = append(events, newEvent(workerID, siteID, row.Month, t, EventLost, d, x.Clock(), line.Status, ""))
		}
		if !changed {
			continue
		}
		row.UpdatedAt = x.Clock()
		row.refreshStatus()
		if err := x.Enrollments.UpsertEnrollment(ctx, row); err != nil {
			return backendErr("upsert enrollment", err)
		}
	}
	return x.appendEvents(ctx, events)
}

func (x *Executor) appendEvents(ctx context.Context, events []EnrollmentEvent) error {
	if x.Events == nil {
		return nil
	}
	for _, ev := range events {
		if err := x.Events.AppendEvent(ctx, ev); err != nil {
			return backendErr("append event", err)
		}
	}
	return nil
}
