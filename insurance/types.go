/*
Package insurance implements the eligibility and enrollment lifecycle engine
for the four mandatory Korean social insurance programs.

PURPOSE:
  This package contains the domain types and algorithms for managing daily
  construction workers' statutory insurance: aggregating raw attendance into
  monthly work-history summaries, evaluating eligibility rules, resolving
  manual overrides, classifying workers into lifecycle states, and recording
  dated acquisition/loss transitions.

KEY CONCEPTS IN THIS FILE (types.go):
  - Worker: Identity plus resident-number-derived birth date, gender, age
  - WorkRecord: One row per (worker, site, date) of hours and wage
  - InsuranceType: The four statutory programs
  - StatusCode: auto/manual required/exempted eligibility decisions
  - SummaryKey: Composite (worker, site, month) key with value equality

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal for hours and wages, never float
  2. Type Safety: Strong typing for IDs prevents mixing worker/site IDs
  3. Derived state is recomputed, never patched: summaries and eligibility
     are rebuilt from raw records whenever inputs change
  4. Composite keys are structs with value equality, not formatted strings

SEE ALSO:
  - yearmonth.go: Calendar-month arithmetic
  - history.go: Work history aggregation
  - rules.go: Eligibility rule engine
  - enrollment.go: Acquisition/loss transitions
*/
package insurance

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type WorkerID string
type SiteID string

// SummaryKey identifies one worker's month at one site.
// Used directly as a map key: value equality replaces the
// "workerId-siteId-yearMonth" string keys of ad-hoc caches.
type SummaryKey struct {
	WorkerID WorkerID
	SiteID   SiteID
	Month    YearMonth
}

// WorkerSiteKey identifies a worker at a site across all months.
// Cache invalidation operates at this granularity: any mutation for a
// worker/site drops every cached month.
type WorkerSiteKey struct {
	WorkerID WorkerID
	SiteID   SiteID
}

// =============================================================================
// INSURANCE TYPES - The four mandatory programs
// =============================================================================

type InsuranceType string

const (
	NationalPension     InsuranceType = "national_pension"
	HealthInsurance     InsuranceType = "health_insurance"
	EmploymentInsurance InsuranceType = "employment_insurance"
	IndustrialAccident  InsuranceType = "industrial_accident"
)

// AllInsuranceTypes returns the four programs in display order.
func AllInsuranceTypes() []InsuranceType {
	return []InsuranceType{NationalPension, HealthInsurance, EmploymentInsurance, IndustrialAccident}
}

// ValidInsuranceType reports whether t is one of the four programs.
func ValidInsuranceType(t InsuranceType) bool {
	switch t {
	case NationalPension, HealthInsurance, EmploymentInsurance, IndustrialAccident:
		return true
	}
	return false
}

// =============================================================================
// STATUS CODES - Computed and manual eligibility decisions
// =============================================================================

type StatusCode string

const (
	AutoRequired   StatusCode = "auto_required"
	AutoExempted   StatusCode = "auto_exempted"
	ManualRequired StatusCode = "manual_required"
	ManualExempted StatusCode = "manual_exempted"
)

// IsManual reports whether the code came from a human override.
func (s StatusCode) IsManual() bool {
	return s == ManualRequired || s == ManualExempted
}

// Required reports whether the code means "must be enrolled".
func (s StatusCode) Required() bool {
	return s == AutoRequired || s == ManualRequired
}

// ValidStatusCode reports whether s is one of the four codes.
func ValidStatusCode(s StatusCode) bool {
	switch s {
	case AutoRequired, AutoExempted, ManualRequired, ManualExempted:
		return true
	}
	return false
}

// =============================================================================
// WORKER - Identity and statutory attributes
// =============================================================================

type WorkerCategory string

const (
	CategoryDaily   WorkerCategory = "daily"
	CategoryRegular WorkerCategory = "regular"
)

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
)

// Worker is referenced, never owned, by work records and enrollments.
// Identity fields are immutable; contact/classification fields may change.
type Worker struct {
	ID             WorkerID
	Name           string
	ResidentNumber string // national ID: YYMMDD + century/gender digit + serial
	Nationality    string // ISO-style nationality code, "KR" for domestic
	ResidenceCode  string // visa status code for foreign workers (F-2, E-9, ...)
	Category       WorkerCategory
	JobCode        string
	ContactNumber  string
}

// BirthDate derives the birth date from the resident-number prefix.
// Digits 1-6 are YYMMDD; digit 7 selects the century:
// 1,2,5,6 = 1900s and 3,4,7,8 = 2000s.
func (w Worker) BirthDate() (time.Time, error) {
	if len(w.ResidentNumber) < 7 {
		return time.Time{}, fmt.Errorf("resident number too short: %w", ErrMissingPrerequisite)
	}
	yy, err1 := strconv.Atoi(w.ResidentNumber[0:2])
	mm, err2 := strconv.Atoi(w.ResidentNumber[2:4])
	dd, err3 := strconv.Atoi(w.ResidentNumber[4:6])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, fmt.Errorf("malformed resident number %q: %w", w.ResidentNumber, ErrMissingPrerequisite)
	}

	var century int
	switch w.ResidentNumber[6] {
	case '1', '2', '5', '6':
		century = 1900
	case '3', '4', '7', '8':
		century = 2000
	default:
		return time.Time{}, fmt.Errorf("invalid century digit %q: %w", w.ResidentNumber[6], ErrMissingPrerequisite)
	}

	if mm < 1 || mm > 12 || dd < 1 || dd > 31 {
		return time.Time{}, fmt.Errorf("invalid birth date in resident number: %w", ErrMissingPrerequisite)
	}
	return time.Date(century+yy, time.Month(mm), dd, 0, 0, 0, 0, time.UTC), nil
}

// Gender derives gender from the resident-number century digit
// (odd = male, even = female).
func (w Worker) Gender() (Gender, error) {
	if len(w.ResidentNumber) < 7 {
		return "", fmt.Errorf("resident number too short: %w", ErrMissingPrerequisite)
	}
	switch w.ResidentNumber[6] {
	case '1', '3', '5', '7':
		return GenderMale, nil
	case '2', '4', '6', '8':
		return GenderFemale, nil
	}
	return "", fmt.Errorf("invalid century digit %q: %w", w.ResidentNumber[6], ErrMissingPrerequisite)
}

// AgeAt returns the worker's completed age at the reference date.
// Returns -1 when the resident number cannot be parsed.
func (w Worker) AgeAt(ref time.Time) int {
	birth, err := w.BirthDate()
	if err != nil {
		return -1
	}
	age := ref.Year() - birth.Year()
	if ref.Month() < birth.Month() || (ref.Month() == birth.Month() && ref.Day() < birth.Day()) {
		age--
	}
	return age
}

// IsDomestic reports whether the worker is a Korean national.
func (w Worker) IsDomestic() bool {
	return w.Nationality == "" || w.Nationality == "KR"
}

// =============================================================================
// WORK RECORD - One row per (worker, site, calendar date)
// =============================================================================

type RecordKind string

const (
	// KindAttendance is a real attendance row with hours and wage.
	KindAttendance RecordKind = "attendance"

	// KindRegistration marks "worker is assigned to this site for this month"
	// without denoting actual work. Zero hours, zero wage, excluded from
	// every aggregation sum.
	KindRegistration RecordKind = "registration"
)

type WorkRecord struct {
	ID       string
	WorkerID WorkerID
	SiteID   SiteID
	Date     time.Time // calendar date, day granularity
	Hours    decimal.Decimal
	Wage     decimal.Decimal
	Kind     RecordKind

	// RegistrationMonth tags the record with its month for data-entry paths
	// that save rows without canonical dates. Month lookups take the union
	// of the date range and this tag.
	RegistrationMonth YearMonth
}

func (r WorkRecord) IsRegistration() bool { return r.Kind == KindRegistration }

// DateKey returns the record's calendar date in YYYY-MM-DD form,
// used to de-duplicate the date-range and tag-based lookups.
func (r WorkRecord) DateKey() string { return r.Date.Format("2006-01-02") }

// =============================================================================
// WORK HISTORY SUMMARY - Derived, cached, never persisted
// =============================================================================

// WorkHistorySummary is the aggregated view of one worker's month at a site.
// Rebuilt from raw WorkRecords whenever they change; see history.go.
type WorkHistorySummary struct {
	Key SummaryKey

	CurrentMonthWorkDays   int
	CurrentMonthWorkHours  decimal.Decimal
	PreviousMonthWorkDays  int
	PreviousMonthWorkHours decimal.Decimal

	// MonthlyWage is the current month's wage total.
	MonthlyWage decimal.Decimal

	// FirstWorkDate is the earliest attendance for the worker/site across
	// all time, nil when the worker has never actually worked there.
	FirstWorkDate *time.Time

	IsRegisteredCurrentMonth  bool
	IsRegisteredPreviousMonth bool
}

// HasCurrentWork reports whether the worker counts as present this month:
// any worked day or hour, or a registration marker.
func (s *WorkHistorySummary) HasCurrentWork() bool {
	if s == nil {
		return false
	}
	return s.CurrentMonthWorkDays > 0 || s.CurrentMonthWorkHours.IsPositive() || s.IsRegisteredCurrentMonth
}

// =============================================================================
// ELIGIBILITY AND EFFECTIVE STATUS - Derived per insurance type
// =============================================================================

// CoverageLevel refines the employment-insurance boolean for visa/age cases.
type CoverageLevel string

const (
	// CoverageFull: both unemployment-benefit and safety/training portions.
	CoverageFull CoverageLevel = "full"

	// CoverageSafetyTrainingOnly: the unemployment-benefit portion does not
	// apply (age 65+, or optional for E-9/H-2 visa holders).
	CoverageSafetyTrainingOnly CoverageLevel = "safety_training_only"

	// CoverageVoluntary: enrollment is at the worker's option (F-4 visa).
	CoverageVoluntary CoverageLevel = "voluntary"

	// CoverageNone: the program does not apply at all.
	CoverageNone CoverageLevel = "none"
)

// EligibilityResult is the computed decision for one insurance type.
// Computed fresh from Worker + WorkHistorySummary; never mutated.
type EligibilityResult struct {
	Type     InsuranceType
	Required bool
	Reason   string

	// Coverage qualifies employment insurance only; other types carry
	// CoverageFull when required and CoverageNone otherwise.
	Coverage            CoverageLevel
	CoverageDescription string
}

// EffectiveStatus is the value the rest of the system actually uses:
// computed eligibility merged with any manual override.
type EffectiveStatus struct {
	Type     InsuranceType
	Required bool
	Reason   string
	IsManual bool
	Status   StatusCode
}

// =============================================================================
// MANUAL OVERRIDE - Human decision that supersedes computed eligibility
// =============================================================================

// ManualOverride holds per-type status overrides for one worker/site/month.
// An unset type defers to computed eligibility. Persists until the next
// override or deletion.
type ManualOverride struct {
	WorkerID WorkerID
	SiteID   SiteID
	Month    YearMonth

	// Statuses holds only manually decided types; absent key = unset.
	Statuses map[InsuranceType]StatusCode

	// Reason is free text shared by the override's type decisions.
	Reason string

	UpdatedAt time.Time
}

// StatusFor returns the override for one type, or ("", false) when unset.
func (o *ManualOverride) StatusFor(t InsuranceType) (StatusCode, bool) {
	if o == nil || o.Statuses == nil {
		return "", false
	}
	s, ok := o.Statuses[t]
	return s, ok
}

// =============================================================================
// LIFECYCLE STATES - Derived classification, not stored
// =============================================================================

type LifecycleState string

const (
	NewEnrollmentCandidate LifecycleState = "new_enrollment_candidate"
	ActiveEnrollee         LifecycleState = "active_enrollee"
	LossCandidate          LifecycleState = "loss_candidate"
)
