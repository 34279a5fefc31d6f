/*
rules.go - Statutory eligibility rule engine

PURPOSE:
  Pure evaluation of the four mandatory insurance programs for a daily
  worker: (Worker, WorkHistorySummary) -> EligibilityResult per type.
  No I/O, no mutation of inputs, idempotent and safe to call repeatedly.

THE RULES (defaults; thresholds configurable via RuleConfig):
  National Pension:    age < 60 AND (prev-month days >= 8 OR prev-month
                       hours >= 60 OR monthly wage >= 2,200,000). The
                       reason names the FIRST satisfied threshold in
                       days -> hours -> wage order; that ordering is for
                       display only, any satisfied threshold requires.
  Health Insurance:    prev-month hours >= 60. The look-back is statutory:
                       the threshold is evaluated against the PREVIOUS
                       month, never the current one.
  Employment:          required whenever the worker has any current-month
                       work. Visa and age nuance is expressed as a
                       coverage level alongside the boolean:
                         F-2/F-5/F-6 fully covered, E-9/H-2 safety/
                         training mandatory + unemployment optional,
                         F-4 voluntary, age >= 65 keeps safety/training
                         but loses the unemployment-benefit portion.
  Industrial Accident: required for any worker with at least one work
                       day, unconditionally. No age or visa exception.

"NO WORK THIS MONTH":
  The engine does not special-case a fully absent month. Pension and
  Health drop to required=false (their thresholds cannot be met), but
  Employment and Industrial Accident keep the statutory always-on default
  of required=true while the worker is employed. Suppressing display for
  absent workers is caller policy, and the classifier already excludes
  workers with neither work nor enrollment from the population.

SEE ALSO:
  - resolve.go: Merges these results with manual overrides
  - factory/rules.go: JSON configuration of the thresholds
*/
package insurance

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RULE CONFIG - Statutory thresholds, adjustable per statutory year
// =============================================================================

type RuleConfig struct {
	// National pension thresholds.
	PensionMinDays       int             // prev-month work days
	PensionMinHours      decimal.Decimal // prev-month work hours
	PensionWageThreshold decimal.Decimal // monthly wage, currency units
	PensionAgeCap        int             // no pension at or above this age

	// Health insurance threshold (prev-month hours).
	HealthMinHours decimal.Decimal

	// Employment insurance: unemployment-benefit portion ends at this age.
	SeniorAge int
}

// DefaultRuleConfig returns the current statutory thresholds.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		PensionMinDays:       8,
		PensionMinHours:      decimal.NewFromInt(60),
		PensionWageThreshold: decimal.NewFromInt(2_200_000),
		PensionAgeCap:        60,
		HealthMinHours:       decimal.NewFromInt(60),
		SeniorAge:            65,
	}
}

// =============================================================================
// RULE ENGINE
// =============================================================================

// RuleEngine evaluates statutory eligibility. It is stateless apart from
// its configuration; Clock exists so tests can pin the age reference date.
type RuleEngine struct {
	Config RuleConfig
	Clock  func() time.Time
}

func NewRuleEngine(cfg RuleConfig) *RuleEngine {
	return &RuleEngine{Config: cfg, Clock: func() time.Time { return time.Now().UTC() }}
}

func (e *RuleEngine) now() time.Time {
	if e.Clock != nil {
		return e.Clock()
	}
	return time.Now().UTC()
}

// Evaluate computes all four programs for the worker and summary.
func (e *RuleEngine) Evaluate(w Worker, s *WorkHistorySummary) map[InsuranceType]EligibilityResult {
	return map[InsuranceType]EligibilityResult{
		NationalPension:     e.EvaluatePension(w, s),
		HealthInsurance:     e.EvaluateHealth(w, s),
		EmploymentInsurance: e.EvaluateEmployment(w, s),
		IndustrialAccident:  e.EvaluateIndustrialAccident(w, s),
	}
}

// EvaluateOne computes a single program.
func (e *RuleEngine) EvaluateOne(t InsuranceType, w Worker, s *WorkHistorySummary) (EligibilityResult, error) {
	switch t {
	case NationalPension:
		return e.EvaluatePension(w, s), nil
	case HealthInsurance:
		return e.EvaluateHealth(w, s), nil
	case EmploymentInsurance:
		return e.EvaluateEmployment(w, s), nil
	case IndustrialAccident:
		return e.EvaluateIndustrialAccident(w, s), nil
	}
	return EligibilityResult{}, ErrInvalidInsuranceType
}

// =============================================================================
// NATIONAL PENSION
// =============================================================================

func (e *RuleEngine) EvaluatePension(w Worker, s *WorkHistorySummary) EligibilityResult {
	result := EligibilityResult{Type: NationalPension, Coverage: CoverageNone}

	age := w.AgeAt(e.now())
	if age < 0 {
		result.Reason = "resident number unreadable, cannot derive age"
		return result
	}
	if age >= e.Config.PensionAgeCap {
		result.Reason = fmt.Sprintf("age %d is %d or older", age, e.Config.PensionAgeCap)
		return result
	}
	if s == nil {
		result.Reason = "no work history"
		return result
	}

	// Reason reflects the first satisfied threshold (days, hours, wage);
	// any one of them is sufficient.
	switch {
	case s.PreviousMonthWorkDays >= e.Config.PensionMinDays:
		result.Required = true
		result.Coverage = CoverageFull
		result.Reason = fmt.Sprintf("previous month %d work days (threshold %d)",
			s.PreviousMonthWorkDays, e.Config.PensionMinDays)
	case s.PreviousMonthWorkHours.GreaterThanOrEqual(e.Config.PensionMinHours):
		result.Required = true
		result.Coverage = CoverageFull
		result.Reason = fmt.Sprintf("previous month %s work hours (threshold %s)",
			s.PreviousMonthWorkHours, e.Config.PensionMinHours)
	case s.MonthlyWage.GreaterThanOrEqual(e.Config.PensionWageThreshold):
		result.Required = true
		result.Coverage = CoverageFull
		result.Reason = fmt.Sprintf("monthly wage %s (threshold %s)",
			s.MonthlyWage, e.Config.PensionWageThreshold)
	default:
		result.Reason = "below day, hour and wage thresholds"
	}
	return result
}

// =============================================================================
// HEALTH INSURANCE
// =============================================================================

func (e *RuleEngine) EvaluateHealth(_ Worker, s *WorkHistorySummary) EligibilityResult {
	result := EligibilityResult{Type: HealthInsurance, Coverage: CoverageNone}
	if s == nil {
		result.Reason = "no work history"
		return result
	}

	if s.PreviousMonthWorkHours.GreaterThanOrEqual(e.Config.HealthMinHours) {
		result.Required = true
		result.Coverage = CoverageFull
		result.Reason = fmt.Sprintf("previous month %s work hours (threshold %s)",
			s.PreviousMonthWorkHours, e.Config.HealthMinHours)
	} else {
		result.Reason = fmt.Sprintf("previous month hours below %s", e.Config.HealthMinHours)
	}
	return result
}

// =============================================================================
// EMPLOYMENT INSURANCE
// =============================================================================

func (e *RuleEngine) EvaluateEmployment(w Worker, s *WorkHistorySummary) EligibilityResult {
	// Always-on while employed: a month without recorded work keeps the
	// statutory default rather than dropping coverage.
	result := EligibilityResult{Type: EmploymentInsurance, Required: true}
	if s.HasCurrentWork() {
		result.Reason = "employed this month"
	} else {
		result.Reason = "statutory default, no recorded work this month"
	}

	result.Coverage, result.CoverageDescription = e.employmentCoverage(w)
	return result
}

// employmentCoverage maps nationality/visa/age to the coverage level.
// The unemployment-benefit portion and the safety/training portion are
// severable; the richer level replaces a second boolean.
func (e *RuleEngine) employmentCoverage(w Worker) (CoverageLevel, string) {
	age := w.AgeAt(e.now())
	if age >= e.Config.SeniorAge {
		return CoverageSafetyTrainingOnly,
			fmt.Sprintf("age %d or older: safety/training portion only, no unemployment benefit", e.Config.SeniorAge)
	}
	if w.IsDomestic() {
		return CoverageFull, "domestic worker: fully covered"
	}

	switch w.ResidenceCode {
	case "F-2", "F-5", "F-6":
		return CoverageFull, "residence status " + w.ResidenceCode + ": fully covered"
	case "E-9", "H-2":
		return CoverageSafetyTrainingOnly,
			"residence status " + w.ResidenceCode + ": safety/training mandatory, unemployment benefit optional"
	case "F-4":
		return CoverageVoluntary, "residence status F-4: voluntary enrollment"
	}
	return CoverageSafetyTrainingOnly,
		"residence status " + w.ResidenceCode + ": safety/training portion only"
}

// =============================================================================
// INDUSTRIAL ACCIDENT
// =============================================================================

func (e *RuleEngine) EvaluateIndustrialAccident(_ Worker, s *WorkHistorySummary) EligibilityResult {
	// No age or visa exception, and like employment insurance the program
	// is always-on while employed.
	result := EligibilityResult{Type: IndustrialAccident, Required: true, Coverage: CoverageFull}
	if s != nil && s.CurrentMonthWorkDays >= 1 {
		result.Reason = "one or more work days this month"
	} else {
		result.Reason = "statutory default, no recorded work this month"
	}
	return result
}
