/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

MONEY AND HOURS:
  Serialized as decimal strings ("2200000", "7.5"), never floats. Clients
  display them verbatim or parse with a decimal library.

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/rules.go: RuleConfigJSON type
*/
package api

import (
	"time"

	"github.com/warp/insurance-engine/insurance"
	"github.com/warp/insurance-engine/payroll"
)

// =============================================================================
// WORKER TYPES
// =============================================================================

// WorkerDTO represents a worker in API responses.
type WorkerDTO struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ResidentNumber string `json:"resident_number"`
	Nationality    string `json:"nationality,omitempty"`
	ResidenceCode  string `json:"residence_code,omitempty"`
	Category       string `json:"category"`
	JobCode        string `json:"job_code,omitempty"`
	ContactNumber  string `json:"contact_number,omitempty"`
}

// CreateWorkerRequest is the request to create or update a worker.
type CreateWorkerRequest struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ResidentNumber string `json:"resident_number"`
	Nationality    string `json:"nationality,omitempty"`
	ResidenceCode  string `json:"residence_code,omitempty"`
	Category       string `json:"category,omitempty"`
	JobCode        string `json:"job_code,omitempty"`
	ContactNumber  string `json:"contact_number,omitempty"`
}

// =============================================================================
// WORK HISTORY TYPES
// =============================================================================

// WorkHistoryDTO is the aggregated month summary for a worker at a site.
type WorkHistoryDTO struct {
	WorkerID                  string  `json:"worker_id"`
	SiteID                    string  `json:"site_id"`
	Month                     string  `json:"month"`
	CurrentMonthWorkDays      int     `json:"current_month_work_days"`
	CurrentMonthWorkHours     string  `json:"current_month_work_hours"`
	PreviousMonthWorkDays     int     `json:"previous_month_work_days"`
	PreviousMonthWorkHours    string  `json:"previous_month_work_hours"`
	MonthlyWage               string  `json:"monthly_wage"`
	FirstWorkDate             *string `json:"first_work_date,omitempty"`
	IsRegisteredCurrentMonth  bool    `json:"is_registered_current_month"`
	IsRegisteredPreviousMonth bool    `json:"is_registered_previous_month"`
}

// WorkRecordDTO represents one attendance/registration row.
type WorkRecordDTO struct {
	ID    string `json:"id,omitempty"`
	Date  string `json:"date"`
	Hours string `json:"hours,omitempty"`
	Wage  string `json:"wage,omitempty"`
	Kind  string `json:"kind,omitempty"` // "attendance" (default) or "registration"
}

// SaveRecordsRequest replaces one month of records for a worker/site.
type SaveRecordsRequest struct {
	Records []WorkRecordDTO `json:"records"`
}

// =============================================================================
// ELIGIBILITY AND STATUS TYPES
// =============================================================================

// EffectiveStatusDTO is the resolved status for one insurance type.
type EffectiveStatusDTO struct {
	Type     string `json:"type"`
	Required bool   `json:"required"`
	Reason   string `json:"reason"`
	IsManual bool   `json:"is_manual"`
	Status   string `json:"status"`
}

// StatusSummaryDTO carries all four programs for one worker/site/month.
type StatusSummaryDTO struct {
	WorkerID string               `json:"worker_id"`
	SiteID   string               `json:"site_id"`
	Month    string               `json:"month"`
	Statuses []EffectiveStatusDTO `json:"statuses"`
}

// SetOverrideRequest records a provisional manual decision for one type.
type SetOverrideRequest struct {
	WorkerID string `json:"worker_id"`
	SiteID   string `json:"site_id"`
	Month    string `json:"month"`
	Type     string `json:"type"`
	Status   string `json:"status"` // manual_required or manual_exempted
	Reason   string `json:"reason,omitempty"`
}

// OverrideKeyRequest identifies an override edit session for save/discard.
type OverrideKeyRequest struct {
	WorkerID string `json:"worker_id"`
	SiteID   string `json:"site_id"`
	Month    string `json:"month"`
}

// =============================================================================
// CLASSIFICATION TYPES
// =============================================================================

// ClassificationDTO is the three-way lifecycle partition for a site/month.
type ClassificationDTO struct {
	SiteID         string      `json:"site_id"`
	Month          string      `json:"month"`
	NewCandidates  []WorkerDTO `json:"new_enrollment_candidates"`
	Active         []WorkerDTO `json:"active_enrollees"`
	LossCandidates []WorkerDTO `json:"loss_candidates"`
	Skipped        int         `json:"skipped_inconsistent_rows,omitempty"`
}

// =============================================================================
// ENROLLMENT TYPES
// =============================================================================

// AcquireRequest records insurance acquisitions for a worker/site/month.
type AcquireRequest struct {
	WorkerID    string   `json:"worker_id"`
	SiteID      string   `json:"site_id"`
	Month       string   `json:"month"`
	Types       []string `json:"types"`
	MonthlyWage string   `json:"monthly_wage,omitempty"`
	Reason      string   `json:"reason,omitempty"`
}

// LoseRequest records insurance losses. Month empty = every open
// enrollment for the worker/site; Types empty = all four programs.
type LoseRequest struct {
	WorkerID string   `json:"worker_id"`
	SiteID   string   `json:"site_id"`
	Month    string   `json:"month,omitempty"`
	Types    []string `json:"types,omitempty"`
}

// EnrollmentLineDTO is the per-type portion of an enrollment row.
type EnrollmentLineDTO struct {
	Type            string  `json:"type"`
	AcquisitionDate *string `json:"acquisition_date,omitempty"`
	LossDate        *string `json:"loss_date,omitempty"`
	Status          string  `json:"status,omitempty"`
	Active          bool    `json:"active"`
}

// EnrollmentDTO represents one (worker, site, month) enrollment row.
type EnrollmentDTO struct {
	WorkerID    string              `json:"worker_id"`
	SiteID      string              `json:"site_id"`
	Month       string              `json:"month"`
	Lines       []EnrollmentLineDTO `json:"lines"`
	MonthlyWage string              `json:"monthly_wage"`
	Reason      string              `json:"reason,omitempty"`
	Status      string              `json:"status"`
	UpdatedAt   string              `json:"updated_at,omitempty"`
}

// EnrollmentEventDTO is one append-only audit trail entry.
type EnrollmentEventDTO struct {
	ID            string `json:"id"`
	WorkerID      string `json:"worker_id"`
	SiteID        string `json:"site_id"`
	Month         string `json:"month"`
	Type          string `json:"type"`
	Action        string `json:"action"`
	EffectiveDate string `json:"effective_date"`
	Status        string `json:"status,omitempty"`
	Reason        string `json:"reason,omitempty"`
	RecordedAt    string `json:"recorded_at"`
}

// =============================================================================
// PAYROLL TYPES
// =============================================================================

// PayrollStatementDTO is the monthly deduction breakdown for a worker/site.
type PayrollStatementDTO struct {
	WorkerID          string `json:"worker_id"`
	SiteID            string `json:"site_id"`
	Month             string `json:"month"`
	WorkDays          int    `json:"work_days"`
	GrossWage         string `json:"gross_wage"`
	IncomeTax         string `json:"income_tax"`
	LocalTax          string `json:"local_tax"`
	EmploymentPremium string `json:"employment_premium"`
	NetPay            string `json:"net_pay"`
}

// =============================================================================
// SCENARIO TYPES
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ID string `json:"id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toWorkerDTO(w *insurance.Worker) WorkerDTO {
	return WorkerDTO{
		ID:             string(w.ID),
		Name:           w.Name,
		ResidentNumber: w.ResidentNumber,
		Nationality:    w.Nationality,
		ResidenceCode:  w.ResidenceCode,
		Category:       string(w.Category),
		JobCode:        w.JobCode,
		ContactNumber:  w.ContactNumber,
	}
}

func toWorkerDTOs(workers []*insurance.Worker) []WorkerDTO {
	dtos := make([]WorkerDTO, len(workers))
	for i, w := range workers {
		dtos[i] = toWorkerDTO(w)
	}
	return dtos
}

func toHistoryDTO(s *insurance.WorkHistorySummary) WorkHistoryDTO {
	dto := WorkHistoryDTO{
		WorkerID:                  string(s.Key.WorkerID),
		SiteID:                    string(s.Key.SiteID),
		Month:                     s.Key.Month.String(),
		CurrentMonthWorkDays:      s.CurrentMonthWorkDays,
		CurrentMonthWorkHours:     s.CurrentMonthWorkHours.String(),
		PreviousMonthWorkDays:     s.PreviousMonthWorkDays,
		PreviousMonthWorkHours:    s.PreviousMonthWorkHours.String(),
		MonthlyWage:               s.MonthlyWage.String(),
		IsRegisteredCurrentMonth:  s.IsRegisteredCurrentMonth,
		IsRegisteredPreviousMonth: s.IsRegisteredPreviousMonth,
	}
	if s.FirstWorkDate != nil {
		d := s.FirstWorkDate.Format("2006-01-02")
		dto.FirstWorkDate = &d
	}
	return dto
}

func toStatusDTOs(statuses map[insurance.InsuranceType]insurance.EffectiveStatus) []EffectiveStatusDTO {
	out := make([]EffectiveStatusDTO, 0, len(statuses))
	for _, t := range insurance.AllInsuranceTypes() {
		s, ok := statuses[t]
		if !ok {
			continue
		}
		out = append(out, EffectiveStatusDTO{
			Type:     string(s.Type),
			Required: s.Required,
			Reason:   s.Reason,
			IsManual: s.IsManual,
			Status:   string(s.Status),
		})
	}
	return out
}

func toEnrollmentDTO(e *insurance.Enrollment) EnrollmentDTO {
	dto := EnrollmentDTO{
		WorkerID:    string(e.WorkerID),
		SiteID:      string(e.SiteID),
		Month:       e.Month.String(),
		MonthlyWage: e.MonthlyWage.String(),
		Reason:      e.ManualReason,
		Status:      string(e.Status),
	}
	if !e.UpdatedAt.IsZero() {
		dto.UpdatedAt = e.UpdatedAt.Format(time.RFC3339)
	}
	for _, t := range insurance.AllInsuranceTypes() {
		line := e.Line(t)
		if line.AcquisitionDate == nil && line.LossDate == nil && line.Status == "" {
			continue
		}
		lineDTO := EnrollmentLineDTO{
			Type:   string(t),
			Status: string(line.Status),
			Active: line.IsActive(),
		}
		if line.AcquisitionDate != nil {
			d := line.AcquisitionDate.Format("2006-01-02")
			lineDTO.AcquisitionDate = &d
		}
		if line.LossDate != nil {
			d := line.LossDate.Format("2006-01-02")
			lineDTO.LossDate = &d
		}
		dto.Lines = append(dto.Lines, lineDTO)
	}
	return dto
}

func toEventDTO(ev insurance.EnrollmentEvent) EnrollmentEventDTO {
	return EnrollmentEventDTO{
		ID:            ev.ID,
		WorkerID:      string(ev.WorkerID),
		SiteID:        string(ev.SiteID),
		Month:         ev.Month.String(),
		Type:          string(ev.Type),
		Action:        string(ev.Action),
		EffectiveDate: ev.EffectiveDate.Format("2006-01-02"),
		Status:        string(ev.Status),
		Reason:        ev.Reason,
		RecordedAt:    ev.RecordedAt.Format(time.RFC3339),
	}
}

func toPayrollDTO(workerID, siteID string, month insurance.YearMonth, workDays int, st payroll.Statement) PayrollStatementDTO {
	return PayrollStatementDTO{
		WorkerID:          workerID,
		SiteID:            siteID,
		Month:             month.String(),
		WorkDays:          workDays,
		GrossWage:         st.GrossWage.String(),
		IncomeTax:         st.IncomeTax.String(),
		LocalTax:          st.LocalTax.String(),
		EmploymentPremium: st.EmploymentPremium.String(),
		NetPay:            st.NetPay.String(),
	}
}
