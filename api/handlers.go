/*
handlers.go - HTTP API handlers for the insurance lifecycle engine

PURPOSE:
  Exposes the eligibility and enrollment engine via REST API. Handles HTTP
  request/response, JSON serialization, and delegates to domain logic.

ENDPOINTS:
  Workers:
    GET    /api/workers                      List all workers
    POST   /api/workers                      Create/update worker
    GET    /api/workers/{id}                 Get worker details
    GET    /api/workers/{id}/history         Month work summary
    GET    /api/workers/{id}/status          Effective insurance statuses
    PUT    /api/workers/{id}/records         Replace a month of records
    GET    /api/workers/{id}/payroll         Monthly deduction statement
    GET    /api/workers/{id}/events          Enrollment event trail
    GET    /api/workers/{id}/enrollments     Enrollment rows

  Sites:
    GET    /api/sites/{id}/classification    Three-way lifecycle partition

  Enrollments:
    POST   /api/enrollments/acquire          Record acquisitions
    POST   /api/enrollments/lose             Record losses (idempotent)

  Overrides:
    POST   /api/overrides                    Provisional manual decision
    POST   /api/overrides/save               Persist pending edits
    POST   /api/overrides/discard            Drop pending edits

  Scenarios:
    GET    /api/scenarios                    List demo scenarios
    POST   /api/scenarios/load               Load a demo scenario

QUERY CONVENTIONS:
  Month-scoped reads take ?site=SITE&month=YYYY-MM. Month defaults to the
  current calendar month when omitted.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, missing prerequisites, invalid input
  - 404: Worker or enrollment not found
  - 500: Backend failures

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/insurance-engine/insurance"
	"github.com/warp/insurance-engine/payroll"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine *insurance.Engine

	// Track currently loaded scenario
	currentScenario string
}

// NewHandler creates a new handler over the engine facade.
func NewHandler(engine *insurance.Engine) *Handler {
	return &Handler{Engine: engine}
}

// =============================================================================
// QUERY PARSING HELPERS
// =============================================================================

// monthParam parses ?month=YYYY-MM, defaulting to the current month.
func monthParam(r *http.Request) (insurance.YearMonth, error) {
	raw := r.URL.Query().Get("month")
	if raw == "" {
		return insurance.CurrentYearMonth(), nil
	}
	return insurance.ParseYearMonth(raw)
}

func siteParam(r *http.Request) insurance.SiteID {
	return insurance.SiteID(r.URL.Query().Get("site"))
}

func parseTypes(raw []string) ([]insurance.InsuranceType, bool) {
	out := make([]insurance.InsuranceType, 0, len(raw))
	for _, s := range raw {
		t := insurance.InsuranceType(s)
		if !insurance.ValidInsuranceType(t) {
			return nil, false
		}
		out = append(out, t)
	}
	return out, true
}

// =============================================================================
// WORKER HANDLERS
// =============================================================================

// ListWorkers returns all workers.
func (h *Handler) ListWorkers(w http.ResponseWriter, r *http.Request) {
	workers, err := h.Engine.Workers.ListWorkers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list workers", err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkerDTOs(workers))
}

// GetWorker returns a single worker.
func (h *Handler) GetWorker(w http.ResponseWriter, r *http.Request) {
	id := insurance.WorkerID(chi.URLParam(r, "id"))

	worker, err := h.Engine.Workers.GetWorker(r.Context(), id)
	if insurance.IsNotFound(err) {
		writeError(w, http.StatusNotFound, "Worker not found", nil)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get worker", err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkerDTO(worker))
}

// CreateWorker creates or updates a worker.
func (h *Handler) CreateWorker(w http.ResponseWriter, r *http.Request) {
	var req CreateWorkerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.ID == "" || req.Name == "" || req.ResidentNumber == "" {
		writeError(w, http.StatusBadRequest, "id, name and resident_number are required", nil)
		return
	}

	category := insurance.WorkerCategory(req.Category)
	if category == "" {
		category = insurance.CategoryDaily
	}

	worker := &insurance.Worker{
		ID:             insurance.WorkerID(req.ID),
		Name:           req.Name,
		ResidentNumber: req.ResidentNumber,
		Nationality:    req.Nationality,
		ResidenceCode:  req.ResidenceCode,
		Category:       category,
		JobCode:        req.JobCode,
		ContactNumber:  req.ContactNumber,
	}
	if _, err := worker.BirthDate(); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid resident_number", err)
		return
	}

	if err := h.Engine.Workers.PutWorker(r.Context(), worker); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save worker", err)
		return
	}
	writeJSON(w, http.StatusCreated, toWorkerDTO(worker))
}

// =============================================================================
// WORK HISTORY HANDLERS
// =============================================================================

// GetWorkHistory returns the aggregated month summary.
// GET /api/workers/{id}/history?site=S&month=YYYY-MM
func (h *Handler) GetWorkHistory(w http.ResponseWriter, r *http.Request) {
	workerID := insurance.WorkerID(chi.URLParam(r, "id"))
	siteID := siteParam(r)
	month, err := monthParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
		return
	}

	summary, err := h.Engine.LoadWorkHistory(r.Context(), workerID, siteID, month)
	if err != nil {
		writeDomainError(w, "Failed to load work history", err)
		return
	}
	writeJSON(w, http.StatusOK, toHistoryDTO(summary))
}

// SaveWorkRecords replaces one month of attendance/registration rows.
// PUT /api/workers/{id}/records?site=S&month=YYYY-MM
func (h *Handler) SaveWorkRecords(w http.ResponseWriter, r *http.Request) {
	workerID := insurance.WorkerID(chi.URLParam(r, "id"))
	siteID := siteParam(r)
	month, err := monthParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
		return
	}

	var req SaveRecordsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	records := make([]insurance.WorkRecord, 0, len(req.Records))
	for _, row := range req.Records {
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid record date (use YYYY-MM-DD)", err)
			return
		}
		kind := insurance.RecordKind(row.Kind)
		if kind == "" {
			kind = insurance.KindAttendance
		}

		record := insurance.WorkRecord{
			ID:    row.ID,
			Date:  date,
			Hours: decimal.Zero,
			Wage:  decimal.Zero,
			Kind:  kind,
		}
		if record.ID == "" {
			record.ID = uuid.NewString()
		}
		if row.Hours != "" {
			if record.Hours, err = decimal.NewFromString(row.Hours); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid hours", err)
				return
			}
		}
		if row.Wage != "" {
			if record.Wage, err = decimal.NewFromString(row.Wage); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid wage", err)
				return
			}
		}
		records = append(records, record)
	}

	if err := h.Engine.SaveWorkMonth(r.Context(), workerID, siteID, month, records); err != nil {
		writeDomainError(w, "Failed to save records", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// STATUS AND OVERRIDE HANDLERS
// =============================================================================

// GetEffectiveStatus returns the resolved statuses for all four programs.
// GET /api/workers/{id}/status?site=S&month=YYYY-MM
func (h *Handler) GetEffectiveStatus(w http.ResponseWriter, r *http.Request) {
	workerID := insurance.WorkerID(chi.URLParam(r, "id"))
	siteID := siteParam(r)
	month, err := monthParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
		return
	}

	statuses, err := h.Engine.LoadEffectiveStatuses(r.Context(), workerID, siteID, month)
	if err != nil {
		writeDomainError(w, "Failed to resolve statuses", err)
		return
	}

	writeJSON(w, http.StatusOK, StatusSummaryDTO{
		WorkerID: string(workerID),
		SiteID:   string(siteID),
		Month:    month.String(),
		Statuses: toStatusDTOs(statuses),
	})
}

// SetOverride records a provisional manual decision for one type.
//
// The server shares one OverrideEditor across all requests, so pending
// edits are visible to every client of this process until saved or
// discarded. Per-client isolation needs per-session editors, which
// needs client identity this API does not carry.
//
// POST /api/overrides
func (h *Handler) SetOverride(w http.ResponseWriter, r *http.Request) {
	var req SetOverrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	key, err := overrideKey(req.WorkerID, req.SiteID, req.Month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid override key", err)
		return
	}

	err = h.Engine.Overrides.Set(r.Context(), key,
		insurance.InsuranceType(req.Type), insurance.StatusCode(req.Status), req.Reason)
	if err != nil {
		writeDomainError(w, "Failed to set override", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveOverride persists the pending edits for a worker/site/month.
// POST /api/overrides/save
func (h *Handler) SaveOverride(w http.ResponseWriter, r *http.Request) {
	var req OverrideKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	key, err := overrideKey(req.WorkerID, req.SiteID, req.Month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid override key", err)
		return
	}

	if err := h.Engine.Overrides.Save(r.Context(), key); err != nil {
		writeDomainError(w, "Failed to save override", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DiscardOverride drops the pending edits without persisting.
// POST /api/overrides/discard
func (h *Handler) DiscardOverride(w http.ResponseWriter, r *http.Request) {
	var req OverrideKeyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	key, err := overrideKey(req.WorkerID, req.SiteID, req.Month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid override key", err)
		return
	}

	h.Engine.Overrides.Discard(key)
	w.WriteHeader(http.StatusNoContent)
}

func overrideKey(workerID, siteID, month string) (insurance.SummaryKey, error) {
	ym, err := insurance.ParseYearMonth(month)
	if err != nil {
		return insurance.SummaryKey{}, err
	}
	return insurance.SummaryKey{
		WorkerID: insurance.WorkerID(workerID),
		SiteID:   insurance.SiteID(siteID),
		Month:    ym,
	}, nil
}

// =============================================================================
// CLASSIFICATION HANDLERS
// =============================================================================

// GetClassification returns the three-way lifecycle partition for a site.
// GET /api/sites/{id}/classification?month=YYYY-MM
func (h *Handler) GetClassification(w http.ResponseWriter, r *http.Request) {
	siteID := insurance.SiteID(chi.URLParam(r, "id"))
	month, err := monthParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
		return
	}

	result, err := h.Engine.ClassifySite(r.Context(), siteID, month)
	if err != nil {
		writeDomainError(w, "Failed to classify site", err)
		return
	}

	writeJSON(w, http.StatusOK, ClassificationDTO{
		SiteID:         string(result.SiteID),
		Month:          result.Month.String(),
		NewCandidates:  toWorkerDTOs(result.NewCandidates),
		Active:         toWorkerDTOs(result.Active),
		LossCandidates: toWorkerDTOs(result.LossCandidates),
		Skipped:        result.Skipped,
	})
}

// =============================================================================
// ENROLLMENT HANDLERS
// =============================================================================

// Acquire records insurance acquisitions for a worker/site/month.
// POST /api/enrollments/acquire
func (h *Handler) Acquire(w http.ResponseWriter, r *http.Request) {
	var req AcquireRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	month, err := insurance.ParseYearMonth(req.Month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
		return
	}
	types, ok := parseTypes(req.Types)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid insurance type", nil)
		return
	}

	wage := decimal.Zero
	if req.MonthlyWage != "" {
		if wage, err = decimal.NewFromString(req.MonthlyWage); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid monthly_wage", err)
			return
		}
	}

	err = h.Engine.Acquire(r.Context(),
		insurance.WorkerID(req.WorkerID), insurance.SiteID(req.SiteID),
		month, types, wage, req.Reason)
	if err != nil {
		writeDomainError(w, "Failed to record acquisition", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Lose records insurance losses. Idempotent: already-lost types are
// skipped silently.
// POST /api/enrollments/lose
func (h *Handler) Lose(w http.ResponseWriter, r *http.Request) {
	var req LoseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	types, ok := parseTypes(req.Types)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid insurance type", nil)
		return
	}

	var month *insurance.YearMonth
	if req.Month != "" {
		ym, err := insurance.ParseYearMonth(req.Month)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
			return
		}
		month = &ym
	}

	err := h.Engine.Lose(r.Context(),
		insurance.WorkerID(req.WorkerID), insurance.SiteID(req.SiteID), month, types)
	if err != nil {
		writeDomainError(w, "Failed to record loss", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListEnrollments returns the enrollment rows for a worker/site.
// GET /api/workers/{id}/enrollments?site=S
func (h *Handler) ListEnrollments(w http.ResponseWriter, r *http.Request) {
	workerID := insurance.WorkerID(chi.URLParam(r, "id"))
	siteID := siteParam(r)

	rows, err := h.Engine.Enrollments.ListEnrollments(r.Context(), workerID, siteID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list enrollments", err)
		return
	}
	dtos := make([]EnrollmentDTO, len(rows))
	for i, row := range rows {
		dtos[i] = toEnrollmentDTO(row)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ListEvents returns the append-only transition trail for a worker/site.
// GET /api/workers/{id}/events?site=S
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	workerID := insurance.WorkerID(chi.URLParam(r, "id"))
	siteID := siteParam(r)

	events, err := h.Engine.Events.ListEvents(r.Context(), workerID, siteID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list events", err)
		return
	}
	dtos := make([]EnrollmentEventDTO, len(events))
	for i, ev := range events {
		dtos[i] = toEventDTO(ev)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// PAYROLL HANDLERS
// =============================================================================

// GetPayrollStatement returns the month's deduction breakdown, computed
// per attendance day then summed.
// GET /api/workers/{id}/payroll?site=S&month=YYYY-MM
func (h *Handler) GetPayrollStatement(w http.ResponseWriter, r *http.Request) {
	workerID := insurance.WorkerID(chi.URLParam(r, "id"))
	siteID := siteParam(r)
	month, err := monthParam(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid month (use YYYY-MM)", err)
		return
	}
	if workerID == "" || siteID == "" {
		writeError(w, http.StatusBadRequest, "worker and site are required", nil)
		return
	}

	records, err := h.Engine.Aggregator.Records.ListMonth(r.Context(), workerID, siteID, month)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load records", err)
		return
	}

	// One wage per distinct attendance date; registration rows carry none.
	byDate := make(map[string]decimal.Decimal)
	for _, rec := range records {
		if rec.IsRegistration() {
			continue
		}
		byDate[rec.DateKey()] = rec.Wage
	}
	wages := make([]decimal.Decimal, 0, len(byDate))
	for _, wage := range byDate {
		wages = append(wages, wage)
	}

	statement := payroll.Monthly(wages)
	writeJSON(w, http.StatusOK, toPayrollDTO(string(workerID), string(siteID), month, len(wages), statement))
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the error taxonomy onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case insurance.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case insurance.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
