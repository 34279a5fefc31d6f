/*
scenarios.go - Demo scenario loaders

PURPOSE:
  Seeds the store with small, recognizable data sets so the API can be
  exercised without manual data entry. Each scenario is a named loader
  that creates workers, work records, and (where relevant) enrollments
  and overrides for the current month.

SCENARIOS:
  site-lifecycle     One site with a worker in each lifecycle state
  pension-thresholds Workers straddling the day/hour/wage thresholds
  manual-override    An eligible worker manually exempted with a reason

IDEMPOTENCY:
  Loaders overwrite their own workers and months on reload. They do not
  wipe the rest of the database.

SEE ALSO:
  - handlers.go: Scenario endpoints
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/warp/insurance-engine/insurance"
)

// =============================================================================
// SCENARIO REGISTRY
// =============================================================================

type scenario struct {
	ID          string
	Name        string
	Description string
	Load        func(ctx context.Context, h *Handler) error
}

func scenarios() []scenario {
	return []scenario{
		{
			ID:          "site-lifecycle",
			Name:        "Site Lifecycle",
			Description: "One site with a new-enrollment candidate, an active enrollee, and a loss candidate.",
			Load:        loadSiteLifecycle,
		},
		{
			ID:          "pension-thresholds",
			Name:        "Pension Thresholds",
			Description: "Workers just above and below the 8-day, 60-hour, and wage thresholds, plus one past the age cap.",
			Load:        loadPensionThresholds,
		},
		{
			ID:          "manual-override",
			Name:        "Manual Override",
			Description: "An automatically required worker manually exempted with a recorded reason.",
			Load:        loadManualOverride,
		},
	}
}

// =============================================================================
// SCENARIO HANDLERS
// =============================================================================

// ListScenarios returns the available demo scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	var dtos []ScenarioDTO
	for _, s := range scenarios() {
		dtos = append(dtos, ScenarioDTO{ID: s.ID, Name: s.Name, Description: s.Description})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetCurrentScenario returns the most recently loaded scenario ID.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"id": h.currentScenario})
}

// LoadScenario seeds the store with the requested scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	for _, s := range scenarios() {
		if s.ID != req.ID {
			continue
		}
		if err := s.Load(r.Context(), h); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to load scenario", err)
			return
		}
		h.currentScenario = s.ID
		writeJSON(w, http.StatusOK, map[string]string{"id": s.ID, "status": "loaded"})
		return
	}
	writeError(w, http.StatusNotFound, fmt.Sprintf("Unknown scenario %q", req.ID), nil)
}

// =============================================================================
// SEED HELPERS
// =============================================================================

func seedWorker(ctx context.Context, h *Handler, id, name, residentNumber, nationality, residenceCode string) error {
	return h.Engine.Workers.PutWorker(ctx, &insurance.Worker{
		ID:             insurance.WorkerID(id),
		Name:           name,
		ResidentNumber: residentNumber,
		Nationality:    nationality,
		ResidenceCode:  residenceCode,
		Category:       insurance.CategoryDaily,
	})
}

// seedAttendance writes `days` attendance rows into the month, starting on
// the 1st, each with the given hours and wage.
func seedAttendance(ctx context.Context, h *Handler, workerID, siteID string, month insurance.YearMonth, days int, hours, wage string) error {
	hoursD, err := decimal.NewFromString(hours)
	if err != nil {
		return err
	}
	wageD, err := decimal.NewFromString(wage)
	if err != nil {
		return err
	}

	records := make([]insurance.WorkRecord, 0, days)
	for i := 0; i < days; i++ {
		records = append(records, insurance.WorkRecord{
			ID:    uuid.NewString(),
			Date:  month.Start().AddDate(0, 0, i),
			Hours: hoursD,
			Wage:  wageD,
			Kind:  insurance.KindAttendance,
		})
	}
	return h.Engine.SaveWorkMonth(ctx,
		insurance.WorkerID(workerID), insurance.SiteID(siteID), month, records)
}

// residentNumberFor builds a valid resident-number prefix for a worker of
// the given age as of today (male, 1900s century digit).
func residentNumberFor(age int) string {
	birth := time.Now().UTC().AddDate(-age, 0, -1)
	return birth.Format("060102") + "1234567"
}

// =============================================================================
// LOADERS
// =============================================================================

func loadSiteLifecycle(ctx context.Context, h *Handler) error {
	const site = "site-hanriver"
	month := insurance.CurrentYearMonth()

	// Fresh hire: worked this month, never enrolled.
	if err := seedWorker(ctx, h, "w-fresh", "Kim Jiho", residentNumberFor(34), "KR", ""); err != nil {
		return err
	}
	if err := seedAttendance(ctx, h, "w-fresh", site, month, 12, "8", "180000"); err != nil {
		return err
	}

	// Veteran: worked both months, already enrolled.
	if err := seedWorker(ctx, h, "w-veteran", "Park Sunja", residentNumberFor(45), "KR", ""); err != nil {
		return err
	}
	if err := seedAttendance(ctx, h, "w-veteran", site, month.Previous(), 15, "8", "200000"); err != nil {
		return err
	}
	if err := seedAttendance(ctx, h, "w-veteran", site, month, 10, "8", "200000"); err != nil {
		return err
	}
	err := h.Engine.Acquire(ctx, "w-veteran", site, month,
		insurance.AllInsuranceTypes(), decimal.NewFromInt(2_000_000), "")
	if err != nil {
		return err
	}

	// Departed: enrolled last month, no work this month.
	if err := seedWorker(ctx, h, "w-departed", "Lee Mansu", residentNumberFor(52), "KR", ""); err != nil {
		return err
	}
	if err := seedAttendance(ctx, h, "w-departed", site, month.Previous(), 18, "8", "190000"); err != nil {
		return err
	}
	return h.Engine.Acquire(ctx, "w-departed", site, month.Previous(),
		insurance.AllInsuranceTypes(), decimal.NewFromInt(3_400_000), "")
}

func loadPensionThresholds(ctx context.Context, h *Handler) error {
	const site = "site-thresholds"
	month := insurance.CurrentYearMonth()
	prev := month.Previous()

	// The day and hour thresholds read the PREVIOUS month; the wage
	// threshold reads the CURRENT month's total. Each case seeds both
	// months so exactly one threshold (or none) is met.
	cases := []struct {
		id        string
		name      string
		age       int
		prevDays  int
		prevHours string
		curDays   int
		curHours  string
		curWage   string
	}{
		{"w-days-over", "Over Days", 40, 9, "4", 5, "8", "150000"},    // prev 9 days: days threshold
		{"w-days-under", "Under Days", 40, 7, "4", 5, "8", "150000"},  // prev 7 days, 28h, 750,000: nothing met
		{"w-hours-over", "Over Hours", 40, 7, "9", 5, "8", "150000"},  // prev 63h: hours threshold
		{"w-wage-over", "Over Wage", 40, 7, "4", 7, "4", "320000"},    // current 2,240,000: wage threshold
		{"w-age-capped", "Age Capped", 61, 20, "8", 5, "8", "150000"}, // meets days, past age cap
	}
	for _, c := range cases {
		if err := seedWorker(ctx, h, c.id, c.name, residentNumberFor(c.age), "KR", ""); err != nil {
			return err
		}
		if err := seedAttendance(ctx, h, c.id, site, prev, c.prevDays, c.prevHours, "100000"); err != nil {
			return err
		}
		if err := seedAttendance(ctx, h, c.id, site, month, c.curDays, c.curHours, c.curWage); err != nil {
			return err
		}
	}
	return nil
}

func loadManualOverride(ctx context.Context, h *Handler) error {
	const site = "site-override"
	month := insurance.CurrentYearMonth()

	if err := seedWorker(ctx, h, "w-overridden", "Choi Dongwook", residentNumberFor(38), "KR", ""); err != nil {
		return err
	}
	if err := seedAttendance(ctx, h, "w-overridden", site, month.Previous(), 14, "8", "210000"); err != nil {
		return err
	}
	if err := seedAttendance(ctx, h, "w-overridden", site, month, 14, "8", "210000"); err != nil {
		return err
	}

	key := insurance.SummaryKey{
		WorkerID: "w-overridden",
		SiteID:   site,
		Month:    month,
	}
	err := h.Engine.Overrides.Set(ctx, key, insurance.NationalPension,
		insurance.ManualExempted, "already enrolled through another employer")
	if err != nil {
		return err
	}
	return h.Engine.Overrides.Save(ctx, key)
}
