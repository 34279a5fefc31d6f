package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/warp/insurance-engine/api"
	"github.com/warp/insurance-engine/insurance"
	"github.com/warp/insurance-engine/store/memory"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func newTestServer() *httptest.Server {
	store := memory.New()
	engine := insurance.NewEngine(insurance.Stores{
		Workers:     store,
		WorkRecords: store,
		Enrollments: store,
		Overrides:   store,
		Events:      store,
	}, insurance.NewMemoryCache(), insurance.DefaultRuleConfig())
	engine.Classifier.Logf = func(string, ...any) {}
	return httptest.NewServer(api.NewRouter(api.NewHandler(engine)))
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(into); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func createWorker(t *testing.T, base, id string) {
	t.Helper()
	resp := doJSON(t, http.MethodPost, base+"/api/workers", api.CreateWorkerRequest{
		ID:             id,
		Name:           "Worker " + id,
		ResidentNumber: "8503011234567",
		Nationality:    "KR",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create worker %s: status %d", id, resp.StatusCode)
	}
}

func saveMarchRecords(t *testing.T, base, workerID string, days int) {
	t.Helper()
	var rows []api.WorkRecordDTO
	for i := 1; i <= days; i++ {
		rows = append(rows, api.WorkRecordDTO{
			Date:  insurance.YearMonth{Year: 2025, Month: 3}.Start().AddDate(0, 0, i-1).Format("2006-01-02"),
			Hours: "8",
			Wage:  "200000",
		})
	}
	resp := doJSON(t, http.MethodPut,
		base+"/api/workers/"+workerID+"/records?site=s-1&month=2025-03",
		api.SaveRecordsRequest{Records: rows})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("save records: status %d", resp.StatusCode)
	}
}

// =============================================================================
// WORKER ENDPOINTS
// =============================================================================

func TestAPI_WorkerLifecycle(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	createWorker(t, server.URL, "w-1")

	var got api.WorkerDTO
	decode(t, doJSON(t, http.MethodGet, server.URL+"/api/workers/w-1", nil), &got)
	if got.ID != "w-1" || got.Category != "daily" {
		t.Errorf("unexpected worker payload: %+v", got)
	}

	resp := doJSON(t, http.MethodGet, server.URL+"/api/workers/w-missing", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown worker, got %d", resp.StatusCode)
	}

	resp = doJSON(t, http.MethodPost, server.URL+"/api/workers", api.CreateWorkerRequest{
		ID: "w-bad", Name: "Bad", ResidentNumber: "999",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for an unparseable resident number, got %d", resp.StatusCode)
	}
}

// =============================================================================
// RECORDS AND HISTORY
// =============================================================================

func TestAPI_RecordsAndHistory(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	createWorker(t, server.URL, "w-1")
	saveMarchRecords(t, server.URL, "w-1", 5)

	var history api.WorkHistoryDTO
	decode(t, doJSON(t, http.MethodGet,
		server.URL+"/api/workers/w-1/history?site=s-1&month=2025-03", nil), &history)

	if history.CurrentMonthWorkDays != 5 {
		t.Errorf("expected 5 work days, got %d", history.CurrentMonthWorkDays)
	}
	if history.CurrentMonthWorkHours != "40" {
		t.Errorf("expected 40 hours, got %s", history.CurrentMonthWorkHours)
	}
	if history.MonthlyWage != "1000000" {
		t.Errorf("expected wage 1000000, got %s", history.MonthlyWage)
	}
}

// =============================================================================
// STATUS AND OVERRIDES
// =============================================================================

func TestAPI_StatusWithOverride(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	createWorker(t, server.URL, "w-1")
	saveMarchRecords(t, server.URL, "w-1", 5)

	override := api.SetOverrideRequest{
		WorkerID: "w-1", SiteID: "s-1", Month: "2025-03",
		Type: "national_pension", Status: "manual_required",
		Reason: "requested enrollment",
	}
	resp := doJSON(t, http.MethodPost, server.URL+"/api/overrides", override)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("set override: status %d", resp.StatusCode)
	}
	resp = doJSON(t, http.MethodPost, server.URL+"/api/overrides/save", api.OverrideKeyRequest{
		WorkerID: "w-1", SiteID: "s-1", Month: "2025-03",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("save override: status %d", resp.StatusCode)
	}

	var summary api.StatusSummaryDTO
	decode(t, doJSON(t, http.MethodGet,
		server.URL+"/api/workers/w-1/status?site=s-1&month=2025-03", nil), &summary)

	if len(summary.Statuses) != 4 {
		t.Fatalf("expected all four programs, got %d", len(summary.Statuses))
	}
	var pension *api.EffectiveStatusDTO
	for i := range summary.Statuses {
		if summary.Statuses[i].Type == "national_pension" {
			pension = &summary.Statuses[i]
		}
	}
	if pension == nil || !pension.IsManual || pension.Status != "manual_required" || !pension.Required {
		t.Fatalf("expected a manual_required pension status, got %+v", pension)
	}
}

func TestAPI_InvalidOverrideRejected(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	resp := doJSON(t, http.MethodPost, server.URL+"/api/overrides", api.SetOverrideRequest{
		WorkerID: "w-1", SiteID: "s-1", Month: "2025-03",
		Type: "national_pension", Status: "kind_of_required",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for an invalid status code, got %d", resp.StatusCode)
	}
}

// =============================================================================
// ENROLLMENT TRANSITIONS
// =============================================================================

func TestAPI_AcquireLoseAndAudit(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	createWorker(t, server.URL, "w-1")
	saveMarchRecords(t, server.URL, "w-1", 10)

	resp := doJSON(t, http.MethodPost, server.URL+"/api/enrollments/acquire", api.AcquireRequest{
		WorkerID: "w-1", SiteID: "s-1", Month: "2025-03",
		Types:       []string{"national_pension", "employment_insurance"},
		MonthlyWage: "2000000",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("acquire: status %d", resp.StatusCode)
	}

	var rows []api.EnrollmentDTO
	decode(t, doJSON(t, http.MethodGet,
		server.URL+"/api/workers/w-1/enrollments?site=s-1", nil), &rows)
	if len(rows) != 1 || rows[0].Status != "active" || len(rows[0].Lines) != 2 {
		t.Fatalf("unexpected enrollment rows: %+v", rows)
	}

	// Losing twice stays 204; the audit trail gains loss events only once.
	for i := 0; i < 2; i++ {
		resp = doJSON(t, http.MethodPost, server.URL+"/api/enrollments/lose", api.LoseRequest{
			WorkerID: "w-1", SiteID: "s-1", Month: "2025-03",
		})
		resp.Body.Close()
		if resp.StatusCode != http.StatusNoContent {
			t.Fatalf("lose (attempt %d): status %d", i+1, resp.StatusCode)
		}
	}

	var events []api.EnrollmentEventDTO
	decode(t, doJSON(t, http.MethodGet,
		server.URL+"/api/workers/w-1/events?site=s-1", nil), &events)
	if len(events) != 4 { // 2 acquired + 2 lost
		t.Fatalf("expected 4 events, got %d", len(events))
	}
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

func TestAPI_SiteClassification(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	createWorker(t, server.URL, "w-working")
	saveMarchRecords(t, server.URL, "w-working", 8)

	var result api.ClassificationDTO
	decode(t, doJSON(t, http.MethodGet,
		server.URL+"/api/sites/s-1/classification?month=2025-03", nil), &result)

	if len(result.NewCandidates) != 1 || result.NewCandidates[0].ID != "w-working" {
		t.Fatalf("expected one new-enrollment candidate, got %+v", result)
	}
	if len(result.Active) != 0 || len(result.LossCandidates) != 0 {
		t.Errorf("expected empty active/loss lists, got %+v", result)
	}
}

// =============================================================================
// PAYROLL
// =============================================================================

func TestAPI_PayrollStatement(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	createWorker(t, server.URL, "w-1")
	saveMarchRecords(t, server.URL, "w-1", 10) // 10 x 200,000

	var statement api.PayrollStatementDTO
	decode(t, doJSON(t, http.MethodGet,
		server.URL+"/api/workers/w-1/payroll?site=s-1&month=2025-03", nil), &statement)

	if statement.WorkDays != 10 {
		t.Errorf("expected 10 work days, got %d", statement.WorkDays)
	}
	if statement.GrossWage != "2000000" {
		t.Errorf("expected gross 2000000, got %s", statement.GrossWage)
	}
	// Per day: 1,350 income, 130 local, 1,800 premium.
	if statement.IncomeTax != "13500" || statement.LocalTax != "1300" || statement.EmploymentPremium != "18000" {
		t.Errorf("unexpected deductions: %+v", statement)
	}
}

// =============================================================================
// SCENARIOS
// =============================================================================

func TestAPI_ScenarioLoad(t *testing.T) {
	server := newTestServer()
	defer server.Close()

	var list []api.ScenarioDTO
	decode(t, doJSON(t, http.MethodGet, server.URL+"/api/scenarios", nil), &list)
	if len(list) == 0 {
		t.Fatal("expected at least one scenario")
	}

	resp := doJSON(t, http.MethodPost, server.URL+"/api/scenarios/load",
		api.LoadScenarioRequest{ID: "site-lifecycle"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load scenario: status %d", resp.StatusCode)
	}

	var current map[string]string
	decode(t, doJSON(t, http.MethodGet, server.URL+"/api/scenarios/current", nil), &current)
	if current["id"] != "site-lifecycle" {
		t.Errorf("expected site-lifecycle current, got %q", current["id"])
	}

	var workers []api.WorkerDTO
	decode(t, doJSON(t, http.MethodGet, server.URL+"/api/workers", nil), &workers)
	if len(workers) != 3 {
		t.Errorf("expected 3 seeded workers, got %d", len(workers))
	}
}

func pensionStatusAt(t *testing.T, base, workerID, site string) api.EffectiveStatusDTO {
	t.Helper()
	var summary api.StatusSummaryDTO
	decode(t, doJSON(t, http.MethodGet,
		base+"/api/workers/"+workerID+"/status?site="+site, nil), &summary)
	for _, s := range summary.Statuses {
		if s.Type == "national_pension" {
			return s
		}
	}
	t.Fatalf("no pension status for %s", workerID)
	return api.EffectiveStatusDTO{}
}

func TestAPI_PensionThresholdScenarioMatchesAdvertisedCases(t *testing.T) {
	// GIVEN: The pension-thresholds scenario
	// WHEN: Reading each seeded worker's current-month status
	// THEN: Each worker's pension result matches the threshold the
	//       scenario names for them, wage case included

	server := newTestServer()
	defer server.Close()

	resp := doJSON(t, http.MethodPost, server.URL+"/api/scenarios/load",
		api.LoadScenarioRequest{ID: "pension-thresholds"})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load scenario: status %d", resp.StatusCode)
	}

	cases := []struct {
		workerID     string
		wantRequired bool
		wantReason   string
	}{
		{"w-days-over", true, "work days"},
		{"w-hours-over", true, "work hours"},
		{"w-wage-over", true, "monthly wage"},
		{"w-days-under", false, "below day, hour and wage thresholds"},
		{"w-age-capped", false, "60 or older"},
	}
	for _, c := range cases {
		got := pensionStatusAt(t, server.URL, c.workerID, "site-thresholds")
		if got.Required != c.wantRequired {
			t.Errorf("%s: pension required=%v, want %v (reason %q)",
				c.workerID, got.Required, c.wantRequired, got.Reason)
		}
		if !strings.Contains(got.Reason, c.wantReason) {
			t.Errorf("%s: reason %q does not mention %q", c.workerID, got.Reason, c.wantReason)
		}
	}
}
