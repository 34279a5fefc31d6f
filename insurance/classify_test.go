package insurance_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/insurance-engine/insurance"
)

// =============================================================================
// TEST HELPERS
// =============================================================================

func quietClassifier() *insurance.Classifier {
	return &insurance.Classifier{Logf: func(string, ...any) {}}
}

func namedWorker(id insurance.WorkerID) *insurance.Worker {
	return &insurance.Worker{
		ID:             id,
		Name:           string(id),
		ResidentNumber: "8503011234567",
		Nationality:    "KR",
		Category:       insurance.CategoryDaily,
	}
}

func workingSummary(id insurance.WorkerID, site insurance.SiteID, month insurance.YearMonth) *insurance.WorkHistorySummary {
	return &insurance.WorkHistorySummary{
		Key:                   insurance.SummaryKey{WorkerID: id, SiteID: site, Month: month},
		CurrentMonthWorkDays:  10,
		CurrentMonthWorkHours: decimal.NewFromInt(80),
	}
}

func idleSummary(id insurance.WorkerID, site insurance.SiteID, month insurance.YearMonth) *insurance.WorkHistorySummary {
	return &insurance.WorkHistorySummary{
		Key: insurance.SummaryKey{WorkerID: id, SiteID: site, Month: month},
	}
}

func activeEnrollment(id insurance.WorkerID, site insurance.SiteID, month insurance.YearMonth) *insurance.Enrollment {
	acq := month.Start()
	return &insurance.Enrollment{
		WorkerID: id,
		SiteID:   site,
		Month:    month,
		Lines: map[insurance.InsuranceType]insurance.EnrollmentLine{
			insurance.NationalPension: {AcquisitionDate: &acq, Status: insurance.AutoRequired},
		},
		Status: insurance.EnrollmentActive,
	}
}

func closedEnrollment(id insurance.WorkerID, site insurance.SiteID, month insurance.YearMonth) *insurance.Enrollment {
	acq := month.Start()
	loss := acq.AddDate(0, 0, 10)
	return &insurance.Enrollment{
		WorkerID: id,
		SiteID:   site,
		Month:    month,
		Lines: map[insurance.InsuranceType]insurance.EnrollmentLine{
			insurance.NationalPension: {AcquisitionDate: &acq, LossDate: &loss, Status: insurance.AutoRequired},
		},
		Status: insurance.EnrollmentClosed,
	}
}

// =============================================================================
// PARTITION TESTS
// =============================================================================

func TestClassify_ThreeWayPartition(t *testing.T) {
	// GIVEN: A worker in each of the three situations
	// WHEN: Classifying the site month
	// THEN: Each lands in exactly one list

	site := insurance.SiteID("s-1")
	month := insurance.YearMonth{Year: 2025, Month: time.March}

	workers := []*insurance.Worker{
		namedWorker("w-new"), namedWorker("w-active"), namedWorker("w-loss"),
	}
	histories := map[insurance.WorkerID]*insurance.WorkHistorySummary{
		"w-new":    workingSummary("w-new", site, month),
		"w-active": workingSummary("w-active", site, month),
		"w-loss":   idleSummary("w-loss", site, month),
	}
	enrollments := map[insurance.WorkerID]*insurance.Enrollment{
		"w-active": activeEnrollment("w-active", site, month),
		"w-loss":   activeEnrollment("w-loss", site, month),
	}

	result := quietClassifier().Classify(site, month, workers, histories, enrollments)

	if len(result.NewCandidates) != 1 || result.NewCandidates[0].ID != "w-new" {
		t.Errorf("expected [w-new] as new candidates, got %v", result.NewCandidates)
	}
	if len(result.Active) != 1 || result.Active[0].ID != "w-active" {
		t.Errorf("expected [w-active] as active, got %v", result.Active)
	}
	if len(result.LossCandidates) != 1 || result.LossCandidates[0].ID != "w-loss" {
		t.Errorf("expected [w-loss] as loss candidates, got %v", result.LossCandidates)
	}

	// Each population member appears in exactly one list.
	for _, w := range workers {
		if _, ok := result.StateOf(w.ID); !ok {
			t.Errorf("worker %s missing from the partition", w.ID)
		}
	}
}

func TestClassify_NeitherWorkingNorEnrolledExcluded(t *testing.T) {
	// GIVEN: A worker with no current work and no active enrollment
	// WHEN: Classifying
	// THEN: Not a population member, absent from all three lists

	site := insurance.SiteID("s-1")
	month := insurance.YearMonth{Year: 2025, Month: time.March}

	workers := []*insurance.Worker{namedWorker("w-gone")}
	histories := map[insurance.WorkerID]*insurance.WorkHistorySummary{
		"w-gone": idleSummary("w-gone", site, month),
	}

	result := quietClassifier().Classify(site, month, workers, histories, nil)
	if _, ok := result.StateOf("w-gone"); ok {
		t.Error("a worker with neither work nor enrollment must be excluded")
	}
}

func TestClassify_ClosedEnrollmentDoesNotCountAsActive(t *testing.T) {
	// GIVEN: A working worker whose only enrollment is fully lost
	// WHEN: Classifying
	// THEN: New-enrollment candidate, not active

	site := insurance.SiteID("s-1")
	month := insurance.YearMonth{Year: 2025, Month: time.March}

	workers := []*insurance.Worker{namedWorker("w-1")}
	histories := map[insurance.WorkerID]*insurance.WorkHistorySummary{
		"w-1": workingSummary("w-1", site, month),
	}
	enrollments := map[insurance.WorkerID]*insurance.Enrollment{
		"w-1": closedEnrollment("w-1", site, month),
	}

	result := quietClassifier().Classify(site, month, workers, histories, enrollments)
	state, ok := result.StateOf("w-1")
	if !ok || state != insurance.NewEnrollmentCandidate {
		t.Errorf("expected new_enrollment_candidate, got %v (present=%v)", state, ok)
	}
}

func TestClassify_RegistrationOnlyCountsAsPresence(t *testing.T) {
	// GIVEN: A registered-but-not-worked month and no enrollment
	// WHEN: Classifying
	// THEN: New-enrollment candidate

	site := insurance.SiteID("s-1")
	month := insurance.YearMonth{Year: 2025, Month: time.March}

	s := idleSummary("w-1", site, month)
	s.IsRegisteredCurrentMonth = true

	result := quietClassifier().Classify(site, month,
		[]*insurance.Worker{namedWorker("w-1")},
		map[insurance.WorkerID]*insurance.WorkHistorySummary{"w-1": s}, nil)

	state, ok := result.StateOf("w-1")
	if !ok || state != insurance.NewEnrollmentCandidate {
		t.Errorf("expected new_enrollment_candidate for a registered month, got %v", state)
	}
}

// =============================================================================
// EDGE CASES
// =============================================================================

func TestClassify_MissingSummaryIsConservative(t *testing.T) {
	// GIVEN: Workers with no history summary at all
	// WHEN: Classifying
	// THEN: New candidate without an enrollment, loss candidate with one

	site := insurance.SiteID("s-1")
	month := insurance.YearMonth{Year: 2025, Month: time.March}

	workers := []*insurance.Worker{namedWorker("w-nosummary"), namedWorker("w-enrolled")}
	enrollments := map[insurance.WorkerID]*insurance.Enrollment{
		"w-enrolled": activeEnrollment("w-enrolled", site, month),
	}

	result := quietClassifier().Classify(site, month, workers, nil, enrollments)

	if state, _ := result.StateOf("w-nosummary"); state != insurance.NewEnrollmentCandidate {
		t.Errorf("expected new_enrollment_candidate for missing summary, got %v", state)
	}
	if state, _ := result.StateOf("w-enrolled"); state != insurance.LossCandidate {
		t.Errorf("expected loss_candidate for missing summary with enrollment, got %v", state)
	}
}

func TestClassify_UnknownWorkerEnrollmentSkippedNotFatal(t *testing.T) {
	// GIVEN: An enrollment referencing a worker absent from the list
	// WHEN: Classifying
	// THEN: The row is counted as skipped and the rest still partitions

	site := insurance.SiteID("s-1")
	month := insurance.YearMonth{Year: 2025, Month: time.March}

	var logged int
	classifier := &insurance.Classifier{Logf: func(string, ...any) { logged++ }}

	workers := []*insurance.Worker{namedWorker("w-1")}
	histories := map[insurance.WorkerID]*insurance.WorkHistorySummary{
		"w-1": workingSummary("w-1", site, month),
	}
	enrollments := map[insurance.WorkerID]*insurance.Enrollment{
		"w-ghost": activeEnrollment("w-ghost", site, month),
	}

	result := classifier.Classify(site, month, workers, histories, enrollments)

	if result.Skipped != 1 {
		t.Errorf("expected 1 skipped row, got %d", result.Skipped)
	}
	if logged == 0 {
		t.Error("expected the inconsistency to be logged")
	}
	if state, _ := result.StateOf("w-1"); state != insurance.NewEnrollmentCandidate {
		t.Errorf("the rest of the batch should still classify, got %v", state)
	}
}
