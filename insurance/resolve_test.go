package insurance_test

import (
	"context"
	"testing"
	"time"

	"github.com/warp/insurance-engine/insurance"
	"github.com/warp/insurance-engine/store/memory"
)

// =============================================================================
// RESOLUTION TESTS
// =============================================================================

func autoResult(required bool) insurance.EligibilityResult {
	return insurance.EligibilityResult{
		Type:     insurance.NationalPension,
		Required: required,
		Reason:   "computed reason",
	}
}

func TestResolve_NoOverridePassesThrough(t *testing.T) {
	status := insurance.Resolve(autoResult(true), nil)

	if !status.Required || status.IsManual {
		t.Fatalf("expected auto-required pass-through, got %+v", status)
	}
	if status.Status != insurance.AutoRequired {
		t.Errorf("expected auto_required, got %s", status.Status)
	}
	if status.Reason != "computed reason" {
		t.Errorf("expected the computed reason, got %q", status.Reason)
	}

	exempted := insurance.Resolve(autoResult(false), nil)
	if exempted.Status != insurance.AutoExempted {
		t.Errorf("expected auto_exempted, got %s", exempted.Status)
	}
}

func TestResolve_ManualOverrideWinsEntirely(t *testing.T) {
	// GIVEN: Computed required=true and a manual exemption with a reason
	// WHEN: Resolving
	// THEN: Required flips to false and the manual reason replaces the
	//       computed one

	override := &insurance.ManualOverride{
		Statuses: map[insurance.InsuranceType]insurance.StatusCode{
			insurance.NationalPension: insurance.ManualExempted,
		},
		Reason: "already covered elsewhere",
	}

	status := insurance.Resolve(autoResult(true), override)
	if status.Required {
		t.Fatal("manual exemption must flip required to false")
	}
	if !status.IsManual || status.Status != insurance.ManualExempted {
		t.Errorf("expected manual_exempted, got %+v", status)
	}
	if status.Reason != "already covered elsewhere" {
		t.Errorf("expected the manual reason, got %q", status.Reason)
	}
}

func TestResolve_ManualRequiredOverridesExemption(t *testing.T) {
	override := &insurance.ManualOverride{
		Statuses: map[insurance.InsuranceType]insurance.StatusCode{
			insurance.NationalPension: insurance.ManualRequired,
		},
	}

	status := insurance.Resolve(autoResult(false), override)
	if !status.Required || status.Status != insurance.ManualRequired {
		t.Fatalf("expected manual_required, got %+v", status)
	}
	if status.Reason != "manual decision" {
		t.Errorf("expected the generic manual reason, got %q", status.Reason)
	}
}

func TestResolveAll_PartialOverrideAffectsOnlyItsTypes(t *testing.T) {
	// GIVEN: All four computed results and an override on pension only
	// WHEN: Resolving all
	// THEN: Pension is manual, the other three pass through

	elig := map[insurance.InsuranceType]insurance.EligibilityResult{}
	for _, typ := range insurance.AllInsuranceTypes() {
		elig[typ] = insurance.EligibilityResult{Type: typ, Required: true, Reason: "computed"}
	}
	override := &insurance.ManualOverride{
		Statuses: map[insurance.InsuranceType]insurance.StatusCode{
			insurance.NationalPension: insurance.ManualExempted,
		},
	}

	statuses := insurance.ResolveAll(elig, override)
	if !statuses[insurance.NationalPension].IsManual {
		t.Error("pension should be manual")
	}
	for _, typ := range []insurance.InsuranceType{
		insurance.HealthInsurance, insurance.EmploymentInsurance, insurance.IndustrialAccident,
	} {
		if statuses[typ].IsManual {
			t.Errorf("%s should not be affected by the pension override", typ)
		}
	}
}

// =============================================================================
// OVERRIDE EDITOR TESTS
// =============================================================================

func editorKey() insurance.SummaryKey {
	return insurance.SummaryKey{
		WorkerID: "w-1",
		SiteID:   "s-1",
		Month:    insurance.YearMonth{Year: 2025, Month: time.March},
	}
}

func TestOverrideEditor_ProvisionalInvisibleUntilSave(t *testing.T) {
	// GIVEN: A provisional Set in one editor session
	// WHEN: Reading through a second editor over the same store
	// THEN: The second session sees nothing until the first saves

	store := memory.New()
	ctx := context.Background()
	session := insurance.NewOverrideEditor(store)
	other := insurance.NewOverrideEditor(store)
	key := editorKey()

	err := session.Set(ctx, key, insurance.NationalPension, insurance.ManualExempted, "dual coverage")
	if err != nil {
		t.Fatalf("set: %v", err)
	}

	mine, _ := session.Effective(ctx, key)
	if _, ok := mine.StatusFor(insurance.NationalPension); !ok {
		t.Fatal("the editing session must see its own pending edit")
	}

	theirs, _ := other.Effective(ctx, key)
	if _, ok := theirs.StatusFor(insurance.NationalPension); ok {
		t.Fatal("another session must not see an unsaved edit")
	}

	if err := session.Save(ctx, key); err != nil {
		t.Fatalf("save: %v", err)
	}
	theirs, _ = other.Effective(ctx, key)
	code, ok := theirs.StatusFor(insurance.NationalPension)
	if !ok || code != insurance.ManualExempted {
		t.Fatalf("expected the persisted override after save, got %v (present=%v)", code, ok)
	}
}

func TestOverrideEditor_DiscardDropsPendingOnly(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	editor := insurance.NewOverrideEditor(store)
	key := editorKey()

	if err := editor.Set(ctx, key, insurance.NationalPension, insurance.ManualRequired, ""); err != nil {
		t.Fatalf("set: %v", err)
	}
	editor.Discard(key)

	ov, err := editor.Effective(ctx, key)
	if err != nil {
		t.Fatalf("effective: %v", err)
	}
	if _, ok := ov.StatusFor(insurance.NationalPension); ok {
		t.Fatal("discard must drop the pending edit")
	}
	if persisted, _ := store.GetOverride(ctx, key.WorkerID, key.SiteID, key.Month); persisted != nil {
		t.Fatal("discard must never touch the backend")
	}
}

func TestOverrideEditor_EditSeedsFromPersistedRecord(t *testing.T) {
	// GIVEN: A persisted override on pension
	// WHEN: A new session sets health and saves
	// THEN: The pension decision survives

	store := memory.New()
	ctx := context.Background()
	key := editorKey()

	first := insurance.NewOverrideEditor(store)
	if err := first.Set(ctx, key, insurance.NationalPension, insurance.ManualExempted, "pension reason"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := first.Save(ctx, key); err != nil {
		t.Fatalf("save: %v", err)
	}

	second := insurance.NewOverrideEditor(store)
	if err := second.Set(ctx, key, insurance.HealthInsurance, insurance.ManualRequired, ""); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := second.Save(ctx, key); err != nil {
		t.Fatalf("save: %v", err)
	}

	persisted, _ := store.GetOverride(ctx, key.WorkerID, key.SiteID, key.Month)
	if code, ok := persisted.StatusFor(insurance.NationalPension); !ok || code != insurance.ManualExempted {
		t.Errorf("pension decision lost: %v (present=%v)", code, ok)
	}
	if code, ok := persisted.StatusFor(insurance.HealthInsurance); !ok || code != insurance.ManualRequired {
		t.Errorf("health decision missing: %v (present=%v)", code, ok)
	}
}

func TestOverrideEditor_ClearingEveryTypeDeletesTheRecord(t *testing.T) {
	// GIVEN: A persisted single-type override
	// WHEN: Clearing that type and saving
	// THEN: The record is deleted; computed eligibility applies again

	store := memory.New()
	ctx := context.Background()
	key := editorKey()

	editor := insurance.NewOverrideEditor(store)
	if err := editor.Set(ctx, key, insurance.NationalPension, insurance.ManualExempted, ""); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := editor.Save(ctx, key); err != nil {
		t.Fatalf("save: %v", err)
	}

	if err := editor.Set(ctx, key, insurance.NationalPension, insurance.ManualExempted, ""); err != nil {
		t.Fatalf("re-open edit: %v", err)
	}
	if err := editor.Clear(ctx, key, insurance.NationalPension); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := editor.Save(ctx, key); err != nil {
		t.Fatalf("save after clear: %v", err)
	}

	persisted, err := store.GetOverride(ctx, key.WorkerID, key.SiteID, key.Month)
	if err != nil {
		t.Fatalf("get override: %v", err)
	}
	if persisted != nil {
		t.Fatalf("expected the override deleted, got %+v", persisted)
	}
}

func TestOverrideEditor_RejectsInvalidInput(t *testing.T) {
	editor := insurance.NewOverrideEditor(memory.New())
	ctx := context.Background()

	if err := editor.Set(ctx, insurance.SummaryKey{}, insurance.NationalPension, insurance.ManualRequired, ""); err == nil {
		t.Error("expected an error for an empty key")
	}
	if err := editor.Set(ctx, editorKey(), "dental", insurance.ManualRequired, ""); err == nil {
		t.Error("expected an error for an unknown insurance type")
	}
	if err := editor.Set(ctx, editorKey(), insurance.NationalPension, "sort_of_required", ""); err == nil {
		t.Error("expected an error for an invalid status code")
	}
}
