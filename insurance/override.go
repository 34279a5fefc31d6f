/*
override.go - Manual eligibility overrides with a provisional edit layer

PURPOSE:
  A human can supersede the computed eligibility for any insurance type
  with manual_required or manual_exempted plus a free-text reason. The
  override has two layers:

    provisional edit  - in-memory, visible only to the editing session
    persisted record  - written on Save, the only layer other sessions see

  Reads within the editing session merge pending edits over the persisted
  record; everything else reads the persisted record alone.

SESSION SCOPE:
  A "session" is one OverrideEditor instance. The editor carries no
  client identity, so callers that share a single editor (the HTTP
  server shares one across all requests) share one editing session:
  every reader through that editor sees pending edits before Save.
  Isolation between concurrent human editors requires one editor per
  session, keyed by whatever identity the caller has.

LIFECYCLE:
  Set -> (more Sets) -> Save (write-through) or Discard.
  A persisted override lasts until the next override or deletion.
  Absence means "defer to computed eligibility".

VALIDATION:
  Only that the status code is one of the four-value enum. The reason is
  free text and may be empty.

SEE ALSO:
  - resolve.go: How overrides win over computed eligibility
  - store.go: OverrideStore persistence contract
*/
package insurance

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// OVERRIDE EDITOR - Provisional edits over the persisted store
// =============================================================================

// OverrideEditor buffers manual override edits until an explicit Save.
type OverrideEditor struct {
	Store OverrideStore
	Clock func() time.Time

	mu      sync.Mutex
	pending map[SummaryKey]*ManualOverride
}

func NewOverrideEditor(store OverrideStore) *OverrideEditor {
	return &OverrideEditor{
		Store:   store,
		Clock:   func() time.Time { return time.Now().UTC() },
		pending: make(map[SummaryKey]*ManualOverride),
	}
}

// Set records a provisional override for one insurance type. The reason,
// when non-empty, replaces the override's shared reason text.
func (e *OverrideEditor) Set(ctx context.Context, key SummaryKey, t InsuranceType, status StatusCode, reason string) error {
	if key.WorkerID == "" || key.SiteID == "" || key.Month.IsZero() {
		return ErrMissingPrerequisite
	}
	if !ValidInsuranceType(t) {
		return ErrInvalidInsuranceType
	}
	if !ValidStatusCode(status) {
		return ErrInvalidStatusCode
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	ov, ok := e.pending[key]
	if !ok {
		// Seed the edit from the persisted record so an edit to one type
		// does not silently drop earlier decisions on the others.
		persisted, err := e.Store.GetOverride(ctx, key.WorkerID, key.SiteID, key.Month)
		if err != nil {
			return backendErr("load override", err)
		}
		ov = &ManualOverride{
			WorkerID: key.WorkerID,
			SiteID:   key.SiteID,
			Month:    key.Month,
			Statuses: make(map[InsuranceType]StatusCode),
		}
		if persisted != nil {
			for k, v := range persisted.Statuses {
				ov.Statuses[k] = v
			}
			ov.Reason = persisted.Reason
		}
		e.pending[key] = ov
	}

	ov.Statuses[t] = status
	if reason != "" {
		ov.Reason = reason
	}
	return nil
}

// Clear removes the provisional decision for one type, deferring it back
// to computed eligibility on the next Save.
func (e *OverrideEditor) Clear(ctx context.Context, key SummaryKey, t InsuranceType) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ov, ok := e.pending[key]; ok {
		delete(ov.Statuses, t)
	}
	return nil
}

// Effective returns the override visible to this session: the pending edit
// when one exists, else the persisted record, else nil.
func (e *OverrideEditor) Effective(ctx context.Context, key SummaryKey) (*ManualOverride, error) {
	e.mu.Lock()
	if ov, ok := e.pending[key]; ok {
		e.mu.Unlock()
		return ov, nil
	}
	e.mu.Unlock()

	ov, err := e.Store.GetOverride(ctx, key.WorkerID, key.SiteID, key.Month)
	if err != nil {
		return nil, backendErr("load override", err)
	}
	return ov, nil
}

// Save commits the pending edit for the key, write-through to the backend.
// Only after Save does the override affect other sessions.
func (e *OverrideEditor) Save(ctx context.Context, key SummaryKey) error {
	e.mu.Lock()
	ov, ok := e.pending[key]
	e.mu.Unlock()
	if !ok {
		return nil // nothing edited, nothing to commit
	}

	ov.UpdatedAt = e.Clock()
	if len(ov.Statuses) == 0 {
		// Every type was cleared: drop the record entirely so computed
		// eligibility applies again.
		if err := e.Store.DeleteOverride(ctx, key.WorkerID, key.SiteID, key.Month); err != nil {
			return backendErr("delete override", err)
		}
	} else if err := e.Store.PutOverride(ctx, ov); err != nil {
		return backendErr("save override", err)
	}

	e.mu.Lock()
	delete(e.pending, key)
	e.mu.Unlock()
	return nil
}

// Discard throws away the pending edit without touching the backend.
func (e *OverrideEditor) Discard(key SummaryKey) {
	e.mu.Lock()
	delete(e.pending, key)
	e.mu.Unlock()
}
