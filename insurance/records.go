/*
records.go - Work record save path

PURPOSE:
  Saving a month of attendance is delete-then-insert per
  (worker, site, month). The write is NOT transactional across tables: a
  failure partway through can leave the month partially updated. The
  accepted recovery is an idempotent re-save of the whole month - callers
  retry the operation, never resume it.

  The service receives the summary cache by injection and invalidates the
  (worker, site) entry exactly once at the end of every save, so the next
  read recomputes from the new records.

VALIDATION:
  Registration-kind rows must carry zero hours and zero wage; they mark
  site assignment only and are excluded from every aggregation sum.
*/
package insurance

import "context"

// =============================================================================
// RECORD SERVICE
// =============================================================================

type RecordService struct {
	Records WorkRecordStore
	Cache   SummaryCache
}

func NewRecordService(records WorkRecordStore, cache SummaryCache) *RecordService {
	if cache == nil {
		cache = NopCache{}
	}
	return &RecordService{Records: records, Cache: cache}
}

// SaveMonth replaces the worker/site/month's records with the given set.
func (s *RecordService) SaveMonth(ctx context.Context, workerID WorkerID, siteID SiteID, month YearMonth, records []WorkRecord) error {
	if workerID == "" || siteID == "" || month.IsZero() {
		return ErrMissingPrerequisite
	}
	for i := range records {
		r := &records[i]
		if r.WorkerID == "" {
			r.WorkerID = workerID
		}
		if r.SiteID == "" {
			r.SiteID = siteID
		}
		if r.RegistrationMonth.IsZero() {
			r.RegistrationMonth = month
		}
		if r.IsRegistration() && (r.Hours.IsPositive() || r.Wage.IsPositive()) {
			return &InconsistentStateError{
				WorkerID: workerID,
				SiteID:   siteID,
				Detail:   "registration record must carry zero hours and zero wage",
			}
		}
	}

	// Invalidate even on failure: a partial delete-then-insert has already
	// changed what a recompute would see.
	defer s.Cache.Invalidate(workerID, siteID)

	if err := s.Records.ReplaceMonth(ctx, workerID, siteID, month, records); err != nil {
		return backendErr("replace month records", err)
	}
	return nil
}
