// Package memory provides in-memory store implementations (for testing/dev).
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/insurance-engine/insurance"
)

// =============================================================================
// MEMORY STORE - Implements every insurance persistence interface
// =============================================================================

type Store struct {
	mu          sync.RWMutex
	workers     map[insurance.WorkerID]insurance.Worker
	records     map[recordKey][]insurance.WorkRecord
	enrollments map[insurance.SummaryKey]insurance.Enrollment
	overrides   map[insurance.SummaryKey]insurance.ManualOverride
	events      []insurance.EnrollmentEvent
}

type recordKey struct {
	WorkerID insurance.WorkerID
	SiteID   insurance.SiteID
	Month    insurance.YearMonth
}

func New() *Store {
	return &Store{
		workers:     make(map[insurance.WorkerID]insurance.Worker),
		records:     make(map[recordKey][]insurance.WorkRecord),
		enrollments: make(map[insurance.SummaryKey]insurance.Enrollment),
		overrides:   make(map[insurance.SummaryKey]insurance.ManualOverride),
	}
}

// Compile-time interface checks.
var (
	_ insurance.WorkerStore     = (*Store)(nil)
	_ insurance.WorkRecordStore = (*Store)(nil)
	_ insurance.EnrollmentStore = (*Store)(nil)
	_ insurance.OverrideStore   = (*Store)(nil)
	_ insurance.EventLog        = (*Store)(nil)
)

// =============================================================================
// WORKER STORE
// =============================================================================

func (s *Store) GetWorker(_ context.Context, id insurance.WorkerID) (*insurance.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workers[id]
	if !ok {
		return nil, insurance.ErrWorkerNotFound
	}
	copied := w
	return &copied, nil
}

func (s *Store) PutWorker(_ context.Context, w *insurance.Worker) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers[w.ID] = *w
	return nil
}

func (s *Store) ListWorkers(_ context.Context) ([]*insurance.Worker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*insurance.Worker, 0, len(s.workers))
	for _, w := range s.workers {
		copied := w
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// WORK RECORD STORE
// =============================================================================

// ListMonth returns the union of date-range matches and tag matches; rows
// are bucketed by tag on write, so the union needs a scan of the adjacent
// buckets for dates that fall in the month but were tagged elsewhere.
func (s *Store) ListMonth(_ context.Context, workerID insurance.WorkerID, siteID insurance.SiteID, month insurance.YearMonth) ([]insurance.WorkRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var out []insurance.WorkRecord
	for key, records := range s.records {
		if key.WorkerID != workerID || key.SiteID != siteID {
			continue
		}
		for _, r := range records {
			if key.Month != month && !month.Contains(r.Date) {
				continue
			}
			if seen[r.ID] {
				continue
			}
			seen[r.ID] = true
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) FirstWorkDate(_ context.Context, workerID insurance.WorkerID, siteID insurance.SiteID) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var first *time.Time
	for key, records := range s.records {
		if key.WorkerID != workerID || key.SiteID != siteID {
			continue
		}
		for _, r := range records {
			if r.IsRegistration() {
				continue
			}
			d := r.Date
			if first == nil || d.Before(*first) {
				first = &d
			}
		}
	}
	return first, nil
}

func (s *Store) WorkersForMonth(_ context.Context, siteID insurance.SiteID, month insurance.YearMonth) ([]insurance.WorkerID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[insurance.WorkerID]bool)
	for key, records := range s.records {
		if key.SiteID != siteID {
			continue
		}
		if key.Month == month {
			if len(records) > 0 {
				seen[key.WorkerID] = true
			}
			continue
		}
		for _, r := range records {
			if month.Contains(r.Date) {
				seen[key.WorkerID] = true
				break
			}
		}
	}

	out := make([]insurance.WorkerID, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

func (s *Store) ReplaceMonth(_ context.Context, workerID insurance.WorkerID, siteID insurance.SiteID, month insurance.YearMonth, records []insurance.WorkRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{WorkerID: workerID, SiteID: siteID, Month: month}
	replacement := make([]insurance.WorkRecord, len(records))
	copy(replacement, records)
	s.records[key] = replacement
	return nil
}

// =============================================================================
// ENROLLMENT STORE
// =============================================================================

func enrollmentKey(workerID insurance.WorkerID, siteID insurance.SiteID, month insurance.YearMonth) insurance.SummaryKey {
	return insurance.SummaryKey{WorkerID: workerID, SiteID: siteID, Month: month}
}

func (s *Store) GetEnrollment(_ context.Context, workerID insurance.WorkerID, siteID insurance.SiteID, month insurance.YearMonth) (*insurance.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.enrollments[enrollmentKey(workerID, siteID, month)]
	if !ok {
		return nil, nil
	}
	return copyEnrollment(e), nil
}

func (s *Store) UpsertEnrollment(_ context.Context, e *insurance.Enrollment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enrollments[enrollmentKey(e.WorkerID, e.SiteID, e.Month)] = *copyEnrollment(*e)
	return nil
}

func (s *Store) ListEnrollments(_ context.Context, workerID insurance.WorkerID, siteID insurance.SiteID) ([]*insurance.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*insurance.Enrollment
	for key, e := range s.enrollments {
		if key.WorkerID == workerID && key.SiteID == siteID {
			out = append(out, copyEnrollment(e))
		}
	}
	sortEnrollments(out)
	return out, nil
}

func (s *Store) ListSiteEnrollments(_ context.Context, siteID insurance.SiteID) ([]*insurance.Enrollment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*insurance.Enrollment
	for key, e := range s.enrollments {
		if key.SiteID == siteID {
			out = append(out, copyEnrollment(e))
		}
	}
	sortEnrollments(out)
	return out, nil
}

func sortEnrollments(rows []*insurance.Enrollment) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Month != rows[j].Month {
			return rows[i].Month.Start().Before(rows[j].Month.Start())
		}
		return rows[i].WorkerID < rows[j].WorkerID
	})
}

func copyEnrollment(e insurance.Enrollment) *insurance.Enrollment {
	copied := e
	copied.Lines = make(map[insurance.InsuranceType]insurance.EnrollmentLine, len(e.Lines))
	for t, l := range e.Lines {
		copied.Lines[t] = l
	}
	return &copied
}

// =============================================================================
// OVERRIDE STORE
// =============================================================================

func (s *Store) GetOverride(_ context.Context, workerID insurance.WorkerID, siteID insurance.SiteID, month insurance.YearMonth) (*insurance.ManualOverride, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.overrides[enrollmentKey(workerID, siteID, month)]
	if !ok {
		return nil, nil
	}
	return copyOverride(o), nil
}

func (s *Store) PutOverride(_ context.Context, o *insurance.ManualOverride) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overrides[enrollmentKey(o.WorkerID, o.SiteID, o.Month)] = *copyOverride(*o)
	return nil
}

func (s *Store) DeleteOverride(_ context.Context, workerID insurance.WorkerID, siteID insurance.SiteID, month insurance.YearMonth) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.overrides, enrollmentKey(workerID, siteID, month))
	return nil
}

func copyOverride(o insurance.ManualOverride) *insurance.ManualOverride {
	copied := o
	copied.Statuses = make(map[insurance.InsuranceType]insurance.StatusCode, len(o.Statuses))
	for t, c := range o.Statuses {
		copied.Statuses[t] = c
	}
	return &copied
}

// =============================================================================
// EVENT LOG - Append-only
// =============================================================================

func (s *Store) AppendEvent(_ context.Context, ev insurance.EnrollmentEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *Store) ListEvents(_ context.Context, workerID insurance.WorkerID, siteID insurance.SiteID) ([]insurance.EnrollmentEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []insurance.EnrollmentEvent
	for _, ev := range s.events {
		if ev.WorkerID == workerID && ev.SiteID == siteID {
			out = append(out, ev)
		}
	}
	return out, nil
}
