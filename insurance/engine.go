/*
engine.go - Engine facade wiring the components together

PURPOSE:
  Bundles the aggregator, rule engine, override editor, resolver,
  classifier and transition executor behind the operations the
  surrounding UI/report collaborators consume:

    LoadWorkHistory     (worker, site, month) -> WorkHistorySummary
    LoadEffectiveStatus (worker, site, month, type) -> EffectiveStatus
    ClassifySite        (site, month) -> three lifecycle lists
    Acquire / Lose      dated enrollment transitions
    SaveWorkMonth       record save with cache invalidation

  Data flow: raw records -> aggregator -> rule engine + override editor
  -> resolver -> classifier -> consumers. Acquire/Lose write back and
  invalidate the cache, forcing recomputation on the next read.

CONCURRENCY:
  Every operation is a single request/response against the shared store.
  Independent (worker, site, month) computations may proceed concurrently;
  they are read-only until an executor call.

SEE ALSO:
  - api/handlers.go: HTTP surface over this facade
*/
package insurance

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// ENGINE
// =============================================================================

type Engine struct {
	Workers     WorkerStore
	Enrollments EnrollmentStore
	Events      EventLog

	Aggregator *Aggregator
	Rules      *RuleEngine
	Overrides  *OverrideEditor
	Classifier *Classifier
	Executor   *Executor
	Records    *RecordService
}

// Stores bundles the persistence dependencies for NewEngine.
type Stores struct {
	Workers     WorkerStore
	WorkRecords WorkRecordStore
	Enrollments EnrollmentStore
	Overrides   OverrideStore
	Events      EventLog
}

// NewEngine wires the components around one shared cache. The cache is
// handed to each mutating path explicitly; nothing discovers it at call
// time.
func NewEngine(s Stores, cache SummaryCache, rules RuleConfig) *Engine {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Engine{
		Workers:     s.Workers,
		Enrollments: s.Enrollments,
		Events:      s.Events,
		Aggregator:  NewAggregator(s.WorkRecords, cache),
		Rules:       NewRuleEngine(rules),
		Overrides:   NewOverrideEditor(s.Overrides),
		Classifier:  NewClassifier(),
		Executor:    NewExecutor(s.Enrollments, s.Events, cache),
		Records:     NewRecordService(s.WorkRecords, cache),
	}
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// LoadWorkHistory returns the (cached) summary for the worker/site/month.
func (e *Engine) LoadWorkHistory(ctx context.Context, workerID WorkerID, siteID SiteID, month YearMonth) (*WorkHistorySummary, error) {
	return e.Aggregator.LoadWorkHistory(ctx, workerID, siteID, month)
}

// LoadEffectiveStatus computes the status actually used by the rest of
// the system: computed eligibility merged with any manual override.
func (e *Engine) LoadEffectiveStatus(ctx context.Context, workerID WorkerID, siteID SiteID, month YearMonth, t InsuranceType) (EffectiveStatus, error) {
	if !ValidInsuranceType(t) {
		return EffectiveStatus{}, ErrInvalidInsuranceType
	}
	statuses, err := e.LoadEffectiveStatuses(ctx, workerID, siteID, month)
	if err != nil {
		return EffectiveStatus{}, err
	}
	return statuses[t], nil
}

// LoadEffectiveStatuses resolves all four programs at once.
func (e *Engine) LoadEffectiveStatuses(ctx context.Context, workerID WorkerID, siteID SiteID, month YearMonth) (map[InsuranceType]EffectiveStatus, error) {
	if workerID == "" || siteID == "" || month.IsZero() {
		return nil, ErrMissingPrerequisite
	}

	worker, err := e.Workers.GetWorker(ctx, workerID)
	if err != nil {
		return nil, err
	}
	summary, err := e.Aggregator.LoadWorkHistory(ctx, workerID, siteID, month)
	if err != nil {
		return nil, err
	}
	override, err := e.Overrides.Effective(ctx, SummaryKey{WorkerID: workerID, SiteID: siteID, Month: month})
	if err != nil {
		return nil, err
	}

	return ResolveAll(e.Rules.Evaluate(*worker, summary), override), nil
}

// ClassifySite loads the site/month population and partitions it into the
// three lifecycle lists. The population is {workers with any record this
// month} UNION {workers with any active enrollment at the site}.
func (e *Engine) ClassifySite(ctx context.Context, siteID SiteID, month YearMonth) (*Classification, error) {
	if siteID == "" || month.IsZero() {
		return nil, ErrMissingPrerequisite
	}

	recordIDs, err := e.Aggregator.Records.WorkersForMonth(ctx, siteID, month)
	if err != nil {
		return nil, backendErr("list month workers", err)
	}
	rows, err := e.Enrollments.ListSiteEnrollments(ctx, siteID)
	if err != nil {
		return nil, backendErr("list site enrollments", err)
	}

	population := make(map[WorkerID]bool)
	for _, id := range recordIDs {
		population[id] = true
	}
	enrollments := make(map[WorkerID]*Enrollment)
	for _, row := range rows {
		if row.HasActiveLine() {
			population[row.WorkerID] = true
			enrollments[row.WorkerID] = row
		}
	}

	var workers []*Worker
	var skipped int
	histories := make(map[WorkerID]*WorkHistorySummary)
	for id := range population {
		w, err := e.Workers.GetWorker(ctx, id)
		if IsNotFound(err) {
			// Records or enrollments referencing an unknown worker: skip
			// the worker, keep the batch.
			e.Classifier.logf("classify: unknown worker %s at site %s, skipping", id, siteID)
			skipped++
			continue
		}
		if err != nil {
			return nil, err
		}
		workers = append(workers, w)

		summary, err := e.Aggregator.LoadWorkHistory(ctx, id, siteID, month)
		if err != nil {
			return nil, err
		}
		histories[id] = summary
	}

	result := e.Classifier.Classify(siteID, month, workers, histories, enrollments)
	result.Skipped += skipped
	return result, nil
}

// =============================================================================
// WRITE OPERATIONS
// =============================================================================

// Acquire resolves the effective statuses for the requested types and
// records the acquisition. The status codes written are the effective
// values at call time.
func (e *Engine) Acquire(ctx context.Context, workerID WorkerID, siteID SiteID, month YearMonth,
	types []InsuranceType, monthlyWage decimal.Decimal, reason string) error {

	statuses, err := e.LoadEffectiveStatuses(ctx, workerID, siteID, month)
	if err != nil {
		return err
	}
	codes := make(map[InsuranceType]StatusCode, len(types))
	for _, t := range types {
		codes[t] = statuses[t].Status
	}
	return e.Executor.Acquire(ctx, workerID, siteID, month, types, codes, monthlyWage, reason)
}

// Lose records loss dates; see Executor.Lose for scoping rules.
func (e *Engine) Lose(ctx context.Context, workerID WorkerID, siteID SiteID, month *YearMonth, types []InsuranceType) error {
	return e.Executor.Lose(ctx, workerID, siteID, month, types)
}

// SaveWorkMonth replaces a month of records and invalidates the cache.
func (e *Engine) SaveWorkMonth(ctx context.Context, workerID WorkerID, siteID SiteID, month YearMonth, records []WorkRecord) error {
	return e.Records.SaveMonth(ctx, workerID, siteID, month, records)
}
