/*
history.go - Work history aggregation

PURPOSE:
  Builds the WorkHistorySummary for one worker's month at one site: the
  current and previous month's worked days/hours, the month's wage total,
  the all-time first work date, and the registration flags. This summary
  feeds the rule engine and the lifecycle classifier.

AGGREGATION RULES:
  - Month lookup is the union of the date range [start, nextStart) and
    rows tagged via registration_month, de-duplicated by calendar date
    before summing (data-entry paths may tag rows without canonical dates).
  - Registration-kind rows never contribute to any sum. They only set the
    IsRegistered flags.
  - Work days count DISTINCT dates, not rows.
  - FirstWorkDate is the earliest attendance across all time, not
    month-scoped.

DETERMINISM:
  Output is deterministic for a given record set. The only side effect is
  the cache write, and partial summaries are never cached: any store
  failure propagates before Put.

SEE ALSO:
  - cache.go: Memoization with explicit invalidation
  - rules.go: Consumes the summary
*/
package insurance

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AGGREGATOR
// =============================================================================

// Aggregator computes WorkHistorySummary values from raw work records.
type Aggregator struct {
	Records WorkRecordStore
	Cache   SummaryCache
}

func NewAggregator(records WorkRecordStore, cache SummaryCache) *Aggregator {
	if cache == nil {
		cache = NopCache{}
	}
	return &Aggregator{Records: records, Cache: cache}
}

// LoadWorkHistory returns the summary for the worker/site/month, computing
// and caching it on miss.
func (a *Aggregator) LoadWorkHistory(ctx context.Context, workerID WorkerID, siteID SiteID, month YearMonth) (*WorkHistorySummary, error) {
	if workerID == "" || siteID == "" || month.IsZero() {
		return nil, ErrMissingPrerequisite
	}

	key := SummaryKey{WorkerID: workerID, SiteID: siteID, Month: month}
	if cached, ok := a.Cache.Get(key); ok {
		return cached, nil
	}

	current, err := a.monthTotals(ctx, workerID, siteID, month)
	if err != nil {
		return nil, err
	}
	previous, err := a.monthTotals(ctx, workerID, siteID, month.Previous())
	if err != nil {
		return nil, err
	}
	first, err := a.Records.FirstWorkDate(ctx, workerID, siteID)
	if err != nil {
		return nil, backendErr("first work date", err)
	}

	summary := &WorkHistorySummary{
		Key:                       key,
		CurrentMonthWorkDays:      current.days,
		CurrentMonthWorkHours:     current.hours,
		PreviousMonthWorkDays:     previous.days,
		PreviousMonthWorkHours:    previous.hours,
		MonthlyWage:               current.wage,
		FirstWorkDate:             first,
		IsRegisteredCurrentMonth:  current.registered,
		IsRegisteredPreviousMonth: previous.registered,
	}

	a.Cache.Put(key, summary)
	return summary, nil
}

// =============================================================================
// MONTH TOTALS
// =============================================================================

type monthTotals struct {
	days       int
	hours      decimal.Decimal
	wage       decimal.Decimal
	registered bool
}

func (a *Aggregator) monthTotals(ctx context.Context, workerID WorkerID, siteID SiteID, month YearMonth) (monthTotals, error) {
	records, err := a.Records.ListMonth(ctx, workerID, siteID, month)
	if err != nil {
		return monthTotals{}, backendErr("list month records", err)
	}

	totals := monthTotals{hours: decimal.Zero, wage: decimal.Zero}

	// The store already unions date-range and tag lookups; de-duplicate by
	// calendar date so a row reachable both ways is summed once.
	byDate := make(map[string]WorkRecord)
	for _, r := range records {
		if r.IsRegistration() {
			totals.registered = true
			continue
		}
		byDate[r.DateKey()] = r
	}

	for _, r := range byDate {
		totals.days++
		totals.hours = totals.hours.Add(r.Hours)
		totals.wage = totals.wage.Add(r.Wage)
	}
	return totals, nil
}
