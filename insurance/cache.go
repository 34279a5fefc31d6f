/*
cache.go - Memoized work-history summaries with explicit invalidation

PURPOSE:
  Aggregating a month of work records is the hot read path; the same
  (worker, site, month) is recomputed by every screen that shows the
  worker. This cache memoizes summaries behind an explicit interface with
  a single Invalidate method, called exactly once at the end of every
  mutating operation. Callers never reach into cache internals.

CONSISTENCY MODEL:
  The cache is a keyed map. Concurrent reads for the same key before the
  first completes may cause duplicate upstream queries - acceptable, a
  performance cost only, never a correctness hazard: summaries are
  deterministic for a given record set.

  Invalidation is per (worker, site): any write for the pair drops every
  cached month, because a record mutation in one month changes the
  previous-month figures of the next.

SEE ALSO:
  - history.go: The only writer of cache entries
  - enrollment.go, records.go: Mutating paths that invalidate
*/
package insurance

import "sync"

// =============================================================================
// CACHE INTERFACE
// =============================================================================

// SummaryCache memoizes computed WorkHistorySummary values.
type SummaryCache interface {
	// Get returns the cached summary for the key, if present.
	Get(key SummaryKey) (*WorkHistorySummary, bool)

	// Put stores a fully computed summary. Partial summaries are never
	// cached; the aggregator only calls Put after a complete success.
	Put(key SummaryKey, s *WorkHistorySummary)

	// Invalidate drops every cached month for the worker/site pair.
	Invalidate(workerID WorkerID, siteID SiteID)
}

// =============================================================================
// MEMORY CACHE - Default implementation
// =============================================================================

type MemoryCache struct {
	mu      sync.RWMutex
	entries map[SummaryKey]*WorkHistorySummary
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[SummaryKey]*WorkHistorySummary)}
}

func (c *MemoryCache) Get(key SummaryKey) (*WorkHistorySummary, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.entries[key]
	return s, ok
}

func (c *MemoryCache) Put(key SummaryKey, s *WorkHistorySummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = s
}

func (c *MemoryCache) Invalidate(workerID WorkerID, siteID SiteID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if key.WorkerID == workerID && key.SiteID == siteID {
			delete(c.entries, key)
		}
	}
}

// NopCache disables memoization; every read recomputes.
type NopCache struct{}

func (NopCache) Get(SummaryKey) (*WorkHistorySummary, bool) { return nil, false }
func (NopCache) Put(SummaryKey, *WorkHistorySummary)        {}
func (NopCache) Invalidate(WorkerID, SiteID)                {}
