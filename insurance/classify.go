/*
classify.go - Enrollment lifecycle classification

PURPOSE:
  Partitions a site/month worker population into exactly three lists:

    NewEnrollmentCandidates  working this month, no active enrollment
    ActiveEnrollees          working this month, active enrollment
    LossCandidates           not working this month, active enrollment

  Workers with neither current work nor an active enrollment are not part
  of the population at all.

PARTITION PROPERTY:
  The three lists are pairwise disjoint and their union equals
  {workers registered/working this month} UNION {workers with any active
  enrollment at the site}. Every member appears in exactly one list.

EDGE CASES:
  - A worker with no history summary (aggregator never ran) is treated
    conservatively: NewEnrollmentCandidate when no enrollment exists, else
    LossCandidate.
  - Enrollment data referencing a worker absent from the worker list is
    inconsistent state: logged and skipped, never a batch abort.
*/
package insurance

import "log"

// =============================================================================
// CLASSIFICATION RESULT
// =============================================================================

type Classification struct {
	SiteID SiteID
	Month  YearMonth

	NewCandidates  []*Worker
	Active         []*Worker
	LossCandidates []*Worker

	// Skipped counts population entries (enrollment rows here, record or
	// enrollment references at load time) that pointed at unknown workers.
	Skipped int
}

// StateOf returns the lifecycle state of one worker in the result, or
// ("", false) when the worker is not part of the population.
func (c *Classification) StateOf(id WorkerID) (LifecycleState, bool) {
	for _, w := range c.NewCandidates {
		if w.ID == id {
			return NewEnrollmentCandidate, true
		}
	}
	for _, w := range c.Active {
		if w.ID == id {
			return ActiveEnrollee, true
		}
	}
	for _, w := range c.LossCandidates {
		if w.ID == id {
			return LossCandidate, true
		}
	}
	return "", false
}

// =============================================================================
// CLASSIFIER
// =============================================================================

// Classifier is a pure partition over already-loaded inputs; it performs
// no I/O itself. Logf defaults to the standard logger.
type Classifier struct {
	Logf func(format string, args ...any)
}

func NewClassifier() *Classifier {
	return &Classifier{Logf: log.Printf}
}

// Classify partitions the workers using their history summaries and
// enrollment rows. The maps may be sparse; missing entries follow the
// conservative edge-case rules above.
func (c *Classifier) Classify(siteID SiteID, month YearMonth, workers []*Worker,
	histories map[WorkerID]*WorkHistorySummary, enrollments map[WorkerID]*Enrollment) *Classification {

	result := &Classification{SiteID: siteID, Month: month}
	byID := make(map[WorkerID]*Worker, len(workers))
	for _, w := range workers {
		byID[w.ID] = w
	}

	// Enrollment rows must reference known workers; anything else is
	// inconsistent state, logged and skipped.
	for id := range enrollments {
		if _, ok := byID[id]; !ok {
			c.logf("classify: enrollment references unknown worker %s at site %s, skipping", id, siteID)
			result.Skipped++
		}
	}

	for _, w := range workers {
		hasActiveEnrollment := enrollments[w.ID].HasActiveLine()

		summary, summarized := histories[w.ID]
		hasCurrentWork := summary.HasCurrentWork()
		if !summarized {
			// No summary at all (aggregator never ran): conservatively a
			// new-enrollment candidate unless an enrollment says otherwise.
			hasCurrentWork = !hasActiveEnrollment
		}

		switch {
		case hasCurrentWork && !hasActiveEnrollment:
			result.NewCandidates = append(result.NewCandidates, w)
		case hasCurrentWork && hasActiveEnrollment:
			result.Active = append(result.Active, w)
		case !hasCurrentWork && hasActiveEnrollment:
			result.LossCandidates = append(result.LossCandidates, w)
		default:
			// Neither working nor enrolled: not a member of the
			// site/month population.
		}
	}
	return result
}

func (c *Classifier) logf(format string, args ...any) {
	if c.Logf != nil {
		c.Logf(format, args...)
	}
}
