package core

import "github.com/signalsfoundry/foors-plus/model"

// Stats is the read-only snapshot spec.md §6 requires from
// get_stats(): node/link/type counts, per-mode counts, queued and
// in-flight totals, and the distinct-triage counter.
type Stats struct {
	NodeCount   int
	LinkCount   int
	SinkCount   int
	SourceCount int

	ModeCounts map[model.RoutingMode]int

	QueuedTriageCount   int
	InFlightMessageCount int

	// DistinctTriagesObserved is monotonic: it only ever grows, and
	// only when a triage_id is inserted into some sink's triage_store
	// for the first time anywhere in the mesh (see DistinctTriageCounter).
	DistinctTriagesObserved int
}

// DistinctTriageCounter tracks how many distinct TriageIds have ever
// been observed by any sink, across the mesh's whole lifetime. It is
// a push-on-mutation counter rather than a query that rescans every
// sink's triage_store, since a triage seen by sink A and later by
// sink B must still count once, not twice.
type DistinctTriageCounter struct {
	seen  map[model.TriageId]struct{}
	total int
}

// NewDistinctTriageCounter returns an empty counter.
func NewDistinctTriageCounter() *DistinctTriageCounter {
	return &DistinctTriageCounter{seen: make(map[model.TriageId]struct{})}
}

// Observe records that some sink has seen id, incrementing the total
// only the first time id is observed by any sink.
func (c *DistinctTriageCounter) Observe(_ model.SinkId, id model.TriageId, _ model.Severity) {
	if _, ok := c.seen[id]; ok {
		return
	}
	c.seen[id] = struct{}{}
	c.total++
}

// Total reports the number of distinct triages observed so far.
func (c *DistinctTriageCounter) Total() int { return c.total }

// Reset clears the counter back to zero, for use on engine Reset.
func (c *DistinctTriageCounter) Reset() {
	c.seen = make(map[model.TriageId]struct{})
	c.total = 0
}
