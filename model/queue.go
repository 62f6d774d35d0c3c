package model

import (
	"time"

	list "github.com/bahlo/generic-list-go"
)

// QueuedTriage is one triage awaiting reconnection, per spec.md §3's
// triage_queue: "ordered sequence of (triage_id, severity, queued_at)".
type QueuedTriage struct {
	TriageID TriageId
	Severity Severity
	QueuedAt time.Time
}

// TriageQueue is the ordered, FIFO-drained queue a node accumulates
// while it has no neighbors. It is backed by a generic doubly linked
// list rather than a slice so that draining on reconnection (§4.5.4)
// is an O(1)-per-item pop from the front instead of a slice-shift.
type TriageQueue struct {
	l *list.List[QueuedTriage]
}

// NewTriageQueue returns an empty queue.
func NewTriageQueue() *TriageQueue {
	return &TriageQueue{l: list.New[QueuedTriage]()}
}

// Enqueue appends a queued triage to the back of the queue.
func (q *TriageQueue) Enqueue(t QueuedTriage) {
	q.l.PushBack(t)
}

// Len reports the number of queued triages.
func (q *TriageQueue) Len() int {
	if q.l == nil {
		return 0
	}
	return q.l.Len()
}

// Drain removes and returns every queued triage in FIFO order,
// leaving the queue empty. Callers must clear the queue before
// emitting the resulting flood, per §4.5.4's "cleared atomically
// before emissions" rule — Drain does both in one call so that rule
// cannot be violated by forgetting to clear first.
func (q *TriageQueue) Drain() []QueuedTriage {
	if q.l == nil || q.l.Len() == 0 {
		return nil
	}
	out := make([]QueuedTriage, 0, q.l.Len())
	for e := q.l.Front(); e != nil; {
		next := e.Next()
		out = append(out, e.Value)
		q.l.Remove(e)
		e = next
	}
	return out
}
