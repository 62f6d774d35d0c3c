package model

import "testing"

func TestTriageQueueDrainIsFIFOAndClears(t *testing.T) {
	q := NewTriageQueue()
	q.Enqueue(QueuedTriage{TriageID: "t1"})
	q.Enqueue(QueuedTriage{TriageID: "t2"})
	q.Enqueue(QueuedTriage{TriageID: "t3"})

	if q.Len() != 3 {
		t.Fatalf("expected len 3, got %d", q.Len())
	}

	drained := q.Drain()
	want := []TriageId{"t1", "t2", "t3"}
	if len(drained) != len(want) {
		t.Fatalf("got %d items, want %d", len(drained), len(want))
	}
	for i, id := range want {
		if drained[i].TriageID != id {
			t.Fatalf("index %d: got %s, want %s", i, drained[i].TriageID, id)
		}
	}
	if q.Len() != 0 {
		t.Fatalf("expected queue empty after drain, got len %d", q.Len())
	}
}

func TestTriageQueueDrainEmpty(t *testing.T) {
	q := NewTriageQueue()
	if out := q.Drain(); out != nil {
		t.Fatalf("expected nil from draining an empty queue, got %v", out)
	}
}
