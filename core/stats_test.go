package core

import (
	"testing"

	"github.com/signalsfoundry/foors-plus/model"
)

func TestDistinctTriageCounterCountsEachIDOnce(t *testing.T) {
	c := NewDistinctTriageCounter()
	c.Observe("s1", "t1", model.SeverityRed)
	c.Observe("s2", "t1", model.SeverityRed) // same triage seen by a different sink
	c.Observe("s1", "t2", model.SeverityGreen)

	if c.Total() != 2 {
		t.Fatalf("expected 2 distinct triages, got %d", c.Total())
	}
}

func TestDistinctTriageCounterReset(t *testing.T) {
	c := NewDistinctTriageCounter()
	c.Observe("s1", "t1", model.SeverityRed)
	c.Reset()
	if c.Total() != 0 {
		t.Fatalf("expected reset to zero the counter, got %d", c.Total())
	}
	c.Observe("s1", "t1", model.SeverityRed)
	if c.Total() != 1 {
		t.Fatalf("expected the counter to accept a previously-seen id again after reset, got %d", c.Total())
	}
}
