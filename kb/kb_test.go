package kb

import (
	"testing"

	"github.com/signalsfoundry/foors-plus/model"
)

func TestAddNodeRejectsDuplicateID(t *testing.T) {
	base := NewKnowledgeBase()
	n := model.NewNode("a", model.NodeTypeSource, model.Vec2{}, 2.0)
	if err := base.AddNode(n); err != nil {
		t.Fatalf("unexpected error on first insert: %v", err)
	}
	if err := base.AddNode(n); err == nil {
		t.Fatalf("expected an error inserting a duplicate id")
	}
}

func TestRemoveNodeReportsWhetherItHappened(t *testing.T) {
	base := NewKnowledgeBase()
	n := model.NewNode("a", model.NodeTypeSource, model.Vec2{}, 2.0)
	if err := base.AddNode(n); err != nil {
		t.Fatalf("add: %v", err)
	}

	if removed := base.RemoveNode("a"); !removed {
		t.Fatalf("expected removal of an existing node to report true")
	}
	if removed := base.RemoveNode("a"); removed {
		t.Fatalf("expected removal of an already-removed node to report false")
	}
}

func TestRemoveNodePurgesFromNeighborSets(t *testing.T) {
	base := NewKnowledgeBase()
	a := model.NewNode("a", model.NodeTypeSource, model.Vec2{}, 2.0)
	b := model.NewNode("b", model.NodeTypeSink, model.Vec2{}, 2.0)
	a.Neighbors["b"] = struct{}{}
	b.Neighbors["a"] = struct{}{}
	base.AddNode(a)
	base.AddNode(b)

	base.RemoveNode("a")

	if base.GetNode("b").HasNeighbor("a") {
		t.Fatalf("expected b's neighbor set to be purged of the removed node")
	}
}

func TestMutationsDoNotAutoNotify(t *testing.T) {
	base := NewKnowledgeBase()
	var got []Event
	base.Subscribe(func(e Event) { got = append(got, e) })

	n := model.NewNode("a", model.NodeTypeSource, model.Vec2{}, 2.0)
	base.AddNode(n)
	base.AddMessage(&model.Message{ID: "m1"})
	base.RemoveMessage("m1")
	base.RemoveNode("a")
	base.Reset()

	if len(got) != 0 {
		t.Fatalf("expected zero notifications from raw KB mutations, got %d", len(got))
	}
}

func TestNotifyFansOutToAllSubscribers(t *testing.T) {
	base := NewKnowledgeBase()
	var a, b int
	base.Subscribe(func(Event) { a++ })
	base.Subscribe(func(Event) { b++ })

	base.Notify(Event{Type: EventTick})

	if a != 1 || b != 1 {
		t.Fatalf("expected both subscribers to see exactly one event, got a=%d b=%d", a, b)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	base := NewKnowledgeBase()
	count := 0
	unsubscribe := base.Subscribe(func(Event) { count++ })

	base.Notify(Event{Type: EventTick})
	unsubscribe()
	base.Notify(Event{Type: EventTick})

	if count != 1 {
		t.Fatalf("expected exactly one delivery before unsubscribe, got %d", count)
	}

	// Calling unsubscribe again must be safe (no panic, no effect).
	unsubscribe()
}

func TestListNodesAndMessagesSnapshot(t *testing.T) {
	base := NewKnowledgeBase()
	base.AddNode(model.NewNode("a", model.NodeTypeSource, model.Vec2{}, 2.0))
	base.AddNode(model.NewNode("b", model.NodeTypeSink, model.Vec2{}, 2.0))
	base.AddMessage(&model.Message{ID: "m1"})

	if base.NodeCount() != 2 {
		t.Fatalf("expected 2 nodes, got %d", base.NodeCount())
	}
	if base.MessageCount() != 1 {
		t.Fatalf("expected 1 message, got %d", base.MessageCount())
	}
	if len(base.ListNodes()) != 2 {
		t.Fatalf("expected ListNodes to return 2 nodes")
	}
	if len(base.ListMessages()) != 1 {
		t.Fatalf("expected ListMessages to return 1 message")
	}
}
