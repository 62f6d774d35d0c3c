package core

import (
	"testing"
	"time"

	"github.com/signalsfoundry/foors-plus/kb"
	"github.com/signalsfoundry/foors-plus/model"
)

func TestEngineAddNodeConnectsWithinRadius(t *testing.T) {
	e := NewEngine(1)
	a := e.AddNode(model.Vec2{X: 0, Y: 0}, model.NodeTypeSource)
	b := e.AddNode(model.Vec2{X: 1, Y: 0}, model.NodeTypeSink)

	conns := e.GetConnections()
	if len(conns) != 1 {
		t.Fatalf("expected exactly one connection between two nodes within radius, got %d", len(conns))
	}
	if !((conns[0].A == a && conns[0].B == b) || (conns[0].A == b && conns[0].B == a)) {
		t.Fatalf("expected the connection to name both new nodes, got %+v", conns[0])
	}
}

func TestEngineRemoveUnknownNodeIsNoopAndDoesNotNotify(t *testing.T) {
	e := NewEngine(1)
	notified := 0
	e.Subscribe(func(kb.Event) { notified++ })

	e.RemoveNode("does-not-exist")

	if notified != 0 {
		t.Fatalf("expected removing an unknown node to be silent, got %d notifications", notified)
	}
}

func TestEngineNotifiesExactlyOnceForAddNode(t *testing.T) {
	e := NewEngine(1)
	events := 0
	e.Subscribe(func(kb.Event) { events++ })

	e.AddNode(model.Vec2{}, model.NodeTypeSource)

	if events != 1 {
		t.Fatalf("expected add_node to notify exactly once, got %d", events)
	}
}

func TestEngineSetConnectionRadiusIdempotentStillNotifies(t *testing.T) {
	e := NewEngine(1)
	e.SetConnectionRadius(3.0)

	events := 0
	e.Subscribe(func(kb.Event) { events++ })
	e.SetConnectionRadius(3.0) // same value again

	if events != 1 {
		t.Fatalf("expected calling a setter with its current value to still notify exactly once, got %d", events)
	}
}

func TestEngineSinkDisappearanceDemotesDependentRoutes(t *testing.T) {
	e := NewEngine(1)
	a := e.AddNode(model.Vec2{X: 0, Y: 0}, model.NodeTypeSource)
	_ = e.AddNode(model.Vec2{X: 1, Y: 0}, model.NodeTypeSource)
	sinkID := e.AddNode(model.Vec2{X: 2, Y: 0}, model.NodeTypeSink)

	e.Tick(0.001) // settle routing tables

	node := e.GetNode(a)
	if _, ok := node.RoutingTable[model.SinkIdOf(sinkID)]; !ok {
		t.Fatalf("setup: expected a route to the sink before removing it")
	}

	e.RemoveNode(sinkID)
	e.Tick(0.001)

	node = e.GetNode(a)
	if _, ok := node.RoutingTable[model.SinkIdOf(sinkID)]; ok {
		t.Fatalf("expected the route to the removed sink to be gone from the active table")
	}
}

func TestEngineResetClearsEverythingAndTime(t *testing.T) {
	e := NewEngine(1)
	e.AddNode(model.Vec2{}, model.NodeTypeSource)
	e.SetConnectionRadius(9.0)
	e.Tick(1.0)

	e.Reset()

	if len(e.GetNodes()) != 0 {
		t.Fatalf("expected reset to clear all nodes")
	}
	if e.Now() != (time.Time{}) {
		t.Fatalf("expected reset to zero the simulated clock")
	}
	stats := e.GetStats()
	if stats.NodeCount != 0 || stats.DistinctTriagesObserved != 0 {
		t.Fatalf("expected reset stats to be zeroed, got %+v", stats)
	}
}

func TestEngineToggleNodeTypeTriggersNewSinkReplay(t *testing.T) {
	e := NewEngine(1)
	a := e.AddNode(model.Vec2{X: 0, Y: 0}, model.NodeTypeSource)
	sinkID := e.AddNode(model.Vec2{X: 1, Y: 0}, model.NodeTypeSink)
	e.Tick(0.001)

	e.SendMessage(sinkID, model.MessageTriage, model.SeverityRed)

	// Promote a to a sink; the existing sink should catch it up on its
	// own triage via new-sink replay through the freshly built
	// sink-to-sink routing table entry, in the same call.
	e.ToggleNodeType(a)

	found := false
	for _, m := range e.GetMessages() {
		if m.To == a && m.Kind == model.MessageTriage {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the newly promoted sink to receive a new-sink replay message")
	}
}

func TestEngineSendMessageUnknownNodeIsNoop(t *testing.T) {
	e := NewEngine(1)
	events := 0
	e.Subscribe(func(kb.Event) { events++ })

	e.SendMessage("nope", model.MessageTriage, model.SeverityRed)

	if events != 0 {
		t.Fatalf("expected sending from an unknown node to be a silent no-op, got %d events", events)
	}
}

func TestEngineGetConnectionsReportsEachLinkOnce(t *testing.T) {
	e := NewEngine(1)
	e.AddNode(model.Vec2{X: 0, Y: 0}, model.NodeTypeSource)
	e.AddNode(model.Vec2{X: 1, Y: 0}, model.NodeTypeSink)

	conns := e.GetConnections()
	if len(conns) != 1 {
		t.Fatalf("expected exactly one undirected connection, got %d", len(conns))
	}
}

func TestEngineSetInactiveRoutingTimeoutClamps(t *testing.T) {
	e := NewEngine(1)
	e.SetInactiveRoutingTimeout(1 * time.Millisecond) // below the 1s floor

	// There's no direct getter for cfg, so exercise the clamp indirectly
	// through a route that goes inactive and confirm it survives half a
	// second — far past the requested 1ms, still inside the 1s floor.
	a := e.AddNode(model.Vec2{X: 0, Y: 0}, model.NodeTypeSource)
	sinkID := e.AddNode(model.Vec2{X: 1, Y: 0}, model.NodeTypeSink)
	e.Tick(0.001)
	e.RemoveNode(sinkID)
	e.Tick(0.5)

	node := e.GetNode(a)
	if _, ok := node.InactiveRoutingTables[model.SinkIdOf(sinkID)]; !ok {
		t.Fatalf("expected the demoted route to still be present 0.5s after demotion, inside the clamped 1s floor")
	}
}

func TestEngineSetRouteExpiryClamps(t *testing.T) {
	e := NewEngine(1)

	e.SetRouteExpiry(1 * time.Second) // below the 10s floor
	if e.cfg.RouteExpiry != minRouteExpiry {
		t.Fatalf("expected route expiry to clamp to the floor, got %v", e.cfg.RouteExpiry)
	}

	e.SetRouteExpiry(1 * time.Hour) // above the 30min ceiling
	if e.cfg.RouteExpiry != maxRouteExpiry {
		t.Fatalf("expected route expiry to clamp to the ceiling, got %v", e.cfg.RouteExpiry)
	}
}

func TestEngineSetDefaultMessageSpeedClamps(t *testing.T) {
	e := NewEngine(1)

	e.SetDefaultMessageSpeed(0.0)
	if e.cfg.DefaultMessageSpeed != minDefaultMessageSpeed {
		t.Fatalf("expected message speed to clamp to the floor, got %v", e.cfg.DefaultMessageSpeed)
	}

	e.SetDefaultMessageSpeed(1000.0)
	if e.cfg.DefaultMessageSpeed != maxDefaultMessageSpeed {
		t.Fatalf("expected message speed to clamp to the ceiling, got %v", e.cfg.DefaultMessageSpeed)
	}
}
