package core

import (
	"testing"
	"time"

	"github.com/signalsfoundry/foors-plus/model"
)

// buildChain wires a..z into a straight line: a-b-c-... and returns the
// node map keyed by id, ready for RecomputeLinks/RebuildRoutes.
func buildChain(ids ...model.NodeId) map[model.NodeId]*model.Node {
	nodes := make(map[model.NodeId]*model.Node, len(ids))
	for i, id := range ids {
		typ := model.NodeTypeSource
		if i == len(ids)-1 {
			typ = model.NodeTypeSink
		}
		nodes[id] = model.NewNode(id, typ, model.Vec2{X: float64(i) * 1.5, Y: 0}, 2.0)
	}
	slice := make([]*model.Node, 0, len(ids))
	for _, id := range ids {
		slice = append(slice, nodes[id])
	}
	RecomputeLinks(slice)
	return nodes
}

func TestRebuildRoutesLinearChain(t *testing.T) {
	nodes := buildChain("a", "b", "c")
	now := time.Now()
	RebuildRoutes(nodes, []model.SinkId{"c"}, now, DefaultConfig())

	entry, ok := nodes["a"].RoutingTable["c"]
	if !ok {
		t.Fatalf("expected a to have a route to sink c")
	}
	if hop, ok := entry.NextHops["b"]; !ok || hop != 2 {
		t.Fatalf("expected a's route to c to go via b at hop count 2, got %+v", entry.NextHops)
	}

	bEntry, ok := nodes["b"].RoutingTable["c"]
	if !ok || bEntry.NextHops["c"] != 1 {
		t.Fatalf("expected b to route directly to c at hop count 1, got %+v", bEntry)
	}

	if _, ok := nodes["c"].RoutingTable["c"]; ok {
		t.Fatalf("a sink should not carry a routing_table entry toward itself")
	}
}

func TestRebuildRoutesDemotesOnSinkDisappearance(t *testing.T) {
	nodes := buildChain("a", "b", "c")
	now := time.Now()
	cfg := DefaultConfig()
	RebuildRoutes(nodes, []model.SinkId{"c"}, now, cfg)
	if _, ok := nodes["a"].RoutingTable["c"]; !ok {
		t.Fatalf("setup: expected a route before removing the sink")
	}

	delete(nodes, "c")
	nodes["b"].Neighbors = map[model.NodeId]struct{}{"a": {}}
	nodes["a"].Neighbors = map[model.NodeId]struct{}{"b": {}}

	RebuildRoutes(nodes, nil, now, cfg)

	if _, ok := nodes["a"].RoutingTable["c"]; ok {
		t.Fatalf("expected a's route to the vanished sink to be demoted out of the active table")
	}
	if _, ok := nodes["a"].InactiveRoutingTables["c"]; !ok {
		t.Fatalf("expected a's demoted route to appear in inactive_routing_tables")
	}
}

func TestRebuildRoutesExpiresInactiveEntriesAfterTimeout(t *testing.T) {
	nodes := buildChain("a", "b")
	cfg := DefaultConfig()
	cfg.InactiveRoutingTimeout = 1 * time.Second
	start := time.Now()

	RebuildRoutes(nodes, []model.SinkId{"b"}, start, cfg)
	delete(nodes, "b")
	nodes["a"].Neighbors = map[model.NodeId]struct{}{}

	RebuildRoutes(nodes, nil, start, cfg)
	if _, ok := nodes["a"].InactiveRoutingTables["b"]; !ok {
		t.Fatalf("expected the route to be inactive immediately after the sink vanished")
	}

	later := start.Add(2 * time.Second)
	RebuildRoutes(nodes, nil, later, cfg)
	if _, ok := nodes["a"].InactiveRoutingTables["b"]; ok {
		t.Fatalf("expected the inactive entry to be purged once the timeout elapsed")
	}
}

func TestRebuildRoutesSinkToSinkEntry(t *testing.T) {
	a := model.NewNode("s1", model.NodeTypeSink, model.Vec2{X: 0, Y: 0}, 2.0)
	b := model.NewNode("mid", model.NodeTypeSource, model.Vec2{X: 1, Y: 0}, 2.0)
	c := model.NewNode("s2", model.NodeTypeSink, model.Vec2{X: 2, Y: 0}, 2.0)
	nodes := map[model.NodeId]*model.Node{"s1": a, "mid": b, "s2": c}
	RecomputeLinks([]*model.Node{a, b, c})

	RebuildRoutes(nodes, []model.SinkId{"s1", "s2"}, time.Now(), DefaultConfig())

	if _, ok := a.RoutingTable["s2"]; !ok {
		t.Fatalf("expected sink s1 to carry a routing_table entry toward sink s2")
	}
}
