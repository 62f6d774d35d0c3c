package core

import (
	"testing"
	"time"

	"github.com/signalsfoundry/foors-plus/model"
)

func TestNewLinkReplayToSink(t *testing.T) {
	n := model.NewNode("n", model.NodeTypeSource, model.Vec2{}, 2.0)
	n.TriageStore["t1"] = model.SeverityRed
	sinkNode := model.NewNode("s", model.NodeTypeSink, model.Vec2{}, 2.0)

	nodes := map[model.NodeId]*model.Node{"n": n, "s": sinkNode}
	sink := newFakeSink()
	p := NewPipeline(nodes, sink, DefaultConfig(), fixedNow(time.Now()), nil)

	diff := LinkDiff{NewNeighbors: map[model.NodeId][]model.NodeId{"n": {"s"}}}
	p.NewLinkReplay(diff, func(id model.NodeId) bool { return id == "s" })

	msgs := sink.ListMessages()
	if len(msgs) != 1 || msgs[0].To != "s" || msgs[0].TriageID != "t1" {
		t.Fatalf("expected the pre-existing triage to replay straight to the newly linked sink, got %v", msgs)
	}
}

func TestNewLinkReplayToSinkSkipsAlreadySeen(t *testing.T) {
	n := model.NewNode("n", model.NodeTypeSource, model.Vec2{}, 2.0)
	n.TriageStore["t1"] = model.SeverityRed
	sinkNode := model.NewNode("s", model.NodeTypeSink, model.Vec2{}, 2.0)
	sinkNode.TriageStore["t1"] = model.SeverityRed

	nodes := map[model.NodeId]*model.Node{"n": n, "s": sinkNode}
	sink := newFakeSink()
	p := NewPipeline(nodes, sink, DefaultConfig(), fixedNow(time.Now()), nil)

	diff := LinkDiff{NewNeighbors: map[model.NodeId][]model.NodeId{"n": {"s"}}}
	p.NewLinkReplay(diff, func(id model.NodeId) bool { return id == "s" })

	if len(sink.ListMessages()) != 0 {
		t.Fatalf("expected no replay for a triage the sink already has")
	}
}

func TestNewLinkReplayToRouterUsesReachableSinks(t *testing.T) {
	n := model.NewNode("n", model.NodeTypeSource, model.Vec2{}, 2.0)
	n.TriageStore["t1"] = model.SeverityRed
	router := model.NewNode("r", model.NodeTypeSource, model.Vec2{}, 2.0)
	router.RoutingTable["s1"] = &model.RoutingTableEntry{NextHops: map[model.NodeId]int{"x": 1}}

	nodes := map[model.NodeId]*model.Node{"n": n, "r": router}
	sink := newFakeSink()
	p := NewPipeline(nodes, sink, DefaultConfig(), fixedNow(time.Now()), nil)

	diff := LinkDiff{NewNeighbors: map[model.NodeId][]model.NodeId{"n": {"r"}}}
	p.NewLinkReplay(diff, func(model.NodeId) bool { return false })

	msgs := sink.ListMessages()
	if len(msgs) != 1 || msgs[0].To != "r" {
		t.Fatalf("expected the triage to replay to the router since it reaches sink s1, got %v", msgs)
	}
}

func TestNewLinkReplayToRouterSkipsUnreachableRouter(t *testing.T) {
	n := model.NewNode("n", model.NodeTypeSource, model.Vec2{}, 2.0)
	n.TriageStore["t1"] = model.SeverityRed
	router := model.NewNode("r", model.NodeTypeSource, model.Vec2{}, 2.0) // empty routing table

	nodes := map[model.NodeId]*model.Node{"n": n, "r": router}
	sink := newFakeSink()
	p := NewPipeline(nodes, sink, DefaultConfig(), fixedNow(time.Now()), nil)

	diff := LinkDiff{NewNeighbors: map[model.NodeId][]model.NodeId{"n": {"r"}}}
	p.NewLinkReplay(diff, func(model.NodeId) bool { return false })

	if len(sink.ListMessages()) != 0 {
		t.Fatalf("expected no replay to a router that reaches no sinks")
	}
}

func TestNewSinkReplayPropagatesThroughRoutingTable(t *testing.T) {
	s1 := model.NewNode("s1", model.NodeTypeSink, model.Vec2{}, 2.0)
	s1.TriageStore["t1"] = model.SeverityBlack
	s1.RoutingTable["s2"] = &model.RoutingTableEntry{NextHops: map[model.NodeId]int{"hop": 3}}
	s2 := model.NewNode("s2", model.NodeTypeSink, model.Vec2{}, 2.0)

	nodes := map[model.NodeId]*model.Node{"s1": s1, "s2": s2}
	sink := newFakeSink()
	p := NewPipeline(nodes, sink, DefaultConfig(), fixedNow(time.Now()), nil)

	p.NewSinkReplay([]model.SinkId{"s2"}, []model.SinkId{"s1", "s2"})

	msgs := sink.ListMessages()
	if len(msgs) != 1 || msgs[0].To != "hop" || msgs[0].TriageID != "t1" {
		t.Fatalf("expected s1 to replay its triage toward s2's next hop, got %v", msgs)
	}
}

func TestNewSinkReplaySkipsTriagesSinkAlreadyHas(t *testing.T) {
	s1 := model.NewNode("s1", model.NodeTypeSink, model.Vec2{}, 2.0)
	s1.TriageStore["t1"] = model.SeverityBlack
	s1.RoutingTable["s2"] = &model.RoutingTableEntry{NextHops: map[model.NodeId]int{"hop": 3}}
	s2 := model.NewNode("s2", model.NodeTypeSink, model.Vec2{}, 2.0)
	s2.TriageStore["t1"] = model.SeverityBlack

	nodes := map[model.NodeId]*model.Node{"s1": s1, "s2": s2}
	sink := newFakeSink()
	p := NewPipeline(nodes, sink, DefaultConfig(), fixedNow(time.Now()), nil)

	p.NewSinkReplay([]model.SinkId{"s2"}, []model.SinkId{"s1", "s2"})

	if len(sink.ListMessages()) != 0 {
		t.Fatalf("expected no replay for a triage the new sink already has")
	}
}
