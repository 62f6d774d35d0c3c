package core

import (
	"testing"
	"time"

	"github.com/signalsfoundry/foors-plus/model"
)

func TestClassifyModeNoConnections(t *testing.T) {
	n := model.NewNode("a", model.NodeTypeSource, model.Vec2{}, 2.0)
	ClassifyMode(n, false, time.Now(), DefaultConfig())
	if n.RoutingState.Mode != model.ModeNoConnections {
		t.Fatalf("expected no-connections mode with zero neighbors, got %s", n.RoutingState.Mode)
	}
}

func TestClassifyModeSinkWithZeroRoutesIsIntelligentNotFlooding(t *testing.T) {
	n := model.NewNode("s", model.NodeTypeSink, model.Vec2{}, 2.0)
	n.Neighbors["p"] = struct{}{}
	ClassifyMode(n, true, time.Now(), DefaultConfig())
	if n.RoutingState.Mode != model.ModeIntelligent {
		t.Fatalf("expected a connected sink with no routes to itself to be intelligent, got %s", n.RoutingState.Mode)
	}
}

func TestClassifyModeSourceWithNoRoutesFloods(t *testing.T) {
	n := model.NewNode("a", model.NodeTypeSource, model.Vec2{}, 2.0)
	n.Neighbors["p"] = struct{}{}
	ClassifyMode(n, false, time.Now(), DefaultConfig())
	if n.RoutingState.Mode != model.ModeFlooding {
		t.Fatalf("expected a connected source with no routes to flood, got %s", n.RoutingState.Mode)
	}
	if n.RoutingState.FloodingReason != model.ReasonNoRoutes {
		t.Fatalf("expected reason no-routes, got %s", n.RoutingState.FloodingReason)
	}
}

func TestClassifyModeActiveRouteIsIntelligent(t *testing.T) {
	n := model.NewNode("a", model.NodeTypeSource, model.Vec2{}, 2.0)
	n.Neighbors["p"] = struct{}{}
	now := time.Now()
	n.RoutingTable["s"] = &model.RoutingTableEntry{NextHops: map[model.NodeId]int{"p": 1}, LastUpdate: now}
	ClassifyMode(n, false, now, DefaultConfig())
	if n.RoutingState.Mode != model.ModeIntelligent {
		t.Fatalf("expected intelligent mode with a fresh route, got %s", n.RoutingState.Mode)
	}
}

func TestClassifyModeExpiredRouteFloods(t *testing.T) {
	cfg := DefaultConfig()
	n := model.NewNode("a", model.NodeTypeSource, model.Vec2{}, 2.0)
	n.Neighbors["p"] = struct{}{}
	old := time.Now()
	n.RoutingTable["s"] = &model.RoutingTableEntry{NextHops: map[model.NodeId]int{"p": 1}, LastUpdate: old}
	later := old.Add(cfg.RouteExpiry + time.Second)
	ClassifyMode(n, false, later, cfg)
	if n.RoutingState.Mode != model.ModeFlooding || n.RoutingState.FloodingReason != model.ReasonRoutesExpired {
		t.Fatalf("expected flooding/routes-expired once past the expiry window, got %s/%s", n.RoutingState.Mode, n.RoutingState.FloodingReason)
	}
}

func TestClassifyModeInactiveRoutesTakePriorityOverActive(t *testing.T) {
	n := model.NewNode("a", model.NodeTypeSource, model.Vec2{}, 2.0)
	n.Neighbors["p"] = struct{}{}
	now := time.Now()
	n.RoutingTable["s1"] = &model.RoutingTableEntry{NextHops: map[model.NodeId]int{"p": 1}, LastUpdate: now}
	n.InactiveRoutingTables["s2"] = &model.InactiveRoutingEntry{InactiveSince: now}
	ClassifyMode(n, false, now, DefaultConfig())
	if n.RoutingState.Mode != model.ModeInactive {
		t.Fatalf("expected inactive mode to take priority over an active route, got %s", n.RoutingState.Mode)
	}
}

func TestClassifyModeOnlyAdvancesLastStateChangeOnTransition(t *testing.T) {
	cfg := DefaultConfig()
	n := model.NewNode("a", model.NodeTypeSource, model.Vec2{}, 2.0)
	t0 := time.Now()
	ClassifyMode(n, false, t0, cfg)
	if !n.RoutingState.LastStateChange.Equal(t0) {
		t.Fatalf("expected the first classification to stamp last_state_change")
	}

	t1 := t0.Add(time.Second)
	ClassifyMode(n, false, t1, cfg)
	if !n.RoutingState.LastStateChange.Equal(t0) {
		t.Fatalf("expected last_state_change to stay put when the mode doesn't change, got %v", n.RoutingState.LastStateChange)
	}
}
