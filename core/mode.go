package core

import (
	"time"

	"github.com/signalsfoundry/foors-plus/model"
)

// ClassifyMode applies the precondition table from spec.md §4.3 to a
// single node, using its already-rebuilt routing_table and
// inactive_routing_tables. last_state_change only advances on an
// actual mode transition.
//
// New component; no direct teacher analogue, but shaped like
// core/connectivity_service.go's classifyLinkBySNR — a pure function
// mapping ordered threshold checks onto an enum plus an explanatory
// reason.
func ClassifyMode(n *model.Node, isSink bool, now time.Time, cfg Config) {
	active, expired := 0, 0
	for _, entry := range n.RoutingTable {
		if now.Sub(entry.LastUpdate) > cfg.RouteExpiry {
			expired++
		} else {
			active++
		}
	}
	inactive := len(n.InactiveRoutingTables)

	var mode model.RoutingMode
	var reason model.FloodingReason

	switch {
	case len(n.Neighbors) == 0:
		mode, reason = model.ModeNoConnections, model.ReasonNoConnections
	case isSink && active == 0 && expired == 0 && inactive == 0:
		mode, reason = model.ModeIntelligent, model.ReasonNone
	case inactive > 0:
		mode, reason = model.ModeInactive, model.ReasonHasInactiveRoutes
	case active > 0:
		mode, reason = model.ModeIntelligent, model.ReasonNone
	case expired > 0:
		mode, reason = model.ModeFlooding, model.ReasonRoutesExpired
	default:
		mode, reason = model.ModeFlooding, model.ReasonNoRoutes
	}

	if mode != n.RoutingState.Mode {
		n.RoutingState.LastStateChange = now
	}
	n.RoutingState.Mode = mode
	n.RoutingState.FloodingReason = reason
	n.RoutingState.ActiveRoutes = active
	n.RoutingState.ExpiredRoutes = expired
	n.RoutingState.InactiveRoutes = inactive
}
