package core

import (
	"time"

	"github.com/signalsfoundry/foors-plus/model"
)

// RebuildRoutes runs one BFS per sink over the undirected neighbor
// graph and updates every node's routing_table/inactive_routing_tables
// accordingly, per spec.md §4.2.
//
// "Non-sink node N" in the contract is read as N != S (see DESIGN.md,
// open question 4): a sink can and does carry routing_table entries
// toward other sinks, which is what new-sink replay (§4.6) walks.
//
// Grounded on internal/sbi/controller/pathfinding.go's
// graph-construction-then-traversal shape, generalized from
// time-expanded multi-hop pathfinding to a plain per-tick BFS with
// deterministic (sorted) neighbor expansion.
func RebuildRoutes(nodes map[model.NodeId]*model.Node, sinks []model.SinkId, now time.Time, cfg Config) {
	sinkSet := make(map[model.SinkId]struct{}, len(sinks))
	for _, s := range sinks {
		sinkSet[s] = struct{}{}
	}

	// Demote entries whose sink vanished from the world before this
	// pass' BFS trees are built.
	for _, n := range nodes {
		for s, entry := range n.RoutingTable {
			if _, stillSink := sinkSet[s]; !stillSink {
				demoteRoute(n, s, entry, now)
			}
		}
	}

	for _, s := range sinks {
		dist := bfsDistances(nodes, model.NodeIdOf(s))
		sinkNodeID := model.NodeIdOf(s)

		for id, n := range nodes {
			if id == sinkNodeID {
				continue
			}
			dn, reachable := dist[id]
			if !reachable {
				if entry, ok := n.RoutingTable[s]; ok {
					demoteRoute(n, s, entry, now)
				}
				continue
			}
			nextHops := make(map[model.NodeId]int)
			for _, p := range n.SortedNeighbors() {
				if dp, ok := dist[p]; ok && dp == dn-1 {
					nextHops[p] = dp + 1
				}
			}
			n.RoutingTable[s] = &model.RoutingTableEntry{NextHops: nextHops, LastUpdate: now}
			delete(n.InactiveRoutingTables, s)
		}
	}

	for _, n := range nodes {
		for s, ie := range n.InactiveRoutingTables {
			if now.Sub(ie.InactiveSince) > cfg.InactiveRoutingTimeout {
				delete(n.InactiveRoutingTables, s)
			}
		}
	}
}

func demoteRoute(n *model.Node, s model.SinkId, entry *model.RoutingTableEntry, now time.Time) {
	n.InactiveRoutingTables[s] = &model.InactiveRoutingEntry{
		NextHops:      entry.NextHops,
		InactiveSince: now,
	}
	delete(n.RoutingTable, s)
}

// bfsDistances returns the hop count from start to every reachable
// node, start included at distance 0. Neighbor expansion is sorted so
// that runs over the same topology are fully deterministic.
func bfsDistances(nodes map[model.NodeId]*model.Node, start model.NodeId) map[model.NodeId]int {
	dist := map[model.NodeId]int{start: 0}
	if _, ok := nodes[start]; !ok {
		return dist
	}
	queue := []model.NodeId{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		n, ok := nodes[cur]
		if !ok {
			continue
		}
		for _, p := range n.SortedNeighbors() {
			if _, seen := dist[p]; seen {
				continue
			}
			dist[p] = dist[cur] + 1
			queue = append(queue, p)
		}
	}
	return dist
}
