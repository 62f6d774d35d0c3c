package core

import (
	"sort"

	"github.com/signalsfoundry/foors-plus/model"
)

// NewLinkReplay implements the new-link half of spec.md §4.6. It
// walks every node/peer pair that just became neighbors (as reported
// by RecomputeLinks) and seeds triages the peer hasn't seen.
//
// New component; grounded on kb/kb.go's "something changed, tell
// interested parties" event shape and internal/sim/state/state.go's
// ClearScenario-style "walk everything, act where a predicate holds"
// loops.
func (p *Pipeline) NewLinkReplay(diff LinkDiff, isSink func(model.NodeId) bool) {
	nodeIDs := make([]model.NodeId, 0, len(diff.NewNeighbors))
	for id := range diff.NewNeighbors {
		nodeIDs = append(nodeIDs, id)
	}
	sort.Slice(nodeIDs, func(i, j int) bool { return nodeIDs[i] < nodeIDs[j] })

	for _, nid := range nodeIDs {
		n, ok := p.nodes[nid]
		if !ok {
			continue
		}
		for _, pid := range diff.NewNeighbors[nid] {
			peer, ok := p.nodes[pid]
			if !ok {
				continue
			}
			if isSink(peer.ID) {
				p.replayToSink(n, peer)
			} else {
				p.replayToRouter(n, peer)
			}
		}
	}
}

func (p *Pipeline) replayToSink(n, sink *model.Node) {
	triageIDs := sortedTriageIDs(n.TriageStore)
	for _, t := range triageIDs {
		if _, seen := sink.TriageStore[t]; seen {
			continue
		}
		p.emit(n.ID, sink.ID, model.MessageTriage, t, n.TriageStore[t])
	}
}

func (p *Pipeline) replayToRouter(n, peer *model.Node) {
	reachable := make(map[model.SinkId]struct{}, len(peer.RoutingTable))
	for s := range peer.RoutingTable {
		reachable[s] = struct{}{}
	}
	if len(reachable) == 0 {
		return
	}

	triageIDs := sortedTriageIDs(n.TriageStore)
	for _, t := range triageIDs {
		if !anyUntargeted(n, t, reachable) {
			continue
		}
		if _, seen := peer.TriageStore[t]; !seen {
			p.emit(n.ID, peer.ID, model.MessageTriage, t, n.TriageStore[t])
		}
		n.MarkTargeted(t, reachable)
	}
}

func anyUntargeted(n *model.Node, t model.TriageId, sinks map[model.SinkId]struct{}) bool {
	targeted := n.SentTriagesToSinks[t]
	for s := range sinks {
		if _, ok := targeted[s]; !ok {
			return true
		}
	}
	return false
}

// NewSinkReplay implements the new-sink half of spec.md §4.6: for
// every newly-appeared sink S, every other sink S' that has a
// routing_table entry for S replays its own uncatalogued triages
// through that routing table (intelligent-path propagation, not
// flooding).
func (p *Pipeline) NewSinkReplay(newSinks []model.SinkId, allSinks []model.SinkId) {
	sorted := append([]model.SinkId(nil), newSinks...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	for _, s := range sorted {
		sink, ok := p.nodes[model.NodeIdOf(s)]
		if !ok {
			continue
		}
		for _, other := range allSinks {
			if other == s {
				continue
			}
			otherNode, ok := p.nodes[model.NodeIdOf(other)]
			if !ok {
				continue
			}
			entry, ok := otherNode.RoutingTable[s]
			if !ok {
				continue
			}
			p.replaySinkCatalog(otherNode, sink, entry)
		}
	}
}

func (p *Pipeline) replaySinkCatalog(from, sink *model.Node, entry *model.RoutingTableEntry) {
	needed := map[model.SinkId]struct{}{model.SinkIdOf(sink.ID): {}}
	triageIDs := sortedTriageIDs(from.TriageStore)
	for _, t := range triageIDs {
		if _, seen := sink.TriageStore[t]; seen {
			continue
		}
		if !anyUntargeted(from, t, needed) {
			continue
		}
		sev := from.TriageStore[t]
		nextHops := make([]model.NodeId, 0, len(entry.NextHops))
		for hop := range entry.NextHops {
			nextHops = append(nextHops, hop)
		}
		sort.Slice(nextHops, func(i, j int) bool { return nextHops[i] < nextHops[j] })
		for _, hop := range nextHops {
			p.emit(from.ID, hop, model.MessageTriage, t, sev)
		}
		from.MarkTargeted(t, needed)
	}
}

func sortedTriageIDs(store map[model.TriageId]model.Severity) []model.TriageId {
	out := make([]model.TriageId, 0, len(store))
	for id := range store {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
