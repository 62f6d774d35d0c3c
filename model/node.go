package model

import "time"

// Node is the central aggregate: a mesh participant that is either a
// triage source or a triage sink, and always a router for its peers.
//
// Fields are grouped the way spec.md §3 lists them. TriageStore is
// keyed by TriageId for O(1) membership checks (the dedup guard);
// unlike the letter of the spec it also carries the Severity that
// accompanied the first sighting, because boundary replay (§4.6) must
// reconstruct a Message for a triage this node has never itself sent
// — the severity has to live somewhere, and the store is the only
// per-triage state a node keeps once queued/forwarded copies are gone.
type Node struct {
	ID               NodeId
	Type             NodeType
	Position         Vec2
	Velocity         Vec2
	Radius           float64
	ConnectionRadius float64

	// Neighbors is the undirected, symmetric neighbor set recomputed
	// by the link recomputer every tick.
	Neighbors map[NodeId]struct{}

	// TriageStore is the dedup guard: every TriageId this node has
	// ever accepted, with the severity it first saw.
	TriageStore map[TriageId]Severity

	// TriageQueue holds triages queued while this node had no
	// neighbors, awaiting a reconnection flush.
	TriageQueue *TriageQueue

	// SentTriagesToSinks is a suppression guard, not a delivery
	// record: triage_id -> set of sink_id this node has already
	// attempted to push the triage toward. Entries are never removed,
	// so the map grows with every triage the node has pushed.
	SentTriagesToSinks map[TriageId]map[SinkId]struct{}

	RoutingTable          map[SinkId]*RoutingTableEntry
	InactiveRoutingTables map[SinkId]*InactiveRoutingEntry

	RoutingState RoutingState

	LastMessageReceivedAt time.Time
}

// NewNode constructs a Node with all maps initialized so callers never
// have to nil-check before writing into them.
func NewNode(id NodeId, typ NodeType, pos Vec2, connectionRadius float64) *Node {
	return &Node{
		ID:                    id,
		Type:                  typ,
		Position:              pos,
		ConnectionRadius:      connectionRadius,
		Neighbors:             make(map[NodeId]struct{}),
		TriageStore:           make(map[TriageId]Severity),
		TriageQueue:           NewTriageQueue(),
		SentTriagesToSinks:    make(map[TriageId]map[SinkId]struct{}),
		RoutingTable:          make(map[SinkId]*RoutingTableEntry),
		InactiveRoutingTables: make(map[SinkId]*InactiveRoutingEntry),
	}
}

// HasNeighbor reports whether peer is a current neighbor.
func (n *Node) HasNeighbor(peer NodeId) bool {
	_, ok := n.Neighbors[peer]
	return ok
}

// SortedNeighbors returns the neighbor set as a slice ordered by
// NodeId, giving deterministic iteration order for tie-breaking (see
// spec.md §9 "Determinism").
func (n *Node) SortedNeighbors() []NodeId {
	out := make([]NodeId, 0, len(n.Neighbors))
	for id := range n.Neighbors {
		out = append(out, id)
	}
	sortNodeIds(out)
	return out
}

// MarkTargeted records that this node has attempted to push triage id
// toward every sink in sinks.
func (n *Node) MarkTargeted(id TriageId, sinks map[SinkId]struct{}) {
	if len(sinks) == 0 {
		return
	}
	set, ok := n.SentTriagesToSinks[id]
	if !ok {
		set = make(map[SinkId]struct{}, len(sinks))
		n.SentTriagesToSinks[id] = set
	}
	for s := range sinks {
		set[s] = struct{}{}
	}
}

// AllSinksTargeted reports whether every sink in sinks is already
// present in this node's suppression record for triage id.
func (n *Node) AllSinksTargeted(id TriageId, sinks map[SinkId]struct{}) bool {
	targeted := n.SentTriagesToSinks[id]
	for s := range sinks {
		if _, ok := targeted[s]; !ok {
			return false
		}
	}
	return true
}

func sortNodeIds(ids []NodeId) {
	for i := 1; i < len(ids); i++ {
		for j := i; j > 0 && ids[j-1] > ids[j]; j-- {
			ids[j-1], ids[j] = ids[j], ids[j-1]
		}
	}
}
