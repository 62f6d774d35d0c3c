package model

import "time"

// RoutingTableEntry is the per-(node, sink) live route: a mapping
// from next-hop peer to the total hop count reaching the sink via
// that peer, plus the tick at which it was last (re)computed by the
// BFS builder. Never empty while the entry exists — an entry with no
// surviving next hop is demoted to an InactiveRoutingEntry instead of
// being left around empty.
type RoutingTableEntry struct {
	// NextHops maps a current neighbor to the total hop count to the
	// sink when routing through that neighbor.
	NextHops map[NodeId]int
	// LastUpdate is the simulated time this entry was last confirmed
	// reachable by the BFS builder.
	LastUpdate time.Time
}

// Clone returns a deep copy safe for a caller to mutate.
func (e *RoutingTableEntry) Clone() *RoutingTableEntry {
	if e == nil {
		return nil
	}
	next := make(map[NodeId]int, len(e.NextHops))
	for k, v := range e.NextHops {
		next[k] = v
	}
	return &RoutingTableEntry{NextHops: next, LastUpdate: e.LastUpdate}
}

// InactiveRoutingEntry is a snapshot of the last active
// RoutingTableEntry for a (node, sink) pair that recently lost
// reachability, retained for a grace period before deletion.
type InactiveRoutingEntry struct {
	NextHops      map[NodeId]int
	InactiveSince time.Time
}

// RoutingState is the mode-classifier output for one node: its
// current RoutingMode, the route counts that produced it, and the
// tick at which the mode last changed.
type RoutingState struct {
	Mode            RoutingMode
	ActiveRoutes    int
	ExpiredRoutes   int
	InactiveRoutes  int
	FloodingReason  FloodingReason
	LastStateChange time.Time
}
