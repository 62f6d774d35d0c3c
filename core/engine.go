// Package core implements the FOORS+ routing and forwarding engine:
// link recomputation, BFS routing-table construction, mode
// classification, target selection, the message pipeline, boundary
// replay, and auto-generation, wired together by Engine.
package core

import (
	"sort"
	"time"

	"github.com/signalsfoundry/foors-plus/kb"
	"github.com/signalsfoundry/foors-plus/model"
)

// Engine is the single-threaded, tick-driven simulation described in
// spec.md §2: it owns no lock of its own (spec.md §5: "single-threaded
// cooperative"; concurrent external access is the caller's problem —
// see internal/sim/state.ScenarioState, which wraps an Engine with a
// sync.RWMutex the way the teacher's ScenarioState wraps its KB).
//
// Grounded on core/simulation_engine.go's SimulationEngine (a thin
// struct tying a KnowledgeBase to a per-tick driver), generalized from
// that teacher's single Run(ticks) loop to the full
// apply_motion -> ... -> notify pipeline spec.md §5 specifies.
type Engine struct {
	kb  *kb.KnowledgeBase
	cfg Config
	now time.Time

	autogen  *AutoGenerator
	distinct *DistinctTriageCounter
}

// NewEngine returns an empty engine with default configuration. seed
// drives the auto-generator's random source; pass a fixed value for
// reproducible tests.
func NewEngine(seed int64) *Engine {
	return &Engine{
		kb:       kb.NewKnowledgeBase(),
		cfg:      DefaultConfig(),
		autogen:  NewAutoGenerator(seed),
		distinct: NewDistinctTriageCounter(),
	}
}

// KB exposes the underlying knowledge base, primarily so callers can
// Subscribe to change notifications.
func (e *Engine) KB() *kb.KnowledgeBase { return e.kb }

// Now returns the engine's current simulated time.
func (e *Engine) Now() time.Time { return e.now }

func (e *Engine) nodeMap() map[model.NodeId]*model.Node {
	list := e.kb.ListNodes()
	m := make(map[model.NodeId]*model.Node, len(list))
	for _, n := range list {
		m[n.ID] = n
	}
	return m
}

func nodeSlice(nodes map[model.NodeId]*model.Node) []*model.Node {
	out := make([]*model.Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (e *Engine) sinkIDs(nodes map[model.NodeId]*model.Node) []model.SinkId {
	var out []model.SinkId
	for id, n := range nodes {
		if n.Type == model.NodeTypeSink {
			out = append(out, model.SinkIdOf(id))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (e *Engine) isSinkFn(nodes map[model.NodeId]*model.Node) func(model.NodeId) bool {
	return func(id model.NodeId) bool {
		n, ok := nodes[id]
		return ok && n.Type == model.NodeTypeSink
	}
}

func (e *Engine) newPipeline(nodes map[model.NodeId]*model.Node) *Pipeline {
	return NewPipeline(nodes, e.kb, e.cfg, func() time.Time { return e.now }, e.distinct.Observe)
}

// reachableSinkSet returns every SinkId for which at least one node
// currently carries a routing_table entry (sinks routing to other
// sinks included, per DESIGN.md's reading of §4.2).
func (e *Engine) reachableSinkSet(nodes map[model.NodeId]*model.Node) map[model.SinkId]bool {
	out := make(map[model.SinkId]bool)
	for _, n := range nodes {
		for s := range n.RoutingTable {
			out[s] = true
		}
	}
	return out
}

// recomputeTopology runs rebuild_links -> queue-flush-on-reconnection
// -> rebuild_routes -> classify_modes -> boundary_replay_on_new_links,
// and reports which sinks transitioned from unreachable-by-anyone to
// reachable-by-someone this pass — the "newly reachable by another
// sink" trigger from spec.md §4.6's new-sink replay clause.
func (e *Engine) recomputeTopology(nodes map[model.NodeId]*model.Node) (LinkDiff, []model.SinkId) {
	prevReachable := e.reachableSinkSet(nodes)

	diff := RecomputeLinks(nodeSlice(nodes))

	pipeline := e.newPipeline(nodes)
	for _, id := range diff.BecameConnected {
		pipeline.FlushQueue(nodes[id])
	}

	sinks := e.sinkIDs(nodes)
	RebuildRoutes(nodes, sinks, e.now, e.cfg)
	for _, n := range nodes {
		ClassifyMode(n, n.Type == model.NodeTypeSink, e.now, e.cfg)
	}

	pipeline.NewLinkReplay(diff, e.isSinkFn(nodes))

	newReachable := e.reachableSinkSet(nodes)
	var newlyReachable []model.SinkId
	for s := range newReachable {
		if !prevReachable[s] {
			newlyReachable = append(newlyReachable, s)
		}
	}
	sort.Slice(newlyReachable, func(i, j int) bool { return newlyReachable[i] < newlyReachable[j] })
	return diff, newlyReachable
}

func appendUniqueSinkId(sinks []model.SinkId, s model.SinkId) []model.SinkId {
	for _, existing := range sinks {
		if existing == s {
			return sinks
		}
	}
	return append(sinks, s)
}

func (e *Engine) maybeReplayNewSinks(nodes map[model.NodeId]*model.Node, newSinks []model.SinkId) {
	if len(newSinks) == 0 {
		return
	}
	e.newPipeline(nodes).NewSinkReplay(newSinks, e.sinkIDs(nodes))
}

// AddNode implements spec.md §6's add_node.
func (e *Engine) AddNode(pos model.Vec2, typ model.NodeType) model.NodeId {
	n := model.NewNode(model.NewNodeId(), typ, pos, e.cfg.DefaultConnectionRadius)
	_ = e.kb.AddNode(n) // cannot fail: id is freshly minted

	nodes := e.nodeMap()
	_, newlyReachable := e.recomputeTopology(nodes)
	if typ == model.NodeTypeSink {
		newlyReachable = appendUniqueSinkId(newlyReachable, model.SinkIdOf(n.ID))
	}
	e.maybeReplayNewSinks(nodes, newlyReachable)

	e.kb.Notify(kb.Event{Type: kb.EventNodeAdded, NodeID: n.ID})
	return n.ID
}

// RemoveNode implements spec.md §6's remove_node. Unknown ids are a
// silent no-op (spec.md §7): no recompute, no notify.
func (e *Engine) RemoveNode(id model.NodeId) {
	if !e.kb.RemoveNode(id) {
		return
	}
	nodes := e.nodeMap()
	e.recomputeTopology(nodes)
	e.kb.Notify(kb.Event{Type: kb.EventNodeRemoved, NodeID: id})
}

// ToggleNodeType implements spec.md §6's toggle_node_type, triggering
// new-sink replay on source->sink transitions.
func (e *Engine) ToggleNodeType(id model.NodeId) {
	n := e.kb.GetNode(id)
	if n == nil {
		return
	}
	wasSink := n.Type == model.NodeTypeSink
	if wasSink {
		n.Type = model.NodeTypeSource
	} else {
		n.Type = model.NodeTypeSink
	}

	nodes := e.nodeMap()
	_, newlyReachable := e.recomputeTopology(nodes)
	if !wasSink {
		newlyReachable = appendUniqueSinkId(newlyReachable, model.SinkIdOf(id))
	}
	e.maybeReplayNewSinks(nodes, newlyReachable)

	e.kb.Notify(kb.Event{Type: kb.EventNodeChanged, NodeID: id})
}

// UpdateNodePosition implements spec.md §6's update_node_position.
func (e *Engine) UpdateNodePosition(id model.NodeId, pos model.Vec2) {
	n := e.kb.GetNode(id)
	if n == nil {
		return
	}
	n.Position = pos
	nodes := e.nodeMap()
	e.recomputeTopology(nodes)
	e.kb.Notify(kb.Event{Type: kb.EventNodeChanged, NodeID: id})
}

// UpdateNodeVelocity implements spec.md §6's update_node_velocity.
// Velocity only affects future apply_motion passes, so no topology
// recompute happens here.
func (e *Engine) UpdateNodeVelocity(id model.NodeId, vel model.Vec2) {
	n := e.kb.GetNode(id)
	if n == nil {
		return
	}
	n.Velocity = vel
	e.kb.Notify(kb.Event{Type: kb.EventNodeChanged, NodeID: id})
}

// SetConnectionRadius implements spec.md §6's set_connection_radius:
// updates the global default and propagates it to every existing
// node, then recomputes topology.
func (e *Engine) SetConnectionRadius(r float64) {
	e.cfg.DefaultConnectionRadius = r
	nodes := e.nodeMap()
	for _, n := range nodes {
		n.ConnectionRadius = r
	}
	e.recomputeTopology(nodes)
	e.kb.Notify(kb.Event{Type: kb.EventParamChanged})
}

// SetInactiveRoutingTimeout implements spec.md §6's
// set_inactive_routing_timeout, clamped to [1s, 5min].
func (e *Engine) SetInactiveRoutingTimeout(d time.Duration) {
	e.cfg.InactiveRoutingTimeout = clampInactiveRoutingTimeout(d)
	e.kb.Notify(kb.Event{Type: kb.EventParamChanged})
}

// SetTriageGenerationInterval implements spec.md §6's
// set_triage_generation_interval, clamped to [0.5s, 10s].
func (e *Engine) SetTriageGenerationInterval(d time.Duration) {
	e.cfg.TriageGenerationInterval = clampTriageGenerationInterval(d)
	e.kb.Notify(kb.Event{Type: kb.EventParamChanged})
}

// SetRouteExpiry implements spec.md §6's set_route_expiry, clamped to
// [10s, 30min].
func (e *Engine) SetRouteExpiry(d time.Duration) {
	e.cfg.RouteExpiry = clampRouteExpiry(d)
	e.kb.Notify(kb.Event{Type: kb.EventParamChanged})
}

// SetDefaultMessageSpeed implements spec.md §6's
// set_default_message_speed, clamped to [0.1, 100.0].
func (e *Engine) SetDefaultMessageSpeed(v float64) {
	e.cfg.DefaultMessageSpeed = clampDefaultMessageSpeed(v)
	e.kb.Notify(kb.Event{Type: kb.EventParamChanged})
}

// StartAutoGeneration / StopAutoGeneration / IsAutoGenerationActive
// implement spec.md §6's toggles.
func (e *Engine) StartAutoGeneration() {
	e.autogen.Start()
	e.kb.Notify(kb.Event{Type: kb.EventParamChanged})
}

func (e *Engine) StopAutoGeneration() {
	e.autogen.Stop()
	e.kb.Notify(kb.Event{Type: kb.EventParamChanged})
}

func (e *Engine) IsAutoGenerationActive() bool { return e.autogen.Active() }

// SendMessage implements spec.md §6's send_message / §4.5.1's send.
// Sending against an unknown id is a silent no-op.
func (e *Engine) SendMessage(from model.NodeId, kind model.MessageKind, sev model.Severity) {
	n := e.kb.GetNode(from)
	if n == nil {
		return
	}
	nodes := e.nodeMap()
	pipeline := e.newPipeline(nodes)
	if kind == model.MessageTriage {
		pipeline.Send(n, n.Type == model.NodeTypeSink, sev)
	}
	e.kb.Notify(kb.Event{Type: kb.EventMessageSent, NodeID: from})
}

// Reset implements spec.md §6's reset: clears nodes, messages, and
// generator state, and resets the simulated clock to zero.
func (e *Engine) Reset() {
	e.kb.Reset()
	e.cfg = DefaultConfig()
	e.autogen.Stop()
	e.distinct.Reset()
	e.now = time.Time{}
	e.kb.Notify(kb.Event{Type: kb.EventReset})
}

// Subscribe registers fn for every notification the engine emits.
func (e *Engine) Subscribe(fn func(kb.Event)) (unsubscribe func()) {
	return e.kb.Subscribe(fn)
}

// Tick implements spec.md §5's full per-tick pipeline:
// apply_motion -> rebuild_links -> rebuild_routes -> classify_modes ->
// boundary_replay_on_new_links -> maybe_auto_generate ->
// advance_messages -> deliver_arrivals -> notify.
func (e *Engine) Tick(deltaSeconds float64) {
	e.now = e.now.Add(time.Duration(deltaSeconds * float64(time.Second)))

	nodes := e.nodeMap()

	for _, n := range nodes {
		n.Position = n.Position.Add(n.Velocity.Scale(deltaSeconds))
	}

	_, newlyReachable := e.recomputeTopology(nodes)
	e.maybeReplayNewSinks(nodes, newlyReachable)

	pipeline := e.newPipeline(nodes)
	e.autogen.Tick(deltaSeconds, e.cfg.TriageGenerationInterval, nodes, func(n *model.Node, sev model.Severity) {
		pipeline.Send(n, false, sev)
	})

	arrivals := pipeline.Advance(deltaSeconds)
	pipeline.DeliverArrivals(arrivals, e.isSinkFn(nodes))

	e.kb.Notify(kb.Event{Type: kb.EventTick})
}

// GetNodes / GetNode / GetMessages implement spec.md §6's read-only
// observation API for nodes and messages. Both node accessors hand
// back a snapshot rather than the KB's live pointer, so a caller
// mutating the returned RoutingTable can't corrupt the next tick's
// routing state out from under it.
func (e *Engine) GetNodes() []*model.Node {
	nodes := e.kb.ListNodes()
	out := make([]*model.Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, snapshotNode(n))
	}
	return out
}

func (e *Engine) GetNode(id model.NodeId) *model.Node {
	n := e.kb.GetNode(id)
	if n == nil {
		return nil
	}
	return snapshotNode(n)
}

func (e *Engine) GetMessages() []*model.Message { return e.kb.ListMessages() }

// snapshotNode copies n's mutable route table so the returned *Node is
// safe for a caller to hold and read after the engine has moved on to
// a later tick.
func snapshotNode(n *model.Node) *model.Node {
	cp := *n
	cp.RoutingTable = make(map[model.SinkId]*model.RoutingTableEntry, len(n.RoutingTable))
	for sink, entry := range n.RoutingTable {
		cp.RoutingTable[sink] = entry.Clone()
	}
	return &cp
}

// Connection is one undirected symmetric link, reported once per pair
// for get_connections().
type Connection struct {
	A, B model.NodeId
}

// GetConnections implements spec.md §6's get_connections: every
// undirected link, each reported exactly once.
func (e *Engine) GetConnections() []Connection {
	nodes := e.kb.ListNodes()
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
	var out []Connection
	for _, n := range nodes {
		peers := n.SortedNeighbors()
		for _, p := range peers {
			if p > n.ID {
				out = append(out, Connection{A: n.ID, B: p})
			}
		}
	}
	return out
}

// GetStats implements spec.md §6's get_stats.
func (e *Engine) GetStats() Stats {
	nodes := e.kb.ListNodes()
	stats := Stats{
		ModeCounts: make(map[model.RoutingMode]int),
	}
	stats.NodeCount = len(nodes)
	stats.LinkCount = len(e.GetConnections())
	for _, n := range nodes {
		if n.Type == model.NodeTypeSink {
			stats.SinkCount++
		} else {
			stats.SourceCount++
		}
		stats.ModeCounts[n.RoutingState.Mode]++
		stats.QueuedTriageCount += n.TriageQueue.Len()
	}
	stats.InFlightMessageCount = e.kb.MessageCount()
	stats.DistinctTriagesObserved = e.distinct.Total()
	return stats
}
