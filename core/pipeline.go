package core

import (
	"time"

	"github.com/signalsfoundry/foors-plus/model"
)

// MessageSink is the minimal set of KB operations the pipeline needs
// to create and remove in-flight messages, kept narrow so pipeline
// code stays testable without a full engine.
type MessageSink interface {
	AddMessage(m *model.Message)
	RemoveMessage(id model.MessageId)
	ListMessages() []*model.Message
}

// Pipeline implements spec.md §4.5: send, advance, arrival/forward,
// and queue flush on reconnection. New component; grounded on
// core/simulation_engine.go's ordered tick-phase style, generalized
// from that teacher's coarse Run(ticks) loop to the fuller
// apply_motion -> ... -> notify ordering spec.md §5 requires.
type Pipeline struct {
	nodes  map[model.NodeId]*model.Node
	msgs   MessageSink
	cfg    Config
	nowFn  func() time.Time
	onSink func(model.SinkId, model.TriageId, model.Severity) // distinct-triage observation hook
}

// NewPipeline builds a Pipeline bound to the given node arena and
// message sink. onSink, if non-nil, is invoked whenever a triage is
// newly inserted into a sink node's triage_store (used by stats to
// track distinct triages ever observed).
func NewPipeline(nodes map[model.NodeId]*model.Node, msgs MessageSink, cfg Config, nowFn func() time.Time, onSink func(model.SinkId, model.TriageId, model.Severity)) *Pipeline {
	return &Pipeline{nodes: nodes, msgs: msgs, cfg: cfg, nowFn: nowFn, onSink: onSink}
}

func (p *Pipeline) now() time.Time { return p.nowFn() }

func (p *Pipeline) loadFuncFrom(from model.NodeId) LoadFunc {
	return func(peer model.NodeId) int {
		count := 0
		for _, m := range p.msgs.ListMessages() {
			if m.From == from && m.To == peer && m.Progress < 1 {
				count++
			}
		}
		return count
	}
}

// sinksBeingTargeted computes the set spec.md §4.5.1/§4.5.3 call
// "sinks_being_targeted": the node's own id if it is itself a sink,
// union the sinks named in its routing table.
func sinksBeingTargeted(n *model.Node, isSink bool) map[model.SinkId]struct{} {
	out := make(map[model.SinkId]struct{}, len(n.RoutingTable)+1)
	if isSink {
		out[model.SinkIdOf(n.ID)] = struct{}{}
	}
	for s := range n.RoutingTable {
		out[s] = struct{}{}
	}
	return out
}

// Send implements §4.5.1. isSink tells the pipeline whether `from` is
// currently a sink (callers own node typing, the pipeline doesn't).
func (p *Pipeline) Send(from *model.Node, isSink bool, sev model.Severity) model.TriageId {
	id := model.NewTriageId()
	from.TriageStore[id] = sev
	if isSink && p.onSink != nil {
		p.onSink(model.SinkIdOf(from.ID), id, sev)
	}

	if len(from.Neighbors) == 0 {
		from.TriageQueue.Enqueue(model.QueuedTriage{TriageID: id, Severity: sev, QueuedAt: p.now()})
		return id
	}

	targets := SelectTargets(from, "", false, model.MessageTriage, sev, p.loadFuncFrom(from.ID))
	for _, t := range targets {
		p.emit(from.ID, t, model.MessageTriage, id, sev)
	}
	from.MarkTargeted(id, sinksBeingTargeted(from, isSink))
	return id
}

func (p *Pipeline) emit(from, to model.NodeId, kind model.MessageKind, triageID model.TriageId, sev model.Severity) {
	m := &model.Message{
		ID:        model.NewMessageId(),
		From:      from,
		To:        to,
		Progress:  0,
		Speed:     p.cfg.DefaultMessageSpeed,
		CreatedAt: p.now(),
		Kind:      kind,
		TriageID:  triageID,
		Severity:  sev,
	}
	p.msgs.AddMessage(m)
}

// Advance implements §4.5.2: move every in-flight message forward by
// deltaSeconds. It returns every message that crossed from
// progress < 1 to progress >= 1 this call, in the order the
// MessageSink's ListMessages yields them; the caller processes
// arrivals in that order before removing delivered messages.
// kb.KnowledgeBase keeps messages in a map, so that order is not
// insertion order and can differ from run to run.
func (p *Pipeline) Advance(deltaSeconds float64) []*model.Message {
	all := p.msgs.ListMessages()
	var arrived []*model.Message
	for _, m := range all {
		if m.Progress >= 1 {
			continue
		}
		if m.Advance(deltaSeconds) {
			arrived = append(arrived, m)
		}
	}
	return arrived
}

// DeliverArrivals processes every arrived message's arrival/forward
// logic (§4.5.3) in order, then removes it.
func (p *Pipeline) DeliverArrivals(arrivals []*model.Message, isSink func(model.NodeId) bool) {
	for _, m := range arrivals {
		p.arrive(m, isSink)
		p.msgs.RemoveMessage(m.ID)
	}
}

func (p *Pipeline) arrive(m *model.Message, isSink func(model.NodeId) bool) {
	n, ok := p.nodes[m.To]
	if !ok {
		return
	}
	now := p.now()
	n.LastMessageReceivedAt = now

	if !m.IsTriage() {
		return
	}

	if (n.RoutingState.Mode == model.ModeFlooding || n.RoutingState.Mode == model.ModeInactive) {
		if _, seen := n.TriageStore[m.TriageID]; seen {
			return // strict loop prevention under flooding (I4)
		}
	}
	if _, seen := n.TriageStore[m.TriageID]; !seen {
		n.TriageStore[m.TriageID] = m.Severity
		if isSink(n.ID) && p.onSink != nil {
			p.onSink(model.SinkIdOf(n.ID), m.TriageID, m.Severity)
		}
	}

	if len(n.Neighbors) == 0 {
		n.TriageQueue.Enqueue(model.QueuedTriage{TriageID: m.TriageID, Severity: m.Severity, QueuedAt: now})
		return
	}

	targets := SelectTargets(n, m.From, true, m.Kind, m.Severity, p.loadFuncFrom(n.ID))

	nIsSink := isSink(n.ID)
	if n.RoutingState.Mode == model.ModeIntelligent {
		need := sinksBeingTargeted(n, nIsSink)
		if n.AllSinksTargeted(m.TriageID, need) {
			return
		}
	}

	for _, t := range targets {
		if !n.HasNeighbor(t) {
			panic("core: forward target " + string(t) + " is not a current neighbor of " + string(n.ID))
		}
		p.emit(n.ID, t, m.Kind, m.TriageID, m.Severity)
	}
	n.MarkTargeted(m.TriageID, sinksBeingTargeted(n, nIsSink))
}

// FlushQueue implements §4.5.4: whenever a node's neighbor set
// becomes non-empty, drain its triage_queue and flood every queued
// triage to every current neighbor, bypassing §4.4 because routing
// tables may not yet reflect the new topology. Draining clears the
// queue before any emission, so the flush cannot recurse within the
// same tick.
func (p *Pipeline) FlushQueue(n *model.Node) {
	queued := n.TriageQueue.Drain()
	if len(queued) == 0 {
		return
	}
	peers := n.SortedNeighbors()
	for _, q := range queued {
		for _, peer := range peers {
			p.emit(n.ID, peer, model.MessageTriage, q.TriageID, q.Severity)
		}
	}
}
