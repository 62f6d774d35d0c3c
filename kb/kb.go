// Package kb is the in-memory arena owning every Node and in-flight
// Message. It knows nothing about links, routing, or ticks — it is
// storage plus a subscriber list, the single place the rest of the
// core reaches through to read or mutate shared state.
package kb

import (
	"fmt"
	"sync"

	"github.com/signalsfoundry/foors-plus/model"
)

// EventType indicates what kind of change happened in the KB.
type EventType int

const (
	EventNodeAdded EventType = iota
	EventNodeRemoved
	EventNodeChanged
	EventMessageSent
	EventParamChanged
	EventTick
	EventReset
)

// Event is emitted to subscribers exactly once per completed public
// operation (spec.md §6/§8: every mutation "notifies listeners on
// completion", and a setter called with the current value "still
// notifies exactly once"). NodeID is populated only when relevant to
// Type; callers that need current state re-read it from the KB rather
// than trust the event as a delivery record.
type Event struct {
	Type   EventType
	NodeID model.NodeId
}

// KnowledgeBase is an in-memory, thread-safe store for nodes and
// in-flight messages, with a subscriber list notified whenever the
// engine calls Notify; its own mutation methods never notify.
type KnowledgeBase struct {
	mu sync.RWMutex

	nodes    map[model.NodeId]*model.Node
	messages map[model.MessageId]*model.Message

	subs []func(Event)
}

// NewKnowledgeBase constructs an empty KB.
func NewKnowledgeBase() *KnowledgeBase {
	return &KnowledgeBase{
		nodes:    make(map[model.NodeId]*model.Node),
		messages: make(map[model.MessageId]*model.Message),
	}
}

// AddNode inserts n. It returns an error if n's ID already exists.
// Callers (the core engine) are responsible for notifying subscribers
// once their whole operation — link/route recompute included — has
// settled; AddNode itself does not notify.
func (kb *KnowledgeBase) AddNode(n *model.Node) error {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if _, exists := kb.nodes[n.ID]; exists {
		return fmt.Errorf("node with id %q already exists", n.ID)
	}
	kb.nodes[n.ID] = n
	return nil
}

// RemoveNode deletes the node with id, if present, and purges it from
// every other node's neighbor set. Removing an unknown id is a silent
// no-op, per spec.md's idempotence rule. It reports whether a node
// was actually removed, so callers can skip the rest of their
// operation (notification included) on the no-op path.
func (kb *KnowledgeBase) RemoveNode(id model.NodeId) bool {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	if _, ok := kb.nodes[id]; !ok {
		return false
	}
	delete(kb.nodes, id)
	for _, n := range kb.nodes {
		delete(n.Neighbors, id)
	}
	return true
}

// GetNode returns the node with id, or nil if not found. The returned
// pointer aliases the KB's own copy; callers holding it across a tick
// boundary may observe concurrent mutation and should treat it as a
// short-lived snapshot.
func (kb *KnowledgeBase) GetNode(id model.NodeId) *model.Node {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return kb.nodes[id]
}

// ListNodes returns a snapshot slice of all nodes, order unspecified.
func (kb *KnowledgeBase) ListNodes() []*model.Node {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	res := make([]*model.Node, 0, len(kb.nodes))
	for _, n := range kb.nodes {
		res = append(res, n)
	}
	return res
}

// NodeCount reports the number of nodes currently in the arena.
func (kb *KnowledgeBase) NodeCount() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.nodes)
}

// AddMessage inserts a newly created in-flight message.
func (kb *KnowledgeBase) AddMessage(m *model.Message) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.messages[m.ID] = m
}

// RemoveMessage deletes the message with id, if present (an arrival
// or a drop both end with removal).
func (kb *KnowledgeBase) RemoveMessage(id model.MessageId) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	delete(kb.messages, id)
}

// ListMessages returns a snapshot slice of every in-flight message.
func (kb *KnowledgeBase) ListMessages() []*model.Message {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	res := make([]*model.Message, 0, len(kb.messages))
	for _, m := range kb.messages {
		res = append(res, m)
	}
	return res
}

// MessageCount reports the number of in-flight messages.
func (kb *KnowledgeBase) MessageCount() int {
	kb.mu.RLock()
	defer kb.mu.RUnlock()
	return len(kb.messages)
}

// Reset clears every node and message. The caller still owns
// notifying subscribers (with EventReset) once.
func (kb *KnowledgeBase) Reset() {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.nodes = make(map[model.NodeId]*model.Node)
	kb.messages = make(map[model.MessageId]*model.Message)
}

// Notify fans event out to every subscriber. The core engine calls
// this exactly once per completed public operation and once per
// completed tick; nothing inside this package calls it itself, so
// that "notifies listeners exactly once" is a property of the
// engine's call discipline rather than something the arena has to
// infer from its own mutations.
func (kb *KnowledgeBase) Notify(event Event) {
	kb.notify(event)
}

// Subscribe registers a callback for KB events. It returns an
// unsubscribe function; calling it more than once is safe.
func (kb *KnowledgeBase) Subscribe(fn func(Event)) (unsubscribe func()) {
	kb.mu.Lock()
	defer kb.mu.Unlock()
	kb.subs = append(kb.subs, fn)
	idx := len(kb.subs) - 1

	return func() {
		kb.mu.Lock()
		defer kb.mu.Unlock()
		if idx < 0 || idx >= len(kb.subs) {
			return
		}
		kb.subs = append(kb.subs[:idx], kb.subs[idx+1:]...)
		idx = -1
	}
}

func (kb *KnowledgeBase) notify(event Event) {
	kb.mu.RLock()
	subs := append([]func(Event){}, kb.subs...)
	kb.mu.RUnlock()

	for _, sub := range subs {
		sub(event)
	}
}
