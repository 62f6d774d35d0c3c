// Package model holds the pure data types shared by the routing core:
// stable identifiers, the severity/mode enums, and the Node/Message
// aggregates. Nothing in this package touches the knowledge base or
// the algorithmic core; it is deliberately inert.
package model

import "github.com/google/uuid"

// NodeId, SinkId, MessageId and TriageId are opaque, globally unique
// identifiers, stable for the life of the object they name. SinkId is
// a distinct type from NodeId even though a sink is a Node, because
// routing tables key by "which sink", not "which node" — some nodes
// (sources) never appear as a routing-table key at all.
type NodeId string

// SinkId names a Node of Type Sink. Every SinkId is also a valid
// NodeId; the distinction exists purely to keep routing-table keys
// self-documenting.
type SinkId string

// MessageId identifies one in-flight Message.
type MessageId string

// TriageId identifies one triage report, independent of how many
// Messages carry copies of it toward one or more sinks.
type TriageId string

// NewNodeId mints a fresh, globally unique NodeId.
func NewNodeId() NodeId { return NodeId(uuid.NewString()) }

// NewMessageId mints a fresh, globally unique MessageId.
func NewMessageId() MessageId { return MessageId(uuid.NewString()) }

// NewTriageId mints a fresh, globally unique TriageId.
func NewTriageId() TriageId { return TriageId(uuid.NewString()) }

// SinkIdOf treats a NodeId as a SinkId. Callers must only do this for
// nodes whose Type is Sink.
func SinkIdOf(id NodeId) SinkId { return SinkId(id) }

// NodeIdOf treats a SinkId as a plain NodeId, e.g. to look it up in
// the node arena.
func NodeIdOf(id SinkId) NodeId { return NodeId(id) }

// Severity is the urgency tag carried by a triage report. Red is the
// highest urgency, black the lowest.
type Severity string

const (
	SeverityBlack  Severity = "black"
	SeverityGreen  Severity = "green"
	SeverityYellow Severity = "yellow"
	SeverityRed    Severity = "red"
)

// Valid reports whether s is one of the four defined severities.
func (s Severity) Valid() bool {
	switch s {
	case SeverityBlack, SeverityGreen, SeverityYellow, SeverityRed:
		return true
	}
	return false
}

// RoutingMode is the per-node forwarding discipline selected by the
// mode classifier each tick.
type RoutingMode string

const (
	ModeIntelligent    RoutingMode = "intelligent"
	ModeFlooding       RoutingMode = "flooding"
	ModeInactive       RoutingMode = "inactive"
	ModeNoConnections  RoutingMode = "no-connections"
)

// FloodingReason explains why a node is in flooding mode, why an
// inactive-mode node is treated as flooding-like, or that a node has
// no connections. Empty in intelligent mode.
type FloodingReason string

const (
	ReasonNone             FloodingReason = ""
	ReasonNoConnections    FloodingReason = "no-connections"
	ReasonHasInactiveRoutes FloodingReason = "has-inactive-routes"
	ReasonRoutesExpired    FloodingReason = "routes-expired"
	ReasonNoRoutes         FloodingReason = "no-routes"
)

// NodeType distinguishes a triage producer from a triage collector.
// Both participate in forwarding regardless of type.
type NodeType string

const (
	NodeTypeSource NodeType = "source"
	NodeTypeSink   NodeType = "sink"
)

// MessageKind distinguishes plain connectivity probes from
// severity-tagged triage payloads.
type MessageKind string

const (
	MessageNormal MessageKind = "normal"
	MessageTriage MessageKind = "triage"
)
