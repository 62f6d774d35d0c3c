package api

import "github.com/signalsfoundry/foors-plus/model"

type vecDTO struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v vecDTO) toModel() model.Vec2 { return model.Vec2{X: v.X, Y: v.Y} }

func fromVec(v model.Vec2) vecDTO { return vecDTO{X: v.X, Y: v.Y} }

type addNodeRequest struct {
	Position vecDTO         `json:"position"`
	Type     model.NodeType `json:"type"`
}

type addNodeResponse struct {
	ID model.NodeId `json:"id"`
}

type sendMessageRequest struct {
	From     model.NodeId    `json:"from_id"`
	Kind     model.MessageKind `json:"kind"`
	Severity model.Severity  `json:"severity,omitempty"`
}

type tickRequest struct {
	DeltaSeconds float64 `json:"delta_seconds"`
}

type durationRequest struct {
	Milliseconds int64 `json:"milliseconds"`
}

type floatRequest struct {
	Value float64 `json:"value"`
}

type autoGenerationResponse struct {
	Active bool `json:"active"`
}

type nodeDTO struct {
	ID                    model.NodeId              `json:"id"`
	Type                  model.NodeType            `json:"type"`
	Position              vecDTO                    `json:"position"`
	Velocity              vecDTO                    `json:"velocity"`
	ConnectionRadius      float64                   `json:"connection_radius"`
	NeighborCount         int                       `json:"neighbor_count"`
	Mode                  model.RoutingMode         `json:"mode"`
	FloodingReason        model.FloodingReason      `json:"flooding_reason,omitempty"`
	ActiveRoutes          int                       `json:"active_routes"`
	ExpiredRoutes         int                       `json:"expired_routes"`
	InactiveRoutes        int                       `json:"inactive_routes"`
	QueuedTriageCount     int                       `json:"queued_triage_count"`
}

func fromNode(n *model.Node) nodeDTO {
	return nodeDTO{
		ID:                n.ID,
		Type:              n.Type,
		Position:          fromVec(n.Position),
		Velocity:          fromVec(n.Velocity),
		ConnectionRadius:  n.ConnectionRadius,
		NeighborCount:     len(n.Neighbors),
		Mode:              n.RoutingState.Mode,
		FloodingReason:    n.RoutingState.FloodingReason,
		ActiveRoutes:      n.RoutingState.ActiveRoutes,
		ExpiredRoutes:     n.RoutingState.ExpiredRoutes,
		InactiveRoutes:    n.RoutingState.InactiveRoutes,
		QueuedTriageCount: n.TriageQueue.Len(),
	}
}

type messageDTO struct {
	ID       model.MessageId   `json:"id"`
	From     model.NodeId      `json:"from"`
	To       model.NodeId      `json:"to"`
	Progress float64           `json:"progress"`
	Kind     model.MessageKind `json:"kind"`
	Severity model.Severity    `json:"severity,omitempty"`
}

func fromMessage(m *model.Message) messageDTO {
	return messageDTO{
		ID:       m.ID,
		From:     m.From,
		To:       m.To,
		Progress: m.Progress,
		Kind:     m.Kind,
		Severity: m.Severity,
	}
}

type connectionDTO struct {
	A model.NodeId `json:"a"`
	B model.NodeId `json:"b"`
}

type tickSummaryDTO struct {
	Tick             int `json:"tick"`
	NodeCount        int `json:"node_count"`
	LinkCount        int `json:"link_count"`
	InFlightMessages int `json:"in_flight_messages"`
}

type statsDTO struct {
	NodeCount               int            `json:"node_count"`
	LinkCount               int            `json:"link_count"`
	SinkCount               int            `json:"sink_count"`
	SourceCount             int            `json:"source_count"`
	ModeCounts              map[string]int `json:"mode_counts"`
	QueuedTriageCount       int            `json:"queued_triage_count"`
	InFlightMessageCount    int            `json:"in_flight_message_count"`
	DistinctTriagesObserved int            `json:"distinct_triages_observed"`
}
