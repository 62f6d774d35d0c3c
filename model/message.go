package model

import "time"

// Message is one in-flight hop: a unit of data traveling across a
// single link from From to To. A multi-hop journey is a chain of
// Messages, one per link, not one object that teleports between
// nodes — this is what makes per-link progress and speed meaningful.
type Message struct {
	ID   MessageId
	From NodeId
	To   NodeId

	// Progress is in [0, 1]; the message arrives at To when Progress
	// reaches 1.
	Progress float64
	// Speed is the progress gained per simulated second of travel.
	Speed float64

	CreatedAt time.Time

	Kind MessageKind

	// TriageID and Severity are set only when Kind is MessageTriage.
	TriageID TriageId
	Severity Severity
}

// Advance moves the message forward by deltaSeconds of simulated
// travel time and reports whether it has now arrived.
func (m *Message) Advance(deltaSeconds float64) bool {
	m.Progress += m.Speed * deltaSeconds
	if m.Progress >= 1 {
		m.Progress = 1
		return true
	}
	return false
}

// IsTriage reports whether this message carries a triage payload.
func (m *Message) IsTriage() bool {
	return m.Kind == MessageTriage
}
