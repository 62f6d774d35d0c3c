// Package state provides ScenarioState, the locked façade external
// callers (the HTTP API, the wiring binary) drive instead of talking
// to core.Engine directly. It owns the coarse lock that makes
// concurrent external mutation safe against the engine's
// single-threaded contract, logs node, message, parameter, reset and
// tick operations (position and velocity updates are not logged), and
// keeps metrics gauges current.
package state

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/signalsfoundry/foors-plus/core"
	"github.com/signalsfoundry/foors-plus/internal/logging"
	"github.com/signalsfoundry/foors-plus/kb"
	"github.com/signalsfoundry/foors-plus/model"
)

// Sentinel errors, wrapped with context via fmt.Errorf("%w: ...").
// Grounded directly on internal/sim/state/state.go's sentinel-error
// convention.
var (
	ErrNodeNotFound    = errors.New("node not found")
	ErrInvalidNodeType = errors.New("invalid node type")
	ErrInvalidSeverity = errors.New("invalid severity")
)

// MetricsRecorder is the subset of observability.Collector's surface
// ScenarioState drives; kept as an interface so tests can supply a
// no-op or fake without pulling in Prometheus.
type MetricsRecorder interface {
	RecordMutation(operation string)
	RecordTick(tickNumber, nodeCount, linkCount, queuedTriages, inFlight, distinctTriages int)
	SetModeCounts(counts map[[2]string]int)
}

type noopMetrics struct{}

func (noopMetrics) RecordMutation(string)                   {}
func (noopMetrics) RecordTick(int, int, int, int, int, int) {}
func (noopMetrics) SetModeCounts(map[[2]string]int)         {}

// ScenarioState wraps a core.Engine with a coarse sync.RWMutex,
// structured logging, and metrics recording. Grounded directly on the
// teacher's internal/sim/state/state.go ScenarioState: same lock
// placement (one RWMutex guarding a lower-level store), and a
// mutate-then-updateMetricsLocked-then-log shape.
type ScenarioState struct {
	mu sync.RWMutex

	engine  *core.Engine
	log     logging.Logger
	metrics MetricsRecorder

	tickNumber int
}

// Option configures a ScenarioState at construction time.
type Option func(*ScenarioState)

// WithLogger sets the logger used for every operation.
func WithLogger(log logging.Logger) Option {
	return func(s *ScenarioState) { s.log = log }
}

// WithMetricsRecorder sets the metrics sink refreshed after adding,
// removing, toggling or moving a node, sending a message, setting the
// connection radius, reset, and every tick.
func WithMetricsRecorder(m MetricsRecorder) Option {
	return func(s *ScenarioState) { s.metrics = m }
}

// NewScenarioState constructs a ScenarioState around a fresh engine
// seeded from seed (drives the auto-generator's randomness).
func NewScenarioState(seed int64, opts ...Option) *ScenarioState {
	s := &ScenarioState{
		engine:  core.NewEngine(seed),
		log:     logging.Noop(),
		metrics: noopMetrics{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func validNodeType(t model.NodeType) bool {
	return t == model.NodeTypeSource || t == model.NodeTypeSink
}

// logger returns the request-scoped logger the caller attached to ctx
// via logging.ContextWithLogger (internal/api's request middleware
// does this so every log line for one HTTP call carries the same
// request_id), falling back to the logger fixed at construction time
// for callers that never go through that middleware (cmd/foorsd's
// direct tick loop, tests).
func (s *ScenarioState) logger(ctx context.Context) logging.Logger {
	if l := logging.LoggerFromContext(ctx); l != nil {
		return l
	}
	return s.log
}

// AddNode places a new node and returns its id.
func (s *ScenarioState) AddNode(ctx context.Context, pos model.Vec2, typ model.NodeType) (model.NodeId, error) {
	if !validNodeType(typ) {
		return "", fmt.Errorf("%w: %q", ErrInvalidNodeType, typ)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.engine.AddNode(pos, typ)
	s.updateMetricsLocked()
	s.logger(ctx).Info(ctx, "node added", logging.NodeID(string(id)), logging.String("type", string(typ)))
	return id, nil
}

// RemoveNode deletes a node. Removing an unknown id is a silent
// no-op, per spec.md's idempotence rule — it is not reported as an
// error here either, to keep that behavior visible at every layer.
func (s *ScenarioState) RemoveNode(ctx context.Context, id model.NodeId) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.RemoveNode(id)
	s.updateMetricsLocked()
	s.logger(ctx).Info(ctx, "node removed", logging.NodeID(string(id)))
}

// ToggleNodeType flips a node between source and sink.
func (s *ScenarioState) ToggleNodeType(ctx context.Context, id model.NodeId) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine.GetNode(id) == nil {
		return fmt.Errorf("%w: id=%s", ErrNodeNotFound, id)
	}
	s.engine.ToggleNodeType(id)
	s.updateMetricsLocked()
	fields := []logging.Field{logging.NodeID(string(id))}
	if n := s.engine.GetNode(id); n != nil {
		fields = append(fields, logging.Mode(string(n.RoutingState.Mode)))
		if n.Type == model.NodeTypeSink {
			fields = append(fields, logging.SinkID(string(id)), logging.String("promoted_to", "sink"))
		} else {
			fields = append(fields, logging.String("demoted_to", "source"))
		}
	}
	s.logger(ctx).Info(ctx, "node type toggled", fields...)
	return nil
}

// UpdateNodePosition moves a node.
func (s *ScenarioState) UpdateNodePosition(ctx context.Context, id model.NodeId, pos model.Vec2) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine.GetNode(id) == nil {
		return fmt.Errorf("%w: id=%s", ErrNodeNotFound, id)
	}
	s.engine.UpdateNodePosition(id, pos)
	s.updateMetricsLocked()
	return nil
}

// UpdateNodeVelocity sets a node's velocity.
func (s *ScenarioState) UpdateNodeVelocity(ctx context.Context, id model.NodeId, vel model.Vec2) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine.GetNode(id) == nil {
		return fmt.Errorf("%w: id=%s", ErrNodeNotFound, id)
	}
	s.engine.UpdateNodeVelocity(id, vel)
	return nil
}

// SetConnectionRadius updates the global default connection radius.
func (s *ScenarioState) SetConnectionRadius(ctx context.Context, r float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.SetConnectionRadius(r)
	s.updateMetricsLocked()
	s.logger(ctx).Info(ctx, "connection radius set", logging.Any("radius", r))
}

// SetInactiveRoutingTimeout updates the inactive-route retention
// window, clamped to [1s, 5min].
func (s *ScenarioState) SetInactiveRoutingTimeout(ctx context.Context, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.SetInactiveRoutingTimeout(d)
	s.logger(ctx).Info(ctx, "inactive routing timeout set", logging.Any("timeout", d))
}

// SetTriageGenerationInterval updates the auto-generation cadence,
// clamped to [0.5s, 10s].
func (s *ScenarioState) SetTriageGenerationInterval(ctx context.Context, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.SetTriageGenerationInterval(d)
	s.logger(ctx).Info(ctx, "triage generation interval set", logging.Any("interval", d))
}

// SetRouteExpiry updates the active→expired route threshold, clamped
// to [10s, 30min].
func (s *ScenarioState) SetRouteExpiry(ctx context.Context, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.SetRouteExpiry(d)
	s.logger(ctx).Info(ctx, "route expiry set", logging.Any("expiry", d))
}

// SetDefaultMessageSpeed updates the units/sec progress rate newly
// sent messages advance at, clamped to [0.1, 100.0].
func (s *ScenarioState) SetDefaultMessageSpeed(ctx context.Context, v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.SetDefaultMessageSpeed(v)
	s.logger(ctx).Info(ctx, "default message speed set", logging.Any("speed", v))
}

// StartAutoGeneration / StopAutoGeneration / IsAutoGenerationActive
// control the auto-generator toggle.
func (s *ScenarioState) StartAutoGeneration(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.StartAutoGeneration()
	s.logger(ctx).Info(ctx, "auto-generation started")
}

func (s *ScenarioState) StopAutoGeneration(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.StopAutoGeneration()
	s.logger(ctx).Info(ctx, "auto-generation stopped")
}

func (s *ScenarioState) IsAutoGenerationActive() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.IsAutoGenerationActive()
}

// SendMessage sends a triage from the named node.
func (s *ScenarioState) SendMessage(ctx context.Context, from model.NodeId, kind model.MessageKind, sev model.Severity) error {
	if kind == model.MessageTriage && !sev.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSeverity, sev)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine.GetNode(from) == nil {
		return fmt.Errorf("%w: id=%s", ErrNodeNotFound, from)
	}
	s.engine.SendMessage(from, kind, sev)
	s.updateMetricsLocked()
	s.logger(ctx).Info(ctx, "message sent", logging.NodeID(string(from)), logging.String("kind", string(kind)))
	return nil
}

// Reset clears the scenario back to empty.
func (s *ScenarioState) Reset(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Reset()
	s.tickNumber = 0
	s.updateMetricsLocked()
	s.logger(ctx).Info(ctx, "scenario reset")
}

// Tick advances the simulation by deltaSeconds.
func (s *ScenarioState) Tick(ctx context.Context, deltaSeconds float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Tick(deltaSeconds)
	s.tickNumber++
	s.updateMetricsLocked()
	s.logger(ctx).Debug(ctx, "tick processed", logging.TickNumber(s.tickNumber), logging.Any("delta_seconds", deltaSeconds))
}

// Subscribe registers fn for every engine notification.
func (s *ScenarioState) Subscribe(fn func(kb.Event)) (unsubscribe func()) {
	return s.engine.Subscribe(fn)
}

// GetNode returns a snapshot copy of one node's read-only fields.
func (s *ScenarioState) GetNode(id model.NodeId) (*model.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := s.engine.GetNode(id)
	if n == nil {
		return nil, fmt.Errorf("%w: id=%s", ErrNodeNotFound, id)
	}
	return n, nil
}

// GetNodes, GetMessages, GetConnections, GetStats implement the
// read-only observation API.
func (s *ScenarioState) GetNodes() []*model.Node {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.GetNodes()
}

func (s *ScenarioState) GetMessages() []*model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.GetMessages()
}

func (s *ScenarioState) GetConnections() []core.Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.GetConnections()
}

func (s *ScenarioState) GetStats() core.Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.GetStats()
}

// updateMetricsLocked pushes the current engine state into the
// metrics recorder. Callers must already hold s.mu.
func (s *ScenarioState) updateMetricsLocked() {
	stats := s.engine.GetStats()
	s.metrics.RecordTick(s.tickNumber, stats.NodeCount, stats.LinkCount, stats.QueuedTriageCount, stats.InFlightMessageCount, stats.DistinctTriagesObserved)

	counts := make(map[[2]string]int)
	for _, n := range s.engine.GetNodes() {
		key := [2]string{string(n.Type), string(n.RoutingState.Mode)}
		counts[key]++
	}
	s.metrics.SetModeCounts(counts)
}
