// Package observability wires Prometheus metrics and OpenTelemetry
// tracing into the routing engine, following the teacher's split
// between metrics.go (gauges/counters + HTTP handler) and tracing.go
// (tracer provider setup + tick-phase span helpers, which the engine
// and ScenarioState do not call).
package observability

import (
	"fmt"
	"net/http"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus metrics that describe the routing
// engine's live state, plus a bounded diagnostics ring for recent
// tick summaries. Grounded directly on the teacher's
// internal/observability/metrics.go NBICollector: same
// register-tolerating-AlreadyRegisteredError helpers, renamed from
// NBI request counters to engine gauges.
type Collector struct {
	gatherer prometheus.Gatherer

	Nodes             *prometheus.GaugeVec
	Links             prometheus.Gauge
	QueuedTriages     prometheus.Gauge
	InFlightMessages  prometheus.Gauge
	DistinctTriages   prometheus.Gauge
	TicksProcessed    prometheus.Counter
	MutationRequests  *prometheus.CounterVec

	// diagnostics is a bounded ring of the most recent tick summaries,
	// never consulted for routing decisions — purely an operator aid
	// surfaced through the HTTP API's /debug/recent-ticks endpoint.
	diagnostics *lru.Cache[int, TickSummary]
}

// TickSummary is one entry in the diagnostics ring.
type TickSummary struct {
	Tick             int
	NodeCount        int
	LinkCount        int
	InFlightMessages int
}

// NewCollector registers engine metrics against reg, defaulting to
// the global Prometheus registry when nil, and allocates a
// diagnosticsCapacity-entry LRU ring for recent tick summaries.
func NewCollector(reg prometheus.Registerer, diagnosticsCapacity int) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	nodes, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "foors_nodes",
		Help: "Current number of nodes, labeled by type and routing mode.",
	}, []string{"type", "mode"}), "foors_nodes")
	if err != nil {
		return nil, err
	}
	links, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "foors_links",
		Help: "Current number of undirected links in the mesh.",
	}), "foors_links")
	if err != nil {
		return nil, err
	}
	queued, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "foors_queued_triages",
		Help: "Current number of triages queued awaiting reconnection, summed across nodes.",
	}), "foors_queued_triages")
	if err != nil {
		return nil, err
	}
	inFlight, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "foors_in_flight_messages",
		Help: "Current number of in-flight messages.",
	}), "foors_in_flight_messages")
	if err != nil {
		return nil, err
	}
	distinct, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "foors_distinct_triages_observed",
		Help: "Distinct triage ids ever observed by any sink.",
	}), "foors_distinct_triages_observed")
	if err != nil {
		return nil, err
	}
	ticks, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "foors_ticks_total",
		Help: "Total number of ticks processed.",
	}), "foors_ticks_total")
	if err != nil {
		return nil, err
	}
	mutations, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "foors_mutation_requests_total",
		Help: "Total number of mutation API calls, labeled by operation.",
	}, []string{"operation"}), "foors_mutation_requests_total")
	if err != nil {
		return nil, err
	}

	cache, err := lru.New[int, TickSummary](diagnosticsCapacity)
	if err != nil {
		return nil, fmt.Errorf("allocate diagnostics ring: %w", err)
	}

	return &Collector{
		gatherer:         gatherer,
		Nodes:            nodes,
		Links:            links,
		QueuedTriages:    queued,
		InFlightMessages: inFlight,
		DistinctTriages:  distinct,
		TicksProcessed:   ticks,
		MutationRequests: mutations,
		diagnostics:      cache,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// RecordMutation increments the mutation counter for operation.
func (c *Collector) RecordMutation(operation string) {
	if c == nil || c.MutationRequests == nil {
		return
	}
	c.MutationRequests.WithLabelValues(operation).Inc()
}

// RecordTick updates the gauges from a stats snapshot and pushes a
// diagnostics entry keyed by tickNumber, evicting the oldest entry
// once the ring is full.
func (c *Collector) RecordTick(tickNumber, nodeCount, linkCount, queuedTriages, inFlight, distinctTriages int) {
	if c == nil {
		return
	}
	if c.Links != nil {
		c.Links.Set(float64(linkCount))
	}
	if c.QueuedTriages != nil {
		c.QueuedTriages.Set(float64(queuedTriages))
	}
	if c.InFlightMessages != nil {
		c.InFlightMessages.Set(float64(inFlight))
	}
	if c.DistinctTriages != nil {
		c.DistinctTriages.Set(float64(distinctTriages))
	}
	if c.TicksProcessed != nil {
		c.TicksProcessed.Inc()
	}
	if c.diagnostics != nil {
		c.diagnostics.Add(tickNumber, TickSummary{
			Tick:             tickNumber,
			NodeCount:        nodeCount,
			LinkCount:        linkCount,
			InFlightMessages: inFlight,
		})
	}
}

// SetModeCounts overwrites the per-(type,mode) node gauge.
func (c *Collector) SetModeCounts(counts map[[2]string]int) {
	if c == nil || c.Nodes == nil {
		return
	}
	c.Nodes.Reset()
	for k, v := range counts {
		c.Nodes.WithLabelValues(k[0], k[1]).Set(float64(v))
	}
}

// RecentTicks returns up to limit of the most recently recorded tick
// summaries, most recent first. Never used for routing decisions —
// diagnostics only.
func (c *Collector) RecentTicks(limit int) []TickSummary {
	if c == nil || c.diagnostics == nil {
		return nil
	}
	keys := c.diagnostics.Keys()
	out := make([]TickSummary, 0, len(keys))
	for i := len(keys) - 1; i >= 0 && len(out) < limit; i-- {
		if v, ok := c.diagnostics.Peek(keys[i]); ok {
			out = append(out, v)
		}
	}
	return out
}

func registerGauge(reg prometheus.Registerer, gauge prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(gauge); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return gauge, nil
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, counter prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(counter); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return counter, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
