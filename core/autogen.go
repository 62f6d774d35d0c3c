package core

import (
	"math/rand"
	"sort"
	"time"

	"github.com/signalsfoundry/foors-plus/model"
)

var allSeverities = []model.Severity{model.SeverityBlack, model.SeverityGreen, model.SeverityYellow, model.SeverityRed}

// AutoGenerator implements spec.md §4.7: an optional load source that
// fires §4.5.1 sends on a fixed cadence against a uniformly random
// eligible source node and severity.
//
// Grounded on cmd/simulator/main.go's tc.AddListener tick-driven
// callback style, here folded into the engine's own tick instead of a
// separate real-time controller so the cadence advances on simulated
// rather than wall-clock time.
type AutoGenerator struct {
	active  bool
	elapsed time.Duration
	rng     *rand.Rand
}

// NewAutoGenerator returns a disabled generator seeded from seed.
// Callers that want nondeterministic behavior should seed from
// time.Now().UnixNano(); tests should pass a fixed seed.
func NewAutoGenerator(seed int64) *AutoGenerator {
	return &AutoGenerator{rng: rand.New(rand.NewSource(seed))}
}

func (g *AutoGenerator) Start() { g.active = true }
func (g *AutoGenerator) Stop()  { g.active = false; g.elapsed = 0 }
func (g *AutoGenerator) Active() bool { return g.active }

// Tick advances the elapsed-time accumulator and, once it crosses
// interval, fires one send against a uniformly random eligible node
// (a source, per spec.md §4.7 — a sink is never a legitimate
// synthesis point) with at least one neighbor. It resets the
// accumulator whether or not an eligible node existed, matching the
// interval being a cadence rather than a retry backoff.
func (g *AutoGenerator) Tick(deltaSeconds float64, interval time.Duration, nodes map[model.NodeId]*model.Node, send func(n *model.Node, sev model.Severity)) {
	if !g.active {
		return
	}
	g.elapsed += time.Duration(deltaSeconds * float64(time.Second))
	if g.elapsed < interval {
		return
	}
	g.elapsed = 0

	eligible := make([]model.NodeId, 0, len(nodes))
	for id, n := range nodes {
		if n.Type == model.NodeTypeSource && len(n.Neighbors) > 0 {
			eligible = append(eligible, id)
		}
	}
	if len(eligible) == 0 {
		return
	}
	sort.Slice(eligible, func(i, j int) bool { return eligible[i] < eligible[j] })

	pick := eligible[g.rng.Intn(len(eligible))]
	sev := allSeverities[g.rng.Intn(len(allSeverities))]
	send(nodes[pick], sev)
}
