package core

import (
	"sort"

	"github.com/signalsfoundry/foors-plus/model"
)

// TargetCap returns the multi-route cap for a message of the given
// kind and severity, per spec.md §4.4: red 3, yellow 2, green/black
// 1, non-triage 1.
func TargetCap(kind model.MessageKind, sev model.Severity) int {
	if kind != model.MessageTriage {
		return 1
	}
	switch sev {
	case model.SeverityRed:
		return 3
	case model.SeverityYellow:
		return 2
	default:
		return 1
	}
}

// LoadFunc reports the number of in-flight (progress < 1) messages
// currently traveling from a node to a given peer, used to
// tie-break the greedy coverage selector.
type LoadFunc func(peer model.NodeId) int

// SelectTargets chooses the peers node n should send or forward to,
// given its current mode, an optional excluded peer (the sender, on a
// forward, to avoid immediate echo), and the message's kind/severity.
// Grounded on internal/sbi/controller/pathfinding.go and scheduler.go's
// greedy/scoring style, generalized to spec.md §4.4's coverage-based
// selection.
func SelectTargets(n *model.Node, exclude model.NodeId, hasExclude bool, kind model.MessageKind, sev model.Severity, load LoadFunc) []model.NodeId {
	switch n.RoutingState.Mode {
	case model.ModeNoConnections:
		return nil
	case model.ModeFlooding, model.ModeInactive:
		return floodTargets(n, exclude, hasExclude)
	default: // ModeIntelligent
		return intelligentTargets(n, exclude, hasExclude, kind, sev, load)
	}
}

func floodTargets(n *model.Node, exclude model.NodeId, hasExclude bool) []model.NodeId {
	peers := n.SortedNeighbors()
	out := make([]model.NodeId, 0, len(peers))
	for _, p := range peers {
		if hasExclude && p == exclude {
			continue
		}
		out = append(out, p)
	}
	return out
}

func intelligentTargets(n *model.Node, exclude model.NodeId, hasExclude bool, kind model.MessageKind, sev model.Severity, load LoadFunc) []model.NodeId {
	coverage := make(map[model.NodeId]map[model.SinkId]struct{})
	for sink, entry := range n.RoutingTable {
		for peer := range entry.NextHops {
			if hasExclude && peer == exclude {
				continue
			}
			set, ok := coverage[peer]
			if !ok {
				set = make(map[model.SinkId]struct{})
				coverage[peer] = set
			}
			set[sink] = struct{}{}
		}
	}
	if len(coverage) == 0 {
		return nil
	}

	candidates := make([]model.NodeId, 0, len(coverage))
	for peer := range coverage {
		candidates = append(candidates, peer)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i] < candidates[j] })

	capN := TargetCap(kind, sev)
	if len(candidates) <= capN {
		return candidates
	}

	remaining := make(map[model.NodeId]struct{}, len(candidates))
	for _, c := range candidates {
		remaining[c] = struct{}{}
	}
	covered := make(map[model.SinkId]struct{})
	var selected []model.NodeId

	for len(selected) < capN && len(remaining) > 0 {
		best, bestGain, bestLoad := model.NodeId(""), -1, 0
		haveBest := false
		order := make([]model.NodeId, 0, len(remaining))
		for c := range remaining {
			order = append(order, c)
		}
		sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

		for _, c := range order {
			gain := 0
			for s := range coverage[c] {
				if _, already := covered[s]; !already {
					gain++
				}
			}
			l := 0
			if load != nil {
				l = load(c)
			}
			switch {
			case !haveBest:
				best, bestGain, bestLoad, haveBest = c, gain, l, true
			case gain > bestGain:
				best, bestGain, bestLoad = c, gain, l
			case gain == bestGain && l < bestLoad:
				best, bestGain, bestLoad = c, gain, l
			}
		}

		if !haveBest || bestGain == 0 {
			break
		}
		selected = append(selected, best)
		for s := range coverage[best] {
			covered[s] = struct{}{}
		}
		delete(remaining, best)
	}

	if len(selected) == 0 {
		// Degenerate coverage: every candidate has zero marginal
		// gain (shouldn't happen with non-empty coverage, but the
		// spec calls for a defined fallback). Pick the lowest-load
		// candidate.
		best, bestLoad := candidates[0], loadOrZero(load, candidates[0])
		for _, c := range candidates[1:] {
			l := loadOrZero(load, c)
			if l < bestLoad {
				best, bestLoad = c, l
			}
		}
		return []model.NodeId{best}
	}

	sort.Slice(selected, func(i, j int) bool { return selected[i] < selected[j] })
	return selected
}

func loadOrZero(load LoadFunc, peer model.NodeId) int {
	if load == nil {
		return 0
	}
	return load(peer)
}
