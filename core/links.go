package core

import (
	"math"
	"sort"

	"github.com/signalsfoundry/foors-plus/model"
)

// LinkDiff captures what changed during one link recompute pass: the
// peers newly appearing in each node's neighbor set (boundary replay,
// §4.6, keys off this), and which nodes went from zero neighbors to
// one-or-more (queue flush, §4.5.4, keys off this).
type LinkDiff struct {
	NewNeighbors    map[model.NodeId][]model.NodeId
	BecameConnected []model.NodeId
}

// RecomputeLinks derives each node's symmetric neighbor set from
// positions and per-node connection radii: O(n²), deterministic.
// Grounded on core/connectivity_service.go's UpdateConnectivity shape
// — recompute all pairs every pass, diff against the prior state —
// with the RF/geometry evaluation replaced by the plain symmetric
// radius rule spec.md §4.1 defines.
func RecomputeLinks(nodes []*model.Node) LinkDiff {
	prevNeighbors := make(map[model.NodeId]map[model.NodeId]struct{}, len(nodes))
	hadAny := make(map[model.NodeId]bool, len(nodes))
	for _, n := range nodes {
		prevNeighbors[n.ID] = n.Neighbors
		hadAny[n.ID] = len(n.Neighbors) > 0
		n.Neighbors = make(map[model.NodeId]struct{}, len(n.Neighbors))
	}

	for i := 0; i < len(nodes); i++ {
		for j := i + 1; j < len(nodes); j++ {
			a, b := nodes[i], nodes[j]
			r := math.Max(a.ConnectionRadius, b.ConnectionRadius)
			if a.Position.DistanceTo(b.Position) <= r {
				a.Neighbors[b.ID] = struct{}{}
				b.Neighbors[a.ID] = struct{}{}
			}
		}
	}

	diff := LinkDiff{NewNeighbors: make(map[model.NodeId][]model.NodeId)}
	for _, n := range nodes {
		var newly []model.NodeId
		for p := range n.Neighbors {
			if _, ok := prevNeighbors[n.ID][p]; !ok {
				newly = append(newly, p)
			}
		}
		if len(newly) > 0 {
			sort.Slice(newly, func(i, j int) bool { return newly[i] < newly[j] })
			diff.NewNeighbors[n.ID] = newly
		}
		if !hadAny[n.ID] && len(n.Neighbors) > 0 {
			diff.BecameConnected = append(diff.BecameConnected, n.ID)
		}
	}
	sort.Slice(diff.BecameConnected, func(i, j int) bool { return diff.BecameConnected[i] < diff.BecameConnected[j] })
	return diff
}
