package scoring

import (
	"sort"

	"txlens/internal/graph"
	"txlens/internal/identity"
)

// Enrich computes the risk warnings and the critical path and stores them on
// the graph. Safe to call again after the graph is widened; both fields are
// recomputed from scratch.
func Enrich(g *graph.Graph) {
	g.RiskWarnings = ComputeWarnings(g)
	g.CriticalPath = FindCriticalPath(g)
}

// ComputeWarnings derives one warning per (node, flag) pair, gated and
// sorted by severity descending. The sort is stable over a depth-first walk
// from the root, so equal severities come out in encounter order.
func ComputeWarnings(g *graph.Graph) []graph.RiskWarning {
	inTx := txScope(g)

	var out []graph.RiskWarning
	visited := make(map[identity.MethodID]bool, len(g.Nodes))

	var walk func(id identity.MethodID)
	walk = func(id identity.MethodID) {
		if visited[id] {
			return
		}
		visited[id] = true

		n := g.Node(id)
		if n == nil {
			return
		}
		if n.Risk != nil {
			for _, f := range n.Risk.Flags.Sorted() {
				// Outbound I/O is only a lock hazard inside a transaction scope.
				if externalFlag(f) && !inTx[id] {
					continue
				}
				out = append(out, graph.RiskWarning{
					NodeID:      id,
					DisplayName: n.DisplayName,
					Flag:        f,
					Severity:    Severity(f),
					Title:       Title(f),
					Description: Description(f),
				})
			}
		}
		for _, next := range n.Callees {
			walk(next)
		}
		for _, next := range n.Callers {
			walk(next)
		}
	}
	walk(g.Root)

	// Anything the adjacency views miss keeps identity order.
	for _, n := range g.AllNodes() {
		walk(n.ID)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity > out[j].Severity
	})
	return out
}

// txScope marks every node that executes inside an open transaction: the
// node declares one itself, or any transitive caller in the graph does.
// Scope propagates caller -> callee along the edges; a REQUIRES_NEW callee
// opens its own transaction, so propagation does not stop there.
func txScope(g *graph.Graph) map[identity.MethodID]bool {
	inTx := make(map[identity.MethodID]bool, len(g.Nodes))
	succ := successors(g)

	var queue []identity.MethodID
	for id, n := range g.Nodes {
		if n.Risk != nil && n.Risk.Transactional {
			inTx[id] = true
			queue = append(queue, id)
		}
	}

	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, next := range succ[id] {
			if !inTx[next] {
				inTx[next] = true
				queue = append(queue, next)
			}
		}
	}
	return inTx
}

// successors builds the caller -> callee adjacency from the edge list, which
// covers both traversal directions and the cyclic closing edges.
func successors(g *graph.Graph) map[identity.MethodID][]identity.MethodID {
	succ := make(map[identity.MethodID][]identity.MethodID, len(g.Nodes))
	seen := make(map[graph.Edge]bool, len(g.Edges))
	for _, e := range g.Edges {
		key := graph.Edge{From: e.From, To: e.To}
		if seen[key] {
			continue
		}
		seen[key] = true
		succ[e.From] = append(succ[e.From], e.To)
	}
	return succ
}
