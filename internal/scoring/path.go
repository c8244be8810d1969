package scoring

import (
	"txlens/internal/graph"
	"txlens/internal/identity"
)

// maxPathSteps bounds the backtracking search. The graph itself is already
// capped by the node budget; this guards against dense graphs where the
// number of simple paths explodes anyway.
const maxPathSteps = 50000

// FindCriticalPath returns the root-anchored simple path with the highest
// summed node severity. When no reachable node carries any risk the path
// degenerates to the root alone. Each node scores the sum of its own flag
// severities, without the transaction-scope gate the warning list applies:
// the path ranks raw structural risk, the warnings rank what currently
// fires.
func FindCriticalPath(g *graph.Graph) []identity.MethodID {
	if g.RootNode() == nil {
		return nil
	}

	s := &pathSearch{
		succ:    successors(g),
		score:   nodeScores(g),
		visited: make(map[identity.MethodID]bool, len(g.Nodes)),
		steps:   maxPathSteps,
	}
	s.walk(g.Root, 0)

	if s.bestScore == 0 {
		return []identity.MethodID{g.Root}
	}
	return s.best
}

type pathSearch struct {
	succ    map[identity.MethodID][]identity.MethodID
	score   map[identity.MethodID]int
	visited map[identity.MethodID]bool
	steps   int

	cur       []identity.MethodID
	best      []identity.MethodID
	bestScore int
}

// walk extends the current path by id, records it if it beats the best, and
// backtracks. Visited marks are removed on the way out so a node can appear
// on other candidate paths, just never twice on the same one.
func (s *pathSearch) walk(id identity.MethodID, score int) {
	if s.steps <= 0 {
		return
	}
	s.steps--

	s.visited[id] = true
	s.cur = append(s.cur, id)
	score += s.score[id]

	if score > s.bestScore {
		s.bestScore = score
		s.best = append(s.best[:0:0], s.cur...)
	}

	for _, next := range s.succ[id] {
		if s.visited[next] {
			continue
		}
		s.walk(next, score)
	}

	s.cur = s.cur[:len(s.cur)-1]
	delete(s.visited, id)
}

// nodeScores sums each node's own flag severities.
func nodeScores(g *graph.Graph) map[identity.MethodID]int {
	scores := make(map[identity.MethodID]int, len(g.Nodes))
	for id, n := range g.Nodes {
		if n.Risk == nil {
			continue
		}
		total := 0
		for f := range n.Risk.Flags {
			total += Severity(f)
		}
		scores[id] = total
	}
	return scores
}
