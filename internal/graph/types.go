// Package graph builds the bounded bidirectional call graph the scoring
// engine and the exporters consume.
//
// The graph is an arena of nodes keyed by method identity with edges held in
// a separate list; callee/caller adjacency on each node is a derived view of
// identities, never an embedded object reference. Cycles are ordinary edges
// marked cyclic, not special leaf objects, so at most one Node exists per
// identity in any graph.
package graph

import (
	"encoding/json"
	"sort"

	"txlens/internal/classify"
	"txlens/internal/identity"
)

// Direction selects which way the builder expands from the root.
type Direction string

const (
	DirectionCallees Direction = "callees"
	DirectionCallers Direction = "callers"
	DirectionBoth    Direction = "both"
)

// ParseDirection validates a direction string, defaulting to callees.
func ParseDirection(s string) (Direction, bool) {
	switch Direction(s) {
	case DirectionCallees, DirectionCallers, DirectionBoth:
		return Direction(s), true
	case "":
		return DirectionCallees, true
	default:
		return "", false
	}
}

// EdgeKind distinguishes plain calls from virtual-dispatch fan-out edges.
type EdgeKind string

const (
	// EdgeCall is a resolved call from caller to callee.
	EdgeCall EdgeKind = "call"
	// EdgeImplements links an interface method to an overriding implementation.
	EdgeImplements EdgeKind = "implements"
)

// Edge is one call relationship. From is always the caller, To the callee,
// regardless of which traversal direction discovered it.
type Edge struct {
	From   identity.MethodID `json:"from"`
	To     identity.MethodID `json:"to"`
	Kind   EdgeKind          `json:"kind"`
	InLoop bool              `json:"inLoop,omitempty"` // call site is lexically inside a loop
	Cyclic bool              `json:"cyclic,omitempty"` // closes back to an already-visited node
}

// Node is one unique method reachable within budget.
type Node struct {
	ID             identity.MethodID      `json:"id"`
	DisplayName    string                 `json:"displayName"`
	ContainingType string                 `json:"containingType"`
	Package        string                 `json:"package,omitempty"`
	Category       classify.Category      `json:"category"`
	Risk           *classify.RiskMetadata `json:"risk"`
	Depth          int                    `json:"depth"` // distance from root along the discovery direction
	Frontier       bool                   `json:"frontier,omitempty"`

	// Adjacency views in discovery order. Callees/Callers hold identities,
	// not node pointers: resolve through Graph.Node.
	Callees []identity.MethodID `json:"callees,omitempty"`
	Callers []identity.MethodID `json:"callers,omitempty"`
}

// RiskWarning is one scored finding, derived from the graph on each scoring
// pass rather than stored on the node.
type RiskWarning struct {
	NodeID      identity.MethodID `json:"nodeId"`
	DisplayName string            `json:"displayName"`
	Flag        classify.Flag     `json:"flag"`
	Severity    int               `json:"severity"`
	Title       string            `json:"title"`
	Description string            `json:"description,omitempty"`
}

// Graph is the result of one analysis run. The builder constructs it, the
// scoring engine enriches RiskWarnings and CriticalPath in place before the
// graph is published; consumers treat it as an immutable snapshot.
type Graph struct {
	Root      identity.MethodID `json:"root"`
	Direction Direction         `json:"direction"`
	MaxDepth  int               `json:"maxDepth"`

	Nodes map[identity.MethodID]*Node `json:"-"`
	Edges []Edge                      `json:"edges"`

	NodeCount int  `json:"nodeCount"` // len(Nodes): distinct identities visited
	Truncated bool `json:"truncated"` // node budget hit or run cancelled

	RiskWarnings []RiskWarning       `json:"riskWarnings,omitempty"`
	CriticalPath []identity.MethodID `json:"criticalPath,omitempty"`
}

// NewGraph creates an empty graph for the given root and direction.
func NewGraph(root identity.MethodID, dir Direction, maxDepth int) *Graph {
	return &Graph{
		Root:      root,
		Direction: dir,
		MaxDepth:  maxDepth,
		Nodes:     make(map[identity.MethodID]*Node),
	}
}

// Node returns the arena node for an identity, or nil.
func (g *Graph) Node(id identity.MethodID) *Node {
	return g.Nodes[id]
}

// RootNode returns the arena node of the root identity.
func (g *Graph) RootNode() *Node {
	return g.Nodes[g.Root]
}

// AllNodes returns every node sorted by identity, the stable flattening the
// diagram emitters read.
func (g *Graph) AllNodes() []*Node {
	out := make([]*Node, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

// graphJSON is the wire form of a Graph: the node arena flattened into a
// sorted array so serialization never depends on map iteration order.
type graphJSON struct {
	Root      identity.MethodID `json:"root"`
	Direction Direction         `json:"direction"`
	MaxDepth  int               `json:"maxDepth"`

	Nodes []*Node `json:"nodes"`
	Edges []Edge  `json:"edges"`

	NodeCount int  `json:"nodeCount"`
	Truncated bool `json:"truncated"`

	RiskWarnings []RiskWarning       `json:"riskWarnings,omitempty"`
	CriticalPath []identity.MethodID `json:"criticalPath,omitempty"`
}

// MarshalJSON serializes the graph with nodes in identity order.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(graphJSON{
		Root:         g.Root,
		Direction:    g.Direction,
		MaxDepth:     g.MaxDepth,
		Nodes:        g.AllNodes(),
		Edges:        g.Edges,
		NodeCount:    g.NodeCount,
		Truncated:    g.Truncated,
		RiskWarnings: g.RiskWarnings,
		CriticalPath: g.CriticalPath,
	})
}

// UnmarshalJSON rebuilds the node arena from the wire form.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var wire graphJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	g.Root = wire.Root
	g.Direction = wire.Direction
	g.MaxDepth = wire.MaxDepth
	g.Edges = wire.Edges
	g.NodeCount = wire.NodeCount
	g.Truncated = wire.Truncated
	g.RiskWarnings = wire.RiskWarnings
	g.CriticalPath = wire.CriticalPath
	g.Nodes = make(map[identity.MethodID]*Node, len(wire.Nodes))
	for _, n := range wire.Nodes {
		g.Nodes[n.ID] = n
	}
	return nil
}

// CalleeEdge returns the edge facts for a caller->callee pair.
func (g *Graph) CalleeEdge(from, to identity.MethodID) (Edge, bool) {
	for _, e := range g.Edges {
		if e.From == from && e.To == to {
			return e, true
		}
	}
	return Edge{}, false
}
