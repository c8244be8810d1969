package graph

import (
	"context"

	"txlens/internal/classify"
	txerrors "txlens/internal/errors"
	"txlens/internal/facts"
	"txlens/internal/identity"
	"txlens/internal/logging"
)

const (
	// DefaultMaxDepth bounds traversal when no depth is configured.
	DefaultMaxDepth = 5
	// HardMaxDepth is the upper clamp for user-supplied depths.
	HardMaxDepth = 10
	// DefaultMaxNodes bounds the arena when no node budget is configured.
	DefaultMaxNodes = 200
)

// Options parameterize one analysis run.
type Options struct {
	Direction       Direction
	MaxDepth        int
	MaxNodes        int
	IncludePrefixes []string // keep only packages with one of these prefixes (empty = keep all)
	ExcludePrefixes []string // drop packages with one of these prefixes
	IncludeExternal bool     // keep resolved callees the provider has no facts for
	ResolveImpls    bool     // fan out interface callees into their implementations
}

func (o Options) withDefaults() Options {
	if o.Direction == "" {
		o.Direction = DirectionCallees
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	if o.MaxDepth > HardMaxDepth {
		o.MaxDepth = HardMaxDepth
	}
	if o.MaxNodes <= 0 {
		o.MaxNodes = DefaultMaxNodes
	}
	return o
}

// Builder constructs bounded call graphs from a fact provider.
type Builder struct {
	provider   facts.Provider
	classifier *classify.Classifier
	logger     *logging.Logger
}

// NewBuilder creates a Builder.
func NewBuilder(provider facts.Provider, classifier *classify.Classifier, logger *logging.Logger) *Builder {
	return &Builder{
		provider:   provider,
		classifier: classifier,
		logger:     logger,
	}
}

// traversal owns the per-direction visited set. The arena (graph.Nodes) is
// shared between directions; the visited sets are not.
type traversal struct {
	g       *Graph
	opts    Options
	visited map[identity.MethodID]bool
}

// Build runs the bounded traversal and returns the graph. Cancellation via
// ctx returns a partial graph marked truncated, not an error. A root that
// the provider cannot resolve is an error; everything below the root is
// best-effort.
func (b *Builder) Build(ctx context.Context, root identity.MethodID, opts Options) (*Graph, error) {
	opts = opts.withDefaults()

	rootFacts, err := b.provider.MethodFacts(ctx, root)
	if err != nil {
		return nil, txerrors.Wrap(txerrors.ProviderFailure, "fact provider failed on root", err)
	}
	if rootFacts == nil {
		return nil, txerrors.Newf(txerrors.RootNotFound, "method %s not found", root)
	}

	g := NewGraph(root, opts.Direction, opts.MaxDepth)

	if opts.Direction == DirectionCallees || opts.Direction == DirectionBoth {
		t := &traversal{g: g, opts: opts, visited: make(map[identity.MethodID]bool)}
		if err := b.visitCallees(ctx, t, root, rootFacts, 0); err != nil {
			return nil, err
		}
	}
	if opts.Direction == DirectionCallers || opts.Direction == DirectionBoth {
		t := &traversal{g: g, opts: opts, visited: make(map[identity.MethodID]bool)}
		if err := b.visitCallers(ctx, t, root, rootFacts, 0); err != nil {
			return nil, err
		}
	}

	g.NodeCount = len(g.Nodes)

	b.logger.Debug("call graph built", map[string]interface{}{
		"root":      root.String(),
		"direction": string(opts.Direction),
		"nodes":     g.NodeCount,
		"edges":     len(g.Edges),
		"truncated": g.Truncated,
	})

	return g, nil
}

// ensureNode returns the arena node for an identity, creating and
// classifying it on first sight. Risk metadata of an existing node is
// widened, never narrowed, so flags discovered on a later path accumulate.
func (b *Builder) ensureNode(ctx context.Context, g *Graph, id identity.MethodID, mf *facts.MethodFacts, sites []facts.CallSite, depth int) *Node {
	if n, ok := g.Nodes[id]; ok {
		n.Risk.Widen(b.classifier.Classify(mf, sites))
		return n
	}

	n := &Node{
		ID:       id,
		Depth:    depth,
		Category: classify.CategoryUnknown,
		Risk:     classify.NewRiskMetadata(),
	}
	if mf != nil {
		n.DisplayName = mf.DisplayName
		n.ContainingType = mf.ContainingType
		n.Package = mf.Package
		n.Category = classify.CategoryOf(mf)
		n.Risk = b.classifier.Classify(mf, sites)
	} else {
		// A resolved identity without facts is an external-library method.
		n.DisplayName = id.ShortName()
		n.ContainingType = id.Owner
		n.Category = classify.CategoryExternal
	}

	g.Nodes[id] = n
	return n
}

// visitCallees expands one node in the callee direction.
func (b *Builder) visitCallees(ctx context.Context, t *traversal, id identity.MethodID, mf *facts.MethodFacts, depth int) error {
	if ctx.Err() != nil {
		t.g.Truncated = true
		return nil
	}

	sites, err := b.provider.CallSites(ctx, id)
	if err != nil {
		return txerrors.Wrap(txerrors.ProviderFailure, "fact provider failed on call sites", err)
	}

	node := b.ensureNode(ctx, t.g, id, mf, sites, depth)
	t.visited[id] = true

	// Frontier node: at the depth boundary it exists, fully classified, but
	// its own children are never expanded.
	if depth > t.g.MaxDepth {
		node.Frontier = true
		return nil
	}

	for _, site := range sites {
		if ctx.Err() != nil {
			t.g.Truncated = true
			return nil
		}
		// Calls that fail to resolve are omitted from expansion; their risk
		// contribution already landed in the node's flags.
		if !site.Resolved() {
			continue
		}

		childID := site.Callee
		childFacts, err := b.provider.MethodFacts(ctx, childID)
		if err != nil {
			return txerrors.Wrap(txerrors.ProviderFailure, "fact provider failed on callee", err)
		}
		if !t.keep(childFacts) {
			continue
		}

		if t.visited[childID] {
			// Re-encounter: self-recursion, a shared subroutine, or a true
			// cycle back to an ancestor. Record the edge, never re-expand.
			t.g.Edges = append(t.g.Edges, Edge{
				From: id, To: childID, Kind: EdgeCall, InLoop: site.InLoop, Cyclic: true,
			})
			node.Callees = append(node.Callees, childID)
			continue
		}

		// The budget gates node admission only: an edge to a node the other
		// direction already admitted costs nothing.
		if _, admitted := t.g.Nodes[childID]; !admitted && len(t.g.Nodes) >= t.opts.MaxNodes {
			t.g.Truncated = true
			continue
		}

		t.g.Edges = append(t.g.Edges, Edge{
			From: id, To: childID, Kind: EdgeCall, InLoop: site.InLoop,
		})
		node.Callees = append(node.Callees, childID)

		if err := b.visitCallees(ctx, t, childID, childFacts, depth+1); err != nil {
			return err
		}

		if err := b.expandImplementations(ctx, t, childID, childFacts, depth); err != nil {
			return err
		}
	}

	return nil
}

// expandImplementations fans an interface/abstract callee out into its
// overriding implementations, attached under the interface node at depth+2
// so virtual dispatch is visible without conflating it with the interface
// method's own depth.
func (b *Builder) expandImplementations(ctx context.Context, t *traversal, ifaceID identity.MethodID, ifaceFacts *facts.MethodFacts, depth int) error {
	if !t.opts.ResolveImpls || ifaceFacts == nil || ifaceFacts.TypeKind != facts.KindInterface {
		return nil
	}

	impls, err := b.provider.Implementations(ctx, ifaceID)
	if err != nil {
		return txerrors.Wrap(txerrors.ProviderFailure, "fact provider failed on implementations", err)
	}

	ifaceNode := t.g.Nodes[ifaceID]
	for _, implID := range impls {
		implFacts, err := b.provider.MethodFacts(ctx, implID)
		if err != nil {
			return txerrors.Wrap(txerrors.ProviderFailure, "fact provider failed on implementation", err)
		}
		if !t.keep(implFacts) {
			continue
		}

		if t.visited[implID] {
			t.g.Edges = append(t.g.Edges, Edge{
				From: ifaceID, To: implID, Kind: EdgeImplements, Cyclic: true,
			})
			if ifaceNode != nil {
				ifaceNode.Callees = append(ifaceNode.Callees, implID)
			}
			continue
		}
		if _, admitted := t.g.Nodes[implID]; !admitted && len(t.g.Nodes) >= t.opts.MaxNodes {
			t.g.Truncated = true
			continue
		}

		t.g.Edges = append(t.g.Edges, Edge{From: ifaceID, To: implID, Kind: EdgeImplements})
		if ifaceNode != nil {
			ifaceNode.Callees = append(ifaceNode.Callees, implID)
		}

		if err := b.visitCallees(ctx, t, implID, implFacts, depth+2); err != nil {
			return err
		}
	}

	return nil
}

// visitCallers expands one node in the caller direction. Edges still point
// caller -> callee; depth counts hops from the root upward.
func (b *Builder) visitCallers(ctx context.Context, t *traversal, id identity.MethodID, mf *facts.MethodFacts, depth int) error {
	if ctx.Err() != nil {
		t.g.Truncated = true
		return nil
	}

	sites, err := b.provider.CallSites(ctx, id)
	if err != nil {
		return txerrors.Wrap(txerrors.ProviderFailure, "fact provider failed on call sites", err)
	}

	node := b.ensureNode(ctx, t.g, id, mf, sites, depth)
	t.visited[id] = true

	if depth > t.g.MaxDepth {
		node.Frontier = true
		return nil
	}

	callers, err := b.provider.Callers(ctx, id)
	if err != nil {
		return txerrors.Wrap(txerrors.ProviderFailure, "fact provider failed on callers", err)
	}

	for _, ref := range callers {
		if ctx.Err() != nil {
			t.g.Truncated = true
			return nil
		}

		callerID := ref.Caller
		callerFacts, err := b.provider.MethodFacts(ctx, callerID)
		if err != nil {
			return txerrors.Wrap(txerrors.ProviderFailure, "fact provider failed on caller", err)
		}
		if !t.keep(callerFacts) {
			continue
		}

		if t.visited[callerID] {
			t.g.Edges = append(t.g.Edges, Edge{
				From: callerID, To: id, Kind: EdgeCall, InLoop: ref.Site.InLoop, Cyclic: true,
			})
			node.Callers = append(node.Callers, callerID)
			continue
		}

		if _, admitted := t.g.Nodes[callerID]; !admitted && len(t.g.Nodes) >= t.opts.MaxNodes {
			t.g.Truncated = true
			continue
		}

		t.g.Edges = append(t.g.Edges, Edge{
			From: callerID, To: id, Kind: EdgeCall, InLoop: ref.Site.InLoop,
		})
		node.Callers = append(node.Callers, callerID)

		if err := b.visitCallers(ctx, t, callerID, callerFacts, depth+1); err != nil {
			return err
		}
	}

	return nil
}

// keep applies the package include/exclude filters and the external-library
// toggle. nil facts mean an external-library method.
func (t *traversal) keep(mf *facts.MethodFacts) bool {
	if mf == nil {
		return t.opts.IncludeExternal
	}

	pkg := mf.Package
	for _, prefix := range t.opts.ExcludePrefixes {
		if hasPrefix(pkg, prefix) {
			return false
		}
	}
	if len(t.opts.IncludePrefixes) == 0 {
		return true
	}
	for _, prefix := range t.opts.IncludePrefixes {
		if hasPrefix(pkg, prefix) {
			return true
		}
	}
	return false
}

func hasPrefix(pkg, prefix string) bool {
	return prefix != "" && len(pkg) >= len(prefix) && pkg[:len(prefix)] == prefix
}
