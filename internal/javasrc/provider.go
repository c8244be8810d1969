//go:build cgo

package javasrc

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	txerrors "txlens/internal/errors"
	"txlens/internal/facts"
	"txlens/internal/identity"
	"txlens/internal/logging"
)

// Options configure the indexing walk.
type Options struct {
	Roots            []string
	Ignore           []string
	MaxFileSizeBytes int
}

// Provider implements facts.Provider over an indexed Java source tree.
// Index populates the tables once; every read after that is a plain map
// lookup, safe for concurrent use.
type Provider struct {
	logger *logging.Logger

	types    map[string]*typeInfo // keyed by simple AND qualified name
	methods  map[identity.MethodID]*methodInfo
	byName   map[string][]identity.MethodID
	callers  map[identity.MethodID][]facts.CallerRef
	impls    map[identity.MethodID][]identity.MethodID
	entities map[string]*facts.EntityFacts
	repos    map[string]string
}

// IsAvailable returns whether source parsing is available.
func IsAvailable() bool {
	return true
}

// NewProvider creates an empty provider. Call Index before using it.
func NewProvider(logger *logging.Logger) *Provider {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Provider{
		logger:   logger,
		types:    make(map[string]*typeInfo),
		methods:  make(map[identity.MethodID]*methodInfo),
		byName:   make(map[string][]identity.MethodID),
		callers:  make(map[identity.MethodID][]facts.CallerRef),
		impls:    make(map[identity.MethodID][]identity.MethodID),
		entities: make(map[string]*facts.EntityFacts),
		repos:    make(map[string]string),
	}
}

// Index parses every Java file under the configured roots and builds the
// fact tables. Files that fail to read or parse are skipped with a warning;
// an unreadable root is fatal.
func (p *Provider) Index(ctx context.Context, opts Options) error {
	if opts.MaxFileSizeBytes <= 0 {
		opts.MaxFileSizeBytes = 1000000
	}
	parser := NewParser()

	var all []*typeInfo
	for _, root := range opts.Roots {
		if _, err := os.Stat(root); err != nil {
			return txerrors.Wrap(txerrors.SourceUnreadable, "source root not readable: "+root, err)
		}

		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // unreadable entry, skip
			}
			if d.IsDir() {
				name := d.Name()
				if strings.HasPrefix(name, ".") || contains(opts.Ignore, name) {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.HasSuffix(path, ".java") {
				return nil
			}
			if info, err := d.Info(); err == nil && info.Size() > int64(opts.MaxFileSizeBytes) {
				p.logger.Warn("skipping oversized source file", map[string]interface{}{"path": path})
				return nil
			}

			source, err := os.ReadFile(path)
			if err != nil {
				p.logger.Warn("skipping unreadable source file", map[string]interface{}{
					"path": path, "error": err.Error(),
				})
				return nil
			}

			tree, err := parser.Parse(ctx, source)
			if err != nil {
				p.logger.Warn("skipping unparseable source file", map[string]interface{}{
					"path": path, "error": err.Error(),
				})
				return nil
			}

			all = append(all, extractFile(tree, source, path)...)
			return ctx.Err()
		})
		if err != nil {
			return txerrors.Wrap(txerrors.SourceUnreadable, "source walk failed", err)
		}
	}

	p.register(all)
	p.resolve()

	p.logger.Info("source tree indexed", map[string]interface{}{
		"roots":    strings.Join(opts.Roots, ","),
		"types":    len(all),
		"methods":  len(p.methods),
		"entities": len(p.entities) / 2,
	})
	return nil
}

// register fills the type/method/entity tables. Simple-name keys collide
// across packages; the qualified key is always authoritative.
func (p *Provider) register(all []*typeInfo) {
	for _, ti := range all {
		p.types[ti.simpleName] = ti
		p.types[ti.qualifiedName] = ti

		for _, m := range ti.methods {
			p.methods[m.facts.ID] = m
			p.byName[m.facts.ID.Name] = append(p.byName[m.facts.ID.Name], m.facts.ID)
		}

		if e := entityFromType(ti); e != nil {
			p.entities[ti.simpleName] = e
			p.entities[ti.qualifiedName] = e
		}
	}

	// Repositories resolve after all entities are known, so the simple
	// entity name in the super-interface can be qualified.
	for _, ti := range all {
		target := repositoryTarget(ti)
		if target == "" {
			continue
		}
		if e, ok := p.entities[target]; ok {
			target = e.Name
		}
		p.repos[ti.simpleName] = target
		p.repos[ti.qualifiedName] = target
	}
}

// resolve turns raw body calls into call sites, inverts them into the
// caller table and links interface methods to their implementations.
func (p *Provider) resolve() {
	ids := make([]identity.MethodID, 0, len(p.methods))
	for id := range p.methods {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	for _, id := range ids {
		m := p.methods[id]
		for _, call := range m.calls {
			site := facts.CallSite{
				ReceiverType: call.receiverType,
				MethodName:   call.methodName,
				ArgCount:     call.argCount,
				InLoop:       call.inLoop,
				Location:     call.location,
			}
			if target := p.lookupMethod(call.receiverType, call.methodName, call.argCount); target != nil {
				site.Callee = target.facts.ID
			}
			m.sites = append(m.sites, site)

			if site.Resolved() {
				p.callers[site.Callee] = append(p.callers[site.Callee], facts.CallerRef{
					Caller: id,
					Site:   site,
				})
			}
		}
	}

	p.linkImplementations(ids)
}

// lookupMethod finds a declared method on a type or its indexed supertypes.
// Overloads pick the candidate whose arity matches, falling back to the
// first declaration.
func (p *Provider) lookupMethod(typeName, methodName string, argCount int) *methodInfo {
	seen := make(map[string]bool)
	queue := []string{typeName}

	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		ti, ok := p.types[name]
		if !ok {
			continue
		}

		var first *methodInfo
		for _, m := range ti.methods {
			if m.facts.ID.Name != methodName {
				continue
			}
			if len(m.facts.ParamTypes) == argCount {
				return m
			}
			if first == nil {
				first = m
			}
		}
		if first != nil {
			return first
		}

		for _, super := range ti.superTypes {
			queue = append(queue, baseType(super))
		}
	}
	return nil
}

// linkImplementations maps every interface method to the same-name methods
// of the classes that implement the interface.
func (p *Provider) linkImplementations(ids []identity.MethodID) {
	implementors := make(map[string][]*typeInfo)
	seenType := make(map[string]bool)
	for _, ti := range p.types {
		if seenType[ti.qualifiedName] || ti.kind != facts.KindClass {
			continue
		}
		seenType[ti.qualifiedName] = true
		for _, super := range ti.superTypes {
			implementors[baseType(super)] = append(implementors[baseType(super)], ti)
		}
	}
	for _, classes := range implementors {
		sort.Slice(classes, func(i, j int) bool {
			return classes[i].qualifiedName < classes[j].qualifiedName
		})
	}

	for _, id := range ids {
		m := p.methods[id]
		if m.facts.TypeKind != facts.KindInterface {
			continue
		}
		iface := p.types[m.facts.ContainingType]
		if iface == nil {
			continue
		}
		for _, class := range implementors[iface.simpleName] {
			for _, cm := range class.methods {
				if cm.facts.ID.Name == id.Name && len(cm.facts.ParamTypes) == len(m.facts.ParamTypes) {
					p.impls[id] = append(p.impls[id], cm.facts.ID)
				}
			}
		}
	}
}

// MethodFacts returns declaration facts, or nil for an unknown identity.
func (p *Provider) MethodFacts(ctx context.Context, id identity.MethodID) (*facts.MethodFacts, error) {
	if m, ok := p.methods[id]; ok {
		return m.facts, nil
	}
	return nil, nil
}

// CallSites returns the ordered body call references of a method.
func (p *Provider) CallSites(ctx context.Context, id identity.MethodID) ([]facts.CallSite, error) {
	if m, ok := p.methods[id]; ok {
		return m.sites, nil
	}
	return nil, nil
}

// Callers returns the methods whose bodies reference id.
func (p *Provider) Callers(ctx context.Context, id identity.MethodID) ([]facts.CallerRef, error) {
	return p.callers[id], nil
}

// Implementations returns the overriding implementations of an interface
// method.
func (p *Provider) Implementations(ctx context.Context, id identity.MethodID) ([]identity.MethodID, error) {
	return p.impls[id], nil
}

// Entity returns schema facts for a persisted entity type, or nil.
func (p *Provider) Entity(typeName string) *facts.EntityFacts {
	return p.entities[typeName]
}

// RepositoryEntity returns the entity a repository interface manages.
func (p *Provider) RepositoryEntity(typeName string) string {
	return p.repos[typeName]
}

// FindMethods returns identities whose display name contains the query,
// case-insensitively, sorted for stable CLI output. A "Type.method" or
// "Type#method" query narrows to that containing type.
func (p *Provider) FindMethods(query string) []identity.MethodID {
	q := strings.ToLower(strings.ReplaceAll(query, "#", "."))

	var out []identity.MethodID
	for id, m := range p.methods {
		display := strings.ToLower(m.facts.DisplayName)
		if strings.Contains(display, q) || strings.Contains(strings.ToLower(id.String()), q) {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
