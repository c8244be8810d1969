// Package classify turns method declaration facts and body call-sites into
// the small vocabulary of risk flags the scoring engine ranks. Every lookup
// is best-effort: anything that cannot be resolved yields "flag absent",
// never an error.
package classify

import (
	"strings"

	"txlens/internal/facts"
)

// SchemaLookup resolves entity schema facts for the schema-derived flags.
// facts.Provider satisfies it.
type SchemaLookup interface {
	Entity(typeName string) *facts.EntityFacts
	RepositoryEntity(typeName string) string
}

// Classifier evaluates methods against a call-shape catalogue.
type Classifier struct {
	cat    *Catalogue
	schema SchemaLookup
}

// New creates a Classifier. A nil catalogue falls back to the default table;
// a nil schema lookup disables the schema-derived flags.
func New(cat *Catalogue, schema SchemaLookup) *Classifier {
	if cat == nil {
		cat = DefaultCatalogue()
	}
	return &Classifier{cat: cat, schema: schema}
}

// Classify produces the full risk metadata for one method from its
// declaration facts and ordered body call-sites.
func (c *Classifier) Classify(m *facts.MethodFacts, sites []facts.CallSite) *RiskMetadata {
	meta := NewRiskMetadata()
	if m == nil {
		return meta
	}

	c.classifyDeclaration(m, meta)
	c.classifyBody(m, sites, meta)
	c.classifySchema(m, meta)

	return meta
}

// classifyDeclaration computes the declaration-level flags from annotations.
func (c *Classifier) classifyDeclaration(m *facts.MethodFacts, meta *RiskMetadata) {
	if tx, ok := m.Annotations.Find("Transactional"); ok {
		meta.Transactional = true
		meta.Propagation = parsePropagation(tx)
		if v, ok := tx.Attribute("readOnly"); ok && v == "true" {
			meta.ReadOnly = true
		}
	}

	if m.Annotations.Has("Async") {
		meta.Async = true
	}

	meta.Endpoint = parseEndpoint(m.Annotations)

	if meta.Transactional && meta.Propagation == PropRequiresNew {
		meta.Flags.Add(FlagRequiresNewInTx)
	}
}

// classifyBody scans the call sites against the catalogue.
func (c *Classifier) classifyBody(m *facts.MethodFacts, sites []facts.CallSite, meta *RiskMetadata) {
	// A method declared on a remote-HTTP-client proxy type is itself an
	// external HTTP call regardless of its body.
	for _, ann := range c.cat.HTTP.ProxyAnnotations {
		if m.TypeAnnotations.Has(ann) {
			meta.Flags.Add(FlagExternalHTTP)
			break
		}
	}

	for _, site := range sites {
		if c.cat.MQ.Matches(site.ReceiverType, site.MethodName) {
			meta.Flags.Add(FlagExternalMQ)
		}
		if c.cat.HTTP.Matches(site.ReceiverType, site.MethodName) {
			meta.Flags.Add(FlagExternalHTTP)
		}
		if c.cat.Flush.Matches(site.MethodName) {
			meta.Flags.Add(FlagExplicitFlush)
		}
	}
}

// classifySchema follows the method's return and parameter types back to
// persisted entities and derives the schema flags.
func (c *Classifier) classifySchema(m *facts.MethodFacts, meta *RiskMetadata) {
	if c.schema == nil {
		return
	}

	var target *facts.EntityFacts
	for _, typeName := range candidateEntityTypes(m) {
		entity := c.schema.Entity(typeName)
		if entity == nil {
			continue
		}
		if target == nil {
			target = entity
		}
		applyEntityFlags(entity, meta)
	}

	c.classifyQueryRisk(m, target, meta)
}

// applyEntityFlags adds the relation- and identity-derived flags of one entity.
func applyEntityFlags(entity *facts.EntityFacts, meta *RiskMetadata) {
	if entity.IDGeneration == facts.GenIdentity {
		meta.Flags.Add(FlagEarlyInsertLock)
	}

	for _, rel := range entity.Relations {
		collection := rel.Kind == facts.RelOneToMany || rel.Kind == facts.RelManyToMany
		if collection && rel.Eager {
			meta.Flags.Add(FlagEagerFetch)
		}
		cascading := rel.CascadeAll || rel.CascadeRemove || rel.OrphanRemoval
		if cascading && (collection || rel.Kind == facts.RelOneToOne) {
			meta.Flags.Add(FlagCascade)
		}
	}
}

// classifyQueryRisk flags repository query methods whose filter fields are
// not indexed on the target entity. A field that cannot be resolved counts as
// not indexed: hidden risk is worse than a false positive here.
func (c *Classifier) classifyQueryRisk(m *facts.MethodFacts, paramEntity *facts.EntityFacts, meta *RiskMetadata) {
	query, hasQuery := m.Annotations.Find("Query")
	repoMethod := isRepositoryType(m) || hasQuery
	if !repoMethod {
		return
	}

	var fields []string
	if hasQuery {
		if q, ok := query.Attribute("value"); ok {
			fields = ParseQueryWhereFields(q)
		}
	}
	if fields == nil {
		fields = ParseDerivedQueryFields(m.ID.Name)
	}
	if len(fields) == 0 {
		return
	}

	entity := c.repositoryTarget(m, paramEntity)
	if entity == nil {
		// No resolvable entity at all: conservative default, assume risk.
		meta.Flags.Add(FlagTableScan)
		return
	}

	for _, field := range fields {
		if !entity.Indexed(field) {
			meta.Flags.Add(FlagTableScan)
			return
		}
	}
}

// repositoryTarget resolves the entity a repository method queries.
func (c *Classifier) repositoryTarget(m *facts.MethodFacts, fallback *facts.EntityFacts) *facts.EntityFacts {
	if name := c.schema.RepositoryEntity(m.ContainingType); name != "" {
		if entity := c.schema.Entity(name); entity != nil {
			return entity
		}
	}
	return fallback
}

// isRepositoryType reports whether the declaring type follows repository
// conventions: a @Repository annotation or a *Repository/*Dao type name.
func isRepositoryType(m *facts.MethodFacts) bool {
	if m.TypeAnnotations.Has("Repository") {
		return true
	}
	return strings.HasSuffix(m.ContainingType, "Repository") ||
		strings.HasSuffix(m.ContainingType, "Dao")
}

// candidateEntityTypes collects the type names a method's signature exposes,
// unwrapping one level of generic containers (List<Payment> -> Payment).
func candidateEntityTypes(m *facts.MethodFacts) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(t string) {
		for _, name := range unwrapGenerics(t) {
			if name != "" && !seen[name] {
				seen[name] = true
				out = append(out, name)
			}
		}
	}
	add(m.ReturnType)
	for _, p := range m.ParamTypes {
		add(p)
	}
	return out
}

// unwrapGenerics returns the raw type plus any type arguments:
// "List<Payment>" -> ["List", "Payment"].
func unwrapGenerics(t string) []string {
	t = strings.TrimSpace(t)
	if t == "" {
		return nil
	}
	open := strings.Index(t, "<")
	if open < 0 {
		return []string{t}
	}
	out := []string{strings.TrimSpace(t[:open])}
	inner := strings.TrimSuffix(t[open+1:], ">")
	for _, arg := range strings.Split(inner, ",") {
		arg = strings.TrimSpace(arg)
		if i := strings.Index(arg, "<"); i >= 0 {
			arg = arg[:i]
		}
		if arg != "" {
			out = append(out, arg)
		}
	}
	return out
}

// parsePropagation reads the propagation attribute of a @Transactional
// annotation. Unspecified propagation on a transactional method defaults to
// required.
func parsePropagation(tx facts.Annotation) Propagation {
	v, ok := tx.Attribute("propagation")
	if !ok {
		return PropRequired
	}
	// Attribute values keep their source form, e.g. "Propagation.REQUIRES_NEW".
	if i := strings.LastIndex(v, "."); i >= 0 {
		v = v[i+1:]
	}
	switch v {
	case "REQUIRED":
		return PropRequired
	case "REQUIRES_NEW":
		return PropRequiresNew
	case "NOT_SUPPORTED":
		return PropNotSupported
	case "SUPPORTS":
		return PropSupports
	case "MANDATORY":
		return PropMandatory
	case "NEVER":
		return PropNever
	case "NESTED":
		return PropNested
	default:
		return PropRequired
	}
}

// routeAnnotations maps web-route annotations to their HTTP methods.
var routeAnnotations = []struct {
	name   string
	method string
}{
	{"GetMapping", "GET"},
	{"PostMapping", "POST"},
	{"PutMapping", "PUT"},
	{"DeleteMapping", "DELETE"},
	{"PatchMapping", "PATCH"},
	{"RequestMapping", ""},
}

// parseEndpoint extracts the HTTP route from web-handler annotations, or nil.
func parseEndpoint(anns facts.AnnotationSet) *Endpoint {
	for _, route := range routeAnnotations {
		ann, ok := anns.Find(route.name)
		if !ok {
			continue
		}
		ep := &Endpoint{Method: route.method}
		if v, ok := ann.Attribute("value"); ok {
			ep.Path = trimQuotes(v)
		} else if v, ok := ann.Attribute("path"); ok {
			ep.Path = trimQuotes(v)
		}
		if ep.Method == "" {
			if v, ok := ann.Attribute("method"); ok {
				if i := strings.LastIndex(v, "."); i >= 0 {
					v = v[i+1:]
				}
				ep.Method = v
			} else {
				ep.Method = "ANY"
			}
		}
		return ep
	}
	return nil
}

func trimQuotes(s string) string {
	return strings.Trim(s, `"`)
}

// CategoryOf derives the role of a method's containing type from its
// declaration annotations, computed once at node creation.
func CategoryOf(m *facts.MethodFacts) Category {
	if m == nil {
		return CategoryUnknown
	}

	anns := m.TypeAnnotations
	switch {
	case anns.Has("RestController") || anns.Has("Controller"):
		return CategoryController
	case anns.Has("Service"):
		return CategoryService
	case anns.Has("Repository"):
		return CategoryRepository
	case anns.Has("Entity"):
		return CategoryEntity
	case anns.Has("Configuration"):
		return CategoryConfiguration
	case anns.Has("FeignClient") || anns.Has("HttpExchange"):
		return CategoryExternal
	}

	if m.Annotations.Has("EventListener") || m.Annotations.Has("TransactionalEventListener") {
		return CategoryEventListener
	}

	if anns.Has("Component") {
		if strings.HasSuffix(m.ContainingType, "Publisher") {
			return CategoryEventPublisher
		}
		return CategoryComponent
	}
	if m.TypeKind == facts.KindInterface {
		return CategoryInterface
	}
	if strings.HasSuffix(m.ContainingType, "Impl") {
		return CategoryImplementation
	}
	return CategoryUnknown
}
