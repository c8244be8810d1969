// Package facts defines the contract between the analysis engine and the
// source-code front end. A Provider answers "what does this method declare"
// and "what does its body call" questions; everything downstream (classifier,
// graph builder, scoring) consumes only these types.
package facts

import (
	"context"

	"txlens/internal/identity"
)

// TypeKind describes the kind of a containing type.
type TypeKind string

const (
	KindClass     TypeKind = "class"
	KindInterface TypeKind = "interface"
	KindEnum      TypeKind = "enum"
	KindUnknown   TypeKind = "unknown"
)

// Location is a position in source code (1-indexed lines).
type Location struct {
	Path      string `json:"path"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine,omitempty"`
}

// Annotation is a declaration annotation with its attribute values.
// Attribute keys are as written in source; the single unnamed value of a
// one-argument annotation is stored under "value".
type Annotation struct {
	Name       string            `json:"name"` // simple name, e.g. "Transactional"
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Attribute returns the named attribute value and whether it was present.
func (a Annotation) Attribute(key string) (string, bool) {
	v, ok := a.Attributes[key]
	return v, ok
}

// AnnotationSet is an ordered list of annotations with lookup helpers.
type AnnotationSet []Annotation

// Find returns the first annotation with the given simple name.
func (s AnnotationSet) Find(name string) (Annotation, bool) {
	for _, a := range s {
		if a.Name == name {
			return a, true
		}
	}
	return Annotation{}, false
}

// Has reports whether an annotation with the given simple name is present.
func (s AnnotationSet) Has(name string) bool {
	_, ok := s.Find(name)
	return ok
}

// MethodFacts are the declaration facts for one method.
type MethodFacts struct {
	ID              identity.MethodID `json:"id"`
	DisplayName     string            `json:"displayName"`
	Package         string            `json:"package"`
	ContainingType  string            `json:"containingType"` // qualified name
	TypeKind        TypeKind          `json:"typeKind"`
	TypeAnnotations AnnotationSet     `json:"typeAnnotations,omitempty"`
	Annotations     AnnotationSet     `json:"annotations,omitempty"`
	Static          bool              `json:"static,omitempty"`
	Visibility      string            `json:"visibility,omitempty"` // public/protected/private/package
	ParamTypes      []string          `json:"paramTypes,omitempty"`
	ReturnType      string            `json:"returnType,omitempty"`
	Location        *Location         `json:"location,omitempty"`
}

// CallSite is one call reference inside a method body, in source order.
// Callee is the zero MethodID when resolution failed; ReceiverType and
// MethodName are still populated for catalogue matching.
type CallSite struct {
	Callee       identity.MethodID `json:"callee"`
	ReceiverType string            `json:"receiverType,omitempty"` // simple type name of the receiver
	MethodName   string            `json:"methodName"`
	ArgCount     int               `json:"argCount"`
	InLoop       bool              `json:"inLoop"` // lexical ancestor chain contains a loop, or forEach-style enclosure
	Location     *Location         `json:"location,omitempty"`
}

// Resolved reports whether the call site resolved to a method identity.
func (c CallSite) Resolved() bool {
	return !c.Callee.IsZero()
}

// IDGeneration is the identity-generation strategy of a persisted entity.
type IDGeneration string

const (
	// GenIdentity means auto-increment-on-insert: the row is inserted (and
	// locked) immediately so the database can hand back the key.
	GenIdentity IDGeneration = "identity"
	GenSequence IDGeneration = "sequence"
	GenAuto     IDGeneration = "auto"
	GenTable    IDGeneration = "table"
	GenAssigned IDGeneration = "assigned"
	GenNone     IDGeneration = "none"
)

// RelationKind is the cardinality of an entity relation.
type RelationKind string

const (
	RelOneToMany  RelationKind = "one-to-many"
	RelManyToMany RelationKind = "many-to-many"
	RelOneToOne   RelationKind = "one-to-one"
	RelManyToOne  RelationKind = "many-to-one"
)

// Relation is one mapped association declared on an entity.
type Relation struct {
	Field         string       `json:"field"`
	Kind          RelationKind `json:"kind"`
	Eager         bool         `json:"eager"`
	CascadeAll    bool         `json:"cascadeAll"`
	CascadeRemove bool         `json:"cascadeRemove"`
	OrphanRemoval bool         `json:"orphanRemoval"`
	TargetType    string       `json:"targetType,omitempty"`
}

// EntityField is one persisted field with its index-relevant annotations.
type EntityField struct {
	Name   string `json:"name"`
	IsID   bool   `json:"isId"`
	Unique bool   `json:"unique"`
}

// EntityFacts is the schema view of one persisted entity type.
type EntityFacts struct {
	Name         string        `json:"name"` // qualified type name
	Table        string        `json:"table,omitempty"`
	IDGeneration IDGeneration  `json:"idGeneration"`
	Fields       []EntityField `json:"fields,omitempty"`
	Relations    []Relation    `json:"relations,omitempty"`
	IndexColumns []string      `json:"indexColumns,omitempty"` // from table-level index declarations
}

// Field returns the named field, matching case-insensitively the way
// derived-query parsing lowercases the leading letter.
func (e *EntityFacts) Field(name string) (EntityField, bool) {
	for _, f := range e.Fields {
		if equalFold(f.Name, name) {
			return f, true
		}
	}
	return EntityField{}, false
}

// Indexed reports whether the named field can be filtered on without a table
// scan: it is the identity field, annotated unique, or covered by a
// table-level index declaration. Unknown fields are NOT indexed; the
// index heuristics rely on that conservative default.
func (e *EntityFacts) Indexed(name string) bool {
	f, ok := e.Field(name)
	if !ok {
		return false
	}
	if f.IsID || f.Unique {
		return true
	}
	for _, col := range e.IndexColumns {
		if equalFold(col, name) {
			return true
		}
	}
	return false
}

func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

// Provider supplies method and schema facts to the engine.
//
// Lookup misses are not errors: a method that cannot be found yields
// (nil, nil) or an empty slice, and the caller treats the fact as absent.
// A returned error means the provider itself failed (I/O, corrupted parse
// state) and is fatal to the current analysis run.
//
// Providers must be safe for concurrent reads; the engine never writes
// through this interface.
type Provider interface {
	// MethodFacts returns declaration facts for a method, or nil when the
	// identity is unknown.
	MethodFacts(ctx context.Context, id identity.MethodID) (*MethodFacts, error)

	// CallSites returns the ordered call references inside the method body.
	CallSites(ctx context.Context, id identity.MethodID) ([]CallSite, error)

	// Callers returns the identities of methods whose bodies reference id,
	// each paired with the call site that references it.
	Callers(ctx context.Context, id identity.MethodID) ([]CallerRef, error)

	// Implementations returns the overriding implementations of an
	// interface or abstract method.
	Implementations(ctx context.Context, id identity.MethodID) ([]identity.MethodID, error)

	// Entity returns schema facts for a persisted entity type (qualified or
	// simple name), or nil when the type is not a persisted entity.
	Entity(typeName string) *EntityFacts

	// RepositoryEntity returns the entity type a repository-style type
	// manages, or "" when none can be determined.
	RepositoryEntity(typeName string) string

	// FindMethods returns identities whose display name matches the query
	// (simple substring match), for CLI root lookup.
	FindMethods(query string) []identity.MethodID
}

// CallerRef pairs a calling method with the call site inside it.
type CallerRef struct {
	Caller identity.MethodID `json:"caller"`
	Site   CallSite          `json:"site"`
}
