package classify

import (
	"encoding/json"
	"sort"
)

// Flag is a categorical risk fact attached to a node by the classifier.
type Flag string

const (
	// FlagTableScan marks a repository query filtering on a non-indexed field.
	FlagTableScan Flag = "TABLE_SCAN_RISK"
	// FlagRequiresNewInTx marks a transactional method with REQUIRES_NEW propagation.
	FlagRequiresNewInTx Flag = "REQUIRES_NEW_IN_TX"
	// FlagCascade marks exposure to cascading writes (cascade delete/all or orphan removal).
	FlagCascade Flag = "CASCADE_OPERATION"
	// FlagExternalHTTP marks an HTTP client invocation in the method body.
	FlagExternalHTTP Flag = "EXTERNAL_HTTP"
	// FlagExternalMQ marks a messaging-client send in the method body.
	FlagExternalMQ Flag = "EXTERNAL_MQ"
	// FlagEarlyInsertLock marks exposure to auto-increment-on-insert identity generation.
	FlagEarlyInsertLock Flag = "EARLY_INSERT_LOCK"
	// FlagExplicitFlush marks an explicit flush / save-and-flush call.
	FlagExplicitFlush Flag = "EXPLICIT_FLUSH"
	// FlagEagerFetch marks exposure to an eagerly-loaded collection relation.
	FlagEagerFetch Flag = "EAGER_FETCH"
)

// FlagSet is a widen-only set of flags. Flags accumulate over repeated
// classification passes and are never removed.
type FlagSet map[Flag]bool

// Add inserts a flag into the set.
func (s FlagSet) Add(f Flag) {
	s[f] = true
}

// Has reports whether the flag is present.
func (s FlagSet) Has(f Flag) bool {
	return s[f]
}

// Merge widens the set with every flag from other. Merging never removes.
func (s FlagSet) Merge(other FlagSet) {
	for f := range other {
		s[f] = true
	}
}

// Sorted returns the flags in lexical order, for deterministic output.
func (s FlagSet) Sorted() []Flag {
	out := make([]Flag, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// MarshalJSON renders the set as a sorted string array so that map iteration
// order never leaks into serialized graphs.
func (s FlagSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON restores a set from the sorted-array form.
func (s *FlagSet) UnmarshalJSON(data []byte) error {
	var flags []Flag
	if err := json.Unmarshal(data, &flags); err != nil {
		return err
	}
	set := make(FlagSet, len(flags))
	for _, f := range flags {
		set[f] = true
	}
	*s = set
	return nil
}

// Propagation is a transaction propagation mode.
type Propagation string

const (
	PropNone         Propagation = "none"
	PropRequired     Propagation = "required"
	PropRequiresNew  Propagation = "requires-new"
	PropNotSupported Propagation = "not-supported"
	PropSupports     Propagation = "supports"
	PropMandatory    Propagation = "mandatory"
	PropNever        Propagation = "never"
	PropNested       Propagation = "nested"
)

// Endpoint is the HTTP route a web-handler method is bound to.
type Endpoint struct {
	Method string `json:"method"`
	Path   string `json:"path,omitempty"`
}

// RiskMetadata is the full classifier output for one method. Declaration
// fields are computed once from annotations; Flags may be widened later when
// a second pass discovers additional facts for the same identity.
type RiskMetadata struct {
	Transactional bool        `json:"transactional"`
	Propagation   Propagation `json:"propagation"`
	ReadOnly      bool        `json:"readOnly,omitempty"`
	Async         bool        `json:"async,omitempty"`
	Endpoint      *Endpoint   `json:"endpoint,omitempty"`
	Flags         FlagSet     `json:"flags"`
}

// NewRiskMetadata returns empty metadata with an allocated flag set.
func NewRiskMetadata() *RiskMetadata {
	return &RiskMetadata{Propagation: PropNone, Flags: make(FlagSet)}
}

// Widen merges other's flags into m. Declaration fields are not touched:
// they were computed once from the declaration and cannot change.
func (m *RiskMetadata) Widen(other *RiskMetadata) {
	if other == nil {
		return
	}
	m.Flags.Merge(other.Flags)
}

// Category classifies the role of a node's containing type.
type Category string

const (
	CategoryController     Category = "controller"
	CategoryService        Category = "service"
	CategoryRepository     Category = "repository"
	CategoryEntity         Category = "entity"
	CategoryInterface      Category = "interface"
	CategoryImplementation Category = "implementation"
	CategoryEventPublisher Category = "event-publisher"
	CategoryEventListener  Category = "event-listener"
	CategoryComponent      Category = "component"
	CategoryConfiguration  Category = "configuration"
	CategoryExternal       Category = "external"
	CategoryUnknown        Category = "unknown"
)
