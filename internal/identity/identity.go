// Package identity defines the stable key that distinguishes one method
// overload from another across the whole analysis.
package identity

import "strings"

// MethodID is the stable, opaque key for a method: owning type qualified
// name, method name, and the comma-joined parameter type signature.
// Two call occurrences refer to the same node iff their MethodIDs are equal.
// The struct is comparable and safe to use as a map key.
type MethodID struct {
	Owner     string `json:"owner"`     // qualified containing type, e.g. "com.example.PaymentRepository"
	Name      string `json:"name"`      // method name, e.g. "saveAndFlush"
	Signature string `json:"signature"` // comma-joined parameter type names, e.g. "Payment"
}

// New builds a MethodID from an owner type, method name and parameter types.
func New(owner, name string, paramTypes []string) MethodID {
	return MethodID{
		Owner:     owner,
		Name:      name,
		Signature: strings.Join(paramTypes, ","),
	}
}

// IsZero reports whether the identity is empty (an unresolved reference).
func (id MethodID) IsZero() bool {
	return id.Owner == "" && id.Name == ""
}

// String renders the identity as Owner#Name(Signature).
func (id MethodID) String() string {
	return id.Owner + "#" + id.Name + "(" + id.Signature + ")"
}

// ShortName renders SimpleOwner.Name for display, dropping the package
// qualifier from the owner type.
func (id MethodID) ShortName() string {
	owner := id.Owner
	if i := strings.LastIndex(owner, "."); i >= 0 {
		owner = owner[i+1:]
	}
	return owner + "." + id.Name
}

// Parse parses a string produced by String back into a MethodID.
// Returns false when the input does not match the Owner#Name(Sig) shape.
func Parse(s string) (MethodID, bool) {
	hash := strings.Index(s, "#")
	open := strings.Index(s, "(")
	if hash < 0 || open < hash || !strings.HasSuffix(s, ")") {
		return MethodID{}, false
	}
	return MethodID{
		Owner:     s[:hash],
		Name:      s[hash+1 : open],
		Signature: s[open+1 : len(s)-1],
	}, true
}
