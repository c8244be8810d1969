//go:build cgo

package javasrc

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"txlens/internal/facts"
	"txlens/internal/identity"
)

// typeInfo is the indexed view of one declared type.
type typeInfo struct {
	simpleName    string
	qualifiedName string
	pkg           string
	kind          facts.TypeKind
	annotations   facts.AnnotationSet
	superTypes    []string // raw extends/implements entries, generics included
	fields        []fieldDecl
	methods       []*methodInfo
	path          string
}

// fieldDecl is one member field with its annotations.
type fieldDecl struct {
	name        string
	typeName    string // full declared type, generics included
	annotations facts.AnnotationSet
}

// methodInfo pairs declaration facts with the body references found under it.
type methodInfo struct {
	facts *facts.MethodFacts
	calls []rawCall
	sites []facts.CallSite // filled by the resolve pass
}

// rawCall is a body call reference before global resolution. The receiver
// type is already narrowed from locals, parameters and fields; only the
// receiver-type -> declared-method lookup is left for the resolve pass.
type rawCall struct {
	receiverType string // simple type name, "" when the receiver could not be typed
	methodName   string
	argCount     int
	inLoop       bool
	location     *facts.Location
}

var typeDeclKinds = []string{"class_declaration", "interface_declaration", "enum_declaration"}

// extractFile walks one parsed compilation unit into typeInfo records.
func extractFile(root *sitter.Node, source []byte, path string) []*typeInfo {
	pkg := packageName(root, source)

	var out []*typeInfo
	for _, decl := range findNodes(root, typeDeclKinds) {
		ti := extractType(decl, source, pkg, path)
		if ti != nil {
			out = append(out, ti)
		}
	}
	return out
}

func packageName(root *sitter.Node, source []byte) string {
	for i := uint32(0); i < root.ChildCount(); i++ {
		child := root.Child(int(i))
		if child != nil && child.Type() == "package_declaration" {
			for j := uint32(0); j < child.ChildCount(); j++ {
				n := child.Child(int(j))
				if n != nil && (n.Type() == "scoped_identifier" || n.Type() == "identifier") {
					return text(n, source)
				}
			}
		}
	}
	return ""
}

func extractType(decl *sitter.Node, source []byte, pkg, path string) *typeInfo {
	nameNode := decl.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	ti := &typeInfo{
		simpleName:  text(nameNode, source),
		pkg:         pkg,
		annotations: extractAnnotations(decl, source),
		path:        path,
	}
	ti.qualifiedName = ti.simpleName
	if pkg != "" {
		ti.qualifiedName = pkg + "." + ti.simpleName
	}

	switch decl.Type() {
	case "interface_declaration":
		ti.kind = facts.KindInterface
	case "enum_declaration":
		ti.kind = facts.KindEnum
	default:
		ti.kind = facts.KindClass
	}

	ti.superTypes = extractSuperTypes(decl, source)

	body := decl.ChildByFieldName("body")
	if body == nil {
		return ti
	}

	// Only direct body members: nested type declarations are picked up as
	// their own typeInfo by the caller's findNodes pass. Fields first, so
	// method extraction can type receivers against the full field table.
	for i := uint32(0); i < body.ChildCount(); i++ {
		member := body.Child(int(i))
		if member != nil && member.Type() == "field_declaration" {
			ti.fields = append(ti.fields, extractFields(member, source)...)
		}
	}
	for i := uint32(0); i < body.ChildCount(); i++ {
		member := body.Child(int(i))
		if member != nil && member.Type() == "method_declaration" {
			if m := extractMethod(member, source, ti, path); m != nil {
				ti.methods = append(ti.methods, m)
			}
		}
	}

	return ti
}

// extractSuperTypes collects the raw extends/implements entries, e.g.
// "JpaRepository<Payment, Long>" or "PaymentGateway".
func extractSuperTypes(decl *sitter.Node, source []byte) []string {
	var out []string
	for i := uint32(0); i < decl.ChildCount(); i++ {
		child := decl.Child(int(i))
		if child == nil {
			continue
		}
		switch child.Type() {
		case "superclass", "super_interfaces", "extends_interfaces", "interfaces":
			for _, t := range findNodes(child, []string{"type_identifier", "generic_type"}) {
				// generic_type contains a nested type_identifier; keep only
				// the outermost entry.
				if t.Parent() != nil && t.Parent().Type() == "generic_type" {
					continue
				}
				out = append(out, normalizeSpace(text(t, source)))
			}
		}
	}
	return out
}

func extractFields(decl *sitter.Node, source []byte) []fieldDecl {
	typeNode := decl.ChildByFieldName("type")
	annotations := extractAnnotations(decl, source)

	var out []fieldDecl
	for i := uint32(0); i < decl.ChildCount(); i++ {
		child := decl.Child(int(i))
		if child == nil || child.Type() != "variable_declarator" {
			continue
		}
		name := text(child.ChildByFieldName("name"), source)
		if name == "" {
			continue
		}
		out = append(out, fieldDecl{
			name:        name,
			typeName:    normalizeSpace(text(typeNode, source)),
			annotations: annotations,
		})
	}
	return out
}

func extractMethod(decl *sitter.Node, source []byte, owner *typeInfo, path string) *methodInfo {
	nameNode := decl.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	name := text(nameNode, source)

	var paramTypes []string
	params := decl.ChildByFieldName("parameters")
	if params != nil {
		for i := uint32(0); i < params.ChildCount(); i++ {
			p := params.Child(int(i))
			if p == nil {
				continue
			}
			if p.Type() == "formal_parameter" || p.Type() == "spread_parameter" {
				paramTypes = append(paramTypes, normalizeSpace(text(p.ChildByFieldName("type"), source)))
			}
		}
	}

	static, visibility := extractModifiers(decl, source)

	mf := &facts.MethodFacts{
		ID:              identity.New(owner.qualifiedName, name, paramTypes),
		DisplayName:     owner.simpleName + "." + name,
		Package:         owner.pkg,
		ContainingType:  owner.qualifiedName,
		TypeKind:        owner.kind,
		TypeAnnotations: owner.annotations,
		Annotations:     extractAnnotations(decl, source),
		Static:          static,
		Visibility:      visibility,
		ParamTypes:      paramTypes,
		ReturnType:      normalizeSpace(text(decl.ChildByFieldName("type"), source)),
		Location: &facts.Location{
			Path:      path,
			StartLine: int(decl.StartPoint().Row) + 1,
			EndLine:   int(decl.EndPoint().Row) + 1,
		},
	}

	m := &methodInfo{facts: mf}

	if body := decl.ChildByFieldName("body"); body != nil {
		m.calls = extractCalls(body, decl, source, owner, params, path)
	}
	return m
}

// extractModifiers returns the static flag and visibility of a declaration.
func extractModifiers(decl *sitter.Node, source []byte) (bool, string) {
	static := false
	visibility := "package"
	for i := uint32(0); i < decl.ChildCount(); i++ {
		child := decl.Child(int(i))
		if child == nil || child.Type() != "modifiers" {
			continue
		}
		for j := uint32(0); j < child.ChildCount(); j++ {
			mod := child.Child(int(j))
			if mod == nil {
				continue
			}
			switch mod.Type() {
			case "static":
				static = true
			case "public", "protected", "private":
				visibility = mod.Type()
			}
		}
	}
	return static, visibility
}

// extractAnnotations reads the annotations off a declaration's modifiers.
// The single unnamed argument of a one-argument annotation lands under the
// "value" key, matching how Java itself treats it.
func extractAnnotations(decl *sitter.Node, source []byte) facts.AnnotationSet {
	var set facts.AnnotationSet
	for i := uint32(0); i < decl.ChildCount(); i++ {
		child := decl.Child(int(i))
		if child == nil || child.Type() != "modifiers" {
			continue
		}
		for j := uint32(0); j < child.ChildCount(); j++ {
			n := child.Child(int(j))
			if n == nil {
				continue
			}
			switch n.Type() {
			case "marker_annotation":
				set = append(set, facts.Annotation{
					Name: text(n.ChildByFieldName("name"), source),
				})
			case "annotation":
				set = append(set, facts.Annotation{
					Name:       text(n.ChildByFieldName("name"), source),
					Attributes: extractAnnotationArgs(n.ChildByFieldName("arguments"), source),
				})
			}
		}
	}
	return set
}

func extractAnnotationArgs(args *sitter.Node, source []byte) map[string]string {
	if args == nil {
		return nil
	}
	attrs := make(map[string]string)
	for i := uint32(0); i < args.ChildCount(); i++ {
		child := args.Child(int(i))
		if child == nil {
			continue
		}
		if child.Type() == "element_value_pair" {
			key := text(child.ChildByFieldName("key"), source)
			attrs[key] = unquote(normalizeSpace(text(child.ChildByFieldName("value"), source)))
			continue
		}
		if child.IsNamed() && child.Type() != "comment" {
			attrs["value"] = unquote(normalizeSpace(text(child, source)))
		}
	}
	if len(attrs) == 0 {
		return nil
	}
	return attrs
}

func unquote(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// baseType strips generic arguments and array brackets from a type, e.g.
// "List<Payment>" -> "List".
func baseType(s string) string {
	if i := strings.IndexByte(s, '<'); i >= 0 {
		s = s[:i]
	}
	if i := strings.IndexByte(s, '['); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
