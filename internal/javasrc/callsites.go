//go:build cgo

package javasrc

import (
	sitter "github.com/smacker/go-tree-sitter"

	"txlens/internal/facts"
)

// extractCalls collects the method invocations under one method body, with
// the receiver type narrowed from parameters, locals and member fields.
// Scoping is intentionally flat: a shadowing local inside a block wins over
// the field of the same name, which matches how the code reads in practice.
func extractCalls(body, methodDecl *sitter.Node, source []byte, owner *typeInfo, params *sitter.Node, path string) []rawCall {
	scope := make(map[string]string)
	for _, f := range owner.fields {
		scope[f.name] = baseType(f.typeName)
	}
	if params != nil {
		for i := uint32(0); i < params.ChildCount(); i++ {
			p := params.Child(int(i))
			if p == nil {
				continue
			}
			if p.Type() == "formal_parameter" || p.Type() == "spread_parameter" {
				name := text(p.ChildByFieldName("name"), source)
				if name != "" {
					scope[name] = baseType(text(p.ChildByFieldName("type"), source))
				}
			}
		}
	}
	for _, decl := range findNodes(body, []string{"local_variable_declaration"}) {
		typeName := baseType(text(decl.ChildByFieldName("type"), source))
		for i := uint32(0); i < decl.ChildCount(); i++ {
			child := decl.Child(int(i))
			if child == nil || child.Type() != "variable_declarator" {
				continue
			}
			name := text(child.ChildByFieldName("name"), source)
			if name != "" {
				scope[name] = typeName
			}
		}
	}

	fields := make(map[string]string, len(owner.fields))
	for _, f := range owner.fields {
		fields[f.name] = baseType(f.typeName)
	}

	var calls []rawCall
	for _, inv := range findNodes(body, []string{"method_invocation"}) {
		name := text(inv.ChildByFieldName("name"), source)
		if name == "" {
			continue
		}

		calls = append(calls, rawCall{
			receiverType: receiverType(inv.ChildByFieldName("object"), source, owner, scope, fields),
			methodName:   name,
			argCount:     namedChildCount(inv.ChildByFieldName("arguments")),
			inLoop:       isInLoop(inv, methodDecl, source),
			location: &facts.Location{
				Path:      path,
				StartLine: int(inv.StartPoint().Row) + 1,
			},
		})
	}
	return calls
}

// receiverType narrows a receiver expression to a simple type name, or ""
// when it cannot be typed (chained calls, complex expressions).
func receiverType(object *sitter.Node, source []byte, owner *typeInfo, scope, fields map[string]string) string {
	if object == nil {
		return owner.simpleName // implicit this
	}

	switch object.Type() {
	case "this":
		return owner.simpleName
	case "identifier":
		name := text(object, source)
		if t, ok := scope[name]; ok {
			return t
		}
		// An unbound uppercase identifier reads as a type: a static call.
		if name != "" && name[0] >= 'A' && name[0] <= 'Z' {
			return name
		}
		return ""
	case "field_access":
		inner := object.ChildByFieldName("object")
		if inner != nil && inner.Type() == "this" {
			if t, ok := fields[text(object.ChildByFieldName("field"), source)]; ok {
				return t
			}
		}
		return ""
	default:
		return ""
	}
}

var loopNodeTypes = []string{
	"for_statement",
	"enhanced_for_statement",
	"while_statement",
	"do_statement",
}

// iterationMethods are the higher-order collection/stream operations whose
// lambda argument runs once per element.
var iterationMethods = []string{
	"forEach",
	"forEachOrdered",
	"map",
	"mapToObj",
	"mapToInt",
	"mapToLong",
	"mapToDouble",
	"flatMap",
	"filter",
	"peek",
	"removeIf",
	"anyMatch",
	"allMatch",
	"noneMatch",
}

// isInLoop reports whether an invocation's lexical ancestor chain, up to the
// enclosing method, contains a loop. A lambda passed to an iteration-shaped
// higher-order call (forEach, map, filter and friends) counts: the body runs
// once per element even though no loop keyword appears.
func isInLoop(inv, methodDecl *sitter.Node, source []byte) bool {
	for n := inv.Parent(); n != nil && n != methodDecl; n = n.Parent() {
		if contains(loopNodeTypes, n.Type()) {
			return true
		}
		if n.Type() == "lambda_expression" && lambdaIterates(n, source) {
			return true
		}
	}
	return false
}

func lambdaIterates(lambda *sitter.Node, source []byte) bool {
	args := lambda.Parent()
	if args == nil || args.Type() != "argument_list" {
		return false
	}
	call := args.Parent()
	if call == nil || call.Type() != "method_invocation" {
		return false
	}
	return contains(iterationMethods, text(call.ChildByFieldName("name"), source))
}

func namedChildCount(node *sitter.Node) int {
	if node == nil {
		return 0
	}
	count := 0
	for i := uint32(0); i < node.ChildCount(); i++ {
		child := node.Child(int(i))
		if child != nil && child.IsNamed() && child.Type() != "comment" {
			count++
		}
	}
	return count
}
