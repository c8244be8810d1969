// Package export renders analysis graphs as Mermaid or PlantUML diagrams.
// Both emitters walk the same stable node order, so repeated exports of the
// same graph are byte-identical.
package export

import (
	"fmt"
	"sort"
	"strings"

	"txlens/internal/classify"
	"txlens/internal/graph"
	"txlens/internal/identity"
	"txlens/internal/scoring"
)

// Format selects a diagram dialect.
type Format string

const (
	FormatMermaid  Format = "mermaid"
	FormatPlantUML Format = "plantuml"
)

// ParseFormat validates a format string, defaulting to mermaid.
func ParseFormat(s string) (Format, bool) {
	switch Format(s) {
	case FormatMermaid, FormatPlantUML:
		return Format(s), true
	case "":
		return FormatMermaid, true
	default:
		return "", false
	}
}

// Render emits the graph in the requested dialect.
func Render(g *graph.Graph, format Format) (string, error) {
	switch format {
	case FormatMermaid:
		return Mermaid(g), nil
	case FormatPlantUML:
		return PlantUML(g), nil
	default:
		return "", fmt.Errorf("unsupported diagram format: %s", format)
	}
}

// aliases assigns short stable node names (n0, n1, ...) in identity order.
func aliases(g *graph.Graph) (map[identity.MethodID]string, []*graph.Node) {
	nodes := g.AllNodes()
	m := make(map[identity.MethodID]string, len(nodes))
	for i, n := range nodes {
		m[n.ID] = fmt.Sprintf("n%d", i)
	}
	return m, nodes
}

// severityBand buckets a node's worst flag severity for coloring.
func severityBand(n *graph.Node) string {
	if n.Risk == nil {
		return ""
	}
	max := 0
	for f := range n.Risk.Flags {
		if s := scoring.Severity(f); s > max {
			max = s
		}
	}
	switch {
	case max >= 9:
		return "high"
	case max >= 6:
		return "medium"
	case max >= 1:
		return "low"
	default:
		return ""
	}
}

// badges renders the declaration markers shown under the node name.
func badges(n *graph.Node) []string {
	var out []string
	if n.Risk != nil {
		if n.Risk.Transactional {
			tx := "TX"
			if n.Risk.Propagation == classify.PropRequiresNew {
				tx = "TX:REQUIRES_NEW"
			}
			if n.Risk.ReadOnly {
				tx += " RO"
			}
			out = append(out, tx)
		}
		if n.Risk.Async {
			out = append(out, "ASYNC")
		}
	}
	if n.Frontier {
		out = append(out, "DEPTH LIMIT")
	}
	return out
}

// Mermaid renders the graph as a top-down flowchart. In-loop calls get thick
// arrows, cyclic closing edges dashed ones; nodes are colored by their worst
// flag severity and the critical path gets a marked border.
func Mermaid(g *graph.Graph) string {
	alias, nodes := aliases(g)

	var b strings.Builder
	b.WriteString("flowchart TD\n")

	for _, n := range nodes {
		label := mermaidEscape(n.DisplayName)
		for _, badge := range badges(n) {
			label += "<br/>" + mermaidEscape("«"+badge+"»")
		}
		if n.Risk != nil {
			for _, f := range n.Risk.Flags.Sorted() {
				label += "<br/>" + mermaidEscape(string(f))
			}
		}

		a := alias[n.ID]
		switch n.Category {
		case classify.CategoryRepository:
			fmt.Fprintf(&b, "    %s[(\"%s\")]\n", a, label)
		case classify.CategoryExternal:
			fmt.Fprintf(&b, "    %s((\"%s\"))\n", a, label)
		case classify.CategoryController:
			fmt.Fprintf(&b, "    %s[/\"%s\"/]\n", a, label)
		default:
			fmt.Fprintf(&b, "    %s[\"%s\"]\n", a, label)
		}
	}

	for _, e := range g.Edges {
		from, okF := alias[e.From]
		to, okT := alias[e.To]
		if !okF || !okT {
			continue
		}
		switch {
		case e.Cyclic:
			fmt.Fprintf(&b, "    %s -.-> %s\n", from, to)
		case e.InLoop:
			fmt.Fprintf(&b, "    %s ==>|loop| %s\n", from, to)
		case e.Kind == graph.EdgeImplements:
			fmt.Fprintf(&b, "    %s -->|impl| %s\n", from, to)
		default:
			fmt.Fprintf(&b, "    %s --> %s\n", from, to)
		}
	}

	b.WriteString("    classDef high fill:#fecaca,stroke:#b91c1c\n")
	b.WriteString("    classDef medium fill:#fed7aa,stroke:#c2410c\n")
	b.WriteString("    classDef low fill:#fef9c3,stroke:#a16207\n")
	b.WriteString("    classDef critical stroke-width:3px,stroke-dasharray:0\n")

	for _, band := range []string{"high", "medium", "low"} {
		var members []string
		for _, n := range nodes {
			if severityBand(n) == band {
				members = append(members, alias[n.ID])
			}
		}
		if len(members) > 0 {
			fmt.Fprintf(&b, "    class %s %s\n", strings.Join(members, ","), band)
		}
	}

	if len(g.CriticalPath) > 0 {
		var members []string
		for _, id := range g.CriticalPath {
			if a, ok := alias[id]; ok {
				members = append(members, a)
			}
		}
		sort.Strings(members)
		fmt.Fprintf(&b, "    class %s critical\n", strings.Join(members, ","))
	}

	return b.String()
}

func mermaidEscape(s string) string {
	s = strings.ReplaceAll(s, `"`, "#quot;")
	return s
}
