package export

import (
	"fmt"
	"strings"

	"txlens/internal/graph"
)

// PlantUML renders the graph as a component diagram. The dialect carries the
// same information as the Mermaid form: severity as node color, loops as
// bold arrows, cycles as dotted ones.
func PlantUML(g *graph.Graph) string {
	alias, nodes := aliases(g)

	var b strings.Builder
	b.WriteString("@startuml\n")
	b.WriteString("skinparam rectangleBorderThickness 1\n")
	b.WriteString("skinparam shadowing false\n\n")

	for _, n := range nodes {
		label := plantEscape(n.DisplayName)
		for _, badge := range badges(n) {
			label += "\\n<<" + badge + ">>"
		}
		if n.Risk != nil {
			for _, f := range n.Risk.Flags.Sorted() {
				label += "\\n" + string(f)
			}
		}

		color := ""
		switch severityBand(n) {
		case "high":
			color = " #fecaca"
		case "medium":
			color = " #fed7aa"
		case "low":
			color = " #fef9c3"
		}

		shape := "rectangle"
		switch n.Category {
		case "repository":
			shape = "database"
		case "external":
			shape = "cloud"
		}
		fmt.Fprintf(&b, "%s \"%s\" as %s%s\n", shape, label, alias[n.ID], color)
	}

	b.WriteString("\n")
	for _, e := range g.Edges {
		from, okF := alias[e.From]
		to, okT := alias[e.To]
		if !okF || !okT {
			continue
		}
		switch {
		case e.Cyclic:
			fmt.Fprintf(&b, "%s ..> %s : cycle\n", from, to)
		case e.InLoop:
			fmt.Fprintf(&b, "%s -[bold]-> %s : loop\n", from, to)
		case e.Kind == graph.EdgeImplements:
			fmt.Fprintf(&b, "%s --> %s : impl\n", from, to)
		default:
			fmt.Fprintf(&b, "%s --> %s\n", from, to)
		}
	}

	b.WriteString("@enduml\n")
	return b.String()
}

func plantEscape(s string) string {
	return strings.ReplaceAll(s, `"`, "'")
}
