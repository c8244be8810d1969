package export

import (
	"strings"
	"testing"

	"txlens/internal/classify"
	"txlens/internal/graph"
	"txlens/internal/identity"
)

func exportFixture() *graph.Graph {
	root := identity.New("com.shop.OrderService", "placeOrder", nil)
	repo := identity.New("com.shop.PaymentRepo", "deleteByEmail", []string{"String"})
	ext := identity.New("org.lib.RestTemplate", "getForObject", nil)

	g := graph.NewGraph(root, graph.DirectionCallees, 5)

	rootNode := &graph.Node{
		ID:          root,
		DisplayName: "OrderService.placeOrder",
		Category:    classify.CategoryService,
		Risk:        classify.NewRiskMetadata(),
	}
	rootNode.Risk.Transactional = true
	g.Nodes[root] = rootNode

	repoNode := &graph.Node{
		ID:          repo,
		DisplayName: "PaymentRepo.deleteByEmail",
		Category:    classify.CategoryRepository,
		Risk:        classify.NewRiskMetadata(),
		Depth:       1,
	}
	repoNode.Risk.Flags.Add(classify.FlagTableScan)
	g.Nodes[repo] = repoNode

	g.Nodes[ext] = &graph.Node{
		ID:          ext,
		DisplayName: "RestTemplate.getForObject",
		Category:    classify.CategoryExternal,
		Risk:        classify.NewRiskMetadata(),
		Depth:       1,
	}

	g.Edges = []graph.Edge{
		{From: root, To: repo, Kind: graph.EdgeCall, InLoop: true},
		{From: root, To: ext, Kind: graph.EdgeCall},
		{From: repo, To: root, Kind: graph.EdgeCall, Cyclic: true},
	}
	g.NodeCount = len(g.Nodes)
	g.CriticalPath = []identity.MethodID{root, repo}
	return g
}

func TestMermaid(t *testing.T) {
	out := Mermaid(exportFixture())

	if !strings.HasPrefix(out, "flowchart TD\n") {
		t.Error("output should start with a flowchart header")
	}
	for _, want := range []string{
		"OrderService.placeOrder",
		"«TX»",
		"TABLE_SCAN_RISK",
		"==>|loop|", // in-loop edge is thick
		"-.->",      // cyclic edge is dashed
		"classDef high",
		" critical\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("mermaid output missing %q:\n%s", want, out)
		}
	}

	// Repository nodes use the database shape, external ones the circle.
	if !strings.Contains(out, "[(\"PaymentRepo.deleteByEmail") {
		t.Error("repository node should use the database shape")
	}
	if !strings.Contains(out, "((\"RestTemplate.getForObject") {
		t.Error("external node should use the circle shape")
	}
}

func TestMermaidDeterministic(t *testing.T) {
	g := exportFixture()
	if Mermaid(g) != Mermaid(g) {
		t.Error("repeated renders of the same graph should be identical")
	}
}

func TestPlantUML(t *testing.T) {
	out := PlantUML(exportFixture())

	if !strings.HasPrefix(out, "@startuml\n") || !strings.HasSuffix(out, "@enduml\n") {
		t.Error("output should be wrapped in startuml/enduml")
	}
	for _, want := range []string{
		"database \"PaymentRepo.deleteByEmail",
		"cloud \"RestTemplate.getForObject",
		"-[bold]->",
		"..>",
		"#fecaca", // high severity color on the table-scan node
	} {
		if !strings.Contains(out, want) {
			t.Errorf("plantuml output missing %q:\n%s", want, out)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, ok := ParseFormat(""); !ok || f != FormatMermaid {
		t.Error("empty format should default to mermaid")
	}
	if _, ok := ParseFormat("graphviz"); ok {
		t.Error("unknown format should be rejected")
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	if _, err := Render(exportFixture(), Format("dot")); err == nil {
		t.Error("Render should reject unknown formats")
	}
}
