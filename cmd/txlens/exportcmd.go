package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"txlens/internal/export"
	"txlens/internal/scoring"
)

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export <method>",
	Short: "Render the call graph as a diagram",
	Long: `Run the analysis and render the scored graph as a Mermaid flowchart
or a PlantUML component diagram.

Examples:
  txlens export OrderService.placeOrder
  txlens export placeOrder --diagram=plantuml --out=graph.puml`,
	Args: cobra.ExactArgs(1),
	Run:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportFormat, "diagram", "mermaid", "Diagram dialect (mermaid, plantuml)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Write the diagram to a file instead of stdout")

	// Traversal flags are shared with analyze.
	exportCmd.Flags().StringVar(&analyzeDirection, "direction", "", "Direction to traverse (callees, callers, both)")
	exportCmd.Flags().IntVar(&analyzeDepth, "depth", 0, "Maximum traversal depth (1-10)")
	exportCmd.Flags().IntVar(&analyzeMaxNodes, "max-nodes", 0, "Node budget for the graph")
	exportCmd.Flags().BoolVar(&analyzeExternal, "include-external", false, "Include external-library callees")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) {
	format, ok := export.ParseFormat(exportFormat)
	if !ok {
		exitError(fmt.Errorf("unknown diagram dialect %q", exportFormat))
	}

	cfg, err := loadProjectConfig()
	if err != nil {
		exitError(err)
	}
	logger := newLogger(cfg)

	ctx, cancel := newContext()
	defer cancel()

	provider, builder, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		exitError(err)
	}
	root, err := resolveRoot(provider, args[0])
	if err != nil {
		exitError(err)
	}

	g, err := builder.Build(ctx, root, buildOptions(cfg))
	if err != nil {
		exitError(err)
	}
	scoring.Enrich(g)

	diagram, err := export.Render(g, format)
	if err != nil {
		exitError(err)
	}

	if exportOut == "" {
		fmt.Print(diagram)
		return
	}
	if err := os.WriteFile(exportOut, []byte(diagram), 0644); err != nil {
		exitError(err)
	}
	fmt.Printf("Diagram written to %s\n", exportOut)
}
