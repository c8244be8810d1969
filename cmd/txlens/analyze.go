package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"txlens/internal/config"
	"txlens/internal/graph"
	"txlens/internal/logging"
	"txlens/internal/scoring"
	"txlens/internal/store"
	"txlens/internal/version"
)

var (
	analyzeDirection string
	analyzeDepth     int
	analyzeMaxNodes  int
	analyzeInclude   []string
	analyzeExclude   []string
	analyzeExternal  bool
	analyzeImpls     bool
	analyzeFormat    string
	analyzeSave      bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <method>",
	Short: "Build and score the call graph around a method",
	Long: `Build a bounded call graph rooted at a method, classify every node
for transaction and locking hazards, and rank the findings.

The method argument is matched against declared methods; qualify it with
the containing type to disambiguate.

Examples:
  txlens analyze placeOrder
  txlens analyze OrderService.placeOrder --direction=both --depth=4
  txlens analyze 'com.shop.service.PaymentService#settle' --format=json
  txlens analyze placeOrder --exclude-package=com.shop.legacy --save`,
	Args: cobra.ExactArgs(1),
	Run:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeDirection, "direction", "", "Direction to traverse (callees, callers, both)")
	analyzeCmd.Flags().IntVar(&analyzeDepth, "depth", 0, "Maximum traversal depth (1-10)")
	analyzeCmd.Flags().IntVar(&analyzeMaxNodes, "max-nodes", 0, "Node budget for the graph")
	analyzeCmd.Flags().StringSliceVar(&analyzeInclude, "include-package", nil, "Keep only these package prefixes")
	analyzeCmd.Flags().StringSliceVar(&analyzeExclude, "exclude-package", nil, "Drop these package prefixes")
	analyzeCmd.Flags().BoolVar(&analyzeExternal, "include-external", false, "Include external-library callees")
	analyzeCmd.Flags().BoolVar(&analyzeImpls, "resolve-impls", true, "Fan interface callees out into implementations")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "human", "Output format (human, json, yaml)")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save", false, "Persist the run in the project store")
	rootCmd.AddCommand(analyzeCmd)
}

// AnalyzeResponse is the CLI envelope around one scored graph.
type AnalyzeResponse struct {
	Version    string       `json:"version"`
	Query      string       `json:"query"`
	RunID      string       `json:"runId,omitempty"`
	DurationMs int64        `json:"durationMs"`
	Graph      *graph.Graph `json:"graph"`
}

func runAnalyze(cmd *cobra.Command, args []string) {
	start := time.Now()

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

	opts := buildOptions(cfg)
	g, err := builder.Build(ctx, root, opts)
	if err != nil {
		exitError(err)
	}
	scoring.Enrich(g)

	resp := &AnalyzeResponse{
		Version:    version.Version,
		Query:      args[0],
		DurationMs: time.Since(start).Milliseconds(),
		Graph:      g,
	}

	if analyzeSave && cfg.Store.Enabled {
		resp.RunID = saveRun(cfg, logger, g)
	}

	output, err := FormatResponse(resp, OutputFormat(analyzeFormat))
	if err != nil {
		exitError(err)
	}
	fmt.Println(output)

	logger.Debug("analysis completed", map[string]interface{}{
		"root":     root.String(),
		"nodes":    g.NodeCount,
		"warnings": len(g.RiskWarnings),
		"duration": resp.DurationMs,
	})
}

// buildOptions merges config defaults with command-line overrides.
func buildOptions(cfg *config.Config) graph.Options {
	opts := graph.Options{
		MaxDepth:        cfg.Analysis.MaxDepth,
		MaxNodes:        cfg.Analysis.MaxNodes,
		IncludePrefixes: cfg.Analysis.IncludePackages,
		ExcludePrefixes: cfg.Analysis.ExcludePackages,
		IncludeExternal: cfg.Analysis.IncludeExternal,
		ResolveImpls:    cfg.Analysis.ResolveImpls,
	}

	direction := analyzeDirection
	if direction == "" {
		direction = cfg.Analysis.Direction
	}
	if d, ok := graph.ParseDirection(direction); ok {
		opts.Direction = d
	}

	if analyzeDepth > 0 {
		opts.MaxDepth = analyzeDepth
	}
	if analyzeMaxNodes > 0 {
		opts.MaxNodes = analyzeMaxNodes
	}
	if len(analyzeInclude) > 0 {
		opts.IncludePrefixes = analyzeInclude
	}
	if len(analyzeExclude) > 0 {
		opts.ExcludePrefixes = analyzeExclude
	}
	if analyzeExternal {
		opts.IncludeExternal = true
	}
	opts.ResolveImpls = analyzeImpls
	return opts
}

// saveRun persists the graph; a store failure downgrades to a warning so
// the analysis output still reaches the user.
func saveRun(cfg *config.Config, logger *logging.Logger, g *graph.Graph) string {
	dbPath := cfg.Store.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(projectFlag, dbPath)
	}

	s, err := store.Open(dbPath, logger)
	if err != nil {
		logger.Warn("run store unavailable", map[string]interface{}{"error": err.Error()})
		return ""
	}
	defer func() { _ = s.Close() }()

	id, err := s.SaveRun(g)
	if err != nil {
		logger.Warn("failed to persist run", map[string]interface{}{"error": err.Error()})
		return ""
	}
	if err := s.Prune(cfg.Store.MaxRuns); err != nil {
		logger.Warn("failed to prune run store", map[string]interface{}{"error": err.Error()})
	}
	return id
}

func formatAnalyzeHuman(resp *AnalyzeResponse) (string, error) {
	g := resp.Graph
	var b strings.Builder

	fmt.Fprintf(&b, "txlens v%s\n", resp.Version)
	b.WriteString(strings.Repeat("=", 60) + "\n\n")

	fmt.Fprintf(&b, "Root:      %s\n", g.Root)
	fmt.Fprintf(&b, "Direction: %s (depth <= %d)\n", g.Direction, g.MaxDepth)
	fmt.Fprintf(&b, "Nodes:     %d, edges: %d\n", g.NodeCount, len(g.Edges))
	if g.Truncated {
		b.WriteString("Note:      graph truncated (budget or cancellation)\n")
	}
	if resp.RunID != "" {
		fmt.Fprintf(&b, "Run:       %s\n", resp.RunID)
	}

	if len(g.RiskWarnings) == 0 {
		b.WriteString("\nNo risk warnings.\n")
	} else {
		fmt.Fprintf(&b, "\nRisk warnings (%d):\n", len(g.RiskWarnings))
		for _, w := range g.RiskWarnings {
			fmt.Fprintf(&b, "  [%2d] %-20s %s\n", w.Severity, w.Flag, w.DisplayName)
			fmt.Fprintf(&b, "       %s\n", w.Title)
		}
	}

	if len(g.CriticalPath) > 0 {
		b.WriteString("\nCritical path:\n  ")
		parts := make([]string, 0, len(g.CriticalPath))
		for _, id := range g.CriticalPath {
			name := id.String()
			if n := g.Node(id); n != nil && n.DisplayName != "" {
				name = n.DisplayName
			}
			parts = append(parts, name)
		}
		b.WriteString(strings.Join(parts, "\n    -> "))
		b.WriteString("\n")
	}

	return b.String(), nil
}
