package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"txlens/internal/config"
	"txlens/internal/export"
	"txlens/internal/logging"
	"txlens/internal/store"
)

var (
	runsLimit         int
	runsFormat        string
	runsExportDiagram string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Manage persisted analysis runs",
}

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List persisted runs, newest first",
	Run:   runRunsList,
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a persisted run, graph included",
	Args:  cobra.ExactArgs(1),
	Run:   runRunsShow,
}

var runsExportCmd = &cobra.Command{
	Use:   "export <run-id>",
	Short: "Re-render a persisted run as a diagram",
	Args:  cobra.ExactArgs(1),
	Run:   runRunsExport,
}

var runsDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a persisted run",
	Args:  cobra.ExactArgs(1),
	Run:   runRunsDelete,
}

func init() {
	runsListCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Number of runs to list")
	runsListCmd.Flags().StringVar(&runsFormat, "format", "human", "Output format (human, json, yaml)")
	runsShowCmd.Flags().StringVar(&runsFormat, "format", "json", "Output format (human, json, yaml)")
	runsExportCmd.Flags().StringVar(&runsExportDiagram, "diagram", "mermaid", "Diagram dialect (mermaid, plantuml)")

	runsCmd.AddCommand(runsListCmd, runsShowCmd, runsExportCmd, runsDeleteCmd)
	rootCmd.AddCommand(runsCmd)
}

// RunsResponse lists run summaries for CLI output.
type RunsResponse struct {
	Runs []store.Run `json:"runs"`
}

func openRunStore(cfg *config.Config, logger *logging.Logger) *store.Store {
	dbPath := cfg.Store.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(projectFlag, dbPath)
	}
	s, err := store.Open(dbPath, logger)
	if err != nil {
		exitError(err)
	}
	return s
}

func runRunsList(cmd *cobra.Command, args []string) {
	cfg, err := loadProjectConfig()
	if err != nil {
		exitError(err)
	}
	s := openRunStore(cfg, newLogger(cfg))
	defer func() { _ = s.Close() }()

	runs, err := s.ListRuns(runsLimit)
	if err != nil {
		exitError(err)
	}

	output, err := FormatResponse(&RunsResponse{Runs: runs}, OutputFormat(runsFormat))
	if err != nil {
		exitError(err)
	}
	fmt.Println(output)
}

func runRunsShow(cmd *cobra.Command, args []string) {
	cfg, err := loadProjectConfig()
	if err != nil {
		exitError(err)
	}
	s := openRunStore(cfg, newLogger(cfg))
	defer func() { _ = s.Close() }()

	run, err := s.GetRun(args[0])
	if err != nil {
		exitError(err)
	}
	if run == nil {
		exitError(fmt.Errorf("no run with id %q", args[0]))
	}

	output, err := FormatResponse(run, OutputFormat(runsFormat))
	if err != nil {
		exitError(err)
	}
	fmt.Println(output)
}

func runRunsExport(cmd *cobra.Command, args []string) {
	format, ok := export.ParseFormat(runsExportDiagram)
	if !ok {
		exitError(fmt.Errorf("unknown diagram dialect %q", runsExportDiagram))
	}

	cfg, err := loadProjectConfig()
	if err != nil {
		exitError(err)
	}
	s := openRunStore(cfg, newLogger(cfg))
	defer func() { _ = s.Close() }()

	run, err := s.GetRun(args[0])
	if err != nil {
		exitError(err)
	}
	if run == nil {
		exitError(fmt.Errorf("no run with id %q", args[0]))
	}

	diagram, err := export.Render(run.Graph, format)
	if err != nil {
		exitError(err)
	}
	fmt.Print(diagram)
}

func runRunsDelete(cmd *cobra.Command, args []string) {
	cfg, err := loadProjectConfig()
	if err != nil {
		exitError(err)
	}
	s := openRunStore(cfg, newLogger(cfg))
	defer func() { _ = s.Close() }()

	if err := s.DeleteRun(args[0]); err != nil {
		exitError(err)
	}
	fmt.Printf("Run %s deleted.\n", args[0])
}

func formatRunsHuman(resp *RunsResponse) (string, error) {
	if len(resp.Runs) == 0 {
		return "No persisted runs.", nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-36s  %-20s  %-8s  %5s  %5s  %s\n",
		"ID", "CREATED", "DIR", "NODES", "WARN", "ROOT")
	for _, r := range resp.Runs {
		created := r.CreatedAt.Format(time.RFC3339)
		truncated := ""
		if r.Truncated {
			truncated = " (truncated)"
		}
		fmt.Fprintf(&b, "%-36s  %-20s  %-8s  %5d  %5d  %s%s\n",
			r.ID, created, r.Direction, r.NodeCount, r.WarningCount, r.Root, truncated)
	}
	return b.String(), nil
}
