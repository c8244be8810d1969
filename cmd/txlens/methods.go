package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var methodsFormat string

var methodsCmd = &cobra.Command{
	Use:   "methods <query>",
	Short: "List declared methods matching a query",
	Long: `Search the indexed source tree for method declarations. Useful for
finding the exact identity to hand to analyze or export.

Examples:
  txlens methods placeOrder
  txlens methods PaymentService --format=json`,
	Args: cobra.ExactArgs(1),
	Run:  runMethods,
}

func init() {
	methodsCmd.Flags().StringVar(&methodsFormat, "format", "human", "Output format (human, json, yaml)")
	rootCmd.AddCommand(methodsCmd)
}

// MethodsResponse lists the identities matching a method query.
type MethodsResponse struct {
	Query   string   `json:"query"`
	Matches []string `json:"matches"`
}

func runMethods(cmd *cobra.Command, args []string) {
	cfg, err := loadProjectConfig()
	if err != nil {
		exitError(err)
	}
	logger := newLogger(cfg)

	ctx, cancel := newContext()
	defer cancel()

	provider, _, err := buildEngine(ctx, cfg, logger)
	if err != nil {
		exitError(err)
	}

	ids := provider.FindMethods(args[0])
	resp := &MethodsResponse{Query: args[0], Matches: make([]string, 0, len(ids))}
	for _, id := range ids {
		resp.Matches = append(resp.Matches, id.String())
	}

	output, err := FormatResponse(resp, OutputFormat(methodsFormat))
	if err != nil {
		exitError(err)
	}
	fmt.Println(output)
}

func formatMethodsHuman(resp *MethodsResponse) (string, error) {
	if len(resp.Matches) == 0 {
		return fmt.Sprintf("No methods match %q.", resp.Query), nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d methods match %q:\n", len(resp.Matches), resp.Query)
	for _, m := range resp.Matches {
		fmt.Fprintf(&b, "  %s\n", m)
	}
	return b.String(), nil
}
