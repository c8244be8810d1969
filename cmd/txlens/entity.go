package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"txlens/internal/facts"
)

var entityFormat string

var entityCmd = &cobra.Command{
	Use:   "entity <type>",
	Short: "Show the schema facts of a persisted entity",
	Long: `Show the index-relevant schema view of a JPA entity: identity
generation, field indexes and mapped relations.

Examples:
  txlens entity Payment
  txlens entity com.shop.model.Order --format=json`,
	Args: cobra.ExactArgs(1),
	Run:  runEntity,
}

func init() {
	entityCmd.Flags().StringVar(&entityFormat, "format", "human", "Output format (human, json, yaml)")
	rootCmd.AddCommand(entityCmd)
}

// EntityResponse wraps the schema facts of one entity for CLI output.
type EntityResponse struct {
	Query  string             `json:"query"`
	Entity *facts.EntityFacts `json:"entity"`
}

func runEntity(cmd *cobra.Command, args []string) {
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

	entity := provider.Entity(args[0])
	if entity == nil {
		exitError(fmt.Errorf("no persisted entity named %q", args[0]))
	}

	output, err := FormatResponse(&EntityResponse{Query: args[0], Entity: entity}, OutputFormat(entityFormat))
	if err != nil {
		exitError(err)
	}
	fmt.Println(output)
}

func formatEntityHuman(resp *EntityResponse) (string, error) {
	e := resp.Entity
	var b strings.Builder

	fmt.Fprintf(&b, "Entity: %s\n", e.Name)
	if e.Table != "" {
		fmt.Fprintf(&b, "Table:  %s\n", e.Table)
	}
	fmt.Fprintf(&b, "ID generation: %s\n", e.IDGeneration)

	if len(e.Fields) > 0 {
		b.WriteString("\nFields:\n")
		for _, f := range e.Fields {
			marker := " "
			if e.Indexed(f.Name) {
				marker = "I"
			}
			tags := []string{}
			if f.IsID {
				tags = append(tags, "id")
			}
			if f.Unique {
				tags = append(tags, "unique")
			}
			fmt.Fprintf(&b, "  [%s] %s", marker, f.Name)
			if len(tags) > 0 {
				fmt.Fprintf(&b, " (%s)", strings.Join(tags, ", "))
			}
			b.WriteString("\n")
		}
	}

	if len(e.Relations) > 0 {
		b.WriteString("\nRelations:\n")
		for _, r := range e.Relations {
			attrs := []string{string(r.Kind)}
			if r.Eager {
				attrs = append(attrs, "eager")
			}
			if r.CascadeAll {
				attrs = append(attrs, "cascade-all")
			} else if r.CascadeRemove {
				attrs = append(attrs, "cascade-remove")
			}
			if r.OrphanRemoval {
				attrs = append(attrs, "orphan-removal")
			}
			fmt.Fprintf(&b, "  %s -> %s (%s)\n", r.Field, r.TargetType, strings.Join(attrs, ", "))
		}
	}

	return b.String(), nil
}
