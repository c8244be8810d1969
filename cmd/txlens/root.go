package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"txlens/internal/classify"
	"txlens/internal/config"
	txerrors "txlens/internal/errors"
	"txlens/internal/facts"
	"txlens/internal/graph"
	"txlens/internal/identity"
	"txlens/internal/javasrc"
	"txlens/internal/logging"
	"txlens/internal/version"
)

var (
	// projectFlag is the CLI --project flag value
	projectFlag string
	logLevel    string
	logFormat   string
)

var rootCmd = &cobra.Command{
	Use:   "txlens",
	Short: "txlens - transaction risk lens for Spring/JPA codebases",
	Long: `txlens statically analyzes a Java/Spring source tree, builds a bounded
call graph around a chosen method and flags the transaction and locking
hazards on it: REQUIRES_NEW nesting, table-scan queries, cascading writes,
external I/O inside transactions and friends.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("txlens version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&projectFlag, "project", ".",
		"Project root containing the .txlens directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error (default from config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Log format: human, json (default from config)")
}

// newContext returns a context cancelled on SIGINT/SIGTERM, so a long
// analysis run shuts down into a partial, truncated graph.
func newContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// loadProjectConfig loads and validates .txlens/config.json, falling back
// to defaults when the file is absent.
func loadProjectConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(projectFlag)
	if err != nil {
		return nil, txerrors.Wrap(txerrors.ConfigInvalid, "failed to load configuration", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, txerrors.Wrap(txerrors.ConfigInvalid, "invalid configuration", err)
	}
	return cfg, nil
}

// newLogger builds the logger from flags, falling back to the config.
func newLogger(cfg *config.Config) *logging.Logger {
	format := logFormat
	if format == "" && cfg != nil {
		format = cfg.Logging.Format
	}
	level := logLevel
	if level == "" && cfg != nil {
		level = cfg.Logging.Level
	}

	f, ok := logging.ParseFormat(format)
	if !ok {
		f = logging.HumanFormat
	}
	l, ok := logging.ParseLevel(level)
	if !ok {
		l = logging.InfoLevel
	}
	return logging.NewLogger(logging.Config{Format: f, Level: l, Output: os.Stderr})
}

// buildEngine indexes the source tree and wires the classifier into a graph
// builder. The returned provider serves all fact lookups for the run.
func buildEngine(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*javasrc.Provider, *graph.Builder, error) {
	roots := make([]string, 0, len(cfg.Source.Roots))
	for _, r := range cfg.Source.Roots {
		if !filepath.IsAbs(r) {
			r = filepath.Join(projectFlag, r)
		}
		roots = append(roots, r)
	}

	provider := javasrc.NewProvider(logger)
	if err := provider.Index(ctx, javasrc.Options{
		Roots:            roots,
		Ignore:           cfg.Source.Ignore,
		MaxFileSizeBytes: cfg.Source.MaxFileSizeBytes,
	}); err != nil {
		return nil, nil, err
	}

	cataloguePath := cfg.Catalogue.Path
	if !filepath.IsAbs(cataloguePath) {
		cataloguePath = filepath.Join(projectFlag, cataloguePath)
	}
	catalogue, err := classify.LoadCatalogue(cataloguePath)
	if err != nil {
		return nil, nil, txerrors.Wrap(txerrors.CatalogueInvalid, "failed to load call-shape catalogue", err)
	}

	classifier := classify.New(catalogue, provider)
	return provider, graph.NewBuilder(provider, classifier, logger), nil
}

// resolveRoot turns a method query into exactly one identity. An exact
// display-name match wins over substring matches; anything still ambiguous
// is an error listing the candidates.
func resolveRoot(provider facts.Provider, query string) (identity.MethodID, error) {
	matches := provider.FindMethods(query)
	if len(matches) == 0 {
		return identity.MethodID{}, txerrors.Newf(txerrors.RootNotFound, "no method matches %q", query)
	}
	if len(matches) == 1 {
		return matches[0], nil
	}

	normalized := strings.ToLower(strings.ReplaceAll(query, "#", "."))
	var exact []identity.MethodID
	for _, id := range matches {
		display := strings.ToLower(id.Owner[strings.LastIndex(id.Owner, ".")+1:] + "." + id.Name)
		if display == normalized || strings.EqualFold(id.String(), query) {
			exact = append(exact, id)
		}
	}
	if len(exact) == 1 {
		return exact[0], nil
	}

	candidates := make([]string, 0, len(matches))
	for _, id := range matches {
		candidates = append(candidates, id.String())
	}
	sort.Strings(candidates)
	return identity.MethodID{}, txerrors.Newf(txerrors.RootAmbiguous,
		"query %q matches %d methods:\n  %s", query, len(matches), strings.Join(candidates, "\n  "))
}

func exitError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
