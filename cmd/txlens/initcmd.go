package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"txlens/internal/classify"
	"txlens/internal/config"
	txerrors "txlens/internal/errors"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize txlens configuration",
	Long:  "Creates a .txlens/ directory with the default configuration and call-shape catalogue",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite an existing .txlens directory")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := filepath.Join(projectFlag, ".txlens")

	if _, statErr := os.Stat(dir); statErr == nil {
		if !initForce {
			// Idempotent behavior: already initialized is success
			fmt.Println("txlens already initialized.")
			fmt.Printf("Configuration at: %s\n", filepath.Join(dir, "config.json"))
			fmt.Println("\nRun 'txlens init --force' to reinitialize.")
			return nil
		}
		if removeErr := os.RemoveAll(dir); removeErr != nil {
			return txerrors.Wrap(txerrors.InternalError, "failed to remove existing .txlens directory", removeErr)
		}
	}

	if mkdirErr := os.MkdirAll(dir, 0755); mkdirErr != nil {
		return txerrors.Wrap(txerrors.InternalError, "failed to create .txlens directory", mkdirErr)
	}

	cfg := config.DefaultConfig()
	if err := cfg.Save(projectFlag); err != nil {
		return txerrors.Wrap(txerrors.InternalError, "failed to write config file", err)
	}

	cataloguePath := filepath.Join(dir, "catalogue.toml")
	if err := classify.DefaultCatalogue().Save(cataloguePath); err != nil {
		return txerrors.Wrap(txerrors.InternalError, "failed to write call-shape catalogue", err)
	}

	fmt.Println("txlens initialized successfully!")
	fmt.Printf("Configuration written to: %s\n", filepath.Join(dir, "config.json"))
	fmt.Printf("Call-shape catalogue at:  %s\n", cataloguePath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Point source.roots in config.json at your Java tree")
	fmt.Println("  2. Run 'txlens methods <name>' to find a root method")
	fmt.Println("  3. Run 'txlens analyze <method>' to build the risk graph")
	return nil
}
