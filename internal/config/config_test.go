package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}

	// Check source defaults
	if len(cfg.Source.Roots) == 0 {
		t.Error("Source.Roots should not be empty")
	}
	if cfg.Source.Roots[0] != "src/main/java" {
		t.Errorf("Source.Roots[0] = %q, want %q", cfg.Source.Roots[0], "src/main/java")
	}
	if cfg.Source.MaxFileSizeBytes <= 0 {
		t.Error("MaxFileSizeBytes should be positive")
	}

	// Check analysis defaults
	if cfg.Analysis.Direction != "callees" {
		t.Errorf("Analysis.Direction = %q, want %q", cfg.Analysis.Direction, "callees")
	}
	if cfg.Analysis.MaxDepth != 5 {
		t.Errorf("Analysis.MaxDepth = %d, want 5", cfg.Analysis.MaxDepth)
	}
	if cfg.Analysis.MaxNodes != 200 {
		t.Errorf("Analysis.MaxNodes = %d, want 200", cfg.Analysis.MaxNodes)
	}
	if cfg.Analysis.IncludeExternal {
		t.Error("IncludeExternal should be off by default")
	}
	if !cfg.Analysis.ResolveImpls {
		t.Error("ResolveImpls should be on by default")
	}

	// Check store defaults
	if !cfg.Store.Enabled {
		t.Error("Store should be enabled by default")
	}
	if cfg.Store.Path != ".txlens/runs.db" {
		t.Errorf("Store.Path = %q, want %q", cfg.Store.Path, ".txlens/runs.db")
	}

	if cfg.Catalogue.Path != ".txlens/catalogue.toml" {
		t.Errorf("Catalogue.Path = %q, want %q", cfg.Catalogue.Path, ".txlens/catalogue.toml")
	}

	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid default", func(c *Config) {}, false},
		{"bad version", func(c *Config) { c.Version = 2 }, true},
		{"no source roots", func(c *Config) { c.Source.Roots = nil }, true},
		{"bad direction", func(c *Config) { c.Analysis.Direction = "sideways" }, true},
		{"depth too low", func(c *Config) { c.Analysis.MaxDepth = 0 }, true},
		{"depth too high", func(c *Config) { c.Analysis.MaxDepth = 11 }, true},
		{"zero node budget", func(c *Config) { c.Analysis.MaxNodes = 0 }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"callers direction", func(c *Config) { c.Analysis.Direction = "callers" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_Missing(t *testing.T) {
	dir := t.TempDir()

	cfg, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig on missing file should fall back to defaults: %v", err)
	}
	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, ".txlens"), 0755); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	cfg.Analysis.MaxDepth = 7
	cfg.Analysis.ExcludePackages = []string{"com.vendor"}
	cfg.Logging.Format = "json"

	if err := cfg.Save(dir); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadConfig(dir)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Analysis.MaxDepth != 7 {
		t.Errorf("MaxDepth = %d, want 7", loaded.Analysis.MaxDepth)
	}
	if len(loaded.Analysis.ExcludePackages) != 1 || loaded.Analysis.ExcludePackages[0] != "com.vendor" {
		t.Errorf("ExcludePackages = %v, want [com.vendor]", loaded.Analysis.ExcludePackages)
	}
	if loaded.Logging.Format != "json" {
		t.Errorf("Logging.Format = %q, want %q", loaded.Logging.Format, "json")
	}
}
