package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the complete txlens configuration (v1 schema)
type Config struct {
	Version     int    `json:"version" mapstructure:"version"`
	ProjectRoot string `json:"projectRoot" mapstructure:"projectRoot"`

	Source    SourceConfig    `json:"source" mapstructure:"source"`
	Analysis  AnalysisConfig  `json:"analysis" mapstructure:"analysis"`
	Catalogue CatalogueConfig `json:"catalogue" mapstructure:"catalogue"`
	Store     StoreConfig     `json:"store" mapstructure:"store"`
	Logging   LoggingConfig   `json:"logging" mapstructure:"logging"`
}

// SourceConfig locates the Java source tree to index
type SourceConfig struct {
	Roots            []string `json:"roots" mapstructure:"roots"`
	Ignore           []string `json:"ignore" mapstructure:"ignore"`
	MaxFileSizeBytes int      `json:"maxFileSizeBytes" mapstructure:"maxFileSizeBytes"`
}

// AnalysisConfig holds the default traversal bounds and filters
type AnalysisConfig struct {
	Direction       string   `json:"direction" mapstructure:"direction"`
	MaxDepth        int      `json:"maxDepth" mapstructure:"maxDepth"`
	MaxNodes        int      `json:"maxNodes" mapstructure:"maxNodes"`
	IncludePackages []string `json:"includePackages" mapstructure:"includePackages"`
	ExcludePackages []string `json:"excludePackages" mapstructure:"excludePackages"`
	IncludeExternal bool     `json:"includeExternal" mapstructure:"includeExternal"`
	ResolveImpls    bool     `json:"resolveImpls" mapstructure:"resolveImpls"`
}

// CatalogueConfig points at the call-shape catalogue override
type CatalogueConfig struct {
	Path string `json:"path" mapstructure:"path"`
}

// StoreConfig contains run-store configuration
type StoreConfig struct {
	Enabled bool   `json:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" mapstructure:"path"`
	MaxRuns int    `json:"maxRuns" mapstructure:"maxRuns"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version:     1,
		ProjectRoot: ".",
		Source: SourceConfig{
			Roots:            []string{"src/main/java"},
			Ignore:           []string{"target", "build", "generated", "node_modules"},
			MaxFileSizeBytes: 1000000,
		},
		Analysis: AnalysisConfig{
			Direction:       "callees",
			MaxDepth:        5,
			MaxNodes:        200,
			IncludePackages: []string{},
			ExcludePackages: []string{},
			IncludeExternal: false,
			ResolveImpls:    true,
		},
		Catalogue: CatalogueConfig{
			Path: ".txlens/catalogue.toml",
		},
		Store: StoreConfig{
			Enabled: true,
			Path:    ".txlens/runs.db",
			MaxRuns: 100,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// LoadConfig loads configuration from .txlens/config.json
func LoadConfig(projectRoot string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("version", 1)
	v.SetDefault("projectRoot", ".")

	// Configure viper
	v.SetConfigName("config")
	v.SetConfigType("json")
	v.AddConfigPath(filepath.Join(projectRoot, ".txlens"))

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		// If config doesn't exist, return default config
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	// Unmarshal into config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to .txlens/config.json
func (c *Config) Save(projectRoot string) error {
	configPath := filepath.Join(projectRoot, ".txlens", "config.json")

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Version != 1 {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}
	if len(c.Source.Roots) == 0 {
		return &ConfigError{Field: "source.roots", Message: "at least one source root is required"}
	}
	switch c.Analysis.Direction {
	case "callees", "callers", "both":
	default:
		return &ConfigError{Field: "analysis.direction", Message: "must be callees, callers or both"}
	}
	if c.Analysis.MaxDepth < 1 || c.Analysis.MaxDepth > 10 {
		return &ConfigError{Field: "analysis.maxDepth", Message: "must be between 1 and 10"}
	}
	if c.Analysis.MaxNodes < 1 {
		return &ConfigError{Field: "analysis.maxNodes", Message: "must be positive"}
	}
	switch c.Logging.Format {
	case "", "human", "json":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be human or json"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
