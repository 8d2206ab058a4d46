package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for cppflow
type Config struct {
	// Extensions lists the file extensions treated as C++ sources and headers
	Extensions []string `yaml:"extensions" env:"CPPFLOW_EXTENSIONS"`

	// ExcludePatterns lists gitignore-style patterns skipped during scanning
	ExcludePatterns []string `yaml:"exclude_patterns" env:"CPPFLOW_EXCLUDE_PATTERNS"`

	// Workers bounds the number of files analyzed concurrently
	Workers int `yaml:"workers" env:"CPPFLOW_WORKERS"`

	// OutputDir is where serialized IR and graph artifacts are written
	OutputDir string `yaml:"output_dir" env:"CPPFLOW_OUTPUT_DIR"`

	// CacheDir holds the parse cache; empty disables caching
	CacheDir string `yaml:"cache_dir" env:"CPPFLOW_CACHE_DIR"`

	// LabelMaxLen caps node label length in generated graphs
	LabelMaxLen int `yaml:"label_max_len" env:"CPPFLOW_LABEL_MAX_LEN"`

	// EntryPointNames marks functions treated as program entry points
	EntryPointNames []string `yaml:"entry_point_names" env:"CPPFLOW_ENTRY_POINT_NAMES"`

	// SubgraphDepth is the default traversal depth for scoped subgraphs
	SubgraphDepth int `yaml:"subgraph_depth" env:"CPPFLOW_SUBGRAPH_DEPTH"`

	// Logging
	LogLevel string `yaml:"log_level" env:"CPPFLOW_LOG_LEVEL"`
	Verbose  bool   `yaml:"verbose" env:"CPPFLOW_VERBOSE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Extensions: []string{".cpp", ".cc", ".cxx", ".c", ".h", ".hpp", ".hxx"},
		ExcludePatterns: []string{
			"build/",
			"cmake-build-*/",
			"third_party/",
			"vendor/",
			".git/",
		},
		Workers:         runtime.NumCPU(),
		OutputDir:       "cppflow-out",
		CacheDir:        "",
		LabelMaxLen:     50,
		EntryPointNames: []string{"main", "Main", "init", "Init", "start", "Start"},
		SubgraphDepth:   2,
		LogLevel:        "info",
		Verbose:         false,
	}
}

// globalConfigFilePath returns the global config file path (~/.cppflow/config.yaml)
func globalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".cppflow/config.yaml"
	}
	return filepath.Join(home, ".cppflow", "config.yaml")
}

// projectConfigFilePath returns the project-level config file path (./.cppflow/config.yaml)
func projectConfigFilePath() string {
	return ".cppflow/config.yaml"
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.cppflow/config.yaml)
// 3. Global config (~/.cppflow/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	globalConfigPath := globalConfigFilePath()
	if data, err := os.ReadFile(globalConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", globalConfigPath, err)
		}
	}

	projectConfigPath := projectConfigFilePath()
	if data, err := os.ReadFile(projectConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", projectConfigPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CPPFLOW_EXTENSIONS"); v != "" {
		cfg.Extensions = splitList(v)
	}
	if v := os.Getenv("CPPFLOW_EXCLUDE_PATTERNS"); v != "" {
		cfg.ExcludePatterns = splitList(v)
	}
	if v := os.Getenv("CPPFLOW_WORKERS"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.Workers = i
		}
	}
	if v := os.Getenv("CPPFLOW_OUTPUT_DIR"); v != "" {
		cfg.OutputDir = v
	}
	if v := os.Getenv("CPPFLOW_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("CPPFLOW_LABEL_MAX_LEN"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.LabelMaxLen = i
		}
	}
	if v := os.Getenv("CPPFLOW_ENTRY_POINT_NAMES"); v != "" {
		cfg.EntryPointNames = splitList(v)
	}
	if v := os.Getenv("CPPFLOW_SUBGRAPH_DEPTH"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.SubgraphDepth = i
		}
	}
	if v := os.Getenv("CPPFLOW_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("CPPFLOW_VERBOSE"); v != "" {
		cfg.Verbose = v == "true" || v == "1" || v == "yes"
	}
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	if len(c.Extensions) == 0 {
		return fmt.Errorf("extensions must not be empty")
	}
	for _, ext := range c.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("invalid extension %q (must start with a dot)", ext)
		}
	}

	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.LabelMaxLen < 4 {
		return fmt.Errorf("label_max_len must be at least 4")
	}
	if c.SubgraphDepth < 0 {
		return fmt.Errorf("subgraph_depth must be non-negative")
	}
	if len(c.EntryPointNames) == 0 {
		return fmt.Errorf("entry_point_names must not be empty")
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log_level: %s (must be debug, info, warn or error)", c.LogLevel)
	}

	return nil
}

// splitList parses a comma-separated env value into a trimmed slice
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// parseInt attempts to parse a string as int
func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0
	}
	return i
}
