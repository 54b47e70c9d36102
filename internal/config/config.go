package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration
type Config struct {
	Scan     ScanConfig     `yaml:"scan"`
	Validate ValidateConfig `yaml:"validate"`
	Log      LogConfig      `yaml:"log"`
}

// ScanConfig controls which files count as images
type ScanConfig struct {
	Extensions []string `yaml:"extensions"`
}

// ValidateConfig holds image verification settings
type ValidateConfig struct {
	// ParallelThreshold is the input size at which validation switches
	// from the calling goroutine to the worker pool.
	ParallelThreshold int `yaml:"parallel_threshold"`
	// Workers is the pool size; 0 means one per logical core.
	Workers int `yaml:"workers"`
}

// LogConfig holds logging defaults, overridden by --log-level/--log-format
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultExtensions is the image allow-list used when none is configured.
var DefaultExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp", ".tiff", ".heic"}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	exts := make([]string, len(DefaultExtensions))
	copy(exts, DefaultExtensions)
	return &Config{
		Scan: ScanConfig{
			Extensions: exts,
		},
		Validate: ValidateConfig{
			ParallelThreshold: 100,
			Workers:           0,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a config file from the given path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.Check(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() (string, error) {
	searchPaths := []string{
		"mangapack.yaml",
	}

	// Add user config path
	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths,
			filepath.Join(home, ".config", "mangapack", "mangapack.yaml"),
		)
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", searchPaths)
}

// Check reports whether the configuration values are usable
func (c *Config) Check() error {
	if len(c.Scan.Extensions) == 0 {
		return fmt.Errorf("scan.extensions must list at least one extension")
	}
	for _, ext := range c.Scan.Extensions {
		if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
			return fmt.Errorf("scan.extensions: %q must start with a dot", ext)
		}
	}
	if c.Validate.ParallelThreshold < 0 {
		return fmt.Errorf("validate.parallel_threshold must not be negative")
	}
	if c.Validate.Workers < 0 {
		return fmt.Errorf("validate.workers must not be negative")
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

// WriteFile writes rendered config data to path, creating parent directories
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

// Marshal renders the config as YAML
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}
