// Package config provides layered policy configuration loading for SIGNIA:
// normalization rules, size/shape limits, per-plugin configuration blocks,
// and the hash primitive selection.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/signia-dev/signia-core/normalize"
)

// Config is the complete SIGNIA policy document.
type Config struct {
	Normalization NormalizationConfig       `yaml:"normalization"`
	Limits        LimitsConfig              `yaml:"limits"`
	Plugins       map[string]map[string]any `yaml:"plugins"`
	HashFunction  string                    `yaml:"hash_function"`
}

// NormalizationConfig holds the normalization policy fields.
type NormalizationConfig struct {
	// Newline must be "lf": CRLF/CR are normalized before any text hash.
	// "preserve" is forbidden in hashed domains.
	Newline string `yaml:"newline"`
}

// LimitsConfig configures the Normalizer's size/shape ceilings.
type LimitsConfig struct {
	MaxFiles      int      `yaml:"max_files"`
	MaxTotalBytes int64    `yaml:"max_total_bytes"`
	MaxFileBytes  int64    `yaml:"max_file_bytes"`
	MaxDepth      int      `yaml:"max_depth"`
	// Symlinks is "deny" or "resolve-within-root"; see normalize.SymlinkPolicy.
	Symlinks    string   `yaml:"symlinks"`
	IgnoreGlobs []string `yaml:"ignore_globs"`
}

// DefaultConfig returns SIGNIA's built-in policy: LF newlines, symlinks
// denied, a conservative file/byte ceiling, and SHA-256 as the hash
// primitive.
func DefaultConfig() *Config {
	return &Config{
		Normalization: NormalizationConfig{Newline: "lf"},
		Limits: LimitsConfig{
			MaxFiles:      50000,
			MaxTotalBytes: 512 * 1024 * 1024,
			MaxFileBytes:  16 * 1024 * 1024,
			MaxDepth:      128,
			Symlinks:      string(normalize.SymlinksDeny),
		},
		HashFunction: "sha256",
	}
}

// Validate checks that the configuration names a supported newline policy,
// symlink policy, and hash function: "preserve" is forbidden in hashed
// domains, and the hash primitive is fixed per major version.
func (c *Config) Validate() error {
	if c.Normalization.Newline != "lf" {
		return fmt.Errorf("normalization.newline must be %q, got %q", "lf", c.Normalization.Newline)
	}
	switch normalize.SymlinkPolicy(c.Limits.Symlinks) {
	case normalize.SymlinksDeny, normalize.SymlinksResolveWithinRoot:
	default:
		return fmt.Errorf("limits.symlinks must be %q or %q, got %q", normalize.SymlinksDeny, normalize.SymlinksResolveWithinRoot, c.Limits.Symlinks)
	}
	if c.HashFunction != "sha256" {
		return fmt.Errorf("hash_function %q is not supported in this major version", c.HashFunction)
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file, starting from
// DefaultConfig so omitted fields keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values), the same layering rule Loader.Load applies across
// user-then-project config files.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Normalization.Newline != "" {
		c.Normalization.Newline = other.Normalization.Newline
	}

	if other.Limits.MaxFiles != 0 {
		c.Limits.MaxFiles = other.Limits.MaxFiles
	}
	if other.Limits.MaxTotalBytes != 0 {
		c.Limits.MaxTotalBytes = other.Limits.MaxTotalBytes
	}
	if other.Limits.MaxFileBytes != 0 {
		c.Limits.MaxFileBytes = other.Limits.MaxFileBytes
	}
	if other.Limits.MaxDepth != 0 {
		c.Limits.MaxDepth = other.Limits.MaxDepth
	}
	if other.Limits.Symlinks != "" {
		c.Limits.Symlinks = other.Limits.Symlinks
	}
	if len(other.Limits.IgnoreGlobs) > 0 {
		c.Limits.IgnoreGlobs = other.Limits.IgnoreGlobs
	}

	if other.HashFunction != "" {
		c.HashFunction = other.HashFunction
	}

	if len(other.Plugins) > 0 {
		if c.Plugins == nil {
			c.Plugins = map[string]map[string]any{}
		}
		for name, block := range other.Plugins {
			c.Plugins[name] = block
		}
	}
}

// NormalizePolicy converts the YAML-shaped limits into the normalize.Policy
// the Normalizer actually consumes.
func (c *Config) NormalizePolicy() normalize.Policy {
	return normalize.Policy{
		MaxFiles:      c.Limits.MaxFiles,
		MaxTotalBytes: c.Limits.MaxTotalBytes,
		MaxFileBytes:  c.Limits.MaxFileBytes,
		MaxDepth:      c.Limits.MaxDepth,
		Symlinks:      normalize.SymlinkPolicy(c.Limits.Symlinks),
		IgnoreGlobs:   c.Limits.IgnoreGlobs,
	}
}
