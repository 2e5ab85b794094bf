package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/signia-dev/signia-core/normalize"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Normalization.Newline != "lf" {
		t.Errorf("expected default newline policy lf, got %s", cfg.Normalization.Newline)
	}
	if cfg.HashFunction != "sha256" {
		t.Errorf("expected default hash function sha256, got %s", cfg.HashFunction)
	}
	if cfg.Limits.MaxFiles != 50000 {
		t.Errorf("expected default max_files 50000, got %d", cfg.Limits.MaxFiles)
	}
	if cfg.Limits.Symlinks != "deny" {
		t.Errorf("expected symlinks denied by default, got %q", cfg.Limits.Symlinks)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "non-lf newline policy",
			modify:  func(c *Config) { c.Normalization.Newline = "preserve" },
			wantErr: true,
		},
		{
			name:    "unsupported hash function",
			modify:  func(c *Config) { c.HashFunction = "sha1" },
			wantErr: true,
		},
		{
			name:    "unsupported symlink policy",
			modify:  func(c *Config) { c.Limits.Symlinks = "allow" },
			wantErr: true,
		},
		{
			name:    "resolve-within-root symlink policy",
			modify:  func(c *Config) { c.Limits.Symlinks = "resolve-within-root" },
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	content := `
normalization:
  newline: lf
limits:
  max_files: 100
  max_total_bytes: 1048576
  max_file_bytes: 65536
  max_depth: 8
  symlinks: deny
  ignore_globs:
    - "**/*.tmp"
hash_function: sha256
plugins:
  builtin-repo:
    follow_imports: true
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("LoadFromFile() error = %v", err)
	}

	if cfg.Limits.MaxFiles != 100 {
		t.Errorf("expected max_files 100, got %d", cfg.Limits.MaxFiles)
	}
	if cfg.Limits.MaxTotalBytes != 1048576 {
		t.Errorf("expected max_total_bytes 1048576, got %d", cfg.Limits.MaxTotalBytes)
	}
	if len(cfg.Limits.IgnoreGlobs) != 1 || cfg.Limits.IgnoreGlobs[0] != "**/*.tmp" {
		t.Errorf("expected one ignore glob **/*.tmp, got %v", cfg.Limits.IgnoreGlobs)
	}
	if cfg.Plugins["builtin-repo"]["follow_imports"] != true {
		t.Errorf("expected builtin-repo.follow_imports true, got %v", cfg.Plugins["builtin-repo"])
	}
}

func TestConfigMerge(t *testing.T) {
	base := DefaultConfig()
	override := &Config{
		Limits: LimitsConfig{
			MaxFiles: 10,
		},
	}

	base.Merge(override)

	if base.Limits.MaxFiles != 10 {
		t.Errorf("expected max_files 10, got %d", base.Limits.MaxFiles)
	}
	// MaxTotalBytes should remain from base since override didn't set it.
	if base.Limits.MaxTotalBytes != 512*1024*1024 {
		t.Errorf("expected max_total_bytes to remain default, got %d", base.Limits.MaxTotalBytes)
	}
}

func TestConfigMerge_PluginBlocksOverlay(t *testing.T) {
	base := DefaultConfig()
	base.Plugins = map[string]map[string]any{
		"builtin-repo": {"follow_imports": false},
	}
	override := &Config{
		Plugins: map[string]map[string]any{
			"builtin-openapi": {"strict": true},
		},
	}

	base.Merge(override)

	if base.Plugins["builtin-repo"]["follow_imports"] != false {
		t.Error("expected builtin-repo block to survive merge untouched")
	}
	if base.Plugins["builtin-openapi"]["strict"] != true {
		t.Error("expected builtin-openapi block to be added by merge")
	}
}

func TestConfigSaveToFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "subdir", "config.yaml")

	cfg := DefaultConfig()
	cfg.Limits.MaxFiles = 42

	if err := cfg.SaveToFile(configPath); err != nil {
		t.Fatalf("SaveToFile() error = %v", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("config file was not created")
	}

	loaded, err := LoadFromFile(configPath)
	if err != nil {
		t.Fatalf("failed to load saved config: %v", err)
	}
	if loaded.Limits.MaxFiles != 42 {
		t.Errorf("expected max_files 42, got %d", loaded.Limits.MaxFiles)
	}
}

func TestNormalizePolicy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Limits.IgnoreGlobs = []string{"**/vendor/**"}

	policy := cfg.NormalizePolicy()
	if policy.MaxFiles != cfg.Limits.MaxFiles {
		t.Errorf("expected MaxFiles to carry over, got %d", policy.MaxFiles)
	}
	if policy.Symlinks != normalize.SymlinksDeny {
		t.Errorf("expected symlink policy to carry over as deny, got %q", policy.Symlinks)
	}
	if len(policy.IgnoreGlobs) != 1 || policy.IgnoreGlobs[0] != "**/vendor/**" {
		t.Errorf("expected ignore globs to carry over, got %v", policy.IgnoreGlobs)
	}
}
