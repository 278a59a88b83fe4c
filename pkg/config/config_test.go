package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func TestLoad_DefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
logging:
  level: "debug"

filesystem:
  root: /mnt
  helper_timeout: 10m

pools:
  source: static
  paths:
    - /mnt/tank

jobs:
  store: badger
  badger_path: "` + yamlSafePath(tmpDir) + `/jobs"
`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "DEBUG" {
		t.Errorf("Expected normalized level 'DEBUG', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.Filesystem.HelperTimeout != 10*time.Minute {
		t.Errorf("Expected helper_timeout 10m, got %v", cfg.Filesystem.HelperTimeout)
	}
	if cfg.Filesystem.Helper != "/usr/local/bin/winacl" {
		t.Errorf("Expected default helper, got %q", cfg.Filesystem.Helper)
	}
	if len(cfg.Pools.Paths) != 1 || cfg.Pools.Paths[0] != "/mnt/tank" {
		t.Errorf("Expected pools.paths [/mnt/tank], got %v", cfg.Pools.Paths)
	}
	if cfg.Jobs.Store != "badger" {
		t.Errorf("Expected jobs.store badger, got %q", cfg.Jobs.Store)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}
	if cfg.API.Port != 8080 {
		t.Errorf("Expected default API port 8080, got %d", cfg.API.Port)
	}
	if cfg.Filesystem.Root != "/mnt" {
		t.Errorf("Expected default root /mnt, got %q", cfg.Filesystem.Root)
	}
	if cfg.Directory.DomainSource != "static" {
		t.Errorf("Expected default domain source static, got %q", cfg.Directory.DomainSource)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("DITTOACL_FILESYSTEM_BACKEND", "memory")
	t.Setenv("DITTOACL_DIRECTORY_ADMIN_GROUP", "wheel")

	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Filesystem.Backend != "memory" {
		t.Errorf("Expected backend from env 'memory', got %q", cfg.Filesystem.Backend)
	}
	if cfg.Directory.AdminGroup != "wheel" {
		t.Errorf("Expected admin group from env 'wheel', got %q", cfg.Directory.AdminGroup)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte("filesystem:\n  backend: ntfs\n"), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected validation error for unknown backend")
	}
}

func TestSaveConfig_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := GetDefaultConfig()
	cfg.Directory.AdminGroup = "wheel"

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Config file not written: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Expected mode 0600, got %o", info.Mode().Perm())
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load saved config: %v", err)
	}
	if loaded.Directory.AdminGroup != "wheel" {
		t.Errorf("Expected admin group 'wheel', got %q", loaded.Directory.AdminGroup)
	}
}
