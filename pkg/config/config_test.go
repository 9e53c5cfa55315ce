package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/marmos91/artifactguard/internal/bytesize"
	"github.com/marmos91/artifactguard/pkg/catalog"
)

// yamlSafePath converts a filesystem path to a YAML-safe representation.
// On Windows, backslashes in double-quoted YAML strings are interpreted as
// escape sequences.
func yamlSafePath(p string) string {
	return filepath.ToSlash(p)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func isolateConfigDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	return dir
}

func TestLoad_DefaultConfig(t *testing.T) {
	isolateConfigDir(t)
	tmpDir := t.TempDir()
	configPath := writeConfig(t, `
logging:
  level: "info"

purge:
  enabled: true
  start_threshold: 5GiB
  target_threshold: 8GiB

artifacts:
  filesystem:
    root: "`+yamlSafePath(tmpDir)+`/artifacts"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected normalized level 'INFO', got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" {
		t.Errorf("Expected default format 'text', got %q", cfg.Logging.Format)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("Expected default shutdown_timeout 30s, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Monitor.Interval != time.Minute {
		t.Errorf("Expected default monitor interval 1m, got %v", cfg.Monitor.Interval)
	}
	if cfg.Purge.StartThreshold != 5*bytesize.GiB {
		t.Errorf("Expected start threshold 5GiB, got %s", cfg.Purge.StartThreshold)
	}
	if cfg.Catalog.Type != catalog.TypeSQLite {
		t.Errorf("Expected default catalog sqlite, got %q", cfg.Catalog.Type)
	}
	if cfg.MonitorPath() != yamlSafePath(tmpDir)+"/artifacts" {
		t.Errorf("Expected monitor path to follow artifact root, got %q", cfg.MonitorPath())
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	isolateConfigDir(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("Expected no error when loading default config, got: %v", err)
	}
	if cfg.Purge.Enabled {
		t.Error("Expected purging disabled without a config file")
	}
	if cfg.API.Port != 8080 {
		t.Errorf("Expected default API port 8080, got %d", cfg.API.Port)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: INFO
  invalid yaml here [[[
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error with invalid YAML, got nil")
	}
}

func TestLoad_InvalidByteSize(t *testing.T) {
	isolateConfigDir(t)
	configPath := writeConfig(t, `
purge:
  enabled: true
  start_threshold: lots
  target_threshold: 8GiB
`)

	if _, err := Load(configPath); err == nil {
		t.Fatal("Expected error for an unparseable size, got nil")
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	isolateConfigDir(t)
	t.Setenv("ARTIFACTGUARD_LOGGING_LEVEL", "ERROR")
	t.Setenv("ARTIFACTGUARD_PURGE_START_THRESHOLD", "20GiB")
	t.Setenv("ARTIFACTGUARD_MONITOR_INTERVAL", "30s")

	configPath := writeConfig(t, `
logging:
  level: "INFO"
purge:
  enabled: true
  start_threshold: 5GiB
  target_threshold: 30GiB
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Logging.Level != "ERROR" {
		t.Errorf("Expected level 'ERROR' from env var, got %q", cfg.Logging.Level)
	}
	if cfg.Purge.StartThreshold != 20*bytesize.GiB {
		t.Errorf("Expected start threshold 20GiB from env var, got %s", cfg.Purge.StartThreshold)
	}
	if cfg.Monitor.Interval != 30*time.Second {
		t.Errorf("Expected interval 30s from env var, got %v", cfg.Monitor.Interval)
	}
}

func TestLoadPurge(t *testing.T) {
	configPath := writeConfig(t, `
logging:
  level: NOT-A-LEVEL
purge:
  enabled: true
  start_threshold: 1GiB
  target_threshold: 2GiB
`)

	p, err := LoadPurge(configPath)
	if err != nil {
		t.Fatalf("LoadPurge should ignore other sections, got: %v", err)
	}
	policy := p.Policy()
	if !policy.Enabled || policy.StartThresholdBytes != uint64(bytesize.GiB) || policy.TargetThresholdBytes != uint64(2*bytesize.GiB) {
		t.Errorf("Unexpected policy: %+v", policy)
	}

	t.Run("EnvOverride", func(t *testing.T) {
		t.Setenv("ARTIFACTGUARD_PURGE_TARGET_THRESHOLD", "3GiB")
		p, err := LoadPurge(configPath)
		if err != nil {
			t.Fatalf("LoadPurge failed: %v", err)
		}
		if p.TargetThreshold != 3*bytesize.GiB {
			t.Errorf("Expected target 3GiB from env var, got %s", p.TargetThreshold)
		}
	})

	t.Run("MissingThreshold", func(t *testing.T) {
		path := writeConfig(t, "purge:\n  enabled: true\n  start_threshold: 1GiB\n")
		if _, err := LoadPurge(path); err == nil {
			t.Error("Expected error for enabled purge without target")
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		if _, err := LoadPurge(filepath.Join(t.TempDir(), "gone.yaml")); err == nil {
			t.Error("Expected error for a missing file")
		}
	})
}

func TestMustLoad_MissingFile(t *testing.T) {
	isolateConfigDir(t)

	if _, err := MustLoad(""); err == nil {
		t.Error("Expected error when no default config exists")
	}
	if _, err := MustLoad(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Expected error for a missing explicit path")
	}
}

func TestGetDefaultConfigPath(t *testing.T) {
	dir := isolateConfigDir(t)

	want := filepath.Join(dir, "artifactguard", "config.yaml")
	if got := GetDefaultConfigPath(); got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
	if DefaultConfigExists() {
		t.Error("Expected no default config in an empty directory")
	}
}

func TestSaveConfig(t *testing.T) {
	isolateConfigDir(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := GetDefaultConfig()
	cfg.Purge.StartThreshold = 7 * bytesize.GiB
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Saved config does not load: %v", err)
	}
	if loaded.Purge.StartThreshold != 7*bytesize.GiB {
		t.Errorf("Expected 7GiB after round trip, got %s", loaded.Purge.StartThreshold)
	}
}
