package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/marmos91/artifactguard/pkg/artifacts"
	"github.com/marmos91/artifactguard/pkg/catalog"
)

func TestApplyDefaults_Logging(t *testing.T) {
	cfg := &Config{}
	applyLoggingDefaults(&cfg.Logging)

	if cfg.Logging.Level != "INFO" || cfg.Logging.Format != "text" || cfg.Logging.Output != "stdout" {
		t.Errorf("Unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestApplyDefaults_Backends(t *testing.T) {
	dir := isolateConfigDir(t)
	cfg := &Config{}
	ApplyDefaults(cfg)

	stateDir := filepath.Join(dir, "artifactguard")
	if cfg.Catalog.Type != catalog.TypeSQLite {
		t.Errorf("Expected sqlite catalog, got %q", cfg.Catalog.Type)
	}
	if cfg.Catalog.SQLite.Path != filepath.Join(stateDir, "catalog.db") {
		t.Errorf("Unexpected sqlite path %q", cfg.Catalog.SQLite.Path)
	}
	if cfg.Catalog.BatchSize != 100 {
		t.Errorf("Expected batch size 100, got %d", cfg.Catalog.BatchSize)
	}
	if cfg.Artifacts.Type != artifacts.TypeFilesystem {
		t.Errorf("Expected filesystem artifacts, got %q", cfg.Artifacts.Type)
	}
	if cfg.Artifacts.Filesystem.Root != filepath.Join(stateDir, "artifacts") {
		t.Errorf("Unexpected artifact root %q", cfg.Artifacts.Filesystem.Root)
	}
	if len(cfg.Artifacts.Preserve) != 1 || cfg.Artifacts.Preserve[0] != "cruise-output" {
		t.Errorf("Expected console logs preserved, got %v", cfg.Artifacts.Preserve)
	}
}

func TestApplyDefaults_Metrics(t *testing.T) {
	cfg := &Config{}
	applyMetricsDefaults(&cfg.Metrics)
	if cfg.Metrics.Port != 0 {
		t.Errorf("Disabled metrics should keep port 0, got %d", cfg.Metrics.Port)
	}

	cfg.Metrics.Enabled = true
	applyMetricsDefaults(&cfg.Metrics)
	if cfg.Metrics.Port != 9090 {
		t.Errorf("Expected metrics port 9090, got %d", cfg.Metrics.Port)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	isolateConfigDir(t)
	cfg := &Config{
		ShutdownTimeout: 5 * time.Second,
		Monitor:         MonitorConfig{Interval: 10 * time.Second, Path: "/mnt/ci"},
	}
	cfg.Catalog.Type = catalog.TypeBadger
	cfg.Catalog.Badger.Path = "/var/lib/ag"
	cfg.Artifacts.Filesystem.Root = "/srv/artifacts"
	cfg.Artifacts.Preserve = []string{}
	cfg.API.Port = 9999

	ApplyDefaults(cfg)

	if cfg.ShutdownTimeout != 5*time.Second {
		t.Errorf("shutdown timeout overwritten: %v", cfg.ShutdownTimeout)
	}
	if cfg.Monitor.Interval != 10*time.Second {
		t.Errorf("monitor interval overwritten: %v", cfg.Monitor.Interval)
	}
	if cfg.MonitorPath() != "/mnt/ci" {
		t.Errorf("explicit monitor path ignored: %q", cfg.MonitorPath())
	}
	if cfg.Catalog.Badger.Path != "/var/lib/ag" {
		t.Errorf("badger path overwritten: %q", cfg.Catalog.Badger.Path)
	}
	if cfg.Artifacts.Filesystem.Root != "/srv/artifacts" {
		t.Errorf("artifact root overwritten: %q", cfg.Artifacts.Filesystem.Root)
	}
	if len(cfg.Artifacts.Preserve) != 0 {
		t.Errorf("explicit empty preserve list replaced: %v", cfg.Artifacts.Preserve)
	}
	if cfg.API.Port != 9999 {
		t.Errorf("API port overwritten: %d", cfg.API.Port)
	}
}

func TestGetDefaultConfig_IsValid(t *testing.T) {
	isolateConfigDir(t)
	cfg := GetDefaultConfig()

	if err := Validate(cfg); err != nil {
		t.Fatalf("Default config is invalid: %v", err)
	}
	if !cfg.Purge.Enabled || !cfg.API.Enabled {
		t.Error("Expected purge and API enabled by default")
	}
	if cfg.Purge.TargetThreshold <= cfg.Purge.StartThreshold {
		t.Error("Expected default target above default start")
	}
}
