package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitConfig_Success(t *testing.T) {
	dir := isolateConfigDir(t)

	configPath, err := InitConfig(false)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}
	if want := filepath.Join(dir, "artifactguard", "config.yaml"); configPath != want {
		t.Errorf("Expected config at %q, got %q", want, configPath)
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}
	for _, section := range []string{"# artifactguard configuration file", "purge:", "catalog:", "artifacts:", "api:"} {
		if !strings.Contains(string(content), section) {
			t.Errorf("Config file missing section: %s", section)
		}
	}

	info, err := os.Stat(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 && os.PathSeparator == '/' {
		t.Errorf("Expected owner-only permissions, got %o", perm)
	}
}

func TestInitConfigToPath_AlreadyExists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("existing"), 0644); err != nil {
		t.Fatal(err)
	}

	if err := InitConfigToPath(path, false); err == nil {
		t.Fatal("Expected error when config already exists")
	}
	content, _ := os.ReadFile(path)
	if string(content) != "existing" {
		t.Error("Existing config was modified without --force")
	}

	if err := InitConfigToPath(path, true); err != nil {
		t.Fatalf("Force overwrite failed: %v", err)
	}
	content, _ = os.ReadFile(path)
	if string(content) == "existing" {
		t.Error("Config was not overwritten with --force")
	}
}

func TestGeneratedConfigIsLoadable(t *testing.T) {
	isolateConfigDir(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := InitConfigToPath(path, false); err != nil {
		t.Fatalf("InitConfigToPath failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Generated config does not load: %v", err)
	}
	if len(cfg.API.JWT.Secret) != 64 {
		t.Errorf("Expected a 64-char hex API secret, got %d chars", len(cfg.API.JWT.Secret))
	}
	if _, err := LoadPurge(path); err != nil {
		t.Errorf("Generated config purge section does not load: %v", err)
	}
}

func TestGeneratedSecretsDiffer(t *testing.T) {
	a, err := generateSecret()
	if err != nil {
		t.Fatal(err)
	}
	b, err := generateSecret()
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("Expected distinct secrets")
	}
}
