package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	if cfg.CacheTTLSeconds != 3600 {
		t.Errorf("CacheTTLSeconds = %d, want 3600", cfg.CacheTTLSeconds)
	}
	if cfg.SessionGCIntervalSeconds != 300 {
		t.Errorf("SessionGCIntervalSeconds = %d, want 300", cfg.SessionGCIntervalSeconds)
	}
	if cfg.Capabilities.Tools == nil || cfg.Capabilities.Resources == nil {
		t.Error("expected tools and resources capabilities enabled by default")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.jsonc"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerName != "mcpserver" {
		t.Errorf("ServerName = %q, want default", cfg.ServerName)
	}
}

func TestLoadOverlaysProvidedFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.jsonc")
	content := `{
		// server identity
		"serverName": "example-server",
		"httpPort": 9000,
		"discovery": { "excludeGlobs": ["testdata/**"] },
	}`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ServerName != "example-server" {
		t.Errorf("ServerName = %q", cfg.ServerName)
	}
	if cfg.HTTPPort != 9000 {
		t.Errorf("HTTPPort = %d", cfg.HTTPPort)
	}
	if cfg.ServerVersion != "0.1.0" {
		t.Errorf("ServerVersion should keep default, got %q", cfg.ServerVersion)
	}
	found := false
	for _, g := range cfg.Discovery.ExcludeGlobs {
		if g == "testdata/**" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected testdata/** merged into exclude globs, got %v", cfg.Discovery.ExcludeGlobs)
	}
	if len(cfg.Discovery.ExcludeGlobs) <= 1 {
		t.Error("expected user excludes merged with defaults, not replacing them")
	}
}

func TestLoadRejectsUnreadableFile(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "cfg-as-dir.jsonc")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if _, err := Load(sub); err == nil {
		t.Fatal("expected error reading a directory as a config file")
	}
}
