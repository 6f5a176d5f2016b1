package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWritesDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, resolved, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if resolved != path {
		t.Errorf("resolved path = %q, want %q", resolved, path)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("addr = %q, want default :8080", cfg.Addr)
	}

	// A default file should now exist and be loadable again.
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if _, _, err := Load(nil, path); err != nil {
		t.Errorf("reload: %v", err)
	}
}

func TestLoadReadsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "addr: \":9090\"\nlog_level: debug\nshutdown_timeout: 10s\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("addr = %q, want :9090", cfg.Addr)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("log_level = %q, want debug", cfg.LogLevel)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("shutdown_timeout = %v, want 10s", cfg.ShutdownTimeout)
	}
	// Untouched keys keep their defaults.
	if cfg.DatabasePath != "messenger.db" {
		t.Errorf("database_path = %q, want default", cfg.DatabasePath)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	t.Setenv("MESSENGER_ADDR", ":7070")

	cfg, _, err := Load(nil, path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Errorf("addr = %q, want env override :7070", cfg.Addr)
	}
}
