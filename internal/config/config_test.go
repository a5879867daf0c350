package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("Storage.Type = %q, want memory", cfg.Storage.Type)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("MENTIOND_SERVER_PORT", "9090")
	t.Setenv("MENTIOND_STORAGE_TYPE", "sqlite")
	t.Setenv("MENTIOND_AGENT_NAME", "helper-bot")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Storage.Type != "sqlite" {
		t.Errorf("Storage.Type = %q, want sqlite", cfg.Storage.Type)
	}
	if cfg.Agent.Name != "helper-bot" {
		t.Errorf("Agent.Name = %q, want helper-bot", cfg.Agent.Name)
	}
}

func TestLoad_FileAndSigningKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 8888
agent:
  name: agent
  signing_keys:
    acme: secret-one
    globex: secret-two
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8888 {
		t.Errorf("Server.Port = %d, want 8888", cfg.Server.Port)
	}

	keys := cfg.SigningKeyMap()
	if len(keys) != 2 {
		t.Fatalf("SigningKeyMap() has %d entries, want 2", len(keys))
	}
	if string(keys["acme"]) != "secret-one" {
		t.Errorf("keys[acme] = %q, want secret-one", keys["acme"])
	}
}

func TestLoad_MissingFileIgnored(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("Load() with absent file error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
}
