// Package config loads process configuration from an optional YAML file
// layered under MENTIOND_-prefixed environment variables.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/forumkit/mentiond/internal/signature"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Agent     AgentConfig     `koanf:"agent"`
	Community CommunityConfig `koanf:"community"`
	Storage   StorageConfig   `koanf:"storage"`
	GenAI     GenAIConfig     `koanf:"genai"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type AgentConfig struct {
	// Name is the agent's display name, used for mention detection when the
	// conversation API is not asked for it.
	Name string `koanf:"name"`
	// SigningKeys maps tenant (community) id to its shared webhook secret.
	// Empty means insecure mode: signature verification is skipped.
	SigningKeys map[string]string `koanf:"signing_keys"`
	// TokenBudget bounds composed conversation context. 0 uses the default.
	TokenBudget int `koanf:"token_budget"`
}

type CommunityConfig struct {
	BaseURL string `koanf:"base_url"`
	APIKey  string `koanf:"api_key"`
}

type StorageConfig struct {
	// Type selects the memory-store backend: "memory" or "sqlite".
	Type   string       `koanf:"type"`
	SQLite SQLiteConfig `koanf:"sqlite"`
}

type SQLiteConfig struct {
	Path string `koanf:"path"`
}

type GenAIConfig struct {
	APIKey string `koanf:"api_key"`
	Model  string `koanf:"model"`
}

// Load reads configuration. The file at path is optional; environment
// variables always win. MENTIOND_SERVER_PORT maps to server.port, and so on.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file: %w", err)
			}
		}
	}

	if err := k.Load(env.Provider("MENTIOND_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "MENTIOND_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if !k.Exists("server.port") {
		k.Set("server.port", 8080)
	}
	if !k.Exists("storage.type") {
		k.Set("storage.type", "memory")
	}
	if !k.Exists("storage.sqlite.path") {
		k.Set("storage.sqlite.path", "./data/mentiond.db")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// SigningKeyMap converts the configured tenant secrets into the verifier's
// key map. Called once at startup; the result is never mutated afterwards.
func (c *Config) SigningKeyMap() signature.KeyMap {
	keys := make(signature.KeyMap, len(c.Agent.SigningKeys))
	for tenant, secret := range c.Agent.SigningKeys {
		keys[tenant] = []byte(secret)
	}
	return keys
}
