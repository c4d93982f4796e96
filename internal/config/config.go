// Package config loads service configuration from a YAML file with
// environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	defaultPort           = 8080
	defaultAvatarSize     = 150
	defaultBackendTimeout = 120 * time.Second
)

type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Backend BackendConfig `koanf:"backend"`
	Profile ProfileConfig `koanf:"profile"`
	Avatar  AvatarConfig  `koanf:"avatar"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

// BackendConfig points at the retrieval-augmented answering service.
type BackendConfig struct {
	BaseURL string `koanf:"base_url"`
	APIKey  string `koanf:"api_key"`
	Timeout string `koanf:"timeout"` // Duration string like "120s"
}

// RequestTimeout parses backend.timeout, falling back to the default
// on empty or unparseable values.
func (b BackendConfig) RequestTimeout() time.Duration {
	if b.Timeout == "" {
		return defaultBackendTimeout
	}
	d, err := time.ParseDuration(b.Timeout)
	if err != nil || d <= 0 {
		return defaultBackendTimeout
	}
	return d
}

// ProfileConfig is the fixed identity shown in the sidebar chrome.
type ProfileConfig struct {
	Name  string `koanf:"name"`
	Email string `koanf:"email"`
}

type AvatarConfig struct {
	Size int `koanf:"size"`
}

// Load reads the config file at path (a missing file is fine), applies
// HELPERBOT_* environment overrides (double underscore separates key
// segments, e.g. HELPERBOT_BACKEND__BASE_URL), then fills defaults.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("HELPERBOT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "HELPERBOT_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// Default values
	if !k.Exists("server.port") {
		k.Set("server.port", defaultPort)
	}
	if !k.Exists("avatar.size") {
		k.Set("avatar.size", defaultAvatarSize)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Backend.BaseURL == "" {
		return nil, fmt.Errorf("backend.base_url is required")
	}

	return &cfg, nil
}
