// Vigil - Security Event Logging and Analysis
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/vigil

// Package config provides layered configuration for Vigil using Koanf v2.
// Precedence: environment variables > YAML config file > built-in defaults.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/vigil/internal/analyzer"
	"github.com/tomtom215/vigil/internal/seclog"
)

// DefaultConfigPaths lists where config files are searched, in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/vigil/config.yaml",
	"/etc/vigil/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "VIGIL_CONFIG_PATH"

// envPrefix namespaces Vigil's environment variables.
const envPrefix = "VIGIL_"

// Config is the top-level configuration.
type Config struct {
	Server      ServerConfig    `koanf:"server"`
	Logging     LoggingConfig   `koanf:"logging"`
	Store       StoreConfig     `koanf:"store"`
	SecurityLog seclog.Config   `koanf:"security_log"`
	Analysis    analyzer.Config `koanf:"analysis"`
	RateLimit   RateLimitConfig `koanf:"rate_limit"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// LoggingConfig configures diagnostic (zerolog) output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// StoreConfig selects and configures the event store backend.
type StoreConfig struct {
	// Backend is "badger" or "memory".
	Backend string `koanf:"backend"`

	// Path is the BadgerDB directory (badger backend only).
	Path string `koanf:"path"`

	// InMemory runs Badger without disk persistence; used by tests and
	// ephemeral deployments.
	InMemory bool `koanf:"in_memory"`
}

// RateLimitConfig configures API rate limiting.
type RateLimitConfig struct {
	Requests int           `koanf:"requests"`
	Window   time.Duration `koanf:"window"`
	Disabled bool          `koanf:"disabled"`
}

// defaultConfig returns a Config with all defaults applied. Defaults load
// first, then the config file, then environment variables.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8685,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Store: StoreConfig{
			Backend:  "badger",
			Path:     "/data/vigil",
			InMemory: false,
		},
		SecurityLog: seclog.DefaultConfig(),
		Analysis:    analyzer.DefaultConfig(),
		RateLimit: RateLimitConfig{
			Requests: 100,
			Window:   time.Minute,
			Disabled: false,
		},
	}
}

// Load builds the configuration from defaults, an optional YAML file, and
// VIGIL_* environment variables (VIGIL_SERVER_PORT -> server.port).
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns the first config file that exists, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
		return ""
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps VIGIL_SECTION_SOME_KEY onto section.some_key. The first
// underscore separates the section; the rest of the name keeps its
// underscores.
func envTransform(name string) string {
	name = strings.TrimPrefix(name, envPrefix)
	name = strings.ToLower(name)
	parts := strings.SplitN(name, "_", 2)
	if len(parts) != 2 {
		return name
	}
	section, key := parts[0], parts[1]
	// Two-word section names.
	for _, prefix := range []string{"security", "rate"} {
		if section == prefix {
			sub := strings.SplitN(key, "_", 2)
			if len(sub) == 2 {
				return section + "_" + sub[0] + "." + sub[1]
			}
		}
	}
	return section + "." + key
}

// Validate checks invariants that would otherwise fail at runtime.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}

	switch c.Store.Backend {
	case "badger":
		if c.Store.Path == "" && !c.Store.InMemory {
			return fmt.Errorf("store.path is required for the badger backend")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown store.backend: %q", c.Store.Backend)
	}

	if c.SecurityLog.RetentionDays < 0 {
		return fmt.Errorf("security_log.retention_days must not be negative")
	}
	if c.SecurityLog.LogKey != "" && c.SecurityLog.LogKey == c.SecurityLog.CriticalKey {
		return fmt.Errorf("security_log.log_key and critical_key must differ")
	}

	if !c.RateLimit.Disabled {
		if c.RateLimit.Requests <= 0 {
			return fmt.Errorf("rate_limit.requests must be positive")
		}
		if c.RateLimit.Window <= 0 {
			return fmt.Errorf("rate_limit.window must be positive")
		}
	}
	return nil
}
