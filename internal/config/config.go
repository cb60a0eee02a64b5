// EMShift - Shift Activity Tracker for Roleplay EMS Crews
// Copyright 2026 Dmitry K. (dkovalr)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/dkovalr/emshift

// Package config loads server configuration with koanf. Values are layered:
// built-in defaults, then an optional YAML file, then EMSHIFT_* environment
// variables, highest last.
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
)

// DefaultConfigPaths lists where a config file is searched, in order. The
// first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/emshift/config.yaml",
	"/etc/emshift/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "EMSHIFT_CONFIG"

// envPrefix is stripped from environment variables before mapping. A double
// underscore separates sections: EMSHIFT_SERVER__PORT -> server.port.
const envPrefix = "EMSHIFT_"

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Store   StoreConfig   `koanf:"store"`
	Uploads UploadsConfig `koanf:"uploads"`
	Gateway GatewayConfig `koanf:"gateway"`
	API     APIConfig     `koanf:"api"`
	Backup  BackupConfig  `koanf:"backup"`
	Logging LoggingConfig `koanf:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// StoreConfig configures the room store.
type StoreConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// UploadsConfig configures the evidence upload pipeline.
type UploadsConfig struct {
	Dir          string `koanf:"dir"`
	APIKey       string `koanf:"api_key"`
	MaxSizeBytes int64  `koanf:"max_size_bytes"`
	MaxWidth     int    `koanf:"max_width"`
	Quality      int    `koanf:"quality"`

	// PublicBaseURL prefixes stored file paths in upload responses, e.g.
	// https://ems.example.com. Empty means relative URLs.
	PublicBaseURL string `koanf:"public_base_url"`
}

// GatewayConfig configures the external increment gateway.
type GatewayConfig struct {
	// DebounceWindow suppresses repeat increments for the same room and
	// target arriving within this interval.
	DebounceWindow time.Duration `koanf:"debounce_window"`
}

// APIConfig configures the HTTP surface shared by all handlers.
type APIConfig struct {
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimit       int           `koanf:"rate_limit"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// BackupConfig configures periodic store snapshots.
type BackupConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Dir      string        `koanf:"dir"`
	Interval time.Duration `koanf:"interval"`
	Keep     int           `koanf:"keep"`
}

// LoggingConfig configures zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			Path:     "/data/emshift",
			InMemory: false,
		},
		Uploads: UploadsConfig{
			Dir:          "/data/uploads",
			APIKey:       "",
			MaxSizeBytes: 10 << 20,
			MaxWidth:     1280,
			Quality:      70,
		},
		Gateway: GatewayConfig{
			DebounceWindow: 2 * time.Second,
		},
		API: APIConfig{
			CORSOrigins:     []string{"*"},
			RateLimit:       100,
			RateLimitWindow: time.Minute,
		},
		Backup: BackupConfig{
			Enabled:  false,
			Dir:      "/data/backups",
			Interval: 6 * time.Hour,
			Keep:     14,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from defaults, file and environment.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", envTransform)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransform maps EMSHIFT_SERVER__PORT to server.port.
func envTransform(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, envPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// sliceConfigPaths are parsed from comma-separated strings when set via
// environment variables.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("setting %s: %w", path, err)
			}
		}
	}
	return nil
}

// Validate checks the configuration for values that would fail at runtime.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if !c.Store.InMemory && c.Store.Path == "" {
		return fmt.Errorf("store.path is required unless store.in_memory is set")
	}
	if c.Uploads.Dir == "" {
		return fmt.Errorf("uploads.dir is required")
	}
	if c.Uploads.MaxSizeBytes <= 0 {
		return fmt.Errorf("uploads.max_size_bytes must be positive")
	}
	if c.Uploads.Quality < 1 || c.Uploads.Quality > 100 {
		return fmt.Errorf("uploads.quality %d out of range 1-100", c.Uploads.Quality)
	}
	if c.Uploads.MaxWidth < 1 {
		return fmt.Errorf("uploads.max_width must be positive")
	}
	if c.Gateway.DebounceWindow < 0 {
		return fmt.Errorf("gateway.debounce_window must not be negative")
	}
	if c.API.RateLimit < 1 {
		return fmt.Errorf("api.rate_limit must be positive")
	}
	if c.Backup.Enabled {
		if c.Backup.Dir == "" {
			return fmt.Errorf("backup.dir is required when backup.enabled is set")
		}
		if c.Backup.Interval < time.Minute {
			return fmt.Errorf("backup.interval must be at least one minute")
		}
		if c.Backup.Keep < 1 {
			return fmt.Errorf("backup.keep must be positive")
		}
	}

	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "error", "fatal":
	default:
		return fmt.Errorf("logging.level %q is not a zerolog level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q must be json or console", c.Logging.Format)
	}
	return nil
}
