// Package config loads the flowcanvas configuration file.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// DefaultPath is read when no --config flag is given. A missing default file is not an error.
const DefaultPath = "flowcanvas.yaml"

// Config is the root of flowcanvas.yaml.
type Config struct {
	Server     ServerConfig     `yaml:"server" json:"server"`
	Store      StoreConfig      `yaml:"store" json:"store"`
	Encryption EncryptionConfig `yaml:"encryption" json:"encryption"`
	Redact     []string         `yaml:"redact" json:"redact"`
	Log        LogConfig        `yaml:"log" json:"log"`
	Palette    PaletteConfig    `yaml:"palette" json:"palette"`
	Metrics    MetricsConfig    `yaml:"metrics" json:"metrics"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

type StoreConfig struct {
	Backend string      `yaml:"backend" json:"backend"`
	Dir     string      `yaml:"dir" json:"dir"`
	Redis   RedisConfig `yaml:"redis" json:"redis"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
}

// EncryptionConfig holds base64 AES keys. Empty Key disables encryption at rest.
type EncryptionConfig struct {
	Key          string   `yaml:"key" json:"key"`
	FallbackKeys []string `yaml:"fallback_keys" json:"fallback_keys"`
}

type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}

type PaletteConfig struct {
	// File is a YAML or JSON registry override.
	File string `yaml:"file" json:"file"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled" json:"enabled"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Store: StoreConfig{
			Backend: BackendMemory,
			Dir:     ".flowcanvas/workflows",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "flowcanvas:workflow:",
			},
		},
		Log:     LogConfig{Level: "info", Format: "text"},
		Metrics: MetricsConfig{Enabled: true},
	}
}

// Load reads path (YAML, or JSON by extension) on top of Default.
// An empty path or a missing DefaultPath yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && path == DefaultPath {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks enumerated fields.
func (c Config) Validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendFile, BackendRedis:
	default:
		return fmt.Errorf("unknown store backend %q (want memory, file or redis)", c.Store.Backend)
	}
	switch c.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}
