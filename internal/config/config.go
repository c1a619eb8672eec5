package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/reportlane/reportlane/internal/layout"
	"github.com/reportlane/reportlane/internal/layoutcache"
	"github.com/reportlane/reportlane/internal/safefile"
	"github.com/reportlane/reportlane/internal/timeline"
	"github.com/reportlane/reportlane/internal/tracing"
)

// Config is the top-level reportlane configuration.
type Config struct {
	Version string          `yaml:"version"`
	Server  ServerConfig    `yaml:"server"`
	Storage StorageConfig   `yaml:"storage"`
	Canvas  timeline.Canvas `yaml:"canvas"`
	Packing layout.Params   `yaml:"packing"`
	Cache   CacheConfig     `yaml:"cache"`
	Tracing tracing.Config  `yaml:"tracing"`
}

// ServerConfig holds dashboard server settings.
type ServerConfig struct {
	Port     int    `yaml:"port"`
	Bind     string `yaml:"bind"` // default 127.0.0.1
	LogLevel string `yaml:"log_level"`
}

// StorageConfig selects the report store.
type StorageConfig struct {
	Driver string `yaml:"driver"` // sqlite or postgres
	Path   string `yaml:"path,omitempty"`
	DSN    string `yaml:"dsn,omitempty"`
}

// CacheConfig selects the layout cache backend.
type CacheConfig struct {
	Backend    string `yaml:"backend"` // memory, redis or none
	RedisAddr  string `yaml:"redis_addr,omitempty"`
	Prefix     string `yaml:"prefix,omitempty"`
	TTLSeconds int    `yaml:"ttl_seconds"`
}

// TTL is the configured entry lifetime.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

// maxConfigBytes bounds a config file read.
const maxConfigBytes = 1 << 20

// Load reads a config file over Defaults.
func Load(path string) (*Config, error) {
	data, err := safefile.ReadFileMax(path, maxConfigBytes)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Zero values left by an explicit empty key fall back to defaults.
	if cfg.Cache.TTLSeconds == 0 {
		cfg.Cache.TTLSeconds = int(layoutcache.DefaultTTL / time.Second)
	}
	cfg.Canvas = cfg.Canvas.Normalize()

	return cfg, nil
}

// Defaults returns a config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Version: "1",
		Server: ServerConfig{
			Port:     8081,
			Bind:     "127.0.0.1",
			LogLevel: "info",
		},
		Storage: StorageConfig{
			Driver: "sqlite",
			Path:   "reportlane.db",
		},
		Canvas:  timeline.DefaultCanvas(),
		Packing: layout.DefaultParams(),
		Cache: CacheConfig{
			Backend:    layoutcache.BackendMemory,
			TTLSeconds: int(layoutcache.DefaultTTL / time.Second),
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// Save writes the config to a YAML file at the given path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := safefile.WriteAtomic(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks that the config is consistent.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}
	switch c.Server.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q", c.Server.LogLevel)
	}

	switch c.Storage.Driver {
	case "sqlite":
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for sqlite")
		}
	case "postgres":
		if c.Storage.DSN == "" {
			return fmt.Errorf("storage.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.Cache.Backend {
	case layoutcache.BackendMemory, layoutcache.BackendNone:
	case layoutcache.BackendRedis:
		if c.Cache.RedisAddr == "" {
			return fmt.Errorf("cache.redis_addr is required for redis")
		}
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.TTLSeconds < 0 {
		return fmt.Errorf("cache.ttl_seconds must not be negative")
	}

	switch c.Tracing.Exporter {
	case "", "none", "stdout", "file":
	default:
		return fmt.Errorf("unknown tracing exporter %q", c.Tracing.Exporter)
	}

	if err := c.Canvas.Validate(); err != nil {
		return fmt.Errorf("canvas: %w", err)
	}
	if err := layout.ValidateParams(c.Packing); err != nil {
		return fmt.Errorf("packing: %w", err)
	}
	return nil
}
