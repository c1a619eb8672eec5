package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/reportlane/reportlane/internal/layout"
)

func TestLoad(t *testing.T) {
	content := `
version: "1"
server:
  port: 9090
  log_level: debug
storage:
  driver: postgres
  dsn: postgres://localhost/reportlane
canvas:
  width: 1600
packing:
  max_iterations: 200
cache:
  backend: redis
  redis_addr: localhost:6379
tracing:
  enabled: true
  exporter: stdout
`
	dir := t.TempDir()
	path := filepath.Join(dir, "reportlane.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.LogLevel != "debug" {
		t.Errorf("log_level = %q, want debug", cfg.Server.LogLevel)
	}
	if cfg.Server.Bind != "127.0.0.1" {
		t.Errorf("bind = %q, want default 127.0.0.1", cfg.Server.Bind)
	}
	if cfg.Storage.Driver != "postgres" || cfg.Storage.DSN == "" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Canvas.Width != 1600 {
		t.Errorf("canvas width = %v, want 1600", cfg.Canvas.Width)
	}
	if cfg.Canvas.IconSize != 40 {
		t.Errorf("icon size = %v, want default 40", cfg.Canvas.IconSize)
	}
	if cfg.Packing.MaxIterations != 200 {
		t.Errorf("max_iterations = %d, want 200", cfg.Packing.MaxIterations)
	}
	if cfg.Packing.Damping != 0.9 {
		t.Errorf("damping = %v, want default 0.9", cfg.Packing.Damping)
	}
	if cfg.Cache.Backend != "redis" || cfg.Cache.TTLSeconds != 600 {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if !cfg.Tracing.Enabled {
		t.Error("tracing should be enabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoad_NarrowCanvasFloored(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	if err := os.WriteFile(path, []byte("canvas:\n  width: 300\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Canvas.Width != 800 {
		t.Errorf("width = %v, want 800", cfg.Canvas.Width)
	}
}

func TestLoad_Missing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("missing file should error")
	}
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("server: [port"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed yaml should error")
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Server.Port != 8081 {
		t.Errorf("default port = %d, want 8081", cfg.Server.Port)
	}
	if cfg.Storage.Driver != "sqlite" {
		t.Errorf("default driver = %q, want sqlite", cfg.Storage.Driver)
	}
	if cfg.Packing != layout.DefaultParams() {
		t.Errorf("packing = %+v, want defaults", cfg.Packing)
	}
	if cfg.Tracing.Enabled {
		t.Error("tracing should default off")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reportlane.yaml")
	cfg := Defaults()
	cfg.Server.Port = 9999
	cfg.Packing.MaxIterations = 42
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Server.Port != 9999 || got.Packing.MaxIterations != 42 {
		t.Errorf("round trip = %+v", got)
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Errorf("valid config should not error: %v", err)
	}
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port zero", func(c *Config) { c.Server.Port = 0 }},
		{"port too high", func(c *Config) { c.Server.Port = 70000 }},
		{"log level", func(c *Config) { c.Server.LogLevel = "verbose" }},
		{"driver", func(c *Config) { c.Storage.Driver = "mysql" }},
		{"sqlite path", func(c *Config) { c.Storage.Path = "" }},
		{"postgres dsn", func(c *Config) { c.Storage.Driver = "postgres" }},
		{"cache backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"redis addr", func(c *Config) { c.Cache.Backend = "redis" }},
		{"negative ttl", func(c *Config) { c.Cache.TTLSeconds = -1 }},
		{"tracing exporter", func(c *Config) { c.Tracing.Exporter = "jaeger" }},
		{"canvas region", func(c *Config) { c.Canvas.TeamRegionHeight = 20 }},
		{"packing damping", func(c *Config) { c.Packing.Damping = 2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("%s should be invalid", tt.name)
			}
		})
	}
}

func TestValidate_WrapsLayoutErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Packing.MaxIterations = -1
	if err := cfg.Validate(); !errors.Is(err, layout.ErrInvalidParams) {
		t.Errorf("err = %v, want ErrInvalidParams", err)
	}
}
