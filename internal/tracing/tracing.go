// Package tracing wires OpenTelemetry for the server. A disabled config
// yields a no-op tracer.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ServiceName is the default service.name resource attribute.
const ServiceName = "reportlane"

// Config selects the exporter and sampling.
type Config struct {
	Enabled bool `yaml:"enabled"`
	// Exporter is one of "none", "stdout" or "file".
	Exporter    string  `yaml:"exporter"`
	FilePath    string  `yaml:"file_path,omitempty"`
	SampleRate  float64 `yaml:"sample_rate"`
	ServiceName string  `yaml:"service_name,omitempty"`
}

// DefaultConfig has tracing off.
func DefaultConfig() Config {
	return Config{Exporter: "stdout", SampleRate: 1.0, ServiceName: ServiceName}
}

// Provider owns the tracer provider and any open export file.
type Provider struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	closer   io.Closer
}

// NewProvider builds a provider from cfg and installs it globally when enabled.
func NewProvider(cfg Config) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{tracer: noop.NewTracerProvider().Tracer(ServiceName)}, nil
	}

	var (
		exporter sdktrace.SpanExporter
		closer   io.Closer
		err      error
	)
	switch cfg.Exporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "file":
		if cfg.FilePath == "" {
			return nil, fmt.Errorf("tracing: file_path required for file exporter")
		}
		var f *os.File
		f, err = openTraceFile(cfg.FilePath)
		if err != nil {
			return nil, err
		}
		closer = f
		exporter, err = stdouttrace.New(stdouttrace.WithWriter(f))
	case "none", "":
	default:
		return nil, fmt.Errorf("tracing: unsupported exporter %q", cfg.Exporter)
	}
	if err != nil {
		return nil, fmt.Errorf("tracing: create %s exporter: %w", cfg.Exporter, err)
	}

	name := cfg.ServiceName
	if name == "" {
		name = ServiceName
	}
	rate := cfg.SampleRate
	if rate <= 0 {
		rate = 1.0
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", name))),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))),
	}
	if exporter != nil {
		// Syncer so spans land before Shutdown returns in short CLI runs.
		opts = append(opts, sdktrace.WithSyncer(exporter))
	}
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	return &Provider{provider: tp, tracer: tp.Tracer(name), closer: closer}, nil
}

func openTraceFile(path string) (*os.File, error) {
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("tracing: create trace directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) // #nosec G304 -- operator supplied path
	if err != nil {
		return nil, fmt.Errorf("tracing: open trace file: %w", err)
	}
	return f, nil
}

// Tracer is safe to use when tracing is disabled.
func (p *Provider) Tracer() trace.Tracer { return p.tracer }

// Enabled reports whether spans are recorded.
func (p *Provider) Enabled() bool { return p.provider != nil }

// Shutdown flushes spans and closes the export file.
func (p *Provider) Shutdown(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}
	err := p.provider.Shutdown(ctx)
	if p.closer != nil {
		if cerr := p.closer.Close(); err == nil {
			err = cerr
		}
	}
	return err
}
