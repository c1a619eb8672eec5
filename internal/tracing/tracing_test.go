package tracing

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProvider_Disabled(t *testing.T) {
	p, err := NewProvider(DefaultConfig())
	require.NoError(t, err)
	assert.False(t, p.Enabled())

	_, span := p.Tracer().Start(context.Background(), "layout.compute")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestNewProvider_UnknownExporter(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: "zipkin"})
	assert.ErrorContains(t, err, "unsupported exporter")
}

func TestNewProvider_FileRequiresPath(t *testing.T) {
	_, err := NewProvider(Config{Enabled: true, Exporter: "file"})
	assert.Error(t, err)
}

func TestNewProvider_FileExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "spans.json")
	p, err := NewProvider(Config{Enabled: true, Exporter: "file", FilePath: path})
	require.NoError(t, err)
	assert.True(t, p.Enabled())

	_, span := p.Tracer().Start(context.Background(), "layout.compute")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
	require.NoError(t, p.Shutdown(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "layout.compute")
}

func TestNewProvider_NoExporterStillSamples(t *testing.T) {
	p, err := NewProvider(Config{Enabled: true, Exporter: "none"})
	require.NoError(t, err)
	_, span := p.Tracer().Start(context.Background(), "x")
	assert.True(t, span.SpanContext().IsValid())
	span.End()
	assert.NoError(t, p.Shutdown(context.Background()))
}
