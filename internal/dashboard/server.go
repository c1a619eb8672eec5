// Package dashboard serves the report API: match listings, report ingest
// and laid-out timelines.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/reportlane/reportlane/internal/layout"
	"github.com/reportlane/reportlane/internal/layoutcache"
	"github.com/reportlane/reportlane/internal/metrics"
	"github.com/reportlane/reportlane/internal/report"
	"github.com/reportlane/reportlane/internal/timeline"
)

// Settings are the layout inputs that can change while the server runs.
type Settings struct {
	Canvas timeline.Canvas
	Params layout.Params
}

// Options wire a Server. Repo is required.
type Options struct {
	Repo     report.Repository
	Cache    layoutcache.Cache
	CacheTTL time.Duration
	Metrics  *metrics.Metrics
	Tracer   trace.Tracer
	Auth     *Auth
	Settings Settings
	Version  string
	Logger   *slog.Logger
}

// Server is the reportlane HTTP API.
type Server struct {
	repo     report.Repository
	layouts  *layoutcache.ReadThrough
	caching  bool
	metrics  *metrics.Metrics
	tracer   trace.Tracer
	auth     *Auth
	version  string
	logger   *slog.Logger
	settings atomic.Pointer[Settings]
	mux      *http.ServeMux

	srv *http.Server
	ln  net.Listener
}

// NewServer creates the API server. Missing optional collaborators get
// working defaults: no cache, fresh metrics, a no-op tracer, a random
// access code.
func NewServer(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("reportlane")
	}
	auth := opts.Auth
	if auth == nil {
		auth = NewAuth("")
	}
	_, noCache := opts.Cache.(layoutcache.Nop)

	s := &Server{
		repo:    opts.Repo,
		layouts: layoutcache.NewReadThrough(opts.Cache, opts.CacheTTL),
		caching: opts.Cache != nil && !noCache,
		metrics: m,
		tracer:  tracer,
		auth:    auth,
		version: opts.Version,
		logger:  logger,
		mux:     http.NewServeMux(),
	}
	s.UpdateSettings(opts.Settings)
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.Handle("GET /metrics", s.metrics.Handler())

	s.mux.HandleFunc("GET /api/matches", s.handleMatches)
	s.mux.HandleFunc("GET /api/matches/{id}/reports", s.handleReports)
	s.mux.HandleFunc("POST /api/matches/{id}/reports", s.handleAddReports)
	s.mux.HandleFunc("DELETE /api/matches/{id}", s.handleDeleteMatch)
	s.mux.HandleFunc("GET /api/matches/{id}/timeline", s.handleTimeline)
}

// Handler returns the mux wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = s.auth.Middleware(h)
	h = securityHeaders(h)
	h = logging(s.logger)(h)
	h = recovery(s.logger)(h)
	h = requestID(h)
	return otelhttp.NewHandler(h, "reportlane")
}

// UpdateSettings swaps the canvas and packing parameters used for new
// timelines. Cached layouts stay valid: the cache key covers both.
func (s *Server) UpdateSettings(st Settings) {
	st.Canvas = st.Canvas.Normalize()
	s.settings.Store(&st)
}

// Settings returns the current layout settings.
func (s *Server) Settings() Settings {
	return *s.settings.Load()
}

// AccessCode returns the code required for writes.
func (s *Server) AccessCode() string {
	return s.auth.AccessCode()
}

// Listen binds bind:port, scanning upward if the port is taken, and
// returns the bound port.
func (s *Server) Listen(bind string, port int) (int, error) {
	if bind == "" {
		bind = "127.0.0.1"
	}
	ln, actual, err := listenAutoPort(bind, port, s.logger)
	if err != nil {
		return 0, fmt.Errorf("binding port: %w", err)
	}
	s.ln = ln
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return actual, nil
}

// Addr is the bound address, or "" before Listen.
func (s *Server) Addr() string {
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

// Start serves on the bound listener. Blocks until shutdown.
func (s *Server) Start() error {
	if s.srv == nil {
		return fmt.Errorf("dashboard: Start called before Listen")
	}
	s.logger.Info("reportlane api starting", "addr", s.Addr())
	return s.srv.Serve(s.ln)
}

// Shutdown stops the HTTP server and closes the repository.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down")
	var err error
	if s.srv != nil {
		err = s.srv.Shutdown(ctx)
	}
	if cerr := s.repo.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
