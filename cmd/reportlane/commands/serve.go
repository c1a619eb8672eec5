package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/reportlane/reportlane/internal/config"
	"github.com/reportlane/reportlane/internal/dashboard"
	"github.com/reportlane/reportlane/internal/layoutcache"
	"github.com/reportlane/reportlane/internal/metrics"
	"github.com/reportlane/reportlane/internal/report"
	"github.com/reportlane/reportlane/internal/tracing"
)

func newServeCmd() *cobra.Command {
	var port int
	var bind, accessCode string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the reportlane API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.Server.Port = port
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			level := new(slog.LevelVar)
			level.Set(parseLevel(cfg.Server.LogLevel))
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			tp, err := tracing.NewProvider(cfg.Tracing)
			if err != nil {
				return err
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := tp.Shutdown(shutdownCtx); err != nil {
					logger.Warn("tracing shutdown failed", "error", err)
				}
			}()

			repo, err := report.Open(ctx, cfg.Storage.Driver, cfg.Storage.Path, cfg.Storage.DSN, logger)
			if err != nil {
				return fmt.Errorf("opening report store: %w", err)
			}

			cache, err := layoutcache.New(ctx, layoutcache.Options{
				Backend:   cfg.Cache.Backend,
				RedisAddr: cfg.Cache.RedisAddr,
				Prefix:    cfg.Cache.Prefix,
				Logger:    logger,
			})
			if err != nil {
				_ = repo.Close()
				return err
			}
			if c, ok := cache.(io.Closer); ok {
				defer c.Close() //nolint:errcheck // best-effort cleanup
			}

			srv := dashboard.NewServer(dashboard.Options{
				Repo:     repo,
				Cache:    cache,
				CacheTTL: cfg.Cache.TTL(),
				Metrics:  metrics.New(),
				Tracer:   tp.Tracer(),
				Auth:     dashboard.NewAuth(accessCode),
				Settings: dashboard.Settings{Canvas: cfg.Canvas, Params: cfg.Packing},
				Version:  version,
				Logger:   logger,
			})

			actual, err := srv.Listen(cfg.Server.Bind, cfg.Server.Port)
			if err != nil {
				_ = repo.Close()
				return err
			}
			cfg.Server.Port = actual

			printBanner(cmd.OutOrStdout(), cfg, srv.AccessCode())

			if _, err := os.Stat(cfgFile); err == nil {
				stopWatch, err := watchConfig(srv, level, logger)
				if err != nil {
					logger.Warn("config hot reload disabled", "error", err)
				} else {
					defer stopWatch()
				}
			}

			errCh := make(chan error, 1)
			go func() {
				errCh <- srv.Start()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			}
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override server port")
	cmd.Flags().StringVar(&bind, "bind", "", "address to bind (default: 127.0.0.1)")
	cmd.Flags().StringVar(&accessCode, "access-code", "", "code required for writes (default: random)")
	return cmd
}

// watchConfig hot-swaps canvas, packing and log level when the config
// file changes. Storage, cache and port changes need a restart.
func watchConfig(srv *dashboard.Server, level *slog.LevelVar, logger *slog.Logger) (func(), error) {
	w, err := config.NewWatcher(cfgFile, config.DefaultDebounce, logger)
	if err != nil {
		return nil, err
	}
	updates, err := w.Start()
	if err != nil {
		_ = w.Stop()
		return nil, err
	}
	go func() {
		for cfg := range updates {
			srv.UpdateSettings(dashboard.Settings{Canvas: cfg.Canvas, Params: cfg.Packing})
			level.Set(parseLevel(cfg.Server.LogLevel))
			logger.Info("config reloaded", "path", cfgFile, "canvas_width", cfg.Canvas.Width, "max_iterations", cfg.Packing.MaxIterations)
		}
	}()
	return func() { _ = w.Stop() }, nil
}

var bannerBox = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("63")).
	Padding(0, 2)

var (
	bannerTitle = lipgloss.NewStyle().Bold(true)
	bannerKey   = lipgloss.NewStyle().Faint(true)
)

func printBanner(w io.Writer, cfg *config.Config, accessCode string) {
	bind := cfg.Server.Bind
	if bind == "" {
		bind = "127.0.0.1"
	}
	base := fmt.Sprintf("http://%s:%d", bind, cfg.Server.Port)

	row := func(k, v string) string { return bannerKey.Render(fmt.Sprintf("%-12s", k)) + v }
	body := lipgloss.JoinVertical(lipgloss.Left,
		bannerTitle.Render("reportlane "+version),
		"",
		row("API:", base+"/api/matches"),
		row("Health:", base+"/health"),
		row("Metrics:", base+"/metrics"),
		"",
		row("Access code:", accessCode),
		row("Storage:", cfg.Storage.Driver),
		row("Cache:", cfg.Cache.Backend),
	)
	//nolint:errcheck // CLI output
	fmt.Fprintf(w, "%s\n  Send the access code as a bearer token to write.\n  Press Ctrl+C to stop.\n\n", bannerBox.Render(body))
}
