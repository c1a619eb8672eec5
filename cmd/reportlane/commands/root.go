package commands

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/reportlane/reportlane/internal/config"
)

var cfgFile string

func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:   "reportlane",
		Short: "Two-lane report timelines for match review",
		Long:  "Reportlane stores in-game player reports per match and lays them out as a decluttered two-lane timeline.",

		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "reportlane.yaml", "config file path")

	root.AddCommand(
		newServeCmd(),
		newImportCmd(),
		newReportsCmd(),
		newLayoutCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig reads cfgFile, falling back to defaults when it does not exist.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if errors.Is(err, fs.ErrNotExist) {
		return config.Defaults(), nil
	}
	return cfg, err
}

// parseLevel maps a config log level onto slog.
func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// quietLogger only reports errors; used by one-shot commands.
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}
