package commands

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "reportlane %s\n  go:   %s\n  os:   %s/%s\n", //nolint:errcheck // CLI output
				version, runtime.Version(), runtime.GOOS, runtime.GOARCH)
		},
	}
}
