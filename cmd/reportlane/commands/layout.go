package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reportlane/reportlane/internal/report"
	"github.com/reportlane/reportlane/internal/timeline"
)

func newLayoutCmd() *cobra.Command {
	var player string
	var width float64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "layout <file.json>",
		Short: "Lay out a report file offline and print icon positions",
		Example: `  reportlane layout 7697260946.json
  reportlane layout 7697260946.json --player slot_4 --width 1600
  reportlane layout 7697260946.json --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			filter, err := report.ParsePlayerFilter(player)
			if err != nil {
				return err
			}
			_, reports, err := readBatch(args[0])
			if err != nil {
				return err
			}

			canvas := cfg.Canvas
			if width > 0 {
				canvas.Width = width
			}
			chart, err := timeline.Build(filter.Apply(reports), canvas, cfg.Packing)
			if err != nil {
				return err
			}

			stderr := cmd.ErrOrStderr()
			if chart.Skipped > 0 {
				warnf(stderr, "skipped %d reports with an unreadable time or team", chart.Skipped)
			}
			if n := len(chart.Overlaps); n > 0 {
				warnf(stderr, "%d icon pairs still overlap; the lane is too short for this many reports", n)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(chart)
			}

			fmt.Fprintf(out, "canvas %.0fx%.0f  range %s  icons %d\n", //nolint:errcheck // CLI output
				chart.Width, chart.Height, report.FormatClock(chart.TimeRange), len(chart.Icons))
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintf(tw, "TIME\tLANE\tHERO\tX\tY\n") //nolint:errcheck // CLI output
			for _, ic := range chart.Icons {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%.1f\t%.1f\n", //nolint:errcheck // CLI output
					ic.Report.Time, ic.Lane, ic.Label, ic.X, ic.Y)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&player, "player", "", "only reports against slot_N or steamid_N")
	cmd.Flags().Float64Var(&width, "width", 0, "canvas width in pixels (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the full chart as JSON")
	return cmd
}
