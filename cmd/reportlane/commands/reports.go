package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/reportlane/reportlane/internal/report"
)

func newReportsCmd() *cobra.Command {
	var matchID int64
	var player string
	var limit int

	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List stored matches or one match's reports",
		Example: `  reportlane reports
  reportlane reports --match 7697260946
  reportlane reports --match 7697260946 --player slot_4`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			filter, err := report.ParsePlayerFilter(player)
			if err != nil {
				return err
			}

			repo, err := report.Open(cmd.Context(), cfg.Storage.Driver, cfg.Storage.Path, cfg.Storage.DSN, quietLogger())
			if err != nil {
				return fmt.Errorf("opening report store: %w", err)
			}
			defer repo.Close() //nolint:errcheck // best-effort cleanup

			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

			if matchID == 0 {
				matches, err := repo.Matches(cmd.Context(), limit)
				if err != nil {
					return err
				}
				if len(matches) == 0 {
					fmt.Fprintln(out, "No matches found.") //nolint:errcheck // CLI output
					return nil
				}
				fmt.Fprintf(tw, "MATCH\tTEAM\tENEMY\tTOTAL\tLAST REPORT\n") //nolint:errcheck // CLI output
				for _, m := range matches {
					fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%s\n", //nolint:errcheck // CLI output
						m.MatchID, m.TeamReports, m.EnemyReports, m.Total, m.LastReportAt)
				}
				return tw.Flush()
			}

			reports, err := repo.Query(cmd.Context(), report.QueryOpts{MatchID: matchID, Filter: filter, Limit: limit})
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				fmt.Fprintln(out, "No reports found.") //nolint:errcheck // CLI output
				return nil
			}
			fmt.Fprintf(tw, "TIME\tTEAM\tREPORTER\tHERO\tTARGET\tTARGET HERO\n") //nolint:errcheck // CLI output
			for _, r := range reports {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", //nolint:errcheck // CLI output
					r.Time, r.Team, playerName(r.Name, r.Slot), r.Hero, playerName(r.TargetName, r.TargetSlot), r.TargetHero)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().Int64Var(&matchID, "match", 0, "match id")
	cmd.Flags().StringVar(&player, "player", "", "only reports against slot_N or steamid_N")
	cmd.Flags().IntVar(&limit, "limit", 0, "max rows (0 = no limit for reports, 50 matches)")
	return cmd
}

func playerName(name string, slot int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("slot %d", slot)
}
