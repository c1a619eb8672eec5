package commands

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reportlane/reportlane/internal/report"
	"github.com/reportlane/reportlane/internal/safefile"
)

func newImportCmd() *cobra.Command {
	var matchID int64

	cmd := &cobra.Command{
		Use:   "import <file.json>",
		Short: "Load parsed replay reports into the store",
		Example: `  reportlane import 7697260946.json
  reportlane import reports.json --match 7697260946`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fileMatch, reports, err := readBatch(args[0])
			if err != nil {
				return err
			}
			if matchID == 0 {
				matchID = fileMatch
			}
			if matchID == 0 {
				return fmt.Errorf("%s has no MatchID; pass --match", args[0])
			}
			if fileMatch != 0 && fileMatch != matchID {
				warnf(cmd.ErrOrStderr(), "file MatchID %d overridden by --match %d", fileMatch, matchID)
			}
			report.AssignMatch(reports, matchID)

			repo, err := report.Open(cmd.Context(), cfg.Storage.Driver, cfg.Storage.Path, cfg.Storage.DSN, quietLogger())
			if err != nil {
				return fmt.Errorf("opening report store: %w", err)
			}
			defer repo.Close() //nolint:errcheck // best-effort cleanup

			if err := repo.Add(cmd.Context(), reports); err != nil {
				return err
			}
			team, enemy := report.Count(reports)
			okf(cmd.OutOrStdout(), "imported %d reports for match %d (team %d, enemy %d)", len(reports), matchID, team, enemy)
			return nil
		},
	}

	cmd.Flags().Int64Var(&matchID, "match", 0, "match id (default: the file's MatchID)")
	return cmd
}

func readBatch(path string) (int64, []report.Report, error) {
	data, err := safefile.ReadFileMax(path, report.MaxBatchBytes)
	if err != nil {
		return 0, nil, err
	}
	matchID, reports, err := report.DecodeBatch(bytes.NewReader(data))
	if err != nil {
		return 0, nil, fmt.Errorf("%s: %w", path, err)
	}
	return matchID, reports, nil
}
