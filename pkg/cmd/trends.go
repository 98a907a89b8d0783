package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/covergate/covergate/pkg/tracker"
)

var trendsLong = `Inspect recorded coverage trend history.

Prints aggregate statistics for each tracked metric over the requested
period. History can also be exported as CSV or pruned of old entries.
`

// TrendsOption contains the input for the covergate trends command.
type TrendsOption struct {
	OutputDir   string
	PeriodDays  int
	ExportCSV   string
	CleanupDays int
}

func newTrendsCommand() *cobra.Command {
	o := &TrendsOption{
		OutputDir:  DefaultOutputDir,
		PeriodDays: 30,
	}

	cmd := &cobra.Command{
		Use:     "trends",
		Short:   "inspect coverage trend history",
		Long:    trendsLong,
		Example: "covergate trends -o coverage_reports --period 30",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := createLogger(cmd)

			trk, err := tracker.New(historyDir(o.OutputDir), logger)
			if err != nil {
				return fmt.Errorf("create tracker: %w", err)
			}

			if o.CleanupDays > 0 {
				if err := trk.Cleanup(o.CleanupDays); err != nil {
					return fmt.Errorf("cleanup history: %w", err)
				}
			}

			if o.ExportCSV != "" {
				if err := trk.ExportCSV(o.ExportCSV); err != nil {
					return fmt.Errorf("export csv: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "History exported to: %s\n", o.ExportCSV)
			}

			stats, err := trk.Statistics(o.PeriodDays)
			if err != nil {
				if errors.Is(err, tracker.ErrNoData) {
					fmt.Fprintln(cmd.OutOrStdout(), "No trend data recorded for the period")
					return nil
				}
				return fmt.Errorf("trend statistics: %w", err)
			}

			data, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return fmt.Errorf("encode statistics: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&o.OutputDir, "output", "o", o.OutputDir, "output directory holding the trend history")
	cmd.Flags().IntVar(&o.PeriodDays, "period", o.PeriodDays, "statistics period in days")
	cmd.Flags().StringVar(&o.ExportCSV, "export-csv", "", "export the full history to a CSV file")
	cmd.Flags().IntVar(&o.CleanupDays, "cleanup-days", 0, "prune history entries older than the given number of days")

	return cmd
}
