package cmd

import (
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/covergate/covergate/pkg/dbclient"
)

const (
	FlagVerbose      = "verbose"
	FlagVerboseShort = "v"

	DefaultOutputDir   = "coverage_reports"
	DefaultMinCoverage = 80.0
)

var dboption = &dbclient.DBOption{}

// historyDir is where the trend tracker keeps its data under the
// report output directory.
func historyDir(outputDir string) string {
	return filepath.Join(outputDir, "history")
}

func createLogger(cmd *cobra.Command) *logrus.Logger {
	logger := logrus.New()
	verbose, err := cmd.Flags().GetBool(FlagVerbose)
	if err != nil {
		// no verbose flag on the command, It's OK.
		verbose = false
	}
	if verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// NewCovergateCommand creates the root command for coverage quality
// analysis and CI gating.
func NewCovergateCommand(version, commit, date string) *cobra.Command {

	cmd := &cobra.Command{
		Use:          "covergate",
		Short:        "coverage quality analysis and CI gating for go code",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := dboption.Validate(); err != nil {
				return err
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolP(FlagVerbose, FlagVerboseShort, false, "verbose output")

	cmd.PersistentFlags().BoolVar(&dboption.DataCollectionEnabled, "data-collection-enabled", false, "whether or not enable collecting coverage run data")
	cmd.PersistentFlags().StringVar((*string)(&dboption.DbType), "store-type", string(dbclient.None), "db client type")
	cmd.PersistentFlags().StringVar(&dboption.KustoOption.Endpoint, "endpoint", "", "kusto endpoint")
	cmd.PersistentFlags().StringVar(&dboption.KustoOption.Database, "database", "", "kusto database")
	cmd.PersistentFlags().StringVar(&dboption.KustoOption.Event, "event", "", "kusto event")
	cmd.PersistentFlags().StringSliceVar(&dboption.KustoOption.CustomColumns, "custom-columns", []string{}, "custom kusto columns, format: {column}:{datatype}:{value}")

	cmd.AddCommand(newCICommand())
	cmd.AddCommand(newCheckCommand())
	cmd.AddCommand(newReportCommand())
	cmd.AddCommand(newTrendsCommand())
	cmd.AddCommand(newSuggestCommand())
	cmd.AddCommand(newVersionCommand(version, commit, date))
	return cmd
}
