package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/covergate/covergate/pkg/ci"
	"github.com/covergate/covergate/pkg/dbclient"
	"github.com/covergate/covergate/pkg/gitinfo"
)

var (
	ciLong = `Run coverage quality analysis with quality gates for CI.

Use this command in CI pipelines to enforce coverage quality gates,
track coverage trends over time, detect coverage regressions, and
generate report artifacts. The exit code tells the pipeline whether
the run passed.
`

	ciExample = `# Run the full CI analysis with the default quality gates.
covergate ci --cover-profile=coverage.out

# Run with custom gates from a config file and export JUnit XML.
covergate ci --cover-profile=coverage.out --gates-config=gates.yaml --junit-xml=coverage-gates.xml

# Run and send the coverage run data to kusto database.
export KUSTO_TENANT_ID=00000000-0000-0000-0000-000000000000
export KUSTO_CLIENT_ID=00000000-0000-0000-0000-000000000000
export KUSTO_CLIENT_SECRET=xxxxxxxxxxxxxxxxxxxx
covergate ci --cover-profile=coverage.out \
	--data-collection-enabled \
	--store-type Kusto \
	--endpoint https://your.kusto.windows.net/ \
	--database kustodb_name \
	--event kusto_event
`
)

// CIOption contains the input for the covergate ci command.
type CIOption struct {
	CoverProfiles  []string
	RepositoryPath string
	ModuleDir      string
	OutputDir      string
	Excludes       []string
	Style          string

	GatesConfig      string
	NoReports        bool
	NoTracking       bool
	FailOnRegression bool
	JUnitXML         string
	JSONOutput       bool

	CommitHash string
	BranchName string
}

// NewCIOption returns a CIOption with default values.
func NewCIOption() *CIOption {
	return &CIOption{
		RepositoryPath:   "./",
		OutputDir:        DefaultOutputDir,
		Style:            "colorful",
		FailOnRegression: true,
	}
}

func newCICommand() *cobra.Command {
	o := NewCIOption()
	cmd := &cobra.Command{
		Use:     "ci",
		Short:   "run coverage analysis with quality gates for CI",
		Long:    ciLong,
		Example: ciExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := createLogger(cmd)

			gates := []ci.QualityGate{}
			if o.GatesConfig != "" {
				loaded, err := ci.LoadGatesFile(o.GatesConfig)
				if err != nil {
					return fmt.Errorf("load gates config: %w", err)
				}
				gates = loaded
			}

			var db dbclient.DbClient
			if dboption.DataCollectionEnabled {
				client, err := dboption.GetDbClient(logger)
				if err != nil {
					return fmt.Errorf("get db client: %w", err)
				}
				db = client
			}

			runner, err := ci.NewRunner(&ci.Options{
				CoverProfiles:  o.CoverProfiles,
				RepositoryPath: o.RepositoryPath,
				ModuleDir:      o.ModuleDir,
				OutputDir:      o.OutputDir,
				Excludes:       o.Excludes,
				Gates:          gates,
				Style:          o.Style,
				DbClient:       db,
				Logger:         logger,
			})
			if err != nil {
				return fmt.Errorf("create ci runner: %w", err)
			}

			if o.CommitHash == "" && o.BranchName == "" {
				info := gitinfo.ResolveOrEmpty(o.RepositoryPath, logger)
				o.CommitHash = info.CommitHash
				o.BranchName = info.BranchName
			}

			result := runner.Run(context.Background(), &ci.RunOptions{
				GenerateReports:  !o.NoReports,
				TrackTrends:      !o.NoTracking,
				FailOnRegression: o.FailOnRegression,
				CommitHash:       o.CommitHash,
				BranchName:       o.BranchName,
			})

			fmt.Fprintln(cmd.OutOrStdout(), ci.FormatSummary(result))

			if o.JUnitXML != "" {
				if err := ci.ExportJUnit(result, o.JUnitXML); err != nil {
					return fmt.Errorf("export junit xml: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "JUnit XML exported to: %s\n", o.JUnitXML)
			}

			if o.JSONOutput {
				data, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return fmt.Errorf("encode result: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			}

			if result.ExitCode != 0 {
				if result.Message != "" {
					return errors.New(result.Message)
				}
				return errors.New(result.Summary)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&o.CoverProfiles, "cover-profile", []string{}, `coverage profiles produced by 'go test'`)
	cmd.Flags().StringVar(&o.RepositoryPath, "repository-path", o.RepositoryPath, `the root directory of git repository`)
	cmd.Flags().StringVar(&o.ModuleDir, "module-path", "", "module directory relative to the repository root")
	cmd.Flags().StringVarP(&o.OutputDir, "output", "o", o.OutputDir, "output directory for report artifacts and trend history")
	cmd.Flags().StringSliceVar(&o.Excludes, "excludes", []string{}, "exclude files for coverage calculation")
	cmd.Flags().StringVar(&o.Style, "style", o.Style, "coverage report code format style, refer to https://pygments.org/docs/styles for more information")
	cmd.Flags().StringVar(&o.GatesConfig, "gates-config", "", "YAML file with custom quality gates")
	cmd.Flags().BoolVar(&o.NoReports, "no-reports", false, "skip report generation")
	cmd.Flags().BoolVar(&o.NoTracking, "no-tracking", false, "skip trend tracking and regression detection")
	cmd.Flags().BoolVar(&o.FailOnRegression, "fail-on-regression", o.FailOnRegression, "fail the run when a coverage regression is detected")
	cmd.Flags().StringVar(&o.JUnitXML, "junit-xml", "", "export gate results as JUnit XML to the specified file")
	cmd.Flags().BoolVar(&o.JSONOutput, "json", false, "print the detailed run result as JSON")
	cmd.Flags().StringVar(&o.CommitHash, "commit-hash", "", "git commit hash, resolved from the repository when omitted")
	cmd.Flags().StringVar(&o.BranchName, "branch-name", "", "git branch name, resolved from the repository when omitted")

	cmd.MarkFlagRequired("cover-profile")

	return cmd
}

func newCheckCommand() *cobra.Command {
	o := NewCIOption()
	var minCoverage float64

	cmd := &cobra.Command{
		Use:     "check",
		Short:   "quick line coverage check against a single threshold",
		Example: "covergate check --cover-profile=coverage.out --min-coverage 85",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := createLogger(cmd)

			runner, err := ci.NewRunner(&ci.Options{
				CoverProfiles:  o.CoverProfiles,
				RepositoryPath: o.RepositoryPath,
				ModuleDir:      o.ModuleDir,
				OutputDir:      o.OutputDir,
				Excludes:       o.Excludes,
				Logger:         logger,
			})
			if err != nil {
				return fmt.Errorf("create ci runner: %w", err)
			}

			passed, message := runner.QuickCheck(minCoverage)
			fmt.Fprintln(cmd.OutOrStdout(), message)
			if !passed {
				return errors.New(message)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&o.CoverProfiles, "cover-profile", []string{}, `coverage profiles produced by 'go test'`)
	cmd.Flags().StringVar(&o.RepositoryPath, "repository-path", o.RepositoryPath, `the root directory of git repository`)
	cmd.Flags().StringVar(&o.ModuleDir, "module-path", "", "module directory relative to the repository root")
	cmd.Flags().StringVarP(&o.OutputDir, "output", "o", o.OutputDir, "output directory for report artifacts and trend history")
	cmd.Flags().StringSliceVar(&o.Excludes, "excludes", []string{}, "exclude files for coverage calculation")
	cmd.Flags().Float64Var(&minCoverage, "min-coverage", DefaultMinCoverage, "minimum line coverage percentage required")

	cmd.MarkFlagRequired("cover-profile")

	return cmd
}
