package cmd

import (
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/covergate/covergate/pkg/analyzer"
	"github.com/covergate/covergate/pkg/report"
	"github.com/covergate/covergate/pkg/suggest"
	"github.com/covergate/covergate/pkg/tracker"
)

var reportLong = `Generate the comprehensive coverage report artifact set.

Produces a JSON data export, an HTML dashboard with highlighted
uncovered code snippets, and trend chart images when enough history
exists. Artifacts land in the output directory.
`

// ReportOption contains the input for the covergate report command.
type ReportOption struct {
	CoverProfiles  []string
	RepositoryPath string
	ModuleDir      string
	OutputDir      string
	Excludes       []string
	Style          string
	Title          string
}

func newReportCommand() *cobra.Command {
	o := &ReportOption{
		RepositoryPath: "./",
		OutputDir:      DefaultOutputDir,
		Style:          "colorful",
		Title:          "Coverage Analysis",
	}

	cmd := &cobra.Command{
		Use:     "report",
		Short:   "generate coverage report artifacts",
		Long:    reportLong,
		Example: "covergate report --cover-profile=coverage.out -o coverage_reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := createLogger(cmd)

			cov := analyzer.New(&analyzer.Options{
				CoverProfiles:  o.CoverProfiles,
				RepositoryPath: o.RepositoryPath,
				ModuleDir:      o.ModuleDir,
				Excludes:       o.Excludes,
				Logger:         logger,
			})
			if !cov.Load() {
				return errors.New("failed to load coverage data")
			}

			trk, err := tracker.New(historyDir(o.OutputDir), logger)
			if err != nil {
				return fmt.Errorf("create tracker: %w", err)
			}

			rpt, err := report.New(&report.Options{
				OutputDir:    o.OutputDir,
				CodeStyle:    o.Style,
				Capabilities: report.DefaultCapabilities(),
				Logger:       logger,
			})
			if err != nil {
				return fmt.Errorf("create reporter: %w", err)
			}

			gen := suggest.New(&suggest.Options{
				RepositoryPath: o.RepositoryPath,
				ModuleDir:      o.ModuleDir,
				Analyzer:       cov,
				Logger:         logger,
			})

			artifacts, err := rpt.ComprehensiveReport(cov, trk, gen, o.Title)
			if err != nil {
				return fmt.Errorf("generate reports: %w", err)
			}

			kinds := make([]string, 0, len(artifacts))
			for kind := range artifacts {
				kinds = append(kinds, kind)
			}
			sort.Strings(kinds)
			for _, kind := range kinds {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", kind, artifacts[kind])
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&o.CoverProfiles, "cover-profile", []string{}, `coverage profiles produced by 'go test'`)
	cmd.Flags().StringVar(&o.RepositoryPath, "repository-path", o.RepositoryPath, `the root directory of git repository`)
	cmd.Flags().StringVar(&o.ModuleDir, "module-path", "", "module directory relative to the repository root")
	cmd.Flags().StringVarP(&o.OutputDir, "output", "o", o.OutputDir, "output directory for report artifacts")
	cmd.Flags().StringSliceVar(&o.Excludes, "excludes", []string{}, "exclude files for coverage calculation")
	cmd.Flags().StringVar(&o.Style, "style", o.Style, "coverage report code format style, refer to https://pygments.org/docs/styles for more information")
	cmd.Flags().StringVar(&o.Title, "title", o.Title, "report title")

	cmd.MarkFlagRequired("cover-profile")

	return cmd
}
