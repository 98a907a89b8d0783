package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/covergate/covergate/pkg/analyzer"
	"github.com/covergate/covergate/pkg/suggest"
)

var suggestLong = `Generate test suggestions from coverage gaps.

Analyzes the coverage profiles, maps gaps back to functions and types
in the source, and prints prioritized test suggestions. With --render
each suggestion is printed as a ready-to-fill test skeleton. With
--missing the source files that have no test file at all are listed
instead.
`

// SuggestOption contains the input for the covergate suggest command.
type SuggestOption struct {
	CoverProfiles  []string
	RepositoryPath string
	ModuleDir      string
	Excludes       []string

	MaxSuggestions int
	Render         bool
	Missing        bool
}

func newSuggestCommand() *cobra.Command {
	o := &SuggestOption{
		RepositoryPath: "./",
		MaxSuggestions: 50,
	}

	cmd := &cobra.Command{
		Use:     "suggest",
		Short:   "generate test suggestions from coverage gaps",
		Long:    suggestLong,
		Example: "covergate suggest --cover-profile=coverage.out --max 20",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := createLogger(cmd)

			cov := analyzer.New(&analyzer.Options{
				CoverProfiles:  o.CoverProfiles,
				RepositoryPath: o.RepositoryPath,
				ModuleDir:      o.ModuleDir,
				Excludes:       o.Excludes,
				Logger:         logger,
			})

			gen := suggest.New(&suggest.Options{
				RepositoryPath: o.RepositoryPath,
				ModuleDir:      o.ModuleDir,
				Analyzer:       cov,
				Logger:         logger,
			})

			out := cmd.OutOrStdout()

			if o.Missing {
				missing, err := gen.MissingTestFiles()
				if err != nil {
					return fmt.Errorf("scan for missing test files: %w", err)
				}
				if len(missing) == 0 {
					fmt.Fprintln(out, "All source files have test files")
					return nil
				}
				for _, m := range missing {
					fmt.Fprintf(out, "[%s] %s -> %s (%d functions)\n", m.Priority, m.SourceFile, m.ExpectedTestFile, len(m.Functions))
				}
				return nil
			}

			if !cov.Load() {
				return errors.New("failed to load coverage data")
			}

			suggestions := gen.GenerateSuggestions(o.MaxSuggestions)
			if len(suggestions) == 0 {
				fmt.Fprintln(out, "No test suggestions, coverage gaps not found")
				return nil
			}

			for i := range suggestions {
				s := &suggestions[i]
				if o.Render {
					fmt.Fprintf(out, "// %s\n%s\n", s.FilePath, suggest.RenderTemplate(s))
					continue
				}
				scope := s.FunctionName
				if s.TypeName != "" {
					scope = s.TypeName + "." + s.FunctionName
				}
				fmt.Fprintf(out, "[%s] %s %s: %s\n", s.Priority, s.FilePath, scope, s.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&o.CoverProfiles, "cover-profile", []string{}, `coverage profiles produced by 'go test'`)
	cmd.Flags().StringVar(&o.RepositoryPath, "repository-path", o.RepositoryPath, `the root directory of git repository`)
	cmd.Flags().StringVar(&o.ModuleDir, "module-path", "", "module directory relative to the repository root")
	cmd.Flags().StringSliceVar(&o.Excludes, "excludes", []string{}, "exclude files for coverage calculation")
	cmd.Flags().IntVar(&o.MaxSuggestions, "max", o.MaxSuggestions, "maximum number of suggestions")
	cmd.Flags().BoolVar(&o.Render, "render", false, "print each suggestion as a test skeleton")
	cmd.Flags().BoolVar(&o.Missing, "missing", false, "list source files without a test file")

	return cmd
}
