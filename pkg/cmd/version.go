package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVersionCommand(version, commit, date string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "version for covergate",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "Covergate Version: %s\nRuntime SHA: %s\nCreated At: %s\n", version, commit, date)
			return nil
		},
	}
}
