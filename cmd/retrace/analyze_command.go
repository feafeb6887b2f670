package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <device-id> <descriptor|legacy>",
		Short: "Run one round-trip fidelity analysis",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dialect, err := parseDialectArg(args[1])
			if err != nil {
				return err
			}

			analyzer, _, cleanup, err := ctx.openAnalyzer()
			if err != nil {
				return err
			}
			defer cleanup()

			report, err := analyzer.Analyze(cmd.Context(), args[0], dialect)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, report)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Analysis of %s/%s\n\n", args[0], dialect)
			printScoreSummary(out, report)
			fmt.Fprintln(out)
			printDiscrepancies(out, report)
			return nil
		},
	}
}
