package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newReportCommand(ctx *commandContext) *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Quality report queries",
	}

	reportCmd.AddCommand(newReportShowCommand(ctx))
	reportCmd.AddCommand(newReportHistoryCommand(ctx))

	return reportCmd
}

func newReportShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <device-id> <descriptor|legacy>",
		Short: "Show the latest quality report for a device file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dialect, err := parseDialectArg(args[1])
			if err != nil {
				return err
			}

			s, cleanup, err := ctx.openStores()
			if err != nil {
				return err
			}
			defer cleanup()

			stored, err := s.reports.Latest(cmd.Context(), args[0], dialect)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, stored)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Report %s for %s/%s (%s)\n\n",
				stored.RunID, stored.DeviceID, stored.Dialect,
				stored.CreatedAt.Local().Format(time.RFC3339))
			printScoreSummary(out, &stored.Report)
			fmt.Fprintln(out)
			printDiscrepancies(out, &stored.Report)
			return nil
		},
	}
}

func newReportHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <device-id> <descriptor|legacy>",
		Short: "Show score history for a device file, newest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dialect, err := parseDialectArg(args[1])
			if err != nil {
				return err
			}

			s, cleanup, err := ctx.openStores()
			if err != nil {
				return err
			}
			defer cleanup()

			history, err := s.reports.History(cmd.Context(), args[0], dialect, limit)
			if err != nil {
				return err
			}

			if ctx.jsonOutput() {
				return writeJSON(cmd, history)
			}

			out := cmd.OutOrStdout()
			if len(history) == 0 {
				fmt.Fprintf(out, "No reports for %s/%s\n", args[0], dialect)
				return nil
			}

			rows := make([][]string, 0, len(history))
			for _, stored := range history {
				rows = append(rows, []string{
					stored.CreatedAt.Local().Format("2006-01-02 15:04:05"),
					stored.RunID,
					strconv.FormatFloat(stored.Report.OverallScore, 'f', 2, 64),
					strconv.FormatFloat(stored.Report.StructuralScore, 'f', 2, 64),
					strconv.FormatFloat(stored.Report.AttributeScore, 'f', 2, 64),
					strconv.FormatFloat(stored.Report.ValueScore, 'f', 2, 64),
					strconv.Itoa(len(stored.Report.Discrepancies)),
				})
			}
			headers := []string{"When", "Run", "Overall", "Struct", "Attr", "Value", "Issues"}
			aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight}
			fmt.Fprintln(out, renderTable(out, headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum reports to show (0 for all)")
	return cmd
}
