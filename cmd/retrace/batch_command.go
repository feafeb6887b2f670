package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"retrace/internal/analysis"
)

func newBatchCommand(ctx *commandContext) *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Analyze every archived (device, file) pair",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer, s, cleanup, err := ctx.openAnalyzer()
			if err != nil {
				return err
			}
			defer cleanup()

			lock := flock.New(s.cfg.LockPath())
			locked, err := lock.TryLock()
			if err != nil {
				return fmt.Errorf("acquire batch lock: %w", err)
			}
			if !locked {
				return fmt.Errorf("another batch is already running (lock: %s)", s.cfg.LockPath())
			}
			defer func() { _ = lock.Unlock() }()

			entries, err := s.archive.List(cmd.Context())
			if err != nil {
				return err
			}
			requests := make([]analysis.Request, 0, len(entries))
			for _, entry := range entries {
				requests = append(requests, analysis.Request{
					DeviceID: entry.DeviceID,
					Dialect:  entry.Dialect,
				})
			}

			poolSize := workers
			if !cmd.Flags().Changed("workers") {
				poolSize = s.cfg.Analysis.Workers
			}
			outcomes, summary := analyzer.RunBatch(cmd.Context(), requests, poolSize)

			if ctx.jsonOutput() {
				return writeJSON(cmd, batchResult(outcomes, summary))
			}
			return printBatchSummary(cmd, outcomes, summary)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "Worker pool size (0 sizes to the CPU)")
	return cmd
}

type batchOutcomeJSON struct {
	DeviceID string   `json:"device_id"`
	FileType string   `json:"file_type"`
	Overall  *float64 `json:"overall_score,omitempty"`
	Error    string   `json:"error,omitempty"`
	Class    string   `json:"error_class,omitempty"`
}

func batchResult(outcomes []analysis.Outcome, summary analysis.Summary) map[string]any {
	results := make([]batchOutcomeJSON, 0, len(outcomes))
	for _, outcome := range outcomes {
		entry := batchOutcomeJSON{
			DeviceID: outcome.Request.DeviceID,
			FileType: string(outcome.Request.Dialect),
		}
		if outcome.Err != nil {
			entry.Error = outcome.Err.Error()
			entry.Class = analysis.Classify(outcome.Err)
		} else if outcome.Report != nil {
			overall := outcome.Report.OverallScore
			entry.Overall = &overall
		}
		results = append(results, entry)
	}
	return map[string]any{
		"analyzed": summary.Analyzed,
		"skipped":  summary.Skipped,
		"results":  results,
	}
}

func printBatchSummary(cmd *cobra.Command, outcomes []analysis.Outcome, summary analysis.Summary) error {
	out := cmd.OutOrStdout()

	rows := make([][]string, 0, len(outcomes))
	for _, outcome := range outcomes {
		status := "ok"
		detail := ""
		if outcome.Err != nil {
			status = analysis.Classify(outcome.Err)
			detail = outcome.Err.Error()
		} else if outcome.Report != nil {
			detail = strconv.FormatFloat(outcome.Report.OverallScore, 'f', 2, 64)
		}
		rows = append(rows, []string{
			outcome.Request.DeviceID,
			string(outcome.Request.Dialect),
			status,
			detail,
		})
	}
	headers := []string{"Device", "File", "Status", "Score / Error"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight}
	if len(rows) > 0 {
		fmt.Fprintln(out, renderTable(out, headers, rows, aligns))
	}

	fmt.Fprintf(out, "Analyzed %d of %d\n", summary.Analyzed, len(outcomes))
	if summary.Failed() > 0 {
		classes := make([]string, 0, len(summary.Skipped))
		for class := range summary.Skipped {
			classes = append(classes, class)
		}
		sort.Strings(classes)
		for _, class := range classes {
			fmt.Fprintf(out, "Skipped %d (%s)\n", summary.Skipped[class], class)
		}
	}
	return nil
}
