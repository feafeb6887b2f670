package main

import (
	"fmt"
	"io"

	"retrace/internal/score"
)

func printScoreSummary(out io.Writer, r *score.QualityReport) {
	fmt.Fprintf(out, "Overall score:    %6.2f\n", r.OverallScore)
	fmt.Fprintf(out, "Structural score: %6.2f\n", r.StructuralScore)
	fmt.Fprintf(out, "Attribute score:  %6.2f\n", r.AttributeScore)
	fmt.Fprintf(out, "Value score:      %6.2f\n", r.ValueScore)
	fmt.Fprintf(out, "Elements: %d original, %d reconstructed (%d missing, %d extra)\n",
		r.TotalElementsOriginal, r.TotalElementsReconstructed,
		r.MissingElementCount, r.ExtraElementCount)
}

func printDiscrepancies(out io.Writer, r *score.QualityReport) {
	if len(r.Discrepancies) == 0 {
		fmt.Fprintln(out, "No discrepancies")
		return
	}

	rows := make([][]string, 0, len(r.Discrepancies))
	for _, d := range r.Discrepancies {
		rows = append(rows, []string{
			string(d.Kind),
			string(d.Severity),
			d.Location,
			d.Description,
		})
	}
	headers := []string{"Kind", "Severity", "Location", "Description"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft}
	fmt.Fprintln(out, renderTable(out, headers, rows, aligns))
}
