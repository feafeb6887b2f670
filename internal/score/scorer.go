package score

import (
	"fmt"

	"retrace/internal/canonical"
	"retrace/internal/diff"
)

// Weights distributes the overall score across the three component scores.
// They must sum to 1.
type Weights struct {
	Structural float64
	Attribute  float64
	Value      float64
}

// DefaultWeights is the documented, stable weighting: structure dominates,
// attribute fidelity second, text payloads last.
var DefaultWeights = Weights{Structural: 0.5, Attribute: 0.3, Value: 0.2}

// Validate rejects weight sets that do not distribute exactly one unit.
func (w Weights) Validate() error {
	if w.Structural < 0 || w.Attribute < 0 || w.Value < 0 {
		return fmt.Errorf("score weights must not be negative")
	}
	sum := w.Structural + w.Attribute + w.Value
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("score weights must sum to 1.0, got %.3f", sum)
	}
	return nil
}

// QualityReport is the immutable result of one analysis run. It is created
// fresh per run and superseded, never updated, by later runs.
type QualityReport struct {
	OverallScore    float64 `json:"overall_score"`
	StructuralScore float64 `json:"structural_score"`
	AttributeScore  float64 `json:"attribute_score"`
	ValueScore      float64 `json:"value_score"`

	TotalElementsOriginal      int `json:"total_elements_original"`
	TotalElementsReconstructed int `json:"total_elements_reconstructed"`
	MissingElementCount        int `json:"missing_element_count"`
	ExtraElementCount          int `json:"extra_element_count"`
	MissingAttributeCount      int `json:"missing_attribute_count"`
	IncorrectAttributeCount    int `json:"incorrect_attribute_count"`

	Discrepancies []diff.Discrepancy `json:"discrepancies"`
}

// Build aggregates a discrepancy list and both trees into a QualityReport.
func Build(original, reconstructed *canonical.Node, discrepancies []diff.Discrepancy, weights Weights) *QualityReport {
	report := &QualityReport{
		TotalElementsOriginal:      original.ElementCount(),
		TotalElementsReconstructed: reconstructed.ElementCount(),
		Discrepancies:              discrepancies,
	}

	valueMismatches := 0
	for _, d := range discrepancies {
		switch d.Kind {
		case diff.MissingElement:
			report.MissingElementCount++
		case diff.ExtraElement:
			report.ExtraElementCount++
		case diff.MissingAttribute:
			report.MissingAttributeCount++
		case diff.IncorrectAttribute:
			report.IncorrectAttributeCount++
		case diff.ValueMismatch:
			valueMismatches++
		}
	}

	report.StructuralScore = ratioScore(report.MissingElementCount+report.ExtraElementCount, report.TotalElementsOriginal)
	report.AttributeScore = ratioScore(report.MissingAttributeCount+report.IncorrectAttributeCount, original.AttributeCount())
	report.ValueScore = ratioScore(valueMismatches, original.ValueBearingCount())
	report.OverallScore = clamp(weights.Structural*report.StructuralScore +
		weights.Attribute*report.AttributeScore +
		weights.Value*report.ValueScore)

	return report
}

// ratioScore maps a defect count against a population onto [0,100]. An empty
// population is the degenerate empty-document case and scores perfect.
func ratioScore(defects, total int) float64 {
	if total < 1 {
		total = 1
	}
	return clamp(100 * (1 - float64(defects)/float64(total)))
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
