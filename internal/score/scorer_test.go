package score_test

import (
	"testing"

	"retrace/internal/canonical"
	"retrace/internal/diff"
	"retrace/internal/score"
)

func treeWithElements(n int) *canonical.Node {
	root := canonical.NewNode("DeviceProfile")
	for i := 1; i < n; i++ {
		root.AppendChild(canonical.NewNode("Parameter"))
	}
	root.AssignPaths()
	return root
}

func TestBuildScenarioA(t *testing.T) {
	// Original has 10 elements; reconstruction omits 2 and adds 1 extra.
	original := treeWithElements(10)
	reconstructed := treeWithElements(9)

	discrepancies := []diff.Discrepancy{
		{Kind: diff.MissingElement, Location: "DeviceProfile.Parameter[7]", Severity: diff.SeverityMajor},
		{Kind: diff.MissingElement, Location: "DeviceProfile.Parameter[8]", Severity: diff.SeverityMajor},
		{Kind: diff.ExtraElement, Location: "DeviceProfile.Assembly", Severity: diff.SeverityMajor},
	}
	report := score.Build(original, reconstructed, discrepancies, score.DefaultWeights)

	if report.MissingElementCount != 2 || report.ExtraElementCount != 1 {
		t.Fatalf("counts = %d missing, %d extra", report.MissingElementCount, report.ExtraElementCount)
	}
	if report.TotalElementsOriginal != 10 {
		t.Fatalf("TotalElementsOriginal = %d", report.TotalElementsOriginal)
	}
	if report.StructuralScore != 70.0 {
		t.Fatalf("StructuralScore = %v, want 70.0", report.StructuralScore)
	}
}

func TestBuildIdentityScoresPerfect(t *testing.T) {
	original := treeWithElements(5)
	report := score.Build(original, treeWithElements(5), nil, score.DefaultWeights)

	for name, got := range map[string]float64{
		"overall":    report.OverallScore,
		"structural": report.StructuralScore,
		"attribute":  report.AttributeScore,
		"value":      report.ValueScore,
	} {
		if got != 100 {
			t.Fatalf("%s score = %v, want 100", name, got)
		}
	}
	if len(report.Discrepancies) != 0 {
		t.Fatalf("unexpected discrepancies: %v", report.Discrepancies)
	}
}

func TestBuildDegenerateEmptyOriginal(t *testing.T) {
	report := score.Build(nil, nil, nil, score.DefaultWeights)
	if report.TotalElementsOriginal != 0 {
		t.Fatalf("TotalElementsOriginal = %d", report.TotalElementsOriginal)
	}
	if report.StructuralScore != 100 || report.AttributeScore != 100 || report.ValueScore != 100 || report.OverallScore != 100 {
		t.Fatalf("degenerate case must score 100: %+v", report)
	}
}

func TestBuildMonotonicity(t *testing.T) {
	original := treeWithElements(10)
	reconstructed := treeWithElements(10)
	base := []diff.Discrepancy{
		{Kind: diff.MissingElement, Location: "DeviceProfile.Parameter[3]"},
	}
	more := append(append([]diff.Discrepancy{}, base...), diff.Discrepancy{
		Kind: diff.MissingElement, Location: "DeviceProfile.Parameter[4]",
	})

	baseline := score.Build(original, reconstructed, base, score.DefaultWeights)
	worse := score.Build(original, reconstructed, more, score.DefaultWeights)
	if worse.StructuralScore >= baseline.StructuralScore {
		t.Fatalf("one more missing element must strictly decrease structural score: %v -> %v",
			baseline.StructuralScore, worse.StructuralScore)
	}
}

func TestBuildAttributeAndValueScores(t *testing.T) {
	original := canonical.NewNode("P")
	original.SetAttr("a", "1")
	original.SetAttr("b", "2")
	child := original.AppendChild(canonical.NewNode("C"))
	child.Text = "payload"
	original.AssignPaths()

	reconstructed := canonical.NewNode("P")
	reconstructed.SetAttr("a", "1")
	reconstructed.AssignPaths()

	discrepancies := []diff.Discrepancy{
		{Kind: diff.MissingAttribute, Location: "P"},
		{Kind: diff.ValueMismatch, Location: "P.C"},
	}
	report := score.Build(original, reconstructed, discrepancies, score.DefaultWeights)
	if report.AttributeScore != 50.0 {
		t.Fatalf("AttributeScore = %v, want 50.0", report.AttributeScore)
	}
	if report.ValueScore != 0.0 {
		t.Fatalf("ValueScore = %v, want 0.0", report.ValueScore)
	}
}

func TestBuildScoreNeverLeavesRange(t *testing.T) {
	original := treeWithElements(2)
	var flood []diff.Discrepancy
	for i := 0; i < 50; i++ {
		flood = append(flood, diff.Discrepancy{Kind: diff.ExtraElement})
	}
	report := score.Build(original, treeWithElements(40), flood, score.DefaultWeights)
	if report.StructuralScore != 0 {
		t.Fatalf("flooded structural score = %v, want clamp to 0", report.StructuralScore)
	}
	if report.OverallScore < 0 || report.OverallScore > 100 {
		t.Fatalf("overall out of range: %v", report.OverallScore)
	}
}

func TestWeightsValidate(t *testing.T) {
	if err := score.DefaultWeights.Validate(); err != nil {
		t.Fatalf("default weights must validate: %v", err)
	}
	bad := score.Weights{Structural: 0.9, Attribute: 0.3, Value: 0.2}
	if err := bad.Validate(); err == nil {
		t.Fatal("weights summing past 1.0 must be rejected")
	}
	negative := score.Weights{Structural: 1.2, Attribute: -0.1, Value: -0.1}
	if err := negative.Validate(); err == nil {
		t.Fatal("negative weights must be rejected")
	}
}
