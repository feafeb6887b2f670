package report_test

import (
	"context"
	"errors"
	"testing"

	"retrace/internal/canonicalize"
	"retrace/internal/diff"
	"retrace/internal/report"
	"retrace/internal/score"
	"retrace/internal/testsupport"
)

func openStore(t *testing.T) *report.Store {
	t.Helper()
	store, err := report.Open(testsupport.NewConfig(t))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleReport(overall float64) *score.QualityReport {
	return &score.QualityReport{
		OverallScore:               overall,
		StructuralScore:            overall,
		AttributeScore:             100,
		ValueScore:                 100,
		TotalElementsOriginal:      10,
		TotalElementsReconstructed: 9,
		MissingElementCount:        1,
		Discrepancies: []diff.Discrepancy{
			{
				Kind:        diff.MissingElement,
				Location:    "DeviceProfile/Parameter[2]",
				Severity:    diff.SeverityCritical,
				Description: "element missing from reconstruction",
			},
		},
	}
}

func TestPersistAndLatest(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Persist(ctx, "run-1", "dev-1", canonicalize.DialectXML, sampleReport(95)); err != nil {
		t.Fatalf("Persist returned error: %v", err)
	}

	got, err := store.Latest(ctx, "dev-1", canonicalize.DialectXML)
	if err != nil {
		t.Fatalf("Latest returned error: %v", err)
	}
	if got.RunID != "run-1" || got.DeviceID != "dev-1" || got.Dialect != canonicalize.DialectXML {
		t.Fatalf("unexpected identity: %+v", got)
	}
	if got.Report.OverallScore != 95 || got.Report.MissingElementCount != 1 {
		t.Fatalf("scores did not round trip: %+v", got.Report)
	}
	if len(got.Report.Discrepancies) != 1 {
		t.Fatalf("expected 1 discrepancy, got %d", len(got.Report.Discrepancies))
	}
	d := got.Report.Discrepancies[0]
	if d.Kind != diff.MissingElement || d.Location != "DeviceProfile/Parameter[2]" || d.Severity != diff.SeverityCritical {
		t.Fatalf("discrepancy did not round trip: %+v", d)
	}
	if got.CreatedAt.IsZero() {
		t.Fatal("created_at must be populated")
	}
}

func TestPersistIsAppendOnly(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Persist(ctx, "run-1", "dev-1", canonicalize.DialectXML, sampleReport(80)); err != nil {
		t.Fatalf("first Persist: %v", err)
	}
	if err := store.Persist(ctx, "run-2", "dev-1", canonicalize.DialectXML, sampleReport(100)); err != nil {
		t.Fatalf("second Persist: %v", err)
	}

	history, err := store.History(ctx, "dev-1", canonicalize.DialectXML, 0)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("second run must add a row, got %d", len(history))
	}
	if history[0].RunID != "run-2" || history[1].RunID != "run-1" {
		t.Fatalf("history must be newest first: %+v", history)
	}

	latest, err := store.Latest(ctx, "dev-1", canonicalize.DialectXML)
	if err != nil {
		t.Fatalf("Latest returned error: %v", err)
	}
	if latest.RunID != "run-2" || latest.Report.OverallScore != 100 {
		t.Fatalf("latest must be the superseding run: %+v", latest)
	}
}

func TestHistoryLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	for _, runID := range []string{"run-1", "run-2", "run-3"} {
		if err := store.Persist(ctx, runID, "dev-1", canonicalize.DialectKeyword, sampleReport(90)); err != nil {
			t.Fatalf("Persist %s: %v", runID, err)
		}
	}

	history, err := store.History(ctx, "dev-1", canonicalize.DialectKeyword, 2)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("limit must cap results, got %d", len(history))
	}
}

func TestLatestNotFound(t *testing.T) {
	store := openStore(t)
	_, err := store.Latest(context.Background(), "dev-missing", canonicalize.DialectXML)
	if !errors.Is(err, report.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDialectsTrackSeparateHistories(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	if err := store.Persist(ctx, "run-x", "dev-1", canonicalize.DialectXML, sampleReport(90)); err != nil {
		t.Fatalf("Persist xml: %v", err)
	}
	if err := store.Persist(ctx, "run-k", "dev-1", canonicalize.DialectKeyword, sampleReport(70)); err != nil {
		t.Fatalf("Persist keyword: %v", err)
	}

	xml, err := store.Latest(ctx, "dev-1", canonicalize.DialectXML)
	if err != nil {
		t.Fatalf("Latest xml: %v", err)
	}
	keyword, err := store.Latest(ctx, "dev-1", canonicalize.DialectKeyword)
	if err != nil {
		t.Fatalf("Latest keyword: %v", err)
	}
	if xml.RunID != "run-x" || keyword.RunID != "run-k" {
		t.Fatalf("dialect histories must not mix: %+v %+v", xml, keyword)
	}
}

func TestPersistNilDiscrepanciesStoresEmptyList(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	r := sampleReport(100)
	r.Discrepancies = nil
	if err := store.Persist(ctx, "run-1", "dev-1", canonicalize.DialectXML, r); err != nil {
		t.Fatalf("Persist returned error: %v", err)
	}

	got, err := store.Latest(ctx, "dev-1", canonicalize.DialectXML)
	if err != nil {
		t.Fatalf("Latest returned error: %v", err)
	}
	if got.Report.Discrepancies == nil || len(got.Report.Discrepancies) != 0 {
		t.Fatalf("expected empty discrepancy list, got %#v", got.Report.Discrepancies)
	}
}
