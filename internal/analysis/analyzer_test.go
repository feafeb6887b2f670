package analysis_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"retrace/internal/analysis"
	"retrace/internal/canonicalize"
	"retrace/internal/diff"
	"retrace/internal/profile"
	"retrace/internal/score"
)

type archiveKey struct {
	deviceID string
	dialect  canonicalize.Dialect
}

type fakeArchive map[archiveKey][]byte

func (f fakeArchive) Original(_ context.Context, deviceID string, dialect canonicalize.Dialect) ([]byte, error) {
	raw, ok := f[archiveKey{deviceID, dialect}]
	if !ok {
		return nil, errors.New("no archived original")
	}
	return raw, nil
}

type fakeProfiles map[string]*profile.DeviceProfile

func (f fakeProfiles) DeviceProfile(_ context.Context, deviceID string) (*profile.DeviceProfile, error) {
	p, ok := f[deviceID]
	if !ok {
		return nil, errors.New("no profile")
	}
	return p, nil
}

type sinkEntry struct {
	runID    string
	deviceID string
	dialect  canonicalize.Dialect
	report   *score.QualityReport
}

type memorySink struct {
	mu      sync.Mutex
	entries []sinkEntry
	fail    error
}

func (s *memorySink) Persist(_ context.Context, runID, deviceID string, dialect canonicalize.Dialect, report *score.QualityReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.entries = append(s.entries, sinkEntry{runID, deviceID, dialect, report})
	return nil
}

func (s *memorySink) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

const matchingOriginalXML = `<DeviceProfile deviceId="dev-1">
  <ParameterCollection>
    <Parameter index="1" name="Setpoint" dataType="UInt16"/>
  </ParameterCollection>
</DeviceProfile>`

func matchingProfile() *profile.DeviceProfile {
	return &profile.DeviceProfile{
		DeviceID: "dev-1",
		Parameters: []profile.Parameter{
			{Index: 1, Name: "Setpoint", DataType: "UInt16"},
		},
	}
}

func newAnalyzer(t *testing.T, archive fakeArchive, profiles fakeProfiles, sink *memorySink) *analysis.Analyzer {
	t.Helper()
	analyzer, err := analysis.New(analysis.Options{
		Archive:  archive,
		Profiles: profiles,
		Reports:  sink,
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return analyzer
}

func TestAnalyzePerfectRoundTrip(t *testing.T) {
	archive := fakeArchive{{"dev-1", canonicalize.DialectXML}: []byte(matchingOriginalXML)}
	profiles := fakeProfiles{"dev-1": matchingProfile()}
	sink := &memorySink{}

	report, err := newAnalyzer(t, archive, profiles, sink).Analyze(context.Background(), "dev-1", canonicalize.DialectXML)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if report.OverallScore != 100 || len(report.Discrepancies) != 0 {
		t.Fatalf("faithful round trip must score 100: %+v", report)
	}
	if sink.len() != 1 {
		t.Fatalf("expected one persisted report, got %d", sink.len())
	}
	entry := sink.entries[0]
	if entry.runID == "" || entry.deviceID != "dev-1" || entry.dialect != canonicalize.DialectXML {
		t.Fatalf("unexpected sink entry: %+v", entry)
	}
}

func TestAnalyzeReportsFixAfterReconstructorChange(t *testing.T) {
	original := `<DeviceProfile deviceId="dev-1">
  <ParameterCollection>
    <Parameter index="1" name="Setpoint" dataType="UInt16" dynamic="false"/>
  </ParameterCollection>
</DeviceProfile>`
	archive := fakeArchive{{"dev-1", canonicalize.DialectXML}: []byte(original)}

	// First pass: the profile lost the explicit dynamic="false".
	broken := matchingProfile()
	profiles := fakeProfiles{"dev-1": broken}
	sink := &memorySink{}
	analyzer := newAnalyzer(t, archive, profiles, sink)

	first, err := analyzer.Analyze(context.Background(), "dev-1", canonicalize.DialectXML)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if first.MissingAttributeCount != 1 || first.AttributeScore == 100 {
		t.Fatalf("dropped explicit false must cost a missing attribute: %+v", first)
	}

	// Second pass after the fix: a new report is appended, never an update.
	fixed := matchingProfile()
	fixed.Parameters[0].Dynamic = profile.Some(false)
	profiles["dev-1"] = fixed

	second, err := analyzer.Analyze(context.Background(), "dev-1", canonicalize.DialectXML)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if second.AttributeScore != 100 {
		t.Fatalf("restored attribute must score clean: %+v", second)
	}
	if sink.len() != 2 {
		t.Fatalf("reports are append-only, want 2 entries, got %d", sink.len())
	}
	if sink.entries[0].runID == sink.entries[1].runID {
		t.Fatal("each run must get a fresh run id")
	}
}

func TestAnalyzeMalformedOriginalSkipsWithoutPersisting(t *testing.T) {
	archive := fakeArchive{{"dev-1", canonicalize.DialectXML}: {0x01, 0x02, 0x03}}
	profiles := fakeProfiles{"dev-1": matchingProfile()}
	sink := &memorySink{}

	report, err := newAnalyzer(t, archive, profiles, sink).Analyze(context.Background(), "dev-1", canonicalize.DialectXML)
	if !errors.Is(err, analysis.ErrCanonicalize) {
		t.Fatalf("expected ErrCanonicalize, got %v", err)
	}
	if report != nil {
		t.Fatal("a document that failed to parse must never get a score")
	}
	if sink.len() != 0 {
		t.Fatal("nothing may be persisted for a skipped analysis")
	}
}

func TestAnalyzeErrorClassification(t *testing.T) {
	goodArchive := fakeArchive{{"dev-1", canonicalize.DialectXML}: []byte(matchingOriginalXML)}
	goodProfiles := fakeProfiles{"dev-1": matchingProfile()}

	brokenProfile := matchingProfile()
	brokenProfile.Assemblies = []profile.Assembly{{
		ID:    "asm-1",
		Slots: []profile.AssemblySlot{{Position: 1, ParameterIndex: 99}},
	}}

	cases := []struct {
		name     string
		archive  fakeArchive
		profiles fakeProfiles
		sink     *memorySink
		want     error
	}{
		{"missing archive", fakeArchive{}, goodProfiles, &memorySink{}, analysis.ErrArchiveUnavailable},
		{"missing profile", goodArchive, fakeProfiles{}, &memorySink{}, analysis.ErrProfileUnavailable},
		{"invariant violation", goodArchive, fakeProfiles{"dev-1": brokenProfile}, &memorySink{}, analysis.ErrReconstructInvariant},
		{"sink failure", goodArchive, goodProfiles, &memorySink{fail: errors.New("disk full")}, analysis.ErrPersist},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := newAnalyzer(t, tc.archive, tc.profiles, tc.sink).Analyze(context.Background(), "dev-1", canonicalize.DialectXML)
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if class := analysis.Classify(err); class == "" || class == "failure" {
				t.Fatalf("taxonomy errors must classify to a named class, got %q", class)
			}
		})
	}
}

func TestNewRequiresCollaborators(t *testing.T) {
	if _, err := analysis.New(analysis.Options{}); err == nil {
		t.Fatal("expected error for missing collaborators")
	}
	if _, err := analysis.New(analysis.Options{
		Archive:  fakeArchive{},
		Profiles: fakeProfiles{},
		Reports:  &memorySink{},
		Weights:  score.Weights{Structural: 1, Attribute: 1, Value: 1},
	}); err == nil {
		t.Fatal("expected error for invalid weights")
	}
}

func TestAnalyzeUsesConfiguredDiffer(t *testing.T) {
	original := `<Widget serial="7" color="red"/>`
	archive := fakeArchive{{"dev-1", canonicalize.DialectXML}: []byte(original)}
	profiles := fakeProfiles{"dev-1": matchingProfile()}
	sink := &memorySink{}

	analyzer, err := analysis.New(analysis.Options{
		Archive:  archive,
		Profiles: profiles,
		Reports:  sink,
		Differ:   diff.New(diff.DefaultPolicy()),
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	report, err := analyzer.Analyze(context.Background(), "dev-1", canonicalize.DialectXML)
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if len(report.Discrepancies) == 0 {
		t.Fatal("entirely different trees must produce discrepancies")
	}
}
