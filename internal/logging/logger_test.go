package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestPrettyHandlerLiftsComponentAndFormatsPairs(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, level))

	logger.Info("analysis complete",
		String(FieldComponent, "analyzer"),
		String(FieldDeviceID, "dev-1"),
		Float64("overall_score", 98.5),
	)

	line := buf.String()
	if !strings.Contains(line, "INFO analyzer: analysis complete") {
		t.Fatalf("component must become the message prefix: %q", line)
	}
	if !strings.Contains(line, "device_id=dev-1") {
		t.Fatalf("missing device id pair: %q", line)
	}
	if !strings.Contains(line, "overall_score=98.5") {
		t.Fatalf("missing score pair: %q", line)
	}
	if strings.Contains(line, "component=") {
		t.Fatalf("component must not repeat as a pair: %q", line)
	}
}

func TestPrettyHandlerQuotesAwkwardValues(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	logger := slog.New(newPrettyHandler(&buf, level))

	logger.Info("skip", String("reason", "malformed input: bad header"))

	if !strings.Contains(buf.String(), `reason="malformed input: bad header"`) {
		t.Fatalf("values with spaces must be quoted: %q", buf.String())
	}
}

func TestPrettyHandlerHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	level.Set(slog.LevelWarn)
	logger := slog.New(newPrettyHandler(&buf, level))

	logger.Info("quiet")
	if buf.Len() != 0 {
		t.Fatalf("info below threshold must be dropped, got %q", buf.String())
	}
	logger.Warn("loud")
	if !strings.Contains(buf.String(), "WARN") {
		t.Fatalf("warn at threshold must be written, got %q", buf.String())
	}
}

func TestWithContextAddsAnalysisFields(t *testing.T) {
	var buf bytes.Buffer
	level := new(slog.LevelVar)
	base := slog.New(newPrettyHandler(&buf, level))

	ctx := WithDeviceID(context.Background(), "dev-9")
	ctx = WithFileType(ctx, "legacy")
	ctx = WithRunID(ctx, "run-abc")
	ctx = WithStage(ctx, "diff")

	WithContext(ctx, base).Info("stage started")

	line := buf.String()
	for _, want := range []string{"device_id=dev-9", "file_type=legacy", "run_id=run-abc", "stage=diff"} {
		if !strings.Contains(line, want) {
			t.Fatalf("missing %q in %q", want, line)
		}
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("no-op logger must report disabled at every level")
	}
}
