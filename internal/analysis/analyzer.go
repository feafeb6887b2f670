package analysis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"retrace/internal/canonicalize"
	"retrace/internal/diff"
	"retrace/internal/logging"
	"retrace/internal/reconstruct"
	"retrace/internal/score"
)

// Options bundles the collaborators an Analyzer needs.
type Options struct {
	Archive  ArchiveReader
	Profiles ProfileReader
	Reports  ReportSink
	Differ   *diff.Differ
	Weights  score.Weights
	Logger   *slog.Logger
}

// Analyzer coordinates a full analysis run per (device, file) pair.
type Analyzer struct {
	archive  ArchiveReader
	profiles ProfileReader
	reports  ReportSink
	differ   *diff.Differ
	weights  score.Weights
	logger   *slog.Logger
}

// New constructs an Analyzer. Differ defaults to the embedded policy and
// Weights to the documented defaults when unset.
func New(opts Options) (*Analyzer, error) {
	if opts.Archive == nil {
		return nil, fmt.Errorf("archive reader is required")
	}
	if opts.Profiles == nil {
		return nil, fmt.Errorf("profile reader is required")
	}
	if opts.Reports == nil {
		return nil, fmt.Errorf("report sink is required")
	}
	differ := opts.Differ
	if differ == nil {
		differ = diff.New(diff.DefaultPolicy())
	}
	weights := opts.Weights
	if weights == (score.Weights{}) {
		weights = score.DefaultWeights
	}
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Analyzer{
		archive:  opts.Archive,
		profiles: opts.Profiles,
		reports:  opts.Reports,
		differ:   differ,
		weights:  weights,
		logger:   logging.NewComponentLogger(logger, "analyzer"),
	}, nil
}

// Analyze runs one analysis for the given device and dialect and persists the
// resulting report. The report is also returned for direct display.
func (a *Analyzer) Analyze(ctx context.Context, deviceID string, dialect canonicalize.Dialect) (*score.QualityReport, error) {
	runID := uuid.NewString()
	ctx = logging.WithDeviceID(ctx, deviceID)
	ctx = logging.WithFileType(ctx, string(dialect))
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, a.logger)

	logger.Info("analysis started", logging.String(logging.FieldEventType, "analysis_start"))

	raw, err := a.archive.Original(ctx, deviceID, dialect)
	if err != nil {
		return nil, a.fail(logger, Wrap(ErrArchiveUnavailable, "archive", "fetch original", deviceID, err))
	}

	original, err := canonicalize.Canonicalize(dialect, raw)
	if err != nil {
		return nil, a.fail(logger, Wrap(ErrCanonicalize, "canonicalize", string(dialect), deviceID, err))
	}

	prof, err := a.profiles.DeviceProfile(ctx, deviceID)
	if err != nil {
		return nil, a.fail(logger, Wrap(ErrProfileUnavailable, "profile", "fetch", deviceID, err))
	}

	reconstructed, err := reconstruct.Reconstruct(prof, dialect)
	if err != nil {
		return nil, a.fail(logger, Wrap(ErrReconstructInvariant, "reconstruct", string(dialect), deviceID, err))
	}

	discrepancies := a.differ.Diff(original, reconstructed)
	report := score.Build(original, reconstructed, discrepancies, a.weights)

	if err := a.reports.Persist(ctx, runID, deviceID, dialect, report); err != nil {
		return nil, a.fail(logger, Wrap(ErrPersist, "report", "persist", deviceID, err))
	}

	logger.Info("analysis complete",
		logging.String(logging.FieldEventType, "analysis_complete"),
		logging.Float64("overall_score", report.OverallScore),
		logging.Float64("structural_score", report.StructuralScore),
		logging.Float64("attribute_score", report.AttributeScore),
		logging.Float64("value_score", report.ValueScore),
		logging.Int("discrepancies", len(report.Discrepancies)),
	)
	return report, nil
}

func (a *Analyzer) fail(logger *slog.Logger, err error) error {
	logger.Error("analysis skipped",
		logging.String(logging.FieldEventType, "analysis_skipped"),
		logging.String("error_class", Classify(err)),
		logging.Error(err),
	)
	return err
}
