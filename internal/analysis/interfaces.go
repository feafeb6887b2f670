package analysis

import (
	"context"

	"retrace/internal/canonicalize"
	"retrace/internal/profile"
	"retrace/internal/score"
)

// ArchiveReader supplies archived original file bytes.
type ArchiveReader interface {
	Original(ctx context.Context, deviceID string, dialect canonicalize.Dialect) ([]byte, error)
}

// ProfileReader supplies the relational device profile.
type ProfileReader interface {
	DeviceProfile(ctx context.Context, deviceID string) (*profile.DeviceProfile, error)
}

// ReportSink persists finished quality reports. Persistence is append-only:
// every call stores a new report row under its run ID.
type ReportSink interface {
	Persist(ctx context.Context, runID, deviceID string, dialect canonicalize.Dialect, report *score.QualityReport) error
}
