package logging

import (
	"context"
	"log/slog"
	"strings"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldDeviceID is the standardized structured logging key for device identifiers.
	FieldDeviceID = "device_id"
	// FieldFileType is the standardized structured logging key for archived file dialects.
	FieldFileType = "file_type"
	// FieldRunID is the standardized structured logging key for analysis run identifiers.
	FieldRunID = "run_id"
	// FieldStage is the standardized structured logging key for analysis stage names.
	FieldStage = "stage"
	// FieldEventType is the standardized structured logging key for event classification.
	FieldEventType = "event_type"
)

type contextKey string

const (
	deviceIDKey contextKey = "device_id"
	fileTypeKey contextKey = "file_type"
	runIDKey    contextKey = "run_id"
	stageKey    contextKey = "stage"
)

// WithDeviceID stores a device identifier in the context for log enrichment.
func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	if strings.TrimSpace(deviceID) == "" {
		return ctx
	}
	return context.WithValue(ctx, deviceIDKey, deviceID)
}

// WithFileType stores a file dialect in the context for log enrichment.
func WithFileType(ctx context.Context, fileType string) context.Context {
	if strings.TrimSpace(fileType) == "" {
		return ctx
	}
	return context.WithValue(ctx, fileTypeKey, fileType)
}

// WithRunID stores an analysis run identifier in the context for log enrichment.
func WithRunID(ctx context.Context, runID string) context.Context {
	if strings.TrimSpace(runID) == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, runID)
}

// WithStage stores an analysis stage name in the context for log enrichment.
func WithStage(ctx context.Context, stage string) context.Context {
	if strings.TrimSpace(stage) == "" {
		return ctx
	}
	return context.WithValue(ctx, stageKey, stage)
}

func stringFromContext(ctx context.Context, key contextKey) (string, bool) {
	value, ok := ctx.Value(key).(string)
	return value, ok && value != ""
}

// ContextFields extracts standardized slog attributes from the provided context.
func ContextFields(ctx context.Context) []slog.Attr {
	if ctx == nil {
		return nil
	}
	fields := make([]slog.Attr, 0, 4)
	if id, ok := stringFromContext(ctx, deviceIDKey); ok {
		fields = append(fields, slog.String(FieldDeviceID, id))
	}
	if ft, ok := stringFromContext(ctx, fileTypeKey); ok {
		fields = append(fields, slog.String(FieldFileType, ft))
	}
	if rid, ok := stringFromContext(ctx, runIDKey); ok {
		fields = append(fields, slog.String(FieldRunID, rid))
	}
	if stage, ok := stringFromContext(ctx, stageKey); ok {
		fields = append(fields, slog.String(FieldStage, stage))
	}
	return fields
}

// WithContext returns a logger augmented with structured fields derived from the supplied context.
func WithContext(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if logger == nil {
		logger = NewNop()
	}
	fields := ContextFields(ctx)
	if len(fields) == 0 {
		return logger
	}
	return logger.With(attrsToArgs(fields)...)
}
