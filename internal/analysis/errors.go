package analysis

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrArchiveUnavailable marks analyses skipped because the original bytes
	// are missing or unreadable.
	ErrArchiveUnavailable = errors.New("archive unavailable")
	// ErrProfileUnavailable marks analyses skipped because the relational
	// profile is missing or lacks required linkage.
	ErrProfileUnavailable = errors.New("profile unavailable")
	// ErrCanonicalize marks analyses skipped because the archived original
	// does not parse under its dialect grammar.
	ErrCanonicalize = errors.New("canonicalize error")
	// ErrReconstructInvariant marks analyses skipped because the profile
	// violates an invariant the reconstructor depends on. This is a
	// data-integrity defect, never a score of zero.
	ErrReconstructInvariant = errors.New("reconstruct invariant violation")
	// ErrPersist marks report sink failures. Callers may retry.
	ErrPersist = errors.New("persist error")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrPersist
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps an analysis error onto the short class label used in batch
// summaries and log fields.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrArchiveUnavailable):
		return "archive_unavailable"
	case errors.Is(err, ErrProfileUnavailable):
		return "profile_unavailable"
	case errors.Is(err, ErrCanonicalize):
		return "canonicalize_error"
	case errors.Is(err, ErrReconstructInvariant):
		return "invariant_violation"
	case errors.Is(err, ErrPersist):
		return "persist_error"
	default:
		return "failure"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "analysis failure"
	}
	return strings.Join(parts, ": ")
}
