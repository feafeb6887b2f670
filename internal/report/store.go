package report

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"retrace/internal/canonicalize"
	"retrace/internal/config"
	"retrace/internal/diff"
	"retrace/internal/score"
	"retrace/internal/storage"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrNotFound marks a device with no stored reports.
var ErrNotFound = errors.New("quality report not found")

// Stored is one persisted quality report with its run identity.
type Stored struct {
	RunID     string               `json:"run_id"`
	DeviceID  string               `json:"device_id"`
	Dialect   canonicalize.Dialect `json:"file_type"`
	CreatedAt time.Time            `json:"created_at"`
	Report    score.QualityReport  `json:"report"`
}

// Store keeps quality reports in SQLite. Writes are append-only so the
// history of a device is a sequence of superseding reports, never an update.
type Store struct {
	db *sql.DB
}

// Open initializes or connects to the report database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	db, err := storage.Open(cfg.ReportDBPath())
	if err != nil {
		return nil, err
	}
	if err := storage.Migrate(context.Background(), db, migrationFS, "migrations"); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Persist stores a finished report under its run id. Earlier reports for the
// same device stay untouched.
func (s *Store) Persist(ctx context.Context, runID, deviceID string, dialect canonicalize.Dialect, r *score.QualityReport) error {
	if runID == "" {
		return errors.New("run id is empty")
	}
	if r == nil {
		return errors.New("report is nil")
	}
	discrepancies := r.Discrepancies
	if discrepancies == nil {
		discrepancies = []diff.Discrepancy{}
	}
	payload, err := json.Marshal(discrepancies)
	if err != nil {
		return fmt.Errorf("encode discrepancies: %w", err)
	}

	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO reports (
            run_id, device_id, file_type, created_at,
            overall_score, structural_score, attribute_score, value_score,
            total_elements_original, total_elements_reconstructed,
            missing_element_count, extra_element_count,
            missing_attribute_count, incorrect_attribute_count,
            discrepancies_json
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		deviceID,
		string(dialect),
		time.Now().UTC().Format(time.RFC3339Nano),
		r.OverallScore,
		r.StructuralScore,
		r.AttributeScore,
		r.ValueScore,
		r.TotalElementsOriginal,
		r.TotalElementsReconstructed,
		r.MissingElementCount,
		r.ExtraElementCount,
		r.MissingAttributeCount,
		r.IncorrectAttributeCount,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("persist report %s: %w", runID, err)
	}
	return nil
}

// Latest returns the most recent report for a (device, file) pair.
func (s *Store) Latest(ctx context.Context, deviceID string, dialect canonicalize.Dialect) (*Stored, error) {
	row := s.db.QueryRowContext(
		ctx,
		selectColumns+` FROM reports
         WHERE device_id = ? AND file_type = ?
         ORDER BY created_at DESC, run_id DESC LIMIT 1`,
		deviceID,
		string(dialect),
	)
	stored, err := scanStored(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, deviceID, dialect)
	}
	if err != nil {
		return nil, fmt.Errorf("load latest report %s/%s: %w", deviceID, dialect, err)
	}
	return stored, nil
}

// History returns up to limit reports for a (device, file) pair, newest
// first. A non-positive limit returns the full history.
func (s *Store) History(ctx context.Context, deviceID string, dialect canonicalize.Dialect, limit int) ([]Stored, error) {
	query := selectColumns + ` FROM reports
         WHERE device_id = ? AND file_type = ?
         ORDER BY created_at DESC, run_id DESC`
	args := []any{deviceID, string(dialect)}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("load report history %s/%s: %w", deviceID, dialect, err)
	}
	defer rows.Close()

	var history []Stored
	for rows.Next() {
		stored, err := scanStored(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report row: %w", err)
		}
		history = append(history, *stored)
	}
	return history, rows.Err()
}

const selectColumns = `SELECT run_id, device_id, file_type, created_at,
            overall_score, structural_score, attribute_score, value_score,
            total_elements_original, total_elements_reconstructed,
            missing_element_count, extra_element_count,
            missing_attribute_count, incorrect_attribute_count,
            discrepancies_json`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStored(row rowScanner) (*Stored, error) {
	var (
		stored     Stored
		fileType   string
		createdRaw string
		payload    string
	)
	if err := row.Scan(
		&stored.RunID, &stored.DeviceID, &fileType, &createdRaw,
		&stored.Report.OverallScore, &stored.Report.StructuralScore,
		&stored.Report.AttributeScore, &stored.Report.ValueScore,
		&stored.Report.TotalElementsOriginal, &stored.Report.TotalElementsReconstructed,
		&stored.Report.MissingElementCount, &stored.Report.ExtraElementCount,
		&stored.Report.MissingAttributeCount, &stored.Report.IncorrectAttributeCount,
		&payload,
	); err != nil {
		return nil, err
	}

	dialect, ok := canonicalize.ParseDialect(fileType)
	if !ok {
		return nil, fmt.Errorf("report row %s: unknown file type %q", stored.RunID, fileType)
	}
	stored.Dialect = dialect
	if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
		stored.CreatedAt = created
	}
	if err := json.Unmarshal([]byte(payload), &stored.Report.Discrepancies); err != nil {
		return nil, fmt.Errorf("decode discrepancies for %s: %w", stored.RunID, err)
	}
	return &stored, nil
}
