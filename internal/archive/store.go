package archive

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"retrace/internal/canonicalize"
	"retrace/internal/config"
	"retrace/internal/storage"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// ErrNotFound marks a (device, file) pair with no archived original.
var ErrNotFound = errors.New("archived original not found")

// Entry describes one archived original without its content.
type Entry struct {
	DeviceID   string
	Dialect    canonicalize.Dialect
	SHA256     string
	Size       int64
	ImportedAt time.Time
}

// Store keeps the raw archived original bytes per (device, file) pair,
// backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open initializes or connects to the archive database and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	db, err := storage.Open(cfg.ArchiveDBPath())
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

// Put archives the original bytes for a (device, file) pair, replacing any
// previous import. The original bytes are the ground truth of every later
// comparison and are stored verbatim.
func (s *Store) Put(ctx context.Context, deviceID string, dialect canonicalize.Dialect, raw []byte) error {
	if deviceID == "" {
		return errors.New("device id is empty")
	}
	if len(raw) == 0 {
		return errors.New("refusing to archive empty content")
	}
	digest := sha256.Sum256(raw)
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO archived_files (device_id, file_type, content, sha256, imported_at)
         VALUES (?, ?, ?, ?, ?)
         ON CONFLICT (device_id, file_type)
         DO UPDATE SET content = excluded.content, sha256 = excluded.sha256, imported_at = excluded.imported_at`,
		deviceID,
		string(dialect),
		raw,
		hex.EncodeToString(digest[:]),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("archive original: %w", err)
	}
	return nil
}

// Original returns the archived bytes for a (device, file) pair. The stored
// checksum is verified on the way out so silent corruption surfaces as an
// error instead of a meaningless comparison.
func (s *Store) Original(ctx context.Context, deviceID string, dialect canonicalize.Dialect) ([]byte, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT content, sha256 FROM archived_files WHERE device_id = ? AND file_type = ?`,
		deviceID,
		string(dialect),
	)
	var (
		content []byte
		stored  string
	)
	if err := row.Scan(&content, &stored); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, deviceID, dialect)
		}
		return nil, fmt.Errorf("get archived original: %w", err)
	}
	digest := sha256.Sum256(content)
	if hex.EncodeToString(digest[:]) != stored {
		return nil, fmt.Errorf("archived original %s/%s failed checksum verification", deviceID, dialect)
	}
	return content, nil
}

// List returns every archived (device, file) pair ordered by device id then
// file type, which is the batch dispatch order.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT device_id, file_type, sha256, LENGTH(content), imported_at
         FROM archived_files ORDER BY device_id, file_type`,
	)
	if err != nil {
		return nil, fmt.Errorf("list archived originals: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry       Entry
			fileType    string
			importedRaw string
		)
		if err := rows.Scan(&entry.DeviceID, &fileType, &entry.SHA256, &entry.Size, &importedRaw); err != nil {
			return nil, err
		}
		dialect, ok := canonicalize.ParseDialect(fileType)
		if !ok {
			return nil, fmt.Errorf("archived row %s: unknown file type %q", entry.DeviceID, fileType)
		}
		entry.Dialect = dialect
		if imported, err := time.Parse(time.RFC3339Nano, importedRaw); err == nil {
			entry.ImportedAt = imported
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
