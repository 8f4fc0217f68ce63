package artifact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/mrz1836/docsign/internal/domain"
)

const busyTimeoutMs = 5000

// SQLiteStore keeps each document as one row holding both content and
// metadata, so every write and delete is a single-row statement.
type SQLiteStore struct {
	db   *sql.DB
	file string
}

// OpenSQLite opens (creating if needed) the database at path.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve db path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(absPath), 0o750); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	connStr := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)", filepath.Clean(absPath), busyTimeoutMs)
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &SQLiteStore{db: db, file: absPath}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the database file.
func (s *SQLiteStore) Path() string {
	return s.file
}

func (s *SQLiteStore) ensureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS documents (
		ref TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		identity TEXT NOT NULL,
		size INTEGER NOT NULL,
		uploaded_at TEXT NOT NULL,
		public_key TEXT NOT NULL DEFAULT '',
		signature TEXT NOT NULL DEFAULT '',
		date_created TEXT NOT NULL DEFAULT '',
		content BLOB NOT NULL
	)`); err != nil {
		return fmt.Errorf("create documents table: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`CREATE INDEX IF NOT EXISTS documents_identity ON documents (identity, uploaded_at)`); err != nil {
		return fmt.Errorf("create documents index: %w", err)
	}
	return nil
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, rec *domain.DocumentRecord, content []byte) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	r := newRow(rec, int64(len(content)))
	if content == nil {
		content = []byte{}
	}

	_, err := s.db.ExecContext(ctx, `INSERT INTO documents
		(ref, name, identity, size, uploaded_at, public_key, signature, date_created, content)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Ref, r.Name, r.Identity, r.Size, r.UploadedAt.Format(time.RFC3339Nano),
		r.Metadata.PublicKey, r.Metadata.Signature, r.Metadata.DateCreated, content)
	if err != nil {
		if isUniqueViolation(err) {
			return exists(rec.Ref)
		}
		return unavailable(ctx, "insert", err)
	}
	return nil
}

// Get implements Store.
func (s *SQLiteStore) Get(ctx context.Context, ref string) (*domain.DocumentRecord, error) {
	r, err := scanRow(s.db.QueryRowContext(ctx, `SELECT
		ref, name, identity, size, uploaded_at, public_key, signature, date_created
		FROM documents WHERE ref = ?`, ref))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(ref)
	}
	if err != nil {
		return nil, unavailable(ctx, "select", err)
	}
	return r.record(), nil
}

// Content implements Store.
func (s *SQLiteStore) Content(ctx context.Context, ref string) ([]byte, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx, `SELECT content FROM documents WHERE ref = ?`, ref).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(ref)
	}
	if err != nil {
		return nil, unavailable(ctx, "select content", err)
	}
	return content, nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, identity domain.Identity) ([]*domain.DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT
		ref, name, identity, size, uploaded_at, public_key, signature, date_created
		FROM documents WHERE identity = ?`, identity.String())
	if err != nil {
		return nil, unavailable(ctx, "list", err)
	}
	defer func() { _ = rows.Close() }()

	recs := make([]*domain.DocumentRecord, 0)
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, unavailable(ctx, "scan", err)
		}
		recs = append(recs, r.record())
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable(ctx, "list", err)
	}
	sortNewestFirst(recs)
	return recs, nil
}

// Delete implements Store.
func (s *SQLiteStore) Delete(ctx context.Context, ref string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE ref = ?`, ref)
	if err != nil {
		return unavailable(ctx, "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return unavailable(ctx, "delete", err)
	}
	if n == 0 {
		return notFound(ref)
	}
	return nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(sc scanner) (row, error) {
	var (
		r          row
		uploadedAt string
	)
	if err := sc.Scan(&r.Ref, &r.Name, &r.Identity, &r.Size, &uploadedAt,
		&r.Metadata.PublicKey, &r.Metadata.Signature, &r.Metadata.DateCreated); err != nil {
		return row{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, uploadedAt)
	if err != nil {
		return row{}, fmt.Errorf("parse uploaded_at: %w", err)
	}
	r.UploadedAt = ts
	return r, nil
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}
