package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// AddDocument inserts a document. A missing ID is generated; timestamps
// default to now.
func (s *SQLiteStore) AddDocument(ctx context.Context, d *Document) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, content_type, source_path, content_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.Title, d.ContentType, d.SourcePath, d.ContentHash,
		d.CreatedAt.Format(time.RFC3339), d.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

// GetDocument fetches a document by id. Soft-deleted documents are not
// returned.
func (s *SQLiteStore) GetDocument(ctx context.Context, id string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, content_type, COALESCE(source_path, ''), content_hash, created_at, updated_at
		FROM documents WHERE id = ? AND deleted_at IS NULL`, id)
	return scanDocument(row)
}

// FindDocumentByHash finds a document whose latest content matches hash.
// Used by ingestion to dedupe byte-identical re-imports.
func (s *SQLiteStore) FindDocumentByHash(ctx context.Context, hash string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, content_type, COALESCE(source_path, ''), content_hash, created_at, updated_at
		FROM documents WHERE content_hash = ? AND deleted_at IS NULL`, hash)
	doc, err := scanDocument(row)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	return doc, err
}

// ListDocuments returns documents ordered by creation time, newest first.
func (s *SQLiteStore) ListDocuments(ctx context.Context, opts ListOpts) ([]*Document, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, content_type, COALESCE(source_path, ''), content_hash, created_at, updated_at
		FROM documents WHERE deleted_at IS NULL
		ORDER BY created_at DESC, id LIMIT ? OFFSET ?`, limit, opts.Offset)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}
	defer rows.Close()

	var out []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// DeleteDocument soft-deletes a document. Its versions, facts, and
// analysis rows stay on disk for audit but the document disappears from
// every read path.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET deleted_at = ? WHERE id = ? AND deleted_at IS NULL`,
		time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddVersion appends a version. VersionNo is assigned as max+1 when unset.
func (s *SQLiteStore) AddVersion(ctx context.Context, v *Version) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.IngestedAt.IsZero() {
		v.IngestedAt = time.Now().UTC()
	}
	if v.VersionNo <= 0 {
		var max sql.NullInt64
		err := s.db.QueryRowContext(ctx,
			`SELECT MAX(version_no) FROM document_versions WHERE document_id = ?`, v.DocumentID,
		).Scan(&max)
		if err != nil {
			return fmt.Errorf("finding last version: %w", err)
		}
		v.VersionNo = int(max.Int64) + 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO document_versions (id, document_id, version_no, content_hash, content, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.DocumentID, v.VersionNo, v.ContentHash, v.Content, v.IngestedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting version: %w", err)
	}

	// Keep the document's hash pointing at its newest content.
	_, err = s.db.ExecContext(ctx,
		`UPDATE documents SET content_hash = ?, updated_at = ? WHERE id = ?`,
		v.ContentHash, time.Now().UTC().Format(time.RFC3339), v.DocumentID,
	)
	if err != nil {
		return fmt.Errorf("updating document hash: %w", err)
	}
	return nil
}

// LatestVersion returns the highest-numbered version of a document.
func (s *SQLiteStore) LatestVersion(ctx context.Context, documentID string) (*Version, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, version_no, content_hash, content, ingested_at
		FROM document_versions WHERE document_id = ?
		ORDER BY version_no DESC LIMIT 1`, documentID)

	v := &Version{}
	var ingested string
	err := row.Scan(&v.ID, &v.DocumentID, &v.VersionNo, &v.ContentHash, &v.Content, &ingested)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning version: %w", err)
	}
	v.IngestedAt = parseTime(ingested)
	return v, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*Document, error) {
	d := &Document{}
	var created, updated string
	err := row.Scan(&d.ID, &d.Title, &d.ContentType, &d.SourcePath, &d.ContentHash, &created, &updated)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	d.CreatedAt = parseTime(created)
	d.UpdatedAt = parseTime(updated)
	return d, nil
}

// parseTime accepts both RFC3339 (our inserts) and the SQLite
// CURRENT_TIMESTAMP format (column defaults).
func parseTime(s string) time.Time {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}
