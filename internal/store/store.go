// Package store provides the SQLite storage layer for Veridex.
//
// All repository data lives in a single SQLite database file:
// - Documents with provenance and content hashes
// - Document versions (append-only; new content becomes a new version)
// - Extracted facts (metrics and claims) keyed by document version
// - Analysis runs with their conflicts and open questions
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/veridex/veridex/internal/fact"
)

// DefaultDBPath is the default database location.
const DefaultDBPath = "~/.veridex/veridex.db"

// DefaultBatchSize is the default batch size for bulk fact inserts.
const DefaultBatchSize = 500

// Document is an ingested source document.
type Document struct {
	ID          string
	Title       string
	ContentType string
	SourcePath  string
	ContentHash string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Version is one immutable snapshot of a document's content. Re-ingesting
// changed content appends a version; facts reference the version they were
// extracted from.
type Version struct {
	ID          string
	DocumentID  string
	VersionNo   int
	ContentHash string
	Content     string
	IngestedAt  time.Time
}

// Run is one persisted analysis execution over a document scope.
type Run struct {
	ID            string
	DocumentID    string
	ProfileID     string
	LevelID       int
	TotalFacts    int
	ConflictCount int
	QuestionCount int
	AnalyzedAt    time.Time
}

// ListOpts controls pagination and filtering for list operations.
type ListOpts struct {
	Limit    int
	Offset   int
	Status   string // filter conflicts/questions by status
	Severity string // filter conflicts by severity
}

// Stats holds observability counts for the repository.
type Stats struct {
	DocumentCount int64
	VersionCount  int64
	MetricCount   int64
	ClaimCount    int64
	RunCount      int64
	ConflictCount int64
	QuestionCount int64
	DBSizeBytes   int64
}

// Config holds configuration for Open.
type Config struct {
	DBPath    string
	BatchSize int
}

// Store defines the repository storage interface.
type Store interface {
	// Documents
	AddDocument(ctx context.Context, d *Document) error
	GetDocument(ctx context.Context, id string) (*Document, error)
	ListDocuments(ctx context.Context, opts ListOpts) ([]*Document, error)
	FindDocumentByHash(ctx context.Context, hash string) (*Document, error)
	DeleteDocument(ctx context.Context, id string) error

	// Versions
	AddVersion(ctx context.Context, v *Version) error
	LatestVersion(ctx context.Context, documentID string) (*Version, error)

	// Facts
	AddFacts(ctx context.Context, set fact.Set) error
	FactsForDocument(ctx context.Context, documentID string) (fact.Set, error)
	DeleteFactsForVersion(ctx context.Context, versionID string) error

	// Analysis
	SaveAnalysis(ctx context.Context, documentID string, result *fact.AnalysisResult) (*Run, error)
	LatestRun(ctx context.Context, documentID string) (*Run, error)
	ListConflicts(ctx context.Context, documentID string, opts ListOpts) ([]*fact.Conflict, error)
	ListOpenQuestions(ctx context.Context, documentID string, opts ListOpts) ([]*fact.OpenQuestion, error)
	UpdateConflictStatus(ctx context.Context, conflictID string, status fact.ConflictStatus) error
	UpdateQuestionStatus(ctx context.Context, questionID string, status fact.QuestionStatus) error

	// Observability
	Stats(ctx context.Context) (*Stats, error)

	// Maintenance
	Vacuum(ctx context.Context) error
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db        *sql.DB
	dbPath    string
	batchSize int
}

// Open creates a new SQLite-backed Store.
// Pass ":memory:" for in-memory databases (testing).
func Open(cfg Config) (Store, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = expandPath(DefaultDBPath)
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}

	if cfg.DBPath != ":memory:" {
		dir := filepath.Dir(cfg.DBPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", p, err)
		}
	}

	s := &SQLiteStore{
		db:        db,
		dbPath:    cfg.DBPath,
		batchSize: cfg.BatchSize,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Vacuum runs VACUUM on the database. Manual only, never automatic.
func (s *SQLiteStore) Vacuum(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "VACUUM")
	return err
}

// Stats returns repository-wide counts.
func (s *SQLiteStore) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{}
	counts := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM documents WHERE deleted_at IS NULL", &stats.DocumentCount},
		{"SELECT COUNT(*) FROM document_versions", &stats.VersionCount},
		{"SELECT COUNT(*) FROM metric_facts", &stats.MetricCount},
		{"SELECT COUNT(*) FROM claim_facts", &stats.ClaimCount},
		{"SELECT COUNT(*) FROM analysis_runs", &stats.RunCount},
		{"SELECT COUNT(*) FROM conflicts", &stats.ConflictCount},
		{"SELECT COUNT(*) FROM open_questions", &stats.QuestionCount},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("counting (%s): %w", c.query, err)
		}
	}

	if s.dbPath != ":memory:" {
		if info, err := os.Stat(s.dbPath); err == nil {
			stats.DBSizeBytes = info.Size()
		}
	}
	return stats, nil
}

// expandPath expands ~ to the home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
