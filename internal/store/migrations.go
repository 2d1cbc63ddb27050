package store

import (
	"database/sql"
	"fmt"
	"time"
)

// migrate creates all tables if they don't exist and seeds metadata.
// Every step is idempotent; reopening an existing database is a no-op.
func (s *SQLiteStore) migrate() error {
	bootstrapDone, err := s.isMetaFlagEnabled("schema_bootstrap_complete")
	if err != nil {
		return fmt.Errorf("checking bootstrap state: %w", err)
	}

	if !bootstrapDone {
		if err := s.runBootstrapDDL(); err != nil {
			return err
		}
	}

	if err := s.seedMeta(); err != nil {
		return fmt.Errorf("seeding metadata: %w", err)
	}

	if !bootstrapDone {
		if err := s.setMetaFlag("schema_bootstrap_complete"); err != nil {
			return fmt.Errorf("marking bootstrap complete: %w", err)
		}
	}

	return nil
}

func (s *SQLiteStore) runBootstrapDDL() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id           TEXT PRIMARY KEY,
			title        TEXT NOT NULL,
			content_type TEXT NOT NULL,
			source_path  TEXT,
			content_hash TEXT UNIQUE NOT NULL,
			created_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at   DATETIME DEFAULT CURRENT_TIMESTAMP,
			deleted_at   DATETIME
		)`,

		// Versions are append-only. Re-ingesting changed content adds a row;
		// nothing is overwritten.
		`CREATE TABLE IF NOT EXISTS document_versions (
			id           TEXT PRIMARY KEY,
			document_id  TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			version_no   INTEGER NOT NULL,
			content_hash TEXT NOT NULL,
			content      TEXT NOT NULL,
			ingested_at  DATETIME DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(document_id, version_no)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_versions_document ON document_versions(document_id, version_no)`,

		`CREATE TABLE IF NOT EXISTS metric_facts (
			id              TEXT PRIMARY KEY,
			document_id     TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			version_id      TEXT NOT NULL REFERENCES document_versions(id) ON DELETE CASCADE,
			profile_id      TEXT NOT NULL,
			level_id        INTEGER NOT NULL DEFAULT 1,
			process_context TEXT NOT NULL DEFAULT 'unspecified',
			entity_id       TEXT NOT NULL,
			entity_type     TEXT,
			metric_name     TEXT NOT NULL,
			value_numeric   REAL,
			value_raw       TEXT,
			unit            TEXT,
			currency        TEXT,
			period_start    DATETIME,
			period_end      DATETIME,
			period_type     TEXT NOT NULL DEFAULT 'unknown',
			span_refs       TEXT NOT NULL DEFAULT '[]',
			confidence      REAL NOT NULL DEFAULT 1.0,
			certainty       TEXT NOT NULL DEFAULT 'probable',
			extracted_at    DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_metric_facts_document ON metric_facts(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_metric_facts_entity ON metric_facts(document_id, entity_id, metric_name)`,

		`CREATE TABLE IF NOT EXISTS claim_facts (
			id               TEXT PRIMARY KEY,
			document_id      TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			version_id       TEXT NOT NULL REFERENCES document_versions(id) ON DELETE CASCADE,
			profile_id       TEXT NOT NULL,
			level_id         INTEGER NOT NULL DEFAULT 1,
			process_context  TEXT NOT NULL DEFAULT 'unspecified',
			subject_type     TEXT,
			subject_name     TEXT,
			subject_id       TEXT,
			object_type      TEXT,
			object_name      TEXT,
			object_id        TEXT,
			predicate        TEXT NOT NULL,
			claim_type       TEXT,
			value            TEXT,
			time_scope_start DATETIME,
			time_scope_end   DATETIME,
			span_refs        TEXT NOT NULL DEFAULT '[]',
			confidence       REAL NOT NULL DEFAULT 1.0,
			certainty        TEXT NOT NULL DEFAULT 'probable',
			extracted_at     DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_claim_facts_document ON claim_facts(document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_claim_facts_subject ON claim_facts(document_id, subject_name, predicate)`,

		`CREATE TABLE IF NOT EXISTS analysis_runs (
			id             TEXT PRIMARY KEY,
			document_id    TEXT NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			profile_id     TEXT,
			level_id       INTEGER,
			total_facts    INTEGER NOT NULL DEFAULT 0,
			conflict_count INTEGER NOT NULL DEFAULT 0,
			question_count INTEGER NOT NULL DEFAULT 0,
			analyzed_at    DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_runs_document ON analysis_runs(document_id, analyzed_at)`,

		// Conflict ids are content-derived, so re-analyzing an unchanged
		// snapshot upserts rather than duplicates. Status survives re-runs.
		`CREATE TABLE IF NOT EXISTS conflicts (
			id             TEXT PRIMARY KEY,
			run_id         TEXT NOT NULL REFERENCES analysis_runs(id) ON DELETE CASCADE,
			document_id    TEXT NOT NULL,
			conflict_type  TEXT NOT NULL,
			severity       TEXT NOT NULL,
			status         TEXT NOT NULL DEFAULT 'open',
			involved_facts TEXT NOT NULL,
			rationale      TEXT NOT NULL,
			created_at     DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_conflicts_document ON conflicts(document_id, status)`,
		`CREATE INDEX IF NOT EXISTS idx_conflicts_severity ON conflicts(document_id, severity)`,

		`CREATE TABLE IF NOT EXISTS open_questions (
			id              TEXT PRIMARY KEY,
			run_id          TEXT NOT NULL REFERENCES analysis_runs(id) ON DELETE CASCADE,
			document_id     TEXT NOT NULL,
			category        TEXT NOT NULL,
			priority        TEXT NOT NULL,
			status          TEXT NOT NULL DEFAULT 'open',
			related_fact_id TEXT NOT NULL,
			statement       TEXT NOT NULL,
			created_at      DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_questions_document ON open_questions(document_id, status)`,

		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT
		)`,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning migration transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("executing migration %q: %w", truncate(stmt, 80), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration: %w", err)
	}

	return nil
}

func (s *SQLiteStore) isMetaFlagEnabled(key string) (bool, error) {
	var exists int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='meta'`).Scan(&exists); err != nil {
		return false, err
	}
	if exists == 0 {
		return false, nil
	}

	var value string
	err := s.db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return value == "true", nil
}

func (s *SQLiteStore) setMetaFlag(key string) error {
	_, err := s.db.Exec("INSERT OR REPLACE INTO meta (key, value) VALUES (?, 'true')", key)
	return err
}

// seedMeta initializes the meta table with defaults if not already set.
func (s *SQLiteStore) seedMeta() error {
	defaults := map[string]string{
		"schema_version": "1",
		"created_at":     time.Now().UTC().Format(time.RFC3339),
	}

	for k, v := range defaults {
		_, err := s.db.Exec(
			"INSERT OR IGNORE INTO meta (key, value) VALUES (?, ?)", k, v,
		)
		if err != nil {
			return fmt.Errorf("seeding meta key %q: %w", k, err)
		}
	}
	return nil
}

// truncate shortens a string for error messages.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
