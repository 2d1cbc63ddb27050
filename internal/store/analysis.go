package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/veridex/veridex/internal/fact"
)

// SaveAnalysis persists one analysis result as a run plus its conflicts and
// open questions. Conflict and question ids are content-derived, so rows
// from earlier runs upsert in place and their acknowledged/resolved status
// survives re-analysis.
func (s *SQLiteStore) SaveAnalysis(ctx context.Context, documentID string, result *fact.AnalysisResult) (*Run, error) {
	run := &Run{
		ID:            uuid.NewString(),
		DocumentID:    documentID,
		ProfileID:     result.Scope.ProfileID,
		LevelID:       result.Scope.LevelID,
		TotalFacts:    result.Summary.TotalFacts,
		ConflictCount: len(result.Conflicts),
		QuestionCount: len(result.OpenQuestions),
		AnalyzedAt:    result.AnalyzedAt,
	}
	if run.AnalyzedAt.IsZero() {
		run.AnalyzedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning analysis transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO analysis_runs (id, document_id, profile_id, level_id, total_facts, conflict_count, question_count, analyzed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.DocumentID, run.ProfileID, run.LevelID,
		run.TotalFacts, run.ConflictCount, run.QuestionCount,
		run.AnalyzedAt.Format(time.RFC3339),
	)
	if err != nil {
		return nil, fmt.Errorf("inserting run: %w", err)
	}

	for _, c := range result.Conflicts {
		involved, err := json.Marshal(c.InvolvedFacts)
		if err != nil {
			return nil, fmt.Errorf("encoding involved facts for %s: %w", c.ID, err)
		}
		// ON CONFLICT keeps the existing status; everything else refreshes.
		_, err = tx.ExecContext(ctx, `
			INSERT INTO conflicts (id, run_id, document_id, conflict_type, severity, status, involved_facts, rationale)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				run_id = excluded.run_id,
				severity = excluded.severity,
				involved_facts = excluded.involved_facts,
				rationale = excluded.rationale`,
			c.ID, run.ID, documentID, string(c.Type), string(c.Severity),
			string(c.Status), string(involved), c.Rationale,
		)
		if err != nil {
			return nil, fmt.Errorf("upserting conflict %s: %w", c.ID, err)
		}
	}

	for _, q := range result.OpenQuestions {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO open_questions (id, run_id, document_id, category, priority, status, related_fact_id, statement)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				run_id = excluded.run_id,
				priority = excluded.priority,
				statement = excluded.statement`,
			q.ID, run.ID, documentID, string(q.Category), string(q.Priority),
			string(q.Status), q.RelatedFactID, q.Statement,
		)
		if err != nil {
			return nil, fmt.Errorf("upserting question %s: %w", q.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing analysis: %w", err)
	}
	return run, nil
}

// LatestRun returns the most recent analysis run for a document.
func (s *SQLiteStore) LatestRun(ctx context.Context, documentID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, COALESCE(profile_id, ''), COALESCE(level_id, 0),
			total_facts, conflict_count, question_count, analyzed_at
		FROM analysis_runs WHERE document_id = ?
		ORDER BY analyzed_at DESC, id LIMIT 1`, documentID)

	run := &Run{}
	var analyzed string
	err := row.Scan(&run.ID, &run.DocumentID, &run.ProfileID, &run.LevelID,
		&run.TotalFacts, &run.ConflictCount, &run.QuestionCount, &analyzed)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning run: %w", err)
	}
	run.AnalyzedAt = parseTime(analyzed)
	return run, nil
}

// ListConflicts returns a document's conflicts ordered by severity rank.
func (s *SQLiteStore) ListConflicts(ctx context.Context, documentID string, opts ListOpts) ([]*fact.Conflict, error) {
	query := `
		SELECT id, conflict_type, severity, status, involved_facts, rationale
		FROM conflicts WHERE document_id = ?`
	args := []any{documentID}
	if opts.Status != "" {
		query += " AND status = ?"
		args = append(args, opts.Status)
	}
	if opts.Severity != "" {
		query += " AND severity = ?"
		args = append(args, opts.Severity)
	}
	query += `
		ORDER BY CASE severity
			WHEN 'critical' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3
		END, id`
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing conflicts: %w", err)
	}
	defer rows.Close()

	var out []*fact.Conflict
	for rows.Next() {
		c := &fact.Conflict{}
		var typ, severity, status, involved string
		if err := rows.Scan(&c.ID, &typ, &severity, &status, &involved, &c.Rationale); err != nil {
			return nil, fmt.Errorf("scanning conflict: %w", err)
		}
		c.Type = fact.ConflictType(typ)
		c.Severity = fact.Severity(severity)
		c.Status = fact.ConflictStatus(status)
		if err := json.Unmarshal([]byte(involved), &c.InvolvedFacts); err != nil {
			return nil, fmt.Errorf("decoding involved facts for %s: %w", c.ID, err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListOpenQuestions returns a document's open questions ordered by priority.
func (s *SQLiteStore) ListOpenQuestions(ctx context.Context, documentID string, opts ListOpts) ([]*fact.OpenQuestion, error) {
	query := `
		SELECT id, category, priority, status, related_fact_id, statement
		FROM open_questions WHERE document_id = ?`
	args := []any{documentID}
	if opts.Status != "" {
		query += " AND status = ?"
		args = append(args, opts.Status)
	}
	query += `
		ORDER BY CASE priority
			WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2
		END, category, id`
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing questions: %w", err)
	}
	defer rows.Close()

	var out []*fact.OpenQuestion
	for rows.Next() {
		q := &fact.OpenQuestion{}
		var category, priority, status string
		if err := rows.Scan(&q.ID, &category, &priority, &status, &q.RelatedFactID, &q.Statement); err != nil {
			return nil, fmt.Errorf("scanning question: %w", err)
		}
		q.Category = fact.QuestionCategory(category)
		q.Priority = fact.QuestionPriority(priority)
		q.Status = fact.QuestionStatus(status)
		out = append(out, q)
	}
	return out, rows.Err()
}

// UpdateConflictStatus transitions a conflict's triage status.
func (s *SQLiteStore) UpdateConflictStatus(ctx context.Context, conflictID string, status fact.ConflictStatus) error {
	if !validConflictStatus(status) {
		return fmt.Errorf("invalid conflict status %q", status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE conflicts SET status = ? WHERE id = ?`, string(status), conflictID)
	if err != nil {
		return fmt.Errorf("updating conflict status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("conflict %s: %w", conflictID, ErrNotFound)
	}
	return nil
}

// UpdateQuestionStatus transitions an open question's triage status.
func (s *SQLiteStore) UpdateQuestionStatus(ctx context.Context, questionID string, status fact.QuestionStatus) error {
	if !validQuestionStatus(status) {
		return fmt.Errorf("invalid question status %q", status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE open_questions SET status = ? WHERE id = ?`, string(status), questionID)
	if err != nil {
		return fmt.Errorf("updating question status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("question %s: %w", questionID, ErrNotFound)
	}
	return nil
}

func validConflictStatus(s fact.ConflictStatus) bool {
	switch fact.ConflictStatus(strings.ToLower(string(s))) {
	case fact.ConflictOpen, fact.ConflictAcknowledged, fact.ConflictResolved:
		return true
	}
	return false
}

func validQuestionStatus(s fact.QuestionStatus) bool {
	switch fact.QuestionStatus(strings.ToLower(string(s))) {
	case fact.QuestionOpen, fact.QuestionAnswered, fact.QuestionDismissed:
		return true
	}
	return false
}
