package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/veridex/veridex/internal/fact"
)

// AddFacts inserts all metrics and claims of a set in one transaction.
// Missing fact ids are generated; scope fields are stored denormalized so
// analysis reads need no joins.
func (s *SQLiteStore) AddFacts(ctx context.Context, set fact.Set) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning fact transaction: %w", err)
	}
	defer tx.Rollback()

	metricStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO metric_facts (
			id, document_id, version_id, profile_id, level_id, process_context,
			entity_id, entity_type, metric_name, value_numeric, value_raw,
			unit, currency, period_start, period_end, period_type,
			span_refs, confidence, certainty, extracted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing metric insert: %w", err)
	}
	defer metricStmt.Close()

	for i := range set.Metrics {
		m := &set.Metrics[i]
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		if m.ExtractedAt.IsZero() {
			m.ExtractedAt = time.Now().UTC()
		}
		spans, err := json.Marshal(m.SpanRefs)
		if err != nil {
			return fmt.Errorf("encoding span refs for %s: %w", m.ID, err)
		}
		_, err = metricStmt.ExecContext(ctx,
			m.ID, m.Scope.DocumentID, m.Scope.VersionID, m.Scope.ProfileID,
			m.Scope.LevelID, m.Scope.ProcessContext,
			m.EntityID, m.EntityType, m.MetricName,
			nullFloat(m.ValueNumeric), m.ValueRaw,
			m.Unit, m.Currency,
			nullTime(m.PeriodStart), nullTime(m.PeriodEnd), string(m.PeriodType),
			string(spans), m.ExtractionConfidence, string(m.Certainty),
			m.ExtractedAt.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("inserting metric %s: %w", m.ID, err)
		}
	}

	claimStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO claim_facts (
			id, document_id, version_id, profile_id, level_id, process_context,
			subject_type, subject_name, subject_id,
			object_type, object_name, object_id,
			predicate, claim_type, value, time_scope_start, time_scope_end,
			span_refs, confidence, certainty, extracted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing claim insert: %w", err)
	}
	defer claimStmt.Close()

	for i := range set.Claims {
		c := &set.Claims[i]
		if c.ID == "" {
			c.ID = uuid.NewString()
		}
		if c.ExtractedAt.IsZero() {
			c.ExtractedAt = time.Now().UTC()
		}
		spans, err := json.Marshal(c.SpanRefs)
		if err != nil {
			return fmt.Errorf("encoding span refs for %s: %w", c.ID, err)
		}
		_, err = claimStmt.ExecContext(ctx,
			c.ID, c.Scope.DocumentID, c.Scope.VersionID, c.Scope.ProfileID,
			c.Scope.LevelID, c.Scope.ProcessContext,
			c.Subject.Type, c.Subject.Name, c.Subject.ID,
			c.Object.Type, c.Object.Name, c.Object.ID,
			c.Predicate, c.ClaimType, c.Value,
			nullTime(c.TimeScopeStart), nullTime(c.TimeScopeEnd),
			string(spans), c.ExtractionConfidence, string(c.Certainty),
			c.ExtractedAt.Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("inserting claim %s: %w", c.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing facts: %w", err)
	}
	return nil
}

// FactsForDocument loads the full fact snapshot for one document.
func (s *SQLiteStore) FactsForDocument(ctx context.Context, documentID string) (fact.Set, error) {
	var set fact.Set

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, version_id, profile_id, level_id, process_context,
			entity_id, COALESCE(entity_type, ''), metric_name, value_numeric, COALESCE(value_raw, ''),
			COALESCE(unit, ''), COALESCE(currency, ''), period_start, period_end, period_type,
			span_refs, confidence, certainty, extracted_at
		FROM metric_facts WHERE document_id = ? ORDER BY id`, documentID)
	if err != nil {
		return set, fmt.Errorf("querying metrics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m fact.Metric
		var value sql.NullFloat64
		var periodStart, periodEnd sql.NullString
		var periodType, spans, certainty, extracted string
		err := rows.Scan(
			&m.ID, &m.Scope.DocumentID, &m.Scope.VersionID, &m.Scope.ProfileID,
			&m.Scope.LevelID, &m.Scope.ProcessContext,
			&m.EntityID, &m.EntityType, &m.MetricName, &value, &m.ValueRaw,
			&m.Unit, &m.Currency, &periodStart, &periodEnd, &periodType,
			&spans, &m.ExtractionConfidence, &certainty, &extracted,
		)
		if err != nil {
			return set, fmt.Errorf("scanning metric: %w", err)
		}
		if value.Valid {
			v := value.Float64
			m.ValueNumeric = &v
		}
		m.PeriodStart = timePtr(periodStart)
		m.PeriodEnd = timePtr(periodEnd)
		m.PeriodType = fact.PeriodType(periodType)
		m.Certainty = fact.Certainty(certainty)
		m.ExtractedAt = parseTime(extracted)
		if err := json.Unmarshal([]byte(spans), &m.SpanRefs); err != nil {
			return set, fmt.Errorf("decoding span refs for %s: %w", m.ID, err)
		}
		set.Metrics = append(set.Metrics, m)
	}
	if err := rows.Err(); err != nil {
		return set, err
	}

	claimRows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, version_id, profile_id, level_id, process_context,
			COALESCE(subject_type, ''), COALESCE(subject_name, ''), COALESCE(subject_id, ''),
			COALESCE(object_type, ''), COALESCE(object_name, ''), COALESCE(object_id, ''),
			predicate, COALESCE(claim_type, ''), COALESCE(value, ''),
			time_scope_start, time_scope_end,
			span_refs, confidence, certainty, extracted_at
		FROM claim_facts WHERE document_id = ? ORDER BY id`, documentID)
	if err != nil {
		return set, fmt.Errorf("querying claims: %w", err)
	}
	defer claimRows.Close()

	for claimRows.Next() {
		var c fact.Claim
		var start, end sql.NullString
		var spans, certainty, extracted string
		err := claimRows.Scan(
			&c.ID, &c.Scope.DocumentID, &c.Scope.VersionID, &c.Scope.ProfileID,
			&c.Scope.LevelID, &c.Scope.ProcessContext,
			&c.Subject.Type, &c.Subject.Name, &c.Subject.ID,
			&c.Object.Type, &c.Object.Name, &c.Object.ID,
			&c.Predicate, &c.ClaimType, &c.Value,
			&start, &end,
			&spans, &c.ExtractionConfidence, &certainty, &extracted,
		)
		if err != nil {
			return set, fmt.Errorf("scanning claim: %w", err)
		}
		c.TimeScopeStart = timePtr(start)
		c.TimeScopeEnd = timePtr(end)
		c.Certainty = fact.Certainty(certainty)
		c.ExtractedAt = parseTime(extracted)
		if err := json.Unmarshal([]byte(spans), &c.SpanRefs); err != nil {
			return set, fmt.Errorf("decoding span refs for %s: %w", c.ID, err)
		}
		set.Claims = append(set.Claims, c)
	}
	return set, claimRows.Err()
}

// DeleteFactsForVersion removes all facts extracted from one version, used
// before re-extraction.
func (s *SQLiteStore) DeleteFactsForVersion(ctx context.Context, versionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM metric_facts WHERE version_id = ?`, versionID); err != nil {
		return fmt.Errorf("deleting metrics: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM claim_facts WHERE version_id = ?`, versionID); err != nil {
		return fmt.Errorf("deleting claims: %w", err)
	}
	return tx.Commit()
}

func nullFloat(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func timePtr(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t := parseTime(s.String)
	if t.IsZero() {
		return nil
	}
	return &t
}
