package fact

import "time"

// ConflictType classifies what kind of disagreement was detected.
type ConflictType string

const (
	ConflictMetricValue        ConflictType = "metric_value_conflict"
	ConflictClaimContradiction ConflictType = "claim_contradiction"
)

// Severity grades how bad a conflict is.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank returns an ordinal for sorting; higher is worse.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 3
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// Max returns the worse of two severities.
func (s Severity) Max(other Severity) Severity {
	if other.Rank() > s.Rank() {
		return other
	}
	return s
}

// ConflictStatus is the human-review lifecycle of a conflict. Detection
// always emits open; the rest is managed by a reviewer.
type ConflictStatus string

const (
	ConflictOpen         ConflictStatus = "open"
	ConflictAcknowledged ConflictStatus = "acknowledged"
	ConflictResolved     ConflictStatus = "resolved"
)

// Conflict records a maximal set of facts that are mutually pairwise
// incompatible: each pair in InvolvedFacts disagrees with each other.
type Conflict struct {
	ID            string         `json:"id"`
	Type          ConflictType   `json:"conflict_type"`
	Severity      Severity       `json:"severity"`
	Status        ConflictStatus `json:"status"`
	InvolvedFacts []string       `json:"involved_facts"`
	Rationale     string         `json:"rationale"`
}

// QuestionCategory classifies why a fact needs human follow-up.
type QuestionCategory string

const (
	QuestionMissingUnit     QuestionCategory = "missing_unit"
	QuestionMissingCurrency QuestionCategory = "missing_currency"
	QuestionMissingPeriod   QuestionCategory = "missing_period"
	QuestionStaleData       QuestionCategory = "stale_data"
	QuestionAmbiguousValue  QuestionCategory = "ambiguous_value"
	QuestionMissingEvidence QuestionCategory = "missing_evidence"

	// QuestionVocabularyMiss records a metric or predicate name that the
	// vocabulary registry does not know. Non-fatal; the fact is still
	// analyzed with best-effort defaults.
	QuestionVocabularyMiss QuestionCategory = "vocabulary_miss"
)

// QuestionPriority grades an open question for triage.
type QuestionPriority string

const (
	PriorityLow    QuestionPriority = "low"
	PriorityMedium QuestionPriority = "medium"
	PriorityHigh   QuestionPriority = "high"
)

// Rank returns an ordinal for sorting; higher is more urgent.
func (p QuestionPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 2
	case PriorityMedium:
		return 1
	default:
		return 0
	}
}

// QuestionStatus is the human lifecycle of an open question.
type QuestionStatus string

const (
	QuestionOpen      QuestionStatus = "open"
	QuestionAnswered  QuestionStatus = "answered"
	QuestionDismissed QuestionStatus = "dismissed"
)

// OpenQuestion flags a single fact as under-specified, ambiguous, or stale.
type OpenQuestion struct {
	ID            string           `json:"id"`
	Category      QuestionCategory `json:"category"`
	Priority      QuestionPriority `json:"priority"`
	Status        QuestionStatus   `json:"status"`
	RelatedFactID string           `json:"related_fact_id"`
	Statement     string           `json:"statement"`
}

// Summary carries the aggregate counts for one analysis run.
type Summary struct {
	TotalFacts          int                      `json:"total_facts"`
	ConflictsByType     map[ConflictType]int     `json:"conflicts_by_type"`
	ConflictsBySeverity map[Severity]int         `json:"conflicts_by_severity"`
	QuestionsByCategory map[QuestionCategory]int `json:"questions_by_category"`
	QuestionsByPriority map[QuestionPriority]int `json:"questions_by_priority"`
}

// ScopeFilter echoes the filters an analysis was run against, for caller
// traceability. Empty fields mean unfiltered.
type ScopeFilter struct {
	DocumentID     string `json:"document_id,omitempty"`
	VersionID      string `json:"version_id,omitempty"`
	ProfileID      string `json:"profile_id,omitempty"`
	LevelID        int    `json:"level_id,omitempty"`
	ProcessContext string `json:"process_context,omitempty"`
}

// AnalysisResult is the transient value object one analysis invocation
// computes. Persisting it is the caller's responsibility.
type AnalysisResult struct {
	Conflicts     []Conflict     `json:"conflicts"`
	OpenQuestions []OpenQuestion `json:"open_questions"`
	Summary       Summary        `json:"summary"`
	Scope         ScopeFilter    `json:"scope"`
	AnalyzedAt    time.Time      `json:"analyzed_at"`
}
