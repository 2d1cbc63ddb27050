// Package fact defines the evidence data model: extracted metrics and
// claims, the scopes they are tagged with, and the conflict / open-question
// records derived from them.
//
// Facts are produced by the extraction pipeline and are immutable once
// created. Re-extraction supersedes a fact set wholesale; nothing in this
// package mutates an existing fact.
package fact

import (
	"strings"
	"time"
)

// ContextUnspecified marks a fact that is not tagged to any business
// process context. It compares as a wildcard against any tagged context.
const ContextUnspecified = "unspecified"

// Certainty is the confidence the source document itself expresses about a
// fact, distinct from ExtractionConfidence (the pipeline's confidence in
// having read the document correctly).
type Certainty string

const (
	CertaintyDefinite Certainty = "definite"
	CertaintyProbable Certainty = "probable"
	CertaintyPossible Certainty = "possible"
	CertaintyDisputed Certainty = "disputed"
)

// PeriodType classifies the time window a metric value applies to.
type PeriodType string

const (
	PeriodInstant   PeriodType = "instant"
	PeriodMonthly   PeriodType = "monthly"
	PeriodQuarterly PeriodType = "quarterly"
	PeriodAnnual    PeriodType = "annual"
	PeriodTTM       PeriodType = "ttm"
	PeriodUnknown   PeriodType = "unknown"
)

// Scope identifies where a fact came from. Facts are only ever compared
// within a compatible scope: same document, and matching (or unspecified)
// profile and process context.
type Scope struct {
	DocumentID     string `json:"document_id"`
	VersionID      string `json:"version_id"`
	ProfileID      string `json:"profile_id"`
	LevelID        int    `json:"level_id"`
	ProcessContext string `json:"process_context"`
}

// ContextCompatible reports whether two scopes may be compared. Document
// identity must match exactly; profile and process context match exactly or
// via the unspecified wildcard.
func (s Scope) ContextCompatible(other Scope) bool {
	if s.DocumentID != other.DocumentID {
		return false
	}
	return wildcardEqual(s.ProfileID, other.ProfileID) &&
		wildcardEqual(s.ProcessContext, other.ProcessContext)
}

func wildcardEqual(a, b string) bool {
	if a == "" || a == ContextUnspecified || b == "" || b == ContextUnspecified {
		return true
	}
	return a == b
}

// EntityRef is a structured reference to a real-world entity a claim
// relates: a company, a certification, a person.
type EntityRef struct {
	Type string `json:"type"`
	Name string `json:"name"`
	ID   string `json:"id,omitempty"`
}

// Key returns the identity key used for grouping. Explicit IDs win;
// otherwise case-insensitive, whitespace-collapsed name plus type. Exact
// match only; no fuzzy entity resolution.
func (e EntityRef) Key() string {
	if e.ID != "" {
		return strings.ToLower(e.ID)
	}
	name := strings.ToLower(strings.Join(strings.Fields(e.Name), " "))
	return name + "/" + strings.ToLower(e.Type)
}

// IsZero reports whether the reference carries no identity at all.
func (e EntityRef) IsZero() bool {
	return e.ID == "" && strings.TrimSpace(e.Name) == ""
}

// Metric is a numeric (or qualitative) measurement extracted from a
// document: "arr = $10M for FY2024".
type Metric struct {
	ID                   string    `json:"id"`
	Scope                Scope     `json:"scope"`
	SpanRefs             []string  `json:"span_refs"`
	ExtractionConfidence float64   `json:"extraction_confidence"`
	Certainty            Certainty `json:"certainty"`
	ExtractedAt          time.Time `json:"extracted_at"`

	EntityID   string `json:"entity_id"`
	EntityType string `json:"entity_type"`
	MetricName string `json:"metric_name"`

	// ValueNumeric is nil when the extractor could not parse a number out
	// of ValueRaw; such metrics surface as open questions, never errors.
	ValueNumeric *float64 `json:"value_numeric,omitempty"`
	ValueRaw     string   `json:"value_raw"`
	Unit         string   `json:"unit,omitempty"`
	Currency     string   `json:"currency,omitempty"`

	PeriodStart *time.Time `json:"period_start,omitempty"`
	PeriodEnd   *time.Time `json:"period_end,omitempty"`
	PeriodType  PeriodType `json:"period_type"`
}

// Claim is a predicate assertion extracted from a document:
// "Acme has_soc2 = true for 2024".
type Claim struct {
	ID                   string    `json:"id"`
	Scope                Scope     `json:"scope"`
	SpanRefs             []string  `json:"span_refs"`
	ExtractionConfidence float64   `json:"extraction_confidence"`
	Certainty            Certainty `json:"certainty"`
	ExtractedAt          time.Time `json:"extracted_at"`

	Subject   EntityRef `json:"subject"`
	Object    EntityRef `json:"object"`
	Predicate string    `json:"predicate"`
	ClaimType string    `json:"claim_type,omitempty"`

	// Value holds the raw asserted value: a truthy/falsy token for boolean
	// predicates or a literal for enumerated ones. Normalization maps it to
	// one of true/false/unknown/<enum literal>.
	Value string `json:"value"`

	TimeScopeStart *time.Time `json:"time_scope_start,omitempty"`
	TimeScopeEnd   *time.Time `json:"time_scope_end,omitempty"`
}

// Set is the snapshot of facts handed to an analysis run. The analysis
// treats it as read-only.
type Set struct {
	Metrics []Metric `json:"metrics"`
	Claims  []Claim  `json:"claims"`
}

// Len returns the total number of facts in the set.
func (s Set) Len() int {
	return len(s.Metrics) + len(s.Claims)
}
