// Package quality is the consistency-analysis engine. It takes a snapshot
// of extracted facts for one document scope and deterministically derives
// conflicts (semantically incompatible facts about the same quantity or
// predicate) and open questions (facts too incomplete, ambiguous, or stale
// to act on).
//
// The computation is pure and total: it never mutates its input, performs
// no I/O, and either returns a complete result or a single structured
// error naming the malformed fact. Anything short of a missing identity
// field degrades into a result-set signal instead of a failure.
package quality

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/veridex/veridex/internal/fact"
	"github.com/veridex/veridex/internal/normalize"
	"github.com/veridex/veridex/internal/vocab"
)

// Options carries the comparison thresholds. The defaults reflect the
// product's documented behavior but are deliberately configurable.
type Options struct {
	// RelativeTolerance is the exclusive boundary for metric value
	// disagreement: two values conflict only when their relative
	// difference strictly exceeds it.
	RelativeTolerance float64

	// AbsoluteTolerance replaces the relative test when either value is
	// near zero.
	AbsoluteTolerance float64

	// HighCutoff and CriticalCutoff are the relative-difference thresholds
	// for high and critical severity.
	HighCutoff     float64
	CriticalCutoff float64

	// StaleAfterMonths is how old a fact's period end (or extraction
	// timestamp) may be before it is flagged stale.
	StaleAfterMonths int

	// Now anchors staleness checks and the result timestamp. Injected so
	// runs are reproducible.
	Now time.Time
}

// DefaultOptions returns the standard thresholds: 5% relative, 0.01
// absolute, 20%/50% severity cutoffs, 12-month staleness.
func DefaultOptions() Options {
	return Options{
		RelativeTolerance: 0.05,
		AbsoluteTolerance: 0.01,
		HighCutoff:        0.20,
		CriticalCutoff:    0.50,
		StaleAfterMonths:  12,
		Now:               time.Now().UTC(),
	}
}

// MalformedFactError reports a fact whose identity fields are too
// incomplete to group. It is the only error Analyze returns for
// well-formed option inputs; the caller may drop the fact and retry.
type MalformedFactError struct {
	FactID string
	Reason string
}

func (e *MalformedFactError) Error() string {
	return fmt.Sprintf("malformed fact %s: %s", e.FactID, e.Reason)
}

// Analyze runs the full consistency analysis over a fact snapshot.
//
// The snapshot is treated as read-only; concurrent analyses over
// overlapping scopes never interfere. The registry supplies per-profile
// vocabularies; facts whose profile is unknown fall back to the registry
// default and are flagged with a vocabulary-miss question, not an error.
func Analyze(set fact.Set, filter fact.ScopeFilter, reg *vocab.Registry, opts Options) (*fact.AnalysisResult, error) {
	if opts.Now.IsZero() {
		opts.Now = time.Now().UTC()
	}

	if err := validateIdentities(set); err != nil {
		return nil, err
	}

	metrics := make([]normalize.Metric, 0, len(set.Metrics))
	for _, m := range set.Metrics {
		metrics = append(metrics, normalize.NormalizeMetric(m, reg.Profile(m.Scope.ProfileID)))
	}
	claims := make([]normalize.Claim, 0, len(set.Claims))
	for _, c := range set.Claims {
		claims = append(claims, normalize.NormalizeClaim(c, reg.Profile(c.Scope.ProfileID)))
	}

	conflicts := detectMetricConflicts(metrics, reg, opts)
	conflicts = append(conflicts, detectClaimContradictions(claims, reg)...)
	questions := detectOpenQuestions(metrics, claims, reg, opts)

	return assemble(conflicts, questions, set.Len(), filter, opts.Now), nil
}

func validateIdentities(set fact.Set) error {
	for _, m := range set.Metrics {
		if strings.TrimSpace(m.EntityID) == "" {
			return &MalformedFactError{FactID: m.ID, Reason: "metric has no entity_id"}
		}
		if strings.TrimSpace(m.MetricName) == "" {
			return &MalformedFactError{FactID: m.ID, Reason: "metric has no metric_name"}
		}
	}
	for _, c := range set.Claims {
		if c.Subject.IsZero() {
			return &MalformedFactError{FactID: c.ID, Reason: "claim has no subject identity"}
		}
		if strings.TrimSpace(c.Predicate) == "" {
			return &MalformedFactError{FactID: c.ID, Reason: "claim has no predicate"}
		}
	}
	return nil
}

// stableID derives a deterministic identifier from the item's defining
// parts, so repeated runs over the same snapshot produce identical output.
func stableID(kind string, parts ...string) string {
	h := sha256.New()
	h.Write([]byte(kind))
	for _, p := range parts {
		h.Write([]byte{0})
		h.Write([]byte(p))
	}
	return kind + "-" + hex.EncodeToString(h.Sum(nil))[:16]
}
