package quality

import (
	"fmt"
	"time"

	"github.com/veridex/veridex/internal/fact"
	"github.com/veridex/veridex/internal/normalize"
	"github.com/veridex/veridex/internal/vocab"
)

// detectOpenQuestions evaluates every per-fact completeness rule
// independently. Rules are order-insensitive and several may fire on the
// same fact, each producing its own question.
func detectOpenQuestions(metrics []normalize.Metric, claims []normalize.Claim, reg *vocab.Registry, opts Options) []fact.OpenQuestion {
	var out []fact.OpenQuestion
	for i := range metrics {
		voc := reg.Profile(metrics[i].Scope.ProfileID)
		out = append(out, metricQuestions(&metrics[i], voc, opts)...)
	}
	for i := range claims {
		out = append(out, claimQuestions(&claims[i], opts)...)
	}
	return out
}

func metricQuestions(m *normalize.Metric, voc vocab.Vocabulary, opts Options) []fact.OpenQuestion {
	var out []fact.OpenQuestion
	emit := func(cat fact.QuestionCategory, priority fact.QuestionPriority, statement string) {
		out = append(out, fact.OpenQuestion{
			ID:            stableID("question", string(cat), m.ID),
			Category:      cat,
			Priority:      priority,
			Status:        fact.QuestionOpen,
			RelatedFactID: m.ID,
			Statement:     statement,
		})
	}

	monetary := m.UnitType == vocab.UnitMoney || vocab.UnitTypeOf(voc, m.MetricName) == vocab.UnitMoney
	critical := vocab.IsCritical(voc, m.MetricName)
	escalate := fact.PriorityLow
	if monetary || critical {
		escalate = fact.PriorityMedium
	}

	if !m.DefKnown {
		emit(fact.QuestionVocabularyMiss, fact.PriorityLow,
			fmt.Sprintf("metric %q is not in the %s vocabulary; analyzed with best-effort defaults", m.MetricName, m.Scope.ProfileID))
	}

	if len(m.SpanRefs) == 0 {
		emit(fact.QuestionMissingEvidence, fact.PriorityHigh,
			fmt.Sprintf("metric %s cites no evidence spans", canonicalMetricName(m)))
	}

	if m.Value != nil && m.Unit == "" && m.UnitType == vocab.UnitUnknown {
		emit(fact.QuestionMissingUnit, fact.PriorityLow,
			fmt.Sprintf("metric %s has a numeric value (%s) but no resolvable unit", canonicalMetricName(m), describeMetricValue(m)))
	}

	if monetary && m.Currency == "" {
		emit(fact.QuestionMissingCurrency, escalate,
			fmt.Sprintf("metric %s is monetary but its currency could not be resolved", canonicalMetricName(m)))
	}

	if m.Universal() && vocab.IsPeriodSensitive(voc, m.MetricName) {
		emit(fact.QuestionMissingPeriod, escalate,
			fmt.Sprintf("metric %s is period-sensitive but carries no period information", canonicalMetricName(m)))
	}

	if stale, ref := isStale(m.PeriodEnd, m.ExtractedAt, opts); stale {
		priority := fact.PriorityMedium
		if critical {
			priority = fact.PriorityHigh
		}
		emit(fact.QuestionStaleData, priority,
			fmt.Sprintf("metric %s is dated %s, more than %d months before the analysis time", canonicalMetricName(m), ref, opts.StaleAfterMonths))
	}

	if m.Ambiguous || (m.ValueNumeric == nil && m.ValueRaw != "") {
		statement := fmt.Sprintf("metric %s has an ambiguous raw value %q that normalization could not collapse", canonicalMetricName(m), m.ValueRaw)
		if m.ValueNumeric == nil {
			statement = fmt.Sprintf("metric %s has an unparseable raw value %q", canonicalMetricName(m), m.ValueRaw)
		}
		emit(fact.QuestionAmbiguousValue, fact.PriorityLow, statement)
	}

	return out
}

func claimQuestions(c *normalize.Claim, opts Options) []fact.OpenQuestion {
	var out []fact.OpenQuestion
	emit := func(cat fact.QuestionCategory, priority fact.QuestionPriority, statement string) {
		out = append(out, fact.OpenQuestion{
			ID:            stableID("question", string(cat), c.ID),
			Category:      cat,
			Priority:      priority,
			Status:        fact.QuestionOpen,
			RelatedFactID: c.ID,
			Statement:     statement,
		})
	}

	if !c.DefKnown {
		emit(fact.QuestionVocabularyMiss, fact.PriorityLow,
			fmt.Sprintf("predicate %q is not in the %s vocabulary; analyzed with best-effort defaults", c.Claim.Predicate, c.Scope.ProfileID))
	}

	if len(c.SpanRefs) == 0 {
		emit(fact.QuestionMissingEvidence, fact.PriorityHigh,
			fmt.Sprintf("claim %s cites no evidence spans", c.Predicate))
	}

	if stale, ref := isStale(c.End, c.ExtractedAt, opts); stale {
		emit(fact.QuestionStaleData, fact.PriorityMedium,
			fmt.Sprintf("claim %s is dated %s, more than %d months before the analysis time", c.Predicate, ref, opts.StaleAfterMonths))
	}

	return out
}

// isStale checks the fact's period end, falling back to its extraction
// timestamp when no period is known. Facts with neither are never stale.
func isStale(periodEnd *time.Time, extractedAt time.Time, opts Options) (bool, string) {
	cutoff := opts.Now.AddDate(0, -opts.StaleAfterMonths, 0)
	if periodEnd != nil {
		return periodEnd.Before(cutoff), periodEnd.Format("2006-01-02")
	}
	if !extractedAt.IsZero() {
		return extractedAt.Before(cutoff), extractedAt.Format("2006-01-02")
	}
	return false, ""
}
