package quality

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/veridex/veridex/internal/fact"
	"github.com/veridex/veridex/internal/normalize"
	"github.com/veridex/veridex/internal/vocab"
)

// pairKey identifies an undirected fact pair; a < b.
type pairKey struct{ a, b string }

func makePairKey(a, b string) pairKey {
	if b < a {
		a, b = b, a
	}
	return pairKey{a, b}
}

// edgeInfo records why one pair of facts conflicts.
type edgeInfo struct {
	severity         fact.Severity
	relDiff          float64
	currencyMismatch bool
	unresolvedUnits  bool
}

// detectMetricConflicts groups normalized metrics by (entity, metric) and
// emits one conflict per maximal clique of mutually disagreeing values.
// Metric names group under their canonical vocabulary name, so aliases
// land in the same group as the name they stand for.
func detectMetricConflicts(metrics []normalize.Metric, reg *vocab.Registry, opts Options) []fact.Conflict {
	groups := make(map[string][]*normalize.Metric)
	for i := range metrics {
		m := &metrics[i]
		key := m.Scope.DocumentID + "\x00" + entityKey(m.EntityID) + "\x00" + reg.Canonical(m.Scope.ProfileID, m.MetricName)
		groups[key] = append(groups[key], m)
	}

	keys := sortedKeys(groups)
	var out []fact.Conflict
	for _, key := range keys {
		group := groups[key]
		if len(group) < 2 {
			continue
		}

		g := newConflictGraph()
		edges := make(map[pairKey]edgeInfo)
		byID := make(map[string]*normalize.Metric, len(group))
		for _, m := range group {
			byID[m.ID] = m
		}
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if info, ok := compareMetrics(a, b, opts); ok {
					g.addEdge(a.ID, b.ID)
					edges[makePairKey(a.ID, b.ID)] = info
				}
			}
		}

		for _, clique := range g.maximalCliques() {
			out = append(out, buildMetricConflict(clique, edges, byID))
		}
	}
	return out
}

// compareMetrics decides whether one pair of same-group metrics conflicts.
func compareMetrics(a, b *normalize.Metric, opts Options) (edgeInfo, bool) {
	if !a.Scope.ContextCompatible(b.Scope) {
		return edgeInfo{}, false
	}
	if !a.Overlaps(b) {
		return edgeInfo{}, false
	}
	if a.Value == nil || b.Value == nil {
		return edgeInfo{}, false
	}

	aResolved := a.UnitType != vocab.UnitUnknown
	bResolved := b.UnitType != vocab.UnitUnknown
	if aResolved != bResolved {
		// One resolvable, one not: incomparable, handled by the
		// open-question path instead.
		return edgeInfo{}, false
	}
	unresolved := !aResolved
	if aResolved && a.UnitType != b.UnitType {
		return edgeInfo{}, false
	}

	differ, rel, absolute := valuesDiffer(*a.Value, *b.Value, opts)
	if !differ {
		return edgeInfo{}, false
	}

	info := edgeInfo{relDiff: rel, unresolvedUnits: unresolved}
	info.currencyMismatch = a.UnitType == vocab.UnitMoney &&
		a.Currency != "" && b.Currency != "" && a.Currency != b.Currency

	switch {
	case unresolved, info.currencyMismatch:
		// Cannot verify the comparison basis: report, but never above low.
		info.severity = fact.SeverityLow
	case absolute:
		// Near zero the relative measure degenerates, so the severity
		// ladder has no meaningful input; stays medium.
		info.severity = fact.SeverityMedium
	case a.Certainty == fact.CertaintyDefinite && b.Certainty == fact.CertaintyDefinite && rel > opts.CriticalCutoff:
		info.severity = fact.SeverityCritical
	case rel > opts.HighCutoff:
		info.severity = fact.SeverityHigh
	default:
		info.severity = fact.SeverityMedium
	}
	return info, true
}

// valuesDiffer applies the tolerance test. The relative boundary is
// exclusive: a difference of exactly the tolerance is not a conflict. Near
// zero the relative test degenerates, so an absolute tolerance takes over;
// absolute reports which test decided, and rel is only a relative measure
// when absolute is false.
func valuesDiffer(a, b float64, opts Options) (differ bool, rel float64, absolute bool) {
	if math.Abs(a) < opts.AbsoluteTolerance || math.Abs(b) < opts.AbsoluteTolerance {
		return math.Abs(a-b) > opts.AbsoluteTolerance, math.Abs(a - b), true
	}
	rel = math.Abs(a-b) / math.Max(math.Abs(a), math.Abs(b))
	return rel > opts.RelativeTolerance, rel, false
}

func buildMetricConflict(clique []string, edges map[pairKey]edgeInfo, byID map[string]*normalize.Metric) fact.Conflict {
	severity := fact.SeverityLow
	var currencyMismatch, unresolved bool
	for i := 0; i < len(clique); i++ {
		for j := i + 1; j < len(clique); j++ {
			info := edges[makePairKey(clique[i], clique[j])]
			severity = severity.Max(info.severity)
			currencyMismatch = currencyMismatch || info.currencyMismatch
			unresolved = unresolved || info.unresolvedUnits
		}
	}

	first := byID[clique[0]]
	values := make([]string, 0, len(clique))
	for _, id := range clique {
		values = append(values, describeMetricValue(byID[id]))
	}
	rationale := fmt.Sprintf("%s for %s has %d overlapping values that disagree beyond tolerance: %s",
		canonicalMetricName(first), first.EntityID, len(clique), strings.Join(values, " vs "))
	if currencyMismatch {
		rationale += "; currencies differ and conversion was not verified"
	}
	if unresolved {
		rationale += "; units unresolved on all sides"
	}

	return fact.Conflict{
		ID:            stableID("conflict", append([]string{string(fact.ConflictMetricValue)}, clique...)...),
		Type:          fact.ConflictMetricValue,
		Severity:      severity,
		Status:        fact.ConflictOpen,
		InvolvedFacts: clique,
		Rationale:     rationale,
	}
}

func describeMetricValue(m *normalize.Metric) string {
	if m.ValueRaw != "" {
		return fmt.Sprintf("%q", m.ValueRaw)
	}
	if m.Value == nil {
		return "(unparsed)"
	}
	if m.Unit != "" {
		return fmt.Sprintf("%g %s", *m.Value, m.Unit)
	}
	return fmt.Sprintf("%g", *m.Value)
}

// detectClaimContradictions groups normalized claims by (subject,
// predicate) and emits one contradiction per maximal clique of mutually
// disagreeing resolved values. Claims resolved to unknown never
// participate.
func detectClaimContradictions(claims []normalize.Claim, reg *vocab.Registry) []fact.Conflict {
	groups := make(map[string][]*normalize.Claim)
	for i := range claims {
		c := &claims[i]
		key := c.Scope.DocumentID + "\x00" + c.SubjectKey + "\x00" + reg.Canonical(c.Scope.ProfileID, c.Claim.Predicate)
		groups[key] = append(groups[key], c)
	}

	keys := sortedKeys(groups)
	var out []fact.Conflict
	for _, key := range keys {
		group := groups[key]
		if len(group) < 2 {
			continue
		}

		g := newConflictGraph()
		edges := make(map[pairKey]edgeInfo)
		byID := make(map[string]*normalize.Claim, len(group))
		for _, c := range group {
			byID[c.ID] = c
		}
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if info, ok := compareClaims(a, b); ok {
					g.addEdge(a.ID, b.ID)
					edges[makePairKey(a.ID, b.ID)] = info
				}
			}
		}

		for _, clique := range g.maximalCliques() {
			out = append(out, buildClaimConflict(clique, edges, byID))
		}
	}
	return out
}

func compareClaims(a, b *normalize.Claim) (edgeInfo, bool) {
	if !a.Scope.ContextCompatible(b.Scope) {
		return edgeInfo{}, false
	}
	if !a.Overlaps(b) {
		return edgeInfo{}, false
	}
	if a.Value == normalize.ValueUnknown || b.Value == normalize.ValueUnknown {
		return edgeInfo{}, false
	}
	if a.Value == b.Value {
		return edgeInfo{}, false
	}
	return edgeInfo{severity: claimSeverity(a.Certainty, b.Certainty)}, true
}

func claimSeverity(a, b fact.Certainty) fact.Severity {
	if a == fact.CertaintyDisputed || b == fact.CertaintyDisputed {
		return fact.SeverityLow
	}
	if a == fact.CertaintyPossible || b == fact.CertaintyPossible {
		return fact.SeverityMedium
	}
	firm := func(c fact.Certainty) bool {
		return c == fact.CertaintyDefinite || c == fact.CertaintyProbable
	}
	if firm(a) && firm(b) {
		return fact.SeverityHigh
	}
	return fact.SeverityMedium
}

func buildClaimConflict(clique []string, edges map[pairKey]edgeInfo, byID map[string]*normalize.Claim) fact.Conflict {
	severity := fact.SeverityLow
	for i := 0; i < len(clique); i++ {
		for j := i + 1; j < len(clique); j++ {
			severity = severity.Max(edges[makePairKey(clique[i], clique[j])].severity)
		}
	}

	first := byID[clique[0]]
	values := make([]string, 0, len(clique))
	for _, id := range clique {
		values = append(values, byID[id].Value)
	}
	rationale := fmt.Sprintf("%s is asserted with incompatible values for %s over overlapping time scopes: %s",
		first.Predicate, subjectLabel(first), strings.Join(values, " vs "))

	return fact.Conflict{
		ID:            stableID("conflict", append([]string{string(fact.ConflictClaimContradiction)}, clique...)...),
		Type:          fact.ConflictClaimContradiction,
		Severity:      severity,
		Status:        fact.ConflictOpen,
		InvolvedFacts: clique,
		Rationale:     rationale,
	}
}

func subjectLabel(c *normalize.Claim) string {
	if c.Subject.Name != "" {
		return c.Subject.Name
	}
	return c.SubjectKey
}

func entityKey(entityID string) string {
	return strings.ToLower(strings.Join(strings.Fields(entityID), " "))
}

func canonicalMetricName(m *normalize.Metric) string {
	if m.DefKnown {
		return m.Def.Name
	}
	return strings.ToLower(strings.Join(strings.Fields(m.MetricName), "_"))
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
