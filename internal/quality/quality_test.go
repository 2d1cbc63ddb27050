package quality

import (
	"errors"
	"math/rand"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/veridex/veridex/internal/fact"
	"github.com/veridex/veridex/internal/vocab"
)

var testNow = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func testOptions() Options {
	opts := DefaultOptions()
	opts.Now = testNow
	return opts
}

func testRegistry() *vocab.Registry {
	return vocab.BuiltinRegistry()
}

func date(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("bad date %q: %v", s, err)
	}
	return &d
}

func testScope() fact.Scope {
	return fact.Scope{
		DocumentID:     "doc-1",
		VersionID:      "ver-1",
		ProfileID:      "vc",
		LevelID:        2,
		ProcessContext: "vc.due_diligence",
	}
}

// newMetric builds a metric with sane defaults for conflict tests: definite
// certainty, one evidence span, annual 2024 window.
func newMetric(t *testing.T, id, name string, value float64) fact.Metric {
	t.Helper()
	v := value
	return fact.Metric{
		ID:                   id,
		Scope:                testScope(),
		SpanRefs:             []string{"span-" + id},
		ExtractionConfidence: 0.9,
		Certainty:            fact.CertaintyDefinite,
		ExtractedAt:          testNow,
		EntityID:             "acme-corp",
		EntityType:           "company",
		MetricName:           name,
		ValueNumeric:         &v,
		Unit:                 "USD",
		Currency:             "USD",
		PeriodStart:          date(t, "2024-01-01"),
		PeriodEnd:            date(t, "2024-12-31"),
		PeriodType:           fact.PeriodAnnual,
	}
}

func newClaim(t *testing.T, id, predicate, value string, certainty fact.Certainty) fact.Claim {
	t.Helper()
	return fact.Claim{
		ID:                   id,
		Scope:                testScope(),
		SpanRefs:             []string{"span-" + id},
		ExtractionConfidence: 0.9,
		Certainty:            certainty,
		ExtractedAt:          testNow,
		Subject:              fact.EntityRef{Type: "company", Name: "Acme Corp"},
		Object:               fact.EntityRef{Type: "certification", Name: "SOC 2"},
		Predicate:            predicate,
		ClaimType:            "compliance",
		Value:                value,
		TimeScopeStart:       date(t, "2024-01-01"),
		TimeScopeEnd:         date(t, "2024-12-31"),
	}
}

func analyze(t *testing.T, set fact.Set) *fact.AnalysisResult {
	t.Helper()
	result, err := Analyze(set, fact.ScopeFilter{DocumentID: "doc-1"}, testRegistry(), testOptions())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	return result
}

func conflictsOfType(result *fact.AnalysisResult, typ fact.ConflictType) []fact.Conflict {
	var out []fact.Conflict
	for _, c := range result.Conflicts {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out
}

func questionsOfCategory(result *fact.AnalysisResult, cat fact.QuestionCategory) []fact.OpenQuestion {
	var out []fact.OpenQuestion
	for _, q := range result.OpenQuestions {
		if q.Category == cat {
			out = append(out, q)
		}
	}
	return out
}

// --- Determinism ---

func TestAnalyze_Deterministic(t *testing.T) {
	set := fact.Set{
		Metrics: []fact.Metric{
			newMetric(t, "m1", "arr", 10_000_000),
			newMetric(t, "m2", "arr", 14_000_000),
			newMetric(t, "m3", "burn", 500_000),
		},
		Claims: []fact.Claim{
			newClaim(t, "c1", "has_soc2", "true", fact.CertaintyDefinite),
			newClaim(t, "c2", "has_soc2", "false", fact.CertaintyDefinite),
		},
	}

	first := analyze(t, set)
	second := analyze(t, set)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("two runs over the same snapshot produced different results")
	}
}

func TestAnalyze_OrderIndependent(t *testing.T) {
	metrics := []fact.Metric{
		newMetric(t, "m1", "arr", 10_000_000),
		newMetric(t, "m2", "arr", 14_000_000),
		newMetric(t, "m3", "arr", 10_100_000),
		newMetric(t, "m4", "burn", 500_000),
	}
	claims := []fact.Claim{
		newClaim(t, "c1", "has_soc2", "true", fact.CertaintyDefinite),
		newClaim(t, "c2", "has_soc2", "false", fact.CertaintyDefinite),
		newClaim(t, "c3", "owns_ip", "true", fact.CertaintyProbable),
	}

	baseline := analyze(t, fact.Set{Metrics: metrics, Claims: claims})

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 5; i++ {
		shuffledMetrics := append([]fact.Metric(nil), metrics...)
		shuffledClaims := append([]fact.Claim(nil), claims...)
		rng.Shuffle(len(shuffledMetrics), func(a, b int) {
			shuffledMetrics[a], shuffledMetrics[b] = shuffledMetrics[b], shuffledMetrics[a]
		})
		rng.Shuffle(len(shuffledClaims), func(a, b int) {
			shuffledClaims[a], shuffledClaims[b] = shuffledClaims[b], shuffledClaims[a]
		})

		got := analyze(t, fact.Set{Metrics: shuffledMetrics, Claims: shuffledClaims})
		if !reflect.DeepEqual(baseline, got) {
			t.Fatalf("shuffle %d changed the analysis result", i)
		}
	}
}

// --- Metric value conflicts ---

func TestAnalyze_CliqueCorrectness(t *testing.T) {
	// A=100, B=100, C=200: A-B agree, both disagree with C. Expect exactly
	// the cliques {A,C} and {B,C}, never {A,B,C}.
	set := fact.Set{Metrics: []fact.Metric{
		newMetric(t, "A", "headcount", 100),
		newMetric(t, "B", "headcount", 100),
		newMetric(t, "C", "headcount", 200),
	}}
	for i := range set.Metrics {
		set.Metrics[i].Unit = "employees"
		set.Metrics[i].Currency = ""
	}

	conflicts := conflictsOfType(analyze(t, set), fact.ConflictMetricValue)
	if len(conflicts) != 2 {
		t.Fatalf("expected 2 conflicts, got %d: %+v", len(conflicts), conflicts)
	}

	want := map[string][]string{
		"A": {"A", "C"},
		"B": {"B", "C"},
	}
	for _, c := range conflicts {
		expected, ok := want[c.InvolvedFacts[0]]
		if !ok {
			t.Errorf("unexpected conflict group %v", c.InvolvedFacts)
			continue
		}
		if !reflect.DeepEqual(c.InvolvedFacts, expected) {
			t.Errorf("expected clique %v, got %v", expected, c.InvolvedFacts)
		}
	}
}

func TestAnalyze_NonOverlappingPeriodsNeverConflict(t *testing.T) {
	q1 := newMetric(t, "m1", "revenue", 1_000_000)
	q1.PeriodStart = date(t, "2024-01-01")
	q1.PeriodEnd = date(t, "2024-03-31")

	q3 := newMetric(t, "m2", "revenue", 9_000_000)
	q3.PeriodStart = date(t, "2024-07-01")
	q3.PeriodEnd = date(t, "2024-09-30")

	result := analyze(t, fact.Set{Metrics: []fact.Metric{q1, q3}})
	if got := conflictsOfType(result, fact.ConflictMetricValue); len(got) != 0 {
		t.Errorf("non-overlapping periods must not conflict, got %+v", got)
	}
}

func TestAnalyze_MissingPeriodMatchesAnyPeriod(t *testing.T) {
	a := newMetric(t, "m1", "revenue", 1_000_000)
	b := newMetric(t, "m2", "revenue", 2_000_000)
	b.PeriodStart = nil
	b.PeriodEnd = nil

	result := analyze(t, fact.Set{Metrics: []fact.Metric{a, b}})
	if got := conflictsOfType(result, fact.ConflictMetricValue); len(got) != 1 {
		t.Errorf("periodless metric should compare against any period, got %+v", got)
	}
}

func TestAnalyze_ToleranceBoundary(t *testing.T) {
	cases := []struct {
		name         string
		a, b         float64
		wantConflict bool
		wantSeverity fact.Severity
	}{
		{"five percent exactly is not a conflict", 100, 105, false, ""},
		{"just above five percent is a medium conflict", 100, 106, true, fact.SeverityMedium},
		{"above twenty percent is high", 100, 130, true, fact.SeverityHigh},
		{"above fifty percent with definite certainty is critical", 100, 210, true, fact.SeverityCritical},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := newMetric(t, "a", "headcount", tc.a)
			b := newMetric(t, "b", "headcount", tc.b)
			a.Unit, a.Currency = "employees", ""
			b.Unit, b.Currency = "employees", ""

			conflicts := conflictsOfType(analyze(t, fact.Set{Metrics: []fact.Metric{a, b}}), fact.ConflictMetricValue)
			if tc.wantConflict != (len(conflicts) == 1) {
				t.Fatalf("wantConflict=%v, got %d conflicts", tc.wantConflict, len(conflicts))
			}
			if tc.wantConflict && conflicts[0].Severity != tc.wantSeverity {
				t.Errorf("expected severity %s, got %s", tc.wantSeverity, conflicts[0].Severity)
			}
		})
	}
}

func TestAnalyze_NearZeroUsesAbsoluteTolerance(t *testing.T) {
	a := newMetric(t, "a", "growth_rate", 0.0)
	b := newMetric(t, "b", "growth_rate", 0.005)
	a.Unit, a.Currency = "%", ""
	b.Unit, b.Currency = "%", ""

	result := analyze(t, fact.Set{Metrics: []fact.Metric{a, b}})
	if got := conflictsOfType(result, fact.ConflictMetricValue); len(got) != 0 {
		t.Errorf("difference within absolute tolerance must not conflict, got %+v", got)
	}

	b2 := newMetric(t, "b", "growth_rate", 0.5)
	b2.Unit, b2.Currency = "%", ""
	result = analyze(t, fact.Set{Metrics: []fact.Metric{a, b2}})
	got := conflictsOfType(result, fact.ConflictMetricValue)
	if len(got) != 1 {
		t.Fatalf("difference beyond absolute tolerance should conflict, got %+v", got)
	}
	// The absolute test yields no relative measure, so the severity ladder
	// cannot apply; near-zero conflicts stay medium.
	if got[0].Severity != fact.SeverityMedium {
		t.Errorf("near-zero conflicts are capped at medium, got %s", got[0].Severity)
	}
}

func TestAnalyze_ScaleSuffixNormalization(t *testing.T) {
	// "$10M" with an unscaled mantissa and a fully expanded value are the
	// same quantity; no conflict.
	ten := 10.0
	a := newMetric(t, "m1", "arr", 10_000_000)
	a.ValueRaw = "10000000"
	b := newMetric(t, "m2", "arr", 0)
	b.ValueNumeric = &ten
	b.ValueRaw = "$10M"
	b.Unit = ""
	b.Currency = ""

	result := analyze(t, fact.Set{Metrics: []fact.Metric{a, b}})
	if got := conflictsOfType(result, fact.ConflictMetricValue); len(got) != 0 {
		t.Errorf("scale-equivalent values must not conflict, got %+v", got)
	}
}

func TestAnalyze_CurrencyMismatchIsLowSeverity(t *testing.T) {
	a := newMetric(t, "m1", "arr", 10_000_000)
	b := newMetric(t, "m2", "arr", 7_000_000)
	b.Unit = "EUR"
	b.Currency = "EUR"

	conflicts := conflictsOfType(analyze(t, fact.Set{Metrics: []fact.Metric{a, b}}), fact.ConflictMetricValue)
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 currency-mismatch conflict, got %d", len(conflicts))
	}
	if conflicts[0].Severity != fact.SeverityLow {
		t.Errorf("cross-currency conflicts are capped at low, got %s", conflicts[0].Severity)
	}
	if !strings.Contains(conflicts[0].Rationale, "conversion was not verified") {
		t.Errorf("rationale should note unverified conversion: %q", conflicts[0].Rationale)
	}
}

func TestAnalyze_UnresolvedUnitOnOneSideBlocksComparison(t *testing.T) {
	a := newMetric(t, "m1", "arr", 5_000_000)
	b := newMetric(t, "m2", "arr", 50_000_000)
	b.Unit = ""
	b.Currency = ""
	b.ValueRaw = "50000000"

	result := analyze(t, fact.Set{Metrics: []fact.Metric{a, b}})
	if got := conflictsOfType(result, fact.ConflictMetricValue); len(got) != 0 {
		t.Errorf("resolved-vs-unresolved units must not be compared, got %+v", got)
	}
	if got := questionsOfCategory(result, fact.QuestionMissingUnit); len(got) != 1 {
		t.Errorf("expected a missing_unit question for the unresolved side, got %+v", got)
	}
}

func TestAnalyze_BothUnresolvedUnitsCappedLow(t *testing.T) {
	a := newMetric(t, "m1", "arr", 5_000_000)
	b := newMetric(t, "m2", "arr", 50_000_000)
	for _, m := range []*fact.Metric{&a, &b} {
		m.Unit = ""
		m.Currency = ""
		m.ValueRaw = "widgets"
	}

	conflicts := conflictsOfType(analyze(t, fact.Set{Metrics: []fact.Metric{a, b}}), fact.ConflictMetricValue)
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 conflict across unresolvable units, got %d", len(conflicts))
	}
	if conflicts[0].Severity != fact.SeverityLow {
		t.Errorf("unresolvable-unit conflicts are capped at low, got %s", conflicts[0].Severity)
	}
}

func TestAnalyze_DifferentEntitiesNeverConflict(t *testing.T) {
	a := newMetric(t, "m1", "arr", 1_000_000)
	b := newMetric(t, "m2", "arr", 9_000_000)
	b.EntityID = "other-corp"

	result := analyze(t, fact.Set{Metrics: []fact.Metric{a, b}})
	if got := conflictsOfType(result, fact.ConflictMetricValue); len(got) != 0 {
		t.Errorf("different entities must not conflict, got %+v", got)
	}
}

func TestAnalyze_CrossDocumentNeverConflicts(t *testing.T) {
	a := newMetric(t, "m1", "arr", 1_000_000)
	b := newMetric(t, "m2", "arr", 9_000_000)
	b.Scope.DocumentID = "doc-2"

	result := analyze(t, fact.Set{Metrics: []fact.Metric{a, b}})
	if got := conflictsOfType(result, fact.ConflictMetricValue); len(got) != 0 {
		t.Errorf("conflicts are intra-document only, got %+v", got)
	}
}

func TestAnalyze_UnspecifiedContextIsWildcard(t *testing.T) {
	a := newMetric(t, "m1", "arr", 1_000_000)
	b := newMetric(t, "m2", "arr", 9_000_000)
	b.Scope.ProcessContext = fact.ContextUnspecified

	result := analyze(t, fact.Set{Metrics: []fact.Metric{a, b}})
	if got := conflictsOfType(result, fact.ConflictMetricValue); len(got) != 1 {
		t.Errorf("unspecified context should match any context, got %+v", got)
	}

	b.Scope.ProcessContext = "pharma.regulatory"
	result = analyze(t, fact.Set{Metrics: []fact.Metric{a, b}})
	if got := conflictsOfType(result, fact.ConflictMetricValue); len(got) != 0 {
		t.Errorf("mismatched contexts must not be compared, got %+v", got)
	}
}

func TestAnalyze_AliasGroupsWithCanonicalName(t *testing.T) {
	a := newMetric(t, "m1", "arr", 1_000_000)
	b := newMetric(t, "m2", "annual_recurring_revenue", 9_000_000)

	result := analyze(t, fact.Set{Metrics: []fact.Metric{a, b}})
	if got := conflictsOfType(result, fact.ConflictMetricValue); len(got) != 1 {
		t.Errorf("alias and canonical name should land in one group, got %+v", got)
	}
}

// --- Claim contradictions ---

func TestAnalyze_ClaimContradiction(t *testing.T) {
	set := fact.Set{Claims: []fact.Claim{
		newClaim(t, "c1", "has_soc2", "true", fact.CertaintyDefinite),
		newClaim(t, "c2", "has_soc2", "false", fact.CertaintyDefinite),
	}}

	conflicts := conflictsOfType(analyze(t, set), fact.ConflictClaimContradiction)
	if len(conflicts) != 1 {
		t.Fatalf("expected 1 contradiction, got %d", len(conflicts))
	}
	c := conflicts[0]
	if c.Severity != fact.SeverityHigh {
		t.Errorf("definite vs definite should be high severity, got %s", c.Severity)
	}
	if !reflect.DeepEqual(c.InvolvedFacts, []string{"c1", "c2"}) {
		t.Errorf("unexpected involved facts %v", c.InvolvedFacts)
	}
	if c.Status != fact.ConflictOpen {
		t.Errorf("detector must emit open conflicts, got %s", c.Status)
	}
}

func TestAnalyze_ClaimSeverityLadder(t *testing.T) {
	cases := []struct {
		name string
		a, b fact.Certainty
		want fact.Severity
	}{
		{"definite vs probable is high", fact.CertaintyDefinite, fact.CertaintyProbable, fact.SeverityHigh},
		{"possible drags to medium", fact.CertaintyDefinite, fact.CertaintyPossible, fact.SeverityMedium},
		{"disputed drags to low", fact.CertaintyDefinite, fact.CertaintyDisputed, fact.SeverityLow},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			set := fact.Set{Claims: []fact.Claim{
				newClaim(t, "c1", "has_soc2", "true", tc.a),
				newClaim(t, "c2", "has_soc2", "false", tc.b),
			}}
			conflicts := conflictsOfType(analyze(t, set), fact.ConflictClaimContradiction)
			if len(conflicts) != 1 {
				t.Fatalf("expected 1 contradiction, got %d", len(conflicts))
			}
			if conflicts[0].Severity != tc.want {
				t.Errorf("expected %s, got %s", tc.want, conflicts[0].Severity)
			}
		})
	}
}

func TestAnalyze_UnknownClaimValueImmunity(t *testing.T) {
	set := fact.Set{Claims: []fact.Claim{
		newClaim(t, "c1", "has_soc2", "true", fact.CertaintyDefinite),
		newClaim(t, "c2", "has_soc2", "unknown", fact.CertaintyDefinite),
		newClaim(t, "c3", "has_soc2", "maybe next quarter", fact.CertaintyDefinite),
	}}

	result := analyze(t, set)
	if got := conflictsOfType(result, fact.ConflictClaimContradiction); len(got) != 0 {
		t.Errorf("unknown values never participate in contradictions, got %+v", got)
	}
}

func TestAnalyze_ClaimTruthyFalsyNormalization(t *testing.T) {
	// "yes" and "certified" both normalize to true, so they agree with each
	// other and both contradict the "denied" claim: cliques {c1,c3},{c2,c3}.
	set := fact.Set{Claims: []fact.Claim{
		newClaim(t, "c1", "has_soc2", "yes", fact.CertaintyDefinite),
		newClaim(t, "c2", "has_soc2", "certified", fact.CertaintyDefinite),
		newClaim(t, "c3", "has_soc2", "denied", fact.CertaintyDefinite),
	}}

	conflicts := conflictsOfType(analyze(t, set), fact.ConflictClaimContradiction)
	if len(conflicts) != 2 {
		t.Fatalf("expected 2 contradiction cliques, got %d: %+v", len(conflicts), conflicts)
	}
	want := map[string][]string{
		"c1": {"c1", "c3"},
		"c2": {"c2", "c3"},
	}
	for _, c := range conflicts {
		expected, ok := want[c.InvolvedFacts[0]]
		if !ok || !reflect.DeepEqual(c.InvolvedFacts, expected) {
			t.Errorf("unexpected clique %v", c.InvolvedFacts)
		}
	}
}

func TestAnalyze_SubjectIdentityIsCaseInsensitive(t *testing.T) {
	a := newClaim(t, "c1", "has_soc2", "true", fact.CertaintyDefinite)
	b := newClaim(t, "c2", "has_soc2", "false", fact.CertaintyDefinite)
	b.Subject.Name = "  ACME   corp "

	result := analyze(t, fact.Set{Claims: []fact.Claim{a, b}})
	if got := conflictsOfType(result, fact.ConflictClaimContradiction); len(got) != 1 {
		t.Errorf("case/whitespace variants of one subject should group, got %+v", got)
	}

	b.Subject.Name = "Acme Corporation"
	result = analyze(t, fact.Set{Claims: []fact.Claim{a, b}})
	if got := conflictsOfType(result, fact.ConflictClaimContradiction); len(got) != 0 {
		t.Errorf("no fuzzy entity matching: distinct names must not group, got %+v", got)
	}
}

func TestAnalyze_PredicateAliasGroupsWithCanonicalName(t *testing.T) {
	set := fact.Set{Claims: []fact.Claim{
		newClaim(t, "c1", "has_soc2", "true", fact.CertaintyDefinite),
		newClaim(t, "c2", "soc2_certified", "false", fact.CertaintyDefinite),
	}}

	conflicts := conflictsOfType(analyze(t, set), fact.ConflictClaimContradiction)
	if len(conflicts) != 1 {
		t.Fatalf("alias and canonical predicate should land in one group, got %+v", conflicts)
	}
	if !reflect.DeepEqual(conflicts[0].InvolvedFacts, []string{"c1", "c2"}) {
		t.Errorf("unexpected involved facts %v", conflicts[0].InvolvedFacts)
	}
}

func TestAnalyze_NonOverlappingTimeScopesNeverContradict(t *testing.T) {
	a := newClaim(t, "c1", "has_soc2", "true", fact.CertaintyDefinite)
	b := newClaim(t, "c2", "has_soc2", "false", fact.CertaintyDefinite)
	b.TimeScopeStart = date(t, "2022-01-01")
	b.TimeScopeEnd = date(t, "2022-12-31")

	result := analyze(t, fact.Set{Claims: []fact.Claim{a, b}})
	if got := conflictsOfType(result, fact.ConflictClaimContradiction); len(got) != 0 {
		t.Errorf("claims about disjoint periods can both hold, got %+v", got)
	}
}

// --- Errors ---

func TestAnalyze_MalformedMetric(t *testing.T) {
	m := newMetric(t, "m1", "arr", 100)
	m.EntityID = "  "

	_, err := Analyze(fact.Set{Metrics: []fact.Metric{m}}, fact.ScopeFilter{}, testRegistry(), testOptions())
	var malformed *MalformedFactError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedFactError, got %v", err)
	}
	if malformed.FactID != "m1" {
		t.Errorf("error should name the offending fact, got %q", malformed.FactID)
	}
}

func TestAnalyze_MalformedClaim(t *testing.T) {
	c := newClaim(t, "c1", "has_soc2", "true", fact.CertaintyDefinite)
	c.Subject = fact.EntityRef{Type: "company"}

	_, err := Analyze(fact.Set{Claims: []fact.Claim{c}}, fact.ScopeFilter{}, testRegistry(), testOptions())
	var malformed *MalformedFactError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedFactError, got %v", err)
	}
}

// --- Result shape ---

func TestAnalyze_ResultOrderingAndSummary(t *testing.T) {
	set := fact.Set{
		Metrics: []fact.Metric{
			newMetric(t, "m1", "arr", 100_000),
			newMetric(t, "m2", "arr", 1_000_000), // high: 90% apart... critical (definite, >50%)
			newMetric(t, "m3", "burn", 100_000),
			newMetric(t, "m4", "burn", 107_000), // medium: 6.5% apart
		},
		Claims: []fact.Claim{
			newClaim(t, "c1", "has_soc2", "true", fact.CertaintyDefinite),
			newClaim(t, "c2", "has_soc2", "false", fact.CertaintyPossible), // medium
		},
	}

	result := analyze(t, set)
	if len(result.Conflicts) != 3 {
		t.Fatalf("expected 3 conflicts, got %d", len(result.Conflicts))
	}
	for i := 1; i < len(result.Conflicts); i++ {
		if result.Conflicts[i-1].Severity.Rank() < result.Conflicts[i].Severity.Rank() {
			t.Errorf("conflicts not ordered by severity: %s before %s",
				result.Conflicts[i-1].Severity, result.Conflicts[i].Severity)
		}
	}
	for i := 1; i < len(result.OpenQuestions); i++ {
		prev, cur := result.OpenQuestions[i-1], result.OpenQuestions[i]
		if prev.Priority.Rank() < cur.Priority.Rank() {
			t.Errorf("questions not ordered by priority")
		}
		if prev.Priority == cur.Priority && prev.Category > cur.Category {
			t.Errorf("questions of equal priority not ordered by category")
		}
	}

	total := 0
	for _, n := range result.Summary.ConflictsBySeverity {
		total += n
	}
	if total != len(result.Conflicts) {
		t.Errorf("severity counts (%d) disagree with conflict list (%d)", total, len(result.Conflicts))
	}
	if result.Summary.TotalFacts != set.Len() {
		t.Errorf("summary total facts = %d, want %d", result.Summary.TotalFacts, set.Len())
	}
	if result.Scope.DocumentID != "doc-1" {
		t.Errorf("scope echo lost: %+v", result.Scope)
	}
}

func TestAnalyze_NoFactLoss(t *testing.T) {
	set := fact.Set{
		Metrics: []fact.Metric{
			newMetric(t, "m1", "arr", 100_000),
			newMetric(t, "m2", "arr", 1_000_000),
		},
		Claims: []fact.Claim{
			newClaim(t, "c1", "has_soc2", "true", fact.CertaintyDefinite),
			newClaim(t, "c2", "has_soc2", "false", fact.CertaintyDefinite),
		},
	}

	result := analyze(t, set)
	referenced := map[string]struct{}{}
	for _, c := range result.Conflicts {
		for _, id := range c.InvolvedFacts {
			referenced[id] = struct{}{}
		}
	}
	for _, q := range result.OpenQuestions {
		referenced[q.RelatedFactID] = struct{}{}
	}

	if len(referenced) > set.Len() {
		t.Errorf("result references %d distinct facts, input had %d", len(referenced), set.Len())
	}
	for _, id := range []string{"m1", "m2", "c1", "c2"} {
		if _, ok := referenced[id]; !ok {
			t.Errorf("fact %s triggered a rule but is unreferenced", id)
		}
	}
}
