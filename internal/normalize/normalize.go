// Package normalize canonicalizes raw extracted facts into comparable
// forms: units to canonical symbols, currencies to ISO codes, scale
// suffixes expanded, periods to effective windows, and claim values to
// true/false/unknown/enum literals.
//
// Normalization never fails. Extraction output is LLM-sourced and
// routinely malformed; anything unresolvable degrades to an explicit
// unknown that the open-question detector turns into a follow-up item.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/veridex/veridex/internal/fact"
	"github.com/veridex/veridex/internal/vocab"
)

// Claim truth values after normalization.
const (
	ValueTrue    = "true"
	ValueFalse   = "false"
	ValueUnknown = "unknown"
)

// Metric is a fact.Metric with all comparison-relevant fields resolved.
type Metric struct {
	fact.Metric

	// Def is the vocabulary definition for MetricName; DefKnown is false
	// on a vocabulary lookup miss, in which case Def is zero and the
	// metric is analyzed with best-effort defaults.
	Def      vocab.MetricDefinition
	DefKnown bool

	Unit     string         // canonical unit symbol, "" if unresolvable
	UnitType vocab.UnitType // resolved from the unit itself, or the vocabulary
	Currency string         // ISO 4217 code, "" if unresolvable

	// Value is ValueNumeric after best-effort scale expansion ("$10M" with
	// value 10 becomes 1e7). Nil when the raw value never parsed.
	Value *float64

	// PeriodStart/PeriodEnd form the effective window. Both nil means the
	// metric applies universally; a single supplied date becomes a
	// zero-length window.
	PeriodStart *time.Time
	PeriodEnd   *time.Time

	// Ambiguous is set when ValueRaw carries several numbers or a range
	// ("$5-10M") that normalization could not collapse to one value.
	Ambiguous bool
}

// Claim is a fact.Claim with identity and value resolved.
type Claim struct {
	fact.Claim

	Def      vocab.ClaimPredicate
	DefKnown bool

	SubjectKey string // canonical subject identity for grouping
	Predicate  string // canonical predicate name
	Value      string // true, false, unknown, or an enum literal

	// Start/End form the effective time-scope window; both nil = universal.
	Start *time.Time
	End   *time.Time
}

// Universal reports whether the metric's window matches any period.
func (m *Metric) Universal() bool { return m.PeriodStart == nil && m.PeriodEnd == nil }

// Universal reports whether the claim's time scope matches any period.
func (c *Claim) Universal() bool { return c.Start == nil && c.End == nil }

// Overlaps applies the window overlap test startA <= endB && startB <= endA.
// A universal window overlaps everything.
func (m *Metric) Overlaps(other *Metric) bool {
	return windowsOverlap(m.PeriodStart, m.PeriodEnd, other.PeriodStart, other.PeriodEnd)
}

// Overlaps applies the window overlap test to two claim time scopes.
func (c *Claim) Overlaps(other *Claim) bool {
	return windowsOverlap(c.Start, c.End, other.Start, other.End)
}

func windowsOverlap(startA, endA, startB, endB *time.Time) bool {
	if startA == nil && endA == nil {
		return true
	}
	if startB == nil && endB == nil {
		return true
	}
	return !startA.After(*endB) && !startB.After(*endA)
}

// NormalizeMetric resolves a raw metric against a vocabulary.
func NormalizeMetric(m fact.Metric, voc vocab.Vocabulary) Metric {
	out := Metric{Metric: m}
	out.Def, out.DefKnown = voc.Metric(m.MetricName)

	out.Unit, out.UnitType = resolveUnit(m.Unit)
	if out.UnitType == vocab.UnitUnknown && out.DefKnown && m.Unit == "" && m.Currency != "" {
		// A bare currency implies a monetary unit.
		out.UnitType = vocab.UnitMoney
	}
	out.Currency = resolveCurrency(m.Currency, m.Unit, m.ValueRaw)
	if out.Currency != "" && out.Unit == "" {
		out.Unit = out.Currency
		out.UnitType = vocab.UnitMoney
	}

	out.Value = scaleValue(m.ValueNumeric, m.ValueRaw)
	out.Ambiguous = isAmbiguous(m.ValueRaw)
	out.PeriodStart, out.PeriodEnd = effectiveWindow(m.PeriodStart, m.PeriodEnd)
	return out
}

// NormalizeClaim resolves a raw claim against a vocabulary.
func NormalizeClaim(c fact.Claim, voc vocab.Vocabulary) Claim {
	out := Claim{Claim: c}
	out.Def, out.DefKnown = voc.Predicate(c.Predicate)
	out.Predicate = c.Predicate
	if out.DefKnown {
		out.Predicate = out.Def.Name
	}
	out.SubjectKey = c.Subject.Key()
	out.Value = resolveClaimValue(c.Value, out.Def, out.DefKnown)
	out.Start, out.End = effectiveWindow(c.TimeScopeStart, c.TimeScopeEnd)
	return out
}

// effectiveWindow defaults a single supplied date to a zero-length window
// and repairs inverted bounds.
func effectiveWindow(start, end *time.Time) (*time.Time, *time.Time) {
	switch {
	case start == nil && end == nil:
		return nil, nil
	case start == nil:
		return end, end
	case end == nil:
		return start, start
	case start.After(*end):
		return end, start
	default:
		return start, end
	}
}

var truthy = map[string]bool{
	"true": true, "yes": true, "y": true, "1": true,
	"confirmed": true, "compliant": true, "certified": true,
	"present": true, "affirmed": true, "has": true,
}

var falsy = map[string]bool{
	"false": true, "no": true, "n": true, "0": true,
	"denied": true, "non_compliant": true, "not_compliant": true,
	"absent": true, "none": true, "negative": true, "lapsed": true,
}

func resolveClaimValue(raw string, def vocab.ClaimPredicate, defKnown bool) string {
	v := strings.ToLower(strings.Join(strings.Fields(raw), "_"))
	if v == "" || v == ValueUnknown {
		return ValueUnknown
	}
	if defKnown && def.ValueKind == vocab.ValueEnum {
		for _, allowed := range def.AllowedValues {
			if v == strings.ToLower(allowed) {
				return allowed
			}
		}
		return ValueUnknown
	}
	if truthy[v] {
		return ValueTrue
	}
	if falsy[v] {
		return ValueFalse
	}
	// Without a vocabulary entry, an unrecognized literal may still be a
	// legitimate enum value; keep it comparable rather than discarding it.
	if !defKnown {
		return v
	}
	return ValueUnknown
}

var numberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)*`)

// isAmbiguous flags raw values that carry more than one number, e.g.
// "$5-10M" or "between 3 and 4 million".
func isAmbiguous(raw string) bool {
	return len(numberPattern.FindAllString(raw, 3)) > 1
}

// scaleMultipliers are the common magnitude suffixes. Currency
// cross-conversion is never attempted; scale expansion is.
var scaleMultipliers = map[string]float64{
	"k": 1e3, "thousand": 1e3,
	"m": 1e6, "mm": 1e6, "million": 1e6,
	"b": 1e9, "bn": 1e9, "billion": 1e9,
}

var scaledRawPattern = regexp.MustCompile(`(?i)([0-9]+(?:\.[0-9]+)?)\s*(k|m|mm|b|bn|thousand|million|billion)\b`)

// scaleValue expands a suffix-scaled raw value. If the extractor reported
// value_numeric as the unscaled mantissa of a "$10M"-style raw string, the
// multiplier is applied; an already-expanded value passes through.
func scaleValue(numeric *float64, raw string) *float64 {
	if numeric == nil {
		return nil
	}
	v := *numeric
	match := scaledRawPattern.FindStringSubmatch(raw)
	if match == nil {
		return &v
	}
	mantissa, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return &v
	}
	mult := scaleMultipliers[strings.ToLower(match[2])]
	if nearlyEqual(v, mantissa) {
		scaled := mantissa * mult
		return &scaled
	}
	return &v
}

func nearlyEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff <= 1e-9*(1+abs(a)+abs(b))
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
