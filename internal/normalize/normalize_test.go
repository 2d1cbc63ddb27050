package normalize

import (
	"testing"
	"time"

	"github.com/veridex/veridex/internal/fact"
	"github.com/veridex/veridex/internal/vocab"
)

func testVocab(t *testing.T) vocab.Vocabulary {
	t.Helper()
	return vocab.BuiltinRegistry().Profile("vc")
}

func floatPtr(f float64) *float64 { return &f }

func datePtr(t *testing.T, s string) *time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		t.Fatalf("parsing date %q: %v", s, err)
	}
	return &d
}

func TestResolveUnit(t *testing.T) {
	tests := []struct {
		raw    string
		symbol string
		kind   vocab.UnitType
	}{
		{"USD", "USD", vocab.UnitMoney},
		{"usd", "USD", vocab.UnitMoney},
		{"$", "USD", vocab.UnitMoney},
		{" dollars ", "USD", vocab.UnitMoney},
		{"€", "EUR", vocab.UnitMoney},
		{"GBP", "GBP", vocab.UnitMoney},
		{"chf", "CHF", vocab.UnitMoney},
		{"%", "percent", vocab.UnitPercent},
		{"pct", "percent", vocab.UnitPercent},
		{"bps", "percent", vocab.UnitPercent},
		{"employees", "count", vocab.UnitCount},
		{"#", "count", vocab.UnitCount},
		{"x", "ratio", vocab.UnitRatio},
		{"months", "months", vocab.UnitDuration},
		{"mo", "months", vocab.UnitDuration},
		{"", "", vocab.UnitUnknown},
		{"widgets per fortnight", "", vocab.UnitUnknown},
	}
	for _, tc := range tests {
		symbol, kind := resolveUnit(tc.raw)
		if symbol != tc.symbol || kind != tc.kind {
			t.Errorf("resolveUnit(%q) = (%q, %s), want (%q, %s)", tc.raw, symbol, kind, tc.symbol, tc.kind)
		}
	}
}

func TestResolveCurrencyPrecedence(t *testing.T) {
	tests := []struct {
		name              string
		currency, unit    string
		raw               string
		want              string
	}{
		{"currency field wins", "EUR", "$", "$10M", "EUR"},
		{"unit when no currency", "", "usd", "10M", "USD"},
		{"symbol in raw as last resort", "", "", "£2.5M", "GBP"},
		{"unresolvable stays empty", "", "", "10 million", ""},
		{"iso code passes through", "jpy", "", "", "JPY"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := resolveCurrency(tc.currency, tc.unit, tc.raw); got != tc.want {
				t.Errorf("resolveCurrency(%q, %q, %q) = %q, want %q", tc.currency, tc.unit, tc.raw, got, tc.want)
			}
		})
	}
}

func TestScaleValue(t *testing.T) {
	tests := []struct {
		name    string
		numeric *float64
		raw     string
		want    *float64
	}{
		{"unscaled mantissa expands", floatPtr(10), "$10M", floatPtr(10e6)},
		{"already expanded passes through", floatPtr(10e6), "$10M", floatPtr(10e6)},
		{"thousand suffix", floatPtr(250), "250k", floatPtr(250e3)},
		{"billion suffix", floatPtr(1.2), "1.2bn", floatPtr(1.2e9)},
		{"word suffix", floatPtr(3), "3 million", floatPtr(3e6)},
		{"no suffix untouched", floatPtr(42), "42", floatPtr(42)},
		{"nil stays nil", nil, "substantial", nil},
		{"mo is not a scale suffix", floatPtr(18), "18 mo", floatPtr(18)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := scaleValue(tc.numeric, tc.raw)
			switch {
			case got == nil && tc.want == nil:
			case got == nil || tc.want == nil:
				t.Errorf("scaleValue(%v, %q) = %v, want %v", tc.numeric, tc.raw, got, tc.want)
			case *got != *tc.want:
				t.Errorf("scaleValue(%v, %q) = %v, want %v", *tc.numeric, tc.raw, *got, *tc.want)
			}
		})
	}
}

func TestIsAmbiguous(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{"$5-10M", true},
		{"between 3 and 4 million", true},
		{"$10M", false},
		{"1,200,000", false},
		{"10.5%", false},
		{"substantial", false},
	}
	for _, tc := range tests {
		if got := isAmbiguous(tc.raw); got != tc.want {
			t.Errorf("isAmbiguous(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestEffectiveWindow(t *testing.T) {
	jan := datePtr(t, "2024-01-01")
	dec := datePtr(t, "2024-12-31")

	t.Run("both nil is universal", func(t *testing.T) {
		start, end := effectiveWindow(nil, nil)
		if start != nil || end != nil {
			t.Errorf("got (%v, %v), want (nil, nil)", start, end)
		}
	})
	t.Run("single date becomes zero-length window", func(t *testing.T) {
		start, end := effectiveWindow(jan, nil)
		if start == nil || end == nil || !start.Equal(*jan) || !end.Equal(*jan) {
			t.Errorf("got (%v, %v), want both %v", start, end, jan)
		}
		start, end = effectiveWindow(nil, dec)
		if start == nil || end == nil || !start.Equal(*dec) || !end.Equal(*dec) {
			t.Errorf("got (%v, %v), want both %v", start, end, dec)
		}
	})
	t.Run("inverted bounds are repaired", func(t *testing.T) {
		start, end := effectiveWindow(dec, jan)
		if !start.Equal(*jan) || !end.Equal(*dec) {
			t.Errorf("got (%v, %v), want (%v, %v)", start, end, jan, dec)
		}
	})
}

func TestWindowOverlap(t *testing.T) {
	q1 := Metric{PeriodStart: datePtr(t, "2024-01-01"), PeriodEnd: datePtr(t, "2024-03-31")}
	q2 := Metric{PeriodStart: datePtr(t, "2024-04-01"), PeriodEnd: datePtr(t, "2024-06-30")}
	h1 := Metric{PeriodStart: datePtr(t, "2024-02-01"), PeriodEnd: datePtr(t, "2024-05-31")}
	universal := Metric{}

	if q1.Overlaps(&q2) {
		t.Error("disjoint quarters should not overlap")
	}
	if !q1.Overlaps(&h1) || !q2.Overlaps(&h1) {
		t.Error("straddling window should overlap both quarters")
	}
	if !universal.Overlaps(&q1) || !q1.Overlaps(&universal) {
		t.Error("universal window should overlap everything")
	}
}

func TestNormalizeMetric(t *testing.T) {
	voc := testVocab(t)

	t.Run("known metric with full fields", func(t *testing.T) {
		m := NormalizeMetric(fact.Metric{
			MetricName:   "arr",
			ValueNumeric: floatPtr(10),
			ValueRaw:     "$10M",
			Unit:         "USD",
			Currency:     "USD",
		}, voc)
		if !m.DefKnown || m.Def.Name != "arr" {
			t.Fatalf("expected vocabulary hit for arr, got DefKnown=%v", m.DefKnown)
		}
		if m.Unit != "USD" || m.UnitType != vocab.UnitMoney || m.Currency != "USD" {
			t.Errorf("unit resolution: unit=%q type=%s currency=%q", m.Unit, m.UnitType, m.Currency)
		}
		if m.Value == nil || *m.Value != 10e6 {
			t.Errorf("scale expansion: got %v, want 1e7", m.Value)
		}
	})

	t.Run("bare currency implies monetary unit", func(t *testing.T) {
		m := NormalizeMetric(fact.Metric{
			MetricName:   "cash",
			ValueNumeric: floatPtr(5e6),
			ValueRaw:     "5,000,000",
			Currency:     "EUR",
		}, voc)
		if m.UnitType != vocab.UnitMoney || m.Currency != "EUR" || m.Unit != "EUR" {
			t.Errorf("got unit=%q type=%s currency=%q, want EUR money", m.Unit, m.UnitType, m.Currency)
		}
	})

	t.Run("symbol in raw resolves currency", func(t *testing.T) {
		m := NormalizeMetric(fact.Metric{
			MetricName:   "revenue",
			ValueNumeric: floatPtr(2),
			ValueRaw:     "£2M",
		}, voc)
		if m.Currency != "GBP" || m.UnitType != vocab.UnitMoney {
			t.Errorf("got currency=%q type=%s, want GBP money", m.Currency, m.UnitType)
		}
		if m.Value == nil || *m.Value != 2e6 {
			t.Errorf("got value %v, want 2e6", m.Value)
		}
	})

	t.Run("unknown metric degrades without error", func(t *testing.T) {
		m := NormalizeMetric(fact.Metric{
			MetricName: "weekly_active_wizards",
			ValueRaw:   "many",
		}, voc)
		if m.DefKnown {
			t.Error("expected vocabulary miss")
		}
		if m.Value != nil {
			t.Errorf("unparsed value should stay nil, got %v", m.Value)
		}
	})

	t.Run("range value flagged ambiguous", func(t *testing.T) {
		m := NormalizeMetric(fact.Metric{
			MetricName:   "arr",
			ValueNumeric: floatPtr(7.5e6),
			ValueRaw:     "$5-10M",
		}, voc)
		if !m.Ambiguous {
			t.Error("range raw value should be ambiguous")
		}
	})
}

func TestNormalizeClaim(t *testing.T) {
	voc := testVocab(t)

	t.Run("alias resolves to canonical predicate", func(t *testing.T) {
		c := NormalizeClaim(fact.Claim{
			Subject:   fact.EntityRef{Type: "company", Name: "Acme Corp"},
			Predicate: "soc2_certified",
			Value:     "yes",
		}, voc)
		if c.Predicate != "has_soc2" {
			t.Errorf("predicate = %q, want has_soc2", c.Predicate)
		}
		if c.Value != ValueTrue {
			t.Errorf("value = %q, want true", c.Value)
		}
	})

	t.Run("subject key is case-insensitive", func(t *testing.T) {
		a := NormalizeClaim(fact.Claim{Subject: fact.EntityRef{Type: "company", Name: "ACME  Corp"}, Predicate: "has_soc2", Value: "yes"}, voc)
		b := NormalizeClaim(fact.Claim{Subject: fact.EntityRef{Type: "company", Name: "acme corp"}, Predicate: "has_soc2", Value: "no"}, voc)
		if a.SubjectKey != b.SubjectKey {
			t.Errorf("keys differ: %q vs %q", a.SubjectKey, b.SubjectKey)
		}
	})

	t.Run("enum value matches case-insensitively", func(t *testing.T) {
		c := NormalizeClaim(fact.Claim{
			Subject:   fact.EntityRef{Type: "company", Name: "Acme"},
			Predicate: "funding_stage",
			Value:     "Series_A",
		}, voc)
		if c.Value != "series_a" {
			t.Errorf("value = %q, want series_a", c.Value)
		}
	})

	t.Run("enum miss becomes unknown", func(t *testing.T) {
		c := NormalizeClaim(fact.Claim{
			Subject:   fact.EntityRef{Type: "company", Name: "Acme"},
			Predicate: "funding_stage",
			Value:     "series_q",
		}, voc)
		if c.Value != ValueUnknown {
			t.Errorf("value = %q, want unknown", c.Value)
		}
	})

	t.Run("unknown predicate keeps literal comparable", func(t *testing.T) {
		c := NormalizeClaim(fact.Claim{
			Subject:   fact.EntityRef{Type: "company", Name: "Acme"},
			Predicate: "has_moat",
			Value:     "narrow",
		}, voc)
		if c.DefKnown {
			t.Error("expected vocabulary miss")
		}
		if c.Value != "narrow" {
			t.Errorf("value = %q, want narrow", c.Value)
		}
	})
}

func TestResolveClaimValueTokens(t *testing.T) {
	var noDef vocab.ClaimPredicate
	tests := []struct {
		raw  string
		want string
	}{
		{"true", ValueTrue},
		{"Yes", ValueTrue},
		{"CONFIRMED", ValueTrue},
		{"certified", ValueTrue},
		{"false", ValueFalse},
		{"denied", ValueFalse},
		{"not compliant", ValueFalse},
		{"lapsed", ValueFalse},
		{"", ValueUnknown},
		{"unknown", ValueUnknown},
	}
	for _, tc := range tests {
		if got := resolveClaimValue(tc.raw, noDef, false); got != tc.want {
			t.Errorf("resolveClaimValue(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
