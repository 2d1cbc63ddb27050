package vocab

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLevelsAreCumulative(t *testing.T) {
	p := VCProfile()
	p.buildIndexes()

	l1 := p.MetricsAtLevel(1)
	l3 := p.MetricsAtLevel(3)
	if len(l3) <= len(l1) {
		t.Fatalf("level 3 should include level 1: got %d vs %d", len(l3), len(l1))
	}

	names := func(ms []MetricDefinition) map[string]bool {
		out := make(map[string]bool, len(ms))
		for _, m := range ms {
			out[m.Name] = true
		}
		return out
	}
	l3Names := names(l3)
	for name := range names(l1) {
		if !l3Names[name] {
			t.Errorf("level-1 metric %s missing at level 3", name)
		}
	}
	if names(l1)["cac"] {
		t.Error("cac is level 3, should not appear at level 1")
	}
	if !l3Names["cac"] {
		t.Error("cac should appear at level 3")
	}
}

func TestMetricLookupByAlias(t *testing.T) {
	p := VCProfile()
	p.buildIndexes()

	m, ok := p.Metric("annual_recurring_revenue")
	if !ok || m.Name != "arr" {
		t.Errorf("alias lookup: got (%q, %v), want (arr, true)", m.Name, ok)
	}
	m, ok = p.Metric("  Annual Recurring Revenue  ")
	if !ok || m.Name != "arr" {
		t.Errorf("normalized alias lookup: got (%q, %v), want (arr, true)", m.Name, ok)
	}
	if _, ok := p.Metric("weekly_active_wizards"); ok {
		t.Error("unknown metric should miss")
	}

	c, ok := p.Predicate("soc2")
	if !ok || c.Name != "has_soc2" {
		t.Errorf("predicate alias lookup: got (%q, %v), want (has_soc2, true)", c.Name, ok)
	}
}

func TestRegistryFallback(t *testing.T) {
	reg := BuiltinRegistry()

	if got := reg.Profile("vc").Code; got != "vc" {
		t.Errorf("known code: got %q", got)
	}
	if got := reg.Profile("maritime-salvage").Code; got != "general" {
		t.Errorf("unknown code should fall back to general, got %q", got)
	}
	if reg.Has("maritime-salvage") {
		t.Error("Has should report unknown codes as missing")
	}

	codes := reg.Codes()
	want := []string{"general", "insurance", "pharma", "vc"}
	if len(codes) != len(want) {
		t.Fatalf("codes = %v, want %v", codes, want)
	}
	for i := range want {
		if codes[i] != want[i] {
			t.Fatalf("codes = %v, want %v", codes, want)
		}
	}
}

func TestCanonical(t *testing.T) {
	reg := BuiltinRegistry()

	if got := reg.Canonical("vc", "Annual Recurring Revenue"); got != "arr" {
		t.Errorf("Canonical alias: got %q, want arr", got)
	}
	if got := reg.Canonical("vc", "soc2_certified"); got != "has_soc2" {
		t.Errorf("Canonical predicate alias: got %q, want has_soc2", got)
	}
	if got := reg.Canonical("vc", "Weekly Active Wizards"); got != "weekly_active_wizards" {
		t.Errorf("unknown name should be returned normalized, got %q", got)
	}
	// Repeated lookups hit the memo and must stay stable.
	if got := reg.Canonical("vc", "Annual Recurring Revenue"); got != "arr" {
		t.Errorf("memoized Canonical: got %q, want arr", got)
	}
}

func writeProfile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("writing profile: %v", err)
	}
}

const customProfileYAML = `code: saas
name: SaaS
metrics:
  - name: nps
    display_name: NPS
    description: Net promoter score
    unit_type: count
    required_level: 1
predicates:
  - name: has_sla
    display_name: Has SLA
    description: Publishes an availability SLA
    value_kind: bool
    required_level: 1
`

const overrideVCYAML = `code: vc
name: Venture Capital (custom)
metrics:
  - name: arr
    display_name: ARR
    description: Annual recurring revenue
    unit_type: money
    required_level: 1
`

func TestLoadDirOverlaysBuiltins(t *testing.T) {
	dir := t.TempDir()
	writeProfile(t, dir, "saas.yaml", customProfileYAML)
	writeProfile(t, dir, "vc.yml", overrideVCYAML)
	writeProfile(t, dir, "notes.txt", "ignored")

	reg, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}

	if !reg.Has("saas") {
		t.Fatal("custom profile not registered")
	}
	if m, ok := reg.Profile("saas").Metric("nps"); !ok || m.UnitType != UnitCount {
		t.Errorf("custom metric: got (%+v, %v)", m, ok)
	}

	vc := reg.Profile("vc")
	if vc.Name != "Venture Capital (custom)" {
		t.Errorf("builtin vc should be replaced, got %q", vc.Name)
	}
	if _, ok := vc.Metric("mrr"); ok {
		t.Error("replaced profile should not retain builtin metrics")
	}

	// Builtins not overridden survive, and general stays the fallback.
	if !reg.Has("pharma") || !reg.Has("insurance") {
		t.Error("untouched builtins should remain registered")
	}
	if got := reg.Profile("nope").Code; got != "general" {
		t.Errorf("fallback = %q, want general", got)
	}
}

func TestLoadProfileValidation(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{"missing code", "name: X\n", "code is required"},
		{"bad level", "code: x\nmetrics:\n  - name: m\n    unit_type: money\n    required_level: 9\n", "required_level"},
		{"missing unit type", "code: x\nmetrics:\n  - name: m\n    required_level: 1\n", "unit_type"},
		{"enum without values", "code: x\npredicates:\n  - name: p\n    value_kind: enum\n    required_level: 1\n", "allowed_values"},
		{"malformed yaml", "code: [unclosed\n", "parsing"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tc.name, " ", "_")+".yaml")
			if err := os.WriteFile(path, []byte(tc.yaml), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := LoadProfile(path)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}
