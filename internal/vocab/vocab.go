// Package vocab holds the extraction vocabularies: per-profile catalogs of
// metric definitions, claim predicates, and risk categories.
//
// A vocabulary is static configuration. The registry is built explicitly
// (compiled-in profiles plus optional YAML overlays) and passed into the
// analysis entry point; there is no global singleton, so tests can run
// against synthetic vocabularies.
package vocab

import (
	"sort"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
)

// UnitType groups units that are mutually comparable.
type UnitType string

const (
	UnitMoney    UnitType = "money"
	UnitPercent  UnitType = "percent"
	UnitCount    UnitType = "count"
	UnitRatio    UnitType = "ratio"
	UnitDuration UnitType = "duration_months"
	UnitUnknown  UnitType = "unknown"
)

// ValueKind describes the value space of a claim predicate.
type ValueKind string

const (
	ValueBool ValueKind = "bool"
	ValueEnum ValueKind = "enum"
)

// MetricDefinition describes one metric in a profile's catalog.
type MetricDefinition struct {
	Name            string   `yaml:"name"`
	DisplayName     string   `yaml:"display_name"`
	Description     string   `yaml:"description"`
	UnitType        UnitType `yaml:"unit_type"`
	Aliases         []string `yaml:"aliases,omitempty"`
	RequiredLevel   int      `yaml:"required_level"`
	Critical        bool     `yaml:"critical,omitempty"`
	PeriodSensitive bool     `yaml:"period_sensitive,omitempty"`
}

// ClaimPredicate describes one claim predicate in a profile's catalog.
type ClaimPredicate struct {
	Name          string    `yaml:"name"`
	DisplayName   string    `yaml:"display_name"`
	Description   string    `yaml:"description"`
	ValueKind     ValueKind `yaml:"value_kind"`
	AllowedValues []string  `yaml:"allowed_values,omitempty"`
	Aliases       []string  `yaml:"aliases,omitempty"`
	RequiredLevel int       `yaml:"required_level"`
}

// RiskCategory describes one risk category in a profile's catalog.
type RiskCategory struct {
	Name          string   `yaml:"name"`
	DisplayName   string   `yaml:"display_name"`
	Description   string   `yaml:"description"`
	Indicators    []string `yaml:"indicators,omitempty"`
	RequiredLevel int      `yaml:"required_level"`
}

// Profile is one industry vertical's vocabulary.
type Profile struct {
	Code       string             `yaml:"code"`
	Name       string             `yaml:"name"`
	Metrics    []MetricDefinition `yaml:"metrics"`
	Predicates []ClaimPredicate   `yaml:"predicates"`
	Risks      []RiskCategory     `yaml:"risks,omitempty"`

	metricIndex    map[string]*MetricDefinition
	predicateIndex map[string]*ClaimPredicate
}

// MaxLevel is the deepest extraction level a vocabulary defines.
const MaxLevel = 4

func (p *Profile) buildIndexes() {
	p.metricIndex = make(map[string]*MetricDefinition, len(p.Metrics)*2)
	for i := range p.Metrics {
		m := &p.Metrics[i]
		p.metricIndex[normalizeName(m.Name)] = m
		for _, a := range m.Aliases {
			p.metricIndex[normalizeName(a)] = m
		}
	}
	p.predicateIndex = make(map[string]*ClaimPredicate, len(p.Predicates)*2)
	for i := range p.Predicates {
		c := &p.Predicates[i]
		p.predicateIndex[normalizeName(c.Name)] = c
		for _, a := range c.Aliases {
			p.predicateIndex[normalizeName(a)] = c
		}
	}
}

func normalizeName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), "_"))
}

// MetricsAtLevel returns every metric available at the given extraction
// level. Levels are cumulative: level 3 includes levels 1-3.
func (p *Profile) MetricsAtLevel(level int) []MetricDefinition {
	out := make([]MetricDefinition, 0, len(p.Metrics))
	for _, m := range p.Metrics {
		if m.RequiredLevel <= level {
			out = append(out, m)
		}
	}
	return out
}

// PredicatesAtLevel returns every claim predicate available at the level.
func (p *Profile) PredicatesAtLevel(level int) []ClaimPredicate {
	out := make([]ClaimPredicate, 0, len(p.Predicates))
	for _, c := range p.Predicates {
		if c.RequiredLevel <= level {
			out = append(out, c)
		}
	}
	return out
}

// RisksAtLevel returns every risk category available at the level.
func (p *Profile) RisksAtLevel(level int) []RiskCategory {
	out := make([]RiskCategory, 0, len(p.Risks))
	for _, r := range p.Risks {
		if r.RequiredLevel <= level {
			out = append(out, r)
		}
	}
	return out
}

// Metric looks up a metric definition by canonical name or alias.
func (p *Profile) Metric(name string) (MetricDefinition, bool) {
	if m, ok := p.metricIndex[normalizeName(name)]; ok {
		return *m, true
	}
	return MetricDefinition{}, false
}

// Predicate looks up a claim predicate by canonical name or alias.
func (p *Profile) Predicate(name string) (ClaimPredicate, bool) {
	if c, ok := p.predicateIndex[normalizeName(name)]; ok {
		return *c, true
	}
	return ClaimPredicate{}, false
}

// Vocabulary is the read-only view the analysis core consults.
type Vocabulary interface {
	Metric(name string) (MetricDefinition, bool)
	Predicate(name string) (ClaimPredicate, bool)
}

// UnitTypeOf resolves a metric name to its declared unit type, falling back
// to unknown for names the vocabulary does not know.
func UnitTypeOf(v Vocabulary, name string) UnitType {
	if m, ok := v.Metric(name); ok {
		return m.UnitType
	}
	return UnitUnknown
}

// IsCritical reports whether a metric is in the profile's critical set.
func IsCritical(v Vocabulary, name string) bool {
	m, ok := v.Metric(name)
	return ok && m.Critical
}

// IsPeriodSensitive reports whether a metric is meaningless without a
// period (flow metrics like revenue, as opposed to point-in-time ones like
// headcount).
func IsPeriodSensitive(v Vocabulary, name string) bool {
	m, ok := v.Metric(name)
	return ok && m.PeriodSensitive
}

// Registry holds all known profiles, keyed by profile code.
type Registry struct {
	profiles map[string]*Profile
	fallback string

	// alias lookups repeat heavily across facts in one document; the
	// resolved canonical names are memoized per (profile, raw name).
	lookups *gocache.Cache
}

// NewRegistry builds a registry over the given profiles. The first profile
// is the fallback for unknown codes.
func NewRegistry(profiles ...*Profile) *Registry {
	r := &Registry{
		profiles: make(map[string]*Profile, len(profiles)),
		lookups:  gocache.New(30*time.Minute, 10*time.Minute),
	}
	for i, p := range profiles {
		p.buildIndexes()
		r.profiles[p.Code] = p
		if i == 0 {
			r.fallback = p.Code
		}
	}
	return r
}

// Profile returns the vocabulary for a profile code, falling back to the
// registry's default profile for unknown codes.
func (r *Registry) Profile(code string) *Profile {
	if p, ok := r.profiles[code]; ok {
		return p
	}
	return r.profiles[r.fallback]
}

// Has reports whether a profile code is registered.
func (r *Registry) Has(code string) bool {
	_, ok := r.profiles[code]
	return ok
}

// Codes lists the registered profile codes in sorted order.
func (r *Registry) Codes() []string {
	out := make([]string, 0, len(r.profiles))
	for code := range r.profiles {
		out = append(out, code)
	}
	sort.Strings(out)
	return out
}

// Canonical resolves a metric name or alias to its canonical name within a
// profile. Unknown names are returned normalized but unchanged.
func (r *Registry) Canonical(profileCode, name string) string {
	key := profileCode + "\x00" + name
	if hit, ok := r.lookups.Get(key); ok {
		return hit.(string)
	}
	canonical := normalizeName(name)
	if m, ok := r.Profile(profileCode).Metric(name); ok {
		canonical = m.Name
	} else if c, ok := r.Profile(profileCode).Predicate(name); ok {
		canonical = c.Name
	}
	r.lookups.Set(key, canonical, gocache.DefaultExpiration)
	return canonical
}
