// Package extract turns document text into structured facts using the
// OpenAI chat API. Extraction is vocabulary-guided and level-aware: the
// prompt lists exactly the metrics and predicates of the document's
// profile up to the requested level, and the model returns a JSON payload
// that is parsed defensively. Unparseable model output degrades to fewer
// facts, never to an aborted run.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/veridex/veridex/internal/fact"
	"github.com/veridex/veridex/internal/ingest"
	"github.com/veridex/veridex/internal/vocab"
	"github.com/veridex/veridex/internal/worker"
)

// chatCompleter is the slice of the OpenAI client extraction needs.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Options configures an Extractor.
type Options struct {
	Model          string
	Workers        int
	RequestsPerSec float64
}

// Extractor extracts facts from document sections.
type Extractor struct {
	client chatCompleter
	reg    *vocab.Registry
	opts   Options
}

// New creates an Extractor backed by the given OpenAI client.
func New(client *openai.Client, reg *vocab.Registry, opts Options) *Extractor {
	return newWithCompleter(client, reg, opts)
}

func newWithCompleter(client chatCompleter, reg *vocab.Registry, opts Options) *Extractor {
	if opts.Model == "" {
		opts.Model = openai.GPT4oMini
	}
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	return &Extractor{client: client, reg: reg, opts: opts}
}

// ExtractDocument runs extraction over every section of a document version
// and returns the merged fact set. Sections are processed concurrently
// under a shared rate limit; a section whose extraction fails contributes
// an error but does not block the others.
func (e *Extractor) ExtractDocument(ctx context.Context, scope fact.Scope, contentType, content string) (fact.Set, []error) {
	sections := ingest.SplitSections(scope.VersionID, contentType, content)
	if len(sections) == 0 {
		return fact.Set{}, nil
	}

	pool := worker.NewPool[fact.Set](e.opts.Workers, e.opts.RequestsPerSec, e.opts.Workers)
	tasks := make([]worker.Task[fact.Set], len(sections))
	for i, sec := range sections {
		sec := sec
		tasks[i] = func(ctx context.Context) (fact.Set, error) {
			return e.extractSection(ctx, scope, sec)
		}
	}

	outcomes, runErr := pool.Run(ctx, tasks)

	var merged fact.Set
	var errs []error
	for _, out := range outcomes {
		if out.Err != nil {
			errs = append(errs, fmt.Errorf("section %s: %w", sections[out.Index].Ref, out.Err))
			continue
		}
		merged.Metrics = append(merged.Metrics, out.Value.Metrics...)
		merged.Claims = append(merged.Claims, out.Value.Claims...)
	}
	if runErr != nil {
		errs = append(errs, runErr)
	}
	return merged, errs
}

func (e *Extractor) extractSection(ctx context.Context, scope fact.Scope, sec ingest.Section) (fact.Set, error) {
	profile := e.reg.Profile(scope.ProfileID)
	prompt := BuildPrompt(profile, scope.LevelID, sec)

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       e.opts.Model,
		Temperature: 0,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return fact.Set{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return fact.Set{}, fmt.Errorf("empty completion response")
	}

	return ParsePayload(resp.Choices[0].Message.Content, scope, sec.Ref)
}

const systemPrompt = `You extract verifiable facts from business documents.
Report only what the text states. Never infer, never convert units or
currencies, never fill in missing periods. Copy the raw value text exactly
into value_raw. Respond with a single JSON object and nothing else.`

// BuildPrompt renders the extraction prompt for one section. The metric
// and predicate catalogs are restricted to the profile's requested level.
func BuildPrompt(profile *vocab.Profile, level int, sec ingest.Section) string {
	var b strings.Builder

	b.WriteString("Extract facts from the document section below.\n\n")
	b.WriteString("Known metrics (use these canonical names when they apply):\n")
	for _, m := range profile.MetricsAtLevel(level) {
		fmt.Fprintf(&b, "- %s: %s (unit type: %s)\n", m.Name, m.Description, m.UnitType)
	}

	b.WriteString("\nKnown claim predicates:\n")
	for _, p := range profile.PredicatesAtLevel(level) {
		fmt.Fprintf(&b, "- %s: %s", p.Name, p.Description)
		if p.ValueKind == vocab.ValueEnum {
			fmt.Fprintf(&b, " (values: %s)", strings.Join(p.AllowedValues, ", "))
		}
		b.WriteString("\n")
	}

	b.WriteString(`
Respond with JSON:
{
  "metrics": [{"entity_id": "", "entity_type": "", "metric_name": "",
    "value_numeric": 0, "value_raw": "", "unit": "", "currency": "",
    "period_start": "YYYY-MM-DD", "period_end": "YYYY-MM-DD",
    "period_type": "instant|monthly|quarterly|annual|ttm|unknown",
    "confidence": 0.0, "certainty": "definite|probable|possible|disputed"}],
  "claims": [{"subject_type": "", "subject_name": "", "predicate": "",
    "object_type": "", "object_name": "", "claim_type": "", "value": "",
    "time_scope_start": "YYYY-MM-DD", "time_scope_end": "YYYY-MM-DD",
    "confidence": 0.0, "certainty": "definite|probable|possible|disputed"}]
}
Omit fields the text does not state. Use empty arrays when nothing matches.
`)

	if sec.Heading != "" {
		fmt.Fprintf(&b, "\nSection: %s\n", sec.Heading)
	}
	b.WriteString("\n---\n")
	b.WriteString(sec.Text)
	return b.String()
}

// payload is the wire shape the model returns.
type payload struct {
	Metrics []metricPayload `json:"metrics"`
	Claims  []claimPayload  `json:"claims"`
}

type metricPayload struct {
	EntityID     string   `json:"entity_id"`
	EntityType   string   `json:"entity_type"`
	MetricName   string   `json:"metric_name"`
	ValueNumeric *float64 `json:"value_numeric"`
	ValueRaw     string   `json:"value_raw"`
	Unit         string   `json:"unit"`
	Currency     string   `json:"currency"`
	PeriodStart  string   `json:"period_start"`
	PeriodEnd    string   `json:"period_end"`
	PeriodType   string   `json:"period_type"`
	Confidence   float64  `json:"confidence"`
	Certainty    string   `json:"certainty"`
}

type claimPayload struct {
	SubjectType    string  `json:"subject_type"`
	SubjectName    string  `json:"subject_name"`
	SubjectID      string  `json:"subject_id"`
	Predicate      string  `json:"predicate"`
	ObjectType     string  `json:"object_type"`
	ObjectName     string  `json:"object_name"`
	ClaimType      string  `json:"claim_type"`
	Value          string  `json:"value"`
	TimeScopeStart string  `json:"time_scope_start"`
	TimeScopeEnd   string  `json:"time_scope_end"`
	Confidence     float64 `json:"confidence"`
	Certainty      string  `json:"certainty"`
}

// ParsePayload decodes a model response into facts carrying the given
// scope and span ref. Entries without an identity are dropped rather than
// failing the section; model output is never trusted to be complete.
func ParsePayload(raw string, scope fact.Scope, spanRef string) (fact.Set, error) {
	raw = stripFences(raw)

	var p payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return fact.Set{}, fmt.Errorf("decoding extraction payload: %w", err)
	}

	now := time.Now().UTC()
	var set fact.Set
	for _, m := range p.Metrics {
		if strings.TrimSpace(m.EntityID) == "" || strings.TrimSpace(m.MetricName) == "" {
			continue
		}
		set.Metrics = append(set.Metrics, fact.Metric{
			Scope:                scope,
			SpanRefs:             []string{spanRef},
			ExtractionConfidence: clampConfidence(m.Confidence),
			Certainty:            parseCertainty(m.Certainty),
			ExtractedAt:          now,
			EntityID:             m.EntityID,
			EntityType:           m.EntityType,
			MetricName:           m.MetricName,
			ValueNumeric:         m.ValueNumeric,
			ValueRaw:             m.ValueRaw,
			Unit:                 m.Unit,
			Currency:             m.Currency,
			PeriodStart:          parseDate(m.PeriodStart),
			PeriodEnd:            parseDate(m.PeriodEnd),
			PeriodType:           parsePeriodType(m.PeriodType),
		})
	}
	for _, c := range p.Claims {
		if strings.TrimSpace(c.SubjectName) == "" && strings.TrimSpace(c.SubjectID) == "" {
			continue
		}
		if strings.TrimSpace(c.Predicate) == "" {
			continue
		}
		set.Claims = append(set.Claims, fact.Claim{
			Scope:                scope,
			SpanRefs:             []string{spanRef},
			ExtractionConfidence: clampConfidence(c.Confidence),
			Certainty:            parseCertainty(c.Certainty),
			ExtractedAt:          now,
			Subject:              fact.EntityRef{Type: c.SubjectType, Name: c.SubjectName, ID: c.SubjectID},
			Object:               fact.EntityRef{Type: c.ObjectType, Name: c.ObjectName},
			Predicate:            c.Predicate,
			ClaimType:            c.ClaimType,
			Value:                c.Value,
			TimeScopeStart:       parseDate(c.TimeScopeStart),
			TimeScopeEnd:         parseDate(c.TimeScopeEnd),
		})
	}
	return set, nil
}

// stripFences removes markdown code fences some models wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

func parseCertainty(s string) fact.Certainty {
	switch fact.Certainty(strings.ToLower(strings.TrimSpace(s))) {
	case fact.CertaintyDefinite:
		return fact.CertaintyDefinite
	case fact.CertaintyPossible:
		return fact.CertaintyPossible
	case fact.CertaintyDisputed:
		return fact.CertaintyDisputed
	default:
		return fact.CertaintyProbable
	}
}

func parsePeriodType(s string) fact.PeriodType {
	switch fact.PeriodType(strings.ToLower(strings.TrimSpace(s))) {
	case fact.PeriodInstant, fact.PeriodMonthly, fact.PeriodQuarterly, fact.PeriodAnnual, fact.PeriodTTM:
		return fact.PeriodType(strings.ToLower(strings.TrimSpace(s)))
	default:
		return fact.PeriodUnknown
	}
}

func clampConfidence(v float64) float64 {
	if v <= 0 {
		return 0.5
	}
	if v > 1 {
		return 1
	}
	return v
}
