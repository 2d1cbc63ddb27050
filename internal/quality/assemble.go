package quality

import (
	"sort"
	"time"

	"github.com/veridex/veridex/internal/fact"
)

// assemble merges detector output into one deterministic result: conflicts
// by severity then group size, questions by priority then category, plus
// summary counts and the scope echo. No domain logic happens here.
func assemble(conflicts []fact.Conflict, questions []fact.OpenQuestion, totalFacts int, filter fact.ScopeFilter, now time.Time) *fact.AnalysisResult {
	sort.Slice(conflicts, func(i, j int) bool {
		a, b := conflicts[i], conflicts[j]
		if a.Severity.Rank() != b.Severity.Rank() {
			return a.Severity.Rank() > b.Severity.Rank()
		}
		if len(a.InvolvedFacts) != len(b.InvolvedFacts) {
			return len(a.InvolvedFacts) > len(b.InvolvedFacts)
		}
		return a.ID < b.ID
	})

	sort.Slice(questions, func(i, j int) bool {
		a, b := questions[i], questions[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() > b.Priority.Rank()
		}
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.RelatedFactID != b.RelatedFactID {
			return a.RelatedFactID < b.RelatedFactID
		}
		return a.ID < b.ID
	})

	summary := fact.Summary{
		TotalFacts:          totalFacts,
		ConflictsByType:     make(map[fact.ConflictType]int),
		ConflictsBySeverity: make(map[fact.Severity]int),
		QuestionsByCategory: make(map[fact.QuestionCategory]int),
		QuestionsByPriority: make(map[fact.QuestionPriority]int),
	}
	for _, c := range conflicts {
		summary.ConflictsByType[c.Type]++
		summary.ConflictsBySeverity[c.Severity]++
	}
	for _, q := range questions {
		summary.QuestionsByCategory[q.Category]++
		summary.QuestionsByPriority[q.Priority]++
	}

	return &fact.AnalysisResult{
		Conflicts:     conflicts,
		OpenQuestions: questions,
		Summary:       summary,
		Scope:         filter,
		AnalyzedAt:    now,
	}
}
