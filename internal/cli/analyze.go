package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veridex/veridex/internal/fact"
	"github.com/veridex/veridex/internal/quality"
)

var analyzeJSON bool

var analyzeCmd = &cobra.Command{
	Use:   "analyze <document-id>",
	Short: "Run the consistency analysis over a document's facts",
	Long: `Analyze a document's stored facts for internal consistency. The
analysis detects conflicting metric values (same entity, same metric,
overlapping periods, values apart beyond tolerance), contradictory
claims, and open questions such as missing units or stale data. The
result is persisted; triage status from earlier runs is preserved.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig()
		if err != nil {
			return err
		}
		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		reg, err := loadRegistry(cfg)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		documentID := args[0]
		if _, err := s.GetDocument(ctx, documentID); err != nil {
			return fmt.Errorf("document %s: %w", documentID, err)
		}

		set, err := s.FactsForDocument(ctx, documentID)
		if err != nil {
			return fmt.Errorf("loading facts: %w", err)
		}
		if set.Len() == 0 {
			return fmt.Errorf("document %s has no extracted facts; run 'veridex extract' first", documentID)
		}

		result, err := quality.Analyze(set, fact.ScopeFilter{DocumentID: documentID}, reg, qualityOptions(cfg))
		if err != nil {
			return fmt.Errorf("analysis failed: %w", err)
		}
		if _, err := s.SaveAnalysis(ctx, documentID, result); err != nil {
			return fmt.Errorf("saving analysis: %w", err)
		}

		if analyzeJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		printResult(result)
		return nil
	},
}

func printResult(result *fact.AnalysisResult) {
	fmt.Printf("analyzed %d facts: %d conflicts, %d open questions\n\n",
		result.Summary.TotalFacts, len(result.Conflicts), len(result.OpenQuestions))

	for _, c := range result.Conflicts {
		fmt.Printf("[%s] %s (%s)\n", c.Severity, c.Rationale, c.ID)
		fmt.Printf("  facts: %v\n", c.InvolvedFacts)
	}
	if len(result.Conflicts) > 0 && len(result.OpenQuestions) > 0 {
		fmt.Println()
	}
	for _, q := range result.OpenQuestions {
		fmt.Printf("[%s/%s] %s (%s)\n", q.Priority, q.Category, q.Statement, q.ID)
	}
}

func init() {
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "emit the full result as JSON")
	rootCmd.AddCommand(analyzeCmd)
}
