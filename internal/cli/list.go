package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veridex/veridex/internal/fact"
	"github.com/veridex/veridex/internal/store"
)

var (
	listStatus   string
	listSeverity string
	listLimit    int
)

var documentsCmd = &cobra.Command{
	Use:   "documents",
	Short: "List ingested documents",
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

		docs, err := s.ListDocuments(cmd.Context(), store.ListOpts{Limit: listLimit})
		if err != nil {
			return err
		}
		if len(docs) == 0 {
			fmt.Println("no documents")
			return nil
		}
		for _, d := range docs {
			fmt.Printf("%s  %-30s %-14s %s\n", d.ID, d.Title, d.ContentType, d.CreatedAt.Format("2006-01-02"))
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <document-id>",
	Short: "Soft-delete a document",
	Long: `Remove a document from all listings and lookups. Its versions, facts,
and analysis history stay on disk for audit; nothing is physically erased.`,
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

		if err := s.DeleteDocument(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted %s\n", args[0])
		return nil
	},
}

var conflictsCmd = &cobra.Command{
	Use:   "conflicts <document-id>",
	Short: "List a document's detected conflicts",
	Args:  cobra.ExactArgs(1),
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

		conflicts, err := s.ListConflicts(cmd.Context(), args[0], store.ListOpts{
			Limit: listLimit, Status: listStatus, Severity: listSeverity,
		})
		if err != nil {
			return err
		}
		if len(conflicts) == 0 {
			fmt.Println("no conflicts")
			return nil
		}
		for _, c := range conflicts {
			fmt.Printf("[%s/%s] %s\n  %s\n  facts: %v\n", c.Severity, c.Status, c.ID, c.Rationale, c.InvolvedFacts)
		}
		return nil
	},
}

var questionsCmd = &cobra.Command{
	Use:   "questions <document-id>",
	Short: "List a document's open questions",
	Args:  cobra.ExactArgs(1),
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

		questions, err := s.ListOpenQuestions(cmd.Context(), args[0], store.ListOpts{
			Limit: listLimit, Status: listStatus,
		})
		if err != nil {
			return err
		}
		if len(questions) == 0 {
			fmt.Println("no open questions")
			return nil
		}
		for _, q := range questions {
			fmt.Printf("[%s/%s] %s\n  %s (fact %s)\n", q.Priority, q.Category, q.ID, q.Statement, q.RelatedFactID)
		}
		return nil
	},
}

var triageCmd = &cobra.Command{
	Use:   "triage <id> <status>",
	Short: "Update the triage status of a conflict or open question",
	Long: `Set the status of a conflict (open, acknowledged, resolved) or an open
question (open, answered, dismissed). Status survives re-analysis because
conflict and question ids are derived from their content.`,
	Args: cobra.ExactArgs(2),
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

		id, status := args[0], args[1]
		switch {
		case len(id) > 9 && id[:9] == "conflict-":
			err = s.UpdateConflictStatus(cmd.Context(), id, fact.ConflictStatus(status))
		case len(id) > 9 && id[:9] == "question-":
			err = s.UpdateQuestionStatus(cmd.Context(), id, fact.QuestionStatus(status))
		default:
			return fmt.Errorf("id must start with conflict- or question-")
		}
		if err != nil {
			return err
		}
		fmt.Printf("%s -> %s\n", id, status)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show repository statistics",
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

		stats, err := s.Stats(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("documents:  %d\n", stats.DocumentCount)
		fmt.Printf("versions:   %d\n", stats.VersionCount)
		fmt.Printf("metrics:    %d\n", stats.MetricCount)
		fmt.Printf("claims:     %d\n", stats.ClaimCount)
		fmt.Printf("runs:       %d\n", stats.RunCount)
		fmt.Printf("conflicts:  %d\n", stats.ConflictCount)
		fmt.Printf("questions:  %d\n", stats.QuestionCount)
		if stats.DBSizeBytes > 0 {
			fmt.Printf("db size:    %.1f MB\n", float64(stats.DBSizeBytes)/(1024*1024))
		}
		return nil
	},
}

func init() {
	documentsCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum results")
	conflictsCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum results")
	conflictsCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")
	conflictsCmd.Flags().StringVar(&listSeverity, "severity", "", "filter by severity")
	questionsCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum results")
	questionsCmd.Flags().StringVar(&listStatus, "status", "", "filter by status")

	rootCmd.AddCommand(documentsCmd, deleteCmd, conflictsCmd, questionsCmd, triageCmd, statsCmd)
}
