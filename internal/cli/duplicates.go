package cli

import (
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/veridex/veridex/internal/embed"
	"github.com/veridex/veridex/internal/ingest"
)

var dupThreshold float64

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates <document-id>",
	Short: "Find near-duplicate sections in a document's latest version",
	Long: `Embed each section of the document's latest version via the OpenAI
embeddings API and group sections whose cosine similarity meets the
threshold. Near-duplicate sections usually mean repeated boilerplate or
restated figures worth checking when reviewing conflicts.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig()
		if err != nil {
			return err
		}
		if cfg.OpenAIAPIKey.Value == "" {
			return fmt.Errorf("no OpenAI API key configured; set OPENAI_API_KEY or openai.api_key in %s", cfg.ConfigPath)
		}

		s, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		documentID := args[0]
		doc, err := s.GetDocument(ctx, documentID)
		if err != nil {
			return fmt.Errorf("document %s: %w", documentID, err)
		}
		version, err := s.LatestVersion(ctx, documentID)
		if err != nil {
			return fmt.Errorf("no ingested version for %s: %w", documentID, err)
		}

		sections := ingest.SplitSections(version.ID, doc.ContentType, version.Content)
		if len(sections) < 2 {
			fmt.Println("not enough sections to compare")
			return nil
		}
		texts := make([]string, len(sections))
		for i, sec := range sections {
			texts[i] = sec.Text
		}

		clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey.Value)
		if cfg.OpenAIBaseURL.Value != "" {
			clientCfg.BaseURL = cfg.OpenAIBaseURL.Value
		}
		emb := embed.New(openai.NewClientWithConfig(clientCfg), cfg.EmbeddingModel.Value)

		groups, err := emb.NearDuplicateGroups(ctx, texts, dupThreshold)
		if err != nil {
			return fmt.Errorf("embedding sections: %w", err)
		}

		found := 0
		for _, g := range groups {
			if len(g) < 2 {
				continue
			}
			found++
			fmt.Printf("group %d:\n", found)
			for _, i := range g {
				fmt.Printf("  %s  %s\n", sections[i].Ref, sectionLabel(sections[i]))
			}
		}
		if found == 0 {
			fmt.Printf("no near-duplicate sections at threshold %.2f\n", dupThreshold)
		}
		return nil
	},
}

func sectionLabel(sec ingest.Section) string {
	if sec.Heading != "" {
		return sec.Heading
	}
	line := sec.Text
	if i := strings.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if len(line) > 60 {
		line = line[:60] + "..."
	}
	return line
}

func init() {
	duplicatesCmd.Flags().Float64Var(&dupThreshold, "threshold", 0.9, "cosine similarity at or above which sections group")
	rootCmd.AddCommand(duplicatesCmd)
}
