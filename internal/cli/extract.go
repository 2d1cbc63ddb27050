package cli

import (
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/veridex/veridex/internal/config"
	"github.com/veridex/veridex/internal/extract"
	"github.com/veridex/veridex/internal/fact"
)

var (
	extractLevel   int
	extractContext string
	reExtract      bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <document-id>",
	Short: "Extract structured facts from a document's latest version",
	Long: `Run vocabulary-guided fact extraction over a document's latest version
using the OpenAI API. The extraction level controls how much of the
profile's vocabulary is in scope (1 = core metrics only, 4 = everything).
Extracted facts are stored and become the input of 'veridex analyze'.`,
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

		reg, err := loadRegistry(cfg)
		if err != nil {
			return err
		}

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

		if reExtract {
			if err := s.DeleteFactsForVersion(ctx, version.ID); err != nil {
				return fmt.Errorf("clearing previous facts: %w", err)
			}
		}

		level := extractLevel
		if level <= 0 {
			level = cfg.ExtractLevel.IntValue(config.DefaultExtractLevel)
		}
		scope := fact.Scope{
			DocumentID:     doc.ID,
			VersionID:      version.ID,
			ProfileID:      cfg.Profile.Value,
			LevelID:        level,
			ProcessContext: processContext(),
		}

		clientCfg := openai.DefaultConfig(cfg.OpenAIAPIKey.Value)
		if cfg.OpenAIBaseURL.Value != "" {
			clientCfg.BaseURL = cfg.OpenAIBaseURL.Value
		}
		ext := extract.New(openai.NewClientWithConfig(clientCfg), reg, extract.Options{
			Model:          cfg.ExtractModel.Value,
			Workers:        cfg.ExtractWorkers.IntValue(config.DefaultWorkers),
			RequestsPerSec: cfg.RequestsPerSec.FloatValue(config.DefaultRequestsPerSec),
		})

		set, errs := ext.ExtractDocument(ctx, scope, doc.ContentType, version.Content)
		for _, e := range errs {
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", e)
		}
		if set.Len() == 0 {
			fmt.Println("no facts extracted")
			return nil
		}

		if err := s.AddFacts(ctx, set); err != nil {
			return fmt.Errorf("storing facts: %w", err)
		}
		fmt.Printf("extracted %d metrics and %d claims from %s (v%d, profile %s, level %d)\n",
			len(set.Metrics), len(set.Claims), doc.Title, version.VersionNo, scope.ProfileID, level)
		return nil
	},
}

func processContext() string {
	if extractContext != "" {
		return extractContext
	}
	return fact.ContextUnspecified
}

func init() {
	extractCmd.Flags().IntVar(&extractLevel, "level", 0, "extraction level 1-4 (default from config)")
	extractCmd.Flags().StringVar(&extractContext, "context", "", "process context tag, e.g. vc.due_diligence")
	extractCmd.Flags().BoolVar(&reExtract, "re-extract", false, "delete this version's previous facts first")
	rootCmd.AddCommand(extractCmd)
}
