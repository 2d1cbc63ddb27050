package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veridex/veridex/internal/config"
)

var configJSON bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration and where each value came from",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig()
		if err != nil {
			return err
		}

		if configJSON {
			redacted := cfg
			if redacted.OpenAIAPIKey.Value != "" {
				redacted.OpenAIAPIKey.Value = "(set)"
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(redacted)
		}

		fmt.Printf("config file: %s\n\n", cfg.ConfigPath)
		printValue("db_path", cfg.DBPath)
		printValue("profile", cfg.Profile)
		printValue("vocab_dir", cfg.VocabDir)
		printValue("extract_model", cfg.ExtractModel)
		printValue("embedding_model", cfg.EmbeddingModel)
		printValue("extract_level", cfg.ExtractLevel)
		printValue("extract_workers", cfg.ExtractWorkers)
		printValue("requests_per_sec", cfg.RequestsPerSec)
		printValue("relative_tolerance", cfg.RelativeTolerance)
		printValue("stale_after_months", cfg.StaleAfterMonths)

		key := cfg.OpenAIAPIKey
		if key.Value != "" {
			key.Value = "(set)"
		}
		printValue("openai_api_key", key)
		return nil
	},
}

func printValue(name string, v config.ResolvedValue) {
	fmt.Printf("%-20s %-30s [%s", name, v.Value, v.Source)
	if v.From != "" {
		fmt.Printf(": %s", v.From)
	}
	fmt.Println("]")
}

func init() {
	configCmd.Flags().BoolVar(&configJSON, "json", false, "emit as JSON")
	rootCmd.AddCommand(configCmd)
}
