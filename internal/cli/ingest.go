package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veridex/veridex/internal/ingest"
)

var ingestTitle string

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Import documents into the evidence repository",
	Long: `Import one or more documents. Content is hashed for deduplication:
byte-identical re-imports are skipped, changed content for a known source
path becomes a new version of the same document.`,
	Args: cobra.MinimumNArgs(1),
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

		in := ingest.New(s)
		for _, path := range args {
			res, err := in.IngestFile(cmd.Context(), path, ingestTitle)
			if err != nil {
				return fmt.Errorf("ingesting %s: %w", path, err)
			}
			fmt.Printf("%-10s %s (doc %s, v%d)\n", res.Outcome, path, res.Document.ID, res.Version.VersionNo)
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestTitle, "title", "", "document title (default: file name)")
	rootCmd.AddCommand(ingestCmd)
}
