package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/veridex/veridex/internal/mcp"
)

var serveMCPCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Serve the repository over the Model Context Protocol (stdio)",
	Long: `Expose the evidence repository as MCP tools over stdio, for agent
runtimes and MCP-capable editors. Tools: veridex_ingest, veridex_analyze,
veridex_conflicts, veridex_questions, veridex_triage, veridex_stats.`,
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

		if verbose {
			fmt.Fprintf(os.Stderr, "veridex MCP server on stdio (db: %s)\n", cfg.DBPath.Value)
		}
		server := mcp.NewServer(mcp.ServerConfig{
			Store:    s,
			Registry: reg,
			Version:  Version,
			Quality:  qualityOptions(cfg),
		})
		return mcp.ServeStdio(server)
	},
}

func init() {
	rootCmd.AddCommand(serveMCPCmd)
}
