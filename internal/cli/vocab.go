package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var vocabLevel int

var vocabCmd = &cobra.Command{
	Use:   "vocab [profile]",
	Short: "Show vocabulary profiles and their catalogs",
	Long: `Without arguments, lists the available vocabulary profiles. With a
profile code, prints its metric and predicate catalog up to --level.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig()
		if err != nil {
			return err
		}
		reg, err := loadRegistry(cfg)
		if err != nil {
			return err
		}

		if len(args) == 0 {
			for _, code := range reg.Codes() {
				p := reg.Profile(code)
				fmt.Printf("%-12s %s\n", code, p.Name)
			}
			return nil
		}

		code := args[0]
		if !reg.Has(code) {
			return fmt.Errorf("unknown profile %q; run 'veridex vocab' to list profiles", code)
		}
		p := reg.Profile(code)

		fmt.Printf("%s (%s), level %d\n\nmetrics:\n", p.Name, code, vocabLevel)
		for _, m := range p.MetricsAtLevel(vocabLevel) {
			flags := ""
			if m.Critical {
				flags += " critical"
			}
			if m.PeriodSensitive {
				flags += " period-sensitive"
			}
			fmt.Printf("  L%d %-24s %-10s %s%s\n", m.RequiredLevel, m.Name, m.UnitType, m.Description, flags)
		}

		fmt.Printf("\npredicates:\n")
		for _, pr := range p.PredicatesAtLevel(vocabLevel) {
			fmt.Printf("  L%d %-24s %-6s %s\n", pr.RequiredLevel, pr.Name, pr.ValueKind, pr.Description)
		}
		return nil
	},
}

func init() {
	vocabCmd.Flags().IntVar(&vocabLevel, "level", 4, "show catalog up to this level (1-4)")
	rootCmd.AddCommand(vocabCmd)
}
