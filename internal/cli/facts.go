package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var factsCmd = &cobra.Command{
	Use:   "facts <document-id>",
	Short: "List a document's extracted facts",
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

		set, err := s.FactsForDocument(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if set.Len() == 0 {
			fmt.Println("no facts; run 'veridex extract' first")
			return nil
		}

		for _, m := range set.Metrics {
			value := m.ValueRaw
			if m.ValueNumeric != nil {
				value = fmt.Sprintf("%s (%g)", m.ValueRaw, *m.ValueNumeric)
			}
			period := ""
			if m.PeriodStart != nil || m.PeriodEnd != nil {
				period = fmt.Sprintf(" %s..%s", fmtDate(m.PeriodStart), fmtDate(m.PeriodEnd))
			}
			fmt.Printf("metric %s  %s %s = %s %s %s%s [%s]\n",
				m.ID, m.EntityID, m.MetricName, value, m.Unit, m.Currency, period, m.Certainty)
		}
		for _, c := range set.Claims {
			fmt.Printf("claim  %s  %s %s = %s [%s]\n",
				c.ID, c.Subject.Name, c.Predicate, c.Value, c.Certainty)
		}
		fmt.Printf("\n%d metrics, %d claims\n", len(set.Metrics), len(set.Claims))
		return nil
	},
}

func fmtDate(t *time.Time) string {
	if t == nil {
		return "?"
	}
	return t.Format("2006-01-02")
}

func init() {
	rootCmd.AddCommand(factsCmd)
}
