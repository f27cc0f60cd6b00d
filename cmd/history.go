package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/campuson/campuson-cli/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past diagnostic attempts",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := resolveConfig(cmd)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		store, err := history.Open(cfg.HistoryDBPath)
		if err != nil {
			return fmt.Errorf("open history: %w", err)
		}
		defer store.Close()

		limit, _ := cmd.Flags().GetInt("limit")
		attempts, err := store.ListAttempts(cmd.Context(), limit)
		if err != nil {
			return fmt.Errorf("list attempts: %w", err)
		}

		if len(attempts) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No attempts yet.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DATE\tDEPARTMENT\tSCORE\tCORRECT\tLEVEL\tTIME")
		for _, a := range attempts {
			total := a.CorrectCount + a.WrongCount
			fmt.Fprintf(w, "%s\t%s\t%.0f\t%d/%d\t%s\t%d:%02d\n",
				a.CompletedAt.Format("2006-01-02"),
				a.Department,
				a.Score,
				a.CorrectCount, total,
				a.Level,
				a.TotalTimeMs/60000, a.TotalTimeMs/1000%60,
			)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Maximum number of attempts to show")
}
