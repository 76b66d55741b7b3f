package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/arin/fitbuddy/internal/stats"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show usage statistics and response times",
	Long: `Display a dashboard of your FitBuddy usage: exchange counts, success
rate, time to first reply, rollbacks and the most common errors.

Data is collected automatically and stored locally in ~/.fitbuddy/stats.json.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := stats.Summarize()
		if err != nil {
			return fmt.Errorf("failed to load stats: %w", err)
		}

		cyan := color.New(color.FgCyan, color.Bold)
		green := color.New(color.FgGreen)
		yellow := color.New(color.FgYellow)
		dim := color.New(color.FgHiBlack)

		cyan.Fprintf(os.Stderr, "\n  📊 fitbuddy stats\n\n")

		if summary.TotalExchanges == 0 {
			dim.Fprintln(os.Stderr, "  No data yet. Ask FitBuddy something and come back.")
			fmt.Fprintln(os.Stderr)
			return nil
		}

		green.Fprintf(os.Stderr, "  Exchanges:   ")
		fmt.Fprintf(os.Stderr, "%d total", summary.TotalExchanges)
		dim.Fprintf(os.Stderr, "  (%d today, %d this week)\n", summary.TodayCount, summary.ThisWeekCount)

		green.Fprintf(os.Stderr, "  Success:     ")
		if summary.SuccessRate >= 90 {
			fmt.Fprintf(os.Stderr, "%.0f%%", summary.SuccessRate)
		} else {
			yellow.Fprintf(os.Stderr, "%.0f%%", summary.SuccessRate)
		}
		dim.Fprintf(os.Stderr, "  (%d rolled back)\n", summary.RolledBack)

		green.Fprintf(os.Stderr, "  First reply: ")
		fmt.Fprintf(os.Stderr, "%dms avg\n", summary.AvgFirstDeltaMs)
		green.Fprintf(os.Stderr, "  Total time:  ")
		fmt.Fprintf(os.Stderr, "%dms avg", summary.AvgTotalMs)
		dim.Fprintf(os.Stderr, "  (%.1f deltas per reply)\n", summary.AvgDeltas)

		if len(summary.SubcmdBreakdown) > 0 {
			fmt.Fprintln(os.Stderr)
			cyan.Fprintln(os.Stderr, "  Subcommands")
			subs := make([]string, 0, len(summary.SubcmdBreakdown))
			for sub := range summary.SubcmdBreakdown {
				subs = append(subs, sub)
			}
			sort.Strings(subs)
			for _, sub := range subs {
				count := summary.SubcmdBreakdown[sub]
				pct := float64(count) / float64(summary.TotalExchanges) * 100
				dim.Fprintf(os.Stderr, "  %-8s ", sub)
				fmt.Fprintf(os.Stderr, "%s %d (%.0f%%)\n", strings.Repeat("█", int(pct/5)), count, pct)
			}
		}

		if len(summary.TopErrors) > 0 {
			fmt.Fprintln(os.Stderr)
			cyan.Fprintln(os.Stderr, "  Top Errors")
			for i, e := range summary.TopErrors {
				msg := e.Message
				if len(msg) > 60 {
					msg = msg[:60] + "..."
				}
				dim.Fprintf(os.Stderr, "  %d. ", i+1)
				fmt.Fprintf(os.Stderr, "%s ", msg)
				dim.Fprintf(os.Stderr, "(%dx)\n", e.Count)
			}
		}

		fmt.Fprintln(os.Stderr)
		return nil
	},
}
