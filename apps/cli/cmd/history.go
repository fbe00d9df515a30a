package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitdesk/packages/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recorded executions",
	Long: `Show the most recent executions, newest first.

Examples:
  hitdesk history
  hitdesk history --limit 50
  hitdesk history --stats
  hitdesk history --clear`,
	Args: cobra.NoArgs,
	RunE: historyCommand,
}

var (
	historyLimitFlag int
	historyStatsFlag bool
	historyClearFlag bool
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimitFlag, "limit", "n", 20, "Number of entries to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyStatsFlag, "stats", false, "Show latency statistics over all entries")
	historyCmd.Flags().BoolVar(&historyClearFlag, "clear", false, "Delete all entries")
	historyCmd.MarkFlagsMutuallyExclusive("stats", "clear")
}

func historyCommand(cmd *cobra.Command, args []string) error {
	if historyLimitFlag < 0 {
		return usageError("--limit must not be negative")
	}
	asJSON, err := jsonOutput()
	if err != nil {
		return err
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer closeApp(cmd, a)

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if !a.HistoryEnabled() {
		fmt.Fprintln(cmd.ErrOrStderr(), "History is disabled (historyEnabled: false)")
	}

	if historyClearFlag {
		n, err := a.ClearHistory(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Deleted %d entries\n", n)
		return nil
	}

	if historyStatsFlag {
		stats, err := a.Stats(ctx)
		if err != nil {
			return err
		}
		if asJSON {
			return jsonFor(cmd).FormatValue(stats)
		}
		consoleFor(cmd, a, false).FormatStats(stats)
		return nil
	}

	entries, err := a.History(ctx, historyLimitFlag)
	if err != nil {
		return err
	}
	if asJSON {
		var stats *history.Stats
		if len(entries) > 0 {
			s := history.Summarize(entries)
			stats = &s
		}
		return jsonFor(cmd).FormatHistory(entries, stats)
	}
	consoleFor(cmd, a, false).FormatHistory(entries)
	return nil
}
