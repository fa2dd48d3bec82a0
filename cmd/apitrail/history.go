package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apitrail/apitrail/internal/config"
	"github.com/apitrail/apitrail/internal/database"
	"github.com/apitrail/apitrail/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded crawl runs",
		Long: `History lists past crawl runs recorded in the local database, newest
first, and can re-print the stored artifact of a specific run.

Examples:
  # List the 20 most recent runs
  apitrail history

  # Show more runs
  apitrail history -n 50

  # Re-print the stored result of run 3 as a tree
  apitrail history --show 3 -f tree`,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().Int64("show", 0, "Print the stored result of the given run ID")
	cmd.Flags().StringP("format", "f", string(config.FormatFlat),
		"Artifact format when using --show")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	db, err := database.Open(config.XDGDataDir(), database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no crawl history found: %w", err)
	}
	defer db.Close() //nolint:errcheck

	showID, err := cmd.Flags().GetInt64("show")
	if err != nil {
		return err
	}
	if showID > 0 {
		return showRun(cmd, db, showID)
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}

	runs, err := db.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No crawl runs recorded yet.")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-5s %-45s %10s %10s %8s %10s  %s\n",
		"ID", "SEED", "ENDPOINTS", "PROCESSED", "FAILED", "DURATION", "WHEN")
	for _, r := range runs {
		fmt.Fprintf(out, "%-5d %-45s %10d %10d %8d %8dms  %s\n",
			r.ID, truncateSeed(r.Seed, 45), r.Endpoints, r.URLsProcessed,
			r.FailedRequests, r.DurationMs, r.CreatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}

// showRun re-prints one stored result in the requested format.
func showRun(cmd *cobra.Command, db *database.HistoryDB, id int64) error {
	formatName, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	format, err := config.ParseFormat(formatName)
	if err != nil {
		return err
	}

	result, err := db.GetResult(cmd.Context(), id)
	if err != nil {
		return err
	}

	w, err := report.NewWriter(format, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	_, err = w.Write(result)
	return err
}

// truncateSeed shortens long seed URLs for the table view.
func truncateSeed(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
