package main

import (
	"fmt"
	"time"

	"github.com/goodtune/svcint/internal/source"
	"github.com/spf13/cobra"
)

var totalSince string

var totalCmd = &cobra.Command{
	Use:   "total",
	Short: "Print the total ride time in the activity export",
	Args:  cobra.NoArgs,
	RunE:  runTotal,
}

func init() {
	totalCmd.Flags().StringVar(&totalSince, "since", "", "Only count activities after this RFC 3339 time")
	rootCmd.AddCommand(totalCmd)
}

func runTotal(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	acts, err := source.LoadActivities(cfg.Activities.Path, policyOf(cfg))
	if err != nil {
		return err
	}

	total := acts.Log.TotalDuration()
	if totalSince != "" {
		since, err := time.Parse(time.RFC3339, totalSince)
		if err != nil {
			return fmt.Errorf("invalid --since time: %w", err)
		}
		total = acts.Log.TotalDurationSince(since)
	}

	fmt.Fprintln(cmd.OutOrStdout(), formatHours(total))
	if len(acts.Skipped) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "skipped %d malformed row(s)\n", len(acts.Skipped))
	}
	return nil
}

// formatHours renders whole hours, e.g. "1 hr" or "12 hrs"
func formatHours(d time.Duration) string {
	hours := int64(d / time.Hour)
	if hours == 1 {
		return "1 hr"
	}
	return fmt.Sprintf("%d hrs", hours)
}
