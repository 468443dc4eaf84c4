package main

import (
	"os"

	"github.com/goodtune/svcint/internal/report"
	"github.com/spf13/cobra"
)

var (
	dueOnly bool
	dueJSON bool
)

var dueCmd = &cobra.Command{
	Use:   "due",
	Short: "Show accrued usage and due components",
	Long: `Compute the ride time accrued by every component since its last service
and mark the components whose interval has been exceeded.`,
	Example: `  svcint due
  svcint due --only-due
  svcint -a ~/Downloads/Activities.csv -r registry.json due --json`,
	Args: cobra.NoArgs,
	RunE: runDue,
}

func init() {
	addDueFlags(dueCmd)
	rootCmd.AddCommand(dueCmd)
}

func addDueFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&dueOnly, "only-due", false, "Only show components that are due")
	cmd.Flags().BoolVar(&dueJSON, "json", false, "Write the report as JSON")
}

func runDue(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Logging, os.Stderr)

	tracker, err := newTracker(cfg, nil, logger)
	if err != nil {
		return err
	}

	rep, err := tracker.Refresh(cmd.Context())
	if err != nil {
		return err
	}

	if dueJSON {
		return report.WriteJSON(cmd.OutOrStdout(), report.NewView(rep, dueOnly))
	}
	return report.NewRenderer(cmd.OutOrStdout()).Report(rep, dueOnly)
}
