package main

import (
	"errors"

	"github.com/goodtune/svcint/internal/report"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyJSON  bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded report snapshots",
	Long:  `List report snapshots recorded by svcint serve, newest first.`,
	Args:  cobra.NoArgs,
	RunE:  runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of snapshots (0 for all)")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "Write snapshots as JSON")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := openStorage(cfg.Storage)
	if err != nil {
		return err
	}
	if store == nil {
		return errors.New("snapshot storage is disabled (storage.type is none)")
	}
	defer func() { _ = store.Close() }()

	snapshots, err := store.Snapshots().List(cmd.Context(), historyLimit)
	if err != nil {
		return err
	}

	if historyJSON {
		return report.WriteJSON(cmd.OutOrStdout(), snapshots)
	}
	return report.NewRenderer(cmd.OutOrStdout()).History(snapshots)
}
