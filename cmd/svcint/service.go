package main

import (
	"fmt"
	"time"

	"github.com/goodtune/svcint/internal/registry"
	"github.com/goodtune/svcint/internal/source"
	"github.com/spf13/cobra"
)

var serviceAt string

var serviceCmd = &cobra.Command{
	Use:   "service NAME",
	Short: "Record a service for a component",
	Long: `Append a service date to a component in the registry and write the
registry back. Usage accrued before the service date no longer counts.`,
	Example: `  svcint service "Brake fluid"
  svcint service "Fork lowers" --at 2024-06-01T09:00:00Z`,
	Args: cobra.ExactArgs(1),
	RunE: runService,
}

func init() {
	serviceCmd.Flags().StringVar(&serviceAt, "at", "", "Service time in RFC 3339 (defaults to now)")
	rootCmd.AddCommand(serviceCmd)
}

func runService(cmd *cobra.Command, args []string) error {
	name := args[0]

	at, err := parseServiceTime(serviceAt, time.Now())
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg, err := source.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		return err
	}

	updated, err := registry.MarkServiced(reg, name, at)
	if err != nil {
		return err
	}

	if err := source.WriteRegistry(cfg.Registry.Path, updated); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Recorded service of %q at %s\n", name, at.Format(time.RFC3339))
	return nil
}

// parseServiceTime parses --at, defaulting to now truncated to the second
func parseServiceTime(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now.UTC().Truncate(time.Second), nil
	}
	at, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --at time: %w", err)
	}
	return at.UTC(), nil
}
