package main

import (
	"github.com/goodtune/svcint/internal/registry"
	"github.com/goodtune/svcint/internal/report"
	"github.com/goodtune/svcint/internal/source"
	"github.com/spf13/cobra"
)

var componentsJSON bool

var componentsCmd = &cobra.Command{
	Use:   "components",
	Short: "List tracked components",
	Long:  `List the components in the registry with their service intervals and history.`,
	Args:  cobra.NoArgs,
	RunE:  runComponents,
}

func init() {
	componentsCmd.Flags().BoolVar(&componentsJSON, "json", false, "Write the registry document as JSON")
	rootCmd.AddCommand(componentsCmd)
}

func runComponents(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg, err := source.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		return err
	}

	if componentsJSON {
		return registry.Encode(cmd.OutOrStdout(), reg)
	}
	return report.NewRenderer(cmd.OutOrStdout()).Components(reg)
}
