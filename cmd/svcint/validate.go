package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/fatih/color"
	"github.com/goodtune/svcint/internal/activity"
	"github.com/goodtune/svcint/internal/config"
	"github.com/goodtune/svcint/internal/report"
	"github.com/goodtune/svcint/internal/source"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	validateDump bool
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration, registry and activity export",
	Long: `Validate the configuration file, then load the registry and the activity
export and list every malformed row.`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateDump, "dump", false, "Dump full configuration with defaults highlighted")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	red := color.New(color.FgRed, color.Bold)
	green := color.New(color.FgGreen)

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		_, _ = red.Fprintf(out, "❌ Configuration validation failed: %v\n", err)
		return err
	}
	_, _ = green.Fprintf(out, "✅ Configuration is valid: %s\n", configPath)

	// Check for unknown keys (always, not just with --dump)
	unknownKeys, err := findUnknownKeys(configPath)
	if err != nil {
		fmt.Fprintf(out, "⚠️  Could not check for unknown keys: %v\n", err)
	}
	if len(unknownKeys) > 0 {
		fmt.Fprintln(out)
		_, _ = red.Fprintf(out, "⚠️  WARNING: Found %d unknown configuration key(s):\n", len(unknownKeys))
		for _, key := range unknownKeys {
			_, _ = red.Fprintf(out, "   - %s\n", key)
		}
		fmt.Fprintln(out, "\nThese keys will be ignored and may indicate typos or deprecated settings.")
	}

	inputsErr := validateInputs(out, cfg)

	// The dump is printed even when the inputs are invalid
	if validateDump {
		fmt.Fprintln(out, "\n"+strings.Repeat("=", 80))
		fmt.Fprintln(out, "FULL CONFIGURATION (values different from defaults are highlighted)")
		fmt.Fprintln(out, strings.Repeat("=", 80))

		dumpConfig(out, cfg, config.Default(), unknownKeys)
	}

	return inputsErr
}

// validateInputs loads the registry and the activity export, listing every
// malformed row.
func validateInputs(out io.Writer, cfg *config.Config) error {
	red := color.New(color.FgRed, color.Bold)
	green := color.New(color.FgGreen)

	reg, err := source.LoadRegistry(cfg.Registry.Path)
	if err != nil {
		_, _ = red.Fprintf(out, "❌ Registry is invalid: %v\n", err)
		return err
	}
	_, _ = green.Fprintf(out, "✅ Registry is valid: %d component(s)\n", reg.Len())

	// Activities are always read with the skip policy so every bad row is listed
	acts, err := source.LoadActivities(cfg.Activities.Path, activity.PolicySkip)
	if err != nil {
		_, _ = red.Fprintf(out, "❌ Activity export is invalid: %v\n", err)
		return err
	}
	if len(acts.Skipped) > 0 {
		report.NewRenderer(out).RowErrors(acts.Skipped)
		return fmt.Errorf("%s: %d malformed row(s)", acts.Path, len(acts.Skipped))
	}
	_, _ = green.Fprintf(out, "✅ Activity export is valid: %d activities\n", acts.Log.Len())
	return nil
}

// findUnknownKeys loads the config file and checks for unknown keys
func findUnknownKeys(configPath string) ([]string, error) {
	path, err := homedir.Expand(configPath)
	if err != nil {
		return nil, err
	}

	// Defaults only, nothing to check
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}

	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	validKeys := config.ValidKeys()

	unknown := []string{}
	for _, key := range v.AllKeys() {
		if !validKeys[key] {
			unknown = append(unknown, key)
		}
	}

	return unknown, nil
}

// dumpConfig dumps configuration with color highlighting for non-default values
func dumpConfig(out io.Writer, cfg, defaultCfg *config.Config, unknownKeys []string) {
	yellow := color.New(color.FgYellow, color.Bold)
	green := color.New(color.FgGreen)
	cyan := color.New(color.FgCyan, color.Bold)

	field := func(name string, value, defaultValue interface{}) {
		dumpField(out, name, value, defaultValue, yellow, green)
	}

	// Activities
	_, _ = cyan.Fprintln(out, "\n[activities]")
	field("  path", cfg.Activities.Path, defaultCfg.Activities.Path)
	field("  error_policy", cfg.Activities.ErrorPolicy, defaultCfg.Activities.ErrorPolicy)

	// Registry
	_, _ = cyan.Fprintln(out, "\n[registry]")
	field("  path", cfg.Registry.Path, defaultCfg.Registry.Path)

	// Storage
	_, _ = cyan.Fprintln(out, "\n[storage]")
	field("  type", cfg.Storage.Type, defaultCfg.Storage.Type)
	field("  path", cfg.Storage.Path, defaultCfg.Storage.Path)
	field("  retention", cfg.Storage.Retention, defaultCfg.Storage.Retention)
	_, _ = cyan.Fprintln(out, "  [storage.redis]")
	field("    host", cfg.Storage.Redis.Host, defaultCfg.Storage.Redis.Host)
	field("    port", cfg.Storage.Redis.Port, defaultCfg.Storage.Redis.Port)
	field("    password", redactPassword(cfg.Storage.Redis.Password), redactPassword(defaultCfg.Storage.Redis.Password))
	field("    db", cfg.Storage.Redis.DB, defaultCfg.Storage.Redis.DB)
	field("    pool_size", cfg.Storage.Redis.PoolSize, defaultCfg.Storage.Redis.PoolSize)
	field("    min_idle_conns", cfg.Storage.Redis.MinIdleConns, defaultCfg.Storage.Redis.MinIdleConns)
	field("    dial_timeout", cfg.Storage.Redis.DialTimeout, defaultCfg.Storage.Redis.DialTimeout)
	field("    read_timeout", cfg.Storage.Redis.ReadTimeout, defaultCfg.Storage.Redis.ReadTimeout)
	field("    write_timeout", cfg.Storage.Redis.WriteTimeout, defaultCfg.Storage.Redis.WriteTimeout)

	// Logging
	_, _ = cyan.Fprintln(out, "\n[logging]")
	field("  level", cfg.Logging.Level, defaultCfg.Logging.Level)
	field("  format", cfg.Logging.Format, defaultCfg.Logging.Format)

	// Server
	_, _ = cyan.Fprintln(out, "\n[server]")
	field("  bind_address", cfg.Server.BindAddress, defaultCfg.Server.BindAddress)
	field("  api_port", cfg.Server.APIPort, defaultCfg.Server.APIPort)
	field("  metrics_port", cfg.Server.MetricsPort, defaultCfg.Server.MetricsPort)
	field("  refresh_interval", cfg.Server.RefreshInterval, defaultCfg.Server.RefreshInterval)
	field("  watch", cfg.Server.Watch, defaultCfg.Server.Watch)

	// Cache
	_, _ = cyan.Fprintln(out, "\n[cache]")
	field("  size", cfg.Cache.Size, defaultCfg.Cache.Size)

	// Display unknown keys if any
	if len(unknownKeys) > 0 {
		red := color.New(color.FgRed, color.Bold)

		_, _ = cyan.Fprintln(out, "\n[UNKNOWN KEYS - These will be ignored!]")
		for _, key := range unknownKeys {
			_, _ = red.Fprintf(out, "  %s = (unknown key - check for typos)\n", key)
		}
	}

	fmt.Fprintln(out, "\n"+strings.Repeat("=", 80))
}

// dumpField prints a field with color if it differs from default
func dumpField(out io.Writer, name string, value, defaultValue interface{}, modifiedColor, defaultColor *color.Color) {
	valueStr := fmt.Sprintf("%v", value)

	if reflect.DeepEqual(value, defaultValue) {
		_, _ = defaultColor.Fprintf(out, "%s = %s\n", name, valueStr)
	} else {
		_, _ = modifiedColor.Fprintf(out, "%s = %s  (modified from default: %v)\n", name, valueStr, defaultValue)
	}
}

// redactPassword redacts password if not empty
func redactPassword(password string) string {
	if password == "" {
		return ""
	}
	return "***REDACTED***"
}
