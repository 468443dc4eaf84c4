package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/goodtune/svcint/internal/activity"
	"github.com/goodtune/svcint/internal/config"
	"github.com/goodtune/svcint/internal/storage"
	"github.com/goodtune/svcint/internal/storage/bolt"
	"github.com/goodtune/svcint/internal/storage/redis"
	"github.com/goodtune/svcint/internal/usage"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	version        = "dev"
	configPath     string
	activitiesPath string
	registryPath   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "svcint",
	Short: "svcint - service intervals from ride time",
	Long: `svcint reads an activity export and a registry of tracked components,
sums the ride time logged since each component was last serviced and reports
which components are due.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default to the due report when no subcommand is provided
		return runDue(cmd, args)
	},
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&activitiesPath, "activities", "a", "", "Activity export CSV (overrides activities.path)")
	rootCmd.PersistentFlags().StringVarP(&registryPath, "registry", "r", "", "Component registry JSON (overrides registry.path)")
	addDueFlags(rootCmd)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig loads the configuration file and applies flag overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if activitiesPath != "" {
		cfg.Activities.Path = activitiesPath
	}
	if registryPath != "" {
		cfg.Registry.Path = registryPath
	}
	return cfg, nil
}

// setupLogger configures the logger based on configuration
func setupLogger(cfg config.LoggingConfig, out io.Writer) zerolog.Logger {
	// Set log level
	level := zerolog.InfoLevel
	switch cfg.Level {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	}

	zerolog.SetGlobalLevel(level)

	// Set output format
	if cfg.Format == "text" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	}

	// Default to JSON
	return zerolog.New(out).With().Timestamp().Logger()
}

// policyOf returns the configured row error policy
func policyOf(cfg *config.Config) activity.Policy {
	policy, err := activity.ParsePolicy(cfg.Activities.ErrorPolicy)
	if err != nil {
		// Load has already validated the policy
		return activity.PolicySkip
	}
	return policy
}

// newTracker builds a tracker over the configured inputs. store may be nil.
func newTracker(cfg *config.Config, store storage.SnapshotStore, logger zerolog.Logger) (*usage.Tracker, error) {
	return usage.NewTracker(usage.Config{
		ActivitiesPath: cfg.Activities.Path,
		RegistryPath:   cfg.Registry.Path,
		Policy:         policyOf(cfg),
		CacheSize:      cfg.Cache.Size,
		Retention:      parseDuration(cfg.Storage.Retention, 365*24*time.Hour),
	}, store, usage.RealClock{}, logger)
}

// openStorage opens the configured snapshot store. It returns nil when
// storage is disabled.
func openStorage(cfg config.StorageConfig) (storage.Store, error) {
	switch cfg.Type {
	case "none":
		return nil, nil
	case "redis":
		store, err := redis.Open(cfg.Redis)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "bolt", "":
		store, err := bolt.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}

// parseDuration parses a duration string with a fallback
func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
