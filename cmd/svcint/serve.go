package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goodtune/svcint/internal/api"
	"github.com/goodtune/svcint/internal/metrics"
	"github.com/goodtune/svcint/internal/storage"
	"github.com/goodtune/svcint/internal/systemd"
	"github.com/goodtune/svcint/internal/usage"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the svcint server",
	Long: `Start the JSON API and metrics endpoints, refresh the report periodically
and whenever the activity export or registry changes.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Setup logger
	logger := setupLogger(cfg.Logging, os.Stdout)
	log.Logger = logger

	logger.Info().
		Str("version", version).
		Str("config", configPath).
		Msg("Starting svcint")

	// Check for systemd socket activation
	sdListeners, err := systemd.GetListeners()
	if err != nil {
		return fmt.Errorf("failed to get systemd listeners: %w", err)
	}
	if sdListeners.Activated {
		logger.Info().Msg("Running with systemd socket activation")
	}

	// Initialize storage
	store, err := openStorage(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	var snapshots storage.SnapshotStore
	if store != nil {
		defer func() {
			if err := store.Close(); err != nil {
				logger.Error().Err(err).Msg("Failed to close storage")
			}
		}()
		snapshots = store.Snapshots()
	}

	logger.Info().
		Str("type", cfg.Storage.Type).
		Str("retention", cfg.Storage.Retention).
		Msg("Storage initialized")

	// Initialize Tracker
	tracker, err := newTracker(cfg, snapshots, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize tracker: %w", err)
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// A failed first refresh is not fatal: the API answers 503 until inputs are fixed
	if _, err := tracker.Refresh(ctx); err != nil {
		logger.Warn().Err(err).Msg("Initial refresh failed, waiting for inputs to change")
	}

	// Initialize Refresh Scheduler
	scheduler, err := usage.NewScheduler(
		tracker,
		parseDuration(cfg.Server.RefreshInterval, 5*time.Minute),
		logger,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize refresh scheduler: %w", err)
	}
	scheduler.Start()

	// Watch inputs
	if cfg.Server.Watch {
		go func() {
			if err := tracker.Watch(ctx, usage.DefaultDebounce); err != nil {
				logger.Error().Err(err).Msg("File watcher stopped")
			}
		}()
	}

	// Initialize API Server
	apiAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.APIPort)
	apiServer := api.NewServer(api.Config{ListenAddr: apiAddr}, tracker, logger)
	if sdListeners.API != nil {
		apiServer.SetListener(sdListeners.API)
	}
	if err := apiServer.Start(); err != nil {
		return fmt.Errorf("failed to start API server: %w", err)
	}

	// Initialize Metrics Server
	metricsAddr := fmt.Sprintf("%s:%d", cfg.Server.BindAddress, cfg.Server.MetricsPort)
	metricsServer := metrics.NewServer(metricsAddr, logger)
	if sdListeners.Metrics != nil {
		metricsServer.SetListener(sdListeners.Metrics)
	}
	if err := metricsServer.Start(); err != nil {
		return fmt.Errorf("failed to start metrics server: %w", err)
	}

	// Log startup complete
	logger.Info().Msg("svcint startup complete")
	logger.Info().Msgf("API: http://%s/api/v1/components", apiAddr)
	logger.Info().Msgf("Metrics: http://%s/metrics", metricsAddr)

	// Notify systemd that we're ready
	if err := systemd.NotifyReady(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd ready notification")
	}

	// Wait for shutdown signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for sig := range sigChan {
		if sig != syscall.SIGHUP {
			logger.Info().Msg("Shutdown signal received, gracefully stopping...")
			break
		}

		logger.Info().Msg("SIGHUP received, refreshing report...")
		_ = systemd.NotifyReloading()
		if _, err := tracker.Refresh(ctx); err == nil {
			logger.Info().Msg("Report refreshed")
		}
		_ = systemd.NotifyReady()
	}

	// Notify systemd that we're stopping
	if err := systemd.NotifyStopping(); err != nil {
		logger.Warn().Err(err).Msg("Failed to send systemd stopping notification")
	}

	// Stop background work, then servers
	cancel()
	scheduler.Stop()

	if err := apiServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping API server")
	}

	if err := metricsServer.Stop(); err != nil {
		logger.Error().Err(err).Msg("Error stopping metrics server")
	}

	logger.Info().Msg("svcint stopped")

	return nil
}
