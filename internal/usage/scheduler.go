package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Scheduler refreshes the report and prunes old snapshots periodically
type Scheduler struct {
	tracker  *Tracker
	interval time.Duration
	logger   zerolog.Logger
	stopChan chan struct{}
	done     chan struct{}
}

// NewScheduler creates a new refresh scheduler
func NewScheduler(tracker *Tracker, interval time.Duration, logger zerolog.Logger) (*Scheduler, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("invalid refresh interval: %s", interval)
	}

	return &Scheduler{
		tracker:  tracker,
		interval: interval,
		logger:   logger.With().Str("component", "refresh-scheduler").Logger(),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start begins the scheduler
func (s *Scheduler) Start() {
	go s.run()
	s.logger.Info().
		Dur("interval", s.interval).
		Msg("Refresh scheduler started")
}

// Stop stops the scheduler and waits for an in-flight refresh to finish
func (s *Scheduler) Stop() {
	close(s.stopChan)
	<-s.done
	s.logger.Info().Msg("Refresh scheduler stopped")
}

// run is the main scheduler loop
func (s *Scheduler) run() {
	defer close(s.done)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.perform(ctx)
		case <-s.stopChan:
			return
		}
	}
}

// perform refreshes the report and applies snapshot retention
func (s *Scheduler) perform(ctx context.Context) {
	if _, err := s.tracker.Refresh(ctx); err != nil {
		// Already logged by the tracker; the previous report stays current
		return
	}

	if _, err := s.tracker.Prune(ctx); err != nil {
		s.logger.Error().Err(err).Msg("Failed to apply snapshot retention")
	}
}
