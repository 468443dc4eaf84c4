package usage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/goodtune/svcint/internal/activity"
	"github.com/goodtune/svcint/internal/interval"
	"github.com/goodtune/svcint/internal/metrics"
	"github.com/goodtune/svcint/internal/source"
	"github.com/goodtune/svcint/internal/storage"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

const (
	// DefaultCacheSize is the number of parsed activity logs kept in memory
	DefaultCacheSize = 16
)

var (
	// ErrNoReport is returned before the first successful refresh
	ErrNoReport = errors.New("no report computed yet")

	// ErrHistoryDisabled is returned when the tracker has no snapshot store
	ErrHistoryDisabled = errors.New("snapshot history is disabled")
)

// Config holds tracker configuration
type Config struct {
	ActivitiesPath string
	RegistryPath   string
	Policy         activity.Policy
	CacheSize      int
	Retention      time.Duration
}

// Tracker loads the activity export and registry, computes the service report
// and keeps the most recent one for readers.
type Tracker struct {
	config Config
	store  storage.SnapshotStore // nil disables history
	cache  *lru.Cache[string, *source.Activities]
	clock  Clock
	logger zerolog.Logger

	mu      sync.RWMutex
	current *Report

	// refreshMu serializes refreshes triggered by the scheduler, watcher and API
	refreshMu sync.Mutex
}

// NewTracker creates a new tracker. store may be nil.
func NewTracker(config Config, store storage.SnapshotStore, clock Clock, logger zerolog.Logger) (*Tracker, error) {
	if config.CacheSize <= 0 {
		config.CacheSize = DefaultCacheSize
	}
	if clock == nil {
		clock = RealClock{}
	}

	cache, err := lru.New[string, *source.Activities](config.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create activity cache: %w", err)
	}

	return &Tracker{
		config: config,
		store:  store,
		cache:  cache,
		clock:  clock,
		logger: logger.With().Str("component", "usage-tracker").Logger(),
	}, nil
}

// Config returns the tracker configuration.
func (t *Tracker) Config() Config {
	return t.config
}

// Current returns the most recent report.
func (t *Tracker) Current() (*Report, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.current == nil {
		return nil, ErrNoReport
	}
	return t.current, nil
}

// Refresh reloads both inputs, recomputes the report and records a snapshot
// when the outcome differs from the latest stored one.
func (t *Tracker) Refresh(ctx context.Context) (*Report, error) {
	t.refreshMu.Lock()
	defer t.refreshMu.Unlock()

	start := time.Now()
	report, err := t.compute()
	metrics.RefreshDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.RefreshesTotal.WithLabelValues("error").Inc()
		t.logger.Error().Err(err).Msg("Failed to refresh report")
		return nil, err
	}
	metrics.RefreshesTotal.WithLabelValues("ok").Inc()
	metrics.PublishStatuses(report.Statuses)

	t.mu.Lock()
	t.current = report
	t.mu.Unlock()

	t.logger.Debug().
		Int("activities", report.Activities).
		Int("skipped", len(report.Skipped)).
		Int("components", len(report.Statuses)).
		Int("due", len(report.Due())).
		Msg("Report refreshed")

	if err := t.record(ctx, report); err != nil {
		t.logger.Warn().Err(err).Msg("Failed to record snapshot")
	}

	return report, nil
}

// compute loads the inputs and evaluates every component.
func (t *Tracker) compute() (*Report, error) {
	registryPath, err := source.Resolve(t.config.RegistryPath)
	if err != nil {
		return nil, err
	}
	reg, err := source.LoadRegistry(registryPath)
	if err != nil {
		return nil, err
	}

	acts, err := t.loadActivities()
	if err != nil {
		return nil, err
	}

	report := &Report{
		TakenAt:        t.clock.Now(),
		ActivitiesPath: acts.Path,
		RegistryPath:   registryPath,
		Activities:     acts.Log.Len(),
		Skipped:        acts.Skipped,
		Statuses:       interval.Report(reg, acts.Log),
	}
	if first, last, ok := acts.Log.Span(); ok {
		report.FirstActivity = first
		report.LastActivity = last
	}
	return report, nil
}

// loadActivities returns the parsed export, reusing a cached parse when the
// file content is unchanged.
func (t *Tracker) loadActivities() (*source.Activities, error) {
	data, resolved, err := source.ReadFile(t.config.ActivitiesPath)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(data)
	key := hex.EncodeToString(sum[:])

	if acts, ok := t.cache.Get(key); ok {
		metrics.ActivityCacheHits.Inc()
		return acts, nil
	}
	metrics.ActivityCacheMisses.Inc()

	acts, err := source.ParseActivities(resolved, data, t.config.Policy)
	if err != nil {
		return nil, err
	}

	metrics.ActivityRowsTotal.WithLabelValues("parsed").Add(float64(acts.Log.Len()))
	metrics.ActivityRowsTotal.WithLabelValues("skipped").Add(float64(len(acts.Skipped)))
	if len(acts.Skipped) > 0 {
		t.logger.Warn().
			Str("file", acts.Path).
			Int("skipped", len(acts.Skipped)).
			Msg("Skipped malformed activity rows")
	}
	for _, rowErr := range acts.Skipped {
		t.logger.Debug().
			Str("file", rowErr.Resource).
			Int("row", rowErr.Row).
			Int("line", rowErr.Line).
			Err(rowErr.Err).
			Msg("Skipped malformed activity row")
	}

	t.cache.Add(key, acts)
	return acts, nil
}

// record saves report as a snapshot unless it matches the latest one.
func (t *Tracker) record(ctx context.Context, report *Report) error {
	if t.store == nil {
		return nil
	}

	snapshot := report.Snapshot()

	latest, err := t.store.Latest(ctx)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("failed to load latest snapshot: %w", err)
	}
	if err == nil && snapshot.SameResult(latest) {
		return nil
	}

	if err := t.store.Save(ctx, snapshot); err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	metrics.SnapshotsSaved.Inc()

	t.logger.Info().
		Str("snapshot_id", snapshot.ID).
		Int("due", len(report.Due())).
		Msg("Recorded report snapshot")

	return nil
}

// History returns stored snapshots, newest first.
func (t *Tracker) History(ctx context.Context, limit int) ([]storage.Snapshot, error) {
	if t.store == nil {
		return nil, ErrHistoryDisabled
	}
	return t.store.List(ctx, limit)
}

// Prune removes snapshots older than the retention period.
func (t *Tracker) Prune(ctx context.Context) (int, error) {
	if t.store == nil || t.config.Retention <= 0 {
		return 0, nil
	}

	cutoff := t.clock.Now().Add(-t.config.Retention)
	deleted, err := t.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune snapshots: %w", err)
	}
	metrics.SnapshotsPruned.Add(float64(deleted))

	if deleted > 0 {
		t.logger.Info().
			Int("deleted", deleted).
			Time("cutoff", cutoff).
			Msg("Pruned old snapshots")
	}

	return deleted, nil
}
