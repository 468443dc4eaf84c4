package metrics

import (
	"net"
	"net/http"
	"time"

	"github.com/goodtune/svcint/internal/interval"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

var (
	// Component metrics
	ComponentAccruedSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "svcint_component_accrued_seconds",
			Help: "Usage accrued since the component was last serviced",
		},
		[]string{"component"},
	)

	ComponentIntervalSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "svcint_component_interval_seconds",
			Help: "Usage allowed between services",
		},
		[]string{"component"},
	)

	ComponentDue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "svcint_component_due",
			Help: "1 if the component is due for service, 0 otherwise",
		},
		[]string{"component"},
	)

	ComponentsDue = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "svcint_components_due",
			Help: "Number of components due for service",
		},
	)

	// Activity log metrics
	ActivityRowsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "svcint_activity_rows_total",
			Help: "Activity rows decoded, by result",
		},
		[]string{"result"},
	)

	ActivityCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "svcint_activity_cache_hits_total",
			Help: "Parsed activity log cache hits",
		},
	)

	ActivityCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "svcint_activity_cache_misses_total",
			Help: "Parsed activity log cache misses",
		},
	)

	// Refresh metrics
	RefreshesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "svcint_refreshes_total",
			Help: "Report refreshes, by result",
		},
		[]string{"result"},
	)

	RefreshDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "svcint_refresh_duration_seconds",
			Help:    "Time taken to load inputs and compute a report",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
	)

	// Storage metrics
	SnapshotsSaved = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "svcint_snapshots_saved_total",
			Help: "Report snapshots written to storage",
		},
	)

	SnapshotsPruned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "svcint_snapshots_pruned_total",
			Help: "Report snapshots removed by retention",
		},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(
		ComponentAccruedSeconds,
		ComponentIntervalSeconds,
		ComponentDue,
		ComponentsDue,
		ActivityRowsTotal,
		ActivityCacheHits,
		ActivityCacheMisses,
		RefreshesTotal,
		RefreshDuration,
		SnapshotsSaved,
		SnapshotsPruned,
	)
}

// PublishStatuses replaces the per-component series with the given report.
// Components sharing a name share a series; the later entry wins.
func PublishStatuses(statuses []interval.Status) {
	ComponentAccruedSeconds.Reset()
	ComponentIntervalSeconds.Reset()
	ComponentDue.Reset()

	due := 0
	for _, s := range statuses {
		name := s.Component.Name()
		ComponentAccruedSeconds.WithLabelValues(name).Set(s.Accrued.Seconds())
		ComponentIntervalSeconds.WithLabelValues(name).Set(s.Component.Interval().Seconds())
		if s.Due {
			ComponentDue.WithLabelValues(name).Set(1)
			due++
		} else {
			ComponentDue.WithLabelValues(name).Set(0)
		}
	}
	ComponentsDue.Set(float64(due))
}

// Server is the metrics HTTP server
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
}

// NewServer creates a new metrics server
func NewServer(addr string, logger zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	return &Server{
		server: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.With().Str("component", "metrics").Logger(),
	}
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the metrics server
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.server.Addr).Msg("Starting metrics server")
	go func() {
		var err error
		if s.listener != nil {
			// Use systemd socket-activated listener
			s.logger.Debug().Msg("Using systemd socket-activated metrics listener")
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("Metrics server error")
		}
	}()
	return nil
}

// Stop stops the metrics server
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping metrics server")
	return s.server.Close()
}
