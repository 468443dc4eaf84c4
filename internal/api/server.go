// Package api serves the current service report over HTTP.
package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/goodtune/svcint/internal/storage"
	"github.com/goodtune/svcint/internal/usage"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Reporter is the part of the tracker the API depends on.
type Reporter interface {
	Current() (*usage.Report, error)
	Refresh(ctx context.Context) (*usage.Report, error)
	History(ctx context.Context, limit int) ([]storage.Snapshot, error)
}

// Config holds the API server configuration.
type Config struct {
	ListenAddr string
}

// Server represents the API HTTP server.
type Server struct {
	config   Config
	reporter Reporter
	router   *mux.Router
	server   *http.Server
	listener net.Listener // Optional pre-created listener (for systemd socket activation)
	logger   zerolog.Logger
}

// NewServer creates a new API server.
func NewServer(cfg Config, reporter Reporter, logger zerolog.Logger) *Server {
	// Component names may contain slashes, so path variables stay encoded
	router := mux.NewRouter().UseEncodedPath()

	s := &Server{
		config:   cfg,
		reporter: reporter,
		router:   router,
		logger:   logger.With().Str("component", "api").Logger(),
	}

	s.setupRoutes()

	s.server = &http.Server{
		Addr: cfg.ListenAddr,
		Handler: handlers.RecoveryHandler(
			handlers.RecoveryLogger(recoveryLogger{s.logger}),
			handlers.PrintRecoveryStack(true),
		)(router),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Use(LoggingMiddleware(s.logger))

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	v1 := s.router.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/components", s.handleComponents).Methods("GET")
	v1.HandleFunc("/components/{name}", s.handleComponent).Methods("GET")
	v1.HandleFunc("/due", s.handleDue).Methods("GET")
	v1.HandleFunc("/history", s.handleHistory).Methods("GET")
	v1.HandleFunc("/refresh", s.handleRefresh).Methods("POST")
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// SetListener sets a pre-created listener for systemd socket activation
func (s *Server) SetListener(ln net.Listener) {
	s.listener = ln
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.config.ListenAddr).
		Msg("Starting API server")

	go func() {
		var err error
		if s.listener != nil {
			s.logger.Debug().Msg("Using systemd socket-activated API listener")
			err = s.server.Serve(s.listener)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && err != http.ErrServerClosed {
			s.logger.Error().Err(err).Msg("API server error")
		}
	}()

	return nil
}

// Stop gracefully stops the API server.
func (s *Server) Stop() error {
	s.logger.Info().Msg("Stopping API server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}

	return nil
}
