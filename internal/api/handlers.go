package api

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goodtune/svcint/internal/faults"
	"github.com/goodtune/svcint/internal/report"
	"github.com/goodtune/svcint/internal/storage"
	"github.com/goodtune/svcint/internal/usage"
	"github.com/gorilla/mux"
)

// DefaultHistoryLimit applies when /history is called without ?limit.
const DefaultHistoryLimit = 50

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"status": "ok",
	}
	if current, err := s.reporter.Current(); err == nil {
		resp["taken_at"] = current.TakenAt.Format(time.RFC3339)
		resp["due"] = len(current.Due())
	} else {
		resp["status"] = "starting"
	}
	writeJSON(w, http.StatusOK, resp)
}

// current loads the latest report or writes a 503.
func (s *Server) current(w http.ResponseWriter) (*usage.Report, bool) {
	current, err := s.reporter.Current()
	if err != nil {
		if errors.Is(err, usage.ErrNoReport) {
			writeError(w, http.StatusServiceUnavailable, "No report has been computed yet")
			return nil, false
		}
		s.logger.Error().Err(err).Msg("Failed to get current report")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve report")
		return nil, false
	}
	return current, true
}

// handleComponents returns every component with its status.
func (s *Server) handleComponents(w http.ResponseWriter, r *http.Request) {
	current, ok := s.current(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.NewView(current, false))
}

// handleDue returns only components that are due.
func (s *Server) handleDue(w http.ResponseWriter, r *http.Request) {
	current, ok := s.current(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.NewView(current, true))
}

// handleComponent returns a single component by name.
func (s *Server) handleComponent(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(mux.Vars(r)["name"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid component name")
		return
	}

	current, ok := s.current(w)
	if !ok {
		return
	}

	status, found := current.Lookup(name)
	if !found {
		writeError(w, http.StatusNotFound, "Component not found")
		return
	}

	writeJSON(w, http.StatusOK, report.NewComponentView(status))
}

// handleHistory returns stored snapshots, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	snapshots, err := s.reporter.History(r.Context(), limit)
	if err != nil {
		if errors.Is(err, usage.ErrHistoryDisabled) {
			writeError(w, http.StatusNotFound, "Snapshot history is disabled")
			return
		}
		s.logger.Error().Err(err).Msg("Failed to list snapshots")
		writeError(w, http.StatusInternalServerError, "Failed to retrieve history")
		return
	}

	if snapshots == nil {
		snapshots = []storage.Snapshot{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"snapshots": snapshots,
		"count":     len(snapshots),
	})
}

// handleRefresh recomputes the report immediately.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	current, err := s.reporter.Refresh(r.Context())
	if err != nil {
		switch faults.KindOf(err) {
		case faults.KindStructural, faults.KindMalformedRow:
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusOK, report.NewView(current, false))
}
