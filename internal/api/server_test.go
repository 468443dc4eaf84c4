package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goodtune/svcint/internal/faults"
	"github.com/goodtune/svcint/internal/interval"
	"github.com/goodtune/svcint/internal/registry"
	"github.com/goodtune/svcint/internal/report"
	"github.com/goodtune/svcint/internal/storage"
	"github.com/goodtune/svcint/internal/usage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReporter struct {
	report     *usage.Report
	refreshErr error
	snapshots  []storage.Snapshot
	historyErr error
	limit      int
	refreshed  int
}

func (f *fakeReporter) Current() (*usage.Report, error) {
	if f.report == nil {
		return nil, usage.ErrNoReport
	}
	return f.report, nil
}

func (f *fakeReporter) Refresh(ctx context.Context) (*usage.Report, error) {
	f.refreshed++
	if f.refreshErr != nil {
		return nil, f.refreshErr
	}
	return f.report, nil
}

func (f *fakeReporter) History(ctx context.Context, limit int) ([]storage.Snapshot, error) {
	f.limit = limit
	return f.snapshots, f.historyErr
}

func sampleReport() *usage.Report {
	serviced := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &usage.Report{
		TakenAt:    time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		Activities: 2,
		Statuses: []interval.Status{
			interval.NewStatus(registry.NewComponent("Brake Fluid", 200*time.Hour, serviced), 210*time.Hour),
			interval.NewStatus(registry.NewComponent("Fork/lowers", 50*time.Hour), 10*time.Hour),
		},
	}
}

func serve(t *testing.T, reporter Reporter, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	s := NewServer(Config{ListenAddr: "127.0.0.1:0"}, reporter, zerolog.Nop())
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	rec := serve(t, &fakeReporter{}, http.MethodGet, "/health")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "starting", decode[map[string]any](t, rec)["status"])

	rec = serve(t, &fakeReporter{report: sampleReport()}, http.MethodGet, "/health")
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(1), body["due"])
}

func TestComponents(t *testing.T) {
	rec := serve(t, &fakeReporter{report: sampleReport()}, http.MethodGet, "/api/v1/components")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	view := decode[report.View](t, rec)
	require.Len(t, view.Components, 2)
	assert.Equal(t, 1, view.Due)
	assert.Equal(t, "Brake Fluid", view.Components[0].Name)
}

func TestComponentsBeforeFirstReport(t *testing.T) {
	rec := serve(t, &fakeReporter{}, http.MethodGet, "/api/v1/components")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestDue(t *testing.T) {
	rec := serve(t, &fakeReporter{report: sampleReport()}, http.MethodGet, "/api/v1/due")
	require.Equal(t, http.StatusOK, rec.Code)

	view := decode[report.View](t, rec)
	require.Len(t, view.Components, 1)
	assert.True(t, view.Components[0].Due)
}

func TestComponentByName(t *testing.T) {
	reporter := &fakeReporter{report: sampleReport()}

	rec := serve(t, reporter, http.MethodGet, "/api/v1/components/Brake%20Fluid")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(210*3600), decode[report.ComponentView](t, rec).AccruedSeconds)

	rec = serve(t, reporter, http.MethodGet, "/api/v1/components/Fork%2Flowers")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Fork/lowers", decode[report.ComponentView](t, rec).Name)

	rec = serve(t, reporter, http.MethodGet, "/api/v1/components/Chain")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHistory(t *testing.T) {
	reporter := &fakeReporter{snapshots: []storage.Snapshot{{ID: "a"}, {ID: "b"}}}

	rec := serve(t, reporter, http.MethodGet, "/api/v1/history?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 2, reporter.limit)
	assert.Equal(t, float64(2), decode[map[string]any](t, rec)["count"])

	serve(t, reporter, http.MethodGet, "/api/v1/history")
	assert.Equal(t, DefaultHistoryLimit, reporter.limit)

	rec = serve(t, reporter, http.MethodGet, "/api/v1/history?limit=-1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, &fakeReporter{historyErr: usage.ErrHistoryDisabled}, http.MethodGet, "/api/v1/history")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, &fakeReporter{}, http.MethodGet, "/api/v1/history")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, decode[map[string]any](t, rec)["snapshots"])
}

func TestRefresh(t *testing.T) {
	reporter := &fakeReporter{report: sampleReport()}

	rec := serve(t, reporter, http.MethodPost, "/api/v1/refresh")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, reporter.refreshed)

	rec = serve(t, reporter, http.MethodGet, "/api/v1/refresh")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	reporter.refreshErr = faults.WithResource(faults.Structural(errors.New("missing column")), "/data/Activities.csv")
	rec = serve(t, reporter, http.MethodPost, "/api/v1/refresh")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decode[ErrorResponse](t, rec).Message, "/data/Activities.csv")

	reporter.refreshErr = faults.IO("/data/Activities.csv", errors.New("permission denied"))
	rec = serve(t, reporter, http.MethodPost, "/api/v1/refresh")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
