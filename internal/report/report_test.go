package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/goodtune/svcint/internal/faults"
	"github.com/goodtune/svcint/internal/interval"
	"github.com/goodtune/svcint/internal/registry"
	"github.com/goodtune/svcint/internal/storage"
	"github.com/goodtune/svcint/internal/usage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

var serviced = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func testReport() *usage.Report {
	brake := registry.NewComponent("Brake Fluid", 200*time.Hour, serviced)
	chain := registry.NewComponent("Chain", 300*time.Hour)

	return &usage.Report{
		TakenAt:        time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
		ActivitiesPath: "/data/Activities.csv",
		RegistryPath:   "/data/registry.json",
		Activities:     2,
		FirstActivity:  time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC),
		LastActivity:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Skipped: []*faults.Error{
			faults.WithResource(faults.MalformedRow(3, 4, errors.New("invalid date")), "/data/Activities.csv").(*faults.Error),
		},
		Statuses: []interval.Status{
			interval.NewStatus(brake, 210*time.Hour),
			interval.NewStatus(chain, 215*time.Hour),
		},
	}
}

func TestRendererReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf).Report(testReport(), false))

	out := buf.String()
	assert.Contains(t, out, "COMPONENT")
	assert.Contains(t, out, "Brake Fluid")
	assert.Contains(t, out, "210:00:00")
	assert.Contains(t, out, "2024-01-01 00:00")
	assert.Contains(t, out, "DUE")
	assert.Contains(t, out, "ok, 85:00:00 left")
	assert.Contains(t, out, "never")
	assert.Contains(t, out, "1 of 2 components due, 2 activities")
	assert.Contains(t, out, "Skipped 1 malformed row(s):")
	assert.Contains(t, out, "row 3 (line 4)")
}

func TestRendererReportOnlyDue(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf).Report(testReport(), true))

	out := buf.String()
	assert.Contains(t, out, "Brake Fluid")
	assert.NotContains(t, out, "Chain")
}

func TestRendererComponents(t *testing.T) {
	reg := registry.New(
		registry.NewComponent("Fork", 50*time.Hour, serviced, serviced.Add(24*time.Hour)),
		registry.NewComponent("Chain", 20*time.Hour),
	)

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(&buf).Components(reg))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "Fork")
	assert.Contains(t, lines[1], "2024-01-02 00:00")
	assert.Contains(t, lines[2], "never")
}

func TestRendererHistory(t *testing.T) {
	var buf bytes.Buffer
	r := NewRenderer(&buf)

	require.NoError(t, r.History(nil))
	assert.Contains(t, buf.String(), "no snapshots recorded")

	buf.Reset()
	require.NoError(t, r.History([]storage.Snapshot{
		{
			ID:      "abc",
			TakenAt: time.Now(),
			Components: []storage.ComponentSnapshot{
				{Name: "Brake Fluid", Due: true},
				{Name: "Chain"},
			},
		},
	}))
	assert.Contains(t, buf.String(), "abc")
	assert.Contains(t, buf.String(), "Brake Fluid")
}

func TestNewView(t *testing.T) {
	view := NewView(testReport(), false)

	assert.Equal(t, 1, view.Due)
	require.Len(t, view.Components, 2)
	require.Len(t, view.Skipped, 1)
	assert.Equal(t, 3, view.Skipped[0].Row)
	assert.Equal(t, "invalid date", view.Skipped[0].Message)

	brake := view.Components[0]
	assert.Equal(t, "200h", brake.Interval)
	assert.Equal(t, "210:00:00", brake.Accrued)
	assert.Equal(t, int64(210*3600), brake.AccruedSeconds)
	assert.Zero(t, brake.RemainingSeconds)
	require.NotNil(t, brake.LastServiced)

	chain := view.Components[1]
	assert.Nil(t, chain.LastServiced)
	assert.NotNil(t, chain.Serviced)
	assert.Equal(t, interval.Epoch, chain.Cutoff)

	due := NewView(testReport(), true)
	require.Len(t, due.Components, 1)
	assert.Equal(t, 1, due.Due)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, NewView(testReport(), false)))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, float64(1), decoded["due"])

	components := decoded["components"].([]any)
	chain := components[1].(map[string]any)
	assert.Equal(t, []any{}, chain["serviced"])
	_, hasLast := chain["last_serviced"]
	assert.False(t, hasLast)
}
