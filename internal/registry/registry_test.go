package registry

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"testing/iotest"
	"time"

	"github.com/goodtune/svcint/internal/faults"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleRegistry = `[
  {
    "name": "Fox 36 lower leg service",
    "interval": "50h",
    "serviced": ["2024-03-01T10:00:00+10:00", "2023-09-01T00:00:00Z", "2024-03-01T00:00:00Z"]
  },
  {
    "name": "Brake fluid",
    "interval": "200h",
    "serviced": []
  },
  {
    "name": "Chain",
    "interval": "1w 2d",
    "serviced": ["2024-02-01T00:00:00Z", "2024-02-01T00:00:00Z"]
  }
]`

func TestLoadPreservesDocumentOrder(t *testing.T) {
	reg, err := Load(strings.NewReader(sampleRegistry))
	require.NoError(t, err)
	require.Equal(t, 3, reg.Len())

	var names []string
	for c := range reg.Components() {
		names = append(names, c.Name())
	}
	assert.Equal(t, []string{"Fox 36 lower leg service", "Brake fluid", "Chain"}, names)
}

func TestLastServiced(t *testing.T) {
	reg, err := Load(strings.NewReader(sampleRegistry))
	require.NoError(t, err)

	fork, ok := reg.Lookup("Fox 36 lower leg service")
	require.True(t, ok)
	last, ok := fork.LastServiced()
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), last)
	// 2024-03-01T10:00:00+10:00 and 2024-03-01T00:00:00Z are the same instant
	assert.Len(t, fork.Serviced(), 2)
	assert.Equal(t, 50*time.Hour, fork.Interval())

	brakes, ok := reg.Lookup("Brake fluid")
	require.True(t, ok)
	_, ok = brakes.LastServiced()
	assert.False(t, ok)

	chain, ok := reg.Lookup("Chain")
	require.True(t, ok)
	assert.Len(t, chain.Serviced(), 1)
	assert.Equal(t, 9*24*time.Hour, chain.Interval())

	_, ok = reg.Lookup("Dropper post")
	assert.False(t, ok)
}

func TestLoadRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{{`},
		{"object instead of list", `{"name": "x"}`},
		{"null", `null`},
		{"missing name", `[{"interval": "5h", "serviced": []}]`},
		{"missing interval", `[{"name": "x", "serviced": []}]`},
		{"missing serviced", `[{"name": "x", "interval": "5h"}]`},
		{"empty name", `[{"name": " ", "interval": "5h", "serviced": []}]`},
		{"bad interval", `[{"name": "x", "interval": "five hours", "serviced": []}]`},
		{"unknown unit", `[{"name": "x", "interval": "5 fortnights", "serviced": []}]`},
		{"negative interval", `[{"name": "x", "interval": "-5h", "serviced": []}]`},
		{"date without zone", `[{"name": "x", "interval": "5h", "serviced": ["2024-01-01 00:00:00"]}]`},
		{"trailing data", `[] []`},
		{"one bad among good", `[{"name": "a", "interval": "5h", "serviced": []}, {"name": "b", "interval": "", "serviced": []}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := Load(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.Nil(t, reg)
			assert.ErrorIs(t, err, ErrInvalidDocument)
			assert.Equal(t, faults.KindStructural, faults.KindOf(err))
		})
	}
}

func TestLoadIgnoresExtraKeys(t *testing.T) {
	reg, err := Load(strings.NewReader(`[{"name": "Fork", "interval": "50h", "serviced": [], "notes": "Fox 36"}]`))
	require.NoError(t, err)

	fork, ok := reg.Lookup("Fork")
	require.True(t, ok)
	assert.Equal(t, 50*time.Hour, fork.Interval())
}

func TestLoadEmptyList(t *testing.T) {
	reg, err := Load(strings.NewReader(`[]`))
	require.NoError(t, err)
	assert.Equal(t, 0, reg.Len())
}

func TestLoadReadFailureIsIO(t *testing.T) {
	_, err := Load(iotest.ErrReader(errors.New("permission denied")))
	require.Error(t, err)
	assert.Equal(t, faults.KindIO, faults.KindOf(err))
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"500h", 500 * time.Hour},
		{"30d", 30 * 24 * time.Hour},
		{"1h30m", 90 * time.Minute},
		{"1h 30m", 90 * time.Minute},
		{"2w", 14 * 24 * time.Hour},
		{"30days", 30 * 24 * time.Hour},
		{"2weeks", 14 * 24 * time.Hour},
		{"500hours", 500 * time.Hour},
		{"1 hour 30 minutes", 90 * time.Minute},
		{"1month", 2_630_016 * time.Second},
		{"1y", 31_557_600 * time.Second},
		{"15min", 15 * time.Minute},
	}
	for _, tt := range tests {
		got, err := ParseInterval(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseIntervalRejects(t *testing.T) {
	for _, in := range []string{"", "h", "5", "-5h", "5 fortnights", "5H", "1.5months"} {
		_, err := ParseInterval(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestFormatInterval(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{200 * time.Hour, "200h"},
		{30 * 24 * time.Hour, "720h"},
		{90 * time.Minute, "1h30m"},
	}
	for _, tt := range tests {
		got := FormatInterval(tt.in)
		assert.Equal(t, tt.want, got)

		back, err := ParseInterval(got)
		require.NoError(t, err)
		assert.Equal(t, tt.in, back)
	}
}

func TestMarkServicedLeavesOriginalUntouched(t *testing.T) {
	reg, err := Load(strings.NewReader(sampleRegistry))
	require.NoError(t, err)

	at := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	updated, err := MarkServiced(reg, "Brake fluid", at)
	require.NoError(t, err)

	brakes, _ := updated.Lookup("Brake fluid")
	last, ok := brakes.LastServiced()
	require.True(t, ok)
	assert.Equal(t, at, last)

	original, _ := reg.Lookup("Brake fluid")
	_, ok = original.LastServiced()
	assert.False(t, ok)

	_, err = MarkServiced(reg, "Dropper post", at)
	assert.ErrorIs(t, err, ErrUnknownComponent)
}

func TestEncodeRoundTrip(t *testing.T) {
	reg, err := Load(strings.NewReader(sampleRegistry))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, reg))

	again, err := Load(&buf)
	require.NoError(t, err)
	require.Equal(t, reg.Len(), again.Len())

	for c := range reg.Components() {
		got, ok := again.Lookup(c.Name())
		require.True(t, ok)
		assert.Equal(t, c.Interval(), got.Interval())
		assert.Equal(t, c.Serviced(), got.Serviced())
	}
}
