package activity

import (
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func at(s string) time.Time {
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return ts
}

func TestTotalDurationIsOrderIndependent(t *testing.T) {
	records := []Record{
		{Timestamp: at("2024-01-03T10:00:00Z"), Duration: 3 * time.Hour},
		{Timestamp: at("2024-01-01T10:00:00Z"), Duration: time.Hour},
		{Timestamp: at("2024-01-02T10:00:00Z"), Duration: 2 * time.Hour},
	}
	reversed := slices.Clone(records)
	slices.Reverse(reversed)

	assert.Equal(t, 6*time.Hour, NewLog(records...).TotalDuration())
	assert.Equal(t, NewLog(records...).TotalDuration(), NewLog(reversed...).TotalDuration())
}

func TestTotalDurationSinceIsStrict(t *testing.T) {
	cutoff := at("2024-01-01T00:00:00Z")
	log := NewLog(
		Record{Timestamp: cutoff, Duration: 50 * time.Hour},
		Record{Timestamp: cutoff.Add(time.Second), Duration: 2 * time.Hour},
		Record{Timestamp: cutoff.Add(-time.Second), Duration: 5 * time.Hour},
	)

	assert.Equal(t, 2*time.Hour, log.TotalDurationSince(cutoff))
	assert.Equal(t, 57*time.Hour, log.TotalDurationSince(cutoff.Add(-time.Hour)))
}

func TestTotalDurationSaturates(t *testing.T) {
	log := NewLog(
		Record{Timestamp: at("2024-01-01T00:00:00Z"), Duration: MaxDuration - time.Minute},
		Record{Timestamp: at("2024-01-02T00:00:00Z"), Duration: time.Hour},
	)

	assert.Equal(t, MaxDuration, log.TotalDuration())
}

func TestEmptyLog(t *testing.T) {
	var nilLog *Log
	assert.Equal(t, 0, nilLog.Len())
	assert.Zero(t, nilLog.TotalDuration())

	_, _, ok := NewLog().Span()
	assert.False(t, ok)
}

func TestSpan(t *testing.T) {
	log := NewLog(
		Record{Timestamp: at("2024-02-01T00:00:00Z")},
		Record{Timestamp: at("2024-01-01T00:00:00Z")},
		Record{Timestamp: at("2024-03-01T00:00:00Z")},
	)

	first, last, ok := log.Span()
	assert.True(t, ok)
	assert.Equal(t, at("2024-01-01T00:00:00Z"), first)
	assert.Equal(t, at("2024-03-01T00:00:00Z"), last)
}
