// Package activity decodes exported activity logs and sums the time spent
// using the equipment.
//
// Timestamps in the export carry no zone. They are read as UTC wall-clock
// values verbatim; no attempt is made to guess the rider's local zone.
package activity

import (
	"iter"
	"slices"
	"time"
)

// Record is one completed usage session.
type Record struct {
	Timestamp time.Time
	Duration  time.Duration
}

// Log is the set of records parsed from one export, kept in file order.
// Every record in a Log passed validation.
type Log struct {
	records []Record
}

// NewLog builds a Log from already validated records.
func NewLog(records ...Record) *Log {
	return &Log{records: slices.Clone(records)}
}

// Len returns the number of records.
func (l *Log) Len() int {
	if l == nil {
		return 0
	}
	return len(l.records)
}

// All iterates over the records in file order.
func (l *Log) All() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		if l == nil {
			return
		}
		for _, r := range l.records {
			if !yield(r) {
				return
			}
		}
	}
}

// Records returns a copy of the records.
func (l *Log) Records() []Record {
	if l == nil {
		return nil
	}
	return slices.Clone(l.records)
}

// TotalDuration is the saturating sum of every record's duration.
func (l *Log) TotalDuration() time.Duration {
	return SaturatingSum(func(yield func(time.Duration) bool) {
		for r := range l.All() {
			if !yield(r.Duration) {
				return
			}
		}
	})
}

// TotalDurationSince sums the durations of records whose timestamp is strictly
// after since. A record stamped exactly at since is not counted.
func (l *Log) TotalDurationSince(since time.Time) time.Duration {
	return SaturatingSum(func(yield func(time.Duration) bool) {
		for r := range l.All() {
			if r.Timestamp.After(since) && !yield(r.Duration) {
				return
			}
		}
	})
}

// Span returns the earliest and latest record timestamps.
func (l *Log) Span() (first, last time.Time, ok bool) {
	for r := range l.All() {
		if !ok || r.Timestamp.Before(first) {
			first = r.Timestamp
		}
		if !ok || r.Timestamp.After(last) {
			last = r.Timestamp
		}
		ok = true
	}
	return first, last, ok
}
