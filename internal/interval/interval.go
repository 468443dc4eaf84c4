// Package interval works out how much usage each component has accrued since
// it was last serviced.
//
// Everything here is a pure function of a registry and an activity log. There
// is no notion of "now": only activity timestamps are compared with service
// dates, so the same inputs always give the same answer.
package interval

import (
	"iter"
	"time"

	"github.com/goodtune/svcint/internal/activity"
	"github.com/goodtune/svcint/internal/registry"
)

// Epoch is the cutoff for a component that has never been serviced. Every
// activity after it counts.
var Epoch = time.Unix(0, 0).UTC()

// Cutoff returns the instant after which activities count toward c's current
// service period.
func Cutoff(c registry.Component) time.Time {
	if last, ok := c.LastServiced(); ok {
		return last
	}
	return Epoch
}

// Accrued sums the durations of activities strictly after c's cutoff. An
// activity stamped exactly at the service date belongs to the previous period.
func Accrued(c registry.Component, log *activity.Log) time.Duration {
	return log.TotalDurationSince(Cutoff(c))
}

// IsDue reports whether accrued usage exceeds the interval. Reaching the
// interval exactly is not yet due.
func IsDue(accrued, interval time.Duration) bool {
	return accrued > interval
}

// Compute yields every component with its accrued usage, in registry order.
func Compute(reg registry.Reader, log *activity.Log) iter.Seq2[registry.Component, time.Duration] {
	return func(yield func(registry.Component, time.Duration) bool) {
		for c := range reg.Components() {
			if !yield(c, Accrued(c, log)) {
				return
			}
		}
	}
}

// Status is the outcome for a single component.
type Status struct {
	Component registry.Component
	Cutoff    time.Time
	Accrued   time.Duration
	Due       bool
	// Remaining is the usage left before the component is due, zero once due.
	Remaining time.Duration
}

// NeverServiced reports whether the status was computed from Epoch.
func (s Status) NeverServiced() bool {
	_, ok := s.Component.LastServiced()
	return !ok
}

// Report evaluates every component eagerly, in registry order.
func Report(reg registry.Reader, log *activity.Log) []Status {
	statuses := make([]Status, 0, reg.Len())
	for c, accrued := range Compute(reg, log) {
		statuses = append(statuses, NewStatus(c, accrued))
	}
	return statuses
}

// NewStatus derives the due decision for an accrued value.
func NewStatus(c registry.Component, accrued time.Duration) Status {
	s := Status{
		Component: c,
		Cutoff:    Cutoff(c),
		Accrued:   accrued,
		Due:       IsDue(accrued, c.Interval()),
	}
	if !s.Due {
		s.Remaining = c.Interval() - accrued
	}
	return s
}

// DueOnly filters statuses down to components that are due.
func DueOnly(statuses []Status) []Status {
	var due []Status
	for _, s := range statuses {
		if s.Due {
			due = append(due, s)
		}
	}
	return due
}
