package usage

import (
	"time"

	"github.com/goodtune/svcint/internal/faults"
	"github.com/goodtune/svcint/internal/interval"
	"github.com/goodtune/svcint/internal/storage"
)

// Report is the outcome of one refresh.
type Report struct {
	TakenAt        time.Time
	ActivitiesPath string
	RegistryPath   string
	Activities     int
	FirstActivity  time.Time // zero when the log is empty
	LastActivity   time.Time
	Skipped        []*faults.Error
	Statuses       []interval.Status
}

// Due returns the statuses of components that are due.
func (r *Report) Due() []interval.Status {
	return interval.DueOnly(r.Statuses)
}

// Lookup returns the first status for the named component.
func (r *Report) Lookup(name string) (interval.Status, bool) {
	for _, s := range r.Statuses {
		if s.Component.Name() == name {
			return s, true
		}
	}
	return interval.Status{}, false
}

// Snapshot converts the report into its stored form.
func (r *Report) Snapshot() *storage.Snapshot {
	snapshot := &storage.Snapshot{
		TakenAt:        r.TakenAt,
		ActivitiesPath: r.ActivitiesPath,
		RegistryPath:   r.RegistryPath,
		Activities:     r.Activities,
		Skipped:        len(r.Skipped),
		Components:     make([]storage.ComponentSnapshot, 0, len(r.Statuses)),
	}

	for _, s := range r.Statuses {
		cs := storage.ComponentSnapshot{
			Name:            s.Component.Name(),
			IntervalSeconds: int64(s.Component.Interval() / time.Second),
			AccruedSeconds:  int64(s.Accrued / time.Second),
			Due:             s.Due,
		}
		if last, ok := s.Component.LastServiced(); ok {
			cs.LastServiced = &last
		}
		snapshot.Components = append(snapshot.Components, cs)
	}

	return snapshot
}
