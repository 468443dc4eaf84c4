package storage

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Snapshot is one persisted service report.
type Snapshot struct {
	ID             string              `json:"id"`
	TakenAt        time.Time           `json:"taken_at"`
	ActivitiesPath string              `json:"activities_path"`
	RegistryPath   string              `json:"registry_path"`
	Activities     int                 `json:"activities"`
	Skipped        int                 `json:"skipped"`
	Components     []ComponentSnapshot `json:"components"`
}

// ComponentSnapshot is the stored outcome for one component.
type ComponentSnapshot struct {
	Name            string     `json:"name"`
	IntervalSeconds int64      `json:"interval_seconds"`
	AccruedSeconds  int64      `json:"accrued_seconds"`
	LastServiced    *time.Time `json:"last_serviced,omitempty"`
	Due             bool       `json:"due"`
}

// SameResult reports whether two snapshots hold identical component outcomes,
// ignoring when and from where they were taken.
func (s *Snapshot) SameResult(other *Snapshot) bool {
	if s == nil || other == nil {
		return s == other
	}
	return slices.EqualFunc(s.Components, other.Components, func(a, b ComponentSnapshot) bool {
		if a.Name != b.Name || a.IntervalSeconds != b.IntervalSeconds ||
			a.AccruedSeconds != b.AccruedSeconds || a.Due != b.Due {
			return false
		}
		if a.LastServiced == nil || b.LastServiced == nil {
			return a.LastServiced == nil && b.LastServiced == nil
		}
		return a.LastServiced.Equal(*b.LastServiced)
	})
}

// EnsureID assigns a random ID if the snapshot has none.
func (s *Snapshot) EnsureID() {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
}
