package storage

import (
	"testing"
	"time"
)

func TestSnapshotSameResult(t *testing.T) {
	serviced := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sameInstant := serviced.In(time.FixedZone("AEST", 10*3600))

	a := &Snapshot{ID: "a", TakenAt: time.Now(), Components: []ComponentSnapshot{
		{Name: "Fork", IntervalSeconds: 180000, AccruedSeconds: 3600, LastServiced: &serviced},
	}}
	b := &Snapshot{ID: "b", TakenAt: time.Now().Add(time.Hour), Components: []ComponentSnapshot{
		{Name: "Fork", IntervalSeconds: 180000, AccruedSeconds: 3600, LastServiced: &sameInstant},
	}}

	if !a.SameResult(b) {
		t.Fatal("expected snapshots with equal outcomes to match")
	}

	b.Components[0].AccruedSeconds = 7200
	if a.SameResult(b) {
		t.Fatal("expected different accrued time to differ")
	}

	b.Components[0].AccruedSeconds = 3600
	b.Components[0].LastServiced = nil
	if a.SameResult(b) {
		t.Fatal("expected never-serviced to differ from serviced")
	}

	var none *Snapshot
	if none.SameResult(a) {
		t.Fatal("nil snapshot should not match")
	}
}

func TestSnapshotEnsureID(t *testing.T) {
	s := &Snapshot{}
	s.EnsureID()
	if s.ID == "" {
		t.Fatal("expected an ID")
	}

	id := s.ID
	s.EnsureID()
	if s.ID != id {
		t.Fatal("expected existing ID to be kept")
	}
}
