package storage

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Store represents the root storage interface.
type Store interface {
	Close() error
	Snapshots() SnapshotStore
}

// SnapshotStore keeps the history of computed service reports.
type SnapshotStore interface {
	// Save stores a snapshot, assigning an ID when it has none.
	Save(ctx context.Context, snapshot *Snapshot) error
	Get(ctx context.Context, id string) (*Snapshot, error)
	// Latest returns the most recently taken snapshot or ErrNotFound.
	Latest(ctx context.Context) (*Snapshot, error)
	// List returns up to limit snapshots, newest first. A limit <= 0 means all.
	List(ctx context.Context, limit int) ([]Snapshot, error)
	// DeleteBefore removes snapshots taken strictly before cutoff.
	DeleteBefore(ctx context.Context, cutoff time.Time) (int, error)
}
