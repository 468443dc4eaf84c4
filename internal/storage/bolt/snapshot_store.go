package bolt

import (
	"context"
	"fmt"
	"time"

	"github.com/goodtune/svcint/internal/storage"
	"go.etcd.io/bbolt"
)

type snapshotStore struct {
	db *bbolt.DB
}

func (s *snapshotStore) Save(ctx context.Context, snapshot *storage.Snapshot) error {
	snapshot.EnsureID()
	key := snapshotKey(snapshot.TakenAt, snapshot.ID)
	data, err := marshal(snapshot)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		snapshots := tx.Bucket([]byte(bucketSnapshots))
		ids := tx.Bucket([]byte(bucketSnapshotIDs))
		if snapshots == nil || ids == nil {
			return fmt.Errorf("snapshot buckets missing")
		}
		if old := ids.Get([]byte(snapshot.ID)); old != nil {
			if err := snapshots.Delete(old); err != nil {
				return err
			}
		}
		if err := snapshots.Put([]byte(key), data); err != nil {
			return err
		}
		return ids.Put([]byte(snapshot.ID), []byte(key))
	})
}

func (s *snapshotStore) Get(ctx context.Context, id string) (*storage.Snapshot, error) {
	var key string
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketSnapshotIDs))
		if b == nil {
			return storage.ErrNotFound
		}
		value := b.Get([]byte(id))
		if value == nil {
			return storage.ErrNotFound
		}
		key = string(value)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return getBucketValue[storage.Snapshot](ctx, s.db, bucketSnapshots, key)
}

func (s *snapshotStore) Latest(ctx context.Context) (*storage.Snapshot, error) {
	snapshots, err := s.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, storage.ErrNotFound
	}
	return &snapshots[0], nil
}

func (s *snapshotStore) List(ctx context.Context, limit int) ([]storage.Snapshot, error) {
	snapshots := make([]storage.Snapshot, 0)
	err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketSnapshots))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if limit > 0 && len(snapshots) >= limit {
				return nil
			}
			var snapshot storage.Snapshot
			if err := unmarshal(v, &snapshot); err != nil {
				return err
			}
			snapshots = append(snapshots, snapshot)
		}
		return nil
	})
	return snapshots, err
}

func (s *snapshotStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	deleted := 0
	bound := []byte(snapshotKey(cutoff, ""))
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		snapshots := tx.Bucket([]byte(bucketSnapshots))
		ids := tx.Bucket([]byte(bucketSnapshotIDs))
		if snapshots == nil || ids == nil {
			return nil
		}
		c := snapshots.Cursor()
		for k, v := c.First(); k != nil && string(k) < string(bound); k, v = c.First() {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			var snapshot storage.Snapshot
			if err := unmarshal(v, &snapshot); err != nil {
				return err
			}
			if err := c.Delete(); err != nil {
				return err
			}
			if err := ids.Delete([]byte(snapshot.ID)); err != nil {
				return err
			}
			deleted++
		}
		return nil
	})
	return deleted, err
}
