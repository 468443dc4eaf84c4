package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/goodtune/svcint/internal/storage"
	"github.com/redis/go-redis/v9"
)

type snapshotStore struct {
	client *redis.Client
}

// Save stores a snapshot and its time index entry
func (s *snapshotStore) Save(ctx context.Context, snapshot *storage.Snapshot) error {
	snapshot.EnsureID()

	payload, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	script := redis.NewScript(saveSnapshotScript)
	keys := []string{snapshotKey(snapshot.ID), snapshotIndexKey}
	args := []interface{}{snapshot.ID, snapshot.TakenAt.UnixMilli(), string(payload)}

	return script.Run(ctx, s.client, keys, args...).Err()
}

// Get retrieves a snapshot by ID
func (s *snapshotStore) Get(ctx context.Context, id string) (*storage.Snapshot, error) {
	data, err := s.client.Get(ctx, snapshotKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return parseSnapshot(data)
}

// Latest returns the most recent snapshot
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

// List returns snapshots newest first
func (s *snapshotStore) List(ctx context.Context, limit int) ([]storage.Snapshot, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}

	ids, err := s.client.ZRevRange(ctx, snapshotIndexKey, 0, stop).Result()
	if err != nil {
		return nil, err
	}

	if len(ids) == 0 {
		return []storage.Snapshot{}, nil
	}

	// Use pipeline for efficient batch retrieval
	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, snapshotKey(id))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}

	snapshots := make([]storage.Snapshot, 0, len(ids))
	for _, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil {
			continue
		}
		snapshot, err := parseSnapshot(data)
		if err == nil {
			snapshots = append(snapshots, *snapshot)
		}
	}

	return snapshots, nil
}

// DeleteBefore removes snapshots taken before cutoff
func (s *snapshotStore) DeleteBefore(ctx context.Context, cutoff time.Time) (int, error) {
	script := redis.NewScript(deleteSnapshotsBeforeScript)

	deleted, err := script.Run(ctx, s.client, []string{snapshotIndexKey}, snapshotPrefix, cutoff.UnixMilli()).Int()
	if err != nil {
		return 0, err
	}
	return deleted, nil
}
