package redis

import (
	"encoding/json"
	"fmt"

	"github.com/goodtune/svcint/internal/storage"
)

const (
	snapshotPrefix   = "svcint:snapshot:"
	snapshotIndexKey = "svcint:snapshots"
)

func snapshotKey(id string) string {
	return snapshotPrefix + id
}

// parseSnapshot converts a stored JSON payload to a Snapshot
func parseSnapshot(data string) (*storage.Snapshot, error) {
	if data == "" {
		return nil, storage.ErrNotFound
	}

	var snapshot storage.Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	return &snapshot, nil
}
