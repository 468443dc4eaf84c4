package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// setupTestRedis creates a miniredis instance for testing Lua scripts
func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	return client, mr
}

func TestSaveSnapshotScript(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer client.Close()

	ctx := context.Background()

	result := client.Eval(ctx, saveSnapshotScript, []string{snapshotKey("snap-1"), snapshotIndexKey},
		"snap-1", int64(1700000000000), `{"id":"snap-1"}`)
	if result.Err() != nil {
		t.Fatalf("Script execution failed: %v", result.Err())
	}

	got, err := mr.Get(snapshotKey("snap-1"))
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != `{"id":"snap-1"}` {
		t.Errorf("Unexpected payload %q", got)
	}

	score, err := mr.ZScore(snapshotIndexKey, "snap-1")
	if err != nil {
		t.Fatalf("ZScore failed: %v", err)
	}
	if score != 1700000000000 {
		t.Errorf("Expected score 1700000000000, got %v", score)
	}
}

func TestDeleteSnapshotsBeforeScriptIsExclusive(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer client.Close()

	ctx := context.Background()

	for id, score := range map[string]float64{"a": 100, "b": 200, "c": 300} {
		if err := mr.Set(snapshotKey(id), "{}"); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if _, err := mr.ZAdd(snapshotIndexKey, score, id); err != nil {
			t.Fatalf("ZAdd failed: %v", err)
		}
	}

	deleted, err := client.Eval(ctx, deleteSnapshotsBeforeScript, []string{snapshotIndexKey}, snapshotPrefix, "200").Int()
	if err != nil {
		t.Fatalf("Script execution failed: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Expected 1 deletion, got %d", deleted)
	}
	if mr.Exists(snapshotKey("a")) {
		t.Error("Expected snapshot a to be deleted")
	}
	if !mr.Exists(snapshotKey("b")) {
		t.Error("Expected snapshot b at the cutoff to be kept")
	}
}
