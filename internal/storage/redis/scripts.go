package redis

const (
	// saveSnapshotScript atomically stores a snapshot and indexes it by time
	saveSnapshotScript = `
local snapshot_key = KEYS[1]  -- svcint:snapshot:{id}
local index_key = KEYS[2]     -- svcint:snapshots

local snapshot_id = ARGV[1]
local taken_at_ms = tonumber(ARGV[2])
local payload = ARGV[3]

redis.call('SET', snapshot_key, payload)
redis.call('ZADD', index_key, taken_at_ms, snapshot_id)

return 'OK'
`

	// deleteSnapshotsBeforeScript removes snapshots scored strictly below the cutoff
	deleteSnapshotsBeforeScript = `
local index_key = KEYS[1]     -- svcint:snapshots
local prefix = ARGV[1]        -- svcint:snapshot:
local cutoff_ms = ARGV[2]

local ids = redis.call('ZRANGEBYSCORE', index_key, '-inf', '(' .. cutoff_ms)
for _, id in ipairs(ids) do
  redis.call('DEL', prefix .. id)
  redis.call('ZREM', index_key, id)
end

return #ids
`
)
