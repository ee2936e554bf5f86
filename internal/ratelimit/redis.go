package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "ratelimit:"

// slidingWindowScript runs the whole admission check atomically on the server
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local max = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZCARD', key) >= max then
	return 0
end
redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window)
return 1
`)

// RedisLedger shares the window across processes using one sorted set per
// client, scored by admission time in milliseconds
type RedisLedger struct {
	client redis.Scripter
	prefix string
}

// NewRedisLedger creates a ledger on top of a Redis client
func NewRedisLedger(client redis.Scripter, prefix string) *RedisLedger {
	if prefix == "" {
		prefix = defaultKeyPrefix
	}
	return &RedisLedger{client: client, prefix: prefix}
}

func (r *RedisLedger) Admit(ctx context.Context, key string, now time.Time, window time.Duration, max int) (bool, error) {
	res, err := slidingWindowScript.Run(ctx, r.client,
		[]string{r.prefix + key},
		now.UnixMilli(),
		window.Milliseconds(),
		max,
		uuid.NewString(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("failed to run sliding window script: %w", err)
	}
	return res == 1, nil
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return client, nil
}
