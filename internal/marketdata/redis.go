package marketdata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "marketdata:snapshot:"

// RedisStore shares snapshots between generator processes. Keys expire
// after ttl, counted from the write.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) key(symbol string) string {
	return redisKeyPrefix + symbol
}

func (r *RedisStore) Get(ctx context.Context, symbol string) (Entry, bool, error) {
	raw, err := r.client.Get(ctx, r.key(symbol)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get %s: %w", symbol, err)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, false, fmt.Errorf("decode cached snapshot %s: %w", symbol, err)
	}
	return e, true, nil
}

func (r *RedisStore) Put(ctx context.Context, entry Entry) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", entry.Snapshot.Symbol, err)
	}
	if err := r.client.Set(ctx, r.key(entry.Snapshot.Symbol), raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", entry.Snapshot.Symbol, err)
	}
	return nil
}
