// Package redis implements store.Store on Redis.
//
// Entities are stored as JSON strings. Sorted sets keyed by timestamp index
// messages (overall, per status, forwarded) and rules (all, enabled) so
// listing and counting never scan the keyspace. Every multi-key write runs in
// a MULTI/EXEC transaction.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/xraph/grove/kv"
	"github.com/xraph/grove/kv/drivers/redisdriver"

	relaystore "github.com/xraph/smsrelay/store"
)

// compile-time interface check
var _ relaystore.Store = (*Store)(nil)

// Store implements store.Store using Redis via Grove KV.
type Store struct {
	kv  *kv.Store
	rdb goredis.UniversalClient
}

// New creates a new Redis store backed by Grove KV. Sorted-set indexes and
// transactions go through the driver's go-redis client.
func New(store *kv.Store) *Store {
	return &Store{
		kv:  store,
		rdb: redisdriver.UnwrapClient(store),
	}
}

// Open connects a Grove KV store to the Redis server at dsn
// (e.g. "redis://localhost:6379/0").
func Open(ctx context.Context, dsn string) (*kv.Store, error) {
	drv := redisdriver.New()
	if err := drv.Open(ctx, dsn); err != nil {
		return nil, fmt.Errorf("smsrelay/redis: open: %w", err)
	}
	store, err := kv.Open(drv)
	if err != nil {
		_ = drv.Close()
		return nil, fmt.Errorf("smsrelay/redis: open: %w", err)
	}
	return store, nil
}

// Migrate is a no-op for Redis (no schema migrations needed).
func (s *Store) Migrate(_ context.Context) error {
	return nil
}

// Ping checks Redis connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.kv.Ping(ctx); err != nil {
		return fmt.Errorf("smsrelay/redis: ping: %w", err)
	}
	return nil
}

// Close closes the KV store.
func (s *Store) Close() error {
	return s.kv.Close()
}

// score converts a time to a sorted set score in unix milliseconds, which a
// float64 represents exactly.
func score(t time.Time) float64 {
	return float64(t.UnixMilli())
}

func scoreArg(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// isNotFound checks if an error is a KV not-found sentinel.
func isNotFound(err error) bool {
	return errors.Is(err, kv.ErrNotFound)
}

// getEntity retrieves and decodes a JSON entity from a KV key.
func (s *Store) getEntity(ctx context.Context, key string, dest any) error {
	raw, err := s.kv.GetRaw(ctx, key)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

// getEntities loads the JSON entities stored under prefix+id for each id,
// skipping ids whose key has disappeared.
func getEntities[T any](ctx context.Context, s *Store, prefix string, ids []string) ([]*T, error) {
	if len(ids) == 0 {
		return []*T{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = entityKey(prefix, id)
	}

	vals, err := s.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]*T, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue
		}
		m := new(T)
		if err := json.Unmarshal([]byte(str), m); err != nil {
			return nil, fmt.Errorf("decode %s entity: %w", prefix, err)
		}
		out = append(out, m)
	}
	return out, nil
}

func marshal(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("smsrelay/redis: marshal entity: %w", err)
	}
	return raw, nil
}

// rangeBounds converts offset/limit into inclusive ZRANGE indexes.
func rangeBounds(offset, limit int) (start, stop int64) {
	if offset < 0 {
		offset = 0
	}
	start = int64(offset)
	stop = -1
	if limit > 0 {
		stop = start + int64(limit) - 1
	}
	return start, stop
}

// applyPagination applies offset and limit to a slice.
func applyPagination[T any](items []*T, offset, limit int) []*T {
	if offset >= len(items) {
		return []*T{}
	}
	if offset > 0 {
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
