package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix is the Redis key prefix used when none is given.
const DefaultPrefix = "portfolio"

// RedisStorage keeps stores in Redis so several edge instances share them.
//
// Layout:
//
//	<prefix>:caches        ZSET  member=store name, score=creation time (ns)
//	<prefix>:cache:<name>  HASH  field=request key, value=JSON entry
type RedisStorage struct {
	redis  *redis.Client
	prefix string
}

// NewRedisStorage creates a Redis-backed storage.
func NewRedisStorage(redisClient *redis.Client, prefix string) *RedisStorage {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisStorage{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (r *RedisStorage) indexKey() string {
	return r.prefix + ":caches"
}

func (r *RedisStorage) storeKey(name string) string {
	return r.prefix + ":cache:" + name
}

// Open returns the named store, registering it in the index if needed.
func (r *RedisStorage) Open(ctx context.Context, name string) (Store, error) {
	if name == "" {
		return nil, errors.New("store name cannot be empty")
	}
	err := r.redis.ZAddNX(ctx, r.indexKey(), redis.Z{
		Score:  float64(time.Now().UnixNano()),
		Member: name,
	}).Err()
	if err != nil {
		CacheErrors.WithLabelValues("open").Inc()
		return nil, fmt.Errorf("redis zadd: %w", err)
	}
	return &redisStore{storage: r, name: name}, nil
}

// Has reports whether the named store exists.
func (r *RedisStorage) Has(ctx context.Context, name string) (bool, error) {
	err := r.redis.ZScore(ctx, r.indexKey(), name).Err()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		CacheErrors.WithLabelValues("names").Inc()
		return false, fmt.Errorf("redis zscore: %w", err)
	}
	return true, nil
}

// Delete removes the store hash and its index entry in one transaction.
func (r *RedisStorage) Delete(ctx context.Context, name string) (bool, error) {
	var zrem *redis.IntCmd
	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.storeKey(name))
		zrem = pipe.ZRem(ctx, r.indexKey(), name)
		return nil
	})
	if err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return false, fmt.Errorf("redis delete store: %w", err)
	}
	deleted := zrem.Val() > 0
	if deleted {
		StoresDeleted.Inc()
	}
	return deleted, nil
}

// Names lists store names in creation order.
func (r *RedisStorage) Names(ctx context.Context) ([]string, error) {
	names, err := r.redis.ZRange(ctx, r.indexKey(), 0, -1).Result()
	if err != nil {
		CacheErrors.WithLabelValues("names").Inc()
		return nil, fmt.Errorf("redis zrange: %w", err)
	}
	return names, nil
}

// Match looks key up in every store with a single pipeline and returns
// the hit from the oldest store.
func (r *RedisStorage) Match(ctx context.Context, key RequestKey) (*Entry, error) {
	names, err := r.Names(ctx)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	field := key.String()
	pipe := r.redis.Pipeline()
	cmds := make([]*redis.StringCmd, len(names))
	for i, name := range names {
		cmds[i] = pipe.HGet(ctx, r.storeKey(name), field)
	}
	// Exec reports redis.Nil when any HGET missed; inspect each command instead
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		CacheErrors.WithLabelValues("match").Inc()
		return nil, fmt.Errorf("redis hget pipeline: %w", err)
	}

	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			CacheErrors.WithLabelValues("match").Inc()
			return nil, fmt.Errorf("redis hget: %w", err)
		}
		entry, err := decodeEntry(data)
		if err != nil {
			return nil, err
		}
		CacheHits.WithLabelValues(names[i]).Inc()
		return entry, nil
	}

	CacheMisses.Inc()
	return nil, ErrCacheMiss
}

// Ping checks the Redis connection.
func (r *RedisStorage) Ping(ctx context.Context) error {
	return r.redis.Ping(ctx).Err()
}

type redisStore struct {
	storage *RedisStorage
	name    string
}

func (s *redisStore) Name() string {
	return s.name
}

func (s *redisStore) Match(ctx context.Context, key RequestKey) (*Entry, error) {
	data, err := s.storage.redis.HGet(ctx, s.storage.storeKey(s.name), key.String()).Bytes()
	if err != nil {
		if err == redis.Nil {
			CacheMisses.Inc()
			return nil, ErrCacheMiss
		}
		CacheErrors.WithLabelValues("match").Inc()
		return nil, fmt.Errorf("redis hget: %w", err)
	}

	entry, err := decodeEntry(data)
	if err != nil {
		return nil, err
	}
	CacheHits.WithLabelValues(s.name).Inc()
	return entry, nil
}

func (s *redisStore) Put(ctx context.Context, key RequestKey, entry *Entry) error {
	if entry == nil {
		return fmt.Errorf("cache entry cannot be nil")
	}

	data, err := json.Marshal(entry)
	if err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("marshal cache entry: %w", err)
	}

	// Re-register the store so a write after a concurrent sweep stays visible
	_, err = s.storage.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZAddNX(ctx, s.storage.indexKey(), redis.Z{
			Score:  float64(time.Now().UnixNano()),
			Member: s.name,
		})
		pipe.HSet(ctx, s.storage.storeKey(s.name), key.String(), data)
		return nil
	})
	if err != nil {
		CacheErrors.WithLabelValues("put").Inc()
		return fmt.Errorf("redis hset: %w", err)
	}

	CacheWrites.WithLabelValues(s.name).Inc()
	return nil
}

func (s *redisStore) Delete(ctx context.Context, key RequestKey) (bool, error) {
	n, err := s.storage.redis.HDel(ctx, s.storage.storeKey(s.name), key.String()).Result()
	if err != nil {
		CacheErrors.WithLabelValues("delete").Inc()
		return false, fmt.Errorf("redis hdel: %w", err)
	}
	return n > 0, nil
}

func (s *redisStore) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.storage.redis.HKeys(ctx, s.storage.storeKey(s.name)).Result()
	if err != nil {
		CacheErrors.WithLabelValues("keys").Inc()
		return nil, fmt.Errorf("redis hkeys: %w", err)
	}
	sort.Strings(keys)
	return keys, nil
}

func decodeEntry(data []byte) (*Entry, error) {
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		CacheErrors.WithLabelValues("match").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	return &entry, nil
}
