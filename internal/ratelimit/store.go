package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// Store counts requests per client key within the current one-minute
// window. Implementations must be safe for concurrent use.
type Store interface {
	Hit(ctx context.Context, key string) (int64, error)
}

type window struct {
	start time.Time
	count int64
}

// MemoryStore keeps counters in-process. Suitable for a single server;
// swap in the Redis store when running multiple replicas.
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{windows: make(map[string]*window)}
}

func (s *MemoryStore) Hit(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	w, ok := s.windows[key]

	if !ok || now.Sub(w.start) >= time.Minute {
		s.windows[key] = &window{start: now, count: 1}
		return 1, nil
	}

	w.count++

	return w.count, nil
}

// RedisStore shares counters across replicas using fixed one-minute
// buckets keyed by client and wall-clock minute.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Hit(ctx context.Context, key string) (int64, error) {
	bucket := fmt.Sprintf("ratelimit:%s:%d", key, time.Now().Unix()/60)

	count, err := s.client.Incr(ctx, bucket).Result()

	if err != nil {
		return 0, err
	}

	if count == 1 {
		if err := s.client.Expire(ctx, bucket, 2*time.Minute).Err(); err != nil {
			return count, err
		}
	}

	return count, nil
}
