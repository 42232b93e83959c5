package trigger

import (
	"context"
	"time"

	"github.com/bluele/gcache"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Deduper 记录已成功处理的 (事件, 处理函数) 键
type Deduper interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

const dedupeKeyPrefix = "trigger:done:"

// RedisDeduper 基于 Redis 的去重，键带过期时间
type RedisDeduper struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDeduper(rdb *redis.Client, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{rdb: rdb, ttl: ttl}
}

func (r *RedisDeduper) Seen(ctx context.Context, key string) (bool, error) {
	n, err := r.rdb.Exists(ctx, dedupeKeyPrefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RedisDeduper) Mark(ctx context.Context, key string) error {
	return r.rdb.Set(ctx, dedupeKeyPrefix+key, 1, r.ttl).Err()
}

// MemoryDeduper 进程内去重，用于本地模拟模式与测试。
// LRU 容量限制键数，过期键不再命中。
type MemoryDeduper struct {
	cache gcache.Cache
}

// NewMemoryDeduper size 为最多保留的键数，ttl <= 0 表示不过期
func NewMemoryDeduper(size int, ttl time.Duration) *MemoryDeduper {
	return newMemoryDeduper(size, ttl, gcache.NewRealClock())
}

func newMemoryDeduper(size int, ttl time.Duration, clock gcache.Clock) *MemoryDeduper {
	if size <= 0 {
		size = defaultDedupeSize
	}
	b := gcache.New(size).LRU().Clock(clock)
	if ttl > 0 {
		b = b.Expiration(ttl)
	}
	return &MemoryDeduper{cache: b.Build()}
}

const defaultDedupeSize = 100000

func (m *MemoryDeduper) Seen(_ context.Context, key string) (bool, error) {
	_, err := m.cache.Get(key)
	if errors.Is(err, gcache.KeyNotFoundError) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (m *MemoryDeduper) Mark(_ context.Context, key string) error {
	return m.cache.Set(key, struct{}{})
}

// Len 当前保留的未过期键数
func (m *MemoryDeduper) Len() int {
	return m.cache.Len(true)
}
