package streak

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"journal-backend/internal/model"
)

// ErrCacheMiss 캐시에 값 없음
var ErrCacheMiss = errors.New("streak cache miss")

// Cache is an optional read-through layer in front of recomputation.
type Cache interface {
	Get(ctx context.Context, userID, habitID string) (*model.HabitStreak, error)
	Set(ctx context.Context, userID string, s model.HabitStreak) error
	Delete(ctx context.Context, userID, habitID string) error
}

func cacheKey(userID, habitID string) string {
	return fmt.Sprintf("streak:%s:%s", userID, habitID)
}

// MemoryCache 프로세스 내 스트릭 캐시
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]model.HabitStreak
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]model.HabitStreak)}
}

func (m *MemoryCache) Get(_ context.Context, userID, habitID string) (*model.HabitStreak, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.entries[cacheKey(userID, habitID)]
	if !ok {
		return nil, ErrCacheMiss
	}
	return &s, nil
}

func (m *MemoryCache) Set(_ context.Context, userID string, s model.HabitStreak) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[cacheKey(userID, s.HabitID)] = s
	return nil
}

func (m *MemoryCache) Delete(_ context.Context, userID, habitID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, cacheKey(userID, habitID))
	return nil
}

// RedisCache wraps a Redis client for streak caching
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache creates a Redis-backed cache and verifies the connection
func NewRedisCache(addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return &RedisCache{client: client, ttl: ttl}, nil
}

func (r *RedisCache) Get(ctx context.Context, userID, habitID string) (*model.HabitStreak, error) {
	data, err := r.client.Get(ctx, cacheKey(userID, habitID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var s model.HabitStreak
	if err := json.Unmarshal(data, &s); err != nil {
		// 깨진 값은 미스로 취급
		r.client.Del(ctx, cacheKey(userID, habitID))
		return nil, ErrCacheMiss
	}
	return &s, nil
}

func (r *RedisCache) Set(ctx context.Context, userID string, s model.HabitStreak) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, cacheKey(userID, s.HabitID), data, r.ttl).Err()
}

func (r *RedisCache) Delete(ctx context.Context, userID, habitID string) error {
	return r.client.Del(ctx, cacheKey(userID, habitID)).Err()
}

// Health checks if Redis is healthy
func (r *RedisCache) Health(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisCache) Close() error {
	return r.client.Close()
}
