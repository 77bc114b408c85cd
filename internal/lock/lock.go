// Package lock keeps crawl runs from overlapping.
package lock

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned when another run holds the lock
var ErrLocked = errors.New("lock already held")

// Locker hands out exclusive leases on a single resource
type Locker interface {
	// Acquire returns a token for Release, or ErrLocked
	Acquire(ctx context.Context) (string, error)
	Release(ctx context.Context, token string) error
}

// releaseScript deletes the key only if it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker holds the lock as a Redis key with a TTL so that a crashed
// run cannot block the next one forever.
type RedisLocker struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewRedisLocker creates a lock on key
func NewRedisLocker(client *redis.Client, key string, ttl time.Duration) *RedisLocker {
	return &RedisLocker{client: client, key: key, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context) (string, error) {
	token := uuid.New().String()
	ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("redis SETNX %s: %w", l.key, err)
	}
	if !ok {
		return "", ErrLocked
	}
	return token, nil
}

func (l *RedisLocker) Release(ctx context.Context, token string) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Err(); err != nil {
		return fmt.Errorf("redis release %s: %w", l.key, err)
	}
	return nil
}

// NewRedisClient parses redisURL and verifies connectivity.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return client, nil
}

// LocalLocker is an in-process lock for single-instance deployments
type LocalLocker struct {
	mu    sync.Mutex
	token string
}

// NewLocalLocker creates an in-process lock
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{}
}

func (l *LocalLocker) Acquire(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.token != "" {
		return "", ErrLocked
	}
	l.token = uuid.New().String()
	return l.token, nil
}

func (l *LocalLocker) Release(ctx context.Context, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.token == token {
		l.token = ""
	}
	return nil
}
