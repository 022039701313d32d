package locker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL   = 30 * time.Second
	defaultRetryWait = 50 * time.Millisecond
	maxRetryWait     = time.Second
)

// releaseScript deletes the key only when it still carries the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every process pointing at the same redis.
// Locks expire after TTL so a crashed holder cannot block an instance forever.
type RedisLocker struct {
	client    redis.UniversalClient
	logger    *slog.Logger
	ttl       time.Duration
	retryWait time.Duration
}

type RedisOption func(*RedisLocker)

func WithTTL(ttl time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

func WithRetryWait(wait time.Duration) RedisOption {
	return func(l *RedisLocker) {
		if wait > 0 {
			l.retryWait = wait
		}
	}
}

func NewRedisLocker(client redis.UniversalClient, logger *slog.Logger, opts ...RedisOption) *RedisLocker {
	locker := &RedisLocker{
		client:    client,
		logger:    logger.With("module", "redis_locker"),
		ttl:       defaultLockTTL,
		retryWait: defaultRetryWait,
	}

	for _, opt := range opts {
		opt(locker)
	}

	return locker
}

// NewRedisLockerFromURL parses a redis:// URL and verifies the connection.
func NewRedisLockerFromURL(ctx context.Context, url string, logger *slog.Logger, opts ...RedisOption) (*RedisLocker, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(options)

	err = client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisLocker(client, logger, opts...), nil
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	if key == "" {
		return nil, ErrEmptyKey
	}

	token := uuid.NewString()
	wait := l.retryWait

	for {
		acquired, err := l.tryLock(ctx, key, token)
		if err != nil {
			return nil, err
		}

		if acquired {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", key, ctx.Err())
		case <-time.After(wait):
		}

		wait = min(wait*2, maxRetryWait)
	}

	var once sync.Once

	return func() {
		once.Do(func() {
			err := l.release(context.WithoutCancel(ctx), key, token)
			if err != nil {
				l.logger.WarnContext(ctx, "Failed to release lock", "key", key, "error", err)
			}
		})
	}, nil
}

func (l *RedisLocker) tryLock(ctx context.Context, key, token string) (bool, error) {
	err := l.client.SetArgs(ctx, key, token, redis.SetArgs{Mode: "NX", TTL: l.ttl}).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	return true, nil
}

func (l *RedisLocker) release(ctx context.Context, key, token string) error {
	deleted, err := releaseScript.Run(ctx, l.client, []string{key}, token).Int()
	if err != nil {
		return err
	}

	if deleted == 0 {
		return ErrLockNotHeld
	}

	return nil
}

func (l *RedisLocker) Close() error {
	return l.client.Close()
}
