package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"storefront/internal/config"
	"storefront/pkg/logger"
)

// NewClient connects to the configured Redis server and pings it once.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("could not reach redis at %s: %w", cfg.Address, err)
	}

	return client, nil
}

// KeyLocker hands out short-lived distributed locks so MAX+1 key allocation
// is serialized across processes sharing one database.
type KeyLocker struct {
	locker *redislock.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewKeyLocker(client *redis.Client, ttl time.Duration, log logger.Logger) *KeyLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &KeyLocker{
		locker: redislock.New(client),
		ttl:    ttl,
		logger: log,
	}
}

// Lock blocks until name is obtained or the retry budget is spent.
func (l *KeyLocker) Lock(ctx context.Context, name string) (func(), error) {
	lock, err := l.locker.Obtain(ctx, "lock:"+name, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(25*time.Millisecond), 40),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		return nil, fmt.Errorf("lock %s is held elsewhere: %w", name, err)
	}
	if err != nil {
		return nil, fmt.Errorf("obtain lock %s: %w", name, err)
	}

	return func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.WarnContext(ctx, "Could not release lock", map[string]interface{}{
				"lock":  name,
				"error": err.Error(),
			})
		}
	}, nil
}
