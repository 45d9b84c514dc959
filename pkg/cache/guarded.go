package cache

import (
	"context"
	"errors"
	"time"

	"storefront/pkg/circuitbreaker"
	"storefront/pkg/logger"
)

// Guarded routes every call through a circuit breaker so a failing backend is
// skipped instead of adding latency to each request. Misses do not count as
// failures. While the breaker is open, Get misses and writes are dropped.
type Guarded struct {
	next    Cache
	breaker *circuitbreaker.CircuitBreaker
	logger  logger.Logger
}

func NewGuarded(next Cache, breaker *circuitbreaker.CircuitBreaker, log logger.Logger) *Guarded {
	return &Guarded{next: next, breaker: breaker, logger: log}
}

func (g *Guarded) Get(ctx context.Context, key string, dest interface{}) error {
	err := g.breaker.Do(func() error {
		return g.next.Get(ctx, key, dest)
	})
	if g.rejected(err) {
		return ErrCacheMiss
	}
	return err
}

func (g *Guarded) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	err := g.breaker.Do(func() error {
		return g.next.Set(ctx, key, value, ttl)
	})
	if g.rejected(err) {
		return nil
	}
	return err
}

func (g *Guarded) Delete(ctx context.Context, keys ...string) error {
	err := g.breaker.Do(func() error {
		return g.next.Delete(ctx, keys...)
	})
	if g.rejected(err) {
		g.logger.WarnContext(ctx, "Cache invalidation skipped while circuit is open", map[string]interface{}{
			"keys": keys,
		})
		return nil
	}
	return err
}

func (g *Guarded) Ping(ctx context.Context) error {
	return g.next.Ping(ctx)
}

func (g *Guarded) rejected(err error) bool {
	return errors.Is(err, circuitbreaker.ErrOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests)
}

// IsBackendFailure is the breaker's failure predicate for cache calls.
func IsBackendFailure(err error) bool {
	return err != nil && !errors.Is(err, ErrCacheMiss)
}
