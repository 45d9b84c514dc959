package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/pkg/logger"
	"storefront/pkg/metrics"
)

const (
	UnitTypesKey       = "product:unit-types:active"
	categoriesByOutlet = "category:outlet:%d"

	DefaultTTL = 5 * time.Minute
)

func CategoriesKey(outletID int) string {
	return fmt.Sprintf(categoriesByOutlet, outletID)
}

// ReadThrough returns the cached value under key, or calls fetch and caches
// its result. Cache errors are logged and treated as misses; fetch errors are
// returned unchanged and nothing is cached.
func ReadThrough[T any](ctx context.Context, c Cache, log logger.Logger, key string, ttl time.Duration, fetch func() (T, error)) (T, error) {
	family := keyFamily(key)

	var cached T
	err := c.Get(ctx, key, &cached)
	if err == nil {
		metrics.RecordCacheLookup(family, "hit")
		return cached, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		metrics.RecordCacheLookup(family, "error")
		log.WarnContext(ctx, "Cache read failed, falling back to the store", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	} else {
		metrics.RecordCacheLookup(family, "miss")
	}

	value, err := fetch()
	if err != nil {
		return value, err
	}

	if err := c.Set(ctx, key, value, ttl); err != nil {
		log.WarnContext(ctx, "Cache write failed", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
	return value, nil
}

// Invalidate drops keys after a write. Failures are logged only; the entry
// expires with its ttl anyway.
func Invalidate(ctx context.Context, c Cache, log logger.Logger, keys ...string) {
	if err := c.Delete(ctx, keys...); err != nil {
		log.WarnContext(ctx, "Cache invalidation failed", map[string]interface{}{
			"keys":  keys,
			"error": err.Error(),
		})
	}
}

func keyFamily(key string) string {
	family, _, _ := strings.Cut(key, ":")
	return family
}
