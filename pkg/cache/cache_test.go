package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/pkg/circuitbreaker"
	"storefront/pkg/clock"
	"storefront/pkg/logger"
)

type unitType struct {
	ID   int
	Name string
}

var errDown = errors.New("connection refused")

// brokenCache fails every call.
type brokenCache struct{ calls int }

func (b *brokenCache) Get(context.Context, string, interface{}) error {
	b.calls++
	return errDown
}

func (b *brokenCache) Set(context.Context, string, interface{}, time.Duration) error {
	b.calls++
	return errDown
}

func (b *brokenCache) Delete(context.Context, ...string) error {
	b.calls++
	return errDown
}

func (b *brokenCache) Ping(context.Context) error { return errDown }

func TestMemoryCache_ExpiresWithClock(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMockClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	c := NewMemoryCache(clk)

	require.NoError(t, c.Set(ctx, "k", []unitType{{ID: 1, Name: "Kg"}}, time.Minute))

	var got []unitType
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, []unitType{{ID: 1, Name: "Kg"}}, got)

	clk.Advance(time.Minute)
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_EvictionKeepsConcurrentlyRefreshedEntry(t *testing.T) {
	ctx := context.Background()
	clk := clock.NewMockClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	c := NewMemoryCache(clk)

	require.NoError(t, c.Set(ctx, "k", "stale", time.Minute))
	clk.Advance(time.Minute)

	// A reader saw the expired entry; a writer refreshes the key before the
	// reader takes the write lock to evict it.
	require.NoError(t, c.Set(ctx, "k", "fresh", time.Minute))
	c.evictExpired("k")

	var got string
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, "fresh", got)

	clk.Advance(time.Minute)
	c.evictExpired("k")
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(nil)

	original := []unitType{{ID: 1, Name: "Kg"}}
	require.NoError(t, c.Set(ctx, "k", original, 0))
	original[0].Name = "changed"

	var got []unitType
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, "Kg", got[0].Name)

	require.NoError(t, c.Delete(ctx, "k", "missing"))
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestNop_AlwaysMisses(t *testing.T) {
	ctx := context.Background()
	c := Nop()

	require.NoError(t, c.Set(ctx, "k", 1, time.Minute))
	var got int
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrCacheMiss)
}

func TestReadThrough(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(nil)
	fetches := 0
	fetch := func() ([]unitType, error) {
		fetches++
		return []unitType{{ID: fetches, Name: "Piece"}}, nil
	}

	first, err := ReadThrough(ctx, c, logger.Nop(), UnitTypesKey, time.Minute, fetch)
	require.NoError(t, err)
	second, err := ReadThrough(ctx, c, logger.Nop(), UnitTypesKey, time.Minute, fetch)
	require.NoError(t, err)

	assert.Equal(t, 1, fetches)
	assert.Equal(t, first, second)

	Invalidate(ctx, c, logger.Nop(), UnitTypesKey)
	third, err := ReadThrough(ctx, c, logger.Nop(), UnitTypesKey, time.Minute, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, fetches)
	assert.Equal(t, 2, third[0].ID)
}

func TestReadThrough_FetchErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(nil)
	boom := errors.New("no such table")

	_, err := ReadThrough(ctx, c, logger.Nop(), CategoriesKey(4), time.Minute, func() ([]unitType, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())
}

func TestReadThrough_BrokenCacheFallsBackToFetch(t *testing.T) {
	got, err := ReadThrough(context.Background(), &brokenCache{}, logger.Nop(), "k", time.Minute, func() (int, error) {
		return 42, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestGuarded_StopsCallingBrokenBackend(t *testing.T) {
	ctx := context.Background()
	backend := &brokenCache{}
	breaker := circuitbreaker.New(circuitbreaker.Settings{
		Name:             "cache",
		FailureThreshold: 2,
		OpenTimeout:      time.Hour,
		IsFailure:        IsBackendFailure,
	})
	g := NewGuarded(backend, breaker, logger.Nop())

	var v int
	assert.ErrorIs(t, g.Get(ctx, "k", &v), errDown)
	assert.ErrorIs(t, g.Set(ctx, "k", 1, time.Minute), errDown)
	assert.Equal(t, circuitbreaker.StateOpen, breaker.State())

	assert.ErrorIs(t, g.Get(ctx, "k", &v), ErrCacheMiss)
	assert.NoError(t, g.Set(ctx, "k", 1, time.Minute))
	assert.NoError(t, g.Delete(ctx, "k"))
	assert.Equal(t, 2, backend.calls)
}

func TestGuarded_MissesDoNotTrip(t *testing.T) {
	breaker := circuitbreaker.New(circuitbreaker.Settings{FailureThreshold: 1, IsFailure: IsBackendFailure})
	g := NewGuarded(NewMemoryCache(nil), breaker, logger.Nop())

	var v int
	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, g.Get(context.Background(), "absent", &v), ErrCacheMiss)
	}
	assert.Equal(t, circuitbreaker.StateClosed, breaker.State())
}

func TestCategoriesKey(t *testing.T) {
	assert.Equal(t, "category:outlet:7", CategoriesKey(7))
	assert.Equal(t, "category", keyFamily(CategoriesKey(7)))
}
