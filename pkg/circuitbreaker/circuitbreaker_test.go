package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/pkg/clock"
)

var errBackend = errors.New("backend down")

func fail() error    { return errBackend }
func succeed() error { return nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	var transitions []string
	cb := New(Settings{
		Name:             "cache",
		FailureThreshold: 3,
		OpenTimeout:      10 * time.Second,
		Clock:            clk,
		OnStateChange: func(name string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Do(fail), errBackend)
	}
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Do(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
	assert.Equal(t, []string{"closed->open"}, transitions)
}

func TestCircuitBreaker_SuccessResetsFailureStreak(t *testing.T) {
	cb := New(Settings{FailureThreshold: 2})

	require.Error(t, cb.Do(fail))
	require.NoError(t, cb.Do(succeed))
	require.Error(t, cb.Do(fail))

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, uint32(1), cb.Counts().ConsecutiveFailures)
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	cb := New(Settings{FailureThreshold: 1, OpenTimeout: time.Minute, Clock: clk})

	require.Error(t, cb.Do(fail))
	assert.Equal(t, StateOpen, cb.State())

	clk.Advance(time.Minute)
	assert.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Do(succeed))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	cb := New(Settings{FailureThreshold: 1, OpenTimeout: time.Minute, Clock: clk})

	require.Error(t, cb.Do(fail))
	clk.Advance(2 * time.Minute)

	require.Error(t, cb.Do(fail))
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_IsFailureFiltersErrors(t *testing.T) {
	ignored := errors.New("miss")
	cb := New(Settings{
		FailureThreshold: 1,
		IsFailure:        func(err error) bool { return err != nil && !errors.Is(err, ignored) },
	})

	assert.ErrorIs(t, cb.Do(func() error { return ignored }), ignored)
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_PanicCountsAsFailure(t *testing.T) {
	cb := New(Settings{FailureThreshold: 1})

	assert.Panics(t, func() {
		_ = cb.Do(func() error { panic("boom") })
	})
	assert.Equal(t, StateOpen, cb.State())
}
