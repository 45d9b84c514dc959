package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/audit"
	"storefront/internal/repository"
	"storefront/internal/store"
	"storefront/pkg/logger"
)

func TestCrashLogService_PagesNewestFirst(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 3; i++ {
		sink := repository.NewCrashLogRepository(store.Open(ctx, f.db, nil))
		_, err := f.recorder.Capture(sink, audit.Failure{
			ClassName:  "ProductService",
			MethodName: fmt.Sprintf("Op%d", i),
			Err:        fmt.Errorf("op %d: %w", i, errors.New("boom")),
		})
		require.NoError(t, err)
		f.clock.Advance(time.Minute)
	}

	svc := NewCrashLogService(f.db, logger.Nop())

	first, err := svc.GetCrashLogs(ctx, 1, 2)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "Op2", first[0].MethodName)
	assert.Equal(t, "Op1", first[1].MethodName)

	rest, err := svc.GetCrashLogs(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "Op0", rest[0].MethodName)

	defaults, err := svc.GetCrashLogs(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, defaults, 3)
}
