package service

import (
	"context"
	"time"

	"gorm.io/gorm"

	"storefront/internal/audit"
	"storefront/internal/repository"
	"storefront/internal/store"
	"storefront/pkg/cache"
	"storefront/pkg/logger"
)

// ReadCache holds reference data that rarely changes. The zero value
// disables caching.
type ReadCache struct {
	Cache cache.Cache
	TTL   time.Duration
}

func (rc ReadCache) withDefaults() ReadCache {
	if rc.Cache == nil {
		rc.Cache = cache.Nop()
	}
	if rc.TTL <= 0 {
		rc.TTL = cache.DefaultTTL
	}
	return rc
}

// base carries what every audited service needs. Each call opens its own
// Session so the repositories of one operation and its crash log share one
// tracker.
type base struct {
	class    string
	db       *gorm.DB
	recorder *audit.Recorder
	logger   logger.Logger
}

func newBase(class string, db *gorm.DB, recorder *audit.Recorder, log logger.Logger) base {
	if log == nil {
		log = logger.Nop()
	}
	return base{
		class:    class,
		db:       db,
		recorder: recorder,
		logger:   log.WithFields(map[string]interface{}{"component": class}),
	}
}

func (b base) open(ctx context.Context) *store.Session {
	return store.Open(ctx, b.db, b.logger)
}

// fail captures err in the crash log of s after clearing the pending tracking
// of repos. Write failures are logged by the recorder and not surfaced.
func (b base) fail(s *store.Session, method string, err error, data interface{}, repos ...audit.Rollbacker) {
	_, _ = b.recorder.Capture(repository.NewCrashLogRepository(s), audit.Failure{
		ClassName:  b.class,
		MethodName: method,
		Err:        err,
		Data:       data,
	}, repos...)
}
