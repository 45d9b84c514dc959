package factory

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"storefront/internal/audit"
	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/service"
	"storefront/pkg/cache"
	"storefront/pkg/circuitbreaker"
	"storefront/pkg/clock"
	"storefront/pkg/database"
	"storefront/pkg/logger"
	"storefront/pkg/redis"
)

type Factory interface {
	GetLogger() logger.Logger
	GetConfig() *config.Config
	GetDB() *gorm.DB
	GetConnectionManager() *database.ConnectionManager
	GetRecorder() *audit.Recorder
	GetCache() cache.Cache

	GetOutletService() domain.OutletService
	GetCategoryService() domain.CategoryService
	GetProductService() domain.ProductService
	GetSubscriptionService() domain.SubscriptionService
	GetCrashLogService() domain.CrashLogService

	Close() error
}

type AppFactory struct {
	config            *config.Config
	logger            logger.Logger
	clock             clock.Clock
	connectionManager *database.ConnectionManager
	recorder          *audit.Recorder
	redisClient       *goredis.Client
	cache             cache.Cache

	outletService       domain.OutletService
	categoryService     domain.CategoryService
	productService      domain.ProductService
	subscriptionService domain.SubscriptionService
	crashLogService     domain.CrashLogService
}

func NewFactory() (Factory, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	return NewFactoryWithConfig(cfg, logger.New(logger.LogLevel(cfg.LogLevel), nil))
}

func NewFactoryWithConfig(cfg *config.Config, log logger.Logger) (Factory, error) {
	strategy, err := audit.ParseKeyStrategy(cfg.Audit.KeyStrategy)
	if err != nil {
		return nil, err
	}

	cm, err := database.NewConnectionManager(cfg.Database, log)
	if err != nil {
		return nil, fmt.Errorf("could not connect to the database: %w", err)
	}

	clk := clock.NewRealClock()
	factory := &AppFactory{
		config:            cfg,
		logger:            log,
		clock:             clk,
		connectionManager: cm,
		recorder: audit.NewRecorder(audit.Policy{
			KeyStrategy:    strategy,
			AuditUnwrapped: cfg.Audit.UnwrappedFailures,
		}, clk, log),
	}

	if err := factory.initRedis(); err != nil {
		cm.Close()
		return nil, err
	}

	factory.initServices()

	return factory, nil
}

// initRedis connects to Redis when the cache or the key lock needs it and
// picks the read cache backend.
func (f *AppFactory) initRedis() error {
	if f.config.NeedsRedis() {
		client, err := redis.NewClient(context.Background(), f.config.Redis)
		if err != nil {
			return err
		}
		f.redisClient = client
		f.logger.Info("Redis connection established", map[string]interface{}{"address": f.config.Redis.Address})
	}

	if f.config.Audit.KeyLock {
		f.recorder.WithKeyLocker(redis.NewKeyLocker(f.redisClient, 0, f.logger))
	}

	switch f.config.Cache.Driver {
	case config.CacheMemory:
		f.cache = cache.NewMemoryCache(f.clock)
	case config.CacheRedis:
		breaker := circuitbreaker.New(circuitbreaker.Settings{
			Name:      "redis-cache",
			IsFailure: cache.IsBackendFailure,
			OnStateChange: func(name string, from, to circuitbreaker.State) {
				f.logger.Warn("Cache circuit changed state", map[string]interface{}{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				})
			},
		})
		f.cache = cache.NewGuarded(cache.NewRedisCache(f.redisClient, f.logger, "storefront"), breaker, f.logger)
	default:
		f.cache = cache.Nop()
	}
	return nil
}

func (f *AppFactory) initServices() {
	db := f.connectionManager.DB()
	rc := service.ReadCache{Cache: f.cache, TTL: f.config.Cache.TTL}

	f.outletService = service.NewOutletService(db, f.recorder, f.logger)
	f.categoryService = service.NewCategoryService(db, f.recorder, rc, f.logger)
	f.productService = service.NewProductService(db, f.recorder, f.clock, rc, f.logger)
	f.subscriptionService = service.NewSubscriptionService(db, f.recorder, f.clock, f.config.PageSize, f.logger)
	f.crashLogService = service.NewCrashLogService(db, f.logger)
}

func (f *AppFactory) GetLogger() logger.Logger {
	return f.logger
}

func (f *AppFactory) GetConfig() *config.Config {
	return f.config
}

func (f *AppFactory) GetDB() *gorm.DB {
	return f.connectionManager.DB()
}

func (f *AppFactory) GetConnectionManager() *database.ConnectionManager {
	return f.connectionManager
}

func (f *AppFactory) GetRecorder() *audit.Recorder {
	return f.recorder
}

func (f *AppFactory) GetCache() cache.Cache {
	return f.cache
}

func (f *AppFactory) GetOutletService() domain.OutletService {
	return f.outletService
}

func (f *AppFactory) GetCategoryService() domain.CategoryService {
	return f.categoryService
}

func (f *AppFactory) GetProductService() domain.ProductService {
	return f.productService
}

func (f *AppFactory) GetSubscriptionService() domain.SubscriptionService {
	return f.subscriptionService
}

func (f *AppFactory) GetCrashLogService() domain.CrashLogService {
	return f.crashLogService
}

func (f *AppFactory) Close() error {
	var errs []error
	if f.redisClient != nil {
		errs = append(errs, f.redisClient.Close())
	}
	errs = append(errs, f.connectionManager.Close())
	return errors.Join(errs...)
}
