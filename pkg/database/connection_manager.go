package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"storefront/internal/config"
	"storefront/pkg/logger"
)

const memoryPath = ":memory:"

// ConnectionManager owns the process-wide gorm handle. Sessions are opened on
// top of it per service call.
type ConnectionManager struct {
	db     *gorm.DB
	sqlDB  *sql.DB
	driver string
	logger logger.Logger
}

func NewConnectionManager(cfg config.DatabaseConfig, log logger.Logger) (*ConnectionManager, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.NewGormLogger(log, cfg.TraceSQL),
	})
	if err != nil {
		return nil, fmt.Errorf("could not open %s database: %w", cfg.Driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("could not get sql handle: %w", err)
	}

	if cfg.Driver == config.DriverSQLite && cfg.Path == memoryPath {
		sqlDB.SetMaxOpenConns(1)
	} else {
		if cfg.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns >= 0 {
			sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		}
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("could not reach %s database: %w", cfg.Driver, err)
	}

	if err := db.Use(otelgorm.NewPlugin()); err != nil {
		log.Warn("Could not install otelgorm plugin", map[string]interface{}{"error": err.Error()})
	}

	log.InfoContext(context.Background(), "Database connection established", map[string]interface{}{
		"driver": cfg.Driver,
		"host":   cfg.Host,
		"name":   cfg.Name,
		"path":   cfg.Path,
	})

	return &ConnectionManager{
		db:     db,
		sqlDB:  sqlDB,
		driver: cfg.Driver,
		logger: log,
	}, nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		path := cfg.Path
		if path == memoryPath {
			path = "file::memory:?cache=shared"
		}
		return sqlite.Open(path), nil

	case config.DriverMySQL:
		mc := mysqldriver.NewConfig()
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, portOr(cfg.Port, "3306"))
		mc.DBName = cfg.Name
		mc.ParseTime = true
		mc.Loc = time.UTC
		// Updates that rewrite identical values must still count as matched rows.
		mc.ClientFoundRows = true
		mc.Params = map[string]string{"charset": "utf8mb4"}
		return mysql.Open(mc.FormatDSN()), nil

	case config.DriverPostgres:
		dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host, portOr(cfg.Port, "5432"), cfg.User, cfg.Password, cfg.Name, cfg.SSLMode)
		sqlDB, err := sql.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("could not open postgres connection: %w", err)
		}
		return postgres.New(postgres.Config{Conn: sqlDB}), nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func portOr(port, fallback string) string {
	if port == "" {
		return fallback
	}
	return port
}

func (cm *ConnectionManager) DB() *gorm.DB {
	return cm.db
}

func (cm *ConnectionManager) Driver() string {
	return cm.driver
}

func (cm *ConnectionManager) Ping(ctx context.Context) error {
	return cm.sqlDB.PingContext(ctx)
}

func (cm *ConnectionManager) GetStats() map[string]interface{} {
	stats := cm.sqlDB.Stats()
	return map[string]interface{}{
		"driver":           cm.driver,
		"open_connections": stats.OpenConnections,
		"in_use":           stats.InUse,
		"idle":             stats.Idle,
		"wait_count":       stats.WaitCount,
		"wait_duration":    stats.WaitDuration.String(),
	}
}

func (cm *ConnectionManager) Close() error {
	if err := cm.sqlDB.Close(); err != nil {
		cm.logger.Error("Could not close database", map[string]interface{}{"error": err.Error()})
		return err
	}
	return nil
}
