package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	AppEnv   string `mapstructure:"APP_ENV"`
	Server   ServerConfig
	Database DatabaseConfig
	Audit    AuditConfig
	Cache    CacheConfig
	Redis    RedisConfig
	LogLevel string `mapstructure:"LOG_LEVEL"`
	PageSize int    `mapstructure:"SUBSCRIPTION_PAGE_SIZE"`
}

type ServerConfig struct {
	Port    string        `mapstructure:"SERVER_PORT"`
	Timeout time.Duration `mapstructure:"SERVER_TIMEOUT"`
}

type DatabaseConfig struct {
	Driver          string        `mapstructure:"DB_DRIVER"`
	Host            string        `mapstructure:"DB_HOST"`
	Port            string        `mapstructure:"DB_PORT"`
	User            string        `mapstructure:"DB_USER"`
	Password        string        `mapstructure:"DB_PASSWORD"`
	Name            string        `mapstructure:"DB_NAME"`
	SSLMode         string        `mapstructure:"DB_SSL_MODE"`
	Path            string        `mapstructure:"DB_PATH"`
	MaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`
	TraceSQL        bool          `mapstructure:"DB_SQL_TRACE"`
}

type AuditConfig struct {
	KeyStrategy       string `mapstructure:"AUDIT_KEY_STRATEGY"`
	UnwrappedFailures bool   `mapstructure:"AUDIT_UNWRAPPED_FAILURES"`
	// KeyLock serializes max_plus_one key allocation through a Redis lock.
	KeyLock bool `mapstructure:"AUDIT_KEY_LOCK"`
}

type CacheConfig struct {
	Driver string        `mapstructure:"CACHE_DRIVER"`
	TTL    time.Duration `mapstructure:"CACHE_TTL"`
}

type RedisConfig struct {
	Address  string `mapstructure:"REDIS_ADDRESS"`
	Password string `mapstructure:"REDIS_PASSWORD"`
	DB       int    `mapstructure:"REDIS_DB"`
}

const (
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"

	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_TIMEOUT", 30*time.Second)
	v.SetDefault("DB_DRIVER", DriverSQLite)
	v.SetDefault("DB_PATH", "storefront.db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	v.SetDefault("DB_SQL_TRACE", false)
	v.SetDefault("AUDIT_KEY_STRATEGY", "store_generated")
	v.SetDefault("AUDIT_UNWRAPPED_FAILURES", false)
	v.SetDefault("AUDIT_KEY_LOCK", false)
	v.SetDefault("CACHE_DRIVER", CacheNone)
	v.SetDefault("CACHE_TTL", 5*time.Minute)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("SUBSCRIPTION_PAGE_SIZE", 10)
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("could not load .env file: %w", err)
	}
	return FromViper(viper.New())
}

func FromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	var cfg Config

	cfg.AppEnv = v.GetString("APP_ENV")
	cfg.LogLevel = v.GetString("LOG_LEVEL")
	cfg.PageSize = v.GetInt("SUBSCRIPTION_PAGE_SIZE")

	cfg.Server.Port = v.GetString("SERVER_PORT")
	cfg.Server.Timeout = v.GetDuration("SERVER_TIMEOUT")

	cfg.Database.Driver = strings.ToLower(v.GetString("DB_DRIVER"))
	cfg.Database.Host = v.GetString("DB_HOST")
	cfg.Database.Port = v.GetString("DB_PORT")
	cfg.Database.User = v.GetString("DB_USER")
	cfg.Database.Password = v.GetString("DB_PASSWORD")
	cfg.Database.Name = v.GetString("DB_NAME")
	cfg.Database.SSLMode = v.GetString("DB_SSL_MODE")
	cfg.Database.Path = v.GetString("DB_PATH")
	cfg.Database.MaxOpenConns = v.GetInt("DB_MAX_OPEN_CONNS")
	cfg.Database.MaxIdleConns = v.GetInt("DB_MAX_IDLE_CONNS")
	cfg.Database.ConnMaxLifetime = v.GetDuration("DB_CONN_MAX_LIFETIME")
	cfg.Database.TraceSQL = v.GetBool("DB_SQL_TRACE")

	cfg.Audit.KeyStrategy = strings.ToLower(v.GetString("AUDIT_KEY_STRATEGY"))
	cfg.Audit.UnwrappedFailures = v.GetBool("AUDIT_UNWRAPPED_FAILURES")
	cfg.Audit.KeyLock = v.GetBool("AUDIT_KEY_LOCK")

	cfg.Cache.Driver = strings.ToLower(v.GetString("CACHE_DRIVER"))
	cfg.Cache.TTL = v.GetDuration("CACHE_TTL")

	cfg.Redis.Address = v.GetString("REDIS_ADDRESS")
	cfg.Redis.Password = v.GetString("REDIS_PASSWORD")
	cfg.Redis.DB = v.GetInt("REDIS_DB")

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("DB_PATH is required for the %s driver", DriverSQLite)
		}
	case DriverMySQL, DriverPostgres:
		if c.Database.Host == "" || c.Database.Name == "" {
			return fmt.Errorf("DB_HOST and DB_NAME are required for the %s driver", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}

	switch c.Audit.KeyStrategy {
	case "store_generated", "max_plus_one":
	default:
		return fmt.Errorf("unsupported AUDIT_KEY_STRATEGY %q", c.Audit.KeyStrategy)
	}

	switch c.Cache.Driver {
	case CacheNone, CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("unsupported CACHE_DRIVER %q", c.Cache.Driver)
	}

	if c.NeedsRedis() && c.Redis.Address == "" {
		return fmt.Errorf("REDIS_ADDRESS is required when CACHE_DRIVER=redis or AUDIT_KEY_LOCK is set")
	}

	if c.PageSize <= 0 {
		return fmt.Errorf("SUBSCRIPTION_PAGE_SIZE must be positive")
	}

	return nil
}

func (c *Config) NeedsRedis() bool {
	return c.Cache.Driver == CacheRedis || c.Audit.KeyLock
}
