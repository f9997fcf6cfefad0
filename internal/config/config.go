package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/soaringjerry/surveyd/internal/utils"
)

// Store backends.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreMongo  = "mongo"
)

// Cache backends.
const (
	CacheMemory = "memory"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

const DevJWTSecret = "dev-secret-change-me"

type SQLiteConfig struct {
	Path          string `yaml:"path"`
	Driver        string `yaml:"driver"`
	MigrationsDir string `yaml:"migrations_dir"`
}

type MongoConfig struct {
	URI      string        `yaml:"uri"`
	Database string        `yaml:"database"`
	Timeout  time.Duration `yaml:"timeout"`
}

type CacheConfig struct {
	Backend           string        `yaml:"backend"`
	RedisURL          string        `yaml:"redis_url"`
	TTL               time.Duration `yaml:"ttl"`
	Prefix            string        `yaml:"prefix"`
	InvalidateOnWrite bool          `yaml:"invalidate_on_write"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config holds runtime configuration shared across the application.
type Config struct {
	Addr           string       `yaml:"addr"`
	Store          string       `yaml:"store"`
	SQLite         SQLiteConfig `yaml:"sqlite"`
	Mongo          MongoConfig  `yaml:"mongo"`
	Cache          CacheConfig  `yaml:"cache"`
	JWTSecret      string       `yaml:"jwt_secret"`
	Log            LogConfig    `yaml:"log"`
	AllowedOrigins []string     `yaml:"allowed_origins"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Addr:  ":8080",
		Store: StoreMemory,
		SQLite: SQLiteConfig{
			Path:   "surveyd.db",
			Driver: "sqlite3",
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "survey_db",
			Timeout:  10 * time.Second,
		},
		Cache: CacheConfig{
			Backend:           CacheMemory,
			RedisURL:          "redis://localhost:6379/0",
			TTL:               300 * time.Second,
			Prefix:            "survey_api:",
			InvalidateOnWrite: true,
		},
		JWTSecret:      DevJWTSecret,
		Log:            LogConfig{Level: "info", Format: "json"},
		AllowedOrigins: []string{"*"},
	}
}

// Load applies defaults, then the YAML file named by SURVEY_CONFIG_FILE (if
// any), then environment variables.
func Load() (Config, error) {
	cfg := Default()
	if path := utils.SafeEnv("SURVEY_CONFIG_FILE", ""); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Addr = utils.SafeEnv("SURVEY_ADDR", c.Addr)
	c.Store = strings.ToLower(utils.SafeEnv("SURVEY_STORE", c.Store))
	c.SQLite.Path = utils.SafeEnv("SURVEY_SQLITE_PATH", c.SQLite.Path)
	c.SQLite.Driver = utils.SafeEnv("SURVEY_SQLITE_DRIVER", c.SQLite.Driver)
	c.SQLite.MigrationsDir = utils.SafeEnv("SURVEY_MIGRATIONS_DIR", c.SQLite.MigrationsDir)
	c.Mongo.URI = utils.SafeEnv("SURVEY_MONGO_URI", c.Mongo.URI)
	c.Mongo.Database = utils.SafeEnv("SURVEY_MONGO_DB", c.Mongo.Database)
	c.Mongo.Timeout = utils.EnvDuration("SURVEY_MONGO_TIMEOUT", c.Mongo.Timeout)
	c.Cache.Backend = strings.ToLower(utils.SafeEnv("SURVEY_CACHE", c.Cache.Backend))
	c.Cache.RedisURL = utils.SafeEnv("SURVEY_REDIS_URL", c.Cache.RedisURL)
	c.Cache.TTL = utils.EnvDuration("SURVEY_CACHE_TTL", c.Cache.TTL)
	c.Cache.Prefix = utils.SafeEnv("SURVEY_CACHE_PREFIX", c.Cache.Prefix)
	c.Cache.InvalidateOnWrite = utils.EnvBool("SURVEY_CACHE_INVALIDATE_ON_WRITE", c.Cache.InvalidateOnWrite)
	c.JWTSecret = utils.SafeEnv("SURVEY_JWT_SECRET", c.JWTSecret)
	c.Log.Level = utils.SafeEnv("SURVEY_LOG_LEVEL", c.Log.Level)
	c.Log.Format = utils.SafeEnv("SURVEY_LOG_FORMAT", c.Log.Format)
	c.AllowedOrigins = utils.EnvList("SURVEY_ALLOWED_ORIGINS", c.AllowedOrigins)
}

// Validate rejects unknown backends and unusable values.
func (c Config) Validate() error {
	var errs []error
	switch c.Store {
	case StoreMemory, StoreSQLite, StoreMongo:
	default:
		errs = append(errs, fmt.Errorf("unknown store %q", c.Store))
	}
	switch c.Cache.Backend {
	case CacheMemory, CacheRedis, CacheNone:
	default:
		errs = append(errs, fmt.Errorf("unknown cache backend %q", c.Cache.Backend))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, errors.New("cache ttl must not be negative"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt secret required"))
	}
	return errors.Join(errs...)
}
