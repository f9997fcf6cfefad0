package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/soaringjerry/surveyd/internal/api"
	"github.com/soaringjerry/surveyd/internal/cache"
	"github.com/soaringjerry/surveyd/internal/config"
	dbstore "github.com/soaringjerry/surveyd/internal/db"
	"github.com/soaringjerry/surveyd/internal/db/mongostore"
)

// openStore builds the persistence backend named by cfg.Store. SQLite
// databases are migrated before use.
func openStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (api.Store, error) {
	switch cfg.Store {
	case config.StoreSQLite:
		conn, err := dbstore.Open(cfg.SQLite.Driver, cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		applied, err := dbstore.RunMigrations(ctx, conn, cfg.SQLite.MigrationsDir)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		if len(applied) > 0 {
			logger.Info().Strs("migrations", applied).Str("path", cfg.SQLite.Path).Msg("applied migrations")
		}
		st, err := dbstore.NewSQLiteStore(conn, logger)
		if err != nil {
			_ = conn.Close()
			return nil, err
		}
		return st, nil
	case config.StoreMongo:
		return mongostore.Connect(ctx, mongostore.Options{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			Timeout:  cfg.Mongo.Timeout,
		}, logger)
	default:
		return api.NewMemoryStore(), nil
	}
}

// openCache builds the result cache named by cfg.Cache.Backend. An
// unreachable Redis is reported but does not stop the server.
func openCache(ctx context.Context, cfg config.Config, logger zerolog.Logger) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(cfg.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
		pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := rc.Ping(pctx); err != nil {
			logger.Warn().Err(err).Msg("redis unreachable, cache lookups will fail open")
		}
		return rc, nil
	case config.CacheNone:
		return cache.Noop{}, nil
	default:
		return cache.NewMemoryCache(time.Minute), nil
	}
}
