package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/soaringjerry/surveyd/internal/api"
	"github.com/soaringjerry/surveyd/internal/config"
	"github.com/soaringjerry/surveyd/internal/logging"
	"github.com/soaringjerry/surveyd/internal/metrics"
	"github.com/soaringjerry/surveyd/internal/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("info", "json", os.Stderr)
		boot.Fatal().Err(err).Msg("load config")
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("server error")
	}
}

func run(cfg config.Config, logger zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.JWTSecret == config.DevJWTSecret {
		logger.Warn().Msg("using the development JWT secret; set SURVEY_JWT_SECRET in production")
	}

	store, err := openStore(ctx, cfg, logging.Component(logger, "store"))
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error().Err(err).Msg("close store")
		}
	}()

	resultCache, err := openCache(ctx, cfg, logging.Component(logger, "cache"))
	if err != nil {
		return err
	}
	defer func() {
		if err := resultCache.Close(); err != nil {
			logger.Error().Err(err).Msg("close cache")
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	router := api.NewRouter(api.Config{
		Store:             store,
		Cache:             resultCache,
		CachePrefix:       cfg.Cache.Prefix,
		CacheTTL:          cfg.Cache.TTL,
		InvalidateOnWrite: cfg.Cache.InvalidateOnWrite,
		Auth:              middleware.NewAuthenticator(cfg.JWTSecret),
		Logger:            logger,
		Metrics:           metrics.New(reg),
		Gatherer:          reg,
		AllowedOrigins:    cfg.AllowedOrigins,
		Build: api.BuildInfo{
			Commit:    os.Getenv("SURVEY_COMMIT"),
			BuildTime: os.Getenv("SURVEY_BUILD_TIME"),
		},
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.Addr).
			Str("store", cfg.Store).
			Str("cache", cfg.Cache.Backend).
			Msg("surveyd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
