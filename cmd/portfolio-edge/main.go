package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/Sternrassler/portfolio-edge/pkg/cache"
	"github.com/Sternrassler/portfolio-edge/pkg/client"
	"github.com/Sternrassler/portfolio-edge/pkg/logging"
	"github.com/Sternrassler/portfolio-edge/pkg/worker"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}
	logging.Setup(cfg.loggingConfig())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("Edge stopped")
	}
}

func run(ctx context.Context, cfg Config) error {
	logger := logging.NewLogger("main")

	// Setup storage
	storage, closeStorage, err := newStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStorage()

	// Create origin client
	origin, err := client.New(cfg.clientConfig())
	if err != nil {
		return fmt.Errorf("create origin client: %w", err)
	}
	defer origin.Close()

	// Install and activate the worker version
	w, err := worker.New(cfg.workerConfig(), storage, origin)
	if err != nil {
		return fmt.Errorf("create worker: %w", err)
	}
	reg := worker.NewRegistration(origin)
	report, err := reg.Register(ctx, w)
	if err != nil {
		return fmt.Errorf("register worker %s: %w", cfg.CacheVersion, err)
	}
	for _, failure := range report.Failed {
		logger.Warn().Err(failure.Err).Str("path", failure.Path).Msg("Asset not precached")
	}

	// HTTP Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           logging.Middleware(newMux(reg, storage)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("origin", cfg.OriginURL).
			Str("version", cfg.CacheVersion).
			Str("user_agent", cfg.UserAgent).
			Msg("Starting portfolio edge")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("Graceful shutdown incomplete")
	}
	reg.Wait()
	return nil
}

// newStorage connects to Redis when REDIS_ADDR is set and falls back to
// process memory otherwise.
func newStorage(ctx context.Context, cfg Config) (cache.Storage, func(), error) {
	if cfg.RedisAddr == "" {
		log.Info().Msg("Using in-memory cache storage")
		return cache.NewMemoryStorage(), func() {}, nil
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})

	// Ping Redis
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
	}
	log.Info().Str("addr", cfg.RedisAddr).Int("db", cfg.RedisDB).Msg("Connected to Redis")

	return cache.NewRedisStorage(redisClient, cfg.CachePrefix), func() { redisClient.Close() }, nil
}
