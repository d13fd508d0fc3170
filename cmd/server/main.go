package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/mmynk/splitledger/internal/auth"
	"github.com/mmynk/splitledger/internal/cache"
	"github.com/mmynk/splitledger/internal/config"
	"github.com/mmynk/splitledger/internal/lock"
	"github.com/mmynk/splitledger/internal/metrics"
	"github.com/mmynk/splitledger/internal/server"
	"github.com/mmynk/splitledger/internal/service"
	"github.com/mmynk/splitledger/internal/storage/sqlstore"
	"github.com/mmynk/splitledger/pkg/logging"
)

func main() {
	loadLocalEnv()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	ctx := context.Background()

	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	deps := service.Deps{
		Store:           store,
		Metrics:         metrics.New(),
		DefaultCurrency: cfg.DefaultCurrency,
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			return err
		}

		lockOpts := lock.DefaultOptions()
		lockOpts.Expiry = cfg.LockTTL
		deps.Cache = cache.NewRedisCache(client, cfg.CacheTTL)
		deps.Locker = lock.NewRedisLocker(client, lockOpts)
		slog.Info("Redis cache and group lock enabled", "addr", cfg.RedisAddr)
	} else {
		deps.Cache = cache.NewMemoryCache(cfg.CacheTTL)
		deps.Locker = lock.NewLocalLocker()
		slog.Info("Using in-process cache and group lock")
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	srv := server.New(cfg, deps, jwtManager)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", srv.Addr())
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		slog.Info("Shutting down", "signal", sig.String())
	case err := <-errCh:
		return err
	}

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		slog.Warn("Graceful shutdown failed", "error", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg config.Config) (*sqlstore.Store, error) {
	if cfg.DBDriver == "postgres" {
		store, err := sqlstore.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		slog.Info("Storage initialized", "driver", "postgres")
		return store, nil
	}

	store, err := sqlstore.NewSQLite(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	slog.Info("Storage initialized", "driver", "sqlite", "database", cfg.DBPath)
	return store, nil
}

func loadLocalEnv() {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found; relying on existing environment")
	}
}
