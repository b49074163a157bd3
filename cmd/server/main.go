package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anoa.com/storefront/internal/bootstrap"
	"anoa.com/storefront/internal/config"
	"anoa.com/storefront/internal/server"
	"anoa.com/storefront/pkg/database"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	setupLogger(cfg)

	db, err := database.Connect()
	if err != nil {
		slog.Error("connect database", "error", err)
		os.Exit(1)
	}
	if err := bootstrap.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
	if err := bootstrap.SeedRoles(db); err != nil {
		slog.Error("seed roles", "error", err)
		os.Exit(1)
	}
	if !cfg.IsProduction() {
		if err := bootstrap.SeedUsers(db); err != nil {
			slog.Error("seed users", "error", err)
			os.Exit(1)
		}
		if err := bootstrap.SeedCatalog(db); err != nil {
			slog.Error("seed catalog", "error", err)
			os.Exit(1)
		}
	}

	redisClient := connectRedis(cfg.RedisURL)
	if redisClient != nil {
		defer redisClient.Close()
	}

	srv, err := server.NewServer(cfg, db, redisClient)
	if err != nil {
		slog.Error("build server", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run() }()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("server exited with error", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown", "error", err)
		}
	}
}

func setupLogger(cfg *config.Config) {
	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(handler))
}

// connectRedis returns nil when redis is not configured or unreachable.
func connectRedis(url string) *redis.Client {
	if url == "" {
		slog.Warn("REDIS_URL not set; redemption lock and live notifications disabled")
		return nil
	}

	opts, err := redis.ParseURL(url)
	if err != nil {
		slog.Warn("invalid REDIS_URL; redis disabled", "error", err)
		return nil
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("redis unreachable; redis disabled", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}
