package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/liveparams"
	"github.com/aretw0/liveparams/internal/config"
	"github.com/aretw0/liveparams/pkg/adapters/file"
	redisAdapter "github.com/aretw0/liveparams/pkg/adapters/redis"
	"github.com/aretw0/liveparams/pkg/domain"
	"github.com/aretw0/liveparams/pkg/observability"
	"github.com/aretw0/liveparams/pkg/ports"
	"github.com/aretw0/liveparams/pkg/session"
	goredis "github.com/redis/go-redis/v9"
)

// app holds everything a command needs to drive one panel.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	host    *file.Host
	redis   goredis.UniversalClient
	metrics *observability.Metrics
	panel   *liveparams.Panel
}

// newApp opens the document, connects to Redis when configured and builds a
// panel sending to palettes plus the Redis channel. The panel is not opened.
func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger, palettes ...ports.Palette) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	host, err := file.OpenHost(ctx, file.New(cfg.Document, file.WithLogger(logger)))
	if err != nil {
		return nil, fmt.Errorf("failed to open document: %w", err)
	}
	a.host = host

	hooks := observability.LoggingHooks(logger)
	if cfg.Metrics {
		a.metrics = observability.NewMetrics()
		hooks = observability.Combine(a.metrics.Hooks(), hooks)
	}

	opts := []liveparams.Option{
		liveparams.WithLogger(logger),
		liveparams.WithLifecycleHooks(hooks),
		liveparams.WithSentinels(cfg.Sentinels),
		liveparams.WithMaxInputSize(cfg.MaxInputSize),
	}

	if cfg.Redis.Addr != "" {
		client := goredis.NewUniversalClient(&goredis.UniversalOptions{Addrs: []string{cfg.Redis.Addr}})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		a.redis = client
		palettes = append(palettes, redisAdapter.NewPalette(client,
			redisAdapter.WithChannel(cfg.Redis.Channel),
			redisAdapter.WithLogger(logger),
		))
		// One lock per document file: replicas editing the same file take turns.
		opts = append(opts, liveparams.WithDistributedLock(
			redisAdapter.NewLocker(client, "liveparams:"),
			cfg.Document,
			cfg.Redis.LockTTL,
		))
		logger.Info("Redis enabled", "addr", cfg.Redis.Addr, "channel", cfg.Redis.Channel)
	}

	a.panel = liveparams.New(host, session.Fanout(palettes), opts...)
	return a, nil
}

// Close closes the panel and the Redis connection.
func (a *app) Close() {
	a.panel.Close()
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// handle opens the panel if needed and delivers one JSON action.
func (a *app) handle(ctx context.Context, data []byte) ([]domain.Message, error) {
	a.panel.Open(ctx)
	return a.panel.HandleJSON(ctx, data)
}
