package components

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"safeher/internal/api"
	"safeher/internal/config"
	"safeher/internal/metrics"
	"safeher/internal/notify"
	"safeher/internal/redis"
	"safeher/internal/service"
	"safeher/internal/storage/postgres"
	"safeher/internal/workers"
	"safeher/pkg/logger"
)

// Worker runs until ctx is cancelled and returns once in-flight dispatches
// are finished.
type Worker interface {
	Run(ctx context.Context)
}

type Components struct {
	logger     *slog.Logger
	HttpServer *api.Server
	Postgres   *postgres.Postgres
	Redis      *redis.Redis
	Worker     Worker
}

func InitComponents(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	logger.Info("Initializing Postgres")

	storage, err := postgres.NewPostgres(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to init postgres",
			slog.Any("error", err),
		)
		return nil, fmt.Errorf("failed to init postgres: %w", err)
	}

	dispatcher := notify.NewDispatcher(notifyConfig(cfg), logger)

	comps := &Components{
		logger:   logger,
		Postgres: storage,
	}

	var scheduler service.Scheduler
	switch cfg.Notify.Queue {
	case config.QueueRedis:
		logger.Info("Initializing Redis")
		redisClient, err := redis.NewRedis(ctx, cfg, logger)
		if err != nil {
			storage.Close()
			return nil, fmt.Errorf("failed to init redis: %w", err)
		}
		queue := redis.NewNotificationQueue(redisClient.Client, cfg.Notify.QueueKey)
		metrics.QueueDepth(config.QueueRedis, func() float64 {
			lctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			n, err := queue.Len(lctx)
			if err != nil {
				return 0
			}
			return float64(n)
		})

		comps.Redis = redisClient
		comps.Worker = workers.NewQueueConsumer(queue, dispatcher, cfg.Notify.Workers, cfg.Notify.SendTimeout, logger)
		scheduler = queue
	default:
		pool := workers.NewDispatchPool(dispatcher, cfg.Notify.Workers, cfg.Notify.QueueSize, cfg.Notify.SendTimeout, logger)
		comps.Worker = pool
		scheduler = pool
	}

	alertSvc := service.NewAlertService(storage.AlertStore(), scheduler, logger,
		service.WithStrictTransitions(cfg.Alerts.StrictTransitions))
	statsSvc := service.NewStatsService(storage.AlertStore(), nil)

	srv := service.NewService(alertSvc, statsSvc)

	comps.HttpServer = api.NewServer(cfg, logger, srv, storage)
	logger.Info("Initialized server", slog.String("notify_queue", cfg.Notify.Queue))

	return comps, nil
}

func notifyConfig(cfg *config.Config) notify.Config {
	return notify.Config{
		Recipients: cfg.Notify.Recipients,
		SMS: notify.TwilioChannelConfig{
			AccountSID: cfg.Twilio.AccountSID,
			AuthToken:  cfg.Twilio.AuthToken,
			From:       cfg.Twilio.From,
			APIURL:     cfg.Twilio.APIURL,
		},
		WhatsApp: notify.TwilioChannelConfig{
			AccountSID: cfg.Twilio.AccountSID,
			AuthToken:  cfg.Twilio.AuthToken,
			From:       cfg.Twilio.WhatsAppFrom,
			APIURL:     cfg.Twilio.APIURL,
		},
	}
}

func SetupLogger(env string) *slog.Logger {
	switch env {
	case "local":
		return logger.SetupPrettySlog()
	case "dev":
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			}),
		)
	default:
		return slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
				Level: slog.LevelInfo,
			}),
		)
	}
}

// ShutdownAll closes the stores. Call it after the HTTP server and the
// worker have returned so queued dispatches can still be drained.
func (c *Components) ShutdownAll() {
	start := time.Now()
	c.logger.Info("Component shutdown started")

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.logger.Error("Redis close failed", slog.String("err", err.Error()))
		}
	}
	c.Postgres.Close()

	c.logger.Info("All components stopped",
		slog.Duration("latency", time.Since(start)))
}
