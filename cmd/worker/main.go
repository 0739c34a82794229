package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/barlens/barlens/internal/app"
	"github.com/barlens/barlens/internal/crm"
	"github.com/barlens/barlens/internal/getin"
	jobmetrics "github.com/barlens/barlens/internal/jobs"
	"github.com/barlens/barlens/internal/platform/cache"
	"github.com/barlens/barlens/internal/reconcile"
	"github.com/barlens/barlens/internal/store"
	"github.com/barlens/barlens/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	storeClient, err := store.NewClient(cfg.SupabaseURL, cfg.SupabaseKey, cfg.FetchPageSize)
	if err != nil {
		logger.Error("connect supabase", slog.Any("error", err))
		os.Exit(1)
	}

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metricsCache := reconcile.NewCache(redisClient, cfg.CacheTTL)

	service := reconcile.NewService(storeClient, logger,
		reconcile.WithCache(metricsCache),
		reconcile.WithReservations(getin.NewClient(cfg.GetinBaseURL)),
		reconcile.WithCRM(crm.NewClient(cfg.CRMBaseURL)),
		reconcile.WithResolveTimeout(cfg.FetchTimeout),
	)

	metrics := jobmetrics.NewMetrics(nil)
	warmupJob := jobs.NewMetricsWarmupJob(service, storeClient, logger, metrics)

	warmupTask, err := jobs.NewMetricsWarmupTask(jobs.MetricsWarmupPayload{
		BarID:        cfg.WarmupBarID,
		LookbackDays: cfg.WarmupLookbackDays,
	})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskMetricsWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "15 4 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
