package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/barlens/barlens/internal/app"
	"github.com/barlens/barlens/internal/artists"
	"github.com/barlens/barlens/internal/crm"
	"github.com/barlens/barlens/internal/getin"
	"github.com/barlens/barlens/internal/observability"
	"github.com/barlens/barlens/internal/platform/cache"
	"github.com/barlens/barlens/internal/reconcile"
	reconcilehttp "github.com/barlens/barlens/internal/reconcile/http"
	"github.com/barlens/barlens/internal/store"
	"github.com/barlens/barlens/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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
	go func() {
		if err := metricsCache.ListenForInvalidation(ctx, reconcile.BumpChannel); err != nil && ctx.Err() == nil {
			logger.Warn("cache invalidation listener", slog.Any("error", err))
		}
	}()

	service := reconcile.NewService(storeClient, logger,
		reconcile.WithCache(metricsCache),
		reconcile.WithReservations(getin.NewClient(cfg.GetinBaseURL)),
		reconcile.WithCRM(crm.NewClient(cfg.CRMBaseURL)),
		reconcile.WithResolveTimeout(cfg.FetchTimeout),
	)

	catalog := artists.NewCatalog(storeClient)
	metrics := observability.NewMetrics()
	reconcileHandler := reconcilehttp.NewHandler(logger, service, catalog, metrics)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, jobClient, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:           logger,
		Config:           cfg,
		ReconcileHandler: reconcileHandler,
		JobHandler:       jobHandler,
		Metrics:          metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
