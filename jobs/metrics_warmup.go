package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/barlens/barlens/internal/jobs"
	"github.com/barlens/barlens/internal/reconcile"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// EventSource lists recent event dates worth pre-resolving.
type EventSource interface {
	RecentEventDates(ctx context.Context, barID int64, since string) ([]string, error)
}

// MetricsWarmupJob pre-populates the daily-metrics cache for recent event
// dates, so interactive comparisons hit warm entries.
type MetricsWarmupJob struct {
	Reconcile *reconcile.Service
	Events    EventSource
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewMetricsWarmupJob wires dependencies for the warmup handler.
func NewMetricsWarmupJob(svc *reconcile.Service, events EventSource, logger *slog.Logger, metrics *jobmetrics.Metrics) *MetricsWarmupJob {
	return &MetricsWarmupJob{
		Reconcile: svc,
		Events:    events,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes metrics warmup tasks.
func (j *MetricsWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reconcile == nil || j.Events == nil {
		return errors.New("metrics warmup: handler not configured")
	}
	var payload MetricsWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.BarID <= 0 {
		return asynq.SkipRetry
	}
	if payload.LookbackDays <= 0 {
		payload.LookbackDays = 45
	}

	tracker := j.metrics().Track(TaskMetricsWarmup)
	var resultErr error
	defer func() {
		resultErr = tracker.End(resultErr)
	}()

	logger := j.logger().With(slog.Int64("bar_id", payload.BarID))
	logger.Info("starting metrics warmup", slog.Int("lookback_days", payload.LookbackDays))

	now := j.now()
	since := now.AddDate(0, 0, -payload.LookbackDays).Format("2006-01-02")
	dates, err := j.Events.RecentEventDates(ctx, payload.BarID, since)
	if err != nil {
		resultErr = err
		logger.Error("load warmup dates", slog.Any("error", err))
		return resultErr
	}
	if len(dates) == 0 {
		logger.Info("no event dates discovered for warmup")
		return resultErr
	}

	today := now.Format("2006-01-02")
	warmed, degraded, skipped := 0, 0, 0
	for _, date := range dates {
		// Only settled dates are cacheable; today and future dates still
		// receive rows and would be stale the moment they were stored.
		if date >= today {
			skipped++
			continue
		}
		dateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		m := j.Reconcile.DailyMetrics(dateCtx, payload.BarID, date)
		cancel()
		if len(m.Issues) > 0 {
			degraded++
			continue
		}
		warmed++
	}

	j.metrics().AddWarmedDates("warmed", warmed)
	j.metrics().AddWarmedDates("degraded", degraded)
	j.metrics().AddWarmedDates("skipped", skipped)

	logger.Info("completed metrics warmup",
		slog.Int("warmed", warmed),
		slog.Int("degraded", degraded),
		slog.Int("skipped", skipped),
		slog.Duration("duration", time.Since(now)))
	return resultErr
}

func (j *MetricsWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *MetricsWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}

func (j *MetricsWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
