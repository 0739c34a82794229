package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskMetricsWarmup pre-resolves daily metrics for recent event dates.
	TaskMetricsWarmup = "reconcile:warmup"
)

// MetricsWarmupPayload selects which bar's recent event dates to warm.
type MetricsWarmupPayload struct {
	BarID        int64 `json:"bar_id"`
	LookbackDays int   `json:"lookback_days"`
}

// NewMetricsWarmupTask constructs an Asynq task.
func NewMetricsWarmupTask(payload MetricsWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMetricsWarmup, data), nil
}
