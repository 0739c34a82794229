package jobs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
)

type stubEnqueuer struct {
	last MetricsWarmupPayload
	err  error
}

func (s *stubEnqueuer) EnqueueMetricsWarmup(_ context.Context, payload MetricsWarmupPayload) (*asynq.TaskInfo, error) {
	s.last = payload
	if s.err != nil {
		return nil, s.err
	}
	return &asynq.TaskInfo{ID: "task-1", Queue: QueueDefault}, nil
}

func newJobsRouter(enqueuer WarmupEnqueuer) http.Handler {
	handler := NewHandler(nil, enqueuer, testLogger())
	r := chi.NewRouter()
	r.Route("/jobs", handler.MountRoutes)
	return r
}

func TestEnqueueWarmup(t *testing.T) {
	enqueuer := &stubEnqueuer{}
	router := newJobsRouter(enqueuer)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/jobs/warmup", strings.NewReader(`{"bar_id":3,"lookback_days":10}`))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if enqueuer.last.BarID != 3 || enqueuer.last.LookbackDays != 10 {
		t.Fatalf("unexpected payload %+v", enqueuer.last)
	}
	if !strings.Contains(rec.Body.String(), "task-1") {
		t.Fatalf("response must carry the task id, got %s", rec.Body.String())
	}
}

func TestEnqueueWarmupValidation(t *testing.T) {
	router := newJobsRouter(&stubEnqueuer{})
	cases := []string{
		`{`,
		`{"bar_id":0}`,
		`{"lookback_days":10}`,
	}
	for _, body := range cases {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/jobs/warmup", strings.NewReader(body))
		router.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestEnqueueWarmupWithoutQueue(t *testing.T) {
	router := newJobsRouter(nil)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/jobs/warmup", strings.NewReader(`{"bar_id":3}`))
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
