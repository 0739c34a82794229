// Package reconcilehttp exposes the comparison engine over a JSON API.
package reconcilehttp

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/barlens/barlens/internal/observability"
	"github.com/barlens/barlens/internal/platform/httpx"
	"github.com/barlens/barlens/internal/reconcile"
)

const requestTimeout = 30 * time.Second

// ComparisonService defines the engine contract used by the handler.
type ComparisonService interface {
	DailyMetrics(ctx context.Context, barID int64, date string) reconcile.DailyMetrics
	CompareDates(ctx context.Context, barID int64, date1, date2 string) (reconcile.DateComparison, error)
	CompareArtists(ctx context.Context, barID int64, artist1, artist2 string) (reconcile.ArtistComparison, error)
	InvalidateCache(ctx context.Context) error
}

// ArtistCatalog lists the distinct artists bookable for comparison.
type ArtistCatalog interface {
	List(ctx context.Context, barID int64) ([]string, error)
}

// Handler coordinates HTTP requests for the comparison API.
type Handler struct {
	logger   *slog.Logger
	service  ComparisonService
	catalog  ArtistCatalog
	metrics  *observability.Metrics
	validate *validator.Validate
}

// NewHandler constructs the comparison HTTP handler. Metrics may be nil.
func NewHandler(logger *slog.Logger, service ComparisonService, catalog ArtistCatalog, metrics *observability.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		catalog:  catalog,
		metrics:  metrics,
		validate: validator.New(),
	}
}

func (h *Handler) recordIssues(issues []reconcile.SourceIssue) {
	for _, issue := range issues {
		h.metrics.AddFetchIssues(issue.Source, 1)
	}
}

type dailyQuery struct {
	BarID int64  `validate:"required,gt=0"`
	Date  string `validate:"required,datetime=2006-01-02"`
}

type compareDatesQuery struct {
	BarID int64  `validate:"required,gt=0"`
	Date1 string `validate:"required,datetime=2006-01-02"`
	Date2 string `validate:"required,datetime=2006-01-02"`
}

type compareArtistsQuery struct {
	BarID   int64  `validate:"required,gt=0"`
	Artist1 string `validate:"required"`
	Artist2 string `validate:"required,nefield=Artist1"`
}

type artistsQuery struct {
	BarID int64 `validate:"required,gt=0"`
}

func parseBarID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(r.URL.Query().Get("bar_id"), 10, 64)
	return id
}

func (h *Handler) handleDaily(w http.ResponseWriter, r *http.Request) {
	q := dailyQuery{
		BarID: parseBarID(r),
		Date:  r.URL.Query().Get("date"),
	}
	if err := h.validate.Struct(q); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid query", "bar_id and a YYYY-MM-DD date are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	metrics := h.service.DailyMetrics(ctx, q.BarID, q.Date)
	h.recordIssues(metrics.Issues)
	httpx.JSON(w, http.StatusOK, metrics)
}

func (h *Handler) handleCompareDates(w http.ResponseWriter, r *http.Request) {
	q := compareDatesQuery{
		BarID: parseBarID(r),
		Date1: r.URL.Query().Get("date1"),
		Date2: r.URL.Query().Get("date2"),
	}
	if err := h.validate.Struct(q); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid query", "bar_id, date1 and date2 (YYYY-MM-DD) are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	cmp, err := h.service.CompareDates(ctx, q.BarID, q.Date1, q.Date2)
	if err != nil {
		if errors.Is(err, reconcile.ErrMissingSelection) {
			httpx.Problem(w, http.StatusBadRequest, "invalid selection", err.Error())
			return
		}
		h.logger.Error("compare dates failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "comparison failed", "")
		return
	}
	h.recordIssues(cmp.First.Issues)
	h.recordIssues(cmp.Second.Issues)
	httpx.JSON(w, http.StatusOK, cmp)
}

func (h *Handler) handleCompareArtists(w http.ResponseWriter, r *http.Request) {
	q := compareArtistsQuery{
		BarID:   parseBarID(r),
		Artist1: r.URL.Query().Get("artist1"),
		Artist2: r.URL.Query().Get("artist2"),
	}
	if err := h.validate.Struct(q); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid query", "bar_id and two distinct artists are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	cmp, err := h.service.CompareArtists(ctx, q.BarID, q.Artist1, q.Artist2)
	if err != nil {
		switch {
		case errors.Is(err, reconcile.ErrMissingSelection):
			httpx.Problem(w, http.StatusBadRequest, "invalid selection", err.Error())
		case errors.Is(err, reconcile.ErrInsufficientData):
			httpx.Problem(w, http.StatusUnprocessableEntity, "insufficient data", err.Error())
		default:
			h.logger.Error("compare artists failed", slog.Any("error", err))
			httpx.Problem(w, http.StatusInternalServerError, "comparison failed", "")
		}
		return
	}
	httpx.JSON(w, http.StatusOK, cmp)
}

// handleCacheBump invalidates every cached daily record, for use after
// upstream data corrections land.
func (h *Handler) handleCacheBump(w http.ResponseWriter, r *http.Request) {
	if err := h.service.InvalidateCache(r.Context()); err != nil {
		h.logger.Error("cache bump failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "cache invalidation failed", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleArtists(w http.ResponseWriter, r *http.Request) {
	q := artistsQuery{BarID: parseBarID(r)}
	if err := h.validate.Struct(q); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "invalid query", "bar_id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	names, err := h.catalog.List(ctx, q.BarID)
	if err != nil {
		h.logger.Error("artist catalog failed", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "artist listing failed", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"artists": names})
}
