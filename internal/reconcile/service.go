package reconcile

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/barlens/barlens/internal/store"
)

// Repository exposes the subset of table queries required by the engine.
type Repository interface {
	YuzerOrderTotals(ctx context.Context, barID int64, date string) ([]store.YuzerOrderRow, error)
	YuzerOrdersByHour(ctx context.Context, barID int64, date string) ([]store.YuzerOrderRow, error)
	YuzerEventTotals(ctx context.Context, barID int64, date string) ([]store.YuzerEventTotalRow, error)
	HourlyRevenueTotals(ctx context.Context, barID int64, date string) ([]store.HourlyRevenueRow, error)
	HourlyRevenue(ctx context.Context, barID int64, date string) ([]store.HourlyRevenueRow, error)
	Payments(ctx context.Context, barID int64, date string) ([]store.PaymentRow, error)
	PeriodLedger(ctx context.Context, barID int64, date string) ([]store.PeriodLedgerRow, error)
	BoxOffice(ctx context.Context, barID int64, date string) ([]store.BoxOfficeRow, error)
	SymplaCheckins(ctx context.Context, barID int64, date string) (int, error)
	DailyHeadcount(ctx context.Context, date string) (int, error)
	HourlyVisits(ctx context.Context, barID int64, date string) ([]store.VisitRow, error)
	ServiceTimes(ctx context.Context, barID int64, year, month, day int) ([]store.ServiceTimeRow, error)
	ArtistEventDates(ctx context.Context, barID int64, artist string, desc bool) ([]string, error)
	EventArtist(ctx context.Context, barID int64, date string) (string, error)
}

// ReservationService resolves the reservation count for a date. Failures are
// degraded to zero by the resolver.
type ReservationService interface {
	ReservationCount(ctx context.Context, date string) (int, error)
}

// CRMService covers the customer-recurrence report and the fire-and-forget
// artist-name normalization hook used by date comparisons.
type CRMService interface {
	CustomerRecurrence(ctx context.Context, barID int64, date1, date2, artist1, artist2 string) (json.RawMessage, error)
	NormalizeArtistNames(ctx context.Context, barID int64) error
}

const (
	defaultResolveTimeout = 20 * time.Second
	defaultFanOutLimit    = 4
)

// Service coordinates daily resolution, artist aggregation and comparisons.
type Service struct {
	repo         Repository
	reservations ReservationService
	crm          CRMService
	cache        *Cache
	logger       *slog.Logger

	resolveTimeout time.Duration
	fanOutLimit    int
}

// Option customizes a Service.
type Option func(*Service)

// WithReservations wires the external reservation source.
func WithReservations(r ReservationService) Option {
	return func(s *Service) { s.reservations = r }
}

// WithCRM wires the customer-recurrence endpoints.
func WithCRM(c CRMService) Option {
	return func(s *Service) { s.crm = c }
}

// WithCache wires the daily-metrics cache.
func WithCache(c *Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithResolveTimeout bounds every single-date resolution.
func WithResolveTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.resolveTimeout = d
		}
	}
}

// WithFanOutLimit bounds how many dates resolve concurrently during artist
// aggregation and warmup.
func WithFanOutLimit(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fanOutLimit = n
		}
	}
}

// NewService constructs a Service instance.
func NewService(repo Repository, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:           repo,
		logger:         logger,
		resolveTimeout: defaultResolveTimeout,
		fanOutLimit:    defaultFanOutLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}
