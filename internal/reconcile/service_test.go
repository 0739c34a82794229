package reconcile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/barlens/barlens/internal/store"
)

type stubRepo struct {
	yuzerOrders      map[string][]store.YuzerOrderRow
	yuzerEventTotals map[string][]store.YuzerEventTotalRow
	hourlyRevenue    map[string][]store.HourlyRevenueRow
	payments         map[string][]store.PaymentRow
	periodLedger     map[string][]store.PeriodLedgerRow
	boxOffice        map[string][]store.BoxOfficeRow
	checkins         map[string]int
	headcount        map[string]int
	visits           map[string][]store.VisitRow
	serviceTimes     map[string][]store.ServiceTimeRow
	artistEvents     map[string][]string
	eventArtist      map[string]string
	failing          map[string]error
}

func (r *stubRepo) fail(table string) error {
	if r.failing == nil {
		return nil
	}
	return r.failing[table]
}

func (r *stubRepo) YuzerOrderTotals(_ context.Context, _ int64, date string) ([]store.YuzerOrderRow, error) {
	return r.yuzerOrders[date], r.fail("yuzer_analitico")
}

func (r *stubRepo) YuzerOrdersByHour(_ context.Context, _ int64, date string) ([]store.YuzerOrderRow, error) {
	var rows []store.YuzerOrderRow
	for _, row := range r.yuzerOrders[date] {
		if row.DataHoraPedido != "" {
			rows = append(rows, row)
		}
	}
	return rows, r.fail("yuzer_analitico")
}

func (r *stubRepo) YuzerEventTotals(_ context.Context, _ int64, date string) ([]store.YuzerEventTotalRow, error) {
	return r.yuzerEventTotals[date], nil
}

func (r *stubRepo) HourlyRevenueTotals(_ context.Context, _ int64, date string) ([]store.HourlyRevenueRow, error) {
	return r.hourlyRevenue[date], r.fail("fatporhora")
}

func (r *stubRepo) HourlyRevenue(_ context.Context, _ int64, date string) ([]store.HourlyRevenueRow, error) {
	return r.hourlyRevenue[date], r.fail("fatporhora")
}

func (r *stubRepo) Payments(_ context.Context, _ int64, date string) ([]store.PaymentRow, error) {
	return r.payments[date], r.fail("pagamentos")
}

func (r *stubRepo) PeriodLedger(_ context.Context, _ int64, date string) ([]store.PeriodLedgerRow, error) {
	return r.periodLedger[date], r.fail("periodo")
}

func (r *stubRepo) BoxOffice(_ context.Context, _ int64, date string) ([]store.BoxOfficeRow, error) {
	return r.boxOffice[date], r.fail("sympla_bilheteria")
}

func (r *stubRepo) SymplaCheckins(_ context.Context, _ int64, date string) (int, error) {
	return r.checkins[date], r.fail("cliente_visitas")
}

func (r *stubRepo) DailyHeadcount(_ context.Context, date string) (int, error) {
	return r.headcount[date], r.fail("pessoas_diario_corrigido")
}

func (r *stubRepo) HourlyVisits(_ context.Context, _ int64, date string) ([]store.VisitRow, error) {
	return r.visits[date], nil
}

func (r *stubRepo) ServiceTimes(_ context.Context, _ int64, year, month, day int) ([]store.ServiceTimeRow, error) {
	key := fmt.Sprintf("%04d-%02d-%02d", year, month, day)
	return r.serviceTimes[key], r.fail("tempo")
}

func (r *stubRepo) ArtistEventDates(_ context.Context, _ int64, artist string, _ bool) ([]string, error) {
	return r.artistEvents[artist], nil
}

func (r *stubRepo) EventArtist(_ context.Context, _ int64, date string) (string, error) {
	return r.eventArtist[date], nil
}

type stubReservations struct {
	counts map[string]int
	err    error
}

func (s *stubReservations) ReservationCount(_ context.Context, date string) (int, error) {
	if s.err != nil {
		return 0, s.err
	}
	return s.counts[date], nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(repo Repository, opts ...Option) *Service {
	return NewService(repo, testLogger(), opts...)
}

func TestDetectSourceTieBreak(t *testing.T) {
	repo := &stubRepo{
		yuzerOrders: map[string][]store.YuzerOrderRow{
			"2025-03-01": {{ValorTotal: "100.00"}},
		},
		hourlyRevenue: map[string][]store.HourlyRevenueRow{
			"2025-03-01": {{Hora: "19:00", Valor: "100.00"}},
		},
	}
	svc := newTestService(repo)
	m := svc.ResolveDaily(context.Background(), 1, "2025-03-01")
	if m.Source != SourceContaHub {
		t.Fatalf("equal totals must resolve to contahub, got %s", m.Source)
	}
}

func TestDetectSourceYuzerWinsWhenLarger(t *testing.T) {
	repo := &stubRepo{
		yuzerOrders: map[string][]store.YuzerOrderRow{
			"2025-03-01": {{ValorTotal: "150.00"}},
		},
		hourlyRevenue: map[string][]store.HourlyRevenueRow{
			"2025-03-01": {{Hora: "19:00", Valor: "100.00"}},
		},
	}
	svc := newTestService(repo)
	m := svc.ResolveDaily(context.Background(), 1, "2025-03-01")
	if m.Source != SourceYuzer {
		t.Fatalf("expected yuzer, got %s", m.Source)
	}
	if m.RevenueYuzer != 150 || m.RevenueContaHub != 100 {
		t.Fatalf("expected supplementary merge 150/100, got %v/%v", m.RevenueYuzer, m.RevenueContaHub)
	}
}

func TestAttendanceTakesLargerSignal(t *testing.T) {
	cases := []struct {
		headcount int
		checkins  int
		want      int
	}{
		{headcount: 80, checkins: 120, want: 120},
		{headcount: 120, checkins: 80, want: 120},
		{headcount: 0, checkins: 55, want: 55},
		{headcount: 55, checkins: 0, want: 55},
	}
	for _, tc := range cases {
		repo := &stubRepo{
			hourlyRevenue: map[string][]store.HourlyRevenueRow{
				"2025-03-02": {{Hora: "18:00", Valor: "10.00"}},
			},
			headcount: map[string]int{"2025-03-02": tc.headcount},
			checkins:  map[string]int{"2025-03-02": tc.checkins},
		}
		svc := newTestService(repo)
		m := svc.ResolveDaily(context.Background(), 1, "2025-03-02")
		if m.Attendance != tc.want {
			t.Fatalf("headcount=%d checkins=%d: attendance = %d, want %d",
				tc.headcount, tc.checkins, m.Attendance, tc.want)
		}
	}
}

func TestYuzerRedistributionConservation(t *testing.T) {
	distributions := []map[string]float64{
		{"19:00": 300, "20:00": 200},
		{"18:00": 1},
		{"18:00": 33.33, "19:00": 33.33, "20:00": 33.34},
		{"17:00": 0.01, "18:00": 999.99, "19:00": 2.5, "20:00": 2.5, "21:00": 2.5, "22:00": 2.5, "23:00": 2.5},
	}
	for _, dist := range distributions {
		for _, attendance := range []int{0, 1, 7, 80, 1001} {
			var orders []store.YuzerOrderRow
			for hour, revenue := range dist {
				orders = append(orders, store.YuzerOrderRow{
					ValorTotal:     fmt.Sprintf("%v", revenue),
					DataHoraPedido: "2025-03-10T" + hour + ":00",
				})
			}
			series := yuzerHourly(orders, attendance)
			if len(series) != len(dist) {
				t.Fatalf("expected %d hours, got %d", len(dist), len(series))
			}
			sum := 0
			for _, point := range series {
				sum += point.Attendance
			}
			if sum != attendance {
				t.Fatalf("attendance drifted: distributed %d, want %d (dist %v)", sum, attendance, dist)
			}
			last := series[len(series)-1]
			if last.CumulativeAttendance != attendance {
				t.Fatalf("cumulative attendance = %d, want %d", last.CumulativeAttendance, attendance)
			}
		}
	}
}

func TestZeroDataDateIsIdempotent(t *testing.T) {
	svc := newTestService(&stubRepo{})
	m := svc.ResolveDaily(context.Background(), 1, "2030-01-01")
	if m.TotalRevenue != 0 || m.Attendance != 0 {
		t.Fatalf("expected empty record, got revenue %v attendance %d", m.TotalRevenue, m.Attendance)
	}
	if len(m.HourlySeries) != 0 {
		t.Fatalf("expected empty hourly series, got %d points", len(m.HourlySeries))
	}
	if m.Source != SourceNone {
		t.Fatalf("expected no source, got %s", m.Source)
	}
	if m.HasData() {
		t.Fatal("zero record must not count as valid data")
	}
}

func TestResolveDailyEndToEnd(t *testing.T) {
	const date = "2025-03-10"
	repo := &stubRepo{
		yuzerOrders: map[string][]store.YuzerOrderRow{
			date: {
				{ValorTotal: "300.00", DataHoraPedido: "2025-03-10T19:12:00", PedidoID: "a"},
				{ValorTotal: "200.00", DataHoraPedido: "2025-03-10T20:45:00", PedidoID: "b"},
			},
		},
		hourlyRevenue: map[string][]store.HourlyRevenueRow{
			date: {{Hora: "19:00", Valor: "100.00"}},
		},
		headcount: map[string]int{date: 80},
	}
	svc := newTestService(repo, WithReservations(&stubReservations{counts: map[string]int{date: 5}}))

	m := svc.ResolveDaily(context.Background(), 1, date)
	if m.Source != SourceYuzer {
		t.Fatalf("expected yuzer day, got %s", m.Source)
	}
	if m.RevenueYuzer != 500 || m.RevenueContaHub != 100 {
		t.Fatalf("revenue split = %v/%v, want 500/100", m.RevenueYuzer, m.RevenueContaHub)
	}
	if m.TotalRevenue != 600 {
		t.Fatalf("total revenue = %v, want 600", m.TotalRevenue)
	}
	if m.Attendance != 80 {
		t.Fatalf("attendance = %d, want 80", m.Attendance)
	}
	if m.AverageTicket != 7.5 {
		t.Fatalf("average ticket = %v, want 7.5", m.AverageTicket)
	}
	if m.ReservationCount != 5 {
		t.Fatalf("reservations = %d, want 5", m.ReservationCount)
	}
	if len(m.HourlySeries) != 2 {
		t.Fatalf("expected 2 hourly points, got %d", len(m.HourlySeries))
	}
	last := m.HourlySeries[1]
	if last.Hour != "20:00" {
		t.Fatalf("last hour = %s, want 20:00", last.Hour)
	}
	if last.CumulativeRevenue != 500 {
		t.Fatalf("cumulative revenue at 20:00 = %v, want 500", last.CumulativeRevenue)
	}
	if last.CumulativeAttendance != 80 {
		t.Fatalf("cumulative attendance at 20:00 = %d, want 80", last.CumulativeAttendance)
	}
	// 300/500 of 80 rounds to 48; the 20:00 bucket absorbs the remainder.
	if m.HourlySeries[0].Attendance != 48 || last.Attendance != 32 {
		t.Fatalf("redistribution = %d/%d, want 48/32", m.HourlySeries[0].Attendance, last.Attendance)
	}
}

func TestResolveDailyRecordsIssues(t *testing.T) {
	repo := &stubRepo{
		hourlyRevenue: map[string][]store.HourlyRevenueRow{
			"2025-03-03": {{Hora: "18:00", Valor: "40.00"}},
		},
		failing: map[string]error{
			"pagamentos": errors.New("upstream 500"),
		},
	}
	svc := newTestService(repo)
	m := svc.ResolveDaily(context.Background(), 1, "2025-03-03")
	found := false
	for _, issue := range m.Issues {
		if issue.Source == "pagamentos" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a pagamentos issue, got %+v", m.Issues)
	}
	if m.RevenueContaHub != 0 {
		t.Fatalf("failed component must contribute zero, got %v", m.RevenueContaHub)
	}
}

func TestContaHubDayPartitionsPayments(t *testing.T) {
	const date = "2025-03-04"
	repo := &stubRepo{
		hourlyRevenue: map[string][]store.HourlyRevenueRow{
			date: {
				{Hora: "18:00", Valor: "60.00", Qtd: "12"},
				{Hora: "19:00", Valor: "90.00", Qtd: "15"},
			},
		},
		payments: map[string][]store.PaymentRow{
			date: {
				{Liquido: "90.00", Origem: "pix"},
				{Liquido: "35.00", Origem: "Sympla Pagamentos"},
				{Liquido: "25.00", Origem: "credito"},
			},
		},
		visits: map[string][]store.VisitRow{
			date: {
				{CreatedAt: "2025-03-04T18:05:00", VD: "v1"},
				{CreatedAt: "2025-03-04T18:40:00", VD: "v2"},
				{CreatedAt: "2025-03-04T18:50:00", VD: "v2"},
			},
		},
	}
	svc := newTestService(repo)
	m := svc.ResolveDaily(context.Background(), 1, date)
	if m.RevenueContaHub != 115 {
		t.Fatalf("contahub revenue = %v, want 115", m.RevenueContaHub)
	}
	if m.RevenueSympla != 35 {
		t.Fatalf("sympla revenue = %v, want 35", m.RevenueSympla)
	}
	if len(m.HourlySeries) != 2 {
		t.Fatalf("expected 2 hourly points, got %d", len(m.HourlySeries))
	}
	// 18:00 has two distinct visitors; 19:00 has none and falls back to qtd.
	if m.HourlySeries[0].Attendance != 2 {
		t.Fatalf("18:00 attendance = %d, want 2 distinct visitors", m.HourlySeries[0].Attendance)
	}
	if m.HourlySeries[1].Attendance != 15 {
		t.Fatalf("19:00 attendance = %d, want qtd fallback 15", m.HourlySeries[1].Attendance)
	}
}

func TestArtistStatsAggregates(t *testing.T) {
	repo := &stubRepo{
		artistEvents: map[string][]string{
			// Newest first; the 2026 booking has no activity yet.
			"Banda Azul": {"2026-01-01", "2025-03-10", "2025-02-10"},
		},
		yuzerOrders: map[string][]store.YuzerOrderRow{
			"2025-03-10": {{ValorTotal: "500.00", DataHoraPedido: "2025-03-10T19:00:00"}},
			"2025-02-10": {{ValorTotal: "300.00", DataHoraPedido: "2025-02-10T19:00:00"}},
		},
		checkins: map[string]int{
			"2025-03-10": 100,
			"2025-02-10": 50,
		},
	}
	svc := newTestService(repo)
	stats, err := svc.ArtistStats(context.Background(), 1, "Banda Azul")
	if err != nil {
		t.Fatalf("ArtistStats: %v", err)
	}
	if stats.EventCount != 3 || stats.ValidEventCount != 2 {
		t.Fatalf("event counts = %d/%d, want 3/2", stats.EventCount, stats.ValidEventCount)
	}
	if stats.TotalRevenue != 800 {
		t.Fatalf("total revenue = %v, want 800", stats.TotalRevenue)
	}
	if stats.AvgRevenue != 400 {
		t.Fatalf("avg revenue = %v, want 400", stats.AvgRevenue)
	}
	if stats.TotalAttendance != 150 {
		t.Fatalf("total attendance = %d, want 150", stats.TotalAttendance)
	}
	want := 800.0 / 150.0
	if stats.AverageTicket != want {
		t.Fatalf("average ticket = %v, want %v", stats.AverageTicket, want)
	}
	// Oldest valid event drew 50, newest 100.
	if stats.AttendanceGrowth != 100 {
		t.Fatalf("attendance growth = %v, want 100", stats.AttendanceGrowth)
	}
}

func TestArtistStatsInsufficientData(t *testing.T) {
	repo := &stubRepo{
		artistEvents: map[string][]string{
			"Futuro": {"2030-05-01", "2030-06-01"},
		},
	}
	svc := newTestService(repo)
	if _, err := svc.ArtistStats(context.Background(), 1, "Desconhecido"); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("no events: expected ErrInsufficientData, got %v", err)
	}
	if _, err := svc.ArtistStats(context.Background(), 1, "Futuro"); !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("no valid dates: expected ErrInsufficientData, got %v", err)
	}
}

func TestCompareArtistsAbortsWhenOneSideEmpty(t *testing.T) {
	repo := &stubRepo{
		artistEvents: map[string][]string{
			"Com Dados": {"2025-03-10", "2025-02-10", "2025-01-10"},
		},
		yuzerOrders: map[string][]store.YuzerOrderRow{
			"2025-03-10": {{ValorTotal: "100.00", DataHoraPedido: "2025-03-10T19:00:00"}},
			"2025-02-10": {{ValorTotal: "100.00", DataHoraPedido: "2025-02-10T19:00:00"}},
			"2025-01-10": {{ValorTotal: "100.00", DataHoraPedido: "2025-01-10T19:00:00"}},
		},
	}
	svc := newTestService(repo)
	_, err := svc.CompareArtists(context.Background(), 1, "Com Dados", "Sem Dados")
	if !errors.Is(err, ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestCompareArtistsValidatesSelection(t *testing.T) {
	svc := newTestService(&stubRepo{})
	if _, err := svc.CompareArtists(context.Background(), 1, "", "X"); !errors.Is(err, ErrMissingSelection) {
		t.Fatalf("expected ErrMissingSelection, got %v", err)
	}
	if _, err := svc.CompareArtists(context.Background(), 1, "X", "X"); !errors.Is(err, ErrMissingSelection) {
		t.Fatalf("same artist twice: expected ErrMissingSelection, got %v", err)
	}
}

func TestCompareDatesRunsBothSides(t *testing.T) {
	repo := &stubRepo{
		hourlyRevenue: map[string][]store.HourlyRevenueRow{
			"2025-03-01": {{Hora: "19:00", Valor: "100.00"}},
			"2025-03-08": {{Hora: "19:00", Valor: "250.00"}},
		},
		headcount: map[string]int{
			"2025-03-01": 40,
			"2025-03-08": 90,
		},
	}
	svc := newTestService(repo)
	cmp, err := svc.CompareDates(context.Background(), 1, "2025-03-01", "2025-03-08")
	if err != nil {
		t.Fatalf("CompareDates: %v", err)
	}
	if cmp.ComparisonID == "" {
		t.Fatal("expected a comparison id")
	}
	if cmp.First.TotalRevenue != 100 || cmp.Second.TotalRevenue != 250 {
		t.Fatalf("totals = %v/%v, want 100/250", cmp.First.TotalRevenue, cmp.Second.TotalRevenue)
	}
	if len(cmp.Insights) == 0 {
		t.Fatal("expected insight lines for diverging dates")
	}
}

func TestCompareDatesValidatesSelection(t *testing.T) {
	svc := newTestService(&stubRepo{})
	if _, err := svc.CompareDates(context.Background(), 1, "", "2025-03-08"); !errors.Is(err, ErrMissingSelection) {
		t.Fatalf("expected ErrMissingSelection, got %v", err)
	}
}
