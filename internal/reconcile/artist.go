package reconcile

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// ErrInsufficientData marks an artist with no events or no event dates that
// produced usable data. It is a user-facing outcome, not a system failure.
var ErrInsufficientData = errors.New("reconcile: insufficient data for artist")

// ArtistStats resolves every event date for the artist and aggregates the
// valid ones. Dates resolve concurrently under the configured fan-out limit.
func (s *Service) ArtistStats(ctx context.Context, barID int64, name string) (ArtistStats, error) {
	dates, err := s.repo.ArtistEventDates(ctx, barID, name, true)
	if err != nil {
		return ArtistStats{}, err
	}
	if len(dates) == 0 {
		return ArtistStats{}, ErrInsufficientData
	}

	metrics := make([]DailyMetrics, len(dates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fanOutLimit)
	for i, date := range dates {
		i, date := i, date
		g.Go(func() error {
			m := s.DailyMetrics(gctx, barID, date)
			m.ArtistName = name
			metrics[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return ArtistStats{}, err
	}

	// Dates arrive newest first; valid keeps that order for the growth calc.
	valid := metrics[:0:0]
	for _, m := range metrics {
		if m.HasData() {
			valid = append(valid, m)
			continue
		}
		s.logger.Info("reconcile: event date without data skipped",
			slog.String("artist", name), slog.String("date", m.Date))
	}
	if len(valid) == 0 {
		return ArtistStats{}, ErrInsufficientData
	}

	stats := ArtistStats{Name: name, EventCount: len(dates), ValidEventCount: len(valid)}
	var kitchenSum, barSum float64
	var kitchenN, barN int
	for _, m := range valid {
		stats.TotalRevenue += m.TotalRevenue
		stats.TotalRevenueYuzer += m.RevenueYuzer
		stats.TotalRevenueContaHub += m.RevenueContaHub
		stats.TotalRevenueSympla += m.RevenueSympla
		stats.TotalAttendance += m.Attendance
		stats.TotalReservations += m.ReservationCount
		if m.KitchenTime > 0 {
			kitchenSum += m.KitchenTime
			kitchenN++
		}
		if m.BarTime > 0 {
			barSum += m.BarTime
			barN++
		}
	}

	n := float64(len(valid))
	stats.AvgRevenue = stats.TotalRevenue / n
	stats.AvgRevenueYuzer = stats.TotalRevenueYuzer / n
	stats.AvgRevenueContaHub = stats.TotalRevenueContaHub / n
	stats.AvgRevenueSympla = stats.TotalRevenueSympla / n
	stats.AvgAttendance = float64(stats.TotalAttendance) / n
	stats.AvgReservations = float64(stats.TotalReservations) / n
	if stats.TotalAttendance > 0 {
		stats.AverageTicket = stats.TotalRevenue / float64(stats.TotalAttendance)
	}
	if kitchenN > 0 {
		stats.AvgKitchenTime = kitchenSum / float64(kitchenN)
	}
	if barN > 0 {
		stats.AvgBarTime = barSum / float64(barN)
	}

	stats.RecurrenceRate = s.recurrenceRate(ctx, barID, name)

	if stats.AvgBarTime > 0 {
		stats.ServiceEfficiency = clamp(100-stats.AvgBarTime*5, 0, 100)
	}
	if len(valid) >= 2 {
		oldest := valid[len(valid)-1]
		newest := valid[0]
		if oldest.Attendance > 0 {
			stats.AttendanceGrowth = float64(newest.Attendance-oldest.Attendance) / float64(oldest.Attendance) * 100
		}
	}
	stats.FidelityScore = stats.RecurrenceRate*0.7 + max(0, stats.AttendanceGrowth)*0.3

	return stats, nil
}
