package reconcile

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
)

// degrade records a failed sub-fetch on the record and logs it. The failing
// component contributes zero; resolution continues.
func (s *Service) degrade(m *DailyMetrics, source string, err error) {
	s.logger.Warn("reconcile: sub-fetch degraded to zero",
		slog.String("date", m.Date), slog.String("source", source), slog.Any("error", err))
	m.Issues = append(m.Issues, SourceIssue{Source: source, Error: err.Error()})
}

// ResolveDaily builds the reconciled record for one date. Individual
// sub-fetch failures degrade that component to zero and are reported on the
// record's issue list; the resolution itself always produces a record.
func (s *Service) ResolveDaily(ctx context.Context, barID int64, date string) DailyMetrics {
	ctx, cancel := context.WithTimeout(ctx, s.resolveTimeout)
	defer cancel()

	m := DailyMetrics{Date: date, HourlySeries: []HourlyPoint{}}

	det, issues := s.detectSource(ctx, barID, date)
	m.Source = det.Source
	m.Issues = issues
	for _, issue := range issues {
		s.logger.Warn("reconcile: sub-fetch degraded to zero",
			slog.String("date", date), slog.String("source", issue.Source), slog.String("error", issue.Error))
	}

	if det.Source == SourceYuzer {
		// The two streams are assumed non-overlapping in practice, so a
		// Yuzer day still adds whatever ContaHub reported as supplementary.
		m.RevenueYuzer = det.YuzerTotal
		m.RevenueContaHub = det.ContaHubTotal
	} else {
		if rows, err := s.repo.YuzerEventTotals(ctx, barID, date); err != nil {
			s.degrade(&m, "yuzer_estatisticas_detalhadas", err)
		} else {
			for _, row := range rows {
				m.RevenueYuzer += row.Value()
			}
		}

		payments, err := s.repo.Payments(ctx, barID, date)
		if err != nil {
			s.degrade(&m, "pagamentos", err)
		}
		for _, p := range payments {
			if p.FromSympla() {
				m.RevenueSympla += p.Value()
			} else {
				m.RevenueContaHub += p.Value()
			}
		}
	}
	m.TotalRevenue = m.RevenueYuzer + m.RevenueContaHub + m.RevenueSympla

	if rows, err := s.repo.PeriodLedger(ctx, barID, date); err != nil {
		s.degrade(&m, "periodo", err)
	} else {
		for _, row := range rows {
			m.TotalRevenue += row.Value()
		}
	}

	if rows, err := s.repo.BoxOffice(ctx, barID, date); err != nil {
		s.degrade(&m, "sympla_bilheteria", err)
	} else {
		var boxOffice float64
		for _, row := range rows {
			boxOffice += row.Value()
		}
		m.TotalRevenue += boxOffice
		m.RevenueSympla += boxOffice
	}

	if artist, err := s.repo.EventArtist(ctx, barID, date); err != nil {
		s.degrade(&m, "eventos", err)
	} else {
		m.ArtistName = artist
	}

	m.Attendance = s.resolveAttendance(ctx, barID, date, det.Source, &m)

	if s.reservations != nil {
		if n, err := s.reservations.ReservationCount(ctx, date); err != nil {
			s.degrade(&m, "getin", err)
		} else {
			m.ReservationCount = n
		}
	}

	if year, month, day, ok := splitDate(date); ok {
		if rows, err := s.repo.ServiceTimes(ctx, barID, year, month, day); err != nil {
			s.degrade(&m, "tempo", err)
		} else {
			m.BarTime, m.KitchenTime = classifyServiceTimes(rows)
		}
	}

	m.HourlySeries = s.buildHourlySeries(ctx, barID, date, det.Source, m.Attendance, &m)

	if m.Attendance > 0 {
		m.AverageTicket = m.TotalRevenue / float64(m.Attendance)
	}
	return m
}

// resolveAttendance picks the patron count for the date. Yuzer days prefer
// Sympla ticket check-ins with the daily headcount as fallback; ContaHub days
// take whichever of the two signals is larger.
func (s *Service) resolveAttendance(ctx context.Context, barID int64, date string, source Source, m *DailyMetrics) int {
	if source == SourceYuzer {
		checkins, err := s.repo.SymplaCheckins(ctx, barID, date)
		if err != nil {
			s.degrade(m, "cliente_visitas", err)
		}
		if checkins > 0 {
			return checkins
		}
		headcount, err := s.repo.DailyHeadcount(ctx, date)
		if err != nil {
			s.degrade(m, "pessoas_diario_corrigido", err)
			return 0
		}
		return headcount
	}

	headcount, err := s.repo.DailyHeadcount(ctx, date)
	if err != nil {
		s.degrade(m, "pessoas_diario_corrigido", err)
	}
	checkins, err := s.repo.SymplaCheckins(ctx, barID, date)
	if err != nil {
		s.degrade(m, "cliente_visitas", err)
	}
	if checkins > headcount {
		return checkins
	}
	return headcount
}

// splitDate splits YYYY-MM-DD into numeric parts without going through
// time.Parse, matching how the prep-time table is keyed.
func splitDate(date string) (year, month, day int, ok bool) {
	parts := strings.SplitN(date, "-", 3)
	if len(parts) != 3 {
		return 0, 0, 0, false
	}
	var err error
	if year, err = strconv.Atoi(parts[0]); err != nil {
		return 0, 0, 0, false
	}
	if month, err = strconv.Atoi(parts[1]); err != nil {
		return 0, 0, 0, false
	}
	if day, err = strconv.Atoi(parts[2]); err != nil {
		return 0, 0, 0, false
	}
	return year, month, day, true
}
