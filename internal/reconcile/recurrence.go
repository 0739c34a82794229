package reconcile

import (
	"context"
	"log/slog"
)

// recurrenceRate estimates the repeat-customer share for an artist from event
// attendance alone. Artists with fewer than two events score zero: a single
// show gives the heuristic nothing to measure recurrence against.
func (s *Service) recurrenceRate(ctx context.Context, barID int64, artist string) float64 {
	dates, err := s.repo.ArtistEventDates(ctx, barID, artist, false)
	if err != nil {
		s.logger.Warn("reconcile: recurrence lookup failed",
			slog.String("artist", artist), slog.Any("error", err))
		return 0
	}
	if len(dates) < 2 {
		return 0
	}

	var totalAttendance int
	eventsWithData := 0
	for _, date := range dates {
		attendance, err := s.repo.DailyHeadcount(ctx, date)
		if err != nil {
			s.logger.Warn("reconcile: recurrence headcount failed",
				slog.String("artist", artist), slog.String("date", date), slog.Any("error", err))
			continue
		}
		if attendance == 0 {
			checkins, err := s.repo.SymplaCheckins(ctx, barID, date)
			if err != nil {
				s.logger.Warn("reconcile: recurrence check-in failed",
					slog.String("artist", artist), slog.String("date", date), slog.Any("error", err))
				continue
			}
			attendance = checkins
		}
		if attendance > 0 {
			totalAttendance += attendance
			eventsWithData++
		}
	}

	var avgAttendance float64
	if eventsWithData > 0 {
		avgAttendance = float64(totalAttendance) / float64(eventsWithData)
	}
	return estimateRecurrence(len(dates), eventsWithData, avgAttendance)
}

// estimateRecurrence applies the tiered heuristic: a base percentage chosen by
// event count (thresholds 5 and 10) and average attendance (thresholds 200 and
// 500), plus a bonus proportional to the share of events with usable data.
// The result is clamped to [5, 80].
func estimateRecurrence(totalEvents, eventsWithData int, avgAttendance float64) float64 {
	var estimate float64
	if eventsWithData > 0 {
		dataShare := float64(eventsWithData) / float64(totalEvents) * 100

		switch {
		case totalEvents >= 10:
			switch {
			case avgAttendance > 500:
				estimate = 45 + dataShare*0.3
			case avgAttendance > 200:
				estimate = 35 + dataShare*0.25
			default:
				estimate = 25 + dataShare*0.2
			}
		case totalEvents >= 5:
			switch {
			case avgAttendance > 500:
				estimate = 40 + dataShare*0.25
			case avgAttendance > 200:
				estimate = 30 + dataShare*0.2
			default:
				estimate = 20 + dataShare*0.15
			}
		default:
			switch {
			case avgAttendance > 500:
				estimate = 35 + dataShare*0.2
			case avgAttendance > 200:
				estimate = 25 + dataShare*0.15
			default:
				estimate = 15 + dataShare*0.1
			}
		}
	} else {
		switch {
		case totalEvents >= 10:
			estimate = 30
		case totalEvents >= 5:
			estimate = 20
		default:
			estimate = 15
		}
	}
	return clamp(estimate, 5, 80)
}
