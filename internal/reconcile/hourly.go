package reconcile

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/barlens/barlens/internal/store"
)

// hourKey truncates an ISO timestamp to its HH:00 bucket by string slicing.
// Parsing into time.Time would re-interpret the zone and shift rows across
// hour boundaries; the raw string already carries the venue-local hour.
func hourKey(ts string) string {
	_, clock, ok := strings.Cut(ts, "T")
	if !ok {
		clock = "00:00:00"
	}
	hh, _, _ := strings.Cut(clock, ":")
	if len(hh) > 2 {
		hh = hh[:2]
	}
	for len(hh) < 2 {
		hh = "0" + hh
	}
	return hh + ":00"
}

// buildHourlySeries assembles the intraday curve for a date. Yuzer days carry
// granular timestamped orders but no per-row attendance, so the day's total
// attendance is spread across hours in proportion to revenue. ContaHub days
// come pre-aggregated per hour with distinct-visitor counts alongside.
func (s *Service) buildHourlySeries(ctx context.Context, barID int64, date string, source Source, attendance int, m *DailyMetrics) []HourlyPoint {
	if source == SourceYuzer {
		orders, err := s.repo.YuzerOrdersByHour(ctx, barID, date)
		if err != nil {
			s.degrade(m, "yuzer_analitico_horas", err)
		}
		return yuzerHourly(orders, attendance)
	}

	revRows, err := s.repo.HourlyRevenue(ctx, barID, date)
	if err != nil {
		s.degrade(m, "fatporhora_horas", err)
	}
	visits, err := s.repo.HourlyVisits(ctx, barID, date)
	if err != nil {
		s.degrade(m, "analitico_horas", err)
	}
	return contaHubHourly(revRows, visits)
}

// yuzerHourly groups granular orders by hour and redistributes the day's
// attendance proportionally to each hour's revenue share. Every share is
// rounded and the rounding remainder lands on the largest-revenue hour, so
// the per-hour counts always sum back to the input attendance.
func yuzerHourly(orders []store.YuzerOrderRow, attendance int) []HourlyPoint {
	revenueByHour := make(map[string]float64)
	for _, order := range orders {
		if order.DataHoraPedido == "" {
			continue
		}
		revenueByHour[hourKey(order.DataHoraPedido)] += order.Value()
	}
	if len(revenueByHour) == 0 {
		return []HourlyPoint{}
	}

	hours := make([]string, 0, len(revenueByHour))
	var total float64
	for hour, revenue := range revenueByHour {
		hours = append(hours, hour)
		total += revenue
	}
	sort.Strings(hours)

	attendanceByHour := make(map[string]int, len(hours))
	distributed := 0
	for _, hour := range hours {
		share := 1 / float64(len(hours))
		if total > 0 {
			share = revenueByHour[hour] / total
		}
		n := int(math.Round(float64(attendance) * share))
		attendanceByHour[hour] = n
		distributed += n
	}
	if diff := attendance - distributed; diff != 0 {
		peak := hours[0]
		for _, hour := range hours[1:] {
			if revenueByHour[hour] > revenueByHour[peak] {
				peak = hour
			}
		}
		attendanceByHour[peak] += diff
	}

	series := make([]HourlyPoint, 0, len(hours))
	var cumRevenue float64
	var cumAttendance int
	for _, hour := range hours {
		cumRevenue += revenueByHour[hour]
		cumAttendance += attendanceByHour[hour]
		series = append(series, HourlyPoint{
			Hour:                 hour,
			Revenue:              revenueByHour[hour],
			Attendance:           attendanceByHour[hour],
			CumulativeRevenue:    cumRevenue,
			CumulativeAttendance: cumAttendance,
		})
	}
	return series
}

// contaHubHourly merges the per-hour revenue aggregates with distinct-visitor
// counts derived from granular order rows, preferring the distinct count and
// falling back to the aggregate quantity when no visitors were tagged.
func contaHubHourly(revRows []store.HourlyRevenueRow, visits []store.VisitRow) []HourlyPoint {
	visitorsByHour := make(map[string]map[string]struct{})
	for _, visit := range visits {
		if visit.CreatedAt == "" || visit.VD == "" {
			continue
		}
		hour := hourKey(visit.CreatedAt)
		if visitorsByHour[hour] == nil {
			visitorsByHour[hour] = make(map[string]struct{})
		}
		visitorsByHour[hour][visit.VD] = struct{}{}
	}

	rows := make([]store.HourlyRevenueRow, len(revRows))
	copy(rows, revRows)
	sort.Slice(rows, func(i, j int) bool { return rows[i].Hora < rows[j].Hora })

	series := make([]HourlyPoint, 0, len(rows))
	var cumRevenue float64
	var cumAttendance int
	for _, row := range rows {
		count := len(visitorsByHour[row.Hora])
		if count == 0 {
			count = row.Quantity()
		}
		cumRevenue += row.Value()
		cumAttendance += count
		series = append(series, HourlyPoint{
			Hour:                 row.Hora,
			Revenue:              row.Value(),
			Attendance:           count,
			CumulativeRevenue:    cumRevenue,
			CumulativeAttendance: cumAttendance,
		})
	}
	return series
}
