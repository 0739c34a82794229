package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ErrMissingSelection is returned when a comparison is requested without both
// sides selected. No remote calls are made in that case.
var ErrMissingSelection = errors.New("reconcile: comparison requires two selections")

// DateComparison holds the two reconciled records plus derived insights.
type DateComparison struct {
	ComparisonID string          `json:"comparison_id"`
	First        DailyMetrics    `json:"first"`
	Second       DailyMetrics    `json:"second"`
	Insights     []string        `json:"insights"`
	Recurrence   json.RawMessage `json:"customer_recurrence,omitempty"`
}

// ArtistComparison holds the two aggregated artist records plus insights.
type ArtistComparison struct {
	ComparisonID string      `json:"comparison_id"`
	First        ArtistStats `json:"first"`
	Second       ArtistStats `json:"second"`
	Insights     []string    `json:"insights"`
}

// CompareDates resolves both dates in parallel and derives insight lines.
// The artist-name normalization hook fires before the resolution and the
// customer-recurrence report afterwards; both are best effort.
func (s *Service) CompareDates(ctx context.Context, barID int64, date1, date2 string) (DateComparison, error) {
	if date1 == "" || date2 == "" {
		return DateComparison{}, ErrMissingSelection
	}

	if s.crm != nil {
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.crm.NormalizeArtistNames(ctx, barID); err != nil {
				s.logger.Warn("reconcile: artist normalization skipped", slog.Any("error", err))
			}
		}()
	}

	cmp := DateComparison{ComparisonID: uuid.NewString()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		cmp.First = s.DailyMetrics(gctx, barID, date1)
		return nil
	})
	g.Go(func() error {
		cmp.Second = s.DailyMetrics(gctx, barID, date2)
		return nil
	})
	if err := g.Wait(); err != nil {
		return DateComparison{}, err
	}

	if s.crm != nil {
		report, err := s.crm.CustomerRecurrence(ctx, barID, date1, date2, cmp.First.ArtistName, cmp.Second.ArtistName)
		if err != nil {
			s.logger.Warn("reconcile: customer recurrence unavailable", slog.Any("error", err))
		} else {
			cmp.Recurrence = report
		}
	}

	cmp.Insights = dateInsights(cmp.First, cmp.Second)
	return cmp, nil
}

// CompareArtists aggregates both artists in parallel. Unlike the date path,
// either side lacking data aborts the whole comparison: an artist comparison
// with one side missing is meaningless.
func (s *Service) CompareArtists(ctx context.Context, barID int64, artist1, artist2 string) (ArtistComparison, error) {
	if artist1 == "" || artist2 == "" {
		return ArtistComparison{}, ErrMissingSelection
	}
	if artist1 == artist2 {
		return ArtistComparison{}, fmt.Errorf("%w: pick two distinct artists", ErrMissingSelection)
	}

	cmp := ArtistComparison{ComparisonID: uuid.NewString()}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		stats, err := s.ArtistStats(gctx, barID, artist1)
		if err != nil {
			return fmt.Errorf("%s: %w", artist1, err)
		}
		cmp.First = stats
		return nil
	})
	g.Go(func() error {
		stats, err := s.ArtistStats(gctx, barID, artist2)
		if err != nil {
			return fmt.Errorf("%s: %w", artist2, err)
		}
		cmp.Second = stats
		return nil
	})
	if err := g.Wait(); err != nil {
		return ArtistComparison{}, err
	}

	cmp.Insights = artistInsights(cmp.First, cmp.Second)
	return cmp, nil
}

// dateInsights derives the human-readable delta lines between two dates. The
// second date is read as the later one, so deltas are second minus first.
func dateInsights(first, second DailyMetrics) []string {
	insights := []string{}

	revDiff := second.TotalRevenue - first.TotalRevenue
	var revPct float64
	if first.TotalRevenue > 0 {
		revPct = revDiff / first.TotalRevenue * 100
	}
	switch {
	case revDiff > 0:
		insights = append(insights, fmt.Sprintf("Revenue grew %.2f (+%.1f%%)", revDiff, revPct))
	case revDiff < 0:
		insights = append(insights, fmt.Sprintf("Revenue fell %.2f (%.1f%%)", math.Abs(revDiff), revPct))
	}

	attDiff := second.Attendance - first.Attendance
	switch {
	case attDiff > 0:
		insights = append(insights, fmt.Sprintf("Received %d more patrons", attDiff))
	case attDiff < 0:
		insights = append(insights, fmt.Sprintf("Received %d fewer patrons", -attDiff))
	}

	ticketDiff := second.AverageTicket - first.AverageTicket
	if math.Abs(ticketDiff) > 5 {
		direction := "rose"
		if ticketDiff < 0 {
			direction = "dropped"
		}
		insights = append(insights, fmt.Sprintf("Average ticket %s %.2f", direction, math.Abs(ticketDiff)))
	}

	if first.KitchenTime > 0 && second.KitchenTime > 0 {
		kitchenDiff := second.KitchenTime - first.KitchenTime
		if math.Abs(kitchenDiff) > 1 {
			direction := "increased"
			if kitchenDiff < 0 {
				direction = "decreased"
			}
			insights = append(insights, fmt.Sprintf("Kitchen service time %s %.1f min", direction, math.Abs(kitchenDiff)))
		}
	}

	if first.ArtistName != second.ArtistName && (first.ArtistName != "" || second.ArtistName != "") {
		insights = append(insights, fmt.Sprintf("Lineup changed: %s to %s", orNA(first.ArtistName), orNA(second.ArtistName)))
	}

	return insights
}

// artistInsights flags the larger deltas between two artists, using thresholds
// so near-ties stay silent.
func artistInsights(first, second ArtistStats) []string {
	insights := []string{}

	if second.TotalRevenue > 0 {
		revPct := (first.TotalRevenue - second.TotalRevenue) / second.TotalRevenue * 100
		if math.Abs(revPct) > 20 {
			leader := first.Name
			if revPct < 0 {
				leader = second.Name
			}
			insights = append(insights, fmt.Sprintf("%s brings %.1f%% more revenue", leader, math.Abs(revPct)))
		}
	}

	if second.AverageTicket > 0 {
		ticketPct := (first.AverageTicket - second.AverageTicket) / second.AverageTicket * 100
		if math.Abs(ticketPct) > 15 {
			leader := first.Name
			if ticketPct < 0 {
				leader = second.Name
			}
			insights = append(insights, fmt.Sprintf("%s drives a %.1f%% higher average ticket", leader, math.Abs(ticketPct)))
		}
	}

	if first.AvgBarTime > 0 && second.AvgBarTime > 0 {
		faster := first.Name
		if second.AvgBarTime < first.AvgBarTime {
			faster = second.Name
		}
		insights = append(insights, fmt.Sprintf("%s gets faster bar service", faster))
	}

	if second.TotalAttendance > 0 {
		attPct := float64(first.TotalAttendance-second.TotalAttendance) / float64(second.TotalAttendance) * 100
		if math.Abs(attPct) > 25 {
			leader := first.Name
			if attPct < 0 {
				leader = second.Name
			}
			insights = append(insights, fmt.Sprintf("%s draws %.1f%% more public", leader, math.Abs(attPct)))
		}
	}

	return insights
}

func orNA(name string) string {
	if name == "" {
		return "N/A"
	}
	return name
}
