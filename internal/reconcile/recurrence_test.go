package reconcile

import (
	"context"
	"math"
	"testing"
)

func TestEstimateRecurrenceTiers(t *testing.T) {
	cases := []struct {
		name           string
		totalEvents    int
		eventsWithData int
		avgAttendance  float64
		want           float64
	}{
		{"big act full data", 10, 10, 600, 75},       // 45 + 100*0.3
		{"big act mid crowd", 12, 6, 300, 47.5},      // 35 + 50*0.25
		{"big act small crowd", 10, 5, 100, 35},      // 25 + 50*0.2
		{"mid act big crowd", 5, 5, 501, 65},         // 40 + 100*0.25
		{"mid act mid crowd", 8, 4, 250, 40},         // 30 + 50*0.2
		{"mid act small crowd", 5, 5, 50, 35},        // 20 + 100*0.15
		{"small act big crowd", 2, 2, 600, 55},       // 35 + 100*0.2
		{"small act mid crowd", 4, 2, 300, 32.5},     // 25 + 50*0.15
		{"small act small crowd", 3, 3, 80, 25},      // 15 + 100*0.1
		{"no data big act", 10, 0, 0, 30},
		{"no data mid act", 5, 0, 0, 20},
		{"no data small act", 2, 0, 0, 15},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := estimateRecurrence(tc.totalEvents, tc.eventsWithData, tc.avgAttendance)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("estimateRecurrence(%d, %d, %v) = %v, want %v",
					tc.totalEvents, tc.eventsWithData, tc.avgAttendance, got, tc.want)
			}
		})
	}
}

func TestEstimateRecurrenceClamped(t *testing.T) {
	if got := estimateRecurrence(100, 100, 10000); got != 75 {
		// 45 + 100*0.3 stays below the cap.
		t.Fatalf("got %v", got)
	}
	for totalEvents := 2; totalEvents <= 20; totalEvents++ {
		for _, avg := range []float64{0, 100, 300, 1000} {
			got := estimateRecurrence(totalEvents, totalEvents, avg)
			if got < 5 || got > 80 {
				t.Fatalf("estimate %v outside [5, 80]", got)
			}
		}
	}
}

func TestRecurrenceRateNeedsTwoEvents(t *testing.T) {
	repo := &stubRepo{
		artistEvents: map[string][]string{
			"Solo": {"2025-03-10"},
		},
		headcount: map[string]int{"2025-03-10": 400},
	}
	svc := newTestService(repo)
	if got := svc.recurrenceRate(context.Background(), 1, "Solo"); got != 0 {
		t.Fatalf("single event must score 0, got %v", got)
	}
	if got := svc.recurrenceRate(context.Background(), 1, "Nunca Tocou"); got != 0 {
		t.Fatalf("unknown artist must score 0, got %v", got)
	}
}

func TestRecurrenceRateFallsBackToCheckins(t *testing.T) {
	repo := &stubRepo{
		artistEvents: map[string][]string{
			"Duo": {"2025-03-10", "2025-02-10"},
		},
		checkins: map[string]int{
			"2025-03-10": 250,
			"2025-02-10": 260,
		},
	}
	svc := newTestService(repo)
	// Both events have data via check-ins: 2 events, avg 255 -> 25 + 100*0.15.
	if got := svc.recurrenceRate(context.Background(), 1, "Duo"); got != 40 {
		t.Fatalf("recurrence = %v, want 40", got)
	}
}
