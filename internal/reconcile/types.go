// Package reconcile merges the revenue and attendance signals recorded by the
// point-of-sale, ticketing and reservation systems into one comparable record
// per operating date, and aggregates those records per performing artist.
package reconcile

// HourlyPoint is one hour of the intraday revenue/attendance curve. The
// cumulative fields carry running totals in ascending hour order.
type HourlyPoint struct {
	Hour                 string  `json:"hour"`
	Revenue              float64 `json:"revenue"`
	Attendance           int     `json:"attendance"`
	CumulativeRevenue    float64 `json:"cumulative_revenue"`
	CumulativeAttendance int     `json:"cumulative_attendance"`
}

// SourceIssue records a sub-fetch that failed while resolving a date. The
// resolution itself degrades to zero for that component instead of failing.
type SourceIssue struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// DailyMetrics is the reconciled record for one operating date.
type DailyMetrics struct {
	Date             string  `json:"date"`
	ArtistName       string  `json:"artist_name,omitempty"`
	Source           Source  `json:"source"`
	TotalRevenue     float64 `json:"total_revenue"`
	RevenueYuzer     float64 `json:"revenue_yuzer"`
	RevenueContaHub  float64 `json:"revenue_contahub"`
	RevenueSympla    float64 `json:"revenue_sympla"`
	Attendance       int     `json:"attendance"`
	AverageTicket    float64 `json:"average_ticket"`
	ReservationCount int     `json:"reservation_count"`
	KitchenTime      float64 `json:"kitchen_service_time"`
	BarTime          float64 `json:"bar_service_time"`

	HourlySeries []HourlyPoint `json:"hourly_series"`

	// Issues lists the sub-fetches that failed and were zero-defaulted.
	Issues []SourceIssue `json:"issues,omitempty"`
}

// HasData reports whether the date produced any usable signal. Dates with
// neither revenue nor attendance are excluded from artist averaging.
func (m DailyMetrics) HasData() bool {
	return m.TotalRevenue > 0 || m.Attendance > 0
}

// ArtistStats aggregates DailyMetrics across an artist's valid event dates.
type ArtistStats struct {
	Name string `json:"name"`

	TotalRevenue         float64 `json:"total_revenue"`
	TotalRevenueYuzer    float64 `json:"total_revenue_yuzer"`
	TotalRevenueContaHub float64 `json:"total_revenue_contahub"`
	TotalRevenueSympla   float64 `json:"total_revenue_sympla"`
	TotalAttendance      int     `json:"total_attendance"`
	TotalReservations    int     `json:"total_reservations"`

	AvgRevenue         float64 `json:"avg_revenue"`
	AvgRevenueYuzer    float64 `json:"avg_revenue_yuzer"`
	AvgRevenueContaHub float64 `json:"avg_revenue_contahub"`
	AvgRevenueSympla   float64 `json:"avg_revenue_sympla"`
	AvgAttendance      float64 `json:"avg_attendance"`
	AvgReservations    float64 `json:"avg_reservations"`

	// AverageTicket divides total revenue by total attendance, not the mean
	// of per-event ratios.
	AverageTicket  float64 `json:"average_ticket"`
	AvgKitchenTime float64 `json:"avg_kitchen_time"`
	AvgBarTime     float64 `json:"avg_bar_time"`

	EventCount      int `json:"event_count"`
	ValidEventCount int `json:"valid_event_count"`

	RecurrenceRate    float64 `json:"recurrence_rate"`
	AttendanceGrowth  float64 `json:"attendance_growth"`
	FidelityScore     float64 `json:"fidelity_score"`
	ServiceEfficiency float64 `json:"service_efficiency"`
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
