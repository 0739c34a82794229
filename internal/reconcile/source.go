package reconcile

import "context"

// Source identifies which primary revenue system was authoritative for a date.
type Source string

const (
	// SourceYuzer marks dates where the Yuzer event platform ran the house.
	SourceYuzer Source = "yuzer"
	// SourceContaHub marks regular point-of-sale dates.
	SourceContaHub Source = "contahub"
	// SourceNone marks dates where neither system reported any rows.
	SourceNone Source = "none"
)

// Detection carries the authoritative source choice plus both raw totals,
// which the resolver reuses as revenue components.
type Detection struct {
	Source        Source
	YuzerTotal    float64
	YuzerRows     int
	ContaHubTotal float64
	ContaHubRows  int
}

// detectSource decides between Yuzer and ContaHub for a date by comparing the
// complete revenue totals each system reported. Yuzer wins only with at least
// one row and a strictly larger total, so an exact tie lands on ContaHub.
func (s *Service) detectSource(ctx context.Context, barID int64, date string) (Detection, []SourceIssue) {
	var issues []SourceIssue
	det := Detection{Source: SourceNone}

	yuzerRows, err := s.repo.YuzerOrderTotals(ctx, barID, date)
	if err != nil {
		issues = append(issues, SourceIssue{Source: "yuzer_analitico", Error: err.Error()})
	}
	for _, row := range yuzerRows {
		det.YuzerTotal += row.Value()
	}
	det.YuzerRows = len(yuzerRows)

	hubRows, err := s.repo.HourlyRevenueTotals(ctx, barID, date)
	if err != nil {
		issues = append(issues, SourceIssue{Source: "fatporhora", Error: err.Error()})
	}
	for _, row := range hubRows {
		det.ContaHubTotal += row.Value()
	}
	det.ContaHubRows = len(hubRows)

	switch {
	case det.YuzerRows > 0 && det.YuzerTotal > det.ContaHubTotal:
		det.Source = SourceYuzer
	case det.ContaHubRows > 0:
		det.Source = SourceContaHub
	}
	return det, issues
}
