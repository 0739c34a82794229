package reconcile

import (
	"strings"

	"github.com/barlens/barlens/internal/store"
)

// Group-description keywords that route a prep-time entry to the bar or the
// kitchen bucket. An empty group is treated as bar counter service.
var (
	barKeywords     = []string{"cerveja", "drink", "dose", "bebida", "balde", "combo"}
	kitchenKeywords = []string{"prato", "comida", "lanche", "petisco", "entrada"}
)

func matchesAny(group string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(group, kw) {
			return true
		}
	}
	return false
}

// classifyServiceTimes averages prep-time entries into bar and kitchen
// buckets. Durations outside the plausible window for each bucket (bar: more
// than 0.5 up to 20 minutes, kitchen: 1 to 45 minutes) are dropped as sensor
// noise. Empty buckets average to zero.
func classifyServiceTimes(rows []store.ServiceTimeRow) (barAvg, kitchenAvg float64) {
	var barSum, kitchenSum float64
	var barN, kitchenN int
	for _, row := range rows {
		minutes := row.Minutes()
		group := strings.ToLower(strings.TrimSpace(row.GrpDesc))

		if (group == "" || matchesAny(group, barKeywords)) && minutes > 0.5 && minutes <= 20 {
			barSum += minutes
			barN++
		}
		if matchesAny(group, kitchenKeywords) && minutes >= 1 && minutes <= 45 {
			kitchenSum += minutes
			kitchenN++
		}
	}
	if barN > 0 {
		barAvg = barSum / float64(barN)
	}
	if kitchenN > 0 {
		kitchenAvg = kitchenSum / float64(kitchenN)
	}
	return barAvg, kitchenAvg
}
