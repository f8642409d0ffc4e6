package anomaly

import (
	"sort"
	"time"

	"github.com/Veraticus/noumi/internal/model"
)

// DailyVerdicts maps a calendar date to whether any transaction on it was
// anomalous. Dates absent from the map are not anomalous.
type DailyVerdicts map[time.Time]bool

// HasAnomaly reports whether day contains an anomalous transaction.
func (d DailyVerdicts) HasAnomaly(day time.Time) bool {
	return d[model.DateOf(day)]
}

// AnomalousDays returns the anomalous dates in chronological order.
func (d DailyVerdicts) AnomalousDays() []time.Time {
	days := make([]time.Time, 0)
	for day, bad := range d {
		if bad {
			days = append(days, day)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days
}

// Daily reduces per-transaction verdicts to per-day verdicts. Every date that
// has at least one transaction appears in the result.
func Daily(transactions []model.Transaction, result Result) DailyVerdicts {
	days := make(DailyVerdicts)
	for _, txn := range transactions {
		day := txn.Day()
		if result[txn.ID].IsAnomaly {
			days[day] = true
		} else if _, ok := days[day]; !ok {
			days[day] = false
		}
	}
	return days
}
