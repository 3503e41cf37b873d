package recurring

import (
	"time"

	"github.com/omsharma/finbuddy/backend/internal/model"
)

// Band is a named interval classification: an inclusive day range an average
// charge gap can fall into, and the canonical step used as the ideal interval
// when scoring gap consistency.
type Band struct {
	Frequency   model.Frequency
	MinDays     float64
	MaxDays     float64
	AdvanceDays float64
}

// bands is the single shared classification table. Gaps that fall between
// ranges (e.g. 12 days) classify to no band and default to monthly.
var bands = []Band{
	{model.FrequencyWeekly, 5, 9, 7},
	{model.FrequencyMonthly, 25, 35, 30},
	{model.FrequencyQuarterly, 80, 100, 90},
	{model.FrequencyYearly, 350, 380, 365},
}

// defaultAdvanceDays is the ideal interval assumed when no band matches.
const defaultAdvanceDays = 30

// classifyInterval maps an average day gap onto a band.
func classifyInterval(avgDays float64) (Band, bool) {
	for _, b := range bands {
		if avgDays >= b.MinDays && avgDays <= b.MaxDays {
			return b, true
		}
	}
	return Band{}, false
}

// advanceCalendar moves a date forward one cadence unit using calendar
// arithmetic (month-add, not a fixed day count), so a March 5 monthly charge
// expects April 5 regardless of month length.
func advanceCalendar(d time.Time, f model.Frequency) time.Time {
	switch f {
	case model.FrequencyWeekly:
		return d.AddDate(0, 0, 7)
	case model.FrequencyMonthly:
		return d.AddDate(0, 1, 0)
	case model.FrequencyQuarterly:
		return d.AddDate(0, 3, 0)
	case model.FrequencyYearly:
		return d.AddDate(1, 0, 0)
	default:
		return d.AddDate(0, 1, 0)
	}
}

// truncateDay drops the time-of-day component.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// daysBetween returns the whole-day gap between two day-truncated dates.
func daysBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / 24
}
